package color

// LUTSize is the number of entries in a colour lookup table.
const LUTSize = 256

// LUT is one hardware colour lookup table. The engine's alpha range is
// 0 to 0x80 inside the blend unit, so entries index alpha by that range.
type LUT [LUTSize]uint32

// LUTType names the fixed and dynamic tables the engine keeps in CLUT
// memory.
type LUTType uint8

const (
	LUTNone LUTType = iota
	LUTOneAlphaRGB
	LUTInvAlphaZeroRGB
	LUTAlphaZeroRGB
	LUTZeroAlphaRGB
	LUTZeroAlphaZeroRGB
	LUTOneAlphaZeroRGB

	// Dynamic tables are rebuilt from the current colour.
	LUTColorAlpha
	LUTInvColorAlpha
	LUTAlphaMulColorAlpha
	LUTInvAlphaMulColorAlpha
	LUTNormal

	LUTTypeCount
)

var lutNames = [...]string{
	LUTNone:                  "NONE",
	LUTOneAlphaRGB:           "ONEALPHA_RGB",
	LUTInvAlphaZeroRGB:       "INVALPHA_ZERORGB",
	LUTAlphaZeroRGB:          "ALPHA_ZERORGB",
	LUTZeroAlphaRGB:          "ZEROALPHA_RGB",
	LUTZeroAlphaZeroRGB:      "ZEROALPHA_ZERORGB",
	LUTOneAlphaZeroRGB:       "ONEALPHA_ZERORGB",
	LUTColorAlpha:            "COLORALPHA",
	LUTInvColorAlpha:         "INVCOLORALPHA",
	LUTAlphaMulColorAlpha:    "ALPHA_MUL_COLORALPHA",
	LUTInvAlphaMulColorAlpha: "INV_ALPHA_MUL_COLORALPHA",
	LUTNormal:                "NORMAL",
}

func (t LUTType) String() string {
	if int(t) < len(lutNames) {
		return lutNames[t]
	}
	return "INVALID"
}

// IsFixed reports whether t is one of the constant tables.
func (t LUTType) IsFixed() bool { return t >= LUTOneAlphaRGB && t <= LUTOneAlphaZeroRGB }

// Inverse returns the table that inverts alpha relative to t, used by the
// second pass of DST_IN. Types without an inverse are returned unchanged.
func (t LUTType) Inverse() LUTType {
	switch t {
	case LUTColorAlpha:
		return LUTInvColorAlpha
	case LUTAlphaMulColorAlpha:
		return LUTInvAlphaMulColorAlpha
	case LUTOneAlphaRGB:
		return LUTInvAlphaZeroRGB
	}
	return t
}

// Fixed returns the constant table t. It panics for dynamic types.
func Fixed(t LUTType) *LUT {
	var l LUT
	for i := range uint32(LUTSize) {
		switch t {
		case LUTOneAlphaRGB:
			if i <= 0x80 {
				l[i] = ARGB(0x80, i, i, i)
			} else {
				l[i] = ARGB(0, i, i, i)
			}
		case LUTInvAlphaZeroRGB:
			if i <= 0x80 {
				l[i] = ARGB(0x80-i, 0, 0, 0)
			}
		case LUTAlphaZeroRGB:
			if i <= 0x80 {
				l[i] = ARGB(i, 0, 0, 0)
			}
		case LUTZeroAlphaRGB:
			l[i] = ARGB(0, i, i, i)
		case LUTZeroAlphaZeroRGB:
		case LUTOneAlphaZeroRGB:
			if i <= 0x80 {
				l[i] = ARGB(0x80, 0, 0, 0)
			}
		default:
			panic("color: " + t.String() + " is not a fixed table")
		}
	}
	return &l
}

// ColorAlpha builds the table that replaces every alpha with the engine
// alpha of the colour. Alpha is given in the engine range 0 to 0x80.
func ColorAlpha(alpha uint32) *LUT {
	var l LUT
	for i := range uint32(LUTSize) {
		if i <= 0x80 {
			l[i] = ARGB(alpha, i, i, i)
		} else {
			l[i] = ARGB(0, i, i, i)
		}
	}
	return &l
}

// AlphaMulColorAlpha builds the table that multiplies every alpha by the
// engine alpha of the colour.
func AlphaMulColorAlpha(alpha uint32) *LUT {
	var l LUT
	for i := range uint32(LUTSize) {
		if i <= 0x80 {
			l[i] = ARGB(i*alpha/0x80, i, i, i)
		} else {
			l[i] = ARGB(0, i, i, i)
		}
	}
	return &l
}

// InverseAlpha derives the second pass table of DST_IN and DST_OUT from a
// first pass table: alpha becomes 0x80 minus the original, colour is zero.
func InverseAlpha(p *LUT) *LUT {
	var l LUT
	for i := 0; i <= 0x80; i++ {
		l[i] = (0x80 - (p[i] >> 24)) << 24
	}
	return &l
}

// AlphaOnly clears the colour of every entry, keeping alpha.
func AlphaOnly(p *LUT) *LUT {
	var l LUT
	for i := range l {
		l[i] = p[i] & 0xff000000
	}
	return &l
}

// EngineAlpha converts an 8 bit alpha to the engine's 0 to 0x80 range.
func EngineAlpha(a uint8) uint32 { return (uint32(a) + 1) / 2 }
