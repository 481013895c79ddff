// Package color provides the pixel packing, colour key expansion, colour
// matrices and lookup tables the blit engine works with.
//
// All colours are 32 bit 0xAARRGGBB words unless noted otherwise.
package color

// ARGB builds a 0xAARRGGBB word.
func ARGB(a, r, g, b uint32) uint32 {
	return (a&0xff)<<24 | (r&0xff)<<16 | (g&0xff)<<8 | b&0xff
}

// Split returns the four channels of a 0xAARRGGBB word.
func Split(c uint32) (a, r, g, b uint32) {
	return c >> 24, (c >> 16) & 0xff, (c >> 8) & 0xff, c & 0xff
}

// RGB16 packs a colour into RGB565.
func RGB16(r, g, b uint32) uint32 {
	return (r&0xf8)<<8 | (g&0xfc)<<3 | (b&0xf8)>>3
}

// ARGB1555 packs a colour into ARGB1555.
func ARGB1555(a, r, g, b uint32) uint32 {
	return (a&0x80)<<8 | (r&0xf8)<<7 | (g&0xf8)<<2 | (b&0xf8)>>3
}

// ARGB4444 packs a colour into ARGB4444.
func ARGB4444(a, r, g, b uint32) uint32 {
	return (a&0xf0)<<8 | (r&0xf0)<<4 | g&0xf0 | (b&0xf0)>>4
}

// ARGB8565 packs a colour into ARGB8565, alpha in the top byte of 24 bits.
func ARGB8565(a, r, g, b uint32) uint32 {
	return (a&0xff)<<16 | RGB16(r, g, b)
}

// RGB32 packs a colour into 24 bit RGB.
func RGB32(r, g, b uint32) uint32 {
	return (r&0xff)<<16 | (g&0xff)<<8 | b&0xff
}

// ExpandRGB16 expands an RGB565 value to 0x00RRGGBB, replicating the most
// significant bits into the missing low bits.
func ExpandRGB16(v uint32) uint32 {
	r := (v >> 11) & 0x1f
	g := (v >> 5) & 0x3f
	b := v & 0x1f
	return (r<<3|r>>2)<<16 | (g<<2|g>>4)<<8 | (b<<3 | b>>2)
}

// ExpandARGB1555 expands an ARGB1555 value to 0xAARRGGBB.
func ExpandARGB1555(v uint32) uint32 {
	var a uint32
	if v&0x8000 != 0 {
		a = 0xff
	}
	r := (v >> 10) & 0x1f
	g := (v >> 5) & 0x1f
	b := v & 0x1f
	return a<<24 | (r<<3|r>>2)<<16 | (g<<3|g>>2)<<8 | (b<<3 | b>>2)
}

// ExpandARGB4444 expands an ARGB4444 value to 0xAARRGGBB.
func ExpandARGB4444(v uint32) uint32 {
	a := (v >> 12) & 0xf
	r := (v >> 8) & 0xf
	g := (v >> 4) & 0xf
	b := v & 0xf
	return (a*0x11)<<24 | (r*0x11)<<16 | (g*0x11)<<8 | b*0x11
}
