package blend

// mulDiv255 multiplies two bytes and divides by 255 with rounding.
// Formula: (a * b + 127) / 255
func mulDiv255(a, b byte) byte {
	return byte((uint16(a)*uint16(b) + 127) / 255)
}

// addClamp adds two bytes and clamps to 255.
func addClamp(a, b byte) byte {
	sum := uint16(a) + uint16(b)
	if sum > 255 {
		return 255
	}
	return byte(sum)
}

// Premultiply scales the colour channels by alpha.
func Premultiply(r, g, b, a byte) (byte, byte, byte, byte) {
	return mulDiv255(r, a), mulDiv255(g, a), mulDiv255(b, a), a
}

// Demultiply divides the colour channels by alpha. A zero alpha yields
// transparent black.
func Demultiply(r, g, b, a byte) (byte, byte, byte, byte) {
	if a == 0 {
		return 0, 0, 0, 0
	}
	if a == 255 {
		return r, g, b, a
	}
	d := func(c byte) byte {
		v := (uint16(c)*255 + uint16(a)/2) / uint16(a)
		if v > 255 {
			return 255
		}
		return byte(v)
	}
	return d(r), d(g), d(b), a
}

// ScaleAlpha multiplies every channel by the 0-255 modulation value m. It is
// the CPU equivalent of the engine's colour-alpha modulation of a
// premultiplied source.
func ScaleAlpha(r, g, b, a, m byte) (byte, byte, byte, byte) {
	return mulDiv255(r, m), mulDiv255(g, m), mulDiv255(b, m), mulDiv255(a, m)
}
