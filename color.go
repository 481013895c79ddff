package bdisp

import "image/color"

// Color is a non-premultiplied 8 bit ARGB colour, as used for the fill
// colour, colourize and colour-alpha modulation.
type Color struct {
	A, R, G, B uint8
}

// ARGB packs c into a 32 bit 0xAARRGGBB word.
func (c Color) ARGB() uint32 {
	return uint32(c.A)<<24 | uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

// ColorFromARGB unpacks a 0xAARRGGBB word.
func ColorFromARGB(v uint32) Color {
	return Color{A: uint8(v >> 24), R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}
}

// RGBA implements color.Color.
func (c Color) RGBA() (r, g, b, a uint32) {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}.RGBA()
}

// Premultiplied returns c with the colour channels scaled by alpha, the
// way the engine does it: c*(a+1) >> 8.
func (c Color) Premultiplied() Color {
	a := uint32(c.A) + 1
	return Color{
		A: c.A,
		R: uint8(uint32(c.R) * a >> 8),
		G: uint8(uint32(c.G) * a >> 8),
		B: uint8(uint32(c.B) * a >> 8),
	}
}

// FromColor converts any color.Color.
func FromColor(c color.Color) Color {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return Color{A: n.A, R: n.R, G: n.G, B: n.B}
}

// Opaque returns an opaque colour.
func Opaque(r, g, b uint8) Color { return Color{A: 0xff, R: r, G: g, B: b} }
