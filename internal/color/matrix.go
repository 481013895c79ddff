package color

// Matrix is a colour space conversion matrix as the engine's IVMX and OVMX
// register sets hold it: four words, coefficients packed in the hardware's
// fixed point layout.
type Matrix [4]uint32

var (
	// RGBToYCbCr601 converts full range RGB to ITU-R BT.601 video range
	// YCbCr.
	RGBToYCbCr601 = Matrix{0x0e1e8bee, 0x08420419, 0xfb5ed471, 0x08004080}

	// YCbCr601ToRGB converts ITU-R BT.601 video range YCbCr to full range
	// RGB.
	YCbCr601ToRGB = Matrix{0x3324a800, 0xe604ab9c, 0x0004a957, 0x32121eeb}
)

// Modulation holds the per-channel factors of a diagonal input matrix.
// Factors are 8.8 fixed point, 0x100 meaning 1.0. Offset is the packed
// 10 bit per channel term added after the multiply.
type Modulation struct {
	R, G, B uint32
	Offset  uint32
}

// Unity returns a modulation that leaves colours unchanged.
func Unity() Modulation { return Modulation{R: 0x100, G: 0x100, B: 0x100} }

// Colorize returns the modulation that multiplies each channel by the
// corresponding channel of c (0xAARRGGBB), mapping 255 to 1.0.
//
// For a YCbCr source the red, green and blue factors act on Cr, Y and Cb.
// The offset then recentres the chroma and luma around 128, so that the
// same call adjusts saturation, brightness and contrast.
func Colorize(c uint32, ycbcr bool) Modulation {
	_, r, g, b := Split(c)
	m := Modulation{R: r * 256 / 255, G: g * 256 / 255, B: b * 256 / 255}
	if ycbcr {
		m.Offset = recentre(m.R)<<20 | recentre(m.G)<<10 | recentre(m.B)
	}
	return m
}

func recentre(f uint32) uint32 {
	return uint32(-128*int32(f)/256+128) & 0x3ff
}

// ScaleAlpha multiplies every factor by alpha/255, as used when the source
// is premultiplied by the colour alpha.
func (m Modulation) ScaleAlpha(alpha uint32) Modulation {
	a := alpha * 256 / 255
	m.R = m.R * a / 256
	m.G = m.G * a / 256
	m.B = m.B * a / 256
	return m
}

// Matrix packs m into the IVMX layout: the diagonal in words 0 to 2 and the
// offset in word 3.
func (m Modulation) Matrix() Matrix {
	return Matrix{m.R << 21, m.G << 10, m.B, m.Offset}
}

// AlphaOnlyMatrix packs m for an A1 or A8 source. The engine expands such
// sources to black, so the colour is supplied through the offset word.
func (m Modulation) AlphaOnlyMatrix() Matrix {
	return Matrix{3: m.R<<20 | m.G<<10 | m.B}
}
