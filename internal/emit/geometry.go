package emit

import "github.com/gogpu/bdisp"

// one is 1.0 in 16.16 fixed point.
const one = 1 << 16

func f16(v int) int64 { return int64(v) << 16 }

// trunc returns the integer part of a 16.16 value, rounding towards
// negative infinity.
func trunc(v int64) int { return int(v >> 16) }

// rect16 is a rectangle in 16.16 fixed point.
type rect16 struct {
	x, y, w, h int64
}

func fixedRect(r bdisp.Rect) rect16 {
	return rect16{x: f16(r.X), y: f16(r.Y), w: f16(r.W), h: f16(r.H)}
}

func (r rect16) intersects(o rect16) bool {
	return r.x < o.x+o.w && o.x < r.x+r.w && r.y < o.y+o.h && o.y < r.y+r.h
}

// Limits of a 16.16 source increment once rounded to the 10 bit fraction
// of the resize registers.
const (
	minIncrement = 0x40
	maxIncrement = 63<<16 | 0xffc0
)

// increment returns the rounded 16.16 source step per target pixel for
// scaling src onto dst, both in 16.16.
func increment(src, dst int64) (int64, bool) {
	if dst <= 0 {
		return 0, false
	}
	v := (src<<16)/dst + 32
	v &^= 0x3f
	return v, v >= minIncrement && v <= maxIncrement
}
