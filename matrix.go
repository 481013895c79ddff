package bdisp

// Fixed is a 16.16 fixed point number.
type Fixed int32

// FixedOne is 1.0 in 16.16.
const FixedOne Fixed = 1 << 16

// Int returns the integer part, rounding towards negative infinity.
func (f Fixed) Int() int { return int(f >> 16) }

// Frac returns the fractional part in 16.16.
func (f Fixed) Frac() Fixed { return f & (FixedOne - 1) }

// ToFixed converts an integer to 16.16.
func ToFixed(i int) Fixed { return Fixed(i << 16) }

// Matrix is a 2D affine transformation in 16.16 fixed point, row-major:
//
//	| a  b  c |
//	| d  e  f |
//
// The engine cannot do arbitrary transforms; only the rotations and
// mirrors without translation that the state matrix may describe.
type Matrix struct {
	A, B, C Fixed
	D, E, F Fixed
}

// Identity returns the identity transformation matrix.
func Identity() Matrix {
	return Matrix{
		A: FixedOne, B: 0, C: 0,
		D: 0, E: FixedOne, F: 0,
	}
}

// Rotate90 returns a 90 degree rotation.
func Rotate90() Matrix {
	return Matrix{
		A: 0, B: -FixedOne, C: 0,
		D: FixedOne, E: 0, F: 0,
	}
}

// Rotate180 returns a 180 degree rotation.
func Rotate180() Matrix {
	return Matrix{
		A: -FixedOne, B: 0, C: 0,
		D: 0, E: -FixedOne, F: 0,
	}
}

// Rotate270 returns a 270 degree rotation.
func Rotate270() Matrix {
	return Matrix{
		A: 0, B: FixedOne, C: 0,
		D: -FixedOne, E: 0, F: 0,
	}
}

// MirrorX mirrors against the x axis (vertical flip).
func MirrorX() Matrix {
	return Matrix{
		A: FixedOne, B: 0, C: 0,
		D: 0, E: -FixedOne, F: 0,
	}
}

// MirrorY mirrors against the y axis (horizontal flip).
func MirrorY() Matrix {
	return Matrix{
		A: -FixedOne, B: 0, C: 0,
		D: 0, E: FixedOne, F: 0,
	}
}

// IsIdentity reports whether m is the identity.
func (m Matrix) IsIdentity() bool { return m == Identity() }
