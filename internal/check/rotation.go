package check

import "github.com/gogpu/bdisp"

// Rotation is a rotation in degrees, or one of the two mirrors.
type Rotation int

const (
	RotateNone Rotation = 0
	Rotate90   Rotation = 90
	Rotate180  Rotation = 180
	Rotate270  Rotation = 270

	// MirrorX reflects against the x axis (vertical flip).
	MirrorX Rotation = 181
	// MirrorY reflects against the y axis (horizontal flip).
	MirrorY Rotation = 182

	RotateInvalid Rotation = -1
)

func (r Rotation) String() string {
	switch r {
	case RotateNone:
		return "none"
	case Rotate90:
		return "90"
	case Rotate180:
		return "180"
	case Rotate270:
		return "270"
	case MirrorX:
		return "mirror-x"
	case MirrorY:
		return "mirror-y"
	}
	return "invalid"
}

// Quarter reports whether r is a 90 or 270 degree rotation, which the
// engine performs through its rotation buffer.
func (r Rotation) Quarter() bool { return r == Rotate90 || r == Rotate270 }

// MatrixRotation maps a transformation matrix to the rotation it
// describes. Translations and any other transform are RotateInvalid.
func MatrixRotation(m bdisp.Matrix) Rotation {
	if m.C != 0 || m.F != 0 {
		return RotateInvalid
	}
	const one = bdisp.FixedOne
	type k struct{ a, b, d, e bdisp.Fixed }
	switch (k{m.A, m.B, m.D, m.E}) {
	case k{one, 0, 0, one}:
		return RotateNone
	case k{one, 0, 0, -one}:
		return MirrorX
	case k{-one, 0, 0, one}:
		return MirrorY
	case k{-one, 0, 0, -one}:
		return Rotate180
	case k{0, one, -one, 0}:
		return Rotate270
	case k{0, -one, one, 0}:
		return Rotate90
	}
	return RotateInvalid
}

// StateRotation returns the rotation a blit with st performs. Flags take
// precedence over the matrix.
func StateRotation(st *bdisp.State) Rotation {
	f := st.BlittingFlags
	flip := bdisp.BlitFlipHorizontal | bdisp.BlitFlipVertical
	switch {
	case f&flip == flip, f&bdisp.BlitRotate180 != 0:
		return Rotate180
	case f&bdisp.BlitFlipVertical != 0:
		return MirrorX
	case f&bdisp.BlitFlipHorizontal != 0:
		return MirrorY
	case f&bdisp.BlitRotate90 != 0:
		return Rotate90
	case f&bdisp.BlitRotate270 != 0:
		return Rotate270
	case st.RenderOptions&bdisp.RenderMatrix != 0:
		return MatrixRotation(st.Matrix)
	}
	return RotateNone
}
