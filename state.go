package bdisp

// State is the graphics state an operation is performed with. The caller
// owns it and reports changed fields to Accelerator.SetState through a
// Modified mask.
type State struct {
	DrawingFlags  DrawingFlags
	BlittingFlags BlittingFlags

	SrcBlend BlendFunc
	DstBlend BlendFunc

	// Color is the fill colour, and the modulation colour for
	// BlitColorize, BlitBlendColorAlpha and BlitSrcPremultColor.
	Color Color

	// ColorIndex is the fill colour on indexed destinations.
	ColorIndex uint8

	// Colour keys, in the pixel format of the surface they apply to.
	SrcColorKey uint32
	DstColorKey uint32

	Clip          Region
	RenderOptions RenderOptions
	Matrix        Matrix

	Destination *Surface
	Source      *Surface

	// Source2 is the second source read by Blit2 and BlitSource2 blits.
	Source2 *Surface
}

// NewState returns a state with opaque white colour, SRC_OVER blending,
// an identity matrix and the clip set to the destination.
func NewState(dst *Surface) *State {
	st := &State{
		SrcBlend:    BlendOne,
		DstBlend:    BlendInvSrcAlpha,
		Color:       Opaque(0xff, 0xff, 0xff),
		Matrix:      Identity(),
		Destination: dst,
	}
	if dst != nil {
		st.Clip = Region{X1: 0, Y1: 0, X2: dst.Width - 1, Y2: dst.Height - 1}
	}
	return st
}

// Rule returns the Porter-Duff rule of the state's blend pair.
func (st *State) Rule() BlendRule { return ClassifyBlend(st.SrcBlend, st.DstBlend) }
