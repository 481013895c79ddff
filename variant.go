package bdisp

// Variant identifies a generation of the blit engine. It selects the pixel
// format table and the line and rotate buffer sizes.
type Variant uint8

const (
	// VariantBDisp is the first generation engine.
	VariantBDisp Variant = iota + 1

	// VariantBDisp2 adds planar sources, AVYU and VYU, longer line
	// buffers and is restricted to 64 MB memory banks.
	VariantBDisp2
)

func (v Variant) String() string {
	switch v {
	case VariantBDisp:
		return "BDisp"
	case VariantBDisp2:
		return "BDisp2"
	}
	return "unknown"
}
