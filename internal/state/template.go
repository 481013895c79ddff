package state

import (
	"github.com/gogpu/bdisp"
	"github.com/gogpu/bdisp/internal/check"
	"github.com/gogpu/bdisp/internal/node"
)

// DrawMode selects how rectangles are filled.
type DrawMode uint8

const (
	// DrawSlow fills through the colour source and the ALU.
	DrawSlow DrawMode = iota
	// DrawSimple writes the colour directly.
	DrawSimple
	// DrawNop leaves the destination unchanged.
	DrawNop
)

func (m DrawMode) String() string {
	switch m {
	case DrawSlow:
		return "slow"
	case DrawSimple:
		return "simple"
	case DrawNop:
		return "nop"
	}
	return "invalid"
}

// Draw is a prepared fill operation.
type Draw struct {
	Mode DrawMode

	// Node is the complete node of one fill, without target position and
	// size.
	Node node.Node
}

// BlitMode selects how Blit is performed. StretchBlit always uses the
// generic path unless the mode is a nop or a shortcut.
type BlitMode uint8

const (
	// BlitSlow reads the source through the full pipeline.
	BlitSlow BlitMode = iota
	// BlitSimple copies memory directly.
	BlitSimple
	// BlitSimple422 is BlitSimple on a YCbCr 4:2:2 raster surface, which
	// the engine addresses in pairs of pixels.
	BlitSimple422
	// BlitAsStretch performs 1:1 blits of planar sources through the
	// resize path.
	BlitAsStretch
	// BlitRotate performs 90 and 270 degree rotations in tiles.
	BlitRotate
	// BlitNop leaves the destination unchanged.
	BlitNop
	// Shortcuts fill the destination rectangle with a constant.
	BlitShortcut
	BlitShortcut422
	BlitShortcutRGB32
)

var blitModeNames = [...]string{
	BlitSlow:          "slow",
	BlitSimple:        "simple",
	BlitSimple422:     "simple422",
	BlitAsStretch:     "as-stretch",
	BlitRotate:        "rotate",
	BlitNop:           "nop",
	BlitShortcut:      "shortcut",
	BlitShortcut422:   "shortcut422",
	BlitShortcutRGB32: "shortcut-rgb32",
}

func (m BlitMode) String() string {
	if int(m) < len(blitModeNames) {
		return blitModeNames[m]
	}
	return "invalid"
}

// Shortcut reports whether m fills instead of reading a source.
func (m BlitMode) Shortcut() bool {
	return m == BlitShortcut || m == BlitShortcut422 || m == BlitShortcutRGB32
}

// Pass holds the words that differ between the passes of a blit.
type Pass struct {
	CIC, INS, ACK uint32
	CCO, CML      uint32
}

// Blit is a prepared blit operation.
type Blit struct {
	Mode BlitMode

	// Accel lists the blit operations this template serves.
	Accel bdisp.AccelOp

	// Node is the register image shared by every pass.
	Node   node.Node
	Passes []Pass

	// ExtraCIC and ExtraINS are added to every generic node.
	ExtraCIC, ExtraINS uint32

	Rotation check.Rotation

	// Chroma subsampling of the source, 1 for non planar sources.
	FactorH, FactorV int

	// Clip is set when the nodes carry the clip rectangle.
	Clip bool
}
