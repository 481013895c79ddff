// Package profile describes the capabilities of one engine instance. A
// Profile is built once when a device is opened and never changes.
package profile

import (
	"fmt"

	"github.com/gogpu/bdisp"
	"github.com/gogpu/bdisp/internal/format"
)

// Profile is the immutable description of an engine and the driver
// policies chosen for it.
type Profile struct {
	Variant bdisp.Variant
	Formats *format.Table

	// Supported flag sets.
	DrawingFlags  bdisp.DrawingFlags
	BlittingFlags bdisp.BlittingFlags
	RenderOptions bdisp.RenderOptions
	Accel         bdisp.AccelOp

	// LineBuffer is the length of the resize filter line buffer, in
	// pixels. RotateBuffer is the width of one rotation tile.
	LineBuffer   int
	RotateBuffer int

	// BankCheck rejects operations touching memory on both sides of a
	// 1<<BankShift boundary.
	BankCheck bool
	BankShift uint

	// HWClip programs the clip rectangle into nodes. Without it the
	// caller is expected to clip, and the clip group is never emitted.
	HWClip bool

	// SmoothScale forces filtered scaling regardless of render options.
	SmoothScale bool

	// Physical addresses of the CLUT and filter tables in engine memory.
	CLUTPhys      uint32
	Filter8x8Phys uint32
	Filter5x8Phys uint32
}

// Config selects the optional policies of a profile.
type Config struct {
	Variant     bdisp.Variant
	BankCheck   bool
	HWClip      bool
	SmoothScale bool

	CLUTPhys      uint32
	Filter8x8Phys uint32
	Filter5x8Phys uint32
}

const (
	drawingFlags = bdisp.DrawBlend | bdisp.DrawDstColorKey | bdisp.DrawSrcPremultiply | bdisp.DrawXOR

	blittingFlags = bdisp.BlitBlendAlphaChannel | bdisp.BlitBlendColorAlpha |
		bdisp.BlitColorize | bdisp.BlitSrcColorKey | bdisp.BlitDstColorKey |
		bdisp.BlitSrcPremultiply | bdisp.BlitDstPremultiply |
		bdisp.BlitSrcPremultColor | bdisp.BlitXOR | bdisp.BlitIndexTranslation |
		bdisp.BlitRotate90 | bdisp.BlitRotate180 | bdisp.BlitRotate270 |
		bdisp.BlitFlipHorizontal | bdisp.BlitFlipVertical | bdisp.BlitSource2

	renderOptions = bdisp.RenderAntialias | bdisp.RenderSmoothUpscale |
		bdisp.RenderSmoothDownscale | bdisp.RenderMatrix
)

// New builds the profile for cfg.
func New(cfg Config) (*Profile, error) {
	tbl, err := format.For(cfg.Variant)
	if err != nil {
		return nil, fmt.Errorf("profile: %w", err)
	}
	p := &Profile{
		Variant:       cfg.Variant,
		Formats:       tbl,
		DrawingFlags:  drawingFlags,
		BlittingFlags: blittingFlags,
		RenderOptions: renderOptions,
		Accel:         bdisp.AccelAllDraw | bdisp.AccelAllBlit,
		BankCheck:     cfg.BankCheck,
		BankShift:     26,
		HWClip:        cfg.HWClip,
		SmoothScale:   cfg.SmoothScale,
		CLUTPhys:      cfg.CLUTPhys,
		Filter8x8Phys: cfg.Filter8x8Phys,
		Filter5x8Phys: cfg.Filter5x8Phys,
	}
	switch cfg.Variant {
	case bdisp.VariantBDisp:
		p.LineBuffer, p.RotateBuffer = 128, 16
	case bdisp.VariantBDisp2:
		p.LineBuffer, p.RotateBuffer = 720, 64
	}
	return p, nil
}

// CrossesBank reports whether the byte range [start, start+n) touches two
// memory banks. It is always false without BankCheck.
func (p *Profile) CrossesBank(start uint32, n int) bool {
	if !p.BankCheck || n <= 0 {
		return false
	}
	end := uint64(start) + uint64(n) - 1
	return uint64(start)>>p.BankShift != end>>p.BankShift
}
