// Package state caches the engine register image derived from a graphics
// state. A change of state invalidates a set of register groups; only the
// groups an operation needs are recomputed when it is prepared.
package state

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gogpu/bdisp"
	"github.com/gogpu/bdisp/internal/check"
	"github.com/gogpu/bdisp/internal/color"
	"github.com/gogpu/bdisp/internal/node"
	"github.com/gogpu/bdisp/internal/profile"
	"github.com/gogpu/bdisp/internal/reg"
)

// Config configures a Cache.
type Config struct {
	Profile *profile.Profile

	// Palettes holds the dynamic colour tables. Without it operations
	// needing one are refused.
	Palettes *Palettes

	Logger *slog.Logger
}

// Cache holds the register image of the last prepared state.
type Cache struct {
	prof *profile.Profile
	pal  *Palettes
	log  *slog.Logger

	rule  bdisp.BlendRule
	op    bdisp.AccelOp
	dirty Group

	// n is the shared register image: target, sources, clip, filters,
	// keys and matrices.
	n node.Node

	extraCIC uint32
	extraINS uint32
	dstKey   uint32
	srcKey   uint32

	draw drawState
	blit blitState

	drawT Draw
	blitT Blit
}

// drawState is the general group of fills.
type drawState struct {
	cic, ins, ack uint32
	color         uint32
	colorTY       uint32
	cco, cml      uint32
}

type special uint8

const (
	specialNone special = iota
	specialNop
	specialShortcut
)

// extraPass is a pass after the main one.
type extraPass struct {
	cic, ins, ack uint32
	palType       color.LUTType
}

// blitState is the general group of blits and what was derived with it.
type blitState struct {
	src1Mode uint32
	src2Mode uint32

	factorH, factorV int

	canUseInputMatrix bool
	srcPremultColor   bool
	optimised         bool
	indexTranslation  bool

	passes int
	extra  [1]extraPass
	// mask selects the CIC, INS and ACK bits the extra passes inherit
	// from the main pass.
	mask [3]uint32

	palType color.LUTType
	palette *bdisp.Palette
	// luts holds the dynamic tables of the main and the extra pass.
	luts [2]*color.LUT

	special  special
	rotation check.Rotation
}

// New returns a cache with every group invalid.
func New(cfg Config) (*Cache, error) {
	if cfg.Profile == nil {
		return nil, errors.New("state: nil profile")
	}
	c := &Cache{
		prof:  cfg.Profile,
		pal:   cfg.Palettes,
		log:   cfg.Logger,
		dirty: GroupAll,
	}
	if c.log == nil {
		c.log = bdisp.NopLogger()
	}
	c.n[node.PMK] = reg.PlaneMaskRGB
	c.n[node.S3BA] = reg.S3BAUnused
	c.n[node.S3TY] = reg.S3TYUnused
	copy(c.n[node.OVMX0:node.OVMX3+1], color.RGBToYCbCr601[:])
	c.blit.factorH, c.blit.factorV = 1, 1
	c.blit.passes = 1
	return c, nil
}

// SetLogger replaces the logger.
func (c *Cache) SetLogger(l *slog.Logger) { c.log = l }

// Notify invalidates the groups depending on the fields in mod.
func (c *Cache) Notify(mod bdisp.Modified) { c.dirty |= Invalidated(mod) }

// Invalidate marks g as needing revalidation.
func (c *Cache) Invalidate(g Group) { c.dirty |= g }

// Dirty returns the groups awaiting revalidation.
func (c *Cache) Dirty() Group { return c.dirty }

// EnsureValid recomputes g from st if it is dirty. Revalidating a group
// may invalidate groups that come after it.
func (c *Cache) EnsureValid(st *bdisp.State, g Group) error {
	if c.dirty&g == 0 {
		return nil
	}
	if err := c.validate(st, g); err != nil {
		return err
	}
	c.dirty &^= g
	c.dirty |= sideEffects[g]
	return nil
}

func (c *Cache) ensure(st *bdisp.State, order []Group) error {
	for _, g := range order {
		if err := c.EnsureValid(st, g); err != nil {
			return err
		}
	}
	return nil
}

// Prepare brings the register image up to date for op after the fields
// in mod changed, and builds the templates the emitters use. The state is
// expected to have passed check.Check for op.
func (c *Cache) Prepare(st *bdisp.State, mod bdisp.Modified, op bdisp.AccelOp) error {
	if st.Destination == nil {
		return fmt.Errorf("%w: no destination", bdisp.ErrFallbackToCPU)
	}
	c.Notify(mod)
	c.rule = st.Rule()
	c.op = op

	before := c.dirty
	if err := c.ensure(st, commonOrder); err != nil {
		return err
	}
	var drawClip, blitClip bool
	if op.IsDraw() {
		if err := c.ensure(st, drawOrder); err != nil {
			return err
		}
		drawClip = c.buildDraw()
	}
	if op.IsBlit() {
		if st.Source == nil {
			return fmt.Errorf("%w: no source", bdisp.ErrFallbackToCPU)
		}
		// Blit2 selects the second source without a state change.
		c.dirty |= GroupSrc1Mode
		if err := c.ensure(st, blitOrder); err != nil {
			return err
		}
		ok, err := c.buildBlit(st)
		if err != nil {
			return err
		}
		blitClip = ok
	}
	if (drawClip || blitClip) && c.prof.HWClip {
		if err := c.EnsureValid(st, GroupClip); err != nil {
			return err
		}
		c.applyClip(drawClip, blitClip)
	}
	c.log.Debug("state: prepared",
		slog.String("op", op.String()),
		slog.String("validated", (before&^c.dirty).String()),
		slog.String("draw", c.drawT.Mode.String()),
		slog.String("blit", c.blitT.Mode.String()))
	return nil
}

// DrawTemplate returns the prepared fill.
func (c *Cache) DrawTemplate() *Draw { return &c.drawT }

// BlitTemplate returns the prepared blit.
func (c *Cache) BlitTemplate() *Blit { return &c.blitT }

// Rule returns the blend rule of the last prepared state.
func (c *Cache) Rule() bdisp.BlendRule { return c.rule }

// buildDraw selects the fill path and reports whether it honours the
// hardware clip.
func (c *Cache) buildDraw() bool {
	d := &c.draw
	t := &c.drawT
	t.Node = node.Node{}
	n := &t.Node
	tty := node.SanitizeTY(c.n[node.TTY])

	switch {
	case d.ins == reg.InsSrc1ModeDirectFill:
		t.Mode = DrawSimple
		n[node.CIC] = node.Fast
		n[node.INS] = reg.InsSrc1ModeDirectFill
		n[node.TBA] = c.n[node.TBA]
		n[node.TTY] = tty
		n[node.S1TY] = d.colorTY
		n[node.S1CF] = d.color
		return false
	case d.ins&reg.InsSrc1ModeMask == reg.InsSrc1ModeDisabled &&
		d.ins&reg.InsSrc2ModeMask == reg.InsSrc2ModeDisabled:
		t.Mode = DrawNop
		return true
	}

	t.Mode = DrawSlow
	n[node.CIC] = node.FullFill | d.cic | c.extraCIC
	n[node.INS] = d.ins | c.extraINS
	n[node.ACK] = d.ack
	n[node.TBA] = c.n[node.TBA]
	n[node.TTY] = tty
	n[node.S1BA] = c.n[node.TBA]
	n[node.S1TY] = tty | reg.TyColorExpandMSB
	n[node.S2CF] = d.color
	n[node.S2TY] = d.colorTY | reg.TyColorExpandMSB
	if n[node.CIC]&reg.CICCLUT != 0 {
		n[node.CCO] = d.cco
		n[node.CML] = d.cml
	}
	if n[node.CIC]&reg.CICFilters != 0 {
		n[node.PMK] = c.n[node.PMK]
	}
	if n[node.CIC]&reg.CICColorKey != 0 {
		n[node.KEY1] = keyWord(n[node.KEY1], c.dstKey)
		n[node.KEY2] = keyWord(n[node.KEY2], c.dstKey)
	}
	if n[node.CIC]&reg.CICIVMX != 0 {
		copy(n[node.IVMX0:node.IVMX3+1], color.RGBToYCbCr601[:])
	}
	return true
}

// buildBlit selects the blit path, resolves the colour tables of every
// pass and reports whether the path honours the hardware clip.
func (c *Cache) buildBlit(st *bdisp.State) (bool, error) {
	b := &c.blit
	t := &c.blitT
	*t = Blit{
		Node:     c.n,
		ExtraCIC: c.extraCIC,
		ExtraINS: c.extraINS,
		Rotation: b.rotation,
		FactorH:  b.factorH,
		FactorV:  b.factorV,
	}
	src, dst := st.Source, st.Destination

	switch b.special {
	case specialNop:
		t.Mode = BlitNop
		t.Accel = bdisp.AccelAllBlit
		return false, nil
	case specialShortcut:
		switch dst.Format {
		case bdisp.FormatYUY2, bdisp.FormatUYVY:
			t.Mode = BlitShortcut422
		case bdisp.FormatRGB32:
			t.Mode = BlitShortcutRGB32
		default:
			t.Mode = BlitShortcut
		}
		t.Accel = bdisp.AccelAllBlit
		return false, nil
	}

	clip := true
	switch {
	case b.rotation.Quarter():
		t.Mode = BlitRotate
		t.Accel = bdisp.AccelBlit
		clip = false
	case src.Format == dst.Format &&
		st.BlittingFlags&^bdisp.BlitIndexTranslation == 0 &&
		b.rotation == check.RotateNone:
		t.Mode = BlitSimple
		if dst.Format == bdisp.FormatYUY2 || dst.Format == bdisp.FormatUYVY {
			t.Mode = BlitSimple422
		}
		t.Accel = bdisp.AccelBlit | bdisp.AccelStretchBlit
	case src.Format.IsPlanar():
		t.Mode = BlitAsStretch
		t.Accel = bdisp.AccelBlit | bdisp.AccelStretchBlit
	default:
		t.Mode = BlitSlow
		t.Accel = bdisp.AccelBlit | bdisp.AccelStretchBlit
	}
	if c.op&bdisp.AccelBlit2 != 0 && t.Mode != BlitRotate {
		t.Accel |= bdisp.AccelBlit2
	}

	main, err := c.setupPass(c.n[node.CIC], c.n[node.INS], c.n[node.ACK], b.palType, b.luts[0], b.palette)
	if err != nil {
		return false, err
	}
	t.Passes = append(t.Passes, main)
	cic, ins, ack := c.n[node.CIC], c.n[node.INS], c.n[node.ACK]
	for i := 0; i < b.passes-1; i++ {
		e := b.extra[i]
		e.cic |= cic & b.mask[0] &^ e.cic
		e.ins |= ins & b.mask[1] &^ e.ins
		e.ack |= ack & b.mask[2] &^ e.ack
		var pal *bdisp.Palette
		if e.palType == color.LUTNormal {
			pal = b.palette
		}
		p, err := c.setupPass(e.cic, e.ins, e.ack, e.palType, b.luts[i+1], pal)
		if err != nil {
			return false, err
		}
		t.Passes = append(t.Passes, p)
	}
	t.Node[node.CIC] = main.CIC
	t.Node[node.INS] = main.INS
	t.Node[node.ACK] = main.ACK
	t.Node[node.CCO] = main.CCO
	t.Node[node.CML] = main.CML
	return clip, nil
}

// setupPass clears the stages the emitters program per operation and
// selects the colour table of one pass.
func (c *Cache) setupPass(cic, ins, ack uint32, t color.LUTType, lut *color.LUT, pal *bdisp.Palette) (Pass, error) {
	cic &^= reg.CICFiltersChr | reg.CICFiltersLuma | reg.CICFlicker
	if ins&reg.InsEnablePlaneMask == 0 {
		cic &^= reg.CICFilters
	}
	ins &^= reg.InsEnable2DRescale | reg.InsEnableFlickerFilter

	p := Pass{ACK: ack, CCO: c.n[node.CCO]}
	user := t == color.LUTNormal && pal != nil
	if !c.blit.indexTranslation && (user || (t != color.LUTNormal && t != color.LUTNone)) {
		phys, err := c.lutPhys(t, lut, pal)
		if err != nil {
			return Pass{}, err
		}
		cic |= reg.CICCLUT
		ins |= reg.InsEnableCLUT
		mode := reg.CCOCorrect
		if t == color.LUTNormal {
			mode = reg.CCOExpand
		}
		p.CCO = p.CCO&^reg.CCOModeMask | mode | reg.CCOUpdateEn
		p.CML = phys
	} else {
		cic &^= reg.CICCLUT
		ins &^= reg.InsEnableCLUT
	}
	p.CIC, p.INS = cic, ins
	return p, nil
}

// lutPhys returns the address of table t.
func (c *Cache) lutPhys(t color.LUTType, lut *color.LUT, pal *bdisp.Palette) (uint32, error) {
	if t.IsFixed() {
		return c.prof.CLUTPhys + FixedOffset(t), nil
	}
	if c.pal == nil {
		return 0, fmt.Errorf("%w: %w", bdisp.ErrFallbackToCPU, ErrNoPalettes)
	}
	switch {
	case t == color.LUTNormal:
		lut = userLUT(pal)
	case lut == nil:
		return 0, fmt.Errorf("state: no contents for %v table", t)
	}
	return c.pal.Load(lut)
}

func (c *Cache) applyClip(draw, blit bool) {
	if d := &c.drawT; draw && d.Mode == DrawSlow {
		d.Node[node.CIC] |= reg.CICClip
		d.Node[node.INS] |= reg.InsEnableRectClip
		d.Node[node.CWO] = c.n[node.CWO]
		d.Node[node.CWS] = c.n[node.CWS]
	}
	if !blit {
		return
	}
	b := &c.blitT
	switch b.Mode {
	case BlitSlow, BlitAsStretch:
		b.Clip = true
		b.Node[node.CWO] = c.n[node.CWO]
		b.Node[node.CWS] = c.n[node.CWS]
		for i := range b.Passes {
			b.Passes[i].CIC |= reg.CICClip
			b.Passes[i].INS |= reg.InsEnableRectClip
		}
	}
}

// FixedOffset returns the offset of fixed table t from the start of the
// CLUT area. The fixed tables are stored in type order.
func FixedOffset(t color.LUTType) uint32 {
	return uint32(t-color.LUTOneAlphaRGB) * LUTBytes
}
