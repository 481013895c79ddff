package emit

import (
	"github.com/gogpu/bdisp"
	"github.com/gogpu/bdisp/internal/check"
	"github.com/gogpu/bdisp/internal/color"
	"github.com/gogpu/bdisp/internal/node"
	"github.com/gogpu/bdisp/internal/reg"
	"github.com/gogpu/bdisp/internal/state"
)

// blitTemplate returns the prepared blit if it serves op.
func (e *Emitter) blitTemplate(op bdisp.AccelOp) (*state.Blit, error) {
	if err := e.prepared(op); err != nil {
		return nil, err
	}
	t := e.cache.BlitTemplate()
	if t.Accel&op == 0 {
		return nil, fallback(ErrNotPrepared, "%v with %v blit", op, t.Mode)
	}
	return t, nil
}

// Blit copies src to dx, dy, applying the state's blend, keys, colour
// conversion and rotation.
func (e *Emitter) Blit(src bdisp.Rect, dx, dy int) error {
	t, err := e.blitTemplate(bdisp.AccelBlit)
	if err != nil {
		return err
	}
	if src.Empty() {
		return nil
	}
	if err := checkRect(src); err != nil {
		return e.refuse(err)
	}
	if err := checkPoint(dx, dy); err != nil {
		return e.refuse(err)
	}
	dst := bdisp.Rect{X: dx, Y: dy, W: src.W, H: src.H}

	switch t.Mode {
	case state.BlitNop:
		return nil
	case state.BlitShortcut, state.BlitShortcutRGB32, state.BlitShortcut422:
		return e.shortcut(t, dst)
	case state.BlitRotate:
		return e.rotate(t, src, dx, dy)
	}

	if err := e.checkBlitBanks(src, dst); err != nil {
		return e.refuse(err)
	}
	switch t.Mode {
	case state.BlitSimple, state.BlitSimple422:
		return e.simple(t, src, dx, dy)
	case state.BlitAsStretch:
		return e.stretch(t, src, dst)
	}
	return e.generic(t, src, nil, dst)
}

// Blit2 blends src of the source with the rectangle of the same size at
// sx2, sy2 of the second source and writes the result to dx, dy.
func (e *Emitter) Blit2(src bdisp.Rect, dx, dy, sx2, sy2 int) error {
	t, err := e.blitTemplate(bdisp.AccelBlit2)
	if err != nil {
		return err
	}
	if src.Empty() {
		return nil
	}
	if err := checkRect(src); err != nil {
		return e.refuse(err)
	}
	if err := checkPoint(dx, dy); err != nil {
		return e.refuse(err)
	}
	if err := checkPoint(sx2, sy2); err != nil {
		return e.refuse(err)
	}
	dst := bdisp.Rect{X: dx, Y: dy, W: src.W, H: src.H}
	src1 := bdisp.Rect{X: sx2, Y: sy2, W: src.W, H: src.H}

	switch t.Mode {
	case state.BlitNop:
		return nil
	case state.BlitShortcut, state.BlitShortcutRGB32, state.BlitShortcut422:
		return e.shortcut(t, dst)
	case state.BlitAsStretch, state.BlitRotate:
		return e.refuse(fallback(ErrNotPrepared, "blit2 with %v blit", t.Mode))
	}

	if err := e.checkBlitBanks(src, dst); err != nil {
		return e.refuse(err)
	}
	if err := e.checkBank(e.st.Source2, src1); err != nil {
		return e.refuse(err)
	}
	return e.generic(t, src, &src1, dst)
}

func (e *Emitter) checkBlitBanks(src, dst bdisp.Rect) error {
	if err := e.checkBank(e.st.Source, src); err != nil {
		return err
	}
	return e.checkBank(e.st.Destination, dst)
}

// simple copies memory with a single fast node, choosing a backwards copy
// when source and destination overlap such that a forward copy would
// read pixels it already wrote.
func (e *Emitter) simple(t *state.Blit, r bdisp.Rect, dx, dy int) error {
	tty := node.SanitizeTY(t.Node[node.TTY])
	s1ty := node.SanitizeTY(t.Node[node.S2TY]) &^ reg.TyColorExpandMask
	if t.Mode == state.BlitSimple422 {
		// The engine copies 4:2:2 raster data as 16 bit words.
		const layout = reg.TyColorFormMask | reg.TyFullAlphaRange | reg.TyBigEndian
		tty = tty&^layout | reg.FormRGB565.TY()
		s1ty = s1ty&^layout | reg.FormRGB565.TY()
	}

	n := node.Node{
		node.CIC:  node.Fast,
		node.INS:  reg.InsSrc1ModeDirectCopy,
		node.TBA:  t.Node[node.TBA],
		node.S1BA: t.Node[node.S2BA],
		node.TSZ:  node.SZ(r.W, r.H),
	}
	dst := bdisp.Rect{X: dx, Y: dy, W: r.W, H: r.H}
	backwards := n[node.S1BA] == n[node.TBA] &&
		(dy > r.Y || (dy == r.Y && dx > r.X)) && r.Intersects(dst)
	if backwards {
		const dir = reg.TyCopyDirBottomTop | reg.TyCopyDirRightLeft
		tty |= dir
		s1ty |= dir
		n[node.S1XY] = node.XY(r.X+r.W-1, r.Y+r.H-1)
		n[node.TXY] = node.XY(dx+r.W-1, dy+r.H-1)
	} else {
		n[node.S1XY] = node.XY(r.X, r.Y)
		n[node.TXY] = node.XY(dx, dy)
	}
	n[node.TTY] = tty
	n[node.S1TY] = s1ty
	if err := e.push(n); err != nil {
		return err
	}
	e.counters.Ops++
	return nil
}

// shortcut fills dst with the constant the blit reduces to: transparent
// black, opaque black on RGB32 and black through the colour space
// converter on 4:2:2 raster targets.
func (e *Emitter) shortcut(t *state.Blit, dst bdisp.Rect) error {
	if err := checkRect(dst); err != nil {
		return e.refuse(err)
	}
	if err := e.checkBank(e.st.Destination, dst); err != nil {
		return e.refuse(err)
	}
	tty := node.SanitizeTY(t.Node[node.TTY])
	xy, sz := node.XY(dst.X, dst.Y), node.SZ(dst.W, dst.H)

	var n node.Node
	if t.Mode == state.BlitShortcut422 {
		n = node.Node{
			node.CIC:  node.YCbCr422rShortcut,
			node.INS:  reg.InsSrc1ModeDisabled | reg.InsSrc2ModeColorFill | reg.InsEnableIVMX,
			node.ACK:  reg.AckBypassSource2,
			node.TBA:  t.Node[node.TBA],
			node.TTY:  tty,
			node.TXY:  xy,
			node.TSZ:  sz,
			node.S2TY: reg.FormARGB8888.TY() | reg.TyColorExpandMSB,
			node.S2XY: xy,
			node.S2SZ: sz,
			node.CWS:  node.XY(maxCoord, maxCoord),
		}
		if e.prof.HWClip {
			n[node.INS] |= reg.InsEnableRectClip
			n[node.CWO] = t.Node[node.CWO]
			n[node.CWS] = t.Node[node.CWS]
		}
		copy(n[node.IVMX0:node.IVMX3+1], color.RGBToYCbCr601[:])
	} else {
		var c uint32
		if t.Mode == state.BlitShortcutRGB32 {
			c = 0xff000000
		}
		n = node.Node{
			node.CIC:  node.Fast,
			node.INS:  reg.InsSrc1ModeDirectFill,
			node.TBA:  t.Node[node.TBA],
			node.TTY:  tty,
			node.TXY:  xy,
			node.TSZ:  sz,
			node.S1TY: tty &^ reg.TyBigEndian,
			node.S1CF: c,
		}
	}
	if err := e.push(n); err != nil {
		return err
	}
	e.counters.Ops++
	return nil
}

// generic blits through the full pipeline. src1 is the rectangle of the
// second source for Blit2, nil when the destination is read back.
func (e *Emitter) generic(t *state.Blit, src bdisp.Rect, src1 *bdisp.Rect, dst bdisp.Rect) error {
	n := t.Node
	s2, d := fixedRect(src), fixedRect(dst)
	var s1 *rect16
	if src1 != nil {
		r := fixedRect(*src1)
		s1 = &r
	}
	sg, err := directions(&n, t.Rotation, s2, s1, d)
	if err != nil {
		return e.refuse(err)
	}
	locate(&n, sg, &s2, s1, &d, false, 1, 1)
	return e.passes(t, &layout{nodes: []node.Node{n}})
}

// signs are the read directions of the target and of source 2, +1 for
// left to right and top to bottom.
type signs struct {
	tH, tV int64
	sH, sV int64
}

// directions sets the copy direction bits of n for a blit of s2 to d.
// An unrotated blit within one surface copies backwards when the target
// lies after an overlapping source. Rotations and mirrors read and write
// in opposite directions; the side going backwards is chosen by width.
func directions(n *node.Node, rot check.Rotation, s2 rect16, s1 *rect16, d rect16) (signs, error) {
	for _, w := range []int{node.TTY, node.S1TY, node.S2TY, node.S3TY} {
		if n[w] != reg.S3TYUnused {
			n[w] = node.SanitizeTY(n[w])
		}
	}
	reads := d
	if s1 != nil {
		reads = *s1
	}
	same := n[node.S2BA] == n[node.S1BA]
	if rot != check.RotateNone && same && reads.intersects(s2) {
		return signs{}, fallback(ErrRotation, "%v within one surface", rot)
	}

	sg := signs{1, 1, 1, 1}
	var tdir, sdir uint32
	const (
		lr = reg.TyCopyDirLeftRight | reg.TyCopyDirTopBottom
		rl = reg.TyCopyDirRightLeft
		bt = reg.TyCopyDirBottomTop
	)
	switch rot {
	case check.RotateNone:
		if same && (reads.y > s2.y || (reads.y == s2.y && reads.x > s2.x)) && s2.intersects(reads) {
			tdir, sdir = bt|rl, bt|rl
			sg = signs{-1, -1, -1, -1}
		}
	case check.Rotate180:
		if s2.w+f16(7) >= reads.w+d.w {
			tdir = bt | rl
			sg.tH, sg.tV = -1, -1
		} else {
			sdir = bt | rl
			sg.sH, sg.sV = -1, -1
		}
	case check.MirrorX:
		if s2.h+f16(4) >= reads.h+d.h {
			tdir = bt | lr
			sg.tV = -1
		} else {
			sdir = bt | lr
			sg.sV = -1
		}
	case check.MirrorY:
		if s2.w+f16(7) >= reads.w+d.w {
			tdir = rl
			sg.tH = -1
		} else {
			sdir = rl
			sg.sH = -1
		}
	default:
		return signs{}, fallback(ErrRotation, "%v outside the rotation path", rot)
	}
	n[node.TTY] |= tdir
	n[node.S2TY] |= sdir
	if n[node.S3TY] != reg.S3TYUnused {
		n[node.S3TY] |= sdir
	}
	n[node.S1TY] |= n[node.TTY] & reg.TyCopyDirMask
	return sg, nil
}

// locate moves each rectangle's reference point to the corner its copy
// direction starts from and writes the position and size words. With
// spans only the heights are written; the spans fill in the rest. fh and
// fv are the chroma subsampling of a planar source.
func locate(n *node.Node, sg signs, s2 *rect16, s1 *rect16, d *rect16, spans bool, fh, fv int64) {
	if sg.tH < 0 {
		d.x += d.w - one
		if s1 != nil {
			s1.x += s1.w - one
		}
	}
	if sg.tV < 0 {
		d.y += d.h - one
		if s1 != nil {
			s1.y += s1.h - one
		}
	}
	if sg.sH < 0 {
		s2.x += s2.w - one
	}
	if sg.sV < 0 {
		s2.y += s2.h - one
	}

	if spans {
		n[node.TSZ] = uint32(trunc(d.h)&0x0fff) << 16
		n[node.S2SZ] = uint32(trunc(s2.h)&0x0fff) << 16
		return
	}
	d.w, d.h = max(d.w, one), max(d.h, one)
	s2.w, s2.h = max(s2.w, one), max(s2.h, one)

	n[node.TXY] = node.XY(trunc(d.x), trunc(d.y))
	n[node.TSZ] = node.SZ(trunc(d.w), trunc(d.h))
	n[node.S1XY] = n[node.TXY]
	if s1 != nil {
		n[node.S1XY] = node.XY(trunc(s1.x), trunc(s1.y))
	}
	n[node.S2XY] = node.XY(trunc(s2.x), trunc(s2.y))
	n[node.S2SZ] = node.SZ(trunc(s2.w), trunc(s2.h))

	if n[node.CIC]&reg.CICSource3 == 0 {
		return
	}
	// Source 3 reads luma at full resolution, sources 2 and 1 read the
	// subsampled chroma planes.
	cw, ch := trunc(s2.w/fh)&0x0fff, trunc(s2.h/fv)&0x0fff
	if fh != 1 && cw == 0 {
		cw = 1
	}
	if fv != 1 && ch == 0 {
		ch = 1
	}
	n[node.S3XY] = n[node.S2XY]
	n[node.S3SZ] = n[node.S2SZ]
	n[node.S2XY] = node.XY(trunc(s2.x/fh), trunc(s2.y/fv))
	n[node.S2SZ] = node.SZ(cw, ch)
	n[node.S1XY] = n[node.S2XY]
}
