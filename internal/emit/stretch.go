package emit

import (
	"github.com/gogpu/bdisp"
	"github.com/gogpu/bdisp/internal/filter"
	"github.com/gogpu/bdisp/internal/node"
	"github.com/gogpu/bdisp/internal/reg"
	"github.com/gogpu/bdisp/internal/state"
)

// Filter taps the engine reads before and after the centre pixel.
const (
	hTapsBefore = 3
	hTapsAfter  = 4
	vTapsBefore = 2
)

// StretchBlit scales src onto dst.
func (e *Emitter) StretchBlit(src, dst bdisp.Rect) error {
	t, err := e.blitTemplate(bdisp.AccelStretchBlit)
	if err != nil {
		return err
	}
	if src.Empty() || dst.Empty() {
		return nil
	}
	if err := checkRect(src); err != nil {
		return e.refuse(err)
	}
	if err := checkRect(dst); err != nil {
		return e.refuse(err)
	}

	switch t.Mode {
	case state.BlitNop:
		return nil
	case state.BlitShortcut, state.BlitShortcutRGB32, state.BlitShortcut422:
		return e.shortcut(t, dst)
	case state.BlitRotate:
		return e.refuse(fallback(ErrRotation, "stretch with %v", t.Rotation))
	}
	if err := e.checkBlitBanks(src, dst); err != nil {
		return e.refuse(err)
	}
	if src.W == dst.W && src.H == dst.H {
		switch t.Mode {
		case state.BlitSimple, state.BlitSimple422:
			return e.simple(t, src, dst.X, dst.Y)
		}
	}
	return e.stretch(t, src, dst)
}

// stretch scales through the resize filters. A source wider than the
// filter line buffer is split into vertical spans.
func (e *Emitter) stretch(t *state.Blit, src, dst bdisp.Rect) error {
	n := t.Node
	fh, fv := int64(max(t.FactorH, 1)), int64(max(t.FactorV, 1))
	s2, d := fixedRect(src), fixedRect(dst)
	sg, err := directions(&n, t.Rotation, s2, nil, d)
	if err != nil {
		return e.refuse(err)
	}

	hinc, okH := increment(s2.w/fh, d.w)
	vinc, okV := increment(s2.h/fv, d.h)
	if !okH || !okV {
		return e.refuse(fallback(ErrScale, "%dx%d to %dx%d", src.W, src.H, dst.W, dst.H))
	}
	l := layout{cic: reg.CICFilters | reg.CICFiltersChr, ins: reg.InsEnable2DRescale}
	e.filters(&n, node.RSF, hinc, vinc)

	three := n[node.CIC]&reg.CICSource3 != 0
	if three {
		yh, yv := hinc*fh, vinc*fv
		if yh > maxIncrement || yv > maxIncrement {
			return e.refuse(fallback(ErrScale, "luma %dx%d to %dx%d", src.W, src.H, dst.W, dst.H))
		}
		l.cic |= reg.CICFiltersLuma
		e.filters(&n, node.YRSF, yh, yv)
	}

	spans := s2.w > f16(e.prof.LineBuffer-8)
	if !three {
		n[node.RZI] = prefillV(n[node.RZI], sg, &s2)
		if !spans {
			n[node.RZI] = prefillH(n[node.RZI], sg, &s2, e.st.Source.Width)
		}
	}

	locate(&n, sg, &s2, nil, &d, spans, fh, fv)
	if !spans {
		l.nodes = []node.Node{n}
	} else {
		l.nodes = e.spans(n, sg, s2, d, hinc, fh, fv)
	}
	return e.passes(t, &l)
}

// filters writes the RSF, RZI, HFP and VFP group starting at rsf for the
// 16.16 increments h and v. The initial repeat pre-fills the filter with
// copies of the first pixel and line.
func (e *Emitter) filters(n *node.Node, rsf int, h, v int64) {
	n[rsf] = uint32(v>>6)<<16 | uint32(h>>6)&0xffff
	n[rsf+1] = 2<<reg.RZIVRepeatShift | 3<<reg.RZIHRepeatShift
	n[rsf+2] = e.prof.Filter8x8Phys + filter.HorizontalOffset(int32(h))
	n[rsf+3] = e.prof.Filter5x8Phys + filter.VerticalOffset(int32(v))
}

// prefillV fills the vertical filter with real lines when the source has
// them above its first line.
func prefillV(rzi uint32, sg signs, s2 *rect16) uint32 {
	if sg.sV < 0 || s2.y < f16(vTapsBefore) {
		return rzi
	}
	s2.y -= f16(vTapsBefore)
	s2.h += f16(vTapsBefore)
	return rzi &^ reg.RZIVRepeatMask
}

// prefillH widens s2 by the pixels the horizontal filter reads before and
// after it, as far as the surface of width w has them. Missing leading
// pixels are made up by repeating the first one.
func prefillH(rzi uint32, sg signs, s2 *rect16, w int) uint32 {
	left, right := trunc(s2.x), w-trunc(s2.x+s2.w)
	lead, trail := left, right
	if sg.sH < 0 {
		lead, trail = right, left
	}
	lead = max(min(lead, hTapsBefore), 0)
	trail = max(min(trail, hTapsAfter), 0)
	if sg.sH > 0 {
		s2.x -= f16(lead)
	} else {
		s2.x -= f16(trail)
	}
	s2.w += f16(lead + trail)
	return rzi&^reg.RZIHRepeatMask | uint32(hTapsBefore-lead)<<reg.RZIHRepeatShift
}

// spanH is the horizontal source extent of one span, measured from the
// reference corner of the source in its read direction.
type spanH struct {
	pos, width int
	phase      uint32 // 10 bit subpixel start
	repeat     uint32
}

// span returns the source extent for target pixels whose first source
// position is start and whose end is end (both 16.16), inside a source w
// pixels wide.
func span(start, end int64, w int) spanH {
	ip := trunc(start)
	need := max(trunc(end+one-1)-ip, 1)
	lead := min(ip, hTapsBefore)
	s := spanH{
		pos:    ip - lead,
		phase:  uint32(start-f16(ip)) >> 6 & 0x3ff,
		repeat: uint32(hTapsBefore - lead),
	}
	s.width = max(min(need+lead+hTapsAfter, w-s.pos), 1)
	return s
}

// spans splits a located stretch into nodes no wider than the line
// buffer allows. hinc is the chroma increment.
func (e *Emitter) spans(n node.Node, sg signs, s2, d rect16, hinc, fh, fv int64) []node.Node {
	three := n[node.CIC]&reg.CICSource3 != 0
	step := int(f16(e.prof.LineBuffer-8) / hinc)
	inc := hinc * fh

	sx, sy := trunc(s2.x), trunc(s2.y)
	tx, ty := trunc(d.x), trunc(d.y)
	tw, th := trunc(d.w), trunc(d.h)
	sw, sh := trunc(s2.w), trunc(s2.h)

	var nodes []node.Node
	for done := 0; done < tw; {
		this := min(step, tw-done)
		sp := span(int64(done)*inc, int64(done+this)*inc, sw)
		x := sx + int(sg.sH)*sp.pos

		m := n
		m[node.TXY] = node.XY(tx+int(sg.tH)*done, ty)
		m[node.TSZ] = node.SZ(this, th)
		m[node.S1XY] = m[node.TXY]
		rzi := m[node.RZI] &^ (reg.RZIHRepeatMask | reg.RZIHInitMask)
		m[node.RZI] = rzi | sp.repeat<<reg.RZIHRepeatShift | sp.phase<<reg.RZIHInitShift
		if !three {
			m[node.S2XY] = node.XY(x, sy)
			m[node.S2SZ] = node.SZ(sp.width, sh)
		} else {
			m[node.YRZI] = m[node.RZI]
			m[node.S3XY] = node.XY(x, sy)
			m[node.S3SZ] = node.SZ(sp.width, sh)
			c := span(int64(done)*hinc, int64(done+this)*hinc, max(sw/int(fh), 1))
			m[node.RZI] = rzi | c.repeat<<reg.RZIHRepeatShift | c.phase<<reg.RZIHInitShift
			m[node.S2XY] = node.XY(sx/int(fh)+int(sg.sH)*c.pos, sy/int(fv))
			m[node.S2SZ] = node.SZ(c.width, max(sh/int(fv), 1))
			m[node.S1XY] = m[node.S2XY]
		}
		nodes = append(nodes, m)
		done += this
	}
	return nodes
}
