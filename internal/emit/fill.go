package emit

import (
	"github.com/gogpu/bdisp"
	"github.com/gogpu/bdisp/internal/node"
	"github.com/gogpu/bdisp/internal/reg"
	"github.com/gogpu/bdisp/internal/state"
)

// FillRectangle fills r with the state's colour.
func (e *Emitter) FillRectangle(r bdisp.Rect) error {
	if err := e.prepared(bdisp.AccelFillRectangle); err != nil {
		return err
	}
	if r.Empty() {
		return nil
	}
	if err := e.checkFill(r); err != nil {
		return e.refuse(err)
	}
	t := e.cache.DrawTemplate()
	if t.Mode == state.DrawNop {
		return nil
	}
	if err := e.fill(t, r); err != nil {
		return err
	}
	e.counters.Ops++
	return nil
}

func (e *Emitter) checkFill(r bdisp.Rect) error {
	if err := checkRect(r); err != nil {
		return err
	}
	return e.checkBank(e.st.Destination, r)
}

// fill pushes one node covering r.
func (e *Emitter) fill(t *state.Draw, r bdisp.Rect) error {
	n := t.Node
	n[node.TXY] = node.XY(r.X, r.Y)
	n[node.TSZ] = node.SZ(r.W, r.H)
	if t.Mode == state.DrawSlow {
		n[node.S1XY] = n[node.TXY]
		n[node.S2XY] = n[node.TXY]
		n[node.S2SZ] = n[node.TSZ]
	}
	return e.push(n)
}

// DrawRectangle draws the one pixel outline of r as up to four fills.
func (e *Emitter) DrawRectangle(r bdisp.Rect) error {
	if err := e.prepared(bdisp.AccelDrawRectangle); err != nil {
		return err
	}
	if r.Empty() {
		return nil
	}
	if err := e.checkFill(r); err != nil {
		return e.refuse(err)
	}
	t := e.cache.DrawTemplate()
	if t.Mode == state.DrawNop {
		return nil
	}
	for _, line := range outline(r) {
		if err := e.fill(t, line); err != nil {
			return err
		}
	}
	e.counters.Ops++
	return nil
}

// outline decomposes the border of r into non overlapping rectangles:
// the top line, the left and right columns and the bottom line. A
// rectangle two pixels wide or high is all border and stays whole.
func outline(r bdisp.Rect) []bdisp.Rect {
	if r.W == 2 || r.H == 2 {
		return []bdisp.Rect{r}
	}
	lines := []bdisp.Rect{{X: r.X, Y: r.Y, W: r.W, H: 1}}
	if r.H == 1 {
		return lines
	}
	y2, h2 := r.Y+1, r.H-2
	lines = append(lines, bdisp.Rect{X: r.X, Y: y2, W: 1, H: h2})
	if r.W > 1 {
		lines = append(lines, bdisp.Rect{X: r.X + r.W - 1, Y: y2, W: 1, H: h2})
	}
	return append(lines, bdisp.Rect{X: r.X, Y: r.Y + r.H - 1, W: r.W, H: 1})
}

// rgb32TY is the TY word that addresses an RGB32 surface as ARGB.
func rgb32TY(pitch int) uint32 {
	return reg.FormARGB8888.TY() | reg.TyFullAlphaRange | uint32(pitch)&reg.TyPitchMask
}

// RGB32Init sets the unused alpha byte of r on s to 0xff. Surfaces of
// format RGB32 are treated as ARGB by the engine and must be opaque
// before their first use.
func (e *Emitter) RGB32Init(s *bdisp.Surface, r bdisp.Rect) error {
	if r.Empty() {
		return nil
	}
	if err := checkRect(r); err != nil {
		return e.refuse(err)
	}
	if err := e.checkBank(s, r); err != nil {
		return e.refuse(err)
	}
	ty := rgb32TY(s.Pitch)
	n := node.Node{
		node.CIC:  node.Fast,
		node.INS:  reg.InsSrc1ModeDirectFill,
		node.TBA:  s.Phys,
		node.TTY:  ty,
		node.TXY:  node.XY(r.X, r.Y),
		node.TSZ:  node.SZ(r.W, r.H),
		node.S1TY: ty,
		node.S1CF: 0xff000000,
	}
	if err := e.push(n); err != nil {
		return err
	}
	e.counters.Ops++
	return nil
}

// RGB32Fixup forces the alpha byte of r on s back to 0xff after an
// operation that may have written it. The rest of each pixel is kept
// through the plane mask.
func (e *Emitter) RGB32Fixup(s *bdisp.Surface, r bdisp.Rect) error {
	if r.Empty() {
		return nil
	}
	if err := checkRect(r); err != nil {
		return e.refuse(err)
	}
	if err := e.checkBank(s, r); err != nil {
		return e.refuse(err)
	}
	ty := rgb32TY(s.Pitch)
	xy := node.XY(r.X, r.Y)
	n := node.Node{
		node.CIC:  node.RGB32Fixup,
		node.INS:  reg.InsSrc1ModeMemory | reg.InsEnablePlaneMask,
		node.ACK:  reg.AckROP | reg.AckROPSet,
		node.TBA:  s.Phys,
		node.TTY:  ty,
		node.TXY:  xy,
		node.TSZ:  node.SZ(r.W, r.H),
		node.S1BA: s.Phys,
		node.S1TY: ty,
		node.S1XY: xy,
		node.PMK:  0xff000000,
	}
	if err := e.push(n); err != nil {
		return err
	}
	e.counters.Ops++
	return nil
}
