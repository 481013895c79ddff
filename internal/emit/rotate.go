package emit

import (
	"github.com/gogpu/bdisp"
	"github.com/gogpu/bdisp/internal/check"
	"github.com/gogpu/bdisp/internal/node"
	"github.com/gogpu/bdisp/internal/state"
)

// rotateAlign is the source width granularity of quarter turns.
const rotateAlign = 16

// rotate performs a 90 or 270 degree blit of r to dx, dy. The source is
// read top left to bottom right; at 90 degrees the target is written from
// its bottom left corner upwards, at 270 from its top right corner down.
// Sources wider than the rotation buffer are cut into tiles of its width.
func (e *Emitter) rotate(t *state.Blit, r bdisp.Rect, dx, dy int) error {
	if r.W%rotateAlign != 0 {
		return e.refuse(fallback(ErrRotation, "width %d not a multiple of %d", r.W, rotateAlign))
	}
	n := t.Node
	out := bdisp.Rect{X: dx, Y: dy, W: r.H, H: r.W}
	if n[node.S2BA] == n[node.TBA] && out.Intersects(r) {
		return e.refuse(fallback(ErrRotation, "%v within one surface", t.Rotation))
	}
	if err := checkRect(out); err != nil {
		return e.refuse(err)
	}
	if err := e.checkBlitBanks(r, out); err != nil {
		return e.refuse(err)
	}

	tile := e.prof.RotateBuffer
	step := tile
	if t.Rotation == check.Rotate90 {
		dy += r.W - 1
		step = -tile
	} else {
		dx += r.H - 1
	}

	var l layout
	if r.W <= tile {
		n[node.TXY] = node.XY(dx, dy)
		n[node.TSZ] = node.SZ(r.H, r.W)
		n[node.S1XY] = n[node.TXY]
		n[node.S2XY] = node.XY(r.X, r.Y)
		n[node.S2SZ] = node.SZ(r.W, r.H)
		l.nodes = []node.Node{n}
		return e.passes(t, &l)
	}

	sx := r.X
	for left := r.W; left > 0; {
		w := min(tile, left)
		m := n
		m[node.TXY] = node.XY(dx, dy)
		m[node.TSZ] = node.SZ(r.H, w)
		m[node.S1XY] = m[node.TXY]
		m[node.S2XY] = node.XY(sx, r.Y)
		m[node.S2SZ] = node.SZ(w, r.H)
		l.nodes = append(l.nodes, m)
		dy += step
		sx += w
		left -= w
	}
	return e.passes(t, &l)
}
