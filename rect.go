package bdisp

// Rect is an integer rectangle.
type Rect struct {
	X, Y, W, H int
}

// R is shorthand for Rect{x, y, w, h}.
func R(x, y, w, h int) Rect { return Rect{X: x, Y: y, W: w, H: h} }

// Empty reports whether r covers no pixels.
func (r Rect) Empty() bool { return r.W <= 0 || r.H <= 0 }

// Intersects reports whether r and o overlap.
func (r Rect) Intersects(o Rect) bool {
	return !(r.X >= o.X+o.W || r.X+r.W <= o.X ||
		r.Y >= o.Y+o.H || r.Y+r.H <= o.Y)
}

// Region is an inclusive pixel region, used for the clip.
type Region struct {
	X1, Y1, X2, Y2 int
}

// Rect converts the region into a rectangle.
func (g Region) Rect() Rect {
	return Rect{X: g.X1, Y: g.Y1, W: g.X2 - g.X1 + 1, H: g.Y2 - g.Y1 + 1}
}

// Contains reports whether r lies entirely inside g.
func (g Region) Contains(r Rect) bool {
	return r.X >= g.X1 && r.Y >= g.Y1 &&
		r.X+r.W-1 <= g.X2 && r.Y+r.H-1 <= g.Y2
}
