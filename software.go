package bdisp

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/gogpu/bdisp/internal/blend"
	icolor "github.com/gogpu/bdisp/internal/color"
)

// ErrUnsupportedFormat is returned by Software for formats it cannot
// access pixel by pixel.
var ErrUnsupportedFormat = errors.New("bdisp: format not supported by software renderer")

// Memory gives the CPU access to engine visible memory.
type Memory interface {
	// Bytes returns the n bytes at physical address phys.
	Bytes(phys uint32, n int) ([]byte, error)
}

// Software performs operations on the CPU, directly in surface memory. It
// handles the packed RGB and alpha formats; planar, indexed and YCbCr
// surfaces return ErrUnsupportedFormat.
type Software struct {
	mem Memory
}

// NewSoftware creates a CPU renderer over mem.
func NewSoftware(mem Memory) *Software {
	return &Software{mem: mem}
}

// surfaceImage adapts a surface to draw.Image. At returns non-premultiplied
// colours, Set stores them.
type surfaceImage struct {
	s   *Surface
	buf []byte
	bpp int
}

func (sw *Software) image(s *Surface) (*surfaceImage, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	switch s.Format {
	case FormatARGB, FormatRGB32, FormatRGB16, FormatARGB1555, FormatARGB4444, FormatA8, FormatRGB24:
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, s.Format)
	}
	buf, err := sw.mem.Bytes(s.Phys, s.Pitch*s.Height)
	if err != nil {
		return nil, err
	}
	return &surfaceImage{s: s, buf: buf, bpp: s.Format.BytesPerPixel()}, nil
}

// Image returns s as an image backed by surface memory. Writes go
// straight to the surface.
func (sw *Software) Image(s *Surface) (draw.Image, error) {
	im, err := sw.image(s)
	if err != nil {
		return nil, err
	}
	return im, nil
}

func (im *surfaceImage) ColorModel() color.Model { return color.NRGBAModel }

func (im *surfaceImage) Bounds() image.Rectangle {
	return image.Rect(0, 0, im.s.Width, im.s.Height)
}

func (im *surfaceImage) offset(x, y int) int { return y*im.s.Pitch + x*im.bpp }

// load returns the pixel at x, y as a 0xAARRGGBB word.
func (im *surfaceImage) load(x, y int) uint32 {
	p := im.buf[im.offset(x, y):]
	switch im.s.Format {
	case FormatARGB:
		return binary.LittleEndian.Uint32(p)
	case FormatRGB32:
		return binary.LittleEndian.Uint32(p) | 0xff000000
	case FormatRGB24:
		return 0xff000000 | uint32(p[2])<<16 | uint32(p[1])<<8 | uint32(p[0])
	case FormatRGB16:
		return 0xff000000 | icolor.ExpandRGB16(uint32(binary.LittleEndian.Uint16(p)))
	case FormatARGB1555:
		return icolor.ExpandARGB1555(uint32(binary.LittleEndian.Uint16(p)))
	case FormatARGB4444:
		return icolor.ExpandARGB4444(uint32(binary.LittleEndian.Uint16(p)))
	case FormatA8:
		return uint32(p[0]) << 24
	}
	return 0
}

func (im *surfaceImage) store(x, y int, v uint32) {
	p := im.buf[im.offset(x, y):]
	a, r, g, b := icolor.Split(v)
	switch im.s.Format {
	case FormatARGB:
		binary.LittleEndian.PutUint32(p, v)
	case FormatRGB32:
		binary.LittleEndian.PutUint32(p, v|0xff000000)
	case FormatRGB24:
		p[0], p[1], p[2] = byte(b), byte(g), byte(r)
	case FormatRGB16:
		binary.LittleEndian.PutUint16(p, uint16(icolor.RGB16(r, g, b)))
	case FormatARGB1555:
		binary.LittleEndian.PutUint16(p, uint16(icolor.ARGB1555(a, r, g, b)))
	case FormatARGB4444:
		binary.LittleEndian.PutUint16(p, uint16(icolor.ARGB4444(a, r, g, b)))
	case FormatA8:
		p[0] = byte(a)
	}
}

func (im *surfaceImage) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}).In(im.Bounds()) {
		return color.NRGBA{}
	}
	c := ColorFromARGB(im.load(x, y))
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}

func (im *surfaceImage) Set(x, y int, c color.Color) {
	if !(image.Point{X: x, Y: y}).In(im.Bounds()) {
		return
	}
	im.store(x, y, FromColor(c).ARGB())
}

func blendModeFor(r BlendRule) blend.BlendMode {
	switch r {
	case RuleClear:
		return blend.BlendClear
	case RuleSrc:
		return blend.BlendSource
	case RuleDst:
		return blend.BlendDestination
	case RuleDstOver:
		return blend.BlendDestinationOver
	case RuleDstIn:
		return blend.BlendDestinationIn
	case RuleDstOut:
		return blend.BlendDestinationOut
	case RuleNone:
		return blend.BlendSourceAlphaOver
	}
	return blend.BlendSourceOver
}

// pixelOp combines one source pixel with the destination pixel.
type pixelOp func(src, dst uint32) uint32

func composite(fn blend.BlendFunc) pixelOp {
	return func(src, dst uint32) uint32 {
		sa, sr, sg, sb := icolor.Split(src)
		da, dr, dg, db := icolor.Split(dst)
		r, g, b, a := fn(byte(sr), byte(sg), byte(sb), byte(sa), byte(dr), byte(dg), byte(db), byte(da))
		return icolor.ARGB(uint32(a), uint32(r), uint32(g), uint32(b))
	}
}

func xor(src, dst uint32) uint32 { return src ^ dst }

func (sw *Software) drawOp(st *State) (pixelOp, uint32, error) {
	if st.Rule() == RuleUnsupported && st.DrawingFlags&DrawBlend != 0 {
		return nil, 0, fmt.Errorf("bdisp: software blend %v/%v", st.SrcBlend, st.DstBlend)
	}
	c := st.Color
	if st.DrawingFlags&DrawSrcPremultiply != 0 {
		c = c.Premultiplied()
	}
	switch {
	case st.DrawingFlags&DrawXOR != 0:
		return xor, c.ARGB(), nil
	case st.DrawingFlags&DrawBlend != 0:
		return composite(blend.GetBlendFunc(blendModeFor(st.Rule()))), c.ARGB(), nil
	}
	return nil, c.ARGB(), nil
}

// FillRectangle fills r, clipped to the state's clip region.
func (sw *Software) FillRectangle(st *State, r Rect) error {
	dst, err := sw.image(st.Destination)
	if err != nil {
		return err
	}
	op, c, err := sw.drawOp(st)
	if err != nil {
		return err
	}
	rc := clipRect(st, r)
	key := st.Destination.Format.ExpandColorKey(st.DstColorKey)
	for y := rc.Min.Y; y < rc.Max.Y; y++ {
		for x := rc.Min.X; x < rc.Max.X; x++ {
			d := dst.load(x, y)
			if st.DrawingFlags&DrawDstColorKey != 0 && d&0xffffff != key {
				continue
			}
			if op == nil {
				dst.store(x, y, c)
			} else {
				dst.store(x, y, op(c, d))
			}
		}
	}
	return nil
}

// DrawRectangle draws the outline of r.
func (sw *Software) DrawRectangle(st *State, r Rect) error {
	for _, e := range Outline(r) {
		if err := sw.FillRectangle(st, e); err != nil {
			return err
		}
	}
	return nil
}

// Outline splits the outline of r into at most four rectangles: top, left,
// right and bottom. A rectangle 2 pixels wide or high is its own outline.
func Outline(r Rect) []Rect {
	if r.Empty() {
		return nil
	}
	if r.W == 2 || r.H == 2 {
		return []Rect{r}
	}
	out := []Rect{{X: r.X, Y: r.Y, W: r.W, H: 1}}
	if r.H > 1 {
		out = append(out, Rect{X: r.X, Y: r.Y + 1, W: 1, H: r.H - 2})
		if r.W > 1 {
			out = append(out, Rect{X: r.X + r.W - 1, Y: r.Y + 1, W: 1, H: r.H - 2})
		}
		out = append(out, Rect{X: r.X, Y: r.Y + r.H - 1, W: r.W, H: 1})
	}
	return out
}

func clipRect(st *State, r Rect) image.Rectangle {
	rc := image.Rect(r.X, r.Y, r.X+r.W, r.Y+r.H)
	clip := image.Rect(st.Clip.X1, st.Clip.Y1, st.Clip.X2+1, st.Clip.Y2+1)
	rc = rc.Intersect(clip)
	if d := st.Destination; d != nil {
		rc = rc.Intersect(image.Rect(0, 0, d.Width, d.Height))
	}
	return rc
}

// modulate applies colour alpha, colourize and source premultiplication
// to a source pixel.
func modulate(st *State, v uint32) uint32 {
	a, r, g, b := icolor.Split(v)
	f := st.BlittingFlags
	if f&BlitBlendColorAlpha != 0 {
		if f&BlitBlendAlphaChannel != 0 {
			a = a * uint32(st.Color.A) / 255
		} else {
			a = uint32(st.Color.A)
		}
	}
	if f&BlitColorize != 0 {
		r = r * uint32(st.Color.R) / 255
		g = g * uint32(st.Color.G) / 255
		b = b * uint32(st.Color.B) / 255
	}
	if f&BlitSrcPremultColor != 0 {
		ca := uint32(st.Color.A)
		r, g, b = r*ca/255, g*ca/255, b*ca/255
	}
	if f&BlitSrcPremultiply != 0 {
		pr, pg, pb, _ := blend.Premultiply(byte(r), byte(g), byte(b), byte(a))
		r, g, b = uint32(pr), uint32(pg), uint32(pb)
	}
	return icolor.ARGB(a, r, g, b)
}

func (sw *Software) blitOp(st *State) pixelOp {
	f := st.BlittingFlags
	switch {
	case f&BlitXOR != 0:
		return xor
	case f&BlitBlendMask != 0:
		return composite(blend.GetBlendFunc(blendModeFor(st.Rule())))
	}
	return nil
}

// Blit copies src from the source surface to (dx, dy) on the destination.
func (sw *Software) Blit(st *State, src Rect, dx, dy int) error {
	if st.BlittingFlags&BlitRotationMask != 0 {
		return fmt.Errorf("bdisp: software rotation: %w", ErrUnsupportedFormat)
	}
	s, err := sw.image(st.Source)
	if err != nil {
		return err
	}
	return sw.compose(st, s, src, dx, dy)
}

// StretchBlit scales src from the source surface into dst. Smooth render
// options select bilinear filtering, otherwise the nearest pixel is used.
func (sw *Software) StretchBlit(st *State, src, dst Rect) error {
	if src.W == dst.W && src.H == dst.H {
		return sw.Blit(st, src, dst.X, dst.Y)
	}
	s, err := sw.image(st.Source)
	if err != nil {
		return err
	}
	var scaler draw.Interpolator = draw.NearestNeighbor
	if st.RenderOptions&(RenderSmoothUpscale|RenderSmoothDownscale) != 0 {
		scaler = draw.ApproxBiLinear
	}
	tmp := image.NewNRGBA(image.Rect(0, 0, dst.W, dst.H))
	scaler.Scale(tmp, tmp.Bounds(), s, image.Rect(src.X, src.Y, src.X+src.W, src.Y+src.H), draw.Src, nil)

	scaled := &nrgbaSource{tmp}
	return sw.compose(st, scaled, Rect{W: dst.W, H: dst.H}, dst.X, dst.Y)
}

// pixelSource is read by compose.
type pixelSource interface {
	load(x, y int) uint32
	Bounds() image.Rectangle
}

type nrgbaSource struct{ *image.NRGBA }

func (n *nrgbaSource) load(x, y int) uint32 {
	c := n.NRGBAAt(x, y)
	return icolor.ARGB(uint32(c.A), uint32(c.R), uint32(c.G), uint32(c.B))
}

func (sw *Software) compose(st *State, s pixelSource, src Rect, dx, dy int) error {
	d, err := sw.image(st.Destination)
	if err != nil {
		return err
	}
	op := sw.blitOp(st)
	rc := clipRect(st, Rect{X: dx, Y: dy, W: src.W, H: src.H})
	sb := s.Bounds()

	// Rows are copied into a scratch line first so overlapping copies on
	// one surface read the original pixels.
	srcKey := st.Source.Format.ExpandColorKey(st.SrcColorKey)
	dstKey := st.Destination.Format.ExpandColorKey(st.DstColorKey)
	line := make([]uint32, rc.Dx())
	rows := make([]int, 0, rc.Dy())
	for y := rc.Min.Y; y < rc.Max.Y; y++ {
		rows = append(rows, y)
	}
	if st.Source == st.Destination && dy > src.Y {
		for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
			rows[i], rows[j] = rows[j], rows[i]
		}
	}
	for _, y := range rows {
		sy := src.Y + y - dy
		for i := range line {
			sx := src.X + rc.Min.X + i - dx
			if !(image.Point{X: sx, Y: sy}).In(sb) {
				line[i] = 0
				continue
			}
			line[i] = s.load(sx, sy)
		}
		for i, v := range line {
			x := rc.Min.X + i
			if st.BlittingFlags&BlitSrcColorKey != 0 && v&0xffffff == srcKey {
				continue
			}
			dv := d.load(x, y)
			if st.BlittingFlags&BlitDstColorKey != 0 && dv&0xffffff != dstKey {
				continue
			}
			v = modulate(st, v)
			if op != nil {
				v = op(v, dv)
			}
			d.store(x, y, v)
		}
	}
	return nil
}
