package emit

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/gogpu/bdisp"
	"github.com/gogpu/bdisp/hw/sim"
	"github.com/gogpu/bdisp/internal/node"
	"github.com/gogpu/bdisp/internal/profile"
	"github.com/gogpu/bdisp/internal/reg"
	"github.com/gogpu/bdisp/internal/ring"
	"github.com/gogpu/bdisp/internal/state"
)

// recorder is a Ring that keeps every node.
type recorder struct {
	nodes []node.Node
}

func (r *recorder) Push(n *node.Node) error {
	r.nodes = append(r.nodes, *n)
	return nil
}

type options struct {
	variant   bdisp.Variant
	bankCheck bool
}

func newEmitter(t *testing.T, o options) (*Emitter, *recorder) {
	t.Helper()
	if o.variant == 0 {
		o.variant = bdisp.VariantBDisp2
	}
	p, err := profile.New(profile.Config{
		Variant:       o.variant,
		BankCheck:     o.bankCheck,
		HWClip:        true,
		CLUTPhys:      0x0010_0000,
		Filter8x8Phys: 0x0011_0000,
		Filter5x8Phys: 0x0012_0000,
	})
	if err != nil {
		t.Fatal(err)
	}
	c, err := state.New(state.Config{Profile: p})
	if err != nil {
		t.Fatal(err)
	}
	rec := &recorder{}
	e, err := New(Config{Profile: p, Ring: rec, Cache: c})
	if err != nil {
		t.Fatal(err)
	}
	return e, rec
}

func surface(f bdisp.PixelFormat, phys uint32, w, h int) *bdisp.Surface {
	return &bdisp.Surface{Phys: phys, Pitch: w * f.BytesPerPixel(), Format: f, Width: w, Height: h}
}

func fillState(f bdisp.PixelFormat, c bdisp.Color) *bdisp.State {
	st := bdisp.NewState(surface(f, 0x2000_0000, 512, 256))
	st.SrcBlend, st.DstBlend = bdisp.RuleSrcOver.BlendPair()
	st.Color = c
	return st
}

func blitState(src, dst bdisp.PixelFormat, flags bdisp.BlittingFlags, rule bdisp.BlendRule) *bdisp.State {
	st := bdisp.NewState(surface(dst, 0x2000_0000, 512, 256))
	st.Source = surface(src, 0x3000_0000, 512, 256)
	st.BlittingFlags = flags
	st.SrcBlend, st.DstBlend = rule.BlendPair()
	return st
}

func setState(t *testing.T, e *Emitter, st *bdisp.State, op bdisp.AccelOp) {
	t.Helper()
	if err := e.SetState(st, bdisp.ModAll, op); err != nil {
		t.Fatalf("SetState: %v", err)
	}
}

var red = bdisp.Opaque(0xff, 0, 0)

func TestFillRectangleRGB16(t *testing.T) {
	e, rec := newEmitter(t, options{})
	setState(t, e, fillState(bdisp.FormatRGB16, red), bdisp.AccelFillRectangle)

	if err := e.FillRectangle(bdisp.R(0, 0, 10, 10)); err != nil {
		t.Fatal(err)
	}
	if len(rec.nodes) != 1 {
		t.Fatalf("nodes = %d, want 1", len(rec.nodes))
	}
	n := rec.nodes[0]
	if n[node.CIC] != node.Fast {
		t.Errorf("CIC = %#x, want %#x", n[node.CIC], node.Fast)
	}
	if n[node.TSZ] != 10<<16|10 {
		t.Errorf("TSZ = %#x, want %#x", n[node.TSZ], 10<<16|10)
	}
	if n[node.S1CF] != 0xf800 {
		t.Errorf("S1CF = %#x, want 0xf800", n[node.S1CF])
	}
	if c := e.Counters(); c.Ops != 1 || c.Nodes != 1 {
		t.Errorf("Counters() = %+v, want 1 op and 1 node", c)
	}
}

func TestDrawRectangle(t *testing.T) {
	tests := []struct {
		r     bdisp.Rect
		nodes int
	}{
		{bdisp.R(0, 0, 5, 2), 1},
		{bdisp.R(0, 0, 2, 5), 1},
		{bdisp.R(0, 0, 5, 5), 4},
		{bdisp.R(0, 0, 5, 1), 1},
		{bdisp.R(0, 0, 1, 5), 3},
		{bdisp.R(0, 0, 1, 1), 1},
		{bdisp.R(0, 0, 0, 5), 0},
	}
	for _, tt := range tests {
		e, rec := newEmitter(t, options{})
		setState(t, e, fillState(bdisp.FormatRGB16, red), bdisp.AccelDrawRectangle)
		if err := e.DrawRectangle(tt.r); err != nil {
			t.Fatalf("DrawRectangle(%v): %v", tt.r, err)
		}
		if len(rec.nodes) != tt.nodes {
			t.Errorf("DrawRectangle(%v) nodes = %d, want %d", tt.r, len(rec.nodes), tt.nodes)
		}
	}
}

func TestOutline(t *testing.T) {
	got := outline(bdisp.R(10, 20, 5, 5))
	want := []bdisp.Rect{
		bdisp.R(10, 20, 5, 1),
		bdisp.R(10, 21, 1, 3),
		bdisp.R(14, 21, 1, 3),
		bdisp.R(10, 24, 5, 1),
	}
	if len(got) != len(want) {
		t.Fatalf("outline = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("outline[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestZeroSizeIsNoop(t *testing.T) {
	e, rec := newEmitter(t, options{})
	setState(t, e, fillState(bdisp.FormatRGB16, red), bdisp.AccelFillRectangle)
	for _, r := range []bdisp.Rect{bdisp.R(0, 0, 0, 10), bdisp.R(0, 0, 10, 0), bdisp.R(5000, 5000, 0, 0)} {
		if err := e.FillRectangle(r); err != nil {
			t.Errorf("FillRectangle(%v) = %v, want nil", r, err)
		}
	}
	if len(rec.nodes) != 0 {
		t.Errorf("nodes = %d, want 0", len(rec.nodes))
	}
}

func TestGeometryLimits(t *testing.T) {
	e, rec := newEmitter(t, options{})
	setState(t, e, fillState(bdisp.FormatRGB16, red), bdisp.AccelFillRectangle)
	for _, r := range []bdisp.Rect{
		bdisp.R(4096, 0, 1, 1),
		bdisp.R(0, -4097, 1, 1),
		bdisp.R(0, 0, 4096, 1),
		bdisp.R(0, 0, 1, 4096),
	} {
		err := e.FillRectangle(r)
		if !errors.Is(err, bdisp.ErrFallbackToCPU) || !errors.Is(err, ErrGeometry) {
			t.Errorf("FillRectangle(%v) = %v, want a geometry fallback", r, err)
		}
	}
	if err := e.FillRectangle(bdisp.R(-4096, -4096, 4095, 4095)); err != nil {
		t.Errorf("FillRectangle at the limits = %v", err)
	}
	if len(rec.nodes) != 1 {
		t.Errorf("nodes = %d, want 1", len(rec.nodes))
	}
	if got := e.Counters().Fallbacks; got != 4 {
		t.Errorf("Fallbacks = %d, want 4", got)
	}
}

func TestNotPrepared(t *testing.T) {
	e, rec := newEmitter(t, options{})
	if err := e.FillRectangle(bdisp.R(0, 0, 1, 1)); !errors.Is(err, ErrNotPrepared) {
		t.Errorf("FillRectangle before SetState = %v, want ErrNotPrepared", err)
	}
	setState(t, e, fillState(bdisp.FormatRGB16, red), bdisp.AccelFillRectangle)
	if err := e.DrawRectangle(bdisp.R(0, 0, 4, 4)); !errors.Is(err, bdisp.ErrFallbackToCPU) {
		t.Errorf("DrawRectangle prepared for fills = %v, want a fallback", err)
	}
	if len(rec.nodes) != 0 {
		t.Errorf("nodes = %d, want 0", len(rec.nodes))
	}
}

func TestBankBoundary(t *testing.T) {
	const pitch = 512 * 2
	st := fillState(bdisp.FormatRGB16, red)
	// Rows 0 to 3 end exactly at a bank boundary.
	st.Destination.Phys = 0x2000_0000 - 4*pitch

	tests := []struct {
		r     bdisp.Rect
		check bool
		fails bool
	}{
		{bdisp.R(0, 0, 8, 4), true, false},
		{bdisp.R(0, 0, 8, 8), true, true},
		{bdisp.R(0, 4, 8, 8), true, false},
		{bdisp.R(0, 0, 8, 8), false, false},
	}
	for _, tt := range tests {
		e, rec := newEmitter(t, options{bankCheck: tt.check})
		setState(t, e, st, bdisp.AccelFillRectangle)
		err := e.FillRectangle(tt.r)
		if tt.fails {
			if !errors.Is(err, ErrBankBoundary) {
				t.Errorf("FillRectangle(%v) check=%v = %v, want ErrBankBoundary", tt.r, tt.check, err)
			}
			if len(rec.nodes) != 0 {
				t.Errorf("FillRectangle(%v) pushed %d nodes after refusing", tt.r, len(rec.nodes))
			}
			continue
		}
		if err != nil || len(rec.nodes) != 1 {
			t.Errorf("FillRectangle(%v) check=%v = %v with %d nodes, want 1 node", tt.r, tt.check, err, len(rec.nodes))
		}
	}
}

func TestSimpleBlitDirection(t *testing.T) {
	tests := []struct {
		name      string
		src       bdisp.Rect
		dx, dy    int
		backwards bool
		txy, s1xy uint32
	}{
		{"down right", bdisp.R(0, 0, 10, 10), 5, 5, true, node.XY(14, 14), node.XY(9, 9)},
		{"up left", bdisp.R(5, 5, 10, 10), 0, 0, false, node.XY(0, 0), node.XY(5, 5)},
		{"right same row", bdisp.R(0, 0, 10, 10), 3, 0, true, node.XY(12, 9), node.XY(9, 9)},
		{"apart", bdisp.R(0, 0, 10, 10), 100, 100, false, node.XY(100, 100), node.XY(0, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, rec := newEmitter(t, options{})
			st := blitState(bdisp.FormatARGB, bdisp.FormatARGB, 0, bdisp.RuleSrc)
			st.Source = st.Destination
			setState(t, e, st, bdisp.AccelBlit)
			if got := e.cache.BlitTemplate().Mode; got != state.BlitSimple {
				t.Fatalf("Mode = %v, want %v", got, state.BlitSimple)
			}
			if err := e.Blit(tt.src, tt.dx, tt.dy); err != nil {
				t.Fatal(err)
			}
			if len(rec.nodes) != 1 {
				t.Fatalf("nodes = %d, want 1", len(rec.nodes))
			}
			n := rec.nodes[0]
			const dir = reg.TyCopyDirBottomTop | reg.TyCopyDirRightLeft
			if got := n[node.TTY]&dir == dir; got != tt.backwards {
				t.Errorf("backwards = %v, want %v", got, tt.backwards)
			}
			if n[node.TTY]&dir != n[node.S1TY]&dir {
				t.Errorf("TTY %#x and S1TY %#x disagree on direction", n[node.TTY], n[node.S1TY])
			}
			if n[node.TXY] != tt.txy || n[node.S1XY] != tt.s1xy {
				t.Errorf("TXY, S1XY = %#x, %#x, want %#x, %#x", n[node.TXY], n[node.S1XY], tt.txy, tt.s1xy)
			}
			if n[node.INS] != reg.InsSrc1ModeDirectCopy {
				t.Errorf("INS = %#x, want direct copy", n[node.INS])
			}
		})
	}
}

func TestBlit2(t *testing.T) {
	e, rec := newEmitter(t, options{})
	st := blitState(bdisp.FormatARGB, bdisp.FormatARGB, bdisp.BlitBlendAlphaChannel, bdisp.RuleSrcOver)
	st.Source2 = surface(bdisp.FormatRGB16, 0x4000_0000, 64, 64)
	setState(t, e, st, bdisp.AccelBlit2)

	if err := e.Blit2(bdisp.R(1, 2, 16, 8), 10, 20, 30, 40); err != nil {
		t.Fatal(err)
	}
	if len(rec.nodes) == 0 {
		t.Fatal("no nodes emitted")
	}
	n := rec.nodes[0]
	tests := []struct {
		name      string
		word, want uint32
	}{
		{"S1BA", n[node.S1BA], 0x4000_0000},
		{"S1XY", n[node.S1XY], node.XY(30, 40)},
		{"S2XY", n[node.S2XY], node.XY(1, 2)},
		{"TXY", n[node.TXY], node.XY(10, 20)},
		{"TSZ", n[node.TSZ], node.SZ(16, 8)},
	}
	for _, tt := range tests {
		if tt.word != tt.want {
			t.Errorf("%s = %#x, want %#x", tt.name, tt.word, tt.want)
		}
	}

	if err := e.Blit2(bdisp.R(0, 0, 0, 8), 0, 0, 0, 0); err != nil {
		t.Errorf("empty Blit2 = %v, want nil", err)
	}
	if err := e.Blit2(bdisp.R(0, 0, 4, 4), 0, 0, 5000, 0); !errors.Is(err, bdisp.ErrFallbackToCPU) {
		t.Errorf("Blit2 from outside the register range = %v, want %v", err, bdisp.ErrFallbackToCPU)
	}
}

func TestStretchSpans(t *testing.T) {
	tests := []struct {
		variant bdisp.Variant
		w       int
		spans   int
	}{
		{bdisp.VariantBDisp, 100, 1},
		{bdisp.VariantBDisp, 120, 1},
		{bdisp.VariantBDisp, 121, 2},
		{bdisp.VariantBDisp, 240, 2},
		{bdisp.VariantBDisp, 241, 3},
		{bdisp.VariantBDisp, 300, 3},
		{bdisp.VariantBDisp2, 300, 1},
	}
	for _, tt := range tests {
		e, rec := newEmitter(t, options{variant: tt.variant})
		setState(t, e, blitState(bdisp.FormatARGB, bdisp.FormatRGB16, 0, bdisp.RuleSrc), bdisp.AccelStretchBlit)
		passes := len(e.cache.BlitTemplate().Passes)
		if err := e.StretchBlit(bdisp.R(0, 0, tt.w, 10), bdisp.R(0, 0, tt.w, 10)); err != nil {
			t.Fatalf("StretchBlit width %d: %v", tt.w, err)
		}
		if got, want := len(rec.nodes), tt.spans*passes; got != want {
			t.Errorf("%v width %d: nodes = %d, want %d", tt.variant, tt.w, got, want)
			continue
		}
		covered := 0
		for _, n := range rec.nodes[:tt.spans] {
			if n[node.INS]&reg.InsEnable2DRescale == 0 {
				t.Errorf("INS = %#x, want the resizer", n[node.INS])
			}
			if n[node.RSF] != 0x0400_0400 {
				t.Errorf("RSF = %#x, want unity", n[node.RSF])
			}
			covered += int(n[node.TSZ] & 0x0fff)
		}
		if covered != tt.w {
			t.Errorf("%v width %d: spans cover %d pixels", tt.variant, tt.w, covered)
		}
	}
}

func TestStretchSpanPositions(t *testing.T) {
	e, rec := newEmitter(t, options{variant: bdisp.VariantBDisp})
	setState(t, e, blitState(bdisp.FormatARGB, bdisp.FormatRGB16, 0, bdisp.RuleSrc), bdisp.AccelStretchBlit)
	// Downscale by two: each 60 pixel target span reads 120 source pixels.
	if err := e.StretchBlit(bdisp.R(0, 0, 480, 8), bdisp.R(10, 0, 240, 4)); err != nil {
		t.Fatal(err)
	}
	if len(rec.nodes) != 4*len(e.cache.BlitTemplate().Passes) {
		t.Fatalf("nodes = %d, want 4 spans", len(rec.nodes))
	}
	first, second := rec.nodes[0], rec.nodes[1]
	if first[node.TXY] != node.XY(10, 0) || second[node.TXY] != node.XY(70, 0) {
		t.Errorf("TXY = %#x, %#x, want spans at 10 and 70", first[node.TXY], second[node.TXY])
	}
	if got := first[node.RZI] & reg.RZIHRepeatMask >> reg.RZIHRepeatShift; got != 3 {
		t.Errorf("first span repeat = %d, want 3", got)
	}
	if got := second[node.RZI] & reg.RZIHRepeatMask >> reg.RZIHRepeatShift; got != 0 {
		t.Errorf("second span repeat = %d, want 0", got)
	}
	// The second span starts reading three pixels before source x 120.
	if got := second[node.S2XY] & 0xffff; got != 117 {
		t.Errorf("second span source x = %d, want 117", got)
	}
}

func TestStretchScaleLimits(t *testing.T) {
	e, rec := newEmitter(t, options{})
	setState(t, e, blitState(bdisp.FormatARGB, bdisp.FormatRGB16, 0, bdisp.RuleSrc), bdisp.AccelStretchBlit)
	if err := e.StretchBlit(bdisp.R(0, 0, 4000, 4), bdisp.R(0, 0, 40, 4)); !errors.Is(err, ErrScale) {
		t.Errorf("100:1 downscale = %v, want ErrScale", err)
	}
	if err := e.StretchBlit(bdisp.R(0, 0, 1, 1), bdisp.R(0, 0, 4000, 4)); !errors.Is(err, ErrScale) {
		t.Errorf("1:4000 upscale = %v, want ErrScale", err)
	}
	if len(rec.nodes) != 0 {
		t.Errorf("nodes = %d, want 0", len(rec.nodes))
	}
}

func TestIncrement(t *testing.T) {
	tests := []struct {
		src, dst int
		want     int64
		ok       bool
	}{
		{10, 10, 0x10000, true},
		{20, 10, 0x20000, true},
		{10, 20, 0x8000, true},
		{64, 1, 0x400000, false},
		{1, 1025, 0x40, true},
		{1, 2000, 0x40, true},
		{1, 4000, 0, false},
	}
	for _, tt := range tests {
		got, ok := increment(f16(tt.src), f16(tt.dst))
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("increment(%d, %d) = %#x, %v, want %#x, %v", tt.src, tt.dst, got, ok, tt.want, tt.ok)
		}
	}
}

func TestRotate(t *testing.T) {
	tests := []struct {
		name    string
		variant bdisp.Variant
		flags   bdisp.BlittingFlags
		src     bdisp.Rect
		tiles   int
		txy     []uint32
	}{
		{"90 single", bdisp.VariantBDisp2, bdisp.BlitRotate90, bdisp.R(0, 0, 32, 8), 1, []uint32{node.XY(200, 31)}},
		{"90 tiles", bdisp.VariantBDisp2, bdisp.BlitRotate90, bdisp.R(0, 0, 128, 8), 2, []uint32{node.XY(200, 127), node.XY(200, 63)}},
		{"270 tiles", bdisp.VariantBDisp2, bdisp.BlitRotate270, bdisp.R(0, 0, 128, 8), 2, []uint32{node.XY(207, 0), node.XY(207, 64)}},
		{"90 small buffer", bdisp.VariantBDisp, bdisp.BlitRotate90, bdisp.R(0, 0, 128, 8), 8, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, rec := newEmitter(t, options{variant: tt.variant})
			setState(t, e, blitState(bdisp.FormatARGB, bdisp.FormatARGB, tt.flags, bdisp.RuleSrc), bdisp.AccelBlit)
			passes := len(e.cache.BlitTemplate().Passes)
			if err := e.Blit(tt.src, 200, 0); err != nil {
				t.Fatal(err)
			}
			if got := len(rec.nodes); got != tt.tiles*passes {
				t.Fatalf("nodes = %d, want %d", got, tt.tiles*passes)
			}
			for i, want := range tt.txy {
				if got := rec.nodes[i][node.TXY]; got != want {
					t.Errorf("tile %d TXY = %#x, want %#x", i, got, want)
				}
			}
			first := rec.nodes[0]
			tile := min(tt.src.W, e.prof.RotateBuffer)
			if got, want := first[node.TSZ], node.SZ(tt.src.H, tile); got != want {
				t.Errorf("TSZ = %#x, want %#x", got, want)
			}
			if got, want := first[node.S2SZ], node.SZ(tile, tt.src.H); got != want {
				t.Errorf("S2SZ = %#x, want %#x", got, want)
			}
		})
	}
}

func TestRotateRefused(t *testing.T) {
	e, rec := newEmitter(t, options{})
	st := blitState(bdisp.FormatARGB, bdisp.FormatARGB, bdisp.BlitRotate90, bdisp.RuleSrc)
	setState(t, e, st, bdisp.AccelBlit)
	if err := e.Blit(bdisp.R(0, 0, 20, 8), 100, 0); !errors.Is(err, ErrRotation) {
		t.Errorf("Blit of width 20 = %v, want ErrRotation", err)
	}

	st.Source = st.Destination
	setState(t, e, st, bdisp.AccelBlit)
	if err := e.Blit(bdisp.R(0, 0, 16, 8), 4, 4); !errors.Is(err, ErrRotation) {
		t.Errorf("overlapping rotation = %v, want ErrRotation", err)
	}
	if err := e.Blit(bdisp.R(0, 0, 16, 8), 100, 100); err != nil {
		t.Errorf("disjoint rotation = %v", err)
	}
	if err := e.StretchBlit(bdisp.R(0, 0, 16, 8), bdisp.R(100, 100, 8, 16)); !errors.Is(err, bdisp.ErrFallbackToCPU) {
		t.Errorf("rotated stretch = %v, want a fallback", err)
	}
	if len(rec.nodes) == 0 {
		t.Error("disjoint rotation pushed no node")
	}
}

func TestMultipassClearsTableReload(t *testing.T) {
	e, rec := newEmitter(t, options{variant: bdisp.VariantBDisp})
	setState(t, e, blitState(bdisp.FormatARGB, bdisp.FormatARGB, bdisp.BlitBlendAlphaChannel, bdisp.RuleDstIn), bdisp.AccelStretchBlit)
	passes := e.cache.BlitTemplate().Passes
	if len(passes) != 2 {
		t.Fatalf("passes = %d, want 2", len(passes))
	}
	if err := e.StretchBlit(bdisp.R(0, 0, 300, 4), bdisp.R(0, 0, 300, 4)); err != nil {
		t.Fatal(err)
	}
	if len(rec.nodes) != 6 {
		t.Fatalf("nodes = %d, want 3 spans in 2 passes", len(rec.nodes))
	}
	for i, n := range rec.nodes {
		p := passes[i/3]
		if n[node.ACK] != p.ACK {
			t.Errorf("node %d ACK = %#x, want pass %d %#x", i, n[node.ACK], i/3, p.ACK)
		}
		if i%3 != 0 && n[node.CCO]&reg.CCOUpdateEn != 0 {
			t.Errorf("node %d reloads its colour table", i)
		}
	}
	if got := e.Counters().Spans; got != 2 {
		t.Errorf("Spans = %d, want 2", got)
	}
}

func TestShortcuts(t *testing.T) {
	tests := []struct {
		dst  bdisp.PixelFormat
		cic  uint32
		s1cf uint32
	}{
		{bdisp.FormatARGB, node.Fast, 0},
		{bdisp.FormatRGB32, node.Fast, 0xff000000},
		{bdisp.FormatYUY2, node.YCbCr422rShortcut, 0},
	}
	for _, tt := range tests {
		e, rec := newEmitter(t, options{})
		setState(t, e, blitState(bdisp.FormatARGB, tt.dst, bdisp.BlitBlendAlphaChannel, bdisp.RuleClear), bdisp.AccelBlit)
		if err := e.Blit(bdisp.R(0, 0, 8, 8), 16, 16); err != nil {
			t.Fatalf("%v: %v", tt.dst, err)
		}
		if len(rec.nodes) != 1 {
			t.Fatalf("%v: nodes = %d, want 1", tt.dst, len(rec.nodes))
		}
		n := rec.nodes[0]
		if n[node.CIC] != tt.cic || n[node.S1CF] != tt.s1cf {
			t.Errorf("%v: CIC, S1CF = %#x, %#x, want %#x, %#x", tt.dst, n[node.CIC], n[node.S1CF], tt.cic, tt.s1cf)
		}
		if n[node.TXY] != node.XY(16, 16) {
			t.Errorf("%v: TXY = %#x", tt.dst, n[node.TXY])
		}
	}
}

func TestMirrorDirections(t *testing.T) {
	tests := []struct {
		flags bdisp.BlittingFlags
		tty   uint32
		s2ty  uint32
	}{
		// Narrow blits reverse the source, short ones the target.
		{bdisp.BlitFlipHorizontal, 0, reg.TyCopyDirRightLeft},
		{bdisp.BlitFlipVertical, reg.TyCopyDirBottomTop, 0},
		{bdisp.BlitRotate180, 0, reg.TyCopyDirRightLeft | reg.TyCopyDirBottomTop},
	}
	for _, tt := range tests {
		e, rec := newEmitter(t, options{})
		setState(t, e, blitState(bdisp.FormatARGB, bdisp.FormatARGB, tt.flags, bdisp.RuleSrc), bdisp.AccelBlit)
		if err := e.Blit(bdisp.R(0, 0, 8, 4), 20, 10); err != nil {
			t.Fatalf("flags %#x: %v", tt.flags, err)
		}
		n := rec.nodes[0]
		if got := n[node.TTY] & reg.TyCopyDirMask; got != tt.tty {
			t.Errorf("flags %#x: TTY direction = %#x, want %#x", tt.flags, got, tt.tty)
		}
		if got := n[node.S2TY] & reg.TyCopyDirMask; got != tt.s2ty {
			t.Errorf("flags %#x: S2TY direction = %#x, want %#x", tt.flags, got, tt.s2ty)
		}
	}
}

// engine returns an emitter driving a simulated engine through a ring.
func engine(t *testing.T) (*Emitter, *ring.Ring, *sim.Engine) {
	t.Helper()
	eng := sim.New(sim.DefaultConfig())
	tables, _ := eng.Tables()
	p, err := profile.New(profile.Config{Variant: bdisp.VariantBDisp2, HWClip: true, CLUTPhys: tables})
	if err != nil {
		t.Fatal(err)
	}
	c, err := state.New(state.Config{Profile: p})
	if err != nil {
		t.Fatal(err)
	}
	r, err := ring.New(eng, ring.Config{})
	if err != nil {
		t.Fatal(err)
	}
	e, err := New(Config{Profile: p, Ring: r, Cache: c})
	if err != nil {
		t.Fatal(err)
	}
	return e, r, eng
}

func allocSurface(t *testing.T, eng *sim.Engine, f bdisp.PixelFormat, w, h int) (*bdisp.Surface, []byte) {
	t.Helper()
	s := &bdisp.Surface{Pitch: w * f.BytesPerPixel(), Format: f, Width: w, Height: h}
	phys, err := eng.Alloc(s.Size(), 64)
	if err != nil {
		t.Fatal(err)
	}
	s.Phys = phys
	b, err := eng.Bytes(phys, s.Size())
	if err != nil {
		t.Fatal(err)
	}
	return s, b
}

func flush(t *testing.T, r *ring.Ring) {
	t.Helper()
	r.Emit()
	if err := r.Sync(); err != nil {
		t.Fatal(err)
	}
}

func TestRedFillOnEngine(t *testing.T) {
	e, r, eng := engine(t)
	dst, mem := allocSurface(t, eng, bdisp.FormatRGB16, 32, 16)
	st := bdisp.NewState(dst)
	st.SrcBlend, st.DstBlend = bdisp.RuleSrcOver.BlendPair()
	st.Color = red
	setState(t, e, st, bdisp.AccelFillRectangle)

	if err := e.FillRectangle(bdisp.R(2, 3, 10, 10)); err != nil {
		t.Fatal(err)
	}
	flush(t, r)

	for y := range dst.Height {
		for x := range dst.Width {
			got := binary.LittleEndian.Uint16(mem[y*dst.Pitch+2*x:])
			var want uint16
			if x >= 2 && x < 12 && y >= 3 && y < 13 {
				want = 0xf800
			}
			if got != want {
				t.Fatalf("pixel %d,%d = %#04x, want %#04x", x, y, got, want)
			}
		}
	}
	if eng.Ignored() != 0 {
		t.Errorf("Ignored() = %d, want 0", eng.Ignored())
	}
}

func TestRGB32FixupOnEngine(t *testing.T) {
	e, r, eng := engine(t)
	s, mem := allocSurface(t, eng, bdisp.FormatRGB32, 8, 4)
	for i := 0; i < len(mem); i += 4 {
		binary.LittleEndian.PutUint32(mem[i:], 0x00123456)
	}
	if err := e.RGB32Fixup(s, bdisp.R(0, 0, 4, 4)); err != nil {
		t.Fatal(err)
	}
	flush(t, r)
	for y := range 4 {
		for x := range 8 {
			got := binary.LittleEndian.Uint32(mem[y*s.Pitch+4*x:])
			want := uint32(0x00123456)
			if x < 4 {
				want = 0xff123456
			}
			if got != want {
				t.Errorf("pixel %d,%d = %#08x, want %#08x", x, y, got, want)
			}
		}
	}

	if err := e.RGB32Init(s, bdisp.R(4, 0, 4, 1)); err != nil {
		t.Fatal(err)
	}
	flush(t, r)
	if got := binary.LittleEndian.Uint32(mem[4*4:]); got != 0xff000000 {
		t.Errorf("initialised pixel = %#08x, want 0xff000000", got)
	}
}

func TestOverlappingCopyOnEngine(t *testing.T) {
	e, r, eng := engine(t)
	s, mem := allocSurface(t, eng, bdisp.FormatARGB, 16, 16)
	for y := range 8 {
		for x := range 8 {
			binary.LittleEndian.PutUint32(mem[y*s.Pitch+4*x:], uint32(0xff000000|y<<8|x))
		}
	}
	st := bdisp.NewState(s)
	st.Source = s
	st.SrcBlend, st.DstBlend = bdisp.RuleSrc.BlendPair()
	setState(t, e, st, bdisp.AccelBlit)

	if err := e.Blit(bdisp.R(0, 0, 8, 8), 2, 2); err != nil {
		t.Fatal(err)
	}
	flush(t, r)
	for y := range 8 {
		for x := range 8 {
			got := binary.LittleEndian.Uint32(mem[(y+2)*s.Pitch+4*(x+2):])
			if want := uint32(0xff000000 | y<<8 | x); got != want {
				t.Fatalf("pixel %d,%d = %#08x, want %#08x", x+2, y+2, got, want)
			}
		}
	}
}
