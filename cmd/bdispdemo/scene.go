package main

import (
	"context"
	"fmt"
	"image/color"

	"github.com/gogpu/bdisp"
)

// checker is the size of the source picture.
const checker = 64

// paintChecker draws an 8x8 checkerboard with a soft alpha ramp into s
// on the CPU.
func paintChecker(sw *bdisp.Software, s *bdisp.Surface) error {
	img, err := sw.Image(s)
	if err != nil {
		return err
	}
	for y := range s.Height {
		for x := range s.Width {
			c := color.NRGBA{R: 0x20, G: 0x90, B: 0xe0, A: uint8(0x80 + 2*x)}
			if (x/8+y/8)%2 == 0 {
				c = color.NRGBA{R: 0xf0, G: 0xf0, B: 0xf0, A: 0xff}
			}
			img.Set(x, y, c)
		}
	}
	return nil
}

// step is one drawing operation of the scene.
type step struct {
	name  string
	setup func(st *bdisp.State)
	draw  func(r *bdisp.Renderer) error
}

// drawScene draws fills, outlines, blends, copies, a stretch and a
// rotation. The blend the engine cannot do ends up on the CPU.
func drawScene(ctx context.Context, r *bdisp.Renderer, cv canvas) error {
	w, h := cv.dst.Width, cv.dst.Height
	src := bdisp.R(0, 0, checker, checker)

	steps := []step{
		{"background", func(st *bdisp.State) {
			st.SrcBlend, st.DstBlend = bdisp.RuleSrc.BlendPair()
			st.Color = bdisp.Opaque(0x10, 0x18, 0x30)
		}, func(r *bdisp.Renderer) error {
			return r.FillRectangle(bdisp.R(0, 0, w, h))
		}},
		{"bands", nil, func(r *bdisp.Renderer) error {
			band := w / 8
			for i := range 8 {
				r.State.Color = bdisp.Opaque(uint8(32*i), uint8(255-32*i), 0x80)
				r.Invalidate(bdisp.ModColor)
				if err := r.FillRectangle(bdisp.R(i*band, 0, band, 16)); err != nil {
					return err
				}
			}
			return nil
		}},
		{"frame", func(st *bdisp.State) {
			st.Color = bdisp.Opaque(0xff, 0xd0, 0)
		}, func(r *bdisp.Renderer) error {
			return r.DrawRectangle(bdisp.R(4, 20, w-8, h-24))
		}},
		{"translucent", func(st *bdisp.State) {
			st.DrawingFlags = bdisp.DrawBlend
			st.SrcBlend, st.DstBlend = bdisp.RuleSrcOver.BlendPair()
			st.Color = bdisp.Color{A: 0x80, R: 0xff, G: 0x40, B: 0x40}
		}, func(r *bdisp.Renderer) error {
			return r.FillRectangle(bdisp.R(w/2, h/2, w/3, h/3))
		}},
		{"mask", func(st *bdisp.State) {
			st.SrcBlend, st.DstBlend = bdisp.RuleDstIn.BlendPair()
			st.Color = bdisp.Color{A: 0x40}
		}, func(r *bdisp.Renderer) error {
			return r.FillRectangle(bdisp.R(8, h-40, 48, 32))
		}},
		{"copy", func(st *bdisp.State) {
			st.DrawingFlags = 0
			st.Source = cv.src
			st.SrcBlend, st.DstBlend = bdisp.RuleSrc.BlendPair()
		}, func(r *bdisp.Renderer) error {
			return r.Blit(src, 16, 40)
		}},
		{"stretch", func(st *bdisp.State) {
			st.RenderOptions = bdisp.RenderSmoothUpscale | bdisp.RenderSmoothDownscale
		}, func(r *bdisp.Renderer) error {
			return r.StretchBlit(src, bdisp.R(96, 40, 2*checker, 3*checker/2))
		}},
		{"rotate", func(st *bdisp.State) {
			st.RenderOptions = 0
			st.BlittingFlags = bdisp.BlitRotate90
		}, func(r *bdisp.Renderer) error {
			return r.Blit(bdisp.R(0, 0, checker, 48), w-56, 40)
		}},
		{"blend", func(st *bdisp.State) {
			st.BlittingFlags = bdisp.BlitBlendAlphaChannel
			st.SrcBlend, st.DstBlend = bdisp.RuleSrcOver.BlendPair()
		}, func(r *bdisp.Renderer) error {
			return r.Blit(src, w/2, h/2)
		}},
	}

	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.setup != nil {
			s.setup(r.State)
			r.Invalidate(bdisp.ModAll)
		}
		if err := s.draw(r); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return nil
}
