package check

import (
	"testing"

	"github.com/gogpu/bdisp"
	"github.com/gogpu/bdisp/internal/profile"
)

func testProfile(t *testing.T, v bdisp.Variant) *profile.Profile {
	t.Helper()
	p, err := profile.New(profile.Config{Variant: v})
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func surface(f bdisp.PixelFormat, w, h int) *bdisp.Surface {
	return &bdisp.Surface{Phys: 0x1000_0000, Pitch: w * 4, Format: f, Width: w, Height: h}
}

func blitState(src, dst bdisp.PixelFormat, flags bdisp.BlittingFlags, rule bdisp.BlendRule) *bdisp.State {
	st := bdisp.NewState(surface(dst, 64, 64))
	st.Source = surface(src, 64, 64)
	st.BlittingFlags = flags
	st.SrcBlend, st.DstBlend = rule.BlendPair()
	return st
}

func TestCheckDraw(t *testing.T) {
	p := testProfile(t, bdisp.VariantBDisp2)
	tests := []struct {
		name  string
		dst   bdisp.PixelFormat
		flags bdisp.DrawingFlags
		rule  bdisp.BlendRule
		want  bdisp.AccelOp
	}{
		{"plain fill", bdisp.FormatRGB16, 0, bdisp.RuleSrcOver, bdisp.AccelAllDraw},
		{"src over", bdisp.FormatARGB, bdisp.DrawBlend, bdisp.RuleSrcOver, bdisp.AccelAllDraw},
		{"dst in", bdisp.FormatARGB, bdisp.DrawBlend, bdisp.RuleDstIn, bdisp.AccelNone},
		{"dst out", bdisp.FormatARGB, bdisp.DrawBlend, bdisp.RuleDstOut, bdisp.AccelNone},
		{"none on alpha dst", bdisp.FormatARGB, bdisp.DrawBlend, bdisp.RuleNone, bdisp.AccelNone},
		{"none on rgb16", bdisp.FormatRGB16, bdisp.DrawBlend, bdisp.RuleNone, bdisp.AccelAllDraw},
		{"clear on rgb32", bdisp.FormatRGB32, bdisp.DrawBlend, bdisp.RuleClear, bdisp.AccelAllDraw},
		{"blend on lut8", bdisp.FormatLUT8, bdisp.DrawBlend, bdisp.RuleSrc, bdisp.AccelNone},
		{"fill on lut8", bdisp.FormatLUT8, 0, bdisp.RuleSrc, bdisp.AccelAllDraw},
		{"blend and xor", bdisp.FormatARGB, bdisp.DrawBlend | bdisp.DrawXOR, bdisp.RuleSrc, bdisp.AccelNone},
		{"xor", bdisp.FormatARGB, bdisp.DrawXOR, bdisp.RuleSrc, bdisp.AccelAllDraw},
		{"unsupported flag", bdisp.FormatARGB, bdisp.DrawDemultiply, bdisp.RuleSrc, bdisp.AccelNone},
		{"unsupported dst", bdisp.FormatI420, 0, bdisp.RuleSrc, bdisp.AccelNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := bdisp.NewState(surface(tt.dst, 16, 16))
			st.DrawingFlags = tt.flags
			st.SrcBlend, st.DstBlend = tt.rule.BlendPair()
			v := Check(p, st, bdisp.AccelAllDraw)
			if v.Accel != tt.want {
				t.Errorf("Accel = %v, want %v (reason %q)", v.Accel, tt.want, v.Reason)
			}
			if v.Accel == 0 && v.Reason == "" {
				t.Error("rejection without a reason")
			}
		})
	}
}

func TestCheckUnsupportedBlendPair(t *testing.T) {
	p := testProfile(t, bdisp.VariantBDisp)
	st := bdisp.NewState(surface(bdisp.FormatARGB, 16, 16))
	st.DrawingFlags = bdisp.DrawBlend
	st.SrcBlend, st.DstBlend = bdisp.BlendOne, bdisp.BlendOne
	if v := Check(p, st, bdisp.AccelFillRectangle); v.Accel != 0 {
		t.Errorf("ONE/ONE fill accepted: %v", v.Accel)
	}
	st.Source = st.Destination
	st.BlittingFlags = bdisp.BlitBlendAlphaChannel
	if v := Check(p, st, bdisp.AccelBlit); v.Accel != 0 {
		t.Errorf("ONE/ONE blit accepted: %v", v.Accel)
	}
}

func TestCheckBlit(t *testing.T) {
	p := testProfile(t, bdisp.VariantBDisp2)
	tests := []struct {
		name     string
		src, dst bdisp.PixelFormat
		flags    bdisp.BlittingFlags
		rule     bdisp.BlendRule
		op       bdisp.AccelOp
		want     bdisp.AccelOp
	}{
		{"copy", bdisp.FormatARGB, bdisp.FormatARGB, 0, bdisp.RuleSrcOver, bdisp.AccelAllBlit, bdisp.AccelAllBlit},
		{"src over", bdisp.FormatARGB, bdisp.FormatRGB16, bdisp.BlitBlendAlphaChannel, bdisp.RuleSrcOver, bdisp.AccelBlit, bdisp.AccelBlit},
		{"dst in", bdisp.FormatARGB, bdisp.FormatARGB, bdisp.BlitBlendAlphaChannel, bdisp.RuleDstIn, bdisp.AccelBlit, bdisp.AccelBlit},
		{"dst in dst premultiply", bdisp.FormatARGB, bdisp.FormatARGB, bdisp.BlitBlendAlphaChannel | bdisp.BlitDstPremultiply, bdisp.RuleDstIn, bdisp.AccelBlit, 0},
		{"none on alpha dst", bdisp.FormatARGB, bdisp.FormatARGB, bdisp.BlitBlendAlphaChannel, bdisp.RuleNone, bdisp.AccelBlit, 0},
		{"none on rgb16", bdisp.FormatARGB, bdisp.FormatRGB16, bdisp.BlitBlendAlphaChannel, bdisp.RuleNone, bdisp.AccelBlit, bdisp.AccelBlit},
		{"rgb32 to rgb32 blend", bdisp.FormatRGB32, bdisp.FormatRGB32, bdisp.BlitBlendAlphaChannel, bdisp.RuleSrcOver, bdisp.AccelBlit, 0},
		{"lut8 to rgb32 blend", bdisp.FormatLUT8, bdisp.FormatRGB32, bdisp.BlitBlendAlphaChannel, bdisp.RuleSrcOver, bdisp.AccelBlit, 0},
		{"argb to rgb32 blend", bdisp.FormatARGB, bdisp.FormatRGB32, bdisp.BlitBlendAlphaChannel, bdisp.RuleSrcOver, bdisp.AccelBlit, bdisp.AccelBlit},
		{"blend and xor", bdisp.FormatARGB, bdisp.FormatARGB, bdisp.BlitBlendAlphaChannel | bdisp.BlitXOR, bdisp.RuleSrcOver, bdisp.AccelBlit, 0},
		{"both colour keys", bdisp.FormatARGB, bdisp.FormatARGB, bdisp.BlitSrcColorKey | bdisp.BlitDstColorKey, bdisp.RuleSrc, bdisp.AccelBlit, 0},
		{"src premultiply and xor", bdisp.FormatARGB, bdisp.FormatARGB, bdisp.BlitSrcPremultiply | bdisp.BlitXOR, bdisp.RuleSrc, bdisp.AccelBlit, 0},
		{"lut8 index translation", bdisp.FormatLUT8, bdisp.FormatLUT8, bdisp.BlitIndexTranslation, bdisp.RuleSrc, bdisp.AccelAllBlit, bdisp.AccelBlit | bdisp.AccelStretchBlit},
		{"lut8 without translation", bdisp.FormatLUT8, bdisp.FormatLUT8, 0, bdisp.RuleSrc, bdisp.AccelBlit, 0},
		{"argb to lut8", bdisp.FormatARGB, bdisp.FormatLUT8, bdisp.BlitIndexTranslation, bdisp.RuleSrc, bdisp.AccelBlit, 0},
		{"planar with flags", bdisp.FormatI420, bdisp.FormatARGB, bdisp.BlitSrcColorKey, bdisp.RuleSrc, bdisp.AccelBlit, 0},
		{"planar to rgb32", bdisp.FormatI420, bdisp.FormatRGB32, 0, bdisp.RuleSrc, bdisp.AccelBlit, 0},
		{"planar to argb", bdisp.FormatI420, bdisp.FormatARGB, 0, bdisp.RuleSrc, bdisp.AccelStretchBlit, bdisp.AccelStretchBlit},
		{"three planes blit2", bdisp.FormatYV12, bdisp.FormatARGB, 0, bdisp.RuleSrc, bdisp.AccelBlit2, 0},
		{"yuv premultiply", bdisp.FormatYUY2, bdisp.FormatARGB, bdisp.BlitSrcPremultiply, bdisp.RuleSrc, bdisp.AccelBlit, 0},
		{"rotate 90", bdisp.FormatARGB, bdisp.FormatARGB, bdisp.BlitRotate90, bdisp.RuleSrc, bdisp.AccelAllBlit, bdisp.AccelBlit},
		{"rotate 90 with key", bdisp.FormatARGB, bdisp.FormatARGB, bdisp.BlitRotate90 | bdisp.BlitSrcColorKey, bdisp.RuleSrc, bdisp.AccelBlit, 0},
		{"rotate 270 yuv source", bdisp.FormatYUY2, bdisp.FormatYUY2, bdisp.BlitRotate270, bdisp.RuleSrc, bdisp.AccelBlit, 0},
		{"rotate 90 into yuy2", bdisp.FormatARGB, bdisp.FormatYUY2, bdisp.BlitRotate90, bdisp.RuleSrc, bdisp.AccelBlit, 0},
		{"rotate 180", bdisp.FormatARGB, bdisp.FormatARGB, bdisp.BlitRotate180 | bdisp.BlitBlendAlphaChannel, bdisp.RuleSrcOver, bdisp.AccelBlit, bdisp.AccelBlit},
		{"colorize into yuv with blend", bdisp.FormatARGB, bdisp.FormatYUY2, bdisp.BlitColorize | bdisp.BlitBlendAlphaChannel, bdisp.RuleSrcOver, bdisp.AccelBlit, 0},
		{"colorize into yuv", bdisp.FormatARGB, bdisp.FormatYUY2, bdisp.BlitColorize, bdisp.RuleSrc, bdisp.AccelBlit, bdisp.AccelBlit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Check(p, blitState(tt.src, tt.dst, tt.flags, tt.rule), tt.op)
			if v.Accel != tt.want {
				t.Errorf("Accel = %v, want %v (reason %q)", v.Accel, tt.want, v.Reason)
			}
		})
	}
}

func TestCheckNV12Alignment(t *testing.T) {
	p := testProfile(t, bdisp.VariantBDisp)
	tests := []struct {
		w, h int
		want bdisp.AccelOp
	}{
		{64, 64, bdisp.AccelBlit},
		{64, 32, bdisp.AccelBlit},
		{64, 48, 0},
		{60, 64, 0},
		{64, 40, 0},
	}
	for _, tt := range tests {
		st := blitState(bdisp.FormatNV12, bdisp.FormatARGB, 0, bdisp.RuleSrc)
		st.Source.Width, st.Source.Height = tt.w, tt.h
		if got := Check(p, st, bdisp.AccelBlit).Accel; got != tt.want {
			t.Errorf("NV12 %dx%d: Accel = %v, want %v", tt.w, tt.h, got, tt.want)
		}
	}
}

func TestCheckVariantFormats(t *testing.T) {
	st := blitState(bdisp.FormatYV16, bdisp.FormatARGB, 0, bdisp.RuleSrc)
	if v := Check(testProfile(t, bdisp.VariantBDisp), st, bdisp.AccelBlit); v.Accel != 0 {
		t.Errorf("YV16 accepted on the first generation")
	}
	if v := Check(testProfile(t, bdisp.VariantBDisp2), st, bdisp.AccelBlit); v.Accel != bdisp.AccelBlit {
		t.Errorf("YV16 rejected on the second generation: %s", v.Reason)
	}
}

func TestCheckPasses(t *testing.T) {
	p := testProfile(t, bdisp.VariantBDisp)
	for _, tt := range []struct {
		rule bdisp.BlendRule
		want int
	}{
		{bdisp.RuleSrcOver, 1},
		{bdisp.RuleDstIn, 2},
		{bdisp.RuleDstOut, 2},
	} {
		v := Check(p, blitState(bdisp.FormatARGB, bdisp.FormatARGB, bdisp.BlitBlendAlphaChannel, tt.rule), bdisp.AccelBlit)
		if v.Passes != tt.want {
			t.Errorf("%v: Passes = %d, want %d", tt.rule, v.Passes, tt.want)
		}
		if !v.NeedsBlend {
			t.Errorf("%v: NeedsBlend = false", tt.rule)
		}
	}
}

func TestCheckPremultColorFolding(t *testing.T) {
	p := testProfile(t, bdisp.VariantBDisp)
	st := blitState(bdisp.FormatARGB, bdisp.FormatARGB,
		bdisp.BlitBlendColorAlpha|bdisp.BlitSrcPremultColor, bdisp.RuleSrcOver)
	v := Check(p, st, bdisp.AccelBlit)
	if v.Accel != bdisp.AccelBlit {
		t.Fatalf("rejected: %s", v.Reason)
	}
	if v.SrcPremultColor {
		t.Error("SrcPremultColor not folded into the blend")
	}

	st.BlittingFlags |= bdisp.BlitSrcPremultiply
	if v := Check(p, st, bdisp.AccelBlit); !v.SrcPremultColor {
		t.Error("SrcPremultColor folded although the source is premultiplied")
	}
}

func TestCheckMatrix(t *testing.T) {
	p := testProfile(t, bdisp.VariantBDisp)
	st := blitState(bdisp.FormatARGB, bdisp.FormatARGB, 0, bdisp.RuleSrc)
	st.RenderOptions = bdisp.RenderMatrix

	st.Matrix = bdisp.Rotate90()
	if v := Check(p, st, bdisp.AccelAllBlit); v.Accel != bdisp.AccelBlit || v.Rotation != Rotate90 {
		t.Errorf("rotate 90 matrix: Accel = %v, Rotation = %v", v.Accel, v.Rotation)
	}
	st.Matrix = bdisp.Identity()
	st.Matrix.C = bdisp.ToFixed(3)
	if v := Check(p, st, bdisp.AccelAllBlit); v.Accel != 0 {
		t.Errorf("translation accepted: %v", v.Accel)
	}
}

func TestMatrixRotation(t *testing.T) {
	tests := []struct {
		m    bdisp.Matrix
		want Rotation
	}{
		{bdisp.Identity(), RotateNone},
		{bdisp.Rotate90(), Rotate90},
		{bdisp.Rotate180(), Rotate180},
		{bdisp.Rotate270(), Rotate270},
		{bdisp.MirrorX(), MirrorX},
		{bdisp.MirrorY(), MirrorY},
		{bdisp.Matrix{A: 2 * bdisp.FixedOne, E: bdisp.FixedOne}, RotateInvalid},
		{bdisp.Matrix{A: bdisp.FixedOne, E: bdisp.FixedOne, F: 1}, RotateInvalid},
	}
	for _, tt := range tests {
		if got := MatrixRotation(tt.m); got != tt.want {
			t.Errorf("MatrixRotation(%+v) = %v, want %v", tt.m, got, tt.want)
		}
	}
}

func TestStateRotation(t *testing.T) {
	tests := []struct {
		flags bdisp.BlittingFlags
		want  Rotation
	}{
		{0, RotateNone},
		{bdisp.BlitFlipHorizontal | bdisp.BlitFlipVertical, Rotate180},
		{bdisp.BlitRotate180, Rotate180},
		{bdisp.BlitFlipVertical, MirrorX},
		{bdisp.BlitFlipHorizontal, MirrorY},
		{bdisp.BlitRotate90, Rotate90},
		{bdisp.BlitRotate270, Rotate270},
	}
	for _, tt := range tests {
		st := bdisp.NewState(nil)
		st.BlittingFlags = tt.flags
		if got := StateRotation(st); got != tt.want {
			t.Errorf("StateRotation(%#x) = %v, want %v", tt.flags, got, tt.want)
		}
	}
	st := bdisp.NewState(nil)
	st.RenderOptions = bdisp.RenderMatrix
	st.Matrix = bdisp.Rotate270()
	if got := StateRotation(st); got != Rotate270 {
		t.Errorf("StateRotation(matrix) = %v, want 270", got)
	}
}
