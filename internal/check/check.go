// Package check decides which operations the engine can perform with a
// given state. It never touches hardware: the same state always yields
// the same verdict for the same profile.
package check

import (
	"github.com/gogpu/bdisp"
	"github.com/gogpu/bdisp/internal/profile"
)

// Verdict is the outcome of Check.
type Verdict struct {
	// Accel is the subset of the requested operations the engine accepts.
	Accel bdisp.AccelOp

	Rule     bdisp.BlendRule
	Passes   int
	Rotation Rotation

	// CanUseInputMatrix is set when source and destination share a colour
	// space, leaving the input matrix free for modulation.
	CanUseInputMatrix bool

	// NeedsBlend is set when a blit needs the blend unit even though the
	// rule alone would not.
	NeedsBlend bool

	// SrcPremultColor is the effective premultiply-by-colour flag. Some
	// rules fold it into the blend and clear it.
	SrcPremultColor bool

	// Reason explains a rejection.
	Reason string
}

// Classify returns the Porter-Duff rule of the state's blend pair.
func Classify(st *bdisp.State) bdisp.BlendRule { return st.Rule() }

// Check returns the operations of op that can be accelerated with st.
// Drawing and blitting operations are judged independently; the blit
// specific fields of the verdict describe the blitting half.
func Check(p *profile.Profile, st *bdisp.State, op bdisp.AccelOp) Verdict {
	v := Verdict{Rule: st.Rule(), Passes: 1}
	if op&^p.Accel != 0 {
		return v.reject("unsupported operation")
	}
	dst := st.Destination
	if dst == nil || !p.Formats.Supported(dst.Format, false) {
		return v.reject("unsupported destination format")
	}
	if st.RenderOptions&^p.RenderOptions != 0 {
		return v.reject("unsupported render options")
	}
	if st.RenderOptions&bdisp.RenderMatrix != 0 && MatrixRotation(st.Matrix) == RotateInvalid {
		return v.reject("matrix is not a supported rotation")
	}

	var reason string
	if op.IsDraw() {
		if r := checkDraw(p, st); r == "" {
			v.Accel |= op & bdisp.AccelAllDraw
		} else {
			reason = r
		}
	}
	if op.IsBlit() {
		v.Rotation = StateRotation(st)
		if accel, r := checkBlit(p, st, op, &v); r == "" {
			v.Accel |= accel & op
		} else {
			reason = r
		}
		if v.Rule != bdisp.RuleUnsupported && st.BlittingFlags&bdisp.BlitBlendMask != 0 {
			v.Passes = v.Rule.Passes()
		}
	}
	if v.Accel == 0 {
		v.Reason = reason
	}
	return v
}

func (v Verdict) reject(reason string) Verdict {
	v.Accel = bdisp.AccelNone
	v.Reason = reason
	return v
}

func checkDraw(p *profile.Profile, st *bdisp.State) string {
	if st.DrawingFlags&^p.DrawingFlags != 0 {
		return "unsupported drawing flags"
	}
	if st.DrawingFlags&bdisp.DrawBlend == 0 {
		return ""
	}
	dst := st.Destination.Format
	switch rule := st.Rule(); {
	case rule == bdisp.RuleUnsupported:
		return "unsupported blend pair"
	case rule.Passes() > 1:
		return "multi-pass rule on a drawing operation"
	case dst == bdisp.FormatRGB32 && !rgb32DrawRule(rule):
		return "rule not available on RGB32"
	case dst.IsIndexed():
		return "blend to an indexed surface"
	case st.DrawingFlags&bdisp.DrawXOR != 0:
		return "blend and XOR together"
	case dst.HasAlpha() && rule == bdisp.RuleNone:
		return "NONE rule on a destination with alpha"
	}
	return ""
}

func rgb32DrawRule(r bdisp.BlendRule) bool {
	switch r {
	case bdisp.RuleDstOver, bdisp.RuleSrcOver, bdisp.RuleClear,
		bdisp.RuleDst, bdisp.RuleSrc, bdisp.RuleNone:
		return true
	}
	return false
}

func checkBlit(p *profile.Profile, st *bdisp.State, op bdisp.AccelOp, v *Verdict) (bdisp.AccelOp, string) {
	flags := st.BlittingFlags
	if flags&^p.BlittingFlags != 0 {
		return 0, "unsupported blitting flags"
	}
	src, dst := st.Source, st.Destination
	if src == nil || !p.Formats.Supported(src.Format, true) {
		return 0, "unsupported source format"
	}
	sf, df := src.Format, dst.Format

	isRotate := flags&(bdisp.BlitRotate90|bdisp.BlitRotate270) != 0 ||
		v.Rotation == Rotate90 || v.Rotation == Rotate270
	norotate := flags &^ (bdisp.BlitRotate90 | bdisp.BlitRotate270)

	if sf == bdisp.FormatNV12 || sf == bdisp.FormatNV16 {
		if src.Width&0xf != 0 || src.Height&0xf != 0 || (src.Height>>4)&1 != 0 {
			return 0, "NV12/NV16 size must be a multiple of 16 (32 in height)"
		}
	}
	if sf.IsPlanar() {
		if flags != 0 {
			return 0, "blitting flags on a planar source"
		}
		if df == bdisp.FormatRGB32 {
			return 0, "planar source to RGB32"
		}
	}
	srcYUV, dstYUV := sf.IsYCbCr(), df.IsYCbCr()
	if srcYUV {
		if sf.Planes() == 3 && (flags&bdisp.BlitSource2 != 0 || op&bdisp.AccelBlit2 != 0) {
			return 0, "second source with a three plane source"
		}
		if flags&(bdisp.BlitSrcPremultColor|bdisp.BlitSrcPremultiply) != 0 {
			return 0, "RGB modulation of a YCbCr source"
		}
	}
	v.CanUseInputMatrix = srcYUV == dstYUV

	if df.IsIndexed() {
		if sf == df && norotate == bdisp.BlitIndexTranslation &&
			st.RenderOptions&bdisp.RenderAntialias == 0 {
			accel := bdisp.AccelBlit
			if st.RenderOptions&(bdisp.RenderSmoothUpscale|bdisp.RenderSmoothDownscale) == 0 {
				accel |= bdisp.AccelStretchBlit
			}
			return accel, ""
		}
		return 0, "blit to an indexed surface without 1:1 index translation"
	}

	if isRotate {
		switch {
		case norotate != 0:
			return 0, "rotation combined with other flags"
		case !v.CanUseInputMatrix:
			return 0, "rotation with colour space conversion"
		case srcYUV:
			return 0, "rotation of a YCbCr source"
		case ycbcrPacked(df):
			return 0, "rotation into a packed YCbCr destination"
		case sf.IsIndexed() && sf != df:
			return 0, "rotation of an indexed source into another format"
		}
		return bdisp.AccelBlit, ""
	}

	if flags&(bdisp.BlitSrcColorKey|bdisp.BlitDstColorKey) == bdisp.BlitSrcColorKey|bdisp.BlitDstColorKey {
		return 0, "source and destination colour key together"
	}
	if smooth := st.RenderOptions & (bdisp.RenderSmoothUpscale | bdisp.RenderSmoothDownscale); smooth != 0 &&
		smooth != bdisp.RenderSmoothUpscale|bdisp.RenderSmoothDownscale {
		return 0, "smooth upscale and downscale differ"
	}

	v.SrcPremultColor = flags&bdisp.BlitSrcPremultColor != 0
	if flags&bdisp.BlitBlendMask != 0 {
		if r := checkBlitBlend(st, v); r != "" {
			return 0, r
		}
	} else if flags&bdisp.BlitSrcPremultiply != 0 {
		if flags&(bdisp.BlitXOR|bdisp.BlitDstColorKey|bdisp.BlitDstPremultiply|bdisp.BlitSource2) != 0 {
			return 0, "source premultiply with XOR, destination key, destination premultiply or second source"
		}
		v.NeedsBlend = true
	}

	if (flags&bdisp.BlitColorize != 0 || v.SrcPremultColor) && !srcYUV && dstYUV {
		if flags&bdisp.BlitXOR != 0 || v.NeedsBlend {
			return 0, "modulation needs the input matrix for colour conversion"
		}
	}
	return bdisp.AccelAllBlit, ""
}

// checkBlitBlend applies the rules of the blend unit. It may fold the
// premultiply flags into v.
func checkBlitBlend(st *bdisp.State, v *Verdict) string {
	flags := st.BlittingFlags
	rule := v.Rule
	sf, df := st.Source.Format, st.Destination.Format
	switch {
	case rule == bdisp.RuleUnsupported:
		return "unsupported blend pair"
	case flags&bdisp.BlitXOR != 0:
		return "blend and XOR together"
	case df == bdisp.FormatRGB32 && (sf == bdisp.FormatRGB32 || sf.IsIndexed()):
		return "RGB32 destination needs the palette for alpha correction"
	}

	srcPremultiply := flags&bdisp.BlitSrcPremultiply != 0
	premult := flags & (bdisp.BlitSrcPremultColor | bdisp.BlitSrcPremultiply)

	switch flags & bdisp.BlitBlendMask {
	case bdisp.BlitBlendColorAlpha:
		if rule != bdisp.RuleSrc && rule != bdisp.RuleSrcOver {
			break
		}
		switch {
		case premult == 0:
		case premult == bdisp.BlitSrcPremultColor|bdisp.BlitSrcPremultiply && !v.CanUseInputMatrix:
		default:
			if !srcPremultiply {
				v.SrcPremultColor = false
			}
			v.NeedsBlend = true
			srcPremultiply = false
		}
	case bdisp.BlitBlendMask:
		switch rule {
		case bdisp.RuleSrc, bdisp.RuleSrcOver:
			if premult == 0 {
				break
			}
			fallthrough
		case bdisp.RuleNone:
			if flags&bdisp.BlitSrcPremultColor != 0 && !v.CanUseInputMatrix &&
				(flags&bdisp.BlitSrcPremultiply != 0 || rule == bdisp.RuleNone) {
				break
			}
			v.NeedsBlend = true
			if v.SrcPremultColor && !srcPremultiply && rule != bdisp.RuleNone {
				v.SrcPremultColor = false
			}
		}
	}

	dstPremultiply := flags&bdisp.BlitDstPremultiply != 0
	switch rule {
	case bdisp.RuleSrc, bdisp.RuleDst:
		if rule == bdisp.RuleSrc && srcPremultiply {
			v.NeedsBlend = true
			if flags&(bdisp.BlitDstColorKey|bdisp.BlitSource2) != 0 {
				return "source premultiply by blending with a colour fill excludes destination access"
			}
		}
		if dstPremultiply {
			v.NeedsBlend = true
		}
	case bdisp.RuleSrcOver:
		if dstPremultiply {
			return "destination premultiply with SRC_OVER"
		}
		v.NeedsBlend = true
	case bdisp.RuleDstOver:
		if flags&bdisp.BlitSrcPremultiply != 0 {
			return "source premultiply with DST_OVER"
		}
		v.NeedsBlend = true
	case bdisp.RuleDstIn, bdisp.RuleDstOut:
		if dstPremultiply {
			return "destination premultiply with " + rule.String()
		}
		v.NeedsBlend = true
	case bdisp.RuleNone:
		if flags&bdisp.BlitSrcPremultiply != 0 {
			return "source premultiply with NONE"
		}
		if df.HasAlpha() {
			return "NONE rule on a destination with alpha"
		}
		v.NeedsBlend = true
	default:
		if dstPremultiply {
			return "destination premultiply with " + rule.String()
		}
	}
	return ""
}

func ycbcrPacked(f bdisp.PixelFormat) bool {
	switch f {
	case bdisp.FormatYUY2, bdisp.FormatUYVY, bdisp.FormatAVYU, bdisp.FormatVYU:
		return true
	}
	return false
}
