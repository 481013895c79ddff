package state

import (
	"fmt"

	"github.com/gogpu/bdisp"
	"github.com/gogpu/bdisp/internal/check"
	"github.com/gogpu/bdisp/internal/color"
	"github.com/gogpu/bdisp/internal/node"
	"github.com/gogpu/bdisp/internal/reg"
)

// engineAlphaHalf is the global alpha that leaves the blend inputs
// unscaled.
const engineAlphaHalf = 0x80

func (c *Cache) validate(st *bdisp.State, g Group) error {
	switch g {
	case GroupDestination:
		c.validateDestination(st)
	case GroupFillColor:
		c.validateFillColor(st)
	case GroupDstColorKey:
		c.validateDstColorKey(st)
	case GroupPaletteDraw:
		c.validatePaletteDraw(st)
	case GroupDrawingFlags:
		c.validateDrawingFlags(st)
	case GroupSource:
		c.validateSource(st)
	case GroupInputMatrix:
		c.blit.canUseInputMatrix = reg.FormOf(c.n[node.TTY]).IsYCbCr() ==
			reg.FormOf(c.n[node.S2TY]).IsYCbCr()
	case GroupSrcColorKey:
		c.validateSrcColorKey(st)
	case GroupRenderOpts:
		c.validateRenderOpts(st)
	case GroupPaletteBlit:
		c.validatePaletteBlit(st)
	case GroupBlittingFlags:
		c.validateBlittingFlags(st)
	case GroupBlittingFlagsCKey:
		c.validateBlittingFlagsCKey(st)
	case GroupBlitColor:
		c.validateBlitColor(st)
	case GroupSrc1Mode:
		c.validateSrc1Mode(st)
	case GroupMatrixConversions:
		c.validateMatrixConversions(st)
	case GroupRotation:
		c.validateRotation(st)
	case GroupClip:
		c.validateClip(st)
	default:
		return fmt.Errorf("state: validate %v", g)
	}
	return nil
}

// ty returns the TY word of a surface.
func (c *Cache) ty(s *bdisp.Surface) uint32 {
	return c.prof.Formats.TY(s.Format) | uint32(s.Pitch)&reg.TyPitchMask
}

func (c *Cache) validateDestination(st *bdisp.State) {
	dst := st.Destination
	c.n[node.TTY] = c.ty(dst)
	c.n[node.TBA] = dst.Phys
	c.extraCIC, c.extraINS = 0, 0
	if dst.Format == bdisp.FormatRGB32 {
		// The plane mask keeps alpha opaque on RGB32.
		c.extraCIC = reg.CICFilters
		c.extraINS = reg.InsEnablePlaneMask
	}
}

// formOf returns the layout bits of a TY word.
func formOf(ty uint32) uint32 {
	return ty & (reg.TyColorFormMask | reg.TyFullAlphaRange | reg.TyBigEndian)
}

func (c *Cache) validateFillColor(st *bdisp.State) {
	d := &c.draw
	dst := st.Destination.Format
	col := st.Color
	if st.DrawingFlags&bdisp.DrawSrcPremultiply != 0 {
		col = col.Premultiplied()
	}
	a, r, g, b := uint32(col.A), uint32(col.R), uint32(col.G), uint32(col.B)
	argbTY := reg.FormARGB8888.TY() | reg.TyFullAlphaRange

	if st.DrawingFlags&bdisp.DrawBlend != 0 {
		switch c.rule {
		case bdisp.RuleClear:
			d.color = 0
			switch {
			case dst.IsYCbCr():
				d.colorTY = reg.FormARGB8888.TY()
			default:
				if dst == bdisp.FormatRGB32 {
					d.color = color.ARGB(0xff, 0, 0, 0)
				}
				d.colorTY = formOf(c.n[node.TTY]) &^ reg.TyBigEndian
			}
		case bdisp.RuleSrc, bdisp.RuleDstOver, bdisp.RuleSrcOver, bdisp.RuleNone:
			if c.rule == bdisp.RuleSrc && dst == bdisp.FormatRGB32 {
				a = 0xff
			}
			d.color = color.ARGB(a, r, g, b)
			d.colorTY = argbTY
		}
	} else {
		d.colorTY = formOf(c.n[node.TTY])
		switch dst {
		case bdisp.FormatARGB1555:
			d.color = color.ARGB1555(a, r, g, b)
		case bdisp.FormatARGB4444:
			d.color = color.ARGB4444(a, r, g, b)
		case bdisp.FormatRGB16:
			d.color = color.RGB16(r, g, b)
		case bdisp.FormatRGB24:
			d.color = color.RGB32(r, g, b)
		case bdisp.FormatRGB32:
			d.color = color.ARGB(0xff, r, g, b)
		case bdisp.FormatARGB8565:
			d.color = color.ARGB8565(a, r, g, b)
		case bdisp.FormatYUY2, bdisp.FormatUYVY, bdisp.FormatAVYU, bdisp.FormatVYU:
			// The engine converts on the slow path.
			d.colorTY = argbTY
			d.color = color.ARGB(a, r, g, b)
		case bdisp.FormatARGB:
			d.color = color.ARGB(a, r, g, b)
		case bdisp.FormatLUT2, bdisp.FormatLUT8:
			d.color = uint32(st.ColorIndex)
		case bdisp.FormatALUT44:
			d.color = a&0xf0 | uint32(st.ColorIndex)&0x0f
		case bdisp.FormatA8:
			d.color = a
		default:
			c.log.Warn("state: fill colour for unexpected format", "format", dst.String())
		}
	}

	d.cic &^= reg.CICIVMX
	d.ins &^= reg.InsEnableIVMX
	if reg.FormOf(c.n[node.TTY]).IsYCbCr() && !reg.FormOf(d.colorTY).IsYCbCr() {
		d.cic |= reg.CICIVMX
		d.ins |= reg.InsEnableIVMX
	}
}

// setKey writes key to both colour key registers, keeping their alpha
// byte.
func (c *Cache) setKey(key uint32) {
	c.n[node.KEY1] = keyWord(c.n[node.KEY1], key)
	c.n[node.KEY2] = keyWord(c.n[node.KEY2], key)
}

func keyWord(word, key uint32) uint32 { return word&0xff000000 | key&0xffffff }

func (c *Cache) validateDstColorKey(st *bdisp.State) {
	c.dstKey = st.Destination.Format.ExpandColorKey(st.DstColorKey)
	if st.BlittingFlags&bdisp.BlitDstColorKey != 0 {
		c.setKey(c.dstKey)
	}
}

func (c *Cache) validatePaletteDraw(st *bdisp.State) {
	d := &c.draw
	if st.Destination.Format == bdisp.FormatRGB32 {
		d.cic |= reg.CICCLUT
		d.ins |= reg.InsEnableCLUT
		d.cco = reg.CCOCorrect | reg.CCONS2S1OnS1 | reg.CCOUpdateEn
		d.cml = c.prof.CLUTPhys + FixedOffset(color.LUTOneAlphaRGB)
		return
	}
	d.cic &^= reg.CICCLUT
	d.ins &^= reg.InsEnableCLUT
}

func (c *Cache) validateDrawingFlags(st *bdisp.State) {
	d := &c.draw
	flags := st.DrawingFlags
	ins := d.ins &^ (reg.InsSrc1ModeMask | reg.InsSrc2ModeMask)
	ack := d.ack &^ (reg.AckSwapFgBg | reg.AckModeMask | reg.AckGlobalAlphaMask |
		reg.AckROPMask | reg.AckCKeyMask | reg.AckColorKeyingMask)
	identical := reg.FormsIdentical(d.colorTY, c.n[node.TTY])
	rgb32 := st.Destination.Format == bdisp.FormatRGB32

	switch {
	case flags&bdisp.DrawBlend != 0:
		switch c.rule {
		case bdisp.RuleDst:
			// Both sources disabled: the destination stays as it is.
			d.ins, d.ack = ins, ack
			d.cic &^= reg.CICColorKey
			d.ins &^= reg.InsEnableColorKey
			return
		case bdisp.RuleDstOver:
			ack |= reg.AckSwapFgBg
			fallthrough
		case bdisp.RuleSrcOver:
			ack |= engineAlphaHalf<<reg.AckGlobalAlphaShift | reg.AckBlendSrc2Premult
			ins |= reg.InsSrc1ModeMemory | reg.InsSrc2ModeColorFill
		case bdisp.RuleNone:
			ack |= engineAlphaHalf<<reg.AckGlobalAlphaShift | reg.AckBlendSrc2NPremult
			ins |= reg.InsSrc1ModeMemory | reg.InsSrc2ModeColorFill
		case bdisp.RuleClear, bdisp.RuleSrc:
			if identical {
				ins |= reg.InsSrc1ModeDirectFill
				if rgb32 {
					d.cic &^= reg.CICCLUT
					ins &^= reg.InsEnableCLUT
				}
			} else {
				ack |= reg.AckBypassSource2
				ins |= reg.InsSrc1ModeDisabled | reg.InsSrc2ModeColorFill
			}
		}
	case flags&bdisp.DrawXOR != 0:
		ack |= reg.AckROP | reg.AckROPXor
		ins |= reg.InsSrc1ModeMemory | reg.InsSrc2ModeColorFill
	case flags&bdisp.DrawDstColorKey == 0:
		ack |= reg.AckBypassSource2
		if identical && ins&reg.InsEnableCLUT == 0 {
			ins |= reg.InsSrc1ModeDirectFill
		} else {
			ins |= reg.InsSrc1ModeDisabled | reg.InsSrc2ModeColorFill
		}
	default:
		// A keyed plain fill copies the colour where the key matches.
		ins |= reg.InsSrc2ModeColorFill
	}

	if flags&bdisp.DrawDstColorKey != 0 {
		d.cic |= reg.CICColorKey
		ins |= reg.InsEnableColorKey
		ack |= reg.AckCKeyRGBEnable
		if ins&reg.InsSrc1ModeMemory != 0 {
			ack |= reg.AckColorKeyingDestZerosAlpha
		} else {
			ack |= reg.AckROP | reg.AckROPCopy | reg.AckColorKeyingDest
		}
		ins = ins&^reg.InsSrc1ModeMask | reg.InsSrc1ModeMemory
	} else {
		d.cic &^= reg.CICColorKey
		ins &^= reg.InsEnableColorKey
	}
	d.ins, d.ack = ins, ack
}

func (c *Cache) validateSource(st *bdisp.State) {
	src := st.Source
	b := &c.blit
	b.factorH, b.factorV = src.Format.ChromaFactors()

	c.n[node.CIC] = c.n[node.CIC]&^(reg.CICSource2|reg.CICSource3) | reg.CICSource2
	ins := c.n[node.INS] &^ (reg.InsSrc2ModeMask | reg.InsSrc3ModeMask)
	ins |= reg.InsSrc2ModeMemory

	ty := c.ty(src) | reg.TyColorExpandMSB
	luma := uint32(src.Pitch * src.Height)
	chroma := uint32((src.Pitch / b.factorH) * (src.Height / b.factorV))
	chromaTY := ty&^reg.TyPitchMask | uint32(src.Pitch/b.factorH)&reg.TyPitchMask

	if src.Format.IsPlanar() {
		c.n[node.CIC] |= reg.CICSource3
		ins |= reg.InsSrc3ModeMemory
		c.n[node.S3BA] = src.Phys
		c.n[node.S3TY] = ty
		switch src.Format {
		case bdisp.FormatI420:
			c.n[node.S2BA] = src.Phys + luma
			c.n[node.S2TY] = chromaTY
		case bdisp.FormatYV12, bdisp.FormatYV16:
			c.n[node.S2BA] = src.Phys + luma + chroma
			c.n[node.S2TY] = chromaTY
		default:
			// Semi-planar and 4:4:4 chroma share the luma pitch.
			c.n[node.S2BA] = src.Phys + luma
			c.n[node.S2TY] = ty
		}
	} else {
		c.n[node.S3BA] = reg.S3BAUnused
		c.n[node.S3TY] = reg.S3TYUnused
		c.n[node.S2BA] = src.Phys
		c.n[node.S2TY] = ty
	}
	c.n[node.INS] = ins
	b.src2Mode = reg.InsSrc2ModeMemory
}

func (c *Cache) validateSrcColorKey(st *bdisp.State) {
	c.srcKey = st.Source.Format.ExpandColorKey(st.SrcColorKey)
	if st.BlittingFlags&bdisp.BlitSrcColorKey != 0 {
		c.setKey(c.srcKey)
	}
}

func (c *Cache) validateRenderOpts(st *bdisp.State) {
	const smooth = bdisp.RenderSmoothUpscale | bdisp.RenderSmoothDownscale
	rzc := c.n[node.RZC] &^ (reg.RZC2DHFModeMask | reg.RZC2DVFModeMask |
		reg.RZCY2DHFModeMask | reg.RZCY2DVFModeMask)
	three := c.n[node.CIC]&reg.CICSource3 != 0
	if st.RenderOptions&smooth == smooth || c.prof.SmoothScale {
		rzc |= reg.RZC2DHFModeFilterBoth | reg.RZC2DVFModeFilterBoth
		if three {
			rzc |= reg.RZCY2DHFModeFilterBoth | reg.RZCY2DVFModeFilterBoth
		}
	} else {
		rzc |= reg.RZC2DHFModeResizeOnly | reg.RZC2DVFModeResizeOnly
		if three {
			rzc |= reg.RZCY2DHFModeResizeOnly | reg.RZCY2DVFModeResizeOnly
		}
	}
	c.n[node.RZC] = rzc
}

func (c *Cache) validatePaletteBlit(st *bdisp.State) {
	b := &c.blit
	b.palette = nil
	if st.Source.Format.IsIndexed() {
		b.palette = st.Source.Palette
	}
	b.palType = color.LUTNormal
}

// validateBlittingFlags programs the ALU for the blitting flags and the
// blend rule, and splits the blit into passes where one is not enough.
func (c *Cache) validateBlittingFlags(st *bdisp.State) {
	flags := st.BlittingFlags
	b := &c.blit
	rule := c.rule

	b.indexTranslation = flags&bdisp.BlitIndexTranslation != 0
	cic, ins, ack := c.n[node.CIC], c.n[node.INS], c.n[node.ACK]
	cic &^= reg.CICColor | reg.CICFilters | reg.CICIVMX | reg.CICOVMX
	ins &^= reg.InsEnablePlaneMask | reg.InsEnableIVMX | reg.InsEnableOVMX
	ins = ins&^reg.InsSrc2ModeMask | b.src2Mode
	ack &= reg.AckCKeyMask | reg.AckColorKeyingMask
	c.n[node.CCO] &^= reg.CCONS2S1Mask

	b.src1Mode = reg.InsSrc1ModeDisabled
	b.special = specialNone
	b.passes = 1
	b.extra = [1]extraPass{{palType: color.LUTNormal}}
	b.srcPremultColor = flags&bdisp.BlitSrcPremultColor != 0
	b.optimised = false

	mskCIC, mskINS, mskACK := ^uint32(0), ^uint32(0), ^uint32(0)

	const modulating = bdisp.BlitBlendMask | bdisp.BlitDstPremultiply |
		bdisp.BlitSrcPremultiply | bdisp.BlitSrcPremultColor
	if flags&modulating != 0 {
		ack = ack&^reg.AckGlobalAlphaMask | engineAlphaHalf<<reg.AckGlobalAlphaShift
		needsBlend := false
		srcPremultiply := flags&bdisp.BlitSrcPremultiply != 0
		dstPremultiply := flags&bdisp.BlitDstPremultiply != 0

		if flags&bdisp.BlitBlendMask != 0 {
			b.optimised, needsBlend, srcPremultiply = c.blendOptimisation(flags, srcPremultiply)

			switch rule {
			case bdisp.RuleClear:
				b.special = specialShortcut
			case bdisp.RuleDst:
				if !dstPremultiply {
					b.special = specialNop
					break
				}
				ack |= reg.AckSwapFgBg
				ins = ins&^reg.InsSrc2ModeMask | reg.InsSrc2ModeColorFill
				b.src1Mode = reg.InsSrc1ModeMemory
				needsBlend = true
				b.palType = color.LUTNormal
			case bdisp.RuleSrc:
				if srcPremultiply || needsBlend {
					cic |= reg.CICColor
					b.src1Mode = reg.InsSrc1ModeColorFill
					needsBlend = true
				}
			case bdisp.RuleDstOver:
				ack |= reg.AckSwapFgBg
				b.src1Mode = reg.InsSrc1ModeMemory
				needsBlend = true
			case bdisp.RuleSrcOver, bdisp.RuleNone:
				b.src1Mode = reg.InsSrc1ModeMemory
				needsBlend = true
			case bdisp.RuleDstIn, bdisp.RuleDstOut:
				b.src1Mode = reg.InsSrc1ModeMemory
				if b.optimised {
					b.palType, b.extra[0].palType = maskTables(rule, b.palType)
				}
				needsBlend = true
				// The first pass computes the mask into the destination
				// alpha only, the second blends the colour through it.
				b.extra[0].ack = reg.AckBlendClipMaskBlend
				cic |= reg.CICFilters
				ins |= reg.InsEnablePlaneMask
				mskCIC = ^reg.CICFilters
				mskINS = ^reg.InsEnablePlaneMask
				mskACK = ^reg.AckModeMask
				b.passes = 2
			default:
				needsBlend = true
			}
		} else if flags&(bdisp.BlitSrcPremultiply|bdisp.BlitDstPremultiply) != 0 {
			if dstPremultiply {
				ack |= reg.AckSwapFgBg
			}
			cic |= reg.CICColor
			b.src1Mode = reg.InsSrc1ModeColorFill
			needsBlend = true
		}

		if b.special != specialNone {
			c.n[node.CIC], c.n[node.INS], c.n[node.ACK] = cic, ins, ack
			return
		}
		if needsBlend {
			if srcPremultiply || dstPremultiply || rule == bdisp.RuleNone {
				ack |= reg.AckBlendSrc2NPremult
			} else {
				ack |= reg.AckBlendSrc2Premult
			}
		}
	}

	if flags&bdisp.BlitXOR != 0 {
		ack = ack&^(reg.AckModeMask|reg.AckROPMask) | reg.AckROP | reg.AckROPXor
		b.src1Mode = reg.InsSrc1ModeMemory
	}
	if flags&bdisp.BlitSource2 != 0 {
		b.src1Mode = reg.InsSrc1ModeMemory
	}
	if ack&reg.AckModeMask == reg.AckBypassSource1 {
		ack |= reg.AckBypassSource2
	}

	c.n[node.CIC], c.n[node.INS], c.n[node.ACK] = cic, ins, ack
	b.mask = [3]uint32{mskCIC, mskINS, mskACK}
}

// blendOptimisation decides whether the colour alpha can be applied
// through the global alpha instead of a colour table. It returns the
// decision, whether the blend unit is needed regardless of the rule and
// the effective source premultiply flag.
func (c *Cache) blendOptimisation(flags bdisp.BlittingFlags, srcPremultiply bool) (optimised, needsBlend, premultiply bool) {
	b := &c.blit
	rule := c.rule
	premultiply = srcPremultiply
	optimised = true
	premult := flags & (bdisp.BlitSrcPremultColor | bdisp.BlitSrcPremultiply)

	switch flags & bdisp.BlitBlendMask {
	case bdisp.BlitBlendColorAlpha:
		switch rule {
		case bdisp.RuleDst:
			if flags&bdisp.BlitDstPremultiply != 0 {
				optimised = false
			}
		case bdisp.RuleClear:
		case bdisp.RuleSrc, bdisp.RuleSrcOver:
			switch {
			case premult == 0:
				optimised = false
			case premult == bdisp.BlitSrcPremultColor|bdisp.BlitSrcPremultiply && !b.canUseInputMatrix:
				optimised = false
			default:
				if !srcPremultiply {
					b.srcPremultColor = false
				}
				needsBlend = true
				premultiply = false
			}
		default:
			optimised = false
		}
	case bdisp.BlitBlendMask:
		switch rule {
		case bdisp.RuleDstOver, bdisp.RuleDstIn, bdisp.RuleDstOut:
			optimised = false
		default:
			switch {
			case rule != bdisp.RuleNone && premult == 0:
				optimised = false
			case b.srcPremultColor && !b.canUseInputMatrix && (srcPremultiply || rule == bdisp.RuleNone):
				optimised = false
			default:
				needsBlend = true
				if b.srcPremultColor && !srcPremultiply && rule != bdisp.RuleNone {
					b.srcPremultColor = false
				}
			}
		}
	}
	return optimised, needsBlend, premultiply
}

// maskTables returns the tables of the two passes of an optimised DST_IN
// or DST_OUT. An opaque source keeps its own table for the second pass.
func maskTables(rule bdisp.BlendRule, cur color.LUTType) (first, second color.LUTType) {
	opaque := cur == color.LUTOneAlphaRGB
	switch {
	case rule == bdisp.RuleDstIn && opaque:
		return color.LUTZeroAlphaZeroRGB, color.LUTOneAlphaRGB
	case rule == bdisp.RuleDstIn:
		return color.LUTInvAlphaZeroRGB, color.LUTNormal
	case opaque:
		return color.LUTOneAlphaZeroRGB, color.LUTZeroAlphaZeroRGB
	}
	return color.LUTAlphaZeroRGB, color.LUTInvAlphaZeroRGB
}

func (c *Cache) validateBlittingFlagsCKey(st *bdisp.State) {
	flags := st.BlittingFlags
	cic, ins, ack := c.n[node.CIC], c.n[node.INS], c.n[node.ACK]
	cic &^= reg.CICColorKey
	ins &^= reg.InsEnableColorKey
	ack &^= reg.AckCKeyMask | reg.AckColorKeyingMask

	switch {
	case flags&bdisp.BlitSrcColorKey != 0:
		cic |= reg.CICColorKey
		ins |= reg.InsEnableColorKey
		if st.Source.Format.IsIndexed() {
			ack |= reg.AckCKeyBlueEnable | reg.AckColorKeyingSrcBefore
		} else {
			ack |= reg.AckCKeyRGBEnable | reg.AckColorKeyingSrcAfter
		}
		c.setKey(c.srcKey)
	case flags&bdisp.BlitDstColorKey != 0:
		cic |= reg.CICColorKey
		ins |= reg.InsEnableColorKey
		ack |= reg.AckCKeyRGBEnable | reg.AckColorKeyingDest
		ack = ack&^(reg.AckModeMask|reg.AckROPMask) | reg.AckROP | reg.AckROPCopy
		ins = ins&^reg.InsSrc2ModeMask | reg.InsSrc2ModeMemory
		c.setKey(c.dstKey)
		if c.blit.src1Mode == reg.InsSrc1ModeDisabled {
			c.blit.src1Mode = reg.InsSrc1ModeMemory
		}
	}
	c.n[node.CIC], c.n[node.INS], c.n[node.ACK] = cic, ins, ack
}

// validateBlitColor builds the colour tables that apply the colour alpha
// when the global alpha cannot.
func (c *Cache) validateBlitColor(st *bdisp.State) {
	b := &c.blit
	flags := st.BlittingFlags
	b.luts = [2]*color.LUT{}
	if flags&bdisp.BlitBlendMask == 0 {
		return
	}
	alpha := color.EngineAlpha(st.Color.A)
	src := st.Source.Format

	t := color.LUTNormal
	var p *color.LUT
	switch flags & bdisp.BlitBlendMask {
	case bdisp.BlitBlendColorAlpha:
		if b.optimised {
			if src.HasAlpha() && !src.IsIndexed() {
				b.palType = color.LUTOneAlphaRGB
			}
			c.n[node.ACK] = c.n[node.ACK]&^reg.AckGlobalAlphaMask | alpha<<reg.AckGlobalAlphaShift
		} else {
			t, p = color.LUTColorAlpha, color.ColorAlpha(alpha)
		}
	case bdisp.BlitBlendMask:
		if b.optimised {
			c.n[node.ACK] = c.n[node.ACK]&^reg.AckGlobalAlphaMask | alpha<<reg.AckGlobalAlphaShift
		} else {
			t, p = color.LUTAlphaMulColorAlpha, color.AlphaMulColorAlpha(alpha)
		}
	}
	if p == nil {
		return
	}

	switch c.rule {
	case bdisp.RuleDstIn:
		b.palType, b.luts[0] = t.Inverse(), color.InverseAlpha(p)
		b.extra[0].palType, b.luts[1] = t, p
	case bdisp.RuleDstOut:
		b.palType, b.luts[0] = t, color.AlphaOnly(p)
		b.extra[0].palType, b.luts[1] = t.Inverse(), color.InverseAlpha(p)
	default:
		b.palType, b.luts[0] = t, p
	}
}

func (c *Cache) validateSrc1Mode(st *bdisp.State) {
	src := st.Source
	b := &c.blit
	c.n[node.CIC] |= reg.CICSource1
	ins := c.n[node.INS] &^ reg.InsSrc1ModeMask
	chroma := uint32((src.Pitch / b.factorH) * (src.Height / b.factorV))

	switch src.Format {
	case bdisp.FormatI420, bdisp.FormatYUV444P:
		ins |= reg.InsSrc1ModeMemory
		c.n[node.S1BA] = c.n[node.S2BA] + chroma
		c.n[node.S1TY] = c.n[node.S2TY]
	case bdisp.FormatYV12, bdisp.FormatYV16:
		ins |= reg.InsSrc1ModeMemory
		c.n[node.S1BA] = c.n[node.S2BA] - chroma
		c.n[node.S1TY] = c.n[node.S2TY]
	default:
		if st.BlittingFlags&bdisp.BlitSource2 == 0 && c.op&bdisp.AccelBlit2 == 0 {
			ins |= reg.InsSrc1ModeDisabled | b.src1Mode
			c.n[node.S1BA] = c.n[node.TBA]
			c.n[node.S1TY] = c.n[node.TTY] | reg.TyColorExpandMSB
		} else {
			s2 := st.Source2
			if s2 == nil {
				s2 = st.Destination
			}
			ins |= reg.InsSrc1ModeMemory
			c.n[node.S1BA] = s2.Phys
			c.n[node.S1TY] = c.ty(s2) | reg.TyColorExpandMSB
		}
	}
	c.n[node.INS] = ins
}

func (c *Cache) validateMatrixConversions(st *bdisp.State) {
	cic := c.n[node.CIC] &^ (reg.CICIVMX | reg.CICOVMX)
	ins := c.n[node.INS] &^ (reg.InsEnableIVMX | reg.InsEnableOVMX)
	srcForm := reg.FormOf(c.n[node.S2TY])
	srcYUV := srcForm.IsYCbCr()
	dstYUV := reg.FormOf(c.n[node.TTY]).IsYCbCr()
	colorize := st.BlittingFlags&bdisp.BlitColorize != 0

	var m color.Matrix
	switch {
	case srcForm.IsAlphaOnly() || colorize || c.blit.srcPremultColor:
		if !srcYUV && dstYUV {
			cic |= reg.CICOVMX
			ins |= reg.InsEnableOVMX
		}
		mod := color.Unity()
		if colorize {
			mod = color.Colorize(st.Color.ARGB(), srcYUV)
		}
		if c.blit.srcPremultColor {
			mod = mod.ScaleAlpha(uint32(st.Color.A))
		}
		m = mod.Matrix()
		if srcForm.IsAlphaOnly() {
			m = mod.AlphaOnlyMatrix()
		}
	case dstYUV && !srcYUV:
		m = color.RGBToYCbCr601
	case !dstYUV && srcYUV:
		m = color.YCbCr601ToRGB
	default:
		c.n[node.CIC], c.n[node.INS] = cic, ins
		return
	}
	cic |= reg.CICIVMX
	ins |= reg.InsEnableIVMX
	copy(c.n[node.IVMX0:node.IVMX3+1], m[:])
	c.n[node.CIC], c.n[node.INS] = cic, ins
}

func (c *Cache) validateRotation(st *bdisp.State) {
	b := &c.blit
	b.rotation = check.StateRotation(st)
	for _, w := range []int{node.TTY, node.S1TY, node.S2TY, node.S3TY} {
		if c.n[w] != reg.S3TYUnused {
			c.n[w] = node.SanitizeTY(c.n[w])
		}
	}
	ins := c.n[node.INS] &^ reg.InsEnableRotation
	switch b.rotation {
	case check.Rotate90:
		ins |= reg.InsEnableRotation
		c.n[node.S2TY] |= reg.TyCopyDirBottomTop | reg.TyCopyDirRightLeft
		c.n[node.TTY] |= reg.TyCopyDirBottomTop
		c.n[node.S1TY] |= reg.TyCopyDirBottomTop
	case check.Rotate270:
		ins |= reg.InsEnableRotation
		c.n[node.TTY] |= reg.TyCopyDirRightLeft
		c.n[node.S1TY] |= reg.TyCopyDirRightLeft
	}
	c.n[node.INS] = ins
}

func (c *Cache) validateClip(st *bdisp.State) {
	clamp := func(v int) uint32 {
		switch {
		case v < 0:
			return 0
		case v > 0xfff:
			return 0xfff
		}
		return uint32(v)
	}
	g := st.Clip
	c.n[node.CWO] = clamp(g.Y1)<<16 | clamp(g.X1)
	c.n[node.CWS] = clamp(g.Y2)<<16 | clamp(g.X2)
}
