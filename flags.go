package bdisp

import "github.com/gogpu/gputypes"

// DrawingFlags modify fill and outline operations.
type DrawingFlags uint32

const (
	DrawNoFX           DrawingFlags = 0
	DrawBlend          DrawingFlags = 1 << 0
	DrawDstColorKey    DrawingFlags = 1 << 1
	DrawSrcPremultiply DrawingFlags = 1 << 2
	DrawDstPremultiply DrawingFlags = 1 << 3
	DrawDemultiply     DrawingFlags = 1 << 4
	DrawXOR            DrawingFlags = 1 << 5
)

// BlittingFlags modify blit, blit2 and stretch blit operations.
type BlittingFlags uint32

const (
	BlitNoFX              BlittingFlags = 0
	BlitBlendAlphaChannel BlittingFlags = 1 << 0
	BlitBlendColorAlpha   BlittingFlags = 1 << 1
	BlitColorize          BlittingFlags = 1 << 2
	BlitSrcColorKey       BlittingFlags = 1 << 3
	BlitDstColorKey       BlittingFlags = 1 << 4
	BlitSrcPremultiply    BlittingFlags = 1 << 5
	BlitDstPremultiply    BlittingFlags = 1 << 6
	BlitDemultiply        BlittingFlags = 1 << 7
	BlitSrcPremultColor   BlittingFlags = 1 << 9
	BlitXOR               BlittingFlags = 1 << 10
	BlitIndexTranslation  BlittingFlags = 1 << 11
	BlitRotate180         BlittingFlags = 1 << 12
	BlitRotate90          BlittingFlags = 1 << 13
	BlitRotate270         BlittingFlags = 1 << 14
	BlitSource2           BlittingFlags = 1 << 22
	BlitFlipHorizontal    BlittingFlags = 1 << 24
	BlitFlipVertical      BlittingFlags = 1 << 25

	// BlitRotationMask selects the flags that describe a rotation or mirror.
	BlitRotationMask = BlitRotate90 | BlitRotate180 | BlitRotate270 |
		BlitFlipHorizontal | BlitFlipVertical

	// BlitBlendMask selects the flags that turn on the blend unit.
	BlitBlendMask = BlitBlendAlphaChannel | BlitBlendColorAlpha
)

// BlendFunc is a Porter-Duff blend factor.
type BlendFunc uint8

const (
	BlendUnknown BlendFunc = iota
	BlendZero
	BlendOne
	BlendSrcColor
	BlendInvSrcColor
	BlendSrcAlpha
	BlendInvSrcAlpha
	BlendDestAlpha
	BlendInvDestAlpha
	BlendDestColor
	BlendInvDestColor
	BlendSrcAlphaSat
)

var blendNames = [...]string{
	BlendUnknown:      "UNKNOWN",
	BlendZero:         "ZERO",
	BlendOne:          "ONE",
	BlendSrcColor:     "SRCCOLOR",
	BlendInvSrcColor:  "INVSRCCOLOR",
	BlendSrcAlpha:     "SRCALPHA",
	BlendInvSrcAlpha:  "INVSRCALPHA",
	BlendDestAlpha:    "DESTALPHA",
	BlendInvDestAlpha: "INVDESTALPHA",
	BlendDestColor:    "DESTCOLOR",
	BlendInvDestColor: "INVDESTCOLOR",
	BlendSrcAlphaSat:  "SRCALPHASAT",
}

func (b BlendFunc) String() string {
	if int(b) < len(blendNames) {
		return blendNames[b]
	}
	return "INVALID"
}

// BlendFuncFromFactor converts a WebGPU blend factor. Only the factors
// that occur in the engine's supported blend pairs are mapped.
func BlendFuncFromFactor(f gputypes.BlendFactor) (BlendFunc, bool) {
	switch f {
	case gputypes.BlendFactorZero:
		return BlendZero, true
	case gputypes.BlendFactorOne:
		return BlendOne, true
	case gputypes.BlendFactorSrcAlpha:
		return BlendSrcAlpha, true
	case gputypes.BlendFactorOneMinusSrcAlpha:
		return BlendInvSrcAlpha, true
	}
	return BlendUnknown, false
}

// RenderOptions control filtering and the use of the state matrix.
type RenderOptions uint32

const (
	RenderNone            RenderOptions = 0
	RenderAntialias       RenderOptions = 1 << 0
	RenderSmoothUpscale   RenderOptions = 1 << 1
	RenderSmoothDownscale RenderOptions = 1 << 2
	RenderMatrix          RenderOptions = 1 << 3
)

// Modified is the state change notification mask passed to SetState.
type Modified uint32

const (
	ModDrawingFlags  Modified = 1 << 0
	ModBlittingFlags Modified = 1 << 1
	ModClip          Modified = 1 << 2
	ModColor         Modified = 1 << 3
	ModSrcBlend      Modified = 1 << 4
	ModDstBlend      Modified = 1 << 5
	ModSrcColorKey   Modified = 1 << 6
	ModDstColorKey   Modified = 1 << 7
	ModDestination   Modified = 1 << 8
	ModSource        Modified = 1 << 9
	ModSource2       Modified = 1 << 10
	ModRenderOptions Modified = 1 << 11
	ModMatrix        Modified = 1 << 12

	ModAll Modified = 1<<13 - 1
)
