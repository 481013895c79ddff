// Package reg defines the BDisp node register bitfields.
//
// Every node starts with the general group (NIP, CIC, INS, ACK). CIC is the
// group presence mask, INS selects the source modes and enables the optional
// pipeline stages, ACK configures the ALU and colour keying. The *TY words
// share one layout for target and sources: pitch, colour form, copy direction
// and expansion control.
package reg

// CIC group presence bits. Bit n marks group n as present in a node. The
// general and target groups (0 and 1) are always present.
const (
	CICColor        uint32 = 1 << 2
	CICSource1      uint32 = 1 << 3
	CICSource2      uint32 = 1 << 4
	CICSource3      uint32 = 1 << 5
	CICClip         uint32 = 1 << 6
	CICCLUT         uint32 = 1 << 7
	CICFilters      uint32 = 1 << 8
	CICFiltersChr   uint32 = 1 << 9
	CICFiltersLuma  uint32 = 1 << 10
	CICFlicker      uint32 = 1 << 11
	CICColorKey     uint32 = 1 << 12
	CICXYL          uint32 = 1 << 13
	CICStatic       uint32 = 1 << 14
	CICIVMX         uint32 = 1 << 15
	CICOVMX         uint32 = 1 << 16
	CICPaceDot      uint32 = 1 << 17
	CICVC1R         uint32 = 1 << 18
	CICGradient     uint32 = 1 << 19
	CICAllOptional  uint32 = 0x000ffffc
	CICAlwaysInNode uint32 = 0x3
)

// INS: source modes.
const (
	InsSrc1ModeMask       uint32 = 0x7
	InsSrc1ModeDisabled   uint32 = 0x0
	InsSrc1ModeMemory     uint32 = 0x1
	InsSrc1ModeColorFill  uint32 = 0x3
	InsSrc1ModeDirectCopy uint32 = 0x4
	InsSrc1ModeDirectFill uint32 = 0x7

	InsSrc2ModeMask      uint32 = 0x18
	InsSrc2ModeDisabled  uint32 = 0x00
	InsSrc2ModeMemory    uint32 = 0x08
	InsSrc2ModeColorFill uint32 = 0x18

	InsSrc3ModeMask     uint32 = 0x20
	InsSrc3ModeDisabled uint32 = 0x00
	InsSrc3ModeMemory   uint32 = 0x20
)

// INS: pipeline stage enables.
const (
	InsEnableIVMX          uint32 = 1 << 6
	InsEnableCLUT          uint32 = 1 << 7
	InsEnable2DRescale     uint32 = 1 << 8
	InsEnableFlickerFilter uint32 = 1 << 9
	InsEnableRectClip      uint32 = 1 << 10
	InsEnableColorKey      uint32 = 1 << 11
	InsEnableOVMX          uint32 = 1 << 12
	InsEnableDEI           uint32 = 1 << 13
	InsEnablePlaneMask     uint32 = 1 << 14
	InsEnableVC1R          uint32 = 1 << 15
	InsEnableRotation      uint32 = 1 << 16
	InsEnableGradient      uint32 = 1 << 17
	InsEnableBlitCompIRQ   uint32 = 1 << 31
)

// ACK: ALU mode.
const (
	AckModeMask                  uint32 = 0xf
	AckBypassSource1             uint32 = 0x0
	AckROP                       uint32 = 0x1
	AckBlendSrc2NPremult         uint32 = 0x2
	AckBlendSrc2Premult          uint32 = 0x3
	AckBlendClipMaskLogicFirst   uint32 = 0x4
	AckBlendClipMaskBlend        uint32 = 0x5
	AckBypassSource2             uint32 = 0x7
	AckSwapFgBg                  uint32 = 1 << 4
	AckGlobalAlphaShift                 = 8
	AckGlobalAlphaMask           uint32 = 0xff << AckGlobalAlphaShift
	AckROPMask                   uint32 = 0xf << 8
	AckROPClear                  uint32 = 0x0 << 8
	AckROPCopy                   uint32 = 0x3 << 8
	AckROPXor                    uint32 = 0x6 << 8
	AckROPSet                    uint32 = 0xf << 8
	AckCKeyMask                  uint32 = 0x3f << 16
	AckCKeyBlueEnable            uint32 = 0x01 << 16
	AckCKeyGreenEnable           uint32 = 0x04 << 16
	AckCKeyRedEnable             uint32 = 0x10 << 16
	AckCKeyRGBEnable             uint32 = AckCKeyBlueEnable | AckCKeyGreenEnable | AckCKeyRedEnable
	AckColorKeyingMask           uint32 = 0x3 << 22
	AckColorKeyingDest           uint32 = 0x0 << 22
	AckColorKeyingSrcBefore      uint32 = 0x1 << 22
	AckColorKeyingSrcAfter       uint32 = 0x2 << 22
	AckColorKeyingDestZerosAlpha uint32 = 0x3 << 22
)

// TY words (TTY, S1TY, S2TY, S3TY).
const (
	TyPitchMask        uint32 = 0xffff
	TyColorFormShift          = 16
	TyColorFormMask    uint32 = 0x1f << TyColorFormShift
	TyFullAlphaRange   uint32 = 1 << 21
	TyCopyDirMask      uint32 = 0x3 << 24
	TyCopyDirLeftRight uint32 = 0
	TyCopyDirTopBottom uint32 = 0
	TyCopyDirRightLeft uint32 = 1 << 24
	TyCopyDirBottomTop uint32 = 1 << 25
	TyBigEndian        uint32 = 1 << 29
	TyColorExpandMask  uint32 = 0x3 << 30
	TyColorExpandMSB   uint32 = 0x1 << 30
)

// CCO: CLUT operation.
const (
	CCOModeMask  uint32 = 0x3
	CCOExpand    uint32 = 0x1
	CCOCorrect   uint32 = 0x2
	CCOUpdateEn  uint32 = 1 << 2
	CCONS2S1Mask uint32 = 1 << 3
	CCONS2S1OnS1 uint32 = 1 << 3
)

// FCTL_RZC: filter control.
const (
	RZC2DHFModeMask        uint32 = 0x3 << 4
	RZC2DHFModeResizeOnly  uint32 = 0x1 << 4
	RZC2DHFModeFilterBoth  uint32 = 0x2 << 4
	RZC2DVFModeMask        uint32 = 0x3 << 6
	RZC2DVFModeResizeOnly  uint32 = 0x1 << 6
	RZC2DVFModeFilterBoth  uint32 = 0x2 << 6
	RZCFFModeMask          uint32 = 0x3 << 8
	RZCFFModeFilter0       uint32 = 0x0 << 8
	RZCFFModeAdaptive      uint32 = 0x1 << 8
	RZCBoundaryBypass      uint32 = 1 << 12
	RZCY2DHFModeMask       uint32 = 0x3 << 28
	RZCY2DHFModeResizeOnly uint32 = 0x1 << 28
	RZCY2DHFModeFilterBoth uint32 = 0x2 << 28
	RZCY2DVFModeMask       uint32 = 0x3 << 30
	RZCY2DVFModeResizeOnly uint32 = 0x1 << 30
	RZCY2DVFModeFilterBoth uint32 = 0x2 << 30
)

// RZI: resize initial phase and repeat.
const (
	RZIHInitShift          = 0
	RZIHInitMask    uint32 = 0x3ff << RZIHInitShift
	RZIHRepeatShift        = 12
	RZIHRepeatMask  uint32 = 0x7 << RZIHRepeatShift
	RZIVInitShift          = 16
	RZIVInitMask    uint32 = 0x3ff << RZIVInitShift
	RZIVRepeatShift        = 28
	RZIVRepeatMask  uint32 = 0x7 << RZIVRepeatShift
)

// Plane mask value keeping RGB and forcing alpha.
const PlaneMaskRGB uint32 = 0x00ffffff

// Sentinel values written into an unused source 3 group.
const (
	S3BAUnused uint32 = 0xdeadba5e
	S3TYUnused uint32 = 0xf0011eef
)
