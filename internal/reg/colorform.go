package reg

// ColorForm is the native pixel layout code programmed into a TY word.
type ColorForm uint32

const (
	FormRGB565       ColorForm = 0x00
	FormRGB888       ColorForm = 0x01
	FormXRGB8888     ColorForm = 0x02
	FormARGB8565     ColorForm = 0x04
	FormARGB8888     ColorForm = 0x05
	FormARGB1555     ColorForm = 0x06
	FormARGB4444     ColorForm = 0x07
	FormCLUT1        ColorForm = 0x08
	FormCLUT2        ColorForm = 0x09
	FormCLUT4        ColorForm = 0x0a
	FormCLUT8        ColorForm = 0x0b
	FormACLUT44      ColorForm = 0x0c
	FormACLUT88      ColorForm = 0x0d
	FormYCbCr888     ColorForm = 0x10
	FormYCbCr422R    ColorForm = 0x12
	FormYCbCr42XMB   ColorForm = 0x14
	FormAYCbCr8888   ColorForm = 0x15
	FormYCbCr42XR2B  ColorForm = 0x16
	FormA1           ColorForm = 0x18
	FormA8           ColorForm = 0x19
	FormRLDBD        ColorForm = 0x1a
	FormYCbCr42XR3B  ColorForm = 0x1e
	FormByte         ColorForm = 0x1f
)

// TY returns the form shifted into its TY word position.
func (f ColorForm) TY() uint32 { return uint32(f) << TyColorFormShift }

// FormOf extracts the colour form from a TY word.
func FormOf(ty uint32) ColorForm {
	return ColorForm((ty & TyColorFormMask) >> TyColorFormShift)
}

// IsYCbCr reports whether the form carries luma/chroma samples.
func (f ColorForm) IsYCbCr() bool {
	switch f {
	case FormYCbCr888, FormYCbCr422R, FormYCbCr42XMB, FormAYCbCr8888,
		FormYCbCr42XR2B, FormYCbCr42XR3B:
		return true
	}
	return false
}

// IsCLUT reports whether the form is palette indexed.
func (f ColorForm) IsCLUT() bool {
	return f >= FormCLUT1 && f <= FormACLUT88
}

// IsAlphaOnly reports whether the form is A1 or A8.
func (f ColorForm) IsAlphaOnly() bool { return f == FormA1 || f == FormA8 }

// HasAlpha reports whether the form has an alpha channel.
func (f ColorForm) HasAlpha() bool {
	switch f {
	case FormARGB8565, FormARGB8888, FormARGB1555, FormARGB4444,
		FormACLUT44, FormACLUT88, FormAYCbCr8888, FormA1, FormA8:
		return true
	}
	return false
}

// FormsIdentical compares the layout relevant bits of two TY words.
func FormsIdentical(ty1, ty2 uint32) bool {
	const mask = TyColorFormMask | TyFullAlphaRange | TyBigEndian
	return ty1&mask == ty2&mask
}
