// Package format holds the per-variant pixel format tables: the native
// colour form each portable format is programmed as, and whether the
// engine can read or write it.
package format

import (
	"fmt"

	"github.com/gogpu/bdisp"
	"github.com/gogpu/bdisp/internal/reg"
)

// Entry describes one pixel format on one engine variant.
type Entry struct {
	Format bdisp.PixelFormat
	Form   reg.ColorForm

	// TY holds the form, alpha range and byte order bits of a TY word.
	TY uint32

	Src bool // usable as a blit source
	Dst bool // usable as a destination
}

// Name returns the display name.
func (e Entry) Name() string { return e.Format.String() }

// Table is the immutable format table of one variant.
type Table struct {
	variant bdisp.Variant
	entries map[bdisp.PixelFormat]Entry
}

type row struct {
	f        bdisp.PixelFormat
	form     reg.ColorForm
	flags    uint32
	src, dst bool
}

// Formats every variant supports.
var common = []row{
	{bdisp.FormatARGB1555, reg.FormARGB1555, 0, true, true},
	{bdisp.FormatRGB16, reg.FormRGB565, 0, true, true},
	{bdisp.FormatRGB24, reg.FormRGB888, 0, true, true},
	{bdisp.FormatRGB32, reg.FormARGB8888, 0, true, true},
	{bdisp.FormatARGB, reg.FormARGB8888, reg.TyFullAlphaRange, true, true},
	{bdisp.FormatA8, reg.FormA8, reg.TyFullAlphaRange, true, true},
	{bdisp.FormatA1, reg.FormA1, 0, true, false},
	{bdisp.FormatYUY2, reg.FormYCbCr422R, reg.TyBigEndian, true, true},
	{bdisp.FormatUYVY, reg.FormYCbCr422R, 0, true, true},
	{bdisp.FormatLUT1, reg.FormCLUT1, 0, true, false},
	{bdisp.FormatLUT2, reg.FormCLUT2, 0, true, true},
	{bdisp.FormatLUT4, reg.FormCLUT4, 0, true, false},
	{bdisp.FormatLUT8, reg.FormCLUT8, 0, true, true},
	{bdisp.FormatALUT44, reg.FormACLUT44, 0, true, true},
	{bdisp.FormatALUT8, reg.FormACLUT88, 0, true, false},
	{bdisp.FormatARGB4444, reg.FormARGB4444, 0, true, true},
	{bdisp.FormatARGB8565, reg.FormARGB8565, reg.TyFullAlphaRange, true, true},
	{bdisp.FormatI420, reg.FormYCbCr42XR3B, 0, true, false},
	{bdisp.FormatYV12, reg.FormYCbCr42XR3B, 0, true, false},
	{bdisp.FormatNV12, reg.FormYCbCr42XR2B, 0, true, false},
}

// Formats added by the second generation.
var bdisp2 = []row{
	{bdisp.FormatNV16, reg.FormYCbCr42XR2B, 0, true, false},
	{bdisp.FormatYV16, reg.FormYCbCr42XR3B, 0, true, false},
	{bdisp.FormatYUV444P, reg.FormYCbCr42XR3B, 0, true, false},
	{bdisp.FormatAVYU, reg.FormAYCbCr8888, reg.TyFullAlphaRange, true, true},
	{bdisp.FormatVYU, reg.FormYCbCr888, 0, true, true},
}

func build(v bdisp.Variant, rows ...[]row) *Table {
	t := &Table{variant: v, entries: make(map[bdisp.PixelFormat]Entry)}
	for _, rs := range rows {
		for _, r := range rs {
			t.entries[r.f] = Entry{
				Format: r.f,
				Form:   r.form,
				TY:     r.form.TY() | r.flags,
				Src:    r.src,
				Dst:    r.dst,
			}
		}
	}
	return t
}

var (
	tableBDisp  = build(bdisp.VariantBDisp, common)
	tableBDisp2 = build(bdisp.VariantBDisp2, common, bdisp2)
)

// For returns the table of variant v.
func For(v bdisp.Variant) (*Table, error) {
	switch v {
	case bdisp.VariantBDisp:
		return tableBDisp, nil
	case bdisp.VariantBDisp2:
		return tableBDisp2, nil
	}
	return nil, fmt.Errorf("format: unknown variant %d", v)
}

// Variant returns the variant the table belongs to.
func (t *Table) Variant() bdisp.Variant { return t.variant }

// Lookup returns the entry of f. It fails for the unknown format and for
// formats the variant does not know.
func (t *Table) Lookup(f bdisp.PixelFormat) (Entry, bool) {
	if f == bdisp.FormatUnknown {
		return Entry{}, false
	}
	e, ok := t.entries[f]
	return e, ok
}

// Supported reports whether f can be read (asSource) or written.
func (t *Table) Supported(f bdisp.PixelFormat, asSource bool) bool {
	e, ok := t.Lookup(f)
	if !ok {
		return false
	}
	if asSource {
		return e.Src
	}
	return e.Dst
}

// TY returns the TY form bits of f, or 0 if f is unknown.
func (t *Table) TY(f bdisp.PixelFormat) uint32 {
	e, _ := t.Lookup(f)
	return e.TY
}

// Formats lists the formats supported as source or destination, in
// enumeration order.
func (t *Table) Formats(asSource bool) []bdisp.PixelFormat {
	var out []bdisp.PixelFormat
	for f := bdisp.FormatUnknown + 1; f.Valid(); f++ {
		if t.Supported(f, asSource) {
			out = append(out, f)
		}
	}
	return out
}
