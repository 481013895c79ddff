package bdisp

import (
	"fmt"

	"github.com/gogpu/gputypes"

	icolor "github.com/gogpu/bdisp/internal/color"
)

// PixelFormat is the portable pixel format enumeration used by the state
// and surface descriptions. Whether a format is usable on a given engine
// is decided by the hardware variant's format table, not by this type.
type PixelFormat uint8

const (
	FormatUnknown PixelFormat = iota
	FormatARGB1555
	FormatRGB16
	FormatRGB24
	FormatRGB32
	FormatARGB
	FormatA8
	FormatYUY2
	FormatUYVY
	FormatI420
	FormatYV12
	FormatLUT8
	FormatALUT44
	FormatA1
	FormatNV12
	FormatNV16
	FormatARGB4444
	FormatYUV444P
	FormatARGB8565
	FormatAVYU
	FormatVYU
	FormatYV16
	FormatLUT1
	FormatLUT2
	FormatLUT4
	FormatALUT8

	formatCount
)

type formatInfo struct {
	name    string
	bpp     int // bits per pixel of the first plane
	alpha   bool
	indexed bool
	ycbcr   bool
	planes  int
	factorH int // chroma subsampling, planar formats only
	factorV int
}

var formatInfos = [formatCount]formatInfo{
	FormatUnknown:  {name: "UNKNOWN"},
	FormatARGB1555: {name: "ARGB1555", bpp: 16, alpha: true, planes: 1},
	FormatRGB16:    {name: "RGB16", bpp: 16, planes: 1},
	FormatRGB24:    {name: "RGB24", bpp: 24, planes: 1},
	FormatRGB32:    {name: "RGB32", bpp: 32, planes: 1},
	FormatARGB:     {name: "ARGB", bpp: 32, alpha: true, planes: 1},
	FormatA8:       {name: "A8", bpp: 8, alpha: true, planes: 1},
	FormatYUY2:     {name: "YUY2", bpp: 16, ycbcr: true, planes: 1},
	FormatUYVY:     {name: "UYVY", bpp: 16, ycbcr: true, planes: 1},
	FormatI420:     {name: "I420", bpp: 8, ycbcr: true, planes: 3, factorH: 2, factorV: 2},
	FormatYV12:     {name: "YV12", bpp: 8, ycbcr: true, planes: 3, factorH: 2, factorV: 2},
	FormatLUT8:     {name: "LUT8", bpp: 8, indexed: true, alpha: true, planes: 1},
	FormatALUT44:   {name: "ALUT44", bpp: 8, indexed: true, alpha: true, planes: 1},
	FormatA1:       {name: "A1", bpp: 1, alpha: true, planes: 1},
	FormatNV12:     {name: "NV12", bpp: 8, ycbcr: true, planes: 2, factorH: 2, factorV: 2},
	FormatNV16:     {name: "NV16", bpp: 8, ycbcr: true, planes: 2, factorH: 2, factorV: 1},
	FormatARGB4444: {name: "ARGB4444", bpp: 16, alpha: true, planes: 1},
	FormatYUV444P:  {name: "YUV444P", bpp: 8, ycbcr: true, planes: 3, factorH: 1, factorV: 1},
	FormatARGB8565: {name: "ARGB8565", bpp: 24, alpha: true, planes: 1},
	FormatAVYU:     {name: "AVYU", bpp: 32, alpha: true, ycbcr: true, planes: 1},
	FormatVYU:      {name: "VYU", bpp: 24, ycbcr: true, planes: 1},
	FormatYV16:     {name: "YV16", bpp: 8, ycbcr: true, planes: 3, factorH: 2, factorV: 1},
	FormatLUT1:     {name: "LUT1", bpp: 1, indexed: true, planes: 1},
	FormatLUT2:     {name: "LUT2", bpp: 2, indexed: true, planes: 1},
	FormatLUT4:     {name: "LUT4", bpp: 4, indexed: true, planes: 1},
	FormatALUT8:    {name: "ALUT8", bpp: 16, indexed: true, alpha: true, planes: 1},
}

func (f PixelFormat) info() formatInfo {
	if f >= formatCount {
		return formatInfo{}
	}
	return formatInfos[f]
}

// String returns the format name.
func (f PixelFormat) String() string {
	if f >= formatCount {
		return fmt.Sprintf("PixelFormat(%d)", uint8(f))
	}
	return formatInfos[f].name
}

// Valid reports whether f is a known, non-zero format.
func (f PixelFormat) Valid() bool { return f > FormatUnknown && f < formatCount }

// BitsPerPixel returns the bits per pixel of the first plane.
func (f PixelFormat) BitsPerPixel() int { return f.info().bpp }

// BytesPerPixel returns the bytes per pixel of the first plane, rounded up.
func (f PixelFormat) BytesPerPixel() int { return (f.info().bpp + 7) / 8 }

// HasAlpha reports whether the format stores alpha.
func (f PixelFormat) HasAlpha() bool { return f.info().alpha }

// IsIndexed reports whether the format is palette based.
func (f PixelFormat) IsIndexed() bool { return f.info().indexed }

// IsYCbCr reports whether the format stores luma/chroma samples.
func (f PixelFormat) IsYCbCr() bool { return f.info().ycbcr }

// Planes returns the number of memory planes.
func (f PixelFormat) Planes() int { return f.info().planes }

// IsPlanar reports whether the format has more than one plane.
func (f PixelFormat) IsPlanar() bool { return f.info().planes > 1 }

// ChromaFactors returns the horizontal and vertical chroma subsampling of
// planar formats, and 1, 1 for everything else.
func (f PixelFormat) ChromaFactors() (h, v int) {
	fi := f.info()
	if fi.planes < 2 {
		return 1, 1
	}
	return fi.factorH, fi.factorV
}

// TextureFormat maps f to the equivalent WebGPU texture format, or
// TextureFormatUndefined if there is none.
//
// ARGB in native little-endian word order is B, G, R, A in memory.
func (f PixelFormat) TextureFormat() gputypes.TextureFormat {
	switch f {
	case FormatARGB, FormatRGB32:
		return gputypes.TextureFormatBGRA8Unorm
	case FormatA8, FormatLUT8:
		return gputypes.TextureFormatR8Unorm
	}
	return gputypes.TextureFormatUndefined
}

// PixelFormatFromTexture maps a WebGPU texture format to a pixel format.
// RGBA8Unorm has no native equivalent on the engine and maps to
// FormatUnknown.
func PixelFormatFromTexture(tf gputypes.TextureFormat) PixelFormat {
	switch tf {
	case gputypes.TextureFormatBGRA8Unorm:
		return FormatARGB
	case gputypes.TextureFormatR8Unorm:
		return FormatA8
	}
	return FormatUnknown
}

// ExpandColorKey converts a colour key given in format f to 0x00RRGGBB.
// The alpha of the key is dropped; the key registers keep their own alpha
// byte. Formats narrower than 8 bits per channel replicate their most
// significant bits into the missing low bits.
func (f PixelFormat) ExpandColorKey(key uint32) uint32 {
	switch f {
	case FormatRGB16, FormatARGB8565:
		return icolor.ExpandRGB16(key & 0xffff)
	case FormatARGB1555:
		return icolor.ExpandARGB1555(key&0xffff) & 0xffffff
	case FormatARGB4444:
		return icolor.ExpandARGB4444(key&0xffff) & 0xffffff
	}
	return key & 0xffffff
}
