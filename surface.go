package bdisp

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Surface describes a buffer in engine visible memory. The engine only
// needs the physical base, pitch and format; the size is used for clamping
// and memory bank checks.
type Surface struct {
	Phys      uint32 // physical base address of the first plane
	Pitch     int    // bytes per line of the first plane
	Format    PixelFormat
	Width     int
	Height    int
	Partition int // memory partition the buffer was allocated from
	Palette   *Palette
}

// Size returns the byte size of all planes.
func (s *Surface) Size() int {
	size := s.Pitch * s.Height
	switch s.Format {
	case FormatI420, FormatYV12:
		size += 2 * (s.Pitch / 2) * (s.Height / 2)
	case FormatYV16:
		size += 2 * (s.Pitch / 2) * s.Height
	case FormatNV12:
		size += s.Pitch * (s.Height / 2)
	case FormatNV16:
		size += s.Pitch * s.Height
	case FormatYUV444P:
		size += 2 * s.Pitch * s.Height
	}
	return size
}

// Validate checks that s is usable as an operation endpoint.
func (s *Surface) Validate() error {
	switch {
	case s == nil:
		return fmt.Errorf("bdisp: nil surface")
	case !s.Format.Valid():
		return fmt.Errorf("bdisp: surface format %v", s.Format)
	case s.Pitch <= 0 || s.Pitch > 0xffff:
		return fmt.Errorf("bdisp: surface pitch %d out of range", s.Pitch)
	case s.Width <= 0 || s.Height <= 0:
		return fmt.Errorf("bdisp: surface size %dx%d", s.Width, s.Height)
	}
	return nil
}

func (s *Surface) String() string {
	if s == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%v %dx%d @%#08x/%d", s.Format, s.Width, s.Height, s.Phys, s.Pitch)
}

// Palette is the colour table of an indexed surface.
type Palette struct {
	Entries []Color
}

// NewPalette returns a palette holding a copy of entries.
func NewPalette(entries ...Color) *Palette {
	return &Palette{Entries: append([]Color(nil), entries...)}
}

// Hash returns a content hash of the palette. Palettes with equal entries
// hash equal.
func (p *Palette) Hash() uint64 {
	if p == nil {
		return 0
	}
	d := xxhash.New()
	var b [4]byte
	for _, c := range p.Entries {
		binary.LittleEndian.PutUint32(b[:], c.ARGB())
		_, _ = d.Write(b[:])
	}
	return d.Sum64()
}
