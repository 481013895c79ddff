package bdisp

import "testing"

func TestSurfaceSize(t *testing.T) {
	tests := []struct {
		f    PixelFormat
		want int
	}{
		{FormatARGB, 64 * 16},
		{FormatI420, 64*16 + 2*32*8},
		{FormatNV12, 64*16 + 64*8},
		{FormatNV16, 64 * 16 * 2},
		{FormatYV16, 64*16 + 2*32*16},
		{FormatYUV444P, 64 * 16 * 3},
	}
	for _, tt := range tests {
		s := &Surface{Pitch: 64, Height: 16, Width: 16, Format: tt.f}
		if got := s.Size(); got != tt.want {
			t.Errorf("%v Size() = %d, want %d", tt.f, got, tt.want)
		}
	}
}

func TestSurfaceValidate(t *testing.T) {
	ok := &Surface{Phys: 0x1000, Pitch: 64, Format: FormatARGB, Width: 16, Height: 16}
	if err := ok.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
	for _, bad := range []*Surface{
		nil,
		{Pitch: 64, Width: 16, Height: 16},
		{Pitch: 0x10000, Format: FormatARGB, Width: 16, Height: 16},
		{Pitch: 64, Format: FormatARGB, Width: 0, Height: 16},
	} {
		if err := bad.Validate(); err == nil {
			t.Errorf("Validate(%v) = nil, want error", bad)
		}
	}
}

func TestPaletteHash(t *testing.T) {
	a := NewPalette(Opaque(1, 2, 3), Color{})
	b := NewPalette(Opaque(1, 2, 3), Color{})
	c := NewPalette(Opaque(1, 2, 4), Color{})
	if a.Hash() != b.Hash() {
		t.Error("equal palettes hash differently")
	}
	if a.Hash() == c.Hash() {
		t.Error("different palettes hash equal")
	}
	var nilPal *Palette
	if nilPal.Hash() != 0 {
		t.Error("nil palette hash != 0")
	}
}

func TestExpandColorKey(t *testing.T) {
	tests := []struct {
		f    PixelFormat
		key  uint32
		want uint32
	}{
		{FormatRGB16, 0xf800, 0xff0000},
		{FormatARGB1555, 0x801f, 0x0000ff},
		{FormatARGB4444, 0xf0f0, 0x00ff00},
		{FormatARGB, 0xff123456, 0x123456},
	}
	for _, tt := range tests {
		if got := tt.f.ExpandColorKey(tt.key); got != tt.want {
			t.Errorf("%v.ExpandColorKey(%#x) = %#06x, want %#06x", tt.f, tt.key, got, tt.want)
		}
	}
}
