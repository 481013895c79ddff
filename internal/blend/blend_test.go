package blend

import "testing"

// TestMulDiv255 tests the multiply and divide by 255 helper function.
func TestMulDiv255(t *testing.T) {
	tests := []struct {
		name string
		a, b byte
		want byte
	}{
		{"zero * zero", 0, 0, 0},
		{"zero * max", 0, 255, 0},
		{"max * max", 255, 255, 255},
		{"half * half", 128, 128, 64},
		{"255 * 128", 255, 128, 128},
		{"1 * 1", 1, 1, 0},
		{"100 * 100", 100, 100, 39},
		{"200 * 200", 200, 200, 157},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mulDiv255(tt.a, tt.b)
			if got != tt.want {
				t.Errorf("mulDiv255(%d, %d) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestAddClamp(t *testing.T) {
	tests := []struct {
		a, b, want byte
	}{
		{0, 0, 0},
		{100, 100, 200},
		{200, 100, 255},
		{255, 255, 255},
	}
	for _, tt := range tests {
		if got := addClamp(tt.a, tt.b); got != tt.want {
			t.Errorf("addClamp(%d, %d) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestBlendModes(t *testing.T) {
	type px struct{ r, g, b, a byte }
	red := px{255, 0, 0, 255}
	blue := px{0, 0, 255, 255}
	halfRed := px{128, 0, 0, 128} // premultiplied 50% red
	clear := px{}

	tests := []struct {
		name     string
		mode     BlendMode
		src, dst px
		want     px
	}{
		{"clear", BlendClear, red, blue, clear},
		{"source", BlendSource, halfRed, blue, halfRed},
		{"destination", BlendDestination, red, blue, blue},
		{"source over opaque", BlendSourceOver, red, blue, red},
		{"source over half", BlendSourceOver, halfRed, blue, px{128, 0, 127, 255}},
		{"source over transparent src", BlendSourceOver, clear, blue, blue},
		{"destination over opaque dst", BlendDestinationOver, red, blue, blue},
		{"destination over transparent dst", BlendDestinationOver, red, clear, red},
		{"destination in opaque src", BlendDestinationIn, red, blue, blue},
		{"destination in transparent src", BlendDestinationIn, clear, blue, clear},
		{"destination out opaque src", BlendDestinationOut, red, blue, clear},
		{"destination out transparent src", BlendDestinationOut, clear, blue, blue},
		{"straight alpha opaque", BlendSourceAlphaOver, red, blue, red},
		{"xor", BlendXor, px{0xff, 0x0f, 0, 0xff}, px{0x0f, 0x0f, 0xff, 0xff}, px{0xf0, 0, 0xff, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn := GetBlendFunc(tt.mode)
			r, g, b, a := fn(tt.src.r, tt.src.g, tt.src.b, tt.src.a,
				tt.dst.r, tt.dst.g, tt.dst.b, tt.dst.a)
			got := px{r, g, b, a}
			if got != tt.want {
				t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestGetBlendFuncUnknown(t *testing.T) {
	fn := GetBlendFunc(BlendMode(200))
	r, g, b, a := fn(255, 0, 0, 255, 0, 0, 255, 255)
	if r != 255 || g != 0 || b != 0 || a != 255 {
		t.Errorf("unknown mode should fall back to source over, got (%d, %d, %d, %d)", r, g, b, a)
	}
}

func TestRow(t *testing.T) {
	// B, G, R, A
	dst := []byte{0xff, 0, 0, 0xff, 0xff, 0, 0, 0xff}
	src := []byte{0, 0, 0xff, 0xff, 0, 0, 0, 0}
	Row(GetBlendFunc(BlendSourceOver), dst, src)

	want := []byte{0, 0, 0xff, 0xff, 0xff, 0, 0, 0xff}
	for i := range want {
		if dst[i] != want[i] {
			t.Fatalf("Row() dst = %v, want %v", dst, want)
		}
	}
}

func TestFillRow(t *testing.T) {
	dst := make([]byte, 12)
	FillRow(GetBlendFunc(BlendSource), dst, 1, 2, 3, 4)
	for i := 0; i < len(dst); i += 4 {
		if dst[i] != 3 || dst[i+1] != 2 || dst[i+2] != 1 || dst[i+3] != 4 {
			t.Fatalf("FillRow() pixel %d = %v", i/4, dst[i:i+4])
		}
	}
}

func TestPremultiply(t *testing.T) {
	r, g, b, a := Premultiply(255, 128, 0, 128)
	if r != 128 || g != 64 || b != 0 || a != 128 {
		t.Errorf("Premultiply() = (%d, %d, %d, %d), want (128, 64, 0, 128)", r, g, b, a)
	}

	r, g, b, a = Demultiply(128, 64, 0, 128)
	if r != 255 || g != 128 || b != 0 || a != 128 {
		t.Errorf("Demultiply() = (%d, %d, %d, %d), want (255, 128, 0, 128)", r, g, b, a)
	}

	r, g, b, a = Demultiply(10, 10, 10, 0)
	if r != 0 || g != 0 || b != 0 || a != 0 {
		t.Errorf("Demultiply(alpha 0) = (%d, %d, %d, %d), want zero", r, g, b, a)
	}
}

func TestScaleAlpha(t *testing.T) {
	r, g, b, a := ScaleAlpha(255, 255, 255, 255, 128)
	if r != 128 || g != 128 || b != 128 || a != 128 {
		t.Errorf("ScaleAlpha() = (%d, %d, %d, %d), want all 128", r, g, b, a)
	}
}
