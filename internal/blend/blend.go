// Package blend implements the Porter-Duff compositing operators the blit
// engine's ALU can express, on 8 bit premultiplied pixels. It is the CPU
// side used when an operation falls back to software.
//
// References:
//   - Porter-Duff: "Compositing Digital Images" (1984)
package blend

// BlendMode represents a compositing operation.
type BlendMode uint8

const (
	BlendClear           BlendMode = iota // Result: 0
	BlendSource                           // Result: S
	BlendDestination                      // Result: D
	BlendSourceOver                       // Result: S + D*(1-Sa)
	BlendDestinationOver                  // Result: S*(1-Da) + D
	BlendDestinationIn                    // Result: D*Sa
	BlendDestinationOut                   // Result: D*(1-Sa)
	BlendSourceAlphaOver                  // Result: S*Sa + D*(1-Sa), S not premultiplied
	BlendXor                              // Result: S ^ D (raster op, not Porter-Duff XOR)
)

// BlendFunc is the signature for blend operations.
// Parameters:
//   - sr, sg, sb, sa: source color (red, green, blue, alpha)
//   - dr, dg, db, da: destination color (red, green, blue, alpha)
//
// Returns: resulting color (r, g, b, a) after blending.
type BlendFunc func(sr, sg, sb, sa, dr, dg, db, da byte) (r, g, b, a byte)

// GetBlendFunc returns the blend function for the given mode.
// Returns blendSourceOver for unknown modes.
func GetBlendFunc(mode BlendMode) BlendFunc {
	switch mode {
	case BlendClear:
		return blendClear
	case BlendSource:
		return blendSource
	case BlendDestination:
		return blendDestination
	case BlendSourceOver:
		return blendSourceOver
	case BlendDestinationOver:
		return blendDestinationOver
	case BlendDestinationIn:
		return blendDestinationIn
	case BlendDestinationOut:
		return blendDestinationOut
	case BlendSourceAlphaOver:
		return blendSourceAlphaOver
	case BlendXor:
		return blendXor
	default:
		return blendSourceOver
	}
}

func blendClear(sr, sg, sb, sa, dr, dg, db, da byte) (byte, byte, byte, byte) {
	return 0, 0, 0, 0
}

func blendSource(sr, sg, sb, sa, dr, dg, db, da byte) (byte, byte, byte, byte) {
	return sr, sg, sb, sa
}

func blendDestination(sr, sg, sb, sa, dr, dg, db, da byte) (byte, byte, byte, byte) {
	return dr, dg, db, da
}

// Formula: S + D * (1 - Sa)
func blendSourceOver(sr, sg, sb, sa, dr, dg, db, da byte) (byte, byte, byte, byte) {
	invSa := 255 - sa
	return addClamp(sr, mulDiv255(dr, invSa)),
		addClamp(sg, mulDiv255(dg, invSa)),
		addClamp(sb, mulDiv255(db, invSa)),
		addClamp(sa, mulDiv255(da, invSa))
}

// Formula: S * (1 - Da) + D
func blendDestinationOver(sr, sg, sb, sa, dr, dg, db, da byte) (byte, byte, byte, byte) {
	invDa := 255 - da
	return addClamp(mulDiv255(sr, invDa), dr),
		addClamp(mulDiv255(sg, invDa), dg),
		addClamp(mulDiv255(sb, invDa), db),
		addClamp(mulDiv255(sa, invDa), da)
}

// Formula: D * Sa
func blendDestinationIn(sr, sg, sb, sa, dr, dg, db, da byte) (byte, byte, byte, byte) {
	return mulDiv255(dr, sa), mulDiv255(dg, sa), mulDiv255(db, sa), mulDiv255(da, sa)
}

// Formula: D * (1 - Sa)
func blendDestinationOut(sr, sg, sb, sa, dr, dg, db, da byte) (byte, byte, byte, byte) {
	invSa := 255 - sa
	return mulDiv255(dr, invSa), mulDiv255(dg, invSa), mulDiv255(db, invSa), mulDiv255(da, invSa)
}

// blendSourceAlphaOver is the straight-alpha blend. Alpha is computed the
// way the engine does it, Sa + Da*(1-Sa), which is only exact for opaque
// destinations.
func blendSourceAlphaOver(sr, sg, sb, sa, dr, dg, db, da byte) (byte, byte, byte, byte) {
	invSa := 255 - sa
	return addClamp(mulDiv255(sr, sa), mulDiv255(dr, invSa)),
		addClamp(mulDiv255(sg, sa), mulDiv255(dg, invSa)),
		addClamp(mulDiv255(sb, sa), mulDiv255(db, invSa)),
		addClamp(sa, mulDiv255(da, invSa))
}

func blendXor(sr, sg, sb, sa, dr, dg, db, da byte) (byte, byte, byte, byte) {
	return sr ^ dr, sg ^ dg, sb ^ db, sa ^ da
}

// Row blends a row of 32 bit pixels stored as B, G, R, A bytes (ARGB in
// little-endian word order) from src onto dst. Both slices are processed up
// to the shorter length.
func Row(fn BlendFunc, dst, src []byte) {
	n := min(len(dst), len(src)) &^ 3
	for i := 0; i < n; i += 4 {
		r, g, b, a := fn(src[i+2], src[i+1], src[i], src[i+3],
			dst[i+2], dst[i+1], dst[i], dst[i+3])
		dst[i], dst[i+1], dst[i+2], dst[i+3] = b, g, r, a
	}
}

// FillRow blends the constant colour (r, g, b, a) onto a row of 32 bit
// pixels.
func FillRow(fn BlendFunc, dst []byte, r, g, b, a byte) {
	n := len(dst) &^ 3
	for i := 0; i < n; i += 4 {
		or, og, ob, oa := fn(r, g, b, a, dst[i+2], dst[i+1], dst[i], dst[i+3])
		dst[i], dst[i+1], dst[i+2], dst[i+3] = ob, og, or, oa
	}
}
