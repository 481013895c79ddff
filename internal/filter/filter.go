package filter

import (
	"sync"
)

// Table geometry.
const (
	Phases = 8

	HorizontalTaps = 8
	VerticalTaps   = 5

	// HorizontalTableSize and VerticalTableSize are the byte sizes of one
	// coefficient table in engine memory.
	HorizontalTableSize = HorizontalTaps * Phases
	VerticalTableSize   = VerticalTaps * Phases
)

// Range is a half open interval (Min, Max] of 16.16 source increments.
type Range struct {
	Min, Max int32
}

// Ranges lists the scale ranges a table is generated for, in ascending
// order. Increments below 1.0 upscale; the last range covers everything up
// to the engine's maximum downscale of 64.
var Ranges = []Range{
	{Min: 0, Max: 0x10000},
	{Min: 0x10000, Max: 0x13333},
	{Min: 0x13333, Max: 0x18000},
	{Min: 0x18000, Max: 0x20000},
	{Min: 0x20000, Max: 0x30000},
	{Min: 0x30000, Max: 0x40000},
	{Min: 0x40000, Max: 0x3fffc0},
}

// Choose returns the index of the table for the 16.16 source increment
// scale. It returns -1 for a non-positive scale and the last table when
// scale lies beyond every range.
func Choose(scale int32) int {
	if scale <= 0 {
		return -1
	}
	for i, r := range Ranges {
		if scale > r.Min && scale <= r.Max {
			return i
		}
	}
	return len(Ranges) - 1
}

type tables struct {
	horizontal []byte
	vertical   []byte
}

var (
	once   sync.Once
	cached tables
)

func build() {
	for _, r := range Ranges {
		cutoff := 1.0
		if r.Max > 0x10000 {
			cutoff = float64(0x10000) / float64(r.Max)
		}
		for _, c := range polyphase(HorizontalTaps, Phases, cutoff) {
			cached.horizontal = append(cached.horizontal, byte(c))
		}
		for _, c := range polyphase(VerticalTaps, Phases, cutoff) {
			cached.vertical = append(cached.vertical, byte(c))
		}
	}
}

// Horizontal returns all 8x8 tables back to back, in Ranges order, as they
// are laid out in engine memory. The returned slice must not be modified.
func Horizontal() []byte {
	once.Do(build)
	return cached.horizontal
}

// Vertical returns all 5x8 tables back to back.
func Vertical() []byte {
	once.Do(build)
	return cached.vertical
}

// HorizontalOffset returns the byte offset of the 8x8 table for scale.
func HorizontalOffset(scale int32) uint32 {
	return uint32(max(Choose(scale), 0) * HorizontalTableSize)
}

// VerticalOffset returns the byte offset of the 5x8 table for scale.
func VerticalOffset(scale int32) uint32 {
	return uint32(max(Choose(scale), 0) * VerticalTableSize)
}
