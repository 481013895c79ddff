package driver

import (
	"encoding/binary"
	"fmt"

	"github.com/gogpu/bdisp/hw"
	"github.com/gogpu/bdisp/internal/color"
	"github.com/gogpu/bdisp/internal/filter"
	"github.com/gogpu/bdisp/internal/state"
)

// tableAlign is the alignment of every table in engine memory.
const tableAlign = 64

// tables is the layout of the table area: the filter coefficients, the
// fixed colour tables in type order and then the dynamic palette slots.
type tables struct {
	filter8x8 uint32
	filter5x8 uint32
	clut      uint32
	palettes  uint32
	slots     int
}

func alignUp(v uint32) uint32 { return (v + tableAlign - 1) &^ (tableAlign - 1) }

// layoutTables places the tables in the area dev reserves for them.
func layoutTables(dev hw.Device) (tables, error) {
	base, size := dev.Tables()
	end := uint64(base) + uint64(size)

	var t tables
	t.filter8x8 = alignUp(base)
	t.filter5x8 = alignUp(t.filter8x8 + uint32(len(filter.Horizontal())))
	t.clut = alignUp(t.filter5x8 + uint32(len(filter.Vertical())))
	fixed := uint32(color.LUTOneAlphaZeroRGB-color.LUTOneAlphaRGB+1) * state.LUTBytes
	t.palettes = t.clut + fixed
	if uint64(t.palettes) > end {
		return tables{}, fmt.Errorf("bdisp: table area of %d bytes too small, need %d", size, t.palettes-base)
	}
	t.slots = int((end - uint64(t.palettes)) / state.LUTBytes)
	return t, nil
}

// write stores the filter coefficients and the fixed colour tables.
func (t tables) write(mem state.Memory) error {
	for _, w := range []struct {
		phys uint32
		data []byte
	}{
		{t.filter8x8, filter.Horizontal()},
		{t.filter5x8, filter.Vertical()},
	} {
		dst, err := mem.Bytes(w.phys, len(w.data))
		if err != nil {
			return fmt.Errorf("bdisp: filter table: %w", err)
		}
		copy(dst, w.data)
	}
	for lt := color.LUTOneAlphaRGB; lt <= color.LUTOneAlphaZeroRGB; lt++ {
		dst, err := mem.Bytes(t.clut+state.FixedOffset(lt), state.LUTBytes)
		if err != nil {
			return fmt.Errorf("bdisp: %v table: %w", lt, err)
		}
		for i, v := range color.Fixed(lt) {
			binary.LittleEndian.PutUint32(dst[i*4:], v)
		}
	}
	return nil
}
