package state

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/gogpu/bdisp"
	"github.com/gogpu/bdisp/internal/color"
)

// LUTBytes is the size of one colour table in engine memory.
const LUTBytes = color.LUTSize * 4

// minSlots is the number of dynamic slots a single prepared operation may
// reference at once: two blend tables and the source palette.
const minSlots = 3

// ErrNoPalettes is returned when an operation needs a dynamic table and
// the cache has no palette pool.
var ErrNoPalettes = errors.New("state: no dynamic palette slots")

// Memory gives write access to engine memory by physical address.
type Memory interface {
	Bytes(phys uint32, n int) ([]byte, error)
}

// PaletteConfig configures a Palettes pool.
type PaletteConfig struct {
	Memory Memory

	// Phys is the address of the first dynamic slot, Slots their number.
	Phys  uint32
	Slots int

	// WaitLUT blocks until no queued node reads a dynamic table. It is
	// called before a slot in use is overwritten.
	WaitLUT func() error

	Logger *slog.Logger
}

// Palettes keeps dynamic colour tables resident in a small set of slots,
// reusing the least recently used one when all are taken. Tables are
// keyed by content so that repeated colours and palettes upload once.
type Palettes struct {
	mem  Memory
	wait func() error
	log  *slog.Logger

	free     []uint32
	resident *lru.Cache[uint64, uint32]

	uploads   int
	evictions int
}

// NewPalettes creates a pool over cfg.Slots consecutive slots.
func NewPalettes(cfg PaletteConfig) (*Palettes, error) {
	if cfg.Memory == nil {
		return nil, errors.New("state: palette pool without memory")
	}
	if cfg.Slots < minSlots {
		return nil, fmt.Errorf("state: %d palette slots, need %d", cfg.Slots, minSlots)
	}
	resident, err := lru.New[uint64, uint32](cfg.Slots)
	if err != nil {
		return nil, fmt.Errorf("state: %w", err)
	}
	p := &Palettes{
		mem:      cfg.Memory,
		wait:     cfg.WaitLUT,
		log:      cfg.Logger,
		resident: resident,
	}
	if p.log == nil {
		p.log = bdisp.NopLogger()
	}
	for i := cfg.Slots - 1; i >= 0; i-- {
		p.free = append(p.free, cfg.Phys+uint32(i)*LUTBytes)
	}
	return p, nil
}

// Load makes l resident and returns its address.
func (p *Palettes) Load(l *color.LUT) (uint32, error) {
	var buf [LUTBytes]byte
	for i, v := range l {
		binary.LittleEndian.PutUint32(buf[i*4:], v)
	}
	key := xxhash.Sum64(buf[:])
	if phys, ok := p.resident.Get(key); ok {
		return phys, nil
	}

	var phys uint32
	if n := len(p.free); n > 0 {
		phys = p.free[n-1]
		p.free = p.free[:n-1]
	} else {
		_, old, _ := p.resident.RemoveOldest()
		phys = old
		p.evictions++
		if p.wait != nil {
			if err := p.wait(); err != nil {
				p.free = append(p.free, phys)
				return 0, fmt.Errorf("state: reuse palette slot: %w", err)
			}
		}
	}

	dst, err := p.mem.Bytes(phys, LUTBytes)
	if err != nil {
		p.free = append(p.free, phys)
		return 0, fmt.Errorf("state: palette slot %#08x: %w", phys, err)
	}
	copy(dst, buf[:])
	p.resident.Add(key, phys)
	p.uploads++
	p.log.Debug("state: palette upload",
		slog.String("slot", fmt.Sprintf("%#08x", phys)),
		slog.Int("resident", p.resident.Len()))
	return phys, nil
}

// SetLogger replaces the logger.
func (p *Palettes) SetLogger(l *slog.Logger) { p.log = l }

// Uploads returns the number of tables written to memory.
func (p *Palettes) Uploads() int { return p.uploads }

// Evictions returns the number of resident tables replaced.
func (p *Palettes) Evictions() int { return p.evictions }

// userLUT converts a surface palette to the expansion table. Alpha is
// scaled to the engine range.
func userLUT(pal *bdisp.Palette) *color.LUT {
	var l color.LUT
	for i, c := range pal.Entries {
		if i == color.LUTSize {
			break
		}
		l[i] = color.ARGB(color.EngineAlpha(c.A), uint32(c.R), uint32(c.G), uint32(c.B))
	}
	return &l
}
