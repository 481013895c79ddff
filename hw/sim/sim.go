// Package sim is a software blit engine. It implements hw.Device over a
// byte arena, executes the nodes it is given and raises the same
// interrupts, with the same effect on the shared block, as the kernel
// interrupt handler.
//
// The engine does not run on its own: in Immediate mode nodes execute
// while the LNA register is written, in Deferred mode they execute when the
// driver waits.
package sim

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/bdisp/hw"
	"github.com/gogpu/bdisp/internal/node"
	"github.com/gogpu/bdisp/internal/reg"
)

// Mode selects when queued nodes execute.
type Mode uint8

const (
	// Immediate runs every queued node when LNA is written.
	Immediate Mode = iota

	// Deferred runs queued nodes only inside WaitIdle, WaitNext and Run.
	Deferred
)

// Config sizes a simulated engine.
type Config struct {
	Mode Mode

	// Base is the physical address of the arena.
	Base uint32

	// NodesSize is the size of the node area at the start of the arena.
	NodesSize int

	// TablesSize is reserved after the node area for the driver's tables.
	TablesSize int

	// MemSize is the surface memory following the tables.
	MemSize int

	// Device is reported in the shared block.
	Device uint32

	// Legacy leaves the shared block filled with 0xab, like an old kernel.
	Legacy bool
}

// DefaultConfig is a small engine suitable for tests.
func DefaultConfig() Config {
	return Config{
		Base:       0x4000_0000,
		NodesSize:  64 * node.Size,
		TablesSize: 16 << 10,
		MemSize:    1 << 20,
		Device:     1,
	}
}

// ErrStalled is returned by a wait that can never finish because nothing
// is queued.
var ErrStalled = errors.New("sim: engine stalled")

// Engine is a simulated blit engine.
type Engine struct {
	mu   sync.Mutex
	cfg  Config
	mem  []byte
	next uint32 // bump allocator, offset into mem

	shared hw.Shared
	regs   map[hw.Reg]uint32

	pos     uint32 // offset of the next node to execute
	pending bool   // nodes up to LNA are queued
	closed  bool

	interrupts int
	executed   []node.Node
	ignored    int
}

// New returns an engine with an initialised shared block.
func New(cfg Config) *Engine {
	size := cfg.NodesSize + cfg.TablesSize + cfg.MemSize
	e := &Engine{
		cfg:  cfg,
		mem:  make([]byte, size),
		next: uint32(cfg.NodesSize + cfg.TablesSize),
		regs: make(map[hw.Reg]uint32),
	}
	s := &e.shared
	if cfg.Legacy {
		s.Version.Store(hw.SharedVersionUninitialized)
		s.Lock.Store(hw.SharedVersionUninitialized)
		s.LockedBy.Store(hw.SharedVersionUninitialized)
	} else {
		s.Version.Store(hw.SharedVersion)
	}
	s.Device.Store(cfg.Device)
	s.NodesPhys.Store(cfg.Base)
	s.NodesSize.Store(uint32(cfg.NodesSize))
	return e
}

// Alloc reserves n bytes of surface memory aligned to align and returns
// the physical address.
func (e *Engine) Alloc(n, align int) (uint32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if align <= 0 {
		align = 1
	}
	off := (int(e.next) + align - 1) / align * align
	if off+n > len(e.mem) {
		return 0, fmt.Errorf("sim: out of memory allocating %d bytes", n)
	}
	e.next = uint32(off + n)
	return e.cfg.Base + uint32(off), nil
}

// Interrupt makes the next n waits fail with hw.ErrInterrupted.
func (e *Engine) Interrupt(n int) {
	e.mu.Lock()
	e.interrupts = n
	e.mu.Unlock()
}

// Executed returns the nodes executed so far, in order.
func (e *Engine) Executed() []node.Node {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]node.Node(nil), e.executed...)
}

// Ignored returns how many executed nodes used features the simulation
// does not render.
func (e *Engine) Ignored() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ignored
}

// Run executes every queued node.
func (e *Engine) Run() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for e.pending {
		e.step()
	}
}

func (e *Engine) Shared() *hw.Shared { return &e.shared }

func (e *Engine) Nodes() []byte { return e.mem[:e.cfg.NodesSize] }

func (e *Engine) Tables() (uint32, int) {
	return e.cfg.Base + uint32(e.cfg.NodesSize), e.cfg.TablesSize
}

func (e *Engine) Bytes(phys uint32, n int) ([]byte, error) {
	if phys < e.cfg.Base || n < 0 || uint64(phys-e.cfg.Base)+uint64(n) > uint64(len(e.mem)) {
		return nil, fmt.Errorf("%w: %#x+%d", hw.ErrBadAddress, phys, n)
	}
	off := phys - e.cfg.Base
	return e.mem[off : off+uint32(n)], nil
}

func (e *Engine) ReadReg(r hw.Reg) uint32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.regs[r]
}

func (e *Engine) WriteReg(r hw.Reg, v uint32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.regs[r] = v
	switch r {
	case hw.RegAQIP:
		e.pos = v - e.cfg.Base
	case hw.RegAQLNA:
		e.pending = true
		if e.cfg.Mode == Immediate {
			for e.pending {
				e.step()
			}
		}
	}
}

func (e *Engine) WaitIdle() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.wait(); err != nil {
		return err
	}
	e.shared.NumWaitIdle.Add(1)
	for e.shared.Running.Load() != 0 {
		if !e.pending {
			return ErrStalled
		}
		e.step()
	}
	return nil
}

func (e *Engine) WaitNext() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.wait(); err != nil {
		return err
	}
	s := &e.shared
	if s.LastFree.Load() != s.NextFree.Load() {
		return nil
	}
	s.NumWaitNext.Add(1)
	for s.LastFree.Load() == s.NextFree.Load() {
		if !e.pending {
			return ErrStalled
		}
		e.step()
	}
	return nil
}

func (e *Engine) wait() error {
	if e.closed {
		return hw.ErrClosed
	}
	if e.interrupts > 0 {
		e.interrupts--
		return fmt.Errorf("%w: simulated signal", hw.ErrInterrupted)
	}
	return nil
}

func (e *Engine) Close() error {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	return nil
}

// step executes the node at pos and raises its interrupts.
func (e *Engine) step() {
	off := e.pos
	if int(off) >= e.cfg.NodesSize {
		e.ignored++
		e.pending = false
		return
	}
	n, err := node.Decode(e.mem[off:e.cfg.NodesSize])
	if err != nil {
		// A corrupt node stops the queue like a bus error would.
		e.ignored++
		e.pending = false
		return
	}
	e.executed = append(e.executed, *n)
	if !e.render(n) {
		e.ignored++
	}
	if n.Has(reg.CICStatic) {
		e.regs[hw.RegUSR] = n[node.USR]
	}

	var its uint32
	if n[node.INS]&reg.InsEnableBlitCompIRQ != 0 {
		its |= hw.ITSNodeCompleted
	}
	lna := e.regs[hw.RegAQLNA] - e.cfg.Base
	if off == lna {
		its |= hw.ITSLNAReached
		e.pending = false
	}
	e.pos = n[node.NIP] - e.cfg.Base
	if its != 0 {
		e.regs[hw.RegAQSTA] = e.cfg.Base + off
		e.interrupt(its)
	}
}

// interrupt mirrors the kernel's handler.
func (e *Engine) interrupt(its uint32) {
	s := &e.shared
	s.NumIRQs.Add(1)
	s.LastFree.Store(e.regs[hw.RegAQSTA] - s.NodesPhys.Load())
	if its&hw.ITSNodeCompleted != 0 {
		s.NumNodeIRQs.Add(1)
		if lut := s.LastLUT.Load(); lut != 0 && lut == s.LastFree.Load() {
			s.LastLUT.Store(0)
		}
	}
	if its&hw.ITSLNAReached != 0 {
		// The driver may be between setting Running and writing LNA.
		if s.UpdatingLNA.Load() == 0 || s.PrevSetLNA.Load() == e.regs[hw.RegAQLNA] {
			s.Running.Store(0)
		}
		s.NumLNAIRQs.Add(1)
		s.NumIdle.Add(1)
		s.LastLUT.Store(0)
	}
}
