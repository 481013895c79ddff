// Package ring manages the circular node list the engine consumes.
//
// The ring is an array of node-sized slots, each linked to the next once at
// start up. The driver fills slots at NextFree and publishes them by
// writing the address of the last filled slot into LNA; the interrupt
// domain reports progress through LastFree. A slot is free to fill as long
// as NextFree has not caught up with LastFree.
package ring

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gogpu/bdisp"
	"github.com/gogpu/bdisp/hw"
	"github.com/gogpu/bdisp/internal/node"
	"github.com/gogpu/bdisp/internal/reg"
)

// ErrTooSmall is returned when the node area cannot hold two nodes.
var ErrTooSmall = errors.New("ring: node area too small")

// serialPolls bounds the USR polling in WaitSerial before it falls back
// to a full sync.
const serialPolls = 64

// Config tunes a Ring.
type Config struct {
	Logger *slog.Logger

	// IRQDelay is the number of operations between node completed
	// interrupts. Zero selects a quarter of the ring.
	IRQDelay int

	// Queue is the application queue index, 0 to 3.
	Queue int
}

// Ring is the producer side of the node list. It is not safe for
// concurrent use; the lock in the shared block only orders it against
// other sessions and the interrupt domain.
type Ring struct {
	dev    hw.Device
	shared *hw.Shared
	nodes  []byte
	phys   uint32
	usable uint32
	delay  uint32
	log    *slog.Logger

	held bool
}

// ErrNotInitialised is returned by Attach when no ring has been set up on
// the engine.
var ErrNotInitialised = errors.New("ring: engine not initialised")

func newRing(dev hw.Device, cfg Config) (*Ring, error) {
	log := cfg.Logger
	if log == nil {
		log = bdisp.NopLogger()
	}
	s := dev.Shared()
	usable := s.NodesSize.Load() / node.Size * node.Size
	if usable < 2*node.Size || int(usable) > len(dev.Nodes()) {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooSmall, s.NodesSize.Load())
	}
	r := &Ring{
		dev:    dev,
		shared: s,
		nodes:  dev.Nodes()[:usable],
		phys:   s.NodesPhys.Load(),
		usable: usable,
		log:    log,
	}
	r.delay = usable / node.Size / 4
	if cfg.IRQDelay > 0 {
		r.delay = uint32(cfg.IRQDelay)
	}
	r.delay = max(r.delay, 1)
	return r, nil
}

// Initialised reports whether a ring has been set up on dev: the shared
// block is in the current layout and the engine's queue points into the
// node area.
func Initialised(dev hw.Device) bool {
	s := dev.Shared()
	if s.Version.Load() == hw.SharedVersionUninitialized {
		return false
	}
	phys := s.NodesPhys.Load()
	ip := dev.ReadReg(hw.RegAQIP)
	return ip >= phys && ip-phys < s.NodesSize.Load()
}

// Attach joins the ring another session set up with New. The shared
// block, the slots and the registers are left as they are, so nodes that
// session queued stay queued.
func Attach(dev hw.Device, cfg Config) (*Ring, error) {
	if !Initialised(dev) {
		return nil, ErrNotInitialised
	}
	r, err := newRing(dev, cfg)
	if err != nil {
		return nil, err
	}
	r.log.Info("ring: attached",
		slog.String("phys", fmt.Sprintf("%#08x", r.phys)),
		slog.Uint64("next_free", uint64(r.shared.NextFree.Load())),
		slog.Uint64("irq_delay", uint64(r.delay)))
	return r, nil
}

// New takes over the ring of dev: it upgrades an old shared block, links
// the slots into a circle and points the engine at the first one. No node
// runs until the first Emit. Whatever another session queued is dropped;
// later sessions use Attach.
func New(dev hw.Device, cfg Config) (*Ring, error) {
	s := dev.Shared()
	shimmed := s.ApplyShim()
	r, err := newRing(dev, cfg)
	if err != nil {
		return nil, err
	}
	log, usable := r.log, r.usable
	if shimmed {
		log.Info("ring: upgraded shared block of an old kernel")
	}

	if s.Running.Load() != 0 {
		log.Warn("ring: engine marked running at start up")
	}
	s.Reset()

	clear(r.nodes)
	for off := uint32(0); off < usable; off += node.Size {
		nip := r.phys + off + node.Size
		if off+node.Size == usable {
			nip = r.phys
		}
		n := node.Node{node.NIP: nip, node.CIC: node.Common, node.INS: reg.InsSrc1ModeDisabled}
		b := r.nodes[off : off+node.Size]
		if _, err := node.Encode(&n, b); err != nil {
			return nil, err
		}
		putWord(b, nip)
	}

	s.NextFree.Store(0)
	s.LastFree.Store(usable - node.Size)
	// As if the ring had been emitted up to NextFree: nothing is pending.
	s.PrevSetLNA.Store(r.phys + usable - node.Size)

	queue := uint32(cfg.Queue) & hw.AQCTLPriorityMask
	dev.WriteReg(hw.RegAQCTL, (3-queue)|hw.AQCTLQueueEnable|hw.AQCTLEventSuspend|
		hw.AQCTLIRQNodeCompleted|hw.AQCTLIRQLNAReached)
	dev.WriteReg(hw.RegAQIP, r.phys)

	log.Info("ring: initialised",
		slog.String("phys", fmt.Sprintf("%#08x", r.phys)),
		slog.Uint64("slots", uint64(usable/node.Size)),
		slog.Uint64("irq_delay", uint64(r.delay)))
	return r, nil
}

func putWord(b []byte, v uint32) {
	b[0], b[1], b[2], b[3] = byte(v), byte(v>>8), byte(v>>16), byte(v>>24)
}

// SetLogger replaces the logger.
func (r *Ring) SetLogger(l *slog.Logger) { r.log = l }

// Usable returns the size of the ring in bytes, a multiple of node.Size.
func (r *Ring) Usable() uint32 { return r.usable }

// Slots returns the number of slots.
func (r *Ring) Slots() int { return int(r.usable / node.Size) }

// IRQDelay returns the number of operations between node interrupts.
func (r *Ring) IRQDelay() uint32 { return r.delay }

// Phys returns the physical address of slot 0.
func (r *Ring) Phys() uint32 { return r.phys }

func (r *Ring) lock() {
	for spins := 0; ; spins++ {
		ok, stale := r.shared.TryLock(hw.OwnerUser)
		if ok {
			if stale != hw.OwnerNone {
				r.log.Warn("ring: locked an already locked lock", slog.Uint64("locked_by", uint64(stale)))
			}
			return
		}
		if spins == 1000 {
			r.log.Warn("ring: lock contended", slog.Uint64("locked_by", uint64(r.shared.LockedBy.Load())))
		}
		time.Sleep(time.Microsecond)
	}
}

func (r *Ring) unlock() {
	if was := r.shared.Unlock(hw.OwnerUser); was != hw.OwnerUser {
		r.log.Warn("ring: lock owner mismatch on unlock", slog.Uint64("locked_by", uint64(was)))
	}
}

// Slot is an acquired ring slot.
type Slot struct {
	Off uint32 // byte offset into the ring
	Buf []byte // node.Size bytes; the first word is the link and must stay
}

// Acquire returns the slot at NextFree, waiting for the engine to free one
// if the ring is full. The shared lock is held until Finish.
func (r *Ring) Acquire() (Slot, error) {
	if r.held {
		return Slot{}, errors.New("ring: Acquire without Finish")
	}
	r.lock()
	s := r.shared
	if s.NextFree.Load() == s.LastFree.Load() {
		start := time.Now()
		for {
			r.emitLocked()
			if err := r.WaitSpace(); err != nil {
				return Slot{}, err
			}
			r.lock()
			if s.NextFree.Load() != s.LastFree.Load() {
				break
			}
		}
		r.log.Debug("ring: waited for space", slog.Duration("took", time.Since(start)))
	}
	r.held = true
	off := s.NextFree.Load()
	return Slot{Off: off, Buf: r.nodes[off : off+node.Size]}, nil
}

// Finish marks the acquired slot as filled and releases the lock. The
// node is not visible to the engine until the next Emit.
func (r *Ring) Finish(slot Slot) {
	if !r.held {
		panic("ring: Finish without Acquire")
	}
	next := slot.Off + node.Size
	if next == r.usable {
		next = 0
	}
	r.shared.NextFree.Store(next)
	r.release()
}

// release gives up the acquired slot without publishing it.
func (r *Ring) release() {
	r.held = false
	r.unlock()
}

// Push writes n into the next slot. It stamps the operation serial into
// the static group, requests a node interrupt every IRQDelay operations
// and records the slot when n reloads the dynamic palette.
func (r *Ring) Push(n *node.Node) error {
	slot, err := r.Acquire()
	if err != nil {
		return err
	}
	s := r.shared
	lastLUT := s.LastLUT.Load()
	ops := s.AddOp()
	n[node.CIC] |= reg.CICStatic
	n[node.USR] = ops
	if ops%r.delay == 0 {
		n[node.INS] |= reg.InsEnableBlitCompIRQ
	} else {
		n[node.INS] &^= reg.InsEnableBlitCompIRQ
	}
	if n.Has(reg.CICCLUT) && n[node.INS]&reg.InsEnableCLUT != 0 && n[node.CCO]&reg.CCOUpdateEn != 0 {
		// Offset 0 would read as "none": only going idle clears that one.
		lut := slot.Off
		if lut == 0 {
			lut = r.usable
		}
		s.LastLUT.Store(lut)
	}
	if _, err := node.Encode(n, slot.Buf); err != nil {
		s.LastLUT.Store(lastLUT)
		s.DropOp()
		r.release()
		return err
	}
	r.Finish(slot)
	return nil
}

// Emit publishes every finished node to the engine. It does nothing if no
// node was finished since the previous Emit, so that Running is never set
// for a kick that raises no interrupt.
func (r *Ring) Emit() {
	r.lock()
	r.emitLocked()
}

// emitLocked kicks the engine and releases the lock.
func (r *Ring) emitLocked() {
	s := r.shared
	next := s.NextFree.Load()
	if next == 0 {
		next = r.usable
	}
	lna := next - node.Size + r.phys
	if lna != s.PrevSetLNA.Load() {
		s.NumStarts.Add(1)
		// The interrupt handler leaves Running alone while UpdatingLNA is
		// set and LNA does not yet hold PrevSetLNA.
		s.UpdatingLNA.Store(1)
		s.PrevSetLNA.Store(lna)
		s.Running.Store(1)
		r.dev.WriteReg(hw.RegAQLNA, lna)
		s.UpdatingLNA.Store(0)
		r.log.Debug("ring: kick", slog.String("lna", fmt.Sprintf("%#08x", lna)))
	}
	r.unlock()
}

// Sync blocks until the engine is idle.
func (r *Ring) Sync() error {
	for r.shared.Running.Load() != 0 {
		err := r.dev.WaitIdle()
		if err == nil {
			break
		}
		if errors.Is(err, hw.ErrInterrupted) {
			continue
		}
		r.logFailure("sync", err)
		return fmt.Errorf("bdisp: sync: %w", err)
	}
	return nil
}

// WaitSpace blocks until the engine has consumed at least one node. It
// returns at once when the engine is idle.
func (r *Ring) WaitSpace() error {
	if r.shared.Running.Load() == 0 {
		return nil
	}
	for {
		err := r.dev.WaitNext()
		if err == nil {
			return nil
		}
		if errors.Is(err, hw.ErrInterrupted) {
			continue
		}
		r.logFailure("wait next", err)
		return fmt.Errorf("bdisp: wait for space: %w", err)
	}
}

// WaitLUT blocks until no queued node still reads the dynamic palette.
// Without such a node it returns at once.
func (r *Ring) WaitLUT() error {
	s := r.shared
	if s.LastLUT.Load() == 0 {
		return nil
	}
	r.Emit()
	if err := r.Sync(); err != nil {
		return err
	}
	s.LastLUT.Store(0)
	return nil
}

func (r *Ring) logFailure(op string, err error) {
	s := r.shared
	snap := hw.TakeSnapshot(r.dev)
	slot := func(addr uint32) int64 { return (int64(addr) - int64(r.phys)) / node.Size }
	r.log.Error("ring: "+op+" failed",
		slog.Any("err", err),
		slog.Bool("running", s.Running.Load() != 0),
		slog.String("ctl", fmt.Sprintf("%#08x", snap.CTL)),
		slog.Int64("ip", slot(snap.IP)),
		slog.Int64("lna", slot(snap.LNA)),
		slog.Int64("sta", slot(snap.STA)),
		slog.Uint64("next_free", uint64(s.NextFree.Load())),
		slog.Uint64("last_free", uint64(s.LastFree.Load())))
}

// Serial identifies an operation: Serial is the low word of the
// operation counter, Generation counts its wraps.
type Serial struct {
	Generation uint32
	Serial     uint32
}

// Serial returns the serial of the most recently pushed operation.
func (r *Ring) Serial() Serial {
	s := r.shared
	for {
		hi := s.OpsHi.Load()
		lo := s.OpsLo.Load()
		if s.OpsHi.Load() == hi {
			return Serial{Generation: hi, Serial: lo}
		}
	}
}

// WaitSerial blocks until the operation identified by serial has
// executed. Serials of an earlier generation have executed by
// construction if the engine is idle, otherwise a full sync is used.
func (r *Ring) WaitSerial(serial Serial) error {
	r.Emit()
	cur := r.Serial()
	if serial.Generation != cur.Generation || serial.Serial > cur.Serial {
		return r.Sync()
	}
	for range serialPolls {
		if r.shared.Running.Load() == 0 || r.dev.ReadReg(hw.RegUSR) >= serial.Serial {
			return nil
		}
		time.Sleep(time.Microsecond)
	}
	return r.Sync()
}
