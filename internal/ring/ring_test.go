package ring

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/gogpu/bdisp/hw"
	"github.com/gogpu/bdisp/hw/sim"
	"github.com/gogpu/bdisp/internal/node"
	"github.com/gogpu/bdisp/internal/reg"
)

func newSim(t *testing.T, mode sim.Mode, slots int) *sim.Engine {
	t.Helper()
	cfg := sim.DefaultConfig()
	cfg.Mode = mode
	cfg.NodesSize = slots * node.Size
	return sim.New(cfg)
}

func newTestRing(t *testing.T, e *sim.Engine, cfg Config) *Ring {
	t.Helper()
	r, err := New(e, cfg)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func fillNode() *node.Node {
	return &node.Node{node.CIC: node.Fast, node.INS: reg.InsSrc1ModeDirectFill}
}

func TestNewPrelinks(t *testing.T) {
	cfg := sim.DefaultConfig()
	cfg.NodesSize = 10*node.Size + 100
	e := sim.New(cfg)
	r := newTestRing(t, e, Config{})

	if r.Usable() != 10*node.Size || r.Slots() != 10 {
		t.Fatalf("Usable, Slots = %d, %d, want %d, 10", r.Usable(), r.Slots(), 10*node.Size)
	}
	if r.IRQDelay() != 2 {
		t.Errorf("IRQDelay() = %d, want 2", r.IRQDelay())
	}
	nodes := e.Nodes()
	for i := range 10 {
		want := cfg.Base + uint32((i+1)%10*node.Size)
		if got := binary.LittleEndian.Uint32(nodes[i*node.Size:]); got != want {
			t.Errorf("slot %d NIP = %#x, want %#x", i, got, want)
		}
	}
	s := e.Shared()
	if s.NextFree.Load() != 0 || s.LastFree.Load() != 9*node.Size {
		t.Errorf("NextFree, LastFree = %d, %d", s.NextFree.Load(), s.LastFree.Load())
	}
	if got := e.ReadReg(hw.RegAQIP); got != cfg.Base {
		t.Errorf("AQ_IP = %#x, want %#x", got, cfg.Base)
	}
	if e.ReadReg(hw.RegAQCTL)&hw.AQCTLQueueEnable == 0 {
		t.Error("queue not enabled")
	}
}

func TestNewTooSmall(t *testing.T) {
	cfg := sim.DefaultConfig()
	cfg.NodesSize = node.Size + 4
	if _, err := New(sim.New(cfg), Config{}); !errors.Is(err, ErrTooSmall) {
		t.Errorf("New() = %v, want ErrTooSmall", err)
	}
}

func TestLegacyShim(t *testing.T) {
	cfg := sim.DefaultConfig()
	cfg.Legacy = true
	e := sim.New(cfg)
	newTestRing(t, e, Config{})
	s := e.Shared()
	if s.Version.Load() != 0 || s.Lock.Load() != 0 || s.LockedBy.Load() != 0 {
		t.Errorf("version, lock, locked_by = %#x, %#x, %#x, want 0",
			s.Version.Load(), s.Lock.Load(), s.LockedBy.Load())
	}
}

func TestOffsets(t *testing.T) {
	e := newSim(t, sim.Deferred, 8)
	r := newTestRing(t, e, Config{})
	for k := 1; k <= 6; k++ {
		if err := r.Push(fillNode()); err != nil {
			t.Fatal(err)
		}
		if got, want := e.Shared().NextFree.Load(), uint32(k*node.Size)%r.Usable(); got != want {
			t.Errorf("after %d pushes NextFree = %d, want %d", k, got, want)
		}
	}
}

func TestAcquireFinish(t *testing.T) {
	e := newSim(t, sim.Deferred, 4)
	r := newTestRing(t, e, Config{})
	slot, err := r.Acquire()
	if err != nil {
		t.Fatal(err)
	}
	if slot.Off != 0 || len(slot.Buf) != node.Size {
		t.Errorf("slot = %d/%d", slot.Off, len(slot.Buf))
	}
	if e.Shared().Lock.Load() != 1 || e.Shared().LockedBy.Load() != hw.OwnerUser {
		t.Error("lock not held between Acquire and Finish")
	}
	if _, err := r.Acquire(); err == nil {
		t.Error("second Acquire = nil error")
	}
	r.Finish(slot)
	if e.Shared().Lock.Load() != 0 {
		t.Error("lock held after Finish")
	}
	if got := e.Shared().NextFree.Load(); got != node.Size {
		t.Errorf("NextFree = %d, want %d", got, node.Size)
	}
}

func TestEmitWithoutNodes(t *testing.T) {
	e := newSim(t, sim.Deferred, 8)
	r := newTestRing(t, e, Config{})
	s := e.Shared()

	r.Emit()
	if s.Running.Load() != 0 || s.NumStarts.Load() != 0 {
		t.Fatalf("Emit on an empty ring: running %d, starts %d", s.Running.Load(), s.NumStarts.Load())
	}
	if err := r.Push(fillNode()); err != nil {
		t.Fatal(err)
	}
	r.Emit()
	r.Emit()
	if s.Running.Load() != 1 || s.NumStarts.Load() != 1 {
		t.Errorf("running %d, starts %d, want 1, 1", s.Running.Load(), s.NumStarts.Load())
	}
	if got, want := e.ReadReg(hw.RegAQLNA), r.Phys(); got != want {
		t.Errorf("LNA = %#x, want %#x", got, want)
	}
	if err := r.Sync(); err != nil {
		t.Fatal(err)
	}
	r.Emit()
	if s.Running.Load() != 0 || s.NumStarts.Load() != 1 {
		t.Errorf("after sync: running %d, starts %d", s.Running.Load(), s.NumStarts.Load())
	}
}

func TestWrapAround(t *testing.T) {
	for _, delay := range []int{0, 1000} {
		e := newSim(t, sim.Deferred, 4)
		r := newTestRing(t, e, Config{IRQDelay: delay})
		for range 10 {
			if err := r.Push(fillNode()); err != nil {
				t.Fatal(err)
			}
		}
		r.Emit()
		if err := r.Sync(); err != nil {
			t.Fatal(err)
		}
		ex := e.Executed()
		if len(ex) != 10 {
			t.Fatalf("delay %d: executed %d nodes, want 10", delay, len(ex))
		}
		for i, n := range ex {
			if n[node.USR] != uint32(i+1) {
				t.Errorf("delay %d: node %d USR = %d", delay, i, n[node.USR])
			}
		}
		if got := e.Shared().NextFree.Load(); got != 2*node.Size {
			t.Errorf("delay %d: NextFree = %d", delay, got)
		}
	}
}

func TestPushInterruptCadence(t *testing.T) {
	e := newSim(t, sim.Deferred, 8)
	r := newTestRing(t, e, Config{IRQDelay: 2})
	for range 4 {
		if err := r.Push(fillNode()); err != nil {
			t.Fatal(err)
		}
	}
	for i := range 4 {
		n, err := node.Decode(e.Nodes()[i*node.Size:])
		if err != nil {
			t.Fatal(err)
		}
		got := n[node.INS]&reg.InsEnableBlitCompIRQ != 0
		if want := (i+1)%2 == 0; got != want {
			t.Errorf("node %d interrupt = %v, want %v", i, got, want)
		}
		if !n.Has(reg.CICStatic) {
			t.Errorf("node %d has no static group", i)
		}
	}
}

func TestSyncRetriesInterrupted(t *testing.T) {
	e := newSim(t, sim.Deferred, 8)
	r := newTestRing(t, e, Config{})
	if err := r.Push(fillNode()); err != nil {
		t.Fatal(err)
	}
	r.Emit()
	e.Interrupt(3)
	if err := r.Sync(); err != nil {
		t.Fatalf("Sync() = %v", err)
	}
	if e.Shared().Running.Load() != 0 {
		t.Error("still running after Sync")
	}
}

func TestSyncFailure(t *testing.T) {
	e := newSim(t, sim.Deferred, 8)
	r := newTestRing(t, e, Config{})
	if err := r.Push(fillNode()); err != nil {
		t.Fatal(err)
	}
	r.Emit()
	e.Close()
	if err := r.Sync(); !errors.Is(err, hw.ErrClosed) {
		t.Errorf("Sync() = %v, want ErrClosed", err)
	}
}

func TestSerial(t *testing.T) {
	e := newSim(t, sim.Immediate, 8)
	r := newTestRing(t, e, Config{})
	for range 3 {
		if err := r.Push(fillNode()); err != nil {
			t.Fatal(err)
		}
	}
	s := r.Serial()
	if s != (Serial{Generation: 0, Serial: 3}) {
		t.Errorf("Serial() = %+v", s)
	}
	if err := r.WaitSerial(s); err != nil {
		t.Fatal(err)
	}
	if got := e.ReadReg(hw.RegUSR); got != 3 {
		t.Errorf("USR = %d, want 3", got)
	}
}

func TestWaitLUT(t *testing.T) {
	e := newSim(t, sim.Deferred, 8)
	r := newTestRing(t, e, Config{})
	n := fillNode()
	n[node.CIC] |= reg.CICCLUT
	n[node.INS] |= reg.InsEnableCLUT
	n[node.CCO] = reg.CCOExpand | reg.CCOUpdateEn
	if err := r.Push(n); err != nil {
		t.Fatal(err)
	}
	if got := e.Shared().LastLUT.Load(); got != r.Usable() {
		t.Errorf("LastLUT = %d, want %d for slot 0", got, r.Usable())
	}
	if err := r.WaitLUT(); err != nil {
		t.Fatal(err)
	}
	if e.Shared().LastLUT.Load() != 0 || e.Shared().Running.Load() != 0 {
		t.Error("palette node still outstanding")
	}
}

func TestPushEncodeFailure(t *testing.T) {
	e := newSim(t, sim.Deferred, 8)
	r := newTestRing(t, e, Config{})
	if err := r.Push(fillNode()); err != nil {
		t.Fatal(err)
	}
	s := e.Shared()
	next, serial := s.NextFree.Load(), r.Serial()

	bad := fillNode()
	bad[node.CIC] |= reg.CICCLUT | 1<<31
	bad[node.INS] |= reg.InsEnableCLUT
	bad[node.CCO] = reg.CCOExpand | reg.CCOUpdateEn
	if err := r.Push(bad); !errors.Is(err, node.ErrInvalidCIC) {
		t.Fatalf("Push() = %v, want %v", err, node.ErrInvalidCIC)
	}
	if got := s.NextFree.Load(); got != next {
		t.Errorf("NextFree = %d, want %d", got, next)
	}
	if got := r.Serial(); got != serial {
		t.Errorf("Serial() = %+v, want %+v", got, serial)
	}
	if got := s.LastLUT.Load(); got != 0 {
		t.Errorf("LastLUT = %d, want 0", got)
	}
	if s.Lock.Load() != 0 {
		t.Error("lock held after a failed Push")
	}

	if err := r.Push(fillNode()); err != nil {
		t.Fatal(err)
	}
	r.Emit()
	e.Run()
	if got := len(e.Executed()); got != 2 {
		t.Errorf("executed %d nodes, want 2", got)
	}
}

func TestAttachKeepsQueue(t *testing.T) {
	e := newSim(t, sim.Deferred, 8)
	if _, err := Attach(e, Config{}); !errors.Is(err, ErrNotInitialised) {
		t.Fatalf("Attach before New = %v, want %v", err, ErrNotInitialised)
	}
	first := newTestRing(t, e, Config{})
	for range 2 {
		if err := first.Push(fillNode()); err != nil {
			t.Fatal(err)
		}
	}
	first.Emit()
	if !Initialised(e) {
		t.Fatal("Initialised() = false after New")
	}

	second, err := Attach(e, Config{})
	if err != nil {
		t.Fatal(err)
	}
	s := e.Shared()
	if got := s.NextFree.Load(); got != 2*node.Size {
		t.Errorf("NextFree after Attach = %d, want %d", got, 2*node.Size)
	}
	if err := second.Push(fillNode()); err != nil {
		t.Fatal(err)
	}
	second.Emit()
	e.Run()
	if got := len(e.Executed()); got != 3 {
		t.Errorf("executed %d nodes, want 3", got)
	}
	if got := second.Serial(); got.Serial != 3 {
		t.Errorf("Serial() = %+v, want serial 3", got)
	}
}
