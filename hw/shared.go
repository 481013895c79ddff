package hw

import "sync/atomic"

// Layout versions of Shared.
const (
	SharedVersion uint32 = 1

	// SharedVersionUninitialized is what an old kernel leaves in the
	// version word: it filled the whole block with 0xab.
	SharedVersionUninitialized uint32 = 0xabababab
)

// Lock owners recorded in LockedBy.
const (
	OwnerNone   uint32 = 0
	OwnerKernel uint32 = 1
	OwnerUser   uint32 = 2
)

// Shared is the control block shared by the driver and the interrupt
// domain. The kernel backend overlays it on a mapped page, so the field
// order is the wire layout and every field is a 32 bit word.
//
// NextFree is written by the driver only, LastFree by the interrupt
// domain only. Both are byte offsets into the node area.
type Shared struct {
	Version atomic.Uint32
	Device  atomic.Uint32

	Lock     atomic.Uint32
	LockedBy atomic.Uint32

	NodesPhys atomic.Uint32
	NodesSize atomic.Uint32

	NextFree atomic.Uint32
	LastFree atomic.Uint32

	Running     atomic.Uint32
	UpdatingLNA atomic.Uint32
	PrevSetLNA  atomic.Uint32

	// LastLUT is the offset of the last node that reloaded the dynamic
	// palette, or 0 when no such node is outstanding.
	LastLUT atomic.Uint32

	OpsLo atomic.Uint32
	OpsHi atomic.Uint32

	NumStarts   atomic.Uint32
	NumIRQs     atomic.Uint32
	NumNodeIRQs atomic.Uint32
	NumLNAIRQs  atomic.Uint32
	NumIdle     atomic.Uint32
	NumWaitIdle atomic.Uint32
	NumWaitNext atomic.Uint32
}

// ApplyShim brings a block left by an old kernel into the current
// layout. It reports whether anything was changed.
func (s *Shared) ApplyShim() bool {
	if s.Version.Load() != SharedVersionUninitialized {
		return false
	}
	s.Version.Store(0)
	s.Lock.Store(0)
	s.LockedBy.Store(OwnerNone)
	return true
}

// Reset clears the queue state and the statistics.
func (s *Shared) Reset() {
	for _, w := range []*atomic.Uint32{
		&s.Running, &s.UpdatingLNA, &s.PrevSetLNA, &s.LastLUT,
		&s.OpsLo, &s.OpsHi,
		&s.NumStarts, &s.NumIRQs, &s.NumNodeIRQs, &s.NumLNAIRQs,
		&s.NumIdle, &s.NumWaitIdle, &s.NumWaitNext,
	} {
		w.Store(0)
	}
}

// TryLock takes the lock for owner. It returns false if the lock is held,
// and the previous LockedBy value, which is non-zero only if an earlier
// holder did not clean up.
func (s *Shared) TryLock(owner uint32) (ok bool, stale uint32) {
	if !s.Lock.CompareAndSwap(0, 1) {
		return false, 0
	}
	stale = s.LockedBy.Swap(owner)
	return true, stale
}

// Unlock releases the lock and returns the LockedBy value found, which
// should be owner.
func (s *Shared) Unlock(owner uint32) (was uint32) {
	was = s.LockedBy.Swap(OwnerNone)
	s.Lock.Store(0)
	return was
}

// Ops returns the 64 bit operation counter.
func (s *Shared) Ops() uint64 {
	for {
		hi := s.OpsHi.Load()
		lo := s.OpsLo.Load()
		if s.OpsHi.Load() == hi {
			return uint64(hi)<<32 | uint64(lo)
		}
	}
}

// AddOp increments the operation counter and returns the new low word.
// Only the lock holder may call it.
func (s *Shared) AddOp() uint32 {
	lo := s.OpsLo.Add(1)
	if lo == 0 {
		s.OpsHi.Add(1)
	}
	return lo
}

// DropOp takes back the operation counted by the last AddOp. Only the lock
// holder may call it.
func (s *Shared) DropOp() {
	if s.OpsLo.Add(^uint32(0)) == ^uint32(0) {
		s.OpsHi.Add(^uint32(0))
	}
}

// Stats is a copy of the counters.
type Stats struct {
	Ops      uint64
	Starts   uint32
	IRQs     uint32
	NodeIRQs uint32
	LNAIRQs  uint32
	Idle     uint32
	WaitIdle uint32
	WaitNext uint32
}

// Stats returns a copy of the counters.
func (s *Shared) Stats() Stats {
	return Stats{
		Ops:      s.Ops(),
		Starts:   s.NumStarts.Load(),
		IRQs:     s.NumIRQs.Load(),
		NodeIRQs: s.NumNodeIRQs.Load(),
		LNAIRQs:  s.NumLNAIRQs.Load(),
		Idle:     s.NumIdle.Load(),
		WaitIdle: s.NumWaitIdle.Load(),
		WaitNext: s.NumWaitNext.Load(),
	}
}

// OpsPerStart is the average number of operations per kick.
func (st Stats) OpsPerStart() uint64 {
	if st.Starts == 0 {
		return 0
	}
	return st.Ops / uint64(st.Starts)
}
