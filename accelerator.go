package bdisp

import (
	"errors"
	"sync"
)

// ErrFallbackToCPU indicates the blit engine cannot handle this operation
// with the current state. The caller should fall back to CPU rendering.
var ErrFallbackToCPU = errors.New("bdisp: falling back to CPU rendering")

// AccelOp describes operation types for capability checking.
type AccelOp uint32

const (
	// AccelFillRectangle represents solid rectangle fills.
	AccelFillRectangle AccelOp = 1 << iota

	// AccelDrawRectangle represents rectangle outlines.
	AccelDrawRectangle

	// AccelBlit represents 1:1 copies, including rotated ones.
	AccelBlit

	// AccelStretchBlit represents scaled copies.
	AccelStretchBlit

	// AccelBlit2 represents copies blending two sources.
	AccelBlit2
)

const (
	// AccelAllDraw selects every drawing operation.
	AccelAllDraw = AccelFillRectangle | AccelDrawRectangle

	// AccelAllBlit selects every blitting operation.
	AccelAllBlit = AccelBlit | AccelStretchBlit | AccelBlit2

	AccelNone AccelOp = 0
)

// IsDraw reports whether op contains a drawing operation.
func (op AccelOp) IsDraw() bool { return op&AccelAllDraw != 0 }

// IsBlit reports whether op contains a blitting operation.
func (op AccelOp) IsBlit() bool { return op&AccelAllBlit != 0 }

func (op AccelOp) String() string {
	if op == 0 {
		return "NONE"
	}
	var s string
	for _, n := range []struct {
		op   AccelOp
		name string
	}{
		{AccelFillRectangle, "FILLRECTANGLE"},
		{AccelDrawRectangle, "DRAWRECTANGLE"},
		{AccelBlit, "BLIT"},
		{AccelStretchBlit, "STRETCHBLIT"},
		{AccelBlit2, "BLIT2"},
	} {
		if op&n.op != 0 {
			if s != "" {
				s += "|"
			}
			s += n.name
		}
	}
	return s
}

// Accelerator is a hardware blit engine.
//
// The caller owns the State. Before an operation it asks CheckState which
// operations the engine can perform, hands the accepted ones to SetState
// together with the fields that changed since the last call, and then
// issues geometry. Any error wrapping ErrFallbackToCPU means the operation
// should be retried on the CPU; other errors are device failures.
//
// Implementations are provided by the driver package:
//
//	dev, err := driver.Open(hwdev)
//	if err != nil { ... }
//	bdisp.RegisterAccelerator(dev)
type Accelerator interface {
	// Name returns the engine name.
	Name() string

	// Init prepares the engine. Called once during registration.
	Init() error

	// Close releases the engine.
	Close()

	// CheckState returns the subset of op the engine can accelerate with st.
	CheckState(st *State, op AccelOp) AccelOp

	// SetState makes st current for op. mod lists the state fields changed
	// since the previous SetState.
	SetState(st *State, mod Modified, op AccelOp) error

	FillRectangle(r Rect) error
	DrawRectangle(r Rect) error
	Blit(src Rect, dx, dy int) error
	Blit2(src Rect, dx, dy, sx2, sy2 int) error
	StretchBlit(src, dst Rect) error

	// EmitCommands hands all queued commands to the engine.
	EmitCommands()

	// EngineSync waits until the engine is idle.
	EngineSync() error
}

var (
	accelMu sync.RWMutex
	accel   Accelerator
)

// RegisterAccelerator registers the hardware accelerator used by Renderer.
//
// Only one accelerator can be registered. Subsequent calls replace the
// previous one, which is closed. Init is called during registration; if it
// fails, the accelerator is not registered and the error is returned.
func RegisterAccelerator(a Accelerator) error {
	if a == nil {
		return errors.New("bdisp: accelerator must not be nil")
	}
	if err := a.Init(); err != nil {
		return err
	}
	propagateLogger(a, Logger())
	accelMu.Lock()
	old := accel
	accel = a
	accelMu.Unlock()
	if old != nil && old != a {
		old.Close()
	}
	return nil
}

// UnregisterAccelerator removes and closes the registered accelerator.
func UnregisterAccelerator() {
	accelMu.Lock()
	old := accel
	accel = nil
	accelMu.Unlock()
	if old != nil {
		old.Close()
	}
}

// CurrentAccelerator returns the registered accelerator, or nil if none.
func CurrentAccelerator() Accelerator {
	accelMu.RLock()
	a := accel
	accelMu.RUnlock()
	return a
}
