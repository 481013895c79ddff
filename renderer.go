package bdisp

import (
	"errors"
	"log/slog"
)

// Renderer performs operations with a State, trying the registered
// Accelerator first and falling back to Software when the engine rejects
// the state or the geometry.
//
// Renderer is not safe for concurrent use.
type Renderer struct {
	State *State

	cpu     *Software
	pending Modified
	log     *slog.Logger

	// accel replaces the registered accelerator when bound is set.
	accel Accelerator
	bound bool
}

// NewRenderer returns a renderer for st. mem gives the CPU fallback
// access to surface memory.
func NewRenderer(st *State, mem Memory) *Renderer {
	return &Renderer{State: st, cpu: NewSoftware(mem), pending: ModAll, log: Logger()}
}

// NewRendererOn returns a renderer that uses a instead of the registered
// accelerator. With a nil a every operation runs on the CPU.
func NewRendererOn(st *State, mem Memory, a Accelerator) *Renderer {
	r := NewRenderer(st, mem)
	r.accel, r.bound = a, true
	return r
}

func (r *Renderer) accelerator() Accelerator {
	if r.bound {
		return r.accel
	}
	return CurrentAccelerator()
}

// Invalidate records that the fields in mod of r.State have changed.
func (r *Renderer) Invalidate(mod Modified) { r.pending |= mod }

// accelerated runs fn on the accelerator if it can handle op. It reports
// whether the operation was done.
func (r *Renderer) accelerated(op AccelOp, fn func(Accelerator) error) (bool, error) {
	a := r.accelerator()
	if a == nil {
		return false, nil
	}
	if a.CheckState(r.State, op)&op == 0 {
		return false, nil
	}
	if err := a.SetState(r.State, r.pending, op); err != nil {
		if errors.Is(err, ErrFallbackToCPU) {
			return false, nil
		}
		return false, err
	}
	r.pending = 0
	err := fn(a)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrFallbackToCPU):
		r.log.Debug("bdisp: operation falls back to CPU", "op", op, "reason", err)
		// Commands already queued must land before the CPU touches the
		// same memory.
		a.EmitCommands()
		if err := a.EngineSync(); err != nil {
			return false, err
		}
		return false, nil
	}
	return false, err
}

// FillRectangle fills rect with the state's colour.
func (r *Renderer) FillRectangle(rect Rect) error {
	done, err := r.accelerated(AccelFillRectangle, func(a Accelerator) error { return a.FillRectangle(rect) })
	if done || err != nil {
		return err
	}
	return r.cpu.FillRectangle(r.State, rect)
}

// DrawRectangle draws the outline of rect.
func (r *Renderer) DrawRectangle(rect Rect) error {
	done, err := r.accelerated(AccelDrawRectangle, func(a Accelerator) error { return a.DrawRectangle(rect) })
	if done || err != nil {
		return err
	}
	return r.cpu.DrawRectangle(r.State, rect)
}

// Blit copies src to (dx, dy).
func (r *Renderer) Blit(src Rect, dx, dy int) error {
	done, err := r.accelerated(AccelBlit, func(a Accelerator) error { return a.Blit(src, dx, dy) })
	if done || err != nil {
		return err
	}
	return r.cpu.Blit(r.State, src, dx, dy)
}

// StretchBlit scales src into dst.
func (r *Renderer) StretchBlit(src, dst Rect) error {
	done, err := r.accelerated(AccelStretchBlit, func(a Accelerator) error { return a.StretchBlit(src, dst) })
	if done || err != nil {
		return err
	}
	return r.cpu.StretchBlit(r.State, src, dst)
}

// Sync emits queued commands and waits for the engine.
func (r *Renderer) Sync() error {
	a := r.accelerator()
	if a == nil {
		return nil
	}
	a.EmitCommands()
	return a.EngineSync()
}
