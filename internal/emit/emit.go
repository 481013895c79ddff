// Package emit turns prepared templates and per call geometry into nodes.
//
// An Emitter is bound to a state with SetState. Each operation then
// checks its geometry against the engine limits, computes the position
// and size words of one or more nodes and pushes them, once per blend
// pass, into the ring. An operation the engine cannot perform returns an
// error wrapping bdisp.ErrFallbackToCPU before anything is pushed.
package emit

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gogpu/bdisp"
	"github.com/gogpu/bdisp/internal/node"
	"github.com/gogpu/bdisp/internal/profile"
	"github.com/gogpu/bdisp/internal/reg"
	"github.com/gogpu/bdisp/internal/state"
)

var (
	// ErrGeometry is returned for coordinates or sizes the engine cannot
	// address.
	ErrGeometry = errors.New("emit: rectangle outside engine limits")

	// ErrBankBoundary is returned when bank checking is enabled and a
	// rectangle touches memory on both sides of a bank boundary.
	ErrBankBoundary = errors.New("emit: rectangle crosses a memory bank boundary")

	// ErrRotation is returned for rotations the rotation buffer cannot
	// perform.
	ErrRotation = errors.New("emit: unsupported rotation geometry")

	// ErrScale is returned when a scale factor is outside the resize
	// range of the engine.
	ErrScale = errors.New("emit: scale factor out of range")

	// ErrNotPrepared is returned for an operation SetState did not
	// prepare.
	ErrNotPrepared = errors.New("emit: operation not prepared")
)

// fallback wraps err so that callers retry the operation on the CPU.
func fallback(err error, format string, args ...any) error {
	return fmt.Errorf("%w: %w: %s", bdisp.ErrFallbackToCPU, err, fmt.Sprintf(format, args...))
}

// Ring accepts finished nodes. *ring.Ring implements it.
type Ring interface {
	Push(n *node.Node) error
}

// Config configures an Emitter.
type Config struct {
	Profile *profile.Profile
	Ring    Ring
	Cache   *state.Cache
	Logger  *slog.Logger
}

// Counters summarises the work of an Emitter.
type Counters struct {
	// Ops counts operations that pushed at least one node.
	Ops uint64
	// Nodes counts pushed nodes, every pass included.
	Nodes uint64
	// Spans counts the extra nodes stretch and rotation decomposition
	// produced.
	Spans uint64
	// Fallbacks counts operations refused for their geometry.
	Fallbacks uint64
}

// Emitter pushes the nodes of the operations of one state.
type Emitter struct {
	prof  *profile.Profile
	ring  Ring
	cache *state.Cache
	log   *slog.Logger

	st *bdisp.State
	op bdisp.AccelOp

	counters Counters
}

// New returns an Emitter. Operations fail until SetState.
func New(cfg Config) (*Emitter, error) {
	if cfg.Profile == nil || cfg.Ring == nil || cfg.Cache == nil {
		return nil, errors.New("emit: incomplete config")
	}
	e := &Emitter{prof: cfg.Profile, ring: cfg.Ring, cache: cfg.Cache, log: cfg.Logger}
	if e.log == nil {
		e.log = bdisp.NopLogger()
	}
	return e, nil
}

// SetLogger replaces the logger.
func (e *Emitter) SetLogger(l *slog.Logger) { e.log = l }

// SetState prepares the templates of op for st. mod lists the fields of
// st changed since the previous call.
func (e *Emitter) SetState(st *bdisp.State, mod bdisp.Modified, op bdisp.AccelOp) error {
	if err := e.cache.Prepare(st, mod, op); err != nil {
		e.st, e.op = nil, bdisp.AccelNone
		return err
	}
	e.st, e.op = st, op
	return nil
}

// Counters returns the counters accumulated so far.
func (e *Emitter) Counters() Counters { return e.counters }

// push hands a copy of n to the ring.
func (e *Emitter) push(n node.Node) error {
	if err := e.ring.Push(&n); err != nil {
		return err
	}
	e.counters.Nodes++
	return nil
}

func (e *Emitter) refuse(err error) error {
	e.counters.Fallbacks++
	e.log.Debug("emit: refused", slog.Any("err", err))
	return err
}

// prepared fails unless op was passed to the last SetState.
func (e *Emitter) prepared(op bdisp.AccelOp) error {
	if e.st == nil || e.op&op == 0 {
		return fmt.Errorf("%w: %w: %v", bdisp.ErrFallbackToCPU, ErrNotPrepared, op)
	}
	return nil
}

// Coordinate and size limits of the XY and SZ registers.
const (
	minCoord = -4096
	maxCoord = 4095
	maxSize  = 4095
)

func checkSize(x, y, w, h int) bool {
	return x >= minCoord && y >= minCoord && x <= maxCoord && y <= maxCoord &&
		w >= 1 && h >= 1 && w <= maxSize && h <= maxSize
}

func checkRect(r bdisp.Rect) error {
	if !checkSize(r.X, r.Y, r.W, r.H) {
		return fallback(ErrGeometry, "%d,%d %dx%d", r.X, r.Y, r.W, r.H)
	}
	return nil
}

func checkPoint(x, y int) error {
	if !checkSize(x, y, 1, 1) {
		return fallback(ErrGeometry, "%d,%d", x, y)
	}
	return nil
}

// checkBank fails when r on s touches two memory banks. Planar surfaces
// are checked as a whole.
func (e *Emitter) checkBank(s *bdisp.Surface, r bdisp.Rect) error {
	if s == nil || !e.prof.BankCheck {
		return nil
	}
	var start uint32
	var n int
	if s.Format.IsPlanar() {
		start, n = s.Phys, s.Size()
	} else {
		bits := s.Format.BitsPerPixel()
		start = s.Phys + uint32(r.Y*s.Pitch+r.X*bits/8)
		n = (r.H-1)*s.Pitch + (r.W*bits+7)/8
	}
	if e.prof.CrossesBank(start, n) {
		return fallback(ErrBankBoundary, "%v at %d,%d %dx%d", s, r.X, r.Y, r.W, r.H)
	}
	return nil
}

// layout is the geometry of an operation: one node per span, each
// carrying the template words plus its positions and sizes.
type layout struct {
	// cic and ins are the stages the geometry enables on top of every
	// pass.
	cic, ins uint32
	nodes    []node.Node
}

// passes pushes every node of l once per pass of t. Only the first node
// of a pass reloads its colour table.
func (e *Emitter) passes(t *state.Blit, l *layout) error {
	for _, p := range t.Passes {
		for i := range l.nodes {
			n := l.nodes[i]
			n[node.CIC] = p.CIC | l.cic | t.ExtraCIC
			n[node.INS] = p.INS | l.ins | t.ExtraINS
			n[node.ACK] = p.ACK
			n[node.CCO] = p.CCO
			n[node.CML] = p.CML
			if i > 0 {
				n[node.CCO] &^= reg.CCOUpdateEn
			}
			if err := e.push(n); err != nil {
				return err
			}
		}
	}
	if len(l.nodes) > 1 {
		e.counters.Spans += uint64(len(l.nodes) - 1)
	}
	e.counters.Ops++
	return nil
}
