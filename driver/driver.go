// Package driver is the public face of a blit engine. Open binds an
// hw.Device, lays out the colour and filter tables in engine memory and
// returns a Device implementing bdisp.Accelerator.
//
// A Device is not safe for concurrent use. Several Devices, in one or
// more processes, may share an engine: the first one opened sets up the
// ring, the others join it with WithAttach. The lock in the shared block
// serialises their access to the ring.
package driver

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/gogpu/bdisp"
	"github.com/gogpu/bdisp/hw"
	"github.com/gogpu/bdisp/internal/check"
	"github.com/gogpu/bdisp/internal/emit"
	"github.com/gogpu/bdisp/internal/profile"
	"github.com/gogpu/bdisp/internal/ring"
	"github.com/gogpu/bdisp/internal/state"
	"github.com/gogpu/bdisp/internal/trace"
)

// ErrUnknownDevice is returned by Probe for a shared block that does not
// describe a supported engine.
var ErrUnknownDevice = errors.New("bdisp: unknown blit engine")

// Device ids reported in the shared block.
const (
	deviceBDisp  = 1
	deviceBDisp2 = 2
)

// Info describes an opened engine.
type Info struct {
	Name    string
	Vendor  string
	Variant bdisp.Variant

	// Version is the engine generation.
	Version int

	// Slots is the number of ring slots, Palettes the number of dynamic
	// palette slots.
	Slots    int
	Palettes int

	LineBuffer   int
	RotateBuffer int
}

// Stats combines the counters of the shared block with those of the
// operation emitter.
type Stats struct {
	Engine  hw.Stats
	Emitted emit.Counters

	PaletteUploads   int
	PaletteEvictions int
}

// Serial identifies a pushed operation.
type Serial = ring.Serial

// Probe reports the engine generation recorded in the shared block of
// dev.
func Probe(dev hw.Device) (bdisp.Variant, error) {
	s := dev.Shared()
	switch v := s.Version.Load(); v {
	case 0, hw.SharedVersion, hw.SharedVersionUninitialized:
	default:
		return 0, fmt.Errorf("%w: shared block version %d", ErrUnknownDevice, v)
	}
	switch id := s.Device.Load(); id {
	case deviceBDisp:
		return bdisp.VariantBDisp, nil
	case deviceBDisp2:
		return bdisp.VariantBDisp2, nil
	default:
		return 0, fmt.Errorf("%w: device id %d", ErrUnknownDevice, id)
	}
}

// Device drives one blit engine.
type Device struct {
	hw    hw.Device
	prof  *profile.Profile
	ring  *ring.Ring
	pal   *state.Palettes
	cache *state.Cache
	emit  *emit.Emitter
	rec   *trace.Recorder
	log   *slog.Logger

	info   Info
	closed bool
}

var _ bdisp.Accelerator = (*Device)(nil)

// Open takes over the ring of dev. The Device owns dev from then on and
// closes it in Close.
func Open(dev hw.Device, opts ...Option) (*Device, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	log := o.logger
	if log == nil {
		log = bdisp.Logger()
	}

	variant := o.variant
	if variant == 0 {
		v, err := Probe(dev)
		if err != nil {
			return nil, err
		}
		variant = v
	}

	tl, err := layoutTables(dev)
	if err != nil {
		return nil, err
	}
	if !o.attach {
		if err := tl.write(dev); err != nil {
			return nil, err
		}
	}

	prof, err := profile.New(profile.Config{
		Variant:       variant,
		BankCheck:     o.bankCheck,
		HWClip:        o.hwClip,
		SmoothScale:   o.smoothScale,
		CLUTPhys:      tl.clut,
		Filter8x8Phys: tl.filter8x8,
		Filter5x8Phys: tl.filter5x8,
	})
	if err != nil {
		return nil, fmt.Errorf("bdisp: %w", err)
	}

	rc := ring.Config{Logger: log, IRQDelay: o.irqDelay, Queue: o.queue}
	var r *ring.Ring
	if o.attach {
		r, err = ring.Attach(dev, rc)
		// The palette slots belong to the Device that set up the engine.
		tl.slots = 0
	} else {
		r, err = ring.New(dev, rc)
	}
	if err != nil {
		return nil, fmt.Errorf("bdisp: %w", err)
	}

	d := &Device{hw: dev, prof: prof, ring: r, log: log}
	if tl.slots > 0 {
		d.pal, err = state.NewPalettes(state.PaletteConfig{
			Memory:  dev,
			Phys:    tl.palettes,
			Slots:   tl.slots,
			WaitLUT: r.WaitLUT,
			Logger:  log,
		})
		if err != nil {
			log.Warn("driver: dynamic palettes disabled", slog.Any("err", err))
			d.pal, tl.slots = nil, 0
		}
	}

	d.cache, err = state.New(state.Config{Profile: prof, Palettes: d.pal, Logger: log})
	if err != nil {
		return nil, fmt.Errorf("bdisp: %w", err)
	}

	var sink emit.Ring = r
	if o.trace != nil {
		d.rec, err = trace.NewRecorder(o.trace, r, trace.Header{
			Variant: variant.String(),
			Device:  dev.Shared().Device.Load(),
		})
		if err != nil {
			return nil, fmt.Errorf("bdisp: %w", err)
		}
		sink = d.rec
	}
	d.emit, err = emit.New(emit.Config{Profile: prof, Ring: sink, Cache: d.cache, Logger: log})
	if err != nil {
		return nil, fmt.Errorf("bdisp: %w", err)
	}

	d.info = Info{
		Name:         "BDisp",
		Vendor:       "STMicroelectronics",
		Variant:      variant,
		Version:      int(variant),
		Slots:        r.Slots(),
		Palettes:     tl.slots,
		LineBuffer:   prof.LineBuffer,
		RotateBuffer: prof.RotateBuffer,
	}
	log.Info("driver: opened",
		slog.String("variant", variant.String()),
		slog.Int("slots", d.info.Slots),
		slog.Int("palettes", d.info.Palettes),
		slog.Bool("bank_check", o.bankCheck),
		slog.Bool("hw_clip", o.hwClip),
		slog.Bool("trace", d.rec != nil),
		slog.Bool("attached", o.attach))
	return d, nil
}

// Name returns the engine name.
func (d *Device) Name() string { return d.info.Name }

// Info describes the engine.
func (d *Device) Info() Info { return d.info }

// Init does nothing: Open already prepared the engine.
func (d *Device) Init() error {
	if d.closed {
		return hw.ErrClosed
	}
	return nil
}

// SetLogger replaces the logger of the device and its parts.
func (d *Device) SetLogger(l *slog.Logger) {
	if l == nil {
		l = bdisp.NopLogger()
	}
	d.log = l
	d.ring.SetLogger(l)
	d.cache.SetLogger(l)
	d.emit.SetLogger(l)
	if d.pal != nil {
		d.pal.SetLogger(l)
	}
}

// Close waits for the engine, flushes the trace and closes the hardware
// device.
func (d *Device) Close() {
	if d.closed {
		return
	}
	d.closed = true
	d.ring.Emit()
	if err := d.ring.Sync(); err != nil {
		d.log.Error("driver: sync on close", slog.Any("err", err))
	}
	if d.rec != nil {
		if err := d.rec.Close(); err != nil {
			d.log.Error("driver: trace", slog.Any("err", err))
		}
	}
	st := d.Stats()
	if err := d.hw.Close(); err != nil {
		d.log.Error("driver: close", slog.Any("err", err))
	}
	d.log.Info("driver: closed",
		slog.Uint64("ops", st.Engine.Ops),
		slog.Uint64("nodes", st.Emitted.Nodes),
		slog.Uint64("fallbacks", st.Emitted.Fallbacks),
		slog.Uint64("ops_per_start", st.Engine.OpsPerStart()))
}

// CheckState returns the operations of op the engine can perform with st.
func (d *Device) CheckState(st *bdisp.State, op bdisp.AccelOp) bdisp.AccelOp {
	v := check.Check(d.prof, st, op)
	if v.Accel != op {
		d.log.Debug("driver: not accelerated",
			slog.String("op", (op &^ v.Accel).String()),
			slog.String("reason", v.Reason))
	}
	return v.Accel
}

// SetState makes st current for op.
func (d *Device) SetState(st *bdisp.State, mod bdisp.Modified, op bdisp.AccelOp) error {
	return d.emit.SetState(st, mod, op)
}

func (d *Device) FillRectangle(r bdisp.Rect) error { return d.emit.FillRectangle(r) }

func (d *Device) DrawRectangle(r bdisp.Rect) error { return d.emit.DrawRectangle(r) }

// Blit copies src to dx, dy. With a quarter turn in the state the copy
// is rotated.
func (d *Device) Blit(src bdisp.Rect, dx, dy int) error { return d.emit.Blit(src, dx, dy) }

// Blit2 blends src of the source with the rectangle of the same size at
// sx2, sy2 of the second source and writes the result to dx, dy.
func (d *Device) Blit2(src bdisp.Rect, dx, dy, sx2, sy2 int) error {
	return d.emit.Blit2(src, dx, dy, sx2, sy2)
}

func (d *Device) StretchBlit(src, dst bdisp.Rect) error { return d.emit.StretchBlit(src, dst) }

// RGB32Init sets the alpha of r in the RGB32 surface s to opaque.
func (d *Device) RGB32Init(s *bdisp.Surface, r bdisp.Rect) error { return d.emit.RGB32Init(s, r) }

// RGB32Fixup restores opaque alpha in r of s after an operation that
// wrote it.
func (d *Device) RGB32Fixup(s *bdisp.Surface, r bdisp.Rect) error { return d.emit.RGB32Fixup(s, r) }

// EmitCommands hands all pushed nodes to the engine.
func (d *Device) EmitCommands() { d.ring.Emit() }

// EngineSync waits until the engine is idle.
func (d *Device) EngineSync() error { return d.ring.Sync() }

// Serial returns the serial of the last pushed operation.
func (d *Device) Serial() Serial { return d.ring.Serial() }

// WaitSerial waits until the operation identified by s has executed.
func (d *Device) WaitSerial(s Serial) error { return d.ring.WaitSerial(s) }

// Replay pushes the nodes of the trace on r and hands them to the
// engine. Addresses in the trace are used as recorded, so the surfaces
// must be where they were when it was recorded.
func (d *Device) Replay(r io.Reader) (int, error) {
	n, err := trace.Replay(r, d.ring)
	d.ring.Emit()
	if err != nil {
		return n, fmt.Errorf("bdisp: %w", err)
	}
	d.log.Info("driver: replayed trace", slog.Int("nodes", n))
	return n, nil
}

// Stats returns the counters of the engine and the device.
func (d *Device) Stats() Stats {
	st := Stats{
		Engine:  d.hw.Shared().Stats(),
		Emitted: d.emit.Counters(),
	}
	if d.pal != nil {
		st.PaletteUploads = d.pal.Uploads()
		st.PaletteEvictions = d.pal.Evictions()
	}
	return st
}
