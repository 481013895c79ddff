package driver

import (
	"io"
	"log/slog"

	"github.com/gogpu/bdisp"
)

// Option configures a Device during Open.
//
// Example:
//
//	// Engine generation read from the shared block
//	dev, err := driver.Open(hwdev)
//
//	// Forced generation, bank checking and hardware clipping
//	dev, err := driver.Open(hwdev,
//		driver.WithVariant(bdisp.VariantBDisp2),
//		driver.WithBankCheck(true),
//		driver.WithHWClip(true))
type Option func(*options)

// options holds the configuration collected from Options.
type options struct {
	variant     bdisp.Variant
	logger      *slog.Logger
	bankCheck   bool
	hwClip      bool
	smoothScale bool
	irqDelay    int
	queue       int
	trace       io.Writer
	attach      bool
}

// defaultOptions returns the configuration used without options.
func defaultOptions() options {
	return options{
		hwClip: true,
	}
}

// WithVariant selects the engine generation instead of reading it from
// the shared block. Use it for devices whose kernel does not report one.
func WithVariant(v bdisp.Variant) Option {
	return func(o *options) {
		o.variant = v
	}
}

// WithLogger sets the logger of the device and everything it creates.
// Without it the device uses bdisp.Logger at the time of Open.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithBankCheck makes the device refuse operations touching memory on
// both sides of a 64 MB bank boundary. The second generation engine
// cannot cross them.
func WithBankCheck(on bool) Option {
	return func(o *options) {
		o.bankCheck = on
	}
}

// WithHWClip controls whether the clip rectangle of the state is
// programmed into nodes. It is on by default. Callers that clip
// geometry themselves can turn it off to save the clip group in every
// node.
func WithHWClip(on bool) Option {
	return func(o *options) {
		o.hwClip = on
	}
}

// WithSmoothScale forces filtered scaling for every stretch, regardless
// of the render options of the state.
func WithSmoothScale(on bool) Option {
	return func(o *options) {
		o.smoothScale = on
	}
}

// WithIRQDelay sets the number of operations between node completed
// interrupts. Zero selects a quarter of the ring.
func WithIRQDelay(n int) Option {
	return func(o *options) {
		o.irqDelay = n
	}
}

// WithQueue selects the application queue, 0 to 3. Lower queues have
// higher priority.
func WithQueue(q int) Option {
	return func(o *options) {
		o.queue = q
	}
}

// WithTrace records every node the device pushes to w. The trace is
// flushed by Close.
//
// Example:
//
//	f, _ := os.Create("fill.trace")
//	defer f.Close()
//	dev, err := driver.Open(hwdev, driver.WithTrace(f))
func WithTrace(w io.Writer) Option {
	return func(o *options) {
		o.trace = w
	}
}

// WithAttach joins an engine another Device has already opened instead of
// taking it over. The attached Device shares the ring and the tables of
// the first one but leaves the dynamic palette slots to it, so palette
// based operations fall back to the CPU. Open fails with
// ring.ErrNotInitialised if no Device has set up the engine.
//
// Example:
//
//	first, err := driver.Open(hwdev)
//	...
//	second, err := driver.Open(hwdev2, driver.WithAttach())
func WithAttach() Option {
	return func(o *options) {
		o.attach = true
	}
}
