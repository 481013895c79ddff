// Command bdispdemo renders a test picture on simulated blit engines.
//
// Every engine draws the same scene in parallel and writes it to a PNG
// file. The nodes of the first engine can be recorded to a trace and
// played back later with -replay.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image/png"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/gogpu/bdisp"
	"github.com/gogpu/bdisp/driver"
	"github.com/gogpu/bdisp/hw/sim"
	"github.com/gogpu/bdisp/internal/trace"
)

type config struct {
	variant       bdisp.Variant
	width, height int
	output        string
	trace         string
}

func main() {
	var (
		devices  = flag.Int("devices", 2, "number of simulated engines")
		variant  = flag.Int("variant", 2, "engine generation, 1 or 2")
		width    = flag.Int("width", 320, "picture width")
		height   = flag.Int("height", 240, "picture height")
		output   = flag.String("output", "bdisp.png", "output file, numbered when there is more than one engine")
		traceOut = flag.String("trace", "", "record the nodes of the first engine to this file")
		replay   = flag.String("replay", "", "replay a trace instead of drawing")
		logDir   = flag.String("logdir", "", "directory of the rotating JSON log; empty logs to stderr")
		level    = flag.String("level", "info", "log level: debug, info, warn or error")
	)
	flag.Parse()

	logger, closer, err := newLogger(*logDir, *level)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer closer.Close()
	bdisp.SetLogger(logger)

	cfg := config{
		variant: bdisp.Variant(*variant),
		width:   *width,
		height:  *height,
		output:  *output,
		trace:   *traceOut,
	}

	if *replay != "" {
		if err := replayTrace(cfg, *replay, logger); err != nil {
			log.Fatalf("Replay failed: %v", err)
		}
		return
	}

	eg, ctx := errgroup.WithContext(context.Background())
	for i := range *devices {
		eg.Go(func() error {
			out := cfg.output
			if *devices > 1 {
				out = numbered(out, i)
			}
			l := logger.With(slog.Int("device", i))
			if err := render(ctx, cfg, i == 0, out, l); err != nil {
				return fmt.Errorf("device %d: %w", i, err)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		log.Fatalf("Demo failed: %v", err)
	}
	log.Printf("Rendered %d picture(s) of %dx%d\n", *devices, cfg.width, cfg.height)
}

// newLogger returns a text logger on stderr, or a JSON logger writing to a
// rotating file in dir.
func newLogger(dir, level string) (*slog.Logger, io.Closer, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, nil, err
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if dir == "" {
		return slog.New(slog.NewTextHandler(os.Stderr, opts)), io.NopCloser(os.Stderr), nil
	}
	w := &lumberjack.Logger{
		Filename:   filepath.Join(dir, "bdispdemo.slog"),
		MaxSize:    32, // MB
		MaxBackups: 2,
	}
	if lvl == slog.LevelDebug {
		w.MaxSize = 256
	}
	return slog.New(slog.NewJSONHandler(w, opts)), w, nil
}

func numbered(path string, i int) string {
	ext := filepath.Ext(path)
	return fmt.Sprintf("%s-%d%s", strings.TrimSuffix(path, ext), i, ext)
}

// engineConfig sizes a simulated engine for the picture. Recording and
// replay must use the same one so that addresses match.
func engineConfig(cfg config) sim.Config {
	sc := sim.DefaultConfig()
	sc.Device = uint32(cfg.variant)
	sc.MemSize = max(sc.MemSize, 4*cfg.width*cfg.height+2*4*checker*checker+4096)
	return sc
}

// canvas is the engine memory of one picture.
type canvas struct {
	dst *bdisp.Surface
	src *bdisp.Surface
}

func allocCanvas(eng *sim.Engine, cfg config) (canvas, error) {
	alloc := func(w, h int) (*bdisp.Surface, error) {
		s := &bdisp.Surface{Format: bdisp.FormatARGB, Width: w, Height: h, Pitch: 4 * w}
		phys, err := eng.Alloc(s.Size(), 64)
		if err != nil {
			return nil, err
		}
		s.Phys = phys
		return s, nil
	}
	dst, err := alloc(cfg.width, cfg.height)
	if err != nil {
		return canvas{}, err
	}
	src, err := alloc(checker, checker)
	if err != nil {
		return canvas{}, err
	}
	return canvas{dst: dst, src: src}, nil
}

func render(ctx context.Context, cfg config, record bool, out string, l *slog.Logger) error {
	eng := sim.New(engineConfig(cfg))
	cv, err := allocCanvas(eng, cfg)
	if err != nil {
		return err
	}

	opts := []driver.Option{driver.WithLogger(l), driver.WithBankCheck(cfg.variant == bdisp.VariantBDisp2)}
	if record && cfg.trace != "" {
		f, err := os.Create(cfg.trace)
		if err != nil {
			return err
		}
		defer f.Close()
		opts = append(opts, driver.WithTrace(f))
	}
	dev, err := driver.Open(eng, opts...)
	if err != nil {
		return err
	}
	// Close flushes the trace, so it runs before the file is closed.
	defer dev.Close()

	sw := bdisp.NewSoftware(eng)
	if err := paintChecker(sw, cv.src); err != nil {
		return err
	}
	st := bdisp.NewState(cv.dst)
	r := bdisp.NewRendererOn(st, eng, dev)
	if err := drawScene(ctx, r, cv); err != nil {
		return err
	}
	if err := r.Sync(); err != nil {
		return err
	}

	if err := writePNG(sw, cv.dst, out); err != nil {
		return err
	}
	stats := dev.Stats()
	l.Info("bdispdemo: picture written",
		slog.String("file", out),
		slog.Uint64("ops", stats.Engine.Ops),
		slog.Uint64("nodes", stats.Emitted.Nodes),
		slog.Uint64("fallbacks", stats.Emitted.Fallbacks),
		slog.Int("ignored", eng.Ignored()))
	return nil
}

func replayTrace(cfg config, path string, l *slog.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	tr, err := trace.NewReader(f)
	if err != nil {
		return err
	}
	h := tr.Header()
	tr.Close()
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}

	cfg.variant = variantNamed(h.Variant)
	if cfg.variant == 0 {
		return fmt.Errorf("trace of unknown engine %q", h.Variant)
	}
	eng := sim.New(engineConfig(cfg))
	cv, err := allocCanvas(eng, cfg)
	if err != nil {
		return err
	}
	dev, err := driver.Open(eng, driver.WithLogger(l), driver.WithVariant(cfg.variant))
	if err != nil {
		return err
	}
	defer dev.Close()

	n, err := dev.Replay(f)
	if err != nil {
		return err
	}
	if err := dev.EngineSync(); err != nil {
		return err
	}
	l.Info("bdispdemo: trace replayed", slog.Int("nodes", n), slog.String("variant", h.Variant))
	return writePNG(bdisp.NewSoftware(eng), cv.dst, cfg.output)
}

func variantNamed(name string) bdisp.Variant {
	for _, v := range []bdisp.Variant{bdisp.VariantBDisp, bdisp.VariantBDisp2} {
		if v.String() == name {
			return v
		}
	}
	return 0
}

func writePNG(sw *bdisp.Software, s *bdisp.Surface, path string) (err error) {
	img, err := sw.Image(s)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()
	return png.Encode(f, img)
}
