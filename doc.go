// Package bdisp is the driver core for BDisp class 2D blit engines.
//
// A BDisp engine executes a linked ring of command nodes. Each node
// describes one fill, copy, scale, rotation or blend over up to three
// sources and is built from groups of 32 bit registers. This package holds
// the vocabulary shared by the driver: pixel formats, drawing and blitting
// flags, blend functions, surfaces and the graphics State, plus the
// Accelerator registry and a CPU fallback.
//
// # Architecture
//
//   - driver: the public device. Checks and validates state, emits nodes.
//   - hw: the kernel interface and the shared control block.
//   - hw/sim: a software model of the engine used by tests and the demo.
//
// # Quick Start
//
//	dev, err := driver.Open(sim.New(sim.DefaultConfig()))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer dev.Close()
//
//	st := bdisp.NewState(dst)
//	st.Color = bdisp.Opaque(0xff, 0, 0)
//	if dev.CheckState(st, bdisp.AccelFillRectangle) != 0 {
//	    _ = dev.SetState(st, bdisp.ModAll, bdisp.AccelFillRectangle)
//	    _ = dev.FillRectangle(bdisp.R(0, 0, 10, 10))
//	}
//	dev.EmitCommands()
//	_ = dev.EngineSync()
//
// Operations the engine cannot perform return an error wrapping
// ErrFallbackToCPU. Renderer hides this by retrying on the CPU.
//
// # Logging
//
// Nothing is logged by default. See SetLogger.
package bdisp
