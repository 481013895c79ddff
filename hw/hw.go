// Package hw is the boundary between the driver and the blit engine: the
// register file, the node memory and the control block shared with the
// interrupt domain.
//
// Two backends exist. OpenKernel maps the engine exported by the kernel
// framebuffer driver; hw/sim executes nodes in software for tests and
// tools.
package hw

import (
	"errors"
	"fmt"
)

// Reg is a register offset in the engine's register file.
type Reg uint32

// Registers used by the driver. The AQ registers belong to the
// application queue the driver was given.
const (
	RegITS Reg = 0x098 // interrupt status
	RegUSR Reg = 0x2b4 // user register of the last node executed

	RegAQCTL Reg = 0xb00
	RegAQIP  Reg = 0xb04 // first node
	RegAQLNA Reg = 0xb08 // last node address
	RegAQSTA Reg = 0xb0c // last node that raised an interrupt
)

func (r Reg) String() string {
	switch r {
	case RegITS:
		return "ITS"
	case RegUSR:
		return "USR"
	case RegAQCTL:
		return "AQ_CTL"
	case RegAQIP:
		return "AQ_IP"
	case RegAQLNA:
		return "AQ_LNA"
	case RegAQSTA:
		return "AQ_STA"
	}
	return fmt.Sprintf("REG(%#x)", uint32(r))
}

// AQ_CTL bits.
const (
	AQCTLPriorityMask     uint32 = 0x3
	AQCTLQueueEnable      uint32 = 1 << 31
	AQCTLEventSuspend     uint32 = 1 << 29
	AQCTLIRQNodeCompleted uint32 = 1 << 23
	AQCTLIRQLNAReached    uint32 = 1 << 21
)

// ITS bits for the application queue.
const (
	ITSNodeCompleted uint32 = 1 << 0
	ITSLNAReached    uint32 = 1 << 1
)

var (
	// ErrInterrupted is wrapped by waits that were interrupted before
	// their condition held. They may be retried.
	ErrInterrupted = errors.New("hw: interrupted")

	// ErrClosed is returned by a closed device.
	ErrClosed = errors.New("hw: device closed")

	// ErrBadAddress is returned for memory ranges the device does not map.
	ErrBadAddress = errors.New("hw: address not mapped")
)

// Device is an engine instance.
type Device interface {
	// Shared returns the control block shared with the interrupt domain.
	Shared() *Shared

	// Nodes returns the node area. Offset 0 is at Shared().NodesPhys.
	Nodes() []byte

	// Bytes returns n bytes of device memory at physical address phys.
	Bytes(phys uint32, n int) ([]byte, error)

	// Tables returns the memory set aside for palettes and filter
	// coefficients.
	Tables() (phys uint32, n int)

	ReadReg(r Reg) uint32
	WriteReg(r Reg, v uint32)

	// WaitIdle blocks until the engine cleared Running.
	WaitIdle() error

	// WaitNext blocks until LastFree differs from NextFree.
	WaitNext() error

	Close() error
}

// Snapshot is a register dump taken for error reports.
type Snapshot struct {
	CTL, IP, LNA, STA uint32
}

// TakeSnapshot reads the queue registers of d.
func TakeSnapshot(d Device) Snapshot {
	return Snapshot{
		CTL: d.ReadReg(RegAQCTL),
		IP:  d.ReadReg(RegAQIP),
		LNA: d.ReadReg(RegAQLNA),
		STA: d.ReadReg(RegAQSTA),
	}
}
