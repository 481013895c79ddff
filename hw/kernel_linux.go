//go:build linux

package hw

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

// areaInfo is filled by the shared area ioctl.
type areaInfo struct {
	Physical uint32 // shared page, followed by the node area
	Size     uint32
	RegsPhys uint32
	RegsSize uint32
	MemPhys  uint32 // memory the engine may read and write
	MemSize  uint32

	TablesPhys uint32 // inside the memory range
	TablesSize uint32
}

const (
	iocRead = 2
	iocNone = 0
)

func ioc(dir, nr, size uintptr) uintptr {
	return dir<<30 | size<<16 | uintptr('B')<<8 | nr
}

var (
	ioctlGetArea  = ioc(iocRead, 0x40, unsafe.Sizeof(areaInfo{}))
	ioctlSync     = ioc(iocNone, 0x41, 0)
	ioctlWaitNext = ioc(iocNone, 0x42, 0)
)

type kernel struct {
	mu     sync.Mutex
	fd     int
	info   areaInfo
	page   []byte
	shared *Shared
	nodes  []byte
	regs   []byte
	mem    []byte
}

// OpenKernel maps the engine exported by the framebuffer device at path.
func OpenKernel(path string) (Device, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("hw: open %s: %w", path, err)
	}
	k := &kernel{fd: fd}
	if err := k.ioctl(ioctlGetArea, uintptr(unsafe.Pointer(&k.info))); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("hw: query shared area: %w", err)
	}
	if k.info.Physical == 0 || k.info.Size == 0 {
		unix.Close(fd)
		return nil, fmt.Errorf("hw: %s exports no shared area", path)
	}
	if err := k.mapAll(); err != nil {
		k.Close()
		return nil, err
	}
	return k, nil
}

func (k *kernel) mapAll() error {
	pageSize := unix.Getpagesize()
	var err error
	if k.page, err = k.mmap(k.info.Physical, pageSize); err != nil {
		return fmt.Errorf("hw: map shared area: %w", err)
	}
	k.shared = (*Shared)(unsafe.Pointer(&k.page[0]))
	if k.nodes, err = k.mmap(k.info.Physical+uint32(pageSize), int(k.info.Size)-pageSize); err != nil {
		return fmt.Errorf("hw: map node area: %w", err)
	}
	if k.regs, err = k.mmap(k.info.RegsPhys, int(k.info.RegsSize)); err != nil {
		return fmt.Errorf("hw: map registers: %w", err)
	}
	if k.info.MemSize != 0 {
		if k.mem, err = k.mmap(k.info.MemPhys, int(k.info.MemSize)); err != nil {
			return fmt.Errorf("hw: map memory: %w", err)
		}
	}
	return nil
}

func (k *kernel) mmap(phys uint32, n int) ([]byte, error) {
	return unix.Mmap(k.fd, int64(phys), n, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
}

func (k *kernel) ioctl(req, arg uintptr) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(k.fd), req, arg)
	if errno == 0 {
		return nil
	}
	if errno == unix.EINTR {
		return fmt.Errorf("%w: %w", ErrInterrupted, errno)
	}
	return errno
}

func (k *kernel) Shared() *Shared { return k.shared }
func (k *kernel) Nodes() []byte   { return k.nodes }

func (k *kernel) Tables() (uint32, int) { return k.info.TablesPhys, int(k.info.TablesSize) }

func (k *kernel) Bytes(phys uint32, n int) ([]byte, error) {
	if phys < k.info.MemPhys || uint64(phys-k.info.MemPhys)+uint64(n) > uint64(len(k.mem)) {
		return nil, fmt.Errorf("%w: %#x+%d", ErrBadAddress, phys, n)
	}
	off := phys - k.info.MemPhys
	return k.mem[off : off+uint32(n)], nil
}

func (k *kernel) reg(r Reg) *uint32 {
	return (*uint32)(unsafe.Pointer(&k.regs[r]))
}

func (k *kernel) ReadReg(r Reg) uint32 {
	if int(r)+4 > len(k.regs) {
		return 0
	}
	return *k.reg(r)
}

func (k *kernel) WriteReg(r Reg, v uint32) {
	if int(r)+4 > len(k.regs) {
		return
	}
	*k.reg(r) = v
}

func (k *kernel) WaitIdle() error {
	if k.fd < 0 {
		return ErrClosed
	}
	return k.ioctl(ioctlSync, 0)
}

func (k *kernel) WaitNext() error {
	if k.fd < 0 {
		return ErrClosed
	}
	return k.ioctl(ioctlWaitNext, 0)
}

func (k *kernel) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.fd < 0 {
		return nil
	}
	var errs []error
	for _, m := range [][]byte{k.mem, k.regs, k.nodes, k.page} {
		if m != nil {
			errs = append(errs, unix.Munmap(m))
		}
	}
	k.mem, k.regs, k.nodes, k.page, k.shared = nil, nil, nil, nil, nil
	errs = append(errs, unix.Close(k.fd))
	k.fd = -1
	return errors.Join(errs...)
}
