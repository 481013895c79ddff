package sim

import (
	"github.com/gogpu/bdisp/internal/node"
	"github.com/gogpu/bdisp/internal/reg"
)

// plane addresses one surface of a node.
type plane struct {
	mem   []byte
	base  uint32 // arena offset
	pitch int
	bpp   int
	x, y  int // top left
}

func bytesPerPixel(f reg.ColorForm) int {
	switch f {
	case reg.FormRGB565, reg.FormARGB1555, reg.FormARGB4444, reg.FormYCbCr422R, reg.FormACLUT88:
		return 2
	case reg.FormRGB888, reg.FormARGB8565, reg.FormYCbCr888:
		return 3
	case reg.FormXRGB8888, reg.FormARGB8888, reg.FormAYCbCr8888:
		return 4
	case reg.FormA8, reg.FormCLUT8, reg.FormACLUT44, reg.FormByte:
		return 1
	}
	return 0
}

// rect decodes an XY word and an SZ word. A copy direction moves the
// reference point from the top left corner to the one it names.
func rect(xy, sz, ty uint32) (x, y, w, h int) {
	x = int(int16(xy & 0xffff))
	y = int(int16(xy >> 16))
	w = int(sz & 0x0fff)
	h = int(sz >> 16 & 0x0fff)
	if ty&reg.TyCopyDirRightLeft != 0 {
		x -= w - 1
	}
	if ty&reg.TyCopyDirBottomTop != 0 {
		y -= h - 1
	}
	return x, y, w, h
}

func (e *Engine) plane(ba, ty uint32, x, y int) (plane, bool) {
	bpp := bytesPerPixel(reg.FormOf(ty))
	if bpp == 0 || ba < e.cfg.Base {
		return plane{}, false
	}
	return plane{
		mem:   e.mem,
		base:  ba - e.cfg.Base,
		pitch: int(ty & reg.TyPitchMask),
		bpp:   bpp,
		x:     x,
		y:     y,
	}, true
}

func (p plane) at(x, y int) []byte {
	off := int(p.base) + (p.y+y)*p.pitch + (p.x+x)*p.bpp
	if off < 0 || off+p.bpp > len(p.mem) {
		return nil
	}
	return p.mem[off : off+p.bpp]
}

func load(b []byte) uint32 {
	var v uint32
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint32(b[i])
	}
	return v
}

func store(b []byte, v uint32) {
	for i := range b {
		b[i] = byte(v >> (8 * i))
	}
}

// clip is the inclusive target window, or nil.
type clip struct{ x1, y1, x2, y2 int }

func (c *clip) contains(x, y int) bool {
	return c == nil || (x >= c.x1 && x <= c.x2 && y >= c.y1 && y <= c.y2)
}

// render executes n on the arena. It returns false when the node uses a
// feature that is not simulated; the target is then left untouched.
func (e *Engine) render(n *node.Node) bool {
	ins, ack := n[node.INS], n[node.ACK]
	tx, ty, tw, th := rect(n[node.TXY], n[node.TSZ], n[node.TTY])
	dst, ok := e.plane(n[node.TBA], n[node.TTY], tx, ty)
	if !ok || tw == 0 || th == 0 {
		return false
	}

	var win *clip
	if ins&reg.InsEnableRectClip != 0 && n.Has(reg.CICClip) {
		win = &clip{
			x1: int(n[node.CWO] & 0x7fff), y1: int(n[node.CWO] >> 16 & 0x7fff),
			x2: int(n[node.CWS] & 0x7fff), y2: int(n[node.CWS] >> 16 & 0x7fff),
		}
	}
	unsupported := ins&(reg.InsEnableRotation|reg.InsEnableCLUT|reg.InsEnableColorKey|
		reg.InsEnableIVMX|reg.InsEnableOVMX|reg.InsEnableFlickerFilter) != 0
	if unsupported {
		return false
	}

	src1 := ins & reg.InsSrc1ModeMask
	src2 := ins & reg.InsSrc2ModeMask

	// The plane mask selects the target bits a node may write.
	pmk := ^uint32(0)
	if ins&reg.InsEnablePlaneMask != 0 && n.Has(reg.CICFilters) {
		pmk = n[node.PMK]
	}
	fill := func(f func(d uint32) uint32) {
		e.fill(dst, tw, th, win, func(d uint32) uint32 { return d&^pmk | f(d)&pmk })
	}
	source2 := func(op func(s, d uint32) uint32) bool {
		return e.source2(n, dst, tw, th, win, func(s, d uint32) uint32 { return d&^pmk | op(s, d)&pmk })
	}

	switch src1 {
	case reg.InsSrc1ModeDirectFill:
		e.fill(dst, tw, th, win, func(uint32) uint32 { return n[node.S1CF] })
		return true

	case reg.InsSrc1ModeDirectCopy:
		sx, sy, _, _ := rect(n[node.S1XY], n[node.TSZ], n[node.S1TY])
		src, ok := e.plane(n[node.S1BA], n[node.S1TY], sx, sy)
		if !ok || src.bpp != dst.bpp {
			return false
		}
		e.copyRect(dst, src, tw, th, n[node.TTY]&reg.TyCopyDirBottomTop != 0, win)
		return true
	}

	switch ack & reg.AckModeMask {
	case reg.AckBypassSource2:
		if src2 == reg.InsSrc2ModeColorFill {
			fill(func(uint32) uint32 { return n[node.S2CF] })
			return true
		}
		if src2 != reg.InsSrc2ModeMemory {
			return false
		}
		return source2(func(s, _ uint32) uint32 { return s })

	case reg.AckROP:
		var op func(s, d uint32) uint32
		switch ack & reg.AckROPMask {
		case reg.AckROPXor:
			op = func(s, d uint32) uint32 { return s ^ d }
		case reg.AckROPCopy:
			op = func(s, _ uint32) uint32 { return s }
		case reg.AckROPClear:
			op = func(uint32, uint32) uint32 { return 0 }
		case reg.AckROPSet:
			op = func(uint32, uint32) uint32 { return 0xffffffff }
		default:
			return false
		}
		switch src2 {
		case reg.InsSrc2ModeColorFill:
			c := n[node.S2CF]
			fill(func(d uint32) uint32 { return op(c, d) })
			return true
		case reg.InsSrc2ModeDisabled:
			fill(func(d uint32) uint32 { return op(0, d) })
			return true
		}
		return source2(op)

	case reg.AckBlendSrc2Premult, reg.AckBlendSrc2NPremult:
		if dst.bpp != 4 {
			return false
		}
		premult := ack&reg.AckModeMask == reg.AckBlendSrc2Premult
		ga := ack & reg.AckGlobalAlphaMask >> reg.AckGlobalAlphaShift
		blend := func(s, d uint32) uint32 { return over(s, d, ga, premult) }
		if src2 == reg.InsSrc2ModeColorFill {
			c := n[node.S2CF]
			fill(func(d uint32) uint32 { return blend(c, d) })
			return true
		}
		return source2(blend)
	}
	return false
}

func (e *Engine) fill(dst plane, w, h int, win *clip, f func(d uint32) uint32) {
	for y := range h {
		for x := range w {
			if !win.contains(dst.x+x, dst.y+y) {
				continue
			}
			if p := dst.at(x, y); p != nil {
				store(p, f(load(p)))
			}
		}
	}
}

func (e *Engine) copyRect(dst, src plane, w, h int, bottomUp bool, win *clip) {
	buf := make([]uint32, w)
	row := func(y int) {
		for x := range w {
			buf[x] = 0
			if s := src.at(x, y); s != nil {
				buf[x] = load(s)
			}
		}
		for x := range w {
			if !win.contains(dst.x+x, dst.y+y) {
				continue
			}
			if d := dst.at(x, y); d != nil {
				store(d, buf[x])
			}
		}
	}
	if bottomUp {
		for y := h - 1; y >= 0; y-- {
			row(y)
		}
		return
	}
	for y := range h {
		row(y)
	}
}

// source2 combines a memory source 2 with the target. Each target pixel
// reads the source at its own position along the copy directions of both
// planes. With the resizer enabled the step per target pixel comes from
// RSF and the start skips the lines and pixels fed to the filters as
// pre-fill instead of repeats; otherwise the source is read one to one.
func (e *Engine) source2(n *node.Node, dst plane, w, h int, win *clip, op func(s, d uint32) uint32) bool {
	s2ty := n[node.S2TY]
	if !n.Has(reg.CICSource2) || n[node.S2SZ]&0x0fff == 0 || n[node.S2SZ]>>16&0x0fff == 0 {
		return false
	}
	src, ok := e.plane(n[node.S2BA], s2ty, 0, 0)
	if !ok || src.bpp != dst.bpp {
		return false
	}
	sx := int(int16(n[node.S2XY] & 0xffff))
	sy := int(int16(n[node.S2XY] >> 16))

	hinc, vinc := 1<<10, 1<<10
	var x0, y0, hphase, vphase int
	if n[node.INS]&reg.InsEnable2DRescale != 0 && n.Has(reg.CICFiltersChr) {
		rsf, rzi := n[node.RSF], n[node.RZI]
		hinc, vinc = int(rsf&0xffff), int(rsf>>16)
		x0 = 3 - int(rzi&reg.RZIHRepeatMask>>reg.RZIHRepeatShift)
		y0 = 2 - int(rzi&reg.RZIVRepeatMask>>reg.RZIVRepeatShift)
		hphase = int(rzi & reg.RZIHInitMask >> reg.RZIHInitShift)
		vphase = int(rzi & reg.RZIVInitMask >> reg.RZIVInitShift)
	}
	sign := func(ty, bit uint32) int {
		if ty&bit != 0 {
			return -1
		}
		return 1
	}
	sh, sv := sign(s2ty, reg.TyCopyDirRightLeft), sign(s2ty, reg.TyCopyDirBottomTop)
	tty := n[node.TTY]
	th, tv := sign(tty, reg.TyCopyDirRightLeft), sign(tty, reg.TyCopyDirBottomTop)

	// Read everything first: source and target may overlap.
	buf := make([]uint32, w*h)
	for j := range h {
		y := sy + sv*(y0+(vphase+j*vinc)>>10)
		ty := j
		if tv < 0 {
			ty = h - 1 - j
		}
		for i := range w {
			x := sx + sh*(x0+(hphase+i*hinc)>>10)
			tx := i
			if th < 0 {
				tx = w - 1 - i
			}
			if s := src.at(x, y); s != nil {
				buf[ty*w+tx] = load(s)
			}
		}
	}
	for y := range h {
		for x := range w {
			if !win.contains(dst.x+x, dst.y+y) {
				continue
			}
			if d := dst.at(x, y); d != nil {
				store(d, op(buf[y*w+x], load(d)))
			}
		}
	}
	return true
}

// over blends s onto d. ga is the engine's global alpha, 0x80 being one.
func over(s, d, ga uint32, premult bool) uint32 {
	mul := func(v, a uint32) uint32 { return (v*a + 0x40) >> 7 }
	sa := mul(s>>24, ga)
	var out uint32
	for shift := 0; shift < 32; shift += 8 {
		sc := s >> shift & 0xff
		dc := d >> shift & 0xff
		if shift == 24 {
			sc = sa
		} else if premult {
			sc = mul(sc, ga)
		} else {
			sc = (sc*sa + 0x7f) / 0xff
		}
		v := sc + (dc*(0xff-sa)+0x7f)/0xff
		out |= min(v, 0xff) << shift
	}
	return out
}
