// Package node defines the engine's command node: a register image made of
// groups, of which only those flagged in CIC are stored in memory.
//
// A Node value always holds every group. Encode packs the present groups
// in their fixed order into a ring slot; Decode reverses it.
package node

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/gogpu/bdisp/internal/reg"
)

// Word indexes into a Node.
const (
	// General.
	NIP = iota
	CIC
	INS
	ACK
	// Target.
	TBA
	TTY
	TXY
	TSZ
	// Color.
	S1CF
	S2CF
	// Source 1.
	S1BA
	S1TY
	S1XY
	S1Reserved
	// Source 2.
	S2BA
	S2TY
	S2XY
	S2SZ
	// Source 3.
	S3BA
	S3TY
	S3XY
	S3SZ
	// Clip.
	CWO
	CWS
	// CLUT.
	CCO
	CML
	// Filters.
	RZC
	PMK
	// Chroma (or RGB) resize filters.
	RSF
	RZI
	HFP
	VFP
	// Luma resize filters.
	YRSF
	YRZI
	YHFP
	YVFP
	// Flicker filter.
	FF0
	FF1
	FF2
	FF3
	// Colour key.
	KEY1
	KEY2
	// XYL.
	XYL
	XYP
	// Static addresses.
	SAR
	USR
	// Input and output colour matrices.
	IVMX0
	IVMX1
	IVMX2
	IVMX3
	OVMX0
	OVMX1
	OVMX2
	OVMX3
	// Pace/dot.
	PACE
	VDOT
	HDOT
	PDOT
	// VC1 range mapping.
	VC1R0
	VC1R1
	// Gradient fill.
	GF0
	GF1

	// Words is the number of 32 bit words in a complete node.
	Words
)

// Size is the byte size of a complete node, and of every ring slot.
const Size = Words * 4

// Group is one register group.
type Group struct {
	Name  string
	Bit   uint32 // CIC presence bit, 0 for the groups always present
	First int    // index of the first word
	Len   int    // number of words
}

// Groups lists every group in memory order.
var Groups = [...]Group{
	{"general", 0, NIP, 4},
	{"target", 0, TBA, 4},
	{"color", reg.CICColor, S1CF, 2},
	{"source1", reg.CICSource1, S1BA, 4},
	{"source2", reg.CICSource2, S2BA, 4},
	{"source3", reg.CICSource3, S3BA, 4},
	{"clip", reg.CICClip, CWO, 2},
	{"clut", reg.CICCLUT, CCO, 2},
	{"filters", reg.CICFilters, RZC, 2},
	{"filterschr", reg.CICFiltersChr, RSF, 4},
	{"filtersluma", reg.CICFiltersLuma, YRSF, 4},
	{"flicker", reg.CICFlicker, FF0, 4},
	{"colorkey", reg.CICColorKey, KEY1, 2},
	{"xyl", reg.CICXYL, XYL, 2},
	{"static", reg.CICStatic, SAR, 2},
	{"ivmx", reg.CICIVMX, IVMX0, 4},
	{"ovmx", reg.CICOVMX, OVMX0, 4},
	{"pacedot", reg.CICPaceDot, PACE, 4},
	{"vc1r", reg.CICVC1R, VC1R0, 2},
	{"gradient", reg.CICGradient, GF0, 2},
}

// Node shapes, as CIC masks.
const (
	// Common is present in every node the driver builds.
	Common = reg.CICColor | reg.CICSource1

	// Fast is the direct fill and direct copy node.
	Fast = Common | reg.CICStatic

	// FullFill is the fill node with a colour source.
	FullFill = Common | reg.CICSource2 | reg.CICStatic

	// RGB32Fixup forces alpha to opaque after a pass on an RGB32 target.
	RGB32Fixup = reg.CICSource1 | reg.CICFilters | reg.CICStatic

	// YCbCr422rShortcut clears a YCbCr 4:2:2 raster target.
	YCbCr422rShortcut = reg.CICColor | reg.CICSource2 | reg.CICClip | reg.CICStatic | reg.CICIVMX
)

// Shape classifies a node by its CIC mask.
type Shape uint8

const (
	ShapeComplete Shape = iota
	ShapeFast
	ShapeFullFill
	ShapeRGB32Fixup
	ShapeYCbCr422rShortcut
)

func (s Shape) String() string {
	switch s {
	case ShapeFast:
		return "fast"
	case ShapeFullFill:
		return "fullfill"
	case ShapeRGB32Fixup:
		return "rgb32fixup"
	case ShapeYCbCr422rShortcut:
		return "ycbcr422r"
	}
	return "complete"
}

// ShapeOf classifies cic.
func ShapeOf(cic uint32) Shape {
	switch cic & reg.CICAllOptional {
	case Fast:
		return ShapeFast
	case FullFill:
		return ShapeFullFill
	case RGB32Fixup:
		return ShapeRGB32Fixup
	case YCbCr422rShortcut:
		return ShapeYCbCr422rShortcut
	}
	return ShapeComplete
}

// Node is a complete register image.
type Node [Words]uint32

// Shape returns the shape of n.
func (n *Node) Shape() Shape { return ShapeOf(n[CIC]) }

// Has reports whether the group with CIC bit bit is present.
func (n *Node) Has(bit uint32) bool { return n[CIC]&bit == bit }

// Len returns the number of bytes n occupies when encoded.
func (n *Node) Len() int { return Len(n[CIC]) }

// Len returns the encoded byte size of a node with presence mask cic.
func Len(cic uint32) int {
	words := 0
	for _, g := range Groups {
		if g.Bit == 0 || cic&g.Bit != 0 {
			words += g.Len
		}
	}
	return words * 4
}

// ErrShortBuffer is returned when a buffer cannot hold a node.
var ErrShortBuffer = errors.New("node: buffer too short")

// ErrInvalidCIC is returned for a presence mask with reserved bits set.
var ErrInvalidCIC = errors.New("node: invalid CIC")

func validCIC(cic uint32) error {
	if cic&^(reg.CICAllOptional|reg.CICAlwaysInNode) != 0 {
		return fmt.Errorf("%w %#08x", ErrInvalidCIC, cic)
	}
	return nil
}

// Encode packs the present groups of n into b, little endian, and returns
// the number of bytes used. The NIP word is not written: ring slots are
// linked once and keep their link.
func Encode(n *Node, b []byte) (int, error) {
	if err := validCIC(n[CIC]); err != nil {
		return 0, err
	}
	size := n.Len()
	if len(b) < size {
		return 0, ErrShortBuffer
	}
	off := 4
	for _, g := range Groups {
		if g.Bit != 0 && n[CIC]&g.Bit == 0 {
			continue
		}
		first := g.First
		if first == NIP {
			first = CIC
		}
		for i := first; i < g.First+g.Len; i++ {
			binary.LittleEndian.PutUint32(b[off:], n[i])
			off += 4
		}
	}
	return size, nil
}

// Decode unpacks a node written by Encode, including its NIP. Groups not
// present in CIC are zero.
func Decode(b []byte) (*Node, error) {
	if len(b) < 8 {
		return nil, ErrShortBuffer
	}
	var n Node
	n[NIP] = binary.LittleEndian.Uint32(b)
	n[CIC] = binary.LittleEndian.Uint32(b[4:])
	if err := validCIC(n[CIC]); err != nil {
		return nil, err
	}
	if len(b) < n.Len() {
		return nil, ErrShortBuffer
	}
	off := 0
	for _, g := range Groups {
		if g.Bit != 0 && n[CIC]&g.Bit == 0 {
			continue
		}
		for i := g.First; i < g.First+g.Len; i++ {
			n[i] = binary.LittleEndian.Uint32(b[off:])
			off += 4
		}
	}
	return &n, nil
}

// Strip clears every word of the groups not present in CIC, so that two
// nodes with equal encodings compare equal.
func (n *Node) Strip() {
	for _, g := range Groups {
		if g.Bit != 0 && n[CIC]&g.Bit == 0 {
			clear(n[g.First : g.First+g.Len])
		}
	}
}

// Dump formats the present groups for debugging.
func (n *Node) Dump() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s node", n.Shape())
	for _, g := range Groups {
		if g.Bit != 0 && n[CIC]&g.Bit == 0 {
			continue
		}
		fmt.Fprintf(&sb, " %s[", g.Name)
		for i := g.First; i < g.First+g.Len; i++ {
			if i > g.First {
				sb.WriteByte(' ')
			}
			fmt.Fprintf(&sb, "%08x", n[i])
		}
		sb.WriteByte(']')
	}
	return sb.String()
}

// SanitizeTY clears the copy direction of a TY word.
func SanitizeTY(ty uint32) uint32 { return ty &^ reg.TyCopyDirMask }

// XY packs a coordinate pair the way the XY registers hold it.
func XY(x, y int) uint32 { return uint32(y)<<16 | uint32(x)&0xffff }

// SZ packs a size the way the SZ registers hold it.
func SZ(w, h int) uint32 { return uint32(h&0x0fff)<<16 | uint32(w&0x0fff) }
