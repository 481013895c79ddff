package state

import (
	"math/bits"
	"strings"

	"github.com/gogpu/bdisp"
)

// Group is a set of cached register groups. Each bit is revalidated
// independently of the others.
type Group uint32

const (
	GroupDestination Group = 1 << iota
	GroupFillColor
	GroupDstColorKey
	GroupPaletteDraw
	GroupDrawingFlags
	GroupSource
	GroupInputMatrix
	GroupSrcColorKey
	GroupRenderOpts
	GroupPaletteBlit
	GroupBlittingFlags
	GroupBlittingFlagsCKey
	GroupBlitColor
	GroupSrc1Mode
	GroupMatrixConversions
	GroupRotation
	GroupClip

	groupCount = iota

	GroupNone Group = 0
	GroupAll  Group = 1<<groupCount - 1
)

var groupNames = [groupCount]string{
	"DESTINATION", "FILLCOLOR", "DST_COLORKEY", "PALETTE_DRAW", "DRAWINGFLAGS",
	"SOURCE", "INPUTMATRIX", "SRC_COLORKEY", "RENDEROPTS", "PALETTE_BLIT",
	"BLITTINGFLAGS", "BLITTINGFLAGS_CKEY", "BLITCOLOR", "SOURCE_SRC1_MODE",
	"MATRIXCONVERSIONS", "ROTATION", "CLIP",
}

func (g Group) String() string {
	if g == 0 {
		return "NONE"
	}
	var names []string
	for g != 0 {
		i := bits.TrailingZeros32(uint32(g))
		if i >= groupCount {
			names = append(names, "INVALID")
			break
		}
		names = append(names, groupNames[i])
		g &^= 1 << i
	}
	return strings.Join(names, "|")
}

// Each calls f for every group in g, lowest bit first.
func (g Group) Each(f func(Group)) {
	for g != 0 {
		b := g & -g
		f(b)
		g &^= b
	}
}

// notify maps a state change to the groups it invalidates.
var notify = [...]struct {
	mod    bdisp.Modified
	groups Group
}{
	{bdisp.ModDestination, GroupDestination | GroupSrc1Mode | GroupFillColor |
		GroupDstColorKey | GroupPaletteDraw | GroupPaletteBlit |
		GroupDrawingFlags | GroupBlittingFlags},
	{bdisp.ModDrawingFlags, GroupFillColor | GroupDrawingFlags | GroupPaletteDraw},
	{bdisp.ModSrcBlend, GroupFillColor | GroupDrawingFlags | GroupPaletteDraw |
		GroupPaletteBlit | GroupBlittingFlags | GroupBlittingFlagsCKey},
	{bdisp.ModDstBlend, GroupFillColor | GroupDrawingFlags | GroupPaletteDraw |
		GroupPaletteBlit | GroupBlittingFlags | GroupBlittingFlagsCKey},
	{bdisp.ModDstColorKey, GroupDstColorKey},
	{bdisp.ModBlittingFlags, GroupPaletteBlit | GroupBlitColor | GroupMatrixConversions |
		GroupSrc1Mode | GroupBlittingFlags | GroupBlittingFlagsCKey | GroupRotation},
	{bdisp.ModColor, GroupFillColor | GroupBlitColor | GroupMatrixConversions},
	{bdisp.ModClip, GroupClip},
	{bdisp.ModSource, GroupSource | GroupSrc1Mode | GroupSrcColorKey | GroupPaletteBlit |
		GroupBlittingFlags | GroupBlittingFlagsCKey | GroupRenderOpts},
	{bdisp.ModSrcColorKey, GroupSrcColorKey},
	{bdisp.ModRenderOptions, GroupRenderOpts | GroupRotation},
	{bdisp.ModSource2, GroupSrc1Mode},
	{bdisp.ModMatrix, GroupRotation},
}

// Invalidated returns the groups a change of mod invalidates.
func Invalidated(mod bdisp.Modified) Group {
	if mod&bdisp.ModAll == bdisp.ModAll {
		return GroupAll
	}
	var g Group
	for _, n := range notify {
		if mod&n.mod != 0 {
			g |= n.groups
		}
	}
	return g
}

// sideEffects lists the groups revalidating a group invalidates in turn.
// Every entry only names groups that come later in the validation order,
// so one pass in that order leaves nothing dirty.
var sideEffects = map[Group]Group{
	GroupDestination:   GroupSrc1Mode | GroupRotation | GroupInputMatrix | GroupMatrixConversions,
	GroupSource:        GroupSrc1Mode | GroupBlittingFlags | GroupRotation | GroupInputMatrix | GroupMatrixConversions,
	GroupBlittingFlags: GroupBlittingFlagsCKey | GroupSrc1Mode | GroupBlitColor | GroupMatrixConversions,
}

// Validation orders. Destination and the draw colour state come first for
// every operation.
var (
	commonOrder = []Group{GroupDestination, GroupFillColor, GroupDstColorKey}

	drawOrder = []Group{GroupPaletteDraw, GroupDrawingFlags}

	blitOrder = []Group{
		GroupSource, GroupInputMatrix, GroupSrcColorKey, GroupRenderOpts,
		GroupPaletteBlit, GroupBlittingFlags, GroupBlittingFlagsCKey,
		GroupBlitColor, GroupSrc1Mode, GroupMatrixConversions, GroupRotation,
	}
)
