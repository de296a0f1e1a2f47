package filter

import (
	"fmt"
	"strings"
)

// Mode selects the filter support policy.
type Mode uint8

const (
	// Fixed uses a 3x3 support for every output pixel.
	Fixed Mode = iota

	// Variable uses a 3x3 support next to output superblock boundaries and
	// a 5x5 support inside them.
	Variable
)

// String returns the lowercase mode name used on the command line.
func (m Mode) String() string {
	switch m {
	case Fixed:
		return "fixed"
	case Variable:
		return "variable"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// ParseMode parses "fixed" or "variable" (case-insensitive).
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fixed", "3x3":
		return Fixed, nil
	case "variable", "3x3/5x5":
		return Variable, nil
	default:
		return 0, fmt.Errorf("filter: unknown mode %q (want fixed or variable)", s)
	}
}

// Radius returns the support radius for output pixel (x, y): 1 for 3x3,
// 2 for 5x5. block is the output superblock edge used by Variable mode and
// is ignored otherwise.
func Radius(mode Mode, block, x, y int) int {
	if mode != Variable || block <= 0 {
		return 1
	}
	if onBlockEdge(x, block) || onBlockEdge(y, block) {
		return 1
	}
	return 2
}

// onBlockEdge reports whether v is on the first or last row/column of its
// block.
func onBlockEdge(v, block int) bool {
	r := v % block
	return r == 0 || r == block-1
}

// SupportSize returns the number of taps for a support of the given radius.
func SupportSize(radius int) int {
	edge := 2*radius + 1
	return edge * edge
}

// Offsets returns the tap offsets of a square support of the given radius,
// in canonical scan order (dy ascending, then dx ascending).
func Offsets(radius int) [][2]int {
	if radius < 0 {
		radius = 0
	}
	out := make([][2]int, 0, SupportSize(radius))
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			out = append(out, [2]int{dx, dy})
		}
	}
	return out
}
