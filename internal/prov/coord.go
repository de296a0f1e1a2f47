// Package prov holds the provenance types shared by the reference filter,
// the streaming model and the equivalence checker.
//
// A provenance is the multiset of input pixel coordinates that feed one
// output pixel. The streaming model builds it as a nested Record; the
// reference filter builds it as a flat list. Normalize reduces both to the
// same canonical Provenance so they can be compared element by element.
package prov

import "fmt"

// PixelCoord is an input pixel location. Coordinates are 0-based with the
// origin at the top-left of the frame.
type PixelCoord struct {
	X int
	Y int
}

// Pt is shorthand for PixelCoord{X: x, Y: y}.
func Pt(x, y int) PixelCoord {
	return PixelCoord{X: x, Y: y}
}

// String returns the coordinate as "(x,y)".
func (c PixelCoord) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// Key returns the scan-order key y*stride + x.
func (c PixelCoord) Key(stride int) int {
	return c.Y*stride + c.X
}

// Clamp moves c to the nearest coordinate inside a width x height frame.
func (c PixelCoord) Clamp(width, height int) PixelCoord {
	return PixelCoord{X: clampInt(c.X, 0, width-1), Y: clampInt(c.Y, 0, height-1)}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
