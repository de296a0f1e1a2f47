package stream

import (
	"github.com/gogpu/downscale/internal/prov"
	"github.com/gogpu/downscale/internal/tiles"
)

// tapPair is two vertically adjacent taps of one input column, rows 2k and
// 2k+1 of a tile.
type tapPair [2]prov.Record

// leftCell is one left-context cell: the two input columns just left of a
// tile for one output row band. near is column -1 and far column -2; far is
// only read by 5x5 supports.
type leftCell struct {
	near tapPair
	far  tapPair
}

// tileContext is the context a single tile reads before computing.
type tileContext struct {
	// left holds columns -2 and -1 for rows 0..1 and 2..3 of the tile.
	left [2]leftCell

	// above holds the partials of the rows above the tile for output
	// columns 0 and 1: one row for a 3x3 support, two rows for a 5x5.
	above [2]prov.Record
}

// contextBuffers is the carried state of the model. Every slice is sized by
// the superblock edge at construction and never grows.
type contextBuffers struct {
	// above is the aboveContext arena: one cell per output column of the
	// current superblock, overwritten in place as tile rows advance.
	above []prov.Record

	// left is the leftContext array: one cell per output row of the current
	// superblock row, written by the right-edge tiles of a superblock and
	// read by the left-edge tiles of the next one.
	left []leftCell

	// carry hands the right columns of a tile to the next tile of the same
	// superblock row.
	carry [2]leftCell

	// corner is the cornerContext: the top-right tap of the last tile
	// processed in the frame's first tile row.
	corner prov.Record
}

func newContextBuffers(superBlock int) contextBuffers {
	return contextBuffers{
		above: make([]prov.Record, superBlock/2),
		left:  make([]leftCell, superBlock/2),
	}
}

// resetLeft clears the leftContext array at the start of a superblock row.
func (c *contextBuffers) resetLeft() {
	clear(c.left)
	c.carry = [2]leftCell{}
}

// gather builds the context of t.
//
// Frame-left tiles seed the left taps from their own left column and
// frame-top tiles seed the above partials from the corner cell and their own
// top row, which reproduces clamp-to-edge without looking outside the tile.
// Supports wider than 3x3 never touch a frame edge.
func (c *contextBuffers) gather(t *tiles.Tile) tileContext {
	var tc tileContext

	switch {
	case t.X == 0:
		for i := range 2 {
			edge := tapPair{leaf(t, 0, 2*i), leaf(t, 0, 2*i+1)}
			tc.left[i] = leftCell{near: edge, far: edge}
		}
	case t.LX == 0:
		tc.left[0] = c.left[2*t.LY]
		tc.left[1] = c.left[2*t.LY+1]
	default:
		tc.left = c.carry
	}

	if t.Y == 0 {
		corner := c.corner
		if t.X == 0 {
			corner = leaf(t, 0, 0)
		}
		tc.above[0] = prov.Node(corner, leaf(t, 0, 0), leaf(t, 1, 0))
		tc.above[1] = prov.Node(leaf(t, 1, 0), leaf(t, 2, 0), leaf(t, 3, 0))
	} else {
		tc.above[0] = c.above[2*t.LX]
		tc.above[1] = c.above[2*t.LX+1]
	}

	return tc
}

// carryDown returns the above partials for the tile directly below t. radius
// holds the support radius of the two outputs that tile centers on its top
// row. A 5x5 partial for output column 1 still lacks column 4, which the
// right neighbor of t adds before the tile below reads it.
func carryDown(t *tiles.Tile, tc *tileContext, radius [2]int) [2]prov.Record {
	var down [2]prov.Record
	if radius[0] == 2 {
		down[0] = window(t, tc, span{-2, 2}, span{2, 3})
	} else {
		down[0] = prov.Node(tc.left[1].near[1], leaf(t, 0, 3), leaf(t, 1, 3))
	}
	if radius[1] == 2 {
		down[1] = window(t, tc, span{0, 3}, span{2, 3})
	} else {
		down[1] = prov.Node(leaf(t, 1, 3), leaf(t, 2, 3), leaf(t, 3, 3))
	}
	return down
}

// carryRight returns the left cells for the tile directly right of t.
func carryRight(t *tiles.Tile) [2]leftCell {
	var out [2]leftCell
	for i := range 2 {
		out[i] = leftCell{
			near: tapPair{leaf(t, 3, 2*i), leaf(t, 3, 2*i+1)},
			far:  tapPair{leaf(t, 2, 2*i), leaf(t, 2, 2*i+1)},
		}
	}
	return out
}

// span is an inclusive range of tile-local rows or columns.
type span struct {
	lo, hi int
}

// pixel returns the tap at tile-local (col, row). Columns -1 and -2 come
// from the left context.
func pixel(t *tiles.Tile, tc *tileContext, col, row int) prov.Record {
	switch col {
	case -1:
		return tc.left[row/2].near[row%2]
	case -2:
		return tc.left[row/2].far[row%2]
	}
	return leaf(t, col, row)
}

// window combines every tap of cols x rows, row by row.
func window(t *tiles.Tile, tc *tileContext, cols, rows span) prov.Record {
	terms := make([]prov.Record, 0, (cols.hi-cols.lo+1)*(rows.hi-rows.lo+1))
	for row := rows.lo; row <= rows.hi; row++ {
		for col := cols.lo; col <= cols.hi; col++ {
			terms = append(terms, pixel(t, tc, col, row))
		}
	}
	return prov.Node(terms...)
}

func leaf(t *tiles.Tile, col, row int) prov.Record {
	return prov.Leaf(t.At(col, row))
}
