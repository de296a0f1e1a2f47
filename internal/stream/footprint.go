package stream

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/gogpu/downscale/internal/filter"
	"github.com/gogpu/downscale/internal/prov"
	"github.com/gogpu/downscale/internal/tiles"
)

// spill is a partial contribution a tile makes to an output centered in an
// earlier tile. pos indexes the output tile, row-major.
type spill struct {
	pos int
	rec prov.Record
}

// routedSpill is a spill addressed to an output tile.
type routedSpill struct {
	group [2]int
	spill
}

// The four 3x3 sums of a tile. Output (i, j) of the tile is centered on
// tile pixel (2i, 2j); the wiring below is fixed by that geometry.

// p00 covers rows -1..1 and columns -1..1.
func p00(t *tiles.Tile, tc *tileContext) prov.Record {
	return prov.Node(
		tc.above[0],
		tc.left[0].near[0], tc.left[0].near[1],
		leaf(t, 0, 0), leaf(t, 1, 0),
		leaf(t, 0, 1), leaf(t, 1, 1),
	)
}

// p10 covers rows -1..1 and columns 1..3.
func p10(t *tiles.Tile, tc *tileContext) prov.Record {
	return prov.Node(
		tc.above[1],
		leaf(t, 1, 0), leaf(t, 2, 0), leaf(t, 3, 0),
		leaf(t, 1, 1), leaf(t, 2, 1), leaf(t, 3, 1),
	)
}

// p01 covers rows 1..3 and columns -1..1.
func p01(t *tiles.Tile, tc *tileContext) prov.Record {
	return prov.Node(
		tc.left[0].near[1], tc.left[1].near[0], tc.left[1].near[1],
		leaf(t, 0, 1), leaf(t, 1, 1),
		leaf(t, 0, 2), leaf(t, 1, 2),
		leaf(t, 0, 3), leaf(t, 1, 3),
	)
}

// p11 covers rows 1..3 and columns 1..3, all inside the tile.
func p11(t *tiles.Tile) prov.Record {
	return prov.Node(
		leaf(t, 1, 1), leaf(t, 2, 1), leaf(t, 3, 1),
		leaf(t, 1, 2), leaf(t, 2, 2), leaf(t, 3, 2),
		leaf(t, 1, 3), leaf(t, 2, 3), leaf(t, 3, 3),
	)
}

// sum3x3 returns the 3x3 sum for tile-local output (i, j).
func sum3x3(t *tiles.Tile, tc *tileContext, i, j int) prov.Record {
	switch {
	case i == 0 && j == 0:
		return p00(t, tc)
	case i == 1 && j == 0:
		return p10(t, tc)
	case i == 0 && j == 1:
		return p01(t, tc)
	default:
		return p11(t)
	}
}

// part5x5 returns what the center tile knows of the 5x5 sum for output
// (i, j): the above partial for j == 0 and every tap from column -2 to the
// tile's right edge. Column 4 and row 4 arrive later as spills.
//
//	(0,0) above + cols -2..2 x rows 0..2
//	(1,0) above + cols  0..3 x rows 0..2
//	(0,1)         cols -2..2 x rows 0..3
//	(1,1)         cols  0..3 x rows 0..3
func part5x5(t *tiles.Tile, tc *tileContext, i, j int) prov.Record {
	cols := span{-2, 2}
	if i == 1 {
		cols = span{0, 3}
	}
	if j == 1 {
		return window(t, tc, cols, span{0, 3})
	}
	return prov.Node(tc.above[i], window(t, tc, cols, span{0, 2}))
}

// radius returns the support radius of output (x, y).
func (m *Model) radius(x, y int) int {
	return filter.Radius(m.cfg.Mode, m.cfg.Block, x, y)
}

// computeTile produces the merge entry of t: its 2x2 quadrant of output
// records, complete for 3x3 outputs and partial for 5x5 ones.
func (m *Model) computeTile(t *tiles.Tile, tc *tileContext) mergeEntry {
	e := mergeEntry{tileX: t.X, tileY: t.Y}
	for j := range 2 {
		for i := range 2 {
			if m.radius(2*t.X+i, 2*t.Y+j) == 2 {
				e.quad[j*2+i] = part5x5(t, tc, i, j)
			} else {
				e.quad[j*2+i] = sum3x3(t, tc, i, j)
			}
		}
	}
	return e
}

// spillsOf returns the taps t owes 5x5 outputs centered in the tiles left
// of, above, above-left and above-right of it. Column 0 closes the right
// edge of the left tile's supports and row 0 the bottom edge of the
// supports of the row above.
func (m *Model) spillsOf(t *tiles.Tile) ([]routedSpill, error) {
	if m.cfg.Mode != filter.Variable {
		return nil, nil
	}

	var (
		out []routedSpill
		err error
	)
	row, col := t.Row(0), t.Column(0)
	add := func(tx, ty, i, j int, coords ...prov.PixelCoord) {
		if err != nil || tx < 0 || ty < 0 || tx >= m.geom.TilesX() {
			return
		}
		if m.radius(2*tx+i, 2*ty+j) != 2 {
			return
		}
		per := m.geom.TilesPerSuperBlock()
		if tx/per != t.SBX || ty/per != t.SBY {
			err = fmt.Errorf("%w: output (%d,%d) needs tile (%d,%d)",
				ErrSupportCrossesSuperBlock, 2*tx+i, 2*ty+j, t.X, t.Y)
			return
		}
		out = append(out, routedSpill{
			group: [2]int{tx / 2, ty / 2},
			spill: spill{
				pos: (2*(ty%2)+j)*tiles.OutputEdge + 2*(tx%2) + i,
				rec: prov.Leaves(coords...),
			},
		})
	}

	add(t.X-1, t.Y-1, 1, 1, row[0])
	add(t.X, t.Y-1, 0, 1, row[:3]...)
	add(t.X, t.Y-1, 1, 1, row[:]...)
	add(t.X+1, t.Y-1, 0, 1, row[2:]...)
	add(t.X-1, t.Y, 1, 0, col[:3]...)
	add(t.X-1, t.Y, 1, 1, col[:]...)

	return out, err
}

// externalSources counts the tiles outside output tile (gx, gy) that owe
// it spills. The output tile is complete once all of them have delivered.
func (m *Model) externalSources(gx, gy int) int {
	var srcs [][2]int
	add := func(tx, ty int) {
		if tx/2 != gx || ty/2 != gy {
			srcs = append(srcs, [2]int{tx, ty})
		}
	}
	for oy := range tiles.OutputEdge {
		for ox := range tiles.OutputEdge {
			x, y := gx*tiles.OutputEdge+ox, gy*tiles.OutputEdge+oy
			if m.radius(x, y) != 2 {
				continue
			}
			tx, ty, i, j := x/2, y/2, x%2, y%2
			if i == 1 {
				add(tx+1, ty)
			}
			if j == 1 {
				add(tx, ty+1)
				add(tx+2*i-1, ty+1)
			}
		}
	}
	return len(lo.Uniq(srcs))
}
