package stream

import (
	"fmt"

	"github.com/gogpu/downscale/internal/prov"
	"github.com/gogpu/downscale/internal/tiles"
)

// quadrant holds the 2x2 output records one input tile produces, row-major.
type quadrant [4]prov.Record

// mergeEntry is what a tile hands to the merge stage: its quadrant plus the
// spills it owes 5x5 outputs of its own group.
type mergeEntry struct {
	tileX  int
	tileY  int
	quad   quadrant
	spills []spill
}

// group returns the output tile index the entry belongs to.
func (e *mergeEntry) group() (x, y int) {
	return e.tileX / 2, e.tileY / 2
}

// pendingHalf is the left half of an output tile, held by the odd-row,
// even-column tile until its odd-column neighbor arrives.
type pendingHalf struct {
	top    mergeEntry
	bottom mergeEntry
}

// OutputTile is one finished 4x4 block of output records.
type OutputTile struct {
	// X and Y are the output tile indices; the tile covers output pixels
	// [4X, 4X+4) x [4Y, 4Y+4).
	X int
	Y int

	// SBX and SBY index the superblock of the input tile that completed
	// this output tile.
	SBX int
	SBY int

	// Records holds the output records, row-major.
	Records [tiles.OutputEdge * tiles.OutputEdge]prov.Record
}

// Origin returns the output coordinate of the top-left record.
func (o *OutputTile) Origin() (x, y int) {
	return o.X * tiles.OutputEdge, o.Y * tiles.OutputEdge
}

// At returns the record at output-tile-local column col and row row.
func (o *OutputTile) At(col, row int) prov.Record {
	return o.Records[row*tiles.OutputEdge+col]
}

// assemble interleaves the four quadrants of a group into one output tile
// and folds every spill into the record it targets.
func assemble(entries [4]mergeEntry, sbx, sby int) (OutputTile, error) {
	gx, gy := entries[0].group()
	out := OutputTile{X: gx, Y: gy, SBX: sbx, SBY: sby}

	var seen uint8
	for _, e := range entries {
		if x, y := e.group(); x != gx || y != gy {
			return out, fmt.Errorf("%w: tile (%d,%d) in output tile (%d,%d)",
				ErrMergeMismatch, e.tileX, e.tileY, gx, gy)
		}
		slot := uint8(1) << ((e.tileY%2)*2 + e.tileX%2)
		if seen&slot != 0 {
			return out, fmt.Errorf("%w: quadrant of tile (%d,%d) delivered twice",
				ErrMergeMismatch, e.tileX, e.tileY)
		}
		seen |= slot
		qx, qy := (e.tileX%2)*2, (e.tileY%2)*2
		for j := range 2 {
			for i := range 2 {
				out.Records[(qy+j)*tiles.OutputEdge+qx+i] = e.quad[j*2+i]
			}
		}
	}

	for _, e := range entries {
		fold(&out, e.spills)
	}

	return out, nil
}
