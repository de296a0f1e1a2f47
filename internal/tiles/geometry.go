package tiles

import (
	"errors"
	"fmt"
)

// ErrInvalidGeometry is wrapped by every GeometryError.
var ErrInvalidGeometry = errors.New("tiles: invalid geometry")

// GeometryError reports which dimension broke which constraint.
type GeometryError struct {
	Field  string
	Value  int
	Reason string
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("tiles: invalid geometry: %s=%d: %s", e.Field, e.Value, e.Reason)
}

// Unwrap returns ErrInvalidGeometry.
func (e *GeometryError) Unwrap() error {
	return ErrInvalidGeometry
}

// Geometry is a validated frame / superblock layout.
//
// The zero Geometry is not valid; use NewGeometry.
type Geometry struct {
	width      int
	height     int
	superBlock int
}

// NewGeometry validates a frame of width x height input pixels split into
// superBlock x superBlock superblocks.
//
// Constraints: dimensions positive, even and multiples of the superblock;
// superblock a multiple of one tile. Two further rules are limits of the
// model rather than of the filter: a superblock wider than one tile must
// span an even number of tiles, so 2x2 tile groups never straddle
// superblocks, and dimensions must be multiples of 8, so the output frame is
// a whole number of 4x4 output tiles.
func NewGeometry(width, height, superBlock int) (Geometry, error) {
	switch {
	case superBlock < Edge:
		return Geometry{}, &GeometryError{"superblock", superBlock, fmt.Sprintf("must be at least %d", Edge)}
	case superBlock%Edge != 0:
		return Geometry{}, &GeometryError{"superblock", superBlock, fmt.Sprintf("must be a multiple of %d", Edge)}
	case superBlock != Edge && superBlock%(2*Edge) != 0:
		return Geometry{}, &GeometryError{"superblock", superBlock,
			fmt.Sprintf("model limitation: must be %d or a multiple of %d (whole 2x2 tile groups)", Edge, 2*Edge)}
	}

	for _, d := range []struct {
		name string
		v    int
	}{{"width", width}, {"height", height}} {
		switch {
		case d.v <= 0:
			return Geometry{}, &GeometryError{d.name, d.v, "must be positive"}
		case d.v%2 != 0:
			return Geometry{}, &GeometryError{d.name, d.v, "must be even"}
		case d.v%superBlock != 0:
			return Geometry{}, &GeometryError{d.name, d.v, fmt.Sprintf("must be a multiple of the superblock edge %d", superBlock)}
		case d.v%(2*OutputEdge) != 0:
			return Geometry{}, &GeometryError{d.name, d.v, fmt.Sprintf("model limitation: must be a multiple of %d (whole 4x4 output tiles)", 2*OutputEdge)}
		}
	}

	return Geometry{width: width, height: height, superBlock: superBlock}, nil
}

// Width returns the input frame width in pixels.
func (g Geometry) Width() int { return g.width }

// Height returns the input frame height in pixels.
func (g Geometry) Height() int { return g.height }

// SuperBlock returns the superblock edge in input pixels.
func (g Geometry) SuperBlock() int { return g.superBlock }

// OutputWidth returns the downscaled frame width.
func (g Geometry) OutputWidth() int { return g.width / 2 }

// OutputHeight returns the downscaled frame height.
func (g Geometry) OutputHeight() int { return g.height / 2 }

// TilesPerSuperBlock returns the number of tiles along one superblock edge.
func (g Geometry) TilesPerSuperBlock() int { return g.superBlock / Edge }

// SuperBlocksX returns the number of superblock columns.
func (g Geometry) SuperBlocksX() int { return g.width / g.superBlock }

// SuperBlocksY returns the number of superblock rows.
func (g Geometry) SuperBlocksY() int { return g.height / g.superBlock }

// TilesX returns the number of tile columns in the frame.
func (g Geometry) TilesX() int { return g.width / Edge }

// TilesY returns the number of tile rows in the frame.
func (g Geometry) TilesY() int { return g.height / Edge }

// TileCount returns the total number of tiles in the frame.
func (g Geometry) TileCount() int { return g.TilesX() * g.TilesY() }

// OutputTilesX returns the number of output tile columns.
func (g Geometry) OutputTilesX() int { return g.OutputWidth() / OutputEdge }

// OutputTilesY returns the number of output tile rows.
func (g Geometry) OutputTilesY() int { return g.OutputHeight() / OutputEdge }

// Order returns the superblock and in-superblock coordinates of the i-th tile
// of the stream. ok is false when i is outside the stream.
func (g Geometry) Order(i int) (sbx, sby, lx, ly int, ok bool) {
	if i < 0 || i >= g.TileCount() {
		return 0, 0, 0, 0, false
	}
	per := g.TilesPerSuperBlock()
	perSB := per * per
	sb, local := i/perSB, i%perSB
	sbx, sby = sb%g.SuperBlocksX(), sb/g.SuperBlocksX()
	lx, ly = local%per, local/per
	return sbx, sby, lx, ly, true
}

// String returns "WxH/S".
func (g Geometry) String() string {
	return fmt.Sprintf("%dx%d/%d", g.width, g.height, g.superBlock)
}
