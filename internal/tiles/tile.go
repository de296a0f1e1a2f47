// Package tiles describes how an input frame is cut into superblocks and
// 4x4 tiles, and enumerates those tiles in hardware delivery order.
//
// The frame is divided into SxS superblocks, each holding (S/4)x(S/4) tiles.
// Superblocks arrive in raster order; inside a superblock, tiles arrive in
// raster order; inside a tile, pixels are listed in raster order.
//
// Tiles are stored in a flat array for cache efficiency, accessed via
// index calculation: index = row*Edge + col.
package tiles

import "github.com/gogpu/downscale/internal/prov"

// Tile size constants.
const (
	// Edge is the width and height of a tile in input pixels.
	Edge = 4

	// Size is the number of pixels in a tile.
	Size = Edge * Edge

	// OutputEdge is the width and height of an output tile in output pixels.
	// One output tile is produced from a 2x2 group of input tiles.
	OutputEdge = 4
)

// Tile is one 4x4 block of input pixels as delivered by the stream.
type Tile struct {
	// X is the tile column index in the frame (0-based).
	X int

	// Y is the tile row index in the frame (0-based).
	Y int

	// SBX and SBY index the superblock that owns the tile.
	SBX int
	SBY int

	// LX and LY are the tile coordinates inside its superblock.
	LX int
	LY int

	// Pixels holds the input coordinates of the tile, row-major.
	Pixels [Size]prov.PixelCoord
}

// At returns the pixel at tile-local column col and row row.
func (t *Tile) At(col, row int) prov.PixelCoord {
	return t.Pixels[row*Edge+col]
}

// Origin returns the input coordinate of the tile's top-left pixel.
func (t *Tile) Origin() (x, y int) {
	return t.X * Edge, t.Y * Edge
}

// Column returns the four pixels of tile-local column col, top to bottom.
func (t *Tile) Column(col int) [Edge]prov.PixelCoord {
	var out [Edge]prov.PixelCoord
	for row := range Edge {
		out[row] = t.At(col, row)
	}
	return out
}

// Row returns the four pixels of tile-local row row, left to right.
func (t *Tile) Row(row int) [Edge]prov.PixelCoord {
	var out [Edge]prov.PixelCoord
	copy(out[:], t.Pixels[row*Edge:(row+1)*Edge])
	return out
}

// newTile fills a tile with the coordinates it covers.
func newTile(g Geometry, sbx, sby, lx, ly int) Tile {
	per := g.TilesPerSuperBlock()
	t := Tile{
		X:   sbx*per + lx,
		Y:   sby*per + ly,
		SBX: sbx,
		SBY: sby,
		LX:  lx,
		LY:  ly,
	}
	ox, oy := t.Origin()
	for row := range Edge {
		for col := range Edge {
			t.Pixels[row*Edge+col] = prov.Pt(ox+col, oy+row)
		}
	}
	return t
}
