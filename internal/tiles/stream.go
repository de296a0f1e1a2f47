package tiles

import "iter"

// Stream enumerates the tiles of a frame in delivery order.
//
// A Stream holds no cursor: every call to All starts a fresh enumeration,
// so the same Stream can be replayed any number of times.
type Stream struct {
	geom Geometry
}

// NewStream creates a stream over the given geometry.
func NewStream(g Geometry) *Stream {
	return &Stream{geom: g}
}

// Geometry returns the geometry the stream enumerates.
func (s *Stream) Geometry() Geometry {
	return s.geom
}

// Len returns the number of tiles the stream yields.
func (s *Stream) Len() int {
	return s.geom.TileCount()
}

// All yields every tile of the frame exactly once: superblocks in raster
// order, tiles in raster order inside each superblock. This order is the
// contract the streaming model depends on.
func (s *Stream) All() iter.Seq[Tile] {
	return func(yield func(Tile) bool) {
		g := s.geom
		per := g.TilesPerSuperBlock()
		for sby := range g.SuperBlocksY() {
			for sbx := range g.SuperBlocksX() {
				for ly := range per {
					for lx := range per {
						if !yield(newTile(g, sbx, sby, lx, ly)) {
							return
						}
					}
				}
			}
		}
	}
}
