package prov

import (
	"slices"
	"strings"
)

// Provenance is a flat, canonically ordered list of input coordinates.
// Duplicates are kept: a clamped edge pixel appears once per tap that
// sampled it.
type Provenance []PixelCoord

// Flatten expands r depth-first, left to right, and returns its leaves in
// traversal order. Duplicates are kept.
func Flatten(r Record) []PixelCoord {
	out := make([]PixelCoord, 0, r.LeafCount())
	r.Walk(func(c PixelCoord) {
		out = append(out, c)
	})
	return out
}

// Normalize flattens r and sorts the leaves into canonical scan order.
func Normalize(r Record, stride int) Provenance {
	return Canonical(Flatten(r), stride)
}

// Canonical returns a sorted copy of list. The sort is stable and keyed by
// y*stride + x; equal keys fall back to (y, x) so the result does not depend
// on the input order even for very narrow frames where keys can collide.
func Canonical(list []PixelCoord, stride int) Provenance {
	out := make(Provenance, len(list))
	copy(out, list)
	slices.SortStableFunc(out, func(a, b PixelCoord) int {
		if ka, kb := a.Key(stride), b.Key(stride); ka != kb {
			return ka - kb
		}
		if a.Y != b.Y {
			return a.Y - b.Y
		}
		return a.X - b.X
	})
	return out
}

// Equal reports whether p and q hold the same coordinates at every index.
func (p Provenance) Equal(q Provenance) bool {
	return slices.Equal(p, q)
}

// FirstDiff returns the first index at which p and q differ, or -1 when they
// are equal. A length difference reports the length of the shorter list.
func (p Provenance) FirstDiff(q Provenance) int {
	n := min(len(p), len(q))
	for i := range n {
		if p[i] != q[i] {
			return i
		}
	}
	if len(p) != len(q) {
		return n
	}
	return -1
}

// Count returns how many times c occurs in p.
func (p Provenance) Count(c PixelCoord) int {
	n := 0
	for _, v := range p {
		if v == c {
			n++
		}
	}
	return n
}

// String renders p as a space separated list of coordinates.
func (p Provenance) String() string {
	parts := make([]string, len(p))
	for i, c := range p {
		parts[i] = c.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}
