package prov

import "strings"

// recordKind tags the variant held by a Record.
type recordKind uint8

const (
	kindNode recordKind = iota
	kindLeaf
)

// Record is a contribution record: either a single input pixel (leaf) or an
// ordered list of sub-records (node).
//
// Records are immutable values. Node copies its terms, so a record handed to
// a context buffer or a FIFO can never be changed by its producer afterwards.
// The zero Record is an empty node.
type Record struct {
	kind  recordKind
	coord PixelCoord
	terms []Record
}

// Leaf returns a record holding a single input pixel.
func Leaf(c PixelCoord) Record {
	return Record{kind: kindLeaf, coord: c}
}

// Node returns a record whose terms are the given records, in order.
func Node(terms ...Record) Record {
	if len(terms) == 0 {
		return Record{}
	}
	return Record{kind: kindNode, terms: append([]Record(nil), terms...)}
}

// Leaves returns a node of leaf records, one per coordinate.
func Leaves(coords ...PixelCoord) Record {
	terms := make([]Record, len(coords))
	for i, c := range coords {
		terms[i] = Leaf(c)
	}
	return Record{kind: kindNode, terms: terms}
}

// IsLeaf reports whether r holds a single pixel.
func (r Record) IsLeaf() bool {
	return r.kind == kindLeaf
}

// IsEmpty reports whether r contributes no pixels at all.
func (r Record) IsEmpty() bool {
	return r.LeafCount() == 0
}

// Coord returns the pixel of a leaf record. The second result is false for
// nodes.
func (r Record) Coord() (PixelCoord, bool) {
	return r.coord, r.kind == kindLeaf
}

// Terms returns a copy of the terms of a node record; nil for leaves.
func (r Record) Terms() []Record {
	if r.kind == kindLeaf {
		return nil
	}
	return append([]Record(nil), r.terms...)
}

// LeafCount returns the number of leaves reachable from r, duplicates
// included.
func (r Record) LeafCount() int {
	if r.kind == kindLeaf {
		return 1
	}
	n := 0
	for _, t := range r.terms {
		n += t.LeafCount()
	}
	return n
}

// Depth returns the nesting depth of r. Leaves have depth 0.
func (r Record) Depth() int {
	if r.kind == kindLeaf {
		return 0
	}
	d := 0
	for _, t := range r.terms {
		d = max(d, t.Depth())
	}
	return d + 1
}

// Walk calls fn for every leaf of r, depth-first, left to right.
func (r Record) Walk(fn func(PixelCoord)) {
	if r.kind == kindLeaf {
		fn(r.coord)
		return
	}
	for _, t := range r.terms {
		t.Walk(fn)
	}
}

// String renders r with nodes as bracketed lists, e.g. "[(0,0) [(1,0) (2,0)]]".
func (r Record) String() string {
	var sb strings.Builder
	r.writeTo(&sb)
	return sb.String()
}

func (r Record) writeTo(sb *strings.Builder) {
	if r.kind == kindLeaf {
		sb.WriteString(r.coord.String())
		return
	}
	sb.WriteByte('[')
	for i, t := range r.terms {
		if i > 0 {
			sb.WriteByte(' ')
		}
		t.writeTo(sb)
	}
	sb.WriteByte(']')
}
