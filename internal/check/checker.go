// Package check compares streamed output records with the reference filter.
//
// A Checker receives output tiles as the streaming model emits them,
// flattens every record to its canonical provenance list and compares it
// with the reference list for the same output coordinate. Coverage is
// tracked too: an output emitted twice or never is a mismatch.
package check

import (
	"fmt"
	"log/slog"

	"github.com/gogpu/downscale/internal/filter"
	"github.com/gogpu/downscale/internal/prov"
	"github.com/gogpu/downscale/internal/stream"
	"github.com/gogpu/downscale/internal/tiles"
)

// Reason classifies a mismatch.
type Reason string

// Mismatch reasons.
const (
	ReasonCardinality Reason = "cardinality"
	ReasonContent     Reason = "content"
	ReasonDuplicate   Reason = "duplicate"
	ReasonMissing     Reason = "missing"
	ReasonOutOfFrame  Reason = "out of frame"
)

// Mismatch describes one output whose provenance differs from the
// reference.
type Mismatch struct {
	X, Y int

	// Tile and superblock indices of the output tile that carried the
	// record. Both are -1 for missing outputs.
	TileX, TileY int
	SBX, SBY     int

	Reason Reason
	Want   prov.Provenance
	Got    prov.Provenance

	// Index is the first position where Want and Got differ.
	Index int
}

func (m Mismatch) String() string {
	switch m.Reason {
	case ReasonMissing:
		return fmt.Sprintf("(%d,%d): never emitted", m.X, m.Y)
	case ReasonDuplicate:
		return fmt.Sprintf("(%d,%d): emitted again by output tile (%d,%d)", m.X, m.Y, m.TileX, m.TileY)
	case ReasonCardinality:
		return fmt.Sprintf("(%d,%d) tile (%d,%d) superblock (%d,%d): want %d taps, got %d",
			m.X, m.Y, m.TileX, m.TileY, m.SBX, m.SBY, len(m.Want), len(m.Got))
	default:
		return fmt.Sprintf("(%d,%d) tile (%d,%d) superblock (%d,%d): %s at tap %d",
			m.X, m.Y, m.TileX, m.TileY, m.SBX, m.SBY, m.Reason, m.Index)
	}
}

// Options configures a Checker.
type Options struct {
	// FirstOnly stops comparing after the first mismatch.
	FirstOnly bool

	// Logger receives one warning per mismatch. Nil disables logging.
	Logger *slog.Logger
}

// Checker accumulates the comparison of one frame.
//
// Thread safety: Checker is NOT thread-safe.
type Checker struct {
	ref    *filter.Reference
	opts   Options
	log    *slog.Logger
	outW   int
	outH   int
	hits   []uint8
	result Result
}

// New creates a checker against ref.
func New(ref *filter.Reference, opts Options) *Checker {
	w, h := ref.Size()
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Checker{
		ref:  ref,
		opts: opts,
		log:  log,
		outW: w,
		outH: h,
		hits: make([]uint8, w*h),
		result: Result{
			Width:    w,
			Height:   h,
			Supports: make(map[int]int),
		},
	}
}

// Stopped reports whether FirstOnly has ended the comparison.
func (c *Checker) Stopped() bool {
	return c.opts.FirstOnly && len(c.result.Mismatches) > 0
}

// Add compares every record of o with the reference.
func (c *Checker) Add(o *stream.OutputTile) {
	ox, oy := o.Origin()
	for row := range tiles.OutputEdge {
		for col := range tiles.OutputEdge {
			if c.Stopped() {
				return
			}
			c.compare(o, ox+col, oy+row, o.At(col, row))
		}
	}
}

func (c *Checker) compare(o *stream.OutputTile, x, y int, rec prov.Record) {
	got := prov.Normalize(rec, c.outW)
	base := Mismatch{X: x, Y: y, TileX: o.X, TileY: o.Y, SBX: o.SBX, SBY: o.SBY, Got: got}

	if x < 0 || y < 0 || x >= c.outW || y >= c.outH {
		base.Reason = ReasonOutOfFrame
		c.fail(base)
		return
	}

	i := y*c.outW + x
	if c.hits[i] > 0 {
		base.Reason = ReasonDuplicate
		c.fail(base)
		return
	}
	c.hits[i]++

	want := prov.Canonical(c.ref.At(x, y), c.outW)
	base.Want = want
	c.result.Compared++
	c.result.Supports[len(want)]++

	switch {
	case len(want) != len(got):
		base.Reason = ReasonCardinality
		base.Index = want.FirstDiff(got)
		c.fail(base)
	case !want.Equal(got):
		base.Reason = ReasonContent
		base.Index = want.FirstDiff(got)
		c.fail(base)
	default:
		c.result.Matched++
	}
}

func (c *Checker) fail(m Mismatch) {
	c.result.Mismatches = append(c.result.Mismatches, m)
	c.log.Warn("check: mismatch", "x", m.X, "y", m.Y, "reason", string(m.Reason),
		"tx", m.TileX, "ty", m.TileY, "sbx", m.SBX, "sby", m.SBY)
}

// Result finishes the comparison. Outputs that were never emitted are added
// as missing unless FirstOnly already stopped the check.
func (c *Checker) Result() *Result {
	r := c.result
	r.Mismatches = append([]Mismatch(nil), c.result.Mismatches...)
	r.Checked = make([]bool, len(c.hits))
	for i, n := range c.hits {
		r.Checked[i] = n > 0
	}
	r.Truncated = c.Stopped()
	if r.Truncated {
		return &r
	}
	for i, n := range c.hits {
		if n > 0 {
			continue
		}
		x, y := i%c.outW, i/c.outW
		r.Mismatches = append(r.Mismatches, Mismatch{
			X: x, Y: y,
			TileX: -1, TileY: -1, SBX: -1, SBY: -1,
			Reason: ReasonMissing,
			Want:   prov.Canonical(c.ref.At(x, y), c.outW),
		})
		if c.opts.FirstOnly {
			break
		}
	}
	return &r
}

// Result is the outcome of one comparison.
type Result struct {
	// Width and Height are the output frame size.
	Width  int
	Height int

	// Compared counts outputs compared with the reference; Matched counts
	// those that were equal.
	Compared int
	Matched  int

	Mismatches []Mismatch

	// Supports maps a reference support size (9 or 25) to the number of
	// compared outputs that use it.
	Supports map[int]int

	// Checked marks, row-major, every output that reached the comparison.
	Checked []bool

	// Truncated is set when FirstOnly stopped the comparison early.
	Truncated bool
}

// checked reports whether output (x, y) reached the comparison. Results
// without a Checked map count every output as checked.
func (r *Result) checked(x, y int) bool {
	i := y*r.Width + x
	return i >= len(r.Checked) || r.Checked[i]
}

// Pass reports whether every output matched.
func (r *Result) Pass() bool {
	return len(r.Mismatches) == 0 && r.Matched == r.Width*r.Height
}
