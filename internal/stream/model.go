// Package stream implements the streaming superblock downscale model.
//
// The model consumes input tiles exactly once, in delivery order, and
// produces 4x4 output tiles of contribution records. It never looks back at
// an input tile once the tile has been consumed: everything it needs from
// earlier tiles travels through a small, fixed set of buffers.
//
//   - aboveContext: one partial per output column of the superblock, one
//     input row deep for 3x3 supports and two for 5x5
//   - leftContext: two input columns per output row of the superblock
//   - cornerContext: one tap for the frame's top-edge clamp
//   - interRowFIFO: above partials handed from one superblock row to the next
//   - mergeFIFO: two lanes of half-computed quadrants waiting for the odd
//     tile row that completes their output tile
//   - pending outputs: output tiles whose 5x5 supports still wait for the
//     first column or row of a later tile
//
// A 5x5 support centered in one tile reaches column 4 or row 4, which only
// a later tile holds. That tile sends the missing taps back as a spill,
// either on its own merge entry or into the pending-output arena.
//
// Thread safety: a Model is NOT thread-safe and holds state for exactly one
// frame pass.
package stream

import (
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"slices"

	"github.com/samber/lo"

	"github.com/gogpu/downscale/internal/fifo"
	"github.com/gogpu/downscale/internal/filter"
	"github.com/gogpu/downscale/internal/prov"
	"github.com/gogpu/downscale/internal/tiles"
	"github.com/gogpu/downscale/internal/trace"
)

// Model errors. Every one of them is a streaming invariant violation except
// ErrBlockAlignment, which rejects a configuration.
var (
	ErrOutOfOrder               = errors.New("stream: tile arrived out of order")
	ErrIncomplete               = errors.New("stream: frame incomplete")
	ErrFinished                 = errors.New("stream: frame already finished")
	ErrFIFONotEmpty             = errors.New("stream: FIFO not empty at frame boundary")
	ErrInterRowCount            = errors.New("stream: inter-row FIFO depth mismatch")
	ErrMissingHalf              = errors.New("stream: no pending left half for odd tile column")
	ErrPendingHalf              = errors.New("stream: left half already pending")
	ErrMergeMismatch            = errors.New("stream: merge entry belongs to another output tile")
	ErrSupportCrossesSuperBlock = errors.New("stream: 5x5 support crosses a superblock edge")
	ErrHoldConflict             = errors.New("stream: pending output slot holds another tile")
	ErrUnexpectedSpill          = errors.New("stream: spill for a complete output tile")
	ErrOutputPending            = errors.New("stream: output tile still waiting for spills")
	ErrBlockAlignment           = errors.New("stream: support block must divide the superblock output edge")
)

// Config selects the filter support the model reproduces.
type Config struct {
	// Mode is the support policy.
	Mode filter.Mode

	// Block is the output superblock edge used by Variable mode. It must
	// divide the superblock edge in output pixels, so output superblocks
	// never straddle input superblocks.
	Block int

	// Logger receives debug diagnostics. Nil disables logging.
	Logger *slog.Logger

	// Recorder receives hand-off events. Nil disables tracing.
	Recorder trace.Recorder

	// Verbose adds one debug record per tile.
	Verbose bool
}

// Stats counts what moved through the model during one frame.
type Stats struct {
	Tiles       int
	SuperBlocks int
	OutputTiles int

	InterRowPushes int
	InterRowPops   int
	InterRowPeak   int

	// InterRowTransfers holds, per boundary between superblock rows r and
	// r+1, the number of cells that crossed it.
	InterRowTransfers []int

	MergePushes int
	MergePops   int
	MergePeak   int

	// Spills counts 5x5 partial sums sent back to earlier tiles.
	Spills int

	// Deferred counts output tiles that were assembled before their last
	// spill arrived; HoldPeak is the most output tiles pending at once.
	Deferred int
	HoldPeak int
}

// Model is the streaming downscaler for one frame.
type Model struct {
	geom tiles.Geometry
	cfg  Config
	log  *slog.Logger
	rec  trace.Recorder

	ctx      contextBuffers
	interRow *fifo.Queue[prov.Record]
	merge    [2]*fifo.Queue[mergeEntry]
	pending  *pendingHalf
	hold     holdBuffer

	next  int
	seq   int
	stats Stats
	done  bool
}

// New creates a model for one frame of geometry g.
func New(g tiles.Geometry, cfg Config) (*Model, error) {
	if cfg.Mode == filter.Variable {
		if edge := g.SuperBlock() / 2; cfg.Block <= 0 || edge%cfg.Block != 0 {
			return nil, fmt.Errorf("%w: block %d, superblock output edge %d", ErrBlockAlignment, cfg.Block, edge)
		}
	}

	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	rec := cfg.Recorder
	if rec == nil {
		rec = trace.Nop{}
	}

	// An even tile row pushes one entry per tile column of its pairing
	// unit: the superblock, or the whole frame row for one-tile superblocks.
	unit := g.TilesPerSuperBlock()
	if unit < 2 {
		unit = g.TilesX()
	}
	laneCap := unit / 2

	m := &Model{
		geom:     g,
		cfg:      cfg,
		log:      log,
		rec:      rec,
		ctx:      newContextBuffers(g.SuperBlock()),
		interRow: fifo.New[prov.Record]("interRowFIFO", g.OutputWidth()),
		merge: [2]*fifo.Queue[mergeEntry]{
			fifo.New[mergeEntry]("mergeFIFO[0]", laneCap),
			fifo.New[mergeEntry]("mergeFIFO[1]", laneCap),
		},
		hold: newHoldBuffer(g.TilesPerSuperBlock() / 2),
	}
	if rows := g.SuperBlocksY(); rows > 1 {
		m.stats.InterRowTransfers = make([]int, rows-1)
	}
	return m, nil
}

// Geometry returns the frame geometry of the model.
func (m *Model) Geometry() tiles.Geometry {
	return m.geom
}

// Stats returns the counters collected so far.
func (m *Model) Stats() Stats {
	s := m.stats
	s.InterRowTransfers = slices.Clone(m.stats.InterRowTransfers)
	s.InterRowPushes = m.interRow.Pushes()
	s.InterRowPops = m.interRow.Pops()
	s.InterRowPeak = m.interRow.Peak()
	for _, q := range m.merge {
		s.MergePushes += q.Pushes()
		s.MergePops += q.Pops()
		s.MergePeak = max(s.MergePeak, q.Peak())
	}
	s.HoldPeak = m.hold.peak
	return s
}

// Push consumes the next tile of the stream and returns the output tiles it
// completed, usually none or one.
func (m *Model) Push(t tiles.Tile) ([]OutputTile, error) {
	if m.done {
		return nil, ErrFinished
	}
	sbx, sby, lx, ly, valid := m.geom.Order(m.next)
	if !valid {
		return nil, fmt.Errorf("%w: tile (%d,%d) after the last tile of %v", ErrOutOfOrder, t.X, t.Y, m.geom)
	}
	if t.SBX != sbx || t.SBY != sby || t.LX != lx || t.LY != ly {
		return nil, fmt.Errorf("%w: got superblock (%d,%d) tile (%d,%d), want superblock (%d,%d) tile (%d,%d)",
			ErrOutOfOrder, t.SBX, t.SBY, t.LX, t.LY, sbx, sby, lx, ly)
	}
	m.next++
	return m.consume(&t)
}

// consume runs one tile through the pipeline. Arrival order has already
// been checked.
func (m *Model) consume(t *tiles.Tile) ([]OutputTile, error) {
	if t.LX == 0 && t.LY == 0 {
		if err := m.enterSuperBlock(t); err != nil {
			return nil, err
		}
	}
	m.stats.Tiles++
	m.event(trace.KindTile, t, 0, 0)
	if m.cfg.Verbose {
		m.log.Debug("stream: tile", "tx", t.X, "ty", t.Y, "sbx", t.SBX, "sby", t.SBY)
	}

	lane := t.X % 2
	var top mergeEntry
	if t.Y%2 == 1 {
		// The odd row pops before it produces anything.
		e, err := m.merge[lane].Pop()
		if err != nil {
			return nil, fmt.Errorf("stream: tile (%d,%d): %w", t.X, t.Y, err)
		}
		m.event(trace.KindMergePop, t, lane, m.merge[lane].Len())
		top = e
	}

	tc := m.ctx.gather(t)
	own := m.computeTile(t, &tc)

	done, err := m.route(t, &own)
	if err != nil {
		return nil, err
	}

	if err := m.carry(t, &tc); err != nil {
		return nil, err
	}

	if t.Y%2 == 0 {
		if err := m.merge[lane].Push(own); err != nil {
			return nil, fmt.Errorf("stream: tile (%d,%d): %w", t.X, t.Y, err)
		}
		m.event(trace.KindMergePush, t, lane, m.merge[lane].Len())
		return done, nil
	}

	if lane == 0 {
		if m.pending != nil {
			return nil, fmt.Errorf("%w: tile (%d,%d)", ErrPendingHalf, t.X, t.Y)
		}
		m.pending = &pendingHalf{top: top, bottom: own}
		return done, nil
	}

	if m.pending == nil {
		return nil, fmt.Errorf("%w: tile (%d,%d)", ErrMissingHalf, t.X, t.Y)
	}
	left := m.pending
	m.pending = nil

	out, err := assemble([4]mergeEntry{left.top, top, left.bottom, own}, t.SBX, t.SBY)
	if err != nil {
		return nil, err
	}
	ready, err := m.hold.park(out, m.externalSources(out.X, out.Y))
	if err != nil {
		return nil, fmt.Errorf("stream: tile (%d,%d): %w", t.X, t.Y, err)
	}
	if ready == nil {
		m.stats.Deferred++
		m.event(trace.KindHoldPark, t, 0, m.hold.live)
		return done, nil
	}
	return append(done, m.emit(t, ready)), nil
}

// route sends the spills of t to their output tiles: spills for its own
// group ride on its merge entry, the rest go to the pending-output arena.
// It returns the output tiles the deliveries completed.
func (m *Model) route(t *tiles.Tile, own *mergeEntry) ([]OutputTile, error) {
	routed, err := m.spillsOf(t)
	if err != nil {
		return nil, err
	}
	if len(routed) == 0 {
		return nil, nil
	}
	m.stats.Spills += len(routed)
	m.event(trace.KindSpill, t, 0, len(routed))

	var done []OutputTile
	group := [2]int{t.X / 2, t.Y / 2}
	for _, batch := range lo.PartitionBy(routed, func(r routedSpill) [2]int { return r.group }) {
		g := batch[0].group
		spills := lo.Map(batch, func(r routedSpill, _ int) spill { return r.spill })
		if g == group {
			own.spills = append(own.spills, spills...)
			continue
		}
		out, err := m.hold.deliver(g[0], g[1], m.externalSources(g[0], g[1]), spills)
		if err != nil {
			return nil, fmt.Errorf("stream: tile (%d,%d): %w", t.X, t.Y, err)
		}
		m.event(trace.KindHoldDeliver, t, 0, m.hold.live)
		if out != nil {
			done = append(done, m.emit(t, out))
		}
	}
	return done, nil
}

// emit counts a finished output tile.
func (m *Model) emit(t *tiles.Tile, out *OutputTile) OutputTile {
	m.stats.OutputTiles++
	m.event(trace.KindEmit, t, 0, 0)
	return *out
}

// enterSuperBlock checks and loads the inter-row hand-off at the first tile
// of a superblock.
func (m *Model) enterSuperBlock(t *tiles.Tile) error {
	m.stats.SuperBlocks++
	m.event(trace.KindSuperBlock, t, 0, m.interRow.Len())

	if err := m.hold.expectEmpty(); err != nil {
		return fmt.Errorf("stream: superblock (%d,%d): %w", t.SBX, t.SBY, err)
	}

	if t.SBX == 0 {
		m.ctx.resetLeft()
		if t.SBY == 0 {
			if err := m.expectDrained(); err != nil {
				return fmt.Errorf("stream: frame start: %w", err)
			}
		} else if err := m.interRow.ExpectLen(m.geom.OutputWidth()); err != nil {
			return fmt.Errorf("%w: superblock row %d: %w", ErrInterRowCount, t.SBY, err)
		}
	}

	if t.SBY == 0 {
		return nil
	}

	for i := range m.ctx.above {
		c, err := m.interRow.Pop()
		if err != nil {
			return fmt.Errorf("stream: superblock (%d,%d) above cell %d: %w", t.SBX, t.SBY, i, err)
		}
		m.ctx.above[i] = c
		m.stats.InterRowTransfers[t.SBY-1]++
		m.event(trace.KindInterRowPop, t, 0, m.interRow.Len())
	}

	m.log.Debug("stream: superblock", "sbx", t.SBX, "sby", t.SBY, "cells", len(m.ctx.above))
	return nil
}

// carry stores what the tiles below and to the right of t need from it.
func (m *Model) carry(t *tiles.Tile, tc *tileContext) error {
	per := m.geom.TilesPerSuperBlock()

	below := [2]int{m.radius(2*t.X, 2*t.Y+2), m.radius(2*t.X+1, 2*t.Y+2)}
	down := carryDown(t, tc, below)
	switch {
	case t.LY < per-1:
		m.ctx.above[2*t.LX] = down[0]
		m.ctx.above[2*t.LX+1] = down[1]
	case t.SBY < m.geom.SuperBlocksY()-1:
		if below[0] == 2 || below[1] == 2 {
			return fmt.Errorf("%w: below tile (%d,%d)", ErrSupportCrossesSuperBlock, t.X, t.Y)
		}
		for _, c := range down {
			if err := m.interRow.Push(c); err != nil {
				return fmt.Errorf("stream: tile (%d,%d): %w", t.X, t.Y, err)
			}
			m.event(trace.KindInterRowPush, t, 0, m.interRow.Len())
		}
	}

	// Column 0 closes the 5x5 above partial the left neighbor stored for
	// the tile below it.
	if t.X > 0 && t.Y+1 < m.geom.TilesY() && m.radius(2*t.X-1, 2*t.Y+2) == 2 {
		if t.LX == 0 || t.LY == per-1 {
			return fmt.Errorf("%w: right of tile (%d,%d)", ErrSupportCrossesSuperBlock, t.X-1, t.Y)
		}
		k := 2*t.LX - 1
		m.ctx.above[k] = prov.Node(m.ctx.above[k], leaf(t, 0, 2), leaf(t, 0, 3))
	}

	right := carryRight(t)
	switch {
	case t.LX < per-1:
		m.ctx.carry = right
	case t.SBX < m.geom.SuperBlocksX()-1:
		m.ctx.left[2*t.LY] = right[0]
		m.ctx.left[2*t.LY+1] = right[1]
	}

	if t.Y == 0 {
		m.ctx.corner = leaf(t, 3, 0)
	}
	return nil
}

// Finish closes the frame. Every tile must have been consumed and every
// FIFO drained; anything else is a fatal inconsistency of the model.
func (m *Model) Finish() error {
	if m.done {
		return ErrFinished
	}
	if m.next != m.geom.TileCount() {
		return fmt.Errorf("%w: consumed %d of %d tiles", ErrIncomplete, m.next, m.geom.TileCount())
	}
	if err := m.expectDrained(); err != nil {
		return fmt.Errorf("stream: frame end: %w", err)
	}
	m.done = true
	m.rec.Record(trace.Event{Seq: m.seq, Kind: trace.KindFrameComplete})
	m.seq++

	s := m.Stats()
	m.log.Debug("stream: frame complete",
		"tiles", s.Tiles,
		"output_tiles", s.OutputTiles,
		"interrow_peak", s.InterRowPeak,
		"merge_peak", s.MergePeak,
		"hold_peak", s.HoldPeak)
	return nil
}

// expectDrained reports every FIFO that still holds data and every output
// tile still pending.
func (m *Model) expectDrained() error {
	var errs []error
	if err := m.interRow.ExpectEmpty(); err != nil {
		errs = append(errs, err)
	}
	for _, q := range m.merge {
		if err := q.ExpectEmpty(); err != nil {
			errs = append(errs, err)
		}
	}
	if m.pending != nil {
		errs = append(errs, ErrPendingHalf)
	}
	if err := m.hold.expectEmpty(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrFIFONotEmpty, errors.Join(errs...))
}

// Drained reports whether every FIFO, the pending half and the
// pending-output arena are empty.
func (m *Model) Drained() bool {
	return m.expectDrained() == nil
}

func (m *Model) event(k trace.Kind, t *tiles.Tile, lane, depth int) {
	m.rec.Record(trace.Event{
		Seq:   m.seq,
		Kind:  k,
		SBX:   t.SBX,
		SBY:   t.SBY,
		TileX: t.X,
		TileY: t.Y,
		Lane:  lane,
		Depth: depth,
	})
	m.seq++
}

// Run pushes every tile of seq through a new model and calls emit for each
// finished output tile. It returns the model statistics and the first
// invariant violation or emit error.
func Run(g tiles.Geometry, cfg Config, seq iter.Seq[tiles.Tile], emit func(OutputTile) error) (Stats, error) {
	m, err := New(g, cfg)
	if err != nil {
		return Stats{}, err
	}
	for t := range seq {
		done, err := m.Push(t)
		if err != nil {
			return m.Stats(), err
		}
		for _, out := range done {
			if err := emit(out); err != nil {
				return m.Stats(), err
			}
		}
	}
	if err := m.Finish(); err != nil {
		return m.Stats(), err
	}
	return m.Stats(), nil
}
