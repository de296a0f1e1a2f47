package stream

import (
	"fmt"

	"github.com/gogpu/downscale/internal/prov"
)

// holdSlot is one output tile that waits for spills from tiles outside its
// 2x2 group.
type holdSlot struct {
	used  bool
	x, y  int
	due   int
	early []spill
	out   *OutputTile
}

// holdBuffer is the pending-output arena: one slot per output tile column
// of a superblock and output tile row parity, indexed and overwritten in
// place like aboveContext. An output tile enters it when spills for it
// arrive before assembly or when it is assembled with deliveries still due,
// and leaves it when the last delivery lands. Every 5x5 support stays inside
// its superblock, so the arena is empty whenever a superblock starts.
type holdBuffer struct {
	slots []holdSlot
	cols  int
	live  int
	peak  int
}

func newHoldBuffer(outputTileCols int) holdBuffer {
	cols := max(outputTileCols, 1)
	return holdBuffer{slots: make([]holdSlot, 2*cols), cols: cols}
}

// slot returns the slot of output tile (x, y), claiming it with due
// outstanding deliveries if it is free.
func (h *holdBuffer) slot(x, y, due int) (*holdSlot, error) {
	s := &h.slots[(y%2)*h.cols+x%h.cols]
	switch {
	case !s.used:
		*s = holdSlot{used: true, x: x, y: y, due: due}
		h.live++
		h.peak = max(h.peak, h.live)
	case s.x != x || s.y != y:
		return nil, fmt.Errorf("%w: output tile (%d,%d) while (%d,%d) is pending",
			ErrHoldConflict, x, y, s.x, s.y)
	}
	return s, nil
}

// deliver adds one tile's spills to output tile (x, y). It returns the
// output tile once nothing more is due.
func (h *holdBuffer) deliver(x, y, due int, spills []spill) (*OutputTile, error) {
	s, err := h.slot(x, y, due)
	if err != nil {
		return nil, err
	}
	if s.due == 0 {
		return nil, fmt.Errorf("%w: output tile (%d,%d)", ErrUnexpectedSpill, x, y)
	}
	s.due--
	if s.out == nil {
		s.early = append(s.early, spills...)
		return nil, nil
	}
	fold(s.out, spills)
	return h.release(s), nil
}

// park stores an assembled output tile until its remaining deliveries
// arrive. A tile with nothing due and nothing early is returned at once.
func (h *holdBuffer) park(out OutputTile, due int) (*OutputTile, error) {
	s := &h.slots[(out.Y%2)*h.cols+out.X%h.cols]
	if due == 0 && (!s.used || s.x != out.X || s.y != out.Y) {
		return &out, nil
	}
	s, err := h.slot(out.X, out.Y, due)
	if err != nil {
		return nil, err
	}
	fold(&out, s.early)
	s.early = nil
	s.out = &out
	return h.release(s), nil
}

// release frees s when its output tile is complete.
func (h *holdBuffer) release(s *holdSlot) *OutputTile {
	if s.out == nil || s.due > 0 {
		return nil
	}
	out := s.out
	*s = holdSlot{}
	h.live--
	return out
}

// expectEmpty reports output tiles still waiting for spills.
func (h *holdBuffer) expectEmpty() error {
	if h.live == 0 {
		return nil
	}
	for _, s := range h.slots {
		if s.used {
			return fmt.Errorf("%w: %d output tiles, first (%d,%d) with %d deliveries due",
				ErrOutputPending, h.live, s.x, s.y, s.due)
		}
	}
	return nil
}

// fold adds every spill to the record it targets.
func fold(out *OutputTile, spills []spill) {
	for _, s := range spills {
		out.Records[s.pos] = prov.Node(out.Records[s.pos], s.rec)
	}
}
