package check

import (
	"io"
	"slices"

	"github.com/samber/lo"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// SuperBlock identifies a superblock in a report.
type SuperBlock struct {
	X, Y int
}

// AffectedSuperBlocks returns the superblocks that emitted at least one
// mismatching record, in first-seen order. Missing outputs have no
// superblock and are skipped.
func (r *Result) AffectedSuperBlocks() []SuperBlock {
	emitted := lo.Filter(r.Mismatches, func(m Mismatch, _ int) bool {
		return m.Reason != ReasonMissing
	})
	return lo.UniqBy(lo.Map(emitted, func(m Mismatch, _ int) SuperBlock {
		return SuperBlock{X: m.SBX, Y: m.SBY}
	}), func(sb SuperBlock) SuperBlock { return sb })
}

// ReasonCounts returns the number of mismatches per reason.
func (r *Result) ReasonCounts() map[Reason]int {
	return lo.CountValuesBy(r.Mismatches, func(m Mismatch) Reason { return m.Reason })
}

// WriteReport writes a human readable summary of r to w. At most limit
// mismatches are listed in detail; limit <= 0 lists all of them.
func WriteReport(w io.Writer, r *Result, limit int) error {
	p := message.NewPrinter(language.English)
	total := r.Width * r.Height

	if r.Pass() {
		if _, err := p.Fprintf(w, "PASS: %d of %d outputs match\n", r.Matched, total); err != nil {
			return err
		}
		return writeSupports(p, w, r)
	}

	sbs := r.AffectedSuperBlocks()
	if _, err := p.Fprintf(w, "FAIL: %d mismatches over %d outputs in %d superblocks\n",
		len(r.Mismatches), total, len(sbs)); err != nil {
		return err
	}
	if r.Truncated {
		if _, err := p.Fprintf(w, "stopped after the first mismatch (%d outputs compared)\n", r.Compared); err != nil {
			return err
		}
	}

	counts := r.ReasonCounts()
	reasons := lo.Keys(counts)
	slices.Sort(reasons)
	for _, reason := range reasons {
		if _, err := p.Fprintf(w, "  %s: %d\n", reason, counts[reason]); err != nil {
			return err
		}
	}
	if err := writeSupports(p, w, r); err != nil {
		return err
	}

	shown := r.Mismatches
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}
	for _, m := range shown {
		if _, err := p.Fprintf(w, "%s\n", m); err != nil {
			return err
		}
		if m.Reason == ReasonMissing || m.Reason == ReasonDuplicate {
			continue
		}
		if _, err := p.Fprintf(w, "    want %s\n    got  %s\n", m.Want, m.Got); err != nil {
			return err
		}
	}
	if rest := len(r.Mismatches) - len(shown); rest > 0 {
		if _, err := p.Fprintf(w, "... %d more\n", rest); err != nil {
			return err
		}
	}
	return nil
}

func writeSupports(p *message.Printer, w io.Writer, r *Result) error {
	sizes := lo.Keys(r.Supports)
	slices.Sort(sizes)
	for _, n := range sizes {
		if _, err := p.Fprintf(w, "  %d-tap support: %d outputs\n", n, r.Supports[n]); err != nil {
			return err
		}
	}
	return nil
}
