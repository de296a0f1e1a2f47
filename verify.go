package downscale

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/gogpu/downscale/internal/check"
	"github.com/gogpu/downscale/internal/filter"
	"github.com/gogpu/downscale/internal/prov"
	"github.com/gogpu/downscale/internal/stream"
	"github.com/gogpu/downscale/internal/tiles"
	"github.com/gogpu/downscale/internal/trace"
)

// Verification errors.
var (
	// ErrInvalidConfig is wrapped by every *ConfigError.
	ErrInvalidConfig = errors.New("downscale: invalid config")

	// ErrInvariant wraps a streaming invariant violation: a FIFO underflow
	// or overflow, a non-empty FIFO at a frame boundary, an out-of-order
	// tile. The run is aborted and no report is produced.
	ErrInvariant = errors.New("downscale: streaming invariant violated")

	// ErrMismatch is returned together with a report when at least one
	// output differs from the reference.
	ErrMismatch = errors.New("downscale: provenance mismatch")
)

// Coord is an input or output pixel coordinate.
type Coord = prov.PixelCoord

// Stats are the streaming model counters of one run.
type Stats = stream.Stats

// Mismatch is one output whose provenance differs from the reference.
type Mismatch struct {
	// X and Y are the output coordinate.
	X, Y int

	// TileX, TileY index the output tile and SBX, SBY the superblock that
	// emitted the record. All four are -1 when the output was never emitted.
	TileX, TileY int
	SBX, SBY     int

	// Reason is one of "cardinality", "content", "duplicate", "missing" or
	// "out of frame".
	Reason string

	Want []Coord
	Got  []Coord
}

// Report is the outcome of a verification that ran to completion.
type Report struct {
	Config Config

	// Compared and Matched count outputs; Total is the output frame size.
	Compared int
	Matched  int
	Total    int

	Mismatches []Mismatch

	// Supports maps a support size in taps (9 or 25) to the number of
	// outputs using it.
	Supports map[int]int

	// Truncated is set when FirstMismatchOnly ended the comparison early.
	Truncated bool

	Stats Stats

	result *check.Result
}

// Pass reports whether every output matched the reference.
func (r *Report) Pass() bool {
	return r.result.Pass()
}

// Write prints the report. At most limit mismatches are detailed; limit <= 0
// prints all of them.
func (r *Report) Write(w io.Writer, limit int) error {
	return check.WriteReport(w, r.result, limit)
}

// WriteMap encodes a PNG mismatch map with scale x scale pixels per output.
func (r *Report) WriteMap(w io.Writer, scale int) error {
	return check.WritePNG(w, r.result, check.MapOptions{Scale: scale, Legend: true})
}

// Verify streams a frame through the model and compares every output with
// the reference filter.
//
// Errors:
//   - *ConfigError (wrapping ErrInvalidConfig) before anything runs
//   - ErrInvariant when the streaming model breaks, with a nil report
//   - ErrMismatch with a complete report when outputs differ
func Verify(cfg Config, opts ...Option) (*Report, error) {
	o := collect(opts)
	return verify(cfg, o)
}

func verify(cfg Config, o options) (report *Report, err error) {
	g, err := cfg.geometry()
	if err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()
	log := o.logger.With("run", cfg.String())

	ref, err := o.reference(filter.Params{
		Width:  cfg.Width,
		Height: cfg.Height,
		Mode:   cfg.Mode,
		Block:  cfg.SupportBlock,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	var rec trace.Recorder = trace.Nop{}
	if o.trace != nil {
		tw, werr := trace.NewWriter(o.trace)
		if werr != nil {
			return nil, fmt.Errorf("downscale: open trace: %w", werr)
		}
		defer func() {
			if cerr := tw.Close(); cerr != nil {
				err = errors.Join(err, fmt.Errorf("downscale: write trace: %w", cerr))
			}
		}()
		rec = tw
	}

	checker := check.New(ref, check.Options{
		FirstOnly: cfg.FirstMismatchOnly,
		Logger:    log,
	})

	stats, err := stream.Run(g, stream.Config{
		Mode:     cfg.Mode,
		Block:    cfg.SupportBlock,
		Logger:   log,
		Recorder: rec,
		Verbose:  cfg.Verbose,
	}, tiles.NewStream(g).All(), func(out stream.OutputTile) error {
		checker.Add(&out)
		return nil
	})
	if err != nil {
		log.Error("downscale: streaming invariant violated", "err", err)
		return nil, fmt.Errorf("%w: %w", ErrInvariant, err)
	}

	report = newReport(cfg, checker.Result(), stats)
	log.Info("downscale: verified",
		"pass", report.Pass(),
		"outputs", report.Total,
		"mismatches", len(report.Mismatches),
		"interrow_peak", stats.InterRowPeak,
		"merge_peak", stats.MergePeak)

	if !report.Pass() {
		return report, fmt.Errorf("%w: %d of %d outputs", ErrMismatch, len(report.Mismatches), report.Total)
	}
	return report, nil
}

func (o *options) reference(p filter.Params) (*filter.Reference, error) {
	if p.Mode == filter.Fixed {
		p.Block = 0
	}
	if o.refs == nil {
		return filter.NewReference(p)
	}
	return o.refs.GetOrCreate(p, func() (*filter.Reference, error) {
		return filter.NewReference(p)
	})
}

func newReport(cfg Config, r *check.Result, stats stream.Stats) *Report {
	report := &Report{
		Config:    cfg,
		Compared:  r.Compared,
		Matched:   r.Matched,
		Total:     r.Width * r.Height,
		Supports:  r.Supports,
		Truncated: r.Truncated,
		Stats:     stats,
		result:    r,
	}
	for _, m := range r.Mismatches {
		report.Mismatches = append(report.Mismatches, Mismatch{
			X: m.X, Y: m.Y,
			TileX: m.TileX, TileY: m.TileY,
			SBX: m.SBX, SBY: m.SBY,
			Reason: string(m.Reason),
			Want:   m.Want,
			Got:    m.Got,
		})
	}
	return report
}

// LogValue makes a report print compactly through slog.
func (r *Report) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("config", r.Config.String()),
		slog.Bool("pass", r.Pass()),
		slog.Int("mismatches", len(r.Mismatches)),
	)
}
