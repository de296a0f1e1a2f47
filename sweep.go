package downscale

import (
	"context"
	"errors"
	"time"

	"github.com/gogpu/downscale/internal/cache"
	"github.com/gogpu/downscale/internal/filter"
	"github.com/gogpu/downscale/internal/parallel"
	"github.com/gogpu/downscale/internal/tiles"
)

// referenceCacheSize bounds the reference tables a sweep keeps alive.
const referenceCacheSize = 16

// SweepResult is the outcome of one configuration of a sweep.
type SweepResult struct {
	Config  Config
	Report  *Report
	Err     error
	Elapsed time.Duration
}

// Pass reports whether the configuration verified without error.
func (r SweepResult) Pass() bool {
	return r.Err == nil && r.Report != nil && r.Report.Pass()
}

// Sweep verifies every configuration concurrently and returns the results in
// input order. Every run is independent and single-threaded; the returned
// error joins the errors of all failed runs. Configurations not started when
// ctx is done report ctx.Err().
func Sweep(ctx context.Context, cfgs []Config, opts ...Option) ([]SweepResult, error) {
	o := collect(opts)
	o.trace = nil
	o.refs = cache.New[filter.Params, *filter.Reference](referenceCacheSize)

	pool := parallel.NewWorkerPool(o.workers)
	defer pool.Close()

	results := parallel.Map(ctx, pool, cfgs, func(_ context.Context, cfg Config) SweepResult {
		start := time.Now()
		report, err := verify(cfg, o)
		return SweepResult{Config: cfg, Report: report, Err: err, Elapsed: time.Since(start)}
	})

	var errs []error
	for i := range results {
		// A run always yields a report or an error; neither means skipped.
		if results[i].Report == nil && results[i].Err == nil {
			results[i] = SweepResult{Config: cfgs[i], Err: ctx.Err()}
		}
		if results[i].Err != nil {
			errs = append(errs, results[i].Err)
		}
	}
	cs := o.refs.Stats()
	o.logger.Info("downscale: sweep finished",
		"runs", len(cfgs),
		"workers", pool.Workers(),
		"failed", len(errs),
		"reference_hits", cs.Hits,
		"reference_misses", cs.Misses)
	return results, errors.Join(errs...)
}

// Grid returns every valid configuration combining the given sizes,
// superblock edges and modes. Width and height both range over sizes.
// Combinations the geometry rules reject are skipped.
func Grid(sizes, superBlocks []int, modes []Mode) []Config {
	var out []Config
	for _, h := range sizes {
		for _, w := range sizes {
			for _, s := range superBlocks {
				if _, err := tiles.NewGeometry(w, h, s); err != nil {
					continue
				}
				for _, m := range modes {
					cfg := Config{Width: w, Height: h, SuperBlock: s, Mode: m}
					if cfg.Validate() != nil {
						continue
					}
					out = append(out, cfg)
				}
			}
		}
	}
	return out
}
