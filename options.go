package downscale

import (
	"io"
	"log/slog"

	"github.com/gogpu/downscale/internal/cache"
	"github.com/gogpu/downscale/internal/filter"
)

// Option configures a Verify or Sweep call.
//
// Example:
//
//	f, _ := os.Create("run.trace.zst")
//	defer f.Close()
//	report, err := downscale.Verify(cfg, downscale.WithTrace(f))
type Option func(*options)

type options struct {
	trace   io.Writer
	logger  *slog.Logger
	workers int

	// refs shares reference tables between the runs of a sweep.
	refs *cache.Cache[filter.Params, *filter.Reference]
}

func defaultOptions() options {
	return options{}
}

func collect(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = Logger()
	}
	return o
}

// WithTrace records every streaming event of the run to w as a
// zstd-compressed NDJSON stream. It has no effect on Sweep.
func WithTrace(w io.Writer) Option {
	return func(o *options) {
		o.trace = w
	}
}

// WithLogger overrides the package logger for one call.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithWorkers sets the number of concurrent verifications of a Sweep.
// Zero or negative uses GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}
