package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/gogpu/downscale"
)

func newSweepCmd() *cobra.Command {
	var (
		sizes       []int
		superBlocks []int
		modes       []string
		workers     int
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Verify every valid combination of sizes, superblocks and modes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			parsed := make([]downscale.Mode, 0, len(modes))
			for _, s := range modes {
				m, err := downscale.ParseMode(s)
				if err != nil {
					return &exitErr{code: exitError, err: err}
				}
				parsed = append(parsed, m)
			}

			cfgs := downscale.Grid(sizes, superBlocks, lo.Uniq(parsed))
			if len(cfgs) == 0 {
				return &exitErr{code: exitError, err: errors.New("no valid configuration in the sweep")}
			}

			results, err := downscale.Sweep(cmd.Context(), cfgs, downscale.WithWorkers(workers))
			out := cmd.OutOrStdout()
			for _, r := range results {
				status := "PASS"
				switch {
				case r.Pass():
				case errors.Is(r.Err, downscale.ErrMismatch):
					status = "FAIL"
				default:
					status = "ERROR"
				}
				fmt.Fprintf(out, "%-5s %-22v %v\n", status, r.Config, r.Elapsed.Round(time.Microsecond))
			}

			passed := lo.CountBy(results, func(r downscale.SweepResult) bool { return r.Pass() })
			fmt.Fprintf(out, "%d of %d configurations passed\n", passed, len(results))
			if err == nil {
				return nil
			}

			// Any configuration error or invariant violation outranks a
			// mismatch.
			broken := lo.ContainsBy(results, func(r downscale.SweepResult) bool {
				return r.Err != nil && !errors.Is(r.Err, downscale.ErrMismatch)
			})
			if broken {
				return &exitErr{code: exitError, err: err}
			}
			return &exitErr{code: exitMismatch, err: err}
		},
	}

	fs := cmd.Flags()
	fs.IntSliceVar(&sizes, "sizes", []int{16, 32, 64}, "frame widths and heights to combine")
	fs.IntSliceVar(&superBlocks, "superblocks", []int{4, 8, 16}, "superblock edges")
	fs.StringSliceVar(&modes, "modes", []string{"fixed", "variable"}, "support modes")
	fs.IntVar(&workers, "workers", 0, "concurrent verifications (0: GOMAXPROCS)")
	return cmd
}
