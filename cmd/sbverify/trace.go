package main

import (
	"fmt"
	"os"
	"slices"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/gogpu/downscale/internal/trace"
)

func newTraceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "trace FILE",
		Short: "Summarize a trace written by run --trace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return &exitErr{code: exitError, err: err}
			}
			defer f.Close()

			events, err := trace.ReadAll(f)
			if err != nil {
				return &exitErr{code: exitError, err: err}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d events\n", len(events))

			counts := lo.CountValuesBy(events, func(e trace.Event) trace.Kind { return e.Kind })
			kinds := lo.Keys(counts)
			slices.Sort(kinds)
			for _, k := range kinds {
				fmt.Fprintf(out, "  %-16s %d\n", k, counts[k])
			}

			for _, k := range []trace.Kind{trace.KindInterRowPush, trace.KindMergePush, trace.KindHoldPark} {
				pushes := lo.Filter(events, func(e trace.Event, _ int) bool { return e.Kind == k })
				if len(pushes) == 0 {
					continue
				}
				peak := lo.MaxBy(pushes, func(a, b trace.Event) bool { return a.Depth > b.Depth })
				fmt.Fprintf(out, "  peak %s depth %d at tile (%d,%d)\n", k, peak.Depth, peak.TileX, peak.TileY)
			}
			return nil
		},
	}
}
