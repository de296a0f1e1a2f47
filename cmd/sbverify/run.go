package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/gogpu/downscale"
)

// frameFlags are the geometry flags shared by run.
type frameFlags struct {
	width        int
	height       int
	superBlock   int
	mode         string
	supportBlock int
}

func (f *frameFlags) register(fs *pflag.FlagSet) {
	fs.IntVar(&f.width, "width", 32, "input frame width in pixels")
	fs.IntVar(&f.height, "height", 32, "input frame height in pixels")
	fs.IntVar(&f.superBlock, "superblock", 8, "superblock edge in pixels")
	fs.StringVar(&f.mode, "mode", "fixed", "support mode: fixed (3x3) or variable (3x3/5x5)")
	fs.IntVar(&f.supportBlock, "support-block", 0, "output superblock edge for variable mode (0: superblock/2)")
}

func (f *frameFlags) config() (downscale.Config, error) {
	mode, err := downscale.ParseMode(f.mode)
	if err != nil {
		return downscale.Config{}, err
	}
	return downscale.Config{
		Width:        f.width,
		Height:       f.height,
		SuperBlock:   f.superBlock,
		Mode:         mode,
		SupportBlock: f.supportBlock,
	}, nil
}

func newRunCmd(verbose *bool) *cobra.Command {
	var (
		frame     frameFlags
		first     bool
		mapPath   string
		mapScale  int
		tracePath string
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Verify one frame geometry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := frame.config()
			if err != nil {
				return &exitErr{code: exitError, err: err}
			}
			cfg.FirstMismatchOnly = first
			cfg.Verbose = *verbose

			var opts []downscale.Option
			if tracePath != "" {
				f, err := os.Create(tracePath)
				if err != nil {
					return &exitErr{code: exitError, err: err}
				}
				defer f.Close()
				opts = append(opts, downscale.WithTrace(f))
			}

			report, verr := downscale.Verify(cfg, opts...)
			if report == nil {
				return classify(verr)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%v\n", cfg)
			if err := report.Write(out, limit); err != nil {
				return &exitErr{code: exitError, err: err}
			}
			if mapPath != "" {
				if err := writeMap(mapPath, report, mapScale); err != nil {
					return &exitErr{code: exitError, err: errors.Join(verr, err)}
				}
			}
			return classify(verr)
		},
	}

	fs := cmd.Flags()
	frame.register(fs)
	fs.BoolVar(&first, "first", false, "stop comparing at the first mismatch")
	fs.StringVar(&mapPath, "map", "", "write a PNG mismatch map to this file")
	fs.IntVar(&mapScale, "map-scale", 8, "map pixels per output pixel")
	fs.StringVar(&tracePath, "trace", "", "write a zstd-compressed event trace to this file")
	fs.IntVar(&limit, "limit", 20, "mismatches listed in detail (0: all)")
	return cmd
}

func writeMap(path string, report *downscale.Report, scale int) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return report.WriteMap(f, scale)
}
