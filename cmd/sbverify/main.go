// Command sbverify checks the streaming superblock downscaler against the
// reference box filter.
//
// Usage:
//
//	sbverify run --width 32 --height 32 --superblock 8 --mode fixed
//	sbverify run --mode variable --map mismatches.png --trace run.trace.zst
//	sbverify sweep --sizes 16,32,64 --superblocks 4,8,16
//	sbverify trace run.trace.zst
//
// Exit status is 0 when every output matches, 1 on a provenance mismatch and
// 2 on a configuration error or a streaming invariant violation.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/gogpu/downscale"
)

// Exit codes.
const (
	exitPass     = 0
	exitMismatch = 1
	exitError    = 2
)

// exitErr carries the process exit code out of a command.
type exitErr struct {
	code int
	err  error
}

func (e *exitErr) Error() string { return e.err.Error() }
func (e *exitErr) Unwrap() error { return e.err }

// classify maps a verification error to an exit code.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, downscale.ErrMismatch):
		return &exitErr{code: exitMismatch, err: err}
	default:
		return &exitErr{code: exitError, err: err}
	}
}

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

// execute runs the command line and returns the exit code.
func execute(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)

	err := root.Execute()
	if err == nil {
		return exitPass
	}
	fmt.Fprintln(stderr, "sbverify:", err)

	var ee *exitErr
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitError
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           "sbverify",
		Short:         "Verify a streaming superblock downscaler against the reference filter",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			if verbose {
				downscale.SetLogger(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{
					Level: slog.LevelDebug,
				})))
			}
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging to stderr")

	root.AddCommand(newRunCmd(&verbose), newSweepCmd(), newTraceCmd())
	return root
}
