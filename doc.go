// Package downscale verifies a streaming superblock implementation of a 2:1
// box-filter downscaler against a full-frame reference.
//
// # Overview
//
// The streaming model consumes a frame as 4x4 input tiles, superblock by
// superblock, and keeps only small fixed buffers between tiles: an above
// row, a left column, a corner tap, an inter-superblock-row FIFO and a
// two-lane merge FIFO. Instead of pixel values it carries contribution
// records, trees of input coordinates. Flattening a record gives the exact
// multiset of input pixels that fed an output pixel, which is then compared
// with what a clamp-to-edge 3x3 (or 3x3/5x5) box filter samples.
//
// # Quick Start
//
//	report, err := downscale.Verify(downscale.Config{
//	    Width:      32,
//	    Height:     32,
//	    SuperBlock: 8,
//	    Mode:       downscale.Fixed,
//	})
//	switch {
//	case errors.Is(err, downscale.ErrMismatch):
//	    report.Write(os.Stdout, 10)
//	case err != nil:
//	    log.Fatal(err)
//	}
//
// # Errors
//
// Configuration problems are reported as *ConfigError before anything runs.
// A broken streaming invariant (FIFO underflow, a FIFO left non-empty at a
// frame boundary, a tile out of order) aborts the run with ErrInvariant.
// Provenance differences return the full Report together with ErrMismatch.
//
// # Architecture
//
//   - internal/prov: coordinates, contribution records, flattening
//   - internal/filter: the reference box filter
//   - internal/tiles: geometry and the tile stream
//   - internal/fifo: bounded hand-off queues
//   - internal/stream: the streaming model
//   - internal/check: comparison, reports, mismatch maps
//   - internal/trace: zstd-compressed event traces
//   - internal/parallel: worker pool for sweeps
//
// # Logging
//
// Nothing is logged by default. See SetLogger.
package downscale
