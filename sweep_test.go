package downscale

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestGrid(t *testing.T) {
	cfgs := Grid([]int{16, 20, 32}, []int{4, 8, 12}, []Mode{Fixed, Variable})

	// 20 is not a multiple of 8 and 12 divides neither 16 nor 32.
	want := 2 * 2 * 2 * 2
	if len(cfgs) != want {
		t.Fatalf("len(Grid) = %d, want %d", len(cfgs), want)
	}
	for _, cfg := range cfgs {
		if err := cfg.Validate(); err != nil {
			t.Errorf("Grid produced invalid %v: %v", cfg, err)
		}
	}
}

func TestSweep(t *testing.T) {
	cfgs := Grid([]int{8, 16, 32}, []int{4, 8}, []Mode{Fixed, Variable})
	results, err := Sweep(context.Background(), cfgs, WithWorkers(4))
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if len(results) != len(cfgs) {
		t.Fatalf("len(results) = %d, want %d", len(results), len(cfgs))
	}
	for i, r := range results {
		if r.Config != cfgs[i] {
			t.Errorf("results[%d].Config = %v, want %v", i, r.Config, cfgs[i])
		}
		if !r.Pass() {
			t.Errorf("%v did not pass: %v", r.Config, r.Err)
		}
	}
}

func TestSweepCollectsConfigErrors(t *testing.T) {
	cfgs := []Config{
		{Width: 16, Height: 16, SuperBlock: 8},
		{Width: 36, Height: 32, SuperBlock: 8},
	}
	results, err := Sweep(context.Background(), cfgs, WithWorkers(2))
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("Sweep error = %v, want ErrInvalidConfig", err)
	}
	if !results[0].Pass() {
		t.Errorf("results[0] failed: %v", results[0].Err)
	}
	if results[1].Pass() {
		t.Error("results[1] passed with an invalid config")
	}
}

func TestSweepCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfgs := []Config{{Width: 16, Height: 16, SuperBlock: 8}}
	results, err := Sweep(ctx, cfgs)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Sweep error = %v, want context.Canceled", err)
	}
	if !errors.Is(results[0].Err, context.Canceled) {
		t.Errorf("results[0].Err = %v, want context.Canceled", results[0].Err)
	}
	if results[0].Config != cfgs[0] {
		t.Errorf("results[0].Config = %v, want %v", results[0].Config, cfgs[0])
	}
}

func TestSweepSharesReferences(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, nil))

	cfgs := Grid([]int{32}, []int{4, 8, 16}, []Mode{Fixed})
	if _, err := Sweep(context.Background(), cfgs, WithLogger(l), WithWorkers(1)); err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if !strings.Contains(buf.String(), "reference_hits=2 reference_misses=1") {
		t.Errorf("sweep log missing reference cache counts:\n%s", buf.String())
	}
	if !strings.Contains(buf.String(), "runs=3 workers=1") {
		t.Errorf("sweep log missing worker count:\n%s", buf.String())
	}
}
