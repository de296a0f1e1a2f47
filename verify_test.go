package downscale

import (
	"bytes"
	"errors"
	"image/png"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gogpu/downscale/internal/trace"
)

// =============================================================================
// Configuration
// =============================================================================

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name  string
		cfg   Config
		field string
	}{
		{"valid fixed", Config{Width: 32, Height: 32, SuperBlock: 8}, ""},
		{"valid variable default block", Config{Width: 64, Height: 64, SuperBlock: 16, Mode: Variable}, ""},
		{"width not multiple of superblock", Config{Width: 36, Height: 32, SuperBlock: 8}, "Width"},
		{"odd height", Config{Width: 32, Height: 31, SuperBlock: 8}, "Height"},
		{"zero width", Config{Width: 0, Height: 32, SuperBlock: 8}, "Width"},
		{"superblock with odd tile count", Config{Width: 48, Height: 48, SuperBlock: 12}, "SuperBlock"},
		{"superblock multiple of 8", Config{Width: 48, Height: 48, SuperBlock: 24}, ""},
		{"superblock too small", Config{Width: 32, Height: 32, SuperBlock: 2}, "SuperBlock"},
		{"support block 3", Config{Width: 32, Height: 32, SuperBlock: 8, Mode: Variable, SupportBlock: 3}, "SupportBlock"},
		{"support block 8", Config{Width: 32, Height: 32, SuperBlock: 16, Mode: Variable, SupportBlock: 8}, ""},
		{"support block 16", Config{Width: 32, Height: 32, SuperBlock: 16, Mode: Variable, SupportBlock: 16}, "SupportBlock"},
		{"support block 6", Config{Width: 48, Height: 48, SuperBlock: 24, Mode: Variable, SupportBlock: 6}, ""},
		{"support block 5", Config{Width: 48, Height: 48, SuperBlock: 24, Mode: Variable, SupportBlock: 5}, "SupportBlock"},
		{"unknown mode", Config{Width: 32, Height: 32, SuperBlock: 8, Mode: Mode(7)}, "Mode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.field == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			var ce *ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("Validate() = %v, want *ConfigError", err)
			}
			if ce.Field != tt.field {
				t.Errorf("Field = %q, want %q", ce.Field, tt.field)
			}
			if !errors.Is(err, ErrInvalidConfig) {
				t.Error("error does not wrap ErrInvalidConfig")
			}
		})
	}
}

func TestConfigString(t *testing.T) {
	tests := []struct {
		cfg  Config
		want string
	}{
		{Config{Width: 32, Height: 16, SuperBlock: 8}, "32x16/8 fixed"},
		{Config{Width: 32, Height: 32, SuperBlock: 8, Mode: Variable}, "32x32/8 variable/4"},
		{Config{Width: 64, Height: 64, SuperBlock: 16, Mode: Variable}, "64x64/16 variable/8"},
		{Config{Width: 64, Height: 64, SuperBlock: 32, Mode: Variable}, "64x64/32 variable/16"},
		{Config{Width: 64, Height: 64, SuperBlock: 32, Mode: Variable, SupportBlock: 4}, "64x64/32 variable/4"},
	}
	for _, tt := range tests {
		if got := tt.cfg.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

// =============================================================================
// End-to-end runs
// =============================================================================

func TestVerifyFixed32x32(t *testing.T) {
	report, err := Verify(Config{Width: 32, Height: 32, SuperBlock: 8, Mode: Fixed})
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !report.Pass() {
		t.Fatal("Pass() = false")
	}
	if report.Total != 256 || report.Matched != 256 {
		t.Errorf("Matched = %d of %d, want 256 of 256", report.Matched, report.Total)
	}
	if diff := cmp.Diff(map[int]int{9: 256}, report.Supports); diff != "" {
		t.Errorf("Supports (-want +got):\n%s", diff)
	}
	s := report.Stats
	if s.InterRowPushes != s.InterRowPops || s.MergePushes != s.MergePops {
		t.Errorf("FIFOs unbalanced: %+v", s)
	}
}

func TestVerifyTraceInterRowPops(t *testing.T) {
	var buf bytes.Buffer
	if _, err := Verify(Config{Width: 32, Height: 32, SuperBlock: 8}, WithTrace(&buf)); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	events, err := trace.ReadAll(&buf)
	if err != nil {
		t.Fatalf("trace.ReadAll: %v", err)
	}

	pops := map[[2]int]int{}
	for _, e := range events {
		if e.Kind == trace.KindInterRowPop {
			pops[[2]int{e.SBX, e.SBY}]++
		}
	}
	for sby := 1; sby < 4; sby++ {
		for sbx := range 4 {
			if got := pops[[2]int{sbx, sby}]; got != 4 {
				t.Errorf("superblock (%d,%d) popped %d above cells, want 4", sbx, sby, got)
			}
		}
	}
	if last := events[len(events)-1]; last.Kind != trace.KindFrameComplete {
		t.Errorf("last event = %q, want %q", last.Kind, trace.KindFrameComplete)
	}
}

func TestVerifyVariableSupports(t *testing.T) {
	report, err := Verify(Config{Width: 32, Height: 32, SuperBlock: 8, Mode: Variable, SupportBlock: 4})
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if diff := cmp.Diff(map[int]int{9: 192, 25: 64}, report.Supports); diff != "" {
		t.Errorf("Supports (-want +got):\n%s", diff)
	}
	if report.Stats.Spills == 0 {
		t.Error("Stats.Spills = 0, want 5x5 partial sums")
	}
}

func TestVerifyVariableDefaultBlock(t *testing.T) {
	tests := []struct {
		cfg  Config
		want map[int]int
	}{
		// 6 of every 8 output columns and rows take 5x5.
		{Config{Width: 64, Height: 64, SuperBlock: 16, Mode: Variable}, map[int]int{9: 448, 25: 576}},
		// 14 of every 16.
		{Config{Width: 128, Height: 128, SuperBlock: 32, Mode: Variable}, map[int]int{9: 960, 25: 3136}},
		// 10 of every 12.
		{Config{Width: 48, Height: 48, SuperBlock: 24, Mode: Variable}, map[int]int{9: 176, 25: 400}},
	}
	for _, tt := range tests {
		t.Run(tt.cfg.String(), func(t *testing.T) {
			report, err := Verify(tt.cfg)
			if err != nil {
				t.Fatalf("Verify: %v", err)
			}
			if !report.Pass() {
				t.Fatalf("Matched = %d of %d", report.Matched, report.Total)
			}
			if diff := cmp.Diff(tt.want, report.Supports); diff != "" {
				t.Errorf("Supports (-want +got):\n%s", diff)
			}
			if report.Stats.Deferred == 0 || report.Stats.HoldPeak == 0 {
				t.Errorf("Deferred = %d, HoldPeak = %d, want output tiles held for spills",
					report.Stats.Deferred, report.Stats.HoldPeak)
			}
		})
	}
}

func TestVerifyRejectsMisalignedWidth(t *testing.T) {
	report, err := Verify(Config{Width: 36, Height: 32, SuperBlock: 8})
	if report != nil {
		t.Error("report != nil for invalid config")
	}
	var ce *ConfigError
	if !errors.As(err, &ce) || ce.Field != "Width" || ce.Value != 36 {
		t.Errorf("Verify error = %v, want ConfigError on Width=36", err)
	}
}

func TestVerifyGeometries(t *testing.T) {
	tests := []Config{
		{Width: 8, Height: 8, SuperBlock: 4},
		{Width: 16, Height: 8, SuperBlock: 4, Mode: Variable},
		{Width: 64, Height: 32, SuperBlock: 16, Mode: Variable},
		{Width: 128, Height: 64, SuperBlock: 64},
		{Width: 32, Height: 32, SuperBlock: 8, Mode: Variable, SupportBlock: 2},
		{Width: 32, Height: 32, SuperBlock: 8, Mode: Variable, SupportBlock: 1},
		{Width: 64, Height: 64, SuperBlock: 32, Mode: Variable, SupportBlock: 8},
		{Width: 96, Height: 48, SuperBlock: 24},
	}
	for _, cfg := range tests {
		t.Run(cfg.String(), func(t *testing.T) {
			report, err := Verify(cfg)
			if err != nil {
				t.Fatalf("Verify: %v", err)
			}
			if report.Matched != report.Total {
				t.Errorf("Matched = %d, want %d", report.Matched, report.Total)
			}
		})
	}
}

func TestVerifyIdempotent(t *testing.T) {
	cfg := Config{Width: 32, Height: 32, SuperBlock: 8, Mode: Variable}
	first, err := Verify(cfg)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	second, err := Verify(cfg)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if diff := cmp.Diff(first.Stats, second.Stats); diff != "" {
		t.Errorf("Stats differ between runs (-first +second):\n%s", diff)
	}
}

// =============================================================================
// Report output
// =============================================================================

func TestReportWrite(t *testing.T) {
	report, err := Verify(Config{Width: 32, Height: 32, SuperBlock: 8})
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	var buf bytes.Buffer
	if err := report.Write(&buf, 10); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "PASS: 256 of 256 outputs match") {
		t.Errorf("report = %q", buf.String())
	}
}

func TestReportWriteMap(t *testing.T) {
	report, err := Verify(Config{Width: 32, Height: 16, SuperBlock: 8})
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	var buf bytes.Buffer
	if err := report.WriteMap(&buf, 4); err != nil {
		t.Fatalf("WriteMap: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	if img.Bounds().Dx() != 64 {
		t.Errorf("map width = %d, want 64", img.Bounds().Dx())
	}
}
