package trace

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestWriterReadAll(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}

	events := []Event{
		{Seq: 0, Kind: KindSuperBlock},
		{Seq: 1, Kind: KindTile, TileX: 1},
		{Seq: 2, Kind: KindMergePush, TileX: 1, Lane: 1, Depth: 1},
		{Seq: 3, Kind: KindInterRowPush, SBY: 0, Depth: 4},
	}
	for _, e := range events {
		w.Record(e)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if w.Count() != len(events) {
		t.Errorf("Count() = %d, want %d", w.Count(), len(events))
	}

	got, err := ReadAll(&buf)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if diff := cmp.Diff(events, got); diff != "" {
		t.Errorf("ReadAll (-want +got):\n%s", diff)
	}
}

func TestReadAllRejectsPlainText(t *testing.T) {
	_, err := ReadAll(bytes.NewReader([]byte(`{"seq":0,"kind":"tile"}`)))
	if err == nil {
		t.Error("ReadAll on uncompressed input returned nil error")
	}
}

func TestMemoryFilter(t *testing.T) {
	var m Memory
	m.Record(Event{Kind: KindTile})
	m.Record(Event{Kind: KindEmit})
	m.Record(Event{Kind: KindTile})

	if n := len(m.Filter(KindTile)); n != 2 {
		t.Errorf("len(Filter(KindTile)) = %d, want 2", n)
	}
	if n := len(m.Filter(KindSpill)); n != 0 {
		t.Errorf("len(Filter(KindSpill)) = %d, want 0", n)
	}
}
