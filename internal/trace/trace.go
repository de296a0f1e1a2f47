// Package trace records the hand-off events of a streaming run.
//
// Every tile arrival, FIFO transfer and output tile emission can be sent to a
// Recorder. The Writer recorder stores events as newline-delimited JSON,
// compressed with zstd, so a full-frame trace of a large geometry stays small
// enough to keep next to a failing report.
package trace

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// Kind identifies a traced event.
type Kind string

// Event kinds.
const (
	KindSuperBlock    Kind = "superblock"
	KindTile          Kind = "tile"
	KindInterRowPush  Kind = "interrow.push"
	KindInterRowPop   Kind = "interrow.pop"
	KindMergePush     Kind = "merge.push"
	KindMergePop      Kind = "merge.pop"
	KindSpill         Kind = "spill"
	KindHoldDeliver   Kind = "hold.deliver"
	KindHoldPark      Kind = "hold.park"
	KindEmit          Kind = "emit"
	KindFrameComplete Kind = "frame.complete"
)

// Event is one traced step of the streaming model.
type Event struct {
	Seq   int  `json:"seq"`
	Kind  Kind `json:"kind"`
	SBX   int  `json:"sbx"`
	SBY   int  `json:"sby"`
	TileX int  `json:"tx"`
	TileY int  `json:"ty"`
	Lane  int  `json:"lane,omitempty"`
	Depth int  `json:"depth"`
}

// Recorder receives events in the order they happen.
type Recorder interface {
	Record(Event)
}

// Nop discards every event.
type Nop struct{}

// Record implements Recorder.
func (Nop) Record(Event) {}

// Memory keeps events in a slice. Useful for tests and small frames.
type Memory struct {
	Events []Event
}

// Record implements Recorder.
func (m *Memory) Record(e Event) {
	m.Events = append(m.Events, e)
}

// Filter returns the recorded events of the given kind.
func (m *Memory) Filter(k Kind) []Event {
	var out []Event
	for _, e := range m.Events {
		if e.Kind == k {
			out = append(out, e)
		}
	}
	return out
}

// Writer streams events to an io.Writer as zstd-compressed NDJSON.
//
// Record cannot return an error; the first encoding failure is kept and
// reported by Err and Close, and later events are dropped.
type Writer struct {
	zw  *zstd.Encoder
	bw  *bufio.Writer
	enc *json.Encoder
	err error
	n   int
}

// NewWriter wraps w. The caller must call Close to flush the compressed
// stream; Close does not close w.
func NewWriter(w io.Writer) (*Writer, error) {
	zw, err := zstd.NewWriter(w, zstd.WithEncoderConcurrency(1), zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("trace: create zstd encoder: %w", err)
	}
	bw := bufio.NewWriter(zw)
	return &Writer{zw: zw, bw: bw, enc: json.NewEncoder(bw)}, nil
}

// Record implements Recorder.
func (w *Writer) Record(e Event) {
	if w.err != nil {
		return
	}
	if err := w.enc.Encode(e); err != nil {
		w.err = fmt.Errorf("trace: encode event %d: %w", e.Seq, err)
		return
	}
	w.n++
}

// Count returns the number of events written so far.
func (w *Writer) Count() int {
	return w.n
}

// Err returns the first write error, if any.
func (w *Writer) Err() error {
	return w.err
}

// Close flushes buffered events and finishes the zstd frame.
func (w *Writer) Close() error {
	flushErr := w.bw.Flush()
	closeErr := w.zw.Close()
	return errors.Join(w.err, flushErr, closeErr)
}

// ReadAll decodes every event of a trace produced by Writer.
func ReadAll(r io.Reader) ([]Event, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("trace: create zstd decoder: %w", err)
	}
	defer dec.Close()

	var events []Event
	jd := json.NewDecoder(dec)
	for {
		var e Event
		err := jd.Decode(&e)
		if errors.Is(err, io.EOF) {
			return events, nil
		}
		if err != nil {
			return events, fmt.Errorf("trace: decode event %d: %w", len(events), err)
		}
		events = append(events, e)
	}
}
