package fifo

import (
	"errors"
	"testing"
)

func TestQueue_FIFOOrder(t *testing.T) {
	q := New[int]("order", 4)
	for i := range 4 {
		if err := q.Push(i); err != nil {
			t.Fatalf("Push(%d): %v", i, err)
		}
	}
	for i := range 4 {
		v, err := q.Pop()
		if err != nil {
			t.Fatalf("Pop(): %v", err)
		}
		if v != i {
			t.Errorf("Pop() = %d, want %d", v, i)
		}
	}
}

func TestQueue_WrapAround(t *testing.T) {
	q := New[int]("wrap", 3)
	next := 0
	want := 0
	// Keep the queue partially filled while head and tail wrap several times.
	for range 10 {
		for q.Len() < 2 {
			if err := q.Push(next); err != nil {
				t.Fatal(err)
			}
			next++
		}
		v, err := q.Pop()
		if err != nil {
			t.Fatal(err)
		}
		if v != want {
			t.Fatalf("Pop() = %d, want %d", v, want)
		}
		want++
	}
	if q.Peak() != 2 {
		t.Errorf("Peak() = %d, want 2", q.Peak())
	}
}

func TestQueue_Empty(t *testing.T) {
	q := New[string]("merge[0]", 2)
	_, err := q.Pop()
	if !errors.Is(err, ErrEmpty) {
		t.Fatalf("Pop() on empty queue err = %v, want ErrEmpty", err)
	}
	if got := err.Error(); got != "merge[0]: fifo: pop from empty queue" {
		t.Errorf("error text = %q", got)
	}
}

func TestQueue_Full(t *testing.T) {
	q := New[int]("full", 1)
	if err := q.Push(1); err != nil {
		t.Fatal(err)
	}
	if err := q.Push(2); !errors.Is(err, ErrFull) {
		t.Errorf("Push() on full queue err = %v, want ErrFull", err)
	}
	if q.Len() != 1 {
		t.Errorf("Len() = %d after rejected push, want 1", q.Len())
	}
}

func TestQueue_ExpectEmptyAndLen(t *testing.T) {
	q := New[int]("interrow", 8)
	if err := q.ExpectEmpty(); err != nil {
		t.Errorf("ExpectEmpty() on new queue = %v", err)
	}
	_ = q.Push(1)
	_ = q.Push(2)

	if err := q.ExpectEmpty(); !errors.Is(err, ErrNotEmpty) {
		t.Errorf("ExpectEmpty() err = %v, want ErrNotEmpty", err)
	}
	if err := q.ExpectLen(2); err != nil {
		t.Errorf("ExpectLen(2) = %v", err)
	}
	if err := q.ExpectLen(3); !errors.Is(err, ErrCount) {
		t.Errorf("ExpectLen(3) err = %v, want ErrCount", err)
	}
	if q.Pushes() != 2 || q.Pops() != 0 {
		t.Errorf("Pushes/Pops = %d/%d, want 2/0", q.Pushes(), q.Pops())
	}
}

func TestQueue_MinimumCapacity(t *testing.T) {
	q := New[int]("tiny", 0)
	if err := q.Push(1); err != nil {
		t.Fatalf("first Push err = %v, want nil", err)
	}
	if err := q.Push(2); !errors.Is(err, ErrFull) {
		t.Errorf("second Push err = %v, want ErrFull", err)
	}
}
