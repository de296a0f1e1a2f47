// Package fifo provides the bounded hand-off queues of the streaming model.
//
// A Queue models a hardware FIFO: values enter at the tail and leave at the
// head, one at a time, and there is no way to look at or modify anything in
// between. Overflow, underflow and a non-empty queue at a frame boundary are
// errors rather than silent growth or zero values.
package fifo

import (
	"errors"
	"fmt"
)

// Queue errors.
var (
	// ErrEmpty is returned by Pop on an empty queue.
	ErrEmpty = errors.New("fifo: pop from empty queue")

	// ErrFull is returned by Push when the queue is at capacity.
	ErrFull = errors.New("fifo: push to full queue")

	// ErrNotEmpty is returned by ExpectEmpty when entries remain.
	ErrNotEmpty = errors.New("fifo: queue not empty")

	// ErrCount is returned by ExpectLen when the depth is not the expected one.
	ErrCount = errors.New("fifo: unexpected queue depth")
)

// Queue is a fixed-capacity ring buffer.
//
// Thread safety: Queue is NOT thread-safe. The streaming model owns its
// queues exclusively.
type Queue[T any] struct {
	name   string
	buf    []T
	head   int
	n      int
	peak   int
	pushes int
	pops   int
}

// New creates an empty queue holding at most capacity values.
// A capacity below 1 is raised to 1.
func New[T any](name string, capacity int) *Queue[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue[T]{name: name, buf: make([]T, capacity)}
}

// Push appends v at the tail.
func (q *Queue[T]) Push(v T) error {
	if q.n == len(q.buf) {
		return fmt.Errorf("%s (capacity %d): %w", q.name, len(q.buf), ErrFull)
	}
	q.buf[(q.head+q.n)%len(q.buf)] = v
	q.n++
	q.pushes++
	q.peak = max(q.peak, q.n)
	return nil
}

// Pop removes and returns the value at the head.
func (q *Queue[T]) Pop() (T, error) {
	var zero T
	if q.n == 0 {
		return zero, fmt.Errorf("%s: %w", q.name, ErrEmpty)
	}
	v := q.buf[q.head]
	q.buf[q.head] = zero
	q.head = (q.head + 1) % len(q.buf)
	q.n--
	q.pops++
	return v, nil
}

// ExpectEmpty returns an error wrapping ErrNotEmpty if any value is queued.
func (q *Queue[T]) ExpectEmpty() error {
	if q.n != 0 {
		return fmt.Errorf("%s holds %d entries: %w", q.name, q.n, ErrNotEmpty)
	}
	return nil
}

// ExpectLen returns an error wrapping ErrCount unless exactly n values are
// queued.
func (q *Queue[T]) ExpectLen(n int) error {
	if q.n != n {
		return fmt.Errorf("%s holds %d entries, want %d: %w", q.name, q.n, n, ErrCount)
	}
	return nil
}

// Len returns the number of queued values.
func (q *Queue[T]) Len() int { return q.n }

// Peak returns the highest depth reached since creation.
func (q *Queue[T]) Peak() int { return q.peak }

// Pushes returns the number of successful pushes.
func (q *Queue[T]) Pushes() int { return q.pushes }

// Pops returns the number of successful pops.
func (q *Queue[T]) Pops() int { return q.pops }
