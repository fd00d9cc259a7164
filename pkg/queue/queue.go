// Package queue implements the bounded FIFO work queues of the compute nodes.
package queue

import "errors"

// ErrFull is returned by Push when the queue is at capacity.
var ErrFull = errors.New("queue full")

// FIFO is a bounded first-in first-out queue. The zero capacity means
// unbounded. It is owned by the event loop and takes no locks.
type FIFO[T any] struct {
    items []T
    head  int
    cap   int
}

// New returns a FIFO that holds at most capacity items.
func New[T any](capacity int) *FIFO[T] {
    hint := capacity
    if hint <= 0 || hint > 128 { hint = 8 }
    return &FIFO[T]{items: make([]T, 0, hint), cap: capacity}
}

// Push appends it to the tail.
func (q *FIFO[T]) Push(it T) error {
    if q.Full() { return ErrFull }
    q.items = append(q.items, it)
    return nil
}

// Peek returns a pointer to the head so callers can stamp it in place.
func (q *FIFO[T]) Peek() (*T, bool) {
    if q.Empty() { return nil, false }
    return &q.items[q.head], true
}

// Pop removes and returns the head.
func (q *FIFO[T]) Pop() (T, bool) {
    var zero T
    if q.Empty() { return zero, false }
    it := q.items[q.head]
    q.items[q.head] = zero
    q.head++
    // compact once the dead prefix dominates
    if q.head > 32 && q.head*2 >= len(q.items) {
        n := copy(q.items, q.items[q.head:])
        clear(q.items[n:])
        q.items = q.items[:n]
        q.head = 0
    }
    return it, true
}

// Len returns the number of queued items.
func (q *FIFO[T]) Len() int { return len(q.items) - q.head }

// Cap returns the configured capacity, 0 meaning unbounded.
func (q *FIFO[T]) Cap() int { return q.cap }

// Empty reports whether nothing is queued.
func (q *FIFO[T]) Empty() bool { return q.Len() == 0 }

// Full reports whether Push would fail.
func (q *FIFO[T]) Full() bool { return q.cap > 0 && q.Len() >= q.cap }

// Free returns the remaining room, or -1 when unbounded.
func (q *FIFO[T]) Free() int {
    if q.cap <= 0 { return -1 }
    return q.cap - q.Len()
}
