package eventqueue

import "github.com/gammazero/deque"

// RepairQueue is a generic FIFO wait-repair backlog: entries contend for
// a scarce resource (network bandwidth, in internal/network) and are
// admitted in arrival order (spec.md §3 Wait-repair queue: "Ordered by
// failure time (FIFO)").
type RepairQueue[T any] struct {
	d *deque.Deque[T]
}

// NewRepairQueue returns an empty RepairQueue.
func NewRepairQueue[T any]() *RepairQueue[T] {
	return &RepairQueue[T]{d: deque.New[T]()}
}

// PushBack enqueues an entry at the back of the FIFO.
func (q *RepairQueue[T]) PushBack(v T) { q.d.PushBack(v) }

// PopFront dequeues the oldest entry. Panics if the queue is empty;
// callers must check Len first.
func (q *RepairQueue[T]) PopFront() T { return q.d.PopFront() }

// Len returns the number of entries currently queued.
func (q *RepairQueue[T]) Len() int { return q.d.Len() }
