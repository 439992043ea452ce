package eventqueue

import (
	"github.com/emirpasic/gods/trees/binaryheap"
)

// Queue is a time-ordered min-heap of Events, breaking ties by
// insertion order so two events drawn for the same timestamp are
// applied deterministically (spec.md §3 Event ordering).
type Queue struct {
	heap    *binaryheap.Heap
	nextSeq int64
}

func eventComparator(a, b interface{}) int {
	ea, eb := a.(*Event), b.(*Event)
	if ea.Time < eb.Time {
		return -1
	}
	if ea.Time > eb.Time {
		return 1
	}
	if ea.insertionSeq < eb.insertionSeq {
		return -1
	}
	if ea.insertionSeq > eb.insertionSeq {
		return 1
	}
	return 0
}

// New returns an empty Queue.
func New() *Queue {
	return &Queue{heap: binaryheap.NewWith(eventComparator)}
}

// Push enqueues an event at the given time, kind, and target. An
// insertion sequence number is assigned internally to break ties.
func (q *Queue) Push(time float64, kind Kind, targetID int) {
	q.heap.Push(&Event{Time: time, Kind: kind, TargetID: targetID, insertionSeq: q.nextSeq})
	q.nextSeq++
}

// Pop removes and returns the earliest event. ok is false if the queue
// is empty.
func (q *Queue) Pop() (Event, bool) {
	v, ok := q.heap.Pop()
	if !ok {
		return Event{}, false
	}
	return *v.(*Event), true
}

// Peek returns the earliest event without removing it.
func (q *Queue) Peek() (Event, bool) {
	v, ok := q.heap.Peek()
	if !ok {
		return Event{}, false
	}
	return *v.(*Event), true
}

// Len returns the number of events currently queued.
func (q *Queue) Len() int { return q.heap.Size() }

// Clear empties the queue and resets the insertion-sequence counter
// (used between Monte-Carlo iterations, spec.md §4.4 step 1).
func (q *Queue) Clear() {
	q.heap.Clear()
	q.nextSeq = 0
}
