// Implements the FutureQueue, which holds all scheduled events that have
// not yet been delivered.

package sim

import "container/heap"

// eventHeap implements heap.Interface over future events.
// See canonical Golang example here: https://pkg.go.dev/container/heap#example-package-IntHeap
type eventHeap []*Event

func (h eventHeap) Len() int           { return len(h) }
func (h eventHeap) Less(i, j int) bool { return h[i].before(h[j]) }
func (h eventHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) {
	*h = append(*h, x.(*Event))
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[0 : n-1]
	return item
}

// FutureQueue is the time-ordered multiset of not-yet-delivered events.
// Ordering is (time, priority class, insertion serial): equal-time events
// leave in submission order, except SendFirst events, which precede every
// ordinary send at the same timestamp.
type FutureQueue struct {
	heap eventHeap
}

// NewFutureQueue creates an empty FutureQueue.
func NewFutureQueue() *FutureQueue {
	fq := &FutureQueue{heap: make(eventHeap, 0)}
	heap.Init(&fq.heap)
	return fq
}

// Len returns the number of pending events.
func (fq *FutureQueue) Len() int {
	return len(fq.heap)
}

// Push enqueues an event.
func (fq *FutureQueue) Push(ev *Event) {
	heap.Push(&fq.heap, ev)
}

// Pop removes and returns the minimum (time, class, serial) event, or
// NullEvent if the queue is empty.
func (fq *FutureQueue) Pop() *Event {
	if len(fq.heap) == 0 {
		return NullEvent
	}
	return heap.Pop(&fq.heap).(*Event)
}

// Peek returns the minimum event without removing it, or NullEvent if the
// queue is empty.
func (fq *FutureQueue) Peek() *Event {
	if len(fq.heap) == 0 {
		return NullEvent
	}
	return fq.heap[0]
}

// RemoveFirst removes and returns the pending event that matches p and
// would be dispatched earliest among the matches, or NullEvent if none
// matches. A removed event can never be delivered.
func (fq *FutureQueue) RemoveFirst(p Predicate) *Event {
	idx := -1
	for i, ev := range fq.heap {
		if !p(ev) {
			continue
		}
		if idx == -1 || ev.before(fq.heap[idx]) {
			idx = i
		}
	}
	if idx == -1 {
		return NullEvent
	}
	removed := fq.heap[idx]
	heap.Remove(&fq.heap, idx)
	return removed
}

// RemoveAll removes every pending event matching p and reports whether at
// least one was removed.
func (fq *FutureQueue) RemoveAll(p Predicate) bool {
	kept := fq.heap[:0]
	removed := false
	for _, ev := range fq.heap {
		if p(ev) {
			removed = true
			continue
		}
		kept = append(kept, ev)
	}
	if removed {
		// Clear the vacated tail so removed events are not retained by
		// the backing array, matching eventHeap.Pop.
		for i := len(kept); i < len(fq.heap); i++ {
			fq.heap[i] = nil
		}
		fq.heap = kept
		heap.Init(&fq.heap)
	}
	return removed
}
