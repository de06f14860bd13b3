// Implements the DeferredQueue, which holds events already delivered to an
// entity but not yet consumed because no pending wait matched them.

package sim

import (
	"fmt"
	"strings"
)

// DeferredQueue is the per-entity FIFO of delivered-but-unconsumed events.
// Arrival order is delivery order; consumption is predicate-selective.
type DeferredQueue struct {
	queue []*Event
}

// Enqueue appends a delivered event at the back of the queue.
func (dq *DeferredQueue) Enqueue(ev *Event) {
	dq.queue = append(dq.queue, ev)
}

// Len returns the number of deferred events.
func (dq *DeferredQueue) Len() int {
	return len(dq.queue)
}

// First returns the earliest-delivered event matching p without removing
// it, or NullEvent if none matches.
func (dq *DeferredQueue) First(p Predicate) *Event {
	for _, ev := range dq.queue {
		if p(ev) {
			return ev
		}
	}
	return NullEvent
}

// RemoveFirst removes and returns the earliest-delivered event matching p,
// or NullEvent if none matches.
func (dq *DeferredQueue) RemoveFirst(p Predicate) *Event {
	for i, ev := range dq.queue {
		if p(ev) {
			dq.queue = append(dq.queue[:i], dq.queue[i+1:]...)
			return ev
		}
	}
	return NullEvent
}

// Count returns how many deferred events match p, removing none.
func (dq *DeferredQueue) Count(p Predicate) int {
	n := 0
	for _, ev := range dq.queue {
		if p(ev) {
			n++
		}
	}
	return n
}

func (dq *DeferredQueue) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, ev := range dq.queue {
		sb.WriteString(fmt.Sprint(ev))
		if i < len(dq.queue)-1 {
			sb.WriteString(" ")
		}
	}
	sb.WriteString("]")
	return sb.String()
}
