package sim

import "fmt"

// EventKind distinguishes the message classes the kernel delivers.
type EventKind int

const (
	// KindSend is an ordinary message from one entity to another.
	KindSend EventKind = iota
	// KindHoldExpired is the self-addressed wake-up scheduled by
	// HoldEntity and PauseEntity.
	KindHoldExpired
	// KindNull marks the NullEvent sentinel returned by lookups that
	// found nothing.
	KindNull
)

func (k EventKind) String() string {
	switch k {
	case KindSend:
		return "send"
	case KindHoldExpired:
		return "hold-expired"
	case KindNull:
		return "null"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Event is a timestamped, tagged message between two registered entities.
// Fields are unexported: events are immutable once built, and ordering
// metadata (serial, priority class) must not be rewritten by callers.
type Event struct {
	kind EventKind
	time float64 // scheduled delivery time, never before the clock at scheduling
	src  int
	dest int
	tag  int
	data any

	// serial is the insertion sequence number, the tie-break key among
	// equal timestamps. class is 0 for SendFirst events and 1 otherwise;
	// it sorts priority sends ahead of ordinary ones at the same time.
	serial int64
	class  int
}

// NullEvent is the sentinel returned by Select, FindFirstDeferred and
// Cancel when no event matched. Callers test identity against it; it is
// never delivered and never signals failure through an error path.
var NullEvent = &Event{kind: KindNull, src: -1, dest: -1, tag: -1}

// Kind returns the event class.
func (e *Event) Kind() EventKind { return e.kind }

// Time returns the scheduled delivery time.
func (e *Event) Time() float64 { return e.time }

// Source returns the id of the entity that scheduled the event.
func (e *Event) Source() int { return e.src }

// Destination returns the id of the entity the event is addressed to.
func (e *Event) Destination() int { return e.dest }

// Tag returns the application-defined message kind.
func (e *Event) Tag() int { return e.tag }

// Data returns the opaque payload, nil if none was attached.
func (e *Event) Data() any { return e.data }

// Serial returns the insertion sequence number.
func (e *Event) Serial() int64 { return e.serial }

func (e *Event) String() string {
	if e.kind == KindNull {
		return "Event{null}"
	}
	return fmt.Sprintf("Event{%s t=%g src=%d dest=%d tag=%d}", e.kind, e.time, e.src, e.dest, e.tag)
}

// before reports whether e precedes other in dispatch order:
// time ascending, then priority class (SendFirst before ordinary sends),
// then insertion serial.
func (e *Event) before(other *Event) bool {
	if e.time != other.time {
		return e.time < other.time
	}
	if e.class != other.class {
		return e.class < other.class
	}
	return e.serial < other.serial
}
