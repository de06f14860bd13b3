package sim

// Helpers shared across kernel tests.

// testEntity is a scriptable entity: onStart runs when the loop starts,
// onEvent runs on every direct delivery, and got accumulates delivered
// events in order.
type testEntity struct {
	*BaseEntity
	onStart func(e *testEntity)
	onEvent func(e *testEntity, ev *Event)
	got     []*Event
}

func newTestEntity(k *Kernel, name string) *testEntity {
	e := &testEntity{BaseEntity: NewBaseEntity(k, name)}
	k.AddEntity(e)
	return e
}

func (e *testEntity) Start() {
	if e.onStart != nil {
		e.onStart(e)
	}
}

func (e *testEntity) ProcessEvent(ev *Event) {
	e.got = append(e.got, ev)
	if e.onEvent != nil {
		e.onEvent(e, ev)
	}
}

// tags returns the delivered tags in arrival order.
func (e *testEntity) tags() []int {
	out := make([]int, len(e.got))
	for i, ev := range e.got {
		out[i] = ev.Tag()
	}
	return out
}

// futureEvent builds an event directly, bypassing the kernel, for queue
// unit tests.
func futureEvent(time float64, serial int64, priority bool, src, dest, tag int) *Event {
	class := 1
	if priority {
		class = 0
	}
	return &Event{kind: KindSend, time: time, src: src, dest: dest, tag: tag, serial: serial, class: class}
}
