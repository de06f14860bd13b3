package sim

import (
	"errors"
	"testing"
)

func TestSend_NegativeDelay_Rejected(t *testing.T) {
	// GIVEN a kernel with two entities
	k := NewKernel(DefaultKernelConfig())
	a := newTestEntity(k, "a")
	b := newTestEntity(k, "b")

	// WHEN sends carry a negative delay
	// THEN each fails with ErrInvalidDelay and nothing is enqueued
	if err := k.Send(a.ID(), b.ID(), -1, 0, nil); !errors.Is(err, ErrInvalidDelay) {
		t.Errorf("Send: got %v, want ErrInvalidDelay", err)
	}
	if err := k.SendFirst(a.ID(), b.ID(), -0.5, 0, nil); !errors.Is(err, ErrInvalidDelay) {
		t.Errorf("SendFirst: got %v, want ErrInvalidDelay", err)
	}
	if err := k.HoldEntity(a.ID(), -2); !errors.Is(err, ErrInvalidDelay) {
		t.Errorf("HoldEntity: got %v, want ErrInvalidDelay", err)
	}
	if k.future.Len() != 0 {
		t.Errorf("rejected sends were enqueued: %d events", k.future.Len())
	}
}

func TestDispatch_NonDecreasingTimeAndPriorityOrder(t *testing.T) {
	// GIVEN ordinary sends at t=1, then a priority send at the same time
	k := NewKernel(DefaultKernelConfig())
	src := newTestEntity(k, "src")
	sink := newTestEntity(k, "sink")
	for tag := 1; tag <= 3; tag++ {
		if err := k.Send(src.ID(), sink.ID(), 1, tag, nil); err != nil {
			t.Fatalf("send: %v", err)
		}
	}
	if err := k.SendFirst(src.ID(), sink.ID(), 1, 99, nil); err != nil {
		t.Fatalf("sendFirst: %v", err)
	}
	if err := k.Send(src.ID(), sink.ID(), 0.5, 0, nil); err != nil {
		t.Fatalf("send: %v", err)
	}

	// WHEN the loop drains
	if _, err := k.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	// THEN the earlier event leads, the priority send precedes the
	// equal-time entries queued before it, and submission order holds
	want := []int{0, 99, 1, 2, 3}
	got := sink.tags()
	if len(got) != len(want) {
		t.Fatalf("dispatched %d events, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("dispatch %d: got tag %d, want %d", i, got[i], want[i])
		}
	}
}

func TestEndToEnd_SameTickRelay(t *testing.T) {
	// GIVEN A sends tag=1 to B at delay 5; B relays tag=2 to C with SendNow
	const (
		tagPing  = 1
		tagRelay = 2
	)
	k := NewKernel(DefaultKernelConfig())
	a := newTestEntity(k, "A")
	b := newTestEntity(k, "B")
	c := newTestEntity(k, "C")

	a.onStart = func(e *testEntity) {
		if err := k.Send(e.ID(), b.ID(), 5, tagPing, nil); err != nil {
			t.Errorf("send: %v", err)
		}
	}
	b.onEvent = func(e *testEntity, ev *Event) {
		if k.Clock() != 5 {
			t.Errorf("B dispatched at clock %g, want 5", k.Clock())
		}
		if err := k.SendNow(e.ID(), c.ID(), tagRelay, nil); err != nil {
			t.Errorf("sendNow: %v", err)
		}
	}
	c.onEvent = func(e *testEntity, ev *Event) {
		// Zero-delay same-tick delivery
		if k.Clock() != 5 {
			t.Errorf("C dispatched at clock %g, want 5", k.Clock())
		}
	}

	// WHEN the simulation drains
	final, err := k.Start()
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	// THEN the relay arrived and the final clock is 5
	if len(c.got) != 1 || c.got[0].Tag() != tagRelay {
		t.Fatalf("C received %v, want one tag=2 event", c.tags())
	}
	if final != 5 {
		t.Errorf("final clock: got %g, want 5", final)
	}
}

func TestWait_MatchingDeliveryResumes_NonMatchingDefers(t *testing.T) {
	const (
		tagWanted  = 2
		tagIgnored = 3
		tagCheck   = 50
	)
	k := NewKernel(DefaultKernelConfig())
	src := newTestEntity(k, "src")
	waiter := newTestEntity(k, "waiter")
	observer := newTestEntity(k, "observer")

	waiter.onStart = func(e *testEntity) {
		k.Wait(e.ID(), MatchTag(tagWanted))
	}
	// Non-matching event at t=1, observer check at t=1.5, matching event at t=2
	if err := k.Send(src.ID(), waiter.ID(), 1, tagIgnored, nil); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := k.Send(observer.ID(), observer.ID(), 1.5, tagCheck, nil); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := k.Send(src.ID(), waiter.ID(), 2, tagWanted, nil); err != nil {
		t.Fatalf("send: %v", err)
	}

	observer.onEvent = func(e *testEntity, ev *Event) {
		// Mid-run: the non-matching delivery left the waiter suspended
		// with the event deferred
		state, _ := k.StateOf(waiter.ID())
		if state != StateWaiting {
			t.Errorf("waiter state at t=1.5: got %v, want waiting", state)
		}
		if n := k.Waiting(waiter.ID(), MatchTag(tagIgnored)); n != 1 {
			t.Errorf("deferred count at t=1.5: got %d, want 1", n)
		}
	}
	waiter.onEvent = func(e *testEntity, ev *Event) {
		// The matching delivery transitioned waiting -> runnable within
		// the same dispatch step
		state, _ := k.StateOf(e.ID())
		if state != StateRunnable {
			t.Errorf("waiter state during matching dispatch: got %v, want runnable", state)
		}
		if ev.Tag() != tagWanted {
			t.Errorf("direct delivery tag: got %d, want %d", ev.Tag(), tagWanted)
		}

		// The deferred event is observable without removal, then
		// consumable exactly once
		first := k.FindFirstDeferred(e.ID(), MatchTag(tagIgnored))
		second := k.FindFirstDeferred(e.ID(), MatchTag(tagIgnored))
		if first == NullEvent || first != second {
			t.Errorf("FindFirstDeferred not idempotent: %v vs %v", first, second)
		}
		if sel := k.Select(e.ID(), MatchTag(tagIgnored)); sel != first {
			t.Errorf("Select: got %v, want %v", sel, first)
		}
		if sel := k.Select(e.ID(), MatchTag(tagIgnored)); sel != NullEvent {
			t.Errorf("second Select: got %v, want NullEvent", sel)
		}
	}

	if _, err := k.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if len(waiter.got) != 1 {
		t.Errorf("waiter got %d direct deliveries, want 1", len(waiter.got))
	}
}

func TestWait_AlreadyDeferredMatch_StaysRunnable(t *testing.T) {
	// GIVEN an entity with a matching event already deferred
	k := NewKernel(DefaultKernelConfig())
	e := newTestEntity(k, "e")
	k.deferredFor(e.ID()).Enqueue(futureEvent(0, 0, false, 0, e.ID(), 7))

	// WHEN the entity waits for that tag
	k.Wait(e.ID(), MatchTag(7))

	// THEN it is not suspended; the event is there to Select
	state, _ := k.StateOf(e.ID())
	if state != StateRunnable {
		t.Errorf("state: got %v, want runnable", state)
	}
	if k.Select(e.ID(), MatchTag(7)) == NullEvent {
		t.Errorf("Select after immediate wait: want the deferred event")
	}
}

func TestSelectiveOps_NilPredicateMeansAny(t *testing.T) {
	// GIVEN one deferred event and two future events for an entity
	k := NewKernel(DefaultKernelConfig())
	e := newTestEntity(k, "e")
	k.deferredFor(e.ID()).Enqueue(futureEvent(0, 0, false, e.ID(), e.ID(), 7))
	if err := k.Send(e.ID(), e.ID(), 1, 8, nil); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := k.Send(e.ID(), e.ID(), 2, 9, nil); err != nil {
		t.Fatalf("send: %v", err)
	}

	// THEN every selective operation treats a nil predicate as match-any
	if n := k.Waiting(e.ID(), nil); n != 1 {
		t.Errorf("Waiting(nil): got %d, want 1", n)
	}
	if k.FindFirstDeferred(e.ID(), nil) == NullEvent {
		t.Errorf("FindFirstDeferred(nil): want the deferred event")
	}
	if k.Select(e.ID(), nil) == NullEvent {
		t.Errorf("Select(nil): want the deferred event")
	}
	if cancelled := k.Cancel(e.ID(), nil); cancelled == NullEvent || cancelled.Time() != 1 {
		t.Errorf("Cancel(nil): got %v, want the t=1 event", cancelled)
	}
	if !k.CancelAll(e.ID(), nil) {
		t.Errorf("CancelAll(nil): want true")
	}
	k.Wait(e.ID(), nil)
	if state, _ := k.StateOf(e.ID()); state != StateWaiting {
		t.Errorf("state after Wait(nil): got %v, want waiting", state)
	}
}

func TestCancel_RemovedEventsNeverDelivered(t *testing.T) {
	const (
		tagCancelled = 1
		tagKept      = 2
	)
	k := NewKernel(DefaultKernelConfig())
	a := newTestEntity(k, "a")
	b := newTestEntity(k, "b")

	if err := k.Send(a.ID(), b.ID(), 1, tagCancelled, nil); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := k.Send(a.ID(), b.ID(), 2, tagCancelled, nil); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := k.Send(a.ID(), b.ID(), 3, tagKept, nil); err != nil {
		t.Fatalf("send: %v", err)
	}

	// WHEN the earliest match is cancelled, then the rest of the matches
	cancelled := k.Cancel(a.ID(), MatchTag(tagCancelled))
	if cancelled == NullEvent || cancelled.Time() != 1 {
		t.Fatalf("Cancel: got %v, want the t=1 event", cancelled)
	}
	if !k.CancelAll(a.ID(), MatchTag(tagCancelled)) {
		t.Fatalf("CancelAll: want true")
	}
	if k.CancelAll(a.ID(), MatchTag(tagCancelled)) {
		t.Errorf("CancelAll with nothing left: want false")
	}
	if k.Cancel(a.ID(), MatchTag(tagCancelled)) != NullEvent {
		t.Errorf("Cancel with nothing left: want NullEvent")
	}

	// THEN only the surviving event reaches the destination
	if _, err := k.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if len(b.got) != 1 || b.got[0].Tag() != tagKept {
		t.Errorf("b received %v, want only tag %d", b.tags(), tagKept)
	}
}

func TestCancel_WithinSameDispatchInstant(t *testing.T) {
	// GIVEN an entity that schedules and cancels within one dispatch
	const tagDoomed = 9
	k := NewKernel(DefaultKernelConfig())
	x := newTestEntity(k, "x")
	y := newTestEntity(k, "y")

	x.onStart = func(e *testEntity) {
		if err := k.Send(e.ID(), e.ID(), 1, 0, nil); err != nil {
			t.Errorf("send: %v", err)
		}
	}
	x.onEvent = func(e *testEntity, ev *Event) {
		if err := k.SendNow(e.ID(), y.ID(), tagDoomed, nil); err != nil {
			t.Errorf("sendNow: %v", err)
		}
		if k.Cancel(e.ID(), MatchTag(tagDoomed)) == NullEvent {
			t.Errorf("same-instant Cancel found nothing")
		}
	}

	// WHEN the simulation drains
	if _, err := k.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	// THEN the cancelled same-tick event never reached y
	if len(y.got) != 0 {
		t.Errorf("y received %v, want nothing", y.tags())
	}
}

func TestMinTimeBetweenEvents_DiscardBoundary(t *testing.T) {
	// GIVEN a kernel with epsilon = 0.5
	k := NewKernel(KernelConfig{MinTimeBetweenEvents: 0.5})
	src := newTestEntity(k, "src")
	sink := newTestEntity(k, "sink")

	if k.MinTimeBetweenEvents() != 0.5 {
		t.Fatalf("MinTimeBetweenEvents: got %g, want 0.5", k.MinTimeBetweenEvents())
	}

	// WHEN a second event lands just under epsilon after the first, and a
	// third lands exactly epsilon after
	if err := k.Send(src.ID(), sink.ID(), 0, 1, nil); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := k.Send(src.ID(), sink.ID(), 0.4, 2, nil); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := k.Send(src.ID(), sink.ID(), 0.5, 3, nil); err != nil {
		t.Fatalf("send: %v", err)
	}

	// THEN the just-under event was discarded, the exactly-epsilon one kept
	if k.future.Len() != 2 {
		t.Fatalf("future queue holds %d events, want 2", k.future.Len())
	}
	if _, err := k.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	got := sink.tags()
	if len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Errorf("sink received %v, want [1 3]", got)
	}
}

func TestMinTimeBetweenEvents_PerDestination(t *testing.T) {
	// GIVEN epsilon = 0.5 and two destinations
	k := NewKernel(KernelConfig{MinTimeBetweenEvents: 0.5})
	src := newTestEntity(k, "src")
	d1 := newTestEntity(k, "d1")
	d2 := newTestEntity(k, "d2")

	// WHEN close-together events target different destinations
	if err := k.Send(src.ID(), d1.ID(), 0, 1, nil); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := k.Send(src.ID(), d2.ID(), 0.1, 2, nil); err != nil {
		t.Fatalf("send: %v", err)
	}

	// THEN the policy applies per destination, not globally
	if k.future.Len() != 2 {
		t.Errorf("future queue holds %d events, want 2", k.future.Len())
	}
}

func TestHoldEntity_HoldsUntilAutonomousWake(t *testing.T) {
	// GIVEN entity A pausing itself for 10 at clock 0
	k := NewKernel(DefaultKernelConfig())
	a := newTestEntity(k, "A")
	observer := newTestEntity(k, "observer")

	a.onStart = func(e *testEntity) {
		if err := k.PauseEntity(e.ID(), 10); err != nil {
			t.Errorf("pauseEntity: %v", err)
		}
	}
	a.onEvent = func(e *testEntity, ev *Event) {
		if ev.Kind() != KindHoldExpired {
			t.Errorf("wake kind: got %v, want hold-expired", ev.Kind())
		}
		if k.Clock() != 10 {
			t.Errorf("woke at clock %g, want 10", k.Clock())
		}
		state, _ := k.StateOf(e.ID())
		if state != StateRunnable {
			t.Errorf("state at wake: got %v, want runnable", state)
		}
	}
	// Observer checks A's state mid-hold
	if err := k.Send(observer.ID(), observer.ID(), 5, 0, nil); err != nil {
		t.Fatalf("send: %v", err)
	}
	observer.onEvent = func(e *testEntity, ev *Event) {
		state, _ := k.StateOf(a.ID())
		if state != StateHolding {
			t.Errorf("A state at t=5: got %v, want holding", state)
		}
	}

	// WHEN the kernel runs with no external event addressed to A
	final, err := k.Start()
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	// THEN A woke autonomously at clock 10
	if len(a.got) != 1 {
		t.Fatalf("A got %d deliveries, want the wake only", len(a.got))
	}
	if final != 10 {
		t.Errorf("final clock: got %g, want 10", final)
	}
}

func TestUserCounter_ReturnsToZeroWhenAllBrokersFinish(t *testing.T) {
	// GIVEN two broker-class entities joined to the shutdown barrier
	k := NewKernel(DefaultKernelConfig())
	b1 := newTestEntity(k, "broker1")
	b2 := newTestEntity(k, "broker2")
	k.IncrementNumberOfUsers()
	k.IncrementNumberOfUsers()
	if k.NumberOfUsers() != 2 {
		t.Fatalf("NumberOfUsers: got %d, want 2", k.NumberOfUsers())
	}

	// Brokers complete at different times, in reverse registration order
	done := func(e *testEntity, ev *Event) {
		if k.DecrementNumberOfUsers() < 0 {
			t.Errorf("user counter went negative")
		}
	}
	b1.onEvent = done
	b2.onEvent = done
	if err := k.Send(b2.ID(), b2.ID(), 1, 0, nil); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := k.Send(b1.ID(), b1.ID(), 2, 0, nil); err != nil {
		t.Fatalf("send: %v", err)
	}

	// WHEN both completion events have fired
	if _, err := k.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	// THEN the barrier count is exactly zero
	if k.NumberOfUsers() != 0 {
		t.Errorf("NumberOfUsers after drain: got %d, want 0", k.NumberOfUsers())
	}
}
