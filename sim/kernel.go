package sim

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	// ErrInvalidDelay is returned by Send, SendFirst, SendNow, HoldEntity
	// and PauseEntity when the delay is negative. A negative delay would
	// schedule an event before the current clock and violate the future
	// queue's ordering invariant, so it is rejected instead of clamped.
	ErrInvalidDelay = errors.New("invalid delay")

	// ErrAlreadyStarted is returned by Start when the kernel has already
	// run. Callers that paused must use Resume, not a second Start.
	ErrAlreadyStarted = errors.New("simulation already started")
)

// wakeTag marks the self-addressed wake-up events scheduled by HoldEntity
// and PauseEntity. Application tags are non-negative by convention.
const wakeTag = -1

// Kernel is the core object that holds simulation time, the event queues,
// the entity registry, and the scheduling loop.
//
// All entity logic runs on the loop's thread of control: ProcessEvent is
// invoked synchronously during dispatch and runs to completion before the
// next event is popped. The clock, future queue, deferred queues and
// registry are mutated exclusively by that single control path. Only the
// pause/terminate gate is shared with other goroutines, guarded by an
// internal mutex.
type Kernel struct {
	cfg KernelConfig

	clock    float64
	serial   int64
	future   *FutureQueue
	deferred map[int]*DeferredQueue
	reg      *registry

	// lastAccepted tracks, per destination, the time of the last event
	// accepted into the future queue, for the epsilon spacing policy.
	lastAccepted map[int]float64

	numUsers      int
	infoServiceID int

	// Single-slot listeners, invoked synchronously on the loop's own
	// control path. Last registration wins.
	onEventProcessed   func(ev *Event)
	onSimulationPaused func(at float64)

	mu      sync.Mutex
	cond    *sync.Cond
	started bool
	running bool
	paused  bool
	pauseAt float64 // scheduled pause time, <0 when unset
	termAt  float64 // scheduled termination time, <0 when unset
	aborted bool
}

// NewKernel creates a kernel from the given configuration.
func NewKernel(cfg KernelConfig) *Kernel {
	k := &Kernel{
		cfg:           cfg,
		future:        NewFutureQueue(),
		deferred:      make(map[int]*DeferredQueue),
		reg:           newRegistry(),
		lastAccepted:  make(map[int]float64),
		infoServiceID: -1,
		pauseAt:       -1,
		termAt:        -1,
	}
	if cfg.TerminateAt > 0 {
		k.termAt = cfg.TerminateAt
	}
	k.cond = sync.NewCond(&k.mu)
	return k
}

// === Registry ===

// AddEntity assigns the next sequential id to the entity, indexes it under
// id and name, moves it to StateRunnable, and returns the id. Each entity
// registers once, before or during Start.
func (k *Kernel) AddEntity(ent Entity) int {
	rec := k.reg.add(ent)
	return rec.ent.ID()
}

// Entity returns the entity with the given id, NullEntity if absent.
func (k *Kernel) Entity(id int) Entity {
	return k.reg.byID(id)
}

// EntityByName returns the entity with the given name, NullEntity if absent.
func (k *Kernel) EntityByName(name string) Entity {
	return k.reg.lookupName(name)
}

// EntityID returns the id of the entity with the given name, -1 if absent.
func (k *Kernel) EntityID(name string) int {
	return k.reg.lookupName(name).ID()
}

// EntityName returns the name of the entity with the given id, "" if absent.
func (k *Kernel) EntityName(id int) string {
	return k.reg.byID(id).Name()
}

// EntityList returns the registered entities in id order. The slice is a
// copy; callers may not mutate registry contents through it.
func (k *Kernel) EntityList() []Entity {
	return k.reg.list()
}

// EntitiesByName returns a copy of the name -> entity map.
func (k *Kernel) EntitiesByName() map[string]Entity {
	return k.reg.namesView()
}

// NumEntities returns the live entity count.
func (k *Kernel) NumEntities() int {
	return k.reg.count()
}

// UpdateEntityName re-indexes an entity that was renamed via SetName after
// registration. Returns false if oldName was never indexed.
func (k *Kernel) UpdateEntityName(oldName string) bool {
	return k.reg.updateName(oldName)
}

// StateOf returns the lifecycle state of the entity with the given id.
// The second return value is false if the id is unknown.
func (k *Kernel) StateOf(id int) (EntityState, bool) {
	rec := k.reg.record(id)
	if rec == nil {
		return StateCreated, false
	}
	return rec.state, true
}

// SetInfoServiceEntity designates the name-service entity other actors
// discover at bootstrap.
func (k *Kernel) SetInfoServiceEntity(id int) {
	k.infoServiceID = id
}

// InfoServiceEntityID returns the designated name-service entity id, -1 if
// none was set.
func (k *Kernel) InfoServiceEntityID() int {
	return k.infoServiceID
}

// === Messaging ===

// Send schedules an event from src to dest at Clock()+delay with the given
// tag and payload. Fails with ErrInvalidDelay if delay < 0. The event may
// be silently discarded by the minimum-time-between-events policy.
func (k *Kernel) Send(src, dest int, delay float64, tag int, data any) error {
	return k.schedule(src, dest, delay, tag, data, false, KindSend)
}

// SendFirst is Send with priority: the event sorts ahead of ordinary
// events already queued at the same timestamp.
func (k *Kernel) SendFirst(src, dest int, delay float64, tag int, data any) error {
	return k.schedule(src, dest, delay, tag, data, true, KindSend)
}

// SendNow is Send with zero delay.
func (k *Kernel) SendNow(src, dest int, tag int, data any) error {
	return k.Send(src, dest, 0, tag, data)
}

func (k *Kernel) schedule(src, dest int, delay float64, tag int, data any, priority bool, kind EventKind) error {
	if delay < 0 {
		return fmt.Errorf("%w: %g", ErrInvalidDelay, delay)
	}
	t := k.clock + delay
	if eps := k.cfg.MinTimeBetweenEvents; eps > 0 && kind == KindSend {
		if last, ok := k.lastAccepted[dest]; ok && t >= last && t < last+eps {
			logrus.Debugf("kernel: discarding event for %d at %g, within %g of last accepted %g", dest, t, eps, last)
			return nil
		}
	}
	class := 1
	if priority {
		class = 0
	}
	ev := &Event{
		kind:   kind,
		time:   t,
		src:    src,
		dest:   dest,
		tag:    tag,
		data:   data,
		serial: k.serial,
		class:  class,
	}
	k.serial++
	k.future.Push(ev)
	if kind == KindSend {
		k.lastAccepted[dest] = t
	}
	return nil
}

// Cancel removes and returns the first still-pending future event that was
// scheduled by src and matches p, preventing its delivery. NullEvent if
// none matched.
func (k *Kernel) Cancel(src int, p Predicate) *Event {
	p = orAny(p)
	return k.future.RemoveFirst(func(ev *Event) bool {
		return ev.Source() == src && p(ev)
	})
}

// CancelAll removes every still-pending future event scheduled by src and
// matching p; reports whether at least one was removed.
func (k *Kernel) CancelAll(src int, p Predicate) bool {
	p = orAny(p)
	return k.future.RemoveAll(func(ev *Event) bool {
		return ev.Source() == src && p(ev)
	})
}

// === Selective consumption ===

// orAny keeps the nil-predicate contract uniform across the selective
// API: nil means PredicateAny.
func orAny(p Predicate) Predicate {
	if p == nil {
		return PredicateAny
	}
	return p
}

// Wait suspends the calling entity until an event it accepts is delivered.
// If a matching event is already deferred, the entity stays Runnable and
// should Select it; otherwise it transitions to StateWaiting and the loop
// resumes it on the first matching delivery. A nil predicate means
// PredicateAny.
func (k *Kernel) Wait(src int, p Predicate) {
	rec := k.reg.record(src)
	if rec == nil {
		logrus.Warnf("kernel: wait from unknown entity %d", src)
		return
	}
	p = orAny(p)
	if k.deferredFor(src).First(p) != NullEvent {
		// Consumable immediately; no suspension.
		return
	}
	rec.state = StateWaiting
	rec.pred = p
}

// Select removes and returns the first deferred event for src that p
// accepts, NullEvent if none. Non-blocking.
func (k *Kernel) Select(src int, p Predicate) *Event {
	return k.deferredFor(src).RemoveFirst(orAny(p))
}

// FindFirstDeferred returns the first deferred event for src that p
// accepts without removing it, NullEvent if none.
func (k *Kernel) FindFirstDeferred(src int, p Predicate) *Event {
	return k.deferredFor(src).First(orAny(p))
}

// Waiting counts the deferred events for dest that p accepts, removing none.
func (k *Kernel) Waiting(dest int, p Predicate) int {
	return k.deferredFor(dest).Count(orAny(p))
}

func (k *Kernel) deferredFor(id int) *DeferredQueue {
	dq, ok := k.deferred[id]
	if !ok {
		dq = &DeferredQueue{}
		k.deferred[id] = dq
	}
	return dq
}

// === Timing ===

// Clock returns the current simulation time. Only the scheduling loop
// advances it; the read synchronizes with that advance so callers on
// other goroutines see a consistent value.
func (k *Kernel) Clock() float64 {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.clock
}

// MinTimeBetweenEvents returns the configured epsilon spacing.
func (k *Kernel) MinTimeBetweenEvents() float64 {
	return k.cfg.MinTimeBetweenEvents
}

// HoldEntity puts the entity to sleep for delay: it transitions to
// StateHolding and a wake-up fires at Clock()+delay, returning it to
// StateRunnable. Wake-ups bypass the epsilon spacing policy.
func (k *Kernel) HoldEntity(src int, delay float64) error {
	rec := k.reg.record(src)
	if rec == nil {
		return fmt.Errorf("hold: unknown entity %d", src)
	}
	if err := k.schedule(src, src, delay, wakeTag, nil, false, KindHoldExpired); err != nil {
		return err
	}
	rec.state = StateHolding
	return nil
}

// PauseEntity is HoldEntity under the delay semantics the domain layer
// attaches to pausing; the kernel mechanism is identical.
func (k *Kernel) PauseEntity(src int, delay float64) error {
	return k.HoldEntity(src, delay)
}

// === Global pause ===

// Pause requests the loop stop dispatching before the next event. Returns
// false if the simulation is not running or already paused.
func (k *Kernel) Pause() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	if !k.running || k.paused {
		return false
	}
	k.paused = true
	return true
}

// PauseAt schedules the pause gate to engage once the clock reaches the
// given time. Returns false if the time has already passed.
func (k *Kernel) PauseAt(time float64) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	if time < k.clock {
		return false
	}
	k.pauseAt = time
	return true
}

// Resume clears the pause gate and returns whether the simulation was
// actually paused.
func (k *Kernel) Resume() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	if !k.paused {
		return false
	}
	k.paused = false
	k.cond.Broadcast()
	return true
}

// IsPaused reports whether the pause gate is engaged.
func (k *Kernel) IsPaused() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.paused
}

// IsRunning reports whether the simulation is active. A paused simulation
// is still running.
func (k *Kernel) IsRunning() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.running
}

// === Termination ===

// Terminate requests the loop stop after finishing dispatch of the current
// event. Returns false if the simulation was not running.
func (k *Kernel) Terminate() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	if !k.running {
		return false
	}
	k.running = false
	k.cond.Broadcast()
	return true
}

// TerminateAt schedules termination to take effect once the clock reaches
// the given time. Returns false if the time has already passed.
func (k *Kernel) TerminateAt(time float64) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	if time < k.clock {
		return false
	}
	k.termAt = time
	return true
}

// AbruptallyTerminate stops the loop immediately without delivering any
// further queued events and without running entity shutdown, so results
// must be treated as unreliable. It is an escape hatch, not a normal
// termination path.
func (k *Kernel) AbruptallyTerminate() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.aborted = true
	k.running = false
	k.cond.Broadcast()
}

// === Shutdown barrier ===

// IncrementNumberOfUsers adds one broker-class actor to the shutdown
// barrier count and returns the new value.
func (k *Kernel) IncrementNumberOfUsers() int {
	k.numUsers++
	return k.numUsers
}

// DecrementNumberOfUsers reports one broker-class actor as complete and
// returns the new value. The surrounding domain layer must not broadcast
// its global shutdown signal until the count reaches zero.
func (k *Kernel) DecrementNumberOfUsers() int {
	k.numUsers--
	return k.numUsers
}

// NumberOfUsers returns the current broker-class actor count.
func (k *Kernel) NumberOfUsers() int {
	return k.numUsers
}

// === Listeners ===

// SetOnEventProcessed installs the callback invoked synchronously right
// after each event is dispatched. Single slot: the last registration wins.
func (k *Kernel) SetOnEventProcessed(fn func(ev *Event)) {
	k.onEventProcessed = fn
}

// OnEventProcessed returns the installed dispatch callback, nil if none.
func (k *Kernel) OnEventProcessed() func(ev *Event) {
	return k.onEventProcessed
}

// SetOnSimulationPaused installs the callback invoked synchronously when
// the pause gate engages, with the clock value at the pause. Single slot.
func (k *Kernel) SetOnSimulationPaused(fn func(at float64)) {
	k.onSimulationPaused = fn
}

// OnSimulationPaused returns the installed pause callback, nil if none.
func (k *Kernel) OnSimulationPaused() func(at float64) {
	return k.onSimulationPaused
}

// === Scheduling loop ===

// Start runs the scheduling loop until the future queue drains or a
// termination request takes effect, and returns the final clock value.
// It fails with ErrAlreadyStarted on a second call: a kernel instance runs
// once, and a paused run continues via Resume.
func (k *Kernel) Start() (float64, error) {
	k.mu.Lock()
	if k.started {
		k.mu.Unlock()
		return k.clock, ErrAlreadyStarted
	}
	k.started = true
	k.running = true
	k.mu.Unlock()

	logrus.Infof("kernel: starting with %d entities, %d pending events", k.reg.count(), k.future.Len())
	for _, ent := range k.reg.list() {
		ent.Start()
	}

	for k.future.Len() > 0 {
		if !k.IsRunning() {
			break
		}
		next := k.future.Peek()
		if term := k.terminationTime(); term >= 0 && next.Time() >= term {
			k.advanceClock(term)
			logrus.Infof("kernel: scheduled termination at %g", k.clock)
			break
		}
		k.pauseGate(next.Time())
		if !k.IsRunning() {
			break
		}
		ev := k.future.Pop()
		k.advanceClock(ev.Time())
		k.dispatch(ev)
		if fn := k.onEventProcessed; fn != nil {
			fn(ev)
		}
		if k.isAborted() {
			logrus.Warnf("kernel: abrupt termination at %g, results may be inconsistent", k.clock)
			return k.clock, nil
		}
	}

	k.finish()
	return k.clock, nil
}

// advanceClock moves the clock forward under the control mutex. The loop
// is the only writer, but PauseAt and TerminateAt read the clock from
// other goroutines, so the write must synchronize with them. The clock
// never moves backward.
func (k *Kernel) advanceClock(t float64) {
	k.mu.Lock()
	if t > k.clock {
		k.clock = t
	}
	k.mu.Unlock()
}

func (k *Kernel) terminationTime() float64 {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.termAt
}

func (k *Kernel) isAborted() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.aborted
}

// pauseGate engages the pause gate if requested, fires the paused listener
// on the loop's own control path, and blocks until Resume (or Terminate).
// next is the timestamp of the event about to be dispatched, used to
// detect a scheduled pause.
func (k *Kernel) pauseGate(next float64) {
	k.mu.Lock()
	if k.pauseAt >= 0 && next >= k.pauseAt {
		if k.pauseAt > k.clock {
			k.clock = k.pauseAt
		}
		k.pauseAt = -1
		k.paused = true
	}
	if !k.paused {
		k.mu.Unlock()
		return
	}
	fn := k.onSimulationPaused
	at := k.clock
	k.mu.Unlock()

	logrus.Infof("kernel: paused at %g", at)
	if fn != nil {
		// The listener may call Resume itself.
		fn(at)
	}

	k.mu.Lock()
	for k.paused && k.running {
		k.cond.Wait()
	}
	k.mu.Unlock()
}

// dispatch delivers a popped event: directly into its destination's
// ProcessEvent when the destination can consume it now, otherwise into the
// destination's deferred queue.
func (k *Kernel) dispatch(ev *Event) {
	rec := k.reg.record(ev.Destination())
	if rec == nil {
		logrus.Warnf("kernel: dropping %s, unknown destination", ev)
		return
	}
	logrus.Debugf("[t=%g] dispatching %s to %q (%s)", k.clock, ev, rec.ent.Name(), rec.state)
	switch {
	case ev.Kind() == KindHoldExpired && rec.state == StateHolding:
		rec.state = StateRunnable
		rec.ent.ProcessEvent(ev)
	case rec.state == StateWaiting && rec.pred != nil && rec.pred(ev):
		rec.state = StateRunnable
		rec.pred = nil
		rec.ent.ProcessEvent(ev)
	case rec.state == StateRunnable:
		// An idle runnable entity consumes everything, like a waiter on
		// PredicateAny.
		rec.ent.ProcessEvent(ev)
	case rec.state == StateFinished:
		logrus.Debugf("kernel: dropping %s, destination finished", ev)
	default:
		k.deferredFor(ev.Destination()).Enqueue(ev)
	}
}

// finish runs the terminal drain: entity shutdown hooks, Finished states,
// and the running flag.
func (k *Kernel) finish() {
	for _, rec := range k.reg.records {
		rec.ent.Shutdown()
		rec.state = StateFinished
		rec.pred = nil
	}
	k.mu.Lock()
	k.running = false
	k.mu.Unlock()
	logrus.Infof("kernel: simulation ended at %g", k.clock)
}
