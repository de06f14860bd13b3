// Package sim provides the core discrete-event simulation kernel.
//
// # Reading Guide
//
// Start with these three files to understand the kernel:
//   - event.go: the timestamped message exchanged between entities
//   - entity.go: the actor contract and lifecycle state machine
//   - kernel.go: the scheduling loop, clock, and pause/terminate control
//
// # Architecture
//
// Entities register with a Kernel and exchange Events through it. The
// Kernel owns the future event queue (time-ordered, not yet delivered),
// one deferred queue per entity (delivered but unconsumed), the monotonic
// clock, and the entity registry. A single control loop pops the earliest
// event, advances the clock to its time, and delivers it, so every entity
// observes a deterministic, race-free ordering without OS-level
// parallelism.
//
// Entities block selectively with Wait and a Predicate; suspension is a
// state-machine transition (Runnable -> Waiting) adjudicated by the loop,
// never a blocked goroutine. Select, FindFirstDeferred and Waiting scan an
// entity's deferred queue; Cancel and CancelAll remove still-pending
// future events.
//
// Sub-package sim/trace records dispatched events for post-run analysis;
// it stores pure data types and has no dependency back on sim.
package sim
