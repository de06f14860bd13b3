package sim

import "fmt"

// EntityState is the lifecycle state of a registered entity. Transitions
// are driven only by the kernel's scheduling loop in response to Wait,
// HoldEntity, event delivery, and run termination.
type EntityState int

const (
	// StateCreated is the state between construction and registration.
	StateCreated EntityState = iota
	// StateRunnable means the entity is eligible to receive deliveries.
	StateRunnable
	// StateWaiting means the entity is suspended on a predicate.
	StateWaiting
	// StateHolding means the entity sleeps until its scheduled wake-up.
	StateHolding
	// StateFinished is terminal; set during shutdown at run end.
	StateFinished
)

func (s EntityState) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunnable:
		return "runnable"
	case StateWaiting:
		return "waiting"
	case StateHolding:
		return "holding"
	case StateFinished:
		return "finished"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Entity is the actor contract. A registered entity owns no execution
// thread: the kernel invokes ProcessEvent on its behalf, and the call runs
// to completion before the next event is popped.
type Entity interface {
	// ID returns the sequential id assigned at registration, -1 before.
	ID() int
	// SetID is called exactly once, by the registry, at registration.
	SetID(id int)
	// Name returns the entity's name, unique within a kernel.
	Name() string
	// SetName renames the entity. The kernel's name index is refreshed
	// only by Kernel.UpdateEntityName(oldName).
	SetName(name string)
	// Start is invoked by the loop when the simulation starts; entities
	// schedule their initial sends here.
	Start()
	// ProcessEvent is invoked by the loop to deliver an event or a
	// wake-up directly to the entity.
	ProcessEvent(ev *Event)
	// Shutdown is invoked by the loop when the simulation drains.
	Shutdown()
}

// BaseEntity carries the identity bookkeeping every entity needs, so
// domain entities only embed it and implement ProcessEvent.
type BaseEntity struct {
	kernel *Kernel
	id     int
	name   string
}

// NewBaseEntity builds the embeddable base for an entity of the given
// kernel and name. The embedding struct, not the base, is what the kernel
// dispatches to, so the domain constructor passes the outer value to
// Kernel.AddEntity right after construction.
func NewBaseEntity(k *Kernel, name string) *BaseEntity {
	return &BaseEntity{kernel: k, id: -1, name: name}
}

// Kernel returns the kernel this entity registered with.
func (e *BaseEntity) Kernel() *Kernel { return e.kernel }

// ID returns the registry-assigned id, -1 before registration.
func (e *BaseEntity) ID() int { return e.id }

// SetID records the registry-assigned id.
func (e *BaseEntity) SetID(id int) { e.id = id }

// Name returns the entity name.
func (e *BaseEntity) Name() string { return e.name }

// SetName renames the entity.
func (e *BaseEntity) SetName(name string) { e.name = name }

// Start is a no-op; entities with initial sends override it.
func (e *BaseEntity) Start() {}

// ProcessEvent is a no-op; domain entities override it.
func (e *BaseEntity) ProcessEvent(ev *Event) {}

// Shutdown is a no-op; entities with teardown logic override it.
func (e *BaseEntity) Shutdown() {}

// nullEntity is the null-object returned by lookups that found nothing.
type nullEntity struct{}

func (nullEntity) ID() int             { return -1 }
func (nullEntity) SetID(int)           {}
func (nullEntity) Name() string        { return "" }
func (nullEntity) SetName(string)      {}
func (nullEntity) Start()              {}
func (nullEntity) ProcessEvent(*Event) {}
func (nullEntity) Shutdown()           {}

// NullEntity is the sentinel returned by entity lookups by id or name
// that found nothing. Callers test identity against it.
var NullEntity Entity = nullEntity{}
