// Implements the entity registry: sequential id assignment, id- and
// name-indexed lookup, and per-entity lifecycle records.

package sim

import "github.com/sirupsen/logrus"

// entityRecord is the kernel-side state attached to a registered entity.
// Lifecycle state and the pending wait predicate live here, not on the
// entity, so only the scheduling loop can transition them.
type entityRecord struct {
	ent   Entity
	state EntityState
	pred  Predicate // non-nil only while state is StateWaiting
}

// registry maps entity id -> record and name -> id. Ids are assigned
// sequentially at registration and never reused within a run.
type registry struct {
	records []*entityRecord // index == entity id
	byName  map[string]*entityRecord
}

func newRegistry() *registry {
	return &registry{
		records: make([]*entityRecord, 0),
		byName:  make(map[string]*entityRecord),
	}
}

// add assigns the next sequential id, indexes the entity under both id and
// name, and moves it to StateRunnable.
func (r *registry) add(ent Entity) *entityRecord {
	id := len(r.records)
	ent.SetID(id)
	rec := &entityRecord{ent: ent, state: StateRunnable}
	r.records = append(r.records, rec)
	if _, dup := r.byName[ent.Name()]; dup {
		logrus.Warnf("registry: duplicate entity name %q, name index keeps the newest", ent.Name())
	}
	r.byName[ent.Name()] = rec
	logrus.Debugf("registry: added entity %q with id %d", ent.Name(), id)
	return rec
}

// record returns the lifecycle record for an id, nil if out of range.
func (r *registry) record(id int) *entityRecord {
	if id < 0 || id >= len(r.records) {
		return nil
	}
	return r.records[id]
}

// byID returns the entity with the given id, NullEntity if absent.
func (r *registry) byID(id int) Entity {
	if rec := r.record(id); rec != nil {
		return rec.ent
	}
	return NullEntity
}

// lookupName returns the entity with the given name, NullEntity if absent.
func (r *registry) lookupName(name string) Entity {
	if rec, ok := r.byName[name]; ok {
		return rec.ent
	}
	return NullEntity
}

// updateName re-indexes an entity whose name changed after registration.
// Returns false if oldName was never indexed.
func (r *registry) updateName(oldName string) bool {
	rec, ok := r.byName[oldName]
	if !ok {
		return false
	}
	delete(r.byName, oldName)
	r.byName[rec.ent.Name()] = rec
	return true
}

// list returns the registered entities in id order. The returned slice is
// a copy: callers may not mutate registry contents through it.
func (r *registry) list() []Entity {
	out := make([]Entity, len(r.records))
	for i, rec := range r.records {
		out[i] = rec.ent
	}
	return out
}

// namesView returns a copy of the name -> entity map.
func (r *registry) namesView() map[string]Entity {
	out := make(map[string]Entity, len(r.byName))
	for name, rec := range r.byName {
		out[name] = rec.ent
	}
	return out
}

func (r *registry) count() int {
	return len(r.records)
}
