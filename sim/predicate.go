package sim

// Predicate is a stateless test used for selective event consumption and
// cancellation. The kernel applies it to candidate events on behalf of the
// querying entity; implementations must not mutate the event.
type Predicate func(ev *Event) bool

// PredicateAny matches every event.
func PredicateAny(*Event) bool { return true }

// PredicateNone matches no event.
func PredicateNone(*Event) bool { return false }

// MatchTag returns a predicate accepting events whose tag equals any of
// the given tags.
func MatchTag(tags ...int) Predicate {
	return func(ev *Event) bool {
		for _, tag := range tags {
			if ev.Tag() == tag {
				return true
			}
		}
		return false
	}
}

// MatchSource returns a predicate accepting events scheduled by any of
// the given entity ids.
func MatchSource(ids ...int) Predicate {
	return func(ev *Event) bool {
		for _, id := range ids {
			if ev.Source() == id {
				return true
			}
		}
		return false
	}
}
