package trace

// Summary aggregates statistics from a RunTrace.
type Summary struct {
	TotalDispatches int
	FinalClock      float64
	TagCounts       map[int]int    // tag → dispatch count
	KindCounts      map[string]int // event kind → dispatch count
}

// Summarize computes aggregate statistics from a RunTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(rt *RunTrace) *Summary {
	summary := &Summary{
		TagCounts:  make(map[int]int),
		KindCounts: make(map[string]int),
	}
	if rt == nil {
		return summary
	}

	summary.TotalDispatches = len(rt.Records)
	for _, r := range rt.Records {
		summary.TagCounts[r.Tag]++
		summary.KindCounts[r.Kind]++
		if r.Clock > summary.FinalClock {
			summary.FinalClock = r.Clock
		}
	}

	return summary
}
