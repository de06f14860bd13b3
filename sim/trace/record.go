// Package trace provides dispatch-trace recording for post-run analysis.
// This package has no dependencies on sim/ — it stores pure data types fed
// from the kernel's on-event-processed listener.
package trace

// DispatchRecord captures a single dispatched event.
type DispatchRecord struct {
	Clock       float64
	Source      int
	Destination int
	Tag         int
	Kind        string
}
