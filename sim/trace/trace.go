package trace

import "github.com/google/uuid"

// RunTrace collects dispatch records for one simulation run.
type RunTrace struct {
	// RunID uniquely identifies the run in downstream tooling.
	RunID   string
	Records []DispatchRecord
}

// NewRunTrace creates a RunTrace with a fresh run id, ready for recording.
func NewRunTrace() *RunTrace {
	return &RunTrace{
		RunID:   uuid.NewString(),
		Records: make([]DispatchRecord, 0),
	}
}

// Record appends a dispatch record.
func (rt *RunTrace) Record(record DispatchRecord) {
	rt.Records = append(rt.Records, record)
}

// Len returns the number of recorded dispatches.
func (rt *RunTrace) Len() int {
	return len(rt.Records)
}
