package orchestrator

import (
	"sync"
	"sync/atomic"
)

// Phase identifies one pipeline phase.
type Phase string

// The eight phases, in execution order.
const (
	PhaseConfiguration    Phase = "configuration"
	PhaseValidation       Phase = "validation"
	PhaseAPIConnection    Phase = "api_connection"
	PhaseResolution       Phase = "resolution"
	PhasePromptGeneration Phase = "prompt_generation"
	PhaseManifestPrep     Phase = "manifest_preparation"
	PhaseImageGeneration  Phase = "image_generation"
	PhaseFinalization     Phase = "finalization"
)

// EventKind distinguishes event log entries.
type EventKind string

const (
	// EventPhaseStarted marks a phase beginning.
	EventPhaseStarted EventKind = "phase_started"
	// EventPhaseCompleted marks a phase finishing successfully.
	EventPhaseCompleted EventKind = "phase_completed"
	// EventJobUpdated reports one job record mutation during phase 7.
	EventJobUpdated EventKind = "job_updated"
	// EventRunFinished is the final entry, carrying the terminal status.
	EventRunFinished EventKind = "run_finished"
)

// Event is one entry of the replayable run event log.
//
// Events are stamped with a monotonic logical sequence, never wall
// time, so two replays of the same run produce the same log.
type Event struct {
	Seq      int64     `json:"seq"`
	Kind     EventKind `json:"kind"`
	Phase    Phase     `json:"phase,omitempty"`
	JobIndex int       `json:"job_index,omitempty"`
	JobState string    `json:"job_state,omitempty"`
	Detail   string    `json:"detail,omitempty"`
}

// Clock is the monotonic logical clock stamping event order.
// Safe for concurrent use; job updates arrive from worker goroutines.
type Clock struct {
	seq atomic.Int64
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}

// eventLog accumulates events in emission order and fans them out to an
// optional observer. Appends are serialized so concurrent job updates
// interleave cleanly with phase events.
type eventLog struct {
	mu       sync.Mutex
	clock    Clock
	events   []Event
	observer func(Event)
}

func newEventLog(observer func(Event)) *eventLog {
	return &eventLog{observer: observer}
}

// emit stamps, records and publishes one event. The observer runs under
// the log's lock so delivery order always matches Seq order, even for
// job updates emitted from concurrent workers; observers must not emit.
func (l *eventLog) emit(e Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e.Seq = l.clock.Next()
	l.events = append(l.events, e)
	if l.observer != nil {
		l.observer(e)
	}
}

// all returns a copy of the log in emission order.
func (l *eventLog) all() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}
