// Package run defines the configuration and shared state of an automation run.
//
// State is the single object shared between the control path (HTTP handlers,
// CLI) and the worker goroutine executing the run. The worker is the only
// writer; any number of readers may take snapshots concurrently.
package run

import (
	"sync"
	"time"
)

// Status is the lifecycle state of a run.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusRunning   Status = "running"
	StatusStopping  Status = "stopping"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether the status is a terminal state.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Severity classifies a progress event.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Event is one entry in a run's ordered progress log.
type Event struct {
	Step      int       `json:"step"`
	Message   string    `json:"message"`
	Severity  Severity  `json:"severity"`
	Timestamp time.Time `json:"timestamp"`
}

// eventCapacity bounds the in-memory progress log. A 10,000-item run emits
// far more events than any poller needs; the log is a fixed-capacity ring
// that keeps the most recent entries and counts what it dropped.
const eventCapacity = 1000

// State is the mutable record of one run. All access goes through methods;
// the zero value is not usable, construct with NewState.
type State struct {
	mu sync.RWMutex

	id            string
	cfg           Config
	status        Status
	stopRequested bool
	processed     int
	succeeded     int
	events        []Event
	start         int // ring start index
	dropped       int
	errSummary    string
	startedAt     time.Time
	finishedAt    time.Time
}

// NewState creates a State for a new run in StatusRunning.
func NewState(id string, cfg Config) *State {
	return &State{
		id:        id,
		cfg:       cfg,
		status:    StatusRunning,
		events:    make([]Event, 0, eventCapacity),
		startedAt: time.Now(),
	}
}

// Config returns the run's immutable configuration.
func (s *State) Config() Config {
	return s.cfg
}

// ID returns the run identifier.
func (s *State) ID() string {
	return s.id
}

// Append adds an event to the progress log.
func (s *State) Append(step int, severity Severity, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.append(step, severity, message)
}

// append adds an event; callers must hold s.mu.
func (s *State) append(step int, severity Severity, message string) {
	ev := Event{Step: step, Message: message, Severity: severity, Timestamp: time.Now()}
	if len(s.events) < eventCapacity {
		s.events = append(s.events, ev)
		return
	}
	s.events[s.start] = ev
	s.start = (s.start + 1) % eventCapacity
	s.dropped++
}

// RecordProcessed increments the processed counter (and the success counter
// when success is true) and appends the matching event in one critical
// section, so readers never observe one without the other.
func (s *State) RecordProcessed(success bool, step int, severity Severity, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processed++
	if success {
		s.succeeded++
	}
	s.append(step, severity, message)
}

// RequestStop sets the cancellation flag. The flag is monotonic: once set it
// stays set for the remainder of the run. A running status moves to stopping.
func (s *State) RequestStop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopRequested {
		return
	}
	s.stopRequested = true
	if s.status == StatusRunning {
		s.status = StatusStopping
	}
}

// StopRequested reports whether a stop has been requested.
func (s *State) StopRequested() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stopRequested
}

// Finish moves the run to a terminal status and appends the summary event.
// Transitions out of a terminal status are ignored.
func (s *State) Finish(status Status, summary string, severity Severity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.Terminal() {
		return
	}
	s.status = status
	s.finishedAt = time.Now()
	if status == StatusFailed {
		s.errSummary = summary
	}
	s.append(-1, severity, summary)
}

// Status returns the current run status.
func (s *State) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Counts returns the processed and succeeded counters.
func (s *State) Counts() (processed, succeeded int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.processed, s.succeeded
}

// Snapshot is a point-in-time copy of a run's state, safe to hand to
// concurrent readers and to serialize.
type Snapshot struct {
	RunID         string    `json:"run_id,omitempty"`
	Status        Status    `json:"status"`
	StopRequested bool      `json:"stop_requested,omitempty"`
	Processed     int       `json:"processed"`
	Succeeded     int       `json:"succeeded"`
	Events        []Event   `json:"events"`
	DroppedEvents int       `json:"dropped_events,omitempty"`
	Error         string    `json:"error,omitempty"`
	StartedAt     time.Time `json:"started_at,omitempty"`
	FinishedAt    time.Time `json:"finished_at,omitempty"`
}

// IdleSnapshot is the status reported before any run has started.
func IdleSnapshot() Snapshot {
	return Snapshot{Status: StatusIdle, Events: []Event{}}
}

// Snapshot returns a consistent copy of the current state.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := make([]Event, 0, len(s.events))
	for i := 0; i < len(s.events); i++ {
		events = append(events, s.events[(s.start+i)%len(s.events)])
	}

	return Snapshot{
		RunID:         s.id,
		Status:        s.status,
		StopRequested: s.stopRequested,
		Processed:     s.processed,
		Succeeded:     s.succeeded,
		Events:        events,
		DroppedEvents: s.dropped,
		Error:         s.errSummary,
		StartedAt:     s.startedAt,
		FinishedAt:    s.finishedAt,
	}
}
