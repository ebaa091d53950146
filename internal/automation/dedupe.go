package automation

// Tracker remembers which item identifiers a run has already processed.
// It is scoped to a single run and owned exclusively by its orchestrator,
// so it needs no locking. A fresh run always starts with an empty set.
type Tracker struct {
	seen map[string]struct{}
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{seen: make(map[string]struct{})}
}

// Seen reports whether id was recorded earlier in this run.
func (t *Tracker) Seen(id string) bool {
	_, ok := t.seen[id]
	return ok
}

// Record marks id as processed.
func (t *Tracker) Record(id string) {
	t.seen[id] = struct{}{}
}

// Len returns the number of recorded identifiers.
func (t *Tracker) Len() int {
	return len(t.seen)
}
