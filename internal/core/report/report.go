// Package report contains the RunReport value produced by every orchestrator
// run, plus its terminal rendering. This is part of the Functional Core -
// building and rendering a report has no side effects.
package report

import (
	"sort"
	"time"
)

// =============================================================================
// Outcome Types
// =============================================================================

// Status is the per-service outcome of a run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusUnhealthy Status = "unhealthy"
	StatusMissing   Status = "missing"
	StatusPreserved Status = "preserved"
	StatusStopped   Status = "stopped"
	StatusRemoved   Status = "removed"
	StatusCopied    Status = "copied"
	StatusSkipped   Status = "skipped"
	StatusArchived  Status = "archived"
	StatusDeleted   Status = "deleted"
	StatusDetached  Status = "detached"
	StatusFailed    Status = "failed"
)

// ok reports whether the status counts as a successful outcome.
func (s Status) ok() bool {
	switch s {
	case StatusUnhealthy, StatusMissing, StatusFailed, StatusSkipped:
		return false
	}
	return true
}

// Outcome records what happened to one service or cleanup target.
type Outcome struct {
	Status   Status
	Detail   string
	Attempts int // health poll attempts, 0 when no health check ran
}

// =============================================================================
// RunReport
// =============================================================================

// RunReport maps a service or target name to its outcome. It is a transient
// value: produced, printed and discarded. Persisting it is the caller's
// concern.
type RunReport struct {
	Operation string // "deploy", "teardown", "cleanup", "copy-files", "status"
	StartedAt time.Time
	entries   map[string]Outcome
	order     []string
}

// New creates an empty RunReport for the named operation.
func New(operation string) *RunReport {
	return &RunReport{
		Operation: operation,
		StartedAt: time.Now(),
		entries:   make(map[string]Outcome),
	}
}

// Record stores the outcome for a name, preserving first-recorded order.
func (r *RunReport) Record(name string, outcome Outcome) {
	if _, seen := r.entries[name]; !seen {
		r.order = append(r.order, name)
	}
	r.entries[name] = outcome
}

// Get returns the outcome for a name.
func (r *RunReport) Get(name string) (Outcome, bool) {
	o, ok := r.entries[name]
	return o, ok
}

// Names returns recorded names in first-recorded order.
func (r *RunReport) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of recorded outcomes.
func (r *RunReport) Len() int {
	return len(r.entries)
}

// Degraded reports whether any outcome was unsuccessful. A degraded run
// still exits zero; only fatal errors produce a non-zero exit.
func (r *RunReport) Degraded() bool {
	for _, o := range r.entries {
		if !o.Status.ok() {
			return true
		}
	}
	return false
}

// Counts returns the number of outcomes per status, for summary lines.
func (r *RunReport) Counts() map[Status]int {
	counts := make(map[Status]int)
	for _, o := range r.entries {
		counts[o.Status]++
	}
	return counts
}

// statuses returns the distinct statuses present, sorted for stable output.
func (r *RunReport) statuses() []Status {
	var out []Status
	for s := range r.Counts() {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
