package history

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/watchvine/vinectl/internal/core/report"
)

// =============================================================================
// Run Record
// =============================================================================

// ServiceOutcome is the persisted per-service result of a run.
type ServiceOutcome struct {
	Name     string `json:"name"`
	Status   string `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Attempts int    `json:"attempts,omitempty"`
}

// Run is one recorded orchestrator run.
type Run struct {
	ID         string
	Operation  string
	Degraded   bool
	Services   []ServiceOutcome
	StartedAt  time.Time
	FinishedAt time.Time
}

// NewRun converts a finished run report into a persistable record.
func NewRun(r *report.RunReport) *Run {
	run := &Run{
		ID:         uuid.New().String(),
		Operation:  r.Operation,
		Degraded:   r.Degraded(),
		StartedAt:  r.StartedAt,
		FinishedAt: time.Now(),
	}
	for _, name := range r.Names() {
		outcome, _ := r.Get(name)
		run.Services = append(run.Services, ServiceOutcome{
			Name:     name,
			Status:   string(outcome.Status),
			Detail:   outcome.Detail,
			Attempts: outcome.Attempts,
		})
	}
	return run
}

// =============================================================================
// Store Interface
// =============================================================================

// Store persists run records.
type Store interface {
	SaveRun(ctx context.Context, run *Run) error
	GetRun(ctx context.Context, id string) (*Run, error)
	ListRuns(ctx context.Context, limit int) ([]Run, error)
	Close() error
}
