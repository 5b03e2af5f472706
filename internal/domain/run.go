package domain

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus is the terminal state of a run.
type RunStatus string

const RunCompleted RunStatus = "completed"

// RunError records a recoverable failure folded into a run summary.
// TagID is set for tag-scoped failures; tag names repeat across users.
type RunError struct {
	Scope  string    `json:"scope"`
	TagID  uuid.UUID `json:"tagId,omitzero"`
	Detail string    `json:"detail"`
}

// RunSummary is the machine-readable outcome of one orchestrator run.
type RunSummary struct {
	Status             RunStatus  `json:"status"`
	StartedAt          time.Time  `json:"startedAt"`
	FinishedAt         time.Time  `json:"finishedAt"`
	UsersProcessed     int        `json:"usersProcessed"`
	AssessmentsCreated int        `json:"assessmentsCreated"`
	EmailsSent         int        `json:"emailsSent"`
	Errors             []RunError `json:"errors"`
}

// Duration returns how long the run took.
func (s RunSummary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}
