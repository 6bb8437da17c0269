package models

import (
	"time"

	"pastmatters/pkg/domain"
)

// JobEvent is emitted when a job reaches a terminal state.
type JobEvent struct {
	JobID        domain.JobID `json:"job_id"`
	Status       Status       `json:"status"`
	RiskCategory RiskCategory `json:"risk_category,omitempty"`
	OverallScore *int         `json:"overall_score,omitempty"`
	Error        string       `json:"error,omitempty"`
	OccurredAt   time.Time    `json:"occurred_at"`
}

// NewJobEvent summarises a terminal job.
func NewJobEvent(job *Job, at time.Time) JobEvent {
	ev := JobEvent{JobID: job.ID, Status: job.Status, OccurredAt: at}
	if job.Result != nil {
		score := job.Result.Assessment.OverallScore
		ev.OverallScore = &score
		ev.RiskCategory = job.Result.Assessment.RiskCategory
	}
	if job.Error != nil {
		ev.Error = *job.Error
	}
	return ev
}
