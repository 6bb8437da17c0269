package models

import (
	"time"

	"pastmatters/pkg/domain"
)

// Status is the job lifecycle state.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	switch s {
	case StatusQueued, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransitionTo enforces queued -> processing -> {completed | failed}.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusQueued:
		return next == StatusProcessing
	case StatusProcessing:
		return next == StatusCompleted || next == StatusFailed
	default:
		return false
	}
}

func (s Status) String() string { return string(s) }

// SubjectInput identifies the person being verified. DateOfBirth is an ISO
// date (YYYY-MM-DD) checked at submission.
type SubjectInput struct {
	Name        string          `json:"name,omitempty"`
	DateOfBirth string          `json:"dob,omitempty"`
	State       string          `json:"state,omitempty"`
	Email       string          `json:"email,omitempty"`
	Phone       string          `json:"phone,omitempty"`
	Photo       *domain.PhotoID `json:"photo_id,omitempty"`
}

// HasPhoto reports whether a photo was uploaded.
func (in SubjectInput) HasPhoto() bool {
	return in.Photo != nil && !in.Photo.IsNil()
}

// IsPhotoOnly reports a search driven solely by the uploaded image.
func (in SubjectInput) IsPhotoOnly() bool {
	return in.HasPhoto() && in.Name == ""
}

// Job is one verification request's full lifecycle record.
type Job struct {
	ID          domain.JobID `json:"id"`
	Input       SubjectInput `json:"input"`
	Status      Status       `json:"status"`
	Progress    Progress     `json:"progress"`
	Result      *Result      `json:"result,omitempty"`
	Error       *string      `json:"error,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
}

// NewJob creates a queued job with stage progress initialised for input.
func NewJob(input SubjectInput, now time.Time) *Job {
	return &Job{
		ID:        domain.NewJobID(),
		Input:     input,
		Status:    StatusQueued,
		Progress:  NewProgress(input),
		CreatedAt: now,
	}
}

// Clone returns a deep copy safe to hand across goroutines.
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	out := *j
	if j.Input.Photo != nil {
		photo := *j.Input.Photo
		out.Input.Photo = &photo
	}
	out.Progress = j.Progress.Clone()
	out.Result = j.Result.Clone()
	if j.Error != nil {
		msg := *j.Error
		out.Error = &msg
	}
	if j.CompletedAt != nil {
		at := *j.CompletedAt
		out.CompletedAt = &at
	}
	return &out
}

// JobUpdate is a partial update; nil fields are left untouched.
type JobUpdate struct {
	Status      *Status
	Progress    *Progress
	Result      *Result
	Error       *string
	CompletedAt *time.Time
}

// IsEmpty reports whether the update carries no fields.
func (u JobUpdate) IsEmpty() bool {
	return u.Status == nil && u.Progress == nil && u.Result == nil && u.Error == nil && u.CompletedAt == nil
}

// Apply writes the set fields onto job.
func (u JobUpdate) Apply(job *Job) {
	if u.Status != nil {
		job.Status = *u.Status
	}
	if u.Progress != nil {
		job.Progress = u.Progress.Clone()
	}
	if u.Result != nil {
		job.Result = u.Result.Clone()
	}
	if u.Error != nil {
		msg := *u.Error
		job.Error = &msg
	}
	if u.CompletedAt != nil {
		at := *u.CompletedAt
		job.CompletedAt = &at
	}
}
