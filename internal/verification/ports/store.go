package ports

//go:generate mockgen -source=store.go -destination=../mocks/store_mocks.go -package=mocks JobStore

import (
	"context"

	"pastmatters/internal/verification/models"
	"pastmatters/pkg/domain"
)

// JobStore persists job documents keyed by id.
//
// FindByID returns sentinel.ErrNotFound for unknown ids and Insert returns
// sentinel.ErrConflict for duplicates. UpdateFields writes only the fields
// set on the update and must be safe for concurrent use across jobs.
type JobStore interface {
	Insert(ctx context.Context, job *models.Job) error
	FindByID(ctx context.Context, id domain.JobID) (*models.Job, error)
	UpdateFields(ctx context.Context, id domain.JobID, update models.JobUpdate) error
}
