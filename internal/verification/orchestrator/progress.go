package orchestrator

import (
	"context"
	"sync"

	"pastmatters/internal/verification/models"
	"pastmatters/internal/verification/ports"
	"pastmatters/pkg/domain"
)

// progressTracker serialises stage updates for one job. The store write
// happens under the lock so pollers never observe progress going backwards.
type progressTracker struct {
	mu       sync.Mutex
	store    ports.JobStore
	jobID    domain.JobID
	progress models.Progress
}

func newProgressTracker(store ports.JobStore, job *models.Job) *progressTracker {
	return &progressTracker{
		store:    store,
		jobID:    job.ID,
		progress: job.Progress.Clone(),
	}
}

// set raises stage to value and persists the recomputed progress. Values at
// or below the current one are ignored.
func (t *progressTracker) set(ctx context.Context, stage models.Stage, value int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if current, ok := t.progress.Stages[stage]; ok && value <= current {
		return nil
	}
	t.progress.Set(stage, value)
	snapshot := t.progress.Clone()
	if err := t.store.UpdateFields(ctx, t.jobID, models.JobUpdate{Progress: &snapshot}); err != nil {
		return &FaultError{Stage: stage, Err: err}
	}
	return nil
}

func (t *progressTracker) snapshot() models.Progress {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.progress.Clone()
}
