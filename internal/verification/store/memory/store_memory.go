package memory

import (
	"context"
	"fmt"
	"sync"

	"pastmatters/internal/verification/models"
	"pastmatters/pkg/domain"
	"pastmatters/pkg/platform/sentinel"
)

// InMemoryStore keeps jobs in process memory. Reads and writes hand out
// copies so callers never share state with the store.
type InMemoryStore struct {
	mu   sync.RWMutex
	jobs map[domain.JobID]*models.Job
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{jobs: make(map[domain.JobID]*models.Job)}
}

func (s *InMemoryStore) Insert(_ context.Context, job *models.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[job.ID]; exists {
		return fmt.Errorf("insert job %s: %w", job.ID, sentinel.ErrConflict)
	}
	s.jobs[job.ID] = job.Clone()
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id domain.JobID) (*models.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, fmt.Errorf("find job %s: %w", id, sentinel.ErrNotFound)
	}
	return job.Clone(), nil
}

func (s *InMemoryStore) UpdateFields(_ context.Context, id domain.JobID, update models.JobUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return fmt.Errorf("update job %s: %w", id, sentinel.ErrNotFound)
	}
	update.Apply(job)
	return nil
}

// Clear removes every job.
func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = make(map[domain.JobID]*models.Job)
}
