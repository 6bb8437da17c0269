package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"pastmatters/internal/verification/models"
	"pastmatters/pkg/domain"
	"pastmatters/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.ctx = context.Background()
}

func (s *InMemoryStoreSuite) newJob() *models.Job {
	return models.NewJob(models.SubjectInput{Name: "Asha Rao", DateOfBirth: "1990-04-12"}, time.Now().UTC())
}

func (s *InMemoryStoreSuite) TestInsertAndFind() {
	job := s.newJob()
	s.Require().NoError(s.store.Insert(s.ctx, job))

	found, err := s.store.FindByID(s.ctx, job.ID)
	s.Require().NoError(err)
	s.Equal(job.ID, found.ID)
	s.Equal(models.StatusQueued, found.Status)
	s.Equal(job.Progress, found.Progress)
}

func (s *InMemoryStoreSuite) TestInsertDuplicateConflicts() {
	job := s.newJob()
	s.Require().NoError(s.store.Insert(s.ctx, job))

	err := s.store.Insert(s.ctx, job)
	s.True(errors.Is(err, sentinel.ErrConflict))
}

func (s *InMemoryStoreSuite) TestFindUnknownIsNotFound() {
	_, err := s.store.FindByID(s.ctx, domain.NewJobID())
	s.True(errors.Is(err, sentinel.ErrNotFound))

	status := models.StatusProcessing
	err = s.store.UpdateFields(s.ctx, domain.NewJobID(), models.JobUpdate{Status: &status})
	s.True(errors.Is(err, sentinel.ErrNotFound))
}

func (s *InMemoryStoreSuite) TestUpdateFieldsIsPartial() {
	job := s.newJob()
	s.Require().NoError(s.store.Insert(s.ctx, job))

	status := models.StatusProcessing
	s.Require().NoError(s.store.UpdateFields(s.ctx, job.ID, models.JobUpdate{Status: &status}))

	progress := job.Progress.Clone()
	progress.Set(models.StageCourtCases, 10)
	s.Require().NoError(s.store.UpdateFields(s.ctx, job.ID, models.JobUpdate{Progress: &progress}))

	found, err := s.store.FindByID(s.ctx, job.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusProcessing, found.Status, "progress update leaves status alone")
	s.Equal(10, found.Progress.Stages[models.StageCourtCases])
	s.Nil(found.Result)
	s.Nil(found.Error)
}

func (s *InMemoryStoreSuite) TestReturnedJobsAreCopies() {
	job := s.newJob()
	s.Require().NoError(s.store.Insert(s.ctx, job))

	job.Progress.Set(models.StageSocial, 100)
	found, err := s.store.FindByID(s.ctx, job.ID)
	s.Require().NoError(err)
	s.Equal(0, found.Progress.Stages[models.StageSocial], "caller mutation after insert is not visible")

	found.Status = models.StatusFailed
	again, err := s.store.FindByID(s.ctx, job.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusQueued, again.Status)
}

func TestConcurrentUpdates(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	var jobs []*models.Job
	for range 8 {
		job := models.NewJob(models.SubjectInput{Name: "x", DateOfBirth: "2000-01-01"}, time.Now())
		require.NoError(t, store.Insert(ctx, job))
		jobs = append(jobs, job)
	}

	var wg sync.WaitGroup
	for _, job := range jobs {
		for _, stage := range models.EvidenceStages {
			wg.Go(func() {
				p := job.Progress.Clone()
				p.Set(stage, 100)
				assert.NoError(t, store.UpdateFields(ctx, job.ID, models.JobUpdate{Progress: &p}))
				_, err := store.FindByID(ctx, job.ID)
				assert.NoError(t, err)
			})
		}
	}
	wg.Wait()
}
