// Package service is the submission and result boundary of verification:
// it validates input, admits jobs to the worker pool, and exposes job state
// only in the shape each status allows.
package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"pastmatters/internal/verification/dispatcher"
	"pastmatters/internal/verification/models"
	"pastmatters/internal/verification/ports"
	"pastmatters/pkg/domain"
	dErrors "pastmatters/pkg/domain-errors"
	"pastmatters/pkg/platform/sentinel"
	"pastmatters/pkg/requestcontext"
)

// DefaultEstimatedTime is what clients are told a search takes.
const DefaultEstimatedTime = 180 * time.Second

// Dispatcher admits jobs to the worker pool.
type Dispatcher interface {
	Reserve() (*dispatcher.Ticket, error)
}

// Service handles search submissions and status queries.
type Service struct {
	store         ports.JobStore
	dispatcher    Dispatcher
	logger        *slog.Logger
	estimatedTime time.Duration
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithEstimatedTime overrides the advertised processing time.
func WithEstimatedTime(d time.Duration) Option {
	return func(s *Service) {
		s.estimatedTime = d
	}
}

func New(store ports.JobStore, d Dispatcher, opts ...Option) *Service {
	s := &Service{
		store:         store,
		dispatcher:    d,
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		estimatedTime: DefaultEstimatedTime,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submission is the accepted search.
type Submission struct {
	JobID         domain.JobID
	Status        models.Status
	EstimatedTime time.Duration
}

// StatusView is a job as exposed to a poller. Error is set only for failed
// jobs.
type StatusView struct {
	JobID       domain.JobID
	Status      models.Status
	Progress    models.Progress
	Error       string
	CreatedAt   time.Time
	CompletedAt *time.Time
}

// Submit validates input, persists a queued job and hands it to the worker
// pool. A full pool rejects the search before anything is stored.
func (s *Service) Submit(ctx context.Context, input models.SubjectInput) (*Submission, error) {
	now := requestcontext.Now(ctx)
	input, err := NormalizeInput(input, now)
	if err != nil {
		return nil, err
	}

	ticket, err := s.dispatcher.Reserve()
	switch {
	case errors.Is(err, dispatcher.ErrSaturated):
		s.logger.WarnContext(ctx, "search rejected, queue full")
		return nil, dErrors.New(dErrors.CodeUnavailable, "too many searches in progress, retry later")
	case errors.Is(err, dispatcher.ErrClosed):
		return nil, dErrors.New(dErrors.CodeUnavailable, "service is shutting down")
	case err != nil:
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to queue search")
	}

	job := models.NewJob(input, now.UTC())
	if err := s.store.Insert(ctx, job); err != nil {
		ticket.Release()
		s.logger.ErrorContext(ctx, "failed to store job",
			"job_id", job.ID,
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create search")
	}
	ticket.Submit(ctx, job)

	s.logger.InfoContext(ctx, "search queued",
		"job_id", job.ID,
		"photo_only", input.IsPhotoOnly(),
		"has_photo", input.HasPhoto(),
	)
	return &Submission{
		JobID:         job.ID,
		Status:        job.Status,
		EstimatedTime: s.estimatedTime,
	}, nil
}

func (s *Service) Status(ctx context.Context, id domain.JobID) (*StatusView, error) {
	job, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	view := &StatusView{
		JobID:       job.ID,
		Status:      job.Status,
		Progress:    job.Progress,
		CreatedAt:   job.CreatedAt,
		CompletedAt: job.CompletedAt,
	}
	if job.Status == models.StatusFailed && job.Error != nil {
		view.Error = *job.Error
	}
	return view, nil
}

// Result returns the result of a completed job. Queued and processing jobs
// yield CodeNotReady; failed jobs yield CodeConflict carrying the failure.
func (s *Service) Result(ctx context.Context, id domain.JobID) (*models.Result, error) {
	job, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	switch job.Status {
	case models.StatusCompleted:
		if job.Result == nil {
			return nil, dErrors.New(dErrors.CodeInternal, "completed search has no result")
		}
		return job.Result, nil
	case models.StatusFailed:
		msg := "search failed"
		if job.Error != nil {
			msg = *job.Error
		}
		return nil, dErrors.New(dErrors.CodeConflict, msg)
	default:
		return nil, dErrors.New(dErrors.CodeNotReady, "search not completed yet")
	}
}

func (s *Service) find(ctx context.Context, id domain.JobID) (*models.Job, error) {
	job, err := s.store.FindByID(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "search not found")
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to load job", "job_id", id, "error", err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load search")
	}
	return job, nil
}
