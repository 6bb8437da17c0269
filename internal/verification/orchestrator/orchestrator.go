// Package orchestrator drives a verification job from queued to a terminal
// state: photo stages, concurrent evidence collection, scoring, and the
// final result write.
package orchestrator

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"pastmatters/internal/verification/metrics"
	"pastmatters/internal/verification/models"
	"pastmatters/internal/verification/ports"
	"pastmatters/internal/verification/risk"
	"pastmatters/internal/verification/timeline"
	"pastmatters/pkg/platform/sentinel"
)

const tracerName = "pastmatters/internal/verification/orchestrator"

// Collectors groups the evidence sources. Nil entries find nothing.
type Collectors struct {
	Court       ports.LegalCollector
	Matrimonial ports.ProfileCollector
	Dating      ports.ProfileCollector
	Social      ports.ProfileCollector
}

// Orchestrator runs verification jobs. One instance serves many concurrent
// runs; all per-job state lives in the run.
type Orchestrator struct {
	store      ports.JobStore
	collectors Collectors
	extractor  ports.PhotoFeatureExtractor
	search     ports.ReverseImageSearch
	scorer     *risk.Scorer
	publisher  ports.EventPublisher
	logger     *slog.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer
	now        func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// WithPhotoServices sets the face extractor and reverse image search.
func WithPhotoServices(extractor ports.PhotoFeatureExtractor, search ports.ReverseImageSearch) Option {
	return func(o *Orchestrator) {
		if extractor != nil {
			o.extractor = extractor
		}
		if search != nil {
			o.search = search
		}
	}
}

// WithScorer replaces the default risk scorer.
func WithScorer(scorer *risk.Scorer) Option {
	return func(o *Orchestrator) {
		o.scorer = scorer
	}
}

// WithPublisher sets where terminal job events go.
func WithPublisher(p ports.EventPublisher) Option {
	return func(o *Orchestrator) {
		o.publisher = p
	}
}

// WithTracer overrides the global OpenTelemetry tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *Orchestrator) {
		o.tracer = tracer
	}
}

// WithClock sets the time source for generatedAt and completedAt.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// New creates an orchestrator over store and collectors.
func New(store ports.JobStore, collectors Collectors, opts ...Option) *Orchestrator {
	if collectors.Court == nil {
		collectors.Court = ports.EmptyCollector[models.LegalRecord]{}
	}
	if collectors.Matrimonial == nil {
		collectors.Matrimonial = ports.EmptyCollector[models.ProfileRecord]{}
	}
	if collectors.Dating == nil {
		collectors.Dating = ports.EmptyCollector[models.ProfileRecord]{}
	}
	if collectors.Social == nil {
		collectors.Social = ports.EmptyCollector[models.ProfileRecord]{}
	}

	o := &Orchestrator{
		store:      store,
		collectors: collectors,
		extractor:  ports.NoPhotoAnalysis{},
		search:     ports.NoPhotoAnalysis{},
		publisher:  ports.NopPublisher{},
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		tracer:     otel.Tracer(tracerName),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.scorer == nil {
		o.scorer = risk.NewScorer(nil)
	}
	return o
}

// Run drives a queued job to completed or failed and returns the terminal
// copy. The caller's job is not modified. The returned error is non-nil
// only when the job failed or could not be started.
func (o *Orchestrator) Run(ctx context.Context, job *models.Job) (result *models.Job, err error) {
	if job.Status != models.StatusQueued {
		return nil, fmt.Errorf("run job %s in status %s: %w", job.ID, job.Status, sentinel.ErrInvalidState)
	}
	job = job.Clone()
	start := time.Now()

	ctx, span := o.tracer.Start(ctx, "verification.run",
		trace.WithAttributes(
			attribute.String("job.id", job.ID.String()),
			attribute.Bool("job.photo_only", job.Input.IsPhotoOnly()),
		))
	defer span.End()

	defer func() {
		if rec := recover(); rec != nil {
			o.logger.ErrorContext(ctx, "verification run panicked",
				"job_id", job.ID,
				"panic", rec,
				"stack", string(debug.Stack()),
			)
			result, err = o.fail(ctx, job, &FaultError{Err: fmt.Errorf("panic: %v", rec)})
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	processing := models.StatusProcessing
	if err := o.store.UpdateFields(ctx, job.ID, models.JobUpdate{Status: &processing}); err != nil {
		return o.fail(ctx, job, &FaultError{Err: fmt.Errorf("mark processing: %w", err)})
	}
	job.Status = processing
	o.logger.InfoContext(ctx, "verification started",
		"job_id", job.ID,
		"photo_only", job.Input.IsPhotoOnly(),
	)

	tracker := newProgressTracker(o.store, job)
	res, runErr := o.execute(ctx, job, tracker)
	job.Progress = tracker.snapshot()
	if runErr != nil {
		return o.fail(ctx, job, runErr)
	}

	return o.complete(ctx, job, res, time.Since(start))
}

// execute runs every planned stage and builds the result.
func (o *Orchestrator) execute(ctx context.Context, job *models.Job, tracker *progressTracker) (*models.Result, error) {
	photo, err := o.runPhotoStages(ctx, job, tracker)
	if err != nil {
		return nil, err
	}

	ev, err := o.gatherEvidence(ctx, job.Input, photo.workingName, tracker)
	if err != nil {
		return nil, err
	}

	if err := tracker.set(ctx, models.StageRiskCalculation, 50); err != nil {
		return nil, err
	}
	result := o.buildResult(ctx, job, photo, ev)
	if err := tracker.set(ctx, models.StageRiskCalculation, 100); err != nil {
		return nil, err
	}
	return result, nil
}

func (o *Orchestrator) buildResult(ctx context.Context, job *models.Job, photo photoOutcome, ev *gatheredEvidence) *models.Result {
	_, span := o.tracer.Start(ctx, "verification.stage.risk_calculation")
	defer span.End()
	start := time.Now()

	matches := photoMatchRecords(photo.search)
	profiles := mergeProfiles(ev, matches)
	assessment := o.scorer.Score(ev.court.Records, profiles)

	result := &models.Result{
		Subject: models.SubjectInfo{
			Name:         photo.workingName,
			DateOfBirth:  job.Input.DateOfBirth,
			PhotoMatched: len(matches) > 0,
			Face:         photo.features,
		},
		Assessment:     assessment,
		CourtCases:     ev.court.Records,
		Profiles:       profiles,
		Timeline:       timeline.Merge(profiles),
		DegradedStages: ev.degradedStages(photo),
		GeneratedAt:    o.now().UTC(),
	}
	if photo.searched {
		result.PhotoSearch = &models.PhotoSearchSummary{
			TotalMatches:          photo.search.TotalMatches(),
			HighConfidenceMatches: photo.search.HighConfidenceMatches(),
		}
	}

	span.SetAttributes(
		attribute.Int("risk.overall_score", assessment.OverallScore),
		attribute.String("risk.category", string(assessment.RiskCategory)),
	)
	o.metrics.ObserveStage(string(models.StageRiskCalculation), time.Since(start))
	o.metrics.ObserveRiskScore(assessment.OverallScore)
	return result
}

// complete writes status, result and completedAt in one update.
func (o *Orchestrator) complete(ctx context.Context, job *models.Job, result *models.Result, elapsed time.Duration) (*models.Job, error) {
	status := models.StatusCompleted
	completedAt := o.now().UTC()
	update := models.JobUpdate{Status: &status, Result: result, CompletedAt: &completedAt}

	if err := o.store.UpdateFields(ctx, job.ID, update); err != nil {
		return o.fail(ctx, job, &FaultError{Stage: models.StageRiskCalculation, Err: fmt.Errorf("store result: %w", err)})
	}
	update.Apply(job)

	o.logger.InfoContext(ctx, "verification completed",
		"job_id", job.ID,
		"overall_score", result.Assessment.OverallScore,
		"risk_category", result.Assessment.RiskCategory,
		"degraded_stages", len(result.DegradedStages),
		"duration_ms", elapsed.Milliseconds(),
	)
	o.metrics.IncrementFinished(string(status))
	o.publish(ctx, job)
	return job, nil
}

// fail records the failure without any partial result and returns cause.
func (o *Orchestrator) fail(ctx context.Context, job *models.Job, cause error) (*models.Job, error) {
	status := models.StatusFailed
	msg := cause.Error()
	update := models.JobUpdate{Status: &status, Error: &msg}

	if err := o.store.UpdateFields(ctx, job.ID, update); err != nil {
		o.logger.ErrorContext(ctx, "failed to record job failure",
			"job_id", job.ID,
			"cause", cause,
			"error", err,
		)
	}
	update.Apply(job)
	job.Result = nil

	o.logger.ErrorContext(ctx, "verification failed",
		"job_id", job.ID,
		"error", cause,
	)
	o.metrics.IncrementFinished(string(status))
	o.publish(ctx, job)
	return job, cause
}

func (o *Orchestrator) publish(ctx context.Context, job *models.Job) {
	if err := o.publisher.Publish(ctx, models.NewJobEvent(job, o.now().UTC())); err != nil {
		o.logger.WarnContext(ctx, "job event not published",
			"job_id", job.ID,
			"status", job.Status,
			"error", err,
		)
	}
}
