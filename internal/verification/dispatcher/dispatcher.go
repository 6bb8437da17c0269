// Package dispatcher runs verification jobs on a bounded worker pool.
//
// Admission is split from execution: a caller first reserves a slot, which
// fails fast when the pool and its queue are full, and only then persists
// and submits the job. Callers keep the job id; the dispatcher tracks the
// running task for it.
package dispatcher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"golang.org/x/sync/semaphore"

	"pastmatters/internal/verification/metrics"
	"pastmatters/internal/verification/models"
	"pastmatters/pkg/domain"
)

var (
	// ErrSaturated is returned by Reserve when every worker is busy and the
	// queue is full.
	ErrSaturated = errors.New("verification queue is full")
	// ErrClosed is returned by Reserve after Shutdown.
	ErrClosed = errors.New("dispatcher is shut down")
)

// Runner executes one job to a terminal state.
type Runner interface {
	Run(ctx context.Context, job *models.Job) (*models.Job, error)
}

// Config sizes the pool.
type Config struct {
	// Concurrency is the number of jobs running at once.
	Concurrency int
	// QueueSize is how many admitted jobs may wait for a worker.
	QueueSize int
}

// Dispatcher owns the worker pool.
type Dispatcher struct {
	runner  Runner
	admit   *semaphore.Weighted
	workers *semaphore.Weighted
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu      sync.Mutex
	closed  bool
	running map[domain.JobID]chan struct{}
	wg      sync.WaitGroup
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// New creates a dispatcher. Non-positive sizes fall back to one worker and
// no queue.
func New(runner Runner, cfg Config, opts ...Option) *Dispatcher {
	workers := max(cfg.Concurrency, 1)
	queue := max(cfg.QueueSize, 0)

	d := &Dispatcher{
		runner:  runner,
		admit:   semaphore.NewWeighted(int64(workers + queue)),
		workers: semaphore.NewWeighted(int64(workers)),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		running: make(map[domain.JobID]chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Reserve claims a pool slot without blocking. The returned ticket must be
// either submitted or released.
func (d *Dispatcher) Reserve() (*Ticket, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, ErrClosed
	}
	if !d.admit.TryAcquire(1) {
		d.metrics.IncrementRejected()
		return nil, ErrSaturated
	}
	d.wg.Add(1)
	d.metrics.JobAdmitted()
	return &Ticket{d: d}, nil
}

// Await blocks until the job with id is no longer running. Unknown or
// already finished ids return immediately.
func (d *Dispatcher) Await(ctx context.Context, id domain.JobID) error {
	d.mu.Lock()
	done, ok := d.running[id]
	d.mu.Unlock()
	if !ok {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops admission and waits for admitted jobs to finish or for
// ctx to expire.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		d.mu.Lock()
		pending := len(d.running)
		d.mu.Unlock()
		d.logger.WarnContext(ctx, "dispatcher shutdown timed out", "running", pending)
		return ctx.Err()
	}
}

func (d *Dispatcher) start(ctx context.Context, job *models.Job) {
	done := make(chan struct{})
	d.mu.Lock()
	d.running[job.ID] = done
	d.mu.Unlock()

	// the run outlives the submitting request
	runCtx := context.WithoutCancel(ctx)

	go func() {
		defer d.finish(job.ID, done)

		if err := d.workers.Acquire(runCtx, 1); err != nil {
			return
		}
		defer d.workers.Release(1)

		if _, err := d.runner.Run(runCtx, job); err != nil {
			d.logger.WarnContext(runCtx, "verification job failed",
				"job_id", job.ID,
				"error", err,
			)
		}
	}()
}

// finish frees the slot before waking Await callers, so a caller that saw
// the job finish can reserve again.
func (d *Dispatcher) finish(id domain.JobID, done chan struct{}) {
	d.mu.Lock()
	delete(d.running, id)
	d.mu.Unlock()
	d.admit.Release(1)
	d.metrics.JobReleased()
	close(done)
	d.wg.Done()
}

func (d *Dispatcher) release() {
	d.admit.Release(1)
	d.metrics.JobReleased()
	d.wg.Done()
}

// Ticket is a reserved pool slot.
type Ticket struct {
	d    *Dispatcher
	once sync.Once
}

// Submit starts job on the reserved slot. The run is detached from ctx's
// cancellation but keeps its values.
func (t *Ticket) Submit(ctx context.Context, job *models.Job) {
	t.once.Do(func() {
		t.d.start(ctx, job)
	})
}

// Release gives the slot back unused. It is a no-op after Submit.
func (t *Ticket) Release() {
	t.once.Do(t.d.release)
}
