package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"pastmatters/internal/verification/models"
	"pastmatters/pkg/domain"
	"pastmatters/pkg/platform/sentinel"
)

const jobKeyPrefix = "job:"

// Hash fields of a stored job.
const (
	fieldID          = "id"
	fieldInput       = "input"
	fieldStatus      = "status"
	fieldProgress    = "progress"
	fieldResult      = "result"
	fieldError       = "error"
	fieldCreatedAt   = "created_at"
	fieldCompletedAt = "completed_at"
)

// Store keeps each job in a Redis hash so partial updates only rewrite the
// fields they carry. Writes run inside WATCH transactions on the job key.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithTTL expires job hashes after ttl. Zero keeps them forever.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// New constructs a Redis-backed job store.
func New(client *redis.Client, opts ...Option) *Store {
	s := &Store{client: client}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func jobKey(id domain.JobID) string {
	return jobKeyPrefix + id.String()
}

func (s *Store) Insert(ctx context.Context, job *models.Job) error {
	fields, err := encodeJob(job)
	if err != nil {
		return err
	}
	key := jobKey(job.ID)

	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return sentinel.ErrConflict
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, fields)
			if s.ttl > 0 {
				pipe.Expire(ctx, key, s.ttl)
			}
			return nil
		})
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		err = sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert job %s: %w", job.ID, err)
	}
	return nil
}

func (s *Store) FindByID(ctx context.Context, id domain.JobID) (*models.Job, error) {
	values, err := s.client.HGetAll(ctx, jobKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("find job %s: %w", id, err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("find job %s: %w", id, sentinel.ErrNotFound)
	}
	job, err := decodeJob(values)
	if err != nil {
		return nil, fmt.Errorf("decode job %s: %w", id, err)
	}
	return job, nil
}

// UpdateFields rewrites only the hash fields present on update.
func (s *Store) UpdateFields(ctx context.Context, id domain.JobID, update models.JobUpdate) error {
	if update.IsEmpty() {
		return nil
	}
	fields, err := encodeUpdate(update)
	if err != nil {
		return err
	}
	key := jobKey(id)

	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n == 0 {
			return sentinel.ErrNotFound
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, fields)
			return nil
		})
		return err
	}, key)
	if err != nil {
		return fmt.Errorf("update job %s: %w", id, err)
	}
	return nil
}

func encodeJob(job *models.Job) (map[string]any, error) {
	input, err := json.Marshal(job.Input)
	if err != nil {
		return nil, fmt.Errorf("marshal job input: %w", err)
	}
	fields := map[string]any{
		fieldID:        job.ID.String(),
		fieldInput:     string(input),
		fieldCreatedAt: job.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	update, err := encodeUpdate(models.JobUpdate{
		Status:      &job.Status,
		Progress:    &job.Progress,
		Result:      job.Result,
		Error:       job.Error,
		CompletedAt: job.CompletedAt,
	})
	if err != nil {
		return nil, err
	}
	for k, v := range update {
		fields[k] = v
	}
	return fields, nil
}

func encodeUpdate(update models.JobUpdate) (map[string]any, error) {
	fields := make(map[string]any, 5)
	if update.Status != nil {
		fields[fieldStatus] = string(*update.Status)
	}
	if update.Progress != nil {
		b, err := json.Marshal(update.Progress)
		if err != nil {
			return nil, fmt.Errorf("marshal job progress: %w", err)
		}
		fields[fieldProgress] = string(b)
	}
	if update.Result != nil {
		b, err := json.Marshal(update.Result)
		if err != nil {
			return nil, fmt.Errorf("marshal job result: %w", err)
		}
		fields[fieldResult] = string(b)
	}
	if update.Error != nil {
		fields[fieldError] = *update.Error
	}
	if update.CompletedAt != nil {
		fields[fieldCompletedAt] = update.CompletedAt.UTC().Format(time.RFC3339Nano)
	}
	return fields, nil
}

func decodeJob(values map[string]string) (*models.Job, error) {
	id, err := domain.ParseJobID(values[fieldID])
	if err != nil {
		return nil, err
	}
	job := &models.Job{
		ID:     id,
		Status: models.Status(values[fieldStatus]),
	}
	if err := json.Unmarshal([]byte(values[fieldInput]), &job.Input); err != nil {
		return nil, fmt.Errorf("input: %w", err)
	}
	if err := json.Unmarshal([]byte(values[fieldProgress]), &job.Progress); err != nil {
		return nil, fmt.Errorf("progress: %w", err)
	}
	if raw, ok := values[fieldResult]; ok && raw != "" {
		job.Result = &models.Result{}
		if err := json.Unmarshal([]byte(raw), job.Result); err != nil {
			return nil, fmt.Errorf("result: %w", err)
		}
	}
	if msg, ok := values[fieldError]; ok {
		job.Error = &msg
	}
	if job.CreatedAt, err = time.Parse(time.RFC3339Nano, values[fieldCreatedAt]); err != nil {
		return nil, fmt.Errorf("created_at: %w", err)
	}
	if raw, ok := values[fieldCompletedAt]; ok {
		at, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return nil, fmt.Errorf("completed_at: %w", err)
		}
		job.CompletedAt = &at
	}
	return job, nil
}
