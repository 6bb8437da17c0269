package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"pastmatters/internal/verification/models"
	"pastmatters/pkg/domain"
	"pastmatters/pkg/platform/sentinel"
)

// Store persists jobs in the verification_jobs table. Input, progress and
// result are stored as JSONB documents.
type Store struct {
	db *sql.DB
}

// New creates a PostgreSQL job store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Insert(ctx context.Context, job *models.Job) error {
	input, err := json.Marshal(job.Input)
	if err != nil {
		return fmt.Errorf("marshal job input: %w", err)
	}
	progress, err := json.Marshal(job.Progress)
	if err != nil {
		return fmt.Errorf("marshal job progress: %w", err)
	}
	result, err := marshalNullable(job.Result)
	if err != nil {
		return fmt.Errorf("marshal job result: %w", err)
	}

	query := `
		INSERT INTO verification_jobs (id, input, status, progress, result, error, created_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`
	res, err := s.db.ExecContext(ctx, query,
		uuid.UUID(job.ID),
		input,
		string(job.Status),
		progress,
		result,
		job.Error,
		job.CreatedAt,
		job.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert job %s: %w", job.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("insert job %s: %w", job.ID, sentinel.ErrConflict)
	}
	return nil
}

func (s *Store) FindByID(ctx context.Context, id domain.JobID) (*models.Job, error) {
	query := `
		SELECT id, input, status, progress, result, error, created_at, completed_at
		FROM verification_jobs
		WHERE id = $1
	`
	var (
		rawID       uuid.UUID
		input       []byte
		status      string
		progress    []byte
		result      []byte
		errMsg      sql.NullString
		job         models.Job
		completedAt sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, query, uuid.UUID(id)).Scan(
		&rawID, &input, &status, &progress, &result, &errMsg, &job.CreatedAt, &completedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find job %s: %w", id, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find job %s: %w", id, err)
	}

	job.ID = domain.JobID(rawID)
	job.Status = models.Status(status)
	if err := json.Unmarshal(input, &job.Input); err != nil {
		return nil, fmt.Errorf("decode job input: %w", err)
	}
	if err := json.Unmarshal(progress, &job.Progress); err != nil {
		return nil, fmt.Errorf("decode job progress: %w", err)
	}
	if len(result) > 0 {
		job.Result = &models.Result{}
		if err := json.Unmarshal(result, job.Result); err != nil {
			return nil, fmt.Errorf("decode job result: %w", err)
		}
	}
	if errMsg.Valid {
		job.Error = &errMsg.String
	}
	if completedAt.Valid {
		at := completedAt.Time.UTC()
		job.CompletedAt = &at
	}
	job.CreatedAt = job.CreatedAt.UTC()
	return &job, nil
}

// UpdateFields issues a single UPDATE touching only the set fields.
func (s *Store) UpdateFields(ctx context.Context, id domain.JobID, update models.JobUpdate) error {
	if update.IsEmpty() {
		return nil
	}

	var (
		sets []string
		args []any
	)
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if update.Status != nil {
		add("status", string(*update.Status))
	}
	if update.Progress != nil {
		b, err := json.Marshal(update.Progress)
		if err != nil {
			return fmt.Errorf("marshal job progress: %w", err)
		}
		add("progress", b)
	}
	if update.Result != nil {
		b, err := json.Marshal(update.Result)
		if err != nil {
			return fmt.Errorf("marshal job result: %w", err)
		}
		add("result", b)
	}
	if update.Error != nil {
		add("error", *update.Error)
	}
	if update.CompletedAt != nil {
		add("completed_at", *update.CompletedAt)
	}

	args = append(args, uuid.UUID(id))
	query := fmt.Sprintf(
		"UPDATE verification_jobs SET %s, updated_at = now() WHERE id = $%d",
		strings.Join(sets, ", "), len(args),
	)
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update job %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update job %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("update job %s: %w", id, sentinel.ErrNotFound)
	}
	return nil
}

func marshalNullable(result *models.Result) ([]byte, error) {
	if result == nil {
		return nil, nil
	}
	return json.Marshal(result)
}
