package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/okian/placement/internal/domain/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS allocation_jobs (
  id TEXT PRIMARY KEY,
  status TEXT NOT NULL,
  result TEXT,
  error TEXT NOT NULL DEFAULT '',
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_allocation_jobs_status ON allocation_jobs(status);
`

// SQLiteStore persists jobs in a SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	cfg settings
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens dsn and creates the schema if needed.
func NewSQLiteStore(ctx context.Context, dsn string, opts ...Option) (*SQLiteStore, error) {
	cfg := defaultSettings()
	for _, opt := range opts {
		opt(&cfg)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dsn, err)
	}
	// One writer; also keeps ":memory:" databases on a single connection.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return &SQLiteStore{db: db, cfg: cfg}, nil
}

// Create records a new pending job.
func (s *SQLiteStore) Create(ctx context.Context, id string) (types.Job, error) {
	now := s.cfg.now()
	job := types.Job{ID: id, Status: types.JobPending, CreatedAt: now, UpdatedAt: now}

	_, err := s.db.ExecContext(ctx, `
INSERT INTO allocation_jobs(id, status, created_at, updated_at)
VALUES(?,?,?,?);`,
		id, string(job.Status), formatTime(now), formatTime(now))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return types.Job{}, fmt.Errorf("%w: %s", ErrAlreadyExists, id)
		}
		return types.Job{}, fmt.Errorf("insert job %s: %w", id, err)
	}
	return job, nil
}

// Get returns the job with id.
func (s *SQLiteStore) Get(ctx context.Context, id string) (types.Job, error) {
	var (
		job                  types.Job
		status               string
		result               sql.NullString
		createdAt, updatedAt string
	)
	err := s.db.QueryRowContext(ctx, `
SELECT id, status, result, error, created_at, updated_at
FROM allocation_jobs
WHERE id = ?;`, id).Scan(&job.ID, &status, &result, &job.Error, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Job{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return types.Job{}, fmt.Errorf("select job %s: %w", id, err)
	}

	job.Status = types.JobStatus(status)
	if result.Valid && result.String != "" {
		var r types.OptimizeResponse
		if err := json.Unmarshal([]byte(result.String), &r); err != nil {
			return types.Job{}, fmt.Errorf("decode job %s result: %w", id, err)
		}
		job.Result = &r
	}
	if job.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return types.Job{}, fmt.Errorf("decode job %s created_at: %w", id, err)
	}
	if job.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return types.Job{}, fmt.Errorf("decode job %s updated_at: %w", id, err)
	}
	return job, nil
}

// MarkRunning moves a pending job to running.
func (s *SQLiteStore) MarkRunning(ctx context.Context, id string) error {
	return s.transition(ctx, id, types.JobRunning, "", sql.NullString{})
}

// Complete stores the result of a running job.
func (s *SQLiteStore) Complete(ctx context.Context, id string, result types.OptimizeResponse) error {
	b, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode job %s result: %w", id, err)
	}
	return s.transition(ctx, id, types.JobDone, "", sql.NullString{String: string(b), Valid: true})
}

// Fail records why a job did not finish.
func (s *SQLiteStore) Fail(ctx context.Context, id, reason string) error {
	return s.transition(ctx, id, types.JobFailed, reason, sql.NullString{})
}

func (s *SQLiteStore) transition(ctx context.Context, id string, to types.JobStatus, reason string, result sql.NullString) error {
	from := allowed[to]
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(from)), ",")
	args := []any{string(to), reason, result, formatTime(s.cfg.now()), id}
	for _, st := range from {
		args = append(args, string(st))
	}

	//nolint:gosec // placeholders only contains "?" markers
	res, err := s.db.ExecContext(ctx, `
UPDATE allocation_jobs
SET status = ?, error = ?, result = COALESCE(?, result), updated_at = ?
WHERE id = ? AND status IN (`+placeholders+`);`, args...)
	if err != nil {
		return fmt.Errorf("update job %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update job %s: %w", id, err)
	}
	if n == 1 {
		return nil
	}

	job, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: %s %s -> %s", ErrInvalidTransition, id, job.Status, to)
}

// Count returns the number of jobs per status.
func (s *SQLiteStore) Count(ctx context.Context) (map[types.JobStatus]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM allocation_jobs GROUP BY status;`)
	if err != nil {
		return nil, fmt.Errorf("count jobs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[types.JobStatus]int, 4)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("count jobs: %w", err)
		}
		out[types.JobStatus(status)] = n
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
