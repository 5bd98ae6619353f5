package job

import (
	"context"
	"database/sql"
	"time"
)

type Repository interface {
	Create(ctx context.Context, job *Job) error
	Get(ctx context.Context, id string) (*Job, error)
	List(ctx context.Context, limit int) ([]Job, error)
	Count(ctx context.Context) (int, error)
	CountByStatus(ctx context.Context, status Status) (int, error)

	// Status transitions, written by the worker.
	MarkProcessing(ctx context.Context, id string, startedAt time.Time) error
	MarkCompleted(ctx context.Context, id string, chunkCount int, completedAt time.Time) error
	MarkFailed(ctx context.Context, id string, errMsg, errTrace string) error
}

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Create(ctx context.Context, job *Job) error {
	if job.Status == "" {
		job.Status = StatusQueued
	}
	query := `INSERT INTO jobs (url, status) VALUES ($1, $2) RETURNING id, created_at`
	return r.db.QueryRowContext(ctx, query, job.URL, job.Status).Scan(&job.ID, &job.CreatedAt)
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (*Job, error) {
	query := `SELECT id, url, status, chunk_count, error_message, error_trace, started_at, completed_at, created_at FROM jobs WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)
	return scanJob(row)
}

func (r *PostgresRepo) List(ctx context.Context, limit int) ([]Job, error) {
	query := `SELECT id, url, status, chunk_count, error_message, error_trace, started_at, completed_at, created_at FROM jobs ORDER BY created_at DESC LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *j)
	}
	return jobs, rows.Err()
}

func (r *PostgresRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM jobs`).Scan(&count)
	return count, err
}

func (r *PostgresRepo) CountByStatus(ctx context.Context, status Status) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM jobs WHERE status = $1`, status).Scan(&count)
	return count, err
}

func (r *PostgresRepo) MarkProcessing(ctx context.Context, id string, startedAt time.Time) error {
	query := `UPDATE jobs SET status = 'processing', started_at = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, startedAt, id)
	return err
}

// MarkCompleted also clears the error fields: a failed attempt's audit record
// is superseded once a retry succeeds.
func (r *PostgresRepo) MarkCompleted(ctx context.Context, id string, chunkCount int, completedAt time.Time) error {
	query := `UPDATE jobs SET status = 'completed', chunk_count = $1, completed_at = $2, error_message = NULL, error_trace = NULL, updated_at = NOW() WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, chunkCount, completedAt, id)
	return err
}

func (r *PostgresRepo) MarkFailed(ctx context.Context, id string, errMsg, errTrace string) error {
	query := `UPDATE jobs SET status = 'failed', error_message = $1, error_trace = $2, updated_at = NOW() WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, errMsg, errTrace, id)
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanJob(row rowScanner) (*Job, error) {
	j := &Job{}
	var (
		chunkCount  sql.NullInt64
		errMsg      sql.NullString
		errTrace    sql.NullString
		startedAt   sql.NullTime
		completedAt sql.NullTime
	)
	if err := row.Scan(&j.ID, &j.URL, &j.Status, &chunkCount, &errMsg, &errTrace, &startedAt, &completedAt, &j.CreatedAt); err != nil {
		return nil, err
	}
	if chunkCount.Valid {
		j.ChunkCount = int(chunkCount.Int64)
	}
	j.ErrorMessage = errMsg.String
	j.ErrorTrace = errTrace.String
	if startedAt.Valid {
		t := startedAt.Time
		j.StartedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		j.CompletedAt = &t
	}
	return j, nil
}
