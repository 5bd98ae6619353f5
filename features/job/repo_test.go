package job_test

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"webvec/features/job"
)

func jobColumns() []string {
	return []string{"id", "url", "status", "chunk_count", "error_message", "error_trace", "started_at", "completed_at", "created_at"}
}

func TestPostgresRepo_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := job.NewPostgresRepo(db)

	created := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO jobs (url, status) VALUES ($1, $2) RETURNING id, created_at")).
		WithArgs("https://example.com", string(job.StatusQueued)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("11111111-2222-3333-4444-555555555555", created))

	j := &job.Job{URL: "https://example.com"}
	err = repo.Create(context.Background(), j)

	assert.NoError(t, err)
	assert.Equal(t, "11111111-2222-3333-4444-555555555555", j.ID)
	assert.Equal(t, job.StatusQueued, j.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepo_Get(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := job.NewPostgresRepo(db)

	t.Run("Completed", func(t *testing.T) {
		started := time.Now().Add(-time.Minute)
		completed := time.Now()
		rows := sqlmock.NewRows(jobColumns()).
			AddRow("id-1", "https://example.com", "completed", 12, nil, nil, started, completed, time.Now())

		mock.ExpectQuery(regexp.QuoteMeta("SELECT id, url, status, chunk_count, error_message, error_trace, started_at, completed_at, created_at FROM jobs WHERE id = $1")).
			WithArgs("id-1").
			WillReturnRows(rows)

		j, err := repo.Get(context.Background(), "id-1")
		assert.NoError(t, err)
		assert.Equal(t, job.StatusCompleted, j.Status)
		assert.Equal(t, 12, j.ChunkCount)
		assert.Empty(t, j.ErrorMessage)
		require.NotNil(t, j.StartedAt)
		require.NotNil(t, j.CompletedAt)
	})

	t.Run("FailedWithNulls", func(t *testing.T) {
		rows := sqlmock.NewRows(jobColumns()).
			AddRow("id-2", "https://example.com", "failed", nil, "fetch content: boom", "fetch content: boom\nboom", nil, nil, time.Now())

		mock.ExpectQuery(regexp.QuoteMeta("SELECT id, url, status")).
			WithArgs("id-2").
			WillReturnRows(rows)

		j, err := repo.Get(context.Background(), "id-2")
		assert.NoError(t, err)
		assert.Equal(t, job.StatusFailed, j.Status)
		assert.Equal(t, 0, j.ChunkCount)
		assert.Equal(t, "fetch content: boom", j.ErrorMessage)
		assert.Nil(t, j.StartedAt)
		assert.Nil(t, j.CompletedAt)
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("SELECT id, url, status")).
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.Get(context.Background(), "missing")
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})
}

func TestPostgresRepo_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := job.NewPostgresRepo(db)

	rows := sqlmock.NewRows(jobColumns()).
		AddRow("id-1", "https://a.test", "queued", nil, nil, nil, nil, nil, time.Now()).
		AddRow("id-2", "https://b.test", "completed", 3, nil, nil, time.Now(), time.Now(), time.Now())

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC LIMIT $1")).
		WithArgs(50).
		WillReturnRows(rows)

	jobs, err := repo.List(context.Background(), 50)
	assert.NoError(t, err)
	assert.Len(t, jobs, 2)
	assert.Equal(t, job.StatusQueued, jobs[0].Status)
	assert.Equal(t, 3, jobs[1].ChunkCount)
}

func TestPostgresRepo_StatusTransitions(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := job.NewPostgresRepo(db)
	now := time.Now()

	t.Run("MarkProcessing", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta("UPDATE jobs SET status = 'processing', started_at = $1, updated_at = NOW() WHERE id = $2")).
			WithArgs(now, "id-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.MarkProcessing(context.Background(), "id-1", now))
	})

	t.Run("MarkCompleted", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta("UPDATE jobs SET status = 'completed', chunk_count = $1, completed_at = $2, error_message = NULL, error_trace = NULL, updated_at = NOW() WHERE id = $3")).
			WithArgs(7, now, "id-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.MarkCompleted(context.Background(), "id-1", 7, now))
	})

	t.Run("MarkFailed", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta("UPDATE jobs SET status = 'failed', error_message = $1, error_trace = $2, updated_at = NOW() WHERE id = $3")).
			WithArgs("boom", "boom trace", "id-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.MarkFailed(context.Background(), "id-1", "boom", "boom trace"))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepo_Counts(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := job.NewPostgresRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM jobs")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(9))

	count, err := repo.Count(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 9, count)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM jobs WHERE status = $1")).
		WithArgs(string(job.StatusFailed)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	failed, err := repo.CountByStatus(context.Background(), job.StatusFailed)
	assert.NoError(t, err)
	assert.Equal(t, 2, failed)
}
