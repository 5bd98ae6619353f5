package app

import (
	"context"
	"database/sql"
)

// Database is the subset of *sql.DB the wiring needs. Kept as an interface
// so tests can hand in sqlmock.
type Database interface {
	PingContext(ctx context.Context) error
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	Close() error
}

// VectorStore is everything the app needs from the chunk store: schema
// management at startup, writes from the worker, counts for stats.
type VectorStore interface {
	EnsureSchema(ctx context.Context) error
	Upsert(ctx context.Context, chunks []string, vectors [][]float32, metadata map[string]interface{}, jobID string) (int, error)
	CountChunks(ctx context.Context) (int, error)
}

// MockVectorStore is a hand-rolled stub for bootstrap tests.
type MockVectorStore struct {
	EnsureSchemaErr error
	UpsertCount     int
	ChunkCount      int
}

func (m *MockVectorStore) EnsureSchema(ctx context.Context) error {
	return m.EnsureSchemaErr
}

func (m *MockVectorStore) Upsert(ctx context.Context, chunks []string, vectors [][]float32, metadata map[string]interface{}, jobID string) (int, error) {
	m.UpsertCount += len(chunks)
	return len(chunks), nil
}

func (m *MockVectorStore) CountChunks(ctx context.Context) (int, error) {
	return m.ChunkCount, nil
}
