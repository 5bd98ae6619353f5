package worker_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"webvec/internal/worker"
)

// Mocks

type MockStatusStore struct{ mock.Mock }

func (m *MockStatusStore) MarkProcessing(ctx context.Context, jobID string, startedAt time.Time) error {
	args := m.Called(ctx, jobID, startedAt)
	return args.Error(0)
}

func (m *MockStatusStore) MarkCompleted(ctx context.Context, jobID string, chunkCount int, completedAt time.Time) error {
	args := m.Called(ctx, jobID, chunkCount, completedAt)
	return args.Error(0)
}

func (m *MockStatusStore) MarkFailed(ctx context.Context, jobID string, errMsg, errTrace string) error {
	args := m.Called(ctx, jobID, errMsg, errTrace)
	return args.Error(0)
}

type MockFetcher struct{ mock.Mock }

func (m *MockFetcher) Fetch(ctx context.Context, url string) (string, error) {
	args := m.Called(ctx, url)
	return args.String(0), args.Error(1)
}

func (m *MockFetcher) Clean(raw string) string {
	args := m.Called(raw)
	return args.String(0)
}

func (m *MockFetcher) Chunk(cleaned string, size, overlap int) []string {
	args := m.Called(cleaned, size, overlap)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]string)
}

type MockEmbedder struct{ mock.Mock }

func (m *MockEmbedder) EmbedBatch(ctx context.Context, chunks []string) ([][]float32, error) {
	args := m.Called(ctx, chunks)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]float32), args.Error(1)
}

type MockVectorStore struct{ mock.Mock }

func (m *MockVectorStore) Upsert(ctx context.Context, chunks []string, vectors [][]float32, metadata map[string]interface{}, jobID string) (int, error) {
	args := m.Called(ctx, chunks, vectors, metadata, jobID)
	return args.Int(0), args.Error(1)
}

type MockTaskPublisher struct{ mock.Mock }

func (m *MockTaskPublisher) Publish(topic string, body []byte) error {
	args := m.Called(topic, body)
	return args.Error(0)
}

func (m *MockTaskPublisher) DeferredPublish(topic string, delay time.Duration, body []byte) error {
	args := m.Called(topic, delay, body)
	return args.Error(0)
}

type MockJobExecutor struct{ mock.Mock }

func (m *MockJobExecutor) Execute(ctx context.Context, jobID, url string, attempt int) worker.Result {
	args := m.Called(ctx, jobID, url, attempt)
	return args.Get(0).(worker.Result)
}
