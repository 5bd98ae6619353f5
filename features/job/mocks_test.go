package job_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"webvec/features/job"
)

type MockRepository struct{ mock.Mock }

func (m *MockRepository) Create(ctx context.Context, j *job.Job) error {
	args := m.Called(ctx, j)
	return args.Error(0)
}

func (m *MockRepository) Get(ctx context.Context, id string) (*job.Job, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*job.Job), args.Error(1)
}

func (m *MockRepository) List(ctx context.Context, limit int) ([]job.Job, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]job.Job), args.Error(1)
}

func (m *MockRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) CountByStatus(ctx context.Context, status job.Status) (int, error) {
	args := m.Called(ctx, status)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) MarkProcessing(ctx context.Context, id string, startedAt time.Time) error {
	args := m.Called(ctx, id, startedAt)
	return args.Error(0)
}

func (m *MockRepository) MarkCompleted(ctx context.Context, id string, chunkCount int, completedAt time.Time) error {
	args := m.Called(ctx, id, chunkCount, completedAt)
	return args.Error(0)
}

func (m *MockRepository) MarkFailed(ctx context.Context, id string, errMsg, errTrace string) error {
	args := m.Called(ctx, id, errMsg, errTrace)
	return args.Error(0)
}

type MockPublisher struct{ mock.Mock }

func (m *MockPublisher) Publish(topic string, body []byte) error {
	args := m.Called(topic, body)
	return args.Error(0)
}

func (m *MockPublisher) DeferredPublish(topic string, delay time.Duration, body []byte) error {
	args := m.Called(topic, delay, body)
	return args.Error(0)
}
