package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"webvec/internal/config"
	"webvec/internal/middleware"
	"webvec/internal/worker"
)

var ErrEmptyURL = errors.New("url is required")

type Service struct {
	repo Repository
	pub  worker.TaskPublisher
}

func NewService(repo Repository, pub worker.TaskPublisher) *Service {
	return &Service{repo: repo, pub: pub}
}

// Enqueue creates a queued job record and dispatches the ingestion task.
// The worker takes over from there; callers poll the job record for the
// outcome.
func (s *Service) Enqueue(ctx context.Context, url string) (*Job, error) {
	if url == "" {
		return nil, ErrEmptyURL
	}

	j := &Job{URL: url, Status: StatusQueued}
	if err := s.repo.Create(ctx, j); err != nil {
		return nil, fmt.Errorf("create job record: %w", err)
	}

	payload := worker.IngestTaskPayload{
		JobID:         j.ID,
		URL:           url,
		CorrelationID: middleware.GetCorrelationID(ctx),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal ingest task: %w", err)
	}

	if err := s.pub.Publish(config.TopicIngestTask, body); err != nil {
		// The record exists but no worker will ever pick it up; mark it so
		// the failure is visible instead of a job stuck on queued.
		if mErr := s.repo.MarkFailed(ctx, j.ID, "failed to dispatch ingestion task: "+err.Error(), ""); mErr != nil {
			slog.ErrorContext(ctx, "failed to mark undispatched job", "job_id", j.ID, "error", mErr)
		}
		return nil, fmt.Errorf("publish ingest task: %w", err)
	}

	slog.InfoContext(ctx, "job enqueued", "job_id", j.ID, "url", url)
	return j, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Job, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, limit int) ([]Job, error) {
	return s.repo.List(ctx, limit)
}
