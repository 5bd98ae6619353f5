package worker

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/nsqio/go-nsq"

	"webvec/internal/config"
	"webvec/internal/middleware"
)

// IngestConsumer bridges the queue and the executor. Retries never go
// through NSQ's own requeue: a failed attempt is re-published as a fresh
// deferred message carrying the incremented attempt count, so the backoff
// schedule stays under our control.
type IngestConsumer struct {
	executor  JobExecutor
	publisher TaskPublisher
}

func NewIngestConsumer(executor JobExecutor, publisher TaskPublisher) *IngestConsumer {
	return &IngestConsumer{
		executor:  executor,
		publisher: publisher,
	}
}

func (h *IngestConsumer) HandleMessage(m *nsq.Message) error {
	if len(m.Body) == 0 {
		return nil
	}

	var payload IngestTaskPayload
	if err := json.Unmarshal(m.Body, &payload); err != nil {
		// Poison pill: invalid JSON, don't retry
		slog.Error("poison pill: invalid json", "error", err)
		return nil
	}

	ctx := context.Background()
	if payload.CorrelationID != "" {
		ctx = middleware.WithCorrelationID(ctx, payload.CorrelationID)
	}

	res := h.executor.Execute(ctx, payload.JobID, payload.URL, payload.Attempt)

	switch res.Disposition {
	case Completed:
		return nil

	case RetryScheduled:
		retry := IngestTaskPayload{
			JobID:         payload.JobID,
			URL:           payload.URL,
			Attempt:       payload.Attempt + 1,
			CorrelationID: payload.CorrelationID,
		}
		body, err := json.Marshal(retry)
		if err != nil {
			slog.ErrorContext(ctx, "failed to marshal retry payload", "job_id", payload.JobID, "error", err)
			return nil
		}
		if err := h.publisher.DeferredPublish(config.TopicIngestTask, res.RetryAfter, body); err != nil {
			slog.ErrorContext(ctx, "failed to schedule retry", "job_id", payload.JobID, "error", err)
			return err // NSQ redelivers this message, the retry is not lost
		}
		slog.InfoContext(ctx, "retry dispatched", "job_id", payload.JobID, "attempt", retry.Attempt, "delay", res.RetryAfter)
		return nil

	default:
		// Terminal: the job record holds the outcome, nothing to redeliver.
		slog.ErrorContext(ctx, "job failed terminally", "job_id", payload.JobID, "error", res.Err)
		return nil
	}
}
