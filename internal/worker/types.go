package worker

import (
	"context"
	"time"
)

// StatusStore persists the lifecycle of an ingestion job. The executor is the
// only writer of a job's status once the job has been dispatched.
type StatusStore interface {
	MarkProcessing(ctx context.Context, jobID string, startedAt time.Time) error
	MarkCompleted(ctx context.Context, jobID string, chunkCount int, completedAt time.Time) error
	MarkFailed(ctx context.Context, jobID string, errMsg, errTrace string) error
}

// ContentFetcher retrieves a page and turns it into plain-text chunks.
type ContentFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
	Clean(raw string) string
	Chunk(cleaned string, size, overlap int) []string
}

// Embedder converts a batch of chunks into vectors. The returned slice must
// have one vector per input chunk, in input order.
type Embedder interface {
	EmbedBatch(ctx context.Context, chunks []string) ([][]float32, error)
}

// VectorStore upserts chunk/vector pairs tagged with the owning job id and
// reports how many objects were actually added.
type VectorStore interface {
	Upsert(ctx context.Context, chunks []string, vectors [][]float32, metadata map[string]interface{}, jobID string) (int, error)
}

// JobExecutor runs one ingestion attempt to a decision. The queue consumer
// depends on this rather than the concrete executor so it can be tested in
// isolation.
type JobExecutor interface {
	Execute(ctx context.Context, jobID, url string, attempt int) Result
}

// TaskPublisher dispatches ingestion tasks, immediately or after a delay.
// Satisfied by *nsq.Producer.
type TaskPublisher interface {
	Publish(topic string, body []byte) error
	DeferredPublish(topic string, delay time.Duration, body []byte) error
}
