package worker

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
)

// EmbedBatchSize is the number of chunks sent to the embedder per call.
const EmbedBatchSize = 100

type Disposition int

const (
	// Completed: the job finished and its status record says so.
	Completed Disposition = iota
	// RetryScheduled: this attempt failed but another should be dispatched
	// after Result.RetryAfter.
	RetryScheduled
	// FailedTerminal: the failure is final, either because input validation
	// rejected the job or because retries are exhausted.
	FailedTerminal
)

// Result is what one execution attempt resolves to. The executor never
// sleeps or re-dispatches itself; scheduling a retry is the caller's job.
type Result struct {
	JobID       string
	Disposition Disposition
	ChunksAdded int
	RetryAfter  time.Duration
	Err         error
}

// Config is the immutable policy an Executor runs under.
type Config struct {
	ChunkSize      int
	ChunkOverlap   int
	MaxRetries     int
	BaseRetryDelay time.Duration
	Deadline       time.Duration
}

// Executor drives one URL ingestion job through fetch, clean, chunk, embed
// and upsert, under a wall-clock deadline, and decides between completion,
// retry with exponential backoff, and terminal failure.
type Executor struct {
	status   StatusStore
	fetcher  ContentFetcher
	embedder Embedder
	store    VectorStore
	cfg      Config
}

func NewExecutor(status StatusStore, fetcher ContentFetcher, embedder Embedder, store VectorStore, cfg Config) *Executor {
	return &Executor{
		status:   status,
		fetcher:  fetcher,
		embedder: embedder,
		store:    store,
		cfg:      cfg,
	}
}

type pipelineOutput struct {
	chunkCount  int
	chunksAdded int
	err         error
}

// Execute runs a single attempt. attempt is 0-indexed; it is carried in the
// task payload so retries are fresh dispatches, not resumed state.
func (e *Executor) Execute(ctx context.Context, jobID, url string, attempt int) Result {
	if _, err := uuid.Parse(jobID); err != nil {
		return Result{
			JobID:       jobID,
			Disposition: FailedTerminal,
			Err:         fmt.Errorf("%w: job id %q is not a valid UUID", ErrValidation, jobID),
		}
	}
	if url == "" {
		return Result{
			JobID:       jobID,
			Disposition: FailedTerminal,
			Err:         fmt.Errorf("%w: url is empty", ErrValidation),
		}
	}

	slog.InfoContext(ctx, "starting ingestion attempt", "job_id", jobID, "url", url, "attempt", attempt)

	// Known asymmetry carried over from the original behavior: a failed
	// processing mark does not abort the attempt.
	if err := e.status.MarkProcessing(ctx, jobID, time.Now().UTC()); err != nil {
		slog.ErrorContext(ctx, "failed to mark job processing, continuing", "job_id", jobID, "error", err)
	}

	// The pipeline runs as an abandonable unit raced against the deadline.
	// The guard must not rely on the stages checking the context; when the
	// timer wins we stop waiting, cancel the unit so cooperative stages bail
	// out, and discard whatever the unit produces later.
	pipeCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan pipelineOutput, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- pipelineOutput{err: fmt.Errorf("pipeline panic: %v\n%s", r, debug.Stack())}
			}
		}()
		done <- e.runPipeline(pipeCtx, jobID, url)
	}()

	timer := time.NewTimer(e.cfg.Deadline)
	defer timer.Stop()

	var out pipelineOutput
	select {
	case out = <-done:
	case <-timer.C:
		cancel()
		out = pipelineOutput{err: fmt.Errorf("%w: after %s", ErrDeadlineExceeded, e.cfg.Deadline)}
	}

	if out.err == nil {
		// The completed mark is gated here, never written by an abandoned
		// pipeline.
		if err := e.status.MarkCompleted(ctx, jobID, out.chunkCount, time.Now().UTC()); err != nil {
			out.err = fmt.Errorf("mark job completed: %w", err)
		}
	}

	if out.err == nil {
		slog.InfoContext(ctx, "ingestion completed", "job_id", jobID, "chunks_added", out.chunksAdded)
		return Result{
			JobID:       jobID,
			Disposition: Completed,
			ChunksAdded: out.chunksAdded,
		}
	}

	return e.fail(ctx, jobID, attempt, out.err)
}

// runPipeline is steps fetch through upsert. It performs no status writes.
func (e *Executor) runPipeline(ctx context.Context, jobID, url string) pipelineOutput {
	raw, err := e.fetcher.Fetch(ctx, url)
	if err != nil {
		return pipelineOutput{err: fmt.Errorf("fetch content: %w", err)}
	}

	cleaned := e.fetcher.Clean(raw)
	chunks := e.fetcher.Chunk(cleaned, e.cfg.ChunkSize, e.cfg.ChunkOverlap)
	slog.DebugContext(ctx, "chunked page", "job_id", jobID, "content_len", len(cleaned), "chunks", len(chunks))

	if len(chunks) == 0 {
		return pipelineOutput{}
	}

	vectors := make([][]float32, 0, len(chunks))
	for i := 0; i < len(chunks); i += EmbedBatchSize {
		end := i + EmbedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch, err := e.embedder.EmbedBatch(ctx, chunks[i:end])
		if err != nil {
			return pipelineOutput{err: fmt.Errorf("embed batch starting at chunk %d: %w", i, err)}
		}
		vectors = append(vectors, batch...)
	}

	if len(vectors) != len(chunks) {
		return pipelineOutput{err: fmt.Errorf("%w: %d vectors for %d chunks", ErrVectorMismatch, len(vectors), len(chunks))}
	}

	added, err := e.store.Upsert(ctx, chunks, vectors, map[string]interface{}{"source_url": url}, jobID)
	if err != nil {
		return pipelineOutput{err: fmt.Errorf("upsert vectors: %w", err)}
	}

	return pipelineOutput{chunkCount: len(chunks), chunksAdded: added}
}

// fail records the failure and decides between retry and terminal failure.
// The audit write is best-effort: its own failure is logged and never
// changes the decision.
func (e *Executor) fail(ctx context.Context, jobID string, attempt int, cause error) Result {
	slog.ErrorContext(ctx, "ingestion attempt failed", "job_id", jobID, "attempt", attempt, "error", cause)

	if err := e.status.MarkFailed(ctx, jobID, cause.Error(), errorTrace(cause)); err != nil {
		slog.ErrorContext(ctx, "failed to persist job failure", "job_id", jobID, "error", err)
	}

	if attempt < e.cfg.MaxRetries {
		delay := e.cfg.BaseRetryDelay << uint(attempt)
		slog.InfoContext(ctx, "scheduling retry", "job_id", jobID, "attempt", attempt, "delay", delay)
		return Result{
			JobID:       jobID,
			Disposition: RetryScheduled,
			RetryAfter:  delay,
			Err:         cause,
		}
	}

	return Result{
		JobID:       jobID,
		Disposition: FailedTerminal,
		Err:         cause,
	}
}
