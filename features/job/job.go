package job

import (
	"time"
)

type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Job is one URL ingestion unit tracked from enqueue to completion or
// failure. Created by the API, mutated only by the worker after dispatch.
type Job struct {
	ID           string     `json:"id"`
	URL          string     `json:"url"`
	Status       Status     `json:"status"`
	ChunkCount   int        `json:"chunk_count"`
	ErrorMessage string     `json:"error_message,omitempty"`
	ErrorTrace   string     `json:"error_trace,omitempty"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}
