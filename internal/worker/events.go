package worker

// IngestTaskPayload is the body of an ingest.task message. Attempt counts
// completed failed attempts; a retry is published with Attempt+1.
type IngestTaskPayload struct {
	JobID         string `json:"job_id"`
	URL           string `json:"url"`
	Attempt       int    `json:"attempt"`
	CorrelationID string `json:"correlation_id,omitempty"`
}
