package config

const (
	// TopicIngestTask is the NSQ topic for URL ingestion jobs. Retries are
	// re-published to the same topic with a deferred delay.
	TopicIngestTask = "ingest.task"
)
