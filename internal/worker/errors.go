package worker

import (
	"errors"
	"strings"
)

var (
	// ErrValidation marks bad input (malformed job id, empty URL). Terminal,
	// never retried.
	ErrValidation = errors.New("validation failed")

	// ErrDeadlineExceeded marks an attempt abandoned by the deadline guard.
	// Retryable like any other pipeline failure.
	ErrDeadlineExceeded = errors.New("ingestion deadline exceeded")

	// ErrVectorMismatch marks an embedding response whose vector count does
	// not match the chunk count.
	ErrVectorMismatch = errors.New("vector count does not match chunk count")
)

// errorTrace renders the unwrap chain of an error one frame per line, most
// specific first. Persisted alongside the error message as the job's audit
// trace.
func errorTrace(err error) string {
	var b strings.Builder
	for e := err; e != nil; e = errors.Unwrap(e) {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(e.Error())
	}
	return b.String()
}
