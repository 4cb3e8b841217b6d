package tempo

import "errors"

var (
	// Store errors.
	ErrStoreClosed = errors.New("tempo: store closed")

	// ErrUnknownKind is returned when a job kind cannot be resolved to a
	// registered executor. Scheduling fails fast on it: no job is
	// persisted for an unresolvable kind.
	ErrUnknownKind = errors.New("tempo: unknown job kind")

	// Not found errors.
	ErrJobNotFound        = errors.New("tempo: job not found")
	ErrCronNotFound       = errors.New("tempo: cron entry not found")
	ErrOccurrenceNotFound = errors.New("tempo: session occurrence not found")
	ErrPostNotFound       = errors.New("tempo: post not found")

	// Conflict errors.
	ErrJobAlreadyExists = errors.New("tempo: job already exists")

	// State errors.
	ErrInvalidRetryPolicy = errors.New("tempo: retry policy max attempts must be >= 1")
)
