package job

import (
	"context"

	"github.com/cohereplatform/tempo"
)

// Definition is a typed job definition with a handler function.
// T is the payload type (must be JSON-serializable).
type Definition[T any] struct {
	// Kind is the unique tag for this job type.
	Kind Kind

	// Handler is the function that processes the job payload. It
	// reports how the execution ended alongside any unexpected error.
	Handler func(ctx context.Context, payload T) (tempo.Outcome, error)
}

// NewDefinition creates a typed job definition.
func NewDefinition[T any](kind Kind, handler func(ctx context.Context, payload T) (tempo.Outcome, error)) *Definition[T] {
	return &Definition[T]{
		Kind:    kind,
		Handler: handler,
	}
}
