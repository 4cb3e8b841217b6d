package job

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/cohereplatform/tempo"
)

// HandlerFunc is a type-erased job handler that accepts raw JSON payload.
// The typed Definition[T] is converted to a HandlerFunc at registration
// time by closing over JSON unmarshal + the typed handler.
type HandlerFunc func(ctx context.Context, payload []byte) (tempo.Outcome, error)

// Registry maps job kinds to type-erased handler functions. The kind
// set is closed once startup registration finishes; anything resolved
// against it afterwards is read-only. Safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	handlers map[Kind]HandlerFunc
}

// NewRegistry creates an empty job registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[Kind]HandlerFunc),
	}
}

// RegisterDefinition registers a typed job definition. The generic
// handler is wrapped in a closure that JSON-unmarshals the payload into
// T before calling the typed handler.
//
// This is a package-level generic function because Go does not allow
// generic methods on non-generic receiver types.
func RegisterDefinition[T any](r *Registry, def *Definition[T]) {
	handler := func(ctx context.Context, payload []byte) (tempo.Outcome, error) {
		var t T
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &t); err != nil {
				return tempo.OutcomeErrored, fmt.Errorf("unmarshal payload for job kind %q: %w", def.Kind, err)
			}
		}
		return def.Handler(ctx, t)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[def.Kind] = handler
}

// Get returns the handler for the given job kind.
// Returns false if no handler is registered.
func (r *Registry) Get(kind Kind) (HandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[kind]
	return h, ok
}

// Resolve is like Get but returns tempo.ErrUnknownKind for unregistered
// kinds. Schedulers call it before persisting anything so that a kind
// typo fails fast with no partial scheduling.
func (r *Registry) Resolve(kind Kind) (HandlerFunc, error) {
	h, ok := r.Get(kind)
	if !ok {
		return nil, fmt.Errorf("%w: %q", tempo.ErrUnknownKind, kind)
	}
	return h, nil
}

// Kinds returns all registered job kinds.
func (r *Registry) Kinds() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]Kind, 0, len(r.handlers))
	for k := range r.handlers {
		kinds = append(kinds, k)
	}
	return kinds
}
