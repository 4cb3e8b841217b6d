// Package worker drives the job store: an Executor that invokes
// registered handlers through middleware, and a Pool that polls for due
// one-shot jobs and fires due cron entries.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/cohereplatform/tempo"
	"github.com/cohereplatform/tempo/job"
	"github.com/cohereplatform/tempo/middleware"
	"github.com/cohereplatform/tempo/observability"
)

// Executor runs a single job through middleware and the registered
// handler, then persists the terminal state and records the outcome.
//
// The executor is the top-level catch boundary for every job body:
// handler errors are recorded, never re-queued. Retry behavior lives
// inside job bodies that want it (the reconciliation machines), not in
// the store.
type Executor struct {
	registry *job.Registry
	store    job.Store
	recorder *observability.Recorder
	mw       middleware.Middleware
	logger   *slog.Logger
}

// NewExecutor creates an Executor with the given dependencies.
func NewExecutor(
	registry *job.Registry,
	store job.Store,
	recorder *observability.Recorder,
	logger *slog.Logger,
	mws ...middleware.Middleware,
) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		registry: registry,
		store:    store,
		recorder: recorder,
		mw:       middleware.Chain(mws...),
		logger:   logger,
	}
}

// Execute runs a job through the middleware chain and handler.
// The job ends in StateCompleted (handler returned, whatever the
// outcome) or StateFailed (handler errored); either way the outcome is
// recorded and no error escapes to the caller loop.
func (e *Executor) Execute(ctx context.Context, j *job.Job) {
	handler, err := e.registry.Resolve(j.Kind)
	if err != nil {
		// A scheduled kind that later disappeared from the registry.
		// Should not happen with startup-time registration; record and
		// fail the job rather than crash the pool.
		e.finish(ctx, j, tempo.OutcomeErrored, err)
		return
	}

	terminal := func(ctx context.Context) (tempo.Outcome, error) {
		return handler(ctx, j.Payload)
	}

	outcome, err := e.mw(ctx, j, terminal)
	e.finish(ctx, j, outcome, err)
}

func (e *Executor) finish(ctx context.Context, j *job.Job, outcome tempo.Outcome, err error) {
	now := time.Now().UTC()
	j.UpdatedAt = now
	j.CompletedAt = &now
	j.Outcome = outcome
	if err != nil {
		j.State = job.StateFailed
		j.LastError = err.Error()
	} else {
		j.State = job.StateCompleted
	}

	if updateErr := e.store.UpdateJob(ctx, j); updateErr != nil {
		e.logger.Error("failed to persist job result",
			slog.String("job_id", j.ID.String()),
			slog.String("kind", string(j.Kind)),
			slog.String("error", updateErr.Error()),
		)
	}

	if e.recorder != nil {
		e.recorder.Record(ctx, j, outcome, err)
	}
}
