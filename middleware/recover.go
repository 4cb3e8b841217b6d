package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/cohereplatform/tempo"
	"github.com/cohereplatform/tempo/job"
)

// Recover returns middleware that recovers from panics in the handler
// chain. Panics are converted to errored outcomes and logged with a
// stack trace; nothing propagates past the job boundary.
func Recover(logger *slog.Logger) Middleware {
	return func(ctx context.Context, j *job.Job, next Handler) (outcome tempo.Outcome, retErr error) {
		defer func() {
			if r := recover(); r != nil {
				stack := string(debug.Stack())
				logger.Error("job handler panicked",
					slog.String("kind", string(j.Kind)),
					slog.String("job_id", j.ID.String()),
					slog.Any("panic", r),
					slog.String("stack", stack),
				)
				outcome = tempo.OutcomeErrored
				retErr = fmt.Errorf("panic in job kind %s: %v", j.Kind, r)
			}
		}()
		return next(ctx)
	}
}
