package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/cohereplatform/tempo"
	"github.com/cohereplatform/tempo/job"
)

// Logging returns middleware that logs job start and completion.
func Logging(logger *slog.Logger) Middleware {
	return func(ctx context.Context, j *job.Job, next Handler) (tempo.Outcome, error) {
		logger.Info("job started",
			slog.String("kind", string(j.Kind)),
			slog.String("job_id", j.ID.String()),
		)

		start := time.Now()
		outcome, err := next(ctx)
		elapsed := time.Since(start)

		if err != nil {
			logger.Error("job failed",
				slog.String("kind", string(j.Kind)),
				slog.String("job_id", j.ID.String()),
				slog.Duration("elapsed", elapsed),
				slog.String("error", err.Error()),
			)
		} else {
			logger.Info("job finished",
				slog.String("kind", string(j.Kind)),
				slog.String("job_id", j.ID.String()),
				slog.String("outcome", string(outcome)),
				slog.Duration("elapsed", elapsed),
			)
		}

		return outcome, err
	}
}
