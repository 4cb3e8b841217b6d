// Package observability records job outcomes to structured telemetry.
//
// Every job body returns a tempo.Outcome; the worker feeds each result
// through a [Recorder] so that silent endings — a reconciliation loop
// exhausting its retries, an executor skipping a deleted entity — show
// up as counters operators can alert on, not just log lines.
package observability

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/cohereplatform/tempo"
	"github.com/cohereplatform/tempo/job"
)

// meterName is the instrumentation scope name for outcome metrics.
const meterName = "github.com/cohereplatform/tempo/observability"

// Recorder counts job outcomes per kind. Safe for concurrent use.
type Recorder struct {
	outcomes metric.Int64Counter
	logger   *slog.Logger
}

// NewRecorder creates a Recorder on the global OTel MeterProvider.
// With no provider configured the counter is a noop and only the
// slog lines remain.
func NewRecorder(logger *slog.Logger) *Recorder {
	return NewRecorderWithMeter(otel.Meter(meterName), logger)
}

// NewRecorderWithMeter creates a Recorder using the provided meter.
// This variant allows injecting a specific MeterProvider for testing.
func NewRecorderWithMeter(meter metric.Meter, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}

	outcomes, err := meter.Int64Counter(
		"tempo.job.outcomes",
		metric.WithDescription("Job executions by kind and outcome"),
		metric.WithUnit("{execution}"),
	)
	_ = err // noop fallback guaranteed by OTel API contract

	return &Recorder{outcomes: outcomes, logger: logger}
}

// Record counts one finished execution of j. Exhausted outcomes are
// logged at warn level: they mean an external system did not converge
// and nothing will retry further.
func (r *Recorder) Record(ctx context.Context, j *job.Job, outcome tempo.Outcome, err error) {
	r.outcomes.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", string(j.Kind)),
		attribute.String("outcome", string(outcome)),
	))

	switch {
	case outcome == tempo.OutcomeExhausted:
		r.logger.Warn("job exhausted its retry budget",
			slog.String("kind", string(j.Kind)),
			slog.String("job_id", j.ID.String()),
		)
	case err != nil:
		r.logger.Error("job ended with error",
			slog.String("kind", string(j.Kind)),
			slog.String("job_id", j.ID.String()),
			slog.String("outcome", string(outcome)),
			slog.String("error", err.Error()),
		)
	}
}
