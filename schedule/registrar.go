package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cohereplatform/tempo"
	"github.com/cohereplatform/tempo/id"
	"github.com/cohereplatform/tempo/job"
)

// RegistrarOption configures a Registrar.
type RegistrarOption func(*Registrar)

// WithRegistrarNowFunc overrides the clock used to compute NextRunAt.
func WithRegistrarNowFunc(now func() time.Time) RegistrarOption {
	return func(r *Registrar) { r.now = now }
}

// Registrar registers jobs that run forever on a fixed cadence. Each
// system-level recurring job is registered exactly once per process
// lifetime, at startup; registration is idempotent per kind.
type Registrar struct {
	store    CronStore
	registry *job.Registry
	logger   *slog.Logger
	now      func() time.Time
}

// NewRegistrar creates a Registrar over the given cron store and
// job registry.
func NewRegistrar(store CronStore, registry *job.Registry, logger *slog.Logger, opts ...RegistrarOption) *Registrar {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registrar{
		store:    store,
		registry: registry,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RegisterDaily registers kind to fire every day at hour:minute UTC.
func (r *Registrar) RegisterDaily(ctx context.Context, kind job.Kind, hour, minute int) error {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return fmt.Errorf("register daily %q: invalid time %02d:%02d", kind, hour, minute)
	}
	return r.RegisterOnCron(ctx, kind, fmt.Sprintf("%d %d * * *", minute, hour))
}

// RegisterHourly registers kind to fire at the top of every hour.
func (r *Registrar) RegisterHourly(ctx context.Context, kind job.Kind) error {
	return r.RegisterOnCron(ctx, kind, "0 * * * *")
}

// RegisterOnCron registers kind on an arbitrary cron cadence. Upsert
// semantics: registering the same kind again replaces the prior
// cadence without creating a duplicate schedule.
func (r *Registrar) RegisterOnCron(ctx context.Context, kind job.Kind, expr string) error {
	if _, err := r.registry.Resolve(kind); err != nil {
		return err
	}

	sched, err := ParseSchedule(expr)
	if err != nil {
		return fmt.Errorf("invalid cron schedule %q for kind %q: %w", expr, kind, err)
	}

	next := sched.Next(r.now())
	entry := &Entry{
		Entity:    tempo.NewEntity(),
		ID:        id.NewCronID(),
		Kind:      kind,
		Schedule:  expr,
		NextRunAt: &next,
		Enabled:   true,
	}

	if err := r.store.UpsertCron(ctx, entry); err != nil {
		return fmt.Errorf("register cron for kind %q: %w", kind, err)
	}

	r.logger.Info("recurring job registered",
		slog.String("kind", string(kind)),
		slog.String("schedule", expr),
		slog.Time("next_run_at", next),
	)
	return nil
}
