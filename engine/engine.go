// Package engine wires the scheduling subsystems together: job
// registry, middleware chain, outcome recorder, scheduler, registrar,
// and worker pool over one store.
//
// This package exists to break the import cycle: the root tempo
// package defines Entity and Handle (imported by job, schedule, and
// the domain packages) and so cannot import those packages back. The
// engine package sits above all subsystem packages and below the
// application layer.
package engine

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/cohereplatform/tempo"
	"github.com/cohereplatform/tempo/job"
	mw "github.com/cohereplatform/tempo/middleware"
	"github.com/cohereplatform/tempo/observability"
	"github.com/cohereplatform/tempo/schedule"
	"github.com/cohereplatform/tempo/store"
	"github.com/cohereplatform/tempo/worker"
)

// Engine owns the wired subsystems. Use New, register every job kind,
// then Start.
type Engine struct {
	cfg       tempo.Config
	store     store.Store
	registry  *job.Registry
	recorder  *observability.Recorder
	sched     *schedule.Scheduler
	registrar *schedule.Registrar
	pool      *worker.Pool
	mws       []mw.Middleware
	logger    *slog.Logger
	now       func() time.Time

	meterProvider metric.MeterProvider
}

// Option configures an Engine.
type Option func(*Engine)

// WithMiddleware appends middleware to the execution chain. Recover,
// Logging, and Metrics are always installed ahead of these.
func WithMiddleware(m mw.Middleware) Option {
	return func(e *Engine) { e.mws = append(e.mws, m) }
}

// WithLogger sets the logger shared by every subsystem.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithMeterProvider sets the OpenTelemetry meter provider. Nil means
// the global provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(e *Engine) { e.meterProvider = mp }
}

// WithNowFunc overrides the clock used by the scheduler, registrar,
// and pool. Tests pair it with the memory store's clock.
func WithNowFunc(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New wires an Engine over the given store.
func New(cfg tempo.Config, st store.Store, opts ...Option) *Engine {
	e := &Engine{
		cfg:      cfg,
		store:    st,
		registry: job.NewRegistry(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}

	var recorder *observability.Recorder
	var metrics mw.Middleware
	if e.meterProvider != nil {
		recorder = observability.NewRecorderWithMeter(e.meterProvider.Meter("github.com/cohereplatform/tempo/observability"), e.logger)
		metrics = mw.MetricsWithMeter(e.meterProvider.Meter("github.com/cohereplatform/tempo"))
	} else {
		recorder = observability.NewRecorder(e.logger)
		metrics = mw.Metrics()
	}
	e.recorder = recorder

	chain := append([]mw.Middleware{
		mw.Recover(e.logger),
		mw.Logging(e.logger),
		metrics,
	}, e.mws...)

	executor := worker.NewExecutor(e.registry, e.store, e.recorder, e.logger, chain...)

	schedOpts := []schedule.SchedulerOption{}
	registrarOpts := []schedule.RegistrarOption{}
	poolOpts := []worker.PoolOption{
		worker.WithPoolConcurrency(cfg.Concurrency),
		worker.WithPollInterval(cfg.PollInterval),
		worker.WithCronTickInterval(cfg.CronTickInterval),
	}
	if e.now != nil {
		schedOpts = append(schedOpts, schedule.WithNowFunc(e.now))
		registrarOpts = append(registrarOpts, schedule.WithRegistrarNowFunc(e.now))
		poolOpts = append(poolOpts, worker.WithPoolNowFunc(e.now))
	}

	e.sched = schedule.NewScheduler(e.store, e.registry, e.logger, schedOpts...)
	e.registrar = schedule.NewRegistrar(e.store, e.registry, e.logger, registrarOpts...)
	e.pool = worker.NewPool(e.store, e.store, executor, e.logger, poolOpts...)
	return e
}

// Registry returns the job registry. Register every kind before Start;
// scheduling an unregistered kind fails fast.
func (e *Engine) Registry() *job.Registry { return e.registry }

// Scheduler returns the one-shot job scheduler.
func (e *Engine) Scheduler() *schedule.Scheduler { return e.sched }

// Registrar returns the recurring job registrar.
func (e *Engine) Registrar() *schedule.Registrar { return e.registrar }

// Recorder returns the outcome recorder.
func (e *Engine) Recorder() *observability.Recorder { return e.recorder }

// Start verifies store connectivity and launches the worker pool.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.store.Ping(ctx); err != nil {
		return err
	}
	return e.pool.Start(ctx)
}

// Stop stops the worker pool, waiting out in-flight jobs up to the
// configured shutdown timeout, then closes the store.
func (e *Engine) Stop(ctx context.Context) error {
	if e.cfg.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.ShutdownTimeout)
		defer cancel()
	}
	if err := e.pool.Stop(ctx); err != nil {
		return err
	}
	return e.store.Close()
}
