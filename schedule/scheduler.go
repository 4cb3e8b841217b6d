package schedule

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/cohereplatform/tempo"
	"github.com/cohereplatform/tempo/id"
	"github.com/cohereplatform/tempo/job"
)

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithNowFunc overrides the clock the Scheduler uses to compute RunAt.
// Tests pair it with the memory store's controllable clock.
func WithNowFunc(now func() time.Time) SchedulerOption {
	return func(s *Scheduler) { s.now = now }
}

// Scheduler schedules, moves, cancels, and immediately enqueues one-shot
// jobs against the job store. It never touches domain entities: callers
// persist the returned handle themselves.
type Scheduler struct {
	store    job.Store
	registry *job.Registry
	logger   *slog.Logger
	now      func() time.Time
}

// NewScheduler creates a Scheduler over the given store and registry.
func NewScheduler(store job.Store, registry *job.Registry, logger *slog.Logger, opts ...SchedulerOption) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scheduler{
		store:    store,
		registry: registry,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Schedule asks the job store to run the given kind after delay.
// It fails fast with tempo.ErrUnknownKind when the kind has no
// registered executor; nothing is persisted in that case.
func (s *Scheduler) Schedule(ctx context.Context, kind job.Kind, delay time.Duration, payload []byte) (tempo.Handle, error) {
	if _, err := s.registry.Resolve(kind); err != nil {
		return tempo.NoHandle, err
	}

	j := &job.Job{
		Entity:  tempo.NewEntity(),
		ID:      id.NewJobID(),
		Kind:    kind,
		Payload: payload,
		State:   job.StatePending,
		RunAt:   s.now().Add(delay),
	}
	if err := s.store.ScheduleJob(ctx, j); err != nil {
		return tempo.NoHandle, fmt.Errorf("schedule job kind %q: %w", kind, err)
	}

	s.logger.Debug("job scheduled",
		slog.String("handle", j.ID.String()),
		slog.String("kind", string(kind)),
		slog.Duration("delay", delay),
		slog.Time("run_at", j.RunAt),
	)
	return j.Handle(), nil
}

// UpdateSchedule moves a pending job to a new delay. The existing
// handle is cancelled first; only when that cancellation removed a
// pending job is a replacement scheduled. If the handle is stale —
// already fired, already cancelled, or unknown — UpdateSchedule
// returns tempo.NoHandle and schedules nothing.
func (s *Scheduler) UpdateSchedule(ctx context.Context, handle tempo.Handle, kind job.Kind, delay time.Duration, payload []byte) (tempo.Handle, error) {
	cancelled, err := s.DeleteSchedule(ctx, handle)
	if err != nil {
		return tempo.NoHandle, err
	}
	if !cancelled {
		s.logger.Debug("update skipped: handle no longer pending",
			slog.String("handle", handle.String()),
			slog.String("kind", string(kind)),
		)
		return tempo.NoHandle, nil
	}
	return s.Schedule(ctx, kind, delay, payload)
}

// DeleteSchedule cancels a pending job. It reports whether a job was
// actually cancelled; cancelling an already-fired or unknown handle
// returns false with a nil error.
func (s *Scheduler) DeleteSchedule(ctx context.Context, handle tempo.Handle) (bool, error) {
	if !handle.IsSet() {
		return false, nil
	}
	cancelled, err := s.store.CancelJob(ctx, handle)
	if err != nil {
		return false, fmt.Errorf("cancel job %q: %w", handle.String(), err)
	}
	if cancelled {
		s.logger.Debug("job cancelled", slog.String("handle", handle.String()))
	}
	return cancelled, nil
}

// EnqueueImmediate submits a job for near-immediate execution.
// Fire-and-forget from the caller's perspective: the returned error
// only covers kind resolution and store submission.
func (s *Scheduler) EnqueueImmediate(ctx context.Context, kind job.Kind, payload []byte) error {
	_, err := s.Schedule(ctx, kind, 0, payload)
	return err
}

// Schedule is the typed wrapper over Scheduler.Schedule: the payload is
// JSON-marshalled before submission. Package-level because Go does not
// allow generic methods.
func Schedule[T any](ctx context.Context, s *Scheduler, kind job.Kind, delay time.Duration, payload T) (tempo.Handle, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return tempo.NoHandle, fmt.Errorf("marshal payload for job kind %q: %w", kind, err)
	}
	return s.Schedule(ctx, kind, delay, data)
}

// UpdateSchedule is the typed wrapper over Scheduler.UpdateSchedule.
func UpdateSchedule[T any](ctx context.Context, s *Scheduler, handle tempo.Handle, kind job.Kind, delay time.Duration, payload T) (tempo.Handle, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return tempo.NoHandle, fmt.Errorf("marshal payload for job kind %q: %w", kind, err)
	}
	return s.UpdateSchedule(ctx, handle, kind, delay, data)
}

// Enqueue is the typed wrapper over Scheduler.EnqueueImmediate.
func Enqueue[T any](ctx context.Context, s *Scheduler, kind job.Kind, payload T) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload for job kind %q: %w", kind, err)
	}
	return s.EnqueueImmediate(ctx, kind, data)
}
