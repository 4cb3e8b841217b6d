package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cohereplatform/tempo"
	"github.com/cohereplatform/tempo/id"
	"github.com/cohereplatform/tempo/notify"
	"github.com/cohereplatform/tempo/schedule"
)

// PolicyOption configures an AvailabilityPolicy.
type PolicyOption func(*AvailabilityPolicy)

// WithPolicyNowFunc overrides the policy clock.
func WithPolicyNowFunc(now func() time.Time) PolicyOption {
	return func(p *AvailabilityPolicy) { p.now = now }
}

// AvailabilityPolicy decides, for each occurrence in an event diff,
// whether a content-available job must be scheduled, moved, or
// cancelled, and persists the resulting handle on the occurrence.
//
// The policy always operates on the handle currently stored on the
// occurrence, never a cached one, so the latest decision for an
// occurrence supersedes any earlier one.
type AvailabilityPolicy struct {
	sched      *schedule.Scheduler
	store      Store
	dispatcher notify.Dispatcher
	logger     *slog.Logger
	now        func() time.Time
}

// NewAvailabilityPolicy creates an AvailabilityPolicy.
func NewAvailabilityPolicy(
	sched *schedule.Scheduler,
	store Store,
	dispatcher notify.Dispatcher,
	logger *slog.Logger,
	opts ...PolicyOption,
) *AvailabilityPolicy {
	if logger == nil {
		logger = slog.Default()
	}
	p := &AvailabilityPolicy{
		sched:      sched,
		store:      store,
		dispatcher: dispatcher,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Apply walks the diff and reconciles each occurrence's deferred
// notification state. actorID is the user whose edit produced the
// diff; they are excluded from the notifications their own change
// triggers. Per-occurrence failures are joined, not short-circuiting:
// one bad occurrence must not strand the rest of the diff.
func (p *AvailabilityPolicy) Apply(ctx context.Context, actorID id.UserID, diff Diff) error {
	var errs []error
	for _, occ := range diff.Created {
		errs = append(errs, p.applyCreated(ctx, actorID, occ))
	}
	for _, occ := range diff.Updated {
		errs = append(errs, p.applyUpdated(ctx, actorID, occ))
	}
	for _, occ := range diff.Canceled {
		errs = append(errs, p.applyCanceled(ctx, occ))
	}
	return errors.Join(errs...)
}

func (p *AvailabilityPolicy) applyCreated(ctx context.Context, actorID id.UserID, occ *Occurrence) error {
	now := p.now()
	if !occ.EligibleForDeferredNotify(now) {
		p.notifyNow(ctx, actorID, occ)
		return nil
	}
	return p.scheduleFresh(ctx, actorID, occ, now)
}

func (p *AvailabilityPolicy) applyUpdated(ctx context.Context, actorID id.UserID, occ *Occurrence) error {
	now := p.now()

	if !occ.EligibleForDeferredNotify(now) {
		// Eligibility lost: the content went live, became immediately
		// available, or stopped being self-paced. Cancel any pending
		// job and clear the handle whether or not the cancel landed,
		// so no dangling reference survives.
		if occ.NotifyJob.IsSet() {
			if _, err := p.sched.DeleteSchedule(ctx, occ.NotifyJob); err != nil {
				p.logger.Warn("cancel deferred notification failed",
					slog.String("occurrence_id", occ.ID.String()),
					slog.String("error", err.Error()),
				)
			}
			occ.NotifyJob = tempo.NoHandle
			if err := p.store.UpdateOccurrence(ctx, occ); err != nil {
				return fmt.Errorf("clear notify handle on occurrence %s: %w", occ.ID, err)
			}
		}
		p.notifyNow(ctx, actorID, occ)
		return nil
	}

	if !occ.NotifyJob.IsSet() {
		return p.scheduleFresh(ctx, actorID, occ, now)
	}

	// Release time moved while a job is pending: cancel + reschedule.
	// The handle may legitimately come back unset when the old job
	// fired in the meantime; store whatever came back.
	handle, err := schedule.UpdateSchedule(ctx, p.sched, occ.NotifyJob, KindContentAvailable,
		occ.AvailableAt.Sub(now), p.args(actorID, occ))
	if err != nil {
		return fmt.Errorf("reschedule content-available for occurrence %s: %w", occ.ID, err)
	}
	occ.NotifyJob = handle
	if err := p.store.UpdateOccurrence(ctx, occ); err != nil {
		return fmt.Errorf("persist notify handle on occurrence %s: %w", occ.ID, err)
	}
	return nil
}

func (p *AvailabilityPolicy) applyCanceled(ctx context.Context, occ *Occurrence) error {
	if !occ.NotifyJob.IsSet() {
		return nil
	}
	if _, err := p.sched.DeleteSchedule(ctx, occ.NotifyJob); err != nil {
		p.logger.Warn("cancel deferred notification failed",
			slog.String("occurrence_id", occ.ID.String()),
			slog.String("error", err.Error()),
		)
	}
	occ.NotifyJob = tempo.NoHandle
	if err := p.store.UpdateOccurrence(ctx, occ); err != nil {
		return fmt.Errorf("clear notify handle on occurrence %s: %w", occ.ID, err)
	}
	return nil
}

func (p *AvailabilityPolicy) scheduleFresh(ctx context.Context, actorID id.UserID, occ *Occurrence, now time.Time) error {
	handle, err := schedule.Schedule(ctx, p.sched, KindContentAvailable,
		occ.AvailableAt.Sub(now), p.args(actorID, occ))
	if err != nil {
		return fmt.Errorf("schedule content-available for occurrence %s: %w", occ.ID, err)
	}
	occ.NotifyJob = handle
	if err := p.store.UpdateOccurrence(ctx, occ); err != nil {
		return fmt.Errorf("persist notify handle on occurrence %s: %w", occ.ID, err)
	}
	return nil
}

// notifyNow sends the immediate push for occurrences that need no
// deferred job. Best-effort: a dispatch failure is logged, never
// returned.
func (p *AvailabilityPolicy) notifyNow(ctx context.Context, actorID id.UserID, occ *Occurrence) {
	push := contentAvailablePush(occ, actorID)
	if len(push.Recipients) == 0 {
		return
	}
	if err := p.dispatcher.SendPush(ctx, push); err != nil {
		p.logger.Warn("immediate availability push failed",
			slog.String("occurrence_id", occ.ID.String()),
			slog.String("error", err.Error()),
		)
	}
}

func (p *AvailabilityPolicy) args(actorID id.UserID, occ *Occurrence) ContentAvailableArgs {
	return ContentAvailableArgs{
		SessionID:      occ.SessionID,
		OccurrenceID:   occ.ID,
		ContributionID: occ.ContributionID,
		ActorID:        actorID,
	}
}
