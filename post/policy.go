package post

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cohereplatform/tempo"
	"github.com/cohereplatform/tempo/id"
	"github.com/cohereplatform/tempo/schedule"
)

// PolicyOption configures a PublishPolicy.
type PolicyOption func(*PublishPolicy)

// WithPolicyNowFunc overrides the policy clock.
func WithPolicyNowFunc(now func() time.Time) PolicyOption {
	return func(p *PublishPolicy) { p.now = now }
}

// PublishPolicy decides, for each post in a diff, whether a publish
// job must be scheduled, moved, or cancelled, and persists the
// resulting handle on the post.
type PublishPolicy struct {
	sched  *schedule.Scheduler
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// NewPublishPolicy creates a PublishPolicy.
func NewPublishPolicy(sched *schedule.Scheduler, store Store, logger *slog.Logger, opts ...PolicyOption) *PublishPolicy {
	if logger == nil {
		logger = slog.Default()
	}
	p := &PublishPolicy{
		sched:  sched,
		store:  store,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Apply walks the diff and reconciles each post's deferred publish
// state. actorID is the editor, captured into the job args so the
// executor can attribute the eventual publication. Per-post failures
// are joined, not short-circuiting.
func (p *PublishPolicy) Apply(ctx context.Context, actorID id.UserID, diff Diff) error {
	var errs []error
	for _, post := range diff.Created {
		errs = append(errs, p.applyCreated(ctx, actorID, post))
	}
	for _, post := range diff.Updated {
		errs = append(errs, p.applyUpdated(ctx, actorID, post))
	}
	for _, post := range diff.Canceled {
		errs = append(errs, p.applyCanceled(ctx, post))
	}
	return errors.Join(errs...)
}

func (p *PublishPolicy) applyCreated(ctx context.Context, actorID id.UserID, post *Post) error {
	now := p.now()
	if !post.EligibleForDeferredPublish(now) {
		return nil
	}
	return p.scheduleFresh(ctx, actorID, post, now)
}

func (p *PublishPolicy) applyUpdated(ctx context.Context, actorID id.UserID, post *Post) error {
	now := p.now()

	if !post.EligibleForDeferredPublish(now) {
		// The post was unscheduled, published by hand, or the publish
		// time moved into the past. Cancel any pending job and clear
		// the handle whether or not the cancel landed.
		if post.PublishJob.IsSet() {
			if _, err := p.sched.DeleteSchedule(ctx, post.PublishJob); err != nil {
				p.logger.Warn("cancel deferred publish failed",
					slog.String("post_id", post.ID.String()),
					slog.String("error", err.Error()),
				)
			}
			post.PublishJob = tempo.NoHandle
			if err := p.store.UpdatePost(ctx, post); err != nil {
				return fmt.Errorf("clear publish handle on post %s: %w", post.ID, err)
			}
		}
		return nil
	}

	if !post.PublishJob.IsSet() {
		return p.scheduleFresh(ctx, actorID, post, now)
	}

	handle, err := schedule.UpdateSchedule(ctx, p.sched, post.PublishJob, KindPublish,
		post.ScheduledAt.Sub(now), publishArgs{PostID: post.ID, ActorID: actorID})
	if err != nil {
		return fmt.Errorf("reschedule publish for post %s: %w", post.ID, err)
	}
	post.PublishJob = handle
	if err := p.store.UpdatePost(ctx, post); err != nil {
		return fmt.Errorf("persist publish handle on post %s: %w", post.ID, err)
	}
	return nil
}

func (p *PublishPolicy) applyCanceled(ctx context.Context, post *Post) error {
	if !post.PublishJob.IsSet() {
		return nil
	}
	if _, err := p.sched.DeleteSchedule(ctx, post.PublishJob); err != nil {
		p.logger.Warn("cancel deferred publish failed",
			slog.String("post_id", post.ID.String()),
			slog.String("error", err.Error()),
		)
	}
	post.PublishJob = tempo.NoHandle
	if err := p.store.UpdatePost(ctx, post); err != nil {
		return fmt.Errorf("clear publish handle on post %s: %w", post.ID, err)
	}
	return nil
}

func (p *PublishPolicy) scheduleFresh(ctx context.Context, actorID id.UserID, post *Post, now time.Time) error {
	handle, err := schedule.Schedule(ctx, p.sched, KindPublish,
		post.ScheduledAt.Sub(now), publishArgs{PostID: post.ID, ActorID: actorID})
	if err != nil {
		return fmt.Errorf("schedule publish for post %s: %w", post.ID, err)
	}
	post.PublishJob = handle
	if err := p.store.UpdatePost(ctx, post); err != nil {
		return fmt.Errorf("persist publish handle on post %s: %w", post.ID, err)
	}
	return nil
}
