package post

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cohereplatform/tempo"
	"github.com/cohereplatform/tempo/id"
	"github.com/cohereplatform/tempo/job"
	"github.com/cohereplatform/tempo/notify"
)

// publishArgs is the payload captured when a publish job is scheduled.
// Only IDs are captured; the executor re-reads the post at fire time.
type publishArgs struct {
	PostID  id.PostID `json:"post_id"`
	ActorID id.UserID `json:"actor_id"`
}

// NewPublishDefinition builds the executor for KindPublish. A missing
// or already-published post is a logged no-op. Notification dispatch
// after publication is best-effort: failures are logged and never fail
// the job.
func NewPublishDefinition(store Store, dispatcher notify.Dispatcher, logger *slog.Logger) *job.Definition[publishArgs] {
	if logger == nil {
		logger = slog.Default()
	}
	return job.NewDefinition(KindPublish, func(ctx context.Context, args publishArgs) (tempo.Outcome, error) {
		post, err := store.GetPost(ctx, args.PostID)
		if err != nil {
			if errors.Is(err, tempo.ErrPostNotFound) {
				logger.Info("post gone before publish fired",
					slog.String("post_id", args.PostID.String()),
				)
				return tempo.OutcomeSkipped, nil
			}
			return tempo.OutcomeErrored, fmt.Errorf("fetch post %s: %w", args.PostID, err)
		}
		if post.Published {
			logger.Info("post already published before publish fired",
				slog.String("post_id", post.ID.String()),
			)
			return tempo.OutcomeSkipped, nil
		}

		now := time.Now().UTC()
		post.Published = true
		post.PublishedAt = &now
		post.PublishJob = tempo.NoHandle
		post.Touch()
		if err := store.UpdatePost(ctx, post); err != nil {
			return tempo.OutcomeErrored, fmt.Errorf("publish post %s: %w", post.ID, err)
		}

		sendPublishNotifications(ctx, dispatcher, logger, post)
		return tempo.OutcomeCompleted, nil
	})
}

// sendPublishNotifications fires the tagged-user and first-post pushes
// for a freshly published post.
func sendPublishNotifications(ctx context.Context, dispatcher notify.Dispatcher, logger *slog.Logger, post *Post) {
	if len(post.TaggedUserIDs) > 0 {
		push := notify.Push{
			Title:      "You were mentioned",
			Body:       fmt.Sprintf("You were mentioned in %q", post.Title),
			Data:       pushData(post),
			Recipients: post.TaggedUserIDs,
		}
		if err := dispatcher.SendPush(ctx, push); err != nil {
			logger.Warn("tagged-user push failed",
				slog.String("post_id", post.ID.String()),
				slog.String("error", err.Error()),
			)
		}
	}

	if post.FirstForAuthor && len(post.FollowerIDs) > 0 {
		push := notify.Push{
			Title:      "New post",
			Body:       fmt.Sprintf("First post in the community: %q", post.Title),
			Data:       pushData(post),
			Recipients: post.FollowerIDs,
		}
		if err := dispatcher.SendPush(ctx, push); err != nil {
			logger.Warn("first-post push failed",
				slog.String("post_id", post.ID.String()),
				slog.String("error", err.Error()),
			)
		}
	}
}

func pushData(post *Post) map[string]string {
	return map[string]string{
		"post_id":         post.ID.String(),
		"contribution_id": post.ContributionID.String(),
		"author_id":       post.AuthorID.String(),
	}
}
