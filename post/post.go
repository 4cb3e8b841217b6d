// Package post holds the scheduled-post side of the scheduling engine:
// the post entity with its deferred-publication handle, the publish
// policy driven by post edits, and the publish executor.
package post

import (
	"context"
	"time"

	"github.com/cohereplatform/tempo"
	"github.com/cohereplatform/tempo/id"
	"github.com/cohereplatform/tempo/job"
)

// KindPublish is the job kind that publishes a scheduled post.
const KindPublish job.Kind = "post.publish"

// Post is a community post inside a contribution. PublishJob is the
// handle of the pending publish job, if any; at most one exists per
// post.
type Post struct {
	tempo.Entity

	ID             id.PostID         `json:"id"`
	ContributionID id.ContributionID `json:"contribution_id"`
	AuthorID       id.UserID         `json:"author_id"`
	Title          string            `json:"title"`
	Body           string            `json:"body"`

	// Scheduled marks a post the author queued for a future publish
	// time instead of posting immediately.
	Scheduled   bool       `json:"scheduled"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`

	Published   bool       `json:"published"`
	PublishedAt *time.Time `json:"published_at,omitempty"`

	// PublishJob references the pending publish job.
	PublishJob tempo.Handle `json:"publish_job,omitempty"`

	// TaggedUserIDs are notified when the post goes live.
	TaggedUserIDs []id.UserID `json:"tagged_user_ids,omitempty"`

	// FirstForAuthor marks the author's first post in the
	// contribution; FollowerIDs get a first-post notification when it
	// publishes.
	FirstForAuthor bool        `json:"first_for_author,omitempty"`
	FollowerIDs    []id.UserID `json:"follower_ids,omitempty"`
}

// EligibleForDeferredPublish reports whether the post qualifies for a
// deferred publish job: scheduled, not yet published, with a publish
// time still in the future.
func (p *Post) EligibleForDeferredPublish(now time.Time) bool {
	return p.Scheduled && !p.Published && p.ScheduledAt != nil && p.ScheduledAt.After(now)
}

// Diff describes the created, updated, and canceled posts produced by
// author edits. It is the input that drives the publish policy.
type Diff struct {
	Created  []*Post
	Updated  []*Post
	Canceled []*Post
}

// Store defines the persistence contract for posts. As with
// occurrences, updates are whole-document last-write-wins.
type Store interface {
	// GetPost retrieves a post by ID. Returns tempo.ErrPostNotFound
	// when it no longer exists.
	GetPost(ctx context.Context, postID id.PostID) (*Post, error)

	// UpdatePost persists the full post document.
	UpdatePost(ctx context.Context, p *Post) error
}
