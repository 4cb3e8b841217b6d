// Package session holds the session-occurrence side of the scheduling
// engine: the occurrence entity with its deferred-notification handle,
// the event-diff driven availability policy, and the content-available
// executor.
package session

import (
	"context"
	"time"

	"github.com/cohereplatform/tempo"
	"github.com/cohereplatform/tempo/id"
	"github.com/cohereplatform/tempo/job"
)

// KindContentAvailable is the job kind that notifies participants when
// self-paced content becomes available.
const KindContentAvailable job.Kind = "session.content-available"

// Occurrence is one time-bound occurrence of a session within a
// contribution. NotifyJob is the handle of the pending
// content-available job, if any; at most one exists per occurrence.
type Occurrence struct {
	tempo.Entity

	ID             id.OccurrenceID   `json:"id"`
	SessionID      id.SessionID      `json:"session_id"`
	ContributionID id.ContributionID `json:"contribution_id"`
	Title          string            `json:"title"`
	StartTime      time.Time         `json:"start_time"`

	// SelfPaced marks pre-recorded content, as opposed to a live session.
	SelfPaced bool `json:"self_paced"`

	// AvailableAt is the release time for self-paced content. Nil means
	// the content is available immediately.
	AvailableAt *time.Time `json:"available_at,omitempty"`

	// NotifyJob references the pending content-available job.
	NotifyJob tempo.Handle `json:"notify_job,omitempty"`

	ParticipantIDs []id.UserID `json:"participant_ids,omitempty"`
}

// EligibleForDeferredNotify reports whether the occurrence qualifies
// for a deferred content-available job: self-paced with a release time
// still in the future.
func (o *Occurrence) EligibleForDeferredNotify(now time.Time) bool {
	return o.SelfPaced && o.AvailableAt != nil && o.AvailableAt.After(now)
}

// Diff describes the created, updated, and canceled occurrences
// produced by one edit of a session. It is the input that drives the
// availability policy.
type Diff struct {
	Created  []*Occurrence
	Updated  []*Occurrence
	Canceled []*Occurrence
}

// Store defines the persistence contract for occurrences. The engine
// performs whole-document read-modify-write: concurrent edits of the
// same occurrence race under last-write-wins, an accepted risk rather
// than a guarantee.
type Store interface {
	// GetOccurrence retrieves an occurrence by ID. Returns
	// tempo.ErrOccurrenceNotFound when it no longer exists.
	GetOccurrence(ctx context.Context, occID id.OccurrenceID) (*Occurrence, error)

	// UpdateOccurrence persists the full occurrence document.
	UpdateOccurrence(ctx context.Context, o *Occurrence) error
}
