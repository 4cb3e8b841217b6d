package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cohereplatform/tempo"
	"github.com/cohereplatform/tempo/id"
	"github.com/cohereplatform/tempo/job"
	"github.com/cohereplatform/tempo/notify"
)

// ContentAvailableArgs is the payload captured when a content-available
// job is scheduled. Only IDs are captured: the executor re-reads the
// occurrence at fire time and never trusts anything else from
// scheduling time.
type ContentAvailableArgs struct {
	SessionID      id.SessionID      `json:"session_id"`
	OccurrenceID   id.OccurrenceID   `json:"occurrence_id"`
	ContributionID id.ContributionID `json:"contribution_id"`
	ActorID        id.UserID         `json:"actor_id"`
}

// NewContentAvailableDefinition builds the executor for
// KindContentAvailable. Contract: a missing occurrence is a logged
// no-op, not an error — it may have been deleted between scheduling
// and firing. On success the occurrence's stored handle is cleared so
// a later edit cannot "update" an already-fired job.
func NewContentAvailableDefinition(
	store Store,
	dispatcher notify.Dispatcher,
	logger *slog.Logger,
) *job.Definition[ContentAvailableArgs] {
	if logger == nil {
		logger = slog.Default()
	}
	return job.NewDefinition(KindContentAvailable, func(ctx context.Context, args ContentAvailableArgs) (tempo.Outcome, error) {
		occ, err := store.GetOccurrence(ctx, args.OccurrenceID)
		if err != nil {
			if errors.Is(err, tempo.ErrOccurrenceNotFound) {
				logger.Info("occurrence gone before content-available fired",
					slog.String("occurrence_id", args.OccurrenceID.String()),
					slog.String("session_id", args.SessionID.String()),
				)
				return tempo.OutcomeSkipped, nil
			}
			return tempo.OutcomeErrored, fmt.Errorf("fetch occurrence %s: %w", args.OccurrenceID, err)
		}

		// Push dispatch is best-effort; a delivery failure must not
		// fail the job or leave the handle dangling.
		push := contentAvailablePush(occ, args.ActorID)
		if len(push.Recipients) > 0 {
			if err := dispatcher.SendPush(ctx, push); err != nil {
				logger.Warn("content-available push failed",
					slog.String("occurrence_id", occ.ID.String()),
					slog.String("error", err.Error()),
				)
			}
		}

		occ.NotifyJob = tempo.NoHandle
		occ.Touch()
		if err := store.UpdateOccurrence(ctx, occ); err != nil {
			return tempo.OutcomeErrored, fmt.Errorf("clear notify handle on occurrence %s: %w", occ.ID, err)
		}
		return tempo.OutcomeCompleted, nil
	})
}

// contentAvailablePush builds the availability push for everyone on the
// occurrence except the actor whose change triggered it.
func contentAvailablePush(occ *Occurrence, actorID id.UserID) notify.Push {
	recipients := make([]id.UserID, 0, len(occ.ParticipantIDs))
	for _, uid := range occ.ParticipantIDs {
		if uid.String() == actorID.String() {
			continue
		}
		recipients = append(recipients, uid)
	}
	return notify.Push{
		Title: "New content available",
		Body:  fmt.Sprintf("%s is now available to watch", occ.Title),
		Data: map[string]string{
			"session_id":      occ.SessionID.String(),
			"occurrence_id":   occ.ID.String(),
			"contribution_id": occ.ContributionID.String(),
		},
		Recipients: recipients,
	}
}
