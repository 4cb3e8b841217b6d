package job

import (
	"context"

	"github.com/cohereplatform/tempo"
	"github.com/cohereplatform/tempo/id"
)

// ListOpts controls filtering for job list queries.
type ListOpts struct {
	// Limit is the maximum number of jobs to return. Zero means no limit.
	Limit int
	// Kind filters by job kind. Empty means all kinds.
	Kind Kind
}

// Store defines the persistence contract for one-shot jobs — the
// durable queue/timer surface of the job store. Implementations must
// execute nothing themselves; the worker pool drives execution by
// polling DequeueDue.
type Store interface {
	// ScheduleJob persists a new job in pending state.
	ScheduleJob(ctx context.Context, j *Job) error

	// CancelJob cancels a pending job by its opaque handle. It reports
	// whether a pending job was actually cancelled: false (with a nil
	// error) when the handle is unknown, already fired, or previously
	// cancelled. Cancellation is idempotent "already gone".
	CancelJob(ctx context.Context, handle tempo.Handle) (bool, error)

	// DequeueDue atomically claims up to limit pending jobs whose RunAt
	// has passed, sets them to running, and returns them ordered by
	// RunAt ascending.
	DequeueDue(ctx context.Context, limit int) ([]*Job, error)

	// GetJob retrieves a job by ID.
	GetJob(ctx context.Context, jobID id.JobID) (*Job, error)

	// UpdateJob persists changes to an existing job.
	UpdateJob(ctx context.Context, j *Job) error

	// ListJobsByState returns jobs matching the given state.
	ListJobsByState(ctx context.Context, state State, opts ListOpts) ([]*Job, error)
}
