package job

import (
	"time"

	"github.com/cohereplatform/tempo"
	"github.com/cohereplatform/tempo/id"
)

// Kind is the closed tag identifying which executor body runs for a
// scheduled or enqueued job. Each domain package declares its kinds as
// constants and registers a definition for every one of them at startup.
type Kind string

// State represents the lifecycle state of a job.
type State string

const (
	// StatePending means the job is waiting for its RunAt instant.
	StatePending State = "pending"
	// StateRunning means a worker is currently executing the job.
	StateRunning State = "running"
	// StateCompleted means the job body finished (including no-op skips).
	StateCompleted State = "completed"
	// StateFailed means the job body returned an unexpected error.
	// Deferred actions are never retried by the store; the failure is
	// recorded and the job is terminal.
	StateFailed State = "failed"
	// StateCancelled means the job was cancelled by handle before firing.
	StateCancelled State = "cancelled"
)

// Job represents a unit of deferred work held by the job store.
type Job struct {
	tempo.Entity

	ID          id.JobID      `json:"id"`
	Kind        Kind          `json:"kind"`
	Payload     []byte        `json:"payload"`
	State       State         `json:"state"`
	RunAt       time.Time     `json:"run_at"`
	StartedAt   *time.Time    `json:"started_at,omitempty"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	Outcome     tempo.Outcome `json:"outcome,omitempty"`
	LastError   string        `json:"last_error,omitempty"`
}

// Handle returns the opaque handle callers persist on domain entities.
// It is the job's ID string wrapped in the typed Handle option.
func (j *Job) Handle() tempo.Handle {
	return tempo.HandleOf(j.ID.String())
}
