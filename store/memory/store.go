// Package memory is a fully in-memory job store for unit testing and
// development. It owns a controllable clock: tests schedule jobs hours
// out, call Advance, and watch them become due without waiting.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cohereplatform/tempo"
	"github.com/cohereplatform/tempo/id"
	"github.com/cohereplatform/tempo/job"
	"github.com/cohereplatform/tempo/schedule"
)

// Compile-time interface checks.
var (
	_ job.Store          = (*Store)(nil)
	_ schedule.CronStore = (*Store)(nil)
)

// Store is an in-memory implementation of the job store.
// Safe for concurrent access.
type Store struct {
	mu sync.RWMutex

	jobs  map[string]*job.Job
	crons map[string]*schedule.Entry // keyed by cron ID

	// offset shifts the store clock forward from wall time.
	offset time.Duration
}

// New returns a new empty Store.
func New() *Store {
	return &Store{
		jobs:  make(map[string]*job.Job),
		crons: make(map[string]*schedule.Entry),
	}
}

// Ping always succeeds for the memory store.
func (m *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op for the memory store.
func (m *Store) Close() error { return nil }

// ──────────────────────────────────────────────────
// Clock
// ──────────────────────────────────────────────────

// Now returns the store's current time: wall clock plus any Advance offset.
func (m *Store) Now() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return time.Now().UTC().Add(m.offset)
}

// Advance moves the store clock forward by d. Pending jobs whose RunAt
// falls inside the advanced window become due on the next DequeueDue.
func (m *Store) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.offset += d
}

// ──────────────────────────────────────────────────
// job.Store
// ──────────────────────────────────────────────────

// ScheduleJob persists a new job in pending state.
func (m *Store) ScheduleJob(_ context.Context, j *job.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := j.ID.String()
	if _, exists := m.jobs[key]; exists {
		return tempo.ErrJobAlreadyExists
	}
	cp := *j
	m.jobs[key] = &cp
	return nil
}

// CancelJob cancels a pending job by handle. Unknown, fired, and
// previously cancelled handles all report false with a nil error.
func (m *Store) CancelJob(_ context.Context, handle tempo.Handle) (bool, error) {
	if !handle.IsSet() {
		return false, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.jobs[handle.String()]
	if !ok || j.State != job.StatePending {
		return false, nil
	}
	j.State = job.StateCancelled
	j.Touch()
	return true, nil
}

// DequeueDue claims up to limit pending jobs whose RunAt has passed on
// the store clock, sets them running, and returns them ordered by RunAt.
func (m *Store) DequeueDue(_ context.Context, limit int) ([]*job.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC().Add(m.offset)

	due := make([]*job.Job, 0, limit)
	for _, j := range m.jobs {
		if j.State != job.StatePending {
			continue
		}
		if j.RunAt.After(now) {
			continue
		}
		due = append(due, j)
	}
	sort.Slice(due, func(i, k int) bool { return due[i].RunAt.Before(due[k].RunAt) })
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}

	out := make([]*job.Job, 0, len(due))
	for _, j := range due {
		j.State = job.StateRunning
		j.StartedAt = &now
		j.Touch()
		cp := *j
		out = append(out, &cp)
	}
	return out, nil
}

// GetJob retrieves a job by ID.
func (m *Store) GetJob(_ context.Context, jobID id.JobID) (*job.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	j, ok := m.jobs[jobID.String()]
	if !ok {
		return nil, tempo.ErrJobNotFound
	}
	cp := *j
	return &cp, nil
}

// UpdateJob persists changes to an existing job.
func (m *Store) UpdateJob(_ context.Context, j *job.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := j.ID.String()
	if _, ok := m.jobs[key]; !ok {
		return tempo.ErrJobNotFound
	}
	cp := *j
	m.jobs[key] = &cp
	return nil
}

// ListJobsByState returns jobs matching the given state.
func (m *Store) ListJobsByState(_ context.Context, state job.State, opts job.ListOpts) ([]*job.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*job.Job, 0)
	for _, j := range m.jobs {
		if j.State != state {
			continue
		}
		if opts.Kind != "" && j.Kind != opts.Kind {
			continue
		}
		cp := *j
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].RunAt.Before(out[k].RunAt) })
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

// ──────────────────────────────────────────────────
// schedule.CronStore
// ──────────────────────────────────────────────────

// UpsertCron inserts the entry, replacing any existing entry with the
// same Kind.
func (m *Store) UpsertCron(_ context.Context, entry *schedule.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key, existing := range m.crons {
		if existing.Kind == entry.Kind {
			delete(m.crons, key)
		}
	}
	cp := *entry
	m.crons[entry.ID.String()] = &cp
	return nil
}

// ListCrons returns all cron entries.
func (m *Store) ListCrons(_ context.Context) ([]*schedule.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*schedule.Entry, 0, len(m.crons))
	for _, e := range m.crons {
		cp := *e
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].Kind < out[k].Kind })
	return out, nil
}

// MarkCronRun records a firing and the next due instant.
func (m *Store) MarkCronRun(_ context.Context, entryID id.CronID, ranAt, nextRunAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.crons[entryID.String()]
	if !ok {
		return tempo.ErrCronNotFound
	}
	ran := ranAt
	next := nextRunAt
	e.LastRunAt = &ran
	e.NextRunAt = &next
	e.Touch()
	return nil
}
