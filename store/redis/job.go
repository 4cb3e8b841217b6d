package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/cohereplatform/tempo"
	"github.com/cohereplatform/tempo/id"
	"github.com/cohereplatform/tempo/job"
)

// ScheduleJob stores the job as a Hash and adds it to the due Sorted Set.
func (s *Store) ScheduleJob(ctx context.Context, j *job.Job) error {
	jID := j.ID.String()
	key := jobKey(jID)

	// Check for duplicate.
	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("tempo/redis: schedule check exists: %w", err)
	}
	if exists > 0 {
		return tempo.ErrJobAlreadyExists
	}

	fields := jobToMap(j)

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, fields)
	pipe.SAdd(ctx, jobIDsKey, jID)
	pipe.ZAdd(ctx, dueKey, goredis.Z{Score: float64(j.RunAt.UnixNano()), Member: jID})

	if _, err = pipe.Exec(ctx); err != nil {
		return fmt.Errorf("tempo/redis: schedule job: %w", err)
	}
	return nil
}

// CancelJob removes a pending job from the due set. The ZREM count is
// the source of truth: a handle that is unknown, already fired, or
// already cancelled is no longer in the set and reports false.
func (s *Store) CancelJob(ctx context.Context, handle tempo.Handle) (bool, error) {
	if !handle.IsSet() {
		return false, nil
	}
	jID := handle.String()

	removed, err := s.client.ZRem(ctx, dueKey, jID).Result()
	if err != nil {
		return false, fmt.Errorf("tempo/redis: cancel zrem: %w", err)
	}
	if removed == 0 {
		return false, nil
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	err = s.client.HSet(ctx, jobKey(jID),
		"state", string(job.StateCancelled),
		"updated_at", now,
	).Err()
	if err != nil {
		return false, fmt.Errorf("tempo/redis: cancel update: %w", err)
	}
	return true, nil
}

// DequeueDue atomically pops up to limit due jobs from the Sorted Set
// and marks them running.
func (s *Store) DequeueDue(ctx context.Context, limit int) ([]*job.Job, error) {
	now := time.Now().UTC()

	ids, err := s.client.ZRangeByScore(ctx, dueKey, &goredis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now.UnixNano(), 10),
		Count: int64(limit),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("tempo/redis: dequeue range: %w", err)
	}

	jobs := make([]*job.Job, 0, len(ids))
	for _, jID := range ids {
		// Claim: only the remover executes the job.
		removed, remErr := s.client.ZRem(ctx, dueKey, jID).Result()
		if remErr != nil {
			return nil, fmt.Errorf("tempo/redis: dequeue zrem: %w", remErr)
		}
		if removed == 0 {
			continue // Cancelled or claimed elsewhere between range and rem.
		}

		key := jobKey(jID)
		err = s.client.HSet(ctx, key,
			"state", string(job.StateRunning),
			"started_at", now.Format(time.RFC3339Nano),
			"updated_at", now.Format(time.RFC3339Nano),
		).Err()
		if err != nil {
			return nil, fmt.Errorf("tempo/redis: dequeue update: %w", err)
		}

		j, getErr := s.getJobByKey(ctx, key)
		if getErr != nil {
			return nil, getErr
		}
		jobs = append(jobs, j)
	}
	return jobs, nil
}

// GetJob retrieves a job by ID.
func (s *Store) GetJob(ctx context.Context, jobID id.JobID) (*job.Job, error) {
	return s.getJobByKey(ctx, jobKey(jobID.String()))
}

// UpdateJob persists changes to an existing job.
func (s *Store) UpdateJob(ctx context.Context, j *job.Job) error {
	key := jobKey(j.ID.String())

	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("tempo/redis: update job exists: %w", err)
	}
	if exists == 0 {
		return tempo.ErrJobNotFound
	}

	fields := jobToMap(j)
	fields["updated_at"] = time.Now().UTC().Format(time.RFC3339Nano)

	if err := s.client.HSet(ctx, key, fields).Err(); err != nil {
		return fmt.Errorf("tempo/redis: update job: %w", err)
	}
	return nil
}

// ListJobsByState returns jobs matching the given state. Intended for
// operational inspection, not hot paths: it walks the job ID set.
func (s *Store) ListJobsByState(ctx context.Context, state job.State, opts job.ListOpts) ([]*job.Job, error) {
	ids, err := s.client.SMembers(ctx, jobIDsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("tempo/redis: list job ids: %w", err)
	}

	out := make([]*job.Job, 0)
	for _, jID := range ids {
		j, getErr := s.getJobByKey(ctx, jobKey(jID))
		if getErr != nil {
			if errors.Is(getErr, tempo.ErrJobNotFound) {
				continue
			}
			return nil, getErr
		}
		if j.State != state {
			continue
		}
		if opts.Kind != "" && j.Kind != opts.Kind {
			continue
		}
		out = append(out, j)
		if opts.Limit > 0 && len(out) >= opts.Limit {
			break
		}
	}
	return out, nil
}

func (s *Store) getJobByKey(ctx context.Context, key string) (*job.Job, error) {
	fields, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("tempo/redis: get job: %w", err)
	}
	if len(fields) == 0 {
		return nil, tempo.ErrJobNotFound
	}
	return jobFromMap(fields)
}

// ── Hash mapping ──

func jobToMap(j *job.Job) map[string]any {
	m := map[string]any{
		"id":         j.ID.String(),
		"kind":       string(j.Kind),
		"payload":    string(j.Payload),
		"state":      string(j.State),
		"run_at":     j.RunAt.Format(time.RFC3339Nano),
		"outcome":    string(j.Outcome),
		"last_error": j.LastError,
		"created_at": j.CreatedAt.Format(time.RFC3339Nano),
		"updated_at": j.UpdatedAt.Format(time.RFC3339Nano),
	}
	if j.StartedAt != nil {
		m["started_at"] = j.StartedAt.Format(time.RFC3339Nano)
	}
	if j.CompletedAt != nil {
		m["completed_at"] = j.CompletedAt.Format(time.RFC3339Nano)
	}
	return m
}

func jobFromMap(fields map[string]string) (*job.Job, error) {
	jID, err := id.ParseJobID(fields["id"])
	if err != nil {
		return nil, fmt.Errorf("tempo/redis: parse job id: %w", err)
	}

	j := &job.Job{
		ID:        jID,
		Kind:      job.Kind(fields["kind"]),
		Payload:   []byte(fields["payload"]),
		State:     job.State(fields["state"]),
		Outcome:   tempo.Outcome(fields["outcome"]),
		LastError: fields["last_error"],
	}

	for name, dst := range map[string]*time.Time{
		"run_at":     &j.RunAt,
		"created_at": &j.CreatedAt,
		"updated_at": &j.UpdatedAt,
	} {
		if raw := fields[name]; raw != "" {
			t, parseErr := time.Parse(time.RFC3339Nano, raw)
			if parseErr != nil {
				return nil, fmt.Errorf("tempo/redis: parse %s: %w", name, parseErr)
			}
			*dst = t
		}
	}
	for name, dst := range map[string]**time.Time{
		"started_at":   &j.StartedAt,
		"completed_at": &j.CompletedAt,
	} {
		if raw := fields[name]; raw != "" {
			t, parseErr := time.Parse(time.RFC3339Nano, raw)
			if parseErr != nil {
				return nil, fmt.Errorf("tempo/redis: parse %s: %w", name, parseErr)
			}
			*dst = &t
		}
	}
	return j, nil
}
