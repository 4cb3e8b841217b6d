package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/cohereplatform/tempo"
	"github.com/cohereplatform/tempo/id"
	"github.com/cohereplatform/tempo/job"
	"github.com/cohereplatform/tempo/schedule"
)

// ── JSON model for KV storage ──

type cronEntity struct {
	ID        string     `json:"id"`
	Kind      string     `json:"kind"`
	Schedule  string     `json:"schedule"`
	LastRunAt *time.Time `json:"last_run_at,omitempty"`
	NextRunAt *time.Time `json:"next_run_at,omitempty"`
	Enabled   bool       `json:"enabled"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func toCronEntity(e *schedule.Entry) *cronEntity {
	return &cronEntity{
		ID:        e.ID.String(),
		Kind:      string(e.Kind),
		Schedule:  e.Schedule,
		LastRunAt: e.LastRunAt,
		NextRunAt: e.NextRunAt,
		Enabled:   e.Enabled,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

func fromCronEntity(e *cronEntity) (*schedule.Entry, error) {
	eID, err := id.ParseCronID(e.ID)
	if err != nil {
		return nil, fmt.Errorf("tempo/redis: parse cron id: %w", err)
	}

	return &schedule.Entry{
		Entity: tempo.Entity{
			CreatedAt: e.CreatedAt,
			UpdatedAt: e.UpdatedAt,
		},
		ID:        eID,
		Kind:      job.Kind(e.Kind),
		Schedule:  e.Schedule,
		LastRunAt: e.LastRunAt,
		NextRunAt: e.NextRunAt,
		Enabled:   e.Enabled,
	}, nil
}

// UpsertCron persists the entry, replacing any prior entry registered
// for the same kind. The kind→id hash is the upsert index.
func (s *Store) UpsertCron(ctx context.Context, entry *schedule.Entry) error {
	kind := string(entry.Kind)

	prevID, err := s.client.HGet(ctx, cronKindsKey, kind).Result()
	if err != nil && !errors.Is(err, goredis.Nil) {
		return fmt.Errorf("tempo/redis: upsert cron lookup: %w", err)
	}

	data, err := json.Marshal(toCronEntity(entry))
	if err != nil {
		return fmt.Errorf("tempo/redis: marshal cron: %w", err)
	}

	pipe := s.client.TxPipeline()
	if prevID != "" && prevID != entry.ID.String() {
		pipe.Del(ctx, cronKey(prevID))
	}
	pipe.Set(ctx, cronKey(entry.ID.String()), data, 0)
	pipe.HSet(ctx, cronKindsKey, kind, entry.ID.String())

	if _, err = pipe.Exec(ctx); err != nil {
		return fmt.Errorf("tempo/redis: upsert cron: %w", err)
	}
	return nil
}

// ListCrons returns all cron entries.
func (s *Store) ListCrons(ctx context.Context) ([]*schedule.Entry, error) {
	kinds, err := s.client.HGetAll(ctx, cronKindsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("tempo/redis: list cron kinds: %w", err)
	}

	out := make([]*schedule.Entry, 0, len(kinds))
	for _, eID := range kinds {
		entry, getErr := s.getCron(ctx, eID)
		if getErr != nil {
			return nil, getErr
		}
		out = append(out, entry)
	}
	return out, nil
}

// MarkCronRun records a firing and the next due instant.
func (s *Store) MarkCronRun(ctx context.Context, entryID id.CronID, ranAt, nextRunAt time.Time) error {
	entry, err := s.getCron(ctx, entryID.String())
	if err != nil {
		return err
	}

	ran := ranAt
	next := nextRunAt
	entry.LastRunAt = &ran
	entry.NextRunAt = &next
	entry.Touch()

	data, err := json.Marshal(toCronEntity(entry))
	if err != nil {
		return fmt.Errorf("tempo/redis: marshal cron: %w", err)
	}
	if err := s.client.Set(ctx, cronKey(entryID.String()), data, 0).Err(); err != nil {
		return fmt.Errorf("tempo/redis: mark cron run: %w", err)
	}
	return nil
}

func (s *Store) getCron(ctx context.Context, eID string) (*schedule.Entry, error) {
	data, err := s.client.Get(ctx, cronKey(eID)).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, tempo.ErrCronNotFound
		}
		return nil, fmt.Errorf("tempo/redis: get cron: %w", err)
	}

	var e cronEntity
	if err := json.Unmarshal([]byte(data), &e); err != nil {
		return nil, fmt.Errorf("tempo/redis: unmarshal cron: %w", err)
	}
	return fromCronEntity(&e)
}
