// Package redis implements the job store on Redis. One-shot jobs are
// stored as Hashes with a Sorted Set (scored by RunAt) as the due
// queue; cron entries are Hashes indexed by kind for upsert.
//
// Usage:
//
//	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	s := redisstore.New(client)
//	if err := s.Ping(ctx); err != nil { ... }
package redis

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/cohereplatform/tempo/job"
	"github.com/cohereplatform/tempo/schedule"
)

// Compile-time interface checks.
var (
	_ job.Store          = (*Store)(nil)
	_ schedule.CronStore = (*Store)(nil)
)

// Option configures the Store.
type Option func(*Store)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// Store implements the composite store interface backed by Redis.
type Store struct {
	client redis.Cmdable
	logger *slog.Logger
}

// New creates a new Redis-backed store. The caller owns the Redis
// client lifecycle.
func New(client redis.Cmdable, opts ...Option) *Store {
	s := &Store{
		client: client,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ping checks Redis connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close is a no-op; the Redis client is owned by the caller.
func (s *Store) Close() error { return nil }
