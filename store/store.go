// Package store defines the aggregate persistence interface. The job
// and schedule subsystems each define their own store interface; the
// composite Store composes them. Backends: Redis and Memory.
package store

import (
	"context"

	"github.com/cohereplatform/tempo/job"
	"github.com/cohereplatform/tempo/schedule"
)

// Store is the aggregate persistence interface of the job store.
// A single backend implements both subsystem contracts.
type Store interface {
	job.Store
	schedule.CronStore

	// Ping checks backend connectivity.
	Ping(ctx context.Context) error

	// Close closes the store connection.
	Close() error
}
