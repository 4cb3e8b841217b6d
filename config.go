package tempo

import "time"

// Config holds tuning for the worker pool that drives the job store.
type Config struct {
	// Concurrency is the maximum number of jobs executed concurrently.
	Concurrency int

	// PollInterval is how often the pool polls the store for due jobs.
	PollInterval time.Duration

	// CronTickInterval is how often the pool checks for due cron entries.
	CronTickInterval time.Duration

	// ShutdownTimeout is the maximum time to wait for in-flight jobs
	// during graceful shutdown.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Concurrency:      10,
		PollInterval:     1 * time.Second,
		CronTickInterval: 1 * time.Second,
		ShutdownTimeout:  30 * time.Second,
	}
}
