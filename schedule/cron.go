package schedule

import (
	"context"
	"time"

	cronlib "github.com/robfig/cron/v3"

	"github.com/cohereplatform/tempo"
	"github.com/cohereplatform/tempo/id"
	"github.com/cohereplatform/tempo/job"
)

// Entry is a recurring job registration: a job kind bound to a cron
// cadence. Exactly one Entry exists per kind; re-registering replaces
// the cadence in place.
type Entry struct {
	tempo.Entity

	ID        id.CronID  `json:"id"`
	Kind      job.Kind   `json:"kind"`
	Schedule  string     `json:"schedule"`
	LastRunAt *time.Time `json:"last_run_at,omitempty"`
	NextRunAt *time.Time `json:"next_run_at,omitempty"`
	Enabled   bool       `json:"enabled"`
}

// CronStore defines the persistence contract for recurring job entries.
type CronStore interface {
	// UpsertCron inserts the entry or, when an entry with the same Kind
	// already exists, replaces its cadence without creating a duplicate.
	UpsertCron(ctx context.Context, entry *Entry) error

	// ListCrons returns all cron entries.
	ListCrons(ctx context.Context) ([]*Entry, error)

	// MarkCronRun records that the entry fired at ranAt and will next
	// fire at nextRunAt.
	MarkCronRun(ctx context.Context, entryID id.CronID, ranAt, nextRunAt time.Time) error
}

// cronParser supports standard 5-field cron and descriptors like "@every 30s".
var cronParser = cronlib.NewParser(
	cronlib.Minute | cronlib.Hour | cronlib.Dom | cronlib.Month | cronlib.Dow | cronlib.Descriptor,
)

// ParseSchedule parses a cron expression and returns the schedule.
// Exported for the worker pool's cron tick.
func ParseSchedule(expr string) (cronlib.Schedule, error) {
	return cronParser.Parse(expr)
}
