// Package schedule is the thin typed facade over the job store.
//
// [Scheduler] covers one-shot deferred work: schedule a job kind after
// a delay, move it (cancel + reschedule), cancel it, or enqueue it for
// near-immediate execution. All operations side-effect only the job
// store; callers own persisting the returned handle on their entity.
//
// UpdateSchedule keeps the engine's long-standing asymmetry: the old
// handle is cancelled first, and a new job is scheduled only when that
// cancellation actually removed a pending job. A stale handle (already
// fired, already cancelled, unknown) yields tempo.NoHandle and no new
// job. TestScheduler_UpdateScheduleStaleHandle pins this behavior so
// any future change to it is deliberate.
//
// [Registrar] covers system-level recurring jobs: register a kind on a
// daily, hourly, or arbitrary cron cadence. Registration is an upsert
// keyed by kind — registering again replaces the cadence and never
// produces a second concurrent schedule.
package schedule
