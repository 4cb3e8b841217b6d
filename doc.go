// Package tempo is the deferred execution and reconciliation engine for
// the Cohere platform backend. It schedules domain actions to run at a
// future wall-clock moment or on a recurring cadence, tracks the identity
// of those scheduled jobs as the triggering domain state changes, and
// runs bounded retry loops that converge local payment records with the
// external payment authority's state.
//
// Tempo is a library, not a service. Register job kinds as ordinary Go
// functions, configure a store, and use the schedule package to create,
// move, and cancel deferred work.
//
// # Architecture
//
// The job store is a durable queue/timer service behind the job.Store
// interface: it executes a registered unit of work at or after a
// requested instant, or on a cron cadence, and can cancel a pending
// unit of work given an opaque handle. The schedule package is a thin
// typed facade over it; the session and post packages hold the
// scheduling policies and deferred executors; the reconcile package
// holds the payment reconciliation state machines.
//
// Tempo does not guarantee exactly-once execution. Executors are
// written to be idempotent-as-possible: they re-fetch entity state at
// fire time and treat missing entities as successful no-ops.
//
// All entity IDs use TypeID — type-prefixed, K-sortable, UUIDv7-based,
// compile-time safe identifiers. Job handles are stringified job IDs,
// opaque to every caller.
package tempo
