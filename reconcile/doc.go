// Package reconcile runs bounded retry loops that converge local
// payment state with an external payment authority. Each loop fetches
// the authority's view of a payment intent or subscription, treats a
// terminal status as success, and otherwise issues a cancel, retrying
// with a fixed backoff up to a configured attempt limit.
//
// Attempt counters are transient: they live only within one job
// execution and are never persisted, so a re-enqueued job starts its
// budget over against whatever state the authority reports then.
package reconcile
