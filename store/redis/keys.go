package redis

// Redis key naming conventions for tempo data.
// All keys are prefixed with "tempo:" to avoid collisions.

const keyPrefix = "tempo:"

// ── Job keys ──

// jobKey returns the key for a job entity: tempo:job:{id}
func jobKey(id string) string { return keyPrefix + "job:" + id }

// dueKey is the Sorted Set of pending jobs scored by RunAt (unix nanos).
const dueKey = keyPrefix + "due"

// jobIDsKey is the Set tracking all job IDs for enumeration.
const jobIDsKey = keyPrefix + "job_ids"

// ── Cron keys ──

// cronKey returns the key for a cron entry entity: tempo:cron:{id}
func cronKey(id string) string { return keyPrefix + "cron:" + id }

// cronKindsKey maps cron kinds to entry IDs for upsert-by-kind.
const cronKindsKey = keyPrefix + "cron_kinds"
