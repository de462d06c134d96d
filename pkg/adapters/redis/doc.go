// Package redis persists components, composites and machines in Redis as
// JSON snapshots, and provides a Redis-backed distributed lock.
//
// Entities are stored under prefixed keys with an optional TTL, plus a
// sorted-set index per entity kind that supports listing with lazy
// cleanup of expired members.
package redis
