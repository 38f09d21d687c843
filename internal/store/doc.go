// Package store provides durable storage for sweep results.
//
// Backed by SQLite with WAL mode. The store is the Recorder the runner
// writes through: one sweep header per sweep, one run row per point, all
// idempotent under replay. ReplaySeries reconstructs the exact series a
// past sweep produced, ordered by ordinal, without re-running anything.
package store
