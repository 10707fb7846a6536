// Package tracelog persists update-cycle traces to SQLite so scenario
// runs can be audited after the fact and replayed for determinism
// checks.
//
// A Recorder implements the engine's TraceSink and writes one row per
// dispatched event, changed store and observer rebuild, all keyed by
// run id. Natural-key UNIQUE constraints plus ON CONFLICT DO NOTHING
// make every write idempotent, so re-recording a run is harmless.
//
// # Critical Patterns
//
// Logical Ordering
//   - Rows order by (pass, seq) or their natural key, never by wall
//     time or rowid
//   - Readers return canonical order, so two recordings of the same
//     deterministic run compare equal row by row
//
// Idempotent Writes
//   - events: UNIQUE(run_id, seq)
//   - changes: UNIQUE(run_id, pass, owner, store_key)
//   - rebuilds: UNIQUE(run_id, pass, node)
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Compare runs two traces against each other and reports the first
// divergent row; the replay command is built on it.
package tracelog
