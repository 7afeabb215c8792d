// Package store archives raw scenario captures in SQLite.
//
// A run is one grading session. Each capture belongs to a run and carries a
// per-run sequence number, so a run reads back in the order it was graded:
//
//	ORDER BY seq ASC, id ASC COLLATE BINARY
//
// Verdicts are never stored. Replaying a run feeds its captures back through
// the grader, which makes the archive useful after rule changes.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Captures must reference an existing run
package store
