// Package store provides a SQLite-backed trace log for module instances.
//
// The store is append-only and holds:
//   - Instances: one row per wired instance, with its spec and spec hash
//   - Emissions: every input push, feedback push and output fold
//   - Snapshots: every snapshot the aggregator published
//
// It is an audit and debugging trail. Nothing in it is ever used to
// restore a running instance.
//
// # Ordering
//
// All ordering uses the logical seq, never timestamps. Every multi-row
// read ends with ORDER BY seq ASC, id ASC COLLATE BINARY (or version for
// snapshots) so the same run always reads back identically.
//
// # Values
//
// Values are stored as RFC 8785 canonical JSON TEXT (ir.MarshalCanonical).
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - foreign_keys=ON
package store
