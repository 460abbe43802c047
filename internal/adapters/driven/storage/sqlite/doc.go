// Package sqlite provides a unified SQLite-based implementation of driven port interfaces.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements multiple store interfaces
// through a single database connection:
//
//   - SessionStore: document sessions and their fragment instances
//   - ArtifactStore: proxy artifacts retained for retrieval by GUID
//   - SchedulerStore: background task state and history
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
// Parameter maps are stored as JSON; timestamps of sessions and artifacts as
// Unix nanoseconds so retention queries compare numerically.
//
// # Data Location
//
// By default, the database is stored at ~/.docforge/data/docforge.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode. A session write replaces the session row and its whole
// fragment list in one transaction.
package sqlite
