// Package store is a SQLite-backed stand-in for the remote system that
// plugin registrations and custom APIs are synchronized to.
//
// It serves three roles:
//   - Snapshot: reads the registered graph of one solution
//   - MissingUserContexts: answers which impersonation users do not exist
//   - Writer: applies create, update and delete operations
//
// IDs are assigned by the store on insert, never by callers. Children
// reference their parent by ID with foreign keys enforced, so a parent can
// only be deleted once its children are gone.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
