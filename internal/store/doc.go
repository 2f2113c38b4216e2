// Package store provides a SQLite-backed tracking backend.
//
// Each synced event is stored once, keyed by its event key:
//   - events: envelope, content digest, and the stamped event tree as
//     canonical JSON
//   - dataframes, transformers, transformer_specs: one row per id slot,
//     whose AUTOINCREMENT id is the id issued to the client
//
// # Idempotency
//
// A batch is written in a single transaction. A key that is already stored
// with the same digest returns its original receipt without writing; the
// same key with a different digest fails the whole batch with
// schema.ErrKeyConflict.
//
// # Ordering
//
// Reads order by seq ASC, id ASC so listings are stable across runs.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
