// Package store provides SQLite-backed durable local storage for storecart.
//
// The store holds two things:
//   - kv: whole-value records keyed by name (the cart payload, the remote
//     cart identity). Store implements persist.KV over this table.
//   - journal: an append-only log of committed cart transitions, one row per
//     commit, each carrying the action and the resulting cart.
//
// # Journal Ordering
//
// Rows are ordered by seq, the engine's logical clock. Wall-clock timestamps
// are never used for ordering, so a replay folds transitions in exactly the
// order they were committed.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//
// Only one engine instance writes a given cart key; no cross-process write
// contention is modeled.
package store
