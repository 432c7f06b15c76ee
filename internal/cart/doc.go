// Package cart provides the cart aggregate and its pure state transitions.
//
// This package contains the data model and the reducer only. All other
// internal packages import cart; cart imports nothing internal. This keeps
// the transition rules the single definition shared by the committed store
// and the optimistic projection.
//
// Key rules:
//   - Lines are unique by ProductID; variants do not participate in the merge key
//   - A line whose quantity would drop to zero or below is removed, never stored
//   - Reduce never mutates its input and never rejects an action
//   - Totals are derived on every call, never cached
package cart
