// Package engine implements the cart façade: the only API the rest of the
// application uses to read and change the cart.
//
// ARCHITECTURE:
//
// Single-Writer Mutations:
// Every mutation runs under one writer lock, so two callers racing from
// different goroutines are applied one after the other, in lock order.
// Each mutation runs the same sequence:
//
//  1. Snapshot the committed cart into the undo history
//  2. Reflect the action in the optimistic projection
//  3. Reduce the committed cart (cart.Reduce)
//  4. Publish the committed cart and settle the projection
//  5. Write the whole cart back through the persistence adapter
//  6. Append the transition to the journal, if one is configured
//  7. Hand the mirrored mutation to the remote mirror, if one is configured
//
// Step 7 never waits on the remote service. Steps 5 to 7 never fail the
// mutation: errors are logged and counted, and local state stands.
//
// Logical Clock:
// Every committed transition is stamped with a seq from Clock.Next().
// The journal is ordered by that seq.
package engine
