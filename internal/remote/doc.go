// Package remote mirrors committed cart mutations to a remote cart service.
//
// The mirror is best-effort. Dispatch never blocks the caller and never
// reports failure back to it. Calls run one at a time in dispatch order on a
// single worker goroutine, each failure is logged and counted, and nothing is
// retried or rolled back. Local state stays authoritative.
//
// Undo is not mirrored: a mutation already sent stays sent.
package remote
