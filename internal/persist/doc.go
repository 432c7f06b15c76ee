// Package persist bridges committed cart state and a durable key-value store.
//
// The durable payload is one key holding a JSON array of cart lines. It is
// read once at startup and rewritten wholesale on every committed change:
// no diffing, no coalescing, N commits cause N writes.
//
// Loading never fails from the caller's point of view. A missing key yields
// an empty cart silently; a payload that cannot be read, decoded, or that
// fails the #Cart schema yields an empty cart and a logged LoadError.
package persist
