// Package testutil provides test doubles for the cart engine: remote
// mutators that record or fail, and KV stores that fail or block.
package testutil
