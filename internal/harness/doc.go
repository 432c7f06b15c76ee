// Package harness runs cart scenarios described in YAML against a real
// engine and checks the outcome.
//
// Each scenario runs in isolation: a fresh in-memory KV, a deterministic
// remote cart id and, when the scenario enables remote mode, a recording
// mutator that can be told to reject every call. The mirror is drained
// before expectations are evaluated, so remote call counts are exact.
//
// RunWithGolden also renders the step-by-step trace as text and compares
// it with testdata/golden/<name>.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
