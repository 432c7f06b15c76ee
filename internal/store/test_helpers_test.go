package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/storecart/internal/cart"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// actionEntry builds the journal entry the engine writes for a committed action.
func actionEntry(t *testing.T, seq int64, key string, before cart.Cart, a cart.Action) (Entry, cart.Cart) {
	t.Helper()
	payload, err := cart.MarshalAction(a)
	if err != nil {
		t.Fatalf("MarshalAction() failed: %v", err)
	}
	after := cart.Reduce(before, a)
	return Entry{
		Seq:       seq,
		CartKey:   key,
		Op:        string(a.Kind()),
		ProductID: a.ProductKey(),
		Action:    payload,
		Cart:      after,
	}, after
}
