package persist

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned by KV.Get when the key has never been written.
var ErrNotFound = errors.New("key not found")

// KV is the durable local key-value store the adapter writes through.
// Implemented by store.Store (SQLite), badgerkv.Store and MemoryKV.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}

// MemoryKV is a process-local KV used by tests and the scenario harness.
//
// Thread-safety: MemoryKV is safe for concurrent use.
type MemoryKV struct {
	mu     sync.RWMutex
	data   map[string][]byte
	writes int
}

// NewMemoryKV creates an empty in-memory store.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

// Get returns a copy of the stored value or ErrNotFound.
func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

// Put stores a copy of value under key.
func (m *MemoryKV) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = append([]byte(nil), value...)
	m.writes++
	return nil
}

// Writes returns how many Put calls have completed.
func (m *MemoryKV) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes
}
