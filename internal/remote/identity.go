package remote

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/roach88/storecart/internal/persist"
)

// DefaultIdentityKey is the local key holding the remote cart id.
const DefaultIdentityKey = "cart_id"

// IDGenerator generates remote cart ids.
// Implemented by UUIDv7Generator (production) and FixedGenerator (tests).
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 cart ids.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate returns a new hyphenated UUIDv7.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator returns predetermined ids in order.
//
// Thread-safety: FixedGenerator is safe for concurrent use via internal mutex.
type FixedGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedGenerator creates a generator that returns ids in order.
func NewFixedGenerator(ids ...string) *FixedGenerator {
	return &FixedGenerator{ids: ids}
}

// Generate returns the next id.
// Panics if all ids have been consumed.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.ids) {
		panic("FixedGenerator: all ids exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}

// Resolve returns the remote cart id stored under key in kv, generating
// and storing a new one on first use.
func Resolve(ctx context.Context, kv persist.KV, key string, gen IDGenerator) (string, error) {
	if key == "" {
		key = DefaultIdentityKey
	}

	raw, err := kv.Get(ctx, key)
	switch {
	case err == nil && len(raw) > 0:
		return string(raw), nil
	case err != nil && !errors.Is(err, persist.ErrNotFound):
		return "", fmt.Errorf("read cart identity: %w", err)
	}

	id := gen.Generate()
	if err := kv.Put(ctx, key, []byte(id)); err != nil {
		return "", fmt.Errorf("store cart identity: %w", err)
	}
	return id, nil
}
