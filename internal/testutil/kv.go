package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/roach88/storecart/internal/persist"
)

// ErrDiskFull is returned by FailingKV.Put.
var ErrDiskFull = errors.New("disk full")

// FailingKV reads through to an inner store but fails every Put.
type FailingKV struct {
	persist.KV
}

// Put always fails.
func (FailingKV) Put(context.Context, string, []byte) error {
	return ErrDiskFull
}

// GatedKV blocks every Put until Release is called, so tests can observe
// the engine while a write is in flight.
type GatedKV struct {
	*persist.MemoryKV

	mu      sync.Mutex
	entered chan struct{}
	release chan struct{}
}

// NewGatedKV creates an in-memory store whose writes are held until Release.
func NewGatedKV() *GatedKV {
	return &GatedKV{
		MemoryKV: persist.NewMemoryKV(),
		entered:  make(chan struct{}, 64),
		release:  make(chan struct{}),
	}
}

// Put signals Entered, waits for Release, then writes.
func (g *GatedKV) Put(ctx context.Context, key string, value []byte) error {
	g.entered <- struct{}{}
	g.mu.Lock()
	release := g.release
	g.mu.Unlock()

	select {
	case <-release:
	case <-ctx.Done():
		return ctx.Err()
	}
	return g.MemoryKV.Put(ctx, key, value)
}

// Entered receives once per Put that has started.
func (g *GatedKV) Entered() <-chan struct{} {
	return g.entered
}

// Hold makes future Puts block again after a Release.
func (g *GatedKV) Hold() {
	g.mu.Lock()
	defer g.mu.Unlock()
	select {
	case <-g.release:
		g.release = make(chan struct{})
	default:
	}
}

// Release lets every blocked and future Put proceed until the next Hold.
func (g *GatedKV) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	select {
	case <-g.release:
	default:
		close(g.release)
	}
}
