// Package history keeps a bounded stack of pre-mutation cart snapshots.
package history

import (
	"sync"

	"github.com/roach88/storecart/internal/cart"
)

// DefaultDepth is the number of snapshots retained when no depth is given.
const DefaultDepth = 5

// History is a fixed-capacity ring buffer of cart snapshots.
//
// Push evicts the oldest snapshot once the buffer is full (FIFO eviction).
// Pop returns the most recent snapshot. There is no redo: a popped snapshot
// is gone.
//
// Thread-safety: all methods are safe for concurrent use.
type History struct {
	mu    sync.Mutex
	slots []cart.Cart
	head  int // index of the next write
	size  int
}

// New creates a history holding at most depth snapshots.
// A depth below 1 falls back to DefaultDepth.
func New(depth int) *History {
	if depth < 1 {
		depth = DefaultDepth
	}
	return &History{slots: make([]cart.Cart, depth)}
}

// Push stores a deep copy of c as the newest snapshot.
func (h *History) Push(c cart.Cart) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.slots[h.head] = c.Clone()
	h.head = (h.head + 1) % len(h.slots)
	if h.size < len(h.slots) {
		h.size++
	}
}

// Pop removes and returns the newest snapshot.
// Returns (nil, false) when the history is empty.
func (h *History) Pop() (cart.Cart, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.size == 0 {
		return nil, false
	}
	h.head = (h.head - 1 + len(h.slots)) % len(h.slots)
	c := h.slots[h.head]
	h.slots[h.head] = nil
	h.size--
	return c, true
}

// Len returns the number of snapshots available for undo.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.size
}

// Cap returns the maximum number of snapshots retained.
func (h *History) Cap() int {
	return len(h.slots)
}

// Reset drops every snapshot.
func (h *History) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := range h.slots {
		h.slots[i] = nil
	}
	h.head = 0
	h.size = 0
}
