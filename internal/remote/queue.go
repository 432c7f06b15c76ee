package remote

import "sync"

// mutationQueue is a thread-safe unbounded FIFO queue.
//
// Dispatch must never block the engine, so the queue has no capacity limit.
// A buffered signal channel of size 1 lets the worker wait with select.
type mutationQueue struct {
	mu     sync.Mutex
	items  []Mutation
	closed bool
	signal chan struct{}
}

func newMutationQueue() *mutationQueue {
	return &mutationQueue{
		items:  make([]Mutation, 0, 16),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue appends m. Returns false if the queue is closed.
func (q *mutationQueue) Enqueue(m Mutation) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.items = append(q.items, m)

	// Non-blocking: the buffer of 1 coalesces signals.
	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// TryDequeue removes the front mutation without blocking.
func (q *mutationQueue) TryDequeue() (Mutation, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return Mutation{}, false
	}
	m := q.items[0]
	q.items[0] = Mutation{}
	if len(q.items) == 1 {
		q.items = q.items[:0]
	} else {
		q.items = q.items[1:]
	}
	return m, true
}

// Wait returns a channel that signals when mutations may be available.
// It is closed by Close.
func (q *mutationQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the number of queued mutations.
func (q *mutationQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close stops accepting mutations and wakes the worker.
// Returns the mutations still queued, which will never be sent.
func (q *mutationQueue) Close() []Mutation {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	q.closed = true
	close(q.signal)

	dropped := q.items
	q.items = nil
	return dropped
}

// isClosed reports whether Close has been called.
func (q *mutationQueue) isClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}
