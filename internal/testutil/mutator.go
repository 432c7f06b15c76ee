package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/roach88/storecart/internal/remote"
)

// ErrRemoteUnavailable is returned by a failing RecordingMutator.
var ErrRemoteUnavailable = errors.New("remote cart service unavailable")

// RecordingMutator records every remote mutation it receives.
// When Fail is set each call still records, then returns ErrRemoteUnavailable.
//
// Thread-safety: RecordingMutator is safe for concurrent use.
type RecordingMutator struct {
	mu    sync.Mutex
	calls []remote.Mutation
	fail  bool
}

// NewRecordingMutator creates a mutator that succeeds.
func NewRecordingMutator() *RecordingMutator {
	return &RecordingMutator{}
}

// NewFailingMutator creates a mutator that rejects every call.
func NewFailingMutator() *RecordingMutator {
	return &RecordingMutator{fail: true}
}

// Mutate implements remote.Mutator.
func (r *RecordingMutator) Mutate(_ context.Context, m remote.Mutation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = append(r.calls, m)
	if r.fail {
		return ErrRemoteUnavailable
	}
	return nil
}

// Calls returns a copy of the recorded mutations in arrival order.
func (r *RecordingMutator) Calls() []remote.Mutation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]remote.Mutation(nil), r.calls...)
}

// SyncDispatcher applies mutations inline instead of on a worker. Use it
// where a test needs the mutation visible as soon as the mutator returns.
type SyncDispatcher struct {
	Mutator remote.Mutator
	CartID  string
}

// Dispatch calls the mutator and ignores its error.
func (d SyncDispatcher) Dispatch(m remote.Mutation) {
	m.CartID = d.CartID
	_ = d.Mutator.Mutate(context.Background(), m)
}
