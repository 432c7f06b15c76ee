package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/storecart/internal/persist"
	"github.com/roach88/storecart/internal/remote"
)

func TestRecordingMutator(t *testing.T) {
	ok := NewRecordingMutator()
	require.NoError(t, ok.Mutate(context.Background(), remote.Mutation{Op: remote.OpClear}))
	assert.Len(t, ok.Calls(), 1)

	bad := NewFailingMutator()
	err := bad.Mutate(context.Background(), remote.Mutation{Op: remote.OpClear})
	assert.ErrorIs(t, err, ErrRemoteUnavailable)
	assert.Len(t, bad.Calls(), 1, "failed calls are still recorded")
}

func TestSyncDispatcher_StampsCartID(t *testing.T) {
	rec := NewRecordingMutator()
	SyncDispatcher{Mutator: rec, CartID: "c1"}.Dispatch(remote.Mutation{Op: remote.OpClear})

	require.Len(t, rec.Calls(), 1)
	assert.Equal(t, "c1", rec.Calls()[0].CartID)
}

func TestFailingKV(t *testing.T) {
	inner := persist.NewMemoryKV()
	require.NoError(t, inner.Put(context.Background(), "k", []byte("v")))

	kv := FailingKV{KV: inner}
	got, err := kv.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))
	assert.ErrorIs(t, kv.Put(context.Background(), "k", nil), ErrDiskFull)
}

func TestGatedKV(t *testing.T) {
	kv := NewGatedKV()
	done := make(chan error, 1)
	go func() { done <- kv.Put(context.Background(), "k", []byte("v")) }()

	select {
	case <-kv.Entered():
	case <-time.After(time.Second):
		t.Fatal("Put never started")
	}
	assert.Equal(t, 0, kv.Writes())

	kv.Release()
	require.NoError(t, <-done)
	assert.Equal(t, 1, kv.Writes())
}

func TestGatedKV_HoldRearms(t *testing.T) {
	kv := NewGatedKV()
	kv.Release()
	require.NoError(t, kv.Put(context.Background(), "k", []byte("1")))
	<-kv.Entered()

	kv.Hold()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, kv.Put(ctx, "k", []byte("2")), context.DeadlineExceeded)
}
