package remote

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMutationQueue_FIFO(t *testing.T) {
	q := newMutationQueue()

	for _, id := range []string{"a", "b", "c"} {
		require.True(t, q.Enqueue(Mutation{Op: OpRemove, ProductID: id}))
	}
	assert.Equal(t, 3, q.Len())

	for _, want := range []string{"a", "b", "c"} {
		got, ok := q.TryDequeue()
		require.True(t, ok)
		assert.Equal(t, want, got.ProductID)
	}

	_, ok := q.TryDequeue()
	assert.False(t, ok, "dequeue from empty queue should return false")
}

func TestMutationQueue_WaitSignalsEnqueue(t *testing.T) {
	q := newMutationQueue()

	select {
	case <-q.Wait():
		t.Fatal("empty queue should not signal")
	default:
	}

	q.Enqueue(Mutation{Op: OpClear})
	q.Enqueue(Mutation{Op: OpClear})

	select {
	case <-q.Wait():
	case <-time.After(time.Second):
		t.Fatal("enqueue should signal")
	}
	assert.Equal(t, 2, q.Len(), "signals coalesce; items do not")
}

func TestMutationQueue_CloseReturnsDropped(t *testing.T) {
	q := newMutationQueue()
	q.Enqueue(Mutation{Op: OpRemove, ProductID: "a"})
	q.Enqueue(Mutation{Op: OpRemove, ProductID: "b"})

	dropped := q.Close()
	require.Len(t, dropped, 2)
	assert.Equal(t, "a", dropped[0].ProductID)
	assert.True(t, q.isClosed())
	assert.Equal(t, 0, q.Len())

	_, open := <-q.Wait()
	assert.False(t, open, "Close closes the signal channel")

	assert.False(t, q.Enqueue(Mutation{Op: OpClear}), "enqueue after close should fail")
	assert.Nil(t, q.Close(), "second close is a no-op")
}

func TestMutationQueue_ThreadSafe(t *testing.T) {
	q := newMutationQueue()

	const producers, perProducer = 8, 100
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Enqueue(Mutation{Op: OpRemove, ProductID: fmt.Sprintf("%d-%d", p, i)})
			}
		}(p)
	}
	wg.Wait()

	seen := 0
	for {
		if _, ok := q.TryDequeue(); !ok {
			break
		}
		seen++
	}
	assert.Equal(t, producers*perProducer, seen)
}
