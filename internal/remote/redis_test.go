package remote

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedisMutator_RequiresAddr(t *testing.T) {
	_, err := NewRedisMutator("", "")
	assert.Error(t, err)
}

func TestRedisMutator_Key(t *testing.T) {
	r, err := NewRedisMutator("redis://localhost:6379/0", "")
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, "cart:abc", r.Key("abc"))
}

func TestRedisMutator_RejectsBadMutationsBeforeDialing(t *testing.T) {
	r, err := NewRedisMutator("localhost", "shop:")
	require.NoError(t, err)
	defer r.Close()

	err = r.Mutate(context.Background(), Mutation{Op: OpClear})
	assert.ErrorContains(t, err, "missing cart id")

	err = r.Mutate(context.Background(), Mutation{Op: "bogus", CartID: "c"})
	assert.ErrorContains(t, err, "unknown remote op")
}

func TestRedisMutator_UnreachableServerFails(t *testing.T) {
	// Port 1 is reserved; the dial is refused immediately.
	r, err := NewRedisMutator("127.0.0.1:1", "")
	require.NoError(t, err)
	defer r.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = r.Mutate(ctx, Mutation{Op: OpRemove, CartID: "c", ProductID: "p1"})
	assert.Error(t, err)
}

func TestRedisMutator_LinesReportsEveryReadError(t *testing.T) {
	r, err := NewRedisMutator("127.0.0.1:1", "")
	require.NoError(t, err)
	defer r.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	lines, err := r.Lines(ctx, "c")
	assert.Nil(t, lines)
	assert.ErrorContains(t, err, "redis HGetAll")
}
