package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/storecart/internal/cart"
)

func writeStored(t *testing.T, s *Store, key string, c cart.Cart) {
	t.Helper()
	data, err := cart.Marshal(c)
	require.NoError(t, err)
	require.NoError(t, s.Put(context.Background(), key, data))
}

func TestReplay_MatchesStoredCart(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	e1, c1 := actionEntry(t, 1, "cart", cart.Cart{}, cart.Add{Item: widget, Quantity: 2})
	e2, c2 := actionEntry(t, 2, "cart", c1, cart.Add{Item: cart.Item{ProductID: "gadget", Price: 4}, Quantity: 1})
	e3, c3 := actionEntry(t, 3, "cart", c2, cart.Remove{ProductID: "widget"})
	for _, e := range []Entry{e1, e2, e3} {
		require.NoError(t, s.AppendJournal(ctx, e))
	}
	writeStored(t, s, "cart", c3)

	res, err := s.Replay(ctx, "cart")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Entries)
	assert.Equal(t, int64(3), res.LastSeq)
	assert.True(t, res.Matches)
	assert.True(t, cart.Equal(c3, res.Final))
}

func TestReplay_RestoresUndoAndLoad(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	loaded := cart.Cart{{ProductID: "seed", Price: 1, Quantity: 4}}
	require.NoError(t, s.AppendJournal(ctx, Entry{Seq: 1, CartKey: "cart", Op: OpLoad, Cart: loaded}))
	e2, _ := actionEntry(t, 2, "cart", loaded, cart.Clear{})
	require.NoError(t, s.AppendJournal(ctx, e2))
	require.NoError(t, s.AppendJournal(ctx, Entry{Seq: 3, CartKey: "cart", Op: OpUndo, Cart: loaded}))
	writeStored(t, s, "cart", loaded)

	res, err := s.Replay(ctx, "cart")
	require.NoError(t, err)
	assert.True(t, res.Matches)
	assert.True(t, cart.Equal(loaded, res.Final))
}

func TestReplay_DetectsTamperedEntry(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	e1, _ := actionEntry(t, 1, "cart", cart.Cart{}, cart.Add{Item: widget, Quantity: 2})
	e1.Cart = cart.Cart{{ProductID: "widget", Price: 10, Quantity: 3}}
	require.NoError(t, s.AppendJournal(ctx, e1))

	_, err := s.Replay(ctx, "cart")
	require.Error(t, err)
	assert.True(t, IsReplayMismatch(err))
	assert.Contains(t, err.Error(), "seq 1")
}

func TestReplay_ReportsDivergentStoredCart(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	e1, _ := actionEntry(t, 1, "cart", cart.Cart{}, cart.Add{Item: widget, Quantity: 1})
	require.NoError(t, s.AppendJournal(ctx, e1))
	writeStored(t, s, "cart", cart.Cart{})

	res, err := s.Replay(ctx, "cart")
	require.NoError(t, err)
	assert.False(t, res.Matches)
	assert.Len(t, res.Final, 1)
	assert.Empty(t, res.Stored)
}

func TestReplay_EmptyJournalNoStoredCart(t *testing.T) {
	s := createTestStore(t)

	res, err := s.Replay(context.Background(), "cart")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Entries)
	assert.True(t, res.Matches)
}
