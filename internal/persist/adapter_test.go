package persist

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/storecart/internal/cart"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestAdapter(t *testing.T, kv KV, opts ...AdapterOption) *Adapter {
	t.Helper()
	schema, err := NewSchema()
	require.NoError(t, err)
	opts = append([]AdapterOption{WithSchema(schema), WithLogger(quietLogger())}, opts...)
	return NewAdapter(kv, opts...)
}

type brokenKV struct{}

func (brokenKV) Get(context.Context, string) ([]byte, error) { return nil, errors.New("disk on fire") }
func (brokenKV) Put(context.Context, string, []byte) error   { return errors.New("disk on fire") }

func TestAdapter_RoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	a := newTestAdapter(t, kv)

	want := cart.Cart{
		{ProductID: "p1", Slug: "p1", Name: "One", Image: "/1.png", Price: 10, Quantity: 2},
		{ProductID: "p2", VariantID: "p2-l", SelectedOptions: []cart.Option{{Name: "Size", Value: "L"}}, Price: 3.5, Quantity: 1},
	}
	require.NoError(t, a.Save(ctx, want))

	got, err := a.Load(ctx)
	require.NoError(t, err)
	assert.True(t, cart.Equal(want, got))
}

func TestAdapter_MissingKeyIsEmpty(t *testing.T) {
	a := newTestAdapter(t, NewMemoryKV())

	got, err := a.Load(context.Background())

	assert.NotNil(t, got)
	assert.Empty(t, got)
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, ErrCodeNotFound, le.Code)
	assert.False(t, IsCorrupt(err))
}

func TestAdapter_CorruptPayloadIsEmpty(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	require.NoError(t, kv.Put(ctx, DefaultKey, []byte(`[{"productId": "p1", "price": 1`)))
	a := newTestAdapter(t, kv)

	got, err := a.Load(ctx)

	assert.Empty(t, got)
	assert.True(t, IsCorrupt(err))
}

func TestAdapter_SchemaViolationIsEmpty(t *testing.T) {
	ctx := context.Background()
	payloads := map[string]string{
		"string quantity":     `[{"productId": "p1", "price": 1, "quantity": "2"}]`,
		"fractional quantity": `[{"productId": "p1", "price": 1, "quantity": 1.5}]`,
		"numeric product id":  `[{"productId": 7, "price": 1, "quantity": 1}]`,
		"missing price":       `[{"productId": "p1", "quantity": 1}]`,
		"not an array":        `{"productId": "p1"}`,
	}

	for name, payload := range payloads {
		t.Run(name, func(t *testing.T) {
			kv := NewMemoryKV()
			require.NoError(t, kv.Put(ctx, DefaultKey, []byte(payload)))
			a := newTestAdapter(t, kv)

			got, err := a.Load(ctx)

			assert.Empty(t, got)
			var le *LoadError
			require.ErrorAs(t, err, &le)
			assert.Equal(t, ErrCodeSchema, le.Code)
		})
	}
}

func TestAdapter_SchemaAcceptsEveryCommittableLine(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	a := newTestAdapter(t, kv)

	want := cart.Reduce(nil, cart.Add{Item: cart.Item{ProductID: "p1", Price: 10}, Quantity: 2})
	want = cart.Reduce(want, cart.Add{Item: cart.Item{ProductID: "promo", Price: -5}, Quantity: 1})
	want = cart.Reduce(want, cart.Add{Item: cart.Item{ProductID: "", Price: 0}, Quantity: 1})
	require.Len(t, want, 3)
	require.NoError(t, a.Save(ctx, want))

	got, err := a.Load(ctx)
	require.NoError(t, err)
	assert.True(t, cart.Equal(want, got), "got %+v", got)
}

func TestAdapter_WithoutSchemaFallsBackToDecode(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	require.NoError(t, kv.Put(ctx, DefaultKey, []byte(`not json`)))
	a := NewAdapter(kv, WithLogger(quietLogger()))

	got, err := a.Load(ctx)

	assert.Empty(t, got)
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, ErrCodeCorrupt, le.Code)
}

func TestAdapter_ReadFailureIsEmpty(t *testing.T) {
	a := newTestAdapter(t, brokenKV{})

	got, err := a.Load(context.Background())

	assert.Empty(t, got)
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, ErrCodeRead, le.Code)
	assert.Contains(t, err.Error(), "disk on fire")
}

func TestAdapter_SaveIsWholeCart(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	a := newTestAdapter(t, kv, WithKey("shop-cart"))

	require.NoError(t, a.Save(ctx, cart.Cart{{ProductID: "p1", Price: 1, Quantity: 1}}))
	require.NoError(t, a.Save(ctx, cart.Cart{}))

	raw, err := kv.Get(ctx, "shop-cart")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))
	assert.Equal(t, 2, kv.Writes())
	assert.Equal(t, "shop-cart", a.Key())
}

func TestAdapter_SaveError(t *testing.T) {
	a := newTestAdapter(t, brokenKV{})
	err := a.Save(context.Background(), cart.Cart{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save cart")
}

func TestMemoryKV_CopiesValues(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	buf := []byte("abc")
	require.NoError(t, kv.Put(ctx, "k", buf))
	buf[0] = 'x'

	got, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))

	_, err = kv.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
