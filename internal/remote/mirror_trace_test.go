package remote_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/roach88/storecart/internal/cart"
	"github.com/roach88/storecart/internal/remote"
	"github.com/roach88/storecart/internal/testutil"
)

// runTraced sends muts through a mirror backed by mutator and returns the
// ended spans.
func runTraced(t *testing.T, mutator remote.Mutator, muts ...remote.Mutation) []sdktrace.ReadOnlySpan {
	t.Helper()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer tp.Shutdown(context.Background())

	m := remote.NewMirror(mutator, "cart-7",
		remote.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		remote.WithTracerProvider(tp),
	)
	require.NoError(t, m.Start(context.Background()))
	defer m.Close()

	for _, mut := range muts {
		m.Dispatch(mut)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, m.Drain(ctx))

	return recorder.Ended()
}

func attrs(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	out := make(map[attribute.Key]attribute.Value)
	for _, kv := range span.Attributes() {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestMirror_OneClientSpanPerMutation(t *testing.T) {
	mutator := testutil.NewRecordingMutator()

	spans := runTraced(t, mutator,
		remote.Mutation{Op: remote.OpSet, ProductID: "p1", Line: cart.Item{ProductID: "p1", Price: 10, Quantity: 3}},
		remote.Mutation{Op: remote.OpRemove, ProductID: "p2"},
	)

	require.Len(t, spans, 2)
	require.Len(t, mutator.Calls(), 2)

	set := spans[0]
	assert.Equal(t, "remote.Mirror.Mutate", set.Name())
	assert.Equal(t, trace.SpanKindClient, set.SpanKind())
	assert.Equal(t, codes.Ok, set.Status().Code)

	a := attrs(set)
	assert.Equal(t, "cart-7", a["cart.id"].AsString())
	assert.Equal(t, "set", a["cart.op"].AsString())
	assert.Equal(t, "p1", a["cart.product_id"].AsString())
	assert.Equal(t, int64(3), a["cart.quantity"].AsInt64())

	assert.Equal(t, "remove", attrs(spans[1])["cart.op"].AsString())
	assert.Empty(t, spans[1].Events())
}

func TestMirror_FailedCallMarksSpanError(t *testing.T) {
	spans := runTraced(t, testutil.NewFailingMutator(),
		remote.Mutation{Op: remote.OpClear},
	)

	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, codes.Error, span.Status().Code)
	assert.Equal(t, "remote mutation failed", span.Status().Description)

	events := span.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "exception", events[0].Name)

	var message string
	for _, kv := range events[0].Attributes {
		if kv.Key == "exception.message" {
			message = kv.Value.AsString()
		}
	}
	assert.Equal(t, testutil.ErrRemoteUnavailable.Error(), message)
}
