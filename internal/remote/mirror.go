package remote

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/roach88/storecart/internal/metrics"
)

// ErrClosed is returned by Start on a closed mirror.
var ErrClosed = errors.New("remote mirror closed")

const tracerName = "github.com/roach88/storecart/internal/remote"

// Mirror sends mutations to a Mutator on a single background worker.
//
// Thread-safety model:
//   - Dispatch(), Drain(), Close(), Pending(): safe from any goroutine
//   - Start(): call once
type Mirror struct {
	mutator Mutator
	cartID  string
	queue   *mutationQueue
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer

	mu      sync.Mutex
	started bool
	pending int           // dispatched but not yet finished or dropped
	idle    chan struct{} // closed when pending returns to zero

	sent   atomic.Int64
	failed atomic.Int64
}

// MirrorOption configures a Mirror.
type MirrorOption func(*Mirror)

// WithLogger sets the logger used for call failures.
func WithLogger(l *slog.Logger) MirrorOption {
	return func(m *Mirror) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithMetrics records call results.
func WithMetrics(mt *metrics.Metrics) MirrorOption {
	return func(m *Mirror) {
		m.metrics = mt
	}
}

// WithTracerProvider overrides the global OpenTelemetry tracer provider.
func WithTracerProvider(tp trace.TracerProvider) MirrorOption {
	return func(m *Mirror) {
		if tp != nil {
			m.tracer = tp.Tracer(tracerName)
		}
	}
}

// NewMirror creates a mirror that stamps every mutation with cartID.
// Mutations dispatched before Start are held until the worker runs.
func NewMirror(mutator Mutator, cartID string, opts ...MirrorOption) *Mirror {
	m := &Mirror{
		mutator: mutator,
		cartID:  cartID,
		queue:   newMutationQueue(),
		logger:  slog.Default(),
		tracer:  otel.Tracer(tracerName),
		idle:    make(chan struct{}),
	}
	close(m.idle)
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CartID returns the remote cart identity this mirror writes to.
func (m *Mirror) CartID() string {
	return m.cartID
}

// Start launches the worker. Cancelling ctx stops it; queued mutations are
// then dropped. A call already in flight is not cancelled.
func (m *Mirror) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return errors.New("remote mirror already started")
	}
	if m.queue.isClosed() {
		return ErrClosed
	}
	m.started = true
	go m.run(ctx)
	return nil
}

// Dispatch queues mut for sending and returns immediately.
// Mutations dispatched after Close are dropped.
func (m *Mirror) Dispatch(mut Mutation) {
	mut.CartID = m.cartID
	m.begin()
	if !m.queue.Enqueue(mut) {
		m.finish(1)
		m.logger.Debug("remote mirror closed, mutation dropped",
			"cart_id", m.cartID,
			"op", string(mut.Op),
			"product_id", mut.ProductID,
		)
	}
}

// Drain blocks until every dispatched mutation has been sent or dropped,
// or ctx is done. It is meant for shutdown and tests; the engine never
// waits on the mirror.
func (m *Mirror) Drain(ctx context.Context) error {
	for {
		m.mu.Lock()
		if m.pending == 0 {
			m.mu.Unlock()
			return nil
		}
		idle := m.idle
		m.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-idle:
		}
	}
}

// Close stops accepting mutations and drops any still queued.
// It does not wait for a call in flight.
func (m *Mirror) Close() {
	dropped := m.queue.Close()
	if len(dropped) > 0 {
		m.logger.Warn("remote mirror closed with queued mutations",
			"cart_id", m.cartID,
			"dropped", len(dropped),
		)
	}
	m.finish(len(dropped))
}

// Pending returns how many mutations are queued or in flight.
func (m *Mirror) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending
}

// Sent returns how many calls succeeded.
func (m *Mirror) Sent() int64 {
	return m.sent.Load()
}

// Failed returns how many calls returned an error.
func (m *Mirror) Failed() int64 {
	return m.failed.Load()
}

func (m *Mirror) begin() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending == 0 {
		m.idle = make(chan struct{})
	}
	m.pending++
}

func (m *Mirror) finish(n int) {
	if n <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending -= n
	if m.pending <= 0 {
		m.pending = 0
		close(m.idle)
	}
}

// run is the worker loop. Failures are logged and the loop continues;
// there is no retry.
func (m *Mirror) run(ctx context.Context) {
	for {
		mut, ok := m.queue.TryDequeue()
		if ok {
			m.send(ctx, mut)
			continue
		}

		select {
		case <-ctx.Done():
			m.logger.Debug("remote mirror stopping: context cancelled", "cart_id", m.cartID)
			m.Close()
			return

		case <-m.queue.Wait():
			// The signal channel is closed by Close, which also empties
			// the queue.
			if m.queue.isClosed() && m.queue.Len() == 0 {
				return
			}
		}
	}
}

// send performs one call. The call carries no deadline and is not cancelled
// when the worker's context is.
func (m *Mirror) send(ctx context.Context, mut Mutation) {
	defer m.finish(1)

	callCtx, span := m.tracer.Start(context.WithoutCancel(ctx), "remote.Mirror.Mutate",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("cart.id", mut.CartID),
			attribute.String("cart.op", string(mut.Op)),
			attribute.String("cart.product_id", mut.ProductID),
			attribute.Int("cart.quantity", mut.Line.Quantity),
		),
	)
	defer span.End()

	err := m.mutator.Mutate(callCtx, mut)
	m.metrics.RemoteCall(err)
	if err != nil {
		m.failed.Add(1)
		span.RecordError(err)
		span.SetStatus(codes.Error, "remote mutation failed")
		m.logger.Error("remote mirror call failed",
			"cart_id", mut.CartID,
			"op", string(mut.Op),
			"product_id", mut.ProductID,
			"quantity", mut.Line.Quantity,
			"error", err,
		)
		return
	}

	m.sent.Add(1)
	span.SetStatus(codes.Ok, "")
	m.logger.Debug("remote mirror call sent",
		"cart_id", mut.CartID,
		"op", string(mut.Op),
		"product_id", mut.ProductID,
	)
}
