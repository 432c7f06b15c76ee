package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/shopspring/decimal"

	"github.com/roach88/storecart/internal/cart"
	"github.com/roach88/storecart/internal/history"
	"github.com/roach88/storecart/internal/metrics"
	"github.com/roach88/storecart/internal/persist"
	"github.com/roach88/storecart/internal/remote"
	"github.com/roach88/storecart/internal/store"
)

// DefaultQuantity is the quantity callers pass to AddItem when the shopper
// did not choose one.
const DefaultQuantity = 1

// Journal records committed transitions. Implemented by store.Store.
type Journal interface {
	AppendJournal(ctx context.Context, e store.Entry) error
}

// Dispatcher receives mirrored mutations. Implemented by remote.Mirror.
// Dispatch must not block.
type Dispatcher interface {
	Dispatch(m remote.Mutation)
}

// Engine owns the committed cart and exposes the cart API.
//
// Thread-safety model:
//   - Mutators (AddItem, RemoveItem, UpdateQuantity, ClearCart,
//     UndoLastAction, Load): safe from any goroutine, serialized by writeMu
//   - Readers: safe from any goroutine, never blocked by persistence
//
// Mutators return nothing. Persistence, journal and mirror failures are
// logged and counted; the local transition always stands.
type Engine struct {
	adapter *persist.Adapter
	history *history.History
	clock   *Clock
	journal Journal
	mirror  Dispatcher
	logger  *slog.Logger
	metrics *metrics.Metrics

	historyDepth int

	// writeMu serializes mutations (single writer).
	writeMu sync.Mutex

	// viewMu guards committed, proj and loaded.
	viewMu    sync.RWMutex
	committed cart.Cart
	proj      projector
	loaded    bool

	inFlight atomic.Int64
}

// Option configures an Engine.
type Option func(*Engine)

// WithMirror mirrors committed mutations through d.
func WithMirror(d Dispatcher) Option {
	return func(e *Engine) {
		e.mirror = d
	}
}

// WithJournal appends every committed transition to j.
func WithJournal(j Journal) Option {
	return func(e *Engine) {
		e.journal = j
	}
}

// WithHistoryDepth sets how many snapshots undo can reach.
// Default: history.DefaultDepth (5).
func WithHistoryDepth(depth int) Option {
	return func(e *Engine) {
		e.historyDepth = depth
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMetrics records mutation and failure counts.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithClock stamps transitions from c, e.g. NewClockAt(lastSeq) to resume
// a journal.
func WithClock(c *Clock) Option {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

// New creates an engine over adapter. The cart starts empty and unloaded;
// call Load to read the durable cart.
func New(adapter *persist.Adapter, opts ...Option) *Engine {
	e := &Engine{
		adapter:      adapter,
		clock:        NewClock(),
		logger:       slog.Default(),
		historyDepth: history.DefaultDepth,
		committed:    cart.Cart{},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.history = history.New(e.historyDepth)
	return e
}

// Load reads the durable cart and makes it the committed cart.
//
// Load never fails: a missing or unusable payload yields an empty cart. The
// loaded cart is written back once, and from then on every committed change
// is persisted. Load discards undo history from before the load.
func (e *Engine) Load(ctx context.Context) {
	e.inFlight.Add(1)
	defer e.inFlight.Add(-1)

	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	c, err := e.adapter.Load(ctx)
	var le *persist.LoadError
	if errors.As(err, &le) && le.Code != persist.ErrCodeNotFound {
		e.metrics.LoadError(string(le.Code))
	}

	e.history.Reset()
	e.metrics.UndoDepth(0)

	e.viewMu.Lock()
	e.committed = c
	e.loaded = true
	e.viewMu.Unlock()

	seq := e.clock.Next()
	e.logger.Debug("cart loaded", "key", e.adapter.Key(), "lines", len(c), "seq", seq)

	e.persist(ctx, c)
	e.record(ctx, store.Entry{Seq: seq, Op: store.OpLoad, Cart: c})
}

// AddItem merges quantity units of item into the cart.
// item.Quantity is ignored. Lines are merged by ProductID alone.
func (e *Engine) AddItem(ctx context.Context, item cart.Item, quantity int) {
	e.apply(ctx, cart.Add{Item: item.Clone(), Quantity: quantity})
}

// RemoveItem drops the line for productID. Absent ids are a no-op.
func (e *Engine) RemoveItem(ctx context.Context, productID string) {
	e.apply(ctx, cart.Remove{ProductID: productID})
}

// UpdateQuantity sets the quantity of productID; quantity <= 0 removes it.
func (e *Engine) UpdateQuantity(ctx context.Context, productID string, quantity int) {
	e.apply(ctx, cart.Update{ProductID: productID, Quantity: quantity})
}

// ClearCart empties the cart.
func (e *Engine) ClearCart(ctx context.Context) {
	e.apply(ctx, cart.Clear{})
}

// UndoLastAction restores the cart from before the most recent mutation.
// It is a no-op with an empty history. Undo is not itself undoable and is
// not mirrored to the remote cart.
func (e *Engine) UndoLastAction(ctx context.Context) {
	e.inFlight.Add(1)
	defer e.inFlight.Add(-1)

	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	snap, ok := e.history.Pop()
	if !ok {
		e.logger.Debug("undo with empty history")
		return
	}
	seq := e.clock.Next()

	e.viewMu.Lock()
	e.committed = snap
	loaded := e.loaded
	e.viewMu.Unlock()

	e.metrics.Mutation(store.OpUndo)
	e.metrics.UndoDepth(e.history.Len())
	e.logger.Debug("undo applied", "seq", seq, "lines", len(snap), "depth", e.history.Len())

	if loaded {
		e.persist(ctx, snap)
		e.record(ctx, store.Entry{Seq: seq, Op: store.OpUndo, Cart: snap})
	}
}

// apply runs the mutation sequence for a.
func (e *Engine) apply(ctx context.Context, a cart.Action) {
	e.inFlight.Add(1)
	defer e.inFlight.Add(-1)

	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	seq := e.clock.Next()

	e.viewMu.Lock()
	before := e.committed
	e.proj.enqueue(seq, a)
	e.viewMu.Unlock()

	e.history.Push(before)
	after := cart.Reduce(before, a)

	e.viewMu.Lock()
	e.committed = after
	e.proj.settle(seq)
	loaded := e.loaded
	e.viewMu.Unlock()

	e.metrics.Mutation(string(a.Kind()))
	e.metrics.UndoDepth(e.history.Len())
	e.logger.Debug("mutation committed",
		"seq", seq,
		"op", string(a.Kind()),
		"product_id", a.ProductKey(),
		"lines", len(after),
	)

	if loaded {
		e.persist(ctx, after)
		e.record(ctx, e.entryFor(seq, a, after))
	}

	if e.mirror != nil {
		if m, ok := remote.ForAction(a, after); ok {
			e.mirror.Dispatch(m)
		}
	}
}

func (e *Engine) entryFor(seq int64, a cart.Action, after cart.Cart) store.Entry {
	entry := store.Entry{
		Seq:       seq,
		Op:        string(a.Kind()),
		ProductID: a.ProductKey(),
		Cart:      after,
	}
	switch v := a.(type) {
	case cart.Add:
		entry.Quantity = v.Quantity
	case cart.Update:
		entry.Quantity = v.Quantity
	}
	payload, err := cart.MarshalAction(a)
	if err != nil {
		e.logger.Error("failed to encode action for journal", "seq", seq, "op", string(a.Kind()), "error", err)
		return entry
	}
	entry.Action = payload
	return entry
}

// persist writes c back through the adapter. Called with writeMu held.
func (e *Engine) persist(ctx context.Context, c cart.Cart) {
	if err := e.adapter.Save(ctx, c); err != nil {
		e.metrics.PersistError()
		e.logger.Error("failed to persist cart",
			"key", e.adapter.Key(),
			"lines", len(c),
			"error", err,
		)
	}
}

// record appends entry to the journal, if any. Called with writeMu held.
func (e *Engine) record(ctx context.Context, entry store.Entry) {
	if e.journal == nil {
		return
	}
	entry.CartKey = e.adapter.Key()
	if err := e.journal.AppendJournal(ctx, entry); err != nil {
		e.metrics.JournalError()
		e.logger.Error("failed to append journal",
			"seq", entry.Seq,
			"op", entry.Op,
			"error", err,
		)
	}
}

// Items returns a copy of the committed cart.
func (e *Engine) Items() cart.Cart {
	e.viewMu.RLock()
	defer e.viewMu.RUnlock()
	return e.committed.Clone()
}

// OptimisticItems returns the committed cart with every dispatched but not
// yet committed action applied. It equals Items once no mutation is running.
func (e *Engine) OptimisticItems() cart.Cart {
	e.viewMu.RLock()
	defer e.viewMu.RUnlock()
	return e.proj.view(e.committed)
}

// Total returns Σ price × quantity over the committed cart.
func (e *Engine) Total() decimal.Decimal {
	e.viewMu.RLock()
	defer e.viewMu.RUnlock()
	return cart.Total(e.committed)
}

// ItemCount returns Σ quantity over the committed cart.
func (e *Engine) ItemCount() int {
	e.viewMu.RLock()
	defer e.viewMu.RUnlock()
	return cart.ItemCount(e.committed)
}

// IsPending reports whether a mutation is still committing or persisting.
func (e *Engine) IsPending() bool {
	return e.inFlight.Load() > 0
}

// CanUndo reports whether the undo history is non-empty.
func (e *Engine) CanUndo() bool {
	return e.history.Len() > 0
}

// UndoDepth returns how many snapshots undo can currently reach.
func (e *Engine) UndoDepth() int {
	return e.history.Len()
}

// IsLoaded reports whether Load has completed.
func (e *Engine) IsLoaded() bool {
	e.viewMu.RLock()
	defer e.viewMu.RUnlock()
	return e.loaded
}

// Seq returns the seq of the last committed transition.
func (e *Engine) Seq() int64 {
	return e.clock.Current()
}
