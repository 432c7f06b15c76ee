package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/storecart/internal/cart"
	"github.com/roach88/storecart/internal/engine"
	"github.com/roach88/storecart/internal/persist"
	"github.com/roach88/storecart/internal/remote"
	"github.com/roach88/storecart/internal/testutil"
)

// RemoteCartID is the remote cart id every scenario resolves to.
const RemoteCartID = "test-cart-0001"

// drainTimeout bounds how long Run waits for the mirror to go idle.
const drainTimeout = 5 * time.Second

// Harness runs one scenario against a real engine.
type Harness struct {
	engine *engine.Engine
	kv     *persist.MemoryKV
	mirror *remote.Mirror
	remote *testutil.RecordingMutator
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Execution flow:
//  1. Write the seed payload into a fresh MemoryKV
//  2. Resolve the remote cart id and start the mirror if remote is enabled
//  3. Load the engine, then apply each step
//  4. Drain the mirror and evaluate expectations
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests

	h := &Harness{
		kv:     persist.NewMemoryKV(),
		logger: logger,
	}

	if scenario.Seed != nil {
		payload, err := scenario.Seed.Payload()
		if err != nil {
			return nil, fmt.Errorf("failed to encode seed: %w", err)
		}
		if err := h.kv.Put(ctx, persist.DefaultKey, payload); err != nil {
			return nil, fmt.Errorf("failed to write seed: %w", err)
		}
	}

	opts := []engine.Option{engine.WithLogger(logger)}
	if scenario.Remote.Enabled {
		cartID, err := remote.Resolve(ctx, h.kv, remote.DefaultIdentityKey, remote.NewFixedGenerator(RemoteCartID))
		if err != nil {
			return nil, fmt.Errorf("failed to resolve cart identity: %w", err)
		}
		h.remote = testutil.NewRecordingMutator()
		if scenario.Remote.Fail {
			h.remote = testutil.NewFailingMutator()
		}
		h.mirror = remote.NewMirror(h.remote, cartID, remote.WithLogger(logger))
		if err := h.mirror.Start(ctx); err != nil {
			return nil, fmt.Errorf("failed to start mirror: %w", err)
		}
		defer h.mirror.Close()
		opts = append(opts, engine.WithMirror(h.mirror))
	}

	h.engine = engine.New(persist.NewAdapter(h.kv, persist.WithLogger(logger)), opts...)

	result := NewResult()
	h.engine.Load(ctx)
	result.Trace = append(result.Trace, h.event("load", "", nil))

	for _, step := range scenario.Steps {
		h.apply(ctx, step)
		result.Trace = append(result.Trace, h.event(step.Op, stepProduct(step), stepQuantity(step)))
	}

	if h.mirror != nil {
		drainCtx, cancel := context.WithTimeout(ctx, drainTimeout)
		defer cancel()
		if err := h.mirror.Drain(drainCtx); err != nil {
			return nil, fmt.Errorf("failed to drain remote mirror: %w", err)
		}
		result.RemoteCalls = h.remote.Calls()
		result.RemoteCart = h.mirror.CartID()
	}

	result.Items = h.engine.Items()
	result.Total = h.engine.Total().String()
	result.ItemCount = h.engine.ItemCount()
	result.CanUndo = h.engine.CanUndo()

	for _, msg := range EvaluateExpect(result, scenario.Expect) {
		result.AddError(msg)
	}
	return result, nil
}

// apply performs one step through the engine API.
func (h *Harness) apply(ctx context.Context, step Step) {
	switch step.Op {
	case OpAdd:
		qty := engine.DefaultQuantity
		if step.Quantity != nil {
			qty = *step.Quantity
		}
		h.engine.AddItem(ctx, step.Item.Item(), qty)
	case OpRemove:
		h.engine.RemoveItem(ctx, step.ProductID)
	case OpUpdate:
		h.engine.UpdateQuantity(ctx, step.ProductID, *step.Quantity)
	case OpClear:
		h.engine.ClearCart(ctx)
	case OpUndo:
		h.engine.UndoLastAction(ctx)
	}
}

func (h *Harness) event(op, productID string, qty *int) TraceEvent {
	items := h.engine.Items()
	return TraceEvent{
		Seq:       h.engine.Seq(),
		Op:        op,
		ProductID: productID,
		Quantity:  qty,
		Cart:      items,
		Total:     cart.Total(items).String(),
		ItemCount: cart.ItemCount(items),
		UndoDepth: h.engine.UndoDepth(),
	}
}

func stepProduct(step Step) string {
	if step.Op == OpAdd {
		return step.Item.ProductID
	}
	return step.ProductID
}

func stepQuantity(step Step) *int {
	if step.Op == OpAdd && step.Quantity == nil {
		q := engine.DefaultQuantity
		return &q
	}
	return step.Quantity
}
