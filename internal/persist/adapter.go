package persist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/storecart/internal/cart"
)

// DefaultKey is the durable key holding the cart payload.
const DefaultKey = "cart"

// Adapter reads and writes the whole cart under one fixed key.
type Adapter struct {
	kv     KV
	key    string
	schema *Schema
	logger *slog.Logger
}

// AdapterOption configures an Adapter.
type AdapterOption func(*Adapter)

// WithKey overrides DefaultKey.
func WithKey(key string) AdapterOption {
	return func(a *Adapter) {
		if key != "" {
			a.key = key
		}
	}
}

// WithSchema enables #Cart validation of payloads at load time.
func WithSchema(s *Schema) AdapterOption {
	return func(a *Adapter) {
		a.schema = s
	}
}

// WithLogger sets the logger used for load and save failures.
func WithLogger(l *slog.Logger) AdapterOption {
	return func(a *Adapter) {
		if l != nil {
			a.logger = l
		}
	}
}

// NewAdapter creates an adapter over kv.
func NewAdapter(kv KV, opts ...AdapterOption) *Adapter {
	a := &Adapter{
		kv:     kv,
		key:    DefaultKey,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Key returns the durable key this adapter reads and writes.
func (a *Adapter) Key() string {
	return a.key
}

// KV returns the underlying store.
func (a *Adapter) KV() KV {
	return a.kv
}

// Load reads the durable cart.
//
// The returned cart is always usable: on any failure it is empty. The error
// is nil for a clean load, a *LoadError with ErrCodeNotFound for a first run,
// and a *LoadError with another code for failures that were logged.
func (a *Adapter) Load(ctx context.Context) (cart.Cart, error) {
	data, err := a.kv.Get(ctx, a.key)
	if errors.Is(err, ErrNotFound) {
		a.logger.Debug("no durable cart, starting empty", "key", a.key)
		return cart.Cart{}, &LoadError{Code: ErrCodeNotFound, Key: a.key, Err: err}
	}
	if err != nil {
		return a.fail(ErrCodeRead, err)
	}

	if a.schema != nil {
		if err := a.schema.Validate(data); err != nil {
			return a.fail(ErrCodeSchema, err)
		}
	}

	c, err := cart.Unmarshal(data)
	if err != nil {
		return a.fail(ErrCodeCorrupt, err)
	}

	a.logger.Debug("durable cart loaded", "key", a.key, "lines", len(c))
	return c, nil
}

func (a *Adapter) fail(code LoadErrorCode, err error) (cart.Cart, error) {
	le := &LoadError{Code: code, Key: a.key, Err: err}
	a.logger.Error("failed to load durable cart, starting empty",
		"key", a.key,
		"code", string(code),
		"error", err,
	)
	return cart.Cart{}, le
}

// Save writes the full cart under the adapter's key.
func (a *Adapter) Save(ctx context.Context, c cart.Cart) error {
	data, err := cart.Marshal(c)
	if err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	if err := a.kv.Put(ctx, a.key, data); err != nil {
		return fmt.Errorf("save cart %q: %w", a.key, err)
	}
	return nil
}
