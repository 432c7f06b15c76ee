package remote

import (
	"context"

	"github.com/roach88/storecart/internal/cart"
)

// Op is the kind of remote cart mutation.
type Op string

const (
	// OpSet writes the full line for a product.
	OpSet Op = "set"
	// OpRemove deletes the line for a product.
	OpRemove Op = "remove"
	// OpClear deletes the whole remote cart.
	OpClear Op = "clear"
)

// Mutation is one call against the remote cart.
//
// For OpSet, Line carries the merged committed line (final quantity, variant
// and unit price).
type Mutation struct {
	Op        Op
	CartID    string
	ProductID string
	Line      cart.Item
}

// Mutator applies a mutation to the remote cart service.
type Mutator interface {
	Mutate(ctx context.Context, m Mutation) error
}

// MutatorFunc adapts a function to Mutator.
type MutatorFunc func(ctx context.Context, m Mutation) error

// Mutate calls f.
func (f MutatorFunc) Mutate(ctx context.Context, m Mutation) error {
	return f(ctx, m)
}

// ForAction derives the mutation that mirrors action a, given the committed
// cart after a was reduced. CartID is left for the mirror to fill.
//
// It returns false when there is nothing to send, e.g. an update for a
// product that is not in the cart.
func ForAction(a cart.Action, committed cart.Cart) (Mutation, bool) {
	switch a := a.(type) {
	case cart.Add:
		return lineMutation(a.Item.ProductID, committed, true)
	case cart.Update:
		if a.Quantity <= 0 {
			return Mutation{Op: OpRemove, ProductID: a.ProductID}, true
		}
		return lineMutation(a.ProductID, committed, false)
	case cart.Remove:
		return Mutation{Op: OpRemove, ProductID: a.ProductID}, true
	case cart.Clear:
		return Mutation{Op: OpClear}, true
	}
	return Mutation{}, false
}

// lineMutation sends the committed line for id. If the line is gone (an add
// whose merged quantity fell to zero) the remote line is removed instead.
func lineMutation(id string, committed cart.Cart, removeIfAbsent bool) (Mutation, bool) {
	line, idx := cart.Find(committed, id)
	if idx < 0 {
		if removeIfAbsent {
			return Mutation{Op: OpRemove, ProductID: id}, true
		}
		return Mutation{}, false
	}
	return Mutation{Op: OpSet, ProductID: id, Line: line}, true
}
