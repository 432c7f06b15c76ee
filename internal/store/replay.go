package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/storecart/internal/cart"
	"github.com/roach88/storecart/internal/persist"
)

// ReplayResult reports a fold of the journal through cart.Reduce.
type ReplayResult struct {
	CartKey string
	Entries int
	LastSeq int64
	Final   cart.Cart // cart rebuilt from the journal
	Stored  cart.Cart // cart currently persisted under CartKey
	Matches bool      // Final equals Stored
}

// ReplayMismatchError reports a journal entry whose recorded cart differs
// from what the reducer produces for its action.
type ReplayMismatchError struct {
	Seq      int64
	Op       string
	Expected cart.Cart
	Actual   cart.Cart
}

func (e *ReplayMismatchError) Error() string {
	return fmt.Sprintf("replay mismatch at seq %d (%s): recorded %d lines, reducer produced %d lines",
		e.Seq, e.Op, len(e.Expected), len(e.Actual))
}

// IsReplayMismatch returns true if err is a ReplayMismatchError.
// Uses errors.As to handle wrapped errors.
func IsReplayMismatch(err error) bool {
	var me *ReplayMismatchError
	return errors.As(err, &me)
}

// Replay rebuilds the cart for cartKey from its journal and compares it with
// the stored payload.
//
// Action entries are reduced; load and undo entries restore the cart they
// recorded. Every reduced entry must reproduce its recorded cart exactly,
// otherwise a *ReplayMismatchError is returned.
func (s *Store) Replay(ctx context.Context, cartKey string) (ReplayResult, error) {
	res := ReplayResult{CartKey: cartKey, Final: cart.Cart{}, Stored: cart.Cart{}}

	entries, err := s.ReadJournal(ctx, cartKey)
	if err != nil {
		return res, fmt.Errorf("replay: %w", err)
	}
	res.Entries = len(entries)

	current := cart.Cart{}
	for _, e := range entries {
		res.LastSeq = e.Seq
		if e.IsRestore() {
			current = e.Cart.Clone()
			continue
		}

		action, err := cart.UnmarshalAction(e.Action)
		if err != nil {
			return res, fmt.Errorf("replay seq %d: %w", e.Seq, err)
		}
		next := cart.Reduce(current, action)
		if !cart.Equal(next, e.Cart) {
			return res, &ReplayMismatchError{Seq: e.Seq, Op: e.Op, Expected: e.Cart, Actual: next}
		}
		current = next
	}
	res.Final = current

	raw, err := s.Get(ctx, cartKey)
	switch {
	case errors.Is(err, persist.ErrNotFound):
	case err != nil:
		return res, fmt.Errorf("replay: %w", err)
	default:
		stored, err := cart.Unmarshal(raw)
		if err != nil {
			return res, fmt.Errorf("replay: stored cart: %w", err)
		}
		res.Stored = stored
	}

	res.Matches = cart.Equal(res.Final, res.Stored)
	return res, nil
}
