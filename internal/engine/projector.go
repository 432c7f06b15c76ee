package engine

import "github.com/roach88/storecart/internal/cart"

// projector holds actions that have been dispatched but are not yet part of
// the committed cart.
//
// The optimistic view is the committed cart with the pending actions folded
// over it in dispatch order, using the same cart.Reduce as the commit. Once
// an action is settled the view equals the committed cart again.
//
// Not safe for concurrent use; the engine guards it with viewMu.
type projector struct {
	pending []pendingAction
}

type pendingAction struct {
	seq    int64
	action cart.Action
}

// enqueue records a dispatched action.
func (p *projector) enqueue(seq int64, a cart.Action) {
	p.pending = append(p.pending, pendingAction{seq: seq, action: a})
}

// settle drops the action stamped seq, which the committed cart now includes.
func (p *projector) settle(seq int64) {
	for i, pa := range p.pending {
		if pa.seq == seq {
			p.pending = append(p.pending[:i], p.pending[i+1:]...)
			return
		}
	}
}

// view returns committed with every pending action applied.
func (p *projector) view(committed cart.Cart) cart.Cart {
	out := committed.Clone()
	for _, pa := range p.pending {
		out = cart.Reduce(out, pa.action)
	}
	return out
}
