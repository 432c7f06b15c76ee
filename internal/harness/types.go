package harness

import (
	"github.com/roach88/storecart/internal/cart"
	"github.com/roach88/storecart/internal/remote"
)

// TraceEvent records the engine state after one transition.
type TraceEvent struct {
	Seq       int64
	Op        string
	ProductID string
	Quantity  *int
	Cart      cart.Cart
	Total     string
	ItemCount int
	UndoDepth int
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every expectation held.
	Pass bool

	// Trace holds one event for the load and one per step.
	Trace []TraceEvent

	// Errors contains expectation failures. Empty if Pass is true.
	Errors []string

	// Final state after the last step.
	Items     cart.Cart
	Total     string
	ItemCount int
	CanUndo   bool

	// RemoteCalls are the mutations the remote received, in order.
	RemoteCalls []remote.Mutation
	RemoteCart  string
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds an expectation failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
