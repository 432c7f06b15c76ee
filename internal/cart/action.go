package cart

import (
	"encoding/json"
	"fmt"
)

// Kind names an action variant. The string values are stored in the journal.
type Kind string

const (
	KindAdd    Kind = "add"
	KindRemove Kind = "remove"
	KindUpdate Kind = "update"
	KindClear  Kind = "clear"
)

// Action is the closed set of cart transitions: Add, Remove, Update, Clear.
//
// The interface is sealed by an unexported method so that Reduce can switch
// exhaustively over it. The committed reducer and the optimistic projection
// both consume this one type.
type Action interface {
	Kind() Kind
	ProductKey() string
	isAction()
}

// Add merges Quantity units of Item into the cart.
// Item.Quantity is ignored; the line quantity comes from Quantity.
type Add struct {
	Item     Item
	Quantity int
}

// Remove drops the line for ProductID. Absent ids are a no-op.
type Remove struct {
	ProductID string
}

// Update sets the quantity of ProductID. Quantity <= 0 behaves as Remove.
type Update struct {
	ProductID string
	Quantity  int
}

// Clear empties the cart.
type Clear struct{}

func (Add) Kind() Kind    { return KindAdd }
func (Remove) Kind() Kind { return KindRemove }
func (Update) Kind() Kind { return KindUpdate }
func (Clear) Kind() Kind  { return KindClear }

func (a Add) ProductKey() string    { return a.Item.ProductID }
func (a Remove) ProductKey() string { return a.ProductID }
func (a Update) ProductKey() string { return a.ProductID }
func (Clear) ProductKey() string    { return "" }

func (Add) isAction()    {}
func (Remove) isAction() {}
func (Update) isAction() {}
func (Clear) isAction()  {}

// actionEnvelope is the JSON shape of an action in the journal.
type actionEnvelope struct {
	Kind      Kind   `json:"kind"`
	Item      *Item  `json:"item,omitempty"`
	ProductID string `json:"productId,omitempty"`
	Quantity  int    `json:"quantity,omitempty"`
}

// MarshalAction encodes an action for durable logging.
func MarshalAction(a Action) ([]byte, error) {
	env := actionEnvelope{Kind: a.Kind()}
	switch v := a.(type) {
	case Add:
		item := v.Item.Clone()
		env.Item = &item
		env.Quantity = v.Quantity
	case Remove:
		env.ProductID = v.ProductID
	case Update:
		env.ProductID = v.ProductID
		env.Quantity = v.Quantity
	case Clear:
	default:
		return nil, fmt.Errorf("marshal action: unknown action %T", a)
	}
	return json.Marshal(env)
}

// UnmarshalAction decodes an action written by MarshalAction.
func UnmarshalAction(data []byte) (Action, error) {
	var env actionEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal action: %w", err)
	}
	switch env.Kind {
	case KindAdd:
		if env.Item == nil {
			return nil, fmt.Errorf("unmarshal action: add without item")
		}
		return Add{Item: *env.Item, Quantity: env.Quantity}, nil
	case KindRemove:
		return Remove{ProductID: env.ProductID}, nil
	case KindUpdate:
		return Update{ProductID: env.ProductID, Quantity: env.Quantity}, nil
	case KindClear:
		return Clear{}, nil
	default:
		return nil, fmt.Errorf("unmarshal action: unknown kind %q", env.Kind)
	}
}
