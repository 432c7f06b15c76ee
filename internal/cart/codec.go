package cart

import (
	"encoding/json"
	"fmt"
)

// Marshal encodes the cart as the durable JSON array.
// A nil cart encodes as [] rather than null.
func Marshal(c Cart) ([]byte, error) {
	if c == nil {
		c = Cart{}
	}
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal cart: %w", err)
	}
	return data, nil
}

// Unmarshal decodes a durable JSON array into a cart.
//
// Lines with a non-positive quantity are dropped and later duplicates of a
// ProductID are merged into the first, so a decoded cart always satisfies
// the same invariants Reduce maintains.
func Unmarshal(data []byte) (Cart, error) {
	var raw Cart
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal cart: %w", err)
	}
	out := Cart{}
	for _, it := range raw {
		if it.Quantity <= 0 {
			continue
		}
		out = Reduce(out, Add{Item: it, Quantity: it.Quantity})
	}
	return out, nil
}
