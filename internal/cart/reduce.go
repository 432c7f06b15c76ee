package cart

// Reduce applies a to c and returns the next cart.
//
// Reduce is pure and total: the input cart is never modified, every action
// is accepted, and the returned cart never shares option slices with c.
func Reduce(c Cart, a Action) Cart {
	switch v := a.(type) {
	case Add:
		return add(c, v.Item, v.Quantity)
	case Remove:
		return remove(c, v.ProductID)
	case Update:
		if v.Quantity <= 0 {
			return remove(c, v.ProductID)
		}
		return setQuantity(c, v.ProductID, v.Quantity)
	case Clear:
		return Cart{}
	default:
		return c.Clone()
	}
}

// ReduceAll folds actions over c in order.
func ReduceAll(c Cart, actions ...Action) Cart {
	out := c.Clone()
	for _, a := range actions {
		out = Reduce(out, a)
	}
	return out
}

func add(c Cart, item Item, quantity int) Cart {
	next := c.Clone()
	if _, i := Find(next, item.ProductID); i >= 0 {
		q := next[i].Quantity + quantity
		if q <= 0 {
			return remove(next, item.ProductID)
		}
		next[i].Quantity = q
		return next
	}
	if quantity <= 0 {
		return next
	}
	line := item.Clone()
	line.Quantity = quantity
	return append(next, line)
}

func remove(c Cart, productID string) Cart {
	next := make(Cart, 0, len(c))
	for _, it := range c {
		if it.ProductID != productID {
			next = append(next, it.Clone())
		}
	}
	return next
}

func setQuantity(c Cart, productID string, quantity int) Cart {
	next := c.Clone()
	if _, i := Find(next, productID); i >= 0 {
		next[i].Quantity = quantity
	}
	return next
}
