package cart

import "slices"

// Option is one selected variant option, e.g. {Size, M}.
type Option struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Item is one line in the cart.
//
// Display fields (Slug, Name, Image) and Price are taken as given at the time
// of the add. They are not re-validated or refreshed from any catalog.
type Item struct {
	ProductID       string   `json:"productId"`
	VariantID       string   `json:"variantId,omitempty"`
	VariantTitle    string   `json:"variantTitle,omitempty"`
	SelectedOptions []Option `json:"selectedOptions,omitempty"`
	Slug            string   `json:"slug"`
	Name            string   `json:"name"`
	Image           string   `json:"image"`
	Price           float64  `json:"price"`
	Quantity        int      `json:"quantity"`
}

// Cart is an ordered sequence of lines, unique by ProductID.
type Cart []Item

// Clone returns a deep copy of the item.
func (it Item) Clone() Item {
	out := it
	if it.SelectedOptions != nil {
		out.SelectedOptions = slices.Clone(it.SelectedOptions)
	}
	return out
}

// Clone returns a deep copy of the cart. A nil cart clones to an empty one.
func (c Cart) Clone() Cart {
	out := make(Cart, len(c))
	for i, it := range c {
		out[i] = it.Clone()
	}
	return out
}

// Equal reports whether two carts hold the same lines in the same order.
// Nil and empty carts are equal.
func Equal(a, b Cart) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !itemEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

func itemEqual(a, b Item) bool {
	return a.ProductID == b.ProductID &&
		a.VariantID == b.VariantID &&
		a.VariantTitle == b.VariantTitle &&
		a.Slug == b.Slug &&
		a.Name == b.Name &&
		a.Image == b.Image &&
		a.Price == b.Price &&
		a.Quantity == b.Quantity &&
		optionsEqual(a.SelectedOptions, b.SelectedOptions)
}

func optionsEqual(a, b []Option) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Find returns the line for productID and its index, or (Item{}, -1).
func Find(c Cart, productID string) (Item, int) {
	for i, it := range c {
		if it.ProductID == productID {
			return it, i
		}
	}
	return Item{}, -1
}
