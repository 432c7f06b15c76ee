package cart

import "github.com/shopspring/decimal"

// Total returns Σ price × quantity using exact decimal arithmetic.
func Total(c Cart) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range c {
		sum = sum.Add(decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return sum
}

// ItemCount returns Σ quantity.
func ItemCount(c Cart) int {
	n := 0
	for _, it := range c {
		n += it.Quantity
	}
	return n
}
