package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/storecart/internal/cart"
)

func ptr[T any](v T) *T { return &v }

func TestEvaluateExpect_AllHold(t *testing.T) {
	r := &Result{
		Items:     cart.Cart{{ProductID: "p1", Quantity: 2}},
		Total:     "20",
		ItemCount: 2,
		CanUndo:   true,
	}
	errs := EvaluateExpect(r, Expect{
		Items:     []ExpectedLine{{ProductID: "p1", Quantity: 2}},
		Total:     ptr("20.00"),
		ItemCount: ptr(2),
		CanUndo:   ptr(true),
	})
	assert.Empty(t, errs)
}

func TestEvaluateExpect_ItemOrderMatters(t *testing.T) {
	r := &Result{Items: cart.Cart{{ProductID: "b", Quantity: 1}, {ProductID: "a", Quantity: 1}}, Total: "0"}
	errs := EvaluateExpect(r, Expect{Items: []ExpectedLine{{"a", 1}, {"b", 1}}})
	assert.Len(t, errs, 1)
	assert.Contains(t, errs[0], "expected [ax1,bx1], got [bx1,ax1]")
}

func TestEvaluateExpect_MissingItemsMeansEmpty(t *testing.T) {
	r := &Result{Items: cart.Cart{{ProductID: "a", Quantity: 1}}, Total: "0"}
	assert.Len(t, EvaluateExpect(r, Expect{}), 1)
}

func TestEvaluateExpect_InvalidTotal(t *testing.T) {
	r := &Result{Total: "0"}
	errs := EvaluateExpect(r, Expect{Total: ptr("twenty")})
	assert.Len(t, errs, 1)
	assert.Contains(t, errs[0], "invalid decimal")
}
