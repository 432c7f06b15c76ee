package harness

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ExpectError describes one failed expectation.
type ExpectError struct {
	Field    string
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *ExpectError) Error() string {
	return fmt.Sprintf("expect.%s: expected %s, got %s", e.Field, e.Expected, e.Actual)
}

// EvaluateExpect checks the final state in r against exp.
// Returns one message per failed expectation, or nil if all hold.
func EvaluateExpect(r *Result, exp Expect) []string {
	var errs []string
	add := func(err error) {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	add(checkItems(r, exp.Items))
	if exp.Total != nil {
		add(checkTotal(r.Total, *exp.Total))
	}
	if exp.ItemCount != nil && *exp.ItemCount != r.ItemCount {
		add(&ExpectError{Field: "item_count", Expected: fmt.Sprint(*exp.ItemCount), Actual: fmt.Sprint(r.ItemCount)})
	}
	if exp.CanUndo != nil && *exp.CanUndo != r.CanUndo {
		add(&ExpectError{Field: "can_undo", Expected: fmt.Sprint(*exp.CanUndo), Actual: fmt.Sprint(r.CanUndo)})
	}
	if exp.RemoteCalls != nil && *exp.RemoteCalls != len(r.RemoteCalls) {
		add(&ExpectError{Field: "remote_calls", Expected: fmt.Sprint(*exp.RemoteCalls), Actual: fmt.Sprint(len(r.RemoteCalls))})
	}
	return errs
}

// checkItems compares lines in order. An empty expectation means an empty cart.
func checkItems(r *Result, want []ExpectedLine) error {
	got := make([]string, len(r.Items))
	for i, it := range r.Items {
		got[i] = fmt.Sprintf("%sx%d", it.ProductID, it.Quantity)
	}
	exp := make([]string, len(want))
	for i, l := range want {
		exp[i] = fmt.Sprintf("%sx%d", l.ProductID, l.Quantity)
	}

	if strings.Join(got, ",") != strings.Join(exp, ",") {
		return &ExpectError{
			Field:    "items",
			Expected: "[" + strings.Join(exp, ",") + "]",
			Actual:   "[" + strings.Join(got, ",") + "]",
		}
	}
	return nil
}

func checkTotal(actual, expected string) error {
	want, err := decimal.NewFromString(expected)
	if err != nil {
		return fmt.Errorf("expect.total: invalid decimal %q: %w", expected, err)
	}
	got, err := decimal.NewFromString(actual)
	if err != nil {
		return fmt.Errorf("expect.total: invalid result %q: %w", actual, err)
	}
	if !want.Equal(got) {
		return &ExpectError{Field: "total", Expected: want.String(), Actual: got.String()}
	}
	return nil
}
