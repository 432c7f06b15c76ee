package harness

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/storecart/internal/cart"
	"github.com/roach88/storecart/internal/remote"
)

// FormatTrace renders a result as deterministic text for golden comparison.
//
//	scenario: <name>
//	seq=<n> op=<op> [product=<id>] [qty=<q>] cart=[<id>x<q>,...] total=<t> count=<c> undo=<d>
//	remote op=<op> cart=<id> [product=<id>] [qty=<q>]
//	pass=<bool>
func FormatTrace(name string, r *Result) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "scenario: %s\n", name)

	for _, ev := range r.Trace {
		fmt.Fprintf(&b, "seq=%d op=%s", ev.Seq, ev.Op)
		if ev.ProductID != "" {
			fmt.Fprintf(&b, " product=%s", ev.ProductID)
		}
		if ev.Quantity != nil {
			fmt.Fprintf(&b, " qty=%d", *ev.Quantity)
		}
		fmt.Fprintf(&b, " cart=%s total=%s count=%d undo=%d\n",
			formatCart(ev.Cart), ev.Total, ev.ItemCount, ev.UndoDepth)
	}

	for _, m := range r.RemoteCalls {
		b.WriteString(formatMutation(m))
		b.WriteByte('\n')
	}

	fmt.Fprintf(&b, "pass=%t\n", r.Pass)
	for _, e := range r.Errors {
		fmt.Fprintf(&b, "error: %s\n", e)
	}
	return []byte(b.String())
}

func formatCart(c cart.Cart) string {
	parts := make([]string, len(c))
	for i, it := range c {
		parts[i] = fmt.Sprintf("%sx%d", it.ProductID, it.Quantity)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func formatMutation(m remote.Mutation) string {
	s := fmt.Sprintf("remote op=%s cart=%s", m.Op, m.CartID)
	if m.ProductID != "" {
		s += " product=" + m.ProductID
	}
	if m.Op == remote.OpSet {
		s += fmt.Sprintf(" qty=%d", m.Line.Quantity)
	}
	return s
}

// RunWithGolden executes a scenario and compares its trace against
// testdata/golden/{scenario.Name}.golden.
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the trace doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, FormatTrace(scenario.Name, result))
	return result, nil
}
