package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/storecart/internal/cart"
	"github.com/roach88/storecart/internal/store"
)

// ReplayReport is the outcome of replaying one cart's journal.
type ReplayReport struct {
	CartKey     string `json:"cart_key"`
	Entries     int    `json:"entries"`
	LastSeq     int64  `json:"last_seq"`
	FinalLines  int    `json:"final_lines"`
	StoredLines int    `json:"stored_lines"`
	Matches     bool   `json:"matches"`
	MismatchSeq int64  `json:"mismatch_seq,omitempty"`
	MismatchOp  string `json:"mismatch_op,omitempty"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "replay",
		Short: "Rebuild the cart from its journal and verify it",
		Long: `Fold the journal through the cart reducer and compare the result with the
stored cart.

Every add, remove, update and clear entry must reproduce the cart it
recorded. Load and undo entries restore their recorded cart.

Exit codes:
  0 - Journal reproduces the stored cart
  1 - Mismatch detected
  2 - Command error (database not found, etc.)

Examples:
  storecart replay --db ./cart.db
  storecart replay --db ./cart.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(rootOpts, cmd)
		},
	}
}

func runReplay(opts *RootOptions, cmd *cobra.Command) error {
	ctx := commandContext(cmd)
	f := opts.formatter(cmd)

	st, cfg, err := openJournalStore(opts)
	if err != nil {
		_ = f.Error(errorCode(err), err.Error(), nil)
		return err
	}
	defer st.Close()

	res, err := st.Replay(ctx, cfg.Storage.Key)
	report := ReplayReport{
		CartKey:     cfg.Storage.Key,
		Entries:     res.Entries,
		LastSeq:     res.LastSeq,
		FinalLines:  len(res.Final),
		StoredLines: len(res.Stored),
		Matches:     err == nil && res.Matches,
	}

	var mismatch *store.ReplayMismatchError
	switch {
	case errors.As(err, &mismatch):
		report.MismatchSeq = mismatch.Seq
		report.MismatchOp = mismatch.Op
		_ = f.Error(CodeReplay, mismatch.Error(), report)
		return WrapExitError(ExitFailure, "journal replay mismatch", err)

	case err != nil:
		_ = f.Error(CodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to replay journal", err)

	case !res.Matches:
		_ = f.Error(CodeReplay, "journal does not reproduce the stored cart", report)
		if opts.Verbose {
			f.VerboseLog("journal: %s", formatLines(res.Final))
			f.VerboseLog("stored:  %s", formatLines(res.Stored))
		}
		return NewExitError(ExitFailure, "journal does not reproduce the stored cart")
	}

	if opts.Format == "json" {
		return f.Success(report)
	}
	out := cmd.OutOrStdout()
	if report.Entries == 0 {
		fmt.Fprintf(out, "No journal entries for %q.\n", report.CartKey)
		return nil
	}
	fmt.Fprintf(out, "Replayed %d entries for %q (last seq %d)\n", report.Entries, report.CartKey, report.LastSeq)
	fmt.Fprintf(out, "✓ journal reproduces the stored cart (%d lines)\n", report.FinalLines)
	return nil
}

func formatLines(c cart.Cart) string {
	s := "["
	for i, it := range c {
		if i > 0 {
			s += ","
		}
		s += fmt.Sprintf("%sx%d", it.ProductID, it.Quantity)
	}
	return s + "]"
}
