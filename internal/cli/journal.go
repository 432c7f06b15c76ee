package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/storecart/internal/config"
	"github.com/roach88/storecart/internal/store"
)

// JournalEntry is the rendered form of one journal entry.
type JournalEntry struct {
	Seq       int64  `json:"seq"`
	Op        string `json:"op"`
	ProductID string `json:"product_id,omitempty"`
	Quantity  int    `json:"quantity,omitempty"`
	Lines     int    `json:"lines"`
	Units     int    `json:"units"`
}

// JournalResult holds the journal for one cart key.
type JournalResult struct {
	CartKey string         `json:"cart_key"`
	Entries []JournalEntry `json:"entries"`
}

// String renders the journal one entry per line.
func (r JournalResult) String() string {
	if len(r.Entries) == 0 {
		return fmt.Sprintf("No journal entries for %q.", r.CartKey)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Journal for %q (%d entries)\n", r.CartKey, len(r.Entries))
	for _, e := range r.Entries {
		fmt.Fprintf(&b, "  %6d  %-7s", e.Seq, e.Op)
		if e.ProductID != "" {
			fmt.Fprintf(&b, " %s", e.ProductID)
		}
		if e.Op == "add" || e.Op == "update" {
			fmt.Fprintf(&b, " qty=%d", e.Quantity)
		}
		fmt.Fprintf(&b, "  -> lines=%d units=%d\n", e.Lines, e.Units)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// NewJournalCommand creates the journal command.
func NewJournalCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "journal",
		Short: "List the committed transitions of the cart",
		Long: `List every journaled transition of the cart in commit order.

The journal is only kept by the sqlite backend.

Examples:
  storecart journal --db ./cart.db
  storecart journal --db ./cart.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJournal(rootOpts, cmd)
		},
	}
}

func runJournal(opts *RootOptions, cmd *cobra.Command) error {
	ctx := commandContext(cmd)
	f := opts.formatter(cmd)

	st, cfg, err := openJournalStore(opts)
	if err != nil {
		_ = f.Error(errorCode(err), err.Error(), nil)
		return err
	}
	defer st.Close()

	entries, err := st.ReadJournal(ctx, cfg.Storage.Key)
	if err != nil {
		_ = f.Error(CodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read journal", err)
	}

	result := JournalResult{CartKey: cfg.Storage.Key, Entries: make([]JournalEntry, 0, len(entries))}
	for _, e := range entries {
		units := 0
		for _, it := range e.Cart {
			units += it.Quantity
		}
		result.Entries = append(result.Entries, JournalEntry{
			Seq:       e.Seq,
			Op:        e.Op,
			ProductID: e.ProductID,
			Quantity:  e.Quantity,
			Lines:     len(e.Cart),
			Units:     units,
		})
	}
	return f.Success(result)
}

// openJournalStore opens the existing sqlite store named by the
// configuration. It does not create a missing database.
func openJournalStore(opts *RootOptions) (*store.Store, config.Config, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, cfg, &stageError{code: CodeConfig, err: WrapExitError(ExitCommandError, "invalid configuration", err)}
	}
	if cfg.Storage.Backend != config.BackendSQLite {
		return nil, cfg, &stageError{code: CodeStore, err: NewExitError(ExitCommandError,
			fmt.Sprintf("journal requires the sqlite backend, not %q", cfg.Storage.Backend))}
	}
	if _, err := os.Stat(cfg.Storage.Path); os.IsNotExist(err) {
		return nil, cfg, &stageError{code: CodeStore, err: NewExitError(ExitCommandError,
			fmt.Sprintf("database not found: %s", cfg.Storage.Path))}
	}

	st, err := store.Open(cfg.Storage.Path)
	if err != nil {
		return nil, cfg, &stageError{code: CodeStore, err: WrapExitError(ExitCommandError, "failed to open database", err)}
	}
	return st, cfg, nil
}
