// Package cli implements the storecart command line.
package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	Config   string // optional YAML config file
	Database string // overrides storage.path
	Backend  string // overrides storage.backend
	Remote   bool   // forces the remote mirror on
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the storecart CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "storecart",
		Short: "storecart - local-first shopping cart",
		Long: `A local-first shopping cart engine.

The cart lives in a durable local store (SQLite, Badger or memory), every
committed change is journaled, and changes can be mirrored to a remote Redis
cart on a best-effort basis.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "path to YAML config file")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to the local store (overrides storage.path)")
	cmd.PersistentFlags().StringVar(&opts.Backend, "backend", "", "local store backend: sqlite, badger or memory")
	cmd.PersistentFlags().BoolVar(&opts.Remote, "remote", false, "mirror changes to the remote Redis cart")

	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewRemoveCommand(opts))
	cmd.AddCommand(NewUpdateCommand(opts))
	cmd.AddCommand(NewClearCommand(opts))
	cmd.AddCommand(NewShellCommand(opts))
	cmd.AddCommand(NewJournalCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
