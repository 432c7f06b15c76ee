package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/storecart/internal/cart"
	"github.com/roach88/storecart/internal/engine"
)

const shellHelp = `commands:
  add <product-id> <price> [qty] [name...]
  remove <product-id>
  update <product-id> <qty>
  clear
  undo
  show
  help
  quit`

// NewShellCommand creates the shell command.
func NewShellCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Edit the cart interactively",
		Long: `Open the cart and read commands from standard input, one per line.

Unlike the one-shot commands, the shell keeps the undo history for the whole
session, so "undo" reverts the last add, remove, update or clear.

` + shellHelp,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShell(rootOpts, cmd)
		},
	}
}

func runShell(opts *RootOptions, cmd *cobra.Command) error {
	ctx := commandContext(cmd)
	f := opts.formatter(cmd)

	s, err := openSession(ctx, opts, cmd.ErrOrStderr())
	if err != nil {
		_ = f.Error(errorCode(err), err.Error(), nil)
		return err
	}
	defer s.Close()

	s.engine.Load(ctx)
	sh := &shell{session: s, out: f}
	return sh.run(ctx, cmd.InOrStdin())
}

// shell executes line commands against one session.
type shell struct {
	session *session
	out     *OutputFormatter
}

func (sh *shell) run(ctx context.Context, in io.Reader) error {
	if err := sh.out.Success(sh.session.view()); err != nil {
		return err
	}

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		quit, err := sh.exec(ctx, fields)
		if err != nil {
			_ = sh.out.Error(CodeInput, err.Error(), nil)
			continue
		}
		if quit {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return WrapExitError(ExitCommandError, "failed to read input", err)
	}
	return nil
}

// exec runs one command line. It reports quit for quit and exit.
func (sh *shell) exec(ctx context.Context, fields []string) (bool, error) {
	e := sh.session.engine
	verb, args := strings.ToLower(fields[0]), fields[1:]

	switch verb {
	case "quit", "exit":
		return true, nil

	case "help":
		fmt.Fprintln(sh.out.Writer, shellHelp)
		return false, nil

	case "show":

	case "add":
		item, qty, err := parseShellAdd(args)
		if err != nil {
			return false, err
		}
		e.AddItem(ctx, item, qty)

	case "remove":
		if len(args) != 1 {
			return false, fmt.Errorf("usage: remove <product-id>")
		}
		e.RemoveItem(ctx, normalizeID(args[0]))

	case "update":
		if len(args) != 2 {
			return false, fmt.Errorf("usage: update <product-id> <qty>")
		}
		qty, err := strconv.Atoi(args[1])
		if err != nil {
			return false, fmt.Errorf("invalid quantity %q", args[1])
		}
		e.UpdateQuantity(ctx, normalizeID(args[0]), qty)

	case "clear":
		e.ClearCart(ctx)

	case "undo":
		if !e.CanUndo() {
			sh.out.VerboseLog("nothing to undo")
		}
		e.UndoLastAction(ctx)

	default:
		return false, fmt.Errorf("unknown command %q (try help)", verb)
	}

	return false, sh.out.Success(sh.session.view())
}

// parseShellAdd parses: <product-id> <price> [qty] [name...]
func parseShellAdd(args []string) (cart.Item, int, error) {
	if len(args) < 2 {
		return cart.Item{}, 0, fmt.Errorf("usage: add <product-id> <price> [qty] [name...]")
	}
	price, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return cart.Item{}, 0, fmt.Errorf("invalid price %q", args[1])
	}

	item := cart.Item{ProductID: normalizeID(args[0]), Price: price}
	qty := engine.DefaultQuantity
	rest := args[2:]
	if len(rest) > 0 {
		if n, err := strconv.Atoi(rest[0]); err == nil {
			qty = n
			rest = rest[1:]
		}
	}
	item.Name = strings.Join(rest, " ")
	return item, qty, nil
}
