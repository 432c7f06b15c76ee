package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/storecart/internal/cart"
	"github.com/roach88/storecart/internal/engine"
)

// AddOptions holds flags for the add command.
type AddOptions struct {
	*RootOptions
	Price        float64
	Name         string
	Slug         string
	Image        string
	Variant      string
	VariantTitle string
	Options      []string // Name=Value
	Quantity     int
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the cart",
		Long: `Load the cart from the local store and print it.

Examples:
  storecart show
  storecart show --db ./cart.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCartCommand(rootOpts, cmd, nil)
		},
	}
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AddOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add <product-id>",
		Short: "Add a product to the cart",
		Long: `Add a product to the cart. If a line with the same product id exists its
quantity is increased; otherwise a new line is appended.

Examples:
  storecart add tee-01 --price 25 --name "Logo Tee"
  storecart add tee-01 --price 25 --variant tee-01-m --option Size=M --qty 2`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := opts.item(args[0])
			if err != nil {
				f := rootOpts.formatter(cmd)
				_ = f.Error(CodeInput, err.Error(), nil)
				return WrapExitError(ExitCommandError, "invalid item", err)
			}
			return runCartCommand(rootOpts, cmd, func(ctx context.Context, e *engine.Engine) {
				e.AddItem(ctx, item, opts.Quantity)
			})
		},
	}

	cmd.Flags().Float64Var(&opts.Price, "price", 0, "unit price")
	cmd.Flags().StringVar(&opts.Name, "name", "", "display name")
	cmd.Flags().StringVar(&opts.Slug, "slug", "", "product slug")
	cmd.Flags().StringVar(&opts.Image, "image", "", "image URL")
	cmd.Flags().StringVar(&opts.Variant, "variant", "", "variant id")
	cmd.Flags().StringVar(&opts.VariantTitle, "variant-title", "", "variant title")
	cmd.Flags().StringArrayVar(&opts.Options, "option", nil, "selected option as Name=Value (repeatable)")
	cmd.Flags().IntVar(&opts.Quantity, "qty", engine.DefaultQuantity, "quantity to add")

	return cmd
}

// item builds the cart line described by the flags.
func (o *AddOptions) item(productID string) (cart.Item, error) {
	productID = normalizeID(productID)
	if productID == "" {
		return cart.Item{}, fmt.Errorf("product id is required")
	}
	it := cart.Item{
		ProductID:    productID,
		VariantID:    o.Variant,
		VariantTitle: o.VariantTitle,
		Slug:         o.Slug,
		Name:         o.Name,
		Image:        o.Image,
		Price:        o.Price,
	}
	for _, raw := range o.Options {
		name, value, ok := strings.Cut(raw, "=")
		if !ok || name == "" {
			return cart.Item{}, fmt.Errorf("option %q: want Name=Value", raw)
		}
		it.SelectedOptions = append(it.SelectedOptions, cart.Option{Name: name, Value: value})
	}
	return it, nil
}

// NewRemoveCommand creates the remove command.
func NewRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <product-id>",
		Short: "Remove a product from the cart",
		Long: `Remove the line with the given product id. Removing a product that is not
in the cart leaves the cart unchanged.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCartCommand(rootOpts, cmd, func(ctx context.Context, e *engine.Engine) {
				e.RemoveItem(ctx, normalizeID(args[0]))
			})
		},
	}
}

// NewUpdateCommand creates the update command.
func NewUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "update <product-id> <quantity>",
		Short: "Set the quantity of a product",
		Long: `Set the quantity of the line with the given product id. A quantity of zero
or less removes the line.

Examples:
  storecart update tee-01 3
  storecart update tee-01 0`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, err := strconv.Atoi(args[1])
			if err != nil {
				f := rootOpts.formatter(cmd)
				_ = f.Error(CodeInput, fmt.Sprintf("invalid quantity %q", args[1]), nil)
				return WrapExitError(ExitCommandError, "invalid quantity", err)
			}
			return runCartCommand(rootOpts, cmd, func(ctx context.Context, e *engine.Engine) {
				e.UpdateQuantity(ctx, normalizeID(args[0]), qty)
			})
		},
	}
}

// NewClearCommand creates the clear command.
func NewClearCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "clear",
		Short:         "Remove every line from the cart",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCartCommand(rootOpts, cmd, func(ctx context.Context, e *engine.Engine) {
				e.ClearCart(ctx)
			})
		},
	}
}

// runCartCommand opens the cart, applies mutate (if any) and prints the
// resulting cart.
func runCartCommand(opts *RootOptions, cmd *cobra.Command, mutate func(context.Context, *engine.Engine)) error {
	ctx := commandContext(cmd)
	f := opts.formatter(cmd)

	s, err := openSession(ctx, opts, cmd.ErrOrStderr())
	if err != nil {
		_ = f.Error(errorCode(err), err.Error(), nil)
		return err
	}
	defer s.Close()

	s.engine.Load(ctx)
	if mutate != nil {
		mutate(ctx, s.engine)
	}
	return f.Success(s.view())
}
