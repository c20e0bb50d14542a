package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"jewelry-storefront/internal/cartstore"
	"jewelry-storefront/internal/domain"
	"jewelry-storefront/internal/enrich"
)

var (
	cartColor    string
	cartQuantity int
)

var cartCmd = &cobra.Command{
	Use:   "cart",
	Short: "Show the cart with prices and totals",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		res, err := client.EnrichedCart(ctx)
		if err != nil {
			return err
		}
		printCart(cmd.OutOrStdout(), res)
		return nil
	},
}

var cartAddCmd = &cobra.Command{
	Use:   "add <product-id>",
	Short: "Add a product to the cart",
	Long: `Adds a product to the cart. The quantity is capped at the stock of the
product (or of the chosen color).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		p, err := client.Product(ctx, args[0])
		if err != nil {
			return err
		}
		stock := p.StockFor(cartColor)
		line, ok, err := client.CartStore().AddLine(cartstore.AddInput{
			ProductID: p.ID, ColorID: cartColor, Quantity: cartQuantity, Stock: &stock,
		})
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%s is out of stock", p.Name)
		}
		if _, err := client.PushLocalCart(ctx); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "added %d x %s\n", line.Quantity, p.Name)
		return nil
	},
}

var cartUpdateCmd = &cobra.Command{
	Use:   "update <cart-item-id> <quantity>",
	Short: "Change the quantity of a cart item (0 removes it)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		qty, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("quantity %q: %w", args[1], err)
		}
		ctx, cancel := commandContext()
		defer cancel()
		if qty <= 0 {
			_, err = client.DeleteCartItem(ctx, args[0])
		} else {
			_, err = client.UpdateCartItem(ctx, domain.UpdateCartInput{CartItemID: args[0], Quantity: qty})
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "cart updated")
		return nil
	},
}

var cartRemoveCmd = &cobra.Command{
	Use:   "remove <cart-item-id>",
	Short: "Remove an item from the cart",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		if _, err := client.DeleteCartItem(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "item removed")
		return nil
	},
}

func init() {
	cartAddCmd.Flags().StringVar(&cartColor, "color", "", "Color id")
	cartAddCmd.Flags().IntVarP(&cartQuantity, "quantity", "q", 1, "Quantity")
	cartCmd.AddCommand(cartAddCmd, cartUpdateCmd, cartRemoveCmd)
}

func printCart(out io.Writer, res enrich.Result) {
	if len(res.Lines) == 0 {
		fmt.Fprintln(out, "your cart is empty")
		return
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ITEM\tPRODUCT\tCOLOR\tQTY\tPRICE\tSUBTOTAL")
	for _, l := range res.Lines {
		name, price := l.ProductID, "-"
		if l.Product != nil {
			name, price = l.Product.Name, l.Product.Price.StringFixed(2)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n", l.ID, name, l.ColorID, l.Quantity, price, l.Subtotal.StringFixed(2))
	}
	_ = w.Flush()

	s := enrich.Summarize(res)
	fmt.Fprintf(out, "\nitems:    %d\nsubtotal: %s\ntax (7%%): %s\ntotal:    %s\n",
		s.Items, s.Subtotal.StringFixed(2), s.Tax.StringFixed(2), s.Total.StringFixed(2))
}
