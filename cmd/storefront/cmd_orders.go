package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"jewelry-storefront/internal/domain"
)

var (
	addrLabel string
	addrInput domain.AddressInput
)

var addressCmd = &cobra.Command{
	Use:   "address",
	Short: "List delivery addresses",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		as, err := orders.Addresses(ctx)
		if err != nil {
			return err
		}
		if len(as) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no addresses yet; add one with \"storefront address add\"")
			return nil
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tLABEL\tADDRESS")
		for _, a := range as {
			fmt.Fprintf(w, "%s\t%s\t%s, %s, %s %s, %s\n", a.ID, a.Label, a.Street, a.City, a.State, a.ZipCode, a.Country)
		}
		return w.Flush()
	},
}

var addressAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a delivery address",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		in := addrInput
		in.Label = addrLabel
		a, err := client.AddAddress(ctx, in)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "address %s added\n", a.ID)
		return nil
	},
}

var addressUpdateCmd = &cobra.Command{
	Use:   "update <address-id>",
	Short: "Replace a delivery address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		in := addrInput
		in.Label = addrLabel
		if _, err := client.UpdateAddress(ctx, args[0], in); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "address updated")
		return nil
	},
}

var addressDeleteCmd = &cobra.Command{
	Use:   "delete <address-id>",
	Short: "Delete a delivery address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		if err := client.DeleteAddress(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "address deleted")
		return nil
	},
}

var checkoutCmd = &cobra.Command{
	Use:   "checkout <address-id>",
	Short: "Order the cart for delivery to an address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		order, err := orders.PlaceOrder(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "order %s placed: %s, total %s\n", order.ID, order.Status, order.FinalAmount.StringFixed(2))
		return nil
	},
}

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "List your orders",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		list, err := client.Orders(ctx)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTATUS\tITEMS\tTOTAL\tPLACED")
		for _, o := range list {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", o.ID, o.Status, len(o.Items), o.FinalAmount.StringFixed(2), o.CreatedAt.Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}

var ordersCancelCmd = &cobra.Command{
	Use:   "cancel <order-id>",
	Short: "Cancel an order (pending orders are deleted)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		list, err := client.Orders(ctx)
		if err != nil {
			return err
		}
		for _, o := range list {
			if o.ID != args[0] {
				continue
			}
			outcome, err := orders.CancelOrder(ctx, o)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "order %s %s\n", o.ID, outcome)
			return nil
		}
		return fmt.Errorf("order %s not found", args[0])
	},
}

func init() {
	for _, c := range []*cobra.Command{addressAddCmd, addressUpdateCmd} {
		c.Flags().StringVar(&addrInput.Street, "street", "", "Street")
		c.Flags().StringVar(&addrInput.ZipCode, "zip", "", "ZIP code")
		c.Flags().StringVar(&addrInput.City, "city", "", "City")
		c.Flags().StringVar(&addrInput.State, "state", "", "State")
		c.Flags().StringVar(&addrInput.Country, "country", "", "Country")
		c.Flags().StringVar(&addrLabel, "label", "", "Label, e.g. Home")
	}
	addressCmd.AddCommand(addressAddCmd, addressUpdateCmd, addressDeleteCmd)
	ordersCmd.AddCommand(ordersCancelCmd)
}
