package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"jewelry-storefront/internal/domain"
)

var (
	productsPage     int
	productsLimit    int
	productsSearch   string
	productsCategory string
	categoriesPage   int
	categoriesLimit  int
)

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "List products",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		page, err := client.Products(ctx, domain.ProductFilter{
			Page: productsPage, Limit: productsLimit, Search: productsSearch, CategoryID: productsCategory,
		})
		if err != nil {
			return err
		}
		printProducts(cmd.OutOrStdout(), page.Data)
		fmt.Fprintf(cmd.OutOrStdout(), "page %d of %d (%d products)\n", page.Page, page.TotalPages, page.Total)
		return nil
	},
}

var productCmd = &cobra.Command{
	Use:   "product <id>",
	Short: "Show one product",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		p, err := client.Product(ctx, args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s\n%s\nprice: %s\nstock: %d\n", p.Name, p.Description, p.Price.StringFixed(2), p.Stock)
		if img := p.DefaultImage(); img != "" {
			fmt.Fprintf(out, "image: %s\n", img)
		}
		for _, c := range p.Colors {
			name := c.ColorID
			if c.Color != nil {
				name = c.Color.Name
			}
			fmt.Fprintf(out, "  color %s (%s): %d in stock\n", name, c.ColorID, c.Stock)
		}
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <term>",
	Short: "Search products by name or description",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		ps, err := client.Search(ctx, args[0])
		if err != nil {
			return err
		}
		if len(ps) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no products found")
			return nil
		}
		printProducts(cmd.OutOrStdout(), ps)
		return nil
	},
}

var freshCmd = &cobra.Command{
	Use:   "fresh",
	Short: "List the newest products",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		ps, err := client.FreshDrops(ctx)
		if err != nil {
			return err
		}
		printProducts(cmd.OutOrStdout(), ps)
		return nil
	},
}

var colorsCmd = &cobra.Command{
	Use:   "colors <product-id>",
	Short: "List the color variants of a product",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		cs, err := client.ProductColors(ctx, args[0])
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "COLOR ID\tNAME\tHEX\tSTOCK")
		for _, c := range cs {
			name, hex := "", ""
			if c.Color != nil {
				name, hex = c.Color.Name, c.Color.HexCode
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", c.ColorID, name, hex, c.Stock)
		}
		return w.Flush()
	},
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List categories",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		page, err := client.Categories(ctx, domain.CategoryFilter{Page: categoriesPage, Limit: categoriesLimit})
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tDESCRIPTION")
		for _, c := range page.Data {
			fmt.Fprintf(w, "%s\t%s\t%s\n", c.ID, c.Name, c.Description)
		}
		return w.Flush()
	},
}

var categoryCmd = &cobra.Command{
	Use:   "category <id>",
	Short: "Show a category and its products",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		c, err := client.Category(ctx, args[0])
		if err != nil {
			return err
		}
		ps, err := client.CategoryProducts(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n%s\n\n", c.Name, c.Description)
		printProducts(cmd.OutOrStdout(), ps)
		return nil
	},
}

func init() {
	productsCmd.Flags().IntVar(&productsPage, "page", 1, "Page number")
	productsCmd.Flags().IntVar(&productsLimit, "limit", 10, "Products per page")
	productsCmd.Flags().StringVar(&productsSearch, "search", "", "Filter by name")
	productsCmd.Flags().StringVar(&productsCategory, "category", "", "Filter by category id")
	categoriesCmd.Flags().IntVar(&categoriesPage, "page", 1, "Page number")
	categoriesCmd.Flags().IntVar(&categoriesLimit, "limit", 10, "Categories per page")
}

func printProducts(out io.Writer, ps []domain.Product) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPRICE\tSTOCK")
	for _, p := range ps {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", p.ID, p.Name, p.Price.StringFixed(2), p.Stock)
	}
	_ = w.Flush()
}
