package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/javajoker/agriconnect-backend/internal/apiclient"
	"github.com/javajoker/agriconnect-backend/internal/services"
)

func parseID(arg string) (uuid.UUID, error) {
	id, err := uuid.Parse(arg)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}

func newProductsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "products",
		Aliases: []string{"p"},
		Short:   "Browse and manage products",
	}
	cmd.AddCommand(
		newProductsListCmd(a),
		newProductsShowCmd(a),
		newProductsCreateCmd(a),
		newProductsViewCmd(a),
		newProductsReviewCmd(a),
	)
	return cmd
}

func newProductsListCmd(a *app) *cobra.Command {
	var q apiclient.ProductQuery

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Search the product catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := a.client(nil).ListProducts(cmd.Context(), q)
			if err != nil {
				return err
			}
			a.renderProducts(page)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&q.Search, "search", "", "match name or description")
	flags.StringVar(&q.Category, "category", "", "category")
	flags.StringVar(&q.FarmerID, "farmer", "", "farmer id")
	flags.StringVar(&q.PriceMin, "price-min", "", "minimum unit price")
	flags.StringVar(&q.PriceMax, "price-max", "", "maximum unit price")
	flags.BoolVar(&q.InStock, "in-stock", false, "only products with stock")
	flags.IntVar(&q.Page, "page", 1, "page number")
	flags.IntVar(&q.Limit, "limit", 20, "page size")
	return cmd
}

func newProductsShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <product-id>",
		Short: "Show a product with its reviews",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			product, err := a.client(nil).GetProduct(cmd.Context(), id)
			if err != nil {
				return err
			}
			a.renderProduct(product)
			return nil
		},
	}
}

func newProductsCreateCmd(a *app) *cobra.Command {
	var (
		req   services.CreateProductRequest
		price string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "List a new product (farmers)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := decimal.NewFromString(price)
			if err != nil {
				return fmt.Errorf("invalid price %q", price)
			}
			req.PricePerUnit = amount

			client, _, err := a.restored(cmd.Context())
			if err != nil {
				return err
			}
			product, err := client.CreateProduct(cmd.Context(), &req)
			if err != nil {
				return err
			}
			a.printf("Created product %s\n", product.ID)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&req.Name, "name", "", "product name")
	flags.StringVar(&req.Description, "description", "", "description")
	flags.StringVar(&req.Category, "category", "", "category")
	flags.StringVar(&price, "price", "", "price per unit")
	flags.StringVar(&req.Unit, "unit", "kg", "unit of sale")
	flags.IntVar(&req.QuantityAvailable, "quantity", 0, "quantity available")
	flags.StringVar(&req.Image, "image", "", "image URL")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("price")
	return cmd
}

func newProductsViewCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "view <product-id>",
		Short: "Record a product view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			client, _, err := a.restored(cmd.Context())
			if err != nil {
				return err
			}
			views, err := client.RecordView(cmd.Context(), id)
			if err != nil {
				return err
			}
			a.printf("%d views\n", views)
			return nil
		},
	}
}

func newProductsReviewCmd(a *app) *cobra.Command {
	var req services.ReviewRequest

	cmd := &cobra.Command{
		Use:   "review <product-id>",
		Short: "Rate a product (buyers)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			client, _, err := a.restored(cmd.Context())
			if err != nil {
				return err
			}
			if _, err := client.AddReview(cmd.Context(), id, &req); err != nil {
				return err
			}
			a.printf("Review added\n")
			return nil
		},
	}

	cmd.Flags().IntVar(&req.Rating, "rating", 5, "rating from 1 to 5")
	cmd.Flags().StringVar(&req.Comment, "comment", "", "review text")
	return cmd
}
