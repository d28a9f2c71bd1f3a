package main

import (
	"github.com/spf13/cobra"

	"github.com/javajoker/agriconnect-backend/internal/models"
)

func newOrdersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "orders",
		Aliases: []string{"o"},
		Short:   "Place and manage orders",
	}
	cmd.AddCommand(
		newOrdersListCmd(a),
		newOrdersCreateCmd(a),
		newOrdersStatusCmd(a),
		newOrdersCancelCmd(a),
	)
	return cmd
}

func newOrdersListCmd(a *app) *cobra.Command {
	var (
		status      string
		page, limit int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your orders (placed as buyer, received as farmer)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := a.restored(cmd.Context())
			if err != nil {
				return err
			}
			orders, err := client.ListOrders(cmd.Context(), status, page, limit)
			if err != nil {
				return err
			}
			a.renderOrders(orders)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&limit, "limit", 20, "page size")
	return cmd
}

func newOrdersCreateCmd(a *app) *cobra.Command {
	var quantity int

	cmd := &cobra.Command{
		Use:   "create <product-id>",
		Short: "Order a product (buyers)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			productID, err := parseID(args[0])
			if err != nil {
				return err
			}
			client, _, err := a.restored(cmd.Context())
			if err != nil {
				return err
			}
			order, err := client.CreateOrder(cmd.Context(), productID, quantity)
			if err != nil {
				return err
			}
			a.renderOrder(order)
			return nil
		},
	}

	cmd.Flags().IntVarP(&quantity, "quantity", "q", 1, "quantity to order")
	return cmd
}

func newOrdersStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "status <order-id> <accepted|rejected|shipped|delivered>",
		Short:     "Move a received order forward (farmers)",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"accepted", "rejected", "shipped", "delivered"},
		RunE: func(cmd *cobra.Command, args []string) error {
			orderID, err := parseID(args[0])
			if err != nil {
				return err
			}
			client, _, err := a.restored(cmd.Context())
			if err != nil {
				return err
			}
			order, err := client.UpdateOrderStatus(cmd.Context(), orderID, models.OrderStatus(args[1]))
			if err != nil {
				return err
			}
			a.renderOrder(order)
			return nil
		},
	}
}

func newOrdersCancelCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <order-id>",
		Short: "Cancel a pending order (buyers)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			orderID, err := parseID(args[0])
			if err != nil {
				return err
			}
			client, _, err := a.restored(cmd.Context())
			if err != nil {
				return err
			}
			if err := client.CancelOrder(cmd.Context(), orderID); err != nil {
				return err
			}
			a.printf("Order %s cancelled\n", orderID)
			return nil
		},
	}
}
