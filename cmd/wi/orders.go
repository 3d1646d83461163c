package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"wineinventory/internal/domain"
	"wineinventory/internal/orders"
)

func catalogCmd() *cobra.Command {
	cat := &cobra.Command{Use: "catalog", Short: "Browse the wine catalog"}
	cat.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List catalog items",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd.Context(), func(ctx context.Context, b backend) error {
				items, err := b.ListCatalog(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Winery", "Vintage", "Price"})
				for _, it := range items {
					vintage := ""
					if it.Vintage != 0 {
						vintage = fmt.Sprint(it.Vintage)
					}
					tw.AppendRow(table.Row{it.ID, it.Name, it.Winery, vintage, money(it.Price)})
				}
				tw.Render()
				return nil
			})
		},
	})
	return cat
}

func orderCmd() *cobra.Command {
	order := &cobra.Command{
		Use:   "order",
		Short: "Create and track orders",
		Long:  "Orders are priced from the catalog at creation time: each line is unit price times quantity rounded to cents, tax is added on the subtotal, and the order gets the next WI-{year}-{seq} code. Afterwards only the status changes.",
	}
	order.AddCommand(orderCreateCmd())
	order.AddCommand(orderListCmd())
	order.AddCommand(orderShowCmd())
	order.AddCommand(orderStatusCmd())
	return order
}

func orderCreateCmd() *cobra.Command {
	var req orders.Request
	var lines []string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an order",
		Example: `  wi order create --customer "Restaurante La Vid" --item wine-001:6 --item wine-003:3
  wi order create --customer "Wine Lovers Club" --item wine-002:12@19.90`,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, l := range lines {
				item, err := parseItemFlag(l)
				if err != nil {
					return err
				}
				req.Items = append(req.Items, item)
			}
			return withBackend(cmd.Context(), func(ctx context.Context, b backend) error {
				o, err := b.CreateOrder(ctx, req)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(o)
				}
				printOrder(o)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&req.CustomerName, "customer", "", "customer name")
	cmd.Flags().StringVar(&req.CustomerEmail, "email", "", "customer email")
	cmd.Flags().StringVar(&req.Notes, "notes", "", "notes")
	cmd.Flags().StringVar(&req.Status, "status", "", "initial status (default pending)")
	cmd.Flags().StringVar(&req.Code, "code", "", "order code (generated if omitted)")
	cmd.Flags().StringVar(&req.ExpectedDelivery, "delivery", "", "expected delivery date (default creation + configured days)")
	cmd.Flags().StringArrayVar(&lines, "item", []string{}, "catalog line as ID[:QTY][@PRICE] (repeatable)")
	return cmd
}

// parseItemFlag reads ID[:QTY][@PRICE]. Quantity and price stay strings so
// the pricing rules apply the same coercion as for API clients.
func parseItemFlag(s string) (orders.ItemRequest, error) {
	var item orders.ItemRequest
	rest := strings.TrimSpace(s)
	if at := strings.LastIndex(rest, "@"); at >= 0 {
		item.UnitPrice = strings.TrimSpace(rest[at+1:])
		rest = rest[:at]
	}
	if colon := strings.LastIndex(rest, ":"); colon >= 0 {
		item.Quantity = strings.TrimSpace(rest[colon+1:])
		rest = rest[:colon]
	}
	item.CatalogItemID = strings.TrimSpace(rest)
	if item.CatalogItemID == "" {
		return item, fmt.Errorf("invalid --item %q: catalog id required", s)
	}
	return item, nil
}

func orderListCmd() *cobra.Command {
	var status string
	var year int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd.Context(), func(ctx context.Context, b backend) error {
				items, err := b.ListOrders(ctx, status, year)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Code", "Customer", "Status", "Created", "Delivery", "Items", "Total"})
				for _, o := range items {
					tw.AppendRow(table.Row{o.Code, o.CustomerName, o.Status, o.CreatedAt, o.ExpectedDelivery, len(o.Items), money(o.Total)})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "status filter")
	cmd.Flags().IntVar(&year, "year", 0, "creation year filter")
	return cmd
}

func orderShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd.Context(), func(ctx context.Context, b backend) error {
				o, err := b.GetOrder(ctx, args[0])
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(o)
				}
				printOrder(o)
				return nil
			})
		},
	}
}

func orderStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "status <id> <status>",
		Short:     "Change an order's status",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"pending", "processing", "completed", "cancelled"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd.Context(), func(ctx context.Context, b backend) error {
				o, err := b.UpdateOrderStatus(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				return printJSONOrTable(o)
			})
		},
	}
}

func printOrder(o domain.Order) {
	fmt.Printf("%s  %s  [%s]\n", o.Code, o.CustomerName, o.Status)
	if o.CustomerEmail != "" {
		fmt.Printf("email:    %s\n", o.CustomerEmail)
	}
	fmt.Printf("id:       %s\ncreated:  %s\ndelivery: %s\n", o.ID, o.CreatedAt, o.ExpectedDelivery)
	if o.Notes != "" {
		fmt.Printf("notes:    %s\n", o.Notes)
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"#", "Wine", "Qty", "Unit", "Line"})
	for i, it := range o.Items {
		tw.AppendRow(table.Row{i + 1, it.CatalogItem.Name, it.Quantity, money(it.UnitPrice), money(it.LineTotal)})
	}
	tw.AppendFooter(table.Row{"", "", "", "Subtotal", money(o.Subtotal)})
	tw.AppendFooter(table.Row{"", "", "", "Tax", money(o.Tax)})
	tw.AppendFooter(table.Row{"", "", "", "Total", money(o.Total)})
	tw.Render()
}

func money(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
