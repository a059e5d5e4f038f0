package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/greenleaf-nursery/nursery-api/services"
	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"
)

// writeOrderReport renders one row per logical order followed by a totals
// row. Legacy orders show "legacy" in the group column.
func writeOrderReport(w io.Writer, orders []services.LogicalOrder, formatAmount func(decimal.Decimal) string) error {
	table := tablewriter.NewWriter(w)
	table.Header("Placed", "Group", "Customer", "Email", "Items", "Total", "Status")

	sum := decimal.Zero
	for _, order := range orders {
		group := "legacy"
		if order.GroupID != nil {
			group = order.GroupID.String()[:8]
		}
		if err := table.Append([]string{
			order.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
			group,
			order.CustomerName,
			order.CustomerEmail,
			strconv.Itoa(order.ItemCount()),
			formatAmount(order.TotalAmount),
			string(order.Status),
		}); err != nil {
			return fmt.Errorf("append order %s: %w", order.ID, err)
		}
		sum = sum.Add(order.TotalAmount)
	}

	table.Footer("", "", "", fmt.Sprintf("%d order(s)", len(orders)), "", formatAmount(sum), "")
	return table.Render()
}
