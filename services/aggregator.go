package services

import (
	"time"

	"github.com/google/uuid"
	"github.com/greenleaf-nursery/nursery-api/models"
	"github.com/shopspring/decimal"
)

const (
	// BucketWidth is the creation-time window that coalesces legacy lines.
	BucketWidth = 60 * time.Second
	// SiblingWindow is how far either side of a legacy seed line the
	// propagation re-query looks.
	SiblingWindow = 60 * time.Second
)

// LogicalOrder is the read-side view of every line one checkout wrote.
type LogicalOrder struct {
	// ID is the id of the first line that produced this order. Any line id
	// resolves back to the same order.
	ID              uuid.UUID          `json:"id"`
	GroupID         *uuid.UUID         `json:"order_group_id"`
	CustomerName    string             `json:"customer_name"`
	CustomerEmail   string             `json:"customer_email"`
	CustomerPhone   string             `json:"customer_phone"`
	ShippingAddress string             `json:"shipping_address"`
	Lines           []models.OrderLine `json:"items"`
	TotalAmount     decimal.Decimal    `json:"total_amount"`
	Status          models.OrderStatus `json:"status"`
	CreatedAt       time.Time          `json:"created_at"`
}

// ItemCount is the number of units across all lines.
func (o LogicalOrder) ItemCount() int {
	n := 0
	for _, l := range o.Lines {
		n += l.Quantity
	}
	return n
}

// Contains reports whether lineID is one of the order's lines.
func (o LogicalOrder) Contains(lineID uuid.UUID) bool {
	for _, l := range o.Lines {
		if l.ID == lineID {
			return true
		}
	}
	return false
}

// BucketIndex truncates t to its BucketWidth window, counted from the epoch.
func BucketIndex(t time.Time) int64 {
	ms := t.UnixMilli()
	width := BucketWidth.Milliseconds()
	idx := ms / width
	if ms%width < 0 {
		idx--
	}
	return idx
}

// OrderKey identifies the logical order a line belongs to. Grouped lines set
// only Group; legacy lines set the customer fields and the creation bucket.
type OrderKey struct {
	Group  uuid.UUID
	Email  string
	Name   string
	Bucket int64
}

// GroupKey returns the OrderKey of line.
func GroupKey(line models.OrderLine) OrderKey {
	if line.OrderGroupID != nil {
		return OrderKey{Group: *line.OrderGroupID}
	}
	return OrderKey{
		Email:  line.CustomerEmail,
		Name:   line.CustomerName,
		Bucket: BucketIndex(line.CreatedAt),
	}
}

// GroupOrderLines coalesces lines into logical orders. Orders come out in the
// order their first line appears in the input, and lines keep their input
// order within each order. The order's status is its first line's status.
func GroupOrderLines(lines []models.OrderLine) []LogicalOrder {
	index := make(map[OrderKey]int, len(lines))
	orders := make([]LogicalOrder, 0, len(lines))

	for _, line := range lines {
		key := GroupKey(line)
		if i, ok := index[key]; ok {
			orders[i].Lines = append(orders[i].Lines, line)
			orders[i].TotalAmount = orders[i].TotalAmount.Add(line.TotalAmount)
			continue
		}

		index[key] = len(orders)
		orders = append(orders, LogicalOrder{
			ID:              line.ID,
			GroupID:         line.OrderGroupID,
			CustomerName:    line.CustomerName,
			CustomerEmail:   line.CustomerEmail,
			CustomerPhone:   line.CustomerPhone,
			ShippingAddress: line.ShippingAddress,
			Lines:           []models.OrderLine{line},
			TotalAmount:     line.TotalAmount,
			Status:          line.Status,
			CreatedAt:       line.CreatedAt,
		})
	}

	return orders
}
