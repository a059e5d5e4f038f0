package services

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/greenleaf-nursery/nursery-api/models"
	"github.com/greenleaf-nursery/nursery-api/store"
	"github.com/samber/lo"
)

// DashboardStats is the admin landing page summary. Order counts are in
// logical orders; LineCount is the number of stored order lines.
type DashboardStats struct {
	TotalOrders     int   `json:"total_orders"`
	PendingOrders   int   `json:"pending_orders"`
	ConfirmedOrders int   `json:"confirmed_orders"`
	DeliveredOrders int   `json:"delivered_orders"`
	LineCount       int64 `json:"line_count"`
	LowStockPlants  int64 `json:"low_stock_plants"`
	UnreadMessages  int64 `json:"unread_messages"`
}

type DashboardService struct {
	store             *store.Store
	orders            *OrderService
	lowStockThreshold int
	logger            *log.Logger
}

func NewDashboardService(s *store.Store, lowStockThreshold int, logger *log.Logger) *DashboardService {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &DashboardService{
		store:             s,
		orders:            NewOrderService(s, logger),
		lowStockThreshold: lowStockThreshold,
		logger:            logger,
	}
}

func (s *DashboardService) Stats(ctx context.Context) (*DashboardStats, error) {
	orders, err := s.orders.List(ctx, "")
	if err != nil {
		return nil, err
	}

	countStatus := func(status models.OrderStatus) int {
		return lo.CountBy(orders, func(o LogicalOrder) bool { return o.Status == status })
	}
	stats := &DashboardStats{
		TotalOrders:     len(orders),
		PendingOrders:   countStatus(models.OrderStatusPending),
		ConfirmedOrders: countStatus(models.OrderStatusConfirmed),
		DeliveredOrders: countStatus(models.OrderStatusDelivered),
	}

	if stats.LineCount, err = s.store.Orders().Count(ctx, store.OrderFilter{}); err != nil {
		return nil, s.fail("count order lines", err)
	}
	if stats.LowStockPlants, err = s.store.Plants().CountLowStock(ctx, s.lowStockThreshold); err != nil {
		return nil, s.fail("count low stock", err)
	}
	if stats.UnreadMessages, err = s.store.Messages().CountUnread(ctx); err != nil {
		return nil, s.fail("count unread messages", err)
	}
	return stats, nil
}

func (s *DashboardService) fail(op string, err error) error {
	s.logger.Printf("%s: %v", op, err)
	return fmt.Errorf("dashboard.Stats: %s: %w", op, err)
}
