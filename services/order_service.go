package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/google/uuid"
	"github.com/greenleaf-nursery/nursery-api/models"
	"github.com/greenleaf-nursery/nursery-api/store"
	"github.com/samber/lo"
)

// OrderService presents stored order lines as logical orders and fans
// status changes and deletes out to every line of one logical order.
type OrderService struct {
	store  *store.Store
	logger *log.Logger
}

func NewOrderService(s *store.Store, logger *log.Logger) *OrderService {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &OrderService{store: s, logger: logger}
}

// List returns every logical order, newest first. A non-empty status keeps
// only orders whose aggregate status matches.
func (s *OrderService) List(ctx context.Context, status models.OrderStatus) ([]LogicalOrder, error) {
	lines, err := s.store.Orders().List(ctx, store.OrderFilter{})
	if err != nil {
		s.logger.Printf("list order lines: %v", err)
		return nil, fmt.Errorf("orders.List: %w", err)
	}

	orders := GroupOrderLines(lines)
	if status == "" {
		return orders, nil
	}
	return lo.Filter(orders, func(o LogicalOrder, _ int) bool { return o.Status == status }), nil
}

// Get resolves the logical order that contains lineID.
func (s *OrderService) Get(ctx context.Context, lineID uuid.UUID) (*LogicalOrder, error) {
	return s.get(ctx, s.store, lineID)
}

// UpdateStatus writes status to the seed line and to every sibling, then
// returns the order as stored.
func (s *OrderService) UpdateStatus(ctx context.Context, lineID uuid.UUID, status models.OrderStatus) (*LogicalOrder, error) {
	if _, err := models.ToOrderStatus(string(status)); err != nil {
		return nil, ErrInvalidStatus
	}

	err := s.store.Transaction(ctx, func(tx *store.Store) error {
		seed, err := s.seed(ctx, tx, lineID)
		if err != nil {
			return err
		}

		ids, err := s.siblingIDs(ctx, tx, seed)
		if err != nil {
			return err
		}

		n, err := tx.Orders().SetStatus(ctx, status, ids...)
		if err != nil {
			return err
		}
		s.logger.Printf("order %s: status %s written to %d line(s)", lineID, status, n)
		return nil
	})
	if err != nil {
		return nil, s.fail("update order status", lineID, err)
	}

	return s.Get(ctx, lineID)
}

// Delete removes the seed line and every sibling. It returns the number of
// lines removed.
func (s *OrderService) Delete(ctx context.Context, lineID uuid.UUID) (int64, error) {
	var removed int64
	err := s.store.Transaction(ctx, func(tx *store.Store) error {
		seed, err := s.seed(ctx, tx, lineID)
		if err != nil {
			return err
		}

		ids, err := s.siblingIDs(ctx, tx, seed)
		if err != nil {
			return err
		}

		removed, err = tx.Orders().Delete(ctx, ids...)
		return err
	})
	if err != nil {
		return 0, s.fail("delete order", lineID, err)
	}

	s.logger.Printf("order %s: deleted %d line(s)", lineID, removed)
	return removed, nil
}

func (s *OrderService) get(ctx context.Context, st *store.Store, lineID uuid.UUID) (*LogicalOrder, error) {
	seed, err := s.seed(ctx, st, lineID)
	if err != nil {
		return nil, s.fail("get order", lineID, err)
	}

	lines, err := st.Orders().List(ctx, s.siblingFilter(seed))
	if err != nil {
		return nil, s.fail("get order", lineID, err)
	}

	for _, order := range GroupOrderLines(lines) {
		if order.Contains(lineID) {
			return &order, nil
		}
	}
	// The seed row is always part of its own sibling query.
	return nil, s.fail("get order", lineID, ErrOrderNotFound)
}

func (s *OrderService) seed(ctx context.Context, st *store.Store, lineID uuid.UUID) (*models.OrderLine, error) {
	line, err := st.Orders().Get(ctx, lineID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	return line, err
}

// siblingFilter finds the lines that share a logical order with seed. Grouped
// lines match on order group id. Legacy lines match on customer email and name
// within SiblingWindow of the seed's creation time, excluding grouped lines.
func (s *OrderService) siblingFilter(seed *models.OrderLine) store.OrderFilter {
	if seed.OrderGroupID != nil {
		return store.OrderFilter{GroupIDs: []uuid.UUID{*seed.OrderGroupID}}
	}

	window := store.Around(seed.CreatedAt, SiblingWindow)
	return store.OrderFilter{
		Emails:     []string{seed.CustomerEmail},
		Names:      []string{seed.CustomerName},
		CreatedAt:  &window,
		LegacyOnly: true,
	}
}

func (s *OrderService) siblingIDs(ctx context.Context, st *store.Store, seed *models.OrderLine) ([]uuid.UUID, error) {
	lines, err := st.Orders().List(ctx, s.siblingFilter(seed))
	if err != nil {
		return nil, err
	}

	ids := lo.Map(lines, func(l models.OrderLine, _ int) uuid.UUID { return l.ID })
	if !lo.Contains(ids, seed.ID) {
		ids = append(ids, seed.ID)
	}
	return ids, nil
}

func (s *OrderService) fail(op string, lineID uuid.UUID, err error) error {
	if errors.Is(err, ErrOrderNotFound) {
		return ErrOrderNotFound
	}
	s.logger.Printf("%s %s: %v", op, lineID, err)
	return fmt.Errorf("%s: %w", op, err)
}
