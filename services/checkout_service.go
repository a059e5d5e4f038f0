package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/greenleaf-nursery/nursery-api/events"
	"github.com/greenleaf-nursery/nursery-api/models"
	"github.com/greenleaf-nursery/nursery-api/store"
	"github.com/samber/lo"
)

// CustomerDetails are the delivery fields collected at checkout.
type CustomerDetails struct {
	Name    string `json:"customer_name"`
	Email   string `json:"customer_email"`
	Phone   string `json:"customer_phone"`
	Address string `json:"shipping_address"`
}

// Validate requires every field and a parseable email address.
func (c CustomerDetails) Validate() error {
	fields := []struct{ name, value string }{
		{"customer_name", c.Name},
		{"customer_email", c.Email},
		{"customer_phone", c.Phone},
		{"shipping_address", c.Address},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return &ValidationError{Field: f.name, Message: "is required"}
		}
	}
	if _, err := mail.ParseAddress(c.Email); err != nil {
		return &ValidationError{Field: "customer_email", Message: "is not a valid email address"}
	}
	return nil
}

// CheckoutItem is one plant and quantity to buy.
type CheckoutItem struct {
	PlantID  uuid.UUID
	Quantity int
}

// CheckoutService turns checkout requests into order lines and stock
// decrements.
type CheckoutService struct {
	store     *store.Store
	publisher events.Publisher
	logger    *log.Logger
	now       func() time.Time
}

func NewCheckoutService(s *store.Store, publisher events.Publisher, logger *log.Logger) *CheckoutService {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if publisher == nil {
		publisher = events.NewLogPublisher(logger)
	}
	return &CheckoutService{store: s, publisher: publisher, logger: logger, now: time.Now}
}

// PlaceOrder writes one Pending line per item and decrements stock, all in
// one transaction. Every line shares a new order group id and one creation
// instant. If any plant lacks stock nothing is written.
func (s *CheckoutService) PlaceOrder(ctx context.Context, customer CustomerDetails, items []CheckoutItem) (*LogicalOrder, error) {
	if err := customer.Validate(); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrEmptyCheckout
	}
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, &ValidationError{Field: "quantity", Message: "must be a positive integer"}
		}
	}

	groupID := uuid.New()
	placedAt := s.now().UTC().Truncate(time.Millisecond)
	lines := make([]models.OrderLine, 0, len(items))

	err := s.store.Transaction(ctx, func(tx *store.Store) error {
		for _, item := range items {
			line, err := s.writeLine(ctx, tx, customer, item, groupID, placedAt)
			if err != nil {
				return err
			}
			lines = append(lines, *line)
		}
		return nil
	})
	if err != nil {
		var stockErr *StockError
		if errors.As(err, &stockErr) || errors.Is(err, ErrPlantNotFound) {
			return nil, err
		}
		s.logger.Printf("checkout for %s failed: %v", customer.Email, err)
		return nil, fmt.Errorf("checkout: %w", err)
	}

	order := GroupOrderLines(lines)[0]
	s.logger.Printf("order %s placed: %d line(s), total %s", groupID, len(lines), order.TotalAmount.StringFixed(2))

	if err := s.publisher.PublishOrderPlaced(ctx, orderPlacedEvent(order, placedAt)); err != nil {
		s.logger.Printf("publish %s for order %s: %v", events.EventOrderPlaced, groupID, err)
	}

	return &order, nil
}

// CheckoutCart places an order for every cart entry and, once the order has
// been committed, takes the ordered quantities off the cart.
func (s *CheckoutService) CheckoutCart(ctx context.Context, customer CustomerDetails, cart *Cart) (*LogicalOrder, error) {
	snapshot := cart.Items()
	items := lo.Map(snapshot, func(item CartItem, _ int) CheckoutItem {
		return CheckoutItem{PlantID: item.Plant.ID, Quantity: item.Quantity}
	})

	order, err := s.PlaceOrder(ctx, customer, items)
	if err != nil {
		return nil, err
	}
	cart.Settle(snapshot)
	return order, nil
}

// BuyNow places a single-plant order. The session cart is left untouched.
func (s *CheckoutService) BuyNow(ctx context.Context, customer CustomerDetails, plantID uuid.UUID, quantity int) (*LogicalOrder, error) {
	return s.PlaceOrder(ctx, customer, []CheckoutItem{{PlantID: plantID, Quantity: quantity}})
}

func (s *CheckoutService) writeLine(ctx context.Context, tx *store.Store, customer CustomerDetails, item CheckoutItem, groupID uuid.UUID, placedAt time.Time) (*models.OrderLine, error) {
	plant, err := tx.Plants().Get(ctx, item.PlantID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrPlantNotFound
	}
	if err != nil {
		return nil, err
	}
	if !plant.InStock(item.Quantity) {
		return nil, &StockError{PlantName: plant.Name, Requested: item.Quantity, Available: plant.Stock}
	}

	line := &models.OrderLine{
		OrderGroupID:    lo.ToPtr(groupID),
		CustomerName:    strings.TrimSpace(customer.Name),
		CustomerEmail:   strings.TrimSpace(customer.Email),
		CustomerPhone:   strings.TrimSpace(customer.Phone),
		ShippingAddress: strings.TrimSpace(customer.Address),
		PlantID:         plant.ID,
		PlantName:       plant.Name,
		PlantPrice:      plant.Price,
		Quantity:        item.Quantity,
		TotalAmount:     models.LineTotal(plant.Price, item.Quantity),
		Status:          models.OrderStatusPending,
		CreatedAt:       placedAt,
		UpdatedAt:       placedAt,
	}
	if err := tx.Orders().Create(ctx, line); err != nil {
		return nil, err
	}

	// Another checkout may have taken the stock since the read above.
	if err := tx.Plants().DecrementStock(ctx, plant.ID, item.Quantity); err != nil {
		if errors.Is(err, store.ErrInsufficientStock) {
			return nil, &StockError{PlantName: plant.Name, Requested: item.Quantity, Available: plant.Stock}
		}
		return nil, err
	}
	return line, nil
}

func orderPlacedEvent(order LogicalOrder, placedAt time.Time) events.OrderPlaced {
	return events.OrderPlaced{
		OrderGroupID:    lo.FromPtr(order.GroupID),
		CustomerName:    order.CustomerName,
		CustomerEmail:   order.CustomerEmail,
		CustomerPhone:   order.CustomerPhone,
		ShippingAddress: order.ShippingAddress,
		Items: lo.Map(order.Lines, func(l models.OrderLine, _ int) events.OrderItem {
			return events.OrderItem{
				LineID:      l.ID,
				PlantID:     l.PlantID,
				PlantName:   l.PlantName,
				Quantity:    l.Quantity,
				UnitPrice:   l.PlantPrice,
				TotalAmount: l.TotalAmount,
			}
		}),
		TotalAmount: order.TotalAmount,
		PlacedAt:    placedAt,
	}
}
