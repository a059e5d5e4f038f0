package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/greenleaf-nursery/nursery-api/models"
	"github.com/shopspring/decimal"
)

// CartItem is a plant snapshot and the requested quantity.
type CartItem struct {
	Plant    models.Plant `json:"plant"`
	Quantity int          `json:"quantity"`
}

// Cart accumulates purchase intent for one browsing session.
type Cart struct {
	mu    sync.Mutex
	items []CartItem
}

// Add increments the quantity of plant, appending it when absent. The
// quantity is not clamped to stock here; checkout re-checks stock.
func (c *Cart) Add(plant models.Plant, quantity int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.items {
		if c.items[i].Plant.ID == plant.ID {
			c.items[i].Quantity += quantity
			return
		}
	}
	c.items = append(c.items, CartItem{Plant: plant, Quantity: quantity})
}

func (c *Cart) Remove(plantID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.remove(plantID)
}

// SetQuantity replaces the quantity of plantID. A quantity of zero or less
// removes the entry. It reports whether the plant was in the cart.
func (c *Cart) SetQuantity(plantID uuid.UUID, quantity int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.items {
		if c.items[i].Plant.ID != plantID {
			continue
		}
		if quantity <= 0 {
			c.remove(plantID)
		} else {
			c.items[i].Quantity = quantity
		}
		return true
	}
	return false
}

func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
}

// Settle takes checked-out quantities off the cart, dropping entries that
// reach zero. Quantities added after the snapshot was taken stay in the cart.
func (c *Cart) Settle(checkedOut []CartItem) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, done := range checkedOut {
		for i := range c.items {
			if c.items[i].Plant.ID != done.Plant.ID {
				continue
			}
			c.items[i].Quantity -= done.Quantity
			if c.items[i].Quantity <= 0 {
				c.remove(done.Plant.ID)
			}
			break
		}
	}
}

// Items returns a copy of the entries in insertion order.
func (c *Cart) Items() []CartItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]CartItem(nil), c.items...)
}

// TotalItems is the sum of quantities.
func (c *Cart) TotalItems() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, item := range c.items {
		n += item.Quantity
	}
	return n
}

// TotalPrice is the sum of quantity times unit price.
func (c *Cart) TotalPrice() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := decimal.Zero
	for _, item := range c.items {
		total = total.Add(models.LineTotal(item.Plant.Price, item.Quantity))
	}
	return total
}

func (c *Cart) remove(plantID uuid.UUID) {
	for i := range c.items {
		if c.items[i].Plant.ID == plantID {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return
		}
	}
}

type cartSession struct {
	cart     *Cart
	lastSeen time.Time
}

// CartRegistry owns the carts of all live sessions, keyed by session id.
type CartRegistry struct {
	mu       sync.Mutex
	sessions map[string]*cartSession
	now      func() time.Time
}

func NewCartRegistry() *CartRegistry {
	return &CartRegistry{
		sessions: make(map[string]*cartSession),
		now:      time.Now,
	}
}

// Get returns the cart for sessionID, creating an empty one on first use.
func (r *CartRegistry) Get(sessionID string) *Cart {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		s = &cartSession{cart: &Cart{}}
		r.sessions[sessionID] = s
	}
	s.lastSeen = r.now()
	return s.cart
}

// Drop forgets a session and its cart.
func (r *CartRegistry) Drop(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
}

func (r *CartRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep drops sessions idle for longer than maxIdle and returns how many.
func (r *CartRegistry) Sweep(maxIdle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-maxIdle)
	dropped := 0
	for id, s := range r.sessions {
		if s.lastSeen.Before(cutoff) {
			delete(r.sessions, id)
			dropped++
		}
	}
	return dropped
}

// RunJanitor sweeps idle sessions every interval until ctx is cancelled.
func (r *CartRegistry) RunJanitor(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(maxIdle)
		}
	}
}

var cartRegistryInstance = NewCartRegistry()

// GetCartRegistry returns the process-wide cart registry
func GetCartRegistry() *CartRegistry {
	return cartRegistryInstance
}

// SetCartRegistry replaces the cart registry (primarily for testing)
func SetCartRegistry(registry *CartRegistry) {
	cartRegistryInstance = registry
}
