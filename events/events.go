// Package events carries order notifications from the API to background
// consumers.
package events

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const EventOrderPlaced = "OrderPlaced"

// Envelope wraps every event published to the order topic.
type Envelope struct {
	EventType  string          `json:"event_type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

// OrderPlaced is emitted once per committed checkout.
type OrderPlaced struct {
	OrderGroupID    uuid.UUID       `json:"order_group_id"`
	CustomerName    string          `json:"customer_name"`
	CustomerEmail   string          `json:"customer_email"`
	CustomerPhone   string          `json:"customer_phone"`
	ShippingAddress string          `json:"shipping_address"`
	Items           []OrderItem     `json:"items"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	PlacedAt        time.Time       `json:"placed_at"`
}

type OrderItem struct {
	LineID      uuid.UUID       `json:"line_id"`
	PlantID     uuid.UUID       `json:"plant_id"`
	PlantName   string          `json:"plant_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// Publisher delivers order events. Implementations must be safe for
// concurrent use.
type Publisher interface {
	PublishOrderPlaced(ctx context.Context, event OrderPlaced) error
	Close() error
}

// NewEnvelope marshals data under eventType.
func NewEnvelope(eventType string, occurredAt time.Time, data any) (Envelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{EventType: eventType, OccurredAt: occurredAt.UTC(), Data: raw}, nil
}

// LogPublisher writes events to a logger. It is used when no broker is
// configured.
type LogPublisher struct {
	logger *log.Logger
}

func NewLogPublisher(logger *log.Logger) *LogPublisher {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) PublishOrderPlaced(ctx context.Context, event OrderPlaced) error {
	p.logger.Printf("%s order=%s customer=%s items=%d total=%s",
		EventOrderPlaced, event.OrderGroupID, event.CustomerEmail, len(event.Items), event.TotalAmount.StringFixed(2))
	return nil
}

func (p *LogPublisher) Close() error {
	return nil
}

// RecordingPublisher keeps published events in memory.
type RecordingPublisher struct {
	events chan OrderPlaced
}

func NewRecordingPublisher(capacity int) *RecordingPublisher {
	return &RecordingPublisher{events: make(chan OrderPlaced, capacity)}
}

func (p *RecordingPublisher) PublishOrderPlaced(ctx context.Context, event OrderPlaced) error {
	select {
	case p.events <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Events drains everything published so far.
func (p *RecordingPublisher) Events() []OrderPlaced {
	var out []OrderPlaced
	for {
		select {
		case e := <-p.events:
			out = append(out, e)
		default:
			return out
		}
	}
}

func (p *RecordingPublisher) Close() error {
	return nil
}

var publisherInstance Publisher = NewLogPublisher(log.New(os.Stdout, "[events] ", log.LstdFlags|log.LUTC))

// GetPublisher returns the publisher checkouts report to.
func GetPublisher() Publisher {
	return publisherInstance
}

// SetPublisher replaces the process-wide publisher.
func SetPublisher(p Publisher) {
	publisherInstance = p
}
