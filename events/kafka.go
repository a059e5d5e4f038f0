package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaPublisher writes order events to a Kafka topic keyed by order group id.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}
	return &KafkaPublisher{writer: writer}
}

func (p *KafkaPublisher) PublishOrderPlaced(ctx context.Context, event OrderPlaced) error {
	envelope, err := NewEnvelope(EventOrderPlaced, event.PlacedAt, event)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", EventOrderPlaced, err)
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.OrderGroupID.String()),
		Value: data,
		Time:  time.Now(),
	})
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// OrderPlacedHandler receives decoded OrderPlaced events.
type OrderPlacedHandler func(ctx context.Context, event OrderPlaced) error

// retryDelay is how long Consume waits after a failed read.
const retryDelay = time.Second

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Consumer reads the order topic as part of a consumer group.
type Consumer struct {
	reader     messageReader
	logger     *log.Logger
	retryDelay time.Duration
}

func NewConsumer(brokers []string, topic, groupID string, logger *log.Logger) *Consumer {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{reader: reader, logger: logger, retryDelay: retryDelay}
}

// Consume blocks until ctx is cancelled or the reader is closed, handing every
// OrderPlaced event to handler. Handler errors are logged and the message is
// still committed. Read errors are retried after retryDelay.
func (c *Consumer) Consume(ctx context.Context, handler OrderPlacedHandler) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, io.EOF) {
				return fmt.Errorf("read message: %w", err)
			}
			c.logger.Printf("Error reading message: %v", err)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.retryDelay):
			}
			continue
		}

		if err := Dispatch(ctx, msg.Value, handler); err != nil {
			c.logger.Printf("Error handling message %s: %v", string(msg.Key), err)
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}

// Dispatch decodes one envelope and calls handler for OrderPlaced events.
// Other event types are ignored.
func Dispatch(ctx context.Context, value []byte, handler OrderPlacedHandler) error {
	var envelope Envelope
	if err := json.Unmarshal(value, &envelope); err != nil {
		return fmt.Errorf("unmarshal envelope: %w", err)
	}
	if envelope.EventType != EventOrderPlaced {
		return nil
	}

	var event OrderPlaced
	if err := json.Unmarshal(envelope.Data, &event); err != nil {
		return fmt.Errorf("unmarshal %s: %w", EventOrderPlaced, err)
	}
	return handler(ctx, event)
}
