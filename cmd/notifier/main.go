// Command notifier consumes order events from Kafka and logs the
// confirmation email for every order line.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/greenleaf-nursery/nursery-api/config"
	"github.com/greenleaf-nursery/nursery-api/events"
	"github.com/greenleaf-nursery/nursery-api/services"
)

func main() {
	logger := log.New(os.Stdout, "[notifier] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if !cfg.KafkaEnabled() {
		logger.Fatalf("KAFKA_BROKERS is not set")
	}

	logger.Printf("kafka: %v", cfg.KafkaBrokers)
	logger.Printf("topic: %s", cfg.KafkaTopic)
	logger.Printf("group: %s", cfg.KafkaGroupID)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	notifications := services.NewNotificationService(cfg.Currency(), logger)
	consumer := events.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroupID, logger)
	defer consumer.Close()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Println("starting event consumer")
		if err := consumer.Consume(ctx, notifications.HandleOrderPlaced); err != nil && !errors.Is(err, context.Canceled) {
			logger.Printf("consumer stopped: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Println("shutting down")
	cancel()
	wg.Wait()
}
