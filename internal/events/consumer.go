package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/models"
)

// PaymentEventType represents the type of payment event.
type PaymentEventType string

const (
	PaymentEventCompleted PaymentEventType = "payment.completed"
	PaymentEventFailed    PaymentEventType = "payment.failed"
	PaymentEventRefunded  PaymentEventType = "payment.refunded"
)

// PaymentEvent represents a payment-related event.
type PaymentEvent struct {
	ID        string           `json:"id"`
	Type      PaymentEventType `json:"type"`
	PaymentID string           `json:"payment_id"`
	OrderID   string           `json:"order_id"`
	Method    string           `json:"method"`
	Timestamp time.Time        `json:"timestamp"`
}

// PaymentStatusUpdater applies a payment outcome to an order.
type PaymentStatusUpdater interface {
	ApplyPaymentEvent(ctx context.Context, orderID string, status models.PaymentStatus, method string) error
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// KafkaConsumer consumes payment events from Kafka.
type KafkaConsumer struct {
	reader  messageReader
	updater PaymentStatusUpdater
	logger  *logging.Logger
	stopCh  chan struct{}
}

// NewKafkaConsumer creates a new Kafka-based event consumer.
func NewKafkaConsumer(cfg config.KafkaConfig, updater PaymentStatusUpdater, logger *logging.Logger) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.PaymentsTopic,
		GroupID:  cfg.ConsumerGroup,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  time.Second,
	})

	return &KafkaConsumer{
		reader:  reader,
		updater: updater,
		logger:  logger.Component("kafka-consumer"),
		stopCh:  make(chan struct{}),
	}
}

// Start begins consuming events.
func (c *KafkaConsumer) Start(ctx context.Context) error {
	c.logger.Info("Starting Kafka consumer")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.stopCh:
			c.logger.Info("Kafka consumer stopped")
			return nil
		default:
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				select {
				case <-c.stopCh:
					return nil
				default:
				}
				c.logger.Error("Failed to read message", logging.Fields{"error": err.Error()})
				continue
			}

			c.handleMessage(ctx, msg)
		}
	}
}

// Stop stops the consumer.
func (c *KafkaConsumer) Stop() {
	close(c.stopCh)
	c.reader.Close()
}

func (c *KafkaConsumer) handleMessage(ctx context.Context, msg kafka.Message) {
	c.logger.Debug("Received message", logging.Fields{
		"topic":     msg.Topic,
		"partition": msg.Partition,
		"offset":    msg.Offset,
	})

	var event PaymentEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		c.logger.Error("Failed to unmarshal event", logging.Fields{"error": err.Error()})
		return
	}

	var status models.PaymentStatus
	switch event.Type {
	case PaymentEventCompleted:
		status = models.PaymentStatusPaid
	case PaymentEventFailed:
		status = models.PaymentStatusFailed
	case PaymentEventRefunded:
		status = models.PaymentStatusRefunded
	default:
		c.logger.Debug("Ignoring unknown event type", logging.Fields{"type": event.Type})
		return
	}

	c.logger.Info("Applying payment event", logging.Fields{
		"payment_id": event.PaymentID,
		"order_id":   event.OrderID,
		"status":     status,
	})

	if err := c.updater.ApplyPaymentEvent(ctx, event.OrderID, status, event.Method); err != nil {
		c.logger.Error("Failed to update payment status", logging.Fields{
			"order_id": event.OrderID,
			"error":    err.Error(),
		})
	}
}
