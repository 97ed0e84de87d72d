package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/models"
)

// Message is the frame pushed to dashboard sockets.
type Message struct {
	Type      EventType     `json:"type"`
	Topic     string        `json:"topic"`
	Order     *models.Order `json:"order"`
	Timestamp time.Time     `json:"timestamp"`
}

// RestaurantTopic is the topic dashboards of one restaurant subscribe to.
func RestaurantTopic(restaurantID string) string {
	return "restaurant:" + restaurantID
}

const publishTimeout = 10 * time.Second

// OrderNotifier sends order changes to live dashboards and, when a
// publisher is configured, to the orders topic. Publishing runs in the
// background, detached from the caller's cancellation. Delivery failures
// are logged and never returned.
type OrderNotifier struct {
	broadcaster Broadcaster
	publisher   OrderEventPublisher
	logger      *logging.Logger
	wg          sync.WaitGroup
}

// NewOrderNotifier wires the notifier. publisher may be nil.
func NewOrderNotifier(broadcaster Broadcaster, publisher OrderEventPublisher, logger *logging.Logger) *OrderNotifier {
	return &OrderNotifier{
		broadcaster: broadcaster,
		publisher:   publisher,
		logger:      logger.Component("notifier"),
	}
}

func (n *OrderNotifier) OrderCreated(ctx context.Context, order *models.Order) {
	n.notify(ctx, EventTypeOrderCreated, order, nil)
}

func (n *OrderNotifier) OrderStatusChanged(ctx context.Context, order *models.Order, previous models.OrderStatus) {
	n.notify(ctx, EventTypeOrderStatusChanged, order, map[string]string{
		"previous_status": string(previous),
		"new_status":      string(order.Status),
	})
}

func (n *OrderNotifier) OrderPaymentUpdated(ctx context.Context, order *models.Order) {
	n.notify(ctx, EventTypeOrderPaymentUpdated, order, map[string]string{
		"payment_status": string(order.PaymentStatus),
	})
}

func (n *OrderNotifier) notify(ctx context.Context, eventType EventType, order *models.Order, metadata map[string]string) {
	topic := RestaurantTopic(order.RestaurantID)

	payload, err := json.Marshal(Message{
		Type:      eventType,
		Topic:     topic,
		Order:     order,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		n.logger.Error("Failed to encode notification", logging.Fields{"order_id": order.ID, "error": err.Error()})
		return
	}

	if err := n.broadcaster.Broadcast(ctx, topic, payload); err != nil {
		n.logger.Warn("Failed to broadcast order event", logging.Fields{
			"order_id":   order.ID,
			"event_type": eventType,
			"error":      err.Error(),
		})
	}

	if n.publisher == nil {
		return
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		defer cancel()
		if err := n.publisher.PublishOrderEvent(pubCtx, eventType, order, metadata); err != nil {
			n.logger.Warn("Failed to publish order event", logging.Fields{
				"order_id":   order.ID,
				"event_type": eventType,
				"error":      err.Error(),
			})
		}
	}()
}

// Wait blocks until every background publish has finished. Call it during
// shutdown before closing the publisher.
func (n *OrderNotifier) Wait() {
	n.wg.Wait()
}
