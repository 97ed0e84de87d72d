package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/models"
)

type fakeBroadcaster struct {
	topics   []string
	payloads [][]byte
	err      error
}

func (f *fakeBroadcaster) Broadcast(_ context.Context, topic string, payload []byte) error {
	f.topics = append(f.topics, topic)
	f.payloads = append(f.payloads, payload)
	return f.err
}

type publishedEvent struct {
	eventType EventType
	orderID   string
	metadata  map[string]string
}

type fakePublisher struct {
	mu      sync.Mutex
	events  []publishedEvent
	ctxErrs []error
	err     error
	release chan struct{}
}

func (f *fakePublisher) PublishOrderEvent(ctx context.Context, eventType EventType, order *models.Order, metadata map[string]string) error {
	if f.release != nil {
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, publishedEvent{eventType: eventType, orderID: order.ID, metadata: metadata})
	f.ctxErrs = append(f.ctxErrs, ctx.Err())
	return f.err
}

func (f *fakePublisher) Close() error { return nil }

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.msgs = append(f.msgs, msgs...)
	return f.err
}

func (f *fakeWriter) Close() error { return nil }

type paymentCall struct {
	orderID string
	status  models.PaymentStatus
	method  string
}

type fakeUpdater struct {
	calls []paymentCall
}

func (f *fakeUpdater) ApplyPaymentEvent(_ context.Context, orderID string, status models.PaymentStatus, method string) error {
	f.calls = append(f.calls, paymentCall{orderID: orderID, status: status, method: method})
	return nil
}

func testOrder() *models.Order {
	return &models.Order{
		ID:            "ord-1",
		RestaurantID:  "r-1",
		OrderNumber:   7,
		Status:        models.OrderStatusPreparing,
		PaymentStatus: models.PaymentStatusUnpaid,
	}
}

func TestOrderNotifier_BroadcastsToRestaurantTopic(t *testing.T) {
	b := &fakeBroadcaster{}
	p := &fakePublisher{}
	n := NewOrderNotifier(b, p, logging.Nop())

	n.OrderStatusChanged(context.Background(), testOrder(), models.OrderStatusPending)
	n.Wait()

	require.Len(t, b.topics, 1)
	assert.Equal(t, "restaurant:r-1", b.topics[0])

	var msg Message
	require.NoError(t, json.Unmarshal(b.payloads[0], &msg))
	assert.Equal(t, EventTypeOrderStatusChanged, msg.Type)
	assert.Equal(t, "ord-1", msg.Order.ID)

	require.Len(t, p.events, 1)
	assert.Equal(t, EventTypeOrderStatusChanged, p.events[0].eventType)
	assert.Equal(t, "Pending", p.events[0].metadata["previous_status"])
	assert.Equal(t, "Preparing", p.events[0].metadata["new_status"])
}

func TestOrderNotifier_FailuresAreSwallowed(t *testing.T) {
	b := &fakeBroadcaster{err: errors.New("redis down")}
	p := &fakePublisher{err: errors.New("kafka down")}
	n := NewOrderNotifier(b, p, logging.Nop())

	assert.NotPanics(t, func() {
		n.OrderCreated(context.Background(), testOrder())
	})
	n.Wait()
	assert.Len(t, p.events, 1)
}

func TestOrderNotifier_SlowPublisherDoesNotBlockCaller(t *testing.T) {
	b := &fakeBroadcaster{}
	p := &fakePublisher{release: make(chan struct{})}
	n := NewOrderNotifier(b, p, logging.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	returned := make(chan struct{})
	go func() {
		n.OrderCreated(ctx, testOrder())
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("OrderCreated blocked on the publisher")
	}
	assert.Len(t, b.topics, 1)

	cancel()
	close(p.release)
	n.Wait()

	require.Len(t, p.events, 1)
	assert.Equal(t, EventTypeOrderCreated, p.events[0].eventType)
	assert.NoError(t, p.ctxErrs[0])
}

func TestOrderNotifier_WithoutPublisher(t *testing.T) {
	b := &fakeBroadcaster{}
	n := NewOrderNotifier(b, nil, logging.Nop())

	n.OrderPaymentUpdated(context.Background(), testOrder())

	assert.Len(t, b.topics, 1)
}

func TestKafkaPublisher_KeysByRestaurant(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w, topic: "restaurant.orders", logger: logging.Nop()}

	ctx := logging.WithRequestID(context.Background(), "req-42")
	require.NoError(t, p.PublishOrderEvent(ctx, EventTypeOrderCreated, testOrder(), nil))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "r-1", string(msg.Key))
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, "order.created", string(msg.Headers[0].Value))

	var event OrderEvent
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	assert.Equal(t, "ord-1", event.OrderID)
	assert.Equal(t, "req-42", event.CorrelationID)
	assert.NotEmpty(t, event.ID)
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker unavailable")}
	p := &KafkaPublisher{writer: w, topic: "restaurant.orders", logger: logging.Nop()}

	err := p.PublishOrderEvent(context.Background(), EventTypeOrderCreated, testOrder(), nil)
	assert.EqualError(t, err, "broker unavailable")
}

func TestKafkaConsumer_HandleMessage(t *testing.T) {
	tests := []struct {
		name      string
		eventType PaymentEventType
		want      models.PaymentStatus
	}{
		{"completed", PaymentEventCompleted, models.PaymentStatusPaid},
		{"failed", PaymentEventFailed, models.PaymentStatusFailed},
		{"refunded", PaymentEventRefunded, models.PaymentStatusRefunded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &fakeUpdater{}
			c := &KafkaConsumer{updater: u, logger: logging.Nop()}

			body, err := json.Marshal(PaymentEvent{
				ID:        "evt-1",
				Type:      tt.eventType,
				PaymentID: "pay-1",
				OrderID:   "ord-1",
				Method:    "card",
				Timestamp: time.Now(),
			})
			require.NoError(t, err)

			c.handleMessage(context.Background(), kafka.Message{Value: body})

			require.Len(t, u.calls, 1)
			assert.Equal(t, paymentCall{orderID: "ord-1", status: tt.want, method: "card"}, u.calls[0])
		})
	}
}

func TestKafkaConsumer_IgnoresUnknownAndMalformed(t *testing.T) {
	u := &fakeUpdater{}
	c := &KafkaConsumer{updater: u, logger: logging.Nop()}

	c.handleMessage(context.Background(), kafka.Message{Value: []byte(`{"type":"payment.authorized","order_id":"ord-1"}`)})
	c.handleMessage(context.Background(), kafka.Message{Value: []byte(`not json`)})

	assert.Empty(t, u.calls)
}
