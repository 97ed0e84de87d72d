package events

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/logging"
)

const (
	defaultQueueSize = 64
	defaultMaxDrops  = 8
)

// HubObserver receives hub activity. Implemented by the metrics package.
type HubObserver interface {
	SubscribersChanged(n int)
	MessageDelivered(topic string)
	MessageDropped(topic string)
	SubscriberEvicted(topic string)
}

// Broadcaster fans a payload out to every subscriber of a topic.
type Broadcaster interface {
	Broadcast(ctx context.Context, topic string, payload []byte) error
}

// Hub is an in-process publish/subscribe hub. Each subscriber owns a
// bounded queue; a full queue drops the message for that subscriber only,
// and a subscriber that keeps dropping is evicted.
type Hub struct {
	mu        sync.RWMutex
	topics    map[string]map[*Subscriber]struct{}
	count     int
	queueSize int
	maxDrops  int32
	logger    *logging.Logger
	observer  HubObserver
}

func NewHub(queueSize, maxDrops int, logger *logging.Logger) *Hub {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	if maxDrops <= 0 {
		maxDrops = defaultMaxDrops
	}
	return &Hub{
		topics:    make(map[string]map[*Subscriber]struct{}),
		queueSize: queueSize,
		maxDrops:  int32(maxDrops),
		logger:    logger.Component("hub"),
	}
}

func (h *Hub) WithObserver(o HubObserver) *Hub {
	h.observer = o
	return h
}

// Subscriber is one consumer of a topic.
type Subscriber struct {
	ID    string
	Topic string

	queue chan []byte
	// drops counts consecutive messages lost to a full queue.
	drops  atomic.Int32
	closed bool
}

// Queue yields published payloads. It is closed when the subscriber is
// removed from the hub.
func (s *Subscriber) Queue() <-chan []byte {
	return s.queue
}

func (h *Hub) Subscribe(topic string) *Subscriber {
	sub := &Subscriber{
		ID:    uuid.NewString(),
		Topic: topic,
		queue: make(chan []byte, h.queueSize),
	}

	h.mu.Lock()
	if h.topics[topic] == nil {
		h.topics[topic] = make(map[*Subscriber]struct{})
	}
	h.topics[topic][sub] = struct{}{}
	h.count++
	n := h.count
	h.mu.Unlock()

	h.logger.Debug("Subscriber attached", logging.Fields{"topic": topic, "subscriber_id": sub.ID})
	if h.observer != nil {
		h.observer.SubscribersChanged(n)
	}
	return sub
}

// Unsubscribe removes sub and closes its queue. Safe to call repeatedly.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	if sub.closed {
		h.mu.Unlock()
		return
	}
	if subs, ok := h.topics[sub.Topic]; ok {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(h.topics, sub.Topic)
		}
	}
	sub.closed = true
	close(sub.queue)
	h.count--
	n := h.count
	h.mu.Unlock()

	h.logger.Debug("Subscriber detached", logging.Fields{"topic": sub.Topic, "subscriber_id": sub.ID})
	if h.observer != nil {
		h.observer.SubscribersChanged(n)
	}
}

// Publish delivers payload to every subscriber of topic without blocking
// and returns how many queues accepted it.
func (h *Hub) Publish(topic string, payload []byte) int {
	var delivered int
	var evict []*Subscriber

	h.mu.RLock()
	for sub := range h.topics[topic] {
		select {
		case sub.queue <- payload:
			sub.drops.Store(0)
			delivered++
			if h.observer != nil {
				h.observer.MessageDelivered(topic)
			}
		default:
			if h.observer != nil {
				h.observer.MessageDropped(topic)
			}
			if sub.drops.Add(1) >= h.maxDrops {
				evict = append(evict, sub)
			}
		}
	}
	h.mu.RUnlock()

	for _, sub := range evict {
		h.logger.Warn("Evicting slow subscriber", logging.Fields{
			"topic":         topic,
			"subscriber_id": sub.ID,
		})
		if h.observer != nil {
			h.observer.SubscriberEvicted(topic)
		}
		h.Unsubscribe(sub)
	}

	return delivered
}

// Broadcast implements Broadcaster for a single instance.
func (h *Hub) Broadcast(_ context.Context, topic string, payload []byte) error {
	h.Publish(topic, payload)
	return nil
}

// SubscriberCount returns the number of attached subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

// Close detaches every subscriber.
func (h *Hub) Close() {
	h.mu.RLock()
	var all []*Subscriber
	for _, subs := range h.topics {
		for sub := range subs {
			all = append(all, sub)
		}
	}
	h.mu.RUnlock()

	for _, sub := range all {
		h.Unsubscribe(sub)
	}
}
