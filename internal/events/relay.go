package events

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/logging"
)

type relayEnvelope struct {
	Topic   string          `json:"topic"`
	Payload json.RawMessage `json:"payload"`
}

// RedisRelay broadcasts through a Redis channel so every replica's hub,
// including this one, receives the message.
type RedisRelay struct {
	client  redis.UniversalClient
	channel string
	hub     *Hub
	logger  *logging.Logger
}

func NewRedisRelay(client redis.UniversalClient, channel string, hub *Hub, logger *logging.Logger) *RedisRelay {
	return &RedisRelay{
		client:  client,
		channel: channel,
		hub:     hub,
		logger:  logger.Component("redis-relay"),
	}
}

// Broadcast publishes payload for topic on the relay channel.
func (r *RedisRelay) Broadcast(ctx context.Context, topic string, payload []byte) error {
	data, err := json.Marshal(relayEnvelope{Topic: topic, Payload: payload})
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, r.channel, data).Err()
}

// Run forwards relay messages into the local hub until ctx is done.
func (r *RedisRelay) Run(ctx context.Context) error {
	pubsub := r.client.Subscribe(ctx, r.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}
	r.logger.Info("Relay subscribed", logging.Fields{"channel": r.channel})

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var env relayEnvelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				r.logger.Warn("Dropping malformed relay message", logging.Fields{"error": err.Error()})
				continue
			}
			r.hub.Publish(env.Topic, env.Payload)
		}
	}
}
