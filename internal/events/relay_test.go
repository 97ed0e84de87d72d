package events

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/logging"
)

func TestRedisRelay_ForwardsToHub(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	hub := NewHub(4, 2, logging.Nop())
	defer hub.Close()
	sub := hub.Subscribe(RestaurantTopic("r-1"))

	relay := NewRedisRelay(client, "restaurant-events", hub, logging.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- relay.Run(ctx) }()

	require.Eventually(t, func() bool {
		return mr.PubSubNumSub("restaurant-events")["restaurant-events"] == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, relay.Broadcast(context.Background(), RestaurantTopic("r-1"), []byte(`{"type":"order.created"}`)))

	select {
	case msg := <-sub.Queue():
		assert.JSONEq(t, `{"type":"order.created"}`, string(msg))
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not forward message")
	}

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not stop")
	}
}

func TestRedisRelay_RunFailsWithoutRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	mr.Close()

	relay := NewRedisRelay(client, "restaurant-events", NewHub(1, 1, logging.Nop()), logging.Nop())
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	assert.Error(t, relay.Run(ctx))
}
