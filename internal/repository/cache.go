package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/models"
)

const (
	menuKeyPrefix   = "menu:"
	orderKeyPrefix  = "order:"
	defaultCacheTTL = 5 * time.Minute
)

// CacheObserver records cache lookups. Implemented by the metrics package.
type CacheObserver interface {
	CacheLookup(kind string, hit bool)
}

// RedisCache implements Cache using Redis. A miss is (nil, nil).
type RedisCache struct {
	client   redis.UniversalClient
	ttl      time.Duration
	logger   *logging.Logger
	observer CacheObserver
}

// NewRedisClient builds the shared Redis client from configuration.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// NewRedisCache creates a new Redis-based cache.
func NewRedisCache(client redis.UniversalClient, ttl time.Duration, logger *logging.Logger) *RedisCache {
	if ttl == 0 {
		ttl = defaultCacheTTL
	}

	return &RedisCache{
		client: client,
		ttl:    ttl,
		logger: logger.Component("cache"),
	}
}

// WithObserver attaches a lookup observer.
func (c *RedisCache) WithObserver(o CacheObserver) *RedisCache {
	c.observer = o
	return c
}

func (c *RedisCache) GetMenu(ctx context.Context, restaurantID string) (*models.Menu, error) {
	var menu models.Menu
	ok, err := c.get(ctx, "menu", menuKeyPrefix+restaurantID, &menu)
	if err != nil || !ok {
		return nil, err
	}
	return &menu, nil
}

func (c *RedisCache) SetMenu(ctx context.Context, menu *models.Menu) error {
	return c.set(ctx, menuKeyPrefix+menu.RestaurantID, menu)
}

func (c *RedisCache) InvalidateMenu(ctx context.Context, restaurantID string) error {
	return c.del(ctx, menuKeyPrefix+restaurantID)
}

func (c *RedisCache) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	ok, err := c.get(ctx, "order", orderKeyPrefix+id, &order)
	if err != nil || !ok {
		return nil, err
	}
	return &order, nil
}

func (c *RedisCache) SetOrder(ctx context.Context, order *models.Order) error {
	return c.set(ctx, orderKeyPrefix+order.ID, order)
}

func (c *RedisCache) DeleteOrder(ctx context.Context, id string) error {
	return c.del(ctx, orderKeyPrefix+id)
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) get(ctx context.Context, kind, key string, dest interface{}) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		c.observe(kind, false)
		c.logger.Debug("Cache miss", logging.Fields{"key": key})
		return false, nil
	}
	if err != nil {
		c.logger.Error("Cache get error", logging.Fields{
			"key":   key,
			"error": err.Error(),
		})
		return false, err
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, err
	}

	c.observe(kind, true)
	return true, nil
}

func (c *RedisCache) set(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Error("Cache set error", logging.Fields{
			"key":   key,
			"error": err.Error(),
		})
		return err
	}
	return nil
}

func (c *RedisCache) del(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.logger.Error("Cache delete error", logging.Fields{
			"key":   key,
			"error": err.Error(),
		})
		return err
	}
	return nil
}

func (c *RedisCache) observe(kind string, hit bool) {
	if c.observer != nil {
		c.observer.CacheLookup(kind, hit)
	}
}
