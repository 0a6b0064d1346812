package redis

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"reconviewer/internal/model"
)

const defaultKeyPrefix = "reconviewer:resp:"

// CacheConfig configures the Redis response cache.
type CacheConfig struct {
	Addr     string // Redis address, e.g. "localhost:6379"
	Password string
	DB       int
	TTL      time.Duration // <= 0 keeps entries until evicted
	Prefix   string        // key namespace, defaults to "reconviewer:resp:"
}

// Cache stores backend response bodies in Redis with a TTL.
type Cache struct {
	client *goredis.Client
	ttl    time.Duration
	prefix string
}

var _ model.ResponseCache = (*Cache)(nil)

// Client returns the underlying Redis client for health checks.
func (c *Cache) Client() *goredis.Client { return c.client }

// NewCache connects to Redis and pings the server.
func NewCache(cfg CacheConfig) (*Cache, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Printf("[redis] response cache connected to %s (ttl=%s)", cfg.Addr, cfg.TTL)
	return newCache(client, cfg), nil
}

func newCache(client *goredis.Client, cfg CacheConfig) *Cache {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &Cache{client: client, ttl: cfg.TTL, prefix: prefix}
}

// Key returns the Redis key for a request path.
func (c *Cache) Key(path string) string {
	return c.prefix + path
}

// Get implements model.ResponseCache.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	body, err := c.client.Get(ctx, c.Key(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	return body, true, nil
}

// Put implements model.ResponseCache.
func (c *Cache) Put(ctx context.Context, key string, body []byte) error {
	ttl := c.ttl
	if ttl < 0 {
		ttl = 0
	}
	if err := c.client.Set(ctx, c.Key(key), body, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Close implements model.ResponseCache.
func (c *Cache) Close() error {
	return c.client.Close()
}
