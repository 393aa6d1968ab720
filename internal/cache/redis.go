// Package cache provides the Redis cache access layer.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultListTTL bounds how stale a cached user list can get if an invalidation is lost.
const DefaultListTTL = 30 * time.Second

// Cache provides Redis cache access methods.
type Cache struct {
	client  *redis.Client
	listTTL time.Duration
}

// New creates a new Cache with a Redis client.
func New(ctx context.Context, redisURL string, listTTL time.Duration) (*Cache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opt.PoolSize = 10
	opt.MinIdleConns = 1
	opt.PoolTimeout = 4 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute

	client := redis.NewClient(opt)

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return NewWithClient(client, listTTL), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client, listTTL time.Duration) *Cache {
	if listTTL <= 0 {
		listTTL = DefaultListTTL
	}
	return &Cache{client: client, listTTL: listTTL}
}

// Ping checks Redis connectivity.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Client returns the underlying Redis client, shared with the event publisher.
func (c *Cache) Client() *redis.Client {
	return c.client
}
