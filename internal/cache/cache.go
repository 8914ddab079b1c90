// Package cache wraps the Redis client used for request counters.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client wraps redis.Client. A nil Client behaves like an unavailable Redis.
type Client struct {
	client *redis.Client
}

// New creates a client from a redis:// URL. password overrides the one in the URL when set.
func New(url, password string) (*Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if password != "" {
		opts.Password = password
	}
	return &Client{client: redis.NewClient(opts)}, nil
}

// Ping checks connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return redis.ErrClosed
	}
	return c.client.Ping(ctx).Err()
}

// Incr increments key and starts its expiry window on first use. It returns
// the new count and the time left in the window.
func (c *Client) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	if c == nil || c.client == nil {
		return 0, 0, redis.ErrClosed
	}

	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, window)
		ttl = pipe.PTTL(ctx, key)
		return nil
	})
	if err != nil {
		return 0, 0, fmt.Errorf("increment %s: %w", key, err)
	}
	return incr.Val(), ttl.Val(), nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}
