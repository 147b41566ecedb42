// Package redis opens the go-redis client backing the aggregate status cache.
package redis

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"talentkyc/internal/platform/config"
)

// Client is a connected go-redis client. It satisfies goredis.Cmdable and can
// be handed to statuscache.NewRedis directly.
type Client struct {
	*goredis.Client
}

// New applies the pool settings from cfg and pings the server once. An empty
// URL means the cache runs in process, so New returns a nil client.
func New(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}
	opts, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	applyPool(opts, cfg)

	rdb := goredis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &Client{Client: rdb}, nil
}

func applyPool(opts *goredis.Options, cfg config.RedisConfig) {
	opts.MinIdleConns = cfg.MinIdleConns
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if cfg.ReadTimeout > 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}
}

// Health is used by the /health endpoint.
func (c *Client) Health(ctx context.Context) error {
	if err := c.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis unhealthy: %w", err)
	}
	return nil
}
