// Package cache provides the Redis-backed catalog cache and rate limiter.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned when a key is absent from the cache.
var ErrCacheMiss = errors.New("cache miss")

const (
	defaultPoolSize     = 10
	defaultMinIdleConns = 2
	poolTimeout         = 4 * time.Second
	connMaxIdleTime     = 5 * time.Minute
)

// Options configures the Redis connection.
type Options struct {
	URL string
	// KeyPrefix is prepended to every key written by this package so that
	// several deployments can share one Redis database.
	KeyPrefix    string
	PoolSize     int
	MinIdleConns int
}

// Cache owns the Redis client and the storefront key namespace.
type Cache struct {
	client *redis.Client
	prefix string
}

// New connects to Redis and verifies the connection.
func New(ctx context.Context, opts Options) (*Cache, error) {
	ropt, err := clientOptions(opts)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(ropt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return &Cache{client: client, prefix: opts.KeyPrefix}, nil
}

func clientOptions(opts Options) (*redis.Options, error) {
	ropt, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	ropt.PoolSize = defaultPoolSize
	if opts.PoolSize > 0 {
		ropt.PoolSize = opts.PoolSize
	}
	ropt.MinIdleConns = min(defaultMinIdleConns, ropt.PoolSize)
	if opts.MinIdleConns > 0 {
		ropt.MinIdleConns = min(opts.MinIdleConns, ropt.PoolSize)
	}
	ropt.PoolTimeout = poolTimeout
	ropt.ConnMaxIdleTime = connMaxIdleTime
	return ropt, nil
}

// key builds a namespaced key: key("catalog", "all") is "<prefix>catalog:all".
func (c *Cache) key(parts ...string) string {
	return c.prefix + strings.Join(parts, ":")
}

// Ping checks Redis connectivity.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Client returns the underlying Redis client.
func (c *Cache) Client() *redis.Client {
	return c.client
}
