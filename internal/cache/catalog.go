package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/storefront/storefront/internal/model"
)

// DefaultCatalogTTL bounds staleness if an invalidation is lost.
const DefaultCatalogTTL = 5 * time.Minute

// ErrStaleGeneration is returned by SetProducts when the catalog changed
// after the caller read its generation. The view is not written.
var ErrStaleGeneration = errors.New("catalog generation changed")

// setViewScript writes a view only while the catalog generation still
// matches the one the caller loaded under.
//
// KEYS[1] generation, KEYS[2] view, KEYS[3] view index
// ARGV[1] expected generation, ARGV[2] payload, ARGV[3] ttl ms
var setViewScript = redis.NewScript(`
	local current = redis.call('GET', KEYS[1]) or '0'
	if current ~= ARGV[1] then
		return 0
	end
	redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
	redis.call('SADD', KEYS[3], KEYS[2])
	redis.call('PEXPIRE', KEYS[3], ARGV[3])
	return 1
`)

// CatalogCache stores rendered product list views in Redis as JSON.
// Every add or remove bumps a generation counter; views loaded under an
// older generation are never written back.
type CatalogCache struct {
	cache *Cache
	ttl   time.Duration
}

// NewCatalogCache returns a catalog cache on c. A non-positive ttl uses
// DefaultCatalogTTL.
func NewCatalogCache(c *Cache, ttl time.Duration) *CatalogCache {
	if ttl <= 0 {
		ttl = DefaultCatalogTTL
	}
	return &CatalogCache{cache: c, ttl: ttl}
}

func (c *CatalogCache) viewKey(view string) string { return c.cache.key("catalog", view) }
func (c *CatalogCache) indexKey() string          { return c.cache.key("catalog", "_views") }
func (c *CatalogCache) generationKey() string     { return c.cache.key("catalog", "gen") }

// Generation returns the current catalog generation. A catalog that was
// never invalidated is at generation 0.
func (c *CatalogCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.cache.client.Get(ctx, c.generationKey()).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("redis get generation failed: %w", err)
	}
	return gen, nil
}

// GetProducts returns the cached products for view.
// Returns ErrCacheMiss if not found.
func (c *CatalogCache) GetProducts(ctx context.Context, view string) ([]*model.Product, error) {
	data, err := c.cache.client.Get(ctx, c.viewKey(view)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var products []*model.Product
	if err := json.Unmarshal(data, &products); err != nil {
		// Corrupt entry: drop it and treat as a miss.
		c.cache.client.Del(ctx, c.viewKey(view))
		return nil, ErrCacheMiss
	}
	return products, nil
}

// SetProducts caches products for view if the catalog is still at gen.
// Returns ErrStaleGeneration otherwise.
func (c *CatalogCache) SetProducts(ctx context.Context, view string, gen int64, products []*model.Product) error {
	data, err := json.Marshal(products)
	if err != nil {
		return fmt.Errorf("marshal catalog view: %w", err)
	}

	stored, err := setViewScript.Run(ctx, c.cache.client,
		[]string{c.generationKey(), c.viewKey(view), c.indexKey()},
		gen, data, c.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return fmt.Errorf("redis set view failed: %w", err)
	}
	if stored == 0 {
		return ErrStaleGeneration
	}
	return nil
}

// Invalidate bumps the generation and drops every cached catalog view.
func (c *CatalogCache) Invalidate(ctx context.Context) error {
	if err := c.cache.client.Incr(ctx, c.generationKey()).Err(); err != nil {
		return fmt.Errorf("redis incr generation failed: %w", err)
	}

	keys, err := c.cache.client.SMembers(ctx, c.indexKey()).Result()
	if err != nil {
		return fmt.Errorf("redis smembers failed: %w", err)
	}

	keys = append(keys, c.indexKey())
	if err := c.cache.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del failed: %w", err)
	}
	return nil
}

// NoopCatalogCache never stores anything. Used when Redis is not configured.
type NoopCatalogCache struct{}

// Generation is always 0.
func (NoopCatalogCache) Generation(context.Context) (int64, error) {
	return 0, nil
}

// GetProducts always misses.
func (NoopCatalogCache) GetProducts(context.Context, string) ([]*model.Product, error) {
	return nil, ErrCacheMiss
}

// SetProducts discards products.
func (NoopCatalogCache) SetProducts(context.Context, string, int64, []*model.Product) error {
	return nil
}

// Invalidate is a no-op.
func (NoopCatalogCache) Invalidate(context.Context) error {
	return nil
}
