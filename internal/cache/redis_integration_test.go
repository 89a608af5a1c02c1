//go:build integration

package cache_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/storefront/storefront/internal/cache"
	"github.com/storefront/storefront/internal/model"
	"github.com/storefront/storefront/internal/testutil"
)

func newTestCache(t *testing.T) *cache.Cache {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	url := testutil.RequireEnv(t, "REDIS_URL")
	ctx := context.Background()

	c, err := cache.New(ctx, cache.Options{URL: url, KeyPrefix: "storefront-test:"})
	if err != nil {
		t.Fatalf("connect redis: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	if err := testutil.FlushRedis(ctx, c.Client()); err != nil {
		t.Fatalf("flush redis: %v", err)
	}
	return c
}

func TestIntegrationCatalogCache_SetGetInvalidate(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	catalog := cache.NewCatalogCache(c, time.Minute)

	if _, err := catalog.GetProducts(ctx, "all"); !errors.Is(err, cache.ErrCacheMiss) {
		t.Fatalf("expected miss on empty cache, got %v", err)
	}

	gen, err := catalog.Generation(ctx)
	if err != nil {
		t.Fatalf("Generation: %v", err)
	}

	products := []*model.Product{{ID: 1, Name: "Tee", Category: model.CategoryWomen, NewPrice: 10, OldPrice: 12, Available: true}}
	if err := catalog.SetProducts(ctx, "all", gen, products); err != nil {
		t.Fatalf("SetProducts: %v", err)
	}
	if err := catalog.SetProducts(ctx, "popularinwomen", gen, products); err != nil {
		t.Fatalf("SetProducts: %v", err)
	}

	got, err := catalog.GetProducts(ctx, "all")
	if err != nil {
		t.Fatalf("GetProducts: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Tee" {
		t.Fatalf("unexpected cached products: %+v", got)
	}

	if err := catalog.Invalidate(ctx); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	for _, view := range []string{"all", "popularinwomen"} {
		if _, err := catalog.GetProducts(ctx, view); !errors.Is(err, cache.ErrCacheMiss) {
			t.Fatalf("view %s: expected miss after invalidate, got %v", view, err)
		}
	}
}

func TestIntegrationCatalogCache_StaleGenerationNotWritten(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	catalog := cache.NewCatalogCache(c, time.Minute)

	before, err := catalog.Generation(ctx)
	if err != nil {
		t.Fatalf("Generation: %v", err)
	}

	// A product is added while a reader holds a list loaded under before.
	if err := catalog.Invalidate(ctx); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}

	stale := []*model.Product{}
	err = catalog.SetProducts(ctx, "all", before, stale)
	if !errors.Is(err, cache.ErrStaleGeneration) {
		t.Fatalf("expected ErrStaleGeneration, got %v", err)
	}
	if _, err := catalog.GetProducts(ctx, "all"); !errors.Is(err, cache.ErrCacheMiss) {
		t.Fatalf("stale view must not be cached, got %v", err)
	}

	after, err := catalog.Generation(ctx)
	if err != nil {
		t.Fatalf("Generation: %v", err)
	}
	if after != before+1 {
		t.Fatalf("generation = %d, want %d", after, before+1)
	}
	if err := catalog.SetProducts(ctx, "all", after, stale); err != nil {
		t.Fatalf("SetProducts at current generation: %v", err)
	}
}

func TestIntegrationCache_KeysArePrefixed(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	catalog := cache.NewCatalogCache(c, time.Minute)
	if err := catalog.SetProducts(ctx, "all", 0, nil); err != nil {
		t.Fatalf("SetProducts: %v", err)
	}
	if _, err := cache.NewRateLimiter(c).Allow(ctx, "ip", "198.51.100.1", 1, 5); err != nil {
		t.Fatalf("Allow: %v", err)
	}

	keys, err := c.Client().Keys(ctx, "*").Result()
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if len(keys) == 0 {
		t.Fatal("expected keys to be written")
	}
	for _, k := range keys {
		if !strings.HasPrefix(k, "storefront-test:") {
			t.Errorf("key %q escapes the configured prefix", k)
		}
	}
}

func TestIntegrationRateLimiter_ExhaustsBurst(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	limiter := cache.NewRateLimiter(c)

	for i := 0; i < 3; i++ {
		res, err := limiter.Allow(ctx, "ip", "203.0.113.7", 0.01, 3)
		if err != nil {
			t.Fatalf("Allow: %v", err)
		}
		if !res.Allowed {
			t.Fatalf("request %d should be allowed", i)
		}
	}

	res, err := limiter.Allow(ctx, "ip", "203.0.113.7", 0.01, 3)
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if res.Allowed {
		t.Fatal("fourth request should be limited")
	}
	if res.RetryAfter <= 0 {
		t.Errorf("expected positive RetryAfter, got %s", res.RetryAfter)
	}

	// Other identities have their own bucket.
	res, err = limiter.Allow(ctx, "ip", "203.0.113.8", 0.01, 3)
	if err != nil || !res.Allowed {
		t.Fatalf("other ip should be allowed: %+v %v", res, err)
	}
}
