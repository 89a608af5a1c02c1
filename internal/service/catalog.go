package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/storefront/storefront/internal/cache"
	"github.com/storefront/storefront/internal/metrics"
	"github.com/storefront/storefront/internal/model"
	"github.com/storefront/storefront/internal/repository"
)

// Catalog list views, also used as cache keys.
const (
	ViewAll            = "all"
	ViewNewCollections = "newcollections"
	ViewPopularInWomen = "popularinwomen"
)

const (
	newCollectionSize = 8
	popularSize       = 4
)

// ProductStore persists catalog products.
type ProductStore interface {
	CreateProduct(ctx context.Context, p *model.Product) error
	DeleteProduct(ctx context.Context, id int64) (*model.Product, error)
	ListProducts(ctx context.Context) ([]*model.Product, error)
	ListNewCollection(ctx context.Context, limit int) ([]*model.Product, error)
	ListProductsByCategory(ctx context.Context, category string, limit int) ([]*model.Product, error)
}

// CatalogCache caches product list views. GetProducts returns
// cache.ErrCacheMiss when a view is not cached. Invalidate advances the
// generation; SetProducts refuses views loaded under an older one with
// cache.ErrStaleGeneration.
type CatalogCache interface {
	Generation(ctx context.Context) (int64, error)
	GetProducts(ctx context.Context, view string) ([]*model.Product, error)
	SetProducts(ctx context.Context, view string, gen int64, products []*model.Product) error
	Invalidate(ctx context.Context) error
}

// CatalogService handles product catalog business logic.
type CatalogService struct {
	store   ProductStore
	cache   CatalogCache
	metrics metrics.Recorder
	logger  *slog.Logger
}

// NewCatalogService creates a new CatalogService. A nil cache disables caching.
func NewCatalogService(store ProductStore, catalogCache CatalogCache, recorder metrics.Recorder, logger *slog.Logger) *CatalogService {
	if catalogCache == nil {
		catalogCache = cache.NoopCatalogCache{}
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogService{
		store:   store,
		cache:   catalogCache,
		metrics: recorder,
		logger:  logger,
	}
}

// AddProductInput defines input for adding a product.
type AddProductInput struct {
	Name      string
	Image     string
	Category  string
	NewPrice  float64
	OldPrice  float64
	Available *bool
	Date      *time.Time
}

// AddProduct appends a product to the catalog. The store assigns its ID.
func (s *CatalogService) AddProduct(ctx context.Context, input AddProductInput) (*model.Product, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Category = strings.ToLower(strings.TrimSpace(input.Category))
	if err := validateProduct(input); err != nil {
		return nil, err
	}

	p := &model.Product{
		Name:      input.Name,
		Image:     input.Image,
		Category:  input.Category,
		NewPrice:  input.NewPrice,
		OldPrice:  input.OldPrice,
		Date:      time.Now().UTC(),
		Available: true,
	}
	if input.Date != nil {
		p.Date = input.Date.UTC()
	}
	if input.Available != nil {
		p.Available = *input.Available
	}

	if err := s.store.CreateProduct(ctx, p); err != nil {
		return nil, s.persistenceErr("failed to create product", err)
	}

	s.metrics.IncProductCreated()
	s.invalidate(ctx)
	return p, nil
}

// RemoveProduct deletes a product and returns it.
func (s *CatalogService) RemoveProduct(ctx context.Context, id int64) (*model.Product, error) {
	p, err := s.store.DeleteProduct(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, s.persistenceErr("failed to delete product", err)
	}

	s.metrics.IncProductDeleted()
	s.invalidate(ctx)
	return p, nil
}

// AllProducts returns every product in insertion order.
func (s *CatalogService) AllProducts(ctx context.Context) ([]*model.Product, error) {
	return s.view(ctx, ViewAll, s.store.ListProducts)
}

// NewCollections returns the most recently added products, excluding the
// very first one, oldest first.
func (s *CatalogService) NewCollections(ctx context.Context) ([]*model.Product, error) {
	return s.view(ctx, ViewNewCollections, func(ctx context.Context) ([]*model.Product, error) {
		return s.store.ListNewCollection(ctx, newCollectionSize)
	})
}

// PopularInWomen returns the first products in the women category.
func (s *CatalogService) PopularInWomen(ctx context.Context) ([]*model.Product, error) {
	return s.view(ctx, ViewPopularInWomen, func(ctx context.Context) ([]*model.Product, error) {
		return s.store.ListProductsByCategory(ctx, model.CategoryWomen, popularSize)
	})
}

// view reads through the catalog cache. Cache failures fall back to the store.
func (s *CatalogService) view(ctx context.Context, name string, load func(context.Context) ([]*model.Product, error)) ([]*model.Product, error) {
	products, err := s.cache.GetProducts(ctx, name)
	if err == nil {
		s.metrics.IncCatalogCacheHit()
		return products, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("catalog_cache_get_failed", "view", name, "error", err)
	}
	s.metrics.IncCatalogCacheMiss()

	// The generation must be read before loading so a concurrent add or
	// remove makes the write-back below fail.
	gen, genErr := s.cache.Generation(ctx)
	if genErr != nil {
		s.logger.Warn("catalog_cache_generation_failed", "view", name, "error", genErr)
	}

	products, err = load(ctx)
	if err != nil {
		return nil, storeErr("failed to list "+name, err)
	}
	if genErr != nil {
		return products, nil
	}

	err = s.cache.SetProducts(ctx, name, gen, products)
	switch {
	case errors.Is(err, cache.ErrStaleGeneration):
		s.logger.Debug("catalog_cache_set_skipped", "view", name, "generation", gen)
	case err != nil:
		s.logger.Warn("catalog_cache_set_failed", "view", name, "error", err)
	}
	return products, nil
}

func (s *CatalogService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("catalog_cache_invalidate_failed", "error", err)
	}
}

func (s *CatalogService) persistenceErr(op string, err error) error {
	if errors.Is(err, repository.ErrUnavailable) {
		return storeErr(op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrProductPersistence, err)
}
