package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/storefront/storefront/internal/cache"
	"github.com/storefront/storefront/internal/model"
	"github.com/storefront/storefront/internal/repository"
)

// MemoryStore is an in-memory user and product store with the same
// semantics and sentinel errors as the Postgres repository.
type MemoryStore struct {
	mu       sync.Mutex
	users    map[string]*model.User
	byEmail  map[string]string
	products []*model.Product
	nextID   int64

	// Err, when set, is returned by every call.
	Err error
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:   make(map[string]*model.User),
		byEmail: make(map[string]string),
		nextID:  1,
	}
}

// CreateUser stores a copy of user.
func (s *MemoryStore) CreateUser(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}

	if _, ok := s.byEmail[user.Email]; ok {
		return repository.ErrEmailExists
	}
	u := *user
	u.CartData = user.CartData.Clone()
	s.users[u.ID] = &u
	s.byEmail[u.Email] = u.ID
	return nil
}

// GetUserByEmail returns a copy of the user registered under email.
func (s *MemoryStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}

	id, ok := s.byEmail[email]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return s.copyUser(id), nil
}

// GetUserByID returns a copy of the user with id.
func (s *MemoryStore) GetUserByID(_ context.Context, id string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}

	if _, ok := s.users[id]; !ok {
		return nil, repository.ErrUserNotFound
	}
	return s.copyUser(id), nil
}

// GetCartData returns a copy of the user's cart.
func (s *MemoryStore) GetCartData(_ context.Context, userID string) (model.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}

	u, ok := s.users[userID]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return u.CartData.Clone(), nil
}

// AdjustCartSlot adds delta to a slot, flooring at zero.
func (s *MemoryStore) AdjustCartSlot(_ context.Context, userID string, slot, delta int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}

	u, ok := s.users[userID]
	if !ok {
		return 0, repository.ErrUserNotFound
	}
	qty := max(u.CartData.Quantity(slot)+delta, 0)
	u.CartData[model.SlotKey(slot)] = qty
	return qty, nil
}

// UserCount returns the number of stored users.
func (s *MemoryStore) UserCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

// CreateProduct appends p and assigns the next ID.
func (s *MemoryStore) CreateProduct(_ context.Context, p *model.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}

	p.ID = s.nextID
	s.nextID++
	cp := *p
	s.products = append(s.products, &cp)
	return nil
}

// DeleteProduct removes and returns the product with id.
func (s *MemoryStore) DeleteProduct(_ context.Context, id int64) (*model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}

	for i, p := range s.products {
		if p.ID == id {
			s.products = append(s.products[:i], s.products[i+1:]...)
			return p, nil
		}
	}
	return nil, repository.ErrProductNotFound
}

// ListProducts returns all products in ID order.
func (s *MemoryStore) ListProducts(_ context.Context) ([]*model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	return s.copyProducts(s.products), nil
}

// ListNewCollection mirrors the repository query: the last limit products
// after the first one, oldest first.
func (s *MemoryStore) ListNewCollection(_ context.Context, limit int) ([]*model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}

	if len(s.products) <= 1 {
		return []*model.Product{}, nil
	}
	rest := s.products[1:]
	if len(rest) > limit {
		rest = rest[len(rest)-limit:]
	}
	return s.copyProducts(rest), nil
}

// ListProductsByCategory returns up to limit products in category.
func (s *MemoryStore) ListProductsByCategory(_ context.Context, category string, limit int) ([]*model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}

	out := make([]*model.Product, 0, limit)
	for _, p := range s.products {
		if p.Category == category {
			cp := *p
			out = append(out, &cp)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (s *MemoryStore) copyUser(id string) *model.User {
	u := *s.users[id]
	u.CartData = u.CartData.Clone()
	return &u
}

func (s *MemoryStore) copyProducts(src []*model.Product) []*model.Product {
	out := make([]*model.Product, len(src))
	for i, p := range src {
		cp := *p
		out[i] = &cp
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// MemoryCatalogCache is an in-memory catalog cache that records invalidations.
type MemoryCatalogCache struct {
	mu            sync.Mutex
	views         map[string][]*model.Product
	generation    int64
	invalidations int

	// GetErr, when set, is returned by GetProducts instead of a hit or miss.
	GetErr error
}

// NewMemoryCatalogCache returns an empty MemoryCatalogCache.
func NewMemoryCatalogCache() *MemoryCatalogCache {
	return &MemoryCatalogCache{views: make(map[string][]*model.Product)}
}

// Generation returns the number of invalidations so far.
func (c *MemoryCatalogCache) Generation(context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation, nil
}

// GetProducts returns the cached view or cache.ErrCacheMiss.
func (c *MemoryCatalogCache) GetProducts(_ context.Context, view string) ([]*model.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.GetErr != nil {
		return nil, c.GetErr
	}

	products, ok := c.views[view]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return products, nil
}

// SetProducts caches a view unless the generation moved past gen.
func (c *MemoryCatalogCache) SetProducts(_ context.Context, view string, gen int64, products []*model.Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return cache.ErrStaleGeneration
	}
	c.views[view] = products
	return nil
}

// Invalidate drops every view and advances the generation.
func (c *MemoryCatalogCache) Invalidate(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.views = make(map[string][]*model.Product)
	c.generation++
	c.invalidations++
	return nil
}

// Cached reports whether view is currently cached.
func (c *MemoryCatalogCache) Cached(view string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.views[view]
	return ok
}

// Invalidations returns how many times Invalidate was called.
func (c *MemoryCatalogCache) Invalidations() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.invalidations
}
