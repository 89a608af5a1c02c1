package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	Signups             map[string]uint64
	Logins              map[string]uint64
	AuthFailures        map[string]uint64
	CartMutations       map[string]uint64
	CartDurationCount   uint64
	CartDurationTotalNs int64
	ProductsCreated     uint64
	ProductsDeleted     uint64
	CatalogCacheHits    uint64
	CatalogCacheMisses  uint64
	RateLimited         map[string]uint64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	mu           sync.Mutex
	signups      map[string]uint64
	logins       map[string]uint64
	authFailures map[string]uint64
	cartOps      map[string]uint64
	rateLimited  map[string]uint64

	cartDurationCount   uint64
	cartDurationTotalNs int64
	productsCreated     uint64
	productsDeleted     uint64
	catalogCacheHits    uint64
	catalogCacheMisses  uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		signups:      make(map[string]uint64),
		logins:       make(map[string]uint64),
		authFailures: make(map[string]uint64),
		cartOps:      make(map[string]uint64),
		rateLimited:  make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Snapshot{
		Signups:             copyCounts(m.signups),
		Logins:              copyCounts(m.logins),
		AuthFailures:        copyCounts(m.authFailures),
		CartMutations:       copyCounts(m.cartOps),
		RateLimited:         copyCounts(m.rateLimited),
		CartDurationCount:   atomic.LoadUint64(&m.cartDurationCount),
		CartDurationTotalNs: atomic.LoadInt64(&m.cartDurationTotalNs),
		ProductsCreated:     atomic.LoadUint64(&m.productsCreated),
		ProductsDeleted:     atomic.LoadUint64(&m.productsDeleted),
		CatalogCacheHits:    atomic.LoadUint64(&m.catalogCacheHits),
		CatalogCacheMisses:  atomic.LoadUint64(&m.catalogCacheMisses),
	}
}

func (m *InMemoryRecorder) inc(counts map[string]uint64, label string) {
	m.mu.Lock()
	counts[label]++
	m.mu.Unlock()
}

// IncSignup counts a signup attempt by outcome.
func (m *InMemoryRecorder) IncSignup(outcome string) { m.inc(m.signups, outcome) }

// IncLogin counts a login attempt by outcome.
func (m *InMemoryRecorder) IncLogin(outcome string) { m.inc(m.logins, outcome) }

// IncAuthFailure counts a rejected session token by reason.
func (m *InMemoryRecorder) IncAuthFailure(reason string) { m.inc(m.authFailures, reason) }

// IncCartMutation counts a cart add or remove.
func (m *InMemoryRecorder) IncCartMutation(op string) { m.inc(m.cartOps, op) }

// IncRateLimited counts a throttled request by scope.
func (m *InMemoryRecorder) IncRateLimited(scope string) { m.inc(m.rateLimited, scope) }

// ObserveCartMutationDuration records cart mutation latency.
func (m *InMemoryRecorder) ObserveCartMutationDuration(duration time.Duration) {
	atomic.AddUint64(&m.cartDurationCount, 1)
	atomic.AddInt64(&m.cartDurationTotalNs, duration.Nanoseconds())
}

// IncProductCreated increments products created counter.
func (m *InMemoryRecorder) IncProductCreated() {
	atomic.AddUint64(&m.productsCreated, 1)
}

// IncProductDeleted increments products deleted counter.
func (m *InMemoryRecorder) IncProductDeleted() {
	atomic.AddUint64(&m.productsDeleted, 1)
}

// IncCatalogCacheHit increments catalog cache hit counter.
func (m *InMemoryRecorder) IncCatalogCacheHit() {
	atomic.AddUint64(&m.catalogCacheHits, 1)
}

// IncCatalogCacheMiss increments catalog cache miss counter.
func (m *InMemoryRecorder) IncCatalogCacheMiss() {
	atomic.AddUint64(&m.catalogCacheMisses, 1)
}

func copyCounts(src map[string]uint64) map[string]uint64 {
	out := make(map[string]uint64, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
