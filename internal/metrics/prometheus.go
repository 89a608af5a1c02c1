package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "storefront"

// PrometheusRecorder exports Recorder events as Prometheus collectors.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	signups         *prometheus.CounterVec
	logins          *prometheus.CounterVec
	authFailures    *prometheus.CounterVec
	cartMutations   *prometheus.CounterVec
	cartDuration    prometheus.Histogram
	productsCreated prometheus.Counter
	productsDeleted prometheus.Counter
	catalogCache    *prometheus.CounterVec
	rateLimited     *prometheus.CounterVec

	httpInFlight prometheus.Gauge
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// NewPrometheus creates a recorder backed by its own registry.
func NewPrometheus() *PrometheusRecorder {
	p := &PrometheusRecorder{
		registry: prometheus.NewRegistry(),
		signups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "account", Name: "signups_total",
			Help: "Signup attempts by outcome.",
		}, []string{"outcome"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "account", Name: "logins_total",
			Help: "Login attempts by outcome.",
		}, []string{"outcome"}),
		authFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "session", Name: "auth_failures_total",
			Help: "Requests rejected by the session gate.",
		}, []string{"reason"}),
		cartMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "cart", Name: "mutations_total",
			Help: "Cart slot mutations by operation.",
		}, []string{"op"}),
		cartDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "cart", Name: "mutation_duration_seconds",
			Help:    "Duration of cart slot mutations.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		}),
		productsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "catalog", Name: "products_created_total",
			Help: "Products added to the catalog.",
		}),
		productsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "catalog", Name: "products_deleted_total",
			Help: "Products removed from the catalog.",
		}),
		catalogCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "catalog", Name: "cache_lookups_total",
			Help: "Catalog cache lookups by result.",
		}, []string{"result"}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "http", Name: "rate_limited_total",
			Help: "Requests rejected by the rate limiter.",
		}, []string{"scope"}),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "http", Name: "inflight_requests",
			Help: "Current number of in-flight HTTP requests.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "http", Name: "requests_total",
			Help: "Total number of HTTP requests handled.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "http", Name: "request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		}, []string{"method", "route"}),
	}

	p.registry.MustRegister(
		p.signups,
		p.logins,
		p.authFailures,
		p.cartMutations,
		p.cartDuration,
		p.productsCreated,
		p.productsDeleted,
		p.catalogCache,
		p.rateLimited,
		p.httpInFlight,
		p.httpRequests,
		p.httpDuration,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
	return p
}

// Gatherer exposes the registry for scraping and tests.
func (p *PrometheusRecorder) Gatherer() prometheus.Gatherer {
	return p.registry
}

func (p *PrometheusRecorder) IncSignup(outcome string)     { p.signups.WithLabelValues(outcome).Inc() }
func (p *PrometheusRecorder) IncLogin(outcome string)      { p.logins.WithLabelValues(outcome).Inc() }
func (p *PrometheusRecorder) IncAuthFailure(reason string) { p.authFailures.WithLabelValues(reason).Inc() }
func (p *PrometheusRecorder) IncCartMutation(op string)    { p.cartMutations.WithLabelValues(op).Inc() }
func (p *PrometheusRecorder) IncProductCreated()           { p.productsCreated.Inc() }
func (p *PrometheusRecorder) IncProductDeleted()           { p.productsDeleted.Inc() }
func (p *PrometheusRecorder) IncCatalogCacheHit()          { p.catalogCache.WithLabelValues("hit").Inc() }
func (p *PrometheusRecorder) IncCatalogCacheMiss()         { p.catalogCache.WithLabelValues("miss").Inc() }
func (p *PrometheusRecorder) IncRateLimited(scope string)  { p.rateLimited.WithLabelValues(scope).Inc() }

func (p *PrometheusRecorder) ObserveCartMutationDuration(duration time.Duration) {
	p.cartDuration.Observe(duration.Seconds())
}

// InstrumentHandler wraps next with HTTP request metrics. Routes are
// labelled by their chi pattern to keep cardinality bounded.
func (p *PrometheusRecorder) InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		p.httpInFlight.Inc()
		defer p.httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		p.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		p.httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
