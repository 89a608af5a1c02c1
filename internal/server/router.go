package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/storefront/storefront/internal/handler"
	"github.com/storefront/storefront/internal/metrics"
	"github.com/storefront/storefront/internal/middleware"
)

// multipartOverhead is added to the upload size limit to leave room for
// form boundaries and part headers.
const multipartOverhead = 64 << 10

// Handlers groups the HTTP handlers mounted by NewRouter.
type Handlers struct {
	Root     *handler.Handler
	Health   *handler.HealthHandler
	Metrics  *handler.MetricsHandler
	Users    *handler.UserHandler
	Cart     *handler.CartHandler
	Products *handler.ProductHandler
	Images   *handler.ImageHandler
}

// RouterConfig holds the middleware settings for NewRouter.
type RouterConfig struct {
	Logger         *slog.Logger
	IsDevelopment  bool
	AllowedOrigins []string
	MaxBodySize    int64
	MaxUploadSize  int64

	// Verifier checks session tokens on cart routes.
	Verifier middleware.TokenVerifier
	// Metrics receives auth failure and rate limit events.
	Metrics metrics.Recorder
	// Instrument, when set, records per-route HTTP metrics.
	Instrument func(http.Handler) http.Handler

	RateLimit middleware.RateLimitConfig
}

// NewRouter configures the chi router with all routes and middleware.
// Catalog routes are public; only cart routes pass through the session gate.
func NewRouter(cfg RouterConfig, h Handlers) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recoverer(cfg.Logger))
	if cfg.Instrument != nil {
		r.Use(cfg.Instrument)
	}
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment}))

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.AllowedOrigins
	r.Use(middleware.CORS(corsCfg))

	rateLimitCfg := cfg.RateLimit
	rateLimitCfg.Logger = cfg.Logger
	rateLimitCfg.Metrics = cfg.Metrics

	// Probes and root (no body)
	r.Get("/", h.Root.Root)
	r.Get("/healthz", h.Health.Healthz)
	r.Get("/readyz", h.Health.Readyz)
	r.Get("/metrics", h.Metrics.Metrics)
	r.Get("/images/{file}", h.Images.Serve)

	r.With(
		middleware.RateLimitIP(rateLimitCfg),
		middleware.MaxBodySize(cfg.MaxUploadSize+multipartOverhead),
	).Post("/upload", h.Images.Upload)

	r.Group(func(r chi.Router) {
		r.Use(middleware.MaxBodySize(cfg.MaxBodySize))

		// Catalog
		r.Post("/addproduct", h.Products.AddProduct)
		r.Post("/removeproduct", h.Products.RemoveProduct)
		r.Get("/allproducts", h.Products.AllProducts)
		r.Get("/newcollections", h.Products.NewCollections)
		r.Get("/popularinwomen", h.Products.PopularInWomen)

		// Accounts
		r.With(middleware.RateLimitIP(rateLimitCfg)).Post("/signup", h.Users.Signup)
		r.With(middleware.RateLimitIP(rateLimitCfg)).Post("/login", h.Users.Login)

		// Cart (session required)
		r.Group(func(r chi.Router) {
			r.Use(middleware.Session(middleware.SessionConfig{
				Logger:   cfg.Logger,
				Verifier: cfg.Verifier,
				Metrics:  cfg.Metrics,
			}))
			r.Use(middleware.RateLimitUser(rateLimitCfg))

			r.Post("/addtocart", h.Cart.AddToCart)
			r.Post("/removefromcart", h.Cart.RemoveFromCart)
			r.Post("/getcart", h.Cart.GetCart)
		})
	})

	// 404 and 405 handlers
	r.NotFound(h.Root.NotFound)
	r.MethodNotAllowed(h.Root.MethodNotAllowed)

	return r
}
