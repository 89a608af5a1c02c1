// Package main is the entrypoint for the Storefront API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/storefront/storefront/internal/auth"
	"github.com/storefront/storefront/internal/cache"
	"github.com/storefront/storefront/internal/config"
	"github.com/storefront/storefront/internal/handler"
	"github.com/storefront/storefront/internal/metrics"
	"github.com/storefront/storefront/internal/middleware"
	"github.com/storefront/storefront/internal/repository"
	"github.com/storefront/storefront/internal/server"
	"github.com/storefront/storefront/internal/service"
	"github.com/storefront/storefront/internal/storage"
)

// Local limiter buckets idle this long are dropped.
const (
	limiterCleanupInterval = time.Minute
	limiterMaxIdle         = 10 * time.Minute
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg)

	// Initialize database
	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	logger.Info("connected to database")

	if cfg.AutoMigrate {
		if err := repo.Migrate(ctx); err != nil {
			logger.Error("failed to apply migrations", slog.String("error", sanitizeError(err, cfg.DatabaseURL)))
			repo.Close()
			os.Exit(1)
		}
		logger.Info("database migrations applied")
	}

	metricsRecorder := metrics.NewPrometheus()

	// Initialize cache (optional)
	var (
		catalogCache service.CatalogCache = cache.NoopCatalogCache{}
		limiter      middleware.Limiter
		cacheHealth  handler.HealthChecker
		catalogCheck handler.HealthChecker
		cacheClient  *cache.Cache
	)
	if cfg.RedisURL != "" {
		cacheClient, err = cache.New(ctx, cache.Options{
			URL:          cfg.RedisURL,
			KeyPrefix:    cfg.RedisKeyPrefix,
			PoolSize:     cfg.RedisPoolSize,
			MinIdleConns: cfg.RedisMinIdleConns,
		})
		if err != nil {
			logger.Error(
				"failed to connect to Redis",
				slog.String("error", sanitizeError(err, cfg.RedisURL)),
				slog.String("redis_url", redactURL(cfg.RedisURL)),
			)
			repo.Close()
			os.Exit(1)
		}
		logger.Info("connected to Redis")
		redisCatalog := cache.NewCatalogCache(cacheClient, cfg.CatalogCacheTTL)
		catalogCache = redisCatalog
		limiter = cache.NewRateLimiter(cacheClient)
		cacheHealth = cacheClient
		catalogCheck = handler.HealthCheckFunc(func(ctx context.Context) error {
			_, err := redisCatalog.Generation(ctx)
			return err
		})
	} else {
		logger.Warn("REDIS_URL not set: catalog cache disabled, rate limits are per instance")
		local := middleware.NewLocalLimiter()
		local.StartCleanup(ctx, limiterCleanupInterval, limiterMaxIdle)
		limiter = local
	}

	// Initialize image storage
	images, err := newImageStore(ctx, cfg)
	if err != nil {
		logger.Error("failed to initialize image storage", slog.String("error", err.Error()))
		os.Exit(1)
	}

	tokens, err := auth.NewTokenService(cfg.SecretKey)
	if err != nil {
		logger.Error("failed to initialize token service", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize services
	userService := service.NewUserService(repo, tokens, metricsRecorder)
	cartService := service.NewCartService(repo, metricsRecorder)
	catalogService := service.NewCatalogService(repo, catalogCache, metricsRecorder, logger)

	// Setup router
	r := server.NewRouter(server.RouterConfig{
		Logger:         logger,
		IsDevelopment:  cfg.IsDevelopment(),
		AllowedOrigins: cfg.GetCORSAllowedOrigins(),
		MaxBodySize:    cfg.MaxRequestBodySize,
		MaxUploadSize:  cfg.MaxUploadSize,
		Verifier:       tokens,
		Metrics:        metricsRecorder,
		Instrument:     metricsRecorder.InstrumentHandler,
		RateLimit: middleware.RateLimitConfig{
			Limiter: limiter,
			Enabled: cfg.RateLimitEnabled,
			RPS:     cfg.RateLimitRPS,
			Burst:   cfg.RateLimitBurst,
		},
	}, server.Handlers{
		Root:     handler.New(),
		Health: handler.NewHealthHandler(
			handler.ReadinessCheck{Name: "postgres", Checker: repo},
			handler.ReadinessCheck{Name: "redis", Checker: cacheHealth},
			handler.ReadinessCheck{Name: "catalog_cache", Checker: catalogCheck},
			handler.ReadinessCheck{Name: "images", Checker: images},
		),
		Metrics:  handler.NewMetricsHandler(metricsRecorder.Gatherer(), logger),
		Users:    handler.NewUserHandler(userService, logger),
		Cart:     handler.NewCartHandler(cartService, logger),
		Products: handler.NewProductHandler(catalogService, logger),
		Images:   handler.NewImageHandler(images, cfg.BaseURL, cfg.MaxUploadSize, logger),
	})

	// Create and run server
	srv := server.New(
		r,
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)

	srv.OnShutdown("postgres", func(context.Context) error {
		repo.Close()
		return nil
	})
	if cacheClient != nil {
		srv.OnShutdown("redis", func(context.Context) error {
			return cacheClient.Close()
		})
	}
	srv.OnShutdown("background", func(context.Context) error {
		cancel()
		return nil
	})

	logger.Info("starting server",
		"port", cfg.AppPort,
		"base_url", cfg.BaseURL,
		"env", cfg.AppEnv,
		"image_storage", imageBackend(cfg),
	)

	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// newImageStore returns the S3 store when a bucket is configured and the
// local directory store otherwise.
func newImageStore(ctx context.Context, cfg *config.Config) (storage.ImageStore, error) {
	if cfg.UseS3() {
		return storage.NewS3Store(ctx, storage.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
	}
	return storage.NewLocalStore(cfg.UploadDir)
}

func imageBackend(cfg *config.Config) string {
	if cfg.UseS3() {
		return "s3"
	}
	return "local"
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	level := parseLogLevel(cfg.LogLevel)

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
