package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/ckcelina/my-wishlist-sub002/internal/auth"
	"github.com/ckcelina/my-wishlist-sub002/internal/config"
	"github.com/ckcelina/my-wishlist-sub002/internal/event"
	"github.com/ckcelina/my-wishlist-sub002/internal/extraction"
	"github.com/ckcelina/my-wishlist-sub002/internal/fetcher"
	handler "github.com/ckcelina/my-wishlist-sub002/internal/handler/http"
	"github.com/ckcelina/my-wishlist-sub002/internal/repository"
	"github.com/ckcelina/my-wishlist-sub002/internal/repository/postgres"
	redisrepo "github.com/ckcelina/my-wishlist-sub002/internal/repository/redis"
	"github.com/ckcelina/my-wishlist-sub002/internal/service"
	"github.com/ckcelina/my-wishlist-sub002/migrations"
	"github.com/ckcelina/my-wishlist-sub002/pkg/database"
	"github.com/ckcelina/my-wishlist-sub002/pkg/health"
	pkgkafka "github.com/ckcelina/my-wishlist-sub002/pkg/kafka"
	"github.com/ckcelina/my-wishlist-sub002/pkg/middleware"
	"github.com/ckcelina/my-wishlist-sub002/pkg/tracing"
)

const serviceName = "wishlist-service"

// App wires together all dependencies and runs the wishlist import service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	rdb            *redis.Client
	producer       *pkgkafka.Producer
	limiter        *middleware.RateLimiter
	shutdownTracer func(context.Context) error
	httpServer     *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}
	if err := a.init(ctx); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	cfg, logger := a.cfg, a.logger

	// Initialize tracing.
	shutdownTracer, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: cfg.ServiceVersion,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	a.shutdownTracer = shutdownTracer

	// Initialize PostgreSQL connection pool and schema.
	pgCfg := database.PostgresConfig{
		URL:             cfg.DatabaseURL,
		Host:            cfg.PostgresHost,
		Port:            cfg.PostgresPort,
		User:            cfg.PostgresUser,
		Password:        cfg.PostgresPass,
		DBName:          cfg.PostgresDB,
		SSLMode:         cfg.PostgresSSL,
		MaxConns:        cfg.PostgresMaxConns,
		MinConns:        2,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
	}
	a.pool, err = database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	if err := database.RunMigrations(ctx, a.pool, migrations.FS, logger); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, a.pool, serviceName); err != nil {
		logger.Warn("failed to register pool metrics", slog.String("error", err.Error()))
	}
	database.SetSlowQueryLogging(cfg.SlowQueryThreshold, logger)
	logger.Info("connected to PostgreSQL", slog.String("database", cfg.PostgresDB))

	healthHandler := health.NewHandler()
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return a.pool.Ping(ctx)
	})

	// Page cache.
	var pageCache repository.PageCache
	if cfg.RedisEnabled {
		a.rdb, err = database.NewRedisClient(ctx, database.RedisConfig{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPass,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		pageCache = redisrepo.NewPageCache(a.rdb)
		healthHandler.RegisterOptional("redis", func(ctx context.Context) error {
			return a.rdb.Ping(ctx).Err()
		})
		logger.Info("page cache enabled", slog.Duration("ttl", cfg.PageCacheTTL))
	}

	// Import events.
	var publisher event.Publisher = event.NopPublisher{}
	if cfg.KafkaEnabled {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		publisher = event.NewProducer(a.producer, cfg.KafkaImportTopic, logger)
		healthHandler.RegisterOptional("kafka", a.producer.Ping)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}

	// Extraction engine and classifier.
	var (
		completer  extraction.Completer = extraction.DisabledCompleter{}
		classifier service.Classifier
	)
	if cfg.LLMEnabled() {
		completer = extraction.NewAnthropicCompleter(extraction.AnthropicConfig{
			APIKey:    cfg.AnthropicAPIKey,
			BaseURL:   cfg.AnthropicBaseURL,
			Model:     cfg.LLMModel,
			MaxTokens: cfg.LLMMaxTokens,
			Timeout:   cfg.LLMTimeout,
		}, logger)
	}
	engine := extraction.NewEngine(completer, cfg.LLMMaxInputChars, logger)
	if cfg.LLMEnabled() {
		classifier = engine
	} else {
		classifier = service.NewKeywordClassifier()
		logger.Warn("no language model configured, using structured data extraction and keyword classification")
	}

	// Build the dependency graph.
	wishlists := postgres.NewWishlistRepository(a.pool)
	stores := postgres.NewStoreRepository(a.pool)
	pageFetcher := fetcher.New(fetcher.Config{
		Timeout:              cfg.FetchTimeout,
		MaxBytes:             cfg.FetchMaxBytes,
		UserAgent:            cfg.FetchUserAgent,
		CacheTTL:             cfg.PageCacheTTL,
		AllowPrivateNetworks: cfg.FetchAllowPrivateNetworks,
	}, pageCache, logger)

	importService := service.NewImportService(
		wishlists,
		pageFetcher,
		engine,
		service.NewAvailabilityChecker(stores, logger),
		publisher,
		logger,
	)
	importHandler := handler.NewImportHandler(
		importService,
		service.NewDuplicateDetector(engine, logger),
		service.NewAutoGrouper(classifier, logger),
		logger,
	)

	// HTTP router.
	verifier := auth.NewVerifier(cfg.JWTSecret, cfg.JWTAudience, cfg.JWTIssuer)
	a.limiter = middleware.NewRateLimiter(cfg.AIRateLimitRPS, cfg.AIRateLimitBurst, 10*time.Minute, logger)
	router := handler.NewRouter(importHandler, healthHandler, verifier.Validate, a.limiter, handler.RouterConfig{
		RequestTimeout:    cfg.RequestTimeout,
		TrustProxyHeaders: cfg.TrustProxyHeaders,
	}, logger)

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		a.close()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}
	if a.shutdownTracer != nil {
		if err := a.shutdownTracer(shutdownCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
		}
		a.shutdownTracer = nil
	}
	a.close()

	a.logger.Info("application shutdown complete")
	return nil
}

// close releases whatever init managed to open.
func (a *App) close() {
	if a.limiter != nil {
		a.limiter.Stop()
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
}
