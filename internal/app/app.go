// Package app wires configuration, infrastructure and adapters into the running service
// and owns their lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/sean-rowe/weather-outfit/internal/adapters/primary/rest"
	"github.com/sean-rowe/weather-outfit/internal/adapters/secondary/weatherapi"
	"github.com/sean-rowe/weather-outfit/internal/config"
	"github.com/sean-rowe/weather-outfit/internal/core/ports"
	"github.com/sean-rowe/weather-outfit/internal/core/services"
	"github.com/sean-rowe/weather-outfit/internal/infrastructure/cache"
	"github.com/sean-rowe/weather-outfit/internal/infrastructure/circuitbreaker"
	"github.com/sean-rowe/weather-outfit/internal/infrastructure/database"
	"github.com/sean-rowe/weather-outfit/internal/infrastructure/docstore"
	"github.com/sean-rowe/weather-outfit/internal/infrastructure/ratelimit"
	"github.com/sean-rowe/weather-outfit/internal/middleware"
	"github.com/sean-rowe/weather-outfit/internal/observability"
)

// App manages the application lifecycle and dependencies.
type App struct {
	cfg       *config.Config
	logger    *zap.Logger
	server    *http.Server
	telemetry *observability.Telemetry
	db        *database.PostgresDB
	docs      *docstore.Store
	redis     *redis.Client
	breakers  *circuitbreaker.Manager
	stopBg    context.CancelFunc
}

// New loads configuration and builds the production logger.
func New() (*App, error) {
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	return &App{
		cfg:      cfg,
		logger:   logger,
		breakers: circuitbreaker.NewManager(logger),
	}, nil
}

// Start connects every dependency and starts serving. Postgres and Mongo are required;
// telemetry and Redis degrade to no-op and in-memory implementations.
func (a *App) Start(ctx context.Context) error {
	if err := a.initTelemetry(ctx); err != nil {
		a.logger.Warn("failed to initialize telemetry, continuing without it", zap.Error(err))
	}

	if err := a.initDatabase(ctx); err != nil {
		return err
	}

	if err := a.initDocStore(ctx); err != nil {
		return err
	}

	bgCtx, cancel := context.WithCancel(context.Background())
	a.stopBg = cancel

	cacheService, rateLimitService := a.initRedisServices(bgCtx)

	var metrics ports.MetricsRecorder = ports.NopMetrics{}
	if a.telemetry != nil {
		metrics = a.telemetry
	}

	dbAdapter := NewDatabaseAdapter(a.db)

	weatherService := services.NewWeatherService(services.Dependencies{
		Client:        a.initWeatherClient(),
		Cities:        dbAdapter,
		Precipitation: a.docs,
		Clothing:      a.docs,
		History:       dbAdapter,
		Cache:         cacheService,
		Metrics:       metrics,
	}, a.serviceSettings(), a.logger)

	router := a.setupRouter(
		rest.NewWeatherHandler(weatherService, a.logger),
		middleware.NewRateLimitMiddleware(rateLimitService, a.cfg.RateLimit.RPS, a.cfg.RateLimit.Window, a.logger),
		map[string]pinger{"postgres": a.db, "mongo": a.docs},
	)

	a.server = &http.Server{
		Addr:         ":" + a.cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
		IdleTimeout:  a.cfg.Server.IdleTimeout,
	}

	go func() {
		a.logger.Info("starting HTTP server", zap.String("port", a.cfg.Server.Port))

		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	return nil
}

// Stop gracefully shuts down all application components.
func (a *App) Stop() {
	a.logger.Info("shutting down application...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			a.logger.Error("failed to shutdown server gracefully", zap.Error(err))
		}
	}

	if a.stopBg != nil {
		a.stopBg()
	}

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("failed to close redis connection", zap.Error(err))
		}
	}

	if a.docs != nil {
		if err := a.docs.Disconnect(ctx); err != nil {
			a.logger.Error("failed to disconnect document store", zap.Error(err))
		}
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error("failed to close database connection", zap.Error(err))
		}
	}

	if a.telemetry != nil {
		if err := a.telemetry.Shutdown(ctx); err != nil {
			a.logger.Error("failed to shutdown telemetry", zap.Error(err))
		}
	}

	_ = a.logger.Sync()
}

// WaitForShutdown blocks until SIGINT or SIGTERM.
func (a *App) WaitForShutdown() {
	quit := make(chan os.Signal, 1)

	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	a.logger.Info("shutdown signal received")
}

func (a *App) initTelemetry(ctx context.Context) error {
	var err error

	a.telemetry, err = observability.InitTelemetry(ctx, observability.Config{
		ServiceName:    a.cfg.Observability.ServiceName,
		ServiceVersion: a.cfg.Observability.ServiceVersion,
		Environment:    a.cfg.Observability.Environment,
		OTLPEndpoint:   a.cfg.Observability.OTLPEndpoint,
		SampleRate:     a.cfg.Observability.SampleRate,
	}, a.logger)

	return err
}

func (a *App) initDatabase(ctx context.Context) error {
	db, err := database.NewPostgresDB(ctx, database.Config{
		DSN:                   a.cfg.Database.DSN(),
		MaxConnections:        a.cfg.Database.MaxConnections,
		MaxIdleConnections:    a.cfg.Database.MaxIdleConnections,
		ConnectionMaxLifetime: a.cfg.Database.ConnectionMaxLifetime,
		ConnectTimeout:        a.cfg.Database.ConnectTimeout,
	}, a.logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if a.telemetry != nil {
		db.SetQueryObserver(a.telemetry.RecordDBQuery)
	}

	a.db = db

	return nil
}

func (a *App) initDocStore(ctx context.Context) error {
	docs, err := docstore.Connect(ctx, docstore.Config{
		URI:                     a.cfg.Mongo.URI,
		Database:                a.cfg.Mongo.Database,
		ClothingCollection:      a.cfg.Mongo.ClothingCollection,
		PrecipitationCollection: a.cfg.Mongo.PrecipitationCollection,
		ConnectTimeout:          a.cfg.Mongo.ConnectTimeout,
	}, a.logger)
	if err != nil {
		return fmt.Errorf("failed to connect to document store: %w", err)
	}

	if err := docs.EnsureIndexes(ctx); err != nil {
		a.logger.Warn("failed to ensure document store indexes", zap.Error(err))
	}

	a.docs = docs

	return nil
}

// initRedisServices returns Redis-backed cache and rate limiting, or in-memory ones when
// Redis is disabled or unreachable. bgCtx bounds the memory limiter's eviction loop.
func (a *App) initRedisServices(bgCtx context.Context) (ports.CacheService, ports.RateLimitService) {
	fallback := func() (ports.CacheService, ports.RateLimitService) {
		limiter := ratelimit.NewMemoryRateLimiter(a.logger)
		go limiter.Run(bgCtx, 5*time.Minute)

		return cache.NewMemoryCache(5*time.Minute, 10*time.Minute, a.logger), limiter
	}

	if !a.cfg.Redis.Enabled {
		a.logger.Info("Redis disabled, using memory-based services")
		return fallback()
	}

	client, err := cache.NewRedisClient(bgCtx, cache.Config{
		Addr:         a.cfg.Redis.Addr,
		Password:     a.cfg.Redis.Password,
		DB:           a.cfg.Redis.DB,
		PoolSize:     a.cfg.Redis.PoolSize,
		MinIdleConns: a.cfg.Redis.MinIdleConns,
		MaxRetries:   a.cfg.Redis.MaxRetries,
		DialTimeout:  a.cfg.Redis.DialTimeout,
		ReadTimeout:  a.cfg.Redis.ReadTimeout,
		WriteTimeout: a.cfg.Redis.WriteTimeout,
	})
	if err != nil {
		a.logger.Warn("Redis connection failed, falling back to memory-based services", zap.Error(err))
		return fallback()
	}

	a.logger.Info("Redis connected successfully")
	a.redis = client

	return cache.NewRedisCache(client, a.logger), ratelimit.NewRedisRateLimiter(client, a.logger)
}

func (a *App) initWeatherClient() ports.WeatherClient {
	client := weatherapi.NewClient(
		a.cfg.WeatherAPI.BaseURL,
		a.cfg.WeatherAPI.APIKey,
		&http.Client{Timeout: a.cfg.WeatherAPI.HTTPTimeout},
		a.logger,
		weatherapi.WithRateLimit(a.cfg.WeatherAPI.RPS, a.cfg.WeatherAPI.Burst),
	)

	var onStateChange func(name, from, to string)
	if a.telemetry != nil {
		onStateChange = a.telemetry.RecordBreakerTransition
	}

	return NewCircuitBreakerWeatherClient(client, a.breakers, onStateChange)
}

func (a *App) serviceSettings() services.Settings {
	settings := services.DefaultSettings()
	settings.DefaultForecastDays = a.cfg.WeatherAPI.ForecastDays
	settings.CityCacheTTL = a.cfg.Cache.CityTTL
	settings.CoordinatesCacheTTL = a.cfg.Cache.CoordinatesTTL
	settings.CityWeatherCacheTTL = a.cfg.Cache.CityWeatherTTL
	settings.HistoryWindow = a.cfg.History.Window

	return settings
}

// setupRouter mounts health, version, metrics and the API. API routes are rate limited and
// resolve the caller from X-User-ID.
func (a *App) setupRouter(handler *rest.WeatherHandler, rateLimit *middleware.RateLimitMiddleware, checks map[string]pinger) http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/health", liveness).Methods(http.MethodGet)
	router.HandleFunc("/health/ready", readiness(checks, a.breakers, a.logger)).Methods(http.MethodGet)
	router.HandleFunc("/version", versionHandler(a.logger)).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	var recorder middleware.RequestRecorder = noopRequests{}
	tracer := otel.Tracer("weather-outfit")

	if a.telemetry != nil {
		recorder = a.telemetry
		tracer = a.telemetry.Tracer
	}

	obs := middleware.NewObservabilityMiddleware(tracer, recorder, a.logger)
	router.Use(obs.TracingMiddleware, obs.MetricsMiddleware, obs.LoggingMiddleware)

	api := router.PathPrefix("/api/v1").Subrouter()

	if rateLimit != nil {
		api.Use(rateLimit.Middleware)
	}

	api.Use(middleware.UserIdentity(a.logger))
	handler.RegisterRoutes(api)

	return router
}

type noopRequests struct{}

func (noopRequests) RecordRequest(context.Context, string, string, int, time.Duration) {}
