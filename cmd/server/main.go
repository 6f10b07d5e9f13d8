package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/irfndi/coinlens-go/internal/api"
	"github.com/irfndi/coinlens-go/internal/api/handlers"
	"github.com/irfndi/coinlens-go/internal/cache"
	"github.com/irfndi/coinlens-go/internal/config"
	"github.com/irfndi/coinlens-go/internal/database"
	"github.com/irfndi/coinlens-go/internal/logging"
	"github.com/irfndi/coinlens-go/internal/metrics"
	"github.com/irfndi/coinlens-go/internal/providers"
	"github.com/irfndi/coinlens-go/internal/services"
	"github.com/irfndi/coinlens-go/internal/telemetry"
)

const redisKeyPrefix = "coinlens:"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Application failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := logging.New(cfg.LogLevel, cfg.Environment, os.Stdout)

	tp, err := telemetry.InitTelemetry(ctx, telemetry.TelemetryConfig{
		Enabled:        cfg.Telemetry.Enabled,
		Exporter:       cfg.Telemetry.Exporter,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: telemetry.ServiceVersion,
		Environment:    cfg.Environment,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer shutdownWithTimeout(logger, "telemetry", tp.Shutdown)

	if cfg.Telemetry.Enabled && cfg.Telemetry.LogExport {
		hook, err := logging.NewOTLPHook(ctx, logging.OTLPConfig{
			Endpoint:       cfg.Telemetry.OTLPEndpoint,
			ServiceName:    cfg.Telemetry.ServiceName,
			ServiceVersion: telemetry.ServiceVersion,
			Environment:    cfg.Environment,
		})
		if err != nil {
			logger.WithError(err).Warn("OTLP log export disabled")
		} else {
			logger.AddHook(hook)
			defer shutdownWithTimeout(logger, "log export", hook.Shutdown)
		}
	}

	rec := metrics.New()

	stores, err := openStores(ctx, cfg, logger, rec)
	if err != nil {
		return err
	}
	defer stores.Close()

	// Routes are printed at registration in debug mode, so the mode is set first.
	gin.SetMode(ginMode(cfg.Environment))
	app := buildApp(cfg, stores, logger, rec)

	cleanup := services.NewCleanupService(stores.sweeper(), stores.expiring(), services.CleanupConfig{
		Interval:  cfg.Cache.CleanupInterval,
		Retention: cfg.Prediction.CacheTTL,
	}, logger)
	cleanup.Start(ctx)
	defer cleanup.Stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           app.router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	serverLog := logging.Component(logger, "server")
	serverErr := make(chan error, 1)
	go func() {
		serverLog.WithFields(logrus.Fields{
			"port":          cfg.Server.Port,
			"cache_backend": cfg.Cache.Backend,
		}).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}
	serverLog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		serverLog.WithError(err).Error("Server forced to shutdown")
	}
	if err := app.tasks.Wait(shutdownCtx); err != nil {
		logger.WithError(err).Warn("Background tasks did not finish before shutdown")
	}

	serverLog.Info("Server exited")
	return nil
}

// stores holds the connections and caches chosen by cache.backend.
type stores struct {
	postgres    *database.PostgresDB
	redis       *database.RedisClient
	memory      *cache.MemoryStore
	repository  *database.PredictionRepository
	predictions cache.PredictionStore
	market      *cache.MarketCache
}

func openStores(ctx context.Context, cfg *config.Config, logger *logrus.Logger, rec *metrics.Recorder) (*stores, error) {
	s := &stores{}
	ttl := cfg.Prediction.CacheTTL
	policy := database.ConnectPolicy(cfg.Cache.ConnectRetries, cfg.Cache.ConnectRetryDelay)

	switch cfg.Cache.Backend {
	case config.CacheBackendRedis:
		var client *database.RedisClient
		err := database.Retry(ctx, "redis_connect", policy, logger, func(ctx context.Context) error {
			var err error
			client, err = database.NewRedisConnection(ctx, cfg.Redis)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		s.redis = client
		store := cache.NewRedisStore(client.Client, redisKeyPrefix)
		s.predictions = cache.NewPredictionCache(store, ttl, logger, rec)
		s.market = cache.NewMarketCache(store, cfg.Cache.MarketDataTTL, logger, rec)

	case config.CacheBackendPostgres:
		var db *database.PostgresDB
		err := database.Retry(ctx, "postgres_connect", policy, logger, func(ctx context.Context) error {
			var err error
			db, err = database.NewPostgresConnection(ctx, cfg.Database)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		s.postgres = db
		pool := database.NewTracedPool(db.Pool)
		if cfg.Database.AutoMigrate {
			if err := database.Migrate(ctx, pool); err != nil {
				s.Close()
				return nil, fmt.Errorf("failed to migrate database: %w", err)
			}
		}
		s.repository = database.NewPredictionRepository(pool, ttl)
		s.predictions = s.repository
		s.memory = cache.NewMemoryStore()
		s.market = cache.NewMarketCache(s.memory, cfg.Cache.MarketDataTTL, logger, rec)

	case config.CacheBackendMemory:
		s.memory = cache.NewMemoryStore()
		s.predictions = cache.NewPredictionCache(s.memory, ttl, logger, rec)
		s.market = cache.NewMarketCache(s.memory, cfg.Cache.MarketDataTTL, logger, rec)

	default:
		s.predictions = cache.NoopPredictionStore{}
	}
	return s, nil
}

// sweeper returns the Postgres repository as an interface value, or nil.
func (s *stores) sweeper() services.StaleDeleter {
	if s.repository == nil {
		return nil
	}
	return s.repository
}

func (s *stores) expiring() services.ExpiringStore {
	if s.memory == nil {
		return nil
	}
	return s.memory
}

func (s *stores) healthOptions() (db, redis handlers.HealthChecker) {
	if s.postgres != nil {
		db = s.postgres
	}
	if s.redis != nil {
		redis = s.redis
	}
	return db, redis
}

func (s *stores) Close() {
	if s.redis != nil {
		s.redis.Close()
	}
	if s.postgres != nil {
		s.postgres.Close()
	}
}

type app struct {
	router     *gin.Engine
	prediction *services.PredictionService
	technical  *services.TechnicalService
	tasks      *services.BackgroundTasks
}

func buildApp(cfg *config.Config, st *stores, logger *logrus.Logger, rec *metrics.Recorder) *app {
	pcfg := cfg.Providers
	breakers := services.NewCircuitBreakerManager(services.BreakerConfigFrom(pcfg.CircuitBreaker), logger)
	guard := services.NewProviderGuard(breakers, rec, logger)
	tasks := services.NewBackgroundTasks(cfg.Cache.WriteTimeout, logger)

	coingecko := providers.NewCoinGeckoClient(pcfg.CoinGecko)
	upstreams := services.Upstreams{
		Market:      coingecko,
		Sentiment:   providers.NewFearGreedClient(pcfg.FearGreed),
		Macro:       providers.NewMacroClient(pcfg.Macro),
		Derivatives: providers.NewBinanceFuturesClient(pcfg.Derivatives),
		OnChain:     providers.NewDefiLlamaClient(pcfg.DefiLlama),
		Klines:      providers.NewBinanceKlinesClient(pcfg.Klines),
		Chart:       coingecko,
	}

	flags := pcfg.Flags()
	sources := services.NewDataSources(upstreams, services.DataSourcesConfig{
		Providers:   pcfg,
		Flags:       flags,
		MarketCache: st.market,
		Tasks:       tasks,
	}, guard, logger)

	technical := services.NewTechnicalService(sources, cfg.Technical, logger)
	prediction := services.NewPredictionService(cfg.Prediction, services.PredictionServiceDeps{
		Sources:   sources,
		Technical: technical,
		Store:     st.predictions,
		Tasks:     tasks,
		Metrics:   rec,
		Logger:    logger,
	})

	db, redis := st.healthOptions()
	router := api.NewRouter(api.Dependencies{
		Predictor: prediction,
		Analyzer:  technical,
		Health: handlers.HealthOptions{
			DB:       db,
			Redis:    redis,
			Breakers: breakers,
			Flags:    flags,
			Backend:  cfg.Cache.Backend,
			Version:  telemetry.ServiceVersion,
		},
		Metrics:        rec,
		Logger:         logger,
		ServiceName:    cfg.Telemetry.ServiceName,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	return &app{router: router, prediction: prediction, technical: technical, tasks: tasks}
}

func ginMode(environment string) string {
	if environment == "production" {
		return gin.ReleaseMode
	}
	return gin.DebugMode
}

func shutdownWithTimeout(logger *logrus.Logger, name string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := fn(ctx); err != nil {
		logger.WithError(err).WithField("component", name).Warn("Shutdown failed")
	}
}
