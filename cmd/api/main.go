package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/civic-india/backend/internal/aggregator"
	"github.com/civic-india/backend/internal/api"
	"github.com/civic-india/backend/internal/api/handlers"
	"github.com/civic-india/backend/internal/cache"
	"github.com/civic-india/backend/internal/cache/redis"
	"github.com/civic-india/backend/internal/civic"
	"github.com/civic-india/backend/internal/evidence/sources"
	"github.com/civic-india/backend/internal/llm"
	"github.com/civic-india/backend/internal/metrics"
	"github.com/civic-india/backend/internal/middleware/ratelimit"
	"github.com/civic-india/backend/internal/storage/sqlite"
	"github.com/civic-india/backend/pkg/config"
	appLogger "github.com/civic-india/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting Civic India API Server")

	metrics.Init()

	ready := map[string]handlers.Pinger{}

	var store cache.Store
	switch cfg.Cache.Backend {
	case "redis":
		client, err := redis.NewClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			appLogger.Fatal("Failed to create Redis client", zap.Error(err))
		}
		redisStore := redis.NewStore(client, cfg.Cache.TTL())
		defer redisStore.Close()

		store = redisStore
		ready["redis"] = handlers.PingFunc(func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
	default:
		store = cache.NewMemoryStore(cfg.Cache.TTL())
	}

	providers, err := sources.Default().Without(cfg.Evidence.Disabled...)
	if err != nil {
		appLogger.Fatal("Invalid evidence configuration", zap.Error(err))
	}

	agg, err := aggregator.New(store, providers, aggregator.DefaultRoutes(), aggregator.Config{
		ProviderTimeout: cfg.Evidence.Timeout(),
		SingleFlight:    cfg.Evidence.SingleFlight,
	})
	if err != nil {
		appLogger.Fatal("Failed to create evidence aggregator", zap.Error(err))
	}

	sqliteClient, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer sqliteClient.Close()

	if err := sqliteClient.InitSchema(); err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}
	ready["sqlite"] = sqliteClient

	generator, err := llm.New(context.Background(), cfg.LLM)
	if err != nil {
		appLogger.Fatal("Failed to create LLM client", zap.Error(err))
	}

	service := civic.NewService(agg, generator, sqliteClient)

	var limiter *ratelimit.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = ratelimit.New(ratelimit.Config{
			MaxRequests:     cfg.RateLimit.MaxRequests,
			Window:          time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute,
			CleanupInterval: 5 * time.Minute,
			Logger:          appLogger.Named("ratelimit"),
		})
		defer limiter.Stop()
	}

	app := api.NewApp(cfg, api.Dependencies{
		Civic:       service,
		Aggregator:  agg,
		Ready:       ready,
		RateLimiter: limiter,
		AccessLog:   true,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting",
		zap.String("address", addr),
		zap.String("cache", store.Name()),
		zap.String("llm", generator.Name()),
		zap.Strings("providers", providers.IDs()),
	)

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		appLogger.Error("Server shutdown failed", zap.Error(err))
	}
	appLogger.Info("Server stopped")
}
