package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"insight-gateway/internal/cache"
	"insight-gateway/internal/config"
	"insight-gateway/internal/handlers"
	"insight-gateway/internal/httpserver"
	"insight-gateway/internal/metrics"
	"insight-gateway/internal/upstream"
	"insight-gateway/pkg/logging/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Fatalf("gateway exited with error: %v", err)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "gateway",
		Short:         "Authenticated, caching proxy in front of the insight orchestration service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return run(ctx, configPath)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "optional config file (yaml, toml or json); environment overrides it")

	return cmd
}

func run(ctx context.Context, configPath string) error {
	// ----- Config -----
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	// ----- Logger -----
	logger, err := logging.NewLogger(logging.Options{Env: cfg.Env, Level: cfg.LogLevel})
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", zap.Error(err))
		return err
	}

	logger.Info("loaded config",
		zap.String("port", cfg.Port),
		zap.String("cache_backend", cfg.CacheBackend),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.String("cache_prefix", cfg.CachePrefix),
		zap.String("redis_addr", cfg.RedisAddr),
		zap.String("upstream_url", cfg.UpstreamURL),
		zap.Bool("upstream_token_set", cfg.UpstreamToken != ""),
		zap.Duration("upstream_timeout", cfg.UpstreamTimeout),
	)

	// ----- Metrics -----
	metrics.Register()

	// ----- Redis client (only if needed) -----
	var redisClient *redis.Client
	if cfg.CacheBackend == "redis" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()

		// Fail fast if Redis is misconfigured
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Error("redis connection failed", zap.Error(err))
			return err
		}
		logger.Info("redis connection established",
			zap.String("addr", cfg.RedisAddr),
		)
	}

	// ----- Response cache -----
	store := cache.New(cache.Config{
		Backend: cfg.CacheBackend,
		TTL:     cfg.CacheTTL,
		Prefix:  cfg.CachePrefix,
	}, redisClient)
	if closer, ok := store.(interface{ Close() error }); ok {
		defer closer.Close()
	}
	responseCache := cache.NewLoggingCache(store)

	// ----- Upstream client -----
	upstreamClient, err := upstream.NewClient(upstream.Config{
		URL:     cfg.UpstreamURL,
		Token:   cfg.UpstreamToken,
		Timeout: cfg.UpstreamTimeout,
	}, logger)
	if err != nil {
		return err
	}
	defer upstreamClient.Close()

	// ----- Handlers -----
	analyzeHandler := handlers.NewAnalyzeHandler(
		responseCache,
		cfg.CacheTTL,
		cfg.APIKey,
		upstreamClient,
	)

	// ----- Router + middleware -----
	r := chi.NewRouter()
	httpserver.SetupRouter(r, logger, analyzeHandler, httpserver.Options{
		RequestTimeout: cfg.RequestTimeout,
		MaxBodyBytes:   cfg.MaxBodyBytes,
		Ready:          responseCache,
	})

	// ----- HTTP server -----
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info("starting gateway",
		zap.String("addr", srv.Addr),
		zap.String("cache_backend", cfg.CacheBackend),
	)

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// ----- Graceful shutdown -----
	select {
	case err := <-serveErr:
		logger.Error("server error", zap.Error(err))
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
		return err
	}

	logger.Info("server shutdown complete")
	return nil
}
