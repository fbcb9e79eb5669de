package cache

import (
	"context"
	"time"

	"go.uber.org/zap"

	"insight-gateway/internal/metrics"
	"insight-gateway/pkg/logging/logging"
)

// LoggingCache wraps a ResponseCache with logging + metrics.
type LoggingCache struct {
	inner ResponseCache
}

// NewLoggingCache returns a cache that logs and records metrics.
func NewLoggingCache(inner ResponseCache) *LoggingCache {
	return &LoggingCache{inner: inner}
}

func (c *LoggingCache) Get(ctx context.Context, key string) (Entry, bool, error) {
	start := time.Now()
	entry, ok, err := c.inner.Get(ctx, key)
	latencyMs := float64(time.Since(start).Microseconds()) / 1000.0

	result := "miss"
	if err != nil {
		result = "error"
	} else if ok {
		result = "hit"
	}
	metrics.CacheLookupsTotal.WithLabelValues(result).Inc()

	fields := append(keyFields(key),
		zap.String("cache_result", result), // hit | miss | error
		zap.Float64("latency_ms", latencyMs),
	)

	logger := logging.L(ctx)
	if err != nil {
		logger.Error("response_cache_get", append(fields, zap.Error(err))...)
	} else {
		logger.Debug("response_cache_get", fields...)
	}

	return entry, ok, err
}

func (c *LoggingCache) Set(ctx context.Context, key string, entry Entry, ttl time.Duration) error {
	start := time.Now()
	err := c.inner.Set(ctx, key, entry, ttl)
	latencyMs := float64(time.Since(start).Microseconds()) / 1000.0

	fields := append(keyFields(key),
		zap.Int("bytes", len(entry.Body)),
		zap.Duration("ttl", ttl),
		zap.Float64("latency_ms", latencyMs),
	)

	logger := logging.L(ctx)
	if err != nil {
		metrics.CacheWritesTotal.WithLabelValues("error").Inc()
		logger.Error("response_cache_set", append(fields, zap.Error(err))...)
	} else {
		metrics.CacheWritesTotal.WithLabelValues("ok").Inc()
		logger.Debug("response_cache_set", fields...)
	}

	return err
}

// Ping forwards to the wrapped store when it supports health checks.
func (c *LoggingCache) Ping(ctx context.Context) error {
	if p, ok := c.inner.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func keyFields(key string) []zap.Field {
	fields := []zap.Field{zap.String("cache_key", key)}
	if k, ok := parseKey(key); ok {
		fields = append(fields,
			zap.String("language", k.Language),
			zap.String("geo", k.Geo),
			zap.String("topic", k.Topic),
		)
	}
	return fields
}
