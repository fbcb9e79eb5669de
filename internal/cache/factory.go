package cache

import (
	"time"

	"github.com/redis/go-redis/v9"
)

type Config struct {
	Backend string
	TTL     time.Duration
	Prefix  string
}

// New returns the backend named by cfg.Backend. redisClient is only used
// for the "redis" backend.
func New(cfg Config, redisClient redis.UniversalClient) ResponseCache {
	switch cfg.Backend {
	case "redis":
		return NewRedisCache(redisClient, RedisConfig{
			Prefix: cfg.Prefix,
		})
	default:
		return NewMemoryCache(cfg.TTL)
	}
}
