package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	fieldBody        = "body"
	fieldContentType = "content_type"
)

// RedisCache implements ResponseCache using Redis. Each entry is a hash
// holding the body and its content type, expired by Redis itself.
type RedisCache struct {
	client redis.UniversalClient
	prefix string
}

type RedisConfig struct {
	Prefix string
}

// NewRedisCache creates a Redis-backed cache.
func NewRedisCache(client redis.UniversalClient, config RedisConfig) *RedisCache {
	return &RedisCache{
		client: client,
		prefix: config.Prefix,
	}
}

// key builds the final Redis key with prefix.
func (c *RedisCache) key(k string) string {
	if c.prefix == "" {
		return k
	}
	return c.prefix + ":" + k
}

// Get retrieves an entry from Redis.
// On Redis error, it returns (Entry{}, false, err) so caller can log and treat as miss.
func (c *RedisCache) Get(ctx context.Context, key string) (Entry, bool, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, false, fmt.Errorf("context error: %w", err)
	}

	fields, err := c.client.HGetAll(ctx, c.key(key)).Result()
	if err != nil {
		return Entry{}, false, fmt.Errorf("redis hgetall failed: %w", err)
	}

	body, ok := fields[fieldBody]
	if !ok {
		// Key does not exist: clean miss.
		return Entry{}, false, nil
	}

	contentType := fields[fieldContentType]
	if contentType == "" {
		contentType = ContentTypeJSON
	}

	return Entry{Body: []byte(body), ContentType: contentType}, true, nil
}

// Set stores an entry with TTL. If ttl <= 0, it does nothing (no caching).
func (c *RedisCache) Set(ctx context.Context, key string, entry Entry, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if ttl <= 0 {
		return nil
	}

	redisKey := c.key(key)

	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, redisKey)
		pipe.HSet(ctx, redisKey,
			fieldBody, entry.Body,
			fieldContentType, entry.ContentType,
		)
		pipe.PExpire(ctx, redisKey, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}

	return nil
}

// Ping checks if Redis connection is healthy.
func (c *RedisCache) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}
	return c.client.Ping(ctx).Err()
}
