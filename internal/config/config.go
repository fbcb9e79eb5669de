package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is built once at startup and passed down explicitly.
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// APIKey is the shared secret clients send in x-api-key.
	APIKey string

	UpstreamURL     string
	UpstreamToken   string // optional bearer token
	UpstreamTimeout time.Duration

	CacheBackend string // "memory" or "redis"
	CacheTTL     time.Duration
	CachePrefix  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	RequestTimeout time.Duration
	MaxBodyBytes   int64
}

// env names per key; the first one is the canonical name
var envBindings = map[string][]string{
	"port":             {"PORT"},
	"env":              {"ENV"},
	"log_level":        {"LOG_LEVEL"},
	"api_key":          {"PUBLIC_API_KEY", "API_KEY"},
	"upstream.url":     {"UPSTREAM_URL"},
	"upstream.token":   {"UPSTREAM_TOKEN"},
	"upstream.timeout": {"UPSTREAM_TIMEOUT"},
	"cache.backend":    {"CACHE_BACKEND"},
	"cache.ttl":        {"CACHE_TTL"},
	"cache.prefix":     {"CACHE_PREFIX"},
	"redis.addr":       {"REDIS_ADDR"},
	"redis.password":   {"REDIS_PASSWORD"},
	"redis.db":         {"REDIS_DB"},
	"request_timeout":  {"REQUEST_TIMEOUT"},
	"max_body_bytes":   {"MAX_BODY_BYTES"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("env", "production")
	v.SetDefault("log_level", "info")
	v.SetDefault("upstream.timeout", 12*time.Second)
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.ttl", 900*time.Second)
	v.SetDefault("cache.prefix", "insight-cache")
	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("request_timeout", 15*time.Second)
	v.SetDefault("max_body_bytes", 512*1024)
}

// Load reads configuration from the environment and, if path is set,
// from a config file (any format viper understands). Environment wins.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	for key, names := range envBindings {
		args := append([]string{key}, names...)
		if err := v.BindEnv(args...); err != nil {
			return Config{}, fmt.Errorf("binding env for %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	cfg := Config{
		Port:            v.GetString("port"),
		Env:             v.GetString("env"),
		LogLevel:        v.GetString("log_level"),
		APIKey:          v.GetString("api_key"),
		UpstreamURL:     strings.TrimSpace(v.GetString("upstream.url")),
		UpstreamToken:   v.GetString("upstream.token"),
		UpstreamTimeout: v.GetDuration("upstream.timeout"),
		CacheBackend:    strings.ToLower(v.GetString("cache.backend")),
		CacheTTL:        v.GetDuration("cache.ttl"),
		CachePrefix:     v.GetString("cache.prefix"),
		RedisAddr:       v.GetString("redis.addr"),
		RedisPassword:   v.GetString("redis.password"),
		RedisDB:         v.GetInt("redis.db"),
		RequestTimeout:  v.GetDuration("request_timeout"),
		MaxBodyBytes:    v.GetInt64("max_body_bytes"),
	}

	return cfg, nil
}

// Validate checks the fields the gateway cannot start without.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return errors.New("api key is required (PUBLIC_API_KEY)")
	}
	if c.UpstreamURL == "" {
		return errors.New("upstream url is required (UPSTREAM_URL)")
	}
	u, err := url.Parse(c.UpstreamURL)
	if err != nil {
		return fmt.Errorf("invalid upstream url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("upstream url must be absolute http(s), got %q", c.UpstreamURL)
	}

	switch c.CacheBackend {
	case "memory", "redis":
	default:
		return fmt.Errorf("cache backend must be 'memory' or 'redis', got: %s", c.CacheBackend)
	}

	if c.CacheTTL <= 0 {
		return fmt.Errorf("cache ttl must be positive, got %s", c.CacheTTL)
	}
	if c.UpstreamTimeout <= 0 {
		return fmt.Errorf("upstream timeout must be positive, got %s", c.UpstreamTimeout)
	}
	return nil
}
