package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every bound variable; viper treats empty as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, names := range envBindings {
		for _, n := range names {
			t.Setenv(n, "")
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("PUBLIC_API_KEY", "secret")
	t.Setenv("UPSTREAM_URL", "https://flow.example.com/run")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "secret", cfg.APIKey)
	assert.Equal(t, "https://flow.example.com/run", cfg.UpstreamURL)
	assert.Empty(t, cfg.UpstreamToken)
	assert.Equal(t, 12*time.Second, cfg.UpstreamTimeout)
	assert.Equal(t, "memory", cfg.CacheBackend)
	assert.Equal(t, 900*time.Second, cfg.CacheTTL)
	assert.Equal(t, "insight-cache", cfg.CachePrefix)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.Equal(t, int64(512*1024), cfg.MaxBodyBytes)
	require.NoError(t, cfg.Validate())
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gateway.yaml")
	content := `
port: "9999"
api_key: from-file
upstream:
  url: http://localhost:9000/flow
  token: file-token
cache:
  backend: redis
  ttl: 5m
redis:
  addr: redis:6379
  db: 2
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	clearEnv(t)
	t.Setenv("UPSTREAM_TOKEN", "env-token")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.Port)
	assert.Equal(t, "from-file", cfg.APIKey)
	assert.Equal(t, "http://localhost:9000/flow", cfg.UpstreamURL)
	assert.Equal(t, "env-token", cfg.UpstreamToken)
	assert.Equal(t, "redis", cfg.CacheBackend)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, "redis:6379", cfg.RedisAddr)
	assert.Equal(t, 2, cfg.RedisDB)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := Config{
		APIKey:          "k",
		UpstreamURL:     "https://flow.example.com",
		UpstreamTimeout: 12 * time.Second,
		CacheBackend:    "memory",
		CacheTTL:        time.Minute,
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "missing api key", mutate: func(c *Config) { c.APIKey = "" }, wantErr: true},
		{name: "missing upstream", mutate: func(c *Config) { c.UpstreamURL = "" }, wantErr: true},
		{name: "relative upstream", mutate: func(c *Config) { c.UpstreamURL = "/flow" }, wantErr: true},
		{name: "ftp upstream", mutate: func(c *Config) { c.UpstreamURL = "ftp://flow.example.com" }, wantErr: true},
		{name: "unknown backend", mutate: func(c *Config) { c.CacheBackend = "memcached" }, wantErr: true},
		{name: "zero ttl", mutate: func(c *Config) { c.CacheTTL = 0 }, wantErr: true},
		{name: "redis backend", mutate: func(c *Config) { c.CacheBackend = "redis" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
