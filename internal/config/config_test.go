package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("QUERYLENS_CONFIG", filepath.Join(t.TempDir(), "missing.json"))

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Database.MaxConnections)
	assert.Equal(t, "30s", cfg.Database.QueryTimeout)
	assert.Equal(t, 300, cfg.Cache.TTLSeconds)
	assert.Equal(t, 1000, cfg.Cache.MaxSize)
	assert.Equal(t, 5, cfg.Documents.SearchTopK)
	assert.Equal(t, 384, cfg.Embedding.Dimensions)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestLoadConfigFromFile(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.json")
	t.Setenv("QUERYLENS_CONFIG", configPath)

	testConfig := map[string]interface{}{
		"database": map[string]interface{}{
			"connection_string": "postgres://localhost/hr",
			"max_connections":   20,
			"query_timeout":     "60s",
		},
		"cache": map[string]interface{}{
			"ttl_seconds": 120,
			"max_size":    50,
		},
		"logging": map[string]interface{}{
			"level":  "debug",
			"format": "json",
		},
	}

	data, err := json.MarshalIndent(testConfig, "", "  ")
	require.NoError(t, err)

	err = os.WriteFile(configPath, data, 0600)
	require.NoError(t, err)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost/hr", cfg.Database.ConnectionString)
	assert.Equal(t, 20, cfg.Database.MaxConnections)
	assert.Equal(t, "60s", cfg.Database.QueryTimeout)
	assert.Equal(t, 120, cfg.Cache.TTLSeconds)
	assert.Equal(t, 50, cfg.Cache.MaxSize)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("QUERYLENS_CONFIG", filepath.Join(t.TempDir(), "missing.json"))
	t.Setenv("QUERYLENS_CACHE_TTL_SECONDS", "42")
	t.Setenv("QUERYLENS_LOG_LEVEL", "warn")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 42, cfg.Cache.TTLSeconds)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestFlagOverrides(t *testing.T) {
	t.Setenv("QUERYLENS_CONFIG", filepath.Join(t.TempDir(), "missing.json"))

	cfg, err := LoadConfigWithOverrides(map[string]interface{}{
		"database":  "sqlite:demo.db",
		"log-level": "debug",
		"cache-ttl": 7,
		"port":      9000,
	})
	require.NoError(t, err)

	assert.Equal(t, "sqlite:demo.db", cfg.Database.ConnectionString)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 7, cfg.Cache.TTLSeconds)
	assert.Equal(t, 9000, cfg.Server.Port)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.Logging.Level = "loud" },
			wantErr: "invalid log level",
		},
		{
			name:    "invalid log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "invalid log format",
		},
		{
			name:    "invalid query timeout",
			mutate:  func(c *Config) { c.Database.QueryTimeout = "soon" },
			wantErr: "invalid database query timeout",
		},
		{
			name:    "non-positive cache size",
			mutate:  func(c *Config) { c.Cache.MaxSize = 0 },
			wantErr: "cache max size must be positive",
		},
		{
			name:    "non-positive TTL",
			mutate:  func(c *Config) { c.Cache.TTLSeconds = -1 },
			wantErr: "cache TTL must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validBaseConfig()
			tt.mutate(cfg)

			err := validateConfig(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCacheTTLAndQueryTimeout(t *testing.T) {
	cfg := validBaseConfig()
	cfg.Cache.TTLSeconds = 90
	cfg.Database.QueryTimeout = "15s"

	assert.Equal(t, 90*time.Second, cfg.CacheTTL())
	assert.Equal(t, 15*time.Second, cfg.QueryTimeout())

	cfg.Database.QueryTimeout = "garbage"
	assert.Equal(t, 30*time.Second, cfg.QueryTimeout())
}

func validBaseConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			MaxConnections: 10,
			QueryTimeout:   "30s",
		},
		Cache: CacheConfig{
			TTLSeconds:  300,
			MaxSize:     1000,
			CleanupFreq: "1m",
		},
		Embedding: EmbeddingConfig{Dimensions: 384},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}
