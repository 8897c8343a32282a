package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config represents the application configuration
type Config struct {
	Database  DatabaseConfig  `json:"database"  envPrefix:"QUERYLENS_"`
	Cache     CacheConfig     `json:"cache"     envPrefix:"QUERYLENS_"`
	Documents DocumentsConfig `json:"documents" envPrefix:"QUERYLENS_"`
	Embedding EmbeddingConfig `json:"embedding" envPrefix:"QUERYLENS_"`
	Server    ServerConfig    `json:"server"    envPrefix:"QUERYLENS_"`
	Logging   LoggingConfig   `json:"logging"   envPrefix:"QUERYLENS_"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	ConnectionString string `json:"connection_string"  env:"DB_CONNECTION_STRING"`
	MaxConnections   int    `json:"max_connections"    env:"DB_MAX_CONNECTIONS"    envDefault:"10"`
	MaxIdleConns     int    `json:"max_idle_conns"     env:"DB_MAX_IDLE_CONNS"     envDefault:"5"`
	ConnMaxLifetime  string `json:"conn_max_lifetime"  env:"DB_CONN_MAX_LIFETIME"  envDefault:"30m"`
	ConnMaxIdleTime  string `json:"conn_max_idle_time" env:"DB_CONN_MAX_IDLE_TIME" envDefault:"5m"`
	QueryTimeout     string `json:"query_timeout"      env:"DB_QUERY_TIMEOUT"      envDefault:"30s"`
	SampleRowLimit   int    `json:"sample_row_limit"   env:"DB_SAMPLE_ROW_LIMIT"   envDefault:"5"`
}

// CacheConfig represents result cache configuration
type CacheConfig struct {
	TTLSeconds  int    `json:"ttl_seconds"       env:"CACHE_TTL_SECONDS"  envDefault:"300"`
	MaxSize     int    `json:"max_size"          env:"CACHE_MAX_SIZE"     envDefault:"1000"`
	CleanupFreq string `json:"cleanup_frequency" env:"CACHE_CLEANUP_FREQ" envDefault:"1m"`
}

// DocumentsConfig represents document ingestion configuration
type DocumentsConfig struct {
	MaxFileSizeMB int `json:"max_file_size_mb" env:"DOCS_MAX_FILE_SIZE_MB" envDefault:"50"`
	ChunkSize     int `json:"chunk_size"       env:"DOCS_CHUNK_SIZE"       envDefault:"512"`
	ChunkOverlap  int `json:"chunk_overlap"    env:"DOCS_CHUNK_OVERLAP"    envDefault:"50"`
	SearchTopK    int `json:"search_top_k"     env:"DOCS_SEARCH_TOP_K"     envDefault:"5"`
}

// EmbeddingConfig represents embedding provider configuration
type EmbeddingConfig struct {
	Provider   string `json:"provider"   env:"EMBEDDING_PROVIDER"   envDefault:"hash"`
	Model      string `json:"model"      env:"EMBEDDING_MODEL"      envDefault:"sentence-transformers/all-MiniLM-L6-v2"`
	Dimensions int    `json:"dimensions" env:"EMBEDDING_DIMENSIONS" envDefault:"384"`
	Enabled    bool   `json:"enabled"    env:"EMBEDDING_ENABLED"    envDefault:"true"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host            string `json:"host"             env:"SERVER_HOST"             envDefault:"127.0.0.1"`
	Port            int    `json:"port"             env:"SERVER_PORT"             envDefault:"8000"`
	ShutdownTimeout string `json:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `json:"level"  env:"LOG_LEVEL"  envDefault:"info"`   // debug, info, warn, error
	Format string `json:"format" env:"LOG_FORMAT" envDefault:"text"`   // text, json
	Output string `json:"output" env:"LOG_OUTPUT" envDefault:"stderr"` // stdout, stderr, file
	File   string `json:"file"   env:"LOG_FILE"   envDefault:"~/.config/querylens/logs/app.log"`
}

// LoadConfig loads configuration from file, environment variables, and command-line flags
func LoadConfig() (*Config, error) {
	return LoadConfigWithOverrides(nil)
}

// LoadConfigWithOverrides loads configuration with optional command-line flag overrides
func LoadConfigWithOverrides(flagOverrides map[string]interface{}) (*Config, error) {
	config := &Config{}

	// Load from config file if it exists
	configPath := getConfigPath()
	if _, err := os.Stat(configPath); err == nil {
		if err := loadConfigFromFile(config, configPath); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	// Apply environment variable overrides using env library (also sets defaults)
	if err := env.ParseWithOptions(config, env.Options{
		Prefix: "QUERYLENS_",
	}); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	if flagOverrides != nil {
		applyFlagOverrides(config, flagOverrides)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// loadConfigFromFile loads configuration from a JSON file
func loadConfigFromFile(config *Config, configPath string) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fileConfig Config
	if err := json.Unmarshal(data, &fileConfig); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	mergeConfigs(config, &fileConfig)

	return nil
}

// applyFlagOverrides applies command-line flag overrides to configuration
func applyFlagOverrides(config *Config, overrides map[string]interface{}) {
	for key, value := range overrides {
		switch key {
		case "database":
			if str, ok := value.(string); ok && str != "" {
				config.Database.ConnectionString = str
			}
		case "log-level":
			if str, ok := value.(string); ok && str != "" {
				config.Logging.Level = str
			}
		case "cache-ttl":
			if n, ok := value.(int); ok && n > 0 {
				config.Cache.TTLSeconds = n
			}
		case "port":
			if n, ok := value.(int); ok && n > 0 {
				config.Server.Port = n
			}
		}
	}
}

// mergeConfigs merges source configuration into target configuration
func mergeConfigs(target, source *Config) {
	var mergeValues func(t, s reflect.Value)
	mergeValues = func(t, s reflect.Value) {
		if t.Kind() != s.Kind() {
			return
		}

		if t.Kind() == reflect.Struct {
			for i := range s.NumField() {
				mergeValues(t.Field(i), s.Field(i))
			}
		} else if s.Kind() == reflect.Bool {
			t.Set(s)
		} else if !s.IsZero() {
			t.Set(s)
		}
	}

	mergeValues(reflect.ValueOf(target).Elem(), reflect.ValueOf(source).Elem())
}

// validateConfig validates the configuration for common errors
func validateConfig(config *Config) error {
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf(
			"invalid log level: %s (must be debug, info, warn, or error)",
			config.Logging.Level,
		)
	}

	validLogFormats := map[string]bool{
		"text": true, "json": true,
	}
	if !validLogFormats[strings.ToLower(config.Logging.Format)] {
		return fmt.Errorf("invalid log format: %s (must be text or json)", config.Logging.Format)
	}

	validLogOutputs := map[string]bool{
		"stdout": true, "stderr": true, "file": true,
	}
	if !validLogOutputs[strings.ToLower(config.Logging.Output)] {
		return fmt.Errorf(
			"invalid log output: %s (must be stdout, stderr, or file)",
			config.Logging.Output,
		)
	}

	if _, err := time.ParseDuration(config.Database.QueryTimeout); err != nil {
		return fmt.Errorf("invalid database query timeout: %s", config.Database.QueryTimeout)
	}

	if _, err := time.ParseDuration(config.Cache.CleanupFreq); err != nil {
		return fmt.Errorf("invalid cache cleanup frequency: %s", config.Cache.CleanupFreq)
	}

	if config.Database.MaxConnections <= 0 {
		return fmt.Errorf(
			"database max connections must be positive: %d",
			config.Database.MaxConnections,
		)
	}

	if config.Cache.MaxSize <= 0 {
		return fmt.Errorf("cache max size must be positive: %d", config.Cache.MaxSize)
	}

	if config.Cache.TTLSeconds <= 0 {
		return fmt.Errorf("cache TTL must be positive: %d", config.Cache.TTLSeconds)
	}

	if config.Embedding.Dimensions <= 0 {
		return fmt.Errorf("embedding dimensions must be positive: %d", config.Embedding.Dimensions)
	}

	return nil
}

// SaveConfig saves configuration to file
func SaveConfig(config *Config) error {
	configPath := getConfigPath()

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// getConfigPath returns the path to the configuration file
func getConfigPath() string {
	if configPath := os.Getenv("QUERYLENS_CONFIG"); configPath != "" {
		return expandPath(configPath)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}

	return filepath.Join(homeDir, ".config", "querylens", "config.json")
}

// expandPath expands ~ to home directory in file paths
func expandPath(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	if path == "~" {
		return homeDir
	}

	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir, path[2:])
	}

	return path
}

// ExpandAllPaths expands all paths in the configuration
func (c *Config) ExpandAllPaths() {
	c.Logging.File = expandPath(c.Logging.File)
}

// CacheTTL returns the configured cache TTL as a duration
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

// QueryTimeout returns the configured query timeout, falling back to 30s
func (c *Config) QueryTimeout() time.Duration {
	d, err := time.ParseDuration(c.Database.QueryTimeout)
	if err != nil {
		return 30 * time.Second
	}

	return d
}

// GetConfigDir returns the configuration directory
func GetConfigDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".config/querylens"
	}

	return filepath.Join(homeDir, ".config", "querylens")
}
