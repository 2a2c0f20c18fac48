package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	Redis         RedisConfig         `yaml:"redis"`
	Search        SearchConfig        `yaml:"search"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// Health/metrics server (separate port for k8s probes)
	HealthPort string `yaml:"health_port"`
}

// DatabaseConfig holds PostgreSQL connection configuration
type DatabaseConfig struct {
	URL         string        `yaml:"url"`
	ReplicaURLs string        `yaml:"replica_urls"`
	MaxConns    int           `yaml:"max_conns"`
	MinConns    int           `yaml:"min_conns"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxLifetime time.Duration `yaml:"max_lifetime"`
}

// RedisConfig holds Redis connection configuration. Redis is optional:
// with an empty address the suggestion cache runs L1-only and the
// distributed rate limiter is disabled.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// SearchConfig holds query-time search settings
type SearchConfig struct {
	// Provider selects the predicate backend ("postgres", "postgres_trigram",
	// "postgres_fts")
	Provider string `yaml:"provider"`

	// QueryMaxLength bounds the raw query string; longer input is rejected
	QueryMaxLength int `yaml:"query_max_length"`

	// MaxResults caps any per-call limit
	MaxResults int `yaml:"max_results"`

	// SuggestionRefreshCron schedules the suggestions view refresh
	SuggestionRefreshCron string `yaml:"suggestion_refresh_cron"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       string `yaml:"log_level"`
	MetricsEnabled bool   `yaml:"metrics_enabled"`

	OTelEnabled        bool   `yaml:"otel_enabled"`
	OTelEndpoint       string `yaml:"otel_endpoint"`
	OTelServiceName    string `yaml:"otel_service_name"`
	OTelServiceVersion string `yaml:"otel_service_version"`
	OTelInsecure       bool   `yaml:"otel_insecure"`
}

// Load assembles configuration from defaults, the optional YAML file named
// by SEARCHD_CONFIG_FILE, and environment variables, then validates it.
func Load() (*Config, error) {
	return LoadFile(os.Getenv("SEARCHD_CONFIG_FILE"))
}

// LoadFile is Load with an explicit file path. An empty path skips the file
// layer entirely.
func LoadFile(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            "8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			HealthPort:      "9090",
		},
		Database: DatabaseConfig{
			MaxConns:    25,
			MinConns:    5,
			Timeout:     5 * time.Second,
			MaxLifetime: 30 * time.Minute,
		},
		Search: SearchConfig{
			Provider:              "postgres",
			QueryMaxLength:        256,
			MaxResults:            500,
			SuggestionRefreshCron: "@every 15m",
		},
		Observability: ObservabilityConfig{
			LogLevel:           "info",
			MetricsEnabled:     true,
			OTelEndpoint:       "localhost:4317",
			OTelServiceName:    "searchd",
			OTelServiceVersion: "1.0.0",
			OTelInsecure:       true,
		},
	}
}

func applyEnv(cfg *Config) {
	cfg.Server.Host = getEnv("SEARCHD_HOST", cfg.Server.Host)
	cfg.Server.Port = getEnv("SEARCHD_PORT", cfg.Server.Port)
	cfg.Server.ReadTimeout = getEnvDuration("SEARCHD_READ_TIMEOUT", cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = getEnvDuration("SEARCHD_WRITE_TIMEOUT", cfg.Server.WriteTimeout)
	cfg.Server.IdleTimeout = getEnvDuration("SEARCHD_IDLE_TIMEOUT", cfg.Server.IdleTimeout)
	cfg.Server.ShutdownTimeout = getEnvDuration("SEARCHD_SHUTDOWN_TIMEOUT", cfg.Server.ShutdownTimeout)
	cfg.Server.HealthPort = getEnv("SEARCHD_HEALTH_PORT", cfg.Server.HealthPort)

	cfg.Database.URL = getEnv("SEARCHD_POSTGRES_URL", cfg.Database.URL)
	cfg.Database.ReplicaURLs = getEnv("SEARCHD_POSTGRES_REPLICA_URLS", cfg.Database.ReplicaURLs)
	cfg.Database.MaxConns = getEnvInt("SEARCHD_POSTGRES_MAX_CONNS", cfg.Database.MaxConns)
	cfg.Database.MinConns = getEnvInt("SEARCHD_POSTGRES_MIN_CONNS", cfg.Database.MinConns)
	cfg.Database.Timeout = getEnvDuration("SEARCHD_POSTGRES_TIMEOUT", cfg.Database.Timeout)
	cfg.Database.MaxLifetime = getEnvDuration("SEARCHD_POSTGRES_MAX_LIFETIME", cfg.Database.MaxLifetime)

	cfg.Redis.Addr = getEnv("SEARCHD_REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("SEARCHD_REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getEnvInt("SEARCHD_REDIS_DB", cfg.Redis.DB)

	// Search settings keep their historical variable names
	cfg.Search.Provider = getEnv("SEARCH_PROVIDER", cfg.Search.Provider)
	cfg.Search.QueryMaxLength = getEnvInt("SEARCH_QUERY_MAX_LENGTH", cfg.Search.QueryMaxLength)
	cfg.Search.MaxResults = getEnvInt("SEARCH_MAX_RESULTS", cfg.Search.MaxResults)
	cfg.Search.SuggestionRefreshCron = getEnv("SEARCH_SUGGESTION_REFRESH_CRON", cfg.Search.SuggestionRefreshCron)

	cfg.Observability.LogLevel = getEnv("SEARCHD_LOG_LEVEL", cfg.Observability.LogLevel)
	cfg.Observability.MetricsEnabled = getEnvBool("SEARCHD_METRICS_ENABLED", cfg.Observability.MetricsEnabled)
	cfg.Observability.OTelEnabled = getEnvBool("SEARCHD_OTEL_ENABLED", cfg.Observability.OTelEnabled)
	cfg.Observability.OTelEndpoint = getEnv("SEARCHD_OTEL_ENDPOINT", cfg.Observability.OTelEndpoint)
	cfg.Observability.OTelServiceName = getEnv("SEARCHD_OTEL_SERVICE_NAME", cfg.Observability.OTelServiceName)
	cfg.Observability.OTelServiceVersion = getEnv("SEARCHD_OTEL_SERVICE_VERSION", cfg.Observability.OTelServiceVersion)
	cfg.Observability.OTelInsecure = getEnvBool("SEARCHD_OTEL_INSECURE", cfg.Observability.OTelInsecure)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	switch c.Search.Provider {
	case "postgres", "postgres_trigram", "postgres_fts":
	default:
		return fmt.Errorf("invalid search provider: %s (must be postgres, postgres_trigram, or postgres_fts)", c.Search.Provider)
	}

	if c.Search.QueryMaxLength <= 0 {
		return fmt.Errorf("search query max length must be positive")
	}
	if c.Search.MaxResults <= 0 {
		return fmt.Errorf("search max results must be positive")
	}

	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	return nil
}

// ReplicaURLList splits the comma-separated replica URL setting
func (c *DatabaseConfig) ReplicaURLList() []string {
	if c.ReplicaURLs == "" {
		return nil
	}

	urls := strings.Split(c.ReplicaURLs, ",")
	result := make([]string, 0, len(urls))
	for _, url := range urls {
		if trimmed := strings.TrimSpace(url); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
