package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Cache backends accepted by CacheBackend.
const (
	CacheNone   = "none"
	CacheRedis  = "redis"
	CacheSQLite = "sqlite"
)

// MaxPageSize mirrors the backend's per_page cap.
const MaxPageSize = 500

// Config holds all application configuration loaded from file and environment.
type Config struct {
	// Backend
	APIBase         string
	HTTPTimeout     time.Duration
	RetryMax        int
	BreakerFailures int
	BreakerReset    time.Duration

	// Shell
	ListenAddr  string
	MetricsAddr string
	PageSize    int

	// Response cache
	CacheBackend  string
	CacheTTL      time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SQLitePath    string

	LogLevel string
}

// SetDefaults registers default values on v. Environment variables use the
// VIEWER_ prefix, e.g. VIEWER_API_BASE.
func SetDefaults(v *viper.Viper) {
	v.SetEnvPrefix("VIEWER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("api_base", "http://localhost:5000")
	v.SetDefault("http_timeout", 10*time.Second)
	v.SetDefault("retry_max", 3)
	v.SetDefault("breaker_failures", 5)
	v.SetDefault("breaker_reset", 10*time.Second)

	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("metrics_addr", ":9090")
	v.SetDefault("page_size", 200)

	v.SetDefault("cache_backend", CacheNone)
	v.SetDefault("cache_ttl", 10*time.Minute)
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("sqlite_path", "data/viewer-cache.db")

	v.SetDefault("log_level", "info")
}

// Load reads configuration from v and validates it.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		APIBase:         strings.TrimRight(v.GetString("api_base"), "/"),
		HTTPTimeout:     v.GetDuration("http_timeout"),
		RetryMax:        v.GetInt("retry_max"),
		BreakerFailures: v.GetInt("breaker_failures"),
		BreakerReset:    v.GetDuration("breaker_reset"),

		ListenAddr:  v.GetString("listen_addr"),
		MetricsAddr: v.GetString("metrics_addr"),
		PageSize:    v.GetInt("page_size"),

		CacheBackend:  strings.ToLower(v.GetString("cache_backend")),
		CacheTTL:      v.GetDuration("cache_ttl"),
		RedisAddr:     v.GetString("redis_addr"),
		RedisPassword: v.GetString("redis_password"),
		RedisDB:       v.GetInt("redis_db"),
		SQLitePath:    v.GetString("sqlite_path"),

		LogLevel: v.GetString("log_level"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges that would otherwise fail later at request time.
func (c *Config) Validate() error {
	if c.APIBase == "" {
		return fmt.Errorf("config: api_base is required")
	}
	if c.PageSize < 1 || c.PageSize > MaxPageSize {
		return fmt.Errorf("config: page_size %d outside [1,%d]", c.PageSize, MaxPageSize)
	}
	if c.RetryMax < 0 {
		return fmt.Errorf("config: retry_max must be >= 0, got %d", c.RetryMax)
	}
	switch c.CacheBackend {
	case "", CacheNone:
		c.CacheBackend = CacheNone
	case CacheRedis, CacheSQLite:
	default:
		return fmt.Errorf("config: unknown cache_backend %q", c.CacheBackend)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("config: unknown log_level %q", s)
}
