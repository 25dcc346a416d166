// Package config provides configuration loading and validation for the service
// and the CLI.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/talent-reconciler/internal/similarity"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. TALENT_DATABASE_URL
const EnvPrefix = "TALENT"

// Config is the full service configuration. Values come from, in increasing
// precedence: Defaults, an optional YAML/JSON file and TALENT_* environment
// variables.
type Config struct {
	Server    ServerConfig      `mapstructure:"server"`
	Database  DatabaseConfig    `mapstructure:"database"`
	Log       LogConfig         `mapstructure:"log"`
	Matching  similarity.Config `mapstructure:"matching"`
	RateLimit RateLimitConfig   `mapstructure:"rate_limit"`
	Redis     RedisConfig       `mapstructure:"redis"`
}

// ServerConfig configures the HTTP server
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"gte=1,lte=65535"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" validate:"gte=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gte=0"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
}

// DatabaseConfig configures the PostgreSQL pool
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxConns        int32         `mapstructure:"max_conns" validate:"gte=0"`
	MinConns        int32         `mapstructure:"min_conns" validate:"gte=0"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime" validate:"gte=0"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// LogConfig configures zap
type LogConfig struct {
	JSON  bool `mapstructure:"json"`
	Debug bool `mapstructure:"debug"`
}

// RateLimitConfig configures per-client request limits of the write endpoints
type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"gte=0"`
	Burst             int     `mapstructure:"burst" validate:"gte=0"`
}

// RedisConfig enables cross-process verification locks when URL is set
type RedisConfig struct {
	URL       string        `mapstructure:"url"`
	LockTTL   time.Duration `mapstructure:"lock_ttl" validate:"gte=0"`
	LockRetry time.Duration `mapstructure:"lock_retry" validate:"gte=0"`
}

// Defaults returns the configuration used when nothing overrides it
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
		},
		Database: DatabaseConfig{
			MaxConns:        10,
			MaxConnLifetime: time.Hour,
		},
		Matching: similarity.DefaultConfig(),
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerSecond: 5,
			Burst:             10,
		},
		Redis: RedisConfig{
			LockTTL:   10 * time.Second,
			LockRetry: 25 * time.Millisecond,
		},
	}
}

// Load reads the configuration. An empty path skips the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Defaults())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults registers every key so environment variables can override it
func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("server.cors_origins", d.Server.CORSOrigins)

	v.SetDefault("database.url", d.Database.URL)
	v.SetDefault("database.max_conns", d.Database.MaxConns)
	v.SetDefault("database.min_conns", d.Database.MinConns)
	v.SetDefault("database.max_conn_lifetime", d.Database.MaxConnLifetime)
	v.SetDefault("database.auto_migrate", d.Database.AutoMigrate)

	v.SetDefault("log.json", d.Log.JSON)
	v.SetDefault("log.debug", d.Log.Debug)

	v.SetDefault("matching.name_weight", d.Matching.NameWeight)
	v.SetDefault("matching.date_weight", d.Matching.DateWeight)
	v.SetDefault("matching.technologies_weight", d.Matching.TechnologiesWeight)
	v.SetDefault("matching.description_weight", d.Matching.DescriptionWeight)
	v.SetDefault("matching.duplicate_threshold", d.Matching.DuplicateThreshold)
	v.SetDefault("matching.near_identical_threshold", d.Matching.NearIdenticalThreshold)
	v.SetDefault("matching.restatement_threshold", d.Matching.RestatementThreshold)
	v.SetDefault("matching.policy", string(d.Matching.Policy))

	v.SetDefault("rate_limit.enabled", d.RateLimit.Enabled)
	v.SetDefault("rate_limit.requests_per_second", d.RateLimit.RequestsPerSecond)
	v.SetDefault("rate_limit.burst", d.RateLimit.Burst)

	v.SetDefault("redis.url", d.Redis.URL)
	v.SetDefault("redis.lock_ttl", d.Redis.LockTTL)
	v.SetDefault("redis.lock_retry", d.Redis.LockRetry)
}

// Validate checks that the configuration has valid values
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("config error: '%s' failed '%s' check", verrs[0].Namespace(), verrs[0].Tag())
		}
		return fmt.Errorf("config error: %w", err)
	}
	if c.Database.MinConns > c.Database.MaxConns && c.Database.MaxConns > 0 {
		return fmt.Errorf("config error: 'database.min_conns' exceeds 'database.max_conns'")
	}
	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0) {
		return fmt.Errorf("config error: rate limiting needs positive 'requests_per_second' and 'burst'")
	}
	if err := c.Matching.Validate(); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	return nil
}

// RequireDatabase reports an error when no database URL is configured
func (c *Config) RequireDatabase() error {
	if c.Database.URL == "" {
		return fmt.Errorf("config error: 'database.url' is required (set %s_DATABASE_URL)", EnvPrefix)
	}
	return nil
}
