package ratelimit

import (
	"time"

	"github.com/jonathan/talent-reconciler/internal/config"
	"golang.org/x/time/rate"
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string     // Endpoint path pattern (supports prefix matching)
	Method string     // HTTP method (GET, POST, etc.)
	Rate   rate.Limit // Sustained requests per second; 0 means unlimited
	Burst  int        // Burst capacity
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultRate     rate.Limit
	DefaultBurst    int
	IdleTTL         time.Duration
	CleanupInterval time.Duration
	Whitelist       map[string]bool
	EndpointConfigs []EndpointConfig
}

// FromConfig builds the limiter configuration from the service configuration.
// Writes are limited at the configured rate; reads get ten times as much.
func FromConfig(cfg config.RateLimitConfig) *Config {
	if !cfg.Enabled || cfg.RequestsPerSecond <= 0 {
		return &Config{Enabled: false}
	}

	write := rate.Limit(cfg.RequestsPerSecond)
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	return &Config{
		Enabled:         true,
		DefaultRate:     write * 10,
		DefaultBurst:    burst * 10,
		IdleTTL:         time.Hour,
		CleanupInterval: 5 * time.Minute,
		Whitelist:       make(map[string]bool),
		EndpointConfigs: DefaultEndpointConfigs(write, burst),
	}
}

// DefaultEndpointConfigs returns the endpoint-specific configurations for the
// talent write endpoints.
func DefaultEndpointConfigs(write rate.Limit, burst int) []EndpointConfig {
	return []EndpointConfig{
		{Path: "/talents/", Method: "POST", Rate: write, Burst: burst},
	}
}
