package ratelimit

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// EndpointConfig is the rate limit for one route pattern and method.
type EndpointConfig struct {
	Pattern string        // Route pattern; "{name}" segments match any single segment
	Method  string        // HTTP method
	Limit   int           // Requests allowed per Window
	Window  time.Duration // Refill window
	Burst   int           // Burst capacity (defaults to Limit if 0)
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	IdleTTL         time.Duration
	Whitelist       map[string]bool
	Blacklist       map[string]bool
	EndpointConfigs []EndpointConfig
}

// DefaultConfig returns the built-in limits without consulting the environment.
func DefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		DefaultLimit:    1000,
		DefaultWindow:   time.Minute,
		CleanupInterval: 5 * time.Minute,
		IdleTTL:         time.Hour,
		Whitelist:       make(map[string]bool),
		Blacklist:       make(map[string]bool),
		EndpointConfigs: DefaultEndpointConfigs(),
	}
}

// LoadConfig loads rate limiting configuration from environment variables,
// falling back to DefaultConfig values.
func LoadConfig() *Config {
	cfg := DefaultConfig()
	cfg.Enabled = getEnvBool("RATE_LIMIT_ENABLED", cfg.Enabled)
	if !cfg.Enabled {
		return &Config{Enabled: false}
	}

	cfg.DefaultLimit = getEnvInt("RATE_LIMIT_DEFAULT_LIMIT", cfg.DefaultLimit)
	cfg.DefaultWindow = getEnvDuration("RATE_LIMIT_DEFAULT_WINDOW", cfg.DefaultWindow)
	cfg.CleanupInterval = getEnvDuration("RATE_LIMIT_CLEANUP_INTERVAL", cfg.CleanupInterval)
	cfg.Whitelist = parseIPList(os.Getenv("RATE_LIMIT_WHITELIST"))
	cfg.Blacklist = parseIPList(os.Getenv("RATE_LIMIT_BLACKLIST"))

	adviceLimit := getEnvInt("RATE_LIMIT_ADVICE_PER_HOUR", 0)
	if adviceLimit > 0 {
		for i := range cfg.EndpointConfigs {
			if strings.Contains(cfg.EndpointConfigs[i].Pattern, "/advice") {
				cfg.EndpointConfigs[i].Limit = adviceLimit
			}
		}
	}
	return cfg
}

// DefaultEndpointConfigs returns the default endpoint-specific configurations.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		// Remote advice calls cost money; strictest tier
		{Pattern: "/sessions/{id}/advice", Method: "POST", Limit: 30, Window: time.Hour, Burst: 3},
		{Pattern: "/sessions/{id}/advice/stream", Method: "POST", Limit: 30, Window: time.Hour, Burst: 3},

		// Session churn
		{Pattern: "/sessions", Method: "POST", Limit: 60, Window: time.Minute, Burst: 10},
		{Pattern: "/sessions/{id}/reload", Method: "POST", Limit: 30, Window: time.Minute, Burst: 5},

		// Toggle clicks are frequent but cheap
		{Pattern: "/sessions/{id}/filters", Method: "PUT", Limit: 600, Window: time.Minute, Burst: 30},
		{Pattern: "/sessions/{id}/sort", Method: "PUT", Limit: 600, Window: time.Minute, Burst: 30},
	}
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// parseIPList parses a comma-separated list of IP addresses into a set.
func parseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}
