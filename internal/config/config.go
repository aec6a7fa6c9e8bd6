package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds everything the process needs, loaded once at startup.
type AppConfig struct {
	// Upstream client.
	UpstreamTimeout time.Duration
	BaseURL         string
	APIKey          string

	// Retry policy.
	RetryCount             int
	RetryBaseDelay         time.Duration
	RetryBackoffMultiplier float64
	RetryMaxJitter         time.Duration

	// Coalescing cache.
	CacheTTL         time.Duration
	CacheMaxSize     int
	MaxWaitersPerKey int

	// Janitor.
	SweepInterval time.Duration

	Port string
}

// Load reads configuration from environment with sensible defaults and
// fails fast on invalid values.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := &AppConfig{}

	var err error
	if cfg.UpstreamTimeout, err = getenvDuration("UPSTREAM_TIMEOUT", time.Second); err != nil {
		return nil, err
	}
	if cfg.UpstreamTimeout <= 0 {
		return nil, fmt.Errorf("UPSTREAM_TIMEOUT must be positive")
	}

	cfg.BaseURL = strings.TrimRight(getenvDefault("OPENMETEO_BASE_URL", "https://api.open-meteo.com/v1/forecast"), "/")
	if !strings.HasPrefix(cfg.BaseURL, "http://") && !strings.HasPrefix(cfg.BaseURL, "https://") {
		return nil, fmt.Errorf("OPENMETEO_BASE_URL must start with http:// or https://")
	}

	cfg.APIKey = os.Getenv("OPENMETEO_API_KEY")

	cfg.RetryCount = getenvInt("RETRY_COUNT", 3)
	if cfg.RetryCount < 0 {
		return nil, fmt.Errorf("RETRY_COUNT must not be negative")
	}

	if cfg.RetryBaseDelay, err = getenvDuration("RETRY_BASE_DELAY", 100*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.RetryBaseDelay <= 0 {
		return nil, fmt.Errorf("RETRY_BASE_DELAY must be positive")
	}

	if cfg.RetryBackoffMultiplier, err = getenvFloat("RETRY_BACKOFF_MULTIPLIER", 2.0); err != nil {
		return nil, err
	}
	if cfg.RetryBackoffMultiplier < 1 {
		return nil, fmt.Errorf("RETRY_BACKOFF_MULTIPLIER must be at least 1")
	}

	if cfg.RetryMaxJitter, err = getenvDuration("RETRY_MAX_JITTER", time.Second); err != nil {
		return nil, err
	}
	if cfg.RetryMaxJitter < 0 {
		return nil, fmt.Errorf("RETRY_MAX_JITTER must not be negative")
	}

	if cfg.CacheTTL, err = getenvDuration("CACHE_TTL", 60*time.Second); err != nil {
		return nil, err
	}
	if cfg.CacheTTL <= 0 {
		return nil, fmt.Errorf("CACHE_TTL must be positive")
	}

	cfg.CacheMaxSize = getenvInt("CACHE_MAX_SIZE", 10000)
	if cfg.CacheMaxSize < 1 {
		return nil, fmt.Errorf("CACHE_MAX_SIZE must be at least 1")
	}

	cfg.MaxWaitersPerKey = getenvInt("MAX_WAITERS_PER_KEY", 100)
	if cfg.MaxWaitersPerKey < 1 {
		return nil, fmt.Errorf("MAX_WAITERS_PER_KEY must be at least 1")
	}

	if cfg.SweepInterval, err = getenvDuration("SWEEP_INTERVAL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.SweepInterval <= 0 {
		return nil, fmt.Errorf("SWEEP_INTERVAL must be positive")
	}

	cfg.Port = getenvDefault("PORT", "8080")

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvFloat(key string, def float64) (float64, error) {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", key, err)
		}
		return f, nil
	}
	return def, nil
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", key, err)
		}
		return d, nil
	}
	return def, nil
}
