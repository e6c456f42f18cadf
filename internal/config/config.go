// Package config provides configuration loading and management for the application.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	// HTTP server port
	Port string `yaml:"port"`

	// Upstream data sources
	MarketDataURL string `yaml:"market_data_url"`
	ExplorerURL   string `yaml:"explorer_url"`

	// Currency used when a request does not name one
	DefaultCurrency string `yaml:"default_currency"`

	// OpenTelemetry endpoint for observability
	OtelEndpoint string `yaml:"otel_endpoint"`

	// Outbound request handling
	RequestTimeout time.Duration `yaml:"request_timeout"`
	CacheTTL       time.Duration `yaml:"cache_ttl"`
	OutboundRPS    int           `yaml:"outbound_rps"`

	// Inbound rate limiting
	RateLimitRPS   float64 `yaml:"rate_limit_rps"`
	RateLimitBurst int     `yaml:"rate_limit_burst"`

	// Live data guard
	EnableCircuitBreaker bool          `yaml:"enable_circuit_breaker"`
	MaxPriceChange       float64       `yaml:"max_price_change"`
	MaxHashrateChange    float64       `yaml:"max_hashrate_change"`
	CircuitResetDelay    time.Duration `yaml:"circuit_reset_delay"`
	MaxBlockAge          time.Duration `yaml:"max_block_age"`

	// Attach a signature to every report. An empty key is generated per process.
	SignReports bool   `yaml:"sign_reports"`
	SigningKey  string `yaml:"signing_key"`
}

// Defaults returns the built-in configuration
func Defaults() Config {
	return Config{
		Port:                 "8080",
		MarketDataURL:        "https://api.coingecko.com/api/v3",
		ExplorerURL:          "https://epic-radar.com/api",
		DefaultCurrency:      "USD",
		RequestTimeout:       10 * time.Second,
		CacheTTL:             30 * time.Second,
		OutboundRPS:          5,
		RateLimitRPS:         10,
		RateLimitBurst:       20,
		EnableCircuitBreaker: true,
		MaxPriceChange:       0.5, // 50% between consecutive fetches
		MaxHashrateChange:    0.9,
		CircuitResetDelay:    5 * time.Minute,
		MaxBlockAge:          time.Hour,
	}
}

// Load creates a Config from CONFIG_FILE (if set) and environment variables.
// Environment variables win over the file.
func Load() (Config, error) {
	cfg := Defaults()
	if path, ok := GetEnv("CONFIG_FILE"); ok && path != "" {
		fileCfg, err := LoadFile(path, cfg)
		if err != nil {
			return Config{}, err
		}
		cfg = fileCfg
	}
	return applyEnv(cfg), nil
}

func applyEnv(cfg Config) Config {
	cfg.Port = GetEnvOrDefault("PORT", cfg.Port)
	cfg.MarketDataURL = strings.TrimRight(GetEnvOrDefault("MARKET_DATA_URL", cfg.MarketDataURL), "/")
	cfg.ExplorerURL = strings.TrimRight(GetEnvOrDefault("EXPLORER_URL", cfg.ExplorerURL), "/")
	cfg.DefaultCurrency = strings.ToUpper(GetEnvOrDefault("DEFAULT_CURRENCY", cfg.DefaultCurrency))
	cfg.OtelEndpoint = GetEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.OtelEndpoint)
	cfg.RequestTimeout = GetEnvAsDuration("REQUEST_TIMEOUT", cfg.RequestTimeout)
	cfg.CacheTTL = GetEnvAsDuration("CACHE_TTL", cfg.CacheTTL)
	cfg.OutboundRPS = GetEnvAsInt("OUTBOUND_RPS", cfg.OutboundRPS)
	cfg.RateLimitRPS = GetEnvAsFloat("RATE_LIMIT_RPS", cfg.RateLimitRPS)
	cfg.RateLimitBurst = GetEnvAsInt("RATE_LIMIT_BURST", cfg.RateLimitBurst)
	cfg.EnableCircuitBreaker = GetEnvAsBool("ENABLE_CIRCUIT_BREAKER", cfg.EnableCircuitBreaker)
	cfg.MaxPriceChange = GetEnvAsFloat("MAX_PRICE_CHANGE", cfg.MaxPriceChange)
	cfg.MaxHashrateChange = GetEnvAsFloat("MAX_HASHRATE_CHANGE", cfg.MaxHashrateChange)
	cfg.CircuitResetDelay = GetEnvAsDuration("CIRCUIT_RESET_DELAY", cfg.CircuitResetDelay)
	cfg.MaxBlockAge = GetEnvAsDuration("MAX_BLOCK_AGE", cfg.MaxBlockAge)
	cfg.SignReports = GetEnvAsBool("SIGN_REPORTS", cfg.SignReports)
	cfg.SigningKey = GetEnvOrDefault("SIGNING_KEY", cfg.SigningKey)
	return cfg
}

// GetEnv retrieves an environment variable and whether it exists
func GetEnv(key string) (string, bool) {
	value, exists := os.LookupEnv(key)
	return value, exists
}

// GetEnvOrDefault retrieves an environment variable or returns the default value if not set
func GetEnvOrDefault(key, defaultValue string) string {
	if value, exists := GetEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

// GetEnvAsInt retrieves an environment variable as an integer with a default value
func GetEnvAsInt(key string, defaultValue int) int {
	if value, exists := GetEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// GetEnvAsFloat retrieves an environment variable as a float with a default value
func GetEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := GetEnv(key); exists {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// GetEnvAsDuration retrieves an environment variable as a duration with a default value
func GetEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := GetEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// GetEnvAsBool retrieves an environment variable as a bool with a default value
func GetEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := GetEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
