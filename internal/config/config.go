// Package config provides centralized configuration management for fdakit.
// Settings come from struct-tag defaults, then an optional TOML file named by
// FDAKIT_CONFIG, then environment variables. The result is validated on
// startup so misconfiguration fails fast.
package config

import (
	"strconv"
	"time"
)

// ConfigFileEnv names the environment variable holding the TOML file path.
const ConfigFileEnv = "FDAKIT_CONFIG"

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig    `toml:"server"`
	Security SecurityConfig  `toml:"security"`
	Rate     RateLimitConfig `toml:"rate"`
	Logging  LoggingConfig   `toml:"logging"`
	Clean    CleanConfig     `toml:"clean"`
	Audit    AuditConfig     `toml:"audit"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0" toml:"host"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080" toml:"port"`

	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s" toml:"read_timeout"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s" toml:"write_timeout"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s" toml:"idle_timeout"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s" toml:"shutdown_timeout"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s" toml:"request_timeout"`

	// MaxConcurrentRuns caps cleaning runs in flight at once (default: 4)
	MaxConcurrentRuns int `env:"SERVER_MAX_CONCURRENT_RUNS" default:"4" toml:"max_concurrent_runs"`

	// MaxWaitTime is how long a run waits for a free slot (default: 10s)
	MaxWaitTime time.Duration `env:"SERVER_MAX_WAIT_TIME" default:"10s" toml:"max_wait_time"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES" toml:"trusted_proxies"`

	// RequireAPIKey enables X-API-Key checks on mutating endpoints (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false" toml:"require_api_key"`

	// APIKeys is a comma-separated list of accepted keys
	APIKeys []string `env:"API_KEYS" toml:"api_keys"`
}

// RateLimitConfig holds per-IP rate limiting settings.
type RateLimitConfig struct {
	Enabled           bool `env:"RATE_LIMIT_ENABLED" default:"true" toml:"enabled"`
	RequestsPerMinute int  `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100" toml:"requests_per_minute"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info" toml:"level"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text" toml:"format"`
}

// CleanConfig holds defaults for the cleaning pipelines.
type CleanConfig struct {
	// MaxInputBytes rejects larger CSV input (default: 100MB)
	MaxInputBytes int64 `env:"CLEAN_MAX_INPUT_BYTES" default:"104857600" toml:"max_input_bytes"`

	// Placeholders overrides the values coerced to missing (comma-separated)
	Placeholders []string `env:"CLEAN_PLACEHOLDERS" toml:"placeholders"`

	// FillValue replaces cells still missing after quick_clean (default: 0)
	FillValue string `env:"CLEAN_FILL_VALUE" default:"0" toml:"fill_value"`

	// DayFirst reads 03/04/2024 as 3 April (default: false)
	DayFirst bool `env:"CLEAN_DAY_FIRST" default:"false" toml:"day_first"`

	// IQRMultiplier is the k in Q1-k*IQR, Q3+k*IQR used by check reports (default: 1.5)
	IQRMultiplier float64 `env:"CLEAN_IQR_MULTIPLIER" default:"1.5" toml:"iqr_multiplier"`
}

// AuditConfig holds audit export settings.
type AuditConfig struct {
	// ExportPath, when set, receives the audit log after every CLI run
	ExportPath string `env:"AUDIT_EXPORT_PATH" toml:"export_path"`

	// ExportFormat is json or yaml (default: json)
	ExportFormat string `env:"AUDIT_EXPORT_FORMAT" default:"json" toml:"export_format"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	if c.Host == "" {
		return ":" + strconv.Itoa(c.Port)
	}
	return c.Host + ":" + strconv.Itoa(c.Port)
}
