package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Server:  ServerConfig{Port: 8080, ShutdownTimeout: time.Second, MaxConcurrentRuns: 1, MaxWaitTime: time.Second},
		Rate:    RateLimitConfig{Enabled: true, RequestsPerMinute: 100},
		Clean:   CleanConfig{MaxInputBytes: 1, IQRMultiplier: 1.5},
		Audit:   AuditConfig{ExportFormat: "json"},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(ConfigFileEnv, "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "0.0.0.0")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 8080)
	}
	if cfg.Server.MaxConcurrentRuns != 4 {
		t.Errorf("Server.MaxConcurrentRuns = %d, want %d", cfg.Server.MaxConcurrentRuns, 4)
	}
	if cfg.Clean.MaxInputBytes != 104857600 {
		t.Errorf("Clean.MaxInputBytes = %d, want %d", cfg.Clean.MaxInputBytes, 104857600)
	}
	if cfg.Clean.FillValue != "0" {
		t.Errorf("Clean.FillValue = %q, want %q", cfg.Clean.FillValue, "0")
	}
	if cfg.Clean.IQRMultiplier != 1.5 {
		t.Errorf("Clean.IQRMultiplier = %v, want %v", cfg.Clean.IQRMultiplier, 1.5)
	}
	if cfg.Clean.Placeholders != nil {
		t.Errorf("Clean.Placeholders = %v, want nil", cfg.Clean.Placeholders)
	}
	if cfg.Audit.ExportFormat != "json" {
		t.Errorf("Audit.ExportFormat = %q, want %q", cfg.Audit.ExportFormat, "json")
	}
}

func TestLoad_OverrideDefaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("CLEAN_DAY_FIRST", "true")
	t.Setenv("CLEAN_IQR_MULTIPLIER", "3")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadFile("")
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 9090)
	}
	if !cfg.Clean.DayFirst {
		t.Error("Clean.DayFirst = false, want true")
	}
	if cfg.Clean.IQRMultiplier != 3 {
		t.Errorf("Clean.IQRMultiplier = %v, want 3", cfg.Clean.IQRMultiplier)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestLoad_Duration(t *testing.T) {
	t.Setenv("SERVER_READ_TIMEOUT", "45s")
	t.Setenv("SERVER_MAX_WAIT_TIME", "1m30s")

	cfg, err := LoadFile("")
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if cfg.Server.ReadTimeout != 45*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want %v", cfg.Server.ReadTimeout, 45*time.Second)
	}
	if cfg.Server.MaxWaitTime != 90*time.Second {
		t.Errorf("Server.MaxWaitTime = %v, want %v", cfg.Server.MaxWaitTime, 90*time.Second)
	}
}

func TestLoad_CommaSeparatedSlice(t *testing.T) {
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 172.16.0.0/12 , 192.168.0.0/16")
	t.Setenv("CLEAN_PLACEHOLDERS", "na,?,missing")

	cfg, err := LoadFile("")
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	expected := []string{"10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"}
	if len(cfg.Security.TrustedProxies) != len(expected) {
		t.Fatalf("TrustedProxies length = %d, want %d", len(cfg.Security.TrustedProxies), len(expected))
	}
	for i, v := range expected {
		if cfg.Security.TrustedProxies[i] != v {
			t.Errorf("TrustedProxies[%d] = %q, want %q", i, cfg.Security.TrustedProxies[i], v)
		}
	}
	if got := strings.Join(cfg.Clean.Placeholders, "|"); got != "na|?|missing" {
		t.Errorf("Clean.Placeholders = %q, want %q", got, "na|?|missing")
	}
}

func TestLoad_InvalidValue(t *testing.T) {
	t.Setenv("SERVER_PORT", "eighty")

	_, err := LoadFile("")
	if err == nil {
		t.Fatal("LoadFile() expected error for non-numeric port")
	}
	if !strings.Contains(err.Error(), "SERVER_PORT") {
		t.Errorf("error should mention SERVER_PORT: %v", err)
	}
}

// ----------------------------------------------------------------------------
// TOML file
// ----------------------------------------------------------------------------

func writeTOML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fdakit.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFile_TOML(t *testing.T) {
	path := writeTOML(t, `
[server]
port = 7000
request_timeout = "2m"

[clean]
fill_value = "n/a"
placeholders = ["?", "unknown"]

[audit]
export_path = "audit.yaml"
export_format = "yaml"
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if cfg.Server.Port != 7000 {
		t.Errorf("Server.Port = %d, want 7000", cfg.Server.Port)
	}
	if cfg.Server.RequestTimeout != 2*time.Minute {
		t.Errorf("Server.RequestTimeout = %v, want 2m", cfg.Server.RequestTimeout)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, keys absent from the file keep their defaults", cfg.Server.Host)
	}
	if cfg.Clean.FillValue != "n/a" {
		t.Errorf("Clean.FillValue = %q, want %q", cfg.Clean.FillValue, "n/a")
	}
	if len(cfg.Clean.Placeholders) != 2 {
		t.Errorf("Clean.Placeholders = %v, want 2 entries", cfg.Clean.Placeholders)
	}
	if cfg.Audit.ExportFormat != "yaml" {
		t.Errorf("Audit.ExportFormat = %q, want yaml", cfg.Audit.ExportFormat)
	}
}

func TestLoadFile_EnvBeatsFile(t *testing.T) {
	path := writeTOML(t, "[server]\nport = 7000\n")
	t.Setenv("SERVER_PORT", "7001")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.Server.Port != 7001 {
		t.Errorf("Server.Port = %d, want 7001", cfg.Server.Port)
	}
}

func TestLoad_FromConfigEnv(t *testing.T) {
	t.Setenv(ConfigFileEnv, writeTOML(t, "[logging]\nformat = \"json\"\n"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format = %q, want json", cfg.Logging.Format)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("LoadFile() expected error for missing file")
	}
	if _, err := LoadFile(writeTOML(t, "[server\nport = ")); err == nil {
		t.Error("LoadFile() expected error for malformed TOML")
	}
}

// ----------------------------------------------------------------------------
// Validation
// ----------------------------------------------------------------------------

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"valid", func(*Config) {}, ""},
		{"invalid port", func(c *Config) { c.Server.Port = 99999 }, "SERVER_PORT"},
		{"no run slots", func(c *Config) { c.Server.MaxConcurrentRuns = 0 }, "SERVER_MAX_CONCURRENT_RUNS"},
		{"auth without keys", func(c *Config) { c.Security.RequireAPIKey = true }, "API_KEYS"},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, "LOG_LEVEL"},
		{"bad audit format", func(c *Config) { c.Audit.ExportFormat = "xml" }, "AUDIT_EXPORT_FORMAT"},
		{"zero input limit", func(c *Config) { c.Clean.MaxInputBytes = 0 }, "CLEAN_MAX_INPUT_BYTES"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()

			if tt.want == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error mentioning %s", tt.want)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error should mention %s: %v", tt.want, err)
			}
		})
	}
}

func TestValidate_CollectsEveryFailure(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 0
	cfg.Logging.Format = "xml"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error")
	}
	for _, want := range []string{"SERVER_PORT", "LOG_FORMAT"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %s: %v", want, err)
		}
	}
}

func TestServerAddr(t *testing.T) {
	tests := []struct {
		host string
		port int
		want string
	}{
		{"", 8080, ":8080"},
		{"0.0.0.0", 8080, "0.0.0.0:8080"},
		{"127.0.0.1", 3000, "127.0.0.1:3000"},
	}

	for _, tt := range tests {
		cfg := &ServerConfig{Host: tt.host, Port: tt.port}
		if got := cfg.Addr(); got != tt.want {
			t.Errorf("Addr() with host=%q, port=%d = %q, want %q", tt.host, tt.port, got, tt.want)
		}
	}
}

func TestConfigString_MasksKeys(t *testing.T) {
	cfg := validConfig()
	cfg.Security.APIKeys = []string{"super-secret"}

	str := cfg.String()
	if strings.Contains(str, "super-secret") {
		t.Error("String() should mask API keys")
	}
	if !strings.Contains(str, "MASKED") {
		t.Error("String() should contain MASKED placeholder")
	}
}
