// Package config loads runtime configuration: defaults first, then an
// optional YAML file, then environment overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage backend names accepted in configuration.
const (
	BackendJSONFile = "jsonfile"
	BackendSQLite   = "sqlite"
	BackendMemory   = "memory"
)

// Config holds runtime configuration values for the registry service.
type Config struct {
	Port        string `yaml:"port"`
	Environment string `yaml:"environment"`
	LogLevel    string `yaml:"log_level"`

	Storage  StorageConfig  `yaml:"storage"`
	Registry RegistryConfig `yaml:"registry"`
	Auth     AuthConfig     `yaml:"auth"`
	HTTP     HTTPConfig     `yaml:"http"`
}

// StorageConfig selects the ledger backend and where it lives on disk.
type StorageConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

// RegistryConfig tunes number issuing.
type RegistryConfig struct {
	// PlainNumbers issues bare numeric ids instead of prefixed ones.
	PlainNumbers bool `yaml:"plain_numbers"`
}

// AuthConfig carries token signing material and role bootstrap lists.
// TTLs are duration strings like "15m".
type AuthConfig struct {
	JWTSecret       string `yaml:"jwt_secret"`
	JWTIssuer       string `yaml:"jwt_issuer"`
	AccessTokenTTL  string `yaml:"access_token_ttl"`
	RefreshTokenTTL string `yaml:"refresh_token_ttl"`
	AdminEmails     string `yaml:"admin_emails"`
	OperatorEmails  string `yaml:"operator_emails"`
}

// HTTPConfig tunes the outer middleware.
type HTTPConfig struct {
	AllowedOrigins  string  `yaml:"allowed_origins"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
}

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 30 * 24 * time.Hour
)

// DefaultConfig returns the local development configuration.
func DefaultConfig() Config {
	return Config{
		Port:        "8080",
		Environment: "development",
		LogLevel:    "info",
		Storage: StorageConfig{
			Backend: BackendJSONFile,
			Path:    "data/sft_registry.json",
		},
		Auth: AuthConfig{
			JWTSecret:       "local-development-secret",
			JWTIssuer:       "sft-registry-api",
			AccessTokenTTL:  "15m",
			RefreshTokenTTL: "720h",
		},
		HTTP: HTTPConfig{
			AllowedOrigins:  "",
			RateLimitPerSec: 5,
			RateLimitBurst:  10,
		},
	}
}

// Load builds the effective configuration. A missing file at the default
// location falls back to defaults; an explicitly requested file must
// exist.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = "sft-registry.yaml"
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err) && !explicit:
	default:
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations that cannot run safely.
func (c Config) Validate() error {
	switch c.Storage.Backend {
	case BackendJSONFile, BackendSQLite, BackendMemory:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Environment == "production" && c.Auth.JWTSecret == DefaultConfig().Auth.JWTSecret {
		return fmt.Errorf("auth.jwt_secret must be set explicitly in production")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret must not be empty")
	}
	return nil
}

// AccessTTL returns the parsed access token lifetime.
func (c AuthConfig) AccessTTL() time.Duration {
	d, err := time.ParseDuration(c.AccessTokenTTL)
	if err != nil || d <= 0 {
		return defaultAccessTTL
	}
	return d
}

// RefreshTTL returns the parsed refresh token lifetime.
func (c AuthConfig) RefreshTTL() time.Duration {
	d, err := time.ParseDuration(c.RefreshTokenTTL)
	if err != nil || d <= 0 {
		return defaultRefreshTTL
	}
	return d
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SFT_PORT"); v != "" {
		c.Port = v
	}
	if v := os.Getenv("SFT_ENV"); v != "" {
		c.Environment = v
	}
	if v := os.Getenv("SFT_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("SFT_STORAGE_BACKEND"); v != "" {
		c.Storage.Backend = v
	}
	if v := os.Getenv("SFT_LEDGER_PATH"); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv("SFT_PLAIN_NUMBERS"); v != "" {
		c.Registry.PlainNumbers = v == "true" || v == "1"
	}
	if v := os.Getenv("SFT_JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv("SFT_JWT_ISSUER"); v != "" {
		c.Auth.JWTIssuer = v
	}
	if v := os.Getenv("SFT_ACCESS_TOKEN_TTL"); v != "" {
		c.Auth.AccessTokenTTL = v
	}
	if v := os.Getenv("SFT_REFRESH_TOKEN_TTL"); v != "" {
		c.Auth.RefreshTokenTTL = v
	}
	if v := os.Getenv("SFT_ADMIN_EMAILS"); v != "" {
		c.Auth.AdminEmails = v
	}
	if v := os.Getenv("SFT_OPERATOR_EMAILS"); v != "" {
		c.Auth.OperatorEmails = v
	}
	if v := os.Getenv("SFT_CORS_ORIGINS"); v != "" {
		c.HTTP.AllowedOrigins = v
	}
}
