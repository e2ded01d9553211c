// Package config loads and validates emulator config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	userpooldomain "userpool-emulator/internal/userpool/domain"
)

// Store backends accepted in STORE_BACKEND.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Config holds emulator configuration loaded from the environment.
type Config struct {
	// StoreBackend selects where namespaces are persisted: memory, redis or postgres.
	StoreBackend string `mapstructure:"STORE_BACKEND"`
	// DatabaseURL is the Postgres DSN; required when StoreBackend is postgres.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// RedisAddr is host:port of the Redis server; required when StoreBackend is redis.
	RedisAddr string `mapstructure:"REDIS_ADDR"`
	// RedisPrefix is prepended to every namespace key (prefix:name).
	RedisPrefix string `mapstructure:"REDIS_PREFIX"`

	// JWTPrivateKey is the PEM-encoded private key (RSA or ECDSA) or path to file. Empty with an empty
	// JWTPublicKey generates an ephemeral RSA key at startup.
	JWTPrivateKey string `mapstructure:"JWT_PRIVATE_KEY"`
	// JWTPublicKey is the PEM-encoded public key or path to file; derived from the private key when empty.
	JWTPublicKey string `mapstructure:"JWT_PUBLIC_KEY"`
	// JWTIssuerBase is the iss prefix; each pool's issuer is <base>/<poolId>.
	JWTIssuerBase string `mapstructure:"JWT_ISSUER_BASE"`
	JWTAccessTTL  string `mapstructure:"JWT_ACCESS_TTL"`
	JWTIDTTL      string `mapstructure:"JWT_ID_TTL"`
	JWTRefreshTTL string `mapstructure:"JWT_REFRESH_TTL"`

	// PasswordBcryptCost is the bcrypt cost (4–31) applied to new passwords. 0 stores passwords as supplied.
	PasswordBcryptCost int `mapstructure:"PASSWORD_BCRYPT_COST"`

	// UsernameAttributes is a comma-separated list of attributes (email, phone_number) accepted in place of a username.
	UsernameAttributes string `mapstructure:"USER_POOL_USERNAME_ATTRIBUTES"`
	// MFAConfiguration is OFF, ON or OPTIONAL.
	MFAConfiguration string `mapstructure:"USER_POOL_MFA_CONFIGURATION"`

	// LogLevel is the zap level name (debug, info, warn, error).
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// OTelEndpoint is the OTLP gRPC collector address; empty disables export.
	OTelEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTelInsecure bool   `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`

	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if any field is invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("STORE_BACKEND", BackendMemory)
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PREFIX", "userpool")
	v.SetDefault("JWT_PRIVATE_KEY", "")
	v.SetDefault("JWT_PUBLIC_KEY", "")
	v.SetDefault("JWT_ISSUER_BASE", "http://localhost:9229")
	v.SetDefault("JWT_ACCESS_TTL", "1h")
	v.SetDefault("JWT_ID_TTL", "1h")
	v.SetDefault("JWT_REFRESH_TTL", "720h") // 30d
	v.SetDefault("PASSWORD_BCRYPT_COST", 0)
	v.SetDefault("USER_POOL_USERNAME_ATTRIBUTES", userpooldomain.UsernameAttributeEmail)
	v.SetDefault("USER_POOL_MFA_CONFIGURATION", string(userpooldomain.MFAOff))
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("APP_ENV", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.StoreBackend = strings.ToLower(strings.TrimSpace(cfg.StoreBackend))
	switch cfg.StoreBackend {
	case BackendMemory:
	case BackendRedis:
		if cfg.RedisAddr == "" {
			return nil, errors.New("config: REDIS_ADDR must be set when STORE_BACKEND=redis")
		}
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, errors.New("config: DATABASE_URL must be set when STORE_BACKEND=postgres")
		}
	default:
		return nil, fmt.Errorf("config: STORE_BACKEND must be memory, redis or postgres, got %q", cfg.StoreBackend)
	}

	if cfg.PasswordBcryptCost != 0 && (cfg.PasswordBcryptCost < 4 || cfg.PasswordBcryptCost > 31) {
		return nil, errors.New("config: PASSWORD_BCRYPT_COST must be 0 or between 4 and 31")
	}

	switch userpooldomain.MFAConfiguration(strings.ToUpper(cfg.MFAConfiguration)) {
	case userpooldomain.MFAOff, userpooldomain.MFAOn, userpooldomain.MFAOptional:
		cfg.MFAConfiguration = strings.ToUpper(cfg.MFAConfiguration)
	default:
		return nil, fmt.Errorf("config: USER_POOL_MFA_CONFIGURATION must be OFF, ON or OPTIONAL, got %q", cfg.MFAConfiguration)
	}

	for _, attr := range cfg.UsernameAttributesList() {
		if attr != userpooldomain.UsernameAttributeEmail && attr != userpooldomain.UsernameAttributePhoneNumber {
			return nil, fmt.Errorf("config: USER_POOL_USERNAME_ATTRIBUTES: unsupported attribute %q", attr)
		}
	}

	if cfg.Env == "production" {
		if cfg.PasswordBcryptCost == 0 {
			return nil, errors.New("config: PASSWORD_BCRYPT_COST must be set when APP_ENV=production")
		}
		if cfg.StoreBackend == BackendMemory {
			return nil, errors.New("config: STORE_BACKEND=memory is not allowed when APP_ENV=production")
		}
	}

	return &cfg, nil
}

// AccessTTL parses JWTAccessTTL as a time.Duration. Returns 1h if unset or invalid.
func (c *Config) AccessTTL() time.Duration {
	return parseTTL(c.JWTAccessTTL, time.Hour)
}

// IDTTL parses JWTIDTTL as a time.Duration. Returns 1h if unset or invalid.
func (c *Config) IDTTL() time.Duration {
	return parseTTL(c.JWTIDTTL, time.Hour)
}

// RefreshTTL parses JWTRefreshTTL as a time.Duration. Returns 720h if unset or invalid.
func (c *Config) RefreshTTL() time.Duration {
	return parseTTL(c.JWTRefreshTTL, 720*time.Hour)
}

func parseTTL(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// UsernameAttributesList returns the configured username attributes from the comma-separated value.
func (c *Config) UsernameAttributesList() []string {
	if c == nil || c.UsernameAttributes == "" {
		return nil
	}
	parts := strings.Split(c.UsernameAttributes, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// PoolDefaults returns the settings shared by every pool the emulator serves.
func (c *Config) PoolDefaults() userpooldomain.DefaultConfig {
	return userpooldomain.DefaultConfig{
		UsernameAttributes: c.UsernameAttributesList(),
		MfaConfiguration:   userpooldomain.MFAConfiguration(c.MFAConfiguration),
	}
}
