// Package config loads the service configuration from the environment
// and validates it before anything is started
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Store drivers
const (
	StoreDriverMongoDB = "mongodb"
	StoreDriverMemory  = "memory"
)

// Config represents the application configuration
type Config struct {
	Environment string
	Port        string
	Host        string
	StoreDriver string
	MaxBodySize int64
	MongoDB     MongoDBConfig
	Auth        AuthConfig
	IdP         IdentityProviderConfig
	Logging     *LoggingConfig
	Server      *ServerConfig
}

// MongoDBConfig holds document store connection settings
type MongoDBConfig struct {
	URI            string
	Database       string
	Collection     string
	ConnectTimeout time.Duration
}

// AuthConfig holds bearer token validation settings
type AuthConfig struct {
	Issuer         string
	Audience       string
	JWKSURL        string
	JWKSTTL        time.Duration
	JWKSMinRefresh time.Duration
	ClockSkew      time.Duration
}

// IdentityProviderConfig holds the identity provider readiness probe settings.
// An empty HealthURL disables the probe.
type IdentityProviderConfig struct {
	HealthURL     string
	HealthTimeout time.Duration
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Load creates a new configuration from environment variables with validation
func Load() (*Config, error) {
	config := &Config{
		Environment: getEnv("GO_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		Host:        getEnv("HOST", "0.0.0.0"),
		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", StoreDriverMongoDB)),
		MaxBodySize: parseSize(getEnv("MAX_BODY_SIZE", "64KB")),
		MongoDB: MongoDBConfig{
			URI:            getEnv("MONGODB_URI", ""),
			Database:       getEnv("MONGODB_DATABASE", "user_management"),
			Collection:     getEnv("MONGODB_COLLECTION", "user_settings"),
			ConnectTimeout: getDuration("MONGODB_CONNECT_TIMEOUT", "10s"),
		},
		Auth: AuthConfig{
			Issuer:         getEnv("AUTH_ISSUER", ""),
			Audience:       getEnv("AUTH_AUDIENCE", ""),
			JWKSURL:        getEnv("AUTH_JWKS_URL", ""),
			JWKSTTL:        getDuration("AUTH_JWKS_TTL", "15m"),
			JWKSMinRefresh: getDuration("AUTH_JWKS_MIN_REFRESH", "30s"),
			ClockSkew:      getDuration("AUTH_CLOCK_SKEW", "30s"),
		},
		IdP: IdentityProviderConfig{
			HealthURL:     getEnv("IDP_HEALTH_URL", ""),
			HealthTimeout: getDuration("IDP_HEALTH_TIMEOUT", "2s"),
		},
		Logging: &LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Server: &ServerConfig{
			ReadTimeout:  getDuration("READ_TIMEOUT", "10s"),
			WriteTimeout: getDuration("WRITE_TIMEOUT", "10s"),
			IdleTimeout:  getDuration("SERVER_TIMEOUT", "30s"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDuration returns 0 for unparsable values so Validate reports them
func getDuration(key, defaultValue string) time.Duration {
	d, err := time.ParseDuration(getEnv(key, defaultValue))
	if err != nil {
		return 0
	}
	return d
}

// parseSize parses size strings like "1MB", "64KB" or "4096" into bytes.
// Returns 0 when the value cannot be parsed.
func parseSize(sizeStr string) int64 {
	sizeStr = strings.ToUpper(strings.TrimSpace(sizeStr))

	multiplier := int64(1)
	switch {
	case strings.HasSuffix(sizeStr, "MB"):
		multiplier = 1024 * 1024
		sizeStr = strings.TrimSuffix(sizeStr, "MB")
	case strings.HasSuffix(sizeStr, "KB"):
		multiplier = 1024
		sizeStr = strings.TrimSuffix(sizeStr, "KB")
	case strings.HasSuffix(sizeStr, "B"):
		sizeStr = strings.TrimSuffix(sizeStr, "B")
	}

	num, err := strconv.ParseInt(strings.TrimSpace(sizeStr), 10, 64)
	if err != nil || num < 0 {
		return 0
	}
	return num * multiplier
}

// MustLoad loads configuration and panics on error
func MustLoad() *Config {
	config, err := Load()
	if err != nil {
		panic(err)
	}
	return config
}
