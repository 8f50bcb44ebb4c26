package config

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"
)

const maxBodySizeLimit = int64(10 * 1024 * 1024)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed for %s: %s (value: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}

	messages := make([]string, 0, len(ve))
	for _, err := range ve {
		messages = append(messages, err.Error())
	}

	return fmt.Sprintf("configuration validation failed: %s", strings.Join(messages, "; "))
}

// Has checks if ValidationErrors contains any errors
func (ve ValidationErrors) Has() bool {
	return len(ve) > 0
}

// Fields returns the names of the invalid fields
func (ve ValidationErrors) Fields() []string {
	fields := make([]string, 0, len(ve))
	for _, err := range ve {
		fields = append(fields, err.Field)
	}
	return fields
}

// Validate validates the entire configuration and reports every invalid field
func (c *Config) Validate() error {
	var validationErrors ValidationErrors

	validationErrors = append(validationErrors, c.validateServer()...)
	validationErrors = append(validationErrors, c.validateStore()...)
	validationErrors = append(validationErrors, c.validateAuth()...)
	validationErrors = append(validationErrors, c.validateIdentityProvider()...)

	if c.Logging != nil {
		validationErrors = append(validationErrors, c.validateLogging()...)
	}

	if c.Server != nil {
		validationErrors = append(validationErrors, c.validateServerTimeouts()...)
	}

	if validationErrors.Has() {
		return validationErrors
	}

	return nil
}

func (c *Config) isTest() bool {
	return c.Environment == "test"
}

func (c *Config) validateServer() ValidationErrors {
	var errors ValidationErrors

	if c.Port == "" {
		errors = append(errors, ValidationError{
			Field:   "port",
			Value:   c.Port,
			Message: "port cannot be empty",
		})
	} else if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, ValidationError{
			Field:   "port",
			Value:   c.Port,
			Message: "port must be a valid integer",
		})
	} else if port < 1 || port > 65535 {
		errors = append(errors, ValidationError{
			Field:   "port",
			Value:   c.Port,
			Message: "port must be between 1 and 65535",
		})
	}

	if c.Environment != "" && !slices.Contains([]string{"development", "production", "test", "staging"}, c.Environment) {
		errors = append(errors, ValidationError{
			Field:   "environment",
			Value:   c.Environment,
			Message: "environment must be one of: development, production, test, staging",
		})
	}

	if c.MaxBodySize <= 0 || c.MaxBodySize > maxBodySizeLimit {
		errors = append(errors, ValidationError{
			Field:   "max_body_size",
			Value:   c.MaxBodySize,
			Message: fmt.Sprintf("max body size must be between 1 and %d bytes", maxBodySizeLimit),
		})
	}

	return errors
}

func (c *Config) validateStore() ValidationErrors {
	var errors ValidationErrors

	switch c.StoreDriver {
	case StoreDriverMemory:
		if c.Environment == "production" {
			errors = append(errors, ValidationError{
				Field:   "store_driver",
				Value:   c.StoreDriver,
				Message: "memory store is not allowed in production",
			})
		}
		return errors
	case StoreDriverMongoDB:
	default:
		return append(errors, ValidationError{
			Field:   "store_driver",
			Value:   c.StoreDriver,
			Message: "store driver must be one of: mongodb, memory",
		})
	}

	if c.MongoDB.Database == "" {
		errors = append(errors, ValidationError{
			Field:   "mongodb.database",
			Value:   c.MongoDB.Database,
			Message: "database name cannot be empty",
		})
	}
	if c.MongoDB.Collection == "" {
		errors = append(errors, ValidationError{
			Field:   "mongodb.collection",
			Value:   c.MongoDB.Collection,
			Message: "collection name cannot be empty",
		})
	}
	if c.MongoDB.ConnectTimeout <= 0 {
		errors = append(errors, ValidationError{
			Field:   "mongodb.connect_timeout",
			Value:   c.MongoDB.ConnectTimeout,
			Message: "connect timeout must be greater than 0",
		})
	}

	// test environments may inject their own connection
	if c.MongoDB.URI == "" {
		if !c.isTest() {
			errors = append(errors, ValidationError{
				Field:   "mongodb.uri",
				Value:   c.MongoDB.URI,
				Message: "MongoDB URI is required for non-test environments",
			})
		}
		return errors
	}

	parsedURL, err := url.Parse(c.MongoDB.URI)
	if err != nil {
		return append(errors, ValidationError{
			Field:   "mongodb.uri",
			Value:   "[REDACTED]",
			Message: "MongoDB URI must be a valid URL",
		})
	}

	if parsedURL.Scheme != "mongodb" && parsedURL.Scheme != "mongodb+srv" {
		errors = append(errors, ValidationError{
			Field:   "mongodb.uri",
			Value:   parsedURL.Scheme,
			Message: "MongoDB URI must use mongodb or mongodb+srv scheme",
		})
	}

	if parsedURL.Host == "" {
		errors = append(errors, ValidationError{
			Field:   "mongodb.uri",
			Value:   "[REDACTED]",
			Message: "MongoDB URI must include host",
		})
	}

	return errors
}

func (c *Config) validateAuth() ValidationErrors {
	var errors ValidationErrors

	if !c.isTest() {
		if msg := httpURLProblem(c.Auth.Issuer); msg != "" {
			errors = append(errors, ValidationError{Field: "auth.issuer", Value: c.Auth.Issuer, Message: msg})
		}
		if msg := httpURLProblem(c.Auth.JWKSURL); msg != "" {
			errors = append(errors, ValidationError{Field: "auth.jwks_url", Value: c.Auth.JWKSURL, Message: msg})
		}
		if strings.TrimSpace(c.Auth.Audience) == "" {
			errors = append(errors, ValidationError{
				Field:   "auth.audience",
				Value:   c.Auth.Audience,
				Message: "audience cannot be empty",
			})
		}
	}

	if c.Auth.JWKSTTL <= 0 {
		errors = append(errors, ValidationError{
			Field:   "auth.jwks_ttl",
			Value:   c.Auth.JWKSTTL,
			Message: "key set TTL must be greater than 0",
		})
	}
	if c.Auth.JWKSMinRefresh <= 0 {
		errors = append(errors, ValidationError{
			Field:   "auth.jwks_min_refresh",
			Value:   c.Auth.JWKSMinRefresh,
			Message: "key set minimum refresh interval must be greater than 0",
		})
	}
	if c.Auth.ClockSkew < 0 || c.Auth.ClockSkew > 5*time.Minute {
		errors = append(errors, ValidationError{
			Field:   "auth.clock_skew",
			Value:   c.Auth.ClockSkew,
			Message: "clock skew must be between 0 and 5 minutes",
		})
	}

	return errors
}

func (c *Config) validateIdentityProvider() ValidationErrors {
	var errors ValidationErrors

	if c.IdP.HealthURL == "" {
		return errors
	}

	if msg := httpURLProblem(c.IdP.HealthURL); msg != "" {
		errors = append(errors, ValidationError{Field: "idp.health_url", Value: c.IdP.HealthURL, Message: msg})
	}
	if c.IdP.HealthTimeout <= 0 {
		errors = append(errors, ValidationError{
			Field:   "idp.health_timeout",
			Value:   c.IdP.HealthTimeout,
			Message: "health timeout must be greater than 0",
		})
	}

	return errors
}

// httpURLProblem returns a message describing why raw is not an absolute
// http(s) URL, or "" if it is one
func httpURLProblem(raw string) string {
	if raw == "" {
		return "URL cannot be empty"
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "must be a valid URL"
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "URL must use http or https scheme"
	}
	if parsed.Host == "" {
		return "URL must include host"
	}
	return ""
}

func (c *Config) validateLogging() ValidationErrors {
	var errors ValidationErrors

	if !slices.Contains([]string{"debug", "info", "warn", "error"}, strings.ToLower(c.Logging.Level)) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: "logging level must be one of: debug, info, warn, error",
		})
	}

	if !slices.Contains([]string{"json", "console"}, strings.ToLower(c.Logging.Format)) {
		errors = append(errors, ValidationError{
			Field:   "logging.format",
			Value:   c.Logging.Format,
			Message: "logging format must be either 'json' or 'console'",
		})
	}

	return errors
}

func (c *Config) validateServerTimeouts() ValidationErrors {
	var errors ValidationErrors

	if c.Server.ReadTimeout <= 0 {
		errors = append(errors, ValidationError{
			Field:   "server.read_timeout",
			Value:   c.Server.ReadTimeout,
			Message: "read timeout must be greater than 0",
		})
	} else if c.Server.ReadTimeout > 5*time.Minute {
		errors = append(errors, ValidationError{
			Field:   "server.read_timeout",
			Value:   c.Server.ReadTimeout,
			Message: "read timeout should not exceed 5 minutes",
		})
	}

	if c.Server.WriteTimeout <= 0 {
		errors = append(errors, ValidationError{
			Field:   "server.write_timeout",
			Value:   c.Server.WriteTimeout,
			Message: "write timeout must be greater than 0",
		})
	} else if c.Server.WriteTimeout > 5*time.Minute {
		errors = append(errors, ValidationError{
			Field:   "server.write_timeout",
			Value:   c.Server.WriteTimeout,
			Message: "write timeout should not exceed 5 minutes",
		})
	}

	if c.Server.IdleTimeout <= 0 {
		errors = append(errors, ValidationError{
			Field:   "server.idle_timeout",
			Value:   c.Server.IdleTimeout,
			Message: "idle timeout must be greater than 0",
		})
	}

	return errors
}

// MustValidate validates the configuration and panics on error
func (c *Config) MustValidate() {
	if err := c.Validate(); err != nil {
		panic(fmt.Sprintf("configuration validation failed: %v", err))
	}
}
