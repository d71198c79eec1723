// Package config provides the unified configuration system for icefeed.
// It defines a single ClientConfig structure used by the ingest client, the
// catalog probe and the smoke runner, organized into logical sections:
//
//   - Endpoint: service and catalog addresses, default table identifiers
//   - Timeouts: connection and request timeouts
//   - Reliability: retry logic, circuit breaker, rate limiting
//   - Logging: level, encoding, development mode
//   - Observability: metrics and tracing toggles
//
// Example usage:
//
//	cfg := config.NewClientConfig()
//	cfg.Endpoint.ServiceURL = "http://ingress.internal:3000"
//	cfg.Reliability.RetryAttempts = 3
//
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config

import (
	"fmt"
	"net/url"
	"time"
)

// ClientConfig is the single configuration structure for all icefeed components.
type ClientConfig struct {
	// Name identifies this client instance in logs and metrics
	Name string `yaml:"name" json:"name"`

	// Endpoint settings identify the services under test
	Endpoint EndpointConfig `yaml:"endpoint" json:"endpoint"`

	// Timeouts define various timeout durations
	Timeouts TimeoutConfig `yaml:"timeouts" json:"timeouts"`

	// Reliability settings for error handling and resilience
	Reliability ReliabilityConfig `yaml:"reliability" json:"reliability"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// Observability settings for metrics and tracing
	Observability ObservabilityConfig `yaml:"observability" json:"observability"`
}

// EndpointConfig identifies the ingress service and the optional REST catalog.
type EndpointConfig struct {
	// ServiceURL is the base URL of the ingress service
	ServiceURL string `yaml:"service_url" json:"service_url"`
	// CatalogURL is the base URL of the Iceberg REST catalog (optional,
	// required only for smoke verification)
	CatalogURL string `yaml:"catalog_url" json:"catalog_url"`
	// Table is the default target table name
	Table string `yaml:"table" json:"table"`
	// Namespace is the default target namespace
	Namespace string `yaml:"namespace" json:"namespace"`
}

// TimeoutConfig contains all timeout-related settings.
type TimeoutConfig struct {
	// Request timeout for individual HTTP calls
	Request time.Duration `yaml:"request" json:"request"`
	// Connection timeout for establishing connections
	Connection time.Duration `yaml:"connection" json:"connection"`
	// Idle timeout before closing inactive connections
	Idle time.Duration `yaml:"idle" json:"idle"`
	// KeepAlive interval for connection health checks
	KeepAlive time.Duration `yaml:"keep_alive" json:"keep_alive"`
}

// ReliabilityConfig contains reliability and error handling settings.
type ReliabilityConfig struct {
	// RetryAttempts sets maximum retry attempts for retryable failures
	RetryAttempts int `yaml:"retry_attempts" json:"retry_attempts"`
	// RetryDelay is the initial delay between retries
	RetryDelay time.Duration `yaml:"retry_delay" json:"retry_delay"`
	// RetryMultiplier increases delay exponentially
	RetryMultiplier float64 `yaml:"retry_multiplier" json:"retry_multiplier"`
	// MaxRetryDelay caps the maximum retry delay
	MaxRetryDelay time.Duration `yaml:"max_retry_delay" json:"max_retry_delay"`
	// CircuitBreaker enables the circuit breaker
	CircuitBreaker bool `yaml:"circuit_breaker" json:"circuit_breaker"`
	// RateLimitPerSec limits requests per second (0 = unlimited)
	RateLimitPerSec int `yaml:"rate_limit_per_sec" json:"rate_limit_per_sec"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error)
	Level string `yaml:"level" json:"level"`
	// Encoding is the log output format (json or console)
	Encoding string `yaml:"encoding" json:"encoding"`
	// Development enables colored human-readable output
	Development bool `yaml:"development" json:"development"`
}

// ObservabilityConfig contains metrics and tracing settings.
type ObservabilityConfig struct {
	// EnableMetrics enables Prometheus metric collection
	EnableMetrics bool `yaml:"enable_metrics" json:"enable_metrics"`
	// EnableTracing enables OpenTelemetry tracing of smoke steps
	EnableTracing bool `yaml:"enable_tracing" json:"enable_tracing"`
	// TraceSamplingRate sets the trace sampling ratio (0..1)
	TraceSamplingRate float64 `yaml:"trace_sampling_rate" json:"trace_sampling_rate"`
}

// NewClientConfig returns a ClientConfig populated with defaults matching the
// reference deployment: the service on localhost:3000 and the catalog on
// localhost:8181.
func NewClientConfig() *ClientConfig {
	return &ClientConfig{
		Name: "icefeed",
		Endpoint: EndpointConfig{
			ServiceURL: "http://localhost:3000",
			CatalogURL: "http://localhost:8181",
			Table:      "test_table",
			Namespace:  "default",
		},
		Timeouts: TimeoutConfig{
			Request:    30 * time.Second,
			Connection: 10 * time.Second,
			Idle:       90 * time.Second,
			KeepAlive:  30 * time.Second,
		},
		Reliability: ReliabilityConfig{
			RetryAttempts:   0,
			RetryDelay:      500 * time.Millisecond,
			RetryMultiplier: 2.0,
			MaxRetryDelay:   10 * time.Second,
			CircuitBreaker:  false,
			RateLimitPerSec: 0,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Encoding: "json",
		},
		Observability: ObservabilityConfig{
			EnableMetrics:     true,
			EnableTracing:     false,
			TraceSamplingRate: 1.0,
		},
	}
}

// Validate checks the configuration for errors.
func (c *ClientConfig) Validate() error {
	if c.Endpoint.ServiceURL == "" {
		return fmt.Errorf("endpoint.service_url is required")
	}
	if _, err := url.Parse(c.Endpoint.ServiceURL); err != nil {
		return fmt.Errorf("endpoint.service_url is invalid: %w", err)
	}
	if c.Endpoint.CatalogURL != "" {
		if _, err := url.Parse(c.Endpoint.CatalogURL); err != nil {
			return fmt.Errorf("endpoint.catalog_url is invalid: %w", err)
		}
	}
	if c.Timeouts.Request <= 0 {
		return fmt.Errorf("timeouts.request must be positive")
	}
	if c.Reliability.RetryAttempts < 0 {
		return fmt.Errorf("reliability.retry_attempts must not be negative")
	}
	if c.Reliability.RetryAttempts > 0 && c.Reliability.RetryMultiplier < 1.0 {
		return fmt.Errorf("reliability.retry_multiplier must be >= 1.0")
	}
	if c.Reliability.RateLimitPerSec < 0 {
		return fmt.Errorf("reliability.rate_limit_per_sec must not be negative")
	}
	if r := c.Observability.TraceSamplingRate; r < 0 || r > 1 {
		return fmt.Errorf("observability.trace_sampling_rate must be in [0,1]")
	}
	return nil
}
