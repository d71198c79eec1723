// Package clients provides the HTTP transport used by the ingest and catalog
// clients, with connection pooling, rate limiting and circuit breaking.
package clients

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/http2"

	"github.com/datapassage/icefeed/pkg/config"
)

// HTTPClient wraps net/http with pooling, rate limiting, circuit breaking and
// latency metrics.
type HTTPClient struct {
	config     *HTTPConfig
	logger     *zap.Logger
	httpClient *http.Client
	transport  *http.Transport

	totalRequests  int64
	failedRequests int64

	metrics        *HTTPMetrics
	circuitBreaker *HTTPCircuitBreaker
	rateLimiter    RateLimiter
}

// HTTPConfig configures the HTTP client
type HTTPConfig struct {
	// Connection settings
	MaxIdleConns        int           `json:"max_idle_conns"`
	MaxIdleConnsPerHost int           `json:"max_idle_conns_per_host"`
	MaxConnsPerHost     int           `json:"max_conns_per_host"`
	IdleConnTimeout     time.Duration `json:"idle_conn_timeout"`
	DisableKeepAlives   bool          `json:"disable_keep_alives"`
	DisableCompression  bool          `json:"disable_compression"`

	// HTTP/2 settings
	EnableHTTP2 bool `json:"enable_http2"`

	// Timeouts
	DialTimeout           time.Duration `json:"dial_timeout"`
	TLSHandshakeTimeout   time.Duration `json:"tls_handshake_timeout"`
	ResponseHeaderTimeout time.Duration `json:"response_header_timeout"`
	RequestTimeout        time.Duration `json:"request_timeout"`
	KeepAlive             time.Duration `json:"keep_alive"`

	// TLS settings
	InsecureSkipVerify bool   `json:"insecure_skip_verify"`
	TLSMinVersion      uint16 `json:"tls_min_version"`

	// Rate limiting
	RateLimit float64 `json:"rate_limit"`
	RateBurst int     `json:"rate_burst"`

	// Circuit breaker
	CircuitBreakerEnabled bool          `json:"circuit_breaker_enabled"`
	FailureThreshold      int           `json:"failure_threshold"`
	SuccessThreshold      int           `json:"success_threshold"`
	BreakerTimeout        time.Duration `json:"breaker_timeout"`

	// Retry
	RetryAttempts   int           `json:"retry_attempts"`
	RetryDelay      time.Duration `json:"retry_delay"`
	RetryMultiplier float64       `json:"retry_multiplier"`
	MaxRetryDelay   time.Duration `json:"max_retry_delay"`

	// UserAgent sent when the request carries none
	UserAgent string `json:"user_agent"`
}

// DefaultHTTPConfig returns defaults suitable for probing a local service.
func DefaultHTTPConfig() *HTTPConfig {
	return &HTTPConfig{
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		MaxConnsPerHost:       10,
		IdleConnTimeout:       90 * time.Second,
		EnableHTTP2:           true,
		DialTimeout:           10 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
		RequestTimeout:        30 * time.Second,
		KeepAlive:             30 * time.Second,
		TLSMinVersion:         tls.VersionTLS12,
		RateLimit:             0,
		RateBurst:             1,
		CircuitBreakerEnabled: false,
		FailureThreshold:      5,
		SuccessThreshold:      3,
		BreakerTimeout:        30 * time.Second,
		RetryAttempts:         0,
		RetryDelay:            500 * time.Millisecond,
		RetryMultiplier:       2.0,
		MaxRetryDelay:         10 * time.Second,
		UserAgent:             "icefeed/1.0",
	}
}

// HTTPConfigFromClient derives transport settings from the unified client
// configuration.
func HTTPConfigFromClient(cfg *config.ClientConfig) *HTTPConfig {
	hc := DefaultHTTPConfig()
	if cfg == nil {
		return hc
	}
	if cfg.Timeouts.Request > 0 {
		hc.RequestTimeout = cfg.Timeouts.Request
	}
	if cfg.Timeouts.Connection > 0 {
		hc.DialTimeout = cfg.Timeouts.Connection
	}
	if cfg.Timeouts.Idle > 0 {
		hc.IdleConnTimeout = cfg.Timeouts.Idle
	}
	if cfg.Timeouts.KeepAlive > 0 {
		hc.KeepAlive = cfg.Timeouts.KeepAlive
	}
	hc.CircuitBreakerEnabled = cfg.Reliability.CircuitBreaker
	if cfg.Reliability.RateLimitPerSec > 0 {
		hc.RateLimit = float64(cfg.Reliability.RateLimitPerSec)
		hc.RateBurst = cfg.Reliability.RateLimitPerSec
	}
	hc.RetryAttempts = cfg.Reliability.RetryAttempts
	if cfg.Reliability.RetryDelay > 0 {
		hc.RetryDelay = cfg.Reliability.RetryDelay
	}
	if cfg.Reliability.RetryMultiplier >= 1.0 {
		hc.RetryMultiplier = cfg.Reliability.RetryMultiplier
	}
	if cfg.Reliability.MaxRetryDelay > 0 {
		hc.MaxRetryDelay = cfg.Reliability.MaxRetryDelay
	}
	return hc
}

// NewHTTPClient creates a new HTTP client
func NewHTTPClient(config *HTTPConfig, logger *zap.Logger) *HTTPClient {
	if config == nil {
		config = DefaultHTTPConfig()
	}

	client := &HTTPClient{
		config:  config,
		logger:  logger.With(zap.String("component", "http_client")),
		metrics: NewHTTPMetrics(),
	}

	client.transport = &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   config.DialTimeout,
			KeepAlive: config.KeepAlive,
		}).DialContext,
		MaxIdleConns:          config.MaxIdleConns,
		MaxIdleConnsPerHost:   config.MaxIdleConnsPerHost,
		MaxConnsPerHost:       config.MaxConnsPerHost,
		IdleConnTimeout:       config.IdleConnTimeout,
		DisableKeepAlives:     config.DisableKeepAlives,
		DisableCompression:    config.DisableCompression,
		TLSHandshakeTimeout:   config.TLSHandshakeTimeout,
		ResponseHeaderTimeout: config.ResponseHeaderTimeout,
		ExpectContinueTimeout: 1 * time.Second,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: config.InsecureSkipVerify, //nolint:gosec // G402: opt-in for local smoke targets
			MinVersion:         config.TLSMinVersion,
		},
	}

	if config.EnableHTTP2 {
		if err := http2.ConfigureTransport(client.transport); err != nil {
			client.logger.Warn("failed to configure HTTP/2", zap.Error(err))
		}
	}

	client.httpClient = &http.Client{
		Transport: client.transport,
		Timeout:   config.RequestTimeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return fmt.Errorf("too many redirects")
			}
			return nil
		},
	}

	if config.RateLimit > 0 {
		client.rateLimiter = NewTokenBucketRateLimiter(config.RateLimit, config.RateBurst)
	}

	if config.CircuitBreakerEnabled {
		client.circuitBreaker = NewHTTPCircuitBreaker(config, client.logger)
	}

	return client
}

// Get performs an HTTP GET request
func (c *HTTPClient) Get(ctx context.Context, url string, headers map[string]string) (*http.Response, error) {
	req, err := c.newRequest(ctx, http.MethodGet, url, nil, headers)
	if err != nil {
		return nil, err
	}
	return c.Do(req)
}

// Post performs an HTTP POST request
func (c *HTTPClient) Post(ctx context.Context, url string, body io.Reader, headers map[string]string) (*http.Response, error) {
	req, err := c.newRequest(ctx, http.MethodPost, url, body, headers)
	if err != nil {
		return nil, err
	}
	return c.Do(req)
}

// Head performs an HTTP HEAD request
func (c *HTTPClient) Head(ctx context.Context, url string, headers map[string]string) (*http.Response, error) {
	req, err := c.newRequest(ctx, http.MethodHead, url, nil, headers)
	if err != nil {
		return nil, err
	}
	return c.Do(req)
}

// Do performs an HTTP request with rate limiting, circuit breaking and metrics
func (c *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	if c.rateLimiter != nil {
		if err := c.rateLimiter.Wait(req.Context()); err != nil {
			atomic.AddInt64(&c.failedRequests, 1)
			return nil, fmt.Errorf("rate limit exceeded: %w", err)
		}
	}

	if c.circuitBreaker != nil && !c.circuitBreaker.Allow() {
		atomic.AddInt64(&c.failedRequests, 1)
		return nil, fmt.Errorf("circuit breaker open")
	}

	atomic.AddInt64(&c.totalRequests, 1)
	start := time.Now()

	resp, err := c.httpClient.Do(req)

	duration := time.Since(start)
	c.metrics.RecordRequest(req.Method, req.URL.Host, duration, err)

	if err != nil {
		atomic.AddInt64(&c.failedRequests, 1)
		if c.circuitBreaker != nil {
			c.circuitBreaker.RecordFailure()
		}
		return nil, err
	}

	if c.circuitBreaker != nil {
		c.circuitBreaker.RecordSuccess()
	}

	return resp, nil
}

// DoWithRetry performs a request with exponential backoff. Retries only fire
// when retryable reports the error as transient; bodies must therefore be
// rebuildable, so the request is produced by a factory.
func (c *HTTPClient) DoWithRetry(ctx context.Context, build func() (*http.Request, error), retryable func(error) bool) (*http.Response, error) {
	delay := c.config.RetryDelay
	var lastErr error

	for attempt := 0; attempt <= c.config.RetryAttempts; attempt++ {
		if attempt > 0 {
			c.logger.Debug("retrying request",
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay))

			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			}

			delay = time.Duration(float64(delay) * c.config.RetryMultiplier)
			if delay > c.config.MaxRetryDelay {
				delay = c.config.MaxRetryDelay
			}
		}

		req, err := build()
		if err != nil {
			return nil, err
		}

		resp, err := c.Do(req)
		if err == nil {
			return resp, nil
		}

		lastErr = err
		if retryable == nil || !retryable(err) {
			return nil, err
		}
	}

	return nil, lastErr
}

// newRequest creates a new HTTP request with default headers applied
func (c *HTTPClient) newRequest(ctx context.Context, method, url string, body io.Reader, headers map[string]string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}

	for key, value := range headers {
		req.Header.Set(key, value)
	}

	if req.Header.Get("User-Agent") == "" && c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	return req, nil
}

// GetStats returns current client statistics
func (c *HTTPClient) GetStats() HTTPStats {
	totalRequests := atomic.LoadInt64(&c.totalRequests)
	failedRequests := atomic.LoadInt64(&c.failedRequests)

	stats := HTTPStats{
		TotalRequests:  totalRequests,
		FailedRequests: failedRequests,
		AverageLatency: c.metrics.GetAverageLatency(),
		P95Latency:     c.metrics.GetP95Latency(),
		P99Latency:     c.metrics.GetP99Latency(),
	}

	if totalRequests > 0 {
		stats.SuccessRate = float64(totalRequests-failedRequests) / float64(totalRequests) * 100
	}

	return stats
}

// Close closes the HTTP client and releases resources
func (c *HTTPClient) Close() error {
	c.transport.CloseIdleConnections()
	return nil
}

// HTTPStats represents HTTP client statistics
type HTTPStats struct {
	TotalRequests  int64         `json:"total_requests"`
	FailedRequests int64         `json:"failed_requests"`
	SuccessRate    float64       `json:"success_rate"`
	AverageLatency time.Duration `json:"average_latency"`
	P95Latency     time.Duration `json:"p95_latency"`
	P99Latency     time.Duration `json:"p99_latency"`
}
