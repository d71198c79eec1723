package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := NewClientConfig()

	assert.Equal(t, "http://localhost:3000", cfg.Endpoint.ServiceURL)
	assert.Equal(t, "http://localhost:8181", cfg.Endpoint.CatalogURL)
	assert.Equal(t, "test_table", cfg.Endpoint.Table)
	assert.Equal(t, "default", cfg.Endpoint.Namespace)
	assert.Equal(t, 30*time.Second, cfg.Timeouts.Request)

	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ClientConfig)
	}{
		{"missing service url", func(c *ClientConfig) { c.Endpoint.ServiceURL = "" }},
		{"zero request timeout", func(c *ClientConfig) { c.Timeouts.Request = 0 }},
		{"negative retries", func(c *ClientConfig) { c.Reliability.RetryAttempts = -1 }},
		{"bad multiplier", func(c *ClientConfig) {
			c.Reliability.RetryAttempts = 3
			c.Reliability.RetryMultiplier = 0.5
		}},
		{"negative rate limit", func(c *ClientConfig) { c.Reliability.RateLimitPerSec = -1 }},
		{"sampling rate out of range", func(c *ClientConfig) { c.Observability.TraceSamplingRate = 1.5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewClientConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadClientConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "client.yaml")
	content := `
name: smoke
endpoint:
  service_url: http://svc.internal:3000
  table: events
timeouts:
  request: 5s
reliability:
  retry_attempts: 2
  retry_multiplier: 2.0
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadClientConfig(path)
	require.NoError(t, err)

	// file values override defaults, untouched fields keep them
	assert.Equal(t, "smoke", cfg.Name)
	assert.Equal(t, "http://svc.internal:3000", cfg.Endpoint.ServiceURL)
	assert.Equal(t, "events", cfg.Endpoint.Table)
	assert.Equal(t, "default", cfg.Endpoint.Namespace)
	assert.Equal(t, 5*time.Second, cfg.Timeouts.Request)
	assert.Equal(t, 2, cfg.Reliability.RetryAttempts)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadClientConfigMissingFile(t *testing.T) {
	_, err := LoadClientConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestEnvSubstitution(t *testing.T) {
	t.Setenv("ICEFEED_TEST_URL", "http://from-env:3000")
	t.Setenv("ICEFEED_TEST_TABLE", "env_table")

	dir := t.TempDir()
	path := filepath.Join(dir, "client.yaml")
	content := `
endpoint:
  service_url: ${ICEFEED_TEST_URL}
  table: ${ICEFEED_TEST_TABLE}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadClientConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "http://from-env:3000", cfg.Endpoint.ServiceURL)
	assert.Equal(t, "env_table", cfg.Endpoint.Table)
}

func TestSaveRoundTrip(t *testing.T) {
	cfg := NewClientConfig()
	cfg.Endpoint.Table = "saved_table"

	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, Save(path, cfg))

	loaded, err := LoadClientConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "saved_table", loaded.Endpoint.Table)
	assert.Equal(t, cfg.Endpoint.ServiceURL, loaded.Endpoint.ServiceURL)
}
