package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datapassage/icefeed/pkg/dataset"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "client.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(&rootFlags{})
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:3000", cfg.Endpoint.ServiceURL)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadConfigFileValuesSurviveUnsetFlags(t *testing.T) {
	path := writeConfigFile(t, `
endpoint:
  service_url: http://svc.internal:3000
logging:
  level: debug
`)

	cfg, err := loadConfig(&rootFlags{configFile: path})
	require.NoError(t, err)

	// an unset flag must not stomp the file value back to the default
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "http://svc.internal:3000", cfg.Endpoint.ServiceURL)
}

func TestLoadConfigFlagsOverrideFile(t *testing.T) {
	path := writeConfigFile(t, `
endpoint:
  service_url: http://svc.internal:3000
  table: events
logging:
  level: debug
`)

	cfg, err := loadConfig(&rootFlags{
		configFile: path,
		endpoint:   "http://other:3000",
		table:      "overridden",
		logLevel:   "warn",
	})
	require.NoError(t, err)

	assert.Equal(t, "http://other:3000", cfg.Endpoint.ServiceURL)
	assert.Equal(t, "overridden", cfg.Endpoint.Table)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestPickFixture(t *testing.T) {
	ds, err := pickFixture("users", 0)
	require.NoError(t, err)
	assert.True(t, ds.Equal(dataset.SampleUsers()))

	ds, err = pickFixture("large", 42)
	require.NoError(t, err)
	assert.Equal(t, 42, ds.NumRows())

	_, err = pickFixture("bogus", 0)
	assert.Error(t, err)
}
