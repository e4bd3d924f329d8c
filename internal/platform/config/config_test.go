package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultValues(t *testing.T) {
	cfg, err := LoadFrom(t.TempDir(), "")
	require.NoError(t, err)

	assert.Equal(t, "verse-service", cfg.App.Name)
	assert.Equal(t, "local", cfg.App.Environment)
	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 100*time.Millisecond, cfg.Client.Retry.InitialInterval)
	assert.Equal(t, DefaultClientCircuitHalfOpenLimit, cfg.Client.CircuitBreaker.HalfOpenLimit)

	assert.Equal(t, DefaultContentPath, cfg.Content.Source.Path)
	assert.False(t, cfg.Content.Source.Remote())
	assert.Equal(t, "sqlite", cfg.Content.Store.Driver)
	assert.Equal(t, DefaultStorePath, cfg.Content.Store.Path)
	assert.Equal(t, DefaultSearchDebounce, cfg.Content.Debounce)
	assert.Equal(t, "light", cfg.Content.Theme)

	require.NoError(t, cfg.Validate(), "defaults must be valid")
}

func TestLoad_FilePrecedence(t *testing.T) {
	dir := t.TempDir()

	writeFile(t, dir, "base.yaml", `
log:
  level: debug
content:
  store:
    driver: memory
  debounce: 150ms
`)
	writeFile(t, dir, "prod.yaml", `
log:
  level: warn
`)

	cfg, err := LoadFrom(dir, "prod")
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level, "profile overrides base")
	assert.Equal(t, "memory", cfg.Content.Store.Driver, "base overrides defaults")
	assert.Equal(t, 150*time.Millisecond, cfg.Content.Debounce)
}

func TestLoad_EnvVarOverrides(t *testing.T) {
	t.Setenv("APP_SERVER_PORT", "9090")
	t.Setenv("APP_LOG_FILE_MAX_SIZE", "5")
	t.Setenv("APP_CONTENT_SOURCE_URL", "https://example.com/content.json")
	t.Setenv("APP_CONTENT_STORE_DRIVER", "memory")
	t.Setenv("APP_TELEMETRY_ENABLED", "true")

	cfg, err := LoadFrom(t.TempDir(), "")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5, cfg.Log.File.MaxSizeMB, "underscored leaf keys resolve")
	assert.Equal(t, "https://example.com/content.json", cfg.Content.Source.URL)
	assert.True(t, cfg.Content.Source.Remote())
	assert.Equal(t, "memory", cfg.Content.Store.Driver)
	assert.True(t, cfg.Telemetry.Enabled)
}

func TestLoad_NonExistentProfile(t *testing.T) {
	cfg, err := LoadFrom(t.TempDir(), "nonexistent")
	require.NoError(t, err)

	assert.Equal(t, "verse-service", cfg.App.Name)
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", "log: [unclosed")

	_, err := LoadFrom(dir, "")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading base config")
}

func TestEnvKeyMapper(t *testing.T) {
	mapper := envKeyMapper([]string{"log.file.max_size", "content.store.driver"})

	assert.Equal(t, "log.file.max_size", mapper("APP_LOG_FILE_MAX_SIZE"))
	assert.Equal(t, "content.store.driver", mapper("APP_CONTENT_STORE_DRIVER"))
	assert.Equal(t, "server.port", mapper("APP_SERVER_PORT"))
}

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
}
