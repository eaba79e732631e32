package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Empty(t, cfg.Storage.URI)
	assert.Equal(t, "embedded-statistics-tracking-dev", cfg.Storage.Database)
	assert.Equal(t, "sensor_readings", cfg.Storage.Collection)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "config"), 0o755))
	yml := `
server:
  port: 9100
storage:
  uri: mongodb://localhost:27017
  database: telemetry_ci
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config", "config.yml"), []byte(yml), 0o644))

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "mongodb://localhost:27017", cfg.Storage.URI)
	assert.Equal(t, "telemetry_ci", cfg.Storage.Database)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// Unspecified fields keep their defaults.
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "sensor_readings", cfg.Storage.Collection)
}

func TestLoadConfig_LocalFileOverridesBase(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "config"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config", "config.yml"),
		[]byte("server:\n  port: 9100\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config", "config.local.yml"),
		[]byte("server:\n  port: 9200\n"), 0o644))

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 9200, cfg.Server.Port)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "config"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config", "config.yml"),
		[]byte("storage:\n  uri: mongodb://file:27017\n"), 0o644))

	t.Setenv("MONGODB_URL", "mongodb://env:27017")
	t.Setenv("MONGODB_DB_NAME", "telemetry_env")
	t.Setenv("PORT", "9300")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "mongodb://env:27017", cfg.Storage.URI)
	assert.Equal(t, "telemetry_env", cfg.Storage.Database)
	assert.Equal(t, 9300, cfg.Server.Port)
}

func TestLoadConfig_InvalidFileIsIgnored(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "config"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config", "config.yml"),
		[]byte("{not yaml: ["), 0o644))

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.Server.Port)
}

func TestLoadConfig_InvalidPortFails(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "config"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config", "config.yml"),
		[]byte("server:\n  port: 99999\n"), 0o644))

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server configuration")
}
