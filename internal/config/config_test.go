package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 9306, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ConnectTimeout)
	assert.Equal(t, 10, cfg.Pool.MaxOpen)
	assert.Equal(t, 5, cfg.Pool.MaxIdle)
	assert.Equal(t, 30*time.Minute, cfg.Pool.MaxLifetime)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.False(t, cfg.Observability.MetricsEnabled)
	assert.False(t, cfg.Observability.TracingEnabled)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "riddle.yaml")
	content := `
server:
  host: search.internal
  port: 9307
logging:
  level: debug
  format: json
observability:
  metrics_enabled: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "search.internal", cfg.Server.Host)
	assert.Equal(t, 9307, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.True(t, cfg.Observability.MetricsEnabled)
	// Unset keys keep defaults.
	assert.Equal(t, 10, cfg.Pool.MaxOpen)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("RIDDLE_SERVER_HOST", "env-host")
	t.Setenv("RIDDLE_POOL_MAX_OPEN_CONNS", "3")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "env-host", cfg.Server.Host)
	assert.Equal(t, 3, cfg.Pool.MaxOpen)
}

func TestDSN(t *testing.T) {
	server := ServerConfig{Host: "localhost", Port: 9306, ConnectTimeout: 5 * time.Second}
	assert.Equal(t, "tcp(localhost:9306)/?parseTime=true&loc=UTC&timeout=5s", server.DSN())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"empty host", func(c *Config) { c.Server.Host = "" }, "server.host"},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"bad level", func(c *Config) { c.Logging.Level = "verbose" }, "logging.level"},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"negative pool", func(c *Config) { c.Pool.MaxOpen = -1 }, "pool"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			require.NoError(t, err)
			tt.mutate(cfg)
			err = cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
