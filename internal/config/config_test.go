package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "2025-03-26", cfg.Server.ProtocolVersion)
	assert.Zero(t, cfg.Server.RequestTimeout)
	assert.False(t, cfg.TLSEnabled())
}

func TestLoad(t *testing.T) {
	t.Setenv("TEST_MCP_NAME", "bench-server")

	path := writeConfig(t, `
server:
  addr: "127.0.0.1:9000"
  name: "${TEST_MCP_NAME}"
  request_timeout: "5s"
logging:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, "bench-server", cfg.Server.Name)
	assert.Equal(t, 5*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)

	// untouched fields keep their defaults
	assert.Equal(t, "1.0.0", cfg.Server.Version)
	assert.Equal(t, int64(1<<20), cfg.Server.MaxBodyBytes)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "reading config file")

	_, err = Load(writeConfig(t, "server: [unclosed"))
	assert.ErrorContains(t, err, "parsing config file")

	_, err = Load(writeConfig(t, "server:\n  request_timeout: soon\n"))
	assert.ErrorContains(t, err, "request_timeout")
}

func TestExpandEnvVarsUnset(t *testing.T) {
	assert.Equal(t, "name: ", expandEnvVars("name: ${TEST_MCP_DEFINITELY_UNSET}"))
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("PORT", "3000")
	t.Setenv("MCP_SERVER_VERSION", "9.9.9")
	t.Setenv("MCP_REQUEST_TIMEOUT", "2s")
	t.Setenv("MCP_MAX_BODY_BYTES", "2048")
	t.Setenv("LOG_FORMAT", "text")

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv())

	assert.Equal(t, ":3000", cfg.Server.Addr)
	assert.Equal(t, "9.9.9", cfg.Server.Version)
	assert.Equal(t, 2*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, int64(2048), cfg.Server.MaxBodyBytes)
	assert.Equal(t, "text", cfg.Logging.Format)

	t.Setenv("MCP_ADDR", "0.0.0.0:7000")
	require.NoError(t, cfg.ApplyEnv())
	assert.Equal(t, "0.0.0.0:7000", cfg.Server.Addr)
}

func TestApplyEnvInvalid(t *testing.T) {
	t.Setenv("MCP_REQUEST_TIMEOUT", "forever")
	assert.Error(t, Default().ApplyEnv())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"empty addr", func(c *Config) { c.Server.Addr = "" }, "server.addr"},
		{"empty protocol", func(c *Config) { c.Server.ProtocolVersion = "" }, "protocol_version"},
		{"zero body", func(c *Config) { c.Server.MaxBodyBytes = 0 }, "max_body_bytes"},
		{"negative timeout", func(c *Config) { c.Server.RequestTimeout = -time.Second }, "request_timeout"},
		{"cert without key", func(c *Config) { c.Server.TLSCertFile = "cert.pem" }, "set together"},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.wantErr)
		})
	}

	cfg := Default()
	cfg.Server.TLSCertFile = "cert.pem"
	cfg.Server.TLSKeyFile = "key.pem"
	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.TLSEnabled())
}
