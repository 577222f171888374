package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toolbox-mcp/internal/mcp"
	"toolbox-mcp/internal/registry"
	"toolbox-mcp/internal/server"
	"toolbox-mcp/internal/tools"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.Server.Addr)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "toolbox.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  name: from-file\n"), 0o600))
	t.Setenv("MCP_SERVER_VERSION", "3.0.0")

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.Server.Name)
	assert.Equal(t, "3.0.0", cfg.Server.Version)
}

func TestLoadConfigInvalid(t *testing.T) {
	t.Setenv("LOG_FORMAT", "xml")
	_, err := loadConfig("")
	assert.ErrorContains(t, err, "validating config")
}

func TestRunCheck(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := registry.New()
	tools.RegisterAll(reg, nil)
	d, err := mcp.NewDispatcher(mcp.Config{Registry: reg, Logger: logger})
	require.NoError(t, err)
	srv, err := server.New(server.Config{}, d, logger)
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	var out bytes.Buffer
	require.NoError(t, runCheck(context.Background(), ts.URL, &out))

	assert.Contains(t, out.String(), "Toolbox MCP Server 1.0.0 (protocol 2025-03-26)")
	assert.Contains(t, out.String(), "echo")
	assert.Contains(t, out.String(), "format_time")
}

func TestRunCheckUnreachable(t *testing.T) {
	ts := httptest.NewServer(nil)
	url := ts.URL
	ts.Close()

	err := runCheck(context.Background(), url, io.Discard)
	assert.ErrorContains(t, err, "initialize")
}
