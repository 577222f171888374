// Command toolbox-mcp-http starts the MCP HTTP server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"toolbox-mcp/internal/client"
	"toolbox-mcp/internal/config"
	"toolbox-mcp/internal/logging"
	"toolbox-mcp/internal/mcp"
	"toolbox-mcp/internal/registry"
	"toolbox-mcp/internal/server"
	"toolbox-mcp/internal/tools"
)

func main() {
	configPath := flag.String("config", os.Getenv("MCP_CONFIG"), "path to YAML config file")
	checkURL := flag.String("check", "", "query a running server at URL and exit")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var err error
	if *checkURL != "" {
		err = runCheck(ctx, *checkURL, os.Stdout)
	} else {
		err = run(ctx, *configPath)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	cfg := config.Default()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func run(ctx context.Context, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	logger := logging.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)

	// All tools are registered before the listener starts.
	reg := registry.New()
	tools.RegisterAll(reg, time.Now)
	logger.Info("tools registered", "count", reg.Len())

	d, err := mcp.NewDispatcher(mcp.Config{
		Registry:        reg,
		Logger:          logger,
		ServerName:      cfg.Server.Name,
		ServerVersion:   cfg.Server.Version,
		ProtocolVersion: cfg.Server.ProtocolVersion,
	})
	if err != nil {
		return fmt.Errorf("creating dispatcher: %w", err)
	}

	srv, err := server.New(server.Config{
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		RequestTimeout: cfg.Server.RequestTimeout,
	}, d, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting MCP HTTP server",
			"addr", cfg.Server.Addr,
			"name", cfg.Server.Name,
			"tls", cfg.TLSEnabled(),
		)
		if cfg.TLSEnabled() {
			errCh <- httpServer.ListenAndServeTLS(cfg.Server.TLSCertFile, cfg.Server.TLSKeyFile)
		} else {
			errCh <- httpServer.ListenAndServe()
		}
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// runCheck checks a running server by listing its tools.
func runCheck(ctx context.Context, url string, out io.Writer) error {
	c := client.New(url, nil)

	info, err := c.Initialize(ctx)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	fmt.Fprintf(out, "%s %s (protocol %s)\n", info.ServerInfo.Name, info.ServerInfo.Version, info.ProtocolVersion)

	list, err := c.ListTools(ctx)
	if err != nil {
		return fmt.Errorf("tools/list: %w", err)
	}
	for _, t := range list {
		fmt.Fprintf(out, "  %-16s %s\n", t.Name, t.Description)
	}
	return nil
}
