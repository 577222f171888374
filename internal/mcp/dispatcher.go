// Package mcp routes Model Context Protocol requests to the tool registry and
// builds the JSON-RPC responses.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"toolbox-mcp/internal/registry"
)

// DefaultProtocolVersion is advertised by initialize unless overridden.
const DefaultProtocolVersion = "2025-03-26"

// Default server identity.
const (
	DefaultServerName    = "Toolbox MCP Server"
	DefaultServerVersion = "1.0.0"
)

// defaultToolText fills the result of a tool registered without a handler.
const defaultToolText = "Tool executed successfully"

// Config holds configuration for the dispatcher.
type Config struct {
	Registry        *registry.Registry
	Logger          *slog.Logger
	ServerName      string
	ServerVersion   string
	ProtocolVersion string
}

// Dispatcher answers initialize, tools/list and tools/call. It keeps no
// per-request state; initialize is not required before the other methods.
type Dispatcher struct {
	registry *registry.Registry
	logger   *slog.Logger

	mu              sync.RWMutex
	info            ServerInfo
	protocolVersion string
}

// NewDispatcher creates a dispatcher backed by cfg.Registry.
func NewDispatcher(cfg Config) (*Dispatcher, error) {
	if cfg.Registry == nil {
		return nil, errors.New("registry is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	d := &Dispatcher{
		registry: cfg.Registry,
		logger:   logger,
		info: ServerInfo{
			Name:    DefaultServerName,
			Version: DefaultServerVersion,
		},
		protocolVersion: DefaultProtocolVersion,
	}
	if cfg.ServerName != "" || cfg.ServerVersion != "" {
		d.SetServerInfo(cfg.ServerName, cfg.ServerVersion)
	}
	if cfg.ProtocolVersion != "" {
		d.SetProtocolVersion(cfg.ProtocolVersion)
	}
	return d, nil
}

// SetServerInfo changes the identity reported by initialize. Empty values
// leave the current value in place.
func (d *Dispatcher) SetServerInfo(name, version string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if name != "" {
		d.info.Name = name
	}
	if version != "" {
		d.info.Version = version
	}
}

// SetProtocolVersion changes the protocol version reported by initialize.
func (d *Dispatcher) SetProtocolVersion(version string) {
	d.mu.Lock()
	d.protocolVersion = version
	d.mu.Unlock()
}

// Dispatch handles one request and returns the response envelope. Routing
// failures are reported in the envelope, never as a Go error.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) Response {
	resp := Response{
		ID:      req.ID,
		JSONRPC: JSONRPCVersion,
	}

	d.logger.Debug("MCP request", "method", req.Method, "id", string(req.ID))

	switch req.Method {
	case "initialize":
		resp.Result = d.initialize()
	case "tools/list":
		resp.Result = d.listTools()
	case "tools/call":
		result, rpcErr := d.callTool(ctx, req.Params)
		if rpcErr != nil {
			resp.Error = rpcErr
		} else {
			resp.Result = result
		}
	default:
		resp.Error = &Error{Code: JSONRPCMethodNotFound, Message: MessageMethodNotFound}
	}
	return resp
}

func (d *Dispatcher) initialize() InitializeResult {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return InitializeResult{
		ProtocolVersion: d.protocolVersion,
		Capabilities: Capabilities{
			Tools: ToolsCapability{ListChanged: false},
		},
		ServerInfo: d.info,
	}
}

func (d *Dispatcher) listTools() ListToolsResult {
	tools := d.registry.List()
	d.logger.Debug("tools/list", "count", len(tools))
	return ListToolsResult{Tools: tools}
}

// callTool resolves and runs a tool. Unknown tools share the method-not-found
// code with unknown methods; only the message differs.
func (d *Dispatcher) callTool(ctx context.Context, rawParams json.RawMessage) (*CallToolResult, *Error) {
	var params CallToolParams
	if len(rawParams) > 0 {
		if err := json.Unmarshal(rawParams, &params); err != nil {
			d.logger.Warn("undecodable tools/call params", "error", err)
			params = CallToolParams{}
		}
	}

	tool, ok := d.registry.Find(params.Name)
	if !ok {
		d.logger.Debug("tools/call for unknown tool", "tool_name", params.Name)
		return nil, &Error{Code: JSONRPCMethodNotFound, Message: MessageToolNotFound}
	}

	callID := uuid.New().String()
	d.logger.Debug("tools/call", "tool_name", tool.Name, "call_id", callID)

	result := &CallToolResult{Content: []Content{{Type: "text"}}}
	item := &result.Content[0]

	if tool.Handler == nil {
		item.Text = defaultToolText
		return result, nil
	}

	if err := tool.Handler.Call(ctx, params.Arguments, item); err != nil {
		d.logger.Warn("tool execution failed",
			"tool_name", tool.Name,
			"call_id", callID,
			"error", err,
		)
		item.Text = err.Error()
		result.IsError = true
	}

	d.logger.Debug("tools/call complete",
		"tool_name", tool.Name,
		"call_id", callID,
		"is_error", result.IsError,
	)
	return result, nil
}
