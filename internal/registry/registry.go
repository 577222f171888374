// Package registry holds the tools a server exposes and resolves them by name.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"toolbox-mcp/internal/schema"
)

// ErrToolNotFound is returned by Get when no tool has the requested name.
var ErrToolNotFound = errors.New("tool not found")

// Content is a single item of a tool result. Handlers fill it in place.
type Content struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	Data     string `json:"data,omitempty"`
	MIMEType string `json:"mimeType,omitempty"`
}

// Handler executes a tool. Arguments are passed through exactly as the client
// sent them; they are not checked against the tool's schema.
type Handler interface {
	Call(ctx context.Context, args map[string]any, out *Content) error
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(ctx context.Context, args map[string]any, out *Content) error

// Call implements Handler.
func (f HandlerFunc) Call(ctx context.Context, args map[string]any, out *Content) error {
	return f(ctx, args, out)
}

// Tool is a registered tool. Handler may be nil.
type Tool struct {
	Name        string
	Description string
	InputSchema schema.Schema
	Handler     Handler
}

// Info is the externally visible part of a Tool.
type Info struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	InputSchema schema.Schema `json:"inputSchema"`
}

// Registry stores tools. Iteration order is newest first, so a later
// registration shadows an earlier one with the same name.
type Registry struct {
	mu    sync.RWMutex
	tools []Tool // registration order; read back to front
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{}
}

// Add finalizes the builder's schema and registers the tool. Names are not
// checked for uniqueness.
func (r *Registry) Add(name, description string, b *schema.Builder, h Handler) {
	if b == nil {
		b = schema.NewBuilder()
	}
	t := Tool{
		Name:        name,
		Description: description,
		InputSchema: b.Schema(),
		Handler:     h,
	}

	r.mu.Lock()
	r.tools = append(r.tools, t)
	r.mu.Unlock()
}

// Find returns the most recently registered tool called name.
func (r *Registry) Find(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := len(r.tools) - 1; i >= 0; i-- {
		if r.tools[i].Name == name {
			return r.tools[i], true
		}
	}
	return Tool{}, false
}

// Get is like Find but reports a missing tool as ErrToolNotFound.
func (r *Registry) Get(name string) (Tool, error) {
	t, ok := r.Find(name)
	if !ok {
		return Tool{}, fmt.Errorf("%w: %q", ErrToolNotFound, name)
	}
	return t, nil
}

// List returns a snapshot of every tool, newest first. Handlers are not
// included. The result is never nil.
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Info, 0, len(r.tools))
	for i := len(r.tools) - 1; i >= 0; i-- {
		t := r.tools[i]
		out = append(out, Info{Name: t.Name, Description: t.Description, InputSchema: t.InputSchema})
	}
	return out
}

// Len returns the number of registered tools, duplicates included.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}
