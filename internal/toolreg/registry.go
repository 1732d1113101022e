// Package toolreg defines the tool-registry boundary the atomic strategy
// consumes, plus an in-memory registry implementation.
package toolreg

import (
	"context"
	"fmt"
	"sync"
)

// Tool is one executable leaf operation.
type Tool interface {
	Name() string
	Execute(ctx context.Context, params map[string]any) (any, error)
}

// Registry resolves named tools to executable handlers.
//
//go:generate mockgen -source=registry.go -destination=mock_registry.go -package=toolreg
type Registry interface {
	Resolve(name string) (Tool, error)
}

// Func adapts a plain function to the Tool interface.
type Func struct {
	name string
	fn   func(ctx context.Context, params map[string]any) (any, error)
}

// NewTool wraps fn as a named Tool.
func NewTool(name string, fn func(ctx context.Context, params map[string]any) (any, error)) *Func {
	return &Func{name: name, fn: fn}
}

func (f *Func) Name() string { return f.name }

func (f *Func) Execute(ctx context.Context, params map[string]any) (any, error) {
	return f.fn(ctx, params)
}

// MapRegistry is a thread-safe in-memory Registry.
type MapRegistry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

func NewMapRegistry() *MapRegistry {
	return &MapRegistry{tools: make(map[string]Tool)}
}

// Register adds or replaces a tool by name.
func (r *MapRegistry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Name()] = t
}

func (r *MapRegistry) Resolve(name string) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("unknown tool %q", name)
	}
	return t, nil
}

// Names returns the registered tool names, for diagnostics.
func (r *MapRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	return names
}
