// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lectern Contributors

// Package tool defines the tools the model can invoke during a
// reasoning run and the registry that executes them.
package tool

import (
	"context"
	"sync"

	"github.com/lectern-ai/lectern/internal/provider"
	lecternerr "github.com/lectern-ai/lectern/pkg/errors"
)

// Tool is a single capability the model can invoke.
type Tool interface {
	Name() string
	Definition() provider.ToolDefinition
	Execute(ctx context.Context, args map[string]any) (*Result, error)
}

// Result holds the output from a successful tool execution. Sources
// carry retrieval provenance for the final answer.
type Result struct {
	Content string
	Sources []Source
}

// Source identifies where retrieved content came from.
type Source struct {
	Label string
	Link  string
}

// Registry is a thread-safe collection of tools keyed by name.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	order []string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// Register adds a tool. Re-registering a name replaces the tool but
// keeps its original position in Definitions.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[t.Name()]; !exists {
		r.order = append(r.order, t.Name())
	}
	r.tools[t.Name()] = t
}

// Definitions returns all tool definitions in registration order for
// inclusion in completion requests.
func (r *Registry) Definitions() []provider.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]provider.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.tools[name].Definition())
	}
	return defs
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	if !ok {
		return nil, lecternerr.New(
			lecternerr.CodeToolNotFound,
			"tool not registered: "+name,
			lecternerr.FieldTool(name),
		)
	}
	return t, nil
}

// Execute runs the named tool with the given arguments.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (*Result, error) {
	t, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	return t.Execute(ctx, args)
}

// stringArg extracts an optional string argument.
func stringArg(args map[string]any, key string) (string, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", lecternerr.Errorf(lecternerr.CodeToolInvalidArguments, "argument %q must be a string", key)
	}
	return s, nil
}

// intArg extracts an optional integer argument. JSON numbers decode as
// float64, so both representations are accepted.
func intArg(args map[string]any, key string) (*int, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return nil, nil
	}
	switch v := raw.(type) {
	case float64:
		n := int(v)
		return &n, nil
	case int:
		n := v
		return &n, nil
	default:
		return nil, lecternerr.Errorf(lecternerr.CodeToolInvalidArguments, "argument %q must be a number", key)
	}
}
