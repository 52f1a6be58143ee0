// Package tools provides the data-analysis tool registry for the agent.
//
// Each tool carries a JSON-Schema style parameter description the model
// sees, and a handler the agent invokes. Tool results are always
// human-readable strings: execution failures become descriptive result
// text, while ErrUnknownTool and ErrInvalidArguments surface as errors
// so the caller can report a protocol-level problem.
package tools

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Noah-wb/datachat/internal/llm"
)

// Sentinel errors for registry operations.
var (
	// ErrUnknownTool indicates the requested tool is not registered.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrInvalidArguments indicates the arguments do not satisfy the tool's schema.
	ErrInvalidArguments = errors.New("invalid tool arguments")

	// ErrDuplicateTool indicates a tool name was registered twice.
	ErrDuplicateTool = errors.New("duplicate tool name")
)

// Handler executes a tool call. The returned string is the result text
// handed back to the model; an error means the tool itself failed in a
// way the agent should report rather than relay.
type Handler func(ctx context.Context, args map[string]any) (string, error)

// Tool is a registered tool: metadata the model sees plus the handler.
type Tool struct {
	Name        string
	Description string
	Schema      *llm.ToolSchema
	Handler     Handler
}

// Registry holds tools and preserves registration order, so the model
// always sees the catalogue in a stable order.
//
// Thread safety: Register is expected at startup; Describe and Invoke
// are safe for concurrent use afterwards.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*Tool
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]*Tool)}
}

// Register adds a tool. Names must be unique.
func (r *Registry) Register(t *Tool) error {
	if t == nil || t.Name == "" {
		return fmt.Errorf("tool must have a name")
	}
	if t.Handler == nil {
		return fmt.Errorf("tool %s has no handler", t.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[t.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, t.Name)
	}
	r.tools[t.Name] = t
	r.order = append(r.order, t.Name)
	return nil
}

// Describe returns tool definitions in registration order, ready to be
// sent with a model request.
func (r *Registry) Describe() []llm.ToolDef {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]llm.ToolDef, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		defs = append(defs, llm.ToolDef{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.Schema,
		})
	}
	return defs
}

// Names returns tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Count returns the number of registered tools.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Invoke validates the arguments against the tool's schema and runs the
// handler. An unknown name returns ErrUnknownTool without executing
// anything; schema violations return ErrInvalidArguments.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]any) (string, error) {
	r.mu.RLock()
	t, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}

	if err := validateArgs(t.Schema, args); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrInvalidArguments, name, err)
	}
	return t.Handler(ctx, args)
}
