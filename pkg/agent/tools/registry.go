package tools

import (
	"context"
	"fmt"
	"sort"

	"github.com/entrhq/notes-agent/pkg/llm"
)

// Registry maps action names to tools. It is fixed at construction.
type Registry struct {
	tools map[string]Tool
	order []string
}

// NewRegistry builds a registry, rejecting nil tools and empty or
// duplicate names.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for i, t := range tools {
		if t == nil {
			return nil, fmt.Errorf("tools: tool %d is nil", i)
		}
		name := t.Name()
		if name == "" {
			return nil, fmt.Errorf("tools: tool %d has an empty name", i)
		}
		if _, exists := r.tools[name]; exists {
			return nil, fmt.Errorf("tools: duplicate tool name %q", name)
		}
		r.tools[name] = t
		r.order = append(r.order, name)
	}
	return r, nil
}

// Lookup returns the tool registered under name.
func (r *Registry) Lookup(name string) (Tool, error) {
	t, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownAction, name, r.sortedNames())
	}
	return t, nil
}

// Names returns tool names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Tools returns the tools in registration order.
func (r *Registry) Tools() []Tool {
	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Definitions returns the declarations sent to the model.
func (r *Registry) Definitions() []llm.ToolDefinition {
	defs := make([]llm.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		defs = append(defs, llm.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Schema(),
		})
	}
	return defs
}

// Execute dispatches a raw action request: it parses the argument payload,
// resolves the name and runs the tool. A malformed payload is reported
// even when the name is unknown.
func (r *Registry) Execute(ctx context.Context, name, rawArgs string) (*ToolResult, error) {
	args, err := ParseArguments(rawArgs)
	if err != nil {
		return nil, err
	}
	t, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}
	return t.Execute(ctx, args)
}

func (r *Registry) sortedNames() []string {
	names := r.Names()
	sort.Strings(names)
	return names
}
