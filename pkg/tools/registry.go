package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Result is the outcome of executing one tool call.
type Result struct {
	ToolName  string
	Output    string
	Metadata  map[string]interface{}
	Remaining string
}

// Registry maps tool names to tools. Safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds tool. Names must be unique.
func (r *Registry) Register(tool Tool) error {
	if tool == nil {
		return fmt.Errorf("tool cannot be nil")
	}

	name := tool.Name()
	if name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool already registered: %s", name)
	}
	r.tools[name] = tool
	return nil
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	return tool, ok
}

// List returns the registered tools sorted by name.
func (r *Registry) List() []Tool {
	r.mu.RLock()
	out := make([]Tool, 0, len(r.tools))
	for _, tool := range r.tools {
		out = append(out, tool)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Names returns the registered tool names, sorted.
func (r *Registry) Names() []string {
	list := r.List()
	names := make([]string, len(list))
	for i, tool := range list {
		names[i] = tool.Name()
	}
	return names
}

// Execute parses the first tool call in text and runs it.
func (r *Registry) Execute(ctx context.Context, text string) (*Result, error) {
	call, remaining, err := ParseToolCall(text)
	if err != nil {
		return nil, err
	}

	tool, ok := r.Get(call.ToolName)
	if !ok {
		return nil, fmt.Errorf("unknown tool: %s (available: %s)", call.ToolName, strings.Join(r.Names(), ", "))
	}

	output, metadata, err := tool.Execute(ctx, call.GetArgumentsXML())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", call.ToolName, err)
	}

	return &Result{
		ToolName:  call.ToolName,
		Output:    output,
		Metadata:  metadata,
		Remaining: remaining,
	}, nil
}
