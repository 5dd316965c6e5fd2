package tools

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/feedpilot/feedpilot/pkg/logger"
)

type Registry struct {
	tools map[string]Tool
	mu    sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

func (r *Registry) Register(tool Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[tool.Name()] = tool
}

func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	return tool, ok
}

// Execute dispatches by exact name match. An unknown name is reported back
// as an error result so the conversation can continue.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) *Result {
	logger.DebugCF("tool", "Tool execution started", map[string]any{
		"tool": name,
		"args": args,
	})

	tool, ok := r.Get(name)
	if !ok {
		logger.WarnCF("tool", "Tool not found", map[string]any{"tool": name})
		return ErrorResult(fmt.Sprintf("tool %q not found", name)).WithError(fmt.Errorf("tool not found"))
	}

	start := time.Now()
	result := tool.Execute(ctx, args)
	duration := time.Since(start)

	if result.IsError {
		logger.ErrorCF("tool", "Tool execution failed", map[string]any{
			"tool":        name,
			"duration_ms": duration.Milliseconds(),
			"error":       result.ForLLM,
		})
	} else {
		logger.InfoCF("tool", "Tool execution completed", map[string]any{
			"tool":          name,
			"duration_ms":   duration.Milliseconds(),
			"result_length": len(result.ForLLM),
		})
	}

	return result
}

// sortedToolNames returns tool names in sorted order for deterministic iteration.
// Catalog order reaches the model verbatim, so it must not depend on map order.
func (r *Registry) sortedToolNames() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Descriptors() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sorted := r.sortedToolNames()
	descriptors := make([]Descriptor, 0, len(sorted))
	for _, name := range sorted {
		descriptors = append(descriptors, DescriptorFor(r.tools[name]))
	}
	return descriptors
}

// List returns all registered tool names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedToolNames()
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}
