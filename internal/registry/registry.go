// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package registry holds the tool capabilities available to a research run.
// Tools register once at startup; the selector reads descriptions from here
// and the executor dispatches through here.
package registry

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/meshintel/biosearch-engine/pkg/types"
)

// InvokeFunc executes a tool call with the given arguments.
type InvokeFunc func(ctx context.Context, args map[string]any) (types.RawResult, error)

// ToolCapability describes one invocable tool.
type ToolCapability struct {
	// Name is the unique tool identifier (e.g. "pubmed_search").
	Name string

	// Description documents what the tool does and its arguments, in the
	// form shown to the planning model.
	Description string

	// Toolsuite is the package or server the tool belongs to.
	Toolsuite string

	// ArgNames lists the accepted argument keys in canonical order.
	ArgNames []string

	// Invoke executes the call.
	Invoke InvokeFunc
}

// Registry is a concurrency-safe collection of tool capabilities.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*ToolCapability
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{tools: make(map[string]*ToolCapability)}
}

// Register adds a tool. Re-registering a name replaces the prior entry.
func (r *Registry) Register(t *ToolCapability) error {
	if t.Name == "" {
		return fmt.Errorf("tool with empty name")
	}
	if t.Invoke == nil {
		return fmt.Errorf("tool %q has no invoke function", t.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Name] = t
	return nil
}

// Get returns the tool by name.
func (r *Registry) Get(name string) (*ToolCapability, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Names returns all registered tool names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Descriptions returns a name-to-description map for the given tool names.
// Unregistered names are skipped.
func (r *Registry) Descriptions(names []string) map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(names))
	for _, name := range names {
		if t, ok := r.tools[name]; ok {
			out[name] = t.Description
		}
	}
	return out
}

// Toolsuite returns the suite a tool belongs to, or "" when unknown.
func (r *Registry) Toolsuite(name string) string {
	if t, ok := r.Get(name); ok {
		return t.Toolsuite
	}
	return ""
}

// Describe renders the prompt block describing the named tools: one
// section per tool with its name and description. Unregistered names are
// skipped.
func (r *Registry) Describe(names []string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var b strings.Builder
	for _, name := range names {
		t, ok := r.tools[name]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "### %s\n%s\n", t.Name, strings.TrimSpace(t.Description))
		if len(t.ArgNames) > 0 {
			fmt.Fprintf(&b, "Arguments: %s\n", strings.Join(t.ArgNames, ", "))
		}
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}

// DescribeAll renders the prompt block for every registered tool.
func (r *Registry) DescribeAll() string {
	return r.Describe(r.Names())
}
