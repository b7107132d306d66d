// Package tools provides the assistant's tool definitions and registry.
//
// Each tool is a Definition combining metadata, a JSON schema derived
// from its typed input, and a type-erased handler. The Registry hands
// the model-facing specs and the dispatcher-facing handler map to the
// conversation driver, filtering admin-only tools for non-admin
// requesters.
package tools

import (
	"fmt"
	"sort"

	"github.com/quorumbot/quorum/internal/llm"
	"github.com/quorumbot/quorum/internal/log"
)

// Registry holds registered tool definitions.
// Register is not safe for concurrent use; do all registration during
// startup, then the read methods are safe from any goroutine.
type Registry struct {
	defs   map[string]*Definition
	order  []string
	logger log.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger log.Logger) *Registry {
	return &Registry{
		defs:   make(map[string]*Definition),
		logger: logger,
	}
}

// Register adds a definition. Duplicate names are an error.
func (r *Registry) Register(def *Definition) error {
	if def.Name == "" {
		return fmt.Errorf("tool name is required")
	}
	if def.Handler == nil {
		return fmt.Errorf("tool %s: handler is required", def.Name)
	}
	if _, exists := r.defs[def.Name]; exists {
		return fmt.Errorf("tool %s: already registered", def.Name)
	}
	r.defs[def.Name] = def
	r.order = append(r.order, def.Name)
	r.logger.Debug("tool registered", "name", def.Name, "admin_only", def.AdminOnly)
	return nil
}

// Lookup returns the definition for a tool name.
func (r *Registry) Lookup(name string) (*Definition, bool) {
	def, ok := r.defs[name]
	return def, ok
}

// Specs returns the model-facing tool specs in registration order.
// Admin-only tools are included only when admin is true.
func (r *Registry) Specs(admin bool) []llm.ToolSpec {
	specs := make([]llm.ToolSpec, 0, len(r.order))
	for _, name := range r.order {
		def := r.defs[name]
		if def.AdminOnly && !admin {
			continue
		}
		specs = append(specs, def.Spec())
	}
	return specs
}

// Implementations returns the handler map the dispatcher executes from.
// Admin-only tools are included only when admin is true, so a non-admin
// request that somehow names one gets the dispatcher's unknown-tool
// error rather than an execution.
func (r *Registry) Implementations(admin bool) map[string]Handler {
	impls := make(map[string]Handler, len(r.defs))
	for name, def := range r.defs {
		if def.AdminOnly && !admin {
			continue
		}
		impls[name] = def.Handler
	}
	return impls
}

// Describers returns the per-tool notification renderers for tools that
// define one.
func (r *Registry) Describers() map[string]func(llm.ToolCall) string {
	out := make(map[string]func(llm.ToolCall) string)
	for name, def := range r.defs {
		if def.Describe != nil {
			out[name] = def.Describe
		}
	}
	return out
}

// Names returns the registered tool names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered tools.
func (r *Registry) Count() int {
	return len(r.defs)
}
