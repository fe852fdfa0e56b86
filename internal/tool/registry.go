package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/voxedit-io/voxedit/pkg/protocol"
)

type entry struct {
	tool      Tool
	schema    *gojsonschema.Schema
	schemaErr error
}

// Registry holds registered tools in registration order, validates
// arguments against each tool's JSON Schema and dispatches execution.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*entry
	order []string
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]*entry)}
}

// Register adds a tool to the registry. Registering a name twice replaces
// the tool but keeps its catalog position.
func (r *Registry) Register(t Tool) {
	e := &entry{tool: t}
	e.schema, e.schemaErr = gojsonschema.NewSchema(gojsonschema.NewGoLoader(t.Parameters()))

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[t.Name()]; !exists {
		r.order = append(r.order, t.Name())
	}
	r.tools[t.Name()] = e
}

// Unregister removes a tool by name.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tools[name]; !ok {
		return
	}
	delete(r.tools, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Has returns true if a tool with the given name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tools[name]
	return ok
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.tools[name]
	if !ok {
		return nil, false
	}
	return e.tool, true
}

// List returns the names of all registered tools in catalog order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Definitions returns all tools in OpenAI function-calling format.
func (r *Registry) Definitions() []protocol.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]protocol.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name].tool
		defs = append(defs, protocol.NewToolDefinition(
			t.Name(),
			t.Description(),
			t.Parameters(),
		))
	}
	return defs
}

// Catalog describes every registered tool for presentation clients.
func (r *Registry) Catalog() ([]protocol.ToolSpec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	specs := make([]protocol.ToolSpec, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name].tool
		schema := t.Parameters()
		raw, err := json.Marshal(schema)
		if err != nil {
			return nil, fmt.Errorf("tool %q: encode schema: %w", name, err)
		}
		spec := protocol.ToolSpec{
			Name:        name,
			Description: t.Description(),
			ArgsSchema:  raw,
		}
		if c, ok := t.(Categorized); ok {
			spec.Category = c.Category()
		}
		if pl, ok := t.(ParamLister); ok {
			spec.Parameters = pl.ParamSpecs()
		} else {
			spec.Parameters = paramsFromSchema(schema)
		}
		if spec.Parameters == nil {
			spec.Parameters = []protocol.ParamSpec{}
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// Validate checks that name is registered and that args satisfy its
// parameter schema. Null arguments count as absent.
func (r *Registry) Validate(name string, args map[string]any) error {
	r.mu.RLock()
	e, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("tool %q not found", name)
	}
	return e.validate(compactArgs(args))
}

// Execute validates the arguments and runs the named tool.
// Unknown tools and invalid arguments are returned as errors.
func (r *Registry) Execute(ctx context.Context, name string, params map[string]any) (string, error) {
	r.mu.RLock()
	e, ok := r.tools[name]
	r.mu.RUnlock()

	if !ok {
		return "", fmt.Errorf("tool %q not found", name)
	}
	params = compactArgs(params)
	if err := e.validate(params); err != nil {
		return "", err
	}
	return e.tool.Execute(ctx, params)
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

func (e *entry) validate(args map[string]any) error {
	name := e.tool.Name()
	if e.schemaErr != nil {
		return fmt.Errorf("tool %q: invalid parameter schema: %w", name, e.schemaErr)
	}
	result, err := e.schema.Validate(gojsonschema.NewGoLoader(args))
	if err != nil {
		return fmt.Errorf("tool %q: validate arguments: %w", name, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, re := range result.Errors() {
			msgs = append(msgs, re.String())
		}
		return fmt.Errorf("invalid arguments for tool %q: %s", name, strings.Join(msgs, "; "))
	}
	return nil
}

func compactArgs(args map[string]any) map[string]any {
	out := make(map[string]any, len(args))
	for k, v := range args {
		if v != nil {
			out[k] = v
		}
	}
	return out
}

func paramsFromSchema(schema map[string]any) []protocol.ParamSpec {
	props, _ := schema["properties"].(map[string]any)
	required := map[string]bool{}
	switch req := schema["required"].(type) {
	case []string:
		for _, n := range req {
			required[n] = true
		}
	case []any:
		for _, n := range req {
			if s, ok := n.(string); ok {
				required[s] = true
			}
		}
	}

	names := make([]string, 0, len(props))
	for n := range props {
		names = append(names, n)
	}
	sort.Strings(names)

	params := make([]protocol.ParamSpec, 0, len(names))
	for _, n := range names {
		p := protocol.ParamSpec{Name: n, Optional: !required[n]}
		if prop, ok := props[n].(map[string]any); ok {
			p.Type, _ = prop["type"].(string)
			p.Description, _ = prop["description"].(string)
			p.Default = prop["default"]
		}
		params = append(params, p)
	}
	return params
}
