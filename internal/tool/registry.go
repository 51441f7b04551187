// Package tool defines the Tool interface and the Registry the MCP server
// dispatches through. Every Google Ads capability is expressed as a Tool.
package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/p-blackswan/google-ads-mcp/internal/adserr"
)

// ErrUnknownTool is returned by Execute for names nothing registered.
var ErrUnknownTool = errors.New("unknown tool")

// Schema describes a tool to MCP clients.
type Schema struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// Tool is the interface all tools must implement.
type Tool interface {
	// Schema returns the tool's name, description, and JSON Schema for inputs.
	Schema() Schema

	// Execute runs the tool with already validated JSON input and returns a
	// JSON result.
	Execute(ctx context.Context, input json.RawMessage) (string, error)
}

type entry struct {
	tool      Tool
	validator *jsonschema.Schema
}

// Registry holds all registered tools and provides lookup.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]entry
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]entry)}
}

// Register adds a tool. Panics on a duplicate name or an input schema that
// does not compile.
func (r *Registry) Register(t Tool) {
	s := t.Schema()
	v, err := compile(s)
	if err != nil {
		panic(fmt.Sprintf("tool %s: %v", s.Name, err))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[s.Name]; exists {
		panic(fmt.Sprintf("tool already registered: %s", s.Name))
	}
	r.tools[s.Name] = entry{tool: t, validator: v}
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.tools[name]
	return e.tool, ok
}

// Schemas returns all tool schemas ordered by name.
func (r *Registry) Schemas() []Schema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	schemas := make([]Schema, 0, len(r.tools))
	for _, e := range r.tools {
		schemas = append(schemas, e.tool.Schema())
	}
	sort.Slice(schemas, func(i, j int) bool { return schemas[i].Name < schemas[j].Name })
	return schemas
}

// Execute validates input against the tool's schema and runs it. Missing
// input is treated as an empty object.
func (r *Registry) Execute(ctx context.Context, name string, input json.RawMessage) (string, error) {
	r.mu.RLock()
	e, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}

	if len(bytes.TrimSpace(input)) == 0 || string(input) == "null" {
		input = json.RawMessage(`{}`)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(input))
	if err != nil {
		return "", fmt.Errorf("%w: %s: malformed arguments: %v", adserr.ErrInvalidInput, name, err)
	}
	if err := e.validator.Validate(inst); err != nil {
		return "", fmt.Errorf("%w: %s: %v", adserr.ErrInvalidInput, name, err)
	}
	return e.tool.Execute(ctx, input)
}

func compile(s Schema) (*jsonschema.Schema, error) {
	raw := s.InputSchema
	if len(raw) == 0 {
		raw = json.RawMessage(`{"type":"object"}`)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parsing input schema: %w", err)
	}
	url := s.Name + ".json"
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("adding input schema: %w", err)
	}
	return c.Compile(url)
}

// MustSchema builds a json.RawMessage from a Go value (panics on error).
func MustSchema(v interface{}) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("MustSchema: %v", err))
	}
	return b
}

func jsonResult(v any) (string, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding result: %w", err)
	}
	return string(b), nil
}
