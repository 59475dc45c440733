// File: internal/tools/registry.go
// Package tools holds the dispatchable tool catalog: each tool pairs
// a JSON-schema-shaped descriptor with a handler, and every transport
// resolves and validates calls through the same registry.
package tools

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

var (
	ErrToolNotFound  = errors.New("tool not found")
	ErrInvalidParams = errors.New("invalid params")
)

// Handler executes a tool call with already-validated parameters.
type Handler func(ctx context.Context, params map[string]any) (any, error)

// Property describes one schema field. Object-typed properties may
// carry nested properties and their own required set.
type Property struct {
	Type        string              `json:"type,omitempty"`
	Description string              `json:"description,omitempty"`
	Enum        []string            `json:"enum,omitempty"`
	Default     any                 `json:"default,omitempty"`
	Properties  map[string]Property `json:"properties,omitempty"`
	Required    []string            `json:"required,omitempty"`
}

// Schema is the input contract of a tool.
type Schema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

// Descriptor is the transport-facing description of a tool. The same
// descriptor is served over stdio, HTTP and websocket.
type Descriptor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	InputSchema Schema `json:"inputSchema"`
}

type registeredTool struct {
	desc    Descriptor
	handler Handler
}

// Registry resolves tool calls by name. Safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	order  []string
	tools  map[string]*registeredTool
	logger *zap.Logger
}

func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		tools:  make(map[string]*registeredTool),
		logger: logger.Named("tools"),
	}
}

// Register adds a tool. Registering the same name twice is a
// programming error and is rejected.
func (r *Registry) Register(desc Descriptor, h Handler) error {
	if desc.Name == "" {
		return errors.New("tool name must not be empty")
	}
	if h == nil {
		return fmt.Errorf("tool %s: nil handler", desc.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[desc.Name]; exists {
		return fmt.Errorf("tool %s already registered", desc.Name)
	}
	r.tools[desc.Name] = &registeredTool{desc: desc, handler: h}
	r.order = append(r.order, desc.Name)
	return nil
}

// Descriptors returns every tool descriptor in registration order.
func (r *Registry) Descriptors() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name].desc)
	}
	return out
}

// Lookup returns the descriptor for name.
func (r *Registry) Lookup(name string) (Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	return tool.desc, nil
}

// Call validates params against the tool's schema and invokes its
// handler. Unknown names yield ErrToolNotFound; schema violations
// yield ErrInvalidParams.
func (r *Registry) Call(ctx context.Context, name string, params map[string]any) (any, error) {
	r.mu.RLock()
	tool, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	if params == nil {
		params = map[string]any{}
	}
	if err := tool.desc.InputSchema.Validate(params); err != nil {
		return nil, err
	}
	r.logger.Debug("Dispatching tool call", zap.String("tool", name))
	return tool.handler(ctx, params)
}

// Validate checks params for missing required fields, enum
// violations and basic type mismatches. Unknown fields pass through
// untouched.
func (s Schema) Validate(params map[string]any) error {
	return validateObject("", s.Required, s.Properties, params)
}

func validateObject(prefix string, required []string, props map[string]Property, params map[string]any) error {
	for _, field := range required {
		if _, ok := params[field]; !ok {
			return fmt.Errorf("%w: missing required field %q", ErrInvalidParams, prefix+field)
		}
	}
	for field, prop := range props {
		value, ok := params[field]
		if !ok || value == nil {
			continue
		}
		if err := validateValue(prefix+field, prop, value); err != nil {
			return err
		}
	}
	return nil
}

func validateValue(field string, prop Property, value any) error {
	switch prop.Type {
	case "string":
		str, ok := value.(string)
		if !ok {
			return fmt.Errorf("%w: field %q must be a string", ErrInvalidParams, field)
		}
		if len(prop.Enum) > 0 && !contains(prop.Enum, str) {
			return fmt.Errorf("%w: field %q must be one of %v", ErrInvalidParams, field, prop.Enum)
		}
	case "number":
		switch value.(type) {
		case float64, float32, int, int64, int32:
		default:
			return fmt.Errorf("%w: field %q must be a number", ErrInvalidParams, field)
		}
	case "boolean":
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("%w: field %q must be a boolean", ErrInvalidParams, field)
		}
	case "object":
		obj, ok := value.(map[string]any)
		if !ok {
			return fmt.Errorf("%w: field %q must be an object", ErrInvalidParams, field)
		}
		if len(prop.Properties) > 0 || len(prop.Required) > 0 {
			return validateObject(field+".", prop.Required, prop.Properties, obj)
		}
	}
	return nil
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
