package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when a component type is not in the catalog.
var ErrNotFound = errors.New("catalog: component not found")

// ParameterSpec declares a single configurable parameter of a component.
type ParameterSpec struct {
	Type        string `json:"type"`
	Required    bool   `json:"required,omitempty"`
	Default     any    `json:"default,omitempty"`
	Description string `json:"description,omitempty"`
}

// Port is a named, typed input or output slot on a component.
// Compatible lists additional type names the port accepts (inputs) or can
// be consumed as (outputs) beyond an exact type match.
type Port struct {
	Name       string   `json:"name"`
	Type       string   `json:"type"`
	Compatible []string `json:"compatible,omitempty"`
	MultiInput bool     `json:"multi_input,omitempty"`
}

// ComponentSpec is one catalog entry: a component type with its parameter
// schema and port declarations.
type ComponentSpec struct {
	Type        string                   `json:"type"`
	DisplayName string                   `json:"display_name,omitempty"`
	Description string                   `json:"description,omitempty"`
	Parameters  map[string]ParameterSpec `json:"parameters,omitempty"`
	Inputs      []Port                   `json:"inputs,omitempty"`
	Outputs     []Port                   `json:"outputs,omitempty"`
}

// InputPort returns the declared input port with the given name.
func (c ComponentSpec) InputPort(name string) (Port, bool) {
	return findPort(c.Inputs, name)
}

// OutputPort returns the declared output port with the given name.
func (c ComponentSpec) OutputPort(name string) (Port, bool) {
	return findPort(c.Outputs, name)
}

func findPort(ports []Port, name string) (Port, bool) {
	name = strings.TrimSpace(name)
	for _, p := range ports {
		if p.Name == name {
			return p, true
		}
	}
	return Port{}, false
}

// AcceptsType reports whether an input port accepts a value of the given
// output type: exact match or declared-compatible on either side.
func (p Port) AcceptsType(out Port) bool {
	if p.Type == out.Type {
		return true
	}
	for _, t := range p.Compatible {
		if t == out.Type {
			return true
		}
	}
	for _, t := range out.Compatible {
		if t == p.Type {
			return true
		}
	}
	return false
}

// KnowledgeBase is a read-only catalog of available component types.
type KnowledgeBase interface {
	ListComponentTypes(ctx context.Context) ([]ComponentSpec, error)
	GetComponent(ctx context.Context, componentType string) (ComponentSpec, error)
}

// Snapshot is an immutable point-in-time view of a knowledge base, taken
// once per interpretation or build call so concurrent catalog updates
// cannot be observed mid-call.
type Snapshot struct {
	specs map[string]ComponentSpec
	order []string
}

// TakeSnapshot lists the knowledge base once and freezes the result.
func TakeSnapshot(ctx context.Context, kb KnowledgeBase) (*Snapshot, error) {
	if kb == nil {
		return nil, fmt.Errorf("catalog: knowledge base is nil")
	}
	specs, err := kb.ListComponentTypes(ctx)
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{
		specs: make(map[string]ComponentSpec, len(specs)),
		order: make([]string, 0, len(specs)),
	}
	for _, spec := range specs {
		t := strings.TrimSpace(spec.Type)
		if t == "" {
			continue
		}
		if _, dup := snap.specs[t]; dup {
			continue
		}
		snap.specs[t] = spec
		snap.order = append(snap.order, t)
	}
	return snap, nil
}

// Get returns the spec for a component type.
func (s *Snapshot) Get(componentType string) (ComponentSpec, bool) {
	if s == nil {
		return ComponentSpec{}, false
	}
	spec, ok := s.specs[strings.TrimSpace(componentType)]
	return spec, ok
}

// List returns all specs in catalog order.
func (s *Snapshot) List() []ComponentSpec {
	if s == nil {
		return nil
	}
	out := make([]ComponentSpec, 0, len(s.order))
	for _, t := range s.order {
		out = append(out, s.specs[t])
	}
	return out
}

// Types returns all component type names in catalog order.
func (s *Snapshot) Types() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.order...)
}
