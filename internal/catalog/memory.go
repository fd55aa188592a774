package catalog

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MemoryKB is an in-memory knowledge base. It preserves registration order
// so listings are deterministic.
type MemoryKB struct {
	mu    sync.RWMutex
	specs map[string]ComponentSpec
	order []string
}

func NewMemoryKB(specs ...ComponentSpec) *MemoryKB {
	kb := &MemoryKB{specs: make(map[string]ComponentSpec, len(specs))}
	for _, spec := range specs {
		kb.register(spec)
	}
	return kb
}

func (kb *MemoryKB) register(spec ComponentSpec) {
	t := strings.TrimSpace(spec.Type)
	if t == "" {
		return
	}
	if _, exists := kb.specs[t]; !exists {
		kb.order = append(kb.order, t)
	}
	kb.specs[t] = spec
}

// Register adds or replaces a component spec.
func (kb *MemoryKB) Register(spec ComponentSpec) {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	kb.register(spec)
}

func (kb *MemoryKB) ListComponentTypes(_ context.Context) ([]ComponentSpec, error) {
	if kb == nil {
		return nil, fmt.Errorf("catalog: knowledge base is nil")
	}
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	out := make([]ComponentSpec, 0, len(kb.order))
	for _, t := range kb.order {
		out = append(out, kb.specs[t])
	}
	return out, nil
}

func (kb *MemoryKB) GetComponent(_ context.Context, componentType string) (ComponentSpec, error) {
	if kb == nil {
		return ComponentSpec{}, fmt.Errorf("catalog: knowledge base is nil")
	}
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	spec, ok := kb.specs[strings.TrimSpace(componentType)]
	if !ok {
		return ComponentSpec{}, ErrNotFound
	}
	return spec, nil
}

// BuiltinCatalog returns the default component catalog used when no
// external catalog source is configured.
func BuiltinCatalog() *MemoryKB {
	return NewMemoryKB(
		ComponentSpec{
			Type:        "ChatInput",
			DisplayName: "Chat Input",
			Description: "Entry point that captures the user's chat message.",
			Outputs: []Port{
				{Name: "message", Type: "Text"},
			},
		},
		ComponentSpec{
			Type:        "PromptTemplate",
			DisplayName: "Prompt Template",
			Description: "Renders a prompt from a template and variables.",
			Parameters: map[string]ParameterSpec{
				"template": {Type: "string", Required: true},
			},
			Inputs: []Port{
				{Name: "variables", Type: "Text", MultiInput: true},
			},
			Outputs: []Port{
				{Name: "text", Type: "Text", Compatible: []string{"Prompt"}},
			},
		},
		ComponentSpec{
			Type:        "OpenAIModel",
			DisplayName: "OpenAI Model",
			Description: "Calls an OpenAI chat model with a prompt.",
			Parameters: map[string]ParameterSpec{
				"model_name":  {Type: "string", Required: true, Default: "gpt-4o-mini"},
				"temperature": {Type: "number", Required: false, Default: 0.2},
				"api_key":     {Type: "secret", Required: true},
			},
			Inputs: []Port{
				{Name: "prompt", Type: "Text", Compatible: []string{"Prompt"}},
			},
			Outputs: []Port{
				{Name: "response", Type: "Text"},
			},
		},
		ComponentSpec{
			Type:        "ChatOutput",
			DisplayName: "Chat Output",
			Description: "Displays the final response to the user.",
			Inputs: []Port{
				{Name: "message", Type: "Text"},
			},
		},
		ComponentSpec{
			Type:        "ConversationMemory",
			DisplayName: "Conversation Memory",
			Description: "Buffers prior turns and exposes them as context.",
			Parameters: map[string]ParameterSpec{
				"window": {Type: "number", Required: false, Default: 10},
			},
			Inputs: []Port{
				{Name: "message", Type: "Text", MultiInput: true},
			},
			Outputs: []Port{
				{Name: "history", Type: "Text"},
			},
		},
	)
}
