package interpret

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"flowsmith/internal/catalog"
	"flowsmith/internal/llmclient"
)

func TestInterpret_EmptyInstruction(t *testing.T) {
	it := New(catalog.BuiltinCatalog(), llmclient.NewFakeClient())
	if _, err := it.Interpret(context.Background(), "   \n\t", nil); !errors.Is(err, ErrInvalidInstruction) {
		t.Fatalf("expected ErrInvalidInstruction, got %v", err)
	}
}

func TestInterpret_ResolvedPipeline(t *testing.T) {
	fake := llmclient.NewFakeClient(json.RawMessage(`{
		"components": [
			{"component_type": "ChatInput", "component_name": "User Message"},
			{"component_type": "ChatOutput", "component_name": "Reply"}
		],
		"connections": [
			{"source_component_idx": 0, "target_component_idx": 1, "source_field": "message", "target_field": "message"}
		],
		"clarification_needed": false,
		"flow_description": "Echo the user's message."
	}`))
	it := New(catalog.BuiltinCatalog(), fake)

	out, err := it.Interpret(context.Background(), "echo what the user says", nil)
	if err != nil {
		t.Fatalf("Interpret error: %v", err)
	}
	if out.ClarificationNeeded {
		t.Fatalf("unexpected clarification: %+v", out.ClarificationQuestions)
	}
	if len(out.Components) != 2 || len(out.Connections) != 1 {
		t.Fatalf("unexpected shape: %d components, %d connections", len(out.Components), len(out.Connections))
	}
	if out.Instruction != "echo what the user says" {
		t.Fatalf("instruction not echoed back: %q", out.Instruction)
	}
	if out.Connections[0].SourceIndex != 0 || out.Connections[0].TargetIndex != 1 {
		t.Fatalf("connection indices lost: %+v", out.Connections[0])
	}
}

func TestInterpret_UnknownTypeRaisesQuestion(t *testing.T) {
	fake := llmclient.NewFakeClient(json.RawMessage(`{
		"components": [{"component_type": "QuantumRouter", "component_name": "Router"}],
		"connections": [],
		"clarification_needed": false
	}`))
	it := New(catalog.BuiltinCatalog(), fake)

	out, err := it.Interpret(context.Background(), "route my messages through the quantum router", nil)
	if err != nil {
		t.Fatalf("Interpret error: %v", err)
	}
	if !out.ClarificationNeeded {
		t.Fatal("expected clarification for unknown component type")
	}
	if len(out.ClarificationQuestions) != 1 {
		t.Fatalf("expected 1 question, got %d", len(out.ClarificationQuestions))
	}
	q := out.ClarificationQuestions[0]
	if q.QuestionID == "" {
		t.Fatal("question has no id")
	}
	if len(q.Options) == 0 {
		t.Fatal("question should offer the available component types")
	}
	if q.Context["issue"] != "unknown_type" {
		t.Fatalf("unexpected question context: %+v", q.Context)
	}
}

func TestInterpret_UnknownPortRaisesQuestion(t *testing.T) {
	fake := llmclient.NewFakeClient(json.RawMessage(`{
		"components": [
			{"component_type": "ChatInput"},
			{"component_type": "ChatOutput"}
		],
		"connections": [
			{"source_component_idx": 0, "target_component_idx": 1, "source_field": "message", "target_field": "payload"}
		],
		"clarification_needed": false
	}`))
	it := New(catalog.BuiltinCatalog(), fake)

	out, err := it.Interpret(context.Background(), "show the input to the user", nil)
	if err != nil {
		t.Fatalf("Interpret error: %v", err)
	}
	if !out.ClarificationNeeded || len(out.ClarificationQuestions) != 1 {
		t.Fatalf("expected exactly one port question, got %+v", out.ClarificationQuestions)
	}
	if out.ClarificationQuestions[0].Context["issue"] != "unknown_input_port" {
		t.Fatalf("unexpected context: %+v", out.ClarificationQuestions[0].Context)
	}
}

func TestInterpret_OneQuestionPerComponent(t *testing.T) {
	// The same component appears in two broken connections; only the
	// first issue becomes a question.
	fake := llmclient.NewFakeClient(json.RawMessage(`{
		"components": [
			{"component_type": "ChatInput"},
			{"component_type": "ChatOutput"},
			{"component_type": "ConversationMemory"}
		],
		"connections": [
			{"source_component_idx": 0, "target_component_idx": 1, "source_field": "message", "target_field": "bogus_a"},
			{"source_component_idx": 2, "target_component_idx": 1, "source_field": "history", "target_field": "bogus_b"}
		],
		"clarification_needed": false
	}`))
	it := New(catalog.BuiltinCatalog(), fake)

	out, err := it.Interpret(context.Background(), "wire input and memory into the output", nil)
	if err != nil {
		t.Fatalf("Interpret error: %v", err)
	}
	if len(out.ClarificationQuestions) != 1 {
		t.Fatalf("expected 1 question for the shared target component, got %d", len(out.ClarificationQuestions))
	}
}

func TestInterpret_NeededWithoutQuestionsGetsDefault(t *testing.T) {
	fake := llmclient.NewFakeClient(json.RawMessage(`{
		"components": [],
		"connections": [],
		"clarification_needed": true
	}`))
	it := New(catalog.BuiltinCatalog(), fake)

	out, err := it.Interpret(context.Background(), "do something", nil)
	if err != nil {
		t.Fatalf("Interpret error: %v", err)
	}
	if !out.ClarificationNeeded || len(out.ClarificationQuestions) != 1 {
		t.Fatalf("expected a default question, got %+v", out.ClarificationQuestions)
	}
	if out.ClarificationQuestions[0].QuestionID == "" {
		t.Fatal("default question has no id")
	}
}

func TestInterpret_ProviderFailure(t *testing.T) {
	fake := llmclient.NewFakeClientWithErrors(nil, []error{errors.New("boom")})
	it := New(catalog.BuiltinCatalog(), fake)
	if _, err := it.Interpret(context.Background(), "anything", nil); !errors.Is(err, ErrInterpretationFailed) {
		t.Fatalf("expected ErrInterpretationFailed, got %v", err)
	}
}

func TestParseInterpretation_FailsClosed(t *testing.T) {
	cases := []json.RawMessage{
		nil,
		json.RawMessage(`not json`),
		json.RawMessage(`{"components":[{"component_name":"no type"}]}`),
	}
	for i, raw := range cases {
		if _, err := parseInterpretation(raw); !errors.Is(err, ErrInterpretationFailed) {
			t.Fatalf("case %d: expected ErrInterpretationFailed, got %v", i, err)
		}
	}
}

func TestParseInterpretation_NilSlicesNormalized(t *testing.T) {
	out, err := parseInterpretation(json.RawMessage(`{"clarification_needed": false}`))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if out.Components == nil || out.Connections == nil {
		t.Fatal("expected non-nil component and connection slices")
	}
}
