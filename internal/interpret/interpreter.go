package interpret

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"flowsmith/internal/catalog"
	"flowsmith/internal/llmclient"
)

// Interpreter turns a free-text instruction into an Interpretation using
// the LLM as an oracle, grounded in the component knowledge base. It is
// pure given its inputs and the catalog snapshot; the outbound LLM call
// is its only side effect.
type Interpreter struct {
	kb  catalog.KnowledgeBase
	llm llmclient.LLMClient
}

func New(kb catalog.KnowledgeBase, client llmclient.LLMClient) *Interpreter {
	return &Interpreter{kb: kb, llm: client}
}

type interpreterInput struct {
	Instruction          string            `json:"instruction"`
	ClarificationAnswers map[string]string `json:"clarification_answers,omitempty"`
}

// Interpret produces the authoritative Interpretation for one dialogue
// turn. priorAnswers maps consumed clarification question ids to the
// user's answers; each turn is a fresh, fully grounded reinterpretation.
func (it *Interpreter) Interpret(ctx context.Context, instruction string, priorAnswers map[string]string) (*Interpretation, error) {
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		return nil, fmt.Errorf("%w: instruction is empty", ErrInvalidInstruction)
	}

	snap, err := catalog.TakeSnapshot(ctx, it.kb)
	if err != nil {
		return nil, fmt.Errorf("%w: knowledge base: %v", ErrInterpretationFailed, err)
	}
	prompt, err := buildInterpreterPrompt(snap)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInterpretationFailed, err)
	}

	raw, err := it.llm.GenerateJSON(ctx, prompt, interpreterInput{
		Instruction:          instruction,
		ClarificationAnswers: priorAnswers,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: provider: %v", ErrInterpretationFailed, err)
	}

	out, err := parseInterpretation(raw)
	if err != nil {
		return nil, err
	}
	out.Instruction = instruction
	groundAgainstCatalog(out, snap)
	normalize(out)
	return out, nil
}

// groundAgainstCatalog validates the parsed requirements against the
// catalog snapshot. Unknown component types and undeclared port fields
// become clarification questions instead of being silently accepted.
// At most one question is raised per component per turn.
func groundAgainstCatalog(out *Interpretation, snap *catalog.Snapshot) {
	questioned := make(map[int]bool, len(out.Components))

	for i, comp := range out.Components {
		if _, known := snap.Get(comp.ComponentType); known {
			continue
		}
		name := comp.ComponentName
		if strings.TrimSpace(name) == "" {
			name = comp.ComponentType
		}
		out.ClarificationQuestions = append(out.ClarificationQuestions, ClarificationQuestion{
			QuestionID: uuid.NewString(),
			Question: fmt.Sprintf("Component %q uses the unknown type %q. Which available component should be used instead?",
				name, comp.ComponentType),
			Options: snap.Types(),
			Context: map[string]any{
				"component_idx":  i,
				"component_type": comp.ComponentType,
				"issue":          "unknown_type",
			},
		})
		questioned[i] = true
	}

	for _, conn := range out.Connections {
		srcOK := conn.SourceIndex >= 0 && conn.SourceIndex < len(out.Components)
		tgtOK := conn.TargetIndex >= 0 && conn.TargetIndex < len(out.Components)
		// Out-of-range indices are rejected deterministically at build
		// time; only field-name ambiguity warrants a question here.
		if srcOK && !questioned[conn.SourceIndex] {
			spec, known := snap.Get(out.Components[conn.SourceIndex].ComponentType)
			if known {
				if _, ok := spec.OutputPort(conn.SourceField); !ok {
					out.ClarificationQuestions = append(out.ClarificationQuestions,
						portQuestion(conn.SourceIndex, spec, conn.SourceField, "output", portNames(spec.Outputs)))
					questioned[conn.SourceIndex] = true
				}
			}
		}
		if tgtOK && !questioned[conn.TargetIndex] {
			spec, known := snap.Get(out.Components[conn.TargetIndex].ComponentType)
			if known {
				if _, ok := spec.InputPort(conn.TargetField); !ok {
					out.ClarificationQuestions = append(out.ClarificationQuestions,
						portQuestion(conn.TargetIndex, spec, conn.TargetField, "input", portNames(spec.Inputs)))
					questioned[conn.TargetIndex] = true
				}
			}
		}
	}

	if len(out.ClarificationQuestions) > 0 {
		out.ClarificationNeeded = true
	}
}

func portQuestion(idx int, spec catalog.ComponentSpec, field, direction string, options []string) ClarificationQuestion {
	return ClarificationQuestion{
		QuestionID: uuid.NewString(),
		Question: fmt.Sprintf("Component %q has no %s port named %q. Which port should the connection use?",
			spec.Type, direction, field),
		Options: options,
		Context: map[string]any{
			"component_idx":  idx,
			"component_type": spec.Type,
			"field":          field,
			"issue":          "unknown_" + direction + "_port",
		},
	}
}

func portNames(ports []catalog.Port) []string {
	out := make([]string, 0, len(ports))
	for _, p := range ports {
		out = append(out, p.Name)
	}
	return out
}

const defaultClarificationQuestion = "Could you describe the flow you want in more detail?"

// normalize enforces the invariant that clarification questions are
// present exactly when clarification is needed, and that every question
// carries a stable id for the turn.
func normalize(out *Interpretation) {
	if out.ClarificationNeeded && len(out.ClarificationQuestions) == 0 {
		out.ClarificationQuestions = append(out.ClarificationQuestions, ClarificationQuestion{
			QuestionID: uuid.NewString(),
			Question:   defaultClarificationQuestion,
			Context:    map[string]any{"issue": "underspecified"},
		})
	}
	if !out.ClarificationNeeded && len(out.ClarificationQuestions) > 0 {
		out.ClarificationNeeded = true
	}
	for i := range out.ClarificationQuestions {
		if strings.TrimSpace(out.ClarificationQuestions[i].QuestionID) == "" {
			out.ClarificationQuestions[i].QuestionID = uuid.NewString()
		}
	}
}
