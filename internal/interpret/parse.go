package interpret

import (
	"encoding/json"
	"fmt"
	"strings"

	"flowsmith/internal/util/jsonutil"
)

// parseInterpretation decodes the raw LLM payload into the strict
// Interpretation shape. Invalid or partial payloads fail closed rather
// than being coerced with defaults.
func parseInterpretation(raw json.RawMessage) (*Interpretation, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrInterpretationFailed)
	}
	var out Interpretation
	if err := jsonutil.UnmarshalRaw(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: parse payload: %v", ErrInterpretationFailed, err)
	}
	for i, comp := range out.Components {
		if strings.TrimSpace(comp.ComponentType) == "" {
			return nil, fmt.Errorf("%w: component %d has no component_type", ErrInterpretationFailed, i)
		}
	}
	if out.Components == nil {
		out.Components = []ComponentRequirement{}
	}
	if out.Connections == nil {
		out.Connections = []ConnectionRequirement{}
	}
	return &out, nil
}
