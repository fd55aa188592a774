package interpret

// ComponentRequirement is one desired node of the flow being described.
type ComponentRequirement struct {
	ComponentType string         `json:"component_type"`
	ComponentName string         `json:"component_name"`
	Parameters    map[string]any `json:"parameters,omitempty"`
	Description   string         `json:"description,omitempty"`
}

// ConnectionRequirement is one desired edge, referenced by position into
// the component slice of the same interpretation.
type ConnectionRequirement struct {
	SourceIndex int    `json:"source_component_idx"`
	TargetIndex int    `json:"target_component_idx"`
	SourceField string `json:"source_field"`
	TargetField string `json:"target_field"`
	Description string `json:"description,omitempty"`
}

// ClarificationQuestion is created when ambiguity is detected and is
// consumed exactly once when an answer for its id arrives.
type ClarificationQuestion struct {
	QuestionID string         `json:"question_id"`
	Question   string         `json:"question"`
	Options    []string       `json:"options,omitempty"`
	Context    map[string]any `json:"context,omitempty"`
}

// Interpretation is the unit of interpreter output for one dialogue
// turn. Exactly one authoritative interpretation exists per turn;
// superseded interpretations are discarded, never merged.
type Interpretation struct {
	Instruction            string                  `json:"instruction"`
	Components             []ComponentRequirement  `json:"components"`
	Connections            []ConnectionRequirement `json:"connections"`
	Parameters             map[string]any          `json:"parameters,omitempty"`
	ClarificationNeeded    bool                    `json:"clarification_needed"`
	ClarificationQuestions []ClarificationQuestion `json:"clarification_questions,omitempty"`
	FlowDescription        string                  `json:"flow_description,omitempty"`
	ForcedResolution       bool                    `json:"forced_resolution,omitempty"`
}
