package interpret

import (
	"bytes"
	"fmt"
	"strings"

	"flowsmith/internal/catalog"
	"flowsmith/internal/util/jsonutil"
)

// promptField describes a single output field in the response schema.
type promptField struct {
	Name        string
	Type        string
	Required    bool
	Description string
}

// promptSpec defines the sections of the interpreter prompt.
type promptSpec struct {
	Purpose      string
	Background   string
	OutputFields []promptField
	Constraints  []string
	Rules        []string
	OutputFormat string
}

var interpreterOutputFields = []promptField{
	{Name: "components", Type: "array", Required: true,
		Description: "objects with component_type, component_name, parameters (object), description"},
	{Name: "connections", Type: "array", Required: true,
		Description: "objects with source_component_idx, target_component_idx, source_field, target_field, description; indices refer to positions in components"},
	{Name: "parameters", Type: "object", Required: false,
		Description: "global key/value parameters not tied to one component"},
	{Name: "clarification_needed", Type: "boolean", Required: true,
		Description: "true when the instruction is ambiguous or underspecified"},
	{Name: "clarification_questions", Type: "array", Required: false,
		Description: "objects with question (text) and options (suggested answers); at most one per ambiguous component"},
	{Name: "flow_description", Type: "string", Required: true,
		Description: "one or two sentences summarizing the flow"},
}

var interpreterConstraints = []string{
	"Return strict JSON only.",
	"Match the schema exactly; no extra fields.",
	"No markdown, comments, or trailing commas.",
	"Only use component types listed under AVAILABLE_COMPONENTS; never invent types.",
	"Only use source_field/target_field names declared on the listed components' ports.",
}

var interpreterRules = []string{
	"Prefer asking a clarification question over guessing which component the user meant.",
	"If clarification answers are provided in the input, treat them as authoritative.",
	"source_component_idx must differ from target_component_idx.",
}

// buildInterpreterPrompt renders the interpreter prompt grounded in the
// catalog snapshot so the model can only pick from known component types.
func buildInterpreterPrompt(snap *catalog.Snapshot) (string, error) {
	components, err := jsonutil.MarshalNoEscape(snap.List())
	if err != nil {
		return "", fmt.Errorf("interpret: encode catalog: %w", err)
	}
	spec := promptSpec{
		Purpose: "Translate a free-text flow-building instruction into component requirements, " +
			"connection requirements, and clarification questions for anything ambiguous.",
		Background: "The user is assembling a data flow from typed components. Each component " +
			"has declared parameters, input ports, and output ports. Connections carry a value " +
			"from an output port of one component to an input port of another.",
		OutputFields: interpreterOutputFields,
		Constraints:  interpreterConstraints,
		Rules:        interpreterRules,
		OutputFormat: "A single JSON object with the fields listed under OUTPUT.",
	}
	return renderPrompt(spec, string(components))
}

func renderPrompt(spec promptSpec, componentsJSON string) (string, error) {
	if strings.TrimSpace(spec.Purpose) == "" {
		return "", fmt.Errorf("interpret: prompt purpose is empty")
	}
	if len(spec.OutputFields) == 0 {
		return "", fmt.Errorf("interpret: prompt output fields are empty")
	}
	var buf bytes.Buffer
	writeSection(&buf, "PURPOSE", spec.Purpose)
	writeSection(&buf, "BACKGROUND", spec.Background)
	writeSection(&buf, "AVAILABLE_COMPONENTS", componentsJSON)
	writeSection(&buf, "OUTPUT", formatFields(spec.OutputFields))
	writeSection(&buf, "CONSTRAINTS", formatList(spec.Constraints))
	writeSection(&buf, "RULES", formatList(spec.Rules))
	writeSection(&buf, "OUTPUT_FORMAT", spec.OutputFormat)
	return strings.TrimSpace(buf.String()) + "\n", nil
}

func formatFields(fields []promptField) string {
	var buf strings.Builder
	for _, f := range fields {
		name := strings.TrimSpace(f.Name)
		if name == "" {
			continue
		}
		req := "optional"
		if f.Required {
			req = "required"
		}
		if f.Description != "" {
			fmt.Fprintf(&buf, "- %s (%s, %s): %s\n", name, f.Type, req, f.Description)
		} else {
			fmt.Fprintf(&buf, "- %s (%s, %s)\n", name, f.Type, req)
		}
	}
	return strings.TrimRight(buf.String(), "\n")
}

func formatList(items []string) string {
	var buf strings.Builder
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		fmt.Fprintf(&buf, "- %s\n", item)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func writeSection(buf *bytes.Buffer, title, body string) {
	if strings.TrimSpace(body) == "" {
		return
	}
	buf.WriteString("[")
	buf.WriteString(title)
	buf.WriteString("]\n")
	buf.WriteString(body)
	if !strings.HasSuffix(body, "\n") {
		buf.WriteString("\n")
	}
	buf.WriteString("\n")
}
