package flowgraph

import (
	"flowsmith/internal/interpret"
)

// Node is one compiled component instance. Its id is freshly generated
// so the graph stays stable under re-compilation.
type Node struct {
	ID            string         `json:"id"`
	ComponentType string         `json:"component_type"`
	Name          string         `json:"name,omitempty"`
	Parameters    map[string]any `json:"parameters,omitempty"`
	Incomplete    bool           `json:"incomplete,omitempty"`
	Warnings      []string       `json:"warnings,omitempty"`
}

// Edge is one accepted, validated connection.
type Edge struct {
	ID           string `json:"id"`
	SourceNodeID string `json:"source_node_id"`
	SourceField  string `json:"source_field"`
	TargetNodeID string `json:"target_node_id"`
	TargetField  string `json:"target_field"`
}

// RejectionReason classifies why a connection requirement was rejected.
type RejectionReason string

const (
	ReasonIndexOutOfRange  RejectionReason = "IndexOutOfRange"
	ReasonPortNotFound     RejectionReason = "PortNotFound"
	ReasonTypeMismatch     RejectionReason = "TypeMismatch"
	ReasonPortAlreadyBound RejectionReason = "PortAlreadyBound"
)

// RejectedConnection preserves a connection that could not be wired,
// with the reason, so callers can show exactly what failed.
type RejectedConnection struct {
	Connection interpret.ConnectionRequirement `json:"connection"`
	Reason     RejectionReason                 `json:"reason"`
	Detail     string                          `json:"detail,omitempty"`
}

// FlowGraph is the compiled result: nodes in requirement order, edges in
// accepted connection-requirement order, and every rejected connection.
type FlowGraph struct {
	Nodes               []Node               `json:"nodes"`
	Edges               []Edge               `json:"edges"`
	RejectedConnections []RejectedConnection `json:"rejected_connections"`
}
