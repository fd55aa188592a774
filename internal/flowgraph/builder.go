package flowgraph

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"flowsmith/internal/catalog"
	"flowsmith/internal/interpret"
	"flowsmith/internal/utils"
)

// ErrNotResolved is returned when Build is invoked on an interpretation
// that still needs clarification. Caller protocol violation.
var ErrNotResolved = errors.New("flowgraph: interpretation not resolved")

// Builder deterministically compiles a resolved interpretation into a
// flow graph against a knowledge base snapshot. It is pure and CPU-bound
// beyond the single snapshot read.
type Builder struct {
	kb catalog.KnowledgeBase
}

func NewBuilder(kb catalog.KnowledgeBase) *Builder {
	return &Builder{kb: kb}
}

// Build compiles the interpretation. Invalid connections are recorded in
// RejectedConnections, never dropped: len(edges)+len(rejected) always
// equals len(connections).
func (b *Builder) Build(ctx context.Context, in *interpret.Interpretation) (*FlowGraph, error) {
	if in == nil {
		return nil, fmt.Errorf("flowgraph: interpretation is nil")
	}
	if in.ClarificationNeeded {
		return nil, fmt.Errorf("%w: %d clarification question(s) pending", ErrNotResolved, len(in.ClarificationQuestions))
	}
	snap, err := catalog.TakeSnapshot(ctx, b.kb)
	if err != nil {
		return nil, fmt.Errorf("flowgraph: knowledge base: %w", err)
	}

	gen := utils.NewUIDGenerator()
	graph := &FlowGraph{
		Nodes:               make([]Node, 0, len(in.Components)),
		Edges:               make([]Edge, 0, len(in.Connections)),
		RejectedConnections: make([]RejectedConnection, 0),
	}

	for i, comp := range in.Components {
		graph.Nodes = append(graph.Nodes, buildNode(gen, i, comp, snap))
	}

	// Tracks accepted bindings of single-input target ports. First
	// connection in requirement order wins.
	type binding struct {
		nodeIdx int
		field   string
	}
	bound := make(map[binding]bool)

	for _, conn := range in.Connections {
		if reject, bad := validateIndices(conn, len(in.Components)); bad {
			graph.RejectedConnections = append(graph.RejectedConnections, reject)
			continue
		}
		srcNode := graph.Nodes[conn.SourceIndex]
		tgtNode := graph.Nodes[conn.TargetIndex]

		outPort, inPort, reject, bad := resolvePorts(conn, in, snap)
		if bad {
			graph.RejectedConnections = append(graph.RejectedConnections, reject)
			continue
		}
		if !inPort.AcceptsType(outPort) {
			graph.RejectedConnections = append(graph.RejectedConnections, RejectedConnection{
				Connection: conn,
				Reason:     ReasonTypeMismatch,
				Detail: fmt.Sprintf("output %q (%s) is not compatible with input %q (%s)",
					conn.SourceField, outPort.Type, conn.TargetField, inPort.Type),
			})
			continue
		}
		key := binding{nodeIdx: conn.TargetIndex, field: conn.TargetField}
		if !inPort.MultiInput && bound[key] {
			graph.RejectedConnections = append(graph.RejectedConnections, RejectedConnection{
				Connection: conn,
				Reason:     ReasonPortAlreadyBound,
				Detail:     fmt.Sprintf("input %q of node %q already has an accepted connection", conn.TargetField, tgtNode.ID),
			})
			continue
		}
		bound[key] = true

		graph.Edges = append(graph.Edges, Edge{
			ID:           gen.Generate(fmt.Sprintf("edge %s %s %s %s", srcNode.ID, conn.SourceField, tgtNode.ID, conn.TargetField)),
			SourceNodeID: srcNode.ID,
			SourceField:  conn.SourceField,
			TargetNodeID: tgtNode.ID,
			TargetField:  conn.TargetField,
		})
	}

	return graph, nil
}

// buildNode allocates a fresh node id and normalizes parameters against
// the component's declared schema. Unknown parameters are dropped with a
// warning; missing required parameters take the schema default when one
// exists, otherwise the node is flagged incomplete.
func buildNode(gen *utils.UIDGenerator, idx int, comp interpret.ComponentRequirement, snap *catalog.Snapshot) Node {
	seed := strings.TrimSpace(comp.ComponentName)
	if seed == "" {
		seed = strings.TrimSpace(comp.ComponentType)
	}
	if seed == "" {
		seed = fmt.Sprintf("node-%d", idx+1)
	}

	node := Node{
		ID:            gen.Generate(seed),
		ComponentType: comp.ComponentType,
		Name:          comp.ComponentName,
	}

	spec, known := snap.Get(comp.ComponentType)
	if !known {
		// A forced resolution can carry a type the catalog never
		// confirmed; keep the node so the rest of the graph builds.
		node.Incomplete = true
		node.Warnings = append(node.Warnings, fmt.Sprintf("component type %q is not in the catalog", comp.ComponentType))
		node.Parameters = comp.Parameters
		return node
	}

	params := make(map[string]any, len(comp.Parameters))
	for _, name := range sortedKeys(comp.Parameters) {
		if _, declared := spec.Parameters[name]; declared {
			params[name] = comp.Parameters[name]
			continue
		}
		node.Warnings = append(node.Warnings, fmt.Sprintf("parameter %q is not declared by %q and was dropped", name, comp.ComponentType))
	}
	for _, name := range sortedParamNames(spec.Parameters) {
		pspec := spec.Parameters[name]
		if !pspec.Required {
			continue
		}
		if _, present := params[name]; present {
			continue
		}
		if pspec.Default != nil {
			params[name] = pspec.Default
			continue
		}
		node.Incomplete = true
		node.Warnings = append(node.Warnings, fmt.Sprintf("required parameter %q has no value and no default", name))
	}
	if len(params) > 0 {
		node.Parameters = params
	}
	return node
}

func validateIndices(conn interpret.ConnectionRequirement, n int) (RejectedConnection, bool) {
	if conn.SourceIndex < 0 || conn.SourceIndex >= n {
		return RejectedConnection{
			Connection: conn,
			Reason:     ReasonIndexOutOfRange,
			Detail:     fmt.Sprintf("source index %d outside [0,%d)", conn.SourceIndex, n),
		}, true
	}
	if conn.TargetIndex < 0 || conn.TargetIndex >= n {
		return RejectedConnection{
			Connection: conn,
			Reason:     ReasonIndexOutOfRange,
			Detail:     fmt.Sprintf("target index %d outside [0,%d)", conn.TargetIndex, n),
		}, true
	}
	if conn.SourceIndex == conn.TargetIndex {
		return RejectedConnection{
			Connection: conn,
			Reason:     ReasonIndexOutOfRange,
			Detail:     fmt.Sprintf("source and target both reference component %d", conn.SourceIndex),
		}, true
	}
	return RejectedConnection{}, false
}

func resolvePorts(conn interpret.ConnectionRequirement, in *interpret.Interpretation, snap *catalog.Snapshot) (catalog.Port, catalog.Port, RejectedConnection, bool) {
	srcType := in.Components[conn.SourceIndex].ComponentType
	tgtType := in.Components[conn.TargetIndex].ComponentType

	srcSpec, srcKnown := snap.Get(srcType)
	if !srcKnown {
		return catalog.Port{}, catalog.Port{}, RejectedConnection{
			Connection: conn,
			Reason:     ReasonPortNotFound,
			Detail:     fmt.Sprintf("source component type %q is not in the catalog", srcType),
		}, true
	}
	outPort, ok := srcSpec.OutputPort(conn.SourceField)
	if !ok {
		return catalog.Port{}, catalog.Port{}, RejectedConnection{
			Connection: conn,
			Reason:     ReasonPortNotFound,
			Detail:     fmt.Sprintf("%q declares no output port %q", srcType, conn.SourceField),
		}, true
	}

	tgtSpec, tgtKnown := snap.Get(tgtType)
	if !tgtKnown {
		return catalog.Port{}, catalog.Port{}, RejectedConnection{
			Connection: conn,
			Reason:     ReasonPortNotFound,
			Detail:     fmt.Sprintf("target component type %q is not in the catalog", tgtType),
		}, true
	}
	inPort, ok := tgtSpec.InputPort(conn.TargetField)
	if !ok {
		return catalog.Port{}, catalog.Port{}, RejectedConnection{
			Connection: conn,
			Reason:     ReasonPortNotFound,
			Detail:     fmt.Sprintf("%q declares no input port %q", tgtType, conn.TargetField),
		}, true
	}
	return outPort, inPort, RejectedConnection{}, false
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedParamNames(m map[string]catalog.ParameterSpec) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
