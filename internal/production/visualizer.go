package production

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/comalice/commanderx/internal/core"
	"github.com/comalice/commanderx/internal/primitives"
)

// DefaultVisualizer is the stdlib-only implementation of Visualizer.
type DefaultVisualizer struct{}

// Edge represents a table-legal arming transition.
type Edge struct {
	From primitives.ArmingState `json:"from"`
	To   primitives.ArmingState `json:"to"`
}

// collectEdges lists legal transitions in table order, self loops excluded.
func collectEdges() []Edge {
	var edges []Edge
	for _, from := range primitives.AllArmingStates() {
		for _, to := range primitives.AllArmingStates() {
			if from != to && core.ArmingTransitionLegal(to, from) {
				edges = append(edges, Edge{From: from, To: to})
			}
		}
	}
	return edges
}

// ExportDOT generates Graphviz DOT source for the arming state machine with
// the current state highlighted.
func (v *DefaultVisualizer) ExportDOT(current primitives.ArmingState) string {
	var buf bytes.Buffer
	buf.WriteString(`digraph ArmingStateMachine {
  rankdir=LR;
  node [shape=box, fontsize=10, style=rounded];
  edge [fontsize=9];
`)

	for _, s := range primitives.AllArmingStates() {
		style := ""
		if s == current {
			style = ` style=filled fillcolor=lightgreen`
		}
		if s == primitives.ArmingReboot {
			style += ` peripheries=2`
		}
		buf.WriteString(fmt.Sprintf("  \"%s\" [label=\"%s\"%s];\n", s, s, style))
	}

	for _, e := range collectEdges() {
		buf.WriteString(fmt.Sprintf("  \"%s\" -> \"%s\";\n", e.From, e.To))
	}

	buf.WriteString("}\n")
	return buf.String()
}

// ExportJSON serializes the arming states and legal transitions to JSON.
func (v *DefaultVisualizer) ExportJSON() ([]byte, error) {
	doc := struct {
		States      []primitives.ArmingState `json:"states"`
		Transitions []Edge                   `json:"transitions"`
	}{
		States:      primitives.AllArmingStates(),
		Transitions: collectEdges(),
	}
	return json.MarshalIndent(doc, "", "  ")
}
