package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/ntrode/pkg/domain"
	"github.com/aretw0/ntrode/pkg/statemachine"
)

// Overlay contains dynamic state data to visualize on the graph.
type Overlay struct {
	Visited []domain.State
	Current domain.State
}

// GenerateMermaid produces a Mermaid flowchart of a transition table.
// It applies semantic styling:
// - OFF: ((Circle))
// - INIT: [[Subroutine]], the handlers are built there
// - INPUT: [/Parallelogram/]
// - Default: [Rectangle]
// Transitions bound to an action are labelled with the action name.
// A target state without an entry of its own is drawn without outgoing edge.
func GenerateMermaid(table statemachine.Table, labels map[domain.State]string, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, s := range order(table) {
		t, ok := table[s]
		safeID := sanitizeMermaidID(string(s))

		opener, closer := "[", "]"
		switch s {
		case domain.StateOff:
			opener, closer = "((", "))"
		case domain.StateInit:
			opener, closer = "[[", "]]"
		case domain.StateInput:
			opener, closer = "[/", "/]"
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, s, closer))

		if !ok {
			continue
		}
		arrow := "-->"
		if t.Action != nil {
			label := labels[s]
			if label == "" {
				label = "action"
			}
			arrow = fmt.Sprintf("-- \"%s\" -->", strings.ReplaceAll(label, "\"", "'"))
		}
		sb.WriteString(fmt.Sprintf("    %s %s %s\n", safeID, arrow, sanitizeMermaidID(string(t.Next))))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, s := range overlay.Visited {
			safeID := sanitizeMermaidID(string(s))
			if !seen[safeID] && safeID != "" {
				seen[safeID] = true
				sb.WriteString(fmt.Sprintf("    class %s visited;\n", safeID))
			}
		}
		if overlay.Current != "" {
			sb.WriteString(fmt.Sprintf("    class %s current;\n", sanitizeMermaidID(string(overlay.Current))))
		}
	}

	return sb.String()
}

// DefaultLabels names the actions of the default table.
func DefaultLabels() map[domain.State]string {
	return map[domain.State]string{
		domain.StateInit:    "initialise",
		domain.StateInput:   "invoke handlers",
		domain.StateProcess: "invoke handlers",
		domain.StateOutput:  "invoke handlers",
	}
}

// order lists the known states first, then any other state the table mentions.
func order(table statemachine.Table) []domain.State {
	var out []domain.State
	seen := map[domain.State]bool{}
	add := func(s domain.State) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, s := range domain.States {
		if _, ok := table[s]; ok {
			add(s)
		}
	}
	for _, s := range domain.States {
		if t, ok := table[s]; ok {
			add(t.Next)
		}
	}
	return out
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
