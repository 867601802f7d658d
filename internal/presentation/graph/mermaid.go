package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/arche/pkg/domain"
	"github.com/aretw0/arche/pkg/progress"
	"github.com/aretw0/arche/pkg/tree"
)

// Overlay contains progress data to visualize on the graph.
type Overlay struct {
	// Summaries maps aggregating node ids to their current summary.
	Summaries map[string]progress.Summary
}

// OverlayOf snapshots every aggregating node of t.
func OverlayOf(t *tree.Tree) *Overlay {
	o := &Overlay{Summaries: make(map[string]progress.Summary)}
	for _, a := range t.Aggregators() {
		o.Summaries[a.ID()] = a.Progress().Snapshot()
	}
	return o
}

// GenerateMermaid produces a Mermaid flowchart of the project tree.
// It applies semantic styling:
// - Root: ((Circle))
// - Observation mesh: [[Subroutine]]
// - Mesh: {{Hexagon}}
// - Realization: [(Database)]
// - Boundary condition, remote and constraint: >Flag]
// - Default: [Rectangle]
// With an overlay, aggregating nodes are annotated with their count and
// resolved realizations are highlighted.
func GenerateMermaid(t *tree.Tree, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	_ = t.Walk(func(n domain.Node, depth int) error {
		safeID := sanitizeMermaidID(n.ID())

		opener, closer := "[", "]"
		switch n.Kind() {
		case domain.KindRoot:
			opener, closer = "((", "))"
		case domain.KindObservationMesh:
			opener, closer = "[[", "]]"
		case domain.KindMesh, domain.KindDiscontinuityMesh:
			opener, closer = "{{", "}}"
		case domain.KindRealization:
			opener, closer = "[(", ")]"
		case domain.KindBoundaryCondition, domain.KindAndersonianRemote,
			domain.KindCoulombConstraint, domain.KindCoulombOrthoConstraint,
			domain.KindDisplacementConstraint, domain.KindDisplacementNormConstraint:
			opener, closer = ">", "]"
		}

		text := label(n)
		if overlay != nil {
			if s, ok := overlay.Summaries[n.ID()]; ok {
				text = fmt.Sprintf("%s <br/> %d", text, s.Count)
			}
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, text, closer)

		if parent, ok := t.Parent(n.ID()); ok {
			fmt.Fprintf(&sb, "    %s --> %s\n", sanitizeMermaidID(parent.ID()), safeID)
		}
		return nil
	})

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds
		sb.WriteString("    classDef resolved fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef active fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		resolved := make(map[string]bool)
		for _, n := range t.Nodes() {
			s, ok := overlay.Summaries[n.ID()]
			if !ok {
				continue
			}
			if s.Count > 0 {
				fmt.Fprintf(&sb, "    class %s active;\n", sanitizeMermaidID(n.ID()))
			}
			for _, id := range s.IDs {
				safeID := sanitizeMermaidID(id)
				if !resolved[safeID] {
					resolved[safeID] = true
					fmt.Fprintf(&sb, "    class %s resolved;\n", safeID)
				}
			}
		}
	}

	return sb.String()
}

func label(n domain.Node) string {
	text := n.ID()
	if n.Name() != "" {
		text = n.Name()
	}
	return strings.ReplaceAll(text, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
