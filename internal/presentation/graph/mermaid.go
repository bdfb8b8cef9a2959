package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/boletim/pkg/domain"
	qgraph "github.com/aretw0/boletim/pkg/graph"
)

// GraphOverlay contains session state to highlight on the diagram.
type GraphOverlay struct {
	AnsweredSteps []string
	CurrentStep   string
}

// GenerateMermaid produces a Mermaid flowchart for the interview.
// Each section is a subgraph ending in its own terminal node. Shapes:
// - Gate: {Rhombus}
// - Question: [/Parallelogram/]
// - Section end: ((Circle))
// Affirmative edges are solid, negative edges that skip or jump are dotted.
func GenerateMermaid(g *qgraph.Graph, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	tokens := g.Tokens()
	sections := g.Sections()
	for i, sectionID := range sections {
		section, err := g.Section(sectionID)
		if err != nil {
			continue
		}
		title := section.Title
		if title == "" {
			title = sectionID
		}
		end := endID(sectionID)

		fmt.Fprintf(&sb, "    subgraph %s[\"%s\"]\n", sanitizeMermaidID("section_"+sectionID), escape(title))
		for _, n := range section.Nodes {
			node, err := g.Node(sectionID, n.ID)
			if err != nil {
				continue
			}
			opener, closer := "[/", "/]"
			if node.IsGate() {
				opener, closer = "{", "}"
			}
			fmt.Fprintf(&sb, "        %s%s\"%s\"%s\n", sanitizeMermaidID(node.ID), opener, escape(label(node)), closer)
		}
		fmt.Fprintf(&sb, "        %s((\"fim\"))\n", end)
		sb.WriteString("    end\n")

		w := edgeWriter{sb: &sb, sectionID: sectionID}
		for _, n := range section.Nodes {
			if !g.IsMain(sectionID, n.ID) {
				continue
			}
			node, err := g.Node(sectionID, n.ID)
			if err != nil {
				continue
			}
			w.node(g, node, g.Successor(sectionID, node.ID), tokens)
		}

		if i+1 < len(sections) {
			if entry, err := g.Entry(sections[i+1]); err == nil {
				fmt.Fprintf(&sb, "    %s ==> %s\n", end, sanitizeMermaidID(entry.ID))
			}
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef answered fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, id := range overlay.AnsweredSteps {
			safeID := sanitizeMermaidID(id)
			if !seen[safeID] && safeID != "" {
				seen[safeID] = true
				fmt.Fprintf(&sb, "    class %s answered;\n", safeID)
			}
		}
		if overlay.CurrentStep != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentStep))
		}
	}

	return sb.String()
}

type edgeWriter struct {
	sb        *strings.Builder
	sectionID string
}

// node writes the outgoing edges of node; cont is where the walk resumes once
// node and everything it opens are done.
func (w edgeWriter) node(g *qgraph.Graph, node *domain.QuestionNode, cont string, tokens domain.GateTokens) {
	from := sanitizeMermaidID(node.ID)
	if !node.IsGate() {
		fmt.Fprintf(w.sb, "    %s --> %s\n", from, w.target(cont))
		return
	}

	followUps := node.Gate.OnAffirmative.FollowUps
	if len(followUps) == 0 {
		fmt.Fprintf(w.sb, "    %s -- %s --> %s\n", from, tokens.Affirmative, w.target(cont))
	} else {
		fmt.Fprintf(w.sb, "    %s -- %s --> %s\n", from, tokens.Affirmative, sanitizeMermaidID(followUps[0]))
		for i, id := range followUps {
			next := cont
			if i+1 < len(followUps) {
				next = followUps[i+1]
			}
			child, err := g.Node(w.sectionID, id)
			if err != nil {
				continue
			}
			w.node(g, child, next, tokens)
		}
	}

	neg := node.Gate.OnNegative
	switch {
	case neg.SkipSection:
		fmt.Fprintf(w.sb, "    %s -. \"%s (pula seção)\" .-> %s\n", from, tokens.Negative, w.target(domain.EndNode))
	case neg.JumpTo != "":
		fmt.Fprintf(w.sb, "    %s -. %s .-> %s\n", from, tokens.Negative, w.target(neg.JumpTo))
	default:
		fmt.Fprintf(w.sb, "    %s -- %s --> %s\n", from, tokens.Negative, w.target(cont))
	}
}

func (w edgeWriter) target(stepID string) string {
	if stepID == "" || stepID == domain.EndNode {
		return endID(w.sectionID)
	}
	return sanitizeMermaidID(stepID)
}

func endID(sectionID string) string {
	return sanitizeMermaidID("end_" + sectionID)
}

func label(node *domain.QuestionNode) string {
	if node.Prompt == "" {
		return node.ID
	}
	return node.ID + " " + node.Prompt
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, "$", "")
	return s
}
