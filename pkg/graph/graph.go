// Package graph holds the immutable question graph of an interview.
//
// A Graph is built once at startup from a domain.Definition. Build validates
// every reference and compiles every rule, so lookups at runtime never fail
// for a well-formed pointer; a miss is always a configuration error.
package graph

import (
	"strings"

	"github.com/aretw0/boletim/pkg/domain"
	"github.com/aretw0/boletim/pkg/rules"
)

// Graph is the read-only question graph. Safe for concurrent use.
type Graph struct {
	name      string
	tokens    domain.GateTokens
	messages  domain.Messages
	order     []string
	sections  map[string]*sectionIndex
	stepOwner map[string]string
}

type sectionIndex struct {
	section domain.Section
	entry   string
	nodes   map[string]*domain.QuestionNode
	rules   map[string]rules.RuleSet
	main    []string
	mainPos map[string]int
	parent  map[string]string // follow-up -> gate that inserts it
	decl    map[string]int    // declaration position
}

// Name returns the interview name from the definition.
func (g *Graph) Name() string { return g.name }

// Tokens returns the gate tokens in effect.
func (g *Graph) Tokens() domain.GateTokens { return g.tokens }

// Evaluator returns the rule evaluator configured with the graph messages.
func (g *Graph) Evaluator() rules.Evaluator {
	return rules.Evaluator{RequiredMessage: g.messages.Required}
}

// Sections returns the section identifiers in traversal order.
func (g *Graph) Sections() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// SectionCount returns the number of configured sections.
func (g *Graph) SectionCount() int { return len(g.order) }

// SectionAt returns the identifier of the i-th section.
func (g *Graph) SectionAt(i int) (string, bool) {
	if i < 0 || i >= len(g.order) {
		return "", false
	}
	return g.order[i], true
}

// Section returns the template of a section.
func (g *Graph) Section(sectionID string) (*domain.Section, error) {
	idx, err := g.index(sectionID)
	if err != nil {
		return nil, err
	}
	s := idx.section
	return &s, nil
}

// Node looks up a step of a section.
func (g *Graph) Node(sectionID, stepID string) (*domain.QuestionNode, error) {
	idx, err := g.index(sectionID)
	if err != nil {
		return nil, err
	}
	n, ok := idx.nodes[stepID]
	if !ok {
		return nil, &domain.UnknownNodeError{SectionID: sectionID, StepID: stepID}
	}
	return n, nil
}

// Entry returns the entry node of a section.
func (g *Graph) Entry(sectionID string) (*domain.QuestionNode, error) {
	idx, err := g.index(sectionID)
	if err != nil {
		return nil, err
	}
	return idx.nodes[idx.entry], nil
}

// Rules returns the compiled rule set of a step.
func (g *Graph) Rules(sectionID, stepID string) (rules.RuleSet, error) {
	idx, err := g.index(sectionID)
	if err != nil {
		return nil, err
	}
	set, ok := idx.rules[stepID]
	if !ok {
		return nil, &domain.UnknownNodeError{SectionID: sectionID, StepID: stepID}
	}
	return set, nil
}

// SectionOf returns the section owning stepID.
func (g *Graph) SectionOf(stepID string) (string, bool) {
	s, ok := g.stepOwner[stepID]
	return s, ok
}

// IsMain reports whether stepID belongs to the main sequence of its section
// (i.e. it is not a gate follow-up).
func (g *Graph) IsMain(sectionID, stepID string) bool {
	idx, err := g.index(sectionID)
	if err != nil {
		return false
	}
	_, ok := idx.mainPos[stepID]
	return ok
}

// Parent returns the gate that inserts a follow-up step.
func (g *Graph) Parent(sectionID, stepID string) (string, bool) {
	idx, err := g.index(sectionID)
	if err != nil {
		return "", false
	}
	p, ok := idx.parent[stepID]
	return p, ok
}

// Anchor returns the main-sequence ancestor of a step (the step itself when it is main).
func (g *Graph) Anchor(sectionID, stepID string) string {
	idx, err := g.index(sectionID)
	if err != nil {
		return ""
	}
	current := stepID
	for {
		p, ok := idx.parent[current]
		if !ok {
			return current
		}
		current = p
	}
}

// Successor returns the node following a main step: its explicit Next, the
// next main node, or domain.EndNode. Follow-ups have no static successor and
// return the empty string.
func (g *Graph) Successor(sectionID, stepID string) string {
	idx, err := g.index(sectionID)
	if err != nil {
		return ""
	}
	pos, ok := idx.mainPos[stepID]
	if !ok {
		return ""
	}
	if next := idx.nodes[stepID].Next; next != "" {
		return next
	}
	if pos+1 < len(idx.main) {
		return idx.main[pos+1]
	}
	return domain.EndNode
}

// Position returns the declaration position of a step within its section, or -1.
func (g *Graph) Position(sectionID, stepID string) int {
	idx, err := g.index(sectionID)
	if err != nil {
		return -1
	}
	pos, ok := idx.decl[stepID]
	if !ok {
		return -1
	}
	return pos
}

// Size returns the total number of nodes declared in a section.
func (g *Graph) Size(sectionID string) int {
	idx, err := g.index(sectionID)
	if err != nil {
		return 0
	}
	return len(idx.nodes)
}

// Classify maps a gate answer to its branch. ok is false when the answer is
// neither token; matching is exact and case-insensitive.
func (g *Graph) Classify(answer string) (affirmative bool, ok bool) {
	clean := strings.TrimSpace(answer)
	switch {
	case strings.EqualFold(clean, g.tokens.Affirmative):
		return true, true
	case strings.EqualFold(clean, g.tokens.Negative):
		return false, true
	}
	return false, false
}

// GateMessage returns the failure message for a non-token gate answer.
func (g *Graph) GateMessage(node *domain.QuestionNode) string {
	if node.Gate != nil && node.Gate.Message != "" {
		return node.Gate.Message
	}
	if g.messages.Gate != "" {
		return g.messages.Gate
	}
	return "Responda " + g.tokens.Affirmative + " ou " + g.tokens.Negative + "."
}

func (g *Graph) index(sectionID string) (*sectionIndex, error) {
	idx, ok := g.sections[sectionID]
	if !ok {
		return nil, &domain.UnknownNodeError{SectionID: sectionID}
	}
	return idx, nil
}
