package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/boletim/pkg/domain"
	"github.com/aretw0/boletim/pkg/rules"
)

// Build validates a definition and compiles it into a Graph.
// All problems are collected and reported together.
func Build(def domain.Definition) (*Graph, error) {
	b := &builder{
		g: &Graph{
			name:      def.Name,
			tokens:    def.Tokens,
			messages:  def.Messages,
			sections:  make(map[string]*sectionIndex),
			stepOwner: make(map[string]string),
		},
	}

	if b.g.tokens.Affirmative == "" {
		b.g.tokens.Affirmative = domain.DefaultAffirmative
	}
	if b.g.tokens.Negative == "" {
		b.g.tokens.Negative = domain.DefaultNegative
	}
	if strings.EqualFold(strings.TrimSpace(b.g.tokens.Affirmative), strings.TrimSpace(b.g.tokens.Negative)) {
		b.fail("gate tokens must differ (both are %q)", b.g.tokens.Affirmative)
	}

	if len(def.Sections) == 0 {
		b.fail("definition has no sections")
	}

	for _, s := range def.Sections {
		b.section(s)
	}

	if len(b.errs) > 0 {
		return nil, fmt.Errorf("invalid interview definition: found %d errors:\n- %s", len(b.errs), strings.Join(b.errs, "\n- "))
	}
	return b.g, nil
}

type builder struct {
	g    *Graph
	errs []string
}

func (b *builder) fail(format string, args ...any) {
	b.errs = append(b.errs, fmt.Sprintf(format, args...))
}

func (b *builder) section(s domain.Section) {
	if s.ID == "" {
		b.fail("section with empty id")
		return
	}
	if _, dup := b.g.sections[s.ID]; dup {
		b.fail("duplicate section %q", s.ID)
		return
	}
	if len(s.Nodes) == 0 {
		b.fail("section %q has no nodes", s.ID)
		return
	}

	idx := &sectionIndex{
		section: s,
		nodes:   make(map[string]*domain.QuestionNode, len(s.Nodes)),
		rules:   make(map[string]rules.RuleSet, len(s.Nodes)),
		mainPos: make(map[string]int),
		parent:  make(map[string]string),
		decl:    make(map[string]int, len(s.Nodes)),
	}

	// 1. Register nodes
	for i := range s.Nodes {
		n := s.Nodes[i]
		if n.ID == "" {
			b.fail("section %q: node %d has empty id", s.ID, i)
			continue
		}
		if n.ID == domain.EndNode {
			b.fail("section %q: %q is reserved", s.ID, domain.EndNode)
			continue
		}
		if owner, dup := b.g.stepOwner[n.ID]; dup {
			b.fail("step %q declared in both %q and %q", n.ID, owner, s.ID)
			continue
		}
		if n.Branch == "" {
			n.Branch = domain.BranchLinear
			if n.Gate != nil {
				n.Branch = domain.BranchGate
			}
		}
		switch n.Branch {
		case domain.BranchLinear:
			if n.Gate != nil {
				b.fail("step %q: linear node cannot declare a gate", n.ID)
			}
		case domain.BranchGate:
			if n.Gate == nil {
				n.Gate = &domain.Gate{}
			}
		default:
			b.fail("step %q: unknown branch %q", n.ID, n.Branch)
		}

		set, err := rules.Compile(n.Rules)
		if err != nil {
			b.fail("step %q: %v", n.ID, err)
		}

		node := n
		idx.nodes[n.ID] = &node
		idx.rules[n.ID] = set
		idx.decl[n.ID] = i
		b.g.stepOwner[n.ID] = s.ID
	}

	// 2. Follow-ups and main sequence
	for _, n := range s.Nodes {
		node, ok := idx.nodes[n.ID]
		if !ok || !node.IsGate() {
			continue
		}
		for _, f := range node.Gate.OnAffirmative.FollowUps {
			switch {
			case f == node.ID:
				b.fail("step %q: gate lists itself as follow-up", node.ID)
			case idx.nodes[f] == nil:
				b.fail("step %q: follow-up %q not found in section %q", node.ID, f, s.ID)
			case idx.parent[f] != "":
				b.fail("step %q: follow-up %q already belongs to gate %q", node.ID, f, idx.parent[f])
			default:
				idx.parent[f] = node.ID
			}
		}
	}
	for _, n := range s.Nodes {
		if _, ok := idx.nodes[n.ID]; !ok {
			continue
		}
		if _, isFollowUp := idx.parent[n.ID]; isFollowUp {
			continue
		}
		idx.mainPos[n.ID] = len(idx.main)
		idx.main = append(idx.main, n.ID)
	}
	if len(idx.main) == 0 {
		b.fail("section %q has no main nodes", s.ID)
		return
	}

	// 3. Every follow-up must hang from a main node
	for f := range idx.parent {
		if !rootedInMain(idx, f) {
			b.fail("step %q: follow-up chain is not reachable from the main sequence", f)
		}
		if idx.nodes[f].Next != "" {
			b.fail("step %q: follow-ups cannot declare next", f)
		}
	}

	// 4. Forward targets
	for _, id := range idx.main {
		node := idx.nodes[id]
		if node.Next != "" && !isForward(idx, id, node.Next) {
			b.fail("step %q: next %q must be a later main node of %q or %s", id, node.Next, s.ID, domain.EndNode)
		}
	}
	for id, node := range idx.nodes {
		if !node.IsGate() {
			continue
		}
		neg := node.Gate.OnNegative
		if neg.SkipSection && neg.JumpTo != "" {
			b.fail("step %q: negative branch cannot both skip the section and jump", id)
		}
		if neg.JumpTo != "" && !isForward(idx, anchorOf(idx, id), neg.JumpTo) {
			b.fail("step %q: jump_to %q must be a later main node of %q or %s", id, neg.JumpTo, s.ID, domain.EndNode)
		}
	}

	// 5. Entry
	idx.entry = s.Entry
	if idx.entry == "" {
		idx.entry = idx.main[0]
	}
	if _, ok := idx.mainPos[idx.entry]; !ok {
		b.fail("section %q: entry %q is not a main node", s.ID, idx.entry)
	}

	b.g.sections[s.ID] = idx
	b.g.order = append(b.g.order, s.ID)
}

func rootedInMain(idx *sectionIndex, id string) bool {
	current := id
	for hops := 0; hops <= len(idx.nodes); hops++ {
		p, ok := idx.parent[current]
		if !ok {
			_, main := idx.mainPos[current]
			return main
		}
		current = p
	}
	return false
}

func anchorOf(idx *sectionIndex, id string) string {
	current := id
	for hops := 0; hops <= len(idx.nodes); hops++ {
		p, ok := idx.parent[current]
		if !ok {
			return current
		}
		current = p
	}
	return current
}

// isForward reports whether target is EndNode or a main node after from.
func isForward(idx *sectionIndex, from, target string) bool {
	if target == domain.EndNode {
		return true
	}
	fromPos, ok := idx.mainPos[from]
	if !ok {
		return false
	}
	toPos, ok := idx.mainPos[target]
	return ok && toPos > fromPos
}
