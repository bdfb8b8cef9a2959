package runtime

import (
	"strings"

	"github.com/aretw0/boletim/pkg/domain"
	"github.com/aretw0/boletim/pkg/graph"
)

// SectionStatus is the lifecycle state of a section walk.
type SectionStatus string

const (
	StatusActive   SectionStatus = "active"
	StatusSkipped  SectionStatus = "skipped"  // short-circuited by a negative gate
	StatusComplete SectionStatus = "complete" // walk reached the end marker
)

// Section walks one section of the question graph.
//
// The realized path is append-only: path[cursor] is the current node and
// queue holds nodes already decided to come next (inserted follow-ups and
// the continuation of the gate that inserted them). The static graph is
// never mutated.
type Section struct {
	graph   *graph.Graph
	id      string
	status  SectionStatus
	path    []string
	cursor  int
	queue   []string
	answers *domain.Answers
}

// NewSection starts a walk at the section's entry node.
func NewSection(g *graph.Graph, sectionID string) (*Section, error) {
	entry, err := g.Entry(sectionID)
	if err != nil {
		return nil, err
	}
	return &Section{
		graph:   g,
		id:      sectionID,
		status:  StatusActive,
		path:    []string{entry.ID},
		answers: domain.NewAnswers(),
	}, nil
}

// ID returns the section identifier.
func (s *Section) ID() string { return s.id }

// Status returns the lifecycle state.
func (s *Section) Status() SectionStatus { return s.status }

// IsComplete reports whether the walk is terminal (complete or skipped).
func (s *Section) IsComplete() bool { return s.status != StatusActive }

// Skipped reports whether a negative gate short-circuited the section.
func (s *Section) Skipped() bool { return s.status == StatusSkipped }

// Current returns the node awaiting an answer, or nil when terminal.
func (s *Section) Current() *domain.QuestionNode {
	if s.IsComplete() {
		return nil
	}
	n, err := s.graph.Node(s.id, s.path[s.cursor])
	if err != nil {
		return nil
	}
	return n
}

// CurrentStepID returns the identifier of the current node, or "" when terminal.
func (s *Section) CurrentStepID() string {
	if s.IsComplete() {
		return ""
	}
	return s.path[s.cursor]
}

// Path returns a copy of the realized path.
func (s *Section) Path() []string {
	out := make([]string, len(s.path))
	copy(out, s.path)
	return out
}

// Answers returns a copy of the answers recorded in this section.
func (s *Section) Answers() *domain.Answers { return s.answers.Clone() }

// Submit validates text against the current node and, when accepted, records
// it and moves the pointer. stepID is advisory: when non-empty it must match
// the current node.
func (s *Section) Submit(stepID, text string) (string, error) {
	if s.IsComplete() {
		return "", &domain.OrderingError{Op: "submit", Got: stepID, Detail: "section " + s.id + " is already " + string(s.status)}
	}
	current := s.path[s.cursor]
	if stepID != "" && stepID != current {
		return "", &domain.OrderingError{Op: "submit", Expected: current, Got: stepID}
	}

	node, err := s.graph.Node(s.id, current)
	if err != nil {
		return "", err
	}

	answer, affirmative, err := s.validate(node, text)
	if err != nil {
		return "", err
	}

	s.answers.Set(current, answer)
	s.resolve(node, affirmative)
	return current, nil
}

// Update overwrites a previously recorded answer without resolving branches.
func (s *Section) Update(stepID, text string) error {
	node, err := s.graph.Node(s.id, stepID)
	if err != nil {
		return err
	}
	if node.IsGate() {
		return &domain.OrderingError{Op: "update", Got: stepID, Detail: "gate answers are fixed once resolved"}
	}
	if !s.answers.Has(stepID) {
		return &domain.OrderingError{Op: "update", Got: stepID, Detail: "step has not been answered"}
	}
	answer, _, err := s.validate(node, text)
	if err != nil {
		return err
	}
	s.answers.Set(stepID, answer)
	return nil
}

// validate runs the gate token check and the rule set. Gates accept only the
// two tokens; any other text fails with the gate message.
func (s *Section) validate(node *domain.QuestionNode, text string) (string, bool, error) {
	set, err := s.graph.Rules(s.id, node.ID)
	if err != nil {
		return "", false, err
	}
	eval := s.graph.Evaluator()

	if node.IsGate() {
		verdict := eval.Evaluate(text, nil)
		if !verdict.Valid {
			return "", false, &domain.ValidationError{StepID: node.ID, Message: verdict.Message}
		}
		affirmative, ok := s.graph.Classify(text)
		if !ok {
			return "", false, &domain.ValidationError{StepID: node.ID, Message: s.graph.GateMessage(node)}
		}
		if verdict := eval.Evaluate(text, set); !verdict.Valid {
			return "", false, &domain.ValidationError{StepID: node.ID, Message: verdict.Message}
		}
		return canonicalToken(s.graph, affirmative), affirmative, nil
	}

	verdict := eval.Evaluate(text, set)
	if !verdict.Valid {
		return "", false, &domain.ValidationError{StepID: node.ID, Message: verdict.Message}
	}
	return strings.TrimSpace(text), false, nil
}

func (s *Section) resolve(node *domain.QuestionNode, affirmative bool) {
	if !node.IsGate() {
		s.moveTo(s.continuation(node.ID))
		return
	}

	if affirmative {
		inserted := append([]string{}, node.Gate.OnAffirmative.FollowUps...)
		if s.graph.IsMain(s.id, node.ID) {
			inserted = append(inserted, s.graph.Successor(s.id, node.ID))
		}
		s.queue = append(inserted, s.queue...)
		s.moveTo(s.pop())
		return
	}

	neg := node.Gate.OnNegative
	switch {
	case neg.SkipSection:
		s.queue = nil
		s.status = StatusSkipped
	case neg.JumpTo != "":
		s.queue = nil
		s.moveTo(neg.JumpTo)
	default:
		s.moveTo(s.continuation(node.ID))
	}
}

// continuation returns what follows a node that inserted nothing.
func (s *Section) continuation(stepID string) string {
	if len(s.queue) > 0 {
		return s.pop()
	}
	if s.graph.IsMain(s.id, stepID) {
		return s.graph.Successor(s.id, stepID)
	}
	return domain.EndNode
}

func (s *Section) pop() string {
	next := s.queue[0]
	s.queue = s.queue[1:]
	return next
}

func (s *Section) moveTo(next string) {
	if next == domain.EndNode || next == "" {
		s.queue = nil
		s.status = StatusComplete
		return
	}
	s.path = append(s.path, next)
	s.cursor = len(s.path) - 1
}

// Progress counts answers against the realized path plus what is still
// reachable from the pointer. Future gates are projected without follow-ups.
func (s *Section) Progress() domain.Progress {
	total := len(s.path)
	if !s.IsComplete() {
		total += len(s.projected())
	}
	return domain.NewProgress(s.answers.Len(), total)
}

func (s *Section) projected() []string {
	var out []string
	from := s.path[s.cursor]
	for _, q := range s.queue {
		if q == domain.EndNode {
			return out
		}
		out = append(out, q)
		from = q
	}
	if !s.graph.IsMain(s.id, from) {
		return out
	}
	for next := s.graph.Successor(s.id, from); next != domain.EndNode && next != ""; next = s.graph.Successor(s.id, next) {
		out = append(out, next)
	}
	return out
}

func canonicalToken(g *graph.Graph, affirmative bool) string {
	if affirmative {
		return g.Tokens().Affirmative
	}
	return g.Tokens().Negative
}
