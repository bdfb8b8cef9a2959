package runtime

import (
	"time"

	"github.com/aretw0/boletim/pkg/domain"
	"github.com/aretw0/boletim/pkg/graph"
)

// CompletedSection is the frozen outcome of a section the interview moved past.
type CompletedSection struct {
	ID      string
	Skipped bool
	Answers *domain.Answers
}

// Interview owns the section walks of one session.
// Exactly one section is active at a time, or none once the interview is finished.
// An Interview is not safe for concurrent use; session.Manager serializes access.
type Interview struct {
	ID        string
	CreatedAt time.Time

	graph      *graph.Graph
	index      int
	completed  []CompletedSection
	active     *Section
	version    int64
	narratives map[string]domain.NarrativeStatus
}

// SubmitOutcome describes an accepted submission.
type SubmitOutcome struct {
	StepID          string
	SectionID       string
	SectionComplete bool
	Skipped         bool
}

// NewInterview starts a session at the entry node of the first section.
func NewInterview(g *graph.Graph, id string, createdAt time.Time) (*Interview, error) {
	first, ok := g.SectionAt(0)
	if !ok {
		return nil, &domain.UnknownNodeError{SectionID: "#0"}
	}
	active, err := NewSection(g, first)
	if err != nil {
		return nil, err
	}
	return &Interview{
		ID:         id,
		CreatedAt:  createdAt,
		graph:      g,
		active:     active,
		narratives: make(map[string]domain.NarrativeStatus),
	}, nil
}

// Graph returns the question graph the interview walks.
func (iv *Interview) Graph() *graph.Graph { return iv.graph }

// Version is incremented on every accepted mutation.
func (iv *Interview) Version() int64 { return iv.version }

// SectionIndex returns the index of the active section (SectionCount when finished).
func (iv *Interview) SectionIndex() int { return iv.index }

// Active returns the active section walk, or nil when the interview is finished.
func (iv *Interview) Active() *Section { return iv.active }

// Completed returns the frozen sections in traversal order.
func (iv *Interview) Completed() []CompletedSection {
	out := make([]CompletedSection, len(iv.completed))
	copy(out, iv.completed)
	return out
}

// IsComplete reports whether every configured section was walked.
func (iv *Interview) IsComplete() bool {
	return iv.active == nil
}

// CurrentNode returns the node awaiting an answer, or nil.
func (iv *Interview) CurrentNode() *domain.QuestionNode {
	if iv.active == nil {
		return nil
	}
	return iv.active.Current()
}

// CurrentStepID returns the step awaiting an answer, or "".
func (iv *Interview) CurrentStepID() string {
	if iv.active == nil {
		return ""
	}
	return iv.active.CurrentStepID()
}

// Submit delegates to the active section. The returned outcome reports
// whether the section became terminal; the caller decides when to advance.
func (iv *Interview) Submit(stepID, text string) (SubmitOutcome, error) {
	if iv.active == nil {
		return SubmitOutcome{}, &domain.OrderingError{Op: "submit", Got: stepID, Detail: "interview is complete"}
	}
	answered, err := iv.active.Submit(stepID, text)
	if err != nil {
		return SubmitOutcome{}, err
	}
	iv.version++
	return SubmitOutcome{
		StepID:          answered,
		SectionID:       iv.active.ID(),
		SectionComplete: iv.active.IsComplete(),
		Skipped:         iv.active.Skipped(),
	}, nil
}

// AdvanceToNextSection freezes the terminal active section and starts the next one.
// It returns the section-completed event for the frozen section.
func (iv *Interview) AdvanceToNextSection() (*domain.SectionCompletedEvent, error) {
	if iv.active == nil {
		return nil, &domain.OrderingError{Op: "advance", Detail: "interview is complete"}
	}
	if !iv.active.IsComplete() {
		return nil, &domain.OrderingError{Op: "advance", Expected: iv.active.CurrentStepID(), Detail: "section " + iv.active.ID() + " is not terminal"}
	}

	done := CompletedSection{
		ID:      iv.active.ID(),
		Skipped: iv.active.Skipped(),
		Answers: iv.active.Answers(),
	}

	var next *Section
	if nextID, ok := iv.graph.SectionAt(iv.index + 1); ok {
		s, err := NewSection(iv.graph, nextID)
		if err != nil {
			return nil, err
		}
		next = s
	}

	iv.completed = append(iv.completed, done)
	iv.index++
	iv.active = next
	iv.version++

	return &domain.SectionCompletedEvent{
		EventBase: domain.EventBase{
			Timestamp: time.Now(),
			Type:      domain.EventSectionCompleted,
			SessionID: iv.ID,
		},
		SectionID: done.ID,
		Skipped:   done.Skipped,
		Answers:   done.Answers.Entries(),
	}, nil
}

// Update overwrites the answer of an already answered step, in the active
// section or in a completed one. Branches are not re-resolved, so the rest
// of the walk stays as it was built.
func (iv *Interview) Update(stepID, text string) (string, error) {
	sectionID, ok := iv.graph.SectionOf(stepID)
	if !ok {
		return "", &domain.UnknownNodeError{StepID: stepID}
	}

	if iv.active != nil && iv.active.ID() == sectionID {
		if stepID == iv.active.CurrentStepID() {
			return "", &domain.OrderingError{Op: "update", Got: stepID, Detail: "step is pending, submit it instead"}
		}
		if err := iv.active.Update(stepID, text); err != nil {
			return "", err
		}
		iv.version++
		return sectionID, nil
	}

	for i, c := range iv.completed {
		if c.ID != sectionID {
			continue
		}
		// Completed sections are immutable: validate on a scratch walk and
		// replace the frozen answer set with an updated copy.
		scratch := &Section{graph: iv.graph, id: sectionID, status: StatusComplete, answers: c.Answers.Clone()}
		if err := scratch.Update(stepID, text); err != nil {
			return "", err
		}
		iv.completed[i] = CompletedSection{ID: c.ID, Skipped: c.Skipped, Answers: scratch.answers}
		iv.version++
		return sectionID, nil
	}

	return "", &domain.OrderingError{Op: "update", Got: stepID, Detail: "section " + sectionID + " has not started"}
}

// AllAnswers returns the answers of every started section, keyed by section id.
func (iv *Interview) AllAnswers() map[string]*domain.Answers {
	out := make(map[string]*domain.Answers, len(iv.completed)+1)
	for _, c := range iv.completed {
		out[c.ID] = c.Answers.Clone()
	}
	if iv.active != nil {
		out[iv.active.ID()] = iv.active.Answers()
	}
	return out
}

// Progress returns the progress of the active section. A finished interview
// reports the progress of its last section.
func (iv *Interview) Progress() domain.Progress {
	if iv.active != nil {
		return iv.active.Progress()
	}
	if len(iv.completed) == 0 {
		return domain.Progress{}
	}
	last := iv.completed[len(iv.completed)-1]
	return domain.NewProgress(last.Answers.Len(), last.Answers.Len())
}

// Narratives returns the narrative status per completed section.
func (iv *Interview) Narratives() map[string]domain.NarrativeStatus {
	out := make(map[string]domain.NarrativeStatus, len(iv.narratives))
	for k, v := range iv.narratives {
		out[k] = v
	}
	return out
}

// SetNarrative records the narrative status of a section. Narrative state is
// not interview progress, so the version is left untouched.
func (iv *Interview) SetNarrative(sectionID string, status domain.NarrativeStatus) {
	if iv.narratives == nil {
		iv.narratives = make(map[string]domain.NarrativeStatus)
	}
	iv.narratives[sectionID] = status
}
