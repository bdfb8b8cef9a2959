package runtime

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aretw0/boletim/pkg/domain"
	"github.com/aretw0/boletim/pkg/graph"
)

// Snapshot projects an interview into its client-held draft. It always succeeds.
func Snapshot(iv *Interview) domain.DraftSnapshot {
	answers := make(map[string]string)
	for _, c := range iv.completed {
		for _, e := range c.Answers.Entries() {
			answers[e.StepID] = e.Text
		}
	}
	if iv.active != nil {
		for _, e := range iv.active.answers.Entries() {
			answers[e.StepID] = e.Text
		}
	}
	return domain.DraftSnapshot{
		Version:             iv.version,
		CurrentSectionIndex: iv.index,
		CurrentStepID:       iv.CurrentStepID(),
		Answers:             answers,
	}
}

// Restore rebuilds an interview from a draft.
//
// The draft pointer is authoritative: branches are not replayed over the
// historical answers. Pending follow-ups are derived from where the pointer
// sits in the static graph. Any draft that cannot be resolved against g is
// rejected with a *domain.SnapshotError. A version 0 draft is the one of an
// untouched interview and restores to a fresh one.
func Restore(g *graph.Graph, id string, createdAt time.Time, snap domain.DraftSnapshot) (*Interview, error) {
	switch {
	case snap.Version == 0:
		return restoreFresh(g, id, createdAt, snap)
	case snap.Version < 0:
		return nil, &domain.SnapshotError{Reason: domain.ReasonMalformed, Detail: fmt.Sprintf("negative version %d", snap.Version)}
	}

	count := g.SectionCount()
	if snap.CurrentSectionIndex < 0 || snap.CurrentSectionIndex > count {
		return nil, &domain.SnapshotError{
			Reason: domain.ReasonMalformed,
			Detail: fmt.Sprintf("section index %d out of range [0,%d]", snap.CurrentSectionIndex, count),
		}
	}

	// 1. Partition answers by owning section
	bySection := make(map[string][]string)
	for stepID := range snap.Answers {
		sectionID, ok := g.SectionOf(stepID)
		if !ok {
			return nil, &domain.SnapshotError{Reason: domain.ReasonSchemaDrift, Detail: fmt.Sprintf("unknown step %q", stepID)}
		}
		bySection[sectionID] = append(bySection[sectionID], stepID)
	}
	for i := snap.CurrentSectionIndex + 1; i < count; i++ {
		sectionID, _ := g.SectionAt(i)
		if len(bySection[sectionID]) > 0 {
			return nil, &domain.SnapshotError{Reason: domain.ReasonMalformed, Detail: fmt.Sprintf("answers for section %q which has not started", sectionID)}
		}
	}

	iv := &Interview{
		ID:         id,
		CreatedAt:  createdAt,
		graph:      g,
		index:      snap.CurrentSectionIndex,
		version:    snap.Version,
		narratives: make(map[string]domain.NarrativeStatus),
	}

	// 2. Completed sections
	for i := 0; i < snap.CurrentSectionIndex; i++ {
		sectionID, _ := g.SectionAt(i)
		answers := orderedAnswers(g, sectionID, bySection[sectionID], snap.Answers)
		iv.completed = append(iv.completed, CompletedSection{
			ID:      sectionID,
			Skipped: inferSkipped(g, sectionID, answers),
			Answers: answers,
		})
	}

	// 3. Active section
	if snap.CurrentSectionIndex == count {
		if snap.CurrentStepID != "" {
			return nil, &domain.SnapshotError{Reason: domain.ReasonMalformed, Detail: "finished interview cannot have a current step"}
		}
		return iv, nil
	}

	sectionID, _ := g.SectionAt(snap.CurrentSectionIndex)
	active, err := restoreSection(g, sectionID, snap.CurrentStepID, bySection[sectionID], snap.Answers)
	if err != nil {
		return nil, err
	}
	iv.active = active
	return iv, nil
}

func restoreFresh(g *graph.Graph, id string, createdAt time.Time, snap domain.DraftSnapshot) (*Interview, error) {
	iv, err := NewInterview(g, id, createdAt)
	if err != nil {
		return nil, err
	}
	fresh := len(snap.Answers) == 0 && snap.CurrentSectionIndex == 0 &&
		(snap.CurrentStepID == "" || snap.CurrentStepID == iv.CurrentStepID())
	if !fresh {
		return nil, &domain.SnapshotError{Reason: domain.ReasonMalformed, Detail: "version 0 draft records progress"}
	}
	return iv, nil
}

// Reconcile applies a draft over a live interview. The strictly higher
// version wins; a draft that is not newer is a no-op reported as stale.
// With no live interview the draft is restored under id.
func Reconcile(g *graph.Graph, live *Interview, id string, snap domain.DraftSnapshot) (*Interview, error) {
	createdAt := time.Now()
	if live != nil {
		if snap.Version <= live.version {
			return nil, &domain.SnapshotError{
				Reason: domain.ReasonStale,
				Detail: fmt.Sprintf("draft version %d is not newer than live version %d", snap.Version, live.version),
			}
		}
		createdAt = live.CreatedAt
	}

	restored, err := Restore(g, id, createdAt, snap)
	if err != nil {
		return nil, err
	}
	if live != nil {
		for k, v := range live.narratives {
			restored.narratives[k] = v
		}
	}
	return restored, nil
}

func restoreSection(g *graph.Graph, sectionID, stepID string, answered []string, all map[string]string) (*Section, error) {
	answers := orderedAnswers(g, sectionID, answered, all)
	s := &Section{graph: g, id: sectionID, answers: answers}

	var path []string
	for _, e := range answers.Entries() {
		if e.StepID != stepID {
			path = append(path, e.StepID)
		}
	}

	// Terminal but not yet advanced
	if stepID == "" {
		s.path = path
		s.status = StatusComplete
		if inferSkipped(g, sectionID, answers) {
			s.status = StatusSkipped
		}
		return s, nil
	}

	if _, err := g.Node(sectionID, stepID); err != nil {
		return nil, &domain.SnapshotError{Reason: domain.ReasonSchemaDrift, Detail: err.Error()}
	}

	s.status = StatusActive
	s.path = append(path, stepID)
	s.cursor = len(s.path) - 1
	s.queue = pendingAfter(g, sectionID, stepID)
	return s, nil
}

// pendingAfter derives the queue of a pointer sitting on stepID: the
// remaining follow-ups of every enclosing gate, then the continuation of the
// main gate they hang from.
func pendingAfter(g *graph.Graph, sectionID, stepID string) []string {
	var queue []string
	current := stepID
	for {
		parentID, ok := g.Parent(sectionID, current)
		if !ok {
			if current != stepID {
				queue = append(queue, g.Successor(sectionID, current))
			}
			return queue
		}
		gate, err := g.Node(sectionID, parentID)
		if err != nil || gate.Gate == nil {
			return queue
		}
		followUps := gate.Gate.OnAffirmative.FollowUps
		for i, f := range followUps {
			if f == current {
				queue = append(queue, followUps[i+1:]...)
				break
			}
		}
		current = parentID
	}
}

// orderedAnswers lists the recorded answers of a section in the order a walk
// over them visits the steps: from the entry, following the recorded gate
// tokens. Answers the walk never reaches follow in declaration order.
func orderedAnswers(g *graph.Graph, sectionID string, stepIDs []string, all map[string]string) *domain.Answers {
	answered := make(map[string]bool, len(stepIDs))
	for _, id := range stepIDs {
		answered[id] = true
	}

	answers := domain.NewAnswers()
	if s, err := NewSection(g, sectionID); err == nil {
		for !s.IsComplete() {
			current := s.path[s.cursor]
			if !answered[current] || s.answers.Has(current) {
				break
			}
			node, err := g.Node(sectionID, current)
			if err != nil {
				break
			}
			affirmative := false
			if node.IsGate() {
				affirmative, _ = g.Classify(all[current])
			}
			s.answers.Set(current, all[current])
			s.resolve(node, affirmative)
		}
		answers = s.answers
	}

	var rest []string
	for _, id := range stepIDs {
		if !answers.Has(id) {
			rest = append(rest, id)
		}
	}
	sort.SliceStable(rest, func(i, j int) bool {
		return g.Position(sectionID, rest[i]) < g.Position(sectionID, rest[j])
	})
	for _, id := range rest {
		answers.Set(id, all[id])
	}
	return answers
}

func inferSkipped(g *graph.Graph, sectionID string, answers *domain.Answers) bool {
	negative := strings.TrimSpace(g.Tokens().Negative)
	for _, e := range answers.Entries() {
		node, err := g.Node(sectionID, e.StepID)
		if err != nil || !node.IsGate() {
			continue
		}
		if node.Gate.OnNegative.SkipSection && strings.EqualFold(strings.TrimSpace(e.Text), negative) {
			return true
		}
	}
	return false
}
