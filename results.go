package boletim

import "github.com/aretw0/boletim/pkg/domain"

// Prompt is the question a client should present next.
type Prompt struct {
	SectionID    string `json:"sectionId,omitempty"`
	SectionTitle string `json:"sectionTitle,omitempty"`
	// SectionStart is true while the section has no answers yet; only then
	// is SectionIntro set.
	SectionStart bool   `json:"sectionStart,omitempty"`
	SectionIntro string `json:"sectionIntro,omitempty"`
	StepID       string `json:"stepId,omitempty"`
	Text         string `json:"text,omitempty"`
	IsGate       bool   `json:"isGate,omitempty"`
	// Done is true once the interview is complete; every other field is empty.
	Done bool `json:"done,omitempty"`
}

// StartResult is returned by StartSession.
type StartResult struct {
	SessionID string `json:"sessionId"`
	Prompt    Prompt `json:"prompt"`
}

// SubmitResult reports the outcome of one answer.
type SubmitResult struct {
	Accepted bool `json:"accepted"`
	// Message carries the rule message of a rejected answer.
	Message string `json:"message,omitempty"`
	// Drift is set when the submitted step is not the one awaiting an answer.
	Drift bool `json:"drift,omitempty"`
	// StepID is the step the answer was recorded for (or rejected at).
	StepID string `json:"stepId"`
	// SectionID is the section StepID belongs to.
	SectionID       string `json:"sectionId,omitempty"`
	NextPrompt      Prompt `json:"nextPrompt"`
	SectionComplete bool   `json:"sectionComplete"`
	// CompletedSectionID names the section that just finished, if any.
	CompletedSectionID string `json:"completedSectionId,omitempty"`
	SectionSkipped     bool   `json:"sectionSkipped,omitempty"`
	SessionComplete    bool   `json:"sessionComplete"`
	Narrative          string `json:"narrative,omitempty"`
	NarrativeError     string `json:"narrativeError,omitempty"`

	Snapshot domain.DraftSnapshot `json:"snapshot"`
}

// SessionProgress is the progress of the active section plus the overall position.
type SessionProgress struct {
	domain.Progress
	SessionID    string `json:"sessionId"`
	SectionID    string `json:"sectionId,omitempty"`
	SectionIndex int    `json:"sectionIndex"`
	SectionCount int    `json:"sectionCount"`
	StepID       string `json:"stepId,omitempty"`
	Complete     bool   `json:"complete"`
}

// RestoreResult reports whether a client draft replaced the session state.
type RestoreResult struct {
	Accepted bool                  `json:"accepted"`
	Reason   domain.SnapshotReason `json:"reason,omitempty"`
	Detail   string                `json:"detail,omitempty"`
	Version  int64                 `json:"version"`
	Prompt   Prompt                `json:"prompt"`
}

// UpdateResult reports the outcome of an answer correction.
type UpdateResult struct {
	Accepted  bool                 `json:"accepted"`
	Message   string               `json:"message,omitempty"`
	SectionID string               `json:"sectionId,omitempty"`
	Snapshot  domain.DraftSnapshot `json:"snapshot"`
}

// SectionAnswers is the ordered answer list of one started section.
type SectionAnswers struct {
	SectionID string               `json:"sectionId"`
	Title     string               `json:"title,omitempty"`
	Skipped   bool                 `json:"skipped"`
	Complete  bool                 `json:"complete"`
	Answers   []domain.AnswerEntry `json:"answers"`
}
