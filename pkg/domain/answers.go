package domain

import (
	"encoding/json"
	"fmt"
)

// AnswerEntry is one step answer in recorded order.
type AnswerEntry struct {
	StepID string `json:"stepId"`
	Text   string `json:"text"`
}

// Answers maps step identifiers to answers, preserving first-insertion order.
// A step never maps to more than one answer; Set overwrites in place and
// nothing is ever removed.
type Answers struct {
	order  []string
	values map[string]string
}

// NewAnswers creates an empty answer set.
func NewAnswers() *Answers {
	return &Answers{values: make(map[string]string)}
}

// Set records text for stepID, keeping the original position on overwrite.
func (a *Answers) Set(stepID, text string) {
	if a.values == nil {
		a.values = make(map[string]string)
	}
	if _, exists := a.values[stepID]; !exists {
		a.order = append(a.order, stepID)
	}
	a.values[stepID] = text
}

// Get returns the answer recorded for stepID.
func (a *Answers) Get(stepID string) (string, bool) {
	if a == nil {
		return "", false
	}
	v, ok := a.values[stepID]
	return v, ok
}

// Has reports whether stepID was answered.
func (a *Answers) Has(stepID string) bool {
	_, ok := a.Get(stepID)
	return ok
}

// Len returns the number of answered steps.
func (a *Answers) Len() int {
	if a == nil {
		return 0
	}
	return len(a.order)
}

// Entries returns the answers in insertion order.
func (a *Answers) Entries() []AnswerEntry {
	if a == nil {
		return nil
	}
	out := make([]AnswerEntry, 0, len(a.order))
	for _, id := range a.order {
		out = append(out, AnswerEntry{StepID: id, Text: a.values[id]})
	}
	return out
}

// Map returns a copy of the answers as a plain map.
func (a *Answers) Map() map[string]string {
	out := make(map[string]string, a.Len())
	if a == nil {
		return out
	}
	for k, v := range a.values {
		out[k] = v
	}
	return out
}

// Clone returns an independent copy.
func (a *Answers) Clone() *Answers {
	c := NewAnswers()
	for _, e := range a.Entries() {
		c.Set(e.StepID, e.Text)
	}
	return c
}

// MarshalJSON encodes the answers as an ordered list of entries.
func (a *Answers) MarshalJSON() ([]byte, error) {
	entries := a.Entries()
	if entries == nil {
		entries = []AnswerEntry{}
	}
	return json.Marshal(entries)
}

// UnmarshalJSON decodes an ordered list of entries.
func (a *Answers) UnmarshalJSON(data []byte) error {
	var entries []AnswerEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("answers: %w", err)
	}
	*a = Answers{values: make(map[string]string, len(entries))}
	for _, e := range entries {
		a.Set(e.StepID, e.Text)
	}
	return nil
}
