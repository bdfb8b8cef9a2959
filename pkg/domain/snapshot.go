package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// DraftSnapshot is the client-held projection of an interview session.
// It carries only what is needed to rebuild the session: answers flattened by
// step id, the current pointer, and a version incremented on every mutation.
type DraftSnapshot struct {
	Version             int64             `json:"version"`
	CurrentSectionIndex int               `json:"currentSectionIndex"`
	CurrentStepID       string            `json:"currentStepId"`
	Answers             map[string]string `json:"answers"`
}

// DecodeSnapshot parses a snapshot as received from a client.
// Unlike json.Unmarshal it rejects a missing or non-integer version, so a
// malformed draft is never mistaken for version zero.
func DecodeSnapshot(data []byte) (DraftSnapshot, error) {
	var raw struct {
		Version             json.RawMessage   `json:"version"`
		CurrentSectionIndex int               `json:"currentSectionIndex"`
		CurrentStepID       string            `json:"currentStepId"`
		Answers             map[string]string `json:"answers"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return DraftSnapshot{}, &SnapshotError{Reason: ReasonMalformed, Detail: err.Error()}
	}

	trimmed := bytes.TrimSpace(raw.Version)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return DraftSnapshot{}, &SnapshotError{Reason: ReasonMissingVersion}
	}

	if trimmed[0] == '"' {
		return DraftSnapshot{}, &SnapshotError{Reason: ReasonMalformed, Detail: fmt.Sprintf("version %s is not a number", trimmed)}
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var num json.Number
	if err := dec.Decode(&num); err != nil {
		return DraftSnapshot{}, &SnapshotError{Reason: ReasonMalformed, Detail: fmt.Sprintf("version %s is not a number", trimmed)}
	}
	version, err := num.Int64()
	if err != nil {
		return DraftSnapshot{}, &SnapshotError{Reason: ReasonMalformed, Detail: fmt.Sprintf("version %s is not an integer", trimmed)}
	}

	return DraftSnapshot{
		Version:             version,
		CurrentSectionIndex: raw.CurrentSectionIndex,
		CurrentStepID:       raw.CurrentStepID,
		Answers:             raw.Answers,
	}, nil
}

// NarrativeStatus tracks the narrative-generation request of one section.
type NarrativeStatus struct {
	Requested bool   `json:"requested"`
	Text      string `json:"text,omitempty"`
	Error     string `json:"error,omitempty"`
}

// SessionRecord is what a SessionStore persists for one session.
type SessionRecord struct {
	SessionID  string                     `json:"sessionId"`
	CreatedAt  time.Time                  `json:"createdAt"`
	Draft      DraftSnapshot              `json:"draft"`
	Narratives map[string]NarrativeStatus `json:"narratives,omitempty"`

	// Sealed carries an opaque payload when a store middleware hides the
	// record contents (see persistence/middleware).
	Sealed string `json:"sealed,omitempty"`
}

// Clone returns a deep copy of the record.
func (r *SessionRecord) Clone() *SessionRecord {
	if r == nil {
		return nil
	}
	c := *r
	c.Draft.Answers = make(map[string]string, len(r.Draft.Answers))
	for k, v := range r.Draft.Answers {
		c.Draft.Answers[k] = v
	}
	if r.Narratives != nil {
		c.Narratives = make(map[string]NarrativeStatus, len(r.Narratives))
		for k, v := range r.Narratives {
			c.Narratives[k] = v
		}
	}
	return &c
}
