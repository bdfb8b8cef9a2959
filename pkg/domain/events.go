package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventSessionStarted   EventType = "session_started"
	EventAnswerAccepted   EventType = "answer_accepted"
	EventAnswerRejected   EventType = "answer_rejected"
	EventSectionCompleted EventType = "section_completed"
	EventNarrative        EventType = "narrative"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
}

// AnswerEvent reports the outcome of a submission.
type AnswerEvent struct {
	EventBase
	SectionID string `json:"section_id"`
	StepID    string `json:"step_id"`
	Message   string `json:"message,omitempty"`
}

// SectionCompletedEvent is emitted once per section when the interview moves past it.
// It is the input of the narrative-generation collaborator.
type SectionCompletedEvent struct {
	EventBase
	SectionID string        `json:"section_id"`
	Skipped   bool          `json:"skipped"`
	Answers   []AnswerEntry `json:"answers"`
}

// NarrativeEvent reports the outcome of a narrative-generation call.
type NarrativeEvent struct {
	EventBase
	SectionID string        `json:"section_id"`
	Duration  time.Duration `json:"duration"`
	IsError   bool          `json:"is_error,omitempty"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnSessionStarted   func(context.Context, *EventBase)
	OnAnswerAccepted   func(context.Context, *AnswerEvent)
	OnAnswerRejected   func(context.Context, *AnswerEvent)
	OnSectionCompleted func(context.Context, *SectionCompletedEvent)
	OnNarrative        func(context.Context, *NarrativeEvent)
}
