package domain

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a session ID cannot be found in the registry or store.
var ErrSessionNotFound = errors.New("session not found")

// ValidationError is an expected, user-correctable failure: the answer did not
// pass the step's rules. It never mutates state and is always retryable.
type ValidationError struct {
	StepID  string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("step %s: %s", e.StepID, e.Message)
}

// OrderingError signals that the caller's view of the session is stale or that
// an operation was attempted out of order. Clients should resynchronize.
type OrderingError struct {
	Op       string
	Expected string // server-side current step, if any
	Got      string // step the caller believed was current
	Detail   string
}

func (e *OrderingError) Error() string {
	msg := fmt.Sprintf("%s: out of order", e.Op)
	if e.Expected != "" || e.Got != "" {
		msg += fmt.Sprintf(" (current step %q, got %q)", e.Expected, e.Got)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// UnknownNodeError is a configuration error: a section or step could not be
// resolved against the question graph.
type UnknownNodeError struct {
	SectionID string
	StepID    string
}

func (e *UnknownNodeError) Error() string {
	if e.StepID == "" {
		return fmt.Sprintf("unknown section %q", e.SectionID)
	}
	return fmt.Sprintf("unknown step %q in section %q", e.StepID, e.SectionID)
}

// SnapshotReason classifies a rejected draft.
type SnapshotReason string

const (
	ReasonMissingVersion SnapshotReason = "missing_version"
	ReasonMalformed      SnapshotReason = "malformed"
	ReasonSchemaDrift    SnapshotReason = "schema_drift"
	ReasonStale          SnapshotReason = "stale"
)

// SnapshotError reports a draft that was not applied. The live session, if
// any, is left untouched.
type SnapshotError struct {
	Reason SnapshotReason
	Detail string
}

func (e *SnapshotError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("snapshot rejected: %s", e.Reason)
	}
	return fmt.Sprintf("snapshot rejected: %s: %s", e.Reason, e.Detail)
}

// CollaboratorError wraps a narrative-generation failure. It is reported next
// to a completed section and never reverses recorded progress.
type CollaboratorError struct {
	SectionID string
	Err       error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("narrative generation for section %s failed: %v", e.SectionID, e.Err)
}

func (e *CollaboratorError) Unwrap() error { return e.Err }

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsOrdering reports whether err is an OrderingError.
func IsOrdering(err error) bool {
	var o *OrderingError
	return errors.As(err, &o)
}
