package ports

import (
	"context"

	"github.com/aretw0/boletim/pkg/domain"
)

// SessionStore defines the interface for persisting session records.
// A record is enough to rebuild a session after a restart, enabling
// "Stop & Resume" interviews.
type SessionStore interface {
	// Save persists the record for a given session ID.
	Save(ctx context.Context, sessionID string, record *domain.SessionRecord) error

	// Load retrieves the record for a given session ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.SessionRecord, error)

	// Delete removes the record for a given session ID.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of all persisted sessions.
	List(ctx context.Context) ([]string, error)
}
