package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/aretw0/boletim/pkg/persistence/middleware"
	"github.com/aretw0/boletim/pkg/ports"
)

// MaskAll redacts every answer.
var MaskAll = []string{".*"}

// ListSessions prints the stored session ids, one per line.
func ListSessions(ctx context.Context, store ports.SessionStore, out io.Writer) error {
	ids, err := store.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	if len(ids) == 0 {
		printSystemMessage(out, "Nenhuma sessão encontrada.")
		return nil
	}
	for _, id := range ids {
		fmt.Fprintln(out, id)
	}
	return nil
}

// InspectSession prints the stored record of sessionID as JSON. With a
// non-empty mask, matching answers and every narrative text are redacted.
func InspectSession(ctx context.Context, store ports.SessionStore, sessionID string, mask []string, out io.Writer) error {
	view := store
	if len(mask) > 0 {
		pii, err := middleware.NewPIIMiddleware(mask)
		if err != nil {
			return err
		}
		view = middleware.Chain(store, pii)
	}

	rec, err := view.Load(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(rec)
}

// RemoveSession deletes sessionID from the store.
func RemoveSession(ctx context.Context, store ports.SessionStore, sessionID string, out io.Writer) error {
	if err := store.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", sessionID, err)
	}
	printSystemMessage(out, "Sessão '%s' removida.", sessionID)
	return nil
}
