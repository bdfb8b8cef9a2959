// Package tests holds reusable contract suites for port implementations.
package tests

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/boletim/pkg/domain"
	"github.com/aretw0/boletim/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(sessionID string) *domain.SessionRecord {
	return &domain.SessionRecord{
		SessionID: sessionID,
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Draft: domain.DraftSnapshot{
			Version:             3,
			CurrentSectionIndex: 1,
			CurrentStepID:       "2.2",
			Answers:             map[string]string{"1.1": "Praça central", "2.1": "SIM"},
		},
		Narratives: map[string]domain.NarrativeStatus{"1": {Requested: true, Text: "Relato."}},
	}
}

// RunSessionStoreContract verifies that a SessionStore implementation adheres
// to the interface contract.
func RunSessionStoreContract(t *testing.T, store ports.SessionStore) {
	t.Helper()
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		// 1. Create a record
		rec := record(sessionID)

		// 2. Save
		err := store.Save(ctx, sessionID, rec)
		require.NoError(t, err, "Save should not return error")

		// 3. Load
		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, rec.Draft, loaded.Draft)
		assert.Equal(t, rec.Narratives, loaded.Narratives)
		assert.True(t, rec.CreatedAt.Equal(loaded.CreatedAt))
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		rec := record(sessionID)
		rec.Draft.Version = 4
		rec.Draft.Answers["2.2"] = "O sargento Silva"
		require.NoError(t, store.Save(ctx, sessionID, rec))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, int64(4), loaded.Draft.Version)
		assert.Equal(t, "O sargento Silva", loaded.Draft.Answers["2.2"])
	})

	t.Run("Load Returns A Copy", func(t *testing.T) {
		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		loaded.Draft.Answers["1.1"] = "mutated"

		again, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, "Praça central", again.Draft.Answers["1.1"])
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")

		// Deleting twice is not an error
		assert.NoError(t, store.Delete(ctx, sessionID))
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		require.NoError(t, store.Save(ctx, id1, record(id1)))
		require.NoError(t, store.Save(ctx, id2, record(id2)))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}

// RunGraphLoaderContract verifies that a GraphLoader yields a definition that
// matches want section by section.
func RunGraphLoaderContract(t *testing.T, loader ports.GraphLoader, want domain.Definition) {
	t.Helper()

	t.Run("Load", func(t *testing.T) {
		def, err := loader.Load(context.Background())
		require.NoError(t, err)
		assert.Equal(t, want.Name, def.Name)
		require.Len(t, def.Sections, len(want.Sections))

		for i, s := range want.Sections {
			got := def.Sections[i]
			assert.Equal(t, s.ID, got.ID, "section order")
			require.Len(t, got.Nodes, len(s.Nodes), "section %s", s.ID)
			for j, n := range s.Nodes {
				assert.Equal(t, n.ID, got.Nodes[j].ID)
				assert.Equal(t, n.Prompt, got.Nodes[j].Prompt)
				assert.Equal(t, n.IsGate(), got.Nodes[j].IsGate(), "gate %s", n.ID)
				assert.Equal(t, n.Rules, got.Nodes[j].Rules, "rules %s", n.ID)
				if n.Gate != nil && got.Nodes[j].Gate != nil {
					assert.Equal(t, n.Gate.OnAffirmative, got.Nodes[j].Gate.OnAffirmative)
					assert.Equal(t, n.Gate.OnNegative, got.Nodes[j].Gate.OnNegative)
				}
			}
		}
	})

	t.Run("Cancelled Context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := loader.Load(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
