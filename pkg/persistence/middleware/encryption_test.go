package middleware_test

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"io"
	"strings"
	"testing"

	"github.com/aretw0/boletim/pkg/adapters/memory"
	"github.com/aretw0/boletim/pkg/domain"
	"github.com/aretw0/boletim/pkg/persistence/middleware"
	"github.com/aretw0/boletim/pkg/ports"
	"github.com/aretw0/boletim/pkg/ports/tests"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, middleware.KeySize)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		t.Fatal(err)
	}
	return k
}

func sealed(t *testing.T, next ports.SessionStore, config middleware.EncryptionConfig) ports.SessionStore {
	t.Helper()
	mw, err := middleware.NewEncryptionMiddleware(config)
	if err != nil {
		t.Fatalf("NewEncryptionMiddleware failed: %v", err)
	}
	return mw(next)
}

func secretRecord(sessionID string) *domain.SessionRecord {
	return &domain.SessionRecord{
		SessionID: sessionID,
		Draft: domain.DraftSnapshot{
			Version: 2,
			Answers: map[string]string{"1.1": "Rua das Flores, 123"},
		},
		Narratives: map[string]domain.NarrativeStatus{"1": {Requested: true, Text: "Relato sigiloso."}},
	}
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	tests.RunSessionStoreContract(t, sealed(t, memory.NewStore(), middleware.EncryptionConfig{ActiveKey: generateKey(t)}))
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	// Setup
	underlyingStore := memory.NewStore()
	secureStore := sealed(t, underlyingStore, middleware.EncryptionConfig{ActiveKey: generateKey(t)})

	ctx := context.Background()
	sessionID := "test-session"

	// 1. Save
	if err := secureStore.Save(ctx, sessionID, secretRecord(sessionID)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// 2. Verify Underlying Store directly (Should be encrypted)
	stored, err := underlyingStore.Load(ctx, sessionID)
	if err != nil {
		t.Fatalf("Underlying load failed: %v", err)
	}
	if len(stored.Draft.Answers) != 0 || len(stored.Narratives) != 0 {
		t.Fatalf("Expected answers to be hidden, found: %v %v", stored.Draft.Answers, stored.Narratives)
	}
	if stored.Sealed == "" {
		t.Fatal("Expected sealed payload in envelope")
	}
	if stored.Draft.Version != 2 {
		t.Errorf("Expected envelope to expose version 2, got %d", stored.Draft.Version)
	}
	if strings.Contains(stored.Sealed, "Flores") {
		t.Error("Sealed payload leaks plain text")
	}

	// 3. Load via Middleware (Should be decrypted)
	loaded, err := secureStore.Load(ctx, sessionID)
	if err != nil {
		t.Fatalf("Load via middleware failed: %v", err)
	}
	if loaded.Draft.Answers["1.1"] != "Rua das Flores, 123" {
		t.Errorf("Expected 'Rua das Flores, 123', got %v", loaded.Draft.Answers["1.1"])
	}
	if loaded.Sealed != "" {
		t.Error("Decrypted record should not carry the sealed payload")
	}
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	// Setup
	underlyingStore := memory.NewStore()
	oldKey := generateKey(t)
	newKey := generateKey(t)

	secureStoreOld := sealed(t, underlyingStore, middleware.EncryptionConfig{ActiveKey: oldKey})

	ctx := context.Background()
	sessionID := "rotation-session"

	// 1. Save with OLD key
	if err := secureStoreOld.Save(ctx, sessionID, secretRecord(sessionID)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// 2. Load with NEW key (Active) + OLD key (Fallback)
	secureStoreNew := sealed(t, underlyingStore, middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})
	loaded, err := secureStoreNew.Load(ctx, sessionID)
	if err != nil {
		t.Fatalf("Load with rotated key failed: %v", err)
	}
	if loaded.Draft.Answers["1.1"] != "Rua das Flores, 123" {
		t.Errorf("Decryption with fallback key failed")
	}

	// 3. Save again (Should now be sealed with NEW key)
	loaded.Draft.Version = 3
	if err := secureStoreNew.Save(ctx, sessionID, loaded); err != nil {
		t.Fatalf("Save with new key failed: %v", err)
	}

	// 4. Verify we CANNOT load with just OLD key anymore
	if _, err := secureStoreOld.Load(ctx, sessionID); err == nil {
		t.Error("Expected failure when loading new-key encryption with old-key middleware")
	}
}

func TestEncryptionMiddleware_BoundToSession(t *testing.T) {
	underlyingStore := memory.NewStore()
	secureStore := sealed(t, underlyingStore, middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	ctx := context.Background()

	if err := secureStore.Save(ctx, "a", secretRecord("a")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Copy the envelope of "a" under another id
	envelope, err := underlyingStore.Load(ctx, "a")
	if err != nil {
		t.Fatal(err)
	}
	if err := underlyingStore.Save(ctx, "b", envelope); err != nil {
		t.Fatal(err)
	}

	if _, err := secureStore.Load(ctx, "b"); err == nil {
		t.Error("Expected a moved envelope to fail authentication")
	}
}

func TestEncryptionMiddleware_RejectsPlainRecords(t *testing.T) {
	underlyingStore := memory.NewStore()
	ctx := context.Background()
	if err := underlyingStore.Save(ctx, "plain", secretRecord("plain")); err != nil {
		t.Fatal(err)
	}

	secureStore := sealed(t, underlyingStore, middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	if _, err := secureStore.Load(ctx, "plain"); err != middleware.ErrNotSealed {
		t.Errorf("Expected ErrNotSealed, got %v", err)
	}
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	if _, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")}); err == nil {
		t.Error("Expected error for invalid key size")
	}
	_, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    generateKey(t),
		FallbackKeys: [][]byte{[]byte("short")},
	})
	if err == nil {
		t.Error("Expected error for invalid fallback key size")
	}
}

func TestParseKey(t *testing.T) {
	key := generateKey(t)
	parsed, err := middleware.ParseKey(base64.StdEncoding.EncodeToString(key))
	if err != nil {
		t.Fatalf("ParseKey failed: %v", err)
	}
	if string(parsed) != string(key) {
		t.Error("Parsed key differs")
	}

	if _, err := middleware.ParseKey(base64.StdEncoding.EncodeToString([]byte("short"))); err != middleware.ErrInvalidKey {
		t.Errorf("Expected ErrInvalidKey, got %v", err)
	}
	if _, err := middleware.ParseKey("%%%"); err == nil {
		t.Error("Expected base64 error")
	}
}
