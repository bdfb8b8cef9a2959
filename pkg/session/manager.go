package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/boletim/internal/logging"
	"github.com/aretw0/boletim/internal/runtime"
	"github.com/aretw0/boletim/pkg/domain"
	"github.com/aretw0/boletim/pkg/graph"
	"github.com/aretw0/boletim/pkg/ports"
	"github.com/google/uuid"
)

// DefaultLockTTL bounds how long a distributed lock survives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager owns every live interview and serializes access per session.
// It uses Reference Counting to garbage collect unused locks.
//
// Interviews are cached in memory and written through to the store after
// every mutation. With a distributed locker the cache is bypassed: other
// replicas may have advanced the session, so the store is authoritative.
type Manager struct {
	graph *graph.Graph
	store ports.SessionStore

	mu    sync.Mutex                    // Global lock for the maps below
	locks map[string]*lockEntry         // Map of active locks
	live  map[string]*runtime.Interview // Registry of rehydrated sessions

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	logger  *slog.Logger
	newID   func() string
	now     func() time.Time
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithIDGenerator replaces the UUID session id generator.
func WithIDGenerator(fn func() string) Option {
	return func(m *Manager) {
		m.newID = fn
	}
}

// NewManager creates a Session Manager over the given graph and store.
func NewManager(g *graph.Graph, store ports.SessionStore, opts ...Option) *Manager {
	m := &Manager{
		graph:   g,
		store:   store,
		locks:   make(map[string]*lockEntry),
		live:    make(map[string]*runtime.Interview),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
		newID:   uuid.NewString,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// Create starts a new interview with a fresh id and persists it.
func (m *Manager) Create(ctx context.Context) (*runtime.Interview, error) {
	id := m.newID()
	var iv *runtime.Interview
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		var err error
		iv, err = runtime.NewInterview(m.graph, id, m.now())
		if err != nil {
			return err
		}
		return m.persist(ctx, iv)
	})
	if err != nil {
		return nil, err
	}
	m.logger.Debug("session created", "session_id", id)
	return iv, nil
}

// View runs fn with the interview of sessionID while holding its lock.
// fn must not retain the interview or mutate it.
func (m *Manager) View(ctx context.Context, sessionID string, fn func(*runtime.Interview) error) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		iv, err := m.load(ctx, sessionID)
		if err != nil {
			return err
		}
		return fn(iv)
	})
}

// Update runs fn with the interview of sessionID while holding its lock and
// persists the interview when fn succeeds. A failing fn leaves the store
// untouched and discards any partial change; a rejected answer keeps the
// cached interview.
func (m *Manager) Update(ctx context.Context, sessionID string, fn func(*runtime.Interview) error) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		iv, err := m.load(ctx, sessionID)
		if err != nil {
			return err
		}
		version := iv.Version()
		if err := fn(iv); err != nil {
			if !rejected(err) || iv.Version() != version {
				m.evict(sessionID)
			}
			return err
		}
		return m.persist(ctx, iv)
	})
}

// rejected reports errors raised before the interview is touched.
func rejected(err error) bool {
	return domain.IsValidation(err) || domain.IsOrdering(err)
}

// Restore reconciles a client draft with the session. The session does not
// need to exist; an unknown id is restored from the draft alone.
func (m *Manager) Restore(ctx context.Context, sessionID string, snap domain.DraftSnapshot) (*runtime.Interview, error) {
	var restored *runtime.Interview
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		live, err := m.load(ctx, sessionID)
		if err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
			return err
		}
		restored, err = runtime.Reconcile(m.graph, live, sessionID, snap)
		if err != nil {
			return err
		}
		return m.persist(ctx, restored)
	})
	if err != nil {
		return nil, err
	}
	return restored, nil
}

// Delete removes the session from memory and from the store.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		m.evict(sessionID)
		return m.store.Delete(ctx, sessionID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying session store.
func (m *Manager) Store() ports.SessionStore {
	return m.store
}

// WithLock executes a function while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// load returns the cached interview or rehydrates it from the store.
// Callers hold the session lock.
func (m *Manager) load(ctx context.Context, sessionID string) (*runtime.Interview, error) {
	if m.locker == nil {
		m.mu.Lock()
		iv, ok := m.live[sessionID]
		m.mu.Unlock()
		if ok {
			return iv, nil
		}
	}

	rec, err := m.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	iv, err := m.rehydrate(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to rehydrate session %s: %w", sessionID, err)
	}

	m.mu.Lock()
	m.live[sessionID] = iv
	m.mu.Unlock()
	return iv, nil
}

func (m *Manager) rehydrate(rec *domain.SessionRecord) (*runtime.Interview, error) {
	iv, err := runtime.Restore(m.graph, rec.SessionID, rec.CreatedAt, rec.Draft)
	if err != nil {
		return nil, err
	}
	for sectionID, status := range rec.Narratives {
		iv.SetNarrative(sectionID, status)
	}
	return iv, nil
}

func (m *Manager) persist(ctx context.Context, iv *runtime.Interview) error {
	rec := Record(iv)
	if err := m.store.Save(ctx, iv.ID, rec); err != nil {
		m.evict(iv.ID)
		return fmt.Errorf("failed to persist session %s: %w", iv.ID, err)
	}
	m.mu.Lock()
	m.live[iv.ID] = iv
	m.mu.Unlock()
	return nil
}

// evict drops a cached interview that may be ahead of the store, so the next
// access rehydrates the last persisted state.
func (m *Manager) evict(sessionID string) {
	m.mu.Lock()
	delete(m.live, sessionID)
	m.mu.Unlock()
}

// Record projects an interview into its persisted form.
func Record(iv *runtime.Interview) *domain.SessionRecord {
	narratives := iv.Narratives()
	if len(narratives) == 0 {
		narratives = nil
	}
	return &domain.SessionRecord{
		SessionID:  iv.ID,
		CreatedAt:  iv.CreatedAt,
		Draft:      runtime.Snapshot(iv),
		Narratives: narratives,
	}
}
