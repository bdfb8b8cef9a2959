package boletim

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/boletim/internal/logging"
	loamAdapter "github.com/aretw0/boletim/pkg/adapters/loam"
	"github.com/aretw0/boletim/pkg/adapters/memory"
	yamlAdapter "github.com/aretw0/boletim/pkg/adapters/yaml"
	"github.com/aretw0/boletim/pkg/domain"
	"github.com/aretw0/boletim/pkg/graph"
	"github.com/aretw0/boletim/pkg/input"
	"github.com/aretw0/boletim/pkg/ports"
	"github.com/aretw0/boletim/pkg/session"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// DefaultNarrativeTimeout bounds one narrative-generation call.
const DefaultNarrativeTimeout = 30 * time.Second

const tracerName = "github.com/aretw0/boletim"

// Engine is the high-level entry point for the boletim library.
// It owns the question graph and the session manager and is safe for
// concurrent use by many sessions.
type Engine struct {
	Name string

	graph    *graph.Graph
	loader   ports.GraphLoader
	manager  *session.Manager
	store    ports.SessionStore
	sanitize input.Sanitizer

	locker           ports.DistributedLocker
	lockTTL          time.Duration
	newID            func() string
	generator        ports.NarrativeGenerator
	narrativeTimeout time.Duration
	hooks            domain.LifecycleHooks
	logger           *slog.Logger
	tracer           trace.Tracer
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLoader injects a custom GraphLoader, bypassing path based detection.
func WithLoader(l ports.GraphLoader) Option {
	return func(e *Engine) {
		e.loader = l
	}
}

// WithStore sets the session store (default: in-memory).
func WithStore(s ports.SessionStore) Option {
	return func(e *Engine) {
		e.store = s
	}
}

// WithLocker enables distributed per-session locking.
func WithLocker(l ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = l
	}
}

// WithLockTTL overrides session.DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(e *Engine) {
		e.lockTTL = ttl
	}
}

// WithNarrativeGenerator sets the collaborator called for every completed section.
func WithNarrativeGenerator(g ports.NarrativeGenerator) Option {
	return func(e *Engine) {
		e.generator = g
	}
}

// WithNarrativeTimeout overrides DefaultNarrativeTimeout.
func WithNarrativeTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.narrativeTimeout = d
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithTracer replaces the global OpenTelemetry tracer.
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) {
		e.tracer = t
	}
}

// WithMaxInputSize overrides input.DefaultMaxSize for answer texts.
func WithMaxInputSize(n int) Option {
	return func(e *Engine) {
		e.sanitize = input.New(n)
	}
}

// WithIDGenerator replaces the UUID session id generator.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) {
		e.newID = fn
	}
}

// New initializes a new Engine.
// path names a YAML/JSON definition file or a Loam directory with one document
// per section. If WithLoader is provided, path is only used as a label.
func New(path string, opts ...Option) (*Engine, error) {
	eng := &Engine{
		sanitize:         input.New(0),
		narrativeTimeout: DefaultNarrativeTimeout,
	}

	// Apply Options first to check if a loader is provided
	for _, opt := range opts {
		opt(eng)
	}

	if eng.loader == nil {
		if path == "" {
			return nil, fmt.Errorf("path is required when no custom loader is provided")
		}
		loader, err := detectLoader(path)
		if err != nil {
			return nil, err
		}
		eng.loader = loader
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.tracer == nil {
		eng.tracer = otel.Tracer(tracerName)
	}
	if eng.store == nil {
		eng.store = memory.NewStore()
	}

	def, err := eng.loader.Load(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to load interview: %w", err)
	}
	g, err := graph.Build(def)
	if err != nil {
		return nil, fmt.Errorf("invalid interview: %w", err)
	}
	eng.graph = g

	eng.Name = g.Name()
	if eng.Name == "" && path != "" {
		eng.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if eng.Name != "" {
		eng.logger = eng.logger.With("graph", eng.Name)
	}

	managerOpts := []session.Option{session.WithLogger(eng.logger)}
	if eng.locker != nil {
		managerOpts = append(managerOpts, session.WithLocker(eng.locker))
	}
	if eng.lockTTL > 0 {
		managerOpts = append(managerOpts, session.WithLockTTL(eng.lockTTL))
	}
	if eng.newID != nil {
		managerOpts = append(managerOpts, session.WithIDGenerator(eng.newID))
	}
	eng.manager = session.NewManager(g, eng.store, managerOpts...)

	return eng, nil
}

// detectLoader picks the yaml adapter for files and the loam adapter for directories.
func detectLoader(path string) (ports.GraphLoader, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	if info.IsDir() {
		return loamAdapter.Open(path)
	}
	return yamlAdapter.New(path), nil
}

// Graph returns the immutable question graph.
func (e *Engine) Graph() *graph.Graph {
	return e.graph
}

// Loader returns the underlying GraphLoader used by the engine.
func (e *Engine) Loader() ports.GraphLoader {
	return e.loader
}

// Store returns the session store.
func (e *Engine) Store() ports.SessionStore {
	return e.store
}

// ListSessions returns the ids of every persisted session.
func (e *Engine) ListSessions(ctx context.Context) ([]string, error) {
	return e.manager.List(ctx)
}

// DeleteSession removes a session. Sessions are never deleted implicitly.
func (e *Engine) DeleteSession(ctx context.Context, sessionID string) error {
	ctx, span := e.start(ctx, "DeleteSession", sessionID)
	defer span.End()
	return e.record(span, e.manager.Delete(ctx, sessionID))
}
