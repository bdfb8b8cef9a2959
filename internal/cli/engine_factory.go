package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aretw0/boletim"
	"github.com/aretw0/boletim/internal/config"
	"github.com/aretw0/boletim/pkg/adapters/file"
	"github.com/aretw0/boletim/pkg/adapters/memory"
	"github.com/aretw0/boletim/pkg/adapters/narrative"
	"github.com/aretw0/boletim/pkg/adapters/process"
	"github.com/aretw0/boletim/pkg/adapters/redis"
	"github.com/aretw0/boletim/pkg/adapters/sqlite"
	"github.com/aretw0/boletim/pkg/observability"
	"github.com/aretw0/boletim/pkg/persistence/middleware"
	"github.com/aretw0/boletim/pkg/ports"
)

// Runtime is an engine wired from configuration, with the resources it owns.
type Runtime struct {
	Engine  *boletim.Engine
	Store   ports.SessionStore
	Metrics *observability.Metrics
	Logger  *slog.Logger

	closers []io.Closer
}

// Close releases the store connections.
func (r *Runtime) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		errs = append(errs, r.closers[i].Close())
	}
	return errors.Join(errs...)
}

// Build wires an engine for cfg: store backend, encryption at rest, optional
// distributed lock, narrative collaborator, metrics and logging hooks.
// extra is applied last.
func Build(cfg config.Config, logger *slog.Logger, extra ...boletim.Option) (*Runtime, error) {
	rt := &Runtime{Logger: logger, Metrics: observability.NewMetrics()}

	store, locker, err := rt.openStore(cfg)
	if err != nil {
		return nil, err
	}
	rt.Store = store

	opts := []boletim.Option{
		boletim.WithLogger(logger),
		boletim.WithStore(store),
		boletim.WithMaxInputSize(cfg.MaxInputSize),
		boletim.WithLifecycleHooks(observability.Combine(
			observability.LoggingHooks(logger),
			rt.Metrics.Hooks(),
		)),
	}
	if locker != nil {
		opts = append(opts, boletim.WithLocker(locker))
	}
	generator, err := narrator(cfg)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}
	if generator != nil {
		opts = append(opts,
			boletim.WithNarrativeGenerator(generator),
			boletim.WithNarrativeTimeout(cfg.NarrativeTimeout),
		)
	}
	opts = append(opts, extra...)

	eng, err := boletim.New(cfg.Graph, opts...)
	if err != nil {
		_ = rt.Close()
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	rt.Engine = eng

	logger.Debug("engine ready",
		"graph", eng.Name,
		"store", cfg.Store,
		"encrypted", cfg.Encrypted(),
		"narrative", generator != nil,
	)
	return rt, nil
}

// OpenStore opens the configured session store, sealed when an encryption
// key is set. Callers close the returned closer, which may be nil.
func OpenStore(cfg config.Config) (ports.SessionStore, io.Closer, error) {
	rt := &Runtime{}
	store, _, err := rt.openStore(cfg)
	if err != nil {
		return nil, nil, err
	}
	return store, rt, nil
}

func (r *Runtime) openStore(cfg config.Config) (ports.SessionStore, ports.DistributedLocker, error) {
	var (
		store  ports.SessionStore
		locker ports.DistributedLocker
	)

	switch strings.ToLower(cfg.Store) {
	case config.StoreMemory, "":
		store = memory.NewStore()
	case config.StoreFile:
		store = file.New(cfg.StoreDir)
	case config.StoreRedis:
		rs := redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, redis.WithTTL(cfg.RedisTTL))
		if err := rs.Ping(context.Background()); err != nil {
			_ = rs.Close()
			return nil, nil, fmt.Errorf("connect redis %s: %w", cfg.RedisAddr, err)
		}
		r.closers = append(r.closers, rs)
		if cfg.RedisLock {
			locker = redis.NewLocker(rs.Client(), redis.DefaultPrefix)
		}
		store = rs
	case config.StoreSQLite:
		ss, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		r.closers = append(r.closers, ss)
		store = ss
	default:
		return nil, nil, fmt.Errorf("unknown store %q", cfg.Store)
	}

	if cfg.Encrypted() {
		mw, err := encryption(cfg)
		if err != nil {
			_ = r.Close()
			return nil, nil, err
		}
		store = middleware.Chain(store, mw)
	}
	return store, locker, nil
}

// narrator returns the configured narrative collaborator, or nil when none is set.
func narrator(cfg config.Config) (ports.NarrativeGenerator, error) {
	switch {
	case cfg.NarrativeURL != "":
		return narrative.New(cfg.NarrativeURL), nil
	case cfg.NarrativeCommand != "":
		return process.Parse(cfg.NarrativeCommand)
	}
	return nil, nil
}

func encryption(cfg config.Config) (middleware.Middleware, error) {
	active, err := middleware.ParseKey(cfg.EncryptionKey)
	if err != nil {
		return nil, err
	}
	var fallbacks [][]byte
	for _, k := range cfg.FallbackKeys {
		key, err := middleware.ParseKey(k)
		if err != nil {
			return nil, err
		}
		fallbacks = append(fallbacks, key)
	}
	return middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    active,
		FallbackKeys: fallbacks,
	})
}
