// Package config loads process settings from BOLETIM_* environment variables.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"
)

// Config holds every setting. Command-line flags override it after Load.
type Config struct {
	Graph string `env:"BOLETIM_GRAPH" envDefault:"boletim.yaml"`

	Store    string `env:"BOLETIM_STORE" envDefault:"memory"`
	StoreDir string `env:"BOLETIM_STORE_DIR" envDefault:".boletim/sessions"`

	RedisAddr     string        `env:"BOLETIM_REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string        `env:"BOLETIM_REDIS_PASSWORD"`
	RedisDB       int           `env:"BOLETIM_REDIS_DB" envDefault:"0"`
	RedisTTL      time.Duration `env:"BOLETIM_REDIS_TTL" envDefault:"0s"`
	// RedisLock enables the distributed session lock when the store is redis.
	RedisLock bool `env:"BOLETIM_REDIS_LOCK" envDefault:"false"`

	SQLitePath string `env:"BOLETIM_SQLITE_PATH" envDefault:".boletim/sessions.db"`

	// EncryptionKey is base64; FallbackKeys are comma separated base64 keys
	// still accepted for reading during a rotation.
	EncryptionKey string   `env:"BOLETIM_ENCRYPTION_KEY"`
	FallbackKeys  []string `env:"BOLETIM_ENCRYPTION_FALLBACK_KEYS" envSeparator:","`

	NarrativeURL string `env:"BOLETIM_NARRATIVE_URL"`
	// NarrativeCommand runs a local program instead of calling NarrativeURL.
	NarrativeCommand string        `env:"BOLETIM_NARRATIVE_COMMAND"`
	NarrativeTimeout time.Duration `env:"BOLETIM_NARRATIVE_TIMEOUT" envDefault:"30s"`

	MaxInputSize int    `env:"BOLETIM_MAX_INPUT_SIZE" envDefault:"4096"`
	LogLevel     string `env:"BOLETIM_LOG_LEVEL" envDefault:"info"`
	Port         int    `env:"BOLETIM_PORT" envDefault:"8080"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	var errs []error

	switch strings.ToLower(c.Store) {
	case StoreMemory, StoreFile, StoreRedis, StoreSQLite:
	default:
		errs = append(errs, fmt.Errorf("unknown store %q (want memory, file, redis or sqlite)", c.Store))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port %d", c.Port))
	}
	if c.NarrativeTimeout < 0 {
		errs = append(errs, errors.New("narrative timeout must not be negative"))
	}
	if c.RedisLock && !strings.EqualFold(c.Store, StoreRedis) {
		errs = append(errs, errors.New("redis lock requires the redis store"))
	}
	if c.NarrativeURL != "" && c.NarrativeCommand != "" {
		errs = append(errs, errors.New("narrative url and narrative command are mutually exclusive"))
	}
	if c.EncryptionKey == "" && len(c.FallbackKeys) > 0 {
		errs = append(errs, errors.New("fallback keys require an encryption key"))
	}
	for _, k := range append([]string{c.EncryptionKey}, c.FallbackKeys...) {
		if k == "" {
			continue
		}
		if _, err := base64.StdEncoding.DecodeString(k); err != nil {
			errs = append(errs, fmt.Errorf("encryption key is not base64: %w", err))
		}
	}

	return errors.Join(errs...)
}

// Encrypted reports whether session records are sealed at rest.
func (c Config) Encrypted() bool {
	return c.EncryptionKey != ""
}
