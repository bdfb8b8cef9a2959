package cli_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/boletim"
	"github.com/aretw0/boletim/internal/cli"
	"github.com/aretw0/boletim/internal/config"
	"github.com/aretw0/boletim/internal/logging"
	"github.com/aretw0/boletim/internal/testutils"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	graph := filepath.Join(dir, "boletim.yaml")
	require.NoError(t, os.WriteFile(graph, []byte(testutils.DefinitionYAML), 0644))
	return config.Config{
		Graph:            graph,
		Store:            config.StoreMemory,
		StoreDir:         filepath.Join(dir, "sessions"),
		SQLitePath:       filepath.Join(dir, "sessions.db"),
		MaxInputSize:     4096,
		NarrativeTimeout: 0,
		Port:             8080,
	}
}

func TestBuild_Stores(t *testing.T) {
	mr := miniredis.RunT(t)

	tests := []struct {
		name  string
		setup func(*config.Config)
	}{
		{"Memory", func(c *config.Config) {}},
		{"File", func(c *config.Config) { c.Store = config.StoreFile }},
		{"SQLite", func(c *config.Config) { c.Store = config.StoreSQLite }},
		{"Redis With Lock", func(c *config.Config) {
			c.Store = config.StoreRedis
			c.RedisAddr = mr.Addr()
			c.RedisLock = true
		}},
		{"Encrypted File", func(c *config.Config) {
			c.Store = config.StoreFile
			c.EncryptionKey = base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, 32))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig(t)
			tt.setup(&cfg)

			rt, err := cli.Build(cfg, logging.NewNop())
			require.NoError(t, err)
			defer rt.Close()

			ctx := context.Background()
			start, err := rt.Engine.StartSession(ctx)
			require.NoError(t, err)
			_, err = rt.Engine.SubmitAnswer(ctx, start.SessionID, "1.1", "Praça central")
			require.NoError(t, err)

			ids, err := rt.Store.List(ctx)
			require.NoError(t, err)
			assert.Contains(t, ids, start.SessionID)

			assert.Equal(t, 1, testutil.CollectAndCount(rt.Metrics.Registry(), "boletim_sessions_started_total"))
		})
	}
}

func TestBuild_EncryptedRecordsAreSealed(t *testing.T) {
	cfg := baseConfig(t)
	cfg.Store = config.StoreFile
	cfg.EncryptionKey = base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{9}, 32))

	rt, err := cli.Build(cfg, logging.NewNop())
	require.NoError(t, err)
	defer rt.Close()

	ctx := context.Background()
	start, err := rt.Engine.StartSession(ctx)
	require.NoError(t, err)
	_, err = rt.Engine.SubmitAnswer(ctx, start.SessionID, "1.1", "Praça central")
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(cfg.StoreDir, start.SessionID+".json"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "Praça central")
	assert.Contains(t, string(raw), `"sealed"`)
}

func TestBuild_NarrativeCommand(t *testing.T) {
	if _, err := exec.LookPath("echo"); err != nil {
		t.Skip("echo not available")
	}
	cfg := baseConfig(t)
	cfg.NarrativeCommand = "echo Relato."
	cfg.NarrativeTimeout = 5 * time.Second

	rt, err := cli.Build(cfg, logging.NewNop())
	require.NoError(t, err)
	defer rt.Close()

	ctx := context.Background()
	start, err := rt.Engine.StartSession(ctx)
	require.NoError(t, err)

	var res boletim.SubmitResult
	for _, step := range [][2]string{{"1.1", "Praça central"}, {"1.2", "NÃO"}, {"1.3", testutils.LongAnswer}} {
		res, err = rt.Engine.SubmitAnswer(ctx, start.SessionID, step[0], step[1])
		require.NoError(t, err)
		require.True(t, res.Accepted, res.Message)
	}
	assert.True(t, res.SectionComplete)
	assert.Equal(t, "Relato.", res.Narrative)
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(*config.Config)
		contains string
	}{
		{"Missing Graph", func(c *config.Config) { c.Graph = filepath.Join(t.TempDir(), "none.yaml") }, "error initializing engine"},
		{"Unreachable Redis", func(c *config.Config) { c.Store = config.StoreRedis; c.RedisAddr = "127.0.0.1:1" }, "connect redis"},
		{"Short Key", func(c *config.Config) { c.EncryptionKey = base64.StdEncoding.EncodeToString([]byte("short")) }, "key"},
		{"Unknown Store", func(c *config.Config) { c.Store = "s3" }, "unknown store"},
		{"Blank Narrative Command", func(c *config.Config) { c.NarrativeCommand = " " }, "empty narrative command"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig(t)
			tt.setup(&cfg)
			_, err := cli.Build(cfg, logging.NewNop())
			require.Error(t, err)
			assert.Contains(t, strings.ToLower(err.Error()), tt.contains)
		})
	}
}

func TestSessionCommands(t *testing.T) {
	cfg := baseConfig(t)
	cfg.Store = config.StoreFile

	rt, err := cli.Build(cfg, logging.NewNop())
	require.NoError(t, err)
	defer rt.Close()

	ctx := context.Background()
	start, err := rt.Engine.StartSession(ctx)
	require.NoError(t, err)
	_, err = rt.Engine.SubmitAnswer(ctx, start.SessionID, "1.1", "Praça central")
	require.NoError(t, err)

	store, closer, err := cli.OpenStore(cfg)
	require.NoError(t, err)
	defer closer.Close()

	// 1. List
	var out bytes.Buffer
	require.NoError(t, cli.ListSessions(ctx, store, &out))
	assert.Equal(t, start.SessionID+"\n", out.String())

	// 2. Inspect masked and revealed
	out.Reset()
	require.NoError(t, cli.InspectSession(ctx, store, start.SessionID, cli.MaskAll, &out))
	assert.NotContains(t, out.String(), "Praça central")
	assert.Contains(t, out.String(), `"1.1": "***"`)

	out.Reset()
	require.NoError(t, cli.InspectSession(ctx, store, start.SessionID, nil, &out))
	assert.Contains(t, out.String(), "Praça central")

	// 3. Remove
	out.Reset()
	require.NoError(t, cli.RemoveSession(ctx, store, start.SessionID, &out))
	out.Reset()
	require.NoError(t, cli.ListSessions(ctx, store, &out))
	assert.Contains(t, out.String(), "Nenhuma sessão encontrada.")

	assert.Error(t, cli.InspectSession(ctx, store, start.SessionID, nil, &out))
}
