package config_test

import (
	"testing"
	"time"

	"github.com/aretw0/boletim/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "boletim.yaml", cfg.Graph)
	assert.Equal(t, config.StoreMemory, cfg.Store)
	assert.Equal(t, 30*time.Second, cfg.NarrativeTimeout)
	assert.Equal(t, 4096, cfg.MaxInputSize)
	assert.Equal(t, 8080, cfg.Port)
	assert.False(t, cfg.Encrypted())
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("BOLETIM_STORE", "redis")
	t.Setenv("BOLETIM_REDIS_ADDR", "cache:6380")
	t.Setenv("BOLETIM_REDIS_TTL", "24h")
	t.Setenv("BOLETIM_REDIS_LOCK", "true")
	t.Setenv("BOLETIM_ENCRYPTION_KEY", "MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY=")
	t.Setenv("BOLETIM_ENCRYPTION_FALLBACK_KEYS", "b2xkLWtleQ==,b2xkZXIta2V5")
	t.Setenv("BOLETIM_NARRATIVE_URL", "http://narrador:9000/generate")
	t.Setenv("BOLETIM_NARRATIVE_TIMEOUT", "5s")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "cache:6380", cfg.RedisAddr)
	assert.Equal(t, 24*time.Hour, cfg.RedisTTL)
	assert.True(t, cfg.RedisLock)
	assert.True(t, cfg.Encrypted())
	assert.Equal(t, []string{"b2xkLWtleQ==", "b2xkZXIta2V5"}, cfg.FallbackKeys)
	assert.Equal(t, 5*time.Second, cfg.NarrativeTimeout)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		env      map[string]string
		contains string
	}{
		{"Unknown Store", map[string]string{"BOLETIM_STORE": "postgres"}, `unknown store "postgres"`},
		{"Bad Port", map[string]string{"BOLETIM_PORT": "0"}, "invalid port"},
		{"Not A Number", map[string]string{"BOLETIM_PORT": "http"}, "parse env"},
		{"Lock Without Redis", map[string]string{"BOLETIM_REDIS_LOCK": "true"}, "redis lock requires"},
		{"Bad Key", map[string]string{"BOLETIM_ENCRYPTION_KEY": "%%%"}, "not base64"},
		{"Fallback Only", map[string]string{"BOLETIM_ENCRYPTION_FALLBACK_KEYS": "b2xk"}, "fallback keys require"},
		{"Two Narrators", map[string]string{"BOLETIM_NARRATIVE_URL": "http://n", "BOLETIM_NARRATIVE_COMMAND": "narrar"}, "mutually exclusive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := config.Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}
