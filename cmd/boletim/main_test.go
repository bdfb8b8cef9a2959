package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aretw0/boletim"
	"github.com/aretw0/boletim/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeDefinition(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "boletim.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testutils.DefinitionYAML), 0644))
	return path
}

func TestCommands(t *testing.T) {
	path := writeDefinition(t)

	t.Run("Version", func(t *testing.T) {
		out, err := execute(t, "version")
		require.NoError(t, err)
		assert.Equal(t, "boletim version "+strings.TrimSpace(boletim.Version)+"\n", out)
	})

	t.Run("Validate", func(t *testing.T) {
		out, err := execute(t, "validate", path)
		require.NoError(t, err)
		assert.Contains(t, out, "Boletim 'boletim-de-ocorrencia' is valid: 3 sections")
	})

	t.Run("Validate Broken Definition", func(t *testing.T) {
		broken := filepath.Join(t.TempDir(), "broken.yaml")
		require.NoError(t, os.WriteFile(broken, []byte("name: x\nsections: []\n"), 0644))
		_, err := execute(t, "validate", broken)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "validation failed")
	})

	t.Run("Graph", func(t *testing.T) {
		out, err := execute(t, "graph", "--graph", path)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(out, "graph TD\n"))
		assert.Contains(t, out, "subgraph section_1")
	})

	t.Run("Session Ls On Empty File Store", func(t *testing.T) {
		t.Setenv("BOLETIM_STORE_DIR", t.TempDir())
		out, err := execute(t, "session", "ls", "--store", "file")
		require.NoError(t, err)
		assert.Contains(t, out, "Nenhuma sessão encontrada.")
	})
}
