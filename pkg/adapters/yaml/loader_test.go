package yaml_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/boletim/internal/testutils"
	"github.com/aretw0/boletim/pkg/adapters/yaml"
	"github.com/aretw0/boletim/pkg/graph"
	"github.com/aretw0/boletim/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoader_Contract(t *testing.T) {
	loader := yaml.New(write(t, "boletim.yaml", testutils.DefinitionYAML))
	tests.RunGraphLoaderContract(t, loader, testutils.Definition())
}

func TestLoader_JSON(t *testing.T) {
	data, err := json.Marshal(testutils.Definition())
	require.NoError(t, err)

	loader := yaml.New(write(t, "boletim.json", string(data)))
	tests.RunGraphLoaderContract(t, loader, testutils.Definition())
}

func TestLoader_BuildsGraph(t *testing.T) {
	loader := yaml.New(write(t, "boletim.yml", testutils.DefinitionYAML))

	def, err := loader.Load(context.Background())
	require.NoError(t, err)

	g, err := graph.Build(def)
	require.NoError(t, err)
	assert.Equal(t, 6, g.Size("1"))
}

func TestLoader_Errors(t *testing.T) {
	t.Run("Missing File", func(t *testing.T) {
		_, err := yaml.New(filepath.Join(t.TempDir(), "nope.yaml")).Load(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("Unknown Field", func(t *testing.T) {
		path := write(t, "typo.yaml", "sections:\n  - id: a\n    nodes:\n      - id: a.1\n        promt: typo\n")
		_, err := yaml.New(path).Load(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "promt")
	})

	t.Run("Unknown JSON Field", func(t *testing.T) {
		_, err := yaml.Parse([]byte(`{"sections":[],"extra":1}`), ".json")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "extra")
	})
}
