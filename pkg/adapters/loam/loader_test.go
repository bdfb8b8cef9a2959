package loam_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/boletim/internal/testutils"
	"github.com/aretw0/boletim/pkg/adapters/loam"
	"github.com/aretw0/boletim/pkg/domain"
	"github.com/aretw0/boletim/pkg/graph"
	"github.com/aretw0/boletim/pkg/ports/tests"
	loamlib "github.com/aretw0/loam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const headerDoc = `---
kind: interview
name: boletim-de-ocorrencia
---
`

const sectionOne = `---
id: "1"
order: 1
title: Ocorrência
nodes:
  - id: "1.1"
    prompt: Onde ocorreu o fato?
    rules:
      - min_length: 5
  - id: "1.2"
    prompt: Houve vítimas?
    branch: gate
    gate:
      on_affirmative:
        follow_ups: ["1.2.1", "1.2.2"]
  - id: "1.2.1"
    prompt: Quantas vítimas?
    rules:
      - min_length: 1
  - id: "1.2.2"
    prompt: Alguma vítima foi hospitalizada?
    branch: gate
    gate:
      on_affirmative:
        follow_ups: ["1.2.2.1"]
  - id: "1.2.2.1"
    prompt: Para qual hospital?
    rules:
      - min_length: 10
  - id: "1.3"
    prompt: Descreva o fato.
    rules:
      - min_length: 50
      - forbid: não sei
        message: Descreva o que foi observado.
---
Primeiro, o local e o fato.
`

const sectionTwo = `---
id: "2"
order: 2
title: Efetivo
nodes:
  - id: "2.1"
    prompt: Houve apoio de outra guarnição?
    branch: gate
    gate:
      on_negative:
        skip_section: true
  - id: "2.2"
    prompt: Quem comandava o apoio?
    rules:
      - keywords_any: [sargento, cabo]
        message: Informe a graduação do comandante.
  - id: "2.3"
    prompt: Qual a viatura?
---
`

const sectionThree = `{
  "id": "3",
  "order": 3,
  "title": "Encerramento",
  "nodes": [
    {"id": "3.1", "prompt": "Houve apreensão?", "branch": "gate", "gate": {"on_negative": {"jump_to": "3.4"}}},
    {"id": "3.2", "prompt": "O que foi apreendido?"},
    {"id": "3.3", "prompt": "Onde foi depositado?"},
    {"id": "3.4", "prompt": "Observações finais."}
  ]
}`

func seed(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
}

func newLoader(t *testing.T, files map[string]string) *loam.Loader {
	t.Helper()
	// 1. Setup Loam (via testutils which ensures a temp repository)
	dir, repo := testutils.SetupTestRepo(t)
	// 2. Seed documents
	seed(t, dir, files)
	// 3. Create Adapter
	return loam.New(loamlib.NewTypedRepository[loam.SectionMetadata](repo))
}

func TestLoader_Contract(t *testing.T) {
	loader := newLoader(t, map[string]string{
		"boletim.md": headerDoc,
		// Out of lexical order on purpose: "order" decides
		"b-local.md":        sectionOne,
		"a-efetivo.md":      sectionTwo,
		"encerramento.json": sectionThree,
	})

	tests.RunGraphLoaderContract(t, loader, testutils.Definition())
}

func TestLoader_BuildsGraph(t *testing.T) {
	loader := newLoader(t, map[string]string{
		"boletim.md": headerDoc,
		"local.md":   sectionOne,
		"efetivo.md": sectionTwo,
		"fim.json":   sectionThree,
	})

	def, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Primeiro, o local e o fato.", def.Sections[0].Intro)
	assert.Equal(t, "Ocorrência", def.Sections[0].Title)

	g, err := graph.Build(def)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, g.Sections())
}

func TestLoader_ImpliedIDAndOrder(t *testing.T) {
	loader := newLoader(t, map[string]string{
		"beta.md": `---
nodes:
  - id: b.1
    prompt: B
---`,
		"alpha.md": `---
nodes:
  - id: a.1
    prompt: A
---`,
	})

	def, err := loader.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, def.Sections, 2)
	// Equal order falls back to the id
	assert.Equal(t, "alpha", def.Sections[0].ID)
	assert.Equal(t, "beta", def.Sections[1].ID)
	assert.Equal(t, "", def.Name)
}

func TestLoader_HeaderTokensAndMessages(t *testing.T) {
	loader := newLoader(t, map[string]string{
		"interview.md": `---
kind: interview
name: incident
tokens:
  affirmative: YES
  negative: "NO"
messages:
  gate: Answer YES or NO.
---`,
		"a.md": `---
nodes:
  - id: a.1
    prompt: Anything else?
    branch: gate
---`,
	})

	def, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "incident", def.Name)
	assert.Equal(t, domain.GateTokens{Affirmative: "YES", Negative: "NO"}, def.Tokens)
	assert.Equal(t, "Answer YES or NO.", def.Messages.Gate)
}

func TestLoader_Errors(t *testing.T) {
	tests := []struct {
		name     string
		files    map[string]string
		contains string
	}{
		{
			name: "Collision",
			files: map[string]string{
				"foo.md":   "---\nid: foo\nnodes: []\n---\n",
				"foo.json": `{"id": "foo", "nodes": []}`,
			},
			contains: "collision detected",
		},
		{
			name: "Two Headers",
			files: map[string]string{
				"a.md": "---\nkind: interview\n---\n",
				"b.md": "---\nkind: interview\n---\n",
			},
			contains: "interview header defined in both",
		},
		{
			name: "Unknown Kind",
			files: map[string]string{
				"a.md": "---\nkind: tool\n---\n",
			},
			contains: `unknown document kind "tool"`,
		},
		{
			name: "Unknown Node Field",
			files: map[string]string{
				"a.md": "---\nnodes:\n  - id: a.1\n    promt: typo\n---\n",
			},
			contains: "node 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := newLoader(t, tt.files)
			_, err := loader.Load(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	seed(t, dir, map[string]string{"a.md": "---\nnodes:\n  - id: a.1\n    prompt: A\n---\n"})

	loader, err := loam.Open(dir)
	require.NoError(t, err)

	def, err := loader.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, def.Sections, 1)
	assert.Equal(t, "a.1", def.Sections[0].Nodes[0].ID)
}
