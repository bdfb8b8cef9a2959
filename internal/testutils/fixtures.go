package testutils

import (
	"strings"
	"testing"

	"github.com/aretw0/boletim/pkg/domain"
	"github.com/aretw0/boletim/pkg/graph"
	"github.com/stretchr/testify/require"
)

// LongAnswer satisfies the 50 rune minimum of step 1.3.
var LongAnswer = strings.Repeat("relato detalhado ", 4)

// Definition returns a three section interview that exercises every branch kind:
//
//	1: 1.1 -> 1.2 (gate: 1.2.1, 1.2.2 (gate: 1.2.2.1)) -> 1.3
//	2: 2.1 (gate, NÃO skips section) -> 2.2 -> 2.3
//	3: 3.1 (gate, NÃO jumps to 3.4) -> 3.2 -> 3.3 -> 3.4
func Definition() domain.Definition {
	return domain.Definition{
		Name: "boletim-de-ocorrencia",
		Sections: []domain.Section{
			{
				ID:    "1",
				Title: "Ocorrência",
				Nodes: []domain.QuestionNode{
					{ID: "1.1", Prompt: "Onde ocorreu o fato?", Rules: []domain.Rule{{MinLength: 5}}},
					{
						ID:     "1.2",
						Prompt: "Houve vítimas?",
						Gate: &domain.Gate{
							OnAffirmative: domain.Affirmative{FollowUps: []string{"1.2.1", "1.2.2"}},
						},
					},
					{ID: "1.2.1", Prompt: "Quantas vítimas?", Rules: []domain.Rule{{MinLength: 1}}},
					{
						ID:     "1.2.2",
						Prompt: "Alguma vítima foi hospitalizada?",
						Gate: &domain.Gate{
							OnAffirmative: domain.Affirmative{FollowUps: []string{"1.2.2.1"}},
						},
					},
					{ID: "1.2.2.1", Prompt: "Para qual hospital?", Rules: []domain.Rule{{MinLength: 10}}},
					{
						ID:     "1.3",
						Prompt: "Descreva o fato.",
						Rules: []domain.Rule{
							{MinLength: 50},
							{Forbid: "não sei", Message: "Descreva o que foi observado."},
						},
					},
				},
			},
			{
				ID:    "2",
				Title: "Efetivo",
				Nodes: []domain.QuestionNode{
					{
						ID:     "2.1",
						Prompt: "Houve apoio de outra guarnição?",
						Gate: &domain.Gate{
							OnNegative: domain.Negative{SkipSection: true},
						},
					},
					{
						ID:     "2.2",
						Prompt: "Quem comandava o apoio?",
						Rules:  []domain.Rule{{KeywordsAny: []string{"sargento", "cabo"}, Message: "Informe a graduação do comandante."}},
					},
					{ID: "2.3", Prompt: "Qual a viatura?"},
				},
			},
			{
				ID:    "3",
				Title: "Encerramento",
				Nodes: []domain.QuestionNode{
					{
						ID:     "3.1",
						Prompt: "Houve apreensão?",
						Gate: &domain.Gate{
							OnNegative: domain.Negative{JumpTo: "3.4"},
						},
					},
					{ID: "3.2", Prompt: "O que foi apreendido?"},
					{ID: "3.3", Prompt: "Onde foi depositado?"},
					{ID: "3.4", Prompt: "Observações finais."},
				},
			},
		},
	}
}

// ReversedFollowUps returns a one section interview whose gate lists its
// follow-ups opposite to how they are declared, after a later main node:
//
//	r: g (gate: f2, f1) -> a
func ReversedFollowUps() domain.Definition {
	return domain.Definition{
		Name: "relato-curto",
		Sections: []domain.Section{{
			ID:    "r",
			Title: "Relato",
			Nodes: []domain.QuestionNode{
				{
					ID:     "g",
					Prompt: "Houve testemunhas?",
					Gate: &domain.Gate{
						OnAffirmative: domain.Affirmative{FollowUps: []string{"f2", "f1"}},
					},
				},
				{ID: "a", Prompt: "Algo mais?"},
				{ID: "f1", Prompt: "Qual o contato da testemunha?"},
				{ID: "f2", Prompt: "Qual o nome da testemunha?"},
			},
		}},
	}
}

// Graph builds Definition and fails the test on error.
func Graph(t testing.TB) *graph.Graph {
	t.Helper()
	g, err := graph.Build(Definition())
	require.NoError(t, err)
	return g
}

// DefinitionYAML is Definition in the on-disk format read by the yaml loader.
const DefinitionYAML = `name: boletim-de-ocorrencia
sections:
  - id: "1"
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
  - id: "2"
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
  - id: "3"
    title: Encerramento
    nodes:
      - id: "3.1"
        prompt: Houve apreensão?
        branch: gate
        gate:
          on_negative:
            jump_to: "3.4"
      - id: "3.2"
        prompt: O que foi apreendido?
      - id: "3.3"
        prompt: Onde foi depositado?
      - id: "3.4"
        prompt: Observações finais.
`
