package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/boletim/internal/presentation/graph"
	"github.com/aretw0/boletim/internal/testutils"
)

func TestGenerateMermaid(t *testing.T) {
	g := testutils.Graph(t)
	got := graph.GenerateMermaid(g, nil)

	tests := []struct {
		name     string
		contains []string
	}{
		{
			name: "Subgraphs",
			contains: []string{
				`subgraph section_1["Ocorrência"]`,
				`end_1(("fim"))`,
			},
		},
		{
			name: "Shapes",
			contains: []string{
				`1_1[/"1.1 Onde ocorreu o fato?"/]`,
				`1_2{"1.2 Houve vítimas?"}`,
			},
		},
		{
			name: "Follow-ups Return To The Main Sequence",
			contains: []string{
				"1_2 -- SIM --> 1_2_1",
				"1_2_1 --> 1_2_2",
				"1_2_2 -- SIM --> 1_2_2_1",
				"1_2_2_1 --> 1_3",
				"1_2 -- NÃO --> 1_3",
				"1_3 --> end_1",
			},
		},
		{
			name: "Skip And Jump",
			contains: []string{
				`2_1 -. "NÃO (pula seção)" .-> end_2`,
				"3_1 -. NÃO .-> 3_4",
			},
		},
		{
			name: "Sections Chain",
			contains: []string{
				"end_1 ==> 2_1",
				"end_2 ==> 3_1",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("GenerateMermaid() = \n%v\nWant substring: %v", got, want)
				}
			}
		})
	}

	if strings.Contains(got, "end_3 ==>") {
		t.Errorf("last section should not chain: \n%v", got)
	}
}

func TestGenerateMermaid_Overlay(t *testing.T) {
	got := graph.GenerateMermaid(testutils.Graph(t), &graph.GraphOverlay{
		AnsweredSteps: []string{"1.1", "1.2", "1.1"},
		CurrentStep:   "1.3",
	})

	if strings.Count(got, "class 1_1 answered;") != 1 {
		t.Errorf("answered steps should be deduplicated: \n%v", got)
	}
	if !strings.Contains(got, "class 1_3 current;") {
		t.Errorf("missing current step: \n%v", got)
	}
}
