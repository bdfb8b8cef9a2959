package tui_test

import (
	"testing"

	"github.com/aretw0/boletim"
	"github.com/aretw0/boletim/internal/presentation/tui"
	"github.com/stretchr/testify/assert"
)

func TestFormatPrompt(t *testing.T) {
	tokens := [2]string{"SIM", "NÃO"}

	tests := []struct {
		name   string
		prompt boletim.Prompt
		want   string
	}{
		{
			name: "Section Start",
			prompt: boletim.Prompt{
				SectionID: "1", SectionTitle: "Ocorrência", SectionStart: true, SectionIntro: "Primeiro, o local.",
				StepID: "1.1", Text: "Onde ocorreu o fato?",
			},
			want: "## Ocorrência\n\nPrimeiro, o local.\n\n**1.1** Onde ocorreu o fato?\n",
		},
		{
			name:   "Untitled Section",
			prompt: boletim.Prompt{SectionID: "2", SectionStart: true, StepID: "2.1", Text: "Houve apoio?", IsGate: true},
			want:   "## 2\n\n**2.1** Houve apoio? _(SIM/NÃO)_\n",
		},
		{
			name:   "Mid Section",
			prompt: boletim.Prompt{SectionID: "1", SectionTitle: "Ocorrência", StepID: "1.3", Text: "Descreva o fato."},
			want:   "**1.3** Descreva o fato.\n",
		},
		{
			name:   "Done",
			prompt: boletim.Prompt{Done: true},
			want:   "**Boletim concluído.**\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tui.FormatPrompt(tt.prompt, tokens))
		})
	}
}

func TestPlain(t *testing.T) {
	out, err := tui.Plain("**x**")
	assert.NoError(t, err)
	assert.Equal(t, "**x**", out)
}
