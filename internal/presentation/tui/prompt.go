package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/boletim"
)

// FormatPrompt renders a prompt as markdown: the section heading and intro
// when a section starts, then the question.
func FormatPrompt(p boletim.Prompt, tokens [2]string) string {
	if p.Done {
		return "**Boletim concluído.**\n"
	}

	var sb strings.Builder
	if p.SectionStart {
		title := p.SectionTitle
		if title == "" {
			title = p.SectionID
		}
		fmt.Fprintf(&sb, "## %s\n\n", title)
		if p.SectionIntro != "" {
			sb.WriteString(p.SectionIntro)
			sb.WriteString("\n\n")
		}
	}

	fmt.Fprintf(&sb, "**%s** %s", p.StepID, p.Text)
	if p.IsGate {
		fmt.Fprintf(&sb, " _(%s/%s)_", tokens[0], tokens[1])
	}
	sb.WriteString("\n")
	return sb.String()
}
