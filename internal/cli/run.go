package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/boletim"
	"github.com/aretw0/boletim/internal/presentation/tui"
	"github.com/aretw0/boletim/pkg/domain"
)

// Commands recognized by the interactive loop instead of answers.
const (
	CmdQuit     = ":q"
	CmdProgress = ":progresso"
	CmdAnswers  = ":respostas"
)

// RunOptions configures an interactive interview.
type RunOptions struct {
	// SessionID resumes an existing session; empty starts a new one.
	SessionID string
	Renderer  tui.Renderer
	Quiet     bool
}

// Run drives one session on in/out until it completes, the user quits or
// in is exhausted. The session id is returned so it can be resumed.
func Run(ctx context.Context, eng *boletim.Engine, in io.Reader, out io.Writer, opts RunOptions) (string, error) {
	render := opts.Renderer
	if render == nil {
		render = tui.Plain
	}
	tokens := eng.Graph().Tokens()
	show := func(p boletim.Prompt) {
		text, err := render(tui.FormatPrompt(p, [2]string{tokens.Affirmative, tokens.Negative}))
		if err != nil {
			text = p.Text + "\n"
		}
		fmt.Fprint(out, text)
	}

	sessionID, prompt, err := open(ctx, eng, opts.SessionID)
	if err != nil {
		return "", err
	}
	if !opts.Quiet {
		printSystemMessage(out, "Sessão '%s' ativa. Digite %s para sair.", sessionID, CmdQuit)
	}
	show(prompt)

	lines := bufio.NewScanner(in)
	for !prompt.Done {
		fmt.Fprint(out, "> ")
		if !lines.Scan() {
			if err := lines.Err(); err != nil {
				return sessionID, fmt.Errorf("input error: %w", err)
			}
			return sessionID, nil
		}
		if err := ctx.Err(); err != nil {
			return sessionID, err
		}

		line := lines.Text()
		switch strings.TrimSpace(line) {
		case CmdQuit:
			printSystemMessage(out, "Sessão '%s' salva.", sessionID)
			return sessionID, nil
		case CmdProgress:
			p, err := eng.GetProgress(ctx, sessionID)
			if err != nil {
				return sessionID, err
			}
			printSystemMessage(out, "Seção %d de %d: %d/%d (%d%%)", p.SectionIndex+1, p.SectionCount, p.Answered, p.Total, p.Percentage)
			continue
		case CmdAnswers:
			if err := printAnswers(ctx, eng, sessionID, out); err != nil {
				return sessionID, err
			}
			continue
		}

		res, err := eng.SubmitAnswer(ctx, sessionID, prompt.StepID, line)
		if err != nil && !res.Drift {
			return sessionID, err
		}
		if !res.Accepted {
			fmt.Fprintf(out, "%s\n", res.Message)
			prompt = res.NextPrompt
			continue
		}

		if res.SectionComplete {
			status := "concluída"
			if res.SectionSkipped {
				status = "pulada"
			}
			printSystemMessage(out, "Seção '%s' %s.", res.CompletedSectionID, status)
			switch {
			case res.Narrative != "":
				fmt.Fprintf(out, "%s\n\n", res.Narrative)
			case res.NarrativeError != "":
				printSystemMessage(out, "Narrativa indisponível: %s", res.NarrativeError)
			}
		}
		prompt = res.NextPrompt
		show(prompt)
	}

	return sessionID, nil
}

// open resumes sessionID when it exists, or starts a session otherwise.
func open(ctx context.Context, eng *boletim.Engine, sessionID string) (string, boletim.Prompt, error) {
	if sessionID != "" {
		p, err := eng.CurrentPrompt(ctx, sessionID)
		if err == nil {
			return sessionID, p, nil
		}
		if !errors.Is(err, domain.ErrSessionNotFound) {
			return "", boletim.Prompt{}, fmt.Errorf("failed to resume session: %w", err)
		}
	}
	start, err := eng.StartSession(ctx)
	if err != nil {
		return "", boletim.Prompt{}, fmt.Errorf("failed to start session: %w", err)
	}
	return start.SessionID, start.Prompt, nil
}

func printAnswers(ctx context.Context, eng *boletim.Engine, sessionID string, out io.Writer) error {
	sections, err := eng.Answers(ctx, sessionID)
	if err != nil {
		return err
	}
	for _, s := range sections {
		title := s.Title
		if title == "" {
			title = s.SectionID
		}
		fmt.Fprintf(out, "[%s]\n", title)
		for _, a := range s.Answers {
			fmt.Fprintf(out, "  %s: %s\n", a.StepID, a.Text)
		}
	}
	return nil
}

// printSystemMessage prints a standardized system message.
func printSystemMessage(out io.Writer, format string, args ...any) {
	fmt.Fprintf(out, ">>> %s\n", fmt.Sprintf(format, args...))
}
