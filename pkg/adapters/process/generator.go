// Package process produces section narratives by running a local command.
package process

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/aretw0/boletim/pkg/domain"
)

const (
	// maxStderr bounds how much of a failed command's stderr is quoted in the error.
	maxStderr = 512
	// waitDelay bounds how long output pipes are drained after the command is killed.
	waitDelay = 200 * time.Millisecond
)

// ErrEmptyNarrative is returned when the command exits cleanly without text.
var ErrEmptyNarrative = errors.New("process: empty narrative output")

// Generator implements ports.NarrativeGenerator over an allow-listed command.
//
// The section is written to stdin as {"sectionId": ..., "answers": [...]} and
// also exposed as BOLETIM_SECTION_ID. Stdout is the narrative, either plain
// text or a {"text": ...} object.
type Generator struct {
	command string
	args    []string
	dir     string
	env     []string
}

// Option configures the Generator.
type Option func(*Generator)

// WithDir sets the working directory of the command.
func WithDir(dir string) Option {
	return func(g *Generator) {
		g.dir = dir
	}
}

// WithEnv adds KEY=value pairs to the inherited environment.
func WithEnv(env map[string]string) Option {
	return func(g *Generator) {
		for k, v := range env {
			g.env = append(g.env, k+"="+v)
		}
	}
}

// New creates a generator running command with fixed args. Answers never
// reach the command line.
func New(command string, args []string, opts ...Option) *Generator {
	g := &Generator{command: command, args: args}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Parse splits a command line on whitespace into a Generator. No shell is involved.
func Parse(commandLine string, opts ...Option) (*Generator, error) {
	fields := strings.Fields(commandLine)
	if len(fields) == 0 {
		return nil, errors.New("process: empty narrative command")
	}
	return New(fields[0], fields[1:], opts...), nil
}

type request struct {
	SectionID string               `json:"sectionId"`
	Answers   []domain.AnswerEntry `json:"answers"`
}

// Generate implements ports.NarrativeGenerator.
func (g *Generator) Generate(ctx context.Context, sectionID string, answers []domain.AnswerEntry) (string, error) {
	if answers == nil {
		answers = []domain.AnswerEntry{}
	}
	input, err := json.Marshal(request{SectionID: sectionID, Answers: answers})
	if err != nil {
		return "", fmt.Errorf("process: marshal request: %w", err)
	}

	cmd := exec.CommandContext(ctx, g.command, g.args...)
	cmd.Dir = g.dir
	cmd.Env = append(cmd.Environ(), g.env...)
	cmd.Env = append(cmd.Env, "BOLETIM_SECTION_ID="+sectionID)
	cmd.Stdin = bytes.NewReader(input)
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		msg := strings.TrimSpace(stderr.String())
		if len(msg) > maxStderr {
			msg = msg[:maxStderr]
		}
		return "", fmt.Errorf("process: %s failed: %w: %s", g.command, err, msg)
	}

	return parseOutput(stdout.String())
}

// parseOutput accepts plain text or a JSON object with a text field.
func parseOutput(output string) (string, error) {
	trimmed := strings.TrimSpace(output)
	if strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}") {
		var out struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal([]byte(trimmed), &out); err == nil {
			trimmed = strings.TrimSpace(out.Text)
		}
	}
	if trimmed == "" {
		return "", ErrEmptyNarrative
	}
	return trimmed, nil
}
