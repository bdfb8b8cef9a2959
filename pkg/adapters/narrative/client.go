// Package narrative reaches the narrative-generation collaborator over HTTP.
package narrative

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aretw0/boletim/pkg/domain"
)

// maxErrorBody bounds how much of a failed response is quoted in the error.
const maxErrorBody = 512

// ErrEmptyNarrative is returned when the collaborator answers without text.
var ErrEmptyNarrative = errors.New("narrative: empty text in response")

// Client posts completed sections to a narrative service. It never retries;
// the engine decides what a failure means.
type Client struct {
	url  string
	http *http.Client
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient replaces http.DefaultClient. Timeouts belong to the caller's context.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// New creates a client for the given endpoint.
func New(url string, opts ...Option) *Client {
	c := &Client{url: url, http: http.DefaultClient}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type request struct {
	SectionID string               `json:"sectionId"`
	Answers   []domain.AnswerEntry `json:"answers"`
}

type response struct {
	Text string `json:"text"`
}

// Generate implements ports.NarrativeGenerator.
func (c *Client) Generate(ctx context.Context, sectionID string, answers []domain.AnswerEntry) (string, error) {
	if answers == nil {
		answers = []domain.AnswerEntry{}
	}
	body, err := json.Marshal(request{SectionID: sectionID, Answers: answers})
	if err != nil {
		return "", fmt.Errorf("narrative: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("narrative: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("narrative: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", fmt.Errorf("narrative: status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("narrative: decode response: %w", err)
	}
	if strings.TrimSpace(out.Text) == "" {
		return "", ErrEmptyNarrative
	}
	return out.Text, nil
}

// Func adapts a plain function to ports.NarrativeGenerator.
type Func func(ctx context.Context, sectionID string, answers []domain.AnswerEntry) (string, error)

// Generate calls f.
func (f Func) Generate(ctx context.Context, sectionID string, answers []domain.AnswerEntry) (string, error) {
	return f(ctx, sectionID, answers)
}
