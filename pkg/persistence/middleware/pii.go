package middleware

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/aretw0/boletim/pkg/domain"
	"github.com/aretw0/boletim/pkg/ports"
)

// Mask replaces a redacted answer.
const Mask = "***"

// ErrReadOnly is returned by Save on a redacted view.
var ErrReadOnly = errors.New("redacted store is read-only")

type piiMiddleware struct {
	next     ports.SessionStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a read-only view whose loaded records have the
// answers of matching step ids masked, along with every narrative text.
// It serves inspection tooling; a session cannot resume from a masked record.
func NewPIIMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid pii pattern %q: %w", p, err)
		}
		patterns[i] = re
	}
	return func(next ports.SessionStore) ports.SessionStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *piiMiddleware) Save(ctx context.Context, sessionID string, record *domain.SessionRecord) error {
	return ErrReadOnly
}

func (m *piiMiddleware) Load(ctx context.Context, sessionID string) (*domain.SessionRecord, error) {
	record, err := m.next.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	// Clone so a caching store never sees the mask
	masked := record.Clone()
	for stepID := range masked.Draft.Answers {
		if m.matches(stepID) {
			masked.Draft.Answers[stepID] = Mask
		}
	}
	for sectionID, status := range masked.Narratives {
		if status.Text != "" {
			status.Text = Mask
			masked.Narratives[sectionID] = status
		}
	}
	return masked, nil
}

func (m *piiMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *piiMiddleware) matches(stepID string) bool {
	for _, p := range m.patterns {
		if p.MatchString(stepID) {
			return true
		}
	}
	return false
}
