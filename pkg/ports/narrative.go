package ports

import (
	"context"

	"github.com/aretw0/boletim/pkg/domain"
)

// NarrativeGenerator turns the answers of a completed section into a prose
// narrative. Implementations must honor ctx cancellation; the engine applies
// its own timeout.
type NarrativeGenerator interface {
	Generate(ctx context.Context, sectionID string, answers []domain.AnswerEntry) (string, error)
}
