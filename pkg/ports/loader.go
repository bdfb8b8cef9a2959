package ports

import (
	"context"

	"github.com/aretw0/boletim/pkg/domain"
)

// GraphLoader defines how the engine retrieves the interview definition.
// This allows the storage layer (YAML, Loam, Memory) to be decoupled.
// The definition is validated by graph.Build, not by the loader.
type GraphLoader interface {
	Load(ctx context.Context) (domain.Definition, error)
}
