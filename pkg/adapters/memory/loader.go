package memory

import (
	"context"
	"fmt"

	"github.com/aretw0/boletim/pkg/domain"
)

// Loader implements ports.GraphLoader over a definition held in memory.
type Loader struct {
	def domain.Definition
}

// NewLoader creates a Loader that always yields def.
func NewLoader(def domain.Definition) *Loader {
	return &Loader{def: def}
}

// NewFromSections creates a Loader from sections alone, using default tokens
// and messages. This improves DX for tests and embedded interviews.
func NewFromSections(name string, sections ...domain.Section) (*Loader, error) {
	for i, s := range sections {
		if s.ID == "" {
			return nil, fmt.Errorf("section %d missing ID", i)
		}
	}
	return &Loader{def: domain.Definition{Name: name, Sections: sections}}, nil
}

// Load returns the definition.
func (l *Loader) Load(ctx context.Context) (domain.Definition, error) {
	if err := ctx.Err(); err != nil {
		return domain.Definition{}, err
	}
	return l.def, nil
}
