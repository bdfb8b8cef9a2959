package memory_test

import (
	"testing"

	"github.com/aretw0/boletim/internal/testutils"
	"github.com/aretw0/boletim/pkg/adapters/memory"
	"github.com/aretw0/boletim/pkg/domain"
	contract "github.com/aretw0/boletim/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
)

func TestInMemoryLoader_Contract(t *testing.T) {
	def := testutils.Definition()
	contract.RunGraphLoaderContract(t, memory.NewLoader(def), def)
}

func TestNewFromSections(t *testing.T) {
	_, err := memory.NewFromSections("x", domain.Section{})
	assert.Error(t, err)

	def := testutils.Definition()
	loader, err := memory.NewFromSections(def.Name, def.Sections...)
	assert.NoError(t, err)
	contract.RunGraphLoaderContract(t, loader, def)
}
