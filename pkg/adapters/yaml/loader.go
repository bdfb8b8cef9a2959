// Package yaml loads an interview definition from a single YAML or JSON file.
package yaml

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/boletim/pkg/domain"
	yamlv3 "gopkg.in/yaml.v3"
)

// Loader reads a definition file on every Load, so edits are picked up
// without rebuilding the loader.
type Loader struct {
	path string
}

// New creates a loader for the file at path.
func New(path string) *Loader {
	return &Loader{path: path}
}

// Path returns the definition file path.
func (l *Loader) Path() string {
	return l.path
}

// Load reads and decodes the definition. Unknown keys are rejected.
func (l *Loader) Load(ctx context.Context) (domain.Definition, error) {
	if err := ctx.Err(); err != nil {
		return domain.Definition{}, err
	}

	data, err := os.ReadFile(l.path)
	if err != nil {
		return domain.Definition{}, fmt.Errorf("failed to read definition: %w", err)
	}
	return Parse(data, filepath.Ext(l.path))
}

// Parse decodes a definition. ext selects JSON for ".json"; anything else is YAML.
func Parse(data []byte, ext string) (domain.Definition, error) {
	var def domain.Definition
	if strings.EqualFold(ext, ".json") {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&def); err != nil {
			return domain.Definition{}, fmt.Errorf("failed to parse definition json: %w", err)
		}
		return def, nil
	}

	dec := yamlv3.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		return domain.Definition{}, fmt.Errorf("failed to parse definition yaml: %w", err)
	}
	return def, nil
}
