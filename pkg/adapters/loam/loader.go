package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/boletim/pkg/domain"
	"github.com/aretw0/loam"
	"github.com/mitchellh/mapstructure"
)

// Loader adapts a Loam repository of section documents to the GraphLoader interface.
type Loader struct {
	Repo *loam.TypedRepository[SectionMetadata]
}

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[SectionMetadata]) *Loader {
	return &Loader{
		Repo: repo,
	}
}

// Open initializes a strict, read-only Loam repository at dir.
func Open(dir string) (*Loader, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(loam.NewTypedRepository[SectionMetadata](repo)), nil
}

type sectionDoc struct {
	order   int
	source  string
	section domain.Section
}

// Load reads every document and assembles the definition. Sections are
// ordered by their "order" key, then by id.
func (l *Loader) Load(ctx context.Context) (domain.Definition, error) {
	if err := ctx.Err(); err != nil {
		return domain.Definition{}, err
	}

	docs, err := l.Repo.List(ctx)
	if err != nil {
		return domain.Definition{}, fmt.Errorf("loam list failed: %w", err)
	}

	var (
		def      domain.Definition
		header   string
		sections []sectionDoc
		seen     = make(map[string]string)
	)

	for _, doc := range docs {
		meta := doc.Data
		switch strings.ToLower(meta.Kind) {
		case KindInterview:
			if header != "" {
				return domain.Definition{}, fmt.Errorf("interview header defined in both '%s' and '%s'", header, doc.ID)
			}
			header = doc.ID
			def.Name = meta.Name
			if err := decode(meta.Tokens, &def.Tokens); err != nil {
				return domain.Definition{}, fmt.Errorf("%s: tokens: %w", doc.ID, err)
			}
			if err := decode(meta.Messages, &def.Messages); err != nil {
				return domain.Definition{}, fmt.Errorf("%s: messages: %w", doc.ID, err)
			}

		case "", KindSection:
			id := meta.ID
			if id == "" {
				id = trimExtension(doc.ID)
			}
			if existing, ok := seen[id]; ok {
				return domain.Definition{}, fmt.Errorf("collision detected: section '%s' is defined in both '%s' and '%s'", id, existing, doc.ID)
			}
			seen[id] = doc.ID

			nodes := make([]domain.QuestionNode, 0, len(meta.Nodes))
			for i, raw := range meta.Nodes {
				var node domain.QuestionNode
				if err := decode(raw, &node); err != nil {
					return domain.Definition{}, fmt.Errorf("%s: node %d: %w", doc.ID, i, err)
				}
				nodes = append(nodes, node)
			}

			sections = append(sections, sectionDoc{
				order:  meta.Order,
				source: doc.ID,
				section: domain.Section{
					ID:    id,
					Title: meta.Title,
					Intro: strings.TrimSpace(doc.Content),
					Entry: meta.Entry,
					Nodes: nodes,
				},
			})

		default:
			return domain.Definition{}, fmt.Errorf("%s: unknown document kind %q", doc.ID, meta.Kind)
		}
	}

	sort.SliceStable(sections, func(i, j int) bool {
		if sections[i].order != sections[j].order {
			return sections[i].order < sections[j].order
		}
		return sections[i].section.ID < sections[j].section.ID
	})
	for _, s := range sections {
		def.Sections = append(def.Sections, s.section)
	}
	return def, nil
}

func decode(input any, out any) error {
	if input == nil {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}
