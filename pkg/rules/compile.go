package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/aretw0/boletim/pkg/domain"
)

// Default messages used when a rule omits its own.
const (
	MsgAnswerRequired = "Por favor, forneça uma resposta."
	msgMinLength      = "A resposta deve ter pelo menos %d caracteres."
	msgMaxLength      = "A resposta deve ter no máximo %d caracteres."
	msgKeywordsAny    = "A resposta deve mencionar pelo menos um destes termos: %s."
	msgForbid         = "A resposta não pode conter a expressão %q."
	msgPattern        = "A resposta não está no formato esperado."
)

// Compile turns declarative rules into a RuleSet.
// It fails on any misconfiguration, so a compiled set never errors at evaluation time.
func Compile(defs []domain.Rule) (RuleSet, error) {
	set := make(RuleSet, 0, len(defs))
	for i, def := range defs {
		r, err := compileOne(def)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		set = append(set, r)
	}
	return set, nil
}

func compileOne(def domain.Rule) (Rule, error) {
	kinds := def.Kinds()
	switch len(kinds) {
	case 0:
		return nil, fmt.Errorf("no rule kind configured")
	case 1:
	default:
		return nil, fmt.Errorf("ambiguous rule: %v are all set", kinds)
	}

	hasException := len(def.UnlessAny) > 0 || def.UnlessPattern != ""
	if hasException && kinds[0] != domain.RuleForbid {
		return nil, fmt.Errorf("unless_any/unless_pattern only apply to %s rules", domain.RuleForbid)
	}

	switch kinds[0] {
	case domain.RuleMinLength:
		if def.MinLength < 0 {
			return nil, fmt.Errorf("min_length must be positive, got %d", def.MinLength)
		}
		return &minLength{n: def.MinLength, msg: orDefault(def.Message, fmt.Sprintf(msgMinLength, def.MinLength))}, nil

	case domain.RuleMaxLength:
		if def.MaxLength < 0 {
			return nil, fmt.Errorf("max_length must be positive, got %d", def.MaxLength)
		}
		return &maxLength{n: def.MaxLength, msg: orDefault(def.Message, fmt.Sprintf(msgMaxLength, def.MaxLength))}, nil

	case domain.RuleKeywordsAny:
		keywords, err := normalizeTerms(def.KeywordsAny)
		if err != nil {
			return nil, fmt.Errorf("keywords_any: %w", err)
		}
		return &keywordsAny{
			keywords: keywords,
			msg:      orDefault(def.Message, fmt.Sprintf(msgKeywordsAny, strings.Join(def.KeywordsAny, ", "))),
		}, nil

	case domain.RuleForbid:
		phrase := lower(strings.TrimSpace(def.Forbid))
		if phrase == "" {
			return nil, fmt.Errorf("forbid: phrase is blank")
		}
		r := &forbid{phrase: phrase, msg: orDefault(def.Message, fmt.Sprintf(msgForbid, def.Forbid))}
		if len(def.UnlessAny) > 0 {
			terms, err := normalizeTerms(def.UnlessAny)
			if err != nil {
				return nil, fmt.Errorf("unless_any: %w", err)
			}
			r.unlessAny = terms
		}
		if def.UnlessPattern != "" {
			re, err := regexp.Compile(def.UnlessPattern)
			if err != nil {
				return nil, fmt.Errorf("unless_pattern: %w", err)
			}
			r.unlessRe = re
		}
		return r, nil

	case domain.RulePattern:
		re, err := regexp.Compile(def.Pattern)
		if err != nil {
			return nil, fmt.Errorf("pattern: %w", err)
		}
		return &pattern{re: re, msg: orDefault(def.Message, msgPattern)}, nil
	}

	return nil, fmt.Errorf("unsupported rule kind %q", kinds[0])
}

func normalizeTerms(terms []string) ([]string, error) {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		clean := lower(strings.TrimSpace(t))
		if clean == "" {
			return nil, fmt.Errorf("blank term")
		}
		out = append(out, clean)
	}
	return out, nil
}

func orDefault(msg, fallback string) string {
	if strings.TrimSpace(msg) == "" {
		return fallback
	}
	return msg
}
