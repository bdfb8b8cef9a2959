package domain

// RuleKind names the check a Rule performs.
type RuleKind string

const (
	RuleMinLength   RuleKind = "min_length"
	RuleMaxLength   RuleKind = "max_length"
	RuleKeywordsAny RuleKind = "keywords_any"
	RuleForbid      RuleKind = "forbid"
	RulePattern     RuleKind = "pattern"
)

// Rule is the declarative form of a validation rule.
// Exactly one of MinLength, MaxLength, KeywordsAny, Forbid or Pattern must be set.
//
//	rules:
//	  - min_length: 50
//	    message: "Descreva com mais detalhes."
//	  - forbid: "nada a declarar"
//	    unless_any: ["testemunha"]
//	    message: "Informe um fato concreto."
type Rule struct {
	MinLength   int      `json:"min_length,omitempty" yaml:"min_length,omitempty" mapstructure:"min_length"`
	MaxLength   int      `json:"max_length,omitempty" yaml:"max_length,omitempty" mapstructure:"max_length"`
	KeywordsAny []string `json:"keywords_any,omitempty" yaml:"keywords_any,omitempty" mapstructure:"keywords_any"`
	Forbid      string   `json:"forbid,omitempty" yaml:"forbid,omitempty" mapstructure:"forbid"`
	Pattern     string   `json:"pattern,omitempty" yaml:"pattern,omitempty" mapstructure:"pattern"`

	// UnlessAny and UnlessPattern form the exception predicate of a Forbid rule:
	// the phrase is accepted when any companion phrase is present or the pattern matches.
	UnlessAny     []string `json:"unless_any,omitempty" yaml:"unless_any,omitempty" mapstructure:"unless_any"`
	UnlessPattern string   `json:"unless_pattern,omitempty" yaml:"unless_pattern,omitempty" mapstructure:"unless_pattern"`

	// Message is surfaced verbatim when the rule fails.
	Message string `json:"message" yaml:"message" mapstructure:"message"`
}

// Kinds returns every kind configured on the rule, in a fixed order.
// A well-formed rule returns exactly one.
func (r Rule) Kinds() []RuleKind {
	var kinds []RuleKind
	if r.MinLength != 0 {
		kinds = append(kinds, RuleMinLength)
	}
	if r.MaxLength != 0 {
		kinds = append(kinds, RuleMaxLength)
	}
	if len(r.KeywordsAny) > 0 {
		kinds = append(kinds, RuleKeywordsAny)
	}
	if r.Forbid != "" {
		kinds = append(kinds, RuleForbid)
	}
	if r.Pattern != "" {
		kinds = append(kinds, RulePattern)
	}
	return kinds
}
