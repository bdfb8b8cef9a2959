package rules

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/aretw0/boletim/pkg/domain"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Input is the normalized answer handed to each rule.
type Input struct {
	// Text is the trimmed answer.
	Text string
	// Lower is Text lower-cased with Unicode case mapping.
	Lower string
}

// NewInput trims and lower-cases an answer.
func NewInput(answer string) Input {
	text := strings.TrimSpace(answer)
	return Input{Text: text, Lower: lower(text)}
}

// Rule is one compiled validation check.
type Rule interface {
	Kind() domain.RuleKind
	// Check reports whether the input satisfies the rule.
	Check(in Input) bool
	// Message is surfaced verbatim when Check fails.
	Message() string
}

// RuleSet is an ordered list of rules, combined with logical AND.
type RuleSet []Rule

// lower uses a fresh Caser per call: Casers keep state and must not be shared.
func lower(s string) string {
	return cases.Lower(language.Und).String(s)
}

type minLength struct {
	n   int
	msg string
}

func (r *minLength) Kind() domain.RuleKind { return domain.RuleMinLength }
func (r *minLength) Message() string       { return r.msg }
func (r *minLength) Check(in Input) bool {
	return utf8.RuneCountInString(in.Text) >= r.n
}

type maxLength struct {
	n   int
	msg string
}

func (r *maxLength) Kind() domain.RuleKind { return domain.RuleMaxLength }
func (r *maxLength) Message() string       { return r.msg }
func (r *maxLength) Check(in Input) bool {
	return utf8.RuneCountInString(in.Text) <= r.n
}

// keywordsAny matches substrings, not whole words, so affix variations
// ("Sgt." and "Sgt") still match.
type keywordsAny struct {
	keywords []string
	msg      string
}

func (r *keywordsAny) Kind() domain.RuleKind { return domain.RuleKeywordsAny }
func (r *keywordsAny) Message() string       { return r.msg }
func (r *keywordsAny) Check(in Input) bool {
	return containsAny(in.Lower, r.keywords)
}

// forbid rejects the phrase unless the exception predicate holds on the same answer.
type forbid struct {
	phrase    string
	unlessAny []string
	unlessRe  *regexp.Regexp
	msg       string
}

func (r *forbid) Kind() domain.RuleKind { return domain.RuleForbid }
func (r *forbid) Message() string       { return r.msg }
func (r *forbid) Check(in Input) bool {
	if !strings.Contains(in.Lower, r.phrase) {
		return true
	}
	return r.excepted(in)
}

func (r *forbid) excepted(in Input) bool {
	if len(r.unlessAny) > 0 && containsAny(in.Lower, r.unlessAny) {
		return true
	}
	if r.unlessRe != nil && r.unlessRe.MatchString(in.Text) {
		return true
	}
	return false
}

type pattern struct {
	re  *regexp.Regexp
	msg string
}

func (r *pattern) Kind() domain.RuleKind { return domain.RulePattern }
func (r *pattern) Message() string       { return r.msg }
func (r *pattern) Check(in Input) bool {
	return r.re.MatchString(in.Text)
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
