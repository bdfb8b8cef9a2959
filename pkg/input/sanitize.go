// Package input cleans raw answer text before it reaches the engine.
package input

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// DefaultMaxSize is 4KB, enough for a long free-text answer.
const DefaultMaxSize = 4096

var (
	ErrTooLarge    = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8 = errors.New("input contains invalid UTF-8 sequences")
)

// Sanitizer enforces a size limit, validates UTF-8, strips control
// characters and normalizes to NFC so that "não" typed with a combining
// tilde compares equal to the precomposed form.
type Sanitizer struct {
	MaxSize int
}

// New returns a sanitizer with the given limit; zero or less means DefaultMaxSize.
func New(maxSize int) Sanitizer {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return Sanitizer{MaxSize: maxSize}
}

// Clean returns the sanitized input. Oversized input is rejected, never truncated.
func (s Sanitizer) Clean(input string) (string, error) {
	limit := s.MaxSize
	if limit <= 0 {
		limit = DefaultMaxSize
	}

	// 1. Enforce Size Limit
	if len(input) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrTooLarge, len(input), limit)
	}

	// 2. Validate UTF-8
	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}

	// 3. Strip Control Characters (ESC, NUL, BEL...), keeping \n \t \r
	if strings.IndexFunc(input, unsafeControl) >= 0 {
		var b strings.Builder
		b.Grow(len(input))
		for _, r := range input {
			if !unsafeControl(r) {
				b.WriteRune(r)
			}
		}
		input = b.String()
	}

	// 4. Normalize
	return norm.NFC.String(input), nil
}

func unsafeControl(r rune) bool {
	return unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r'
}
