package price

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultPattern matches Dutch membership prices such as "vanaf €29,99 per maand"
// or "€ 7/week": a euro amount followed by a billing period.
const DefaultPattern = `(?i)(vanaf\s*)?€\s?\d{1,3}(?:[.,]\d{2})?\s*(?:per|/)\s*(?:4\s*weken|maand|week|jaar|dagen|dag|bezoek|bezoeken)`

// Extractor finds a price string in text. It returns "" when nothing matches.
type Extractor interface {
	Extract(text string) string
}

// RegexExtractor returns the first regex match with whitespace collapsed.
type RegexExtractor struct {
	re *regexp.Regexp
}

// NewRegexExtractor compiles pattern into an extractor.
func NewRegexExtractor(pattern string) (*RegexExtractor, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compile price pattern: %w", err)
	}
	return &RegexExtractor{re: re}, nil
}

// DefaultExtractor returns an extractor for DefaultPattern.
func DefaultExtractor() *RegexExtractor {
	return &RegexExtractor{re: regexp.MustCompile(DefaultPattern)}
}

// Extract implements Extractor.
func (e *RegexExtractor) Extract(text string) string {
	m := e.re.FindString(text)
	if m == "" {
		return ""
	}
	return strings.Join(strings.Fields(m), " ")
}
