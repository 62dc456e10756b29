// Package normalize canonicalizes free-text facility names so that names coming
// from different sources can be compared.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// Typographic apostrophes and modifier letters that should read as '.
	apostropheReplacer = strings.NewReplacer("’", "'", "‘", "'", "ʼ", "'")
	// Anything that is not a lowercase ASCII letter, digit or whitespace.
	nonCanonicalRe = regexp.MustCompile(`[^a-z0-9\s]+`)
	// One or more trailing unit tokens such as " 3", " 12b" or " 3 4".
	trailingUnitRe = regexp.MustCompile(`(?:\s+\d+[a-z]?)+$`)
)

// Name converts text to its canonical comparison form.
//
// Rules:
//  1. Lowercase and fold diacritics ("Café" → "cafe")
//  2. Map typographic apostrophes to '
//  3. Replace everything outside [a-z0-9] and whitespace with a space
//  4. Collapse whitespace and trim
//
// Examples:
//
//	"Sporthal  De Dreef"   → "sporthal de dreef"
//	"Gymzaal Zuid-Oost 3a" → "gymzaal zuid oost 3a"
//	"Sportzaal ’t Hoogt"   → "sportzaal t hoogt"
//
// Name is total: the empty string maps to the empty string.
func Name(text string) string {
	if text == "" {
		return ""
	}

	s := foldDiacritics(strings.ToLower(text))
	s = apostropheReplacer.Replace(s)
	s = nonCanonicalRe.ReplaceAllString(s, " ")

	return strings.Join(strings.Fields(s), " ")
}

// StripTrailingUnit removes trailing unit numbers from a canonical name, so
// numbered sub-venues match their parent venue ("sportzaal zuid 3a" → "sportzaal zuid").
// A name that consists of a single unit token is returned unchanged.
func StripTrailingUnit(canonical string) string {
	return strings.TrimSpace(trailingUnitRe.ReplaceAllString(canonical, ""))
}

// CacheKey returns the canonical "title|city" key used by the enrichment cache.
// The separator is normalized away like any other punctuation.
func CacheKey(title, city string) string {
	return Name(title + "|" + city)
}

// foldDiacritics strips combining marks after canonical decomposition.
func foldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}
