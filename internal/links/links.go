// Package links extracts outbound links from facility records and keeps them
// unique by case-insensitive URL.
package links

import (
	"regexp"
	"strings"

	"github.com/sportmap/sportmap-enricher/internal/domain"
)

// DefaultFields are the record fields that may carry links, in scan order.
var DefaultFields = []string{
	"website",
	"url",
	"contact:website",
	"contact:url",
	"contact:facebook",
	"contact:instagram",
	"contact:twitter",
	"facebook",
	"instagram",
	"twitter",
}

// A cell may hold several links separated by commas or whitespace.
var separatorRe = regexp.MustCompile(`[,\s]+`)

// Entry is a labelled absolute URL. Label is the field (or source) it came from.
type Entry struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// EnsureHTTP normalizes a raw token into an absolute URL.
// Tokens already carrying http(s):// pass through, tokens that start with
// "www." or contain a dot get https:// prepended, and anything else is
// rejected with an empty result.
func EnsureHTTP(raw string) string {
	u := strings.TrimSpace(raw)
	lower := strings.ToLower(u)
	switch {
	case u == "":
		return ""
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return u
	case strings.HasPrefix(lower, "www."), strings.Contains(u, "."):
		return "https://" + u
	default:
		return ""
	}
}

// Set is an insertion-ordered collection of entries, unique by lowercased URL.
type Set struct {
	entries []Entry
	seen    map[string]struct{}
}

// NewSet creates an empty set.
func NewSet() *Set {
	return &Set{seen: make(map[string]struct{})}
}

// Add appends an entry unless its URL is empty or already present.
// Reports whether the entry was added.
func (s *Set) Add(label, url string) bool {
	if url == "" {
		return false
	}
	key := strings.ToLower(url)
	if _, ok := s.seen[key]; ok {
		return false
	}
	s.seen[key] = struct{}{}
	s.entries = append(s.entries, Entry{Label: label, URL: url})
	return true
}

// Len returns the number of entries.
func (s *Set) Len() int {
	return len(s.entries)
}

// Entries returns a copy of the entries in first-seen order.
func (s *Set) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Extract scans fields of rec in order and returns the unique links found.
// The result may be empty.
func Extract(rec domain.Record, fields []string) *Set {
	set := NewSet()
	for _, field := range fields {
		raw := rec.Get(field)
		if raw == "" {
			continue
		}
		for _, token := range separatorRe.Split(raw, -1) {
			set.Add(field, EnsureHTTP(token))
		}
	}
	return set
}
