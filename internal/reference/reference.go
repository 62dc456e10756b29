// Package reference builds the set of venue names a municipality rents out
// and matches facility titles against it.
package reference

import (
	"context"
	"log/slog"
	"strings"

	"github.com/sportmap/sportmap-enricher/internal/fetch"
	"github.com/sportmap/sportmap-enricher/internal/htmltext"
	"github.com/sportmap/sportmap-enricher/internal/normalize"
)

// Set is a read-only set of canonical venue names.
type Set struct {
	names map[string]struct{}
	// stripped holds the unit-stripped form of every name.
	stripped map[string]struct{}
}

// NewSet builds a set from raw venue names. Names are normalized; empty
// results are dropped.
func NewSet(names ...string) *Set {
	s := &Set{
		names:    make(map[string]struct{}, len(names)),
		stripped: make(map[string]struct{}, len(names)),
	}
	for _, n := range names {
		canonical := normalize.Name(n)
		if canonical == "" {
			continue
		}
		s.names[canonical] = struct{}{}
		s.stripped[normalize.StripTrailingUnit(canonical)] = struct{}{}
	}
	return s
}

// Len returns the number of distinct canonical names.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.names)
}

// Contains reports whether the canonical name is in the set.
func (s *Set) Contains(canonical string) bool {
	if s == nil {
		return false
	}
	_, ok := s.names[canonical]
	return ok
}

// IsEligible reports whether title names a venue in the set.
// The title is normalized and unit-stripped, then four combinations are
// tried: exact and stripped title against the set, and exact and stripped
// title against every stripped reference name. Stripping on both sides lets
// "Sportzaal Zuid 3" match "sportzaal zuid" and vice versa.
func (s *Set) IsEligible(title string) bool {
	if s.Len() == 0 {
		return false
	}

	t := normalize.Name(title)
	if t == "" {
		return false
	}
	t2 := normalize.StripTrailingUnit(t)

	if s.Contains(t) || s.Contains(t2) {
		return true
	}
	_, exact := s.stripped[t]
	_, stripped := s.stripped[t2]
	return exact || stripped
}

// ParseOptions extracts venue names from the <option> labels of a booking
// form page. Only labels that start with one of prefixes are kept;
// placeholder labels starting with "---" are skipped.
func ParseOptions(page string, prefixes []string) (*Set, error) {
	labels, err := htmltext.OptionLabels(page)
	if err != nil {
		return nil, err
	}

	var venues []string
	for _, label := range labels {
		if label == "" || strings.HasPrefix(label, "---") {
			continue
		}
		if hasAnyPrefix(label, prefixes) {
			venues = append(venues, label)
		}
	}
	return NewSet(venues...), nil
}

// Build fetches the listing at url and parses it. Any failure yields an empty
// set, which simply matches nothing.
func Build(ctx context.Context, getter fetch.Getter, url string, prefixes []string, logger *slog.Logger) *Set {
	if url == "" {
		return NewSet()
	}
	if err := ctx.Err(); err != nil {
		logger.Warn("reference listing skipped", "url", url, "error", err)
		return NewSet()
	}

	body, err := getter.Get(ctx, url)
	if err != nil {
		logger.Warn("reference listing unavailable", "url", url, "error", err)
		return NewSet()
	}

	set, err := ParseOptions(string(body), prefixes)
	if err != nil {
		logger.Warn("reference listing unparsable", "url", url, "error", err)
		return NewSet()
	}

	logger.Debug("reference listing loaded", "url", url, "venues", set.Len())
	return set
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
