// Package id generates identifiers for enrichment runs and API requests.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes for generated identifiers.
const (
	PrefixRun     = "run"
	PrefixRequest = "req"
)

// alphabet keeps identifiers readable in log lines and file names.
const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// Length is the number of random characters after the prefix.
const Length = 12

// Generate creates a prefixed identifier, e.g. "run-4f9k2m0qz7xa".
// Returns an error if the system has insufficient entropy.
func Generate(prefix string) (string, error) {
	s, err := gonanoid.Generate(alphabet, Length)
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + s, nil
}

// MustGenerate is like Generate but panics if generation fails.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}
