// Package catalog holds the static reference data the enrichment engine runs
// against: fitness chains with their price pages, the municipal rental
// listing, and the record fields that carry links.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sportmap/sportmap-enricher/internal/validation"
)

//go:embed default.yaml
var defaultYAML []byte

// Catalog is the full reference configuration.
type Catalog struct {
	Chains    []Chain   `yaml:"chains" validate:"dive"`
	Reference Reference `yaml:"reference"`
	Links     Links     `yaml:"links"`
}

// Chain is a fitness chain recognised by keywords in a record's name or brand.
type Chain struct {
	Name      string   `yaml:"name" validate:"required"`
	Keywords  []string `yaml:"keywords" validate:"required,min=1,dive,required"`
	PriceURLs []string `yaml:"price_urls" validate:"dive,url"`
}

// Reference describes a municipality's rentable-venue listing.
type Reference struct {
	Name           string   `yaml:"name"`
	ListingURL     string   `yaml:"listing_url" validate:"omitempty,url"`
	InfoURL        string   `yaml:"info_url" validate:"omitempty,url"`
	BookingURL     string   `yaml:"booking_url" validate:"omitempty,url"`
	PriceText      string   `yaml:"price_text"`
	Prefixes       []string `yaml:"prefixes" validate:"required_with=ListingURL,dive,required"`
	Municipalities []string `yaml:"municipalities" validate:"dive,required"`
}

// Links configures link extraction.
type Links struct {
	Fields       []string `yaml:"fields" validate:"required,min=1,dive,required"`
	DisplayLimit int      `yaml:"display_limit" validate:"gte=1,lte=50"`
}

// Default returns the built-in catalog.
func Default() (*Catalog, error) {
	return Parse(defaultYAML)
}

// Load reads a catalog file. An empty path selects the built-in catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path) //#nosec G304 -- catalog path comes from operator config
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks field constraints and that chain names are unique.
func (c *Catalog) Validate() error {
	if err := validation.New().Validate(c); err != nil {
		return fmt.Errorf("invalid catalog: %w", err)
	}

	seen := make(map[string]bool, len(c.Chains))
	for _, ch := range c.Chains {
		if seen[ch.Name] {
			return fmt.Errorf("invalid catalog: duplicate chain %q", ch.Name)
		}
		seen[ch.Name] = true
	}
	return nil
}

// IsMunicipality reports whether city belongs to the reference municipality.
func (r Reference) IsMunicipality(city string) bool {
	city = strings.ToLower(strings.TrimSpace(city))
	if city == "" {
		return false
	}
	for _, m := range r.Municipalities {
		if strings.ToLower(m) == city {
			return true
		}
	}
	return false
}
