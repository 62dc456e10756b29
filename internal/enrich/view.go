package enrich

import (
	"github.com/sportmap/sportmap-enricher/internal/links"
)

// Sources of the final opening-hours text.
const (
	HoursFromRecord = "record"
	HoursFromPlaces = "places"
)

// Labels for links contributed by a place lookup.
const (
	LabelPlacesWebsite = "google_website"
	LabelPlacesMaps    = "google_maps"
)

// View is the derived, render-ready output for one record. It is purely
// additive: nothing in it is written back to the record.
type View struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	Subtitle     string        `json:"subtitle,omitempty"`
	AddressLine1 string        `json:"address_line1,omitempty"`
	AddressLine2 string        `json:"address_line2,omitempty"`
	City         string        `json:"city,omitempty"`
	Lat          float64       `json:"lat"`
	Lon          float64       `json:"lon"`
	OpeningHours string        `json:"opening_hours,omitempty"`
	HoursSource  string        `json:"hours_source,omitempty"`
	Links        []links.Entry `json:"links,omitempty"`
	Chain        string        `json:"chain,omitempty"`
	ChainPrice   string        `json:"chain_price,omitempty"`
	Rentable     bool          `json:"rentable"`
	Rental       *Rental       `json:"rental,omitempty"`
	Enrichment   Enrichment    `json:"enrichment"`
}

// Rental is the fixed informational block shown for municipally rentable venues.
type Rental struct {
	Provider   string `json:"provider,omitempty"`
	PriceText  string `json:"price_text,omitempty"`
	InfoURL    string `json:"info_url,omitempty"`
	BookingURL string `json:"booking_url,omitempty"`
}

// Enrichment records whether and how the place lookup contributed.
type Enrichment struct {
	NeedHours bool   `json:"need_hours"`
	NeedLinks bool   `json:"need_links"`
	Status    string `json:"status"`
	Reason    string `json:"reason,omitempty"`
}
