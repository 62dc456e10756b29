// Package domain contains the input entities shared by the enrichment engine.
package domain

import (
	"encoding/json/v2"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Field names of a facility record.
const (
	FieldID           = "id"
	FieldName         = "name"
	FieldBrand        = "brand"
	FieldSport        = "sport"
	FieldLeisure      = "leisure"
	FieldStreet       = "addr_street"
	FieldHouseNumber  = "addr_housenumber"
	FieldPostcode     = "addr_postcode"
	FieldCity         = "addr_city"
	FieldOpeningHours = "opening_hours"
	FieldLat          = "lat"
	FieldLon          = "lon"
)

// Record is a single sports-facility row keyed by field name.
// The engine treats records as read-only; enrichment output is a separate value.
type Record map[string]string

// Get returns the trimmed value of a field.
// Missing fields and spreadsheet "nan" placeholders read as empty.
func (r Record) Get(field string) string {
	v := strings.TrimSpace(r[field])
	if strings.EqualFold(v, "nan") {
		return ""
	}
	return v
}

// ID returns the record identity: the explicit id field, or "lat,lon" when absent.
func (r Record) ID() string {
	if id := r.Get(FieldID); id != "" {
		return id
	}
	lat, lon := r.Get(FieldLat), r.Get(FieldLon)
	if lat == "" && lon == "" {
		return ""
	}
	return lat + "," + lon
}

// Coordinates parses lat/lon. ok is false when either is missing, malformed
// or not finite.
func (r Record) Coordinates() (lat, lon float64, ok bool) {
	lat, errLat := strconv.ParseFloat(r.Get(FieldLat), 64)
	lon, errLon := strconv.ParseFloat(r.Get(FieldLon), 64)
	if errLat != nil || errLon != nil || !finite(lat) || !finite(lon) {
		return 0, 0, false
	}
	return lat, lon, true
}

func finite(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f)
}

// UnmarshalJSON accepts any flat JSON object; see FromMap for value handling.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out, err := FromMap(raw)
	if err != nil {
		return err
	}
	*r = out
	return nil
}

// FromMap converts a decoded JSON object into a Record. Numbers and booleans
// are kept in their textual form and null reads as empty. Nested values are
// rejected.
func FromMap(raw map[string]any) (Record, error) {
	out := make(Record, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case nil:
			out[k] = ""
		case string:
			out[k] = val
		case float64:
			out[k] = strconv.FormatFloat(val, 'f', -1, 64)
		case bool:
			out[k] = strconv.FormatBool(val)
		default:
			return nil, fmt.Errorf("field %q: unsupported value type %T", k, v)
		}
	}
	return out, nil
}
