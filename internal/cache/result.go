package cache

import (
	"fmt"
)

// Status is the outcome of enriching a key.
type Status uint8

const (
	// StatusNotAttempted means no lookup has happened for the key. It is the
	// zero value and is never persisted.
	StatusNotAttempted Status = iota
	// StatusNotFound is a cached negative: the key will not be looked up again.
	StatusNotFound
	// StatusFound means a live lookup returned place details.
	StatusFound
)

var statusNames = map[Status]string{
	StatusNotAttempted: "not_attempted",
	StatusNotFound:     "not_found",
	StatusFound:        "found",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", uint8(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	name, ok := statusNames[s]
	if !ok {
		return nil, fmt.Errorf("unknown status %d", uint8(s))
	}
	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	for status, name := range statusNames {
		if name == string(text) {
			*s = status
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", text)
}

// Reason explains a negative result.
type Reason string

const (
	ReasonNone            Reason = ""
	ReasonNoCandidate     Reason = "no_candidate"     // provider found no place
	ReasonDetailsFailed   Reason = "details_failed"   // details step failed
	ReasonLookupFailed    Reason = "lookup_failed"    // identifier step failed
	ReasonBudgetExhausted Reason = "budget_exhausted" // no call budget left
	ReasonDisabled        Reason = "disabled"         // no usable credential
)

// Persistent reports whether negatives with this reason survive the run.
// Budget and credential negatives describe this run's configuration, not the
// place, so a later run with more budget may try again.
func (r Reason) Persistent() bool {
	return r != ReasonBudgetExhausted && r != ReasonDisabled
}

// Result is the cached outcome for one title|city key. Absent fields mean
// "not found", never an error.
type Result struct {
	Status       Status `json:"status"`
	Reason       Reason `json:"reason,omitempty"`
	Website      string `json:"website,omitempty"`
	MapsURL      string `json:"gmaps_url,omitempty"`
	OpeningHours string `json:"opening_hours,omitempty"`
	Name         string `json:"name,omitempty"`
}

// Found reports whether the result came from a successful lookup.
func (r Result) Found() bool {
	return r.Status == StatusFound
}

func notFound(reason Reason) Result {
	return Result{Status: StatusNotFound, Reason: reason}
}

// legacyStatus fills in the status of entries written before statuses were
// stored: an empty object was a cached negative, anything else a hit.
func (r *Result) legacyStatus() {
	if r.Status != StatusNotAttempted {
		return
	}
	if r.Website == "" && r.MapsURL == "" && r.OpeningHours == "" && r.Name == "" {
		r.Status = StatusNotFound
		return
	}
	r.Status = StatusFound
}
