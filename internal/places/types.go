package places

// Details holds the fields the enrichment engine reads from a place.
// Empty fields mean the provider had no value.
type Details struct {
	Website      string
	MapsURL      string
	OpeningHours string // weekday descriptions joined with " | "
	Name         string
}

type findPlaceResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
	Candidates   []struct {
		PlaceID string `json:"place_id"`
	} `json:"candidates"`
}

type detailsResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
	Result       struct {
		Website      string `json:"website"`
		URL          string `json:"url"`
		Name         string `json:"name"`
		OpeningHours *struct {
			WeekdayText []string `json:"weekday_text"`
		} `json:"opening_hours"`
	} `json:"result"`
}
