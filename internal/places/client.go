// Package places is a minimal client for the two-step Google Places lookup:
// resolve a place ID from free text, then fetch the place's details.
package places

import (
	"context"
	"encoding/json/v2"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the Places web service root.
	DefaultBaseURL = "https://maps.googleapis.com/maps/api/place"

	defaultTimeout  = 15 * time.Second
	defaultLanguage = "nl"

	// Template placeholder left in sample configuration files.
	placeholderMarker = "PASTE_"

	hoursSeparator = " | "
)

// Provider is the two-step lookup used by the enrichment cache.
type Provider interface {
	FindPlaceID(ctx context.Context, query string) (string, error)
	Details(ctx context.Context, placeID string) (*Details, error)
}

// Client calls the Places web service.
type Client struct {
	http    *http.Client
	apiKey  string
	baseURL string
	logger  *slog.Logger
}

// New creates a client. A non-positive timeout selects the default.
func New(apiKey string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		apiKey:  strings.TrimSpace(apiKey),
		baseURL: DefaultBaseURL,
		logger:  logger,
	}
}

// ValidKey reports whether key looks like a real credential.
func ValidKey(key string) bool {
	key = strings.TrimSpace(key)
	return key != "" && !strings.Contains(key, placeholderMarker)
}

// Configured reports whether the client has a usable credential.
func (c *Client) Configured() bool {
	return c != nil && ValidKey(c.apiKey)
}

// FindPlaceID resolves the best-matching place for a free-text query.
// It returns ErrNotFound when the provider has no candidate.
func (c *Client) FindPlaceID(ctx context.Context, query string) (string, error) {
	if !c.Configured() {
		return "", wrapError("findPlace", query, ErrNoCredential)
	}

	params := url.Values{}
	params.Set("input", query)
	params.Set("inputtype", "textquery")
	params.Set("fields", "place_id")
	params.Set("language", defaultLanguage)

	body, err := c.doRequest(ctx, "/findplacefromtext/json", params)
	if err != nil {
		return "", wrapError("findPlace", query, err)
	}

	var resp findPlaceResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", wrapError("findPlace", query, fmt.Errorf("parse response: %w", err))
	}
	if err := statusError(resp.Status, resp.ErrorMessage); err != nil {
		return "", wrapError("findPlace", query, err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].PlaceID == "" {
		return "", wrapError("findPlace", query, ErrNotFound)
	}

	return resp.Candidates[0].PlaceID, nil
}

// Details fetches website, maps URL, opening hours and name for placeID.
func (c *Client) Details(ctx context.Context, placeID string) (*Details, error) {
	if !c.Configured() {
		return nil, wrapError("details", placeID, ErrNoCredential)
	}

	params := url.Values{}
	params.Set("place_id", placeID)
	params.Set("fields", "website,url,opening_hours,name")
	params.Set("language", defaultLanguage)

	body, err := c.doRequest(ctx, "/details/json", params)
	if err != nil {
		return nil, wrapError("details", placeID, err)
	}

	var resp detailsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, wrapError("details", placeID, fmt.Errorf("parse response: %w", err))
	}
	if err := statusError(resp.Status, resp.ErrorMessage); err != nil {
		return nil, wrapError("details", placeID, err)
	}

	d := &Details{
		Website: strings.TrimSpace(resp.Result.Website),
		MapsURL: strings.TrimSpace(resp.Result.URL),
		Name:    strings.TrimSpace(resp.Result.Name),
	}
	if oh := resp.Result.OpeningHours; oh != nil {
		days := make([]string, 0, len(oh.WeekdayText))
		for _, day := range oh.WeekdayText {
			if day = strings.TrimSpace(day); day != "" {
				days = append(days, day)
			}
		}
		d.OpeningHours = strings.Join(days, hoursSeparator)
	}

	return d, nil
}

func (c *Client) doRequest(ctx context.Context, path string, params url.Values) ([]byte, error) {
	params.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	// The key is a query parameter; never log the full URL.
	c.logger.Debug("places request", "path", path)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", redactKey(err, c.apiKey))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusUnauthorized:
		return nil, ErrDenied
	case resp.StatusCode >= 500:
		return nil, ErrServer
	default:
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
}

// redactKey strips the credential from transport errors, which embed the URL.
func redactKey(err error, key string) error {
	if key == "" || !strings.Contains(err.Error(), key) {
		return err
	}
	return redactedError{msg: strings.ReplaceAll(err.Error(), key, "REDACTED"), err: err}
}

type redactedError struct {
	msg string
	err error
}

func (e redactedError) Error() string { return e.msg }
func (e redactedError) Unwrap() error { return e.err }
