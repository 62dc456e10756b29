// Package fetch performs read-only GET requests against third-party web pages.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/sportmap/sportmap-enricher/internal/ratelimit"
)

const (
	// Per-host pacing: 1 request per second, burst of 2.
	defaultRPS   = 1.0
	defaultBurst = 2

	defaultTimeout = 20 * time.Second

	// Pages larger than 4 MiB are truncated before matching.
	maxBodyBytes = 4 << 20

	// UserAgent mimics a desktop browser; several sites serve empty shells to bots.
	UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64)"
)

// Sentinel errors for fetch operations.
var (
	ErrStatus     = errors.New("fetch: unexpected status")
	ErrInvalidURL = errors.New("fetch: invalid url")
)

// StatusError reports a non-200 response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: status %d", e.URL, e.Code)
}

// Is lets errors.Is(err, ErrStatus) match any StatusError.
func (e *StatusError) Is(target error) bool {
	return target == ErrStatus
}

// Getter is the read-only page source used by scrapers.
type Getter interface {
	Get(ctx context.Context, rawURL string) ([]byte, error)
}

// Client is a per-host rate-limited page fetcher.
type Client struct {
	http    *http.Client
	limiter *ratelimit.KeyedRateLimiter
	logger  *slog.Logger
}

// New creates a fetcher. A non-positive timeout selects the default.
func New(timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		limiter: ratelimit.New(defaultRPS, defaultBurst),
		logger:  logger,
	}
}

// Close releases resources held by the client.
func (c *Client) Close() {
	c.limiter.Stop()
}

// Get fetches rawURL and returns the body of a 200 response.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}

	if err := c.limiter.Wait(ctx, u.Host); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	c.logger.Debug("fetching page", "url", rawURL)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain a little so the connection can be reused.
		_, _ = io.CopyN(io.Discard, resp.Body, 4<<10)
		return nil, &StatusError{URL: rawURL, Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}
