package api

import (
	"net"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/sportmap/sportmap-enricher/internal/ratelimit"
)

// NewRateLimiter creates a per-client limiter allowing ratePerInterval
// requests per interval with the given burst.
func NewRateLimiter(ratePerInterval int, interval time.Duration, burst int) *ratelimit.KeyedRateLimiter {
	// e.g. 20 per minute = 0.333 rps
	rps := float64(ratePerInterval) / interval.Seconds()
	return ratelimit.New(rps, burst)
}

// enrichRateLimit rejects clients that exceed the enrich limit with 429.
// Each enrich request can spend place-lookup budget.
func (s *Server) enrichRateLimit(ctx huma.Context, next func(huma.Context)) {
	if s.rateLimiter == nil {
		next(ctx)
		return
	}

	key := clientIP(ctx.RemoteAddr())
	if !s.rateLimiter.Allow(key) {
		s.logger.Warn("Rate limit exceeded",
			"ip", key,
			"path", ctx.URL().Path,
		)
		_ = huma.WriteErr(s.api, ctx, http.StatusTooManyRequests, "Too many requests. Please try again later.")
		return
	}

	next(ctx)
}

// clientIP strips the port from a remote address. RealIP middleware has
// already applied X-Forwarded-For and X-Real-IP.
func clientIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
