package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// Health states.
const (
	statusHealthy  = "healthy"
	statusDegraded = "degraded"
)

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "healthCheck",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Returns server health status with component checks",
		Tags:        []string{"Health"},
	}, s.handleHealthCheck)
}

// ComponentHealth describes the health of a single component.
type ComponentHealth struct {
	Status  string `json:"status" doc:"Component status: healthy or degraded"`
	Message string `json:"message,omitempty" doc:"Additional status information"`
}

// HealthResponse contains health check data in API responses.
type HealthResponse struct {
	Status     string                     `json:"status" doc:"Overall status: healthy or degraded"`
	Components map[string]ComponentHealth `json:"components" doc:"Individual component statuses"`
}

// HealthOutput wraps the health response for Huma.
type HealthOutput struct {
	Body HealthResponse
}

// handleHealthCheck never fails: every component degrades to empty results,
// so the service keeps answering even without lookups or scraped data.
func (s *Server) handleHealthCheck(_ context.Context, _ *struct{}) (*HealthOutput, error) {
	components := map[string]ComponentHealth{
		"places":       s.checkPlaces(),
		"reference":    s.checkReference(),
		"chain_prices": s.checkChainPrices(),
	}

	overall := statusHealthy
	for _, c := range components {
		if c.Status != statusHealthy {
			overall = statusDegraded
		}
	}

	return &HealthOutput{
		Body: HealthResponse{
			Status:     overall,
			Components: components,
		},
	}, nil
}

func (s *Server) checkPlaces() ComponentHealth {
	stats := s.service.Stats()
	switch {
	case !stats.Enabled:
		return ComponentHealth{Status: statusDegraded, Message: "place lookups disabled, cache only"}
	case stats.Remaining < 2:
		return ComponentHealth{Status: statusDegraded, Message: "request budget exhausted"}
	default:
		return ComponentHealth{
			Status:  statusHealthy,
			Message: fmt.Sprintf("%d of %d requests used", stats.RequestsMade, stats.Budget),
		}
	}
}

func (s *Server) checkReference() ComponentHealth {
	n := s.service.ReferenceVenues()
	if n == 0 {
		return ComponentHealth{Status: statusDegraded, Message: "reference listing empty"}
	}
	return ComponentHealth{Status: statusHealthy, Message: formatCount(n, "venue")}
}

func (s *Server) checkChainPrices() ComponentHealth {
	found, total := s.service.ChainPrices()
	if total > 0 && found == 0 {
		return ComponentHealth{Status: statusDegraded, Message: "no chain prices found"}
	}
	return ComponentHealth{Status: statusHealthy, Message: fmt.Sprintf("%d of %d chains priced", found, total)}
}

func formatCount(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
