package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/sportmap/sportmap-enricher/internal/domain"
	"github.com/sportmap/sportmap-enricher/internal/enrich"
)

func (s *Server) registerEnrichRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "enrichRecord",
		Method:      http.MethodPost,
		Path:        "/api/v1/enrich",
		Summary:     "Enrich record",
		Description: "Derives the display view of one facility record, consulting the place cache when hours or links are missing",
		Tags:        []string{"Enrich"},
		Middlewares: huma.Middlewares{s.enrichRateLimit},
	}, s.handleEnrich)
}

// EnrichInput contains a facility record as a flat JSON object.
type EnrichInput struct {
	Body map[string]any `doc:"Facility record keyed by field name (name, sport, addr_city, lat, lon, ...)"`
}

// EnrichOutput contains the derived view.
type EnrichOutput struct {
	Body enrich.View
}

func (s *Server) handleEnrich(ctx context.Context, input *EnrichInput) (*EnrichOutput, error) {
	rec, err := domain.FromMap(input.Body)
	if err != nil {
		return nil, huma.Error422UnprocessableEntity(err.Error())
	}

	if _, _, ok := rec.Coordinates(); !ok {
		return nil, huma.Error422UnprocessableEntity("record needs finite numeric lat and lon")
	}

	view := s.service.Enrich(ctx, rec)
	return &EnrichOutput{Body: view}, nil
}
