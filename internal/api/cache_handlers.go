package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/sportmap/sportmap-enricher/internal/cache"
)

func (s *Server) registerCacheRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getCacheStats",
		Method:      http.MethodGet,
		Path:        "/api/v1/cache",
		Summary:     "Cache status",
		Description: "Returns the request budget and cached entry counts by status and reason",
		Tags:        []string{"Cache"},
	}, s.handleGetCacheStats)

	huma.Register(s.api, huma.Operation{
		OperationID: "saveCache",
		Method:      http.MethodPost,
		Path:        "/api/v1/cache/save",
		Summary:     "Save cache",
		Description: "Persists the cache immediately instead of waiting for the next checkpoint",
		Tags:        []string{"Cache"},
	}, s.handleSaveCache)
}

// CacheStatsOutput contains cache statistics.
type CacheStatsOutput struct {
	Body cache.Stats
}

// SaveCacheResponse reports a manual save.
type SaveCacheResponse struct {
	Saved int `json:"saved" doc:"Entries that were pending before the save"`
}

// SaveCacheOutput wraps the save response for Huma.
type SaveCacheOutput struct {
	Body SaveCacheResponse
}

func (s *Server) handleGetCacheStats(_ context.Context, _ *struct{}) (*CacheStatsOutput, error) {
	return &CacheStatsOutput{Body: s.service.Stats()}, nil
}

func (s *Server) handleSaveCache(ctx context.Context, _ *struct{}) (*SaveCacheOutput, error) {
	pending, err := s.service.Save(ctx)
	if err != nil {
		s.logger.Error("cache save failed", "error", err)
		return nil, huma.Error500InternalServerError("Failed to save cache")
	}
	return &SaveCacheOutput{Body: SaveCacheResponse{Saved: pending}}, nil
}
