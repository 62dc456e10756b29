package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/sportmap/sportmap-enricher/internal/api"
	"github.com/sportmap/sportmap-enricher/internal/config"
	"github.com/sportmap/sportmap-enricher/internal/enrich"
	"github.com/sportmap/sportmap-enricher/internal/logger"
	"github.com/sportmap/sportmap-enricher/internal/pipeline"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	handler *api.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	defer h.handler.Close()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server and starts it in the background.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	enricher := do.MustInvoke[*enrich.Enricher](i)
	cacheHandle := do.MustInvoke[*CacheHandle](i)
	run := do.MustInvoke[*pipeline.RunContext](i)

	apiLog := log.Component("api")
	service := api.NewService(enricher, cacheHandle.Cache, run, cfg.Enrich.CheckpointEvery, apiLog)
	handler := api.NewServer(service, api.Options{
		AllowedOrigins:  cfg.Server.AllowedOrigins,
		EnrichPerMinute: cfg.Server.EnrichPerMinute,
	}, apiLog)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv, handler: handler}, nil
}
