package server

import (
	"log/slog"
	"net/http"

	"pdf-contacts/internal/config"
	"pdf-contacts/internal/database"
	"pdf-contacts/internal/document"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter builds the HTTP handler for the API server
func NewRouter(cfg *config.Config, db *database.DB, extractor document.Extractor, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	// Validated when the configuration was loaded
	proxies, _ := cfg.TrustedProxyPrefixes()

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(TrustedRealIPMiddleware(proxies))
	r.Use(LoggingMiddleware(logger))
	r.Use(RecoveryMiddleware(logger))
	r.Use(CORSMiddleware)
	r.Use(ContentTypeMiddleware)
	r.Use(SecurityMiddleware)

	NewHandlerSet(cfg, db, extractor, logger).RegisterChiRoutes(r)

	if cfg.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}
