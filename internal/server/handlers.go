package server

import (
	"log/slog"
	"net/http"

	"pdf-contacts/internal/config"
	"pdf-contacts/internal/database"
	"pdf-contacts/internal/document"
	"pdf-contacts/internal/handlers"
	"pdf-contacts/internal/ratelimit"
	"pdf-contacts/internal/services"

	"github.com/go-chi/chi/v5"
)

// HandlerSet groups the HTTP handlers served by the API
type HandlerSet struct {
	imports *handlers.ImportHandler
	health  *handlers.HealthHandler
	admin   *handlers.AdminHandler

	authKey     string
	disableAuth bool
	logger      *slog.Logger
}

// NewHandlerSet wires the handlers and the services behind them
func NewHandlerSet(cfg *config.Config, db *database.DB, extractor document.Extractor, logger *slog.Logger) *HandlerSet {
	importer := services.NewPDFImporter(db, extractor, cfg.ScratchDir, logger)
	limiter := ratelimit.NewUploadLimiter(cfg)
	resetter := services.NewDatabaseResetter(db, cfg.Environment, logger)

	return &HandlerSet{
		imports:     handlers.NewImportHandler(db, importer, limiter, cfg.MaxUploadSize, logger),
		health:      handlers.NewHealthHandler(db),
		admin:       handlers.NewAdminHandler(resetter, logger),
		authKey:     cfg.GetAdminAPIKey(),
		disableAuth: cfg.GetDisableAdminAuth(),
		logger:      logger,
	}
}

// RegisterChiRoutes registers all API routes with a chi router
func (hs *HandlerSet) RegisterChiRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/imports", hs.imports.CreateImport)
		r.Get("/imports", hs.imports.ListImports)

		r.Get("/health", hs.health.HealthCheck)

		// The environment check runs before authentication
		admin := []Middleware{hs.admin.RequireResetAllowed}
		if !hs.disableAuth {
			admin = append(admin, AuthMiddleware(hs.authKey, hs.logger))
		}
		r.Method(http.MethodPost, "/admin/reset", Chain(http.HandlerFunc(hs.admin.ResetDatabase), admin...))
	})
}
