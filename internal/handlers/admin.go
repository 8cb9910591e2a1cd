package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"pdf-contacts/internal/services"
)

// AdminHandler handles administrative operations
type AdminHandler struct {
	resetter *services.DatabaseResetter
	logger   *slog.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(resetter *services.DatabaseResetter, logger *slog.Logger) *AdminHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminHandler{
		resetter: resetter,
		logger:   logger,
	}
}

// ResetResponse represents the response of a database reset
type ResetResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ResetDatabase handles POST /api/admin/reset
func (h *AdminHandler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.resetter.Reset(); err != nil {
		if errors.Is(err, services.ErrResetNotAllowed) {
			writeError(w, http.StatusForbidden, err.Error())
			return
		}
		h.logger.Error("Failed to reset database", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to reset database")
		return
	}

	writeJSON(w, http.StatusOK, ResetResponse{
		Status:  "reset",
		Message: "All imported data has been removed",
	})
}

// RequireResetAllowed refuses admin requests with 403 unless resets are
// permitted in the current environment
func (h *AdminHandler) RequireResetAllowed(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.resetter.Allowed() {
			h.logger.Warn("Admin request outside development", "method", r.Method, "path", r.URL.Path)
			writeError(w, http.StatusForbidden, services.ErrResetNotAllowed.Error())
			return
		}
		next.ServeHTTP(w, r)
	})
}
