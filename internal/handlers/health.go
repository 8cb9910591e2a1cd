package handlers

import (
	"net/http"

	"pdf-contacts/internal/database"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	db *database.DB
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *database.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Emails   int    `json:"emails"`
	Message  string `json:"message,omitempty"`
}

// HealthCheck handles GET /api/health. The database must answer a ping and
// a count query for the service to report healthy.
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	count, err := h.probe()
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status:   "unhealthy",
			Database: "error",
			Message:  err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:   "healthy",
		Database: "ok",
		Emails:   count,
	})
}

func (h *HealthHandler) probe() (int, error) {
	if err := h.db.IsHealthy(); err != nil {
		return 0, err
	}
	return h.db.Emails.Count()
}
