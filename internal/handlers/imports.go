package handlers

import (
	"errors"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"

	"pdf-contacts/internal/database"
	"pdf-contacts/internal/ratelimit"
	"pdf-contacts/internal/services"
)

// UploadField is the multipart form field carrying the PDF
const UploadField = "pdf_file"

// multipartMemory is how much of an upload is buffered in memory before
// the multipart reader spills to disk
const multipartMemory = 8 << 20

// ImportHandler handles PDF uploads and the listing of imported documents
type ImportHandler struct {
	db            *database.DB
	importer      *services.PDFImporter
	limiter       *ratelimit.UploadLimiter
	maxUploadSize int64
	logger        *slog.Logger
}

// NewImportHandler creates a new import handler
func NewImportHandler(db *database.DB, importer *services.PDFImporter, limiter *ratelimit.UploadLimiter, maxUploadSize int64, logger *slog.Logger) *ImportHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImportHandler{
		db:            db,
		importer:      importer,
		limiter:       limiter,
		maxUploadSize: maxUploadSize,
		logger:        logger,
	}
}

// CreateImport handles POST /api/imports
func (h *ImportHandler) CreateImport(w http.ResponseWriter, r *http.Request) {
	clientIP := clientAddress(r)
	if h.limiter != nil {
		if result := h.limiter.Check(clientIP); result.ShouldBlock {
			retryAfter := int(math.Ceil(result.RemainingTime.Seconds()))
			h.logger.Warn("Upload rate limit exceeded", "client", clientIP, "retry_after", retryAfter)
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			writeError(w, http.StatusTooManyRequests, "Too many uploads, try again later")
			return
		}
	}

	if h.maxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if isTooLarge(err) {
			writeError(w, http.StatusRequestEntityTooLarge, "Uploaded file is too large")
			return
		}
		h.logger.Warn("Invalid upload form", "client", clientIP, "error", err)
		writeError(w, http.StatusBadRequest, "Expected a multipart form with a "+UploadField+" field")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(UploadField)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing "+UploadField+" field")
		return
	}
	defer file.Close()

	result, err := h.importer.Import(r.Context(), header.Filename, file)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyUpload), errors.Is(err, services.ErrNotPDF):
			writeError(w, http.StatusBadRequest, err.Error())
		case isTooLarge(err):
			writeError(w, http.StatusRequestEntityTooLarge, "Uploaded file is too large")
		default:
			h.logger.Error("Import failed", "file", header.Filename, "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to import file")
		}
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// ListImports handles GET /api/imports
func (h *ImportHandler) ListImports(w http.ResponseWriter, r *http.Request) {
	issues, err := h.db.Issues.GetAll()
	if err != nil {
		h.logger.Error("Failed to list imports", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to list imports")
		return
	}

	writeJSON(w, http.StatusOK, issues)
}

// isTooLarge reports whether err comes from an exceeded body limit
func isTooLarge(err error) bool {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return true
	}
	return strings.Contains(err.Error(), "request body too large")
}

// clientAddress returns the client IP of r. RemoteAddr already reflects
// proxy headers when the router runs chi's RealIP middleware.
func clientAddress(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
