package handlers

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"pdf-contacts/internal/database"
	"pdf-contacts/internal/document"
	"pdf-contacts/internal/ratelimit"
	"pdf-contacts/internal/services"
)

// textExtractor returns fixed text for every document
type textExtractor struct {
	text string
}

func (e *textExtractor) Extract(ctx context.Context, path string) document.Extraction {
	return document.Extraction{Text: e.text, Pages: 1}
}

// limitConfig implements ratelimit.Config for testing
type limitConfig struct {
	disabled bool
	rate     float64
	burst    int
}

func (c *limitConfig) GetDisableRateLimit() bool   { return c.disabled }
func (c *limitConfig) GetUploadRateLimit() float64 { return c.rate }
func (c *limitConfig) GetUploadBurst() int         { return c.burst }

func setupTestDB(t *testing.T) *database.DB {
	tmpfile, err := os.CreateTemp("", "test_*.db")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	tmpfile.Close()

	t.Cleanup(func() {
		os.Remove(tmpfile.Name())
	})

	db, err := database.Open(tmpfile.Name())
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestImportHandler(t *testing.T, db *database.DB, text string, limits *limitConfig, maxSize int64) *ImportHandler {
	t.Helper()
	if limits == nil {
		limits = &limitConfig{disabled: true}
	}
	importer := services.NewPDFImporter(db, &textExtractor{text: text}, filepath.Join(t.TempDir(), "scratch"), testLogger())
	return NewImportHandler(db, importer, ratelimit.NewUploadLimiter(limits), maxSize, testLogger())
}

// multipartBody builds a form with one file field
func multipartBody(t *testing.T, field, fileName string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(field, fileName)
	if err != nil {
		t.Fatalf("Failed to create form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("Failed to write form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Failed to close multipart writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func newUploadRequest(t *testing.T, field, fileName string, content []byte) *http.Request {
	t.Helper()
	body, contentType := multipartBody(t, field, fileName, content)
	req, err := http.NewRequest(http.MethodPost, "/api/imports", body)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.RemoteAddr = "192.0.2.10:50000"
	return req
}
