package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdf-contacts/internal/config"
	"pdf-contacts/internal/database"
	"pdf-contacts/internal/document"
	"pdf-contacts/internal/services"
)

const adminKey = "test-admin-key"

// textExtractor returns fixed text for every document
type textExtractor struct {
	text string
}

func (e *textExtractor) Extract(ctx context.Context, path string) document.Extraction {
	return document.Extraction{Text: e.text, Pages: 1}
}

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		ServerPort:       "8080",
		ServerHost:       "localhost",
		DBPath:           filepath.Join(t.TempDir(), "unused.db"),
		LogLevel:         "info",
		Environment:      config.EnvironmentDevelopment,
		ScratchDir:       filepath.Join(t.TempDir(), "scratch"),
		MaxUploadSize:    1 << 20,
		DisableRateLimit: true,
		AdminAPIKey:      adminKey,
		MetricsEnabled:   true,
	}
}

// setupTestServer creates a test server backed by a temporary database
func setupTestServer(t *testing.T, cfg *config.Config, text string) (*httptest.Server, *database.DB) {
	tmpfile, err := os.CreateTemp("", "test_*.db")
	require.NoError(t, err)
	tmpfile.Close()
	t.Cleanup(func() { os.Remove(tmpfile.Name()) })

	db, err := database.Open(tmpfile.Name())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	server := httptest.NewServer(NewRouter(cfg, db, &textExtractor{text: text}, discardLogger()))
	t.Cleanup(server.Close)

	return server, db
}

func uploadPDF(t *testing.T, client *http.Client, url, fileName string) *http.Response {
	t.Helper()
	return uploadPDFWithHeaders(t, client, url, fileName, nil)
}

func uploadPDFWithHeaders(t *testing.T, client *http.Client, url, fileName string, headers map[string]string) *http.Response {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("pdf_file", fileName)
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4\nbody\n"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req, err := http.NewRequest(http.MethodPost, url+"/api/imports", body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := client.Do(req)
	require.NoError(t, err)
	return resp
}

func resetRequest(t *testing.T, url, key string) *http.Request {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url+"/api/admin/reset", nil)
	require.NoError(t, err)
	if key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}
	return req
}

func TestIntegrationWorkflow(t *testing.T) {
	text := "Issue 1468\nJane Roe 310-633-2905jane@example.com\nSONY@example.com\nbob@studio.org"
	server, db := setupTestServer(t, testConfig(t), text)
	client := server.Client()

	// 1. Empty list
	resp, err := client.Get(server.URL + "/api/imports")
	require.NoError(t, err)
	var issues []database.ProductionIssue
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&issues))
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, issues)

	// 2. Upload
	resp = uploadPDF(t, client, server.URL, "call-sheet.pdf")
	var result services.ImportResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "1468", result.IssueNumber)
	assert.Equal(t, []string{"jane@example.com", "bob@studio.org"}, result.Emails)
	assert.Equal(t, 2, result.Stored)

	// 3. Second upload of the same document stores nothing new
	resp = uploadPDF(t, client, server.URL, "call-sheet.pdf")
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, 0, result.Stored)
	assert.Equal(t, 2, result.Skipped)

	// 4. Listing shows both imports
	resp, err = client.Get(server.URL + "/api/imports")
	require.NoError(t, err)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&issues))
	resp.Body.Close()
	assert.Len(t, issues, 2)

	// 5. Health reports the stored addresses
	resp, err = client.Get(server.URL + "/api/health")
	require.NoError(t, err)
	var health map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, float64(2), health["emails"])

	// 6. Reset with the admin key
	resp, err = client.Do(resetRequest(t, server.URL, adminKey))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	count, err := db.Emails.Count()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestRouter_SecurityHeaders(t *testing.T) {
	server, _ := setupTestServer(t, testConfig(t), "")

	resp, err := server.Client().Get(server.URL + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}

func TestRouter_AdminAuth(t *testing.T) {
	server, _ := setupTestServer(t, testConfig(t), "")
	client := server.Client()

	tests := []struct {
		name       string
		key        string
		wantStatus int
	}{
		{"No key", "", http.StatusUnauthorized},
		{"Wrong key", "nope", http.StatusUnauthorized},
		{"Correct key", adminKey, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := client.Do(resetRequest(t, server.URL, tt.key))
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestRouter_AdminAuthDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.AdminAPIKey = ""
	cfg.DisableAdminAuth = true
	server, _ := setupTestServer(t, cfg, "")

	resp, err := server.Client().Do(resetRequest(t, server.URL, ""))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouter_ResetForbiddenOutsideDevelopment(t *testing.T) {
	cfg := testConfig(t)
	cfg.Environment = config.EnvironmentProduction
	server, _ := setupTestServer(t, cfg, "")

	// Forbidden even with a valid key
	resp, err := server.Client().Do(resetRequest(t, server.URL, adminKey))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestRouter_Metrics(t *testing.T) {
	server, _ := setupTestServer(t, testConfig(t), "Issue 1234 jane@example.com")

	resp := uploadPDF(t, server.Client(), server.URL, "a.pdf")
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err := server.Client().Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "pdf_contacts_import_imports_total")
}

func TestRouter_MetricsDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.MetricsEnabled = false
	server, _ := setupTestServer(t, cfg, "")

	resp, err := server.Client().Get(server.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func rateLimitedConfig(t *testing.T) *config.Config {
	cfg := testConfig(t)
	cfg.DisableRateLimit = false
	cfg.UploadRateLimit = 0.001
	cfg.UploadBurst = 1
	return cfg
}

func TestRouter_UploadLimitIgnoresForwardingHeaders(t *testing.T) {
	server, _ := setupTestServer(t, rateLimitedConfig(t), "jane@example.com")
	client := server.Client()

	spoofed := []map[string]string{
		{"X-Forwarded-For": "10.0.0.1"},
		{"X-Forwarded-For": "10.0.0.2"},
		{"X-Real-IP": "10.0.0.3"},
		{"X-Forwarded-For": "10.0.0.4, 10.0.0.5"},
	}

	for i, headers := range spoofed {
		resp := uploadPDFWithHeaders(t, client, server.URL, "a.pdf", headers)
		resp.Body.Close()

		want := http.StatusTooManyRequests
		if i == 0 {
			want = http.StatusCreated
		}
		assert.Equal(t, want, resp.StatusCode, "upload %d with %v", i, headers)
	}
}

func TestRouter_UploadLimitHonorsTrustedProxy(t *testing.T) {
	cfg := rateLimitedConfig(t)
	// httptest servers listen on the loopback address
	cfg.TrustedProxies = []string{"127.0.0.0/8", "::1"}
	server, _ := setupTestServer(t, cfg, "jane@example.com")
	client := server.Client()

	for _, ip := range []string{"10.0.0.1", "10.0.0.2"} {
		resp := uploadPDFWithHeaders(t, client, server.URL, "a.pdf", map[string]string{"X-Forwarded-For": ip})
		resp.Body.Close()
		assert.Equal(t, http.StatusCreated, resp.StatusCode, "client %s", ip)
	}

	resp := uploadPDFWithHeaders(t, client, server.URL, "a.pdf", map[string]string{"X-Forwarded-For": "10.0.0.1"})
	resp.Body.Close()
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}
