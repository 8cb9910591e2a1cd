package cli

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdf-contacts/internal/database"
	"pdf-contacts/internal/services"
)

func TestNewClient(t *testing.T) {
	client := NewClient("http://example.com/")

	assert.Equal(t, "http://example.com", client.baseURL)
	assert.Equal(t, 30*time.Second, client.httpClient.Timeout)
}

func TestNewClientWithTimeout(t *testing.T) {
	client := NewClientWithTimeout("http://example.com", 90*time.Second)

	assert.Equal(t, "http://example.com", client.baseURL)
	assert.Equal(t, 90*time.Second, client.httpClient.Timeout)
}

func TestHealthCheck_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/health", r.URL.Path)
		w.Write([]byte(`{"status":"healthy","database":"ok","emails":3}`))
	}))
	defer server.Close()

	status, err := NewClient(server.URL).HealthCheck(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "healthy", status.Status)
	assert.Equal(t, 3, status.Emails)
}

func TestHealthCheck_Error(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"unhealthy","database":"error"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	client.retryDelay = time.Millisecond

	_, err := client.HealthCheck(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.Code)
	assert.Equal(t, int32(3), attempts.Load(), "one request plus two retries")
}

func TestListImports_RetriesGatewayErrors(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	client.retryDelay = time.Millisecond

	issues, err := client.ListImports(context.Background())
	require.NoError(t, err)
	assert.Empty(t, issues)
	assert.Equal(t, int32(2), attempts.Load())
}

func TestResetDatabase_NotRetried(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	client.retryDelay = time.Millisecond

	require.Error(t, client.ResetDatabase(context.Background()))
	assert.Equal(t, int32(1), attempts.Load())
}

func TestBackoffDelay(t *testing.T) {
	client := NewClient("http://example.com")

	assert.Equal(t, 250*time.Millisecond, client.backoffDelay(0))
	assert.Equal(t, 500*time.Millisecond, client.backoffDelay(1))
	assert.Equal(t, time.Second, client.backoffDelay(2))
	assert.Equal(t, maxRetryDelay, client.backoffDelay(10))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, isRetryable(errors.New("connection refused")))
	assert.True(t, isRetryable(&APIError{Code: http.StatusGatewayTimeout}))
	assert.False(t, isRetryable(&APIError{Code: http.StatusInternalServerError}))
	assert.False(t, isRetryable(&APIError{Code: http.StatusNotFound}))
}

func TestAPIError_Messages(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		wantMessage string
	}{
		{"JSON error body", "application/json", `{"error":"Missing pdf_file field"}`, "Missing pdf_file field"},
		{"Plain text body", "text/plain", "Unauthorized\n", "Unauthorized"},
		{"Empty body", "text/plain", "", "400 Bad Request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewClient(server.URL).ListImports(context.Background())

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, http.StatusBadRequest, apiErr.Code)
			assert.Equal(t, tt.wantMessage, apiErr.Message)
		})
	}
}

func TestUploadPDF(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "call-sheet.pdf")
	content := []byte("%PDF-1.4\nfake document\n")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/imports", r.URL.Path)

		file, header, err := r.FormFile("pdf_file")
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		got, _ := io.ReadAll(file)
		assert.Equal(t, content, got)
		assert.Equal(t, "call-sheet.pdf", header.Filename)

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(services.ImportResult{
			IssueID:     7,
			IssueNumber: "1468",
			FileName:    header.Filename,
			Emails:      []string{"jane@example.com"},
			Extracted:   1,
			Stored:      1,
		})
	}))
	defer server.Close()

	result, err := NewClient(server.URL).UploadPDF(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 7, result.IssueID)
	assert.Equal(t, "1468", result.IssueNumber)
	assert.Equal(t, []string{"jane@example.com"}, result.Emails)
}

func TestUploadPDF_MissingFile(t *testing.T) {
	_, err := NewClient("http://127.0.0.1:1").UploadPDF(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestUploadPDF_Rejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4\n"), 0o644))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":"Too many uploads, try again later"}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL).UploadPDF(context.Background(), path)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.Code)
	assert.Contains(t, apiErr.Error(), "Too many uploads")
}

func TestListImports(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/imports", r.URL.Path)
		json.NewEncoder(w).Encode([]database.ProductionIssue{
			{
				ID:          1,
				IssueNumber: "1468",
				FileName:    "a.pdf",
				Productions: []database.Production{
					{ID: 1, Name: "Extracted Production Name", Emails: []database.Email{{ID: 1, Address: "jane@example.com"}}},
				},
			},
		})
	}))
	defer server.Close()

	issues, err := NewClient(server.URL).ListImports(context.Background())
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "jane@example.com", issues[0].Productions[0].Emails[0].Address)
}

func TestResetDatabase_SendsAPIKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/admin/reset", r.URL.Path)
		if r.Header.Get("Authorization") != "Bearer secret" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"status":"reset"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)

	err := client.ResetDatabase(context.Background())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Code)

	assert.NoError(t, client.WithAPIKey("secret").ResetDatabase(context.Background()))
	assert.Empty(t, client.apiKey, "WithAPIKey must not modify the original client")
}

func TestClient_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient(server.URL).ListImports(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
