package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"pdf-contacts/internal/database"
	"pdf-contacts/internal/services"
)

// uploadField is the multipart field the server reads the PDF from
const uploadField = "pdf_file"

const (
	userAgent     = "pdf-contacts-cli/1.0"
	maxRetryDelay = 5 * time.Second
)

// Client represents an HTTP client for the PDF contacts API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client

	// GET requests are retried on network errors and gateway failures
	retryCount    int
	retryDelay    time.Duration
	backoffFactor float64
}

// NewClient creates a new API client
func NewClient(baseURL string) *Client {
	return NewClientWithTimeout(baseURL, 30*time.Second)
}

// NewClientWithTimeout creates a new API client with a custom timeout
func NewClientWithTimeout(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		retryCount:    2,
		retryDelay:    250 * time.Millisecond,
		backoffFactor: 2.0,
	}
}

// WithAPIKey returns a copy of the client that sends key as a bearer token
func (c *Client) WithAPIKey(key string) *Client {
	clone := *c
	clone.apiKey = key
	return &clone
}

// APIError represents an error from the API
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"error"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.Code, e.Message)
}

// HealthStatus is the server's health report
type HealthStatus struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Emails   int    `json:"emails"`
	Message  string `json:"message,omitempty"`
}

// do sends req and turns error statuses into *APIError
func (c *Client) do(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	// Handle API errors
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()

		apiErr := APIError{Code: resp.StatusCode}
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if err := json.Unmarshal(body, &apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(body))
			if apiErr.Message == "" {
				apiErr.Message = resp.Status
			}
		}
		apiErr.Code = resp.StatusCode
		return nil, &apiErr
	}

	return resp, nil
}

// doRequest performs a request without a body. GETs are retried with
// exponential backoff.
func (c *Client) doRequest(ctx context.Context, method, path string) (*http.Response, error) {
	attempts := 1
	if method == http.MethodGet {
		attempts += c.retryCount
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("request failed: %w", ctx.Err())
			case <-time.After(c.backoffDelay(attempt - 1)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		resp, err := c.do(req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if ctx.Err() != nil || !isRetryable(err) {
			break
		}
	}
	return nil, lastErr
}

// isRetryable reports whether err is a network failure or a gateway error
func isRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		}
		return false
	}
	return true
}

// backoffDelay returns retryDelay * backoffFactor^attempt, capped
func (c *Client) backoffDelay(attempt int) time.Duration {
	multiplier := 1.0
	for i := 0; i < attempt; i++ {
		multiplier *= c.backoffFactor
	}

	delay := time.Duration(float64(c.retryDelay) * multiplier)
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}
	return delay
}

func decodeResponse[T any](resp *http.Response) (T, error) {
	defer resp.Body.Close()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		return v, fmt.Errorf("failed to decode response: %w", err)
	}
	return v, nil
}

// HealthCheck checks if the API server is healthy
func (c *Client) HealthCheck(ctx context.Context) (*HealthStatus, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/health")
	if err != nil {
		return nil, err
	}
	status, err := decodeResponse[HealthStatus](resp)
	if err != nil {
		return nil, err
	}
	return &status, nil
}

// UploadPDF sends the file at path to the import endpoint. The body is
// streamed so large documents are not held in memory.
func (c *Client) UploadPDF(ctx context.Context, path string) (*services.ImportResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	go func() {
		part, err := writer.CreateFormFile(uploadField, filepath.Base(path))
		if err == nil {
			_, err = io.Copy(part, file)
		}
		if err == nil {
			err = writer.Close()
		}
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/imports", pr)
	if err != nil {
		pr.Close()
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.do(req)
	if err != nil {
		pr.Close()
		return nil, err
	}

	result, err := decodeResponse[services.ImportResult](resp)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ListImports returns every imported document with its productions and emails
func (c *Client) ListImports(ctx context.Context) ([]database.ProductionIssue, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/imports")
	if err != nil {
		return nil, err
	}
	return decodeResponse[[]database.ProductionIssue](resp)
}

// ResetDatabase asks the server to drop all imported data
func (c *Client) ResetDatabase(ctx context.Context) error {
	resp, err := c.doRequest(ctx, http.MethodPost, "/api/admin/reset")
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}
