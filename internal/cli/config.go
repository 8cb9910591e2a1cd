package cli

import (
	"fmt"
	"strings"
	"time"
)

// Config holds CLI configuration
type Config struct {
	ServerURL      string        `json:"server_url"`
	Format         string        `json:"format"`
	Quiet          bool          `json:"quiet"`
	NoColor        bool          `json:"no_color"`
	RequestTimeout time.Duration `json:"request_timeout"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		ServerURL:      "http://localhost:8080",
		Format:         "table",
		Quiet:          false,
		RequestTimeout: 60 * time.Second,
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	serverURL := strings.TrimSpace(c.ServerURL)
	if serverURL == "" {
		return fmt.Errorf("server URL cannot be empty")
	}
	if !strings.HasPrefix(serverURL, "http://") && !strings.HasPrefix(serverURL, "https://") {
		return fmt.Errorf("invalid server URL format: %s", c.ServerURL)
	}

	validFormats := []string{"table", "json"}
	isValidFormat := false
	for _, format := range validFormats {
		if c.Format == format {
			isValidFormat = true
			break
		}
	}
	if !isValidFormat {
		return fmt.Errorf("invalid format: %s (must be one of: table, json)", c.Format)
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}

	return nil
}
