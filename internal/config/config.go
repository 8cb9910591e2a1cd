package config

import (
	"fmt"
	"log/slog"
	"net/netip"
	"strconv"
	"strings"
)

// Environments accepted by the "environment" key
const (
	EnvironmentDevelopment = "development"
	EnvironmentProduction  = "production"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerPort string
	ServerHost string

	// Peers allowed to set X-Forwarded-For / X-Real-IP, as addresses or CIDRs.
	// Forwarding headers from anyone else are ignored.
	TrustedProxies []string

	// Database configuration
	DBPath string

	// Logging
	LogLevel string

	// Environment gates development-only operations such as database reset
	Environment string

	// Upload handling
	ScratchDir      string
	MaxUploadSize   int64
	UploadRateLimit float64
	UploadBurst     int

	// Development/testing flags
	DisableRateLimit bool

	// Admin configuration
	AdminAPIKey      string
	DisableAdminAuth bool

	// Metrics
	MetricsEnabled bool
}

// validate checks if the configuration is valid
func (c *Config) validate() error {
	// Validate server port
	if c.ServerPort == "" {
		return fmt.Errorf("server port cannot be empty")
	}

	// Check if port is a valid number
	if _, err := strconv.Atoi(c.ServerPort); err != nil {
		return fmt.Errorf("invalid server port: %s", c.ServerPort)
	}

	if _, err := c.TrustedProxyPrefixes(); err != nil {
		return err
	}

	// Validate database path
	if c.DBPath == "" {
		return fmt.Errorf("database path cannot be empty")
	}

	// Validate log level
	validLogLevels := []string{"debug", "info", "warn", "error"}
	isValidLogLevel := false
	for _, level := range validLogLevels {
		if c.LogLevel == level {
			isValidLogLevel = true
			break
		}
	}
	if !isValidLogLevel {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	if c.Environment != EnvironmentDevelopment && c.Environment != EnvironmentProduction {
		return fmt.Errorf("invalid environment: %s (must be one of: development, production)", c.Environment)
	}

	// Validate upload limits
	if c.ScratchDir == "" {
		return fmt.Errorf("upload scratch directory cannot be empty")
	}
	if c.MaxUploadSize <= 0 {
		return fmt.Errorf("upload max size must be positive")
	}
	if !c.DisableRateLimit {
		if c.UploadRateLimit <= 0 {
			return fmt.Errorf("upload rate limit must be positive")
		}
		if c.UploadBurst < 1 {
			return fmt.Errorf("upload burst must be at least 1")
		}
	}

	// The reset endpoint only exists in development and needs a key there
	if c.IsDevelopment() && !c.DisableAdminAuth && c.AdminAPIKey == "" {
		return fmt.Errorf("admin API key is required in development unless admin auth is disabled")
	}

	return nil
}

// Address returns the full server address
func (c *Config) Address() string {
	return c.ServerHost + ":" + c.ServerPort
}

// TrustedProxyPrefixes parses TrustedProxies. A bare address is treated as
// a single-host prefix.
func (c *Config) TrustedProxyPrefixes() ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(c.TrustedProxies))
	for _, proxy := range c.TrustedProxies {
		proxy = strings.TrimSpace(proxy)
		if strings.Contains(proxy, "/") {
			prefix, err := netip.ParsePrefix(proxy)
			if err != nil {
				return nil, fmt.Errorf("invalid trusted proxy %q: %w", proxy, err)
			}
			prefixes = append(prefixes, prefix.Masked())
			continue
		}

		addr, err := netip.ParseAddr(proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", proxy, err)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

// IsDevelopment reports whether development-only operations are enabled
func (c *Config) IsDevelopment() bool {
	return c.Environment == EnvironmentDevelopment
}

// SlogLevel converts LogLevel to a slog level
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// GetDisableRateLimit returns the rate limit disable flag
func (c *Config) GetDisableRateLimit() bool {
	return c.DisableRateLimit
}

// GetUploadRateLimit returns the sustained upload rate per client in requests per second
func (c *Config) GetUploadRateLimit() float64 {
	return c.UploadRateLimit
}

// GetUploadBurst returns the number of uploads a client may make at once
func (c *Config) GetUploadBurst() int {
	return c.UploadBurst
}

// GetAdminAPIKey returns the admin API key
func (c *Config) GetAdminAPIKey() string {
	return c.AdminAPIKey
}

// GetDisableAdminAuth returns the admin auth disable flag
func (c *Config) GetDisableAdminAuth() bool {
	return c.DisableAdminAuth
}
