package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable the server reads
const EnvPrefix = "PDF_CONTACTS"

// LoadServerConfigWithViper loads server configuration using Viper
func LoadServerConfigWithViper(v *viper.Viper) (*Config, error) {
	// Set defaults
	setServerDefaults(v)

	// Set up environment variable binding
	setupServerEnvBinding(v)

	// Load configuration file if specified
	if err := loadConfigFile(v); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	config := unmarshalServerConfig(v)

	// Validate configuration
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setServerDefaults sets default values for server configuration
func setServerDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.trusted_proxies", []string{})

	// Database defaults
	v.SetDefault("database.path", "./database.db")

	// Logging defaults
	v.SetDefault("logging.level", "info")

	v.SetDefault("environment", EnvironmentProduction)

	// Upload defaults
	v.SetDefault("upload.scratch_dir", filepath.Join(os.TempDir(), "pdf-contacts"))
	v.SetDefault("upload.max_size", 20<<20)
	v.SetDefault("upload.rate_limit", 1.0)
	v.SetDefault("upload.burst", 5)

	// Development/testing defaults
	v.SetDefault("rate_limit.disabled", false)

	// Admin defaults
	v.SetDefault("admin.auth_disabled", false)
	v.SetDefault("admin.api_key", "")

	v.SetDefault("metrics.enabled", true)
}

// setupServerEnvBinding sets up environment variable binding for server configuration
func setupServerEnvBinding(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	envBindings := map[string]string{
		"server.port":            "SERVER_PORT",
		"server.host":            "SERVER_HOST",
		"server.trusted_proxies": "SERVER_TRUSTED_PROXIES",
		"database.path":          "DATABASE_PATH",
		"logging.level":          "LOGGING_LEVEL",
		"environment":            "ENVIRONMENT",
		"upload.scratch_dir":     "UPLOAD_SCRATCH_DIR",
		"upload.max_size":        "UPLOAD_MAX_SIZE",
		"upload.rate_limit":      "UPLOAD_RATE_LIMIT",
		"upload.burst":           "UPLOAD_BURST",
		"rate_limit.disabled":    "RATE_LIMIT_DISABLED",
		"admin.api_key":          "ADMIN_API_KEY",
		"admin.auth_disabled":    "ADMIN_AUTH_DISABLED",
		"metrics.enabled":        "METRICS_ENABLED",
	}

	for configKey, envSuffix := range envBindings {
		v.BindEnv(configKey, EnvPrefix+"_"+envSuffix)
	}
}

// loadConfigFile loads configuration file if it exists
func loadConfigFile(v *viper.Viper) error {
	// Check if a specific config file was set
	if v.ConfigFileUsed() == "" {
		// Add configuration search paths
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("$HOME/.pdf-contacts")

		// Set configuration file name (without extension)
		v.SetConfigName("config")
	}

	// Try to read config file
	if err := v.ReadInConfig(); err != nil {
		// Config file is optional, only return error if it's not a "not found" error
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
	}

	return nil
}

// unmarshalServerConfig maps Viper keys to Config fields
func unmarshalServerConfig(v *viper.Viper) *Config {
	return &Config{
		ServerPort:       v.GetString("server.port"),
		ServerHost:       v.GetString("server.host"),
		TrustedProxies:   splitList(v.GetStringSlice("server.trusted_proxies")),
		DBPath:           v.GetString("database.path"),
		LogLevel:         v.GetString("logging.level"),
		Environment:      v.GetString("environment"),
		ScratchDir:       v.GetString("upload.scratch_dir"),
		MaxUploadSize:    v.GetInt64("upload.max_size"),
		UploadRateLimit:  v.GetFloat64("upload.rate_limit"),
		UploadBurst:      v.GetInt("upload.burst"),
		DisableRateLimit: v.GetBool("rate_limit.disabled"),
		AdminAPIKey:      v.GetString("admin.api_key"),
		DisableAdminAuth: v.GetBool("admin.auth_disabled"),
		MetricsEnabled:   v.GetBool("metrics.enabled"),
	}
}

// splitList flattens comma separated entries, as found in environment
// variables, and drops empty ones
func splitList(values []string) []string {
	var out []string
	for _, value := range values {
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
	}
	return out
}

// LoadServerConfig loads server configuration using default Viper instance
func LoadServerConfig() (*Config, error) {
	return LoadServerConfigWithViper(viper.New())
}

// LoadServerConfigWithFile loads server configuration from a specific file
func LoadServerConfigWithFile(configFile string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configFile)
	return LoadServerConfigWithViper(v)
}

// LoadServerConfigWithEnvFile loads server configuration after applying a
// .env file. An empty envFile means the optional ./.env.
func LoadServerConfigWithEnvFile(envFile string) (*Config, error) {
	if envFile != "" {
		if err := LoadEnvFile(envFile); err != nil {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	} else if err := LoadEnvFile(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	return LoadServerConfig()
}
