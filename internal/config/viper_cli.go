package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/viper"

	"pdf-contacts/internal/cli"
)

// CLIConfigFileName is the optional per-user CLI config file in $HOME
const CLIConfigFileName = ".pdf-contacts.json"

// LoadCLIConfigWithViper loads CLI configuration using Viper
func LoadCLIConfigWithViper(v *viper.Viper) (*cli.Config, error) {
	// Set defaults
	setCLIDefaults(v)

	// Set up environment variable binding
	setupCLIEnvBinding(v)

	// Load configuration file if specified
	if err := loadCLIConfigFile(v); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	config, err := unmarshalCLIConfig(v)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setCLIDefaults sets default values for CLI configuration
func setCLIDefaults(v *viper.Viper) {
	defaults := cli.DefaultConfig()
	v.SetDefault("server_url", defaults.ServerURL)
	v.SetDefault("format", defaults.Format)
	v.SetDefault("quiet", defaults.Quiet)
	v.SetDefault("no_color", false)
	v.SetDefault("request_timeout", defaults.RequestTimeout.String())
}

// setupCLIEnvBinding sets up environment variable binding for CLI configuration
func setupCLIEnvBinding(v *viper.Viper) {
	envBindings := map[string]string{
		"server_url":      "SERVER",
		"format":          "FORMAT",
		"quiet":           "QUIET",
		"request_timeout": "TIMEOUT",
	}

	for configKey, envSuffix := range envBindings {
		v.BindEnv(configKey, EnvPrefix+"_"+envSuffix)
	}

	// The NO_COLOR convention is honored as well
	v.BindEnv("no_color", EnvPrefix+"_NO_COLOR", "NO_COLOR")
}

// loadCLIConfigFile reads ~/.pdf-contacts.json unless a file was set explicitly
func loadCLIConfigFile(v *viper.Viper) error {
	if v.ConfigFileUsed() == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		path := filepath.Join(homeDir, CLIConfigFileName)
		if _, err := os.Stat(path); err != nil {
			// Config file is optional
			return nil
		}
		v.SetConfigFile(path)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
	}

	return nil
}

// unmarshalCLIConfig maps Viper keys to the CLI Config struct
func unmarshalCLIConfig(v *viper.Viper) (*cli.Config, error) {
	config := &cli.Config{
		ServerURL: v.GetString("server_url"),
		Format:    v.GetString("format"),
		Quiet:     v.GetBool("quiet"),
		NoColor:   v.GetBool("no_color"),
	}

	// Timeout is either a duration string or a number of seconds
	timeoutStr := v.GetString("request_timeout")
	if duration, err := time.ParseDuration(timeoutStr); err == nil {
		config.RequestTimeout = duration
	} else if seconds, err := strconv.Atoi(timeoutStr); err == nil {
		config.RequestTimeout = time.Duration(seconds) * time.Second
	} else {
		return nil, fmt.Errorf("invalid request timeout: %s", timeoutStr)
	}

	return config, nil
}

// LoadCLIConfig loads CLI configuration using default Viper instance
func LoadCLIConfig() (*cli.Config, error) {
	return LoadCLIConfigWithViper(viper.New())
}

// LoadCLIConfigWithFile loads CLI configuration from a specific file
func LoadCLIConfigWithFile(configFile string) (*cli.Config, error) {
	v := viper.New()
	v.SetConfigFile(configFile)
	return LoadCLIConfigWithViper(v)
}
