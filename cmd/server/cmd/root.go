// Copyright 2024 PDF Contacts
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"pdf-contacts/internal/config"
	"pdf-contacts/internal/database"
	"pdf-contacts/internal/document"
	"pdf-contacts/internal/server"
)

const (
	// Version information
	Version   = "1.0.0"
	BuildDate = "development"

	shutdownTimeout = 30 * time.Second
)

var (
	configFile string
	logFormat  string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pdf-contacts-server",
	Short: "HTTP API that extracts contact emails from uploaded PDFs",
	Long: `PDF Contacts Server v1.0.0

DESCRIPTION:
    Accepts PDF uploads, reconstructs the email addresses buried in their
    extracted text and stores every previously unseen address in SQLite.

CONFIGURATION:
    Configuration is read from config.yaml (., ./config, $HOME/.pdf-contacts),
    an optional .env file and PDF_CONTACTS_* environment variables:

        PDF_CONTACTS_SERVER_PORT         - Listen port (default: 8080)
        PDF_CONTACTS_SERVER_HOST         - Listen host (default: localhost)
        PDF_CONTACTS_DATABASE_PATH       - SQLite database (default: ./database.db)
        PDF_CONTACTS_LOGGING_LEVEL       - debug, info, warn, error (default: info)
        PDF_CONTACTS_ENVIRONMENT         - development or production (default: production)
        PDF_CONTACTS_UPLOAD_SCRATCH_DIR  - Where uploads are staged during extraction
        PDF_CONTACTS_UPLOAD_MAX_SIZE     - Largest accepted upload in bytes (default: 20MiB)
        PDF_CONTACTS_UPLOAD_RATE_LIMIT   - Uploads per second per client (default: 1)
        PDF_CONTACTS_UPLOAD_BURST        - Upload burst per client (default: 5)
        PDF_CONTACTS_RATE_LIMIT_DISABLED - Disable upload rate limiting
        PDF_CONTACTS_ADMIN_API_KEY       - Bearer token for /api/admin routes
        PDF_CONTACTS_ADMIN_AUTH_DISABLED - Serve admin routes without a token
        PDF_CONTACTS_METRICS_ENABLED     - Expose /metrics (default: true)

EXAMPLES:
    # Defaults plus ./.env if present
    pdf-contacts-server

    # Structured config file
    pdf-contacts-server --config=config.yaml

    # Development database with reset enabled
    echo "PDF_CONTACTS_ENVIRONMENT=development" > .env.dev
    echo "PDF_CONTACTS_ADMIN_API_KEY=changeme" >> .env.dev
    pdf-contacts-server --config=.env.dev --log-format=json`,
	Version:      Version,
	SilenceUsage: true,
	RunE:         runServer,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := fang.Execute(context.Background(), rootCmd); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (.env, YAML, TOML or JSON; default is ./.env plus config.yaml discovery)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log output format (text, json)")
}

// isEnvFile reports whether path names a dotenv file rather than a
// structured config file
func isEnvFile(path string) bool {
	base := filepath.Base(path)
	return strings.HasSuffix(base, ".env") || strings.HasPrefix(base, ".env") || !strings.Contains(base, ".")
}

// loadConfiguration loads configuration from files and environment variables
func loadConfiguration() (*config.Config, error) {
	var cfg *config.Config
	var err error

	switch {
	case configFile == "":
		cfg, err = config.LoadServerConfigWithEnvFile("")
	case isEnvFile(configFile):
		cfg, err = config.LoadServerConfigWithEnvFile(configFile)
	default:
		cfg, err = config.LoadServerConfigWithFile(configFile)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	return cfg, nil
}

// newLogger builds the process logger
func newLogger(format string, level slog.Level) (*slog.Logger, error) {
	opts := &slog.HandlerOptions{Level: level}
	switch format {
	case "text":
		return slog.New(slog.NewTextHandler(os.Stdout, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(os.Stdout, opts)), nil
	default:
		return nil, fmt.Errorf("invalid log format %q (must be text or json)", format)
	}
}

// runServer is the main execution function for the API server
func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfiguration()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger, err := newLogger(logFormat, cfg.SlogLevel())
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	logger.Info("Starting PDF contacts server",
		"version", Version,
		"build_date", BuildDate)

	logger.Info("Configuration loaded successfully",
		"environment", cfg.Environment,
		"rate_limit_disabled", cfg.DisableRateLimit,
		"admin_auth_disabled", cfg.DisableAdminAuth,
		"metrics_enabled", cfg.MetricsEnabled)

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		logger.Error("Failed to open database", "error", err, "path", cfg.DBPath)
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	logger.Info("Database initialized", "path", cfg.DBPath)

	router := server.NewRouter(cfg, db, document.NewPDFExtractor(logger), logger)

	srv := &http.Server{
		Addr:    cfg.Address(),
		Handler: router,

		// Uploads of large documents need a generous read window
		ReadTimeout:  2 * time.Minute,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	if err := server.HandleSignals(srv, shutdownTimeout, logger); err != nil {
		logger.Error("Server error", "error", err)
		return err
	}

	return nil
}
