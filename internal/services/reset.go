package services

import (
	"errors"
	"fmt"
	"log/slog"

	"pdf-contacts/internal/database"
)

// EnvironmentDevelopment is the only environment that allows destructive admin operations
const EnvironmentDevelopment = "development"

// ErrResetNotAllowed is returned when a reset is requested outside development
var ErrResetNotAllowed = errors.New("database reset is only allowed in development")

// DatabaseResetter wipes all imported data
type DatabaseResetter struct {
	db          *database.DB
	environment string
	logger      *slog.Logger
}

// NewDatabaseResetter creates a resetter for the given environment
func NewDatabaseResetter(db *database.DB, environment string, logger *slog.Logger) *DatabaseResetter {
	if logger == nil {
		logger = slog.Default()
	}
	return &DatabaseResetter{db: db, environment: environment, logger: logger}
}

// Allowed reports whether resets are permitted in the configured environment
func (r *DatabaseResetter) Allowed() bool {
	return r.environment == EnvironmentDevelopment
}

// Reset drops and recreates every table
func (r *DatabaseResetter) Reset() error {
	if !r.Allowed() {
		r.logger.Warn("Database reset refused", "environment", r.environment)
		return ErrResetNotAllowed
	}

	if err := r.db.Reset(); err != nil {
		return fmt.Errorf("failed to reset database: %w", err)
	}

	r.logger.Info("Database reset", "environment", r.environment)
	return nil
}
