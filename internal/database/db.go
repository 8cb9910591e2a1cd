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

package database

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// DB wraps the sql.DB connection and provides access to stores
type DB struct {
	*sql.DB
	Issues      *IssueStore
	Productions *ProductionStore
	Emails      *EmailStore
}

// Tx exposes the stores bound to a single transaction
type Tx struct {
	Issues      *IssueStore
	Productions *ProductionStore
	Emails      *EmailStore
}

// Open opens a database connection and initializes stores
func Open(dbPath string) (*DB, error) {
	// Foreign keys are a per-connection setting, so request them in the DSN
	// for every pooled connection as well as on the first one below.
	dsn := dbPath
	if !strings.Contains(dsn, "?") {
		dsn += "?_foreign_keys=on"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Enable foreign key constraints in SQLite
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	database := &DB{
		DB:          db,
		Issues:      NewIssueStore(db),
		Productions: NewProductionStore(db),
		Emails:      NewEmailStore(db),
	}

	if err := database.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return database, nil
}

// migrate creates the database schema
func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS production_issues (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		issue_number TEXT NOT NULL,
		issue_date DATE,
		file_name TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS productions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		production_issue_id INTEGER NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (production_issue_id) REFERENCES production_issues(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS emails (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		address TEXT NOT NULL,
		production_id INTEGER NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (production_id) REFERENCES productions(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_productions_issue ON productions(production_issue_id);
	CREATE INDEX IF NOT EXISTS idx_emails_production ON emails(production_id);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_emails_address ON emails(address);
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return db.migrateExtractionFields()
}

// migrateExtractionFields adds the extraction error column to existing databases
func (db *DB) migrateExtractionFields() error {
	var columnExists int
	err := db.QueryRow(`
		SELECT COUNT(*)
		FROM pragma_table_info('production_issues')
		WHERE name = 'extraction_error'
	`).Scan(&columnExists)
	if err != nil {
		return fmt.Errorf("failed to check column existence: %w", err)
	}

	if columnExists == 0 {
		query := "ALTER TABLE production_issues ADD COLUMN extraction_error TEXT"
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute migration query '%s': %w", query, err)
		}
	}

	return nil
}

// WithTx runs fn inside a transaction, committing when fn returns nil
func (db *DB) WithTx(fn func(tx *Tx) error) error {
	sqlTx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	tx := &Tx{
		Issues:      NewIssueStore(sqlTx),
		Productions: NewProductionStore(sqlTx),
		Emails:      NewEmailStore(sqlTx),
	}

	if err := fn(tx); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Reset drops every table and recreates the schema
func (db *DB) Reset() error {
	drop := `
	DROP TABLE IF EXISTS emails;
	DROP TABLE IF EXISTS productions;
	DROP TABLE IF EXISTS production_issues;
	`
	if _, err := db.Exec(drop); err != nil {
		return fmt.Errorf("failed to drop tables: %w", err)
	}
	return db.migrate()
}

// IsHealthy checks if the database connection is healthy
func (db *DB) IsHealthy() error {
	return db.Ping()
}
