package database

import (
	"database/sql"
	"time"
)

// ProductionIssue represents one imported document
type ProductionIssue struct {
	ID              int          `json:"id"`
	IssueNumber     string       `json:"issue_number"`
	IssueDate       *time.Time   `json:"issue_date,omitempty"`
	FileName        string       `json:"file_name"`
	ExtractionError string       `json:"extraction_error,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
	Productions     []Production `json:"productions"`
}

// Production represents a production listed in an issue
type Production struct {
	ID                int       `json:"id"`
	Name              string    `json:"name"`
	ProductionIssueID int       `json:"production_issue_id"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
	Emails            []Email   `json:"emails"`
}

// Email represents a stored contact address. Addresses are unique across
// the whole database and stay linked to the production that first saw them.
type Email struct {
	ID           int       `json:"id"`
	Address      string    `json:"address"`
	ProductionID int       `json:"production_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IssueStore handles database operations for production issues
type IssueStore struct {
	db querier
}

// NewIssueStore creates a new issue store
func NewIssueStore(db querier) *IssueStore {
	return &IssueStore{db: db}
}

// Create inserts a new issue and fills in its ID and timestamps
func (s *IssueStore) Create(issue *ProductionIssue) error {
	query := `INSERT INTO production_issues (issue_number, issue_date, file_name, extraction_error)
			  VALUES (?, ?, ?, ?)`

	var extractionError sql.NullString
	if issue.ExtractionError != "" {
		extractionError = sql.NullString{String: issue.ExtractionError, Valid: true}
	}

	result, err := s.db.Exec(query, issue.IssueNumber, issue.IssueDate, issue.FileName, extractionError)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}

	created, err := s.GetByID(int(id))
	if err != nil {
		return err
	}

	issue.ID = created.ID
	issue.CreatedAt = created.CreatedAt
	issue.UpdatedAt = created.UpdatedAt
	return nil
}

// GetByID retrieves an issue without its productions
func (s *IssueStore) GetByID(id int) (*ProductionIssue, error) {
	query := `SELECT id, issue_number, issue_date, file_name,
			  COALESCE(extraction_error, '') as extraction_error, created_at, updated_at
			  FROM production_issues WHERE id = ?`

	var issue ProductionIssue
	err := s.db.QueryRow(query, id).Scan(
		&issue.ID, &issue.IssueNumber, &issue.IssueDate, &issue.FileName,
		&issue.ExtractionError, &issue.CreatedAt, &issue.UpdatedAt)
	if err != nil {
		return nil, err
	}

	return &issue, nil
}

// GetAll returns every issue, newest first, with productions and emails attached
func (s *IssueStore) GetAll() ([]ProductionIssue, error) {
	query := `SELECT id, issue_number, issue_date, file_name,
			  COALESCE(extraction_error, '') as extraction_error, created_at, updated_at
			  FROM production_issues
			  ORDER BY created_at DESC, id DESC`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	issues := []ProductionIssue{}
	for rows.Next() {
		var issue ProductionIssue
		err := rows.Scan(
			&issue.ID, &issue.IssueNumber, &issue.IssueDate, &issue.FileName,
			&issue.ExtractionError, &issue.CreatedAt, &issue.UpdatedAt)
		if err != nil {
			return nil, err
		}
		issues = append(issues, issue)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	productions := NewProductionStore(s.db)
	for i := range issues {
		issues[i].Productions, err = productions.GetByIssueID(issues[i].ID)
		if err != nil {
			return nil, err
		}
	}

	return issues, nil
}
