package database

// ProductionStore handles database operations for productions
type ProductionStore struct {
	db querier
}

// NewProductionStore creates a new production store
func NewProductionStore(db querier) *ProductionStore {
	return &ProductionStore{db: db}
}

// Create inserts a production under an existing issue
func (s *ProductionStore) Create(production *Production) error {
	query := `INSERT INTO productions (name, production_issue_id) VALUES (?, ?)`

	result, err := s.db.Exec(query, production.Name, production.ProductionIssueID)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}

	// Read back to populate timestamps
	err = s.db.QueryRow(`SELECT created_at, updated_at FROM productions WHERE id = ?`, id).
		Scan(&production.CreatedAt, &production.UpdatedAt)
	if err != nil {
		return err
	}

	production.ID = int(id)
	return nil
}

// GetByIssueID returns the productions of an issue with their emails
func (s *ProductionStore) GetByIssueID(issueID int) ([]Production, error) {
	query := `SELECT id, name, production_issue_id, created_at, updated_at
			  FROM productions
			  WHERE production_issue_id = ?
			  ORDER BY id`

	rows, err := s.db.Query(query, issueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	productions := []Production{}
	for rows.Next() {
		var production Production
		err := rows.Scan(&production.ID, &production.Name, &production.ProductionIssueID,
			&production.CreatedAt, &production.UpdatedAt)
		if err != nil {
			return nil, err
		}
		productions = append(productions, production)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	emails := NewEmailStore(s.db)
	for i := range productions {
		productions[i].Emails, err = emails.GetByProductionID(productions[i].ID)
		if err != nil {
			return nil, err
		}
	}

	return productions, nil
}
