package database

// EmailStore handles database operations for email addresses
type EmailStore struct {
	db querier
}

// NewEmailStore creates a new email store
func NewEmailStore(db querier) *EmailStore {
	return &EmailStore{db: db}
}

// CreateIfNew stores address under productionID unless the address is
// already known anywhere in the database. It reports whether a row was created.
func (e *EmailStore) CreateIfNew(address string, productionID int) (bool, error) {
	query := `INSERT INTO emails (address, production_id) VALUES (?, ?)
			  ON CONFLICT(address) DO NOTHING`

	result, err := e.db.Exec(query, address, productionID)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// GetByAddress retrieves an email by its exact address
func (e *EmailStore) GetByAddress(address string) (*Email, error) {
	query := `SELECT id, address, production_id, created_at, updated_at
			  FROM emails WHERE address = ?`

	var email Email
	err := e.db.QueryRow(query, address).Scan(
		&email.ID, &email.Address, &email.ProductionID, &email.CreatedAt, &email.UpdatedAt)
	if err != nil {
		return nil, err
	}

	return &email, nil
}

// GetByProductionID retrieves the emails first seen in a production, in insertion order
func (e *EmailStore) GetByProductionID(productionID int) ([]Email, error) {
	query := `SELECT id, address, production_id, created_at, updated_at
			  FROM emails
			  WHERE production_id = ?
			  ORDER BY id`

	rows, err := e.db.Query(query, productionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	emails := []Email{}
	for rows.Next() {
		var email Email
		err := rows.Scan(&email.ID, &email.Address, &email.ProductionID,
			&email.CreatedAt, &email.UpdatedAt)
		if err != nil {
			return nil, err
		}
		emails = append(emails, email)
	}

	return emails, rows.Err()
}

// Count returns the number of stored addresses
func (e *EmailStore) Count() (int, error) {
	var count int
	err := e.db.QueryRow(`SELECT COUNT(*) FROM emails`).Scan(&count)
	return count, err
}
