package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/mealplannr/internal/model"
)

type NetworkStore struct {
	db *sql.DB
}

func NewNetworkStore(db *sql.DB) *NetworkStore {
	return &NetworkStore{db: db}
}

func scanNetwork(scanner interface{ Scan(...any) error }) (*model.Network, error) {
	var n model.Network
	err := scanner.Scan(&n.ID, &n.Name, &n.CreatedBy, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

const networkCols = `id, name, created_by, created_at, updated_at`

// CreateWithOwner creates a network and links the owner's household to it as
// an accepted owner in one transaction.
func (s *NetworkStore) CreateWithOwner(name string, userID, householdID int64) (*model.Network, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`INSERT INTO networks (name, created_by) VALUES (?, ?)`, name, userID)
	if err != nil {
		return nil, fmt.Errorf("insert network: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	if _, err := tx.Exec(
		`INSERT INTO network_households (network_id, household_id, role, status, joined_at)
		 VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)`,
		id, householdID, model.NetworkRoleOwner, model.StatusAccepted,
	); err != nil {
		return nil, fmt.Errorf("insert owner household: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(id)
}

func (s *NetworkStore) GetByID(id int64) (*model.Network, error) {
	row := s.db.QueryRow(`SELECT `+networkCols+` FROM networks WHERE id = ?`, id)
	n, err := scanNetwork(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get network: %w", err)
	}
	return n, nil
}

func (s *NetworkStore) Rename(id int64, name string) (*model.Network, error) {
	_, err := s.db.Exec(`UPDATE networks SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return nil, fmt.Errorf("rename network: %w", err)
	}
	return s.GetByID(id)
}
