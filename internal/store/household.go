package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/mealplannr/internal/model"
)

type HouseholdStore struct {
	db *sql.DB
}

func NewHouseholdStore(db *sql.DB) *HouseholdStore {
	return &HouseholdStore{db: db}
}

func scanHousehold(scanner interface{ Scan(...any) error }) (*model.Household, error) {
	var h model.Household
	err := scanner.Scan(&h.ID, &h.Name, &h.CreatedBy, &h.MaxMembers, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func scanHouseholdMember(scanner interface{ Scan(...any) error }) (*model.HouseholdMember, error) {
	var m model.HouseholdMember
	var joinedAt sql.NullTime
	err := scanner.Scan(&m.ID, &m.HouseholdID, &m.UserID, &m.Role, &m.InvitedAt, &joinedAt)
	if err != nil {
		return nil, err
	}
	m.JoinedAt = timePtr(joinedAt)
	return &m, nil
}

const householdCols = `id, name, created_by, max_members, created_at, updated_at`
const householdMemberCols = `id, household_id, user_id, role, invited_at, joined_at`

// CreateWithOwner creates a household and makes userID its owner. It fails
// with ErrAlreadyInHousehold if the user already belongs to one.
func (s *HouseholdStore) CreateWithOwner(name string, userID int64) (*model.Household, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var existing int
	if err := tx.QueryRow(
		`SELECT COUNT(*) FROM household_members WHERE user_id = ?`, userID,
	).Scan(&existing); err != nil {
		return nil, fmt.Errorf("check existing membership: %w", err)
	}
	if existing > 0 {
		return nil, ErrAlreadyInHousehold
	}

	result, err := tx.Exec(
		`INSERT INTO households (name, created_by, max_members) VALUES (?, ?, ?)`,
		name, userID, model.DefaultMaxMembers,
	)
	if err != nil {
		return nil, fmt.Errorf("insert household: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	if _, err := tx.Exec(
		`INSERT INTO household_members (household_id, user_id, role, joined_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)`,
		id, userID, model.HouseholdRoleOwner,
	); err != nil {
		return nil, fmt.Errorf("insert owner: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(id)
}

func (s *HouseholdStore) GetByID(id int64) (*model.Household, error) {
	row := s.db.QueryRow(`SELECT `+householdCols+` FROM households WHERE id = ?`, id)
	h, err := scanHousehold(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get household: %w", err)
	}
	return h, nil
}

func (s *HouseholdStore) Update(id int64, name string) (*model.Household, error) {
	_, err := s.db.Exec(`UPDATE households SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return nil, fmt.Errorf("update household: %w", err)
	}
	return s.GetByID(id)
}

// AddMember adds a user to a household while it has fewer than max_members
// members and the user belongs to no household.
func (s *HouseholdStore) AddMember(householdID, userID int64, role string) (*model.HouseholdMember, error) {
	result, err := s.db.Exec(
		`INSERT INTO household_members (household_id, user_id, role, joined_at)
		 SELECT ?, ?, ?, CURRENT_TIMESTAMP
		 WHERE NOT EXISTS (SELECT 1 FROM household_members WHERE user_id = ?)
		   AND (SELECT COUNT(*) FROM household_members WHERE household_id = ?)
		       < (SELECT max_members FROM households WHERE id = ?)`,
		householdID, userID, role, userID, householdID, householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("add member: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		existing, err := s.MembershipForUser(userID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, ErrAlreadyInHousehold
		}
		return nil, ErrHouseholdFull
	}
	return s.GetMember(householdID, userID)
}

// RemoveMember deletes a membership and reports whether one existed.
func (s *HouseholdStore) RemoveMember(householdID, userID int64) (bool, error) {
	result, err := s.db.Exec(
		`DELETE FROM household_members WHERE household_id = ? AND user_id = ?`,
		householdID, userID,
	)
	if err != nil {
		return false, fmt.Errorf("remove member: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (s *HouseholdStore) GetMember(householdID, userID int64) (*model.HouseholdMember, error) {
	row := s.db.QueryRow(
		`SELECT `+householdMemberCols+` FROM household_members WHERE household_id = ? AND user_id = ?`,
		householdID, userID,
	)
	m, err := scanHouseholdMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

// MembershipForUser returns the user's only household membership, or nil.
func (s *HouseholdStore) MembershipForUser(userID int64) (*model.HouseholdMember, error) {
	row := s.db.QueryRow(
		`SELECT `+householdMemberCols+` FROM household_members WHERE user_id = ? ORDER BY id ASC LIMIT 1`,
		userID,
	)
	m, err := scanHouseholdMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get membership for user: %w", err)
	}
	return m, nil
}

// OwnedBy returns the household the user owns, or nil.
func (s *HouseholdStore) OwnedBy(userID int64) (*model.Household, error) {
	row := s.db.QueryRow(
		`SELECT h.id, h.name, h.created_by, h.max_members, h.created_at, h.updated_at
		 FROM households h
		 JOIN household_members hm ON hm.household_id = h.id
		 WHERE hm.user_id = ? AND hm.role = ?
		 LIMIT 1`,
		userID, model.HouseholdRoleOwner,
	)
	h, err := scanHousehold(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get owned household: %w", err)
	}
	return h, nil
}

// OwnerID returns the user id of the household's owner member, or 0.
func (s *HouseholdStore) OwnerID(householdID int64) (int64, error) {
	var userID int64
	err := s.db.QueryRow(
		`SELECT user_id FROM household_members WHERE household_id = ? AND role = ? ORDER BY id ASC LIMIT 1`,
		householdID, model.HouseholdRoleOwner,
	).Scan(&userID)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get household owner: %w", err)
	}
	return userID, nil
}

func (s *HouseholdStore) IsMember(householdID, userID int64) (bool, error) {
	var exists bool
	err := s.db.QueryRow(
		`SELECT EXISTS (SELECT 1 FROM household_members WHERE household_id = ? AND user_id = ?)`,
		householdID, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check member: %w", err)
	}
	return exists, nil
}

// ListMembers lists members with the owner first, then by name.
func (s *HouseholdStore) ListMembers(householdID int64) ([]model.HouseholdMember, error) {
	rows, err := s.db.Query(
		`SELECT hm.id, hm.household_id, hm.user_id, hm.role, hm.invited_at, hm.joined_at, u.name, u.email
		 FROM household_members hm
		 JOIN users u ON u.id = hm.user_id
		 WHERE hm.household_id = ?
		 ORDER BY CASE hm.role WHEN 'owner' THEN 0 ELSE 1 END, u.name ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []model.HouseholdMember
	for rows.Next() {
		var m model.HouseholdMember
		var joinedAt sql.NullTime
		if err := rows.Scan(
			&m.ID, &m.HouseholdID, &m.UserID, &m.Role, &m.InvitedAt, &joinedAt, &m.UserName, &m.UserEmail,
		); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		m.JoinedAt = timePtr(joinedAt)
		members = append(members, m)
	}
	return members, rows.Err()
}
