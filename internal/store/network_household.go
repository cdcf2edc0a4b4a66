package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/mealplannr/internal/model"
)

// NetworkHouseholdStore owns the network/household link rows and their
// pending → accepted|rejected transitions.
type NetworkHouseholdStore struct {
	db *sql.DB
}

func NewNetworkHouseholdStore(db *sql.DB) *NetworkHouseholdStore {
	return &NetworkHouseholdStore{db: db}
}

func scanNetworkHousehold(scanner interface{ Scan(...any) error }) (*model.NetworkHousehold, error) {
	var nh model.NetworkHousehold
	var joinedAt sql.NullTime
	err := scanner.Scan(&nh.ID, &nh.NetworkID, &nh.HouseholdID, &nh.Role, &nh.Status, &nh.InvitedAt, &joinedAt)
	if err != nil {
		return nil, err
	}
	nh.JoinedAt = timePtr(joinedAt)
	return &nh, nil
}

const networkHouseholdCols = `id, network_id, household_id, role, status, invited_at, joined_at`

// acceptedCountSQL counts accepted links of the network named by the outer
// network_households row.
const acceptedCountSQL = `(SELECT COUNT(*) FROM network_households a
	WHERE a.network_id = network_households.network_id AND a.status = 'accepted')`

// Invite inserts a pending link. It returns ErrNetworkFull when the network
// already has max accepted households and ErrAlreadyLinked when any link,
// whatever its status, exists for the pair.
func (s *NetworkHouseholdStore) Invite(networkID, householdID int64, max int) (*model.NetworkHousehold, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var accepted int
	if err := tx.QueryRow(
		`SELECT COUNT(*) FROM network_households WHERE network_id = ? AND status = ?`,
		networkID, model.StatusAccepted,
	).Scan(&accepted); err != nil {
		return nil, fmt.Errorf("count accepted: %w", err)
	}
	if accepted >= max {
		return nil, ErrNetworkFull
	}

	var linked bool
	if err := tx.QueryRow(
		`SELECT EXISTS (SELECT 1 FROM network_households WHERE network_id = ? AND household_id = ?)`,
		networkID, householdID,
	).Scan(&linked); err != nil {
		return nil, fmt.Errorf("check link: %w", err)
	}
	if linked {
		return nil, ErrAlreadyLinked
	}

	result, err := tx.Exec(
		`INSERT INTO network_households (network_id, household_id, role, status)
		 SELECT ?, ?, ?, ?
		 WHERE (SELECT COUNT(*) FROM network_households WHERE network_id = ? AND status = 'accepted') < ?`,
		networkID, householdID, model.NetworkRoleMember, model.StatusPending, networkID, max,
	)
	if err != nil {
		return nil, fmt.Errorf("insert invitation: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return nil, ErrNetworkFull
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	row := tx.QueryRow(`SELECT `+networkHouseholdCols+` FROM network_households WHERE id = ?`, id)
	nh, err := scanNetworkHousehold(row)
	if err != nil {
		return nil, fmt.Errorf("read invitation: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return nh, nil
}

// Accept moves a pending link to accepted if the network still has room.
// The status and capacity checks happen in the same statement as the write.
func (s *NetworkHouseholdStore) Accept(id int64, max int) (*model.NetworkHousehold, error) {
	result, err := s.db.Exec(
		`UPDATE network_households
		 SET status = 'accepted', joined_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = 'pending' AND `+acceptedCountSQL+` < ?`,
		id, max,
	)
	if err != nil {
		return nil, fmt.Errorf("accept invitation: %w", err)
	}
	return s.afterTransition(id, result, ErrNetworkFull)
}

// Reject moves a pending link to rejected.
func (s *NetworkHouseholdStore) Reject(id int64) (*model.NetworkHousehold, error) {
	result, err := s.db.Exec(
		`UPDATE network_households SET status = 'rejected' WHERE id = ? AND status = 'pending'`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("reject invitation: %w", err)
	}
	return s.afterTransition(id, result, ErrAlreadyResolved)
}

// afterTransition re-reads the row and, when the update matched nothing,
// explains why: missing row, non-pending row, or pendingErr.
func (s *NetworkHouseholdStore) afterTransition(id int64, result sql.Result, pendingErr error) (*model.NetworkHousehold, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	nh, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return nh, nil
	}
	switch {
	case nh == nil:
		return nil, ErrNotFound
	case nh.Status != model.StatusPending:
		return nil, ErrAlreadyResolved
	default:
		return nil, pendingErr
	}
}

func (s *NetworkHouseholdStore) GetByID(id int64) (*model.NetworkHousehold, error) {
	row := s.db.QueryRow(`SELECT `+networkHouseholdCols+` FROM network_households WHERE id = ?`, id)
	nh, err := scanNetworkHousehold(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get network household: %w", err)
	}
	return nh, nil
}

func (s *NetworkHouseholdStore) GetByPair(networkID, householdID int64) (*model.NetworkHousehold, error) {
	row := s.db.QueryRow(
		`SELECT `+networkHouseholdCols+` FROM network_households WHERE network_id = ? AND household_id = ?`,
		networkID, householdID,
	)
	nh, err := scanNetworkHousehold(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get network household by pair: %w", err)
	}
	return nh, nil
}

// Remove deletes the link outright and reports whether one existed.
func (s *NetworkHouseholdStore) Remove(networkID, householdID int64) (bool, error) {
	result, err := s.db.Exec(
		`DELETE FROM network_households WHERE network_id = ? AND household_id = ?`,
		networkID, householdID,
	)
	if err != nil {
		return false, fmt.Errorf("remove network household: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (s *NetworkHouseholdStore) CountAccepted(networkID int64) (int, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM network_households WHERE network_id = ? AND status = ?`,
		networkID, model.StatusAccepted,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count accepted: %w", err)
	}
	return n, nil
}
