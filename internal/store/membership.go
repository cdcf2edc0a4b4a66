package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/mealplannr/internal/model"
)

// MembershipStore answers read-side questions that join networks,
// households and their links.
type MembershipStore struct {
	db *sql.DB
}

func NewMembershipStore(db *sql.DB) *MembershipStore {
	return &MembershipStore{db: db}
}

const linkDetailSelect = `SELECT nh.id, nh.network_id, nh.household_id, nh.role, nh.status, nh.invited_at, nh.joined_at,
	n.name, n.created_by, h.name,
	COALESCE((SELECT hm.user_id FROM household_members hm
		WHERE hm.household_id = h.id AND hm.role = 'owner' ORDER BY hm.id LIMIT 1), h.created_by)
	FROM network_households nh
	JOIN networks n ON n.id = nh.network_id
	JOIN households h ON h.id = nh.household_id`

const linkDetailOrder = ` ORDER BY nh.invited_at DESC, nh.id DESC`

func scanLinkDetail(scanner interface{ Scan(...any) error }) (*model.NetworkHouseholdDetail, error) {
	var d model.NetworkHouseholdDetail
	var joinedAt sql.NullTime
	err := scanner.Scan(
		&d.ID, &d.NetworkID, &d.HouseholdID, &d.Role, &d.Status, &d.InvitedAt, &joinedAt,
		&d.NetworkName, &d.NetworkOwnerID, &d.HouseholdName, &d.HouseholdOwnerID,
	)
	if err != nil {
		return nil, err
	}
	d.JoinedAt = timePtr(joinedAt)
	return &d, nil
}

func (s *MembershipStore) listDetails(query string, args ...any) ([]model.NetworkHouseholdDetail, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list network households: %w", err)
	}
	defer rows.Close()

	var out []model.NetworkHouseholdDetail
	for rows.Next() {
		d, err := scanLinkDetail(rows)
		if err != nil {
			return nil, fmt.Errorf("scan network household: %w", err)
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

// NetworkHouseholds lists the households linked to a network, newest
// invitation first. An empty status returns every status.
func (s *MembershipStore) NetworkHouseholds(networkID int64, status string) ([]model.NetworkHouseholdDetail, error) {
	query := linkDetailSelect + ` WHERE nh.network_id = ?`
	args := []any{networkID}
	if status != "" {
		query += ` AND nh.status = ?`
		args = append(args, status)
	}
	return s.listDetails(query+linkDetailOrder, args...)
}

// HouseholdInvitations lists the network links of a household, newest first.
// An empty status returns every status.
func (s *MembershipStore) HouseholdInvitations(householdID int64, status string) ([]model.NetworkHouseholdDetail, error) {
	query := linkDetailSelect + ` WHERE nh.household_id = ?`
	args := []any{householdID}
	if status != "" {
		query += ` AND nh.status = ?`
		args = append(args, status)
	}
	return s.listDetails(query+linkDetailOrder, args...)
}

// Invitation returns one link with its names and owners, or nil.
func (s *MembershipStore) Invitation(id int64) (*model.NetworkHouseholdDetail, error) {
	row := s.db.QueryRow(linkDetailSelect+` WHERE nh.id = ?`, id)
	d, err := scanLinkDetail(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get invitation: %w", err)
	}
	return d, nil
}

// NetworksForUser lists networks the user created or in which the user's
// household holds an accepted link, newest first.
func (s *MembershipStore) NetworksForUser(userID int64) ([]model.NetworkSummary, error) {
	rows, err := s.db.Query(
		`SELECT n.id, n.name, n.created_by, n.created_at, n.updated_at,
		        (SELECT COUNT(*) FROM network_households c WHERE c.network_id = n.id AND c.status = 'accepted')
		 FROM networks n
		 WHERE n.created_by = ?
		    OR n.id IN (
		        SELECT nh.network_id FROM network_households nh
		        JOIN household_members hm ON hm.household_id = nh.household_id
		        WHERE hm.user_id = ? AND nh.status = 'accepted')
		 ORDER BY n.created_at DESC, n.id DESC`,
		userID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list networks for user: %w", err)
	}
	defer rows.Close()

	var out []model.NetworkSummary
	for rows.Next() {
		var ns model.NetworkSummary
		if err := rows.Scan(
			&ns.ID, &ns.Name, &ns.CreatedBy, &ns.CreatedAt, &ns.UpdatedAt, &ns.HouseholdCount,
		); err != nil {
			return nil, fmt.Errorf("scan network: %w", err)
		}
		ns.IsOwner = ns.CreatedBy == userID
		out = append(out, ns)
	}
	return out, rows.Err()
}

// UserInNetwork reports whether the user's household holds an accepted link
// to the network.
func (s *MembershipStore) UserInNetwork(networkID, userID int64) (bool, error) {
	var ok bool
	err := s.db.QueryRow(
		`SELECT EXISTS (
		    SELECT 1 FROM network_households nh
		    JOIN household_members hm ON hm.household_id = nh.household_id
		    WHERE nh.network_id = ? AND hm.user_id = ? AND nh.status = 'accepted')`,
		networkID, userID,
	).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("check network membership: %w", err)
	}
	return ok, nil
}
