package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/mealplannr/internal/model"
)

// ActionTokenStore records emailed invitation link tokens so each can be
// used once.
type ActionTokenStore struct {
	db *sql.DB
}

func NewActionTokenStore(db *sql.DB) *ActionTokenStore {
	return &ActionTokenStore{db: db}
}

func scanActionToken(scanner interface{ Scan(...any) error }) (*model.ActionToken, error) {
	var t model.ActionToken
	var usedAt sql.NullTime
	err := scanner.Scan(&t.ID, &t.JTI, &t.InvitationID, &t.Action, &t.UserID, &t.ExpiresAt, &usedAt, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	t.UsedAt = timePtr(usedAt)
	return &t, nil
}

const actionTokenCols = `id, jti, invitation_id, action, user_id, expires_at, used_at, created_at`

func (s *ActionTokenStore) Create(jti string, invitationID int64, action string, userID int64, expiresAt time.Time) (*model.ActionToken, error) {
	result, err := s.db.Exec(
		`INSERT INTO action_tokens (jti, invitation_id, action, user_id, expires_at) VALUES (?, ?, ?, ?, ?)`,
		jti, invitationID, action, userID, expiresAt.UTC().Truncate(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("insert action token: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+actionTokenCols+` FROM action_tokens WHERE id = ?`, id)
	return scanActionToken(row)
}

func (s *ActionTokenStore) GetByJTI(jti string) (*model.ActionToken, error) {
	row := s.db.QueryRow(`SELECT `+actionTokenCols+` FROM action_tokens WHERE jti = ?`, jti)
	t, err := scanActionToken(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get action token: %w", err)
	}
	return t, nil
}

// Consume marks an unused, unexpired token as used and returns it. It
// returns nil if the token is unknown, used or expired.
func (s *ActionTokenStore) Consume(jti string, now time.Time) (*model.ActionToken, error) {
	now = now.UTC().Truncate(time.Second)
	result, err := s.db.Exec(
		`UPDATE action_tokens SET used_at = ? WHERE jti = ? AND used_at IS NULL AND expires_at > ?`,
		now, jti, now,
	)
	if err != nil {
		return nil, fmt.Errorf("consume action token: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return nil, nil
	}
	return s.GetByJTI(jti)
}

// InvalidateForInvitation marks every unused token of an invitation used.
func (s *ActionTokenStore) InvalidateForInvitation(invitationID int64, now time.Time) error {
	_, err := s.db.Exec(
		`UPDATE action_tokens SET used_at = ? WHERE invitation_id = ? AND used_at IS NULL`,
		now.UTC().Truncate(time.Second), invitationID,
	)
	if err != nil {
		return fmt.Errorf("invalidate action tokens: %w", err)
	}
	return nil
}

func (s *ActionTokenStore) DeleteExpired(now time.Time) (int64, error) {
	result, err := s.db.Exec(
		`DELETE FROM action_tokens WHERE expires_at <= ?`,
		now.UTC().Truncate(time.Second),
	)
	if err != nil {
		return 0, fmt.Errorf("delete expired action tokens: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}
