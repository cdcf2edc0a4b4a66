package model

import "time"

// Invitation actions carried by emailed links.
const (
	ActionAccept = "accept"
	ActionReject = "reject"
)

// ActionToken records a single-use link token issued for an invitation.
type ActionToken struct {
	ID           int64      `json:"id"`
	JTI          string     `json:"jti"`
	InvitationID int64      `json:"invitation_id"`
	Action       string     `json:"action"`
	UserID       int64      `json:"user_id"`
	ExpiresAt    time.Time  `json:"expires_at"`
	UsedAt       *time.Time `json:"used_at"`
	CreatedAt    time.Time  `json:"created_at"`
}
