package model

import "time"

const MaxHouseholdsPerNetwork = 10

// Network link roles.
const (
	NetworkRoleOwner  = "owner"
	NetworkRoleMember = "member"
)

// Invitation statuses. Pending is the only non-terminal state.
const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
)

type Network struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedBy int64     `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NetworkSummary is a network as listed for a user.
type NetworkSummary struct {
	Network
	HouseholdCount int  `json:"household_count"`
	IsOwner        bool `json:"is_owner"`
}

// NetworkHousehold is the link between a network and a household. A pending
// row is an invitation.
type NetworkHousehold struct {
	ID          int64      `json:"id"`
	NetworkID   int64      `json:"network_id"`
	HouseholdID int64      `json:"household_id"`
	Role        string     `json:"role"`
	Status      string     `json:"status"`
	InvitedAt   time.Time  `json:"invited_at"`
	JoinedAt    *time.Time `json:"joined_at"`
}

// NetworkHouseholdDetail adds the names and owners of both sides of a link.
type NetworkHouseholdDetail struct {
	NetworkHousehold
	NetworkName      string `json:"network_name"`
	NetworkOwnerID   int64  `json:"network_owner_id"`
	HouseholdName    string `json:"household_name"`
	HouseholdOwnerID int64  `json:"household_owner_id"`
}

// ValidStatus reports whether s is an invitation status.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected:
		return true
	}
	return false
}
