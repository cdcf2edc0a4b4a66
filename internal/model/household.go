package model

import "time"

const DefaultMaxMembers = 4

// Household member roles.
const (
	HouseholdRoleOwner   = "owner"
	HouseholdRoleMember  = "member"
	HouseholdRoleManager = "manager"
	HouseholdRoleChild   = "child"
)

type Household struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	CreatedBy  int64     `json:"created_by"`
	MaxMembers int       `json:"max_members"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type HouseholdMember struct {
	ID          int64      `json:"id"`
	HouseholdID int64      `json:"household_id"`
	UserID      int64      `json:"user_id"`
	Role        string     `json:"role"`
	InvitedAt   time.Time  `json:"invited_at"`
	JoinedAt    *time.Time `json:"joined_at"`

	// Populated by joined listings.
	UserName  string `json:"user_name,omitempty"`
	UserEmail string `json:"user_email,omitempty"`
}

// ValidHouseholdRole reports whether role is one of the household roles.
func ValidHouseholdRole(role string) bool {
	switch role {
	case HouseholdRoleOwner, HouseholdRoleMember, HouseholdRoleManager, HouseholdRoleChild:
		return true
	}
	return false
}
