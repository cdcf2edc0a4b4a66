// Package policy decides what a user may do. It replaces role strings
// scattered through handlers with one Authorize call.
package policy

import "github.com/dukerupert/mealplannr/internal/model"

type Role string

const (
	RoleAdministrator   Role = "administrator"
	RoleHouseholdOwner  Role = "household_owner"
	RoleHouseholdMember Role = "household_member"
)

type Capability string

const (
	CapRead            Capability = "read"
	CapEditRecipes     Capability = "edit_recipes"
	CapPublishRecipes  Capability = "publish_recipes"
	CapDeleteRecipes   Capability = "delete_recipes"
	CapManageHousehold Capability = "manage_household"
)

var allCapabilities = []Capability{
	CapRead, CapEditRecipes, CapPublishRecipes, CapDeleteRecipes, CapManageHousehold,
}

var roleCapabilities = map[Role][]Capability{
	RoleAdministrator:   allCapabilities,
	RoleHouseholdOwner:  allCapabilities,
	RoleHouseholdMember: {CapRead, CapEditRecipes, CapPublishRecipes},
}

// Subject is the user a decision is made for.
type Subject struct {
	UserID        int64
	IsAdmin       bool
	HouseholdID   int64
	HouseholdRole string
}

// Roles returns the site roles of the subject. A household owner is a
// household_owner; every other household role is a household_member.
func (s Subject) Roles() []Role {
	var roles []Role
	if s.IsAdmin {
		roles = append(roles, RoleAdministrator)
	}
	switch s.HouseholdRole {
	case "":
	case model.HouseholdRoleOwner:
		roles = append(roles, RoleHouseholdOwner)
	default:
		roles = append(roles, RoleHouseholdMember)
	}
	return roles
}

// HasHouseholdRole reports whether the subject holds a household role.
func (s Subject) HasHouseholdRole() bool {
	return s.HouseholdRole != ""
}

// Can reports whether any of the subject's roles grants c.
func (s Subject) Can(c Capability) bool {
	for _, r := range s.Roles() {
		for _, have := range roleCapabilities[r] {
			if have == c {
				return true
			}
		}
	}
	return false
}

// Capabilities lists the distinct capabilities of the subject in a fixed
// order.
func (s Subject) Capabilities() []Capability {
	var out []Capability
	for _, c := range allCapabilities {
		if s.Can(c) {
			out = append(out, c)
		}
	}
	return out
}

type Action string

const (
	ActionRead          Action = "read"
	ActionEdit          Action = "edit"
	ActionDelete        Action = "delete"
	ActionPublish       Action = "publish"
	ActionShare         Action = "share"
	ActionManageMembers Action = "manage_members"
	ActionManageNetwork Action = "manage_network"
	ActionRespond       Action = "respond"
)

type ResourceKind string

const (
	KindRecipe     ResourceKind = "recipe"
	KindHousehold  ResourceKind = "household"
	KindNetwork    ResourceKind = "network"
	KindInvitation ResourceKind = "invitation"
)

// Resource is the object of a decision. OwnerID is the recipe author, the
// network creator, or the owner of the invited household, depending on Kind.
type Resource struct {
	Kind    ResourceKind
	ID      int64
	OwnerID int64
}

// Authorize reports whether subject may perform action on resource.
//
// Administrators pass every content check. Ownership checks on networks,
// invitations and sharing are decided by ownership alone.
func Authorize(s Subject, a Action, r Resource) bool {
	switch r.Kind {
	case KindRecipe:
		switch a {
		case ActionRead:
			return s.IsAdmin || s.Can(CapRead)
		case ActionEdit, ActionDelete:
			return s.IsAdmin || s.HasHouseholdRole()
		case ActionPublish:
			return s.Can(CapPublishRecipes)
		case ActionShare:
			return r.OwnerID != 0 && r.OwnerID == s.UserID
		}
	case KindHousehold:
		if a == ActionManageMembers {
			if s.HouseholdID != r.ID {
				return false
			}
			return s.HouseholdRole == model.HouseholdRoleOwner || s.HouseholdRole == model.HouseholdRoleManager
		}
	case KindNetwork:
		if a == ActionManageNetwork {
			return r.OwnerID != 0 && r.OwnerID == s.UserID
		}
	case KindInvitation:
		if a == ActionRespond {
			return r.OwnerID != 0 && r.OwnerID == s.UserID
		}
	}
	return false
}
