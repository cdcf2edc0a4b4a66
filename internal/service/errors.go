package service

import (
	"errors"
	"fmt"
)

// Kind classifies a service failure. The HTTP layer maps each kind to a
// status code.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindAuthorization
	KindConflict
	KindPersistence
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindAuthorization:
		return "authorization"
	case KindConflict:
		return "conflict"
	case KindPersistence:
		return "persistence"
	}
	return "unknown"
}

// Error is a business-rule failure with a short machine-readable code.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error with the same code, so sentinels work with
// errors.Is even after being wrapped with a cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func newError(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

var (
	ErrNoHousehold         = newError(KindValidation, "no_household", "You must own a household first")
	ErrInvalidName         = newError(KindValidation, "invalid_name", "Name is required")
	ErrInvalidRole         = newError(KindValidation, "invalid_role", "Invalid household role")
	ErrInvalidStatus       = newError(KindValidation, "invalid_status", "Invalid status filter")
	ErrInvalidVisibility   = newError(KindValidation, "invalid_visibility", "Invalid visibility")
	ErrHouseholdRequired   = newError(KindValidation, "household_required", "household_id is required for household visibility")
	ErrNetworkRequired     = newError(KindValidation, "network_required", "network_id is required for network visibility")
	ErrInvalidMacros       = newError(KindValidation, "invalid_macros", "Macro values must be between 0 and 999999.99")
	ErrInvalidIngredient   = newError(KindValidation, "invalid_ingredient", "Every ingredient needs a name")
	ErrInvalidRecipeStatus = newError(KindValidation, "invalid_recipe_status", "Status must be draft or publish")
	ErrInvalidToken        = newError(KindValidation, "invalid_token", "This link is invalid or has expired")

	ErrNetworkNotFound    = newError(KindNotFound, "network_not_found", "Network not found")
	ErrHouseholdNotFound  = newError(KindNotFound, "household_not_found", "Household not found")
	ErrInvitationNotFound = newError(KindNotFound, "invitation_not_found", "Invitation not found")
	ErrRecipeNotFound     = newError(KindNotFound, "recipe_not_found", "Recipe not found")
	ErrUserNotFound       = newError(KindNotFound, "user_not_found", "User not found")
	ErrLinkNotFound       = newError(KindNotFound, "link_not_found", "Household is not part of this network")
	ErrMemberNotFound     = newError(KindNotFound, "member_not_found", "User is not a member of this household")

	ErrNotOwner      = newError(KindAuthorization, "not_owner", "Only the network owner can do this")
	ErrNotAuthorized = newError(KindAuthorization, "not_authorized", "You are not authorized to do this")
	ErrNotAuthor     = newError(KindAuthorization, "not_author", "Only the recipe author can change sharing")
	ErrNotMember     = newError(KindAuthorization, "not_member", "You can only share with groups you belong to")
	ErrForbidden     = newError(KindAuthorization, "forbidden", "You do not have access to this recipe")

	ErrNetworkFull        = newError(KindConflict, "network_full", "Network has reached the maximum number of households")
	ErrAlreadyLinked      = newError(KindConflict, "already_linked", "Household is already in this network")
	ErrAlreadyResolved    = newError(KindConflict, "already_resolved", "Invitation has already been responded to")
	ErrCannotRemoveOwner  = newError(KindConflict, "cannot_remove_owner", "The owner cannot be removed")
	ErrAlreadyInHousehold = newError(KindConflict, "already_in_household", "User already belongs to a household")
	ErrHouseholdFull      = newError(KindConflict, "household_full", "Household has reached its member limit")
)

// persistence wraps an unexpected store failure.
func persistence(op string, err error) error {
	return &Error{Kind: KindPersistence, Code: "persistence", Message: op + " failed", Err: err}
}

// KindOf returns the kind of err, or KindPersistence for errors that are not
// service errors.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindPersistence
}
