package service

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/dukerupert/mealplannr/internal/model"
	"github.com/dukerupert/mealplannr/internal/policy"
	"github.com/dukerupert/mealplannr/internal/store"
)

type HouseholdService struct {
	households *store.HouseholdStore
	users      *store.UserStore
	logger     *slog.Logger
}

func NewHouseholdService(households *store.HouseholdStore, users *store.UserStore, logger *slog.Logger) *HouseholdService {
	return &HouseholdService{households: households, users: users, logger: logger}
}

// CreateHousehold creates a household owned by userID. A user belongs to at
// most one household.
func (s *HouseholdService) CreateHousehold(name string, userID int64) (*model.Household, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}
	h, err := s.households.CreateWithOwner(name, userID)
	if errors.Is(err, store.ErrAlreadyInHousehold) {
		return nil, ErrAlreadyInHousehold
	}
	if err != nil {
		return nil, persistence("create household", err)
	}
	s.logger.Info("household created", "household_id", h.ID, "user_id", userID)
	return h, nil
}

// Mine returns the caller's household and its members, or nil when the
// caller has none.
func (s *HouseholdService) Mine(userID int64) (*model.Household, []model.HouseholdMember, error) {
	membership, err := s.households.MembershipForUser(userID)
	if err != nil {
		return nil, nil, persistence("load membership", err)
	}
	if membership == nil {
		return nil, nil, nil
	}
	h, err := s.households.GetByID(membership.HouseholdID)
	if err != nil {
		return nil, nil, persistence("load household", err)
	}
	if h == nil {
		return nil, nil, nil
	}
	members, err := s.households.ListMembers(h.ID)
	if err != nil {
		return nil, nil, persistence("list members", err)
	}
	return h, members, nil
}

// RenameHousehold changes the name of the actor's household. Owners and
// managers may rename it.
func (s *HouseholdService) RenameHousehold(actor policy.Subject, name string) (*model.Household, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}
	if actor.HouseholdID == 0 {
		return nil, ErrNoHousehold
	}
	if !policy.Authorize(actor, policy.ActionManageMembers, policy.Resource{Kind: policy.KindHousehold, ID: actor.HouseholdID}) {
		return nil, ErrNotAuthorized
	}

	h, err := s.households.Update(actor.HouseholdID, name)
	if err != nil {
		return nil, persistence("rename household", err)
	}
	if h == nil {
		return nil, ErrHouseholdNotFound
	}
	s.logger.Info("household renamed", "household_id", h.ID, "user_id", actor.UserID)
	return h, nil
}

// AddMember adds the user with the given email to the actor's household.
// Only owners and managers may add members, and nobody can be added as a
// second owner.
func (s *HouseholdService) AddMember(actor policy.Subject, email, role string) (*model.HouseholdMember, error) {
	if actor.HouseholdID == 0 {
		return nil, ErrNoHousehold
	}
	if !policy.Authorize(actor, policy.ActionManageMembers, policy.Resource{Kind: policy.KindHousehold, ID: actor.HouseholdID}) {
		return nil, ErrNotAuthorized
	}
	if role == "" {
		role = model.HouseholdRoleMember
	}
	if !model.ValidHouseholdRole(role) || role == model.HouseholdRoleOwner {
		return nil, ErrInvalidRole
	}

	user, err := s.users.GetByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, persistence("load user", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	member, err := s.households.AddMember(actor.HouseholdID, user.ID, role)
	switch {
	case errors.Is(err, store.ErrAlreadyInHousehold):
		return nil, ErrAlreadyInHousehold
	case errors.Is(err, store.ErrHouseholdFull):
		return nil, ErrHouseholdFull
	case err != nil:
		return nil, persistence("add member", err)
	}
	s.logger.Info("household member added", "household_id", actor.HouseholdID, "user_id", user.ID, "role", role)
	return member, nil
}

// RemoveMember removes a user from the actor's household. The owner stays.
func (s *HouseholdService) RemoveMember(actor policy.Subject, userID int64) error {
	if actor.HouseholdID == 0 {
		return ErrNoHousehold
	}
	if !policy.Authorize(actor, policy.ActionManageMembers, policy.Resource{Kind: policy.KindHousehold, ID: actor.HouseholdID}) {
		return ErrNotAuthorized
	}

	member, err := s.households.GetMember(actor.HouseholdID, userID)
	if err != nil {
		return persistence("load member", err)
	}
	if member == nil {
		return ErrMemberNotFound
	}
	if member.Role == model.HouseholdRoleOwner {
		return ErrCannotRemoveOwner
	}

	if _, err := s.households.RemoveMember(actor.HouseholdID, userID); err != nil {
		return persistence("remove member", err)
	}
	s.logger.Info("household member removed", "household_id", actor.HouseholdID, "user_id", userID)
	return nil
}
