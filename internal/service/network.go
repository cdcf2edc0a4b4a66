package service

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/dukerupert/mealplannr/internal/auth"
	"github.com/dukerupert/mealplannr/internal/model"
	"github.com/dukerupert/mealplannr/internal/policy"
	"github.com/dukerupert/mealplannr/internal/store"
)

// Notifier is told about network events after they are committed. Its
// errors are logged and never undo the event.
type Notifier interface {
	InvitationSent(inv *model.NetworkHouseholdDetail) error
	InvitationResolved(inv *model.NetworkHouseholdDetail) error
	HouseholdRemoved(network *model.Network, household *model.Household) error
}

// LinkParser verifies the signed tokens embedded in invitation emails.
type LinkParser interface {
	ParseLink(token string) (*auth.LinkClaims, error)
}

type NetworkService struct {
	households *store.HouseholdStore
	networks   *store.NetworkStore
	links      *store.NetworkHouseholdStore
	membership *store.MembershipStore
	tokens     *store.ActionTokenStore
	parser     LinkParser
	notifier   Notifier
	logger     *slog.Logger
	now        func() time.Time
}

type NetworkStores struct {
	Households   *store.HouseholdStore
	Networks     *store.NetworkStore
	Links        *store.NetworkHouseholdStore
	Membership   *store.MembershipStore
	ActionTokens *store.ActionTokenStore
}

func NewNetworkService(stores NetworkStores, parser LinkParser, notifier Notifier, logger *slog.Logger) *NetworkService {
	return &NetworkService{
		households: stores.Households,
		networks:   stores.Networks,
		links:      stores.Links,
		membership: stores.Membership,
		tokens:     stores.ActionTokens,
		parser:     parser,
		notifier:   notifier,
		logger:     logger,
		now:        time.Now,
	}
}

// CreateNetwork creates a network owned by userID and links the household
// the user owns as its accepted owner.
func (s *NetworkService) CreateNetwork(name string, userID int64) (*model.Network, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}

	household, err := s.households.OwnedBy(userID)
	if err != nil {
		return nil, persistence("load household", err)
	}
	if household == nil {
		return nil, ErrNoHousehold
	}

	network, err := s.networks.CreateWithOwner(name, userID, household.ID)
	if err != nil {
		return nil, persistence("create network", err)
	}
	s.logger.Info("network created", "network_id", network.ID, "user_id", userID, "household_id", household.ID)
	return network, nil
}

// InviteHousehold issues a pending invitation from a network to a household.
func (s *NetworkService) InviteHousehold(networkID, householdID, inviterID int64) (*model.NetworkHouseholdDetail, error) {
	network, err := s.loadNetwork(networkID)
	if err != nil {
		return nil, err
	}
	if !policy.Authorize(policy.Subject{UserID: inviterID}, policy.ActionManageNetwork,
		policy.Resource{Kind: policy.KindNetwork, ID: network.ID, OwnerID: network.CreatedBy}) {
		return nil, ErrNotOwner
	}

	household, err := s.households.GetByID(householdID)
	if err != nil {
		return nil, persistence("load household", err)
	}
	if household == nil {
		return nil, ErrHouseholdNotFound
	}

	link, err := s.links.Invite(networkID, householdID, model.MaxHouseholdsPerNetwork)
	switch {
	case errors.Is(err, store.ErrNetworkFull):
		return nil, ErrNetworkFull
	case errors.Is(err, store.ErrAlreadyLinked):
		return nil, ErrAlreadyLinked
	case err != nil:
		return nil, persistence("invite household", err)
	}

	inv, err := s.membership.Invitation(link.ID)
	if err != nil {
		return nil, persistence("load invitation", err)
	}
	s.logger.Info("household invited", "network_id", networkID, "household_id", householdID, "invitation_id", link.ID)

	if err := s.notifier.InvitationSent(inv); err != nil {
		s.logger.Warn("invitation notification failed", "invitation_id", inv.ID, "error", err)
	}
	return inv, nil
}

// AcceptInvitation lets the invited household's owner join the network.
func (s *NetworkService) AcceptInvitation(invitationID, userID int64) (*model.NetworkHouseholdDetail, error) {
	return s.resolve(invitationID, userID, model.ActionAccept)
}

// RejectInvitation lets the invited household's owner decline.
func (s *NetworkService) RejectInvitation(invitationID, userID int64) (*model.NetworkHouseholdDetail, error) {
	return s.resolve(invitationID, userID, model.ActionReject)
}

func (s *NetworkService) resolve(invitationID, userID int64, action string) (*model.NetworkHouseholdDetail, error) {
	inv, err := s.membership.Invitation(invitationID)
	if err != nil {
		return nil, persistence("load invitation", err)
	}
	if inv == nil {
		return nil, ErrInvitationNotFound
	}
	if !policy.Authorize(policy.Subject{UserID: userID}, policy.ActionRespond,
		policy.Resource{Kind: policy.KindInvitation, ID: inv.ID, OwnerID: inv.HouseholdOwnerID}) {
		return nil, ErrNotAuthorized
	}
	if inv.Status != model.StatusPending {
		return nil, ErrAlreadyResolved
	}

	if action == model.ActionAccept {
		_, err = s.links.Accept(invitationID, model.MaxHouseholdsPerNetwork)
	} else {
		_, err = s.links.Reject(invitationID)
	}
	switch {
	case errors.Is(err, store.ErrNetworkFull):
		return nil, ErrNetworkFull
	case errors.Is(err, store.ErrAlreadyResolved):
		return nil, ErrAlreadyResolved
	case errors.Is(err, store.ErrNotFound):
		return nil, ErrInvitationNotFound
	case err != nil:
		return nil, persistence(action+" invitation", err)
	}

	if s.tokens != nil {
		if err := s.tokens.InvalidateForInvitation(invitationID, s.now()); err != nil {
			s.logger.Warn("invalidate invitation links", "invitation_id", invitationID, "error", err)
		}
	}

	inv, err = s.membership.Invitation(invitationID)
	if err != nil {
		return nil, persistence("load invitation", err)
	}
	s.logger.Info("invitation resolved", "invitation_id", invitationID, "status", inv.Status, "user_id", userID)

	if err := s.notifier.InvitationResolved(inv); err != nil {
		s.logger.Warn("resolution notification failed", "invitation_id", invitationID, "error", err)
	}
	return inv, nil
}

// RespondByToken resolves an invitation from an emailed link. Each link
// works once.
func (s *NetworkService) RespondByToken(token string) (*model.NetworkHouseholdDetail, error) {
	if s.parser == nil || s.tokens == nil {
		return nil, ErrInvalidToken
	}
	claims, err := s.parser.ParseLink(token)
	if err != nil {
		s.logger.Debug("reject link token", "error", err)
		return nil, ErrInvalidToken
	}

	recorded, err := s.tokens.Consume(claims.ID, s.now())
	if err != nil {
		return nil, persistence("consume link token", err)
	}
	if recorded == nil ||
		recorded.InvitationID != claims.InvitationID ||
		recorded.Action != claims.Action ||
		recorded.UserID != claims.UserID {
		return nil, ErrInvalidToken
	}

	return s.resolve(recorded.InvitationID, recorded.UserID, recorded.Action)
}

// RenameNetwork changes the name of a network. Only its owner may rename it.
func (s *NetworkService) RenameNetwork(networkID int64, name string, userID int64) (*model.Network, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}
	network, err := s.loadNetwork(networkID)
	if err != nil {
		return nil, err
	}
	if !policy.Authorize(policy.Subject{UserID: userID}, policy.ActionManageNetwork,
		policy.Resource{Kind: policy.KindNetwork, ID: network.ID, OwnerID: network.CreatedBy}) {
		return nil, ErrNotOwner
	}

	renamed, err := s.networks.Rename(network.ID, name)
	if err != nil {
		return nil, persistence("rename network", err)
	}
	s.logger.Info("network renamed", "network_id", network.ID, "user_id", userID)
	return renamed, nil
}

// RemoveHousehold unlinks a household from a network. The owner's household
// cannot be removed.
func (s *NetworkService) RemoveHousehold(networkID, householdID, removerID int64) error {
	network, err := s.loadNetwork(networkID)
	if err != nil {
		return err
	}
	if !policy.Authorize(policy.Subject{UserID: removerID}, policy.ActionManageNetwork,
		policy.Resource{Kind: policy.KindNetwork, ID: network.ID, OwnerID: network.CreatedBy}) {
		return ErrNotOwner
	}

	link, err := s.links.GetByPair(networkID, householdID)
	if err != nil {
		return persistence("load network household", err)
	}
	if link == nil {
		return ErrLinkNotFound
	}
	if link.Role == model.NetworkRoleOwner {
		return ErrCannotRemoveOwner
	}

	if _, err := s.links.Remove(networkID, householdID); err != nil {
		return persistence("remove household", err)
	}
	s.logger.Info("household removed", "network_id", networkID, "household_id", householdID)

	household, err := s.households.GetByID(householdID)
	if err != nil || household == nil {
		s.logger.Warn("load removed household", "household_id", householdID, "error", err)
		return nil
	}
	if err := s.notifier.HouseholdRemoved(network, household); err != nil {
		s.logger.Warn("removal notification failed", "household_id", householdID, "error", err)
	}
	return nil
}

// MyNetworks lists the networks the user created or belongs to.
func (s *NetworkService) MyNetworks(userID int64) ([]model.NetworkSummary, error) {
	nets, err := s.membership.NetworksForUser(userID)
	if err != nil {
		return nil, persistence("list networks", err)
	}
	return nets, nil
}

// NetworkHouseholds lists the households of a network, optionally filtered
// by status.
func (s *NetworkService) NetworkHouseholds(networkID int64, status string) ([]model.NetworkHouseholdDetail, error) {
	if status != "" && !model.ValidStatus(status) {
		return nil, ErrInvalidStatus
	}
	if _, err := s.loadNetwork(networkID); err != nil {
		return nil, err
	}
	out, err := s.membership.NetworkHouseholds(networkID, status)
	if err != nil {
		return nil, persistence("list network households", err)
	}
	return out, nil
}

// HouseholdInvitations lists the network links of the household the user
// owns. It returns a nil household when the user owns none.
func (s *NetworkService) HouseholdInvitations(userID int64, status string) (*model.Household, []model.NetworkHouseholdDetail, error) {
	if status != "" && !model.ValidStatus(status) {
		return nil, nil, ErrInvalidStatus
	}
	household, err := s.households.OwnedBy(userID)
	if err != nil {
		return nil, nil, persistence("load household", err)
	}
	if household == nil {
		return nil, nil, nil
	}
	out, err := s.membership.HouseholdInvitations(household.ID, status)
	if err != nil {
		return nil, nil, persistence("list invitations", err)
	}
	return household, out, nil
}

func (s *NetworkService) loadNetwork(id int64) (*model.Network, error) {
	network, err := s.networks.GetByID(id)
	if err != nil {
		return nil, persistence("load network", err)
	}
	if network == nil {
		return nil, ErrNetworkNotFound
	}
	return network, nil
}
