// Package notify tells households about network events by email and over
// their websocket connections.
package notify

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/dukerupert/mealplannr/internal/auth"
	"github.com/dukerupert/mealplannr/internal/email"
	"github.com/dukerupert/mealplannr/internal/model"
	"github.com/dukerupert/mealplannr/internal/store"
	"github.com/dukerupert/mealplannr/internal/websocket"
)

// RespondPath is the public endpoint that resolves an invitation from an
// emailed link.
const RespondPath = "/mealplannr/v1/invitations/respond"

type Mailer interface {
	Configured() bool
	SendNetworkInvitation(inv email.Invitation) error
	SendInvitationResolved(to, networkName, householdName, status string) error
	SendHouseholdRemoved(to, networkName, householdName string) error
}

type Broadcaster interface {
	BroadcastToHousehold(householdID int64, msg websocket.Message) int
}

type Notifier struct {
	users      *store.UserStore
	households *store.HouseholdStore
	tokens     *store.ActionTokenStore
	issuer     *auth.Issuer
	mailer     Mailer
	hub        Broadcaster
	baseURL    string
	logger     *slog.Logger
}

type Config struct {
	Users      *store.UserStore
	Households *store.HouseholdStore
	Tokens     *store.ActionTokenStore
	Issuer     *auth.Issuer
	Mailer     Mailer
	Hub        Broadcaster
	BaseURL    string
	Logger     *slog.Logger
}

func New(cfg Config) *Notifier {
	return &Notifier{
		users:      cfg.Users,
		households: cfg.Households,
		tokens:     cfg.Tokens,
		issuer:     cfg.Issuer,
		mailer:     cfg.Mailer,
		hub:        cfg.Hub,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		logger:     cfg.Logger,
	}
}

// InvitationSent emails the invited household's owner a pair of one-time
// accept and reject links and pushes the invitation to the household.
func (n *Notifier) InvitationSent(inv *model.NetworkHouseholdDetail) error {
	n.broadcast(inv.HouseholdID, websocket.NewMessage("invitation", "received", inv.ID, map[string]any{
		"network_id":   inv.NetworkID,
		"network_name": inv.NetworkName,
	}))

	if !n.mailer.Configured() {
		n.logger.Debug("email not configured, skipping invitation email", "invitation_id", inv.ID)
		return nil
	}
	owner, err := n.users.GetByID(inv.HouseholdOwnerID)
	if err != nil {
		return fmt.Errorf("load household owner: %w", err)
	}
	if owner == nil {
		return fmt.Errorf("household owner %d not found", inv.HouseholdOwnerID)
	}

	acceptURL, err := n.link(inv.ID, model.ActionAccept, owner.ID)
	if err != nil {
		return err
	}
	rejectURL, err := n.link(inv.ID, model.ActionReject, owner.ID)
	if err != nil {
		return err
	}

	if err := n.mailer.SendNetworkInvitation(email.Invitation{
		To:            owner.Email,
		NetworkName:   inv.NetworkName,
		HouseholdName: inv.HouseholdName,
		AcceptURL:     acceptURL,
		RejectURL:     rejectURL,
	}); err != nil {
		return fmt.Errorf("send invitation email: %w", err)
	}
	n.logger.Info("invitation email sent", "invitation_id", inv.ID, "to", owner.Email)
	return nil
}

// InvitationResolved tells the network owner's household the outcome.
func (n *Notifier) InvitationResolved(inv *model.NetworkHouseholdDetail) error {
	ownerHousehold, err := n.households.OwnedBy(inv.NetworkOwnerID)
	if err != nil {
		return fmt.Errorf("load network owner household: %w", err)
	}
	if ownerHousehold != nil {
		n.broadcast(ownerHousehold.ID, websocket.NewMessage("invitation", inv.Status, inv.ID, map[string]any{
			"network_id":     inv.NetworkID,
			"household_id":   inv.HouseholdID,
			"household_name": inv.HouseholdName,
		}))
	}

	if !n.mailer.Configured() {
		return nil
	}
	owner, err := n.users.GetByID(inv.NetworkOwnerID)
	if err != nil {
		return fmt.Errorf("load network owner: %w", err)
	}
	if owner == nil {
		return nil
	}
	if err := n.mailer.SendInvitationResolved(owner.Email, inv.NetworkName, inv.HouseholdName, inv.Status); err != nil {
		return fmt.Errorf("send resolution email: %w", err)
	}
	return nil
}

// HouseholdRemoved tells a household it is no longer part of a network.
func (n *Notifier) HouseholdRemoved(network *model.Network, household *model.Household) error {
	n.broadcast(household.ID, websocket.NewMessage("network", "removed", network.ID, map[string]any{
		"network_name": network.Name,
	}))

	if !n.mailer.Configured() {
		return nil
	}
	ownerID, err := n.households.OwnerID(household.ID)
	if err != nil {
		return fmt.Errorf("load household owner: %w", err)
	}
	owner, err := n.users.GetByID(ownerID)
	if err != nil {
		return fmt.Errorf("load household owner: %w", err)
	}
	if owner == nil {
		return nil
	}
	if err := n.mailer.SendHouseholdRemoved(owner.Email, network.Name, household.Name); err != nil {
		return fmt.Errorf("send removal email: %w", err)
	}
	return nil
}

// link issues a signed one-time token, records its jti and returns the
// public URL that redeems it.
func (n *Notifier) link(invitationID int64, action string, userID int64) (string, error) {
	token, jti, expires, err := n.issuer.IssueLink(invitationID, action, userID)
	if err != nil {
		return "", fmt.Errorf("issue %s link: %w", action, err)
	}
	if _, err := n.tokens.Create(jti, invitationID, action, userID, expires); err != nil {
		return "", fmt.Errorf("record %s link: %w", action, err)
	}
	return n.baseURL + RespondPath + "?token=" + url.QueryEscape(token), nil
}

func (n *Notifier) broadcast(householdID int64, msg websocket.Message) {
	if n.hub == nil {
		return
	}
	delivered := n.hub.BroadcastToHousehold(householdID, msg)
	n.logger.Debug("broadcast", "household_id", householdID, "type", msg.Type, "clients", delivered)
}
