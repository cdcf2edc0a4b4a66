package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/mealplannr/internal/model"
	"github.com/dukerupert/mealplannr/internal/service"
)

type InvitationHandler struct {
	networks *service.NetworkService
	logger   *slog.Logger
}

func NewInvitationHandler(networks *service.NetworkService, logger *slog.Logger) *InvitationHandler {
	return &InvitationHandler{networks: networks, logger: logger}
}

// Resolve handles POST /invitations/{id}/{action}.
func (h *InvitationHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	ac, ok := caller(w, r)
	if !ok {
		return
	}
	invitationID, err := parseIDParam(r, "id")
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	var inv *model.NetworkHouseholdDetail
	switch r.PathValue("action") {
	case model.ActionAccept:
		inv, err = h.networks.AcceptInvitation(invitationID, ac.UserID)
	case model.ActionReject:
		inv, err = h.networks.RejectInvitation(invitationID, ac.UserID)
	default:
		writeFailure(w, http.StatusNotFound, "not_found", "Unknown invitation action")
		return
	}
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"invitation": inv,
		"message":    "Invitation " + inv.Status,
	})
}

// Respond handles the public GET /invitations/respond?token= link from an
// invitation email.
func (h *InvitationHandler) Respond(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeError(w, h.logger, service.ErrInvalidToken)
		return
	}
	inv, err := h.networks.RespondByToken(token)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"invitation": inv,
		"message":    "Invitation " + inv.Status,
	})
}

// ForHousehold handles GET /households/invitations.
func (h *InvitationHandler) ForHousehold(w http.ResponseWriter, r *http.Request) {
	ac, ok := caller(w, r)
	if !ok {
		return
	}
	status := r.URL.Query().Get("status")
	if status == "" {
		status = model.StatusPending
	}

	household, invitations, err := h.networks.HouseholdInvitations(ac.UserID, status)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if household == nil {
		writeSuccess(w, http.StatusOK, map[string]any{
			"invitations": []model.NetworkHouseholdDetail{},
			"message":     "User is not a household owner",
		})
		return
	}
	if invitations == nil {
		invitations = []model.NetworkHouseholdDetail{}
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"household_id": household.ID,
		"invitations":  invitations,
	})
}
