package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/mealplannr/internal/model"
	"github.com/dukerupert/mealplannr/internal/service"
)

type NetworkHandler struct {
	networks *service.NetworkService
	logger   *slog.Logger
}

func NewNetworkHandler(networks *service.NetworkService, logger *slog.Logger) *NetworkHandler {
	return &NetworkHandler{networks: networks, logger: logger}
}

type createNetworkRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

func (h *NetworkHandler) Create(w http.ResponseWriter, r *http.Request) {
	ac, ok := caller(w, r)
	if !ok {
		return
	}
	var req createNetworkRequest
	if err := decode(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	network, err := h.networks.CreateNetwork(req.Name, ac.UserID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusCreated, map[string]any{
		"network_id": network.ID,
		"network":    network,
		"message":    "Network created successfully",
	})
}

func (h *NetworkHandler) Mine(w http.ResponseWriter, r *http.Request) {
	ac, ok := caller(w, r)
	if !ok {
		return
	}
	networks, err := h.networks.MyNetworks(ac.UserID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if networks == nil {
		networks = []model.NetworkSummary{}
	}
	writeSuccess(w, http.StatusOK, map[string]any{"networks": networks})
}

type renameNetworkRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

// Rename handles PATCH /networks/{id}.
func (h *NetworkHandler) Rename(w http.ResponseWriter, r *http.Request) {
	ac, ok := caller(w, r)
	if !ok {
		return
	}
	networkID, err := parseIDParam(r, "id")
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	var req renameNetworkRequest
	if err := decode(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	network, err := h.networks.RenameNetwork(networkID, req.Name, ac.UserID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"network": network})
}

type inviteRequest struct {
	HouseholdID int64 `json:"household_id" validate:"required,gt=0"`
}

func (h *NetworkHandler) Invite(w http.ResponseWriter, r *http.Request) {
	ac, ok := caller(w, r)
	if !ok {
		return
	}
	networkID, err := parseIDParam(r, "id")
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	var req inviteRequest
	if err := decode(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	inv, err := h.networks.InviteHousehold(networkID, req.HouseholdID, ac.UserID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusCreated, map[string]any{
		"invitation_id": inv.ID,
		"invitation":    inv,
		"message":       "Invitation sent successfully",
	})
}

func (h *NetworkHandler) RemoveHousehold(w http.ResponseWriter, r *http.Request) {
	ac, ok := caller(w, r)
	if !ok {
		return
	}
	networkID, err := parseIDParam(r, "id")
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	householdID, err := parseIDParam(r, "hid")
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	if err := h.networks.RemoveHousehold(networkID, householdID, ac.UserID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"message": "Household removed from network"})
}

func (h *NetworkHandler) Households(w http.ResponseWriter, r *http.Request) {
	networkID, err := parseIDParam(r, "id")
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	households, err := h.networks.NetworkHouseholds(networkID, r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if households == nil {
		households = []model.NetworkHouseholdDetail{}
	}
	writeSuccess(w, http.StatusOK, map[string]any{"households": households})
}
