package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/mealplannr/internal/model"
	"github.com/dukerupert/mealplannr/internal/service"
)

type HouseholdHandler struct {
	households *service.HouseholdService
	logger     *slog.Logger
}

func NewHouseholdHandler(households *service.HouseholdService, logger *slog.Logger) *HouseholdHandler {
	return &HouseholdHandler{households: households, logger: logger}
}

type createHouseholdRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

func (h *HouseholdHandler) Create(w http.ResponseWriter, r *http.Request) {
	ac, ok := caller(w, r)
	if !ok {
		return
	}
	var req createHouseholdRequest
	if err := decode(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	household, err := h.households.CreateHousehold(req.Name, ac.UserID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusCreated, map[string]any{
		"household_id": household.ID,
		"household":    household,
	})
}

func (h *HouseholdHandler) Mine(w http.ResponseWriter, r *http.Request) {
	ac, ok := caller(w, r)
	if !ok {
		return
	}
	household, members, err := h.households.Mine(ac.UserID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if household == nil {
		writeSuccess(w, http.StatusOK, map[string]any{
			"household": nil,
			"members":   []model.HouseholdMember{},
			"message":   "User is not in a household",
		})
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"household": household,
		"members":   members,
	})
}

// Rename handles PATCH /households/my.
func (h *HouseholdHandler) Rename(w http.ResponseWriter, r *http.Request) {
	ac, ok := caller(w, r)
	if !ok {
		return
	}
	var req createHouseholdRequest
	if err := decode(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	household, err := h.households.RenameHousehold(ac.Subject(), req.Name)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"household": household})
}

type addMemberRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"omitempty,oneof=member manager child"`
}

func (h *HouseholdHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	ac, ok := caller(w, r)
	if !ok {
		return
	}
	var req addMemberRequest
	if err := decode(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	member, err := h.households.AddMember(ac.Subject(), req.Email, req.Role)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusCreated, map[string]any{"member": member})
}

func (h *HouseholdHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	ac, ok := caller(w, r)
	if !ok {
		return
	}
	userID, err := parseIDParam(r, "uid")
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	if err := h.households.RemoveMember(ac.Subject(), userID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"message": "Member removed"})
}
