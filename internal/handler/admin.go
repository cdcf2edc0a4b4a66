package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/mealplannr/internal/model"
	"github.com/dukerupert/mealplannr/internal/store"
)

// AdminHandler serves administrator-only endpoints. Routes using it sit
// behind middleware.RequireAdmin.
type AdminHandler struct {
	users  *store.UserStore
	logger *slog.Logger
}

func NewAdminHandler(users *store.UserStore, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{users: users, logger: logger}
}

// Users handles GET /admin/users.
func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List()
	if err != nil {
		h.logger.Error("list users", "error", err)
		writeFailure(w, http.StatusInternalServerError, "persistence_error", "Could not load users")
		return
	}
	if users == nil {
		users = []model.User{}
	}
	writeSuccess(w, http.StatusOK, map[string]any{"users": users})
}
