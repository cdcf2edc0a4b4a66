package handler

import (
	"net/http"

	"github.com/dukerupert/mealplannr/internal/policy"
)

// Me returns the caller with their roles, capabilities and the backend
// menus they may see.
func Me(w http.ResponseWriter, r *http.Request) {
	ac, ok := caller(w, r)
	if !ok {
		return
	}
	subject := ac.Subject()

	roles := subject.Roles()
	if roles == nil {
		roles = []policy.Role{}
	}
	capabilities := subject.Capabilities()
	if capabilities == nil {
		capabilities = []policy.Capability{}
	}

	writeSuccess(w, http.StatusOK, map[string]any{
		"user": map[string]any{
			"id":             ac.UserID,
			"email":          ac.Email,
			"is_admin":       ac.IsAdmin,
			"household_id":   ac.HouseholdID,
			"household_role": ac.HouseholdRole,
		},
		"roles":         roles,
		"capabilities":  capabilities,
		"visible_menus": policy.VisibleMenus(subject, policy.DefaultMenus),
	})
}

// BackendAccess answers whether the caller may open the backend screen at
// ?path=, and where to go instead when not.
func BackendAccess(w http.ResponseWriter, r *http.Request) {
	ac, ok := caller(w, r)
	if !ok {
		return
	}
	path := r.URL.Query().Get("path")
	if path == "" {
		writeFailure(w, http.StatusBadRequest, "invalid_request", "path is required")
		return
	}

	allowed, redirect := policy.AllowBackendPath(ac.Subject(), path)
	payload := map[string]any{"path": path, "allowed": allowed}
	if !allowed {
		payload["redirect"] = redirect
	}
	writeSuccess(w, http.StatusOK, payload)
}
