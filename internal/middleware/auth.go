package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/mealplannr/internal/auth"
	"github.com/dukerupert/mealplannr/internal/policy"
	"github.com/dukerupert/mealplannr/internal/store"
)

// SessionParser verifies bearer tokens.
type SessionParser interface {
	ParseSession(token string) (*auth.SessionClaims, error)
}

// RequireAuth validates the bearer token and populates AuthContext with the
// user and their household membership, if any.
func RequireAuth(tokens SessionParser, users *store.UserStore, households *store.HouseholdStore, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized", "Missing bearer token")
				return
			}

			claims, err := tokens.ParseSession(raw)
			if err != nil {
				logger.Debug("reject bearer token", "error", err, "remote", RealIP(r))
				writeError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}
			userID, err := claims.UserID()
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			user, err := users.GetByID(userID)
			if err != nil {
				logger.Error("load user", "user_id", userID, "error", err)
				writeError(w, http.StatusInternalServerError, "persistence_error", "Could not load user")
				return
			}
			if user == nil {
				writeError(w, http.StatusUnauthorized, "unauthorized", "Unknown user")
				return
			}

			member, err := households.MembershipForUser(user.ID)
			if err != nil {
				logger.Error("load membership", "user_id", user.ID, "error", err)
				writeError(w, http.StatusInternalServerError, "persistence_error", "Could not load household")
				return
			}

			ac := auth.AuthContext{
				UserID:  user.ID,
				Email:   user.Email,
				IsAdmin: user.IsAdmin,
				TokenID: claims.ID,
			}
			if member != nil {
				ac.HouseholdID = member.HouseholdID
				ac.HouseholdRole = member.Role
			}

			next.ServeHTTP(w, r.WithContext(auth.WithAuth(r.Context(), ac)))
		})
	}
}

// RequireCapability rejects callers whose roles do not grant c.
func RequireCapability(c policy.Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ac, ok := auth.FromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized", "Login required")
				return
			}
			if !ac.Subject().Can(c) {
				writeError(w, http.StatusForbidden, "forbidden", "You do not have permission to do that")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin checks that the authenticated user is an administrator.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !auth.IsAdmin(r.Context()) {
			writeError(w, http.StatusForbidden, "forbidden", "Administrators only")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"code":    code,
		"message": message,
	})
}
