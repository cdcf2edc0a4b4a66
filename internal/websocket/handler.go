package websocket

import (
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"

	"github.com/dukerupert/mealplannr/internal/auth"
)

// HandleWebSocket upgrades an authenticated request and subscribes the
// connection to the caller's household. Callers without a household get 409.
func HandleWebSocket(hub *Hub, allowedOrigins []string, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.UserID(r.Context())
		if userID == 0 {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		householdID := auth.HouseholdID(r.Context())
		if householdID == 0 {
			http.Error(w, "no household", http.StatusConflict)
			return
		}

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			OriginPatterns: allowedOrigins,
		})
		if err != nil {
			logger.Warn("websocket accept", "error", err, "user_id", userID)
			return
		}
		defer conn.CloseNow()

		logger.Debug("websocket connected", "user_id", userID, "household_id", householdID)
		NewClient(hub, conn, householdID, userID).Run(r.Context())
		logger.Debug("websocket disconnected", "user_id", userID, "household_id", householdID)
	}
}
