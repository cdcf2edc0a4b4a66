package server

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/mealplannr/internal/auth"
	"github.com/dukerupert/mealplannr/internal/email"
	"github.com/dukerupert/mealplannr/internal/handler"
	"github.com/dukerupert/mealplannr/internal/middleware"
	"github.com/dukerupert/mealplannr/internal/notify"
	"github.com/dukerupert/mealplannr/internal/policy"
	"github.com/dukerupert/mealplannr/internal/service"
	"github.com/dukerupert/mealplannr/internal/store"
	ws "github.com/dukerupert/mealplannr/internal/websocket"
)

// APIPrefix is the version prefix of every REST route.
const APIPrefix = "/mealplannr/v1"

type Config struct {
	Issuer         *auth.Issuer
	Mailer         notify.Mailer
	BaseURL        string
	AllowedOrigins []string
	// RateLimit is the number of public link redemptions allowed per IP per
	// minute.
	RateLimit int
}

type Server struct {
	hub          *ws.Hub
	issuer       *auth.Issuer
	networkH     *handler.NetworkHandler
	invitationH  *handler.InvitationHandler
	recipeH      *handler.RecipeHandler
	householdH   *handler.HouseholdHandler
	adminH       *handler.AdminHandler
	userStore    *store.UserStore
	households   *store.HouseholdStore
	actionTokens *store.ActionTokenStore
	rateLimiter  *middleware.RateLimiter
	rateLimit    int
	origins      []string
	logger       *slog.Logger
}

func New(db *sql.DB, cfg Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	householdStore := store.NewHouseholdStore(db)
	networkStore := store.NewNetworkStore(db)
	membershipStore := store.NewMembershipStore(db)
	actionTokenStore := store.NewActionTokenStore(db)
	recipeStore := store.NewRecipeStore(db)

	mailer := cfg.Mailer
	if mailer == nil {
		mailer = email.NewClient("", "")
	}
	notifier := notify.New(notify.Config{
		Users:      userStore,
		Households: householdStore,
		Tokens:     actionTokenStore,
		Issuer:     cfg.Issuer,
		Mailer:     mailer,
		Hub:        hub,
		BaseURL:    cfg.BaseURL,
		Logger:     logger.With("component", "notify"),
	})

	networkSvc := service.NewNetworkService(service.NetworkStores{
		Households:   householdStore,
		Networks:     networkStore,
		Links:        store.NewNetworkHouseholdStore(db),
		Membership:   membershipStore,
		ActionTokens: actionTokenStore,
	}, cfg.Issuer, notifier, logger.With("component", "network"))

	accessSvc := service.NewRecipeAccessService(service.RecipeAccessStores{
		Recipes:    recipeStore,
		Shares:     store.NewRecipeShareStore(db),
		Households: householdStore,
		Networks:   networkStore,
		Membership: membershipStore,
	}, logger.With("component", "recipe_access"))
	recipeSvc := service.NewRecipeService(recipeStore, store.NewMacroStore(db), store.NewIngredientStore(db), accessSvc, logger.With("component", "recipe"))
	householdSvc := service.NewHouseholdService(householdStore, userStore, logger.With("component", "household"))

	rateLimit := cfg.RateLimit
	if rateLimit <= 0 {
		rateLimit = 10
	}

	return &Server{
		hub:          hub,
		issuer:       cfg.Issuer,
		networkH:     handler.NewNetworkHandler(networkSvc, logger.With("component", "network_handler")),
		invitationH:  handler.NewInvitationHandler(networkSvc, logger.With("component", "invitation_handler")),
		recipeH:      handler.NewRecipeHandler(recipeSvc, accessSvc, logger.With("component", "recipe_handler")),
		householdH:   handler.NewHouseholdHandler(householdSvc, logger.With("component", "household_handler")),
		adminH:       handler.NewAdminHandler(userStore, logger.With("component", "admin_handler")),
		userStore:    userStore,
		households:   householdStore,
		actionTokens: actionTokenStore,
		rateLimiter:  middleware.NewRateLimiter(),
		rateLimit:    rateLimit,
		origins:      cfg.AllowedOrigins,
		logger:       logger,
	}
}

// ActionTokenStore returns the link token store for cleanup tasks.
func (s *Server) ActionTokenStore() *store.ActionTokenStore {
	return s.actionTokens
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// Hub returns the websocket hub.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("GET /health", s.healthHandler)
	outerMux.HandleFunc("GET "+APIPrefix+"/invitations/respond", s.rateLimitedHandler(s.invitationH.Respond))

	// Protected routes, wrapped with RequireAuth and mounted under APIPrefix
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.issuer, s.userStore, s.households, s.logger.With("component", "auth"))
	outerMux.Handle(APIPrefix+"/", http.StripPrefix(APIPrefix, authMiddleware(protectedMux)))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "clients": s.hub.ClientCount()})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	rl := middleware.RateLimit(s.rateLimiter, middleware.RealIP, s.rateLimit, time.Minute)
	return rl(h).ServeHTTP
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	canEdit := middleware.RequireCapability(policy.CapEditRecipes)

	mux.HandleFunc("GET /me", handler.Me)
	mux.HandleFunc("GET /me/backend-access", handler.BackendAccess)
	mux.Handle("GET /ws", ws.HandleWebSocket(s.hub, s.origins, s.logger.With("component", "websocket")))

	// Admin
	mux.Handle("GET /admin/users", middleware.RequireAdmin(http.HandlerFunc(s.adminH.Users)))

	// Networks
	mux.HandleFunc("POST /networks", s.networkH.Create)
	mux.HandleFunc("GET /networks/my", s.networkH.Mine)
	mux.HandleFunc("PATCH /networks/{id}", s.networkH.Rename)
	mux.HandleFunc("POST /networks/{id}/invite", s.networkH.Invite)
	mux.HandleFunc("DELETE /networks/{id}/households/{hid}", s.networkH.RemoveHousehold)
	mux.HandleFunc("GET /networks/{id}/households", s.networkH.Households)

	// Invitations
	mux.HandleFunc("POST /invitations/{id}/{action}", s.invitationH.Resolve)
	mux.HandleFunc("GET /households/invitations", s.invitationH.ForHousehold)

	// Households
	mux.HandleFunc("POST /households", s.householdH.Create)
	mux.HandleFunc("GET /households/my", s.householdH.Mine)
	mux.HandleFunc("PATCH /households/my", s.householdH.Rename)
	mux.HandleFunc("POST /households/members", s.householdH.AddMember)
	mux.HandleFunc("DELETE /households/members/{uid}", s.householdH.RemoveMember)

	// Recipes
	mux.Handle("POST /recipes", canEdit(http.HandlerFunc(s.recipeH.Create)))
	mux.HandleFunc("GET /recipes/accessible", s.recipeH.Accessible)
	mux.HandleFunc("GET /recipes/{id}", s.recipeH.Get)
	mux.Handle("PATCH /recipes/{id}", canEdit(http.HandlerFunc(s.recipeH.SetStatus)))
	mux.HandleFunc("POST /recipes/{id}/sharing", s.recipeH.SetSharing)
	mux.HandleFunc("GET /recipes/{id}/sharing", s.recipeH.GetSharing)
	mux.Handle("POST /recipes/{id}/macros", canEdit(http.HandlerFunc(s.recipeH.UpdateMacros)))
	mux.Handle("DELETE /recipes/{id}/macros", canEdit(http.HandlerFunc(s.recipeH.ClearMacros)))
	mux.Handle("POST /ingredients/batch", canEdit(http.HandlerFunc(s.recipeH.BatchIngredients)))
}
