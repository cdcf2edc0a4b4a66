package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dukerupert/mealplannr/internal/auth"
	"github.com/dukerupert/mealplannr/internal/database"
	"github.com/dukerupert/mealplannr/internal/model"
	"github.com/dukerupert/mealplannr/internal/policy"
	"github.com/dukerupert/mealplannr/internal/store"
)

func setupAuthMiddleware(t *testing.T) (*auth.Issuer, *store.UserStore, *store.HouseholdStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	issuer, err := auth.NewIssuer("middleware-test-secret", time.Hour, time.Hour)
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	return issuer, store.NewUserStore(db), store.NewHouseholdStore(db)
}

func unreachable(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not reach handler")
	})
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["success"] != false {
		t.Errorf("success = %v, want false", body["success"])
	}
	return body
}

func TestRequireAuthNoToken(t *testing.T) {
	issuer, us, hs := setupAuthMiddleware(t)
	handler := RequireAuth(issuer, us, hs, slog.Default())(unreachable(t))

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if body := decodeError(t, rec); body["code"] != "unauthorized" {
		t.Errorf("code = %v, want unauthorized", body["code"])
	}
}

func TestRequireAuthInvalidToken(t *testing.T) {
	issuer, us, hs := setupAuthMiddleware(t)
	handler := RequireAuth(issuer, us, hs, slog.Default())(unreachable(t))

	for _, header := range []string{"Bearer garbage", "Basic abc", "Bearer "} {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%q: status = %d, want %d", header, rec.Code, http.StatusUnauthorized)
		}
	}
}

func TestRequireAuthDeletedUser(t *testing.T) {
	issuer, us, hs := setupAuthMiddleware(t)
	handler := RequireAuth(issuer, us, hs, slog.Default())(unreachable(t))

	token, _, err := issuer.IssueSession(4242)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRequireAuthValidToken(t *testing.T) {
	issuer, us, hs := setupAuthMiddleware(t)

	u, err := us.Create("alice@example.com", "Alice", false)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	h, err := hs.CreateWithOwner("Home", u.ID)
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	token, _, err := issuer.IssueSession(u.ID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	var gotAC auth.AuthContext
	handler := RequireAuth(issuer, us, hs, slog.Default())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ac, ok := auth.FromContext(r.Context())
		if !ok {
			t.Fatal("expected AuthContext in request context")
		}
		gotAC = ac
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if gotAC.UserID != u.ID {
		t.Errorf("UserID = %d, want %d", gotAC.UserID, u.ID)
	}
	if gotAC.HouseholdID != h.ID {
		t.Errorf("HouseholdID = %d, want %d", gotAC.HouseholdID, h.ID)
	}
	if gotAC.HouseholdRole != model.HouseholdRoleOwner {
		t.Errorf("HouseholdRole = %q, want %q", gotAC.HouseholdRole, model.HouseholdRoleOwner)
	}
	if gotAC.Email != "alice@example.com" {
		t.Errorf("Email = %q", gotAC.Email)
	}
}

func TestRequireCapability(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name string
		ac   *auth.AuthContext
		cap  policy.Capability
		want int
	}{
		{"anonymous", nil, policy.CapEditRecipes, http.StatusUnauthorized},
		{"no household", &auth.AuthContext{UserID: 1}, policy.CapEditRecipes, http.StatusForbidden},
		{"member edits", &auth.AuthContext{UserID: 1, HouseholdID: 1, HouseholdRole: model.HouseholdRoleMember}, policy.CapEditRecipes, http.StatusOK},
		{"member deletes", &auth.AuthContext{UserID: 1, HouseholdID: 1, HouseholdRole: model.HouseholdRoleMember}, policy.CapDeleteRecipes, http.StatusForbidden},
		{"owner deletes", &auth.AuthContext{UserID: 1, HouseholdID: 1, HouseholdRole: model.HouseholdRoleOwner}, policy.CapDeleteRecipes, http.StatusOK},
		{"admin", &auth.AuthContext{UserID: 1, IsAdmin: true}, policy.CapManageHousehold, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tt.ac != nil {
				req = req.WithContext(auth.WithAuth(context.Background(), *tt.ac))
			}
			rec := httptest.NewRecorder()
			RequireCapability(tt.cap)(ok).ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	ctx := auth.WithAuth(context.Background(), auth.AuthContext{UserID: 1, IsAdmin: true})
	rec := httptest.NewRecorder()
	RequireAdmin(ok).ServeHTTP(rec, httptest.NewRequest("GET", "/", nil).WithContext(ctx))
	if rec.Code != http.StatusOK {
		t.Errorf("admin status = %d, want %d", rec.Code, http.StatusOK)
	}

	ctx = auth.WithAuth(context.Background(), auth.AuthContext{UserID: 2, HouseholdRole: model.HouseholdRoleOwner})
	rec = httptest.NewRecorder()
	RequireAdmin(unreachable(t)).ServeHTTP(rec, httptest.NewRequest("GET", "/", nil).WithContext(ctx))
	if rec.Code != http.StatusForbidden {
		t.Errorf("member status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}
