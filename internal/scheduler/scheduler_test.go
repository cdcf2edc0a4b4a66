package scheduler

import (
	"log/slog"
	"testing"
	"time"

	"github.com/dukerupert/mealplannr/internal/database"
	"github.com/dukerupert/mealplannr/internal/middleware"
	"github.com/dukerupert/mealplannr/internal/model"
	"github.com/dukerupert/mealplannr/internal/store"
)

func TestCleanupDeletesExpiredTokens(t *testing.T) {
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	users := store.NewUserStore(db)
	households := store.NewHouseholdStore(db)
	networks := store.NewNetworkStore(db)
	links := store.NewNetworkHouseholdStore(db)
	tokens := store.NewActionTokenStore(db)

	alice, _ := users.Create("alice@example.com", "Alice", false)
	bob, _ := users.Create("bob@example.com", "Bob", false)
	ha, _ := households.CreateWithOwner("A", alice.ID)
	hb, _ := households.CreateWithOwner("B", bob.ID)
	n, err := networks.CreateWithOwner("Club", alice.ID, ha.ID)
	if err != nil {
		t.Fatalf("create network: %v", err)
	}
	inv, err := links.Invite(n.ID, hb.ID, model.MaxHouseholdsPerNetwork)
	if err != nil {
		t.Fatalf("invite: %v", err)
	}

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if _, err := tokens.Create("old", inv.ID, model.ActionAccept, bob.ID, now.Add(-time.Hour)); err != nil {
		t.Fatalf("create old token: %v", err)
	}
	if _, err := tokens.Create("fresh", inv.ID, model.ActionReject, bob.ID, now.Add(time.Hour)); err != nil {
		t.Fatalf("create fresh token: %v", err)
	}

	s := New(tokens, middleware.NewRateLimiter(), slog.Default())
	s.now = func() time.Time { return now }
	s.Cleanup()

	if got, _ := tokens.GetByJTI("old"); got != nil {
		t.Errorf("expired token still present: %+v", got)
	}
	if got, _ := tokens.GetByJTI("fresh"); got == nil {
		t.Error("fresh token was deleted")
	}
}

func TestStartStop(t *testing.T) {
	s := New(nil, middleware.NewRateLimiter(), slog.Default())

	if err := s.Start("not a spec"); err == nil {
		t.Fatal("expected error for bad spec")
	}
	if err := s.Start(""); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := s.Start(""); err != nil {
		t.Fatalf("second start: %v", err)
	}
	s.Stop()
	s.Stop()
}
