package store

import (
	"testing"
	"time"

	"github.com/dukerupert/mealplannr/internal/model"
)

func setupActionTokenTest(t *testing.T) (*ActionTokenStore, int64, int64) {
	t.Helper()
	db := setupTestDB(t)
	owner, home := createHousehold(t, db, "owner")
	n, err := NewNetworkStore(db).CreateWithOwner("Net", owner.ID, home.ID)
	if err != nil {
		t.Fatalf("create network: %v", err)
	}
	guestUser, guest := createHousehold(t, db, "guest")
	inv, err := NewNetworkHouseholdStore(db).Invite(n.ID, guest.ID, model.MaxHouseholdsPerNetwork)
	if err != nil {
		t.Fatalf("invite: %v", err)
	}
	return NewActionTokenStore(db), inv.ID, guestUser.ID
}

func TestActionTokenConsumeOnce(t *testing.T) {
	ts, invID, userID := setupActionTokenTest(t)
	now := time.Now()

	if _, err := ts.Create("jti-1", invID, model.ActionAccept, userID, now.Add(time.Hour)); err != nil {
		t.Fatalf("create: %v", err)
	}

	tok, err := ts.Consume("jti-1", now)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if tok == nil {
		t.Fatal("expected token on first consume")
	}
	if tok.InvitationID != invID || tok.Action != model.ActionAccept {
		t.Errorf("token = %+v", tok)
	}
	if tok.UsedAt == nil {
		t.Error("expected used_at after consume")
	}

	again, err := ts.Consume("jti-1", now)
	if err != nil {
		t.Fatalf("consume again: %v", err)
	}
	if again != nil {
		t.Error("token must not be consumable twice")
	}
}

func TestActionTokenExpired(t *testing.T) {
	ts, invID, userID := setupActionTokenTest(t)
	now := time.Now()

	if _, err := ts.Create("old", invID, model.ActionReject, userID, now.Add(-time.Hour)); err != nil {
		t.Fatalf("create: %v", err)
	}
	tok, err := ts.Consume("old", now)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if tok != nil {
		t.Error("expired token must not be consumable")
	}

	n, err := ts.DeleteExpired(now)
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted = %d, want 1", n)
	}
}

func TestActionTokenInvalidateForInvitation(t *testing.T) {
	ts, invID, userID := setupActionTokenTest(t)
	now := time.Now()

	for _, jti := range []string{"a", "r"} {
		if _, err := ts.Create(jti, invID, model.ActionAccept, userID, now.Add(time.Hour)); err != nil {
			t.Fatalf("create %s: %v", jti, err)
		}
	}
	if err := ts.InvalidateForInvitation(invID, now); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	tok, err := ts.Consume("r", now)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if tok != nil {
		t.Error("invalidated token must not be consumable")
	}
}
