package service

import (
	"testing"

	"github.com/dukerupert/mealplannr/internal/model"
	"github.com/dukerupert/mealplannr/internal/policy"
)

func ownerSubject(u *model.User, h *model.Household) policy.Subject {
	return policy.Subject{UserID: u.ID, HouseholdID: h.ID, HouseholdRole: model.HouseholdRoleOwner}
}

func (e *testEnv) publishedRecipe(t *testing.T, u *model.User, h *model.Household, title string) *model.Recipe {
	t.Helper()
	r, err := e.recipe.CreateRecipe(ownerSubject(u, h), title, model.RecipeStatusPublish)
	if err != nil {
		t.Fatalf("create recipe %q: %v", title, err)
	}
	return r
}

func int64p(v int64) *int64 { return &v }

func TestSetSharingValidation(t *testing.T) {
	env := newTestEnv(t)
	alice, householdA := env.owner(t, "alice")
	bob, householdB := env.owner(t, "bob")
	r := env.publishedRecipe(t, alice, householdA, "Soup")

	tests := []struct {
		name        string
		recipeID    int64
		visibility  string
		userID      int64
		householdID *int64
		networkID   *int64
		want        error
		kind        Kind
	}{
		{"missing recipe", 999, model.VisibilityPublic, alice.ID, nil, nil, ErrRecipeNotFound, KindNotFound},
		{"not author", r.ID, model.VisibilityPublic, bob.ID, nil, nil, ErrNotAuthor, KindAuthorization},
		{"bad visibility", r.ID, "friends", alice.ID, nil, nil, ErrInvalidVisibility, KindValidation},
		{"household without id", r.ID, model.VisibilityHousehold, alice.ID, nil, nil, ErrHouseholdRequired, KindValidation},
		{"network without id", r.ID, model.VisibilityNetwork, alice.ID, nil, int64p(0), ErrNetworkRequired, KindValidation},
		{"unknown household", r.ID, model.VisibilityHousehold, alice.ID, int64p(999), nil, ErrHouseholdNotFound, KindNotFound},
		{"unknown network", r.ID, model.VisibilityNetwork, alice.ID, nil, int64p(999), ErrNetworkNotFound, KindNotFound},
		{"foreign household", r.ID, model.VisibilityHousehold, alice.ID, &householdB.ID, nil, ErrNotMember, KindAuthorization},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.access.SetSharing(tt.recipeID, tt.visibility, tt.userID, tt.householdID, tt.networkID)
			wantErr(t, err, tt.want)
			wantKind(t, err, tt.kind)
		})
	}
}

func TestSetSharingForeignNetwork(t *testing.T) {
	env := newTestEnv(t)
	alice, householdA := env.owner(t, "alice")
	bob, _ := env.owner(t, "bob")
	r := env.publishedRecipe(t, alice, householdA, "Soup")

	n, err := env.network.CreateNetwork("Bob's club", bob.ID)
	if err != nil {
		t.Fatalf("create network: %v", err)
	}
	_, err = env.access.SetSharing(r.ID, model.VisibilityNetwork, alice.ID, nil, &n.ID)
	wantErr(t, err, ErrNotMember)
}

func TestSharingRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	alice, householdA := env.owner(t, "alice")
	r := env.publishedRecipe(t, alice, householdA, "Soup")

	got, err := env.access.GetSharing(r.ID)
	if err != nil {
		t.Fatalf("get sharing: %v", err)
	}
	if got.Visibility != model.VisibilityPrivate || got.HouseholdID != nil || got.NetworkID != nil {
		t.Errorf("default sharing = %+v, want private", got)
	}

	// A network id sent along with household visibility is dropped.
	if _, err := env.access.SetSharing(r.ID, model.VisibilityHousehold, alice.ID, &householdA.ID, int64p(42)); err != nil {
		t.Fatalf("set sharing: %v", err)
	}
	got, err = env.access.GetSharing(r.ID)
	if err != nil {
		t.Fatalf("get sharing: %v", err)
	}
	if got.Visibility != model.VisibilityHousehold || got.HouseholdID == nil || *got.HouseholdID != householdA.ID || got.NetworkID != nil {
		t.Errorf("sharing = %+v", got)
	}

	if _, err := env.access.SetSharing(r.ID, model.VisibilityPublic, alice.ID, &householdA.ID, nil); err != nil {
		t.Fatalf("set public: %v", err)
	}
	got, err = env.access.GetSharing(r.ID)
	if err != nil {
		t.Fatalf("get sharing: %v", err)
	}
	if got.Visibility != model.VisibilityPublic || got.HouseholdID != nil {
		t.Errorf("sharing = %+v, want public with no ids", got)
	}

	_, err = env.access.GetSharing(999)
	wantErr(t, err, ErrRecipeNotFound)
}

func TestCanAccess(t *testing.T) {
	env := newTestEnv(t)
	alice, householdA := env.owner(t, "alice")
	bob, householdB := env.owner(t, "bob")
	carol, _ := env.owner(t, "carol")
	housemate := env.user(t, "housemate")
	if _, err := env.households.AddMember(householdA.ID, housemate.ID, model.HouseholdRoleMember); err != nil {
		t.Fatalf("add member: %v", err)
	}

	n, err := env.network.CreateNetwork("Club", alice.ID)
	if err != nil {
		t.Fatalf("create network: %v", err)
	}
	inv, err := env.network.InviteHousehold(n.ID, householdB.ID, alice.ID)
	if err != nil {
		t.Fatalf("invite: %v", err)
	}

	private := env.publishedRecipe(t, alice, householdA, "Private")
	public := env.publishedRecipe(t, alice, householdA, "Public")
	household := env.publishedRecipe(t, alice, householdA, "Household")
	network := env.publishedRecipe(t, alice, householdA, "Network")

	for _, s := range []struct {
		id          int64
		vis         string
		householdID *int64
		networkID   *int64
	}{
		{public.ID, model.VisibilityPublic, nil, nil},
		{household.ID, model.VisibilityHousehold, &householdA.ID, nil},
		{network.ID, model.VisibilityNetwork, nil, &n.ID},
	} {
		if _, err := env.access.SetSharing(s.id, s.vis, alice.ID, s.householdID, s.networkID); err != nil {
			t.Fatalf("share %d: %v", s.id, err)
		}
	}

	check := func(recipeID, userID int64, want bool) {
		t.Helper()
		got, err := env.access.CanAccess(recipeID, userID)
		if err != nil {
			t.Fatalf("can access: %v", err)
		}
		if got != want {
			t.Errorf("CanAccess(%d, %d) = %v, want %v", recipeID, userID, got, want)
		}
	}

	check(private.ID, alice.ID, true)
	check(private.ID, housemate.ID, false)
	check(public.ID, carol.ID, true)
	check(household.ID, housemate.ID, true)
	check(household.ID, carol.ID, false)
	check(999, alice.ID, false)

	// Pending households are not yet part of the network.
	check(network.ID, bob.ID, false)
	if _, err := env.network.AcceptInvitation(inv.ID, bob.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	check(network.ID, bob.ID, true)
	check(network.ID, housemate.ID, true)
	check(network.ID, carol.ID, false)

	list, err := env.access.AccessibleRecipes(bob.ID, 0)
	if err != nil {
		t.Fatalf("accessible recipes: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("bob sees %d recipes, want 2 (public and network)", len(list))
	}
}
