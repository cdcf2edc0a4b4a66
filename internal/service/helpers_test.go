package service

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/dukerupert/mealplannr/internal/database"
	"github.com/dukerupert/mealplannr/internal/model"
	"github.com/dukerupert/mealplannr/internal/store"
)

// recordingNotifier remembers every event it is told about.
type recordingNotifier struct {
	mu       sync.Mutex
	sent     []int64
	resolved []string
	removed  []int64
	err      error
}

func (n *recordingNotifier) InvitationSent(inv *model.NetworkHouseholdDetail) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, inv.ID)
	return n.err
}

func (n *recordingNotifier) InvitationResolved(inv *model.NetworkHouseholdDetail) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.resolved = append(n.resolved, inv.Status)
	return n.err
}

func (n *recordingNotifier) HouseholdRemoved(_ *model.Network, h *model.Household) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.removed = append(n.removed, h.ID)
	return n.err
}

type testEnv struct {
	db         *sql.DB
	users      *store.UserStore
	households *store.HouseholdStore
	networks   *store.NetworkStore
	links      *store.NetworkHouseholdStore
	membership *store.MembershipStore
	tokens     *store.ActionTokenStore
	recipes    *store.RecipeStore
	notifier   *recordingNotifier

	network   *NetworkService
	household *HouseholdService
	access    *RecipeAccessService
	recipe    *RecipeService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	env := &testEnv{
		db:         db,
		users:      store.NewUserStore(db),
		households: store.NewHouseholdStore(db),
		networks:   store.NewNetworkStore(db),
		links:      store.NewNetworkHouseholdStore(db),
		membership: store.NewMembershipStore(db),
		tokens:     store.NewActionTokenStore(db),
		recipes:    store.NewRecipeStore(db),
		notifier:   &recordingNotifier{},
	}
	logger := slog.Default()

	env.network = NewNetworkService(NetworkStores{
		Households:   env.households,
		Networks:     env.networks,
		Links:        env.links,
		Membership:   env.membership,
		ActionTokens: env.tokens,
	}, nil, env.notifier, logger)
	env.household = NewHouseholdService(env.households, env.users, logger)
	env.access = NewRecipeAccessService(RecipeAccessStores{
		Recipes:    env.recipes,
		Shares:     store.NewRecipeShareStore(db),
		Households: env.households,
		Networks:   env.networks,
		Membership: env.membership,
	}, logger)
	env.recipe = NewRecipeService(env.recipes, store.NewMacroStore(db), store.NewIngredientStore(db), env.access, logger)
	return env
}

func (e *testEnv) user(t *testing.T, name string) *model.User {
	t.Helper()
	u, err := e.users.Create(fmt.Sprintf("%s@example.com", name), name, false)
	if err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return u
}

// owner creates a user and a household they own.
func (e *testEnv) owner(t *testing.T, name string) (*model.User, *model.Household) {
	t.Helper()
	u := e.user(t, name)
	h, err := e.household.CreateHousehold(name+" household", u.ID)
	if err != nil {
		t.Fatalf("create household for %s: %v", name, err)
	}
	return u, h
}

func (e *testEnv) countLinks(t *testing.T, networkID int64) int {
	t.Helper()
	var n int
	if err := e.db.QueryRow(`SELECT COUNT(*) FROM network_households WHERE network_id = ?`, networkID).Scan(&n); err != nil {
		t.Fatalf("count links: %v", err)
	}
	return n
}

func wantErr(t *testing.T, err, want error) {
	t.Helper()
	if !errors.Is(err, want) {
		t.Fatalf("err = %v, want %v", err, want)
	}
}

func wantKind(t *testing.T, err error, kind Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("err = nil, want %s error", kind)
	}
	if got := KindOf(err); got != kind {
		t.Fatalf("kind = %s, want %s (err: %v)", got, kind, err)
	}
}
