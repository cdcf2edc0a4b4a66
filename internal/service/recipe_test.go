package service

import (
	"testing"

	"github.com/dukerupert/mealplannr/internal/model"
	"github.com/dukerupert/mealplannr/internal/policy"
	"github.com/shopspring/decimal"
)

func TestCreateRecipe(t *testing.T) {
	env := newTestEnv(t)
	alice, householdA := env.owner(t, "alice")
	loner := env.user(t, "loner")

	r, err := env.recipe.CreateRecipe(ownerSubject(alice, householdA), "  Stew ", "")
	if err != nil {
		t.Fatalf("create recipe: %v", err)
	}
	if r.Title != "Stew" || r.Status != model.RecipeStatusDraft {
		t.Errorf("recipe = %+v, want draft Stew", r)
	}

	_, err = env.recipe.CreateRecipe(ownerSubject(alice, householdA), "", "")
	wantErr(t, err, ErrInvalidName)

	_, err = env.recipe.CreateRecipe(ownerSubject(alice, householdA), "Stew", "archived")
	wantErr(t, err, ErrInvalidRecipeStatus)

	_, err = env.recipe.CreateRecipe(policy.Subject{UserID: loner.ID}, "Stew", "")
	wantErr(t, err, ErrNotAuthorized)
}

func TestGetRecipeDetail(t *testing.T) {
	env := newTestEnv(t)
	alice, householdA := env.owner(t, "alice")
	bob, _ := env.owner(t, "bob")
	r := env.publishedRecipe(t, alice, householdA, "Stew")

	got, err := env.recipe.GetRecipe(r.ID, alice.ID)
	if err != nil {
		t.Fatalf("get recipe: %v", err)
	}
	if got.Macros != nil {
		t.Errorf("macros = %+v, want nil", got.Macros)
	}
	if got.Ingredients == nil || len(got.Ingredients) != 0 {
		t.Errorf("ingredients = %v, want empty slice", got.Ingredients)
	}
	if got.Sharing == nil || got.Sharing.Visibility != model.VisibilityPrivate {
		t.Errorf("sharing = %+v, want private", got.Sharing)
	}

	_, err = env.recipe.GetRecipe(r.ID, bob.ID)
	wantErr(t, err, ErrForbidden)
	wantKind(t, err, KindAuthorization)

	_, err = env.recipe.GetRecipe(999, alice.ID)
	wantErr(t, err, ErrRecipeNotFound)
}

func TestUpdateMacros(t *testing.T) {
	env := newTestEnv(t)
	alice, householdA := env.owner(t, "alice")
	r := env.publishedRecipe(t, alice, householdA, "Stew")

	m, err := env.recipe.UpdateMacros(r.ID, model.Macros{
		Protein:  decimal.NewNullDecimal(decimal.RequireFromString("12.345")),
		Calories: decimal.NewNullDecimal(decimal.NewFromInt(450)),
	})
	if err != nil {
		t.Fatalf("update macros: %v", err)
	}
	if got := m.Protein.Decimal.String(); got != "12.35" {
		t.Errorf("protein = %q, want %q", got, "12.35")
	}
	if m.Carbs.Valid {
		t.Errorf("carbs = %v, want null", m.Carbs)
	}

	stored, err := env.recipe.GetRecipe(r.ID, alice.ID)
	if err != nil {
		t.Fatalf("get recipe: %v", err)
	}
	if stored.Macros == nil || !stored.Macros.Calories.Decimal.Equal(decimal.NewFromInt(450)) {
		t.Errorf("stored macros = %+v", stored.Macros)
	}

	for _, bad := range []string{"-1", "1000000"} {
		_, err := env.recipe.UpdateMacros(r.ID, model.Macros{Fat: decimal.NewNullDecimal(decimal.RequireFromString(bad))})
		wantErr(t, err, ErrInvalidMacros)
	}

	if err := env.recipe.ClearMacros(r.ID); err != nil {
		t.Fatalf("clear macros: %v", err)
	}
	stored, err = env.recipe.GetRecipe(r.ID, alice.ID)
	if err != nil {
		t.Fatalf("get recipe: %v", err)
	}
	if stored.Macros != nil && (stored.Macros.Protein.Valid || stored.Macros.Calories.Valid) {
		t.Errorf("macros after clear = %+v", stored.Macros)
	}

	_, err = env.recipe.UpdateMacros(999, model.Macros{})
	wantErr(t, err, ErrRecipeNotFound)
}

func TestReplaceIngredients(t *testing.T) {
	env := newTestEnv(t)
	alice, householdA := env.owner(t, "alice")
	r := env.publishedRecipe(t, alice, householdA, "Stew")

	saved, err := env.recipe.ReplaceIngredients(r.ID, []model.Ingredient{
		{Name: " Onion ", QuantityWeight: decimal.NewNullDecimal(decimal.NewFromInt(200)), UnitWeight: "g"},
		{Name: "Salt", Notes: "to taste"},
	})
	if err != nil {
		t.Fatalf("replace ingredients: %v", err)
	}
	if len(saved) != 2 {
		t.Fatalf("len = %d, want 2", len(saved))
	}
	if saved[0].Name != "Onion" || saved[0].SortOrder != 0 || saved[1].SortOrder != 1 {
		t.Errorf("saved = %+v", saved)
	}

	_, err = env.recipe.ReplaceIngredients(r.ID, []model.Ingredient{{Name: "Pepper"}, {Name: " "}})
	wantErr(t, err, ErrInvalidIngredient)

	saved, err = env.recipe.ReplaceIngredients(r.ID, nil)
	if err != nil {
		t.Fatalf("clear ingredients: %v", err)
	}
	if saved == nil || len(saved) != 0 {
		t.Errorf("saved = %v, want empty slice", saved)
	}
}

func TestSetRecipeStatus(t *testing.T) {
	env := newTestEnv(t)
	alice, householdA := env.owner(t, "alice")
	bob, householdB := env.owner(t, "bob")
	subject := ownerSubject(alice, householdA)

	r, err := env.recipe.CreateRecipe(subject, "Soup", "")
	if err != nil {
		t.Fatalf("create recipe: %v", err)
	}

	accessible := func() int {
		t.Helper()
		list, err := env.access.AccessibleRecipes(alice.ID, 0)
		if err != nil {
			t.Fatalf("accessible recipes: %v", err)
		}
		return len(list)
	}
	if n := accessible(); n != 0 {
		t.Fatalf("draft listed: len = %d, want 0", n)
	}

	_, err = env.recipe.SetStatus(subject, r.ID, "archived")
	wantErr(t, err, ErrInvalidRecipeStatus)

	_, err = env.recipe.SetStatus(subject, 999, model.RecipeStatusPublish)
	wantErr(t, err, ErrRecipeNotFound)

	_, err = env.recipe.SetStatus(ownerSubject(bob, householdB), r.ID, model.RecipeStatusPublish)
	wantErr(t, err, ErrNotAuthorized)

	_, err = env.recipe.SetStatus(policy.Subject{UserID: alice.ID}, r.ID, model.RecipeStatusPublish)
	wantErr(t, err, ErrNotAuthorized)

	got, err := env.recipe.SetStatus(subject, r.ID, model.RecipeStatusPublish)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if got.Status != model.RecipeStatusPublish {
		t.Errorf("status = %q, want %q", got.Status, model.RecipeStatusPublish)
	}
	if n := accessible(); n != 1 {
		t.Errorf("published: len = %d, want 1", n)
	}

	if _, err := env.recipe.SetStatus(subject, r.ID, model.RecipeStatusDraft); err != nil {
		t.Fatalf("unpublish: %v", err)
	}
	if n := accessible(); n != 0 {
		t.Errorf("unpublished: len = %d, want 0", n)
	}
}
