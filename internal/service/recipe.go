package service

import (
	"log/slog"
	"strings"

	"github.com/dukerupert/mealplannr/internal/model"
	"github.com/dukerupert/mealplannr/internal/policy"
	"github.com/dukerupert/mealplannr/internal/store"
	"github.com/shopspring/decimal"
)

var maxMacroValue = decimal.RequireFromString("999999.99")

// RecipeDetail is a recipe with everything attached to it.
type RecipeDetail struct {
	model.Recipe
	Macros      *model.Macros      `json:"macros"`
	Ingredients []model.Ingredient `json:"ingredients"`
	Sharing     *model.RecipeShare `json:"sharing"`
}

// RecipeService manages recipe content: the recipe row, its macros and its
// ingredient list.
type RecipeService struct {
	recipes     *store.RecipeStore
	macros      *store.MacroStore
	ingredients *store.IngredientStore
	access      *RecipeAccessService
	logger      *slog.Logger
}

func NewRecipeService(recipes *store.RecipeStore, macros *store.MacroStore, ingredients *store.IngredientStore, access *RecipeAccessService, logger *slog.Logger) *RecipeService {
	return &RecipeService{
		recipes:     recipes,
		macros:      macros,
		ingredients: ingredients,
		access:      access,
		logger:      logger,
	}
}

// CreateRecipe creates a recipe authored by the subject. Publishing needs
// the publish capability.
func (s *RecipeService) CreateRecipe(subject policy.Subject, title, status string) (*model.Recipe, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrInvalidName
	}
	if status == "" {
		status = model.RecipeStatusDraft
	}
	if status != model.RecipeStatusDraft && status != model.RecipeStatusPublish {
		return nil, ErrInvalidRecipeStatus
	}
	if !policy.Authorize(subject, policy.ActionEdit, policy.Resource{Kind: policy.KindRecipe}) {
		return nil, ErrNotAuthorized
	}
	if status == model.RecipeStatusPublish &&
		!policy.Authorize(subject, policy.ActionPublish, policy.Resource{Kind: policy.KindRecipe}) {
		return nil, ErrNotAuthorized
	}

	recipe, err := s.recipes.Create(subject.UserID, title, status)
	if err != nil {
		return nil, persistence("create recipe", err)
	}
	s.logger.Info("recipe created", "recipe_id", recipe.ID, "author_id", subject.UserID)
	return recipe, nil
}

// SetStatus moves a recipe between draft and publish. Only the author or an
// administrator may change it, and publishing needs the publish capability.
func (s *RecipeService) SetStatus(subject policy.Subject, recipeID int64, status string) (*model.Recipe, error) {
	if status != model.RecipeStatusDraft && status != model.RecipeStatusPublish {
		return nil, ErrInvalidRecipeStatus
	}
	recipe, err := s.recipes.GetByID(recipeID)
	if err != nil {
		return nil, persistence("load recipe", err)
	}
	if recipe == nil {
		return nil, ErrRecipeNotFound
	}
	if recipe.AuthorID != subject.UserID && !subject.IsAdmin {
		return nil, ErrNotAuthorized
	}
	if !policy.Authorize(subject, policy.ActionEdit, policy.Resource{Kind: policy.KindRecipe, ID: recipe.ID, OwnerID: recipe.AuthorID}) {
		return nil, ErrNotAuthorized
	}
	if status == model.RecipeStatusPublish &&
		!policy.Authorize(subject, policy.ActionPublish, policy.Resource{Kind: policy.KindRecipe, ID: recipe.ID, OwnerID: recipe.AuthorID}) {
		return nil, ErrNotAuthorized
	}
	if recipe.Status == status {
		return recipe, nil
	}

	updated, err := s.recipes.SetStatus(recipeID, status)
	if err != nil {
		return nil, persistence("set recipe status", err)
	}
	s.logger.Info("recipe status changed", "recipe_id", recipeID, "status", status, "user_id", subject.UserID)
	return updated, nil
}

// GetRecipe returns a recipe with its macros, ingredients and sharing if
// userID may read it.
func (s *RecipeService) GetRecipe(recipeID, userID int64) (*RecipeDetail, error) {
	recipe, err := s.recipes.GetByID(recipeID)
	if err != nil {
		return nil, persistence("load recipe", err)
	}
	if recipe == nil {
		return nil, ErrRecipeNotFound
	}
	ok, err := s.access.canAccess(recipe, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrForbidden
	}

	detail := &RecipeDetail{Recipe: *recipe}
	if detail.Macros, err = s.macros.Get(recipeID); err != nil {
		return nil, persistence("load macros", err)
	}
	if detail.Ingredients, err = s.ingredients.ListByRecipe(recipeID); err != nil {
		return nil, persistence("load ingredients", err)
	}
	if detail.Ingredients == nil {
		detail.Ingredients = []model.Ingredient{}
	}
	if detail.Sharing, err = s.access.GetSharing(recipeID); err != nil {
		return nil, err
	}
	return detail, nil
}

// UpdateMacros upserts the macro values of a recipe. Values are rounded to
// two places and must lie in 0..999999.99.
func (s *RecipeService) UpdateMacros(recipeID int64, in model.Macros) (*model.Macros, error) {
	if err := s.requireRecipe(recipeID); err != nil {
		return nil, err
	}

	m := model.Macros{RecipeID: recipeID}
	for _, pair := range []struct {
		src decimal.NullDecimal
		dst *decimal.NullDecimal
	}{
		{in.Protein, &m.Protein},
		{in.Carbs, &m.Carbs},
		{in.Fat, &m.Fat},
		{in.Calories, &m.Calories},
	} {
		if !pair.src.Valid {
			continue
		}
		v := pair.src.Decimal.Round(2)
		if v.IsNegative() || v.GreaterThan(maxMacroValue) {
			return nil, ErrInvalidMacros
		}
		*pair.dst = decimal.NewNullDecimal(v)
	}

	if err := s.macros.Upsert(m); err != nil {
		return nil, persistence("save macros", err)
	}
	return &m, nil
}

// ClearMacros nulls every macro value of a recipe.
func (s *RecipeService) ClearMacros(recipeID int64) error {
	if err := s.requireRecipe(recipeID); err != nil {
		return err
	}
	if err := s.macros.Clear(recipeID); err != nil {
		return persistence("clear macros", err)
	}
	return nil
}

// ReplaceIngredients swaps the whole ingredient list of a recipe. Sort
// order follows list position.
func (s *RecipeService) ReplaceIngredients(recipeID int64, items []model.Ingredient) ([]model.Ingredient, error) {
	if err := s.requireRecipe(recipeID); err != nil {
		return nil, err
	}

	clean := make([]model.Ingredient, 0, len(items))
	for i, item := range items {
		item.Name = strings.TrimSpace(item.Name)
		if item.Name == "" {
			return nil, ErrInvalidIngredient
		}
		item.RecipeID = recipeID
		item.SortOrder = i
		item.UnitVolume = strings.TrimSpace(item.UnitVolume)
		item.UnitWeight = strings.TrimSpace(item.UnitWeight)
		item.Notes = strings.TrimSpace(item.Notes)
		clean = append(clean, item)
	}

	if err := s.ingredients.Replace(recipeID, clean); err != nil {
		return nil, persistence("save ingredients", err)
	}
	s.logger.Debug("ingredients replaced", "recipe_id", recipeID, "count", len(clean))

	saved, err := s.ingredients.ListByRecipe(recipeID)
	if err != nil {
		return nil, persistence("load ingredients", err)
	}
	if saved == nil {
		saved = []model.Ingredient{}
	}
	return saved, nil
}

func (s *RecipeService) requireRecipe(recipeID int64) error {
	recipe, err := s.recipes.GetByID(recipeID)
	if err != nil {
		return persistence("load recipe", err)
	}
	if recipe == nil {
		return ErrRecipeNotFound
	}
	return nil
}
