package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/dukerupert/mealplannr/internal/model"
	"github.com/dukerupert/mealplannr/internal/service"
)

const maxAccessibleLimit = 100

type RecipeHandler struct {
	recipes *service.RecipeService
	access  *service.RecipeAccessService
	logger  *slog.Logger
}

func NewRecipeHandler(recipes *service.RecipeService, access *service.RecipeAccessService, logger *slog.Logger) *RecipeHandler {
	return &RecipeHandler{recipes: recipes, access: access, logger: logger}
}

type createRecipeRequest struct {
	Title  string `json:"title" validate:"required,max=300"`
	Status string `json:"status" validate:"omitempty,oneof=draft publish"`
}

func (h *RecipeHandler) Create(w http.ResponseWriter, r *http.Request) {
	ac, ok := caller(w, r)
	if !ok {
		return
	}
	var req createRecipeRequest
	if err := decode(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	recipe, err := h.recipes.CreateRecipe(ac.Subject(), req.Title, req.Status)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusCreated, map[string]any{"recipe": recipe})
}

func (h *RecipeHandler) Get(w http.ResponseWriter, r *http.Request) {
	ac, ok := caller(w, r)
	if !ok {
		return
	}
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	detail, err := h.recipes.GetRecipe(id, ac.UserID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"recipe": detail})
}

type statusRequest struct {
	Status string `json:"status" validate:"required,oneof=draft publish"`
}

// SetStatus handles PATCH /recipes/{id}, moving a recipe between draft and
// publish.
func (h *RecipeHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	ac, ok := caller(w, r)
	if !ok {
		return
	}
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	var req statusRequest
	if err := decode(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	recipe, err := h.recipes.SetStatus(ac.Subject(), id, req.Status)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"recipe": recipe})
}

type sharingRequest struct {
	Visibility  string `json:"visibility" validate:"required"`
	HouseholdID *int64 `json:"household_id"`
	NetworkID   *int64 `json:"network_id"`
}

func (h *RecipeHandler) SetSharing(w http.ResponseWriter, r *http.Request) {
	ac, ok := caller(w, r)
	if !ok {
		return
	}
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	var req sharingRequest
	if err := decode(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	share, err := h.access.SetSharing(id, req.Visibility, ac.UserID, req.HouseholdID, req.NetworkID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"sharing": share,
		"message": "Sharing settings updated",
	})
}

func (h *RecipeHandler) GetSharing(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	share, err := h.access.GetSharing(id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"visibility":   share.Visibility,
		"household_id": share.HouseholdID,
		"network_id":   share.NetworkID,
	})
}

func (h *RecipeHandler) Accessible(w http.ResponseWriter, r *http.Request) {
	ac, ok := caller(w, r)
	if !ok {
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 || n > maxAccessibleLimit {
			writeFailure(w, http.StatusBadRequest, "invalid_request",
				fmt.Sprintf("limit must be an integer between 0 and %d", maxAccessibleLimit))
			return
		}
		limit = n
	}

	recipes, err := h.access.AccessibleRecipes(ac.UserID, limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if recipes == nil {
		recipes = []model.Recipe{}
	}
	writeSuccess(w, http.StatusOK, map[string]any{"recipes": recipes})
}

type macrosRequest struct {
	Data struct {
		Protein  decimal.NullDecimal `json:"protein"`
		Carbs    decimal.NullDecimal `json:"carbs"`
		Fat      decimal.NullDecimal `json:"fat"`
		Calories decimal.NullDecimal `json:"calories"`
	} `json:"data"`
}

func (h *RecipeHandler) UpdateMacros(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	var req macrosRequest
	if err := decode(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	macros, err := h.recipes.UpdateMacros(id, model.Macros{
		Protein:  req.Data.Protein,
		Carbs:    req.Data.Carbs,
		Fat:      req.Data.Fat,
		Calories: req.Data.Calories,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"macros": macros})
}

func (h *RecipeHandler) ClearMacros(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	if err := h.recipes.ClearMacros(id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"message": "Macros cleared"})
}

type ingredientItem struct {
	Name           string              `json:"name"`
	QuantityVolume decimal.NullDecimal `json:"quantity_volume"`
	UnitVolume     string              `json:"unit_volume"`
	QuantityWeight decimal.NullDecimal `json:"quantity_weight"`
	UnitWeight     string              `json:"unit_weight"`
	Notes          string              `json:"notes"`
}

type batchIngredientsRequest struct {
	RecipeID    int64            `json:"recipe_id" validate:"required,gt=0"`
	Ingredients []ingredientItem `json:"ingredients" validate:"required"`
}

// BatchIngredients replaces the ingredient list of a recipe.
func (h *RecipeHandler) BatchIngredients(w http.ResponseWriter, r *http.Request) {
	var req batchIngredientsRequest
	if err := decode(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	items := make([]model.Ingredient, len(req.Ingredients))
	for i, in := range req.Ingredients {
		items[i] = model.Ingredient{
			Name:           in.Name,
			QuantityVolume: in.QuantityVolume,
			UnitVolume:     in.UnitVolume,
			QuantityWeight: in.QuantityWeight,
			UnitWeight:     in.UnitWeight,
			Notes:          in.Notes,
		}
	}

	saved, err := h.recipes.ReplaceIngredients(req.RecipeID, items)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"ingredients": saved})
}
