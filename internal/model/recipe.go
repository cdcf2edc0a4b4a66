package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	RecipeStatusDraft   = "draft"
	RecipeStatusPublish = "publish"
)

// Recipe visibilities.
const (
	VisibilityPrivate   = "private"
	VisibilityHousehold = "household"
	VisibilityNetwork   = "network"
	VisibilityPublic    = "public"
)

type Recipe struct {
	ID        int64     `json:"id"`
	AuthorID  int64     `json:"author_id"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type RecipeShare struct {
	RecipeID    int64  `json:"recipe_id"`
	Visibility  string `json:"visibility"`
	HouseholdID *int64 `json:"household_id"`
	NetworkID   *int64 `json:"network_id"`
}

// Macros holds per-recipe nutrition values. A null value is unset.
type Macros struct {
	RecipeID int64               `json:"recipe_id"`
	Protein  decimal.NullDecimal `json:"protein"`
	Carbs    decimal.NullDecimal `json:"carbs"`
	Fat      decimal.NullDecimal `json:"fat"`
	Calories decimal.NullDecimal `json:"calories"`
}

type Ingredient struct {
	ID             int64               `json:"id"`
	RecipeID       int64               `json:"recipe_id"`
	Name           string              `json:"name"`
	QuantityVolume decimal.NullDecimal `json:"quantity_volume"`
	UnitVolume     string              `json:"unit_volume"`
	QuantityWeight decimal.NullDecimal `json:"quantity_weight"`
	UnitWeight     string              `json:"unit_weight"`
	Notes          string              `json:"notes"`
	SortOrder      int                 `json:"sort_order"`
	CreatedAt      time.Time           `json:"created_at"`
}

// ValidVisibility reports whether v is a recipe visibility.
func ValidVisibility(v string) bool {
	switch v {
	case VisibilityPrivate, VisibilityHousehold, VisibilityNetwork, VisibilityPublic:
		return true
	}
	return false
}
