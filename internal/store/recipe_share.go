package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/mealplannr/internal/model"
)

type RecipeShareStore struct {
	db *sql.DB
}

func NewRecipeShareStore(db *sql.DB) *RecipeShareStore {
	return &RecipeShareStore{db: db}
}

// Get returns the share row for a recipe, or nil when none was ever set.
func (s *RecipeShareStore) Get(recipeID int64) (*model.RecipeShare, error) {
	var rs model.RecipeShare
	var householdID, networkID sql.NullInt64
	err := s.db.QueryRow(
		`SELECT recipe_id, visibility, household_id, network_id FROM recipe_shares WHERE recipe_id = ?`,
		recipeID,
	).Scan(&rs.RecipeID, &rs.Visibility, &householdID, &networkID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get recipe share: %w", err)
	}
	rs.HouseholdID = int64Ptr(householdID)
	rs.NetworkID = int64Ptr(networkID)
	return &rs, nil
}

// Upsert writes the single share row of a recipe.
func (s *RecipeShareStore) Upsert(rs model.RecipeShare) error {
	_, err := s.db.Exec(
		`INSERT INTO recipe_shares (recipe_id, visibility, household_id, network_id)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(recipe_id) DO UPDATE SET
		     visibility = excluded.visibility,
		     household_id = excluded.household_id,
		     network_id = excluded.network_id,
		     updated_at = CURRENT_TIMESTAMP`,
		rs.RecipeID, rs.Visibility, nullInt64(rs.HouseholdID), nullInt64(rs.NetworkID),
	)
	if err != nil {
		return fmt.Errorf("upsert recipe share: %w", err)
	}
	return nil
}
