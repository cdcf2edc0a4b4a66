package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/mealplannr/internal/model"
)

type MacroStore struct {
	db *sql.DB
}

func NewMacroStore(db *sql.DB) *MacroStore {
	return &MacroStore{db: db}
}

// Get returns the macros of a recipe, or nil when none were saved.
func (s *MacroStore) Get(recipeID int64) (*model.Macros, error) {
	var m model.Macros
	err := s.db.QueryRow(
		`SELECT recipe_id, protein, carbs, fat, calories FROM recipe_macros WHERE recipe_id = ?`,
		recipeID,
	).Scan(&m.RecipeID, &m.Protein, &m.Carbs, &m.Fat, &m.Calories)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get macros: %w", err)
	}
	return &m, nil
}

func (s *MacroStore) Upsert(m model.Macros) error {
	_, err := s.db.Exec(
		`INSERT INTO recipe_macros (recipe_id, protein, carbs, fat, calories)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(recipe_id) DO UPDATE SET
		     protein = excluded.protein,
		     carbs = excluded.carbs,
		     fat = excluded.fat,
		     calories = excluded.calories,
		     updated_at = CURRENT_TIMESTAMP`,
		m.RecipeID, m.Protein, m.Carbs, m.Fat, m.Calories,
	)
	if err != nil {
		return fmt.Errorf("upsert macros: %w", err)
	}
	return nil
}

// Clear nulls every macro value of a recipe. The row itself is kept.
func (s *MacroStore) Clear(recipeID int64) error {
	_, err := s.db.Exec(
		`UPDATE recipe_macros
		 SET protein = NULL, carbs = NULL, fat = NULL, calories = NULL, updated_at = CURRENT_TIMESTAMP
		 WHERE recipe_id = ?`,
		recipeID,
	)
	if err != nil {
		return fmt.Errorf("clear macros: %w", err)
	}
	return nil
}
