package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/mealplannr/internal/model"
)

type IngredientStore struct {
	db *sql.DB
}

func NewIngredientStore(db *sql.DB) *IngredientStore {
	return &IngredientStore{db: db}
}

func scanIngredient(scanner interface{ Scan(...any) error }) (*model.Ingredient, error) {
	var i model.Ingredient
	err := scanner.Scan(
		&i.ID, &i.RecipeID, &i.Name, &i.QuantityVolume, &i.UnitVolume,
		&i.QuantityWeight, &i.UnitWeight, &i.Notes, &i.SortOrder, &i.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

const ingredientCols = `id, recipe_id, name, quantity_volume, unit_volume, quantity_weight, unit_weight, notes, sort_order, created_at`

func (s *IngredientStore) ListByRecipe(recipeID int64) ([]model.Ingredient, error) {
	rows, err := s.db.Query(
		`SELECT `+ingredientCols+` FROM ingredients WHERE recipe_id = ? ORDER BY sort_order ASC, id ASC`,
		recipeID,
	)
	if err != nil {
		return nil, fmt.Errorf("list ingredients: %w", err)
	}
	defer rows.Close()

	var items []model.Ingredient
	for rows.Next() {
		i, err := scanIngredient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ingredient: %w", err)
		}
		items = append(items, *i)
	}
	return items, rows.Err()
}

// Replace deletes every ingredient of the recipe and inserts items in their
// place in a single transaction.
func (s *IngredientStore) Replace(recipeID int64, items []model.Ingredient) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM ingredients WHERE recipe_id = ?`, recipeID); err != nil {
		return fmt.Errorf("delete ingredients: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO ingredients (recipe_id, name, quantity_volume, unit_volume, quantity_weight, unit_weight, notes, sort_order)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, i := range items {
		if _, err := stmt.Exec(
			recipeID, i.Name, i.QuantityVolume, i.UnitVolume,
			i.QuantityWeight, i.UnitWeight, i.Notes, i.SortOrder,
		); err != nil {
			return fmt.Errorf("insert ingredient %q: %w", i.Name, err)
		}
	}

	return tx.Commit()
}
