package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/mealplannr/internal/model"
)

type RecipeStore struct {
	db *sql.DB
}

func NewRecipeStore(db *sql.DB) *RecipeStore {
	return &RecipeStore{db: db}
}

func scanRecipe(scanner interface{ Scan(...any) error }) (*model.Recipe, error) {
	var r model.Recipe
	err := scanner.Scan(&r.ID, &r.AuthorID, &r.Title, &r.Status, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

const recipeCols = `id, author_id, title, status, created_at, updated_at`

func (s *RecipeStore) Create(authorID int64, title, status string) (*model.Recipe, error) {
	result, err := s.db.Exec(
		`INSERT INTO recipes (author_id, title, status) VALUES (?, ?, ?)`,
		authorID, title, status,
	)
	if err != nil {
		return nil, fmt.Errorf("insert recipe: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *RecipeStore) GetByID(id int64) (*model.Recipe, error) {
	row := s.db.QueryRow(`SELECT `+recipeCols+` FROM recipes WHERE id = ?`, id)
	r, err := scanRecipe(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get recipe: %w", err)
	}
	return r, nil
}

func (s *RecipeStore) SetStatus(id int64, status string) (*model.Recipe, error) {
	_, err := s.db.Exec(`UPDATE recipes SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return nil, fmt.Errorf("set recipe status: %w", err)
	}
	return s.GetByID(id)
}

// Accessible lists published recipes the user may read: their own, public
// ones, ones shared to their household, and ones shared to a network their
// household has accepted. Recipes without a share row count as private.
// A limit of zero or less returns every row.
func (s *RecipeStore) Accessible(userID int64, limit int) ([]model.Recipe, error) {
	query := `SELECT r.id, r.author_id, r.title, r.status, r.created_at, r.updated_at
		FROM recipes r
		LEFT JOIN recipe_shares rs ON rs.recipe_id = r.id
		WHERE r.status = 'publish' AND (
			r.author_id = ?
			OR rs.visibility = 'public'
			OR (rs.visibility = 'household' AND rs.household_id IN (
				SELECT household_id FROM household_members WHERE user_id = ?))
			OR (rs.visibility = 'network' AND rs.network_id IN (
				SELECT nh.network_id FROM network_households nh
				JOIN household_members hm ON hm.household_id = nh.household_id
				WHERE hm.user_id = ? AND nh.status = 'accepted'))
		)
		ORDER BY r.created_at DESC, r.id DESC`
	args := []any{userID, userID, userID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list accessible recipes: %w", err)
	}
	defer rows.Close()

	var recipes []model.Recipe
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recipe: %w", err)
		}
		recipes = append(recipes, *r)
	}
	return recipes, rows.Err()
}
