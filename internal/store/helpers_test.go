package store

import (
	"database/sql"
	"fmt"
	"testing"

	"github.com/dukerupert/mealplannr/internal/database"
	"github.com/dukerupert/mealplannr/internal/model"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createUser(t *testing.T, db *sql.DB, name string) *model.User {
	t.Helper()
	u, err := NewUserStore(db).Create(fmt.Sprintf("%s@example.com", name), name, false)
	if err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return u
}

// createHousehold creates a user named owner and a household they own.
func createHousehold(t *testing.T, db *sql.DB, owner string) (*model.User, *model.Household) {
	t.Helper()
	u := createUser(t, db, owner)
	h, err := NewHouseholdStore(db).CreateWithOwner(owner+" household", u.ID)
	if err != nil {
		t.Fatalf("create household for %s: %v", owner, err)
	}
	return u, h
}
