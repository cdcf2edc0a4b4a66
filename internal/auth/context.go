package auth

import (
	"context"

	"github.com/dukerupert/mealplannr/internal/policy"
)

type contextKey struct{}

// AuthContext is the authenticated caller of a request.
type AuthContext struct {
	UserID        int64
	Email         string
	IsAdmin       bool
	HouseholdID   int64
	HouseholdRole string
	TokenID       string
}

// Subject returns the policy view of the caller.
func (ac AuthContext) Subject() policy.Subject {
	return policy.Subject{
		UserID:        ac.UserID,
		IsAdmin:       ac.IsAdmin,
		HouseholdID:   ac.HouseholdID,
		HouseholdRole: ac.HouseholdRole,
	}
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}

func UserID(ctx context.Context) int64 {
	ac, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return ac.UserID
}

func HouseholdID(ctx context.Context) int64 {
	ac, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return ac.HouseholdID
}

func IsAdmin(ctx context.Context) bool {
	ac, ok := FromContext(ctx)
	if !ok {
		return false
	}
	return ac.IsAdmin
}
