package service

import (
	"log/slog"

	"github.com/dukerupert/mealplannr/internal/model"
	"github.com/dukerupert/mealplannr/internal/policy"
	"github.com/dukerupert/mealplannr/internal/store"
)

// RecipeAccessService resolves who may read a recipe from its sharing
// settings.
type RecipeAccessService struct {
	recipes    *store.RecipeStore
	shares     *store.RecipeShareStore
	households *store.HouseholdStore
	networks   *store.NetworkStore
	membership *store.MembershipStore
	logger     *slog.Logger
}

type RecipeAccessStores struct {
	Recipes    *store.RecipeStore
	Shares     *store.RecipeShareStore
	Households *store.HouseholdStore
	Networks   *store.NetworkStore
	Membership *store.MembershipStore
}

func NewRecipeAccessService(stores RecipeAccessStores, logger *slog.Logger) *RecipeAccessService {
	return &RecipeAccessService{
		recipes:    stores.Recipes,
		shares:     stores.Shares,
		households: stores.Households,
		networks:   stores.Networks,
		membership: stores.Membership,
		logger:     logger,
	}
}

// CanAccess reports whether userID may read the recipe. The author always
// may. A recipe that was never shared is private.
func (s *RecipeAccessService) CanAccess(recipeID, userID int64) (bool, error) {
	recipe, err := s.recipes.GetByID(recipeID)
	if err != nil {
		return false, persistence("load recipe", err)
	}
	if recipe == nil {
		return false, nil
	}
	return s.canAccess(recipe, userID)
}

func (s *RecipeAccessService) canAccess(recipe *model.Recipe, userID int64) (bool, error) {
	if recipe.AuthorID == userID {
		return true, nil
	}

	share, err := s.shares.Get(recipe.ID)
	if err != nil {
		return false, persistence("load sharing", err)
	}
	if share == nil {
		return false, nil
	}

	switch share.Visibility {
	case model.VisibilityPublic:
		return true, nil
	case model.VisibilityHousehold:
		if share.HouseholdID == nil {
			return false, nil
		}
		ok, err := s.households.IsMember(*share.HouseholdID, userID)
		if err != nil {
			return false, persistence("check household membership", err)
		}
		return ok, nil
	case model.VisibilityNetwork:
		if share.NetworkID == nil {
			return false, nil
		}
		ok, err := s.membership.UserInNetwork(*share.NetworkID, userID)
		if err != nil {
			return false, persistence("check network membership", err)
		}
		return ok, nil
	}
	return false, nil
}

// SetSharing stores the visibility of a recipe. Only the author may call it
// and only into a household or network the author belongs to. Companion ids
// that do not match the visibility are dropped.
func (s *RecipeAccessService) SetSharing(recipeID int64, visibility string, userID int64, householdID, networkID *int64) (*model.RecipeShare, error) {
	recipe, err := s.recipes.GetByID(recipeID)
	if err != nil {
		return nil, persistence("load recipe", err)
	}
	if recipe == nil {
		return nil, ErrRecipeNotFound
	}
	if !policy.Authorize(policy.Subject{UserID: userID}, policy.ActionShare,
		policy.Resource{Kind: policy.KindRecipe, ID: recipe.ID, OwnerID: recipe.AuthorID}) {
		return nil, ErrNotAuthor
	}
	if !model.ValidVisibility(visibility) {
		return nil, ErrInvalidVisibility
	}

	share := model.RecipeShare{RecipeID: recipeID, Visibility: visibility}

	switch visibility {
	case model.VisibilityHousehold:
		if householdID == nil || *householdID <= 0 {
			return nil, ErrHouseholdRequired
		}
		household, err := s.households.GetByID(*householdID)
		if err != nil {
			return nil, persistence("load household", err)
		}
		if household == nil {
			return nil, ErrHouseholdNotFound
		}
		ok, err := s.households.IsMember(household.ID, userID)
		if err != nil {
			return nil, persistence("check household membership", err)
		}
		if !ok {
			return nil, ErrNotMember
		}
		id := household.ID
		share.HouseholdID = &id

	case model.VisibilityNetwork:
		if networkID == nil || *networkID <= 0 {
			return nil, ErrNetworkRequired
		}
		network, err := s.networks.GetByID(*networkID)
		if err != nil {
			return nil, persistence("load network", err)
		}
		if network == nil {
			return nil, ErrNetworkNotFound
		}
		ok, err := s.membership.UserInNetwork(network.ID, userID)
		if err != nil {
			return nil, persistence("check network membership", err)
		}
		if !ok {
			return nil, ErrNotMember
		}
		id := network.ID
		share.NetworkID = &id
	}

	if err := s.shares.Upsert(share); err != nil {
		return nil, persistence("save sharing", err)
	}
	s.logger.Info("recipe sharing updated", "recipe_id", recipeID, "visibility", visibility, "user_id", userID)
	return &share, nil
}

// GetSharing returns the sharing settings of a recipe. A recipe that was
// never shared reports private with no ids.
func (s *RecipeAccessService) GetSharing(recipeID int64) (*model.RecipeShare, error) {
	recipe, err := s.recipes.GetByID(recipeID)
	if err != nil {
		return nil, persistence("load recipe", err)
	}
	if recipe == nil {
		return nil, ErrRecipeNotFound
	}

	share, err := s.shares.Get(recipeID)
	if err != nil {
		return nil, persistence("load sharing", err)
	}
	if share == nil {
		return &model.RecipeShare{RecipeID: recipeID, Visibility: model.VisibilityPrivate}, nil
	}
	return share, nil
}

// AccessibleRecipes lists the published recipes userID may read, newest
// first. A limit of zero or less means no limit.
func (s *RecipeAccessService) AccessibleRecipes(userID int64, limit int) ([]model.Recipe, error) {
	recipes, err := s.recipes.Accessible(userID, limit)
	if err != nil {
		return nil, persistence("list accessible recipes", err)
	}
	return recipes, nil
}
