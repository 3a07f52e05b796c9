// Package store defines the persistence interface for the Pantry server.
package store

import (
	"context"

	"github.com/pantryapp/pantry-server/internal/domain"
)

// Store defines the interface for all persistence operations.
// Entity lookups are scoped to the owning user: a row owned by someone
// else is indistinguishable from a missing row (ErrNotFound).
type Store interface {
	// Lifecycle
	Close() error

	// Users
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	CountUsers(ctx context.Context) (int, error)
	UpdateUser(ctx context.Context, user *domain.User) error

	// Auth Sessions
	CreateSession(ctx context.Context, session *domain.Session) error
	GetSession(ctx context.Context, id string) (*domain.Session, error)
	GetSessionByRefreshHash(ctx context.Context, hash string) (*domain.Session, error)
	GetSessionsByUser(ctx context.Context, userID string) ([]*domain.Session, error)
	UpdateSession(ctx context.Context, session *domain.Session) error
	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context) (int, error)

	// Recipes
	CreateRecipe(ctx context.Context, r *domain.Recipe, tagIDs, ingredientIDs []string) error
	GetRecipe(ctx context.Context, userID, recipeID string) (*domain.Recipe, error)
	ListRecipes(ctx context.Context, userID string, filter RecipeFilter) ([]*domain.Recipe, error)
	UpdateRecipe(ctx context.Context, r *domain.Recipe) error
	UpdateRecipeWithRelations(ctx context.Context, r *domain.Recipe, tagIDs, ingredientIDs *[]string) error
	DeleteRecipe(ctx context.Context, userID, recipeID string) error

	// Tags
	CreateTag(ctx context.Context, t *domain.Tag) error
	GetTag(ctx context.Context, userID, tagID string) (*domain.Tag, error)
	GetTagByName(ctx context.Context, userID, name string) (*domain.Tag, error)
	ListTags(ctx context.Context, userID string, assignedOnly bool) ([]*domain.Tag, error)
	FindOrCreateTag(ctx context.Context, userID, name string) (*domain.Tag, bool, error)
	UpdateTag(ctx context.Context, t *domain.Tag) error
	DeleteTag(ctx context.Context, userID, tagID string) error
	SetRecipeTags(ctx context.Context, recipeID string, tagIDs []string) error
	GetRecipeTags(ctx context.Context, recipeID string) ([]domain.Tag, error)

	// Ingredients
	CreateIngredient(ctx context.Context, i *domain.Ingredient) error
	GetIngredient(ctx context.Context, userID, ingredientID string) (*domain.Ingredient, error)
	GetIngredientByName(ctx context.Context, userID, name string) (*domain.Ingredient, error)
	ListIngredients(ctx context.Context, userID string, assignedOnly bool) ([]*domain.Ingredient, error)
	FindOrCreateIngredient(ctx context.Context, userID, name string) (*domain.Ingredient, bool, error)
	UpdateIngredient(ctx context.Context, i *domain.Ingredient) error
	DeleteIngredient(ctx context.Context, userID, ingredientID string) error
	SetRecipeIngredients(ctx context.Context, recipeID string, ingredientIDs []string) error
	GetRecipeIngredients(ctx context.Context, recipeID string) ([]domain.Ingredient, error)
}
