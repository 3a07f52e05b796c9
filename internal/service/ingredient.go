package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pantryapp/pantry-server/internal/domain"
	domainerrors "github.com/pantryapp/pantry-server/internal/errors"
	"github.com/pantryapp/pantry-server/internal/id"
	"github.com/pantryapp/pantry-server/internal/normalize"
	"github.com/pantryapp/pantry-server/internal/store"
)

// IngredientService orchestrates ingredient operations.
// Like tags, ingredients are created implicitly through recipes.
type IngredientService struct {
	store  store.Store
	logger *slog.Logger
}

// NewIngredientService creates a new ingredient service.
func NewIngredientService(store store.Store, logger *slog.Logger) *IngredientService {
	return &IngredientService{
		store:  store,
		logger: logger,
	}
}

// CreateIngredient creates an ingredient directly, outside the recipe flow.
// The name is normalized; an existing ingredient with the same name is a conflict.
func (s *IngredientService) CreateIngredient(ctx context.Context, userID, name string) (*domain.Ingredient, error) {
	normalized := normalize.Name(name)
	if normalized == "" {
		return nil, domainerrors.Validation("name must not be empty")
	}

	ingredientID, err := id.Generate("ing")
	if err != nil {
		return nil, fmt.Errorf("generate ingredient ID: %w", err)
	}

	now := time.Now()
	ingredient := &domain.Ingredient{
		ID:        ingredientID,
		UserID:    userID,
		Name:      normalized,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.CreateIngredient(ctx, ingredient); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.AlreadyExists("an ingredient with this name already exists")
		}
		return nil, fmt.Errorf("create ingredient: %w", err)
	}

	s.logger.Info("ingredient created", "ingredient_id", ingredientID, "user_id", userID)

	return ingredient, nil
}

// GetIngredient returns one of the user's ingredients.
func (s *IngredientService) GetIngredient(ctx context.Context, userID, ingredientID string) (*domain.Ingredient, error) {
	ingredient, err := s.store.GetIngredient(ctx, userID, ingredientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("ingredient not found")
		}
		return nil, fmt.Errorf("get ingredient: %w", err)
	}
	return ingredient, nil
}

// ListIngredients returns the user's ingredients ordered by name descending.
// With assignedOnly, only ingredients attached to at least one recipe are
// returned, each at most once.
func (s *IngredientService) ListIngredients(ctx context.Context, userID string, assignedOnly bool) ([]*domain.Ingredient, error) {
	ingredients, err := s.store.ListIngredients(ctx, userID, assignedOnly)
	if err != nil {
		return nil, fmt.Errorf("list ingredients: %w", err)
	}
	return ingredients, nil
}

// UpdateIngredient renames one of the user's ingredients.
// The new name is normalized before saving; renaming onto an existing
// ingredient name is a conflict.
func (s *IngredientService) UpdateIngredient(ctx context.Context, userID, ingredientID, name string) (*domain.Ingredient, error) {
	normalized := normalize.Name(name)
	if normalized == "" {
		return nil, domainerrors.Validation("name must not be empty")
	}

	ingredient, err := s.store.GetIngredient(ctx, userID, ingredientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("ingredient not found")
		}
		return nil, fmt.Errorf("get ingredient: %w", err)
	}

	ingredient.Name = normalized
	ingredient.Touch()

	if err := s.store.UpdateIngredient(ctx, ingredient); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.AlreadyExists("an ingredient with this name already exists")
		}
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("ingredient not found")
		}
		return nil, fmt.Errorf("update ingredient: %w", err)
	}

	s.logger.Info("ingredient renamed", "ingredient_id", ingredientID, "user_id", userID)

	return ingredient, nil
}

// DeleteIngredient removes one of the user's ingredients.
// Recipes keep their other ingredients; the association rows cascade away.
func (s *IngredientService) DeleteIngredient(ctx context.Context, userID, ingredientID string) error {
	if err := s.store.DeleteIngredient(ctx, userID, ingredientID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("ingredient not found")
		}
		return fmt.Errorf("delete ingredient: %w", err)
	}

	s.logger.Info("ingredient deleted", "ingredient_id", ingredientID, "user_id", userID)

	return nil
}
