package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pantryapp/pantry-server/internal/domain"
	domainerrors "github.com/pantryapp/pantry-server/internal/errors"
	"github.com/pantryapp/pantry-server/internal/id"
	"github.com/pantryapp/pantry-server/internal/media/images"
	"github.com/pantryapp/pantry-server/internal/normalize"
	"github.com/pantryapp/pantry-server/internal/store"
)

// RecipeService orchestrates recipe CRUD, name-based tag/ingredient
// resolution, filtering, and image attachment.
type RecipeService struct {
	store   store.Store
	storage *images.Storage
	logger  *slog.Logger
}

// NewRecipeService creates a new recipe service.
func NewRecipeService(store store.Store, storage *images.Storage, logger *slog.Logger) *RecipeService {
	return &RecipeService{
		store:   store,
		storage: storage,
		logger:  logger,
	}
}

// NameRef references a tag or ingredient by name. Names are normalized
// before lookup, so "  Thai  Curry " and "Thai Curry" resolve to the
// same entity.
type NameRef struct {
	Name string `json:"name" validate:"required,max=255"`
}

// CreateRecipeRequest contains the data for a new recipe.
type CreateRecipeRequest struct {
	Title       string    `json:"title" validate:"required,max=255"`
	TimeMinutes int       `json:"time_minutes" validate:"gte=0"`
	PriceCents  int64     `json:"price_cents" validate:"gte=0"`
	Link        string    `json:"link" validate:"max=255"`
	Description string    `json:"description"`
	Tags        []NameRef `json:"tags" validate:"dive"`
	Ingredients []NameRef `json:"ingredients" validate:"dive"`
}

// UpdateRecipeRequest contains a partial recipe update.
// Nil fields are left untouched. For Tags and Ingredients the pointer
// distinguishes omitted from empty: nil leaves the associations alone,
// an empty slice clears them, a populated slice replaces them.
type UpdateRecipeRequest struct {
	Title       *string    `json:"title" validate:"omitempty,max=255"`
	TimeMinutes *int       `json:"time_minutes" validate:"omitempty,gte=0"`
	PriceCents  *int64     `json:"price_cents" validate:"omitempty,gte=0"`
	Link        *string    `json:"link" validate:"omitempty,max=255"`
	Description *string    `json:"description"`
	Tags        *[]NameRef `json:"tags" validate:"omitempty,dive"`
	Ingredients *[]NameRef `json:"ingredients" validate:"omitempty,dive"`
}

// CreateRecipe creates a recipe for the user, resolving tag and
// ingredient names to the user's existing entities or creating them.
func (s *RecipeService) CreateRecipe(ctx context.Context, userID string, req CreateRecipeRequest) (*domain.Recipe, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	// Resolve names before touching the recipes table so a bad name
	// leaves no half-created recipe behind.
	tagIDs, err := s.resolveTags(ctx, userID, req.Tags)
	if err != nil {
		return nil, err
	}
	ingredientIDs, err := s.resolveIngredients(ctx, userID, req.Ingredients)
	if err != nil {
		return nil, err
	}

	recipeID, err := id.Generate("recipe")
	if err != nil {
		return nil, fmt.Errorf("generate recipe ID: %w", err)
	}

	now := time.Now()
	recipe := &domain.Recipe{
		ID:          recipeID,
		UserID:      userID,
		Title:       req.Title,
		TimeMinutes: req.TimeMinutes,
		PriceCents:  req.PriceCents,
		Link:        req.Link,
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.CreateRecipe(ctx, recipe, tagIDs, ingredientIDs); err != nil {
		return nil, fmt.Errorf("create recipe: %w", err)
	}

	s.logger.Info("recipe created", "recipe_id", recipeID, "user_id", userID)

	return s.reload(ctx, userID, recipeID)
}

// GetRecipe returns one of the user's recipes with its tags and
// ingredients attached. Another user's recipe is indistinguishable
// from a missing one.
func (s *RecipeService) GetRecipe(ctx context.Context, userID, recipeID string) (*domain.Recipe, error) {
	recipe, err := s.store.GetRecipe(ctx, userID, recipeID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("recipe not found")
		}
		return nil, fmt.Errorf("get recipe: %w", err)
	}
	return recipe, nil
}

// ListRecipes returns the user's recipes, newest first, optionally
// narrowed by tag and ingredient ID filters.
func (s *RecipeService) ListRecipes(ctx context.Context, userID string, filter store.RecipeFilter) ([]*domain.Recipe, error) {
	recipes, err := s.store.ListRecipes(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	return recipes, nil
}

// UpdateRecipe applies a partial update to one of the user's recipes.
func (s *RecipeService) UpdateRecipe(ctx context.Context, userID, recipeID string, req UpdateRecipeRequest) (*domain.Recipe, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	recipe, err := s.store.GetRecipe(ctx, userID, recipeID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("recipe not found")
		}
		return nil, fmt.Errorf("get recipe: %w", err)
	}

	// Resolve names before any write so a bad name leaves the recipe
	// exactly as it was. nil leaves associations untouched; an empty
	// slice clears them.
	var tagIDs, ingredientIDs *[]string
	if req.Tags != nil {
		ids, err := s.resolveTags(ctx, userID, *req.Tags)
		if err != nil {
			return nil, err
		}
		tagIDs = &ids
	}
	if req.Ingredients != nil {
		ids, err := s.resolveIngredients(ctx, userID, *req.Ingredients)
		if err != nil {
			return nil, err
		}
		ingredientIDs = &ids
	}

	if req.Title != nil {
		recipe.Title = *req.Title
	}
	if req.TimeMinutes != nil {
		recipe.TimeMinutes = *req.TimeMinutes
	}
	if req.PriceCents != nil {
		recipe.PriceCents = *req.PriceCents
	}
	if req.Link != nil {
		recipe.Link = *req.Link
	}
	if req.Description != nil {
		recipe.Description = *req.Description
	}
	recipe.Touch()

	if err := s.store.UpdateRecipeWithRelations(ctx, recipe, tagIDs, ingredientIDs); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("recipe not found")
		}
		return nil, fmt.Errorf("update recipe: %w", err)
	}

	s.logger.Info("recipe updated", "recipe_id", recipeID, "user_id", userID)

	return s.reload(ctx, userID, recipeID)
}

// DeleteRecipe removes one of the user's recipes along with its
// association rows and stored image.
func (s *RecipeService) DeleteRecipe(ctx context.Context, userID, recipeID string) error {
	recipe, err := s.store.GetRecipe(ctx, userID, recipeID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("recipe not found")
		}
		return fmt.Errorf("get recipe: %w", err)
	}

	if err := s.store.DeleteRecipe(ctx, userID, recipeID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("recipe not found")
		}
		return fmt.Errorf("delete recipe: %w", err)
	}

	// Best effort image cleanup after the row is gone
	if recipe.HasImage() {
		if err := s.storage.Delete(recipe.ImageKey, recipe.ImageExt); err != nil {
			s.logger.Warn("failed to delete recipe image", "recipe_id", recipeID, "error", err)
		}
	}

	s.logger.Info("recipe deleted", "recipe_id", recipeID, "user_id", userID)

	return nil
}

// AttachImage validates and stores an uploaded image for one of the
// user's recipes. The upload is decoded entirely in memory first;
// nothing touches disk until it is known to be a valid image. The
// stored file is named by a fresh random key, never by user input.
func (s *RecipeService) AttachImage(ctx context.Context, userID, recipeID string, data []byte) (*domain.Recipe, error) {
	recipe, err := s.store.GetRecipe(ctx, userID, recipeID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("recipe not found")
		}
		return nil, fmt.Errorf("get recipe: %w", err)
	}

	img, ext, err := images.Decode(data)
	if err != nil {
		return nil, domainerrors.InvalidImage("upload is not a valid image").WithCause(err)
	}

	blurHash, err := images.ComputeBlurHash(img)
	if err != nil {
		return nil, fmt.Errorf("compute blurhash: %w", err)
	}

	key := uuid.NewString()
	if err := s.storage.Save(key, ext, data); err != nil {
		return nil, fmt.Errorf("save image: %w", err)
	}

	oldKey, oldExt := recipe.ImageKey, recipe.ImageExt

	recipe.ImageKey = key
	recipe.ImageExt = ext
	recipe.ImageBlurhash = blurHash
	recipe.Touch()

	if err := s.store.UpdateRecipe(ctx, recipe); err != nil {
		// Roll back the file we just wrote
		if cleanupErr := s.storage.Delete(key, ext); cleanupErr != nil {
			s.logger.Warn("failed to clean up orphaned image", "key", key, "error", cleanupErr)
		}
		return nil, fmt.Errorf("update recipe: %w", err)
	}

	// Replaced image is no longer referenced
	if oldKey != "" {
		if err := s.storage.Delete(oldKey, oldExt); err != nil {
			s.logger.Warn("failed to delete replaced image", "key", oldKey, "error", err)
		}
	}

	s.logger.Info("recipe image attached", "recipe_id", recipeID, "user_id", userID)

	return s.reload(ctx, userID, recipeID)
}

// OpenImage returns the stored image bytes and extension for one of
// the user's recipes.
func (s *RecipeService) OpenImage(ctx context.Context, userID, recipeID string) ([]byte, string, error) {
	recipe, err := s.store.GetRecipe(ctx, userID, recipeID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, "", domainerrors.NotFound("recipe not found")
		}
		return nil, "", fmt.Errorf("get recipe: %w", err)
	}

	if !recipe.HasImage() {
		return nil, "", domainerrors.NotFound("recipe has no image")
	}

	data, err := s.storage.Get(recipe.ImageKey, recipe.ImageExt)
	if err != nil {
		return nil, "", fmt.Errorf("read image: %w", err)
	}

	return data, recipe.ImageExt, nil
}

// resolveTags converts name references into tag IDs, creating any tags
// the user doesn't have yet. Duplicate names collapse to one ID.
func (s *RecipeService) resolveTags(ctx context.Context, userID string, refs []NameRef) ([]string, error) {
	ids := make([]string, 0, len(refs))
	seen := make(map[string]struct{}, len(refs))

	for _, ref := range refs {
		name := normalize.Name(ref.Name)
		if name == "" {
			return nil, domainerrors.Validation("tag name must not be empty")
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}

		tag, created, err := s.store.FindOrCreateTag(ctx, userID, name)
		if err != nil {
			return nil, fmt.Errorf("resolve tag %q: %w", name, err)
		}
		if created {
			s.logger.Debug("tag created", "tag_id", tag.ID, "user_id", userID)
		}
		ids = append(ids, tag.ID)
	}

	return ids, nil
}

// resolveIngredients converts name references into ingredient IDs,
// creating any ingredients the user doesn't have yet.
func (s *RecipeService) resolveIngredients(ctx context.Context, userID string, refs []NameRef) ([]string, error) {
	ids := make([]string, 0, len(refs))
	seen := make(map[string]struct{}, len(refs))

	for _, ref := range refs {
		name := normalize.Name(ref.Name)
		if name == "" {
			return nil, domainerrors.Validation("ingredient name must not be empty")
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}

		ingredient, created, err := s.store.FindOrCreateIngredient(ctx, userID, name)
		if err != nil {
			return nil, fmt.Errorf("resolve ingredient %q: %w", name, err)
		}
		if created {
			s.logger.Debug("ingredient created", "ingredient_id", ingredient.ID, "user_id", userID)
		}
		ids = append(ids, ingredient.ID)
	}

	return ids, nil
}

// reload fetches a recipe with fresh association data after a write.
func (s *RecipeService) reload(ctx context.Context, userID, recipeID string) (*domain.Recipe, error) {
	recipe, err := s.store.GetRecipe(ctx, userID, recipeID)
	if err != nil {
		return nil, fmt.Errorf("reload recipe: %w", err)
	}
	return recipe, nil
}
