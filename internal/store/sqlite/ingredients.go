package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/pantryapp/pantry-server/internal/domain"
	"github.com/pantryapp/pantry-server/internal/id"
	"github.com/pantryapp/pantry-server/internal/store"
)

// ingredientColumns is the ordered list of columns selected in ingredient queries.
// Must match the scan order in scanIngredient.
const ingredientColumns = `id, user_id, name, created_at, updated_at`

// scanIngredient scans a sql.Row (or sql.Rows via its Scan method) into a domain.Ingredient.
func scanIngredient(scanner interface{ Scan(dest ...any) error }) (*domain.Ingredient, error) {
	var i domain.Ingredient

	var (
		createdAt string
		updatedAt string
	)

	err := scanner.Scan(
		&i.ID,
		&i.UserID,
		&i.Name,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	i.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	i.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	return &i, nil
}

// CreateIngredient inserts a new ingredient into the database.
// Returns store.ErrAlreadyExists on a duplicate name for the same user.
func (s *Store) CreateIngredient(ctx context.Context, i *domain.Ingredient) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ingredients (id, user_id, name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		i.ID,
		i.UserID,
		i.Name,
		formatTime(i.CreatedAt),
		formatTime(i.UpdatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetIngredient retrieves an ingredient owned by the given user.
// Returns store.ErrNotFound if it does not exist or belongs to another user.
func (s *Store) GetIngredient(ctx context.Context, userID, ingredientID string) (*domain.Ingredient, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+ingredientColumns+` FROM ingredients WHERE id = ? AND user_id = ?`, ingredientID, userID)

	i, err := scanIngredient(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return i, nil
}

// GetIngredientByName retrieves an ingredient by its normalized name within
// the user's namespace. Returns store.ErrNotFound if it does not exist.
func (s *Store) GetIngredientByName(ctx context.Context, userID, name string) (*domain.Ingredient, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+ingredientColumns+` FROM ingredients WHERE user_id = ? AND name = ?`, userID, name)

	i, err := scanIngredient(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return i, nil
}

// ListIngredients returns the user's ingredients ordered by name descending.
// When assignedOnly is true, only ingredients attached to at least one recipe
// are returned, each at most once.
func (s *Store) ListIngredients(ctx context.Context, userID string, assignedOnly bool) ([]*domain.Ingredient, error) {
	query := `SELECT ` + ingredientColumns + ` FROM ingredients WHERE user_id = ? ORDER BY name DESC`
	if assignedOnly {
		query = `SELECT DISTINCT i.` + strings.ReplaceAll(ingredientColumns, ", ", ", i.") + `
			FROM ingredients i
			JOIN recipe_ingredients ri ON ri.ingredient_id = i.id
			WHERE i.user_id = ?
			ORDER BY i.name DESC`
	}

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ingredients []*domain.Ingredient
	for rows.Next() {
		i, err := scanIngredient(rows)
		if err != nil {
			return nil, err
		}
		ingredients = append(ingredients, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if ingredients == nil {
		ingredients = []*domain.Ingredient{}
	}

	return ingredients, nil
}

// FindOrCreateIngredient finds the user's ingredient with the given normalized
// name or creates a new one. Returns (ingredient, created, error) where
// created is true if a new row was made. Safe against concurrent creation.
func (s *Store) FindOrCreateIngredient(ctx context.Context, userID, name string) (*domain.Ingredient, bool, error) {
	// Try to find existing ingredient first.
	existing, err := s.GetIngredientByName(ctx, userID, name)
	if err == nil {
		return existing, false, nil
	}
	if err != store.ErrNotFound {
		return nil, false, err
	}

	// Ingredient doesn't exist, create it.
	ingredientID, err := id.Generate("ing")
	if err != nil {
		return nil, false, fmt.Errorf("generate ingredient id: %w", err)
	}

	now := time.Now().UTC()
	i := &domain.Ingredient{
		ID:        ingredientID,
		UserID:    userID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.CreateIngredient(ctx, i); err != nil {
		if err == store.ErrAlreadyExists {
			// Race condition: another request created it.
			existing, err := s.GetIngredientByName(ctx, userID, name)
			if err != nil {
				return nil, false, err
			}
			return existing, false, nil
		}
		return nil, false, err
	}

	return i, true, nil
}

// UpdateIngredient renames an ingredient owned by the given user.
// Returns store.ErrNotFound if it does not exist or belongs to another user,
// and store.ErrAlreadyExists if the new name collides with an existing one.
func (s *Store) UpdateIngredient(ctx context.Context, i *domain.Ingredient) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE ingredients SET name = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		i.Name,
		formatTime(i.UpdatedAt),
		i.ID,
		i.UserID,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteIngredient removes an ingredient owned by the given user. Join rows cascade.
// Returns store.ErrNotFound if it does not exist or belongs to another user.
func (s *Store) DeleteIngredient(ctx context.Context, userID, ingredientID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM ingredients WHERE id = ? AND user_id = ?`, ingredientID, userID)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// SetRecipeIngredients replaces all ingredients for a recipe in a single
// transaction. It deletes existing recipe_ingredients rows and inserts the new set.
func (s *Store) SetRecipeIngredients(ctx context.Context, recipeID string, ingredientIDs []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := replaceRecipeJoinsTx(ctx, tx, "recipe_ingredients", "ingredient_id", recipeID, ingredientIDs); err != nil {
		return err
	}

	return tx.Commit()
}

// GetRecipeIngredients returns the ingredients attached to a recipe, ordered
// by name descending.
func (s *Store) GetRecipeIngredients(ctx context.Context, recipeID string) ([]domain.Ingredient, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT i.`+strings.ReplaceAll(ingredientColumns, ", ", ", i.")+`
		FROM ingredients i
		JOIN recipe_ingredients ri ON ri.ingredient_id = i.id
		WHERE ri.recipe_id = ?
		ORDER BY i.name DESC`, recipeID)
	if err != nil {
		return nil, fmt.Errorf("query recipe_ingredients: %w", err)
	}
	defer rows.Close()

	ingredients := []domain.Ingredient{}
	for rows.Next() {
		i, err := scanIngredient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recipe_ingredient: %w", err)
		}
		ingredients = append(ingredients, *i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return ingredients, nil
}
