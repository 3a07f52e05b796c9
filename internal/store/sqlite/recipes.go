package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/pantryapp/pantry-server/internal/domain"
	"github.com/pantryapp/pantry-server/internal/store"
)

// recipeColumns is the ordered list of columns selected in recipe queries.
// Must match the scan order in scanRecipe.
const recipeColumns = `id, user_id, title, time_minutes, price_cents, link, description,
	image_key, image_ext, image_blurhash, created_at, updated_at`

// scanRecipe scans a sql.Row (or sql.Rows via its Scan method) into a domain.Recipe.
// Tags and Ingredients are left nil; callers attach them separately.
func scanRecipe(scanner interface{ Scan(dest ...any) error }) (*domain.Recipe, error) {
	var r domain.Recipe

	var (
		link          sql.NullString
		description   sql.NullString
		imageKey      sql.NullString
		imageExt      sql.NullString
		imageBlurhash sql.NullString
		createdAt     string
		updatedAt     string
	)

	err := scanner.Scan(
		&r.ID,
		&r.UserID,
		&r.Title,
		&r.TimeMinutes,
		&r.PriceCents,
		&link,
		&description,
		&imageKey,
		&imageExt,
		&imageBlurhash,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if link.Valid {
		r.Link = link.String
	}
	if description.Valid {
		r.Description = description.String
	}
	if imageKey.Valid {
		r.ImageKey = imageKey.String
	}
	if imageExt.Valid {
		r.ImageExt = imageExt.String
	}
	if imageBlurhash.Valid {
		r.ImageBlurhash = imageBlurhash.String
	}

	r.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	r.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	return &r, nil
}

// attachRecipeRelations loads the tags and ingredients for a recipe.
func (s *Store) attachRecipeRelations(ctx context.Context, r *domain.Recipe) error {
	tags, err := s.GetRecipeTags(ctx, r.ID)
	if err != nil {
		return err
	}
	r.Tags = tags

	ingredients, err := s.GetRecipeIngredients(ctx, r.ID)
	if err != nil {
		return err
	}
	r.Ingredients = ingredients

	return nil
}

// CreateRecipe inserts a new recipe and its tag and ingredient join rows
// in one transaction. Either the recipe exists with all of its relations
// or nothing was written.
// Returns store.ErrAlreadyExists if the recipe ID already exists.
func (s *Store) CreateRecipe(ctx context.Context, r *domain.Recipe, tagIDs, ingredientIDs []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO recipes (
			id, user_id, title, time_minutes, price_cents, link, description,
			image_key, image_ext, image_blurhash, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID,
		r.UserID,
		r.Title,
		r.TimeMinutes,
		r.PriceCents,
		nullString(r.Link),
		nullString(r.Description),
		nullString(r.ImageKey),
		nullString(r.ImageExt),
		nullString(r.ImageBlurhash),
		formatTime(r.CreatedAt),
		formatTime(r.UpdatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}

	if err := replaceRecipeJoinsTx(ctx, tx, "recipe_tags", "tag_id", r.ID, tagIDs); err != nil {
		return err
	}
	if err := replaceRecipeJoinsTx(ctx, tx, "recipe_ingredients", "ingredient_id", r.ID, ingredientIDs); err != nil {
		return err
	}

	return tx.Commit()
}

// GetRecipe retrieves a recipe owned by the given user, with tags and
// ingredients attached. Returns store.ErrNotFound if the recipe does not
// exist or belongs to another user.
func (s *Store) GetRecipe(ctx context.Context, userID, recipeID string) (*domain.Recipe, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recipeColumns+` FROM recipes WHERE id = ? AND user_id = ?`, recipeID, userID)

	r, err := scanRecipe(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := s.attachRecipeRelations(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// ListRecipes returns the user's recipes matching the filter, newest first,
// with tags and ingredients attached. Filter ID lists combine with AND across
// fields and OR within a field.
func (s *Store) ListRecipes(ctx context.Context, userID string, filter store.RecipeFilter) ([]*domain.Recipe, error) {
	query := `SELECT ` + recipeColumns + ` FROM recipes WHERE user_id = ?`
	args := []any{userID}

	if len(filter.TagIDs) > 0 {
		query += ` AND id IN (SELECT recipe_id FROM recipe_tags WHERE tag_id IN (` +
			placeholders(len(filter.TagIDs)) + `))`
		for _, tagID := range filter.TagIDs {
			args = append(args, tagID)
		}
	}

	if len(filter.IngredientIDs) > 0 {
		query += ` AND id IN (SELECT recipe_id FROM recipe_ingredients WHERE ingredient_id IN (` +
			placeholders(len(filter.IngredientIDs)) + `))`
		for _, ingredientID := range filter.IngredientIDs {
			args = append(args, ingredientID)
		}
	}

	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recipes []*domain.Recipe
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, r := range recipes {
		if err := s.attachRecipeRelations(ctx, r); err != nil {
			return nil, err
		}
	}

	if recipes == nil {
		recipes = []*domain.Recipe{}
	}

	return recipes, nil
}

// UpdateRecipe performs a full row update on a recipe owned by the given user.
// Relations are left alone; callers that replace them use
// UpdateRecipeWithRelations instead.
// Returns store.ErrNotFound if the recipe does not exist or belongs to another user.
func (s *Store) UpdateRecipe(ctx context.Context, r *domain.Recipe) error {
	return updateRecipeRowTx(ctx, s.db, r)
}

// execer abstracts *sql.DB and *sql.Tx so row helpers run inside or outside
// a transaction.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// updateRecipeRowTx updates the scalar columns of a recipe row.
// Returns store.ErrNotFound when no owned row matches.
func updateRecipeRowTx(ctx context.Context, e execer, r *domain.Recipe) error {
	result, err := e.ExecContext(ctx, `
		UPDATE recipes SET
			title = ?,
			time_minutes = ?,
			price_cents = ?,
			link = ?,
			description = ?,
			image_key = ?,
			image_ext = ?,
			image_blurhash = ?,
			updated_at = ?
		WHERE id = ? AND user_id = ?`,
		r.Title,
		r.TimeMinutes,
		r.PriceCents,
		nullString(r.Link),
		nullString(r.Description),
		nullString(r.ImageKey),
		nullString(r.ImageExt),
		nullString(r.ImageBlurhash),
		formatTime(r.UpdatedAt),
		r.ID,
		r.UserID,
	)
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

// replaceRecipeJoinsTx replaces the join rows of one relation kind for a
// recipe inside an open transaction: delete the current set, insert the new
// one. table and column are fixed strings chosen by the callers, never input.
func replaceRecipeJoinsTx(ctx context.Context, tx *sql.Tx, table, column, recipeID string, ids []string) error {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM `+table+` WHERE recipe_id = ?`, recipeID); err != nil {
		return err
	}

	now := formatTime(time.Now().UTC())
	for _, id := range ids {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO `+table+` (recipe_id, `+column+`, created_at) VALUES (?, ?, ?)`,
			recipeID, id, now); err != nil {
			return err
		}
	}
	return nil
}

// UpdateRecipeWithRelations updates a recipe's scalar columns and, for each
// non-nil ID slice, replaces the corresponding join set, all in one
// transaction. A nil slice leaves that relation untouched.
// Returns store.ErrNotFound if the recipe does not exist or belongs to another user.
func (s *Store) UpdateRecipeWithRelations(ctx context.Context, r *domain.Recipe, tagIDs, ingredientIDs *[]string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := updateRecipeRowTx(ctx, tx, r); err != nil {
		return err
	}

	if tagIDs != nil {
		if err := replaceRecipeJoinsTx(ctx, tx, "recipe_tags", "tag_id", r.ID, *tagIDs); err != nil {
			return err
		}
	}
	if ingredientIDs != nil {
		if err := replaceRecipeJoinsTx(ctx, tx, "recipe_ingredients", "ingredient_id", r.ID, *ingredientIDs); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// DeleteRecipe removes a recipe owned by the given user. Join rows are
// deleted in the same transaction.
// Returns store.ErrNotFound if the recipe does not exist or belongs to another user.
func (s *Store) DeleteRecipe(ctx context.Context, userID, recipeID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`DELETE FROM recipes WHERE id = ? AND user_id = ?`, recipeID, userID)
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

	// Foreign keys cascade on connections that have the pragma set; delete
	// the join rows explicitly so the invariant never depends on it.
	if _, err := tx.ExecContext(ctx, `DELETE FROM recipe_tags WHERE recipe_id = ?`, recipeID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM recipe_ingredients WHERE recipe_id = ?`, recipeID); err != nil {
		return err
	}

	return tx.Commit()
}

// placeholders returns n comma-separated SQL placeholders, e.g. "?, ?, ?".
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
