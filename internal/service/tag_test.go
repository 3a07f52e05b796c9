package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/pantryapp/pantry-server/internal/errors"
)

func TestTagService_List(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := registerTestUser(t, env)

	_, err := env.recipes.CreateRecipe(ctx, user.User.ID, CreateRecipeRequest{
		Title: "Cake",
		Tags:  []NameRef{{Name: "Dessert"}, {Name: "Baking"}},
	})
	require.NoError(t, err)

	tags, err := env.tags.ListTags(ctx, user.User.ID, false)
	require.NoError(t, err)
	require.Len(t, tags, 2)

	// Name descending
	assert.Equal(t, "Dessert", tags[0].Name)
	assert.Equal(t, "Baking", tags[1].Name)
}

func TestTagService_List_AssignedOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := registerTestUser(t, env)

	// One assigned tag shared by two recipes, one orphan
	_, err := env.recipes.CreateRecipe(ctx, user.User.ID, CreateRecipeRequest{
		Title: "Curry",
		Tags:  []NameRef{{Name: "Dinner"}},
	})
	require.NoError(t, err)

	recipe, err := env.recipes.CreateRecipe(ctx, user.User.ID, CreateRecipeRequest{
		Title: "Roast",
		Tags:  []NameRef{{Name: "Dinner"}, {Name: "Weekend"}},
	})
	require.NoError(t, err)

	// Orphan the Weekend tag by clearing the second recipe's tags down to Dinner
	keep := []NameRef{{Name: "Dinner"}}
	_, err = env.recipes.UpdateRecipe(ctx, user.User.ID, recipe.ID, UpdateRecipeRequest{Tags: &keep})
	require.NoError(t, err)

	assigned, err := env.tags.ListTags(ctx, user.User.ID, true)
	require.NoError(t, err)

	// Dinner appears once despite two recipes; Weekend is excluded
	require.Len(t, assigned, 1)
	assert.Equal(t, "Dinner", assigned[0].Name)

	all, err := env.tags.ListTags(ctx, user.User.ID, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestTagService_List_EmptyNotNil(t *testing.T) {
	env := newTestEnv(t)
	user := registerTestUser(t, env)

	tags, err := env.tags.ListTags(context.Background(), user.User.ID, false)
	require.NoError(t, err)
	assert.NotNil(t, tags)
	assert.Empty(t, tags)
}

func TestTagService_Update(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := registerTestUser(t, env)

	recipe, err := env.recipes.CreateRecipe(ctx, user.User.ID, CreateRecipeRequest{
		Title: "Toast",
		Tags:  []NameRef{{Name: "Brekafast"}},
	})
	require.NoError(t, err)

	renamed, err := env.tags.UpdateTag(ctx, user.User.ID, recipe.Tags[0].ID, "  Breakfast ")
	require.NoError(t, err)
	assert.Equal(t, "Breakfast", renamed.Name, "name is normalized before saving")

	// Recipes see the rename
	reloaded, err := env.recipes.GetRecipe(ctx, user.User.ID, recipe.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Tags, 1)
	assert.Equal(t, "Breakfast", reloaded.Tags[0].Name)
}

func TestTagService_Update_EmptyNameRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := registerTestUser(t, env)

	recipe, err := env.recipes.CreateRecipe(ctx, user.User.ID, CreateRecipeRequest{
		Title: "X",
		Tags:  []NameRef{{Name: "Keep"}},
	})
	require.NoError(t, err)

	_, err = env.tags.UpdateTag(ctx, user.User.ID, recipe.Tags[0].ID, "   ")
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestTagService_Update_NameConflict(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := registerTestUser(t, env)

	recipe, err := env.recipes.CreateRecipe(ctx, user.User.ID, CreateRecipeRequest{
		Title: "X",
		Tags:  []NameRef{{Name: "Lunch"}, {Name: "Dinner"}},
	})
	require.NoError(t, err)

	_, err = env.tags.UpdateTag(ctx, user.User.ID, recipe.Tags[0].ID, recipe.Tags[1].Name)
	assert.ErrorIs(t, err, domainerrors.ErrAlreadyExists)
}

func TestTagService_Update_CrossUserNotFound(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := registerTestUser(t, env)
	other := registerTestUser(t, env)

	recipe, err := env.recipes.CreateRecipe(ctx, owner.User.ID, CreateRecipeRequest{
		Title: "X",
		Tags:  []NameRef{{Name: "Private"}},
	})
	require.NoError(t, err)

	_, err = env.tags.UpdateTag(ctx, other.User.ID, recipe.Tags[0].ID, "Stolen")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestTagService_Delete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := registerTestUser(t, env)

	recipe, err := env.recipes.CreateRecipe(ctx, user.User.ID, CreateRecipeRequest{
		Title: "X",
		Tags:  []NameRef{{Name: "Doomed"}, {Name: "Kept"}},
	})
	require.NoError(t, err)

	var doomedID string
	for _, tag := range recipe.Tags {
		if tag.Name == "Doomed" {
			doomedID = tag.ID
		}
	}
	require.NotEmpty(t, doomedID)

	require.NoError(t, env.tags.DeleteTag(ctx, user.User.ID, doomedID))

	// The recipe keeps its other tag
	reloaded, err := env.recipes.GetRecipe(ctx, user.User.ID, recipe.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Tags, 1)
	assert.Equal(t, "Kept", reloaded.Tags[0].Name)
}

func TestTagService_Delete_CrossUserNotFound(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := registerTestUser(t, env)
	other := registerTestUser(t, env)

	recipe, err := env.recipes.CreateRecipe(ctx, owner.User.ID, CreateRecipeRequest{
		Title: "X",
		Tags:  []NameRef{{Name: "Safe"}},
	})
	require.NoError(t, err)

	err = env.tags.DeleteTag(ctx, other.User.ID, recipe.Tags[0].ID)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	tags, err := env.tags.ListTags(ctx, owner.User.ID, false)
	require.NoError(t, err)
	assert.Len(t, tags, 1)
}

func TestTagService_PerUserNamespace(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := registerTestUser(t, env)
	bob := registerTestUser(t, env)

	a, err := env.recipes.CreateRecipe(ctx, alice.User.ID, CreateRecipeRequest{
		Title: "A",
		Tags:  []NameRef{{Name: "Vegan"}},
	})
	require.NoError(t, err)

	b, err := env.recipes.CreateRecipe(ctx, bob.User.ID, CreateRecipeRequest{
		Title: "B",
		Tags:  []NameRef{{Name: "Vegan"}},
	})
	require.NoError(t, err)

	// Same name, distinct per-user entities
	assert.NotEqual(t, a.Tags[0].ID, b.Tags[0].ID)
}
