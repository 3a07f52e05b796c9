package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateIngredient(t *testing.T) {
	ts := setupTestServer(t)
	reg := ts.registerUser(t)

	resp := ts.api.Post("/api/v1/ingredients", map[string]any{"name": " Olive  Oil "}, bearer(reg.AccessToken))
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[IngredientResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, "Olive Oil", envelope.Data.Name)
	assert.NotEmpty(t, envelope.Data.ID)
}

func TestListIngredients_AssignedOnly(t *testing.T) {
	ts := setupTestServer(t)
	reg := ts.registerUser(t)

	resp := ts.api.Post("/api/v1/ingredients", map[string]any{"name": "Unused"}, bearer(reg.AccessToken))
	require.Equal(t, http.StatusOK, resp.Code)

	ts.createRecipe(t, reg.AccessToken, map[string]any{
		"title":       "Omelette",
		"ingredients": []map[string]any{{"name": "Eggs"}},
	})

	resp = ts.api.Get("/api/v1/ingredients?assigned_only=true", bearer(reg.AccessToken))
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[ListIngredientsResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data.Ingredients, 1)
	assert.Equal(t, "Eggs", envelope.Data.Ingredients[0].Name)
}

func TestUpdateIngredient_NameConflict(t *testing.T) {
	ts := setupTestServer(t)
	reg := ts.registerUser(t)

	recipe := ts.createRecipe(t, reg.AccessToken, map[string]any{
		"title":       "Salad",
		"ingredients": []map[string]any{{"name": "Lettuce"}, {"name": "Cucumber"}},
	})

	resp := ts.api.Patch("/api/v1/ingredients/"+recipe.Ingredients[0].ID,
		map[string]any{"name": recipe.Ingredients[1].Name}, bearer(reg.AccessToken))
	assert.Equal(t, http.StatusConflict, resp.Code)
}

func TestDeleteIngredient_CrossUserNotFound(t *testing.T) {
	ts := setupTestServer(t)
	owner := ts.registerUser(t)
	other := ts.registerUser(t)

	recipe := ts.createRecipe(t, owner.AccessToken, map[string]any{
		"title":       "Mine",
		"ingredients": []map[string]any{{"name": "Saffron"}},
	})

	resp := ts.api.Delete("/api/v1/ingredients/"+recipe.Ingredients[0].ID, bearer(other.AccessToken))
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestGetIngredient(t *testing.T) {
	ts := setupTestServer(t)
	reg := ts.registerUser(t)

	resp := ts.api.Post("/api/v1/ingredients", map[string]any{"name": "Basil"}, bearer(reg.AccessToken))
	require.Equal(t, http.StatusOK, resp.Code)

	var created testEnvelope[IngredientResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))

	resp = ts.api.Get("/api/v1/ingredients/"+created.Data.ID, bearer(reg.AccessToken))
	require.Equal(t, http.StatusOK, resp.Code)

	var fetched testEnvelope[IngredientResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &fetched))
	assert.Equal(t, "Basil", fetched.Data.Name)
}
