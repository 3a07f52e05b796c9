package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/pantryapp/pantry-server/internal/domain"
	"github.com/pantryapp/pantry-server/internal/id"
	"github.com/pantryapp/pantry-server/internal/store"
)

func TestCreateRecipe_GetRecipe(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := createTestUser(t, s, "cook@example.com")

	now := time.Now().UTC()
	r := &domain.Recipe{
		ID:          id.MustGenerate("recipe"),
		UserID:      u.ID,
		Title:       "Tomato Soup",
		TimeMinutes: 25,
		PriceCents:  750,
		Link:        "https://example.com/soup",
		Description: "A simple soup.",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.CreateRecipe(ctx, r, nil, nil); err != nil {
		t.Fatalf("create recipe: %v", err)
	}

	got, err := s.GetRecipe(ctx, u.ID, r.ID)
	if err != nil {
		t.Fatalf("get recipe: %v", err)
	}
	if got.Title != "Tomato Soup" {
		t.Errorf("expected title Tomato Soup, got %s", got.Title)
	}
	if got.TimeMinutes != 25 {
		t.Errorf("expected 25 minutes, got %d", got.TimeMinutes)
	}
	if got.PriceCents != 750 {
		t.Errorf("expected 750 cents, got %d", got.PriceCents)
	}
	if got.Link != "https://example.com/soup" {
		t.Errorf("expected link to persist, got %s", got.Link)
	}
	if got.Description != "A simple soup." {
		t.Errorf("expected description to persist, got %s", got.Description)
	}
	// Relations load as empty, never nil.
	if got.Tags == nil || got.Ingredients == nil {
		t.Error("expected empty relation slices, got nil")
	}
}

func TestGetRecipe_OtherUsersRecipeIsNotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := createTestUser(t, s, "alice@example.com")
	bob := createTestUser(t, s, "bob@example.com")

	r := createTestRecipe(t, s, alice.ID, "Secret Sauce")

	_, err := s.GetRecipe(ctx, bob.ID, r.ID)
	if err != store.ErrNotFound {
		t.Fatalf("expected ErrNotFound for cross-user access, got %v", err)
	}
}

func TestGetRecipe_LoadsRelations(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := createTestUser(t, s, "cook@example.com")
	r := createTestRecipe(t, s, u.ID, "Soup")
	tag := createTestTag(t, s, u.ID, "Vegan")
	ing := createTestIngredient(t, s, u.ID, "Salt")

	if err := s.SetRecipeTags(ctx, r.ID, []string{tag.ID}); err != nil {
		t.Fatalf("set recipe tags: %v", err)
	}
	if err := s.SetRecipeIngredients(ctx, r.ID, []string{ing.ID}); err != nil {
		t.Fatalf("set recipe ingredients: %v", err)
	}

	got, err := s.GetRecipe(ctx, u.ID, r.ID)
	if err != nil {
		t.Fatalf("get recipe: %v", err)
	}
	if len(got.Tags) != 1 || got.Tags[0].Name != "Vegan" {
		t.Errorf("expected Vegan tag, got %+v", got.Tags)
	}
	if len(got.Ingredients) != 1 || got.Ingredients[0].Name != "Salt" {
		t.Errorf("expected Salt ingredient, got %+v", got.Ingredients)
	}
}

func TestListRecipes_NewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := createTestUser(t, s, "cook@example.com")

	base := time.Now().UTC().Add(-time.Hour)
	titles := []string{"Oldest", "Middle", "Newest"}
	for i, title := range titles {
		ts := base.Add(time.Duration(i) * time.Minute)
		r := &domain.Recipe{
			ID:          id.MustGenerate("recipe"),
			UserID:      u.ID,
			Title:       title,
			TimeMinutes: 10,
			PriceCents:  100,
			CreatedAt:   ts,
			UpdatedAt:   ts,
		}
		if err := s.CreateRecipe(ctx, r, nil, nil); err != nil {
			t.Fatalf("create recipe %s: %v", title, err)
		}
	}

	recipes, err := s.ListRecipes(ctx, u.ID, store.RecipeFilter{})
	if err != nil {
		t.Fatalf("list recipes: %v", err)
	}
	if len(recipes) != 3 {
		t.Fatalf("expected 3 recipes, got %d", len(recipes))
	}

	want := []string{"Newest", "Middle", "Oldest"}
	for i, title := range want {
		if recipes[i].Title != title {
			t.Errorf("position %d: expected %s, got %s", i, title, recipes[i].Title)
		}
	}
}

func TestListRecipes_ScopedToUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := createTestUser(t, s, "alice@example.com")
	bob := createTestUser(t, s, "bob@example.com")

	createTestRecipe(t, s, alice.ID, "Alice Pie")
	createTestRecipe(t, s, bob.ID, "Bob Stew")

	recipes, err := s.ListRecipes(ctx, alice.ID, store.RecipeFilter{})
	if err != nil {
		t.Fatalf("list recipes: %v", err)
	}
	if len(recipes) != 1 || recipes[0].Title != "Alice Pie" {
		t.Fatalf("expected only alice's recipe, got %+v", recipes)
	}
}

func TestListRecipes_FilterByTags(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := createTestUser(t, s, "cook@example.com")
	vegan := createTestTag(t, s, u.ID, "Vegan")
	quick := createTestTag(t, s, u.ID, "Quick")

	r1 := createTestRecipe(t, s, u.ID, "Salad")
	r2 := createTestRecipe(t, s, u.ID, "Toast")
	createTestRecipe(t, s, u.ID, "Roast") // untagged

	if err := s.SetRecipeTags(ctx, r1.ID, []string{vegan.ID}); err != nil {
		t.Fatalf("set tags: %v", err)
	}
	if err := s.SetRecipeTags(ctx, r2.ID, []string{quick.ID}); err != nil {
		t.Fatalf("set tags: %v", err)
	}

	// OR within the tag list: either tag matches.
	recipes, err := s.ListRecipes(ctx, u.ID, store.RecipeFilter{TagIDs: []string{vegan.ID, quick.ID}})
	if err != nil {
		t.Fatalf("list recipes: %v", err)
	}
	if len(recipes) != 2 {
		t.Fatalf("expected 2 recipes, got %d", len(recipes))
	}

	// Single tag narrows.
	recipes, err = s.ListRecipes(ctx, u.ID, store.RecipeFilter{TagIDs: []string{vegan.ID}})
	if err != nil {
		t.Fatalf("list recipes: %v", err)
	}
	if len(recipes) != 1 || recipes[0].Title != "Salad" {
		t.Fatalf("expected only Salad, got %+v", recipes)
	}
}

func TestListRecipes_FilterTagAndIngredientANDAcross(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := createTestUser(t, s, "cook@example.com")
	hot := createTestTag(t, s, u.ID, "Hot")
	onion := createTestIngredient(t, s, u.ID, "Onion")

	// Soup has the tag AND the ingredient; Stew has only the tag;
	// Salsa has only the ingredient.
	soup := createTestRecipe(t, s, u.ID, "Soup")
	stew := createTestRecipe(t, s, u.ID, "Stew")
	salsa := createTestRecipe(t, s, u.ID, "Salsa")

	if err := s.SetRecipeTags(ctx, soup.ID, []string{hot.ID}); err != nil {
		t.Fatalf("set tags: %v", err)
	}
	if err := s.SetRecipeIngredients(ctx, soup.ID, []string{onion.ID}); err != nil {
		t.Fatalf("set ingredients: %v", err)
	}
	if err := s.SetRecipeTags(ctx, stew.ID, []string{hot.ID}); err != nil {
		t.Fatalf("set tags: %v", err)
	}
	if err := s.SetRecipeIngredients(ctx, salsa.ID, []string{onion.ID}); err != nil {
		t.Fatalf("set ingredients: %v", err)
	}

	recipes, err := s.ListRecipes(ctx, u.ID, store.RecipeFilter{
		TagIDs:        []string{hot.ID},
		IngredientIDs: []string{onion.ID},
	})
	if err != nil {
		t.Fatalf("list recipes: %v", err)
	}
	if len(recipes) != 1 || recipes[0].ID != soup.ID {
		t.Fatalf("expected only Soup to match both filters, got %+v", recipes)
	}
}

func TestCreateRecipe_WithRelations(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := createTestUser(t, s, "cook@example.com")
	tag := createTestTag(t, s, u.ID, "Vegan")
	ing := createTestIngredient(t, s, u.ID, "Salt")

	now := time.Now().UTC()
	r := &domain.Recipe{
		ID:          id.MustGenerate("recipe"),
		UserID:      u.ID,
		Title:       "Salad",
		TimeMinutes: 10,
		PriceCents:  300,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.CreateRecipe(ctx, r, []string{tag.ID}, []string{ing.ID}); err != nil {
		t.Fatalf("create recipe: %v", err)
	}

	got, err := s.GetRecipe(ctx, u.ID, r.ID)
	if err != nil {
		t.Fatalf("get recipe: %v", err)
	}
	if len(got.Tags) != 1 || got.Tags[0].ID != tag.ID {
		t.Errorf("expected tag attached at creation, got %+v", got.Tags)
	}
	if len(got.Ingredients) != 1 || got.Ingredients[0].ID != ing.ID {
		t.Errorf("expected ingredient attached at creation, got %+v", got.Ingredients)
	}
}

func TestCreateRecipe_BadRelationRollsBackRow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := createTestUser(t, s, "cook@example.com")

	now := time.Now().UTC()
	r := &domain.Recipe{
		ID:          id.MustGenerate("recipe"),
		UserID:      u.ID,
		Title:       "Ghost",
		TimeMinutes: 10,
		PriceCents:  100,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	// A tag ID that violates the foreign key fails the whole transaction.
	if err := s.CreateRecipe(ctx, r, []string{"tag-does-not-exist"}, nil); err == nil {
		t.Fatal("expected error for dangling tag ID")
	}

	if _, err := s.GetRecipe(ctx, u.ID, r.ID); err != store.ErrNotFound {
		t.Fatalf("expected no recipe row after failed create, got %v", err)
	}
}

func TestUpdateRecipe(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := createTestUser(t, s, "cook@example.com")
	r := createTestRecipe(t, s, u.ID, "Soup")

	r.Title = "Improved Soup"
	r.TimeMinutes = 45
	r.PriceCents = 999
	r.Link = ""
	r.UpdatedAt = time.Now().UTC()
	if err := s.UpdateRecipe(ctx, r); err != nil {
		t.Fatalf("update recipe: %v", err)
	}

	got, err := s.GetRecipe(ctx, u.ID, r.ID)
	if err != nil {
		t.Fatalf("get recipe: %v", err)
	}
	if got.Title != "Improved Soup" || got.TimeMinutes != 45 || got.PriceCents != 999 {
		t.Errorf("expected updated fields, got %+v", got)
	}
	if got.Link != "" {
		t.Errorf("expected cleared link, got %s", got.Link)
	}
}

func TestUpdateRecipe_CrossUserIsNotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := createTestUser(t, s, "alice@example.com")
	bob := createTestUser(t, s, "bob@example.com")

	r := createTestRecipe(t, s, alice.ID, "Soup")

	hijack := *r
	hijack.UserID = bob.ID
	hijack.Title = "Hijacked"
	err := s.UpdateRecipe(ctx, &hijack)
	if err != store.ErrNotFound {
		t.Fatalf("expected ErrNotFound for cross-user update, got %v", err)
	}
}

func TestUpdateRecipeWithRelations_TriState(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := createTestUser(t, s, "cook@example.com")
	vegan := createTestTag(t, s, u.ID, "Vegan")
	quick := createTestTag(t, s, u.ID, "Quick")

	r := createTestRecipe(t, s, u.ID, "Soup")
	if err := s.SetRecipeTags(ctx, r.ID, []string{vegan.ID}); err != nil {
		t.Fatalf("set tags: %v", err)
	}

	// nil leaves the tag set alone.
	r.Title = "Better Soup"
	r.UpdatedAt = time.Now().UTC()
	if err := s.UpdateRecipeWithRelations(ctx, r, nil, nil); err != nil {
		t.Fatalf("update recipe: %v", err)
	}
	got, err := s.GetRecipe(ctx, u.ID, r.ID)
	if err != nil {
		t.Fatalf("get recipe: %v", err)
	}
	if got.Title != "Better Soup" {
		t.Errorf("expected updated title, got %s", got.Title)
	}
	if len(got.Tags) != 1 || got.Tags[0].ID != vegan.ID {
		t.Errorf("expected tags untouched, got %+v", got.Tags)
	}

	// A populated slice replaces the set.
	newSet := []string{quick.ID}
	if err := s.UpdateRecipeWithRelations(ctx, r, &newSet, nil); err != nil {
		t.Fatalf("update recipe: %v", err)
	}
	got, err = s.GetRecipe(ctx, u.ID, r.ID)
	if err != nil {
		t.Fatalf("get recipe: %v", err)
	}
	if len(got.Tags) != 1 || got.Tags[0].ID != quick.ID {
		t.Errorf("expected tag set replaced, got %+v", got.Tags)
	}

	// An empty slice clears it.
	empty := []string{}
	if err := s.UpdateRecipeWithRelations(ctx, r, &empty, nil); err != nil {
		t.Fatalf("update recipe: %v", err)
	}
	got, err = s.GetRecipe(ctx, u.ID, r.ID)
	if err != nil {
		t.Fatalf("get recipe: %v", err)
	}
	if len(got.Tags) != 0 {
		t.Errorf("expected tags cleared, got %+v", got.Tags)
	}
}

func TestUpdateRecipeWithRelations_CrossUserIsNotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := createTestUser(t, s, "alice@example.com")
	bob := createTestUser(t, s, "bob@example.com")

	r := createTestRecipe(t, s, alice.ID, "Soup")

	hijack := *r
	hijack.UserID = bob.ID
	hijack.Title = "Hijacked"
	empty := []string{}
	err := s.UpdateRecipeWithRelations(ctx, &hijack, &empty, nil)
	if err != store.ErrNotFound {
		t.Fatalf("expected ErrNotFound for cross-user update, got %v", err)
	}
}

func TestUpdateRecipe_ImageFields(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := createTestUser(t, s, "cook@example.com")
	r := createTestRecipe(t, s, u.ID, "Soup")

	r.ImageKey = "3b241101-e2bb-4255-8caf-4136c566a962"
	r.ImageExt = ".jpg"
	r.ImageBlurhash = "LEHV6nWB2yk8pyo0adR*.7kCMdnj"
	r.UpdatedAt = time.Now().UTC()
	if err := s.UpdateRecipe(ctx, r); err != nil {
		t.Fatalf("update recipe: %v", err)
	}

	got, err := s.GetRecipe(ctx, u.ID, r.ID)
	if err != nil {
		t.Fatalf("get recipe: %v", err)
	}
	if got.ImageKey != r.ImageKey || got.ImageExt != ".jpg" || got.ImageBlurhash != r.ImageBlurhash {
		t.Errorf("expected image fields to persist, got %+v", got)
	}
	if !got.HasImage() {
		t.Error("expected HasImage to be true")
	}
}

func TestDeleteRecipe(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := createTestUser(t, s, "cook@example.com")
	r := createTestRecipe(t, s, u.ID, "Soup")
	tag := createTestTag(t, s, u.ID, "Vegan")
	if err := s.SetRecipeTags(ctx, r.ID, []string{tag.ID}); err != nil {
		t.Fatalf("set tags: %v", err)
	}

	if err := s.DeleteRecipe(ctx, u.ID, r.ID); err != nil {
		t.Fatalf("delete recipe: %v", err)
	}
	if _, err := s.GetRecipe(ctx, u.ID, r.ID); err != store.ErrNotFound {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	// Join rows cascade; the tag row itself survives.
	var joinCount int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM recipe_tags WHERE recipe_id = ?`, r.ID).Scan(&joinCount); err != nil {
		t.Fatalf("count join rows: %v", err)
	}
	if joinCount != 0 {
		t.Errorf("expected join rows to cascade, got %d", joinCount)
	}
	if _, err := s.GetTag(ctx, u.ID, tag.ID); err != nil {
		t.Fatalf("expected tag to survive recipe delete: %v", err)
	}
}

func TestDeleteRecipe_CleansJoinsOnAnyPooledConnection(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := createTestUser(t, s, "cook@example.com")
	r := createTestRecipe(t, s, u.ID, "Soup")
	tag := createTestTag(t, s, u.ID, "Vegan")
	ing := createTestIngredient(t, s, u.ID, "Salt")
	if err := s.SetRecipeTags(ctx, r.ID, []string{tag.ID}); err != nil {
		t.Fatalf("set tags: %v", err)
	}
	if err := s.SetRecipeIngredients(ctx, r.ID, []string{ing.ID}); err != nil {
		t.Fatalf("set ingredients: %v", err)
	}

	// Hold one pooled connection so the delete has to run on another.
	conn, err := s.db.Conn(ctx)
	if err != nil {
		t.Fatalf("pin connection: %v", err)
	}
	defer conn.Close()

	var fk int
	if err := conn.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("query foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Errorf("expected foreign_keys=1 on every pooled connection, got %d", fk)
	}

	if err := s.DeleteRecipe(ctx, u.ID, r.ID); err != nil {
		t.Fatalf("delete recipe: %v", err)
	}

	for _, table := range []string{"recipe_tags", "recipe_ingredients"} {
		var n int
		if err := conn.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM `+table+` WHERE recipe_id = ?`, r.ID).Scan(&n); err != nil {
			t.Fatalf("count %s rows: %v", table, err)
		}
		if n != 0 {
			t.Errorf("%s: expected 0 rows after delete, got %d", table, n)
		}
	}
}

func TestDeleteRecipe_CrossUserIsNotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := createTestUser(t, s, "alice@example.com")
	bob := createTestUser(t, s, "bob@example.com")

	r := createTestRecipe(t, s, alice.ID, "Soup")

	err := s.DeleteRecipe(ctx, bob.ID, r.ID)
	if err != store.ErrNotFound {
		t.Fatalf("expected ErrNotFound for cross-user delete, got %v", err)
	}

	// Alice's recipe survives.
	if _, err := s.GetRecipe(ctx, alice.ID, r.ID); err != nil {
		t.Fatalf("expected recipe to survive, got %v", err)
	}
}
