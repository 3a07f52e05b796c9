package api

import (
	"context"
	"mime"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/pantryapp/pantry-server/internal/domain"
	"github.com/pantryapp/pantry-server/internal/service"
	"github.com/pantryapp/pantry-server/internal/store"
)

func (s *Server) registerRecipeRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listRecipes",
		Method:      http.MethodGet,
		Path:        "/api/v1/recipes",
		Summary:     "List recipes",
		Description: "Returns the current user's recipes, newest first. Filters combine with AND across fields and OR within a field.",
		Tags:        []string{"Recipes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListRecipes)

	huma.Register(s.api, huma.Operation{
		OperationID: "createRecipe",
		Method:      http.MethodPost,
		Path:        "/api/v1/recipes",
		Summary:     "Create recipe",
		Description: "Creates a recipe. Tag and ingredient names are resolved to the user's existing entities or created on the fly.",
		Tags:        []string{"Recipes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCreateRecipe)

	huma.Register(s.api, huma.Operation{
		OperationID: "getRecipe",
		Method:      http.MethodGet,
		Path:        "/api/v1/recipes/{id}",
		Summary:     "Get recipe",
		Description: "Returns a recipe by ID",
		Tags:        []string{"Recipes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetRecipe)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateRecipe",
		Method:      http.MethodPatch,
		Path:        "/api/v1/recipes/{id}",
		Summary:     "Update recipe",
		Description: "Partially updates a recipe. Omitted fields are left unchanged; for tags and ingredients an empty list clears the associations.",
		Tags:        []string{"Recipes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateRecipe)

	huma.Register(s.api, huma.Operation{
		OperationID: "replaceRecipe",
		Method:      http.MethodPut,
		Path:        "/api/v1/recipes/{id}",
		Summary:     "Replace recipe",
		Description: "Fully replaces a recipe. Omitted optional fields reset to their defaults; tags and ingredients still follow the omitted-vs-empty contract.",
		Tags:        []string{"Recipes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleReplaceRecipe)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteRecipe",
		Method:      http.MethodDelete,
		Path:        "/api/v1/recipes/{id}",
		Summary:     "Delete recipe",
		Description: "Deletes a recipe along with its associations and stored image",
		Tags:        []string{"Recipes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteRecipe)

	huma.Register(s.api, huma.Operation{
		OperationID:  "uploadRecipeImage",
		Method:       http.MethodPut,
		Path:         "/api/v1/recipes/{id}/image",
		Summary:      "Upload recipe image",
		Description:  "Attaches an image to a recipe. The raw request body must be a valid JPEG, PNG, GIF, or WebP image.",
		Tags:         []string{"Recipes"},
		Security:     []map[string][]string{{"bearer": {}}},
		MaxBodyBytes: s.maxUploadBytes,
	}, s.handleUploadRecipeImage)

	huma.Register(s.api, huma.Operation{
		OperationID: "getRecipeImage",
		Method:      http.MethodGet,
		Path:        "/api/v1/recipes/{id}/image",
		Summary:     "Download recipe image",
		Description: "Returns the raw image bytes attached to a recipe",
		Tags:        []string{"Recipes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetRecipeImage)
}

// === DTOs ===

// NameRefRequest references a tag or ingredient by name.
type NameRefRequest struct {
	Name string `json:"name" validate:"required,max=255" doc:"Tag or ingredient name"`
}

// RecipeResponse contains recipe data in API responses.
type RecipeResponse struct {
	ID            string               `json:"id" doc:"Recipe ID"`
	Title         string               `json:"title" doc:"Recipe title"`
	TimeMinutes   int                  `json:"time_minutes" doc:"Preparation time in minutes"`
	PriceCents    int64                `json:"price_cents" doc:"Price in cents"`
	Price         string               `json:"price" doc:"Price formatted with two decimal places"`
	Link          string               `json:"link,omitempty" doc:"External link"`
	Description   string               `json:"description,omitempty" doc:"Free-form description"`
	ImageURL      string               `json:"image_url,omitempty" doc:"URL of the attached image"`
	ImageBlurhash string               `json:"image_blurhash,omitempty" doc:"BlurHash placeholder for the image"`
	CreatedAt     time.Time            `json:"created_at" doc:"Creation time"`
	UpdatedAt     time.Time            `json:"updated_at" doc:"Last update time"`
	Tags          []TagResponse        `json:"tags" doc:"Attached tags"`
	Ingredients   []IngredientResponse `json:"ingredients" doc:"Attached ingredients"`
}

// RecipeOutput wraps the recipe response for Huma.
type RecipeOutput struct {
	Body RecipeResponse
}

// ListRecipesInput contains parameters for listing recipes.
type ListRecipesInput struct {
	Authorization string `header:"Authorization"`
	Tags          string `query:"tags" doc:"Comma-separated tag IDs to filter by"`
	Ingredients   string `query:"ingredients" doc:"Comma-separated ingredient IDs to filter by"`
}

// ListRecipesResponse contains a list of recipes.
type ListRecipesResponse struct {
	Recipes []RecipeResponse `json:"recipes" doc:"List of recipes"`
}

// ListRecipesOutput wraps the list recipes response for Huma.
type ListRecipesOutput struct {
	Body ListRecipesResponse
}

// CreateRecipeRequest is the request body for creating a recipe.
type CreateRecipeRequest struct {
	Title       string           `json:"title" validate:"required,max=255" doc:"Recipe title"`
	TimeMinutes int              `json:"time_minutes,omitempty" validate:"omitempty,gte=0" doc:"Preparation time in minutes"`
	PriceCents  int64            `json:"price_cents,omitempty" validate:"omitempty,gte=0" doc:"Price in cents"`
	Link        string           `json:"link,omitempty" validate:"omitempty,max=255" doc:"External link"`
	Description string           `json:"description,omitempty" doc:"Free-form description"`
	Tags        []NameRefRequest `json:"tags,omitempty" doc:"Tags by name"`
	Ingredients []NameRefRequest `json:"ingredients,omitempty" doc:"Ingredients by name"`
}

// CreateRecipeInput wraps the create recipe request for Huma.
type CreateRecipeInput struct {
	Authorization string `header:"Authorization"`
	Body          CreateRecipeRequest
}

// GetRecipeInput contains parameters for getting a recipe.
type GetRecipeInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Recipe ID"`
}

// UpdateRecipeRequest is the request body for partially updating a recipe.
// Pointer fields distinguish omitted from zero: a nil tags list leaves
// the associations alone, an empty list clears them.
type UpdateRecipeRequest struct {
	Title       *string           `json:"title,omitempty" validate:"omitempty,max=255" doc:"Recipe title"`
	TimeMinutes *int              `json:"time_minutes,omitempty" validate:"omitempty,gte=0" doc:"Preparation time in minutes"`
	PriceCents  *int64            `json:"price_cents,omitempty" validate:"omitempty,gte=0" doc:"Price in cents"`
	Link        *string           `json:"link,omitempty" validate:"omitempty,max=255" doc:"External link"`
	Description *string           `json:"description,omitempty" doc:"Free-form description"`
	Tags        *[]NameRefRequest `json:"tags,omitempty" doc:"Tags by name; empty list clears"`
	Ingredients *[]NameRefRequest `json:"ingredients,omitempty" doc:"Ingredients by name; empty list clears"`
}

// UpdateRecipeInput wraps the update recipe request for Huma.
type UpdateRecipeInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Recipe ID"`
	Body          UpdateRecipeRequest
}

// ReplaceRecipeRequest is the request body for fully replacing a recipe.
// Scalars omitted from the request reset to their zero values. Tags and
// ingredients keep pointer semantics so an omitted list still means
// "don't touch" rather than "clear".
type ReplaceRecipeRequest struct {
	Title       string            `json:"title" validate:"required,max=255" doc:"Recipe title"`
	TimeMinutes int               `json:"time_minutes,omitempty" validate:"omitempty,gte=0" doc:"Preparation time in minutes"`
	PriceCents  int64             `json:"price_cents,omitempty" validate:"omitempty,gte=0" doc:"Price in cents"`
	Link        string            `json:"link,omitempty" validate:"omitempty,max=255" doc:"External link"`
	Description string            `json:"description,omitempty" doc:"Free-form description"`
	Tags        *[]NameRefRequest `json:"tags,omitempty" doc:"Tags by name; empty list clears"`
	Ingredients *[]NameRefRequest `json:"ingredients,omitempty" doc:"Ingredients by name; empty list clears"`
}

// ReplaceRecipeInput wraps the replace recipe request for Huma.
type ReplaceRecipeInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Recipe ID"`
	Body          ReplaceRecipeRequest
}

// DeleteRecipeInput contains parameters for deleting a recipe.
type DeleteRecipeInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Recipe ID"`
}

// UploadRecipeImageInput carries the raw image upload.
type UploadRecipeImageInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Recipe ID"`
	RawBody       []byte `doc:"Raw image bytes"`
}

// RecipeImageOutput returns raw image bytes.
type RecipeImageOutput struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}

// === Handlers ===

func (s *Server) handleListRecipes(ctx context.Context, input *ListRecipesInput) (*ListRecipesOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	recipes, err := s.services.Recipe.ListRecipes(ctx, userID, store.RecipeFilter{
		TagIDs:        parseIDList(input.Tags),
		IngredientIDs: parseIDList(input.Ingredients),
	})
	if err != nil {
		return nil, err
	}

	resp := make([]RecipeResponse, len(recipes))
	for i, r := range recipes {
		resp[i] = mapRecipeResponse(r)
	}

	return &ListRecipesOutput{Body: ListRecipesResponse{Recipes: resp}}, nil
}

func (s *Server) handleCreateRecipe(ctx context.Context, input *CreateRecipeInput) (*RecipeOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	recipe, err := s.services.Recipe.CreateRecipe(ctx, userID, service.CreateRecipeRequest{
		Title:       input.Body.Title,
		TimeMinutes: input.Body.TimeMinutes,
		PriceCents:  input.Body.PriceCents,
		Link:        input.Body.Link,
		Description: input.Body.Description,
		Tags:        mapNameRefs(input.Body.Tags),
		Ingredients: mapNameRefs(input.Body.Ingredients),
	})
	if err != nil {
		return nil, err
	}

	return &RecipeOutput{Body: mapRecipeResponse(recipe)}, nil
}

func (s *Server) handleGetRecipe(ctx context.Context, input *GetRecipeInput) (*RecipeOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	recipe, err := s.services.Recipe.GetRecipe(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}

	return &RecipeOutput{Body: mapRecipeResponse(recipe)}, nil
}

func (s *Server) handleUpdateRecipe(ctx context.Context, input *UpdateRecipeInput) (*RecipeOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	recipe, err := s.services.Recipe.UpdateRecipe(ctx, userID, input.ID, service.UpdateRecipeRequest{
		Title:       input.Body.Title,
		TimeMinutes: input.Body.TimeMinutes,
		PriceCents:  input.Body.PriceCents,
		Link:        input.Body.Link,
		Description: input.Body.Description,
		Tags:        mapNameRefsPtr(input.Body.Tags),
		Ingredients: mapNameRefsPtr(input.Body.Ingredients),
	})
	if err != nil {
		return nil, err
	}

	return &RecipeOutput{Body: mapRecipeResponse(recipe)}, nil
}

func (s *Server) handleReplaceRecipe(ctx context.Context, input *ReplaceRecipeInput) (*RecipeOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	// Full replace: every scalar is written, with zero values standing in
	// for whatever the request left out.
	recipe, err := s.services.Recipe.UpdateRecipe(ctx, userID, input.ID, service.UpdateRecipeRequest{
		Title:       &input.Body.Title,
		TimeMinutes: &input.Body.TimeMinutes,
		PriceCents:  &input.Body.PriceCents,
		Link:        &input.Body.Link,
		Description: &input.Body.Description,
		Tags:        mapNameRefsPtr(input.Body.Tags),
		Ingredients: mapNameRefsPtr(input.Body.Ingredients),
	})
	if err != nil {
		return nil, err
	}

	return &RecipeOutput{Body: mapRecipeResponse(recipe)}, nil
}

func (s *Server) handleDeleteRecipe(ctx context.Context, input *DeleteRecipeInput) (*MessageOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Recipe.DeleteRecipe(ctx, userID, input.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Recipe deleted"}}, nil
}

func (s *Server) handleUploadRecipeImage(ctx context.Context, input *UploadRecipeImageInput) (*RecipeOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	recipe, err := s.services.Recipe.AttachImage(ctx, userID, input.ID, input.RawBody)
	if err != nil {
		return nil, err
	}

	return &RecipeOutput{Body: mapRecipeResponse(recipe)}, nil
}

func (s *Server) handleGetRecipeImage(ctx context.Context, input *GetRecipeInput) (*RecipeImageOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	data, ext, err := s.services.Recipe.OpenImage(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}

	ctype := mime.TypeByExtension(ext)
	if ctype == "" {
		ctype = "application/octet-stream"
	}

	return &RecipeImageOutput{ContentType: ctype, Body: data}, nil
}

// === Helpers ===

func mapNameRefs(refs []NameRefRequest) []service.NameRef {
	if refs == nil {
		return nil
	}
	out := make([]service.NameRef, len(refs))
	for i, r := range refs {
		out[i] = service.NameRef{Name: r.Name}
	}
	return out
}

func mapNameRefsPtr(refs *[]NameRefRequest) *[]service.NameRef {
	if refs == nil {
		return nil
	}
	out := mapNameRefs(*refs)
	if out == nil {
		out = []service.NameRef{}
	}
	return &out
}

func mapRecipeResponse(r *domain.Recipe) RecipeResponse {
	resp := RecipeResponse{
		ID:            r.ID,
		Title:         r.Title,
		TimeMinutes:   r.TimeMinutes,
		PriceCents:    r.PriceCents,
		Price:         r.PriceString(),
		Link:          r.Link,
		Description:   r.Description,
		ImageBlurhash: r.ImageBlurhash,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
		Tags:          make([]TagResponse, len(r.Tags)),
		Ingredients:   make([]IngredientResponse, len(r.Ingredients)),
	}

	if r.HasImage() {
		resp.ImageURL = "/images/recipes/" + r.ImageKey + r.ImageExt
	}

	for i, t := range r.Tags {
		resp.Tags[i] = TagResponse{
			ID:        t.ID,
			Name:      t.Name,
			CreatedAt: t.CreatedAt,
			UpdatedAt: t.UpdatedAt,
		}
	}
	for i, ing := range r.Ingredients {
		resp.Ingredients[i] = IngredientResponse{
			ID:        ing.ID,
			Name:      ing.Name,
			CreatedAt: ing.CreatedAt,
			UpdatedAt: ing.UpdatedAt,
		}
	}

	return resp
}
