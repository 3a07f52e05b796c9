package store

// RecipeFilter narrows recipe listings. The ID lists combine with AND across
// fields and OR within a field: a recipe matches when it carries at least one
// of the requested tags AND at least one of the requested ingredients.
// A nil or empty slice places no constraint on that field.
type RecipeFilter struct {
	TagIDs        []string
	IngredientIDs []string
}

// IsZero reports whether the filter places no constraints.
func (f RecipeFilter) IsZero() bool {
	return len(f.TagIDs) == 0 && len(f.IngredientIDs) == 0
}
