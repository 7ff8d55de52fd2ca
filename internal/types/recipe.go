package types

import "github.com/pageza/recipe-api/backend/internal/model"

// RecipeResponse is the JSON representation of a recipe.
type RecipeResponse struct {
	ID          uint                 `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Ingredients []IngredientResponse `json:"ingredients"`
}

// IngredientResponse is the JSON representation of an ingredient.
type IngredientResponse struct {
	Name string `json:"name"`
}

// NewRecipeResponse maps a stored recipe onto its JSON representation.
func NewRecipeResponse(recipe *model.Recipe) RecipeResponse {
	resp := RecipeResponse{
		ID:          recipe.ID,
		Name:        recipe.Name,
		Description: recipe.Description,
		Ingredients: make([]IngredientResponse, 0, len(recipe.Ingredients)),
	}
	for _, ing := range recipe.Ingredients {
		resp.Ingredients = append(resp.Ingredients, IngredientResponse{Name: ing.Name})
	}
	return resp
}

// NewRecipeListResponse maps a slice of recipes, keeping their order. The
// result is never nil so an empty list encodes as [].
func NewRecipeListResponse(recipes []*model.Recipe) []RecipeResponse {
	out := make([]RecipeResponse, 0, len(recipes))
	for _, recipe := range recipes {
		out = append(out, NewRecipeResponse(recipe))
	}
	return out
}
