package service

import (
	"context"

	"github.com/pageza/recipe-api/backend/internal/model"
)

// IRecipeService defines the interface for recipe operations
type IRecipeService interface {
	CreateRecipe(ctx context.Context, recipe *model.Recipe) (*model.Recipe, error)
	GetRecipe(ctx context.Context, id uint) (*model.Recipe, error)
	ListRecipes(ctx context.Context, filter RecipeFilter) ([]*model.Recipe, error)
	UpdateRecipe(ctx context.Context, id uint, changes model.RecipeChanges) (*model.Recipe, error)
	DeleteRecipe(ctx context.Context, id uint) error
	CountIngredients(ctx context.Context, recipeID uint) (int64, error)
}

// RecipeFilter narrows ListRecipes.
type RecipeFilter struct {
	// NamePrefix matches recipe names case-insensitively. Empty means all.
	NamePrefix string
}
