package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pageza/recipe-api/backend/internal/database"
	"github.com/pageza/recipe-api/backend/internal/model"
	"github.com/pageza/recipe-api/backend/internal/testhelpers"
)

func TestRecipeServicePostgres(t *testing.T) {
	db := testhelpers.SetupPostgres(t)
	ctx := context.Background()
	require.NoError(t, database.RunMigrations(ctx, db, zap.NewNop()))

	svc := NewRecipeService(db, nil, nil)

	breakfast := createRecipe(t, svc, "Breakfast", "Eggs", "Toast")
	createRecipe(t, svc, "Lunch")
	brunch := createRecipe(t, svc, "bReAk bread")

	filtered, err := svc.ListRecipes(ctx, RecipeFilter{NamePrefix: "Break"})
	require.NoError(t, err)
	assert.Equal(t, []uint{brunch.ID, breakfast.ID}, ids(filtered))

	names := []string{"Oats"}
	updated, err := svc.UpdateRecipe(ctx, breakfast.ID, model.RecipeChanges{Ingredients: &names})
	require.NoError(t, err)
	assert.Equal(t, names, updated.IngredientNames())

	require.NoError(t, svc.DeleteRecipe(ctx, breakfast.ID))
	count, err := svc.CountIngredients(ctx, breakfast.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestIngredientForeignKeyCascadesPostgres(t *testing.T) {
	db := testhelpers.SetupPostgres(t)
	ctx := context.Background()
	require.NoError(t, database.RunMigrations(ctx, db, zap.NewNop()))

	svc := NewRecipeService(db, nil, nil)
	recipe := createRecipe(t, svc, "Lunch", "Bread", "Cheese")

	// Deleting the row directly still removes its ingredients.
	require.NoError(t, db.Exec("DELETE FROM recipes WHERE id = ?", recipe.ID).Error)

	count, err := svc.CountIngredients(ctx, recipe.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}
