package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pageza/recipe-api/backend/internal/cache"
	"github.com/pageza/recipe-api/backend/internal/model"
	"github.com/pageza/recipe-api/backend/internal/testhelpers"
)

// memoryCache records cache traffic so tests can assert on it. beforeSet,
// when set, runs at the start of every Set to interleave writes with a read.
type memoryCache struct {
	mu          sync.Mutex
	entries     map[uint]model.Recipe
	versions    map[uint]int64
	invalidated []uint
	beforeSet   func()
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[uint]model.Recipe{}, versions: map[uint]int64{}}
}

func (c *memoryCache) Get(_ context.Context, id uint) (*model.Recipe, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.entries[id]
	if !ok {
		return nil, cache.ErrMiss
	}
	return &r, nil
}

func (c *memoryCache) Version(_ context.Context, id uint) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.versions[id], nil
}

func (c *memoryCache) Set(_ context.Context, recipe *model.Recipe, version int64) error {
	if hook := c.beforeSet; hook != nil {
		c.beforeSet = nil
		hook()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.versions[recipe.ID] != version {
		return nil
	}
	c.entries[recipe.ID] = *recipe
	return nil
}

func (c *memoryCache) Invalidate(_ context.Context, id uint) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
	c.versions[id]++
	c.invalidated = append(c.invalidated, id)
	return nil
}

func setupService(t *testing.T) (*RecipeService, *gorm.DB) {
	t.Helper()
	db := testhelpers.SetupSQLite(t)
	return NewRecipeService(db, nil, nil), db
}

func createRecipe(t *testing.T, svc *RecipeService, name string, ingredients ...string) *model.Recipe {
	t.Helper()
	recipe := &model.Recipe{Name: name, Description: "Sample recipe description"}
	for _, ing := range ingredients {
		recipe.Ingredients = append(recipe.Ingredients, model.Ingredient{Name: ing})
	}
	created, err := svc.CreateRecipe(context.Background(), recipe)
	require.NoError(t, err)
	return created
}

func strPtr(s string) *string { return &s }

func TestCreateRecipe(t *testing.T) {
	svc, _ := setupService(t)

	created := createRecipe(t, svc, "Breakfast", "Eggs", "Toast")
	assert.NotZero(t, created.ID)
	assert.Equal(t, "Breakfast", created.Name)
	assert.Equal(t, []string{"Eggs", "Toast"}, created.IngredientNames())
	for _, ing := range created.Ingredients {
		assert.Equal(t, created.ID, ing.RecipeID)
	}

	got, err := svc.GetRecipe(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Name, got.Name)
	assert.Equal(t, created.Description, got.Description)
	assert.Equal(t, []string{"Eggs", "Toast"}, got.IngredientNames())
}

func TestCreateRecipeIsAtomic(t *testing.T) {
	svc, db := setupService(t)

	// Drop the ingredients table so the second insert of the transaction fails.
	require.NoError(t, db.Migrator().DropTable(&model.Ingredient{}))

	_, err := svc.CreateRecipe(context.Background(), &model.Recipe{
		Name:        "Orphan",
		Ingredients: []model.Ingredient{{Name: "Salt"}},
	})
	require.Error(t, err)

	var count int64
	require.NoError(t, db.Model(&model.Recipe{}).Count(&count).Error)
	assert.Zero(t, count, "recipe row must be rolled back with its ingredients")
}

func TestGetRecipeNotFound(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.GetRecipe(context.Background(), 999)
	assert.ErrorIs(t, err, ErrRecipeNotFound)
}

func TestListRecipesOrderAndFilter(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	breakfast := createRecipe(t, svc, "Breakfast")
	lunch := createRecipe(t, svc, "Lunch")
	brunch := createRecipe(t, svc, "brunch")
	breakSpecial := createRecipe(t, svc, "BREAK_fast")

	all, err := svc.ListRecipes(ctx, RecipeFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, []uint{breakSpecial.ID, brunch.ID, lunch.ID, breakfast.ID}, ids(all))

	filtered, err := svc.ListRecipes(ctx, RecipeFilter{NamePrefix: "break"})
	require.NoError(t, err)
	assert.Equal(t, []uint{breakSpecial.ID, breakfast.ID}, ids(filtered))

	filtered, err = svc.ListRecipes(ctx, RecipeFilter{NamePrefix: "BR"})
	require.NoError(t, err)
	assert.Len(t, filtered, 3)

	// "_" must match literally, not as a single-character wildcard.
	filtered, err = svc.ListRecipes(ctx, RecipeFilter{NamePrefix: "break_"})
	require.NoError(t, err)
	assert.Equal(t, []uint{breakSpecial.ID}, ids(filtered))

	filtered, err = svc.ListRecipes(ctx, RecipeFilter{NamePrefix: "%"})
	require.NoError(t, err)
	assert.Empty(t, filtered)
}

func TestListRecipesEmpty(t *testing.T) {
	svc, _ := setupService(t)

	recipes, err := svc.ListRecipes(context.Background(), RecipeFilter{})
	require.NoError(t, err)
	assert.Empty(t, recipes)
}

func TestUpdateRecipePartial(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	recipe := createRecipe(t, svc, "Dinner", "Rice")

	updated, err := svc.UpdateRecipe(ctx, recipe.ID, model.RecipeChanges{
		Description: strPtr("Description for dinner"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Dinner", updated.Name)
	assert.Equal(t, "Description for dinner", updated.Description)
	assert.Equal(t, []string{"Rice"}, updated.IngredientNames())
}

func TestUpdateRecipeReplacesIngredients(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	recipe := createRecipe(t, svc, "Dinner", "Rice", "Beans", "Salsa")

	names := []string{"Pasta", "Pesto"}
	updated, err := svc.UpdateRecipe(ctx, recipe.ID, model.RecipeChanges{Ingredients: &names})
	require.NoError(t, err)
	assert.Equal(t, names, updated.IngredientNames())

	count, err := svc.CountIngredients(ctx, recipe.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	empty := []string{}
	updated, err = svc.UpdateRecipe(ctx, recipe.ID, model.RecipeChanges{Ingredients: &empty})
	require.NoError(t, err)
	assert.Empty(t, updated.Ingredients)
}

func TestUpdateRecipeCanClearDescription(t *testing.T) {
	svc, _ := setupService(t)
	recipe := createRecipe(t, svc, "Lunch")

	updated, err := svc.UpdateRecipe(context.Background(), recipe.ID, model.RecipeChanges{
		Name:        strPtr("Dinner"),
		Description: strPtr(""),
	})
	require.NoError(t, err)
	assert.Equal(t, "Dinner", updated.Name)
	assert.Equal(t, "", updated.Description)
}

func TestUpdateRecipeNotFound(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.UpdateRecipe(context.Background(), 42, model.RecipeChanges{Name: strPtr("x")})
	assert.ErrorIs(t, err, ErrRecipeNotFound)
}

func TestDeleteRecipeCascades(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()
	recipe := createRecipe(t, svc, "Lunch", "Bread", "Cheese")
	other := createRecipe(t, svc, "Dinner", "Rice")

	require.NoError(t, svc.DeleteRecipe(ctx, recipe.ID))

	_, err := svc.GetRecipe(ctx, recipe.ID)
	assert.ErrorIs(t, err, ErrRecipeNotFound)

	var orphans int64
	require.NoError(t, db.Model(&model.Ingredient{}).Where("recipe_id = ?", recipe.ID).Count(&orphans).Error)
	assert.Zero(t, orphans)

	count, err := svc.CountIngredients(ctx, other.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestDeleteRecipeNotFound(t *testing.T) {
	svc, _ := setupService(t)

	err := svc.DeleteRecipe(context.Background(), 7)
	assert.ErrorIs(t, err, ErrRecipeNotFound)
}

func TestGetRecipeUsesCache(t *testing.T) {
	db := testhelpers.SetupSQLite(t)
	mc := newMemoryCache()
	svc := NewRecipeService(db, mc, nil)
	ctx := context.Background()

	recipe := createRecipe(t, svc, "Breakfast", "Eggs")

	_, err := svc.GetRecipe(ctx, recipe.ID)
	require.NoError(t, err)
	require.Contains(t, mc.entries, recipe.ID)

	// A cached entry is served without touching the database.
	require.NoError(t, db.Exec("UPDATE recipes SET name = ? WHERE id = ?", "Changed", recipe.ID).Error)
	got, err := svc.GetRecipe(ctx, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, "Breakfast", got.Name)

	_, err = svc.UpdateRecipe(ctx, recipe.ID, model.RecipeChanges{Description: strPtr("new")})
	require.NoError(t, err)
	assert.NotContains(t, mc.entries, recipe.ID)

	require.NoError(t, svc.DeleteRecipe(ctx, recipe.ID))
	assert.Equal(t, []uint{recipe.ID, recipe.ID}, mc.invalidated)
}

func TestGetRecipeDoesNotCacheRowsChangedDuringRead(t *testing.T) {
	db := testhelpers.SetupSQLite(t)
	mc := newMemoryCache()
	svc := NewRecipeService(db, mc, nil)
	ctx := context.Background()

	recipe := createRecipe(t, svc, "Breakfast")

	// The update commits after GetRecipe read the old row but before it
	// reaches the cache.
	mc.beforeSet = func() {
		_, err := svc.UpdateRecipe(ctx, recipe.ID, model.RecipeChanges{Name: strPtr("Lunch")})
		require.NoError(t, err)
	}
	got, err := svc.GetRecipe(ctx, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, "Breakfast", got.Name)
	assert.NotContains(t, mc.entries, recipe.ID)

	got, err = svc.GetRecipe(ctx, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lunch", got.Name)
}

func TestGetRecipeDoesNotCacheRowsDeletedDuringRead(t *testing.T) {
	db := testhelpers.SetupSQLite(t)
	mc := newMemoryCache()
	svc := NewRecipeService(db, mc, nil)
	ctx := context.Background()

	recipe := createRecipe(t, svc, "Breakfast", "Eggs")

	mc.beforeSet = func() {
		require.NoError(t, svc.DeleteRecipe(ctx, recipe.ID))
	}
	_, err := svc.GetRecipe(ctx, recipe.ID)
	require.NoError(t, err)

	_, err = svc.GetRecipe(ctx, recipe.ID)
	assert.ErrorIs(t, err, ErrRecipeNotFound)
}

type failingCache struct{}

func (failingCache) Get(context.Context, uint) (*model.Recipe, error) {
	return nil, errors.New("redis down")
}
func (failingCache) Version(context.Context, uint) (int64, error) {
	return 0, errors.New("redis down")
}
func (failingCache) Set(context.Context, *model.Recipe, int64) error {
	return errors.New("redis down")
}
func (failingCache) Invalidate(context.Context, uint) error { return errors.New("redis down") }

func TestCacheFailuresDoNotFailRequests(t *testing.T) {
	db := testhelpers.SetupSQLite(t)
	svc := NewRecipeService(db, failingCache{}, nil)
	ctx := context.Background()

	recipe := createRecipe(t, svc, "Breakfast")

	got, err := svc.GetRecipe(ctx, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, "Breakfast", got.Name)

	require.NoError(t, svc.DeleteRecipe(ctx, recipe.ID))
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\% off\_now\\`, escapeLike(`50% off_now\`))
}

func ids(recipes []*model.Recipe) []uint {
	out := make([]uint, 0, len(recipes))
	for _, r := range recipes {
		out = append(out, r.ID)
	}
	return out
}
