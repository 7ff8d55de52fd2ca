package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pageza/recipe-api/backend/internal/cache"
	"github.com/pageza/recipe-api/backend/internal/model"
)

// ErrRecipeNotFound is returned when no recipe has the requested id.
var ErrRecipeNotFound = errors.New("recipe not found")

// RecipeService handles recipe operations
type RecipeService struct {
	db    *gorm.DB
	cache cache.RecipeCache
	log   *zap.Logger
}

// NewRecipeService creates a new RecipeService instance. A nil cache disables
// caching and a nil logger discards log output.
func NewRecipeService(db *gorm.DB, recipeCache cache.RecipeCache, log *zap.Logger) *RecipeService {
	if recipeCache == nil {
		recipeCache = cache.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RecipeService{
		db:    db,
		cache: recipeCache,
		log:   log.Named("recipe_service"),
	}
}

// CreateRecipe inserts the recipe and its ingredients in a single transaction.
func (s *RecipeService) CreateRecipe(ctx context.Context, recipe *model.Recipe) (*model.Recipe, error) {
	var created model.Recipe
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := *recipe
		row.ID = 0
		row.Ingredients = nil

		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("failed to create recipe: %w", err)
		}
		if err := insertIngredients(tx, row.ID, ingredientNames(recipe.Ingredients)); err != nil {
			return err
		}
		return loadRecipe(tx, row.ID, &created)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("recipe created",
		zap.Uint("recipe_id", created.ID),
		zap.Int("ingredients", len(created.Ingredients)))
	return &created, nil
}

// GetRecipe retrieves a recipe by ID. On a cache miss the cache version is
// taken before the database read so a concurrent update or delete cannot be
// overwritten by the row read here.
func (s *RecipeService) GetRecipe(ctx context.Context, id uint) (*model.Recipe, error) {
	if cached, err := s.cache.Get(ctx, id); err == nil {
		return cached, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		s.log.Warn("recipe cache read failed", zap.Uint("recipe_id", id), zap.Error(err))
	}

	version, err := s.cache.Version(ctx, id)
	cacheable := err == nil
	if err != nil {
		s.log.Warn("recipe cache version read failed", zap.Uint("recipe_id", id), zap.Error(err))
	}

	var recipe model.Recipe
	if err := loadRecipe(s.db.WithContext(ctx), id, &recipe); err != nil {
		return nil, err
	}

	if cacheable {
		if err := s.cache.Set(ctx, &recipe, version); err != nil {
			s.log.Warn("recipe cache write failed", zap.Uint("recipe_id", id), zap.Error(err))
		}
	}
	return &recipe, nil
}

// ListRecipes returns recipes newest first, optionally filtered by a
// case-insensitive name prefix.
func (s *RecipeService) ListRecipes(ctx context.Context, filter RecipeFilter) ([]*model.Recipe, error) {
	query := s.db.WithContext(ctx).
		Preload("Ingredients", orderIngredients).
		Order("id DESC")

	if filter.NamePrefix != "" {
		query = query.Where(`LOWER(name) LIKE ? ESCAPE '\'`, escapeLike(strings.ToLower(filter.NamePrefix))+"%")
	}

	var recipes []*model.Recipe
	if err := query.Find(&recipes).Error; err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	return recipes, nil
}

// UpdateRecipe applies the supplied fields. When changes carries an
// ingredients list it replaces the recipe's ingredients entirely.
func (s *RecipeService) UpdateRecipe(ctx context.Context, id uint, changes model.RecipeChanges) (*model.Recipe, error) {
	if changes.IsEmpty() {
		return s.GetRecipe(ctx, id)
	}

	var updated model.Recipe
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.Recipe
		if err := tx.First(&existing, id).Error; err != nil {
			return notFound(err)
		}

		fields := map[string]interface{}{}
		if changes.Name != nil {
			fields["name"] = *changes.Name
		}
		if changes.Description != nil {
			fields["description"] = *changes.Description
		}
		if len(fields) > 0 {
			if err := tx.Model(&existing).Updates(fields).Error; err != nil {
				return fmt.Errorf("failed to update recipe %d: %w", id, err)
			}
		}

		if changes.Ingredients != nil {
			if err := tx.Where("recipe_id = ?", id).Delete(&model.Ingredient{}).Error; err != nil {
				return fmt.Errorf("failed to clear ingredients of recipe %d: %w", id, err)
			}
			if err := insertIngredients(tx, id, *changes.Ingredients); err != nil {
				return err
			}
		}

		return loadRecipe(tx, id, &updated)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, id)
	s.log.Info("recipe updated", zap.Uint("recipe_id", id))
	return &updated, nil
}

// DeleteRecipe deletes a recipe together with its ingredients.
func (s *RecipeService) DeleteRecipe(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var recipe model.Recipe
		if err := tx.Select("id").First(&recipe, id).Error; err != nil {
			return notFound(err)
		}
		if err := tx.Where("recipe_id = ?", id).Delete(&model.Ingredient{}).Error; err != nil {
			return fmt.Errorf("failed to delete ingredients of recipe %d: %w", id, err)
		}
		if err := tx.Delete(&model.Recipe{}, id).Error; err != nil {
			return fmt.Errorf("failed to delete recipe %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, id)
	s.log.Info("recipe deleted", zap.Uint("recipe_id", id))
	return nil
}

// CountIngredients returns how many ingredients reference recipeID.
func (s *RecipeService) CountIngredients(ctx context.Context, recipeID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Ingredient{}).Where("recipe_id = ?", recipeID).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count ingredients: %w", err)
	}
	return count, nil
}

func (s *RecipeService) invalidate(ctx context.Context, id uint) {
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.log.Warn("recipe cache invalidation failed", zap.Uint("recipe_id", id), zap.Error(err))
	}
}

func loadRecipe(db *gorm.DB, id uint, out *model.Recipe) error {
	if err := db.Preload("Ingredients", orderIngredients).First(out, id).Error; err != nil {
		return notFound(err)
	}
	return nil
}

func insertIngredients(tx *gorm.DB, recipeID uint, names []string) error {
	if len(names) == 0 {
		return nil
	}
	rows := make([]model.Ingredient, 0, len(names))
	for _, name := range names {
		rows = append(rows, model.Ingredient{Name: name, RecipeID: recipeID})
	}
	if err := tx.Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to create ingredients of recipe %d: %w", recipeID, err)
	}
	return nil
}

func orderIngredients(db *gorm.DB) *gorm.DB {
	return db.Order("id ASC")
}

func ingredientNames(ingredients []model.Ingredient) []string {
	names := make([]string, 0, len(ingredients))
	for _, ing := range ingredients {
		names = append(names, ing.Name)
	}
	return names
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrRecipeNotFound
	}
	return err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
