package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pageza/recipe-api/backend/internal/service"
	"github.com/pageza/recipe-api/backend/internal/types"
)

type RecipeHandler struct {
	recipeService service.IRecipeService
	log           *zap.Logger
}

func NewRecipeHandler(recipeService service.IRecipeService, log *zap.Logger) *RecipeHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &RecipeHandler{
		recipeService: recipeService,
		log:           log.Named("recipe_handler"),
	}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	recipes := router.Group("/recipes")
	{
		recipes.GET("", h.ListRecipes)
		recipes.POST("", h.CreateRecipe)
		recipes.GET("/:id", h.GetRecipe)
		recipes.PUT("/:id", h.ReplaceRecipe)
		recipes.PATCH("/:id", h.PatchRecipe)
		recipes.DELETE("/:id", h.DeleteRecipe)
	}
}

func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	filter := service.RecipeFilter{NamePrefix: c.Query("name")}

	recipes, err := h.recipeService.ListRecipes(c.Request.Context(), filter)
	if err != nil {
		h.log.Error("failed to list recipes", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch recipes"})
		return
	}

	c.JSON(http.StatusOK, types.NewRecipeListResponse(recipes))
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	id, ok := recipeID(c)
	if !ok {
		return
	}

	recipe, err := h.recipeService.GetRecipe(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err, "fetch")
		return
	}

	c.JSON(http.StatusOK, types.NewRecipeResponse(recipe))
}

func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	req, ok := bindRecipe(c, types.ModeCreate)
	if !ok {
		return
	}

	recipe, err := h.recipeService.CreateRecipe(c.Request.Context(), req.ToModel())
	if err != nil {
		h.fail(c, err, "create")
		return
	}

	c.JSON(http.StatusCreated, types.NewRecipeResponse(recipe))
}

// ReplaceRecipe handles PUT. Name and description are required; ingredients
// are replaced only when supplied.
func (h *RecipeHandler) ReplaceRecipe(c *gin.Context) {
	h.update(c, types.ModeReplace)
}

// PatchRecipe handles PATCH. Any subset of fields may be supplied.
func (h *RecipeHandler) PatchRecipe(c *gin.Context) {
	h.update(c, types.ModePartial)
}

func (h *RecipeHandler) update(c *gin.Context, mode types.Mode) {
	id, ok := recipeID(c)
	if !ok {
		return
	}
	// A missing recipe is reported before anything about the body.
	if _, err := h.recipeService.GetRecipe(c.Request.Context(), id); err != nil {
		h.fail(c, err, "update")
		return
	}
	req, ok := bindRecipe(c, mode)
	if !ok {
		return
	}

	recipe, err := h.recipeService.UpdateRecipe(c.Request.Context(), id, req.ToChanges())
	if err != nil {
		h.fail(c, err, "update")
		return
	}

	c.JSON(http.StatusOK, types.NewRecipeResponse(recipe))
}

func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	id, ok := recipeID(c)
	if !ok {
		return
	}

	if err := h.recipeService.DeleteRecipe(c.Request.Context(), id); err != nil {
		h.fail(c, err, "delete")
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) fail(c *gin.Context, err error, verb string) {
	if errors.Is(err, service.ErrRecipeNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Recipe not found"})
		return
	}
	h.log.Error("failed to "+verb+" recipe", zap.Error(err), zap.String("recipe_id", c.Param("id")))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to " + verb + " recipe"})
}

// recipeID parses the :id path parameter. Ids that are not positive integers
// cannot name a recipe, so they are reported as not found.
func recipeID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 0)
	if err != nil || id == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Recipe not found"})
		return 0, false
	}
	return uint(id), true
}

func bindRecipe(c *gin.Context, mode types.Mode) (*types.RecipeRequest, bool) {
	var req types.RecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return nil, false
	}

	if err := req.Validate(mode); err != nil {
		var verr *types.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "fields": verr.Fields})
			return nil, false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	return &req, true
}
