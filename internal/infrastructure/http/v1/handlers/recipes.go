package handlers

import (
	"github.com/gin-gonic/gin"

	"mesa/internal/domain/recipes"
	"mesa/internal/infrastructure/http/v1/dto"
)

// RecipeHandler serves recipes and their cost rollups.
type RecipeHandler struct {
	*BaseHandler
	service *recipes.Service
}

// NewRecipeHandler creates a recipe handler.
func NewRecipeHandler(base *BaseHandler, service *recipes.Service) *RecipeHandler {
	return &RecipeHandler{BaseHandler: base, service: service}
}

// RegisterRoutes registers recipe routes on the group.
func (h *RecipeHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id", h.Update)
	rg.POST("/:id/recalculate", h.RecalculateCost)
}

// List handles GET /recipes.
func (h *RecipeHandler) List(c *gin.Context) {
	var query dto.ListQuery
	if !h.BindQuery(c, &query) {
		return
	}

	result, err := h.service.List(c.Request.Context(), query.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromListResult(result))
}

// Create handles POST /recipes.
func (h *RecipeHandler) Create(c *gin.Context) {
	var req dto.CreateRecipeRequest
	if !h.BindJSON(c, &req) {
		return
	}

	recipe, err := req.ToEntity()
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.Create(c.Request.Context(), recipe); err != nil {
		h.Error(c, err)
		return
	}

	h.CreatedData(c, recipe)
}

// Get handles GET /recipes/:id.
func (h *RecipeHandler) Get(c *gin.Context) {
	recipeID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	recipe, err := h.service.GetByID(c.Request.Context(), recipeID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, recipe)
}

// Update handles PUT /recipes/:id.
func (h *RecipeHandler) Update(c *gin.Context) {
	recipeID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateRecipeRequest
	if !h.BindJSON(c, &req) {
		return
	}

	recipe, err := h.service.GetByID(c.Request.Context(), recipeID)
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := req.ApplyTo(recipe); err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.Update(c.Request.Context(), recipe); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, recipe)
}

// RecalculateCost handles POST /recipes/:id/recalculate.
func (h *RecipeHandler) RecalculateCost(c *gin.Context) {
	recipeID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	recipe, err := h.service.RecalculateCost(c.Request.Context(), recipeID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, recipe)
}
