package recipes

import (
	"context"

	"github.com/shopspring/decimal"

	"mesa/internal/core/id"
	"mesa/internal/core/types"
	"mesa/internal/domain"
)

// Repository defines storage operations for recipes.
type Repository interface {
	Create(ctx context.Context, recipe *Recipe) error
	GetByID(ctx context.Context, recipeID id.ID) (*Recipe, error)
	Update(ctx context.Context, recipe *Recipe) error
	Delete(ctx context.Context, recipeID id.ID) error

	GetIngredients(ctx context.Context, recipeID id.ID) ([]Ingredient, error)
	SaveIngredients(ctx context.Context, recipeID id.ID, ingredients []Ingredient) error

	// FindByIngredient returns recipes that consume the material.
	// Drives cost propagation when a material's cost changes.
	FindByIngredient(ctx context.Context, materialID id.ID) ([]*Recipe, error)

	// UpdateCosts writes only the cached cost columns
	UpdateCosts(ctx context.Context, recipeID id.ID, totalCost, costPerUnit types.Money) error

	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Recipe], error)
}

// MaterialCosts abstracts material cost reads and writes. The material
// catalog repository satisfies it.
type MaterialCosts interface {
	// GetAverageCost returns the material's weighted average cost
	GetAverageCost(ctx context.Context, materialID id.ID) (types.Money, error)

	// GetConsumptionUnit returns the unit the material's cost is kept in
	GetConsumptionUnit(ctx context.Context, materialID id.ID) (id.ID, error)

	// UpdateAverageCost writes a produced material's cost after a recipe
	// rollup
	UpdateAverageCost(ctx context.Context, materialID id.ID, cost types.Money) error
}

// UnitConverter brings ingredient quantities into the material's
// consumption unit before costing. The unit catalog converter satisfies it.
type UnitConverter interface {
	Convert(ctx context.Context, qty decimal.Decimal, fromUnitID, toUnitID id.ID) (decimal.Decimal, error)
}
