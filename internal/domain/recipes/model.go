// Package recipes provides recipe management and ingredient cost rollup.
// A recipe may output a material (an intermediate prep), which lets other
// recipes use it as an ingredient and makes costs cascade through the graph.
package recipes

import (
	"context"

	"mesa/internal/core/apperror"
	"mesa/internal/core/entity"
	"mesa/internal/core/id"
	"mesa/internal/core/types"
)

// Recipe represents a dish or intermediate preparation.
type Recipe struct {
	entity.Catalog

	// OutputMaterialID is set for intermediate preps: producing the recipe
	// yields this material, so its cost feeds recipes that consume it.
	// Nil for final dishes sold directly.
	OutputMaterialID *id.ID `db:"output_material_id" json:"outputMaterialId,omitempty"`

	// YieldQuantity is how much the recipe produces per batch
	YieldQuantity types.Quantity `db:"yield_quantity" json:"yieldQuantity"`
	YieldUnitID   *id.ID         `db:"yield_unit_id" json:"yieldUnitId,omitempty"`

	// Cached cost rollup
	TotalCost   types.Money `db:"total_cost" json:"totalCost"`
	CostPerUnit types.Money `db:"cost_per_unit" json:"costPerUnit"`

	// SellingPrice for margin reporting, zero when not sold directly
	SellingPrice types.Money `db:"selling_price" json:"sellingPrice"`

	IsActive bool `db:"is_active" json:"isActive"`

	Ingredients []Ingredient `db:"-" json:"ingredients"`
}

// Ingredient is one material line in a recipe.
type Ingredient struct {
	LineID     id.ID `db:"line_id" json:"lineId"`
	LineNo     int   `db:"line_no" json:"lineNo"`
	MaterialID id.ID `db:"material_id" json:"materialId"`

	Quantity types.Quantity `db:"quantity" json:"quantity"`
	UnitID   *id.ID         `db:"unit_id" json:"unitId,omitempty"`

	// Cost is the cached line cost: quantity * material average cost
	Cost types.Money `db:"cost" json:"cost"`

	// WastePercent inflates the quantity for trim and shrinkage (0-100)
	WastePercent types.Money `db:"waste_percent" json:"wastePercent"`
}

// NewRecipe creates a recipe with required fields.
func NewRecipe(code, name string, yield types.Quantity) *Recipe {
	return &Recipe{
		Catalog:       entity.NewCatalog(code, name),
		YieldQuantity: yield,
		TotalCost:     types.ZeroMoney(),
		CostPerUnit:   types.ZeroMoney(),
		SellingPrice:  types.ZeroMoney(),
		IsActive:      true,
		Ingredients:   make([]Ingredient, 0),
	}
}

// Validate implements entity.Validatable.
func (r *Recipe) Validate(ctx context.Context) error {
	if err := r.Catalog.Validate(ctx); err != nil {
		return err
	}

	if !r.YieldQuantity.IsPositive() {
		return apperror.NewValidation("yield quantity must be positive").
			WithDetail("field", "yieldQuantity")
	}

	seen := make(map[id.ID]struct{}, len(r.Ingredients))
	for i, ing := range r.Ingredients {
		if id.IsNil(ing.MaterialID) {
			return apperror.NewValidation("ingredient material is required").
				WithDetail("lineNo", i+1)
		}
		if !ing.Quantity.IsPositive() {
			return apperror.NewValidation("ingredient quantity must be positive").
				WithDetail("lineNo", i+1)
		}
		if _, dup := seen[ing.MaterialID]; dup {
			return apperror.NewDuplicate("recipe ingredient", "material", ing.MaterialID.String())
		}
		seen[ing.MaterialID] = struct{}{}

		if r.OutputMaterialID != nil && ing.MaterialID == *r.OutputMaterialID {
			return apperror.NewValidation("recipe cannot consume its own output").
				WithDetail("lineNo", i+1)
		}
	}

	return nil
}

// AddIngredient appends an ingredient line.
func (r *Recipe) AddIngredient(materialID id.ID, qty types.Quantity, unitID *id.ID) {
	r.Ingredients = append(r.Ingredients, Ingredient{
		LineID:       id.New(),
		LineNo:       len(r.Ingredients) + 1,
		MaterialID:   materialID,
		Quantity:     qty,
		UnitID:       unitID,
		Cost:         types.ZeroMoney(),
		WastePercent: types.ZeroMoney(),
	})
}

// EffectiveQuantity returns the quantity inflated by the waste percentage.
func (ing *Ingredient) EffectiveQuantity() types.Money {
	qty := ing.Quantity.Decimal()
	if ing.WastePercent.IsPositive() {
		factor := types.MustMoney("1").Add(ing.WastePercent.Div(types.MustMoney("100")))
		qty = qty.Mul(factor)
	}
	return qty
}

// Margin returns selling price minus cost per unit.
func (r *Recipe) Margin() types.Money {
	return r.SellingPrice.Sub(r.CostPerUnit)
}
