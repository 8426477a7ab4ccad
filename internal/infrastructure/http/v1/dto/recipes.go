package dto

import (
	"mesa/internal/core/id"
	"mesa/internal/core/types"
	"mesa/internal/domain/recipes"
)

// --- Request DTOs ---

type RecipeIngredientRequest struct {
	MaterialID   string  `json:"materialId" binding:"required"`
	Quantity     float64 `json:"quantity" binding:"required,gt=0"`
	UnitID       *string `json:"unitId,omitempty"`
	WastePercent float64 `json:"wastePercent"`
}

func (r *RecipeIngredientRequest) toIngredient(lineNo int) (recipes.Ingredient, error) {
	materialID, err := ParseIDField(r.MaterialID, "materialId")
	if err != nil {
		return recipes.Ingredient{}, err
	}
	unitID, err := parseOptionalID(r.UnitID, "unitId")
	if err != nil {
		return recipes.Ingredient{}, err
	}

	return recipes.Ingredient{
		LineID:       id.New(),
		LineNo:       lineNo,
		MaterialID:   materialID,
		Quantity:     types.NewQuantityFromFloat64(r.Quantity),
		UnitID:       unitID,
		Cost:         types.ZeroMoney(),
		WastePercent: types.NewMoney(r.WastePercent),
	}, nil
}

type CreateRecipeRequest struct {
	Code             string                    `json:"code,omitempty"`
	Name             string                    `json:"name" binding:"required"`
	OutputMaterialID *string                   `json:"outputMaterialId,omitempty"`
	YieldQuantity    float64                   `json:"yieldQuantity" binding:"required,gt=0"`
	YieldUnitID      *string                   `json:"yieldUnitId,omitempty"`
	SellingPrice     float64                   `json:"sellingPrice"`
	Ingredients      []RecipeIngredientRequest `json:"ingredients" binding:"required,min=1,dive"`
}

func (r *CreateRecipeRequest) ToEntity() (*recipes.Recipe, error) {
	recipe := recipes.NewRecipe(r.Code, r.Name, types.NewQuantityFromFloat64(r.YieldQuantity))
	recipe.SellingPrice = types.NewMoney(r.SellingPrice)

	var err error
	if recipe.OutputMaterialID, err = parseOptionalID(r.OutputMaterialID, "outputMaterialId"); err != nil {
		return nil, err
	}
	if recipe.YieldUnitID, err = parseOptionalID(r.YieldUnitID, "yieldUnitId"); err != nil {
		return nil, err
	}

	for i, ir := range r.Ingredients {
		ing, err := ir.toIngredient(i + 1)
		if err != nil {
			return nil, err
		}
		recipe.Ingredients = append(recipe.Ingredients, ing)
	}

	return recipe, nil
}

type UpdateRecipeRequest struct {
	Name             *string                   `json:"name,omitempty"`
	OutputMaterialID *string                   `json:"outputMaterialId,omitempty"`
	YieldQuantity    *float64                  `json:"yieldQuantity,omitempty"`
	YieldUnitID      *string                   `json:"yieldUnitId,omitempty"`
	SellingPrice     *float64                  `json:"sellingPrice,omitempty"`
	IsActive         *bool                     `json:"isActive,omitempty"`
	Ingredients      []RecipeIngredientRequest `json:"ingredients,omitempty"`
}

func (r *UpdateRecipeRequest) ApplyTo(recipe *recipes.Recipe) error {
	if r.Name != nil {
		recipe.Name = *r.Name
	}

	var err error
	if r.OutputMaterialID != nil {
		if recipe.OutputMaterialID, err = parseOptionalID(r.OutputMaterialID, "outputMaterialId"); err != nil {
			return err
		}
	}
	if r.YieldQuantity != nil {
		recipe.YieldQuantity = types.NewQuantityFromFloat64(*r.YieldQuantity)
	}
	if r.YieldUnitID != nil {
		if recipe.YieldUnitID, err = parseOptionalID(r.YieldUnitID, "yieldUnitId"); err != nil {
			return err
		}
	}
	if r.SellingPrice != nil {
		recipe.SellingPrice = types.NewMoney(*r.SellingPrice)
	}
	if r.IsActive != nil {
		recipe.IsActive = *r.IsActive
	}

	if r.Ingredients != nil {
		recipe.Ingredients = recipe.Ingredients[:0]
		for i, ir := range r.Ingredients {
			ing, err := ir.toIngredient(i + 1)
			if err != nil {
				return err
			}
			recipe.Ingredients = append(recipe.Ingredients, ing)
		}
	}

	return nil
}
