package recipes

import (
	"context"
	"fmt"

	"mesa/internal/core/apperror"
	"mesa/internal/core/id"
	"mesa/internal/core/tx"
	"mesa/internal/core/types"
	"mesa/internal/domain"
	"mesa/pkg/logger"
)

// maxPropagationDepth bounds cost cascades through nested preps.
const maxPropagationDepth = 20

// Service provides business operations for recipes.
type Service struct {
	repo          Repository
	materialCosts MaterialCosts
	units         UnitConverter
	txManager     tx.Manager
}

// NewService creates a new recipe service.
func NewService(repo Repository, materialCosts MaterialCosts, units UnitConverter, txManager tx.Manager) *Service {
	return &Service{
		repo:          repo,
		materialCosts: materialCosts,
		units:         units,
		txManager:     txManager,
	}
}

// Create creates a recipe with its ingredients and an initial cost rollup.
func (s *Service) Create(ctx context.Context, recipe *Recipe) error {
	if err := recipe.Validate(ctx); err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.rollupCosts(ctx, recipe); err != nil {
			return err
		}
		if err := s.repo.Create(ctx, recipe); err != nil {
			return fmt.Errorf("create recipe: %w", err)
		}
		if err := s.repo.SaveIngredients(ctx, recipe.ID, recipe.Ingredients); err != nil {
			return fmt.Errorf("save ingredients: %w", err)
		}
		return nil
	})
}

// GetByID retrieves a recipe with ingredients.
func (s *Service) GetByID(ctx context.Context, recipeID id.ID) (*Recipe, error) {
	recipe, err := s.repo.GetByID(ctx, recipeID)
	if err != nil {
		return nil, err
	}

	ingredients, err := s.repo.GetIngredients(ctx, recipeID)
	if err != nil {
		return nil, fmt.Errorf("get ingredients: %w", err)
	}
	recipe.Ingredients = ingredients

	return recipe, nil
}

// Update updates a recipe, re-rolling its costs.
func (s *Service) Update(ctx context.Context, recipe *Recipe) error {
	if err := recipe.Validate(ctx); err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.rollupCosts(ctx, recipe); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, recipe); err != nil {
			return fmt.Errorf("update recipe: %w", err)
		}
		if err := s.repo.SaveIngredients(ctx, recipe.ID, recipe.Ingredients); err != nil {
			return fmt.Errorf("save ingredients: %w", err)
		}
		return nil
	})
}

// List retrieves recipes with filtering.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Recipe], error) {
	return s.repo.List(ctx, filter)
}

// RecalculateCost re-rolls one recipe's cost from current material costs
// and persists the cached columns.
func (s *Service) RecalculateCost(ctx context.Context, recipeID id.ID) (*Recipe, error) {
	recipe, err := s.GetByID(ctx, recipeID)
	if err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.rollupCosts(ctx, recipe); err != nil {
			return err
		}
		return s.repo.UpdateCosts(ctx, recipe.ID, recipe.TotalCost, recipe.CostPerUnit)
	})
	if err != nil {
		return nil, err
	}

	return recipe, nil
}

// PropagateMaterialCost cascades a material cost change through every recipe
// that consumes it, directly or through intermediate preps.
//
// Each affected recipe is re-rolled; when a re-rolled recipe outputs a
// material, that material's cost is updated and the walk continues from it.
// A visited set plus a depth bound guard against ingredient cycles, so a
// prep that (through data error) feeds back into itself recalculates once
// instead of looping.
func (s *Service) PropagateMaterialCost(ctx context.Context, materialID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		visited := make(map[id.ID]struct{})
		return s.propagate(ctx, materialID, visited, 0)
	})
}

func (s *Service) propagate(ctx context.Context, materialID id.ID, visited map[id.ID]struct{}, depth int) error {
	if depth > maxPropagationDepth {
		return apperror.NewBusinessRule(
			"RECIPE_GRAPH_TOO_DEEP",
			"Recipe cost propagation exceeded maximum depth",
		).WithDetail("materialId", materialID)
	}
	if _, seen := visited[materialID]; seen {
		return nil
	}
	visited[materialID] = struct{}{}

	consumers, err := s.repo.FindByIngredient(ctx, materialID)
	if err != nil {
		return fmt.Errorf("find consumers of %s: %w", materialID, err)
	}

	for _, recipe := range consumers {
		ingredients, err := s.repo.GetIngredients(ctx, recipe.ID)
		if err != nil {
			return fmt.Errorf("get ingredients: %w", err)
		}
		recipe.Ingredients = ingredients

		if err := s.rollupCosts(ctx, recipe); err != nil {
			return err
		}
		if err := s.repo.UpdateCosts(ctx, recipe.ID, recipe.TotalCost, recipe.CostPerUnit); err != nil {
			return fmt.Errorf("update recipe costs: %w", err)
		}
		if err := s.repo.SaveIngredients(ctx, recipe.ID, recipe.Ingredients); err != nil {
			return fmt.Errorf("save ingredient costs: %w", err)
		}

		logger.Debug(ctx, "recipe cost re-rolled",
			"recipe_id", recipe.ID,
			"total_cost", recipe.TotalCost,
			"depth", depth,
		)

		if recipe.OutputMaterialID != nil {
			outputID := *recipe.OutputMaterialID
			if err := s.materialCosts.UpdateAverageCost(ctx, outputID, recipe.CostPerUnit); err != nil {
				return fmt.Errorf("update output material cost: %w", err)
			}
			if err := s.propagate(ctx, outputID, visited, depth+1); err != nil {
				return err
			}
		}
	}

	return nil
}

// rollupCosts prices every ingredient at the material's current average cost
// and derives TotalCost and CostPerUnit. Ingredient lines stated in another
// unit (a recipe in grams, cost kept per kilogram) are converted into the
// material's consumption unit first.
func (s *Service) rollupCosts(ctx context.Context, recipe *Recipe) error {
	total := types.ZeroMoney()

	for i := range recipe.Ingredients {
		ing := &recipe.Ingredients[i]

		unitCost, err := s.materialCosts.GetAverageCost(ctx, ing.MaterialID)
		if err != nil {
			return fmt.Errorf("material cost for %s: %w", ing.MaterialID, err)
		}

		qty := ing.EffectiveQuantity()
		if ing.UnitID != nil {
			costUnit, err := s.materialCosts.GetConsumptionUnit(ctx, ing.MaterialID)
			if err != nil {
				return fmt.Errorf("consumption unit for %s: %w", ing.MaterialID, err)
			}
			if *ing.UnitID != costUnit {
				qty, err = s.units.Convert(ctx, qty, *ing.UnitID, costUnit)
				if err != nil {
					return fmt.Errorf("convert ingredient %s: %w", ing.MaterialID, err)
				}
			}
		}

		ing.Cost = qty.Mul(unitCost).Round(4)
		total = total.Add(ing.Cost)
	}

	recipe.TotalCost = total
	if recipe.YieldQuantity.IsPositive() {
		recipe.CostPerUnit = total.DivRound(recipe.YieldQuantity.Decimal(), 6)
	} else {
		recipe.CostPerUnit = total
	}

	return nil
}
