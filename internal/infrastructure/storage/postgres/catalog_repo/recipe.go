package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"mesa/internal/core/apperror"
	"mesa/internal/core/id"
	"mesa/internal/core/types"
	"mesa/internal/domain/recipes"
	"mesa/internal/infrastructure/storage/postgres"
)

const (
	recipesTable           = "cat_recipes"
	recipeIngredientsTable = "cat_recipe_ingredients"
)

// RecipeRepo implements recipes.Repository.
type RecipeRepo struct {
	*BaseCatalogRepo[*recipes.Recipe]
}

// NewRecipeRepo creates a new recipe repository.
func NewRecipeRepo(txManager *postgres.TxManager) *RecipeRepo {
	return &RecipeRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txManager,
			recipesTable,
			postgres.ExtractDBColumns[recipes.Recipe](),
			func() *recipes.Recipe { return &recipes.Recipe{} },
		),
	}
}

func (r *RecipeRepo) GetIngredients(ctx context.Context, recipeID id.ID) ([]recipes.Ingredient, error) {
	q := r.Builder().
		Select(
			"line_id", "line_no", "material_id",
			"quantity", "unit_id", "cost", "waste_percent",
		).
		From(recipeIngredientsTable).
		Where(squirrel.Eq{"recipe_id": recipeID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var ingredients []recipes.Ingredient
	if err := pgxscan.Select(ctx, r.querier(ctx), &ingredients, sql, args...); err != nil {
		return nil, fmt.Errorf("get ingredients: %w", err)
	}

	return ingredients, nil
}

func (r *RecipeRepo) SaveIngredients(ctx context.Context, recipeID id.ID, ingredients []recipes.Ingredient) error {
	querier := r.querier(ctx)

	deleteSQL := "DELETE FROM " + recipeIngredientsTable + " WHERE recipe_id = $1"
	if _, err := querier.Exec(ctx, deleteSQL, recipeID); err != nil {
		return fmt.Errorf("delete existing ingredients: %w", err)
	}

	if len(ingredients) == 0 {
		return nil
	}

	q := r.Builder().
		Insert(recipeIngredientsTable).
		Columns(
			"line_id", "recipe_id", "line_no", "material_id",
			"quantity", "unit_id", "cost", "waste_percent",
		)

	for _, ing := range ingredients {
		q = q.Values(
			ing.LineID, recipeID, ing.LineNo, ing.MaterialID,
			ing.Quantity, ing.UnitID, ing.Cost, ing.WastePercent,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert ingredients: %w", err)
	}

	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert ingredients: %w", err)
	}

	return nil
}

// FindByIngredient returns active recipes that consume the material.
func (r *RecipeRepo) FindByIngredient(ctx context.Context, materialID id.ID) ([]*recipes.Recipe, error) {
	q := r.baseSelect().
		Where(squirrel.Expr(
			"id IN (SELECT recipe_id FROM "+recipeIngredientsTable+" WHERE material_id = ?)",
			materialID,
		)).
		Where("deletion_mark = FALSE").
		Where("is_active = TRUE").
		OrderBy("name")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var found []*recipes.Recipe
	if err := pgxscan.Select(ctx, r.querier(ctx), &found, sql, args...); err != nil {
		return nil, fmt.Errorf("find by ingredient: %w", err)
	}

	return found, nil
}

// UpdateCosts writes only the cached cost columns, bypassing the version.
// Rollups run in bulk and must not trip the optimistic lock.
func (r *RecipeRepo) UpdateCosts(ctx context.Context, recipeID id.ID, totalCost, costPerUnit types.Money) error {
	sql := "UPDATE cat_recipes SET total_cost = $1, cost_per_unit = $2, updated_at = NOW() WHERE id = $3"

	result, err := r.querier(ctx).Exec(ctx, sql, totalCost, costPerUnit, recipeID)
	if err != nil {
		return fmt.Errorf("update costs: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(recipesTable, recipeID.String())
	}

	return nil
}

var _ recipes.Repository = (*RecipeRepo)(nil)
