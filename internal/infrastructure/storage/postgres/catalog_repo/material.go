package catalog_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"mesa/internal/core/apperror"
	"mesa/internal/core/id"
	"mesa/internal/core/types"
	"mesa/internal/domain"
	"mesa/internal/domain/catalogs/material"
	"mesa/internal/domain/recipes"
	"mesa/internal/infrastructure/storage/postgres"
)

const materialsTable = "cat_materials"

// MaterialRepo implements the material catalog repository. It also serves
// recipe costing, which reads and writes average costs per material.
type MaterialRepo struct {
	*BaseCatalogRepo[*material.Material]
}

// NewMaterialRepo creates a new material repository.
func NewMaterialRepo(txManager *postgres.TxManager) *MaterialRepo {
	return &MaterialRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txManager,
			materialsTable,
			postgres.ExtractDBColumns[material.Material](),
			func() *material.Material { return &material.Material{} },
		),
	}
}

// ListByCategory returns active materials in a category.
func (r *MaterialRepo) ListByCategory(ctx context.Context, categoryID id.ID) ([]*material.Material, error) {
	q := r.baseSelect().
		Where("category_id = ?", categoryID).
		Where("deletion_mark = FALSE").
		Where("is_active = TRUE").
		OrderBy("name")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var materials []*material.Material
	if err := pgxscan.Select(ctx, r.querier(ctx), &materials, sql, args...); err != nil {
		return nil, fmt.Errorf("list by category: %w", err)
	}

	return materials, nil
}

// countSearchQuery builds the candidate query for SearchForCount. Split out
// so the SQL shape is testable without a database.
func (r *MaterialRepo) countSearchQuery(f material.SearchFilter) squirrel.SelectBuilder {
	q := r.baseSelect().
		Where(squirrel.Eq{"deletion_mark": false}).
		Where(squirrel.Eq{"is_active": true})

	if f.Query != "" {
		pattern := "%" + f.Query + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"name": pattern},
			squirrel.ILike{"code": pattern},
		})
	}

	if len(f.CategoryIDs) > 0 {
		q = q.Where(squirrel.Eq{"category_id": f.CategoryIDs})
	}
	if len(f.SubCategoryIDs) > 0 {
		q = q.Where(squirrel.Eq{"sub_category_id": f.SubCategoryIDs})
	}

	// A material is a candidate when the warehouse is its default home,
	// when it has no home, or when it already has ledger presence there.
	// Goods found on a shelf they were never booked into must still be
	// addable to a count.
	q = q.Where(squirrel.Or{
		squirrel.Eq{"default_warehouse_id": nil},
		squirrel.Eq{"default_warehouse_id": f.WarehouseID},
		squirrel.Expr(
			"EXISTS (SELECT 1 FROM reg_material_stock ms WHERE ms.material_id = cat_materials.id AND ms.warehouse_id = ?)",
			f.WarehouseID,
		),
	})

	return q.OrderBy("name").Limit(uint64(f.Limit))
}

// SearchForCount returns active materials matching the filter, scoped to
// the warehouse being counted.
func (r *MaterialRepo) SearchForCount(ctx context.Context, f material.SearchFilter) ([]*material.Material, error) {
	sql, args, err := r.countSearchQuery(f).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build search query: %w", err)
	}

	var materials []*material.Material
	if err := pgxscan.Select(ctx, r.querier(ctx), &materials, sql, args...); err != nil {
		return nil, fmt.Errorf("search for count: %w", err)
	}

	return materials, nil
}

// GetAverageCost returns the material's weighted average cost.
func (r *MaterialRepo) GetAverageCost(ctx context.Context, materialID id.ID) (types.Money, error) {
	sql := "SELECT average_cost FROM cat_materials WHERE id = $1"

	var cost types.Money
	err := r.querier(ctx).QueryRow(ctx, sql, materialID).Scan(&cost)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.ZeroMoney(), apperror.NewNotFound(materialsTable, materialID.String())
		}
		return types.ZeroMoney(), fmt.Errorf("get average cost: %w", err)
	}

	return cost, nil
}

// GetConsumptionUnit returns the unit the material's costs are kept in.
func (r *MaterialRepo) GetConsumptionUnit(ctx context.Context, materialID id.ID) (id.ID, error) {
	sql := "SELECT consumption_unit_id FROM cat_materials WHERE id = $1"

	var unitID id.ID
	err := r.querier(ctx).QueryRow(ctx, sql, materialID).Scan(&unitID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return id.Nil(), apperror.NewNotFound(materialsTable, materialID.String())
		}
		return id.Nil(), fmt.Errorf("get consumption unit: %w", err)
	}

	return unitID, nil
}

// UpdateAverageCost writes the material's average cost without touching the
// version. Cost rollups must not conflict with concurrent catalog edits.
func (r *MaterialRepo) UpdateAverageCost(ctx context.Context, materialID id.ID, cost types.Money) error {
	sql := "UPDATE cat_materials SET average_cost = $1, updated_at = NOW() WHERE id = $2"

	result, err := r.querier(ctx).Exec(ctx, sql, cost, materialID)
	if err != nil {
		return fmt.Errorf("update average cost: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(materialsTable, materialID.String())
	}

	return nil
}

var (
	_ domain.CatalogRepository[*material.Material] = (*MaterialRepo)(nil)
	_ recipes.MaterialCosts                        = (*MaterialRepo)(nil)
)
