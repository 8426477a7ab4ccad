package catalog_repo

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"

	"mesa/internal/domain"
	"mesa/internal/domain/catalogs/warehouse"
	"mesa/internal/infrastructure/storage/postgres"
)

const warehousesTable = "cat_warehouses"

// WarehouseRepo implements the warehouse catalog repository.
type WarehouseRepo struct {
	*BaseCatalogRepo[*warehouse.Warehouse]
}

// NewWarehouseRepo creates a new warehouse repository.
func NewWarehouseRepo(txManager *postgres.TxManager) *WarehouseRepo {
	return &WarehouseRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txManager,
			warehousesTable,
			postgres.ExtractDBColumns[warehouse.Warehouse](),
			func() *warehouse.Warehouse { return &warehouse.Warehouse{} },
		),
	}
}

// GetDefault returns the default warehouse, if one is configured.
func (r *WarehouseRepo) GetDefault(ctx context.Context) (*warehouse.Warehouse, error) {
	q := r.baseSelect().
		Where("is_default = TRUE").
		Where("deletion_mark = FALSE").
		Limit(1)

	return r.FindOne(ctx, q)
}

// ListActive returns active warehouses ordered by name.
func (r *WarehouseRepo) ListActive(ctx context.Context) ([]*warehouse.Warehouse, error) {
	q := r.baseSelect().
		Where("is_active = TRUE").
		Where("deletion_mark = FALSE").
		OrderBy("name")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var warehouses []*warehouse.Warehouse
	if err := pgxscan.Select(ctx, r.querier(ctx), &warehouses, sql, args...); err != nil {
		return nil, fmt.Errorf("list active: %w", err)
	}

	return warehouses, nil
}

var _ domain.CatalogRepository[*warehouse.Warehouse] = (*WarehouseRepo)(nil)
