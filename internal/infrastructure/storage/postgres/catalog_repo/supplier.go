package catalog_repo

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"

	"mesa/internal/domain"
	"mesa/internal/domain/catalogs/supplier"
	"mesa/internal/infrastructure/storage/postgres"
)

const suppliersTable = "cat_suppliers"

// SupplierRepo implements the supplier catalog repository.
type SupplierRepo struct {
	*BaseCatalogRepo[*supplier.Supplier]
}

// NewSupplierRepo creates a new supplier repository.
func NewSupplierRepo(txManager *postgres.TxManager) *SupplierRepo {
	return &SupplierRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txManager,
			suppliersTable,
			postgres.ExtractDBColumns[supplier.Supplier](),
			func() *supplier.Supplier { return &supplier.Supplier{} },
		),
	}
}

// ListActive returns active suppliers ordered by name.
func (r *SupplierRepo) ListActive(ctx context.Context) ([]*supplier.Supplier, error) {
	q := r.baseSelect().
		Where("is_active = TRUE").
		Where("deletion_mark = FALSE").
		OrderBy("name")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var suppliers []*supplier.Supplier
	if err := pgxscan.Select(ctx, r.querier(ctx), &suppliers, sql, args...); err != nil {
		return nil, fmt.Errorf("list active: %w", err)
	}

	return suppliers, nil
}

var _ domain.CatalogRepository[*supplier.Supplier] = (*SupplierRepo)(nil)
