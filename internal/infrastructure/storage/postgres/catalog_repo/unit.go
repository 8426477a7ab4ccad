package catalog_repo

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"

	"mesa/internal/domain"
	"mesa/internal/domain/catalogs/unit"
	"mesa/internal/infrastructure/storage/postgres"
)

const unitsTable = "cat_units"

// UnitRepo implements the measurement unit catalog repository.
type UnitRepo struct {
	*BaseCatalogRepo[*unit.Unit]
}

// NewUnitRepo creates a new unit repository.
func NewUnitRepo(txManager *postgres.TxManager) *UnitRepo {
	return &UnitRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txManager,
			unitsTable,
			postgres.ExtractDBColumns[unit.Unit](),
			func() *unit.Unit { return &unit.Unit{} },
		),
	}
}

// ListByType returns units of one type, base unit first.
func (r *UnitRepo) ListByType(ctx context.Context, unitType unit.UnitType) ([]*unit.Unit, error) {
	q := r.baseSelect().
		Where("type = ?", unitType).
		Where("deletion_mark = FALSE").
		OrderBy("is_base DESC", "name")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var units []*unit.Unit
	if err := pgxscan.Select(ctx, r.querier(ctx), &units, sql, args...); err != nil {
		return nil, fmt.Errorf("list by type: %w", err)
	}

	return units, nil
}

var _ domain.CatalogRepository[*unit.Unit] = (*UnitRepo)(nil)
