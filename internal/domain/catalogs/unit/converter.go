package unit

import (
	"context"

	"github.com/shopspring/decimal"

	"mesa/internal/core/id"
	"mesa/internal/domain"
)

// Converter resolves units from the catalog and converts quantities
// between them. Recipe costing uses it to bring ingredient quantities
// into the unit material costs are kept in.
type Converter struct {
	repo domain.CatalogRepository[*Unit]
}

// NewConverter creates a converter backed by the unit catalog.
func NewConverter(repo domain.CatalogRepository[*Unit]) *Converter {
	return &Converter{repo: repo}
}

// Convert converts qty from one unit to another. Same-unit conversions
// skip the catalog round trip.
func (c *Converter) Convert(ctx context.Context, qty decimal.Decimal, fromID, toID id.ID) (decimal.Decimal, error) {
	if fromID == toID {
		return qty, nil
	}

	from, err := c.repo.GetByID(ctx, fromID)
	if err != nil {
		return decimal.Zero, err
	}
	to, err := c.repo.GetByID(ctx, toID)
	if err != nil {
		return decimal.Zero, err
	}

	return from.ConvertTo(qty, to)
}
