package material

import (
	"context"
	"strings"

	"mesa/internal/core/apperror"
	"mesa/internal/core/id"
)

// DefaultSearchLimit caps candidate lists when the caller does not set one.
const DefaultSearchLimit = 50

// SearchFilter narrows down candidate materials for a warehouse, typically
// when adding lines to a stock count. Query matches name or code, categories
// and sub-categories are ORed within themselves and ANDed together.
type SearchFilter struct {
	WarehouseID    id.ID
	Query          string
	CategoryIDs    []id.ID
	SubCategoryIDs []id.ID
	Limit          int
}

// Normalize trims the query and applies the default limit.
func (f *SearchFilter) Normalize() {
	f.Query = strings.TrimSpace(f.Query)
	if f.Limit <= 0 || f.Limit > DefaultSearchLimit {
		f.Limit = DefaultSearchLimit
	}
}

// Validate checks the filter before it reaches the repository.
func (f *SearchFilter) Validate(ctx context.Context) error {
	if id.IsNil(f.WarehouseID) {
		return apperror.NewValidation("warehouse is required").
			WithDetail("field", "warehouseId")
	}
	return nil
}
