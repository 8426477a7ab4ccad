package stockcount

import (
	"context"
	"time"

	"mesa/internal/core/id"
	"mesa/internal/domain"
)

// Repository defines operations for stock count documents.
type Repository interface {
	Create(ctx context.Context, doc *StockCount) error
	GetByID(ctx context.Context, docID id.ID) (*StockCount, error)
	GetForUpdate(ctx context.Context, docID id.ID) (*StockCount, error)
	Update(ctx context.Context, doc *StockCount) error
	Delete(ctx context.Context, docID id.ID) error

	GetItems(ctx context.Context, docID id.ID) ([]Item, error)
	SaveItems(ctx context.Context, docID id.ID, items []Item) error

	// ExistsActiveForWarehouse reports whether an unfinished count already
	// holds the warehouse
	ExistsActiveForWarehouse(ctx context.Context, warehouseID id.ID) (bool, error)

	CreateAdjustments(ctx context.Context, adjustments []Adjustment) error
	GetAdjustments(ctx context.Context, docID id.ID) ([]Adjustment, error)

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*StockCount], error)
}

// ListFilter for filtering stock counts.
type ListFilter struct {
	domain.ListFilter

	WarehouseID *id.ID
	Status      *Status
	DateFrom    *time.Time
	DateTo      *time.Time
}
