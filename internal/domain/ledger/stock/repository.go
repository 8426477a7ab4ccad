// Package stock provides the stock ledger: the append-only movement
// register and the cached per-warehouse material balances derived from it.
package stock

import (
	"context"
	"time"

	"mesa/internal/core/entity"
	"mesa/internal/core/id"
	"mesa/internal/core/types"
)

// Repository defines operations for the stock ledger.
type Repository interface {
	// Movement operations

	// CreateMovements batch inserts ledger entries. Entries are immutable
	// once written; corrections go in as new adjustment movements.
	CreateMovements(ctx context.Context, movements []entity.StockMovement) error

	// GetMovementsByWarehouseUntil retrieves every movement for a warehouse
	// with effective date <= cutoff, ordered by (date, created_at, line_id).
	// Single batch query feeding historical reconstruction.
	GetMovementsByWarehouseUntil(ctx context.Context, warehouseID id.ID, cutoff time.Time) ([]entity.StockMovement, error)

	// GetMovementsUntil retrieves movements for one material in a warehouse
	// with effective date <= cutoff, same ordering.
	GetMovementsUntil(ctx context.Context, materialID, warehouseID id.ID, cutoff time.Time) ([]entity.StockMovement, error)

	// GetMovementHistory returns movement history for a material
	GetMovementHistory(ctx context.Context, materialID id.ID, filter MovementFilter) ([]entity.StockMovement, error)

	// Balance operations

	// GetBalance returns current balance for material+warehouse
	GetBalance(ctx context.Context, materialID, warehouseID id.ID) (entity.MaterialStock, error)

	// GetBalanceForUpdate returns balance with row lock for stock control
	GetBalanceForUpdate(ctx context.Context, materialID, warehouseID id.ID) (entity.MaterialStock, error)

	// GetBalancesByWarehouse returns balances for a warehouse
	GetBalancesByWarehouse(ctx context.Context, warehouseID id.ID, filter BalanceFilter) ([]entity.MaterialStock, error)

	// GetBalancesByMaterial returns balances across all warehouses for a material
	GetBalancesByMaterial(ctx context.Context, materialID id.ID) ([]entity.MaterialStock, error)

	// UpsertBalance writes the cached balance row for the movement's pair
	UpsertBalance(ctx context.Context, balance entity.MaterialStock) error

	// Reporting

	// GetTurnover calculates receipt and expense totals for period
	GetTurnover(ctx context.Context, filter TurnoverFilter) (Turnover, error)

	// Maintenance

	// RecalculateBalances rebuilds the balance cache from movements.
	// Nil filters rebuild everything.
	RecalculateBalances(ctx context.Context, warehouseID, materialID *id.ID) error
}

// BalanceFilter for filtering balance queries.
type BalanceFilter struct {
	MaterialIDs []id.ID
	ExcludeZero bool
	MinQuantity *types.Quantity
	MaxQuantity *types.Quantity
}

// MovementFilter for filtering movement history.
type MovementFilter struct {
	WarehouseID *id.ID
	Type        *entity.MovementType
	FromDate    *time.Time
	ToDate      *time.Time
	Limit       int
	Offset      int
}

// TurnoverFilter for turnover reports.
type TurnoverFilter struct {
	WarehouseID *id.ID
	MaterialID  *id.ID
	FromDate    time.Time
	ToDate      time.Time
}

// Turnover represents receipt/expense totals.
type Turnover struct {
	WarehouseID    id.ID          `json:"warehouseId,omitempty"`
	MaterialID     id.ID          `json:"materialId,omitempty"`
	OpeningBalance types.Quantity `json:"openingBalance"`
	Receipt        types.Quantity `json:"receipt"`
	Expense        types.Quantity `json:"expense"`
	ClosingBalance types.Quantity `json:"closingBalance"`
}
