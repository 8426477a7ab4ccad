package entity

import (
	"time"

	"mesa/internal/core/id"
	"mesa/internal/core/types"
)

// MovementType classifies a stock ledger entry and fixes its direction.
type MovementType string

const (
	// Inbound movements (increase stock)
	MovementPurchase     MovementType = "purchase"
	MovementTransferIn   MovementType = "transfer_in"
	MovementProduction   MovementType = "production"
	MovementAdjustmentIn MovementType = "adjustment_in"

	// Outbound movements (decrease stock)
	MovementConsumption   MovementType = "consumption"
	MovementTransferOut   MovementType = "transfer_out"
	MovementWaste         MovementType = "waste"
	MovementAdjustmentOut MovementType = "adjustment_out"
)

// Direction returns +1 for inbound movement types, -1 for outbound.
func (t MovementType) Direction() int {
	switch t {
	case MovementPurchase, MovementTransferIn, MovementProduction, MovementAdjustmentIn:
		return 1
	default:
		return -1
	}
}

// IsValid reports whether t is a known movement type.
func (t MovementType) IsValid() bool {
	switch t {
	case MovementPurchase, MovementTransferIn, MovementProduction, MovementAdjustmentIn,
		MovementConsumption, MovementTransferOut, MovementWaste, MovementAdjustmentOut:
		return true
	}
	return false
}

// StockMovement is an immutable entry in the stock ledger.
// Movements are never updated or deleted; corrections are posted as new
// adjustment movements. For a fixed (material, warehouse) the entries ordered
// by Date form a valid prefix-sum ledger:
//
//	StockAfter[i]    == StockBefore[i] + SignedQuantity[i]
//	StockBefore[i+1] == StockAfter[i]
type StockMovement struct {
	// LineID is unique identifier for this ledger line (UUIDv7)
	LineID id.ID `db:"line_id" json:"lineId"`

	// Dimensions
	MaterialID  id.ID `db:"material_id" json:"materialId"`
	WarehouseID id.ID `db:"warehouse_id" json:"warehouseId"`

	// UnitID is the unit the quantity is expressed in (material consumption unit)
	UnitID *id.ID `db:"unit_id" json:"unitId,omitempty"`

	// UserID is who posted the movement
	UserID string `db:"user_id" json:"userId,omitempty"`

	// Type fixes the direction; Quantity is always a positive magnitude
	Type     MovementType   `db:"type" json:"type"`
	Quantity types.Quantity `db:"quantity" json:"quantity"`

	// Costs in the consumption unit
	UnitCost  types.Money `db:"unit_cost" json:"unitCost"`
	TotalCost types.Money `db:"total_cost" json:"totalCost"`

	// Running-stock snapshots taken when the entry was applied
	StockBefore types.Quantity `db:"stock_before" json:"stockBefore"`
	StockAfter  types.Quantity `db:"stock_after" json:"stockAfter"`

	// Date is the effective ledger timestamp (may differ from CreatedAt
	// for backdated postings)
	Date time.Time `db:"date" json:"date"`

	Reason string `db:"reason" json:"reason,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewStockMovement creates a new stock movement with generated LineID.
func NewStockMovement(
	materialID, warehouseID id.ID,
	movementType MovementType,
	quantity types.Quantity,
	date time.Time,
) StockMovement {
	return StockMovement{
		LineID:      id.New(),
		MaterialID:  materialID,
		WarehouseID: warehouseID,
		Type:        movementType,
		Quantity:    quantity,
		Date:        date,
		CreatedAt:   time.Now().UTC(),
	}
}

// SignedQuantity returns the quantity with sign derived from the type.
func (m *StockMovement) SignedQuantity() types.Quantity {
	if m.Type.Direction() < 0 {
		return m.Quantity.Neg()
	}
	return m.Quantity
}

// MaterialStock is the current on-hand snapshot for a (material, warehouse)
// pair. At most one row exists per pair (composite-unique). It is a cache of
// the ledger's running total and must always be re-derivable by summing all
// stock movements for the pair.
type MaterialStock struct {
	// Dimensions
	MaterialID  id.ID `db:"material_id" json:"materialId"`
	WarehouseID id.ID `db:"warehouse_id" json:"warehouseId"`

	// Quantities
	CurrentStock   types.Quantity `db:"current_stock" json:"currentStock"`
	ReservedStock  types.Quantity `db:"reserved_stock" json:"reservedStock"`
	AvailableStock types.Quantity `db:"available_stock" json:"availableStock"`

	// AverageCost is the weighted average cost per consumption unit
	AverageCost types.Money `db:"average_cost" json:"averageCost"`

	LastUpdated time.Time `db:"last_updated" json:"lastUpdated"`
}
