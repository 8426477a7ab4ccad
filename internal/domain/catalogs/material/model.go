// Package material provides the Material catalog: trackable inventory goods
// (ingredients, packaging, consumables) used by the kitchen and bar.
package material

import (
	"context"

	"mesa/internal/core/apperror"
	"mesa/internal/core/entity"
	"mesa/internal/core/id"
	"mesa/internal/core/types"
)

// Material represents a trackable inventory good.
type Material struct {
	entity.Catalog

	// CategoryID groups materials (produce, dairy, dry goods, ...)
	CategoryID *id.ID `db:"category_id" json:"categoryId,omitempty"`

	// SubCategoryID is an optional finer grouping
	SubCategoryID *id.ID `db:"sub_category_id" json:"subCategoryId,omitempty"`

	// DefaultWarehouseID is where the material is normally stocked
	DefaultWarehouseID *id.ID `db:"default_warehouse_id" json:"defaultWarehouseId,omitempty"`

	// ConsumptionUnitID is the unit recipes consume the material in
	ConsumptionUnitID id.ID `db:"consumption_unit_id" json:"consumptionUnitId"`

	// PurchaseUnitID is the unit suppliers deliver the material in
	PurchaseUnitID id.ID `db:"purchase_unit_id" json:"purchaseUnitId"`

	// Stock thresholds in the consumption unit
	MinStockLevel types.Quantity `db:"min_stock_level" json:"minStockLevel"`
	MaxStockLevel types.Quantity `db:"max_stock_level" json:"maxStockLevel"`

	// AverageCost is the weighted average cost per consumption unit
	AverageCost types.Money `db:"average_cost" json:"averageCost"`

	// LastPurchasePrice is the most recent purchase price per purchase unit
	LastPurchasePrice types.Money `db:"last_purchase_price" json:"lastPurchasePrice"`

	// IsActive indicates the material can be used on new documents
	IsActive bool `db:"is_active" json:"isActive"`

	Description *string `db:"description" json:"description,omitempty"`
}

// NewMaterial creates a new Material with required fields.
func NewMaterial(code, name string, consumptionUnitID, purchaseUnitID id.ID) *Material {
	return &Material{
		Catalog:           entity.NewCatalog(code, name),
		ConsumptionUnitID: consumptionUnitID,
		PurchaseUnitID:    purchaseUnitID,
		IsActive:          true,
	}
}

// Validate implements entity.Validatable interface.
func (m *Material) Validate(ctx context.Context) error {
	if err := m.Catalog.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(m.ConsumptionUnitID) {
		return apperror.NewValidation("consumption unit is required").
			WithDetail("field", "consumptionUnitId")
	}

	if id.IsNil(m.PurchaseUnitID) {
		return apperror.NewValidation("purchase unit is required").
			WithDetail("field", "purchaseUnitId")
	}

	if m.MinStockLevel.IsNegative() {
		return apperror.NewValidation("minimum stock level cannot be negative").
			WithDetail("field", "minStockLevel")
	}

	if !m.MaxStockLevel.IsZero() && m.MaxStockLevel < m.MinStockLevel {
		return apperror.NewValidation("maximum stock level must be at or above minimum").
			WithDetail("field", "maxStockLevel")
	}

	return nil
}

// IsBelowMinimum reports whether the given live stock is under the
// material's minimum threshold. Low-stock detection deliberately uses the
// live MaterialStock snapshot, never a historical reconstruction.
func (m *Material) IsBelowMinimum(currentStock types.Quantity) bool {
	return m.MinStockLevel.IsPositive() && currentStock < m.MinStockLevel
}

// StockUrgency classifies how urgently a material needs restocking.
type StockUrgency string

const (
	UrgencyCritical StockUrgency = "critical" // at or below zero
	UrgencyLow      StockUrgency = "low"      // below minimum
	UrgencyNormal   StockUrgency = "normal"
)

// Urgency classifies the given live stock level against the thresholds.
func (m *Material) Urgency(currentStock types.Quantity) StockUrgency {
	switch {
	case !currentStock.IsPositive():
		return UrgencyCritical
	case m.IsBelowMinimum(currentStock):
		return UrgencyLow
	default:
		return UrgencyNormal
	}
}
