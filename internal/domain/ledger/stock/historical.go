package stock

import (
	"context"
	"fmt"
	"sort"
	"time"

	"mesa/internal/core/apperror"
	"mesa/internal/core/id"
	"mesa/internal/core/types"
	"mesa/pkg/logger"
)

// HistoricalStock is the reconstructed on-hand quantity of one material in
// one warehouse as of a cutoff instant.
type HistoricalStock struct {
	MaterialID  id.ID `json:"materialId"`
	WarehouseID id.ID `json:"warehouseId"`

	// Stock is the reconstructed quantity, clamped to zero
	Stock types.Quantity `json:"stock"`

	// PreClampStock is the raw signed fold result. Kept for diagnostics:
	// a negative value means the ledger itself went below zero before
	// the cutoff (over-consumption or missing receipts).
	PreClampStock types.Quantity `json:"preClampStock"`

	// Clamped is true when PreClampStock was negative
	Clamped bool `json:"clamped"`

	// MovementCount is how many ledger entries contributed
	MovementCount int `json:"movementCount"`

	// LastMovementAt is the effective date of the newest contributing entry
	LastMovementAt *time.Time `json:"lastMovementAt,omitempty"`
}

// CalculateStockAtTime reconstructs the stock of every material that had at
// least one movement in the warehouse up to the cutoff.
//
// The reconstruction replays the ledger instead of trusting any cached
// running totals: one batch query fetches all movements with effective
// date <= cutoff, entries are grouped per material in memory, and each
// group's signed quantities are folded from zero. This makes the result
// independent of when the calculation runs; only the movements' effective
// dates matter.
func (s *Service) CalculateStockAtTime(ctx context.Context, warehouseID id.ID, cutoff time.Time) ([]HistoricalStock, error) {
	if err := validateCutoff(warehouseID, cutoff); err != nil {
		return nil, err
	}
	if err := s.checkWarehouse(ctx, warehouseID); err != nil {
		return nil, err
	}

	movements, err := s.repo.GetMovementsByWarehouseUntil(ctx, warehouseID, cutoff)
	if err != nil {
		return nil, fmt.Errorf("fetch movements until cutoff: %w", err)
	}

	byMaterial := make(map[id.ID]*HistoricalStock)
	for _, m := range movements {
		hs, ok := byMaterial[m.MaterialID]
		if !ok {
			hs = &HistoricalStock{
				MaterialID:  m.MaterialID,
				WarehouseID: warehouseID,
			}
			byMaterial[m.MaterialID] = hs
		}

		hs.PreClampStock += m.SignedQuantity()
		hs.MovementCount++

		d := m.Date
		if hs.LastMovementAt == nil || d.After(*hs.LastMovementAt) {
			hs.LastMovementAt = &d
		}
	}

	result := make([]HistoricalStock, 0, len(byMaterial))
	for _, hs := range byMaterial {
		hs.Stock = hs.PreClampStock
		if hs.PreClampStock.IsNegative() {
			hs.Stock = 0
			hs.Clamped = true
		}
		result = append(result, *hs)
	}

	// Deterministic output order for callers and tests
	sort.Slice(result, func(i, j int) bool {
		return result[i].MaterialID.String() < result[j].MaterialID.String()
	})

	logger.Debug(ctx, "reconstructed historical stock",
		"warehouse_id", warehouseID,
		"cutoff", cutoff,
		"materials", len(result),
		"movements", len(movements),
	)

	return result, nil
}

// CalculateMaterialStockAtTime reconstructs one material's stock as of the
// cutoff. A material with no movements up to the cutoff reads as zero.
func (s *Service) CalculateMaterialStockAtTime(ctx context.Context, materialID, warehouseID id.ID, cutoff time.Time) (HistoricalStock, error) {
	if err := validateCutoff(warehouseID, cutoff); err != nil {
		return HistoricalStock{}, err
	}
	if err := s.checkWarehouse(ctx, warehouseID); err != nil {
		return HistoricalStock{}, err
	}
	if id.IsNil(materialID) {
		return HistoricalStock{}, apperror.NewValidation("material_id is required")
	}

	movements, err := s.repo.GetMovementsUntil(ctx, materialID, warehouseID, cutoff)
	if err != nil {
		return HistoricalStock{}, fmt.Errorf("fetch movements until cutoff: %w", err)
	}

	hs := HistoricalStock{
		MaterialID:  materialID,
		WarehouseID: warehouseID,
	}
	for _, m := range movements {
		hs.PreClampStock += m.SignedQuantity()
		hs.MovementCount++

		d := m.Date
		if hs.LastMovementAt == nil || d.After(*hs.LastMovementAt) {
			hs.LastMovementAt = &d
		}
	}

	hs.Stock = hs.PreClampStock
	if hs.PreClampStock.IsNegative() {
		hs.Stock = 0
		hs.Clamped = true
	}

	return hs, nil
}

// checkWarehouse rejects reconstruction against a warehouse that is not in
// the catalog. A nil checker skips the lookup.
func (s *Service) checkWarehouse(ctx context.Context, warehouseID id.ID) error {
	if s.warehouses == nil {
		return nil
	}

	exists, err := s.warehouses.Exists(ctx, warehouseID)
	if err != nil {
		return fmt.Errorf("check warehouse: %w", err)
	}
	if !exists {
		return apperror.NewValidation("unknown warehouse").
			WithDetail("warehouseId", warehouseID)
	}
	return nil
}

func validateCutoff(warehouseID id.ID, cutoff time.Time) error {
	if id.IsNil(warehouseID) {
		return apperror.NewValidation("warehouse_id is required")
	}
	if cutoff.IsZero() {
		return apperror.NewValidation("cutoff datetime is required")
	}
	if cutoff.After(time.Now()) {
		return apperror.NewValidation("cutoff datetime cannot be in the future").
			WithDetail("cutoff", cutoff.Format(time.RFC3339))
	}
	return nil
}
