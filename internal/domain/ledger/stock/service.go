package stock

import (
	"context"
	"fmt"
	"time"

	"mesa/internal/core/apperror"
	"mesa/internal/core/entity"
	"mesa/internal/core/id"
	"mesa/internal/core/tx"
	"mesa/internal/core/types"
	"mesa/pkg/logger"
)

// WarehouseChecker reports whether a warehouse exists. The warehouse
// catalog repository satisfies it.
type WarehouseChecker interface {
	Exists(ctx context.Context, warehouseID id.ID) (bool, error)
}

// Service provides business operations for the stock ledger.
type Service struct {
	repo       Repository
	warehouses WarehouseChecker
	txm        tx.Manager
}

// NewService creates a new stock ledger service. A nil warehouse checker
// disables catalog lookups on reconstruction.
func NewService(repo Repository, warehouses WarehouseChecker, txm tx.Manager) *Service {
	return &Service{
		repo:       repo,
		warehouses: warehouses,
		txm:        txm,
	}
}

// RecordOptions control movement posting behavior.
type RecordOptions struct {
	// AllowNegative skips the availability check for outbound movements.
	// Set from the warehouse's AllowNegativeStock flag by the caller.
	AllowNegative bool
}

// RecordMovements posts ledger entries and maintains the balance cache.
//
// Each movement gets its StockBefore/StockAfter snapshots filled from the
// locked balance row, costs resolved against the weighted average, and the
// cached balance updated. Runs in a single transaction (nested calls reuse
// the caller's transaction).
func (s *Service) RecordMovements(ctx context.Context, movements []entity.StockMovement, opts RecordOptions) ([]entity.StockMovement, error) {
	if len(movements) == 0 {
		return nil, nil
	}

	for i, m := range movements {
		if !m.Type.IsValid() {
			return nil, apperror.NewValidation(fmt.Sprintf("movement %d: unknown movement type %q", i, m.Type))
		}
		if !m.Quantity.IsPositive() {
			return nil, apperror.NewValidation(fmt.Sprintf("movement %d: quantity must be positive", i))
		}
		if id.IsNil(m.MaterialID) {
			return nil, apperror.NewValidation(fmt.Sprintf("movement %d: material_id is required", i))
		}
		if id.IsNil(m.WarehouseID) {
			return nil, apperror.NewValidation(fmt.Sprintf("movement %d: warehouse_id is required", i))
		}
	}

	prepared := make([]entity.StockMovement, 0, len(movements))

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		for _, m := range movements {
			balance, err := s.lockOrInitBalance(ctx, m.MaterialID, m.WarehouseID)
			if err != nil {
				return err
			}

			if m.Type.Direction() < 0 && !opts.AllowNegative {
				if balance.CurrentStock < m.Quantity {
					return apperror.NewInsufficientStock(
						m.MaterialID.String(),
						m.Quantity.Float64(),
						balance.CurrentStock.Float64(),
					)
				}
			}

			m.StockBefore = balance.CurrentStock
			m.StockAfter = balance.CurrentStock + m.SignedQuantity()

			if m.Type.Direction() > 0 {
				if m.UnitCost.IsPositive() {
					balance.AverageCost = weightedAverageCost(
						balance.CurrentStock, balance.AverageCost,
						m.Quantity, m.UnitCost,
					)
				} else {
					m.UnitCost = balance.AverageCost
				}
			} else {
				// Outbound entries are valued at the running average
				m.UnitCost = balance.AverageCost
			}
			m.TotalCost = m.Quantity.Decimal().Mul(m.UnitCost).Round(4)

			balance.CurrentStock = m.StockAfter
			balance.AvailableStock = balance.CurrentStock - balance.ReservedStock
			balance.LastUpdated = time.Now().UTC()

			if err := s.repo.UpsertBalance(ctx, balance); err != nil {
				return fmt.Errorf("upsert balance: %w", err)
			}

			prepared = append(prepared, m)
		}

		if err := s.repo.CreateMovements(ctx, prepared); err != nil {
			return fmt.Errorf("create movements: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "recorded stock movements",
		"count", len(prepared),
		"warehouse_id", prepared[0].WarehouseID,
	)

	return prepared, nil
}

// ApplyCountAdjustment reconciles the live balance of a material to the
// counted quantity. Posts a single adjustment movement whose snapshots span
// live to counted and sets the cached balance absolutely, so concurrent
// movements posted after the count started are superseded (last count wins).
//
// Returns nil movement when the counted quantity already matches the live
// balance. Must be called inside the approval transaction.
func (s *Service) ApplyCountAdjustment(
	ctx context.Context,
	materialID, warehouseID id.ID,
	counted types.Quantity,
	userID, reason string,
) (*entity.StockMovement, error) {
	if counted.IsNegative() {
		return nil, apperror.NewValidation("counted quantity cannot be negative")
	}

	balance, err := s.lockOrInitBalance(ctx, materialID, warehouseID)
	if err != nil {
		return nil, err
	}

	diff := counted - balance.CurrentStock
	if diff.IsZero() {
		return nil, nil
	}

	movementType := entity.MovementAdjustmentIn
	if diff.IsNegative() {
		movementType = entity.MovementAdjustmentOut
	}

	m := entity.NewStockMovement(materialID, warehouseID, movementType, diff.Abs(), time.Now().UTC())
	m.UserID = userID
	m.Reason = reason
	m.StockBefore = balance.CurrentStock
	m.StockAfter = counted
	m.UnitCost = balance.AverageCost
	m.TotalCost = diff.Abs().Decimal().Mul(balance.AverageCost).Round(4)

	balance.CurrentStock = counted
	balance.AvailableStock = balance.CurrentStock - balance.ReservedStock
	balance.LastUpdated = time.Now().UTC()

	if err := s.repo.UpsertBalance(ctx, balance); err != nil {
		return nil, fmt.Errorf("upsert balance: %w", err)
	}
	if err := s.repo.CreateMovements(ctx, []entity.StockMovement{m}); err != nil {
		return nil, fmt.Errorf("create adjustment movement: %w", err)
	}

	return &m, nil
}

// GetBalance returns the current cached balance for material+warehouse.
// A missing row reads as zero stock.
func (s *Service) GetBalance(ctx context.Context, materialID, warehouseID id.ID) (entity.MaterialStock, error) {
	balance, err := s.repo.GetBalance(ctx, materialID, warehouseID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return zeroBalance(materialID, warehouseID), nil
		}
		return entity.MaterialStock{}, fmt.Errorf("get balance: %w", err)
	}
	return balance, nil
}

// GetMaterialAvailability returns available quantity across warehouses.
func (s *Service) GetMaterialAvailability(ctx context.Context, materialID id.ID) (types.Quantity, error) {
	balances, err := s.repo.GetBalancesByMaterial(ctx, materialID)
	if err != nil {
		return 0, fmt.Errorf("get balances: %w", err)
	}

	var total types.Quantity
	for _, b := range balances {
		total += b.AvailableStock
	}

	return total, nil
}

// GetWarehouseStock returns all materials with stock in a warehouse.
func (s *Service) GetWarehouseStock(ctx context.Context, warehouseID id.ID) ([]entity.MaterialStock, error) {
	return s.repo.GetBalancesByWarehouse(ctx, warehouseID, BalanceFilter{
		ExcludeZero: true,
	})
}

// GetMovementHistory returns the ledger history for a material.
func (s *Service) GetMovementHistory(ctx context.Context, materialID id.ID, filter MovementFilter) ([]entity.StockMovement, error) {
	return s.repo.GetMovementHistory(ctx, materialID, filter)
}

// GetStockReport generates a turnover report for the period.
func (s *Service) GetStockReport(ctx context.Context, filter TurnoverFilter) (Turnover, error) {
	return s.repo.GetTurnover(ctx, filter)
}

// RecalculateBalances rebuilds the balance cache from the ledger.
func (s *Service) RecalculateBalances(ctx context.Context, warehouseID, materialID *id.ID) error {
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.RecalculateBalances(ctx, warehouseID, materialID); err != nil {
			return fmt.Errorf("recalculate balances: %w", err)
		}
		return nil
	})
}

func (s *Service) lockOrInitBalance(ctx context.Context, materialID, warehouseID id.ID) (entity.MaterialStock, error) {
	balance, err := s.repo.GetBalanceForUpdate(ctx, materialID, warehouseID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return zeroBalance(materialID, warehouseID), nil
		}
		return entity.MaterialStock{}, fmt.Errorf("lock balance: %w", err)
	}
	return balance, nil
}

func zeroBalance(materialID, warehouseID id.ID) entity.MaterialStock {
	return entity.MaterialStock{
		MaterialID:  materialID,
		WarehouseID: warehouseID,
		AverageCost: types.ZeroMoney(),
		LastUpdated: time.Now().UTC(),
	}
}

// weightedAverageCost blends the incoming lot into the running average:
//
//	((stock * avgCost) + (inQty * inCost)) / (stock + inQty)
//
// Negative or zero on-hand stock resets the average to the incoming cost.
func weightedAverageCost(stock types.Quantity, avgCost types.Money, inQty types.Quantity, inCost types.Money) types.Money {
	if !stock.IsPositive() {
		return inCost
	}

	total := stock + inQty
	if total.IsZero() {
		return inCost
	}

	currentValue := stock.Decimal().Mul(avgCost)
	incomingValue := inQty.Decimal().Mul(inCost)

	return currentValue.Add(incomingValue).
		DivRound(total.Decimal(), 6)
}
