// Package register_repo provides PostgreSQL implementations for ledger
// repositories.
package register_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"mesa/internal/core/apperror"
	"mesa/internal/core/entity"
	"mesa/internal/core/id"
	"mesa/internal/core/types"
	"mesa/internal/domain/ledger/stock"
	"mesa/internal/infrastructure/storage/postgres"
)

const (
	stockMovementsTable = "reg_stock_movements"
	materialStockTable  = "reg_material_stock"
)

var movementColumns = []string{
	"line_id", "material_id", "warehouse_id", "unit_id", "user_id",
	"type", "quantity", "unit_cost", "total_cost",
	"stock_before", "stock_after", "date", "reason", "created_at",
}

var balanceColumns = []string{
	"material_id", "warehouse_id",
	"current_stock", "reserved_stock", "available_stock",
	"average_cost", "last_updated",
}

// inboundTypes mirrors entity.MovementType.Direction for SQL aggregation.
const inboundTypesSQL = "('purchase','transfer_in','production','adjustment_in')"

// StockRepo implements stock.Repository.
type StockRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewStockRepo creates a new stock ledger repository.
func NewStockRepo(txManager *postgres.TxManager) *StockRepo {
	return &StockRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// CreateMovements batch inserts ledger entries.
func (r *StockRepo) CreateMovements(ctx context.Context, movements []entity.StockMovement) error {
	if len(movements) == 0 {
		return nil
	}

	// COPY when inside a transaction, which is the normal path
	if tx := r.txManager.GetTx(ctx); tx != nil {
		inserter := postgres.NewBatchInserter(r.txManager)
		rows := make([][]any, 0, len(movements))
		for _, m := range movements {
			rows = append(rows, []any{
				m.LineID, m.MaterialID, m.WarehouseID, m.UnitID, m.UserID,
				m.Type, m.Quantity, m.UnitCost, m.TotalCost,
				m.StockBefore, m.StockAfter, m.Date, m.Reason, m.CreatedAt,
			})
		}
		if _, err := inserter.CopyFromSlice(ctx, stockMovementsTable, movementColumns, rows); err != nil {
			return fmt.Errorf("copy movements: %w", err)
		}
		return nil
	}

	q := r.builder.Insert(stockMovementsTable).Columns(movementColumns...)
	for _, m := range movements {
		q = q.Values(
			m.LineID, m.MaterialID, m.WarehouseID, m.UnitID, m.UserID,
			m.Type, m.Quantity, m.UnitCost, m.TotalCost,
			m.StockBefore, m.StockAfter, m.Date, m.Reason, m.CreatedAt,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert movements: %w", err)
	}

	return nil
}

// GetMovementsByWarehouseUntil fetches the warehouse's full ledger up to the
// cutoff in one query. Ordering matches the replay contract.
func (r *StockRepo) GetMovementsByWarehouseUntil(ctx context.Context, warehouseID id.ID, cutoff time.Time) ([]entity.StockMovement, error) {
	q := r.builder.Select(movementColumns...).
		From(stockMovementsTable).
		Where(squirrel.Eq{"warehouse_id": warehouseID}).
		Where(squirrel.LtOrEq{"date": cutoff}).
		OrderBy("date", "created_at", "line_id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var movements []entity.StockMovement
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("select movements: %w", err)
	}

	return movements, nil
}

// GetMovementsUntil fetches one material's ledger up to the cutoff.
func (r *StockRepo) GetMovementsUntil(ctx context.Context, materialID, warehouseID id.ID, cutoff time.Time) ([]entity.StockMovement, error) {
	q := r.builder.Select(movementColumns...).
		From(stockMovementsTable).
		Where(squirrel.Eq{
			"material_id":  materialID,
			"warehouse_id": warehouseID,
		}).
		Where(squirrel.LtOrEq{"date": cutoff}).
		OrderBy("date", "created_at", "line_id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var movements []entity.StockMovement
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("select movements: %w", err)
	}

	return movements, nil
}

// GetMovementHistory returns movement history for a material.
func (r *StockRepo) GetMovementHistory(ctx context.Context, materialID id.ID, filter stock.MovementFilter) ([]entity.StockMovement, error) {
	q := r.builder.Select(movementColumns...).
		From(stockMovementsTable).
		Where(squirrel.Eq{"material_id": materialID})

	if filter.WarehouseID != nil {
		q = q.Where(squirrel.Eq{"warehouse_id": *filter.WarehouseID})
	}
	if filter.Type != nil {
		q = q.Where(squirrel.Eq{"type": *filter.Type})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"date": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"date": *filter.ToDate})
	}

	q = q.OrderBy("date DESC", "created_at DESC")

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var movements []entity.StockMovement
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("select history: %w", err)
	}

	return movements, nil
}

// GetBalance returns current balance for material+warehouse.
func (r *StockRepo) GetBalance(ctx context.Context, materialID, warehouseID id.ID) (entity.MaterialStock, error) {
	var balance entity.MaterialStock

	q := r.builder.Select(balanceColumns...).
		From(materialStockTable).
		Where(squirrel.Eq{
			"material_id":  materialID,
			"warehouse_id": warehouseID,
		}).Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return balance, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &balance, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return balance, apperror.NewNotFound("material stock", materialID)
		}
		return balance, fmt.Errorf("get balance: %w", err)
	}

	return balance, nil
}

// GetBalanceForUpdate returns balance with pessimistic lock.
func (r *StockRepo) GetBalanceForUpdate(ctx context.Context, materialID, warehouseID id.ID) (entity.MaterialStock, error) {
	var balance entity.MaterialStock

	sql := `
		SELECT material_id, warehouse_id,
			   current_stock, reserved_stock, available_stock,
			   average_cost, last_updated
		FROM reg_material_stock
		WHERE material_id = $1 AND warehouse_id = $2
		FOR UPDATE
	`

	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &balance, sql, materialID, warehouseID); err != nil {
		if pgxscan.NotFound(err) {
			return balance, apperror.NewNotFound("material stock", materialID)
		}
		return balance, fmt.Errorf("get balance for update: %w", err)
	}

	return balance, nil
}

// GetBalancesByWarehouse returns balances for a warehouse.
func (r *StockRepo) GetBalancesByWarehouse(ctx context.Context, warehouseID id.ID, filter stock.BalanceFilter) ([]entity.MaterialStock, error) {
	q := r.builder.Select(balanceColumns...).
		From(materialStockTable).
		Where(squirrel.Eq{"warehouse_id": warehouseID})

	if filter.ExcludeZero {
		q = q.Where(squirrel.NotEq{"current_stock": int64(0)})
	}
	if len(filter.MaterialIDs) > 0 {
		q = q.Where(squirrel.Eq{"material_id": filter.MaterialIDs})
	}
	if filter.MinQuantity != nil {
		q = q.Where(squirrel.GtOrEq{"current_stock": filter.MinQuantity.Int64Scaled()})
	}
	if filter.MaxQuantity != nil {
		q = q.Where(squirrel.LtOrEq{"current_stock": filter.MaxQuantity.Int64Scaled()})
	}

	q = q.OrderBy("material_id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var balances []entity.MaterialStock
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &balances, sql, args...); err != nil {
		return nil, fmt.Errorf("select balances: %w", err)
	}

	return balances, nil
}

// GetBalancesByMaterial returns balances across warehouses.
func (r *StockRepo) GetBalancesByMaterial(ctx context.Context, materialID id.ID) ([]entity.MaterialStock, error) {
	q := r.builder.Select(balanceColumns...).
		From(materialStockTable).
		Where(squirrel.Eq{"material_id": materialID}).
		Where(squirrel.NotEq{"current_stock": int64(0)}).
		OrderBy("warehouse_id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var balances []entity.MaterialStock
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &balances, sql, args...); err != nil {
		return nil, fmt.Errorf("select balances: %w", err)
	}

	return balances, nil
}

// UpsertBalance writes the cached balance row.
func (r *StockRepo) UpsertBalance(ctx context.Context, balance entity.MaterialStock) error {
	sql := `
		INSERT INTO reg_material_stock (
			material_id, warehouse_id,
			current_stock, reserved_stock, available_stock,
			average_cost, last_updated
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (material_id, warehouse_id) DO UPDATE SET
			current_stock   = EXCLUDED.current_stock,
			reserved_stock  = EXCLUDED.reserved_stock,
			available_stock = EXCLUDED.available_stock,
			average_cost    = EXCLUDED.average_cost,
			last_updated    = EXCLUDED.last_updated
	`

	_, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql,
		balance.MaterialID, balance.WarehouseID,
		balance.CurrentStock, balance.ReservedStock, balance.AvailableStock,
		balance.AverageCost, balance.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("upsert balance: %w", err)
	}

	return nil
}

// GetTurnover calculates turnover for period.
func (r *StockRepo) GetTurnover(ctx context.Context, filter stock.TurnoverFilter) (stock.Turnover, error) {
	var result stock.Turnover

	args := []any{filter.FromDate, filter.ToDate}
	conditions := "date >= $1 AND date < $2"
	argIndex := 3

	if filter.WarehouseID != nil {
		conditions += fmt.Sprintf(" AND warehouse_id = $%d", argIndex)
		args = append(args, *filter.WarehouseID)
		result.WarehouseID = *filter.WarehouseID
		argIndex++
	}
	if filter.MaterialID != nil {
		conditions += fmt.Sprintf(" AND material_id = $%d", argIndex)
		args = append(args, *filter.MaterialID)
		result.MaterialID = *filter.MaterialID
	}

	sql := fmt.Sprintf(`
		SELECT
			COALESCE(SUM(CASE WHEN type IN %s THEN quantity ELSE 0 END), 0) AS receipt,
			COALESCE(SUM(CASE WHEN type NOT IN %s THEN quantity ELSE 0 END), 0) AS expense
		FROM reg_stock_movements
		WHERE %s
	`, inboundTypesSQL, inboundTypesSQL, conditions)

	querier := r.txManager.GetQuerier(ctx)
	var receiptScaled, expenseScaled int64
	err := querier.QueryRow(ctx, sql, args...).Scan(&receiptScaled, &expenseScaled)
	if err != nil && err != pgx.ErrNoRows {
		return result, fmt.Errorf("calculate turnover: %w", err)
	}
	result.Receipt = types.NewQuantityFromInt64Scaled(receiptScaled)
	result.Expense = types.NewQuantityFromInt64Scaled(expenseScaled)

	openingArgs := []any{filter.FromDate}
	openingConditions := "date < $1"
	argIndex = 2

	if filter.WarehouseID != nil {
		openingConditions += fmt.Sprintf(" AND warehouse_id = $%d", argIndex)
		openingArgs = append(openingArgs, *filter.WarehouseID)
		argIndex++
	}
	if filter.MaterialID != nil {
		openingConditions += fmt.Sprintf(" AND material_id = $%d", argIndex)
		openingArgs = append(openingArgs, *filter.MaterialID)
	}

	openingSQL := fmt.Sprintf(`
		SELECT COALESCE(
			SUM(CASE WHEN type IN %s THEN quantity ELSE -quantity END),
			0
		)
		FROM reg_stock_movements
		WHERE %s
	`, inboundTypesSQL, openingConditions)

	var openingScaled int64
	err = querier.QueryRow(ctx, openingSQL, openingArgs...).Scan(&openingScaled)
	if err != nil && err != pgx.ErrNoRows {
		return result, fmt.Errorf("calculate opening balance: %w", err)
	}
	result.OpeningBalance = types.NewQuantityFromInt64Scaled(openingScaled)
	result.ClosingBalance = result.OpeningBalance + result.Receipt - result.Expense

	return result, nil
}

// RecalculateBalances rebuilds the balance cache from the ledger. Stock and
// availability are recomputed; reserved quantities and average costs on
// existing rows are preserved.
func (r *StockRepo) RecalculateBalances(ctx context.Context, warehouseID, materialID *id.ID) error {
	args := []any{}
	conditions := "TRUE"
	argIndex := 1

	if warehouseID != nil {
		conditions += fmt.Sprintf(" AND m.warehouse_id = $%d", argIndex)
		args = append(args, *warehouseID)
		argIndex++
	}
	if materialID != nil {
		conditions += fmt.Sprintf(" AND m.material_id = $%d", argIndex)
		args = append(args, *materialID)
	}

	sql := fmt.Sprintf(`
		INSERT INTO reg_material_stock (
			material_id, warehouse_id,
			current_stock, reserved_stock, available_stock,
			average_cost, last_updated
		)
		SELECT
			m.material_id,
			m.warehouse_id,
			SUM(CASE WHEN m.type IN %s THEN m.quantity ELSE -m.quantity END),
			0,
			SUM(CASE WHEN m.type IN %s THEN m.quantity ELSE -m.quantity END),
			0,
			NOW()
		FROM reg_stock_movements m
		WHERE %s
		GROUP BY m.material_id, m.warehouse_id
		ON CONFLICT (material_id, warehouse_id) DO UPDATE SET
			current_stock   = EXCLUDED.current_stock,
			available_stock = EXCLUDED.current_stock - reg_material_stock.reserved_stock,
			last_updated    = EXCLUDED.last_updated
	`, inboundTypesSQL, inboundTypesSQL, conditions)

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("recalculate balances: %w", err)
	}

	return nil
}

var _ stock.Repository = (*StockRepo)(nil)
