package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"mesa/internal/core/id"
	"mesa/internal/domain"
	"mesa/internal/domain/documents/stockcount"
	"mesa/internal/infrastructure/storage/postgres"
)

const (
	stockCountsTable           = "doc_stock_counts"
	stockCountItemsTable       = "doc_stock_count_items"
	stockCountAdjustmentsTable = "doc_stock_count_adjustments"
)

// StockCountRepo implements stockcount.Repository.
type StockCountRepo struct {
	*BaseDocumentRepo[*stockcount.StockCount]
}

// NewStockCountRepo creates a new stock count repository.
func NewStockCountRepo(txManager *postgres.TxManager) *StockCountRepo {
	return &StockCountRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txManager,
			stockCountsTable,
			postgres.ExtractDBColumns[stockcount.StockCount](),
			func() *stockcount.StockCount { return &stockcount.StockCount{} },
		),
	}
}

func (r *StockCountRepo) GetItems(ctx context.Context, docID id.ID) ([]stockcount.Item, error) {
	q := r.Builder().
		Select(
			"line_id", "line_no", "material_id",
			"system_stock", "pre_clamp_stock", "counted_stock", "difference",
			"reason", "is_manually_added",
			"is_counted", "counted_at", "counted_by",
		).
		From(stockCountItemsTable).
		Where(squirrel.Eq{"document_id": docID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []stockcount.Item
	if err := pgxscan.Select(ctx, r.querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}

	return items, nil
}

func (r *StockCountRepo) SaveItems(ctx context.Context, docID id.ID, items []stockcount.Item) error {
	querier := r.querier(ctx)

	deleteSQL := "DELETE FROM " + stockCountItemsTable + " WHERE document_id = $1"
	if _, err := querier.Exec(ctx, deleteSQL, docID); err != nil {
		return fmt.Errorf("delete existing items: %w", err)
	}

	if len(items) == 0 {
		return nil
	}

	q := r.Builder().
		Insert(stockCountItemsTable).
		Columns(
			"line_id", "document_id", "line_no", "material_id",
			"system_stock", "pre_clamp_stock", "counted_stock", "difference",
			"reason", "is_manually_added",
			"is_counted", "counted_at", "counted_by",
		)

	for _, item := range items {
		q = q.Values(
			item.LineID, docID, item.LineNo, item.MaterialID,
			item.SystemStock, item.PreClampStock, item.CountedStock, item.Difference,
			item.Reason, item.IsManuallyAdded,
			item.IsCounted, item.CountedAt, item.CountedBy,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert items: %w", err)
	}

	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert items: %w", err)
	}

	return nil
}

func (r *StockCountRepo) ExistsActiveForWarehouse(ctx context.Context, warehouseID id.ID) (bool, error) {
	sql := `
		SELECT EXISTS (
			SELECT 1 FROM doc_stock_counts
			WHERE warehouse_id = $1
			  AND deletion_mark = FALSE
			  AND status IN ('planning', 'in_progress', 'pending_approval')
		)
	`

	var exists bool
	if err := r.querier(ctx).QueryRow(ctx, sql, warehouseID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check active stock count: %w", err)
	}

	return exists, nil
}

func (r *StockCountRepo) CreateAdjustments(ctx context.Context, adjustments []stockcount.Adjustment) error {
	if len(adjustments) == 0 {
		return nil
	}

	q := r.Builder().
		Insert(stockCountAdjustmentsTable).
		Columns(
			"id", "stock_count_id", "material_id", "warehouse_id",
			"type", "quantity", "previous_stock", "new_stock",
			"movement_line_id", "created_by", "created_at",
		)

	for _, adj := range adjustments {
		q = q.Values(
			adj.ID, adj.StockCountID, adj.MaterialID, adj.WarehouseID,
			adj.Type, adj.Quantity, adj.PreviousStock, adj.NewStock,
			adj.MovementLineID, adj.CreatedBy, adj.CreatedAt,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert adjustments: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert adjustments: %w", err)
	}

	return nil
}

func (r *StockCountRepo) GetAdjustments(ctx context.Context, docID id.ID) ([]stockcount.Adjustment, error) {
	q := r.Builder().
		Select(
			"id", "stock_count_id", "material_id", "warehouse_id",
			"type", "quantity", "previous_stock", "new_stock",
			"movement_line_id", "created_by", "created_at",
		).
		From(stockCountAdjustmentsTable).
		Where(squirrel.Eq{"stock_count_id": docID}).
		OrderBy("created_at", "material_id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var adjustments []stockcount.Adjustment
	if err := pgxscan.Select(ctx, r.querier(ctx), &adjustments, sql, args...); err != nil {
		return nil, fmt.Errorf("get adjustments: %w", err)
	}

	return adjustments, nil
}

func (r *StockCountRepo) List(ctx context.Context, filter stockcount.ListFilter) (domain.ListResult[*stockcount.StockCount], error) {
	result := domain.ListResult[*stockcount.StockCount]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.baseSelect()

	if !filter.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}

	if filter.WarehouseID != nil {
		q = q.Where(squirrel.Eq{"warehouse_id": *filter.WarehouseID})
	}

	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}

	if filter.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"count_date": *filter.DateFrom})
	}

	if filter.DateTo != nil {
		q = q.Where(squirrel.LtOrEq{"count_date": *filter.DateTo})
	}

	if filter.Search != "" {
		q = q.Where(squirrel.ILike{"number": "%" + filter.Search + "%"})
	}

	countQ := r.Builder().Select("COUNT(*)").FromSelect(q, "sub")
	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}

	querier := r.querier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count: %w", err)
	}

	orderBy, err := r.parseOrderBy(filter.OrderBy)
	if err != nil {
		return result, err
	}
	q = q.OrderBy(orderBy)

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("select: %w", err)
	}

	return result, nil
}

var _ stockcount.Repository = (*StockCountRepo)(nil)
