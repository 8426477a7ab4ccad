package account_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"mesa/internal/core/id"
	"mesa/internal/domain/accounts"
	"mesa/internal/infrastructure/storage/postgres"
)

const transactionsTable = "reg_account_transactions"

var transactionColumns = []string{
	"id", "account_id", "type", "amount",
	"balance_before", "balance_after",
	"transaction_date", "description", "reference",
	"created_by", "created_at",
}

// TransactionRepo implements accounts.TransactionRepository.
type TransactionRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewTransactionRepo creates a new account transaction repository.
func NewTransactionRepo(txManager *postgres.TxManager) *TransactionRepo {
	return &TransactionRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *TransactionRepo) Create(ctx context.Context, tx *accounts.Transaction) error {
	q := r.builder.Insert(transactionsTable).
		Columns(transactionColumns...).
		Values(
			tx.ID, tx.AccountID, tx.Type, tx.Amount,
			tx.BalanceBefore, tx.BalanceAfter,
			tx.TransactionDate, tx.Description, tx.Reference,
			tx.CreatedBy, tx.CreatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}

	return nil
}

// GetByAccount returns all transactions for the account. The order is the
// replay order: ties on the business date break by insertion time, then ID.
func (r *TransactionRepo) GetByAccount(ctx context.Context, accountID id.ID) ([]accounts.Transaction, error) {
	q := r.builder.Select(transactionColumns...).
		From(transactionsTable).
		Where(squirrel.Eq{"account_id": accountID}).
		OrderBy("transaction_date", "created_at", "id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var transactions []accounts.Transaction
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &transactions, sql, args...); err != nil {
		return nil, fmt.Errorf("select transactions: %w", err)
	}

	return transactions, nil
}

// UpdateSnapshots rewrites balance_before/balance_after for replayed rows.
func (r *TransactionRepo) UpdateSnapshots(ctx context.Context, transactions []accounts.Transaction) error {
	if len(transactions) == 0 {
		return nil
	}

	queries := make([]postgres.BatchQuery, 0, len(transactions))
	for _, tx := range transactions {
		queries = append(queries, postgres.BatchQuery{
			SQL:  "UPDATE reg_account_transactions SET balance_before = $1, balance_after = $2 WHERE id = $3",
			Args: []any{tx.BalanceBefore, tx.BalanceAfter, tx.ID},
		})
	}

	inserter := postgres.NewBatchInserter(r.txManager)
	if err := inserter.ExecuteBatch(ctx, queries); err != nil {
		return fmt.Errorf("update snapshots: %w", err)
	}

	return nil
}

func (r *TransactionRepo) GetStatement(ctx context.Context, accountID id.ID, filter accounts.StatementFilter) ([]accounts.Transaction, error) {
	q := r.builder.Select(transactionColumns...).
		From(transactionsTable).
		Where(squirrel.Eq{"account_id": accountID})

	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"transaction_date": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"transaction_date": *filter.ToDate})
	}
	if len(filter.Types) > 0 {
		q = q.Where(squirrel.Eq{"type": filter.Types})
	}

	q = q.OrderBy("transaction_date", "created_at", "id")

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

	var transactions []accounts.Transaction
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &transactions, sql, args...); err != nil {
		return nil, fmt.Errorf("select statement: %w", err)
	}

	return transactions, nil
}

var _ accounts.TransactionRepository = (*TransactionRepo)(nil)
