package account_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"mesa/internal/domain"
	"mesa/internal/domain/accounts"
	"mesa/internal/infrastructure/storage/postgres"
	"mesa/internal/infrastructure/storage/postgres/document_repo"
)

const paymentsTable = "doc_payments"

// PaymentRepo implements accounts.PaymentRepository.
type PaymentRepo struct {
	*document_repo.BaseDocumentRepo[*accounts.Payment]
	txManager *postgres.TxManager
}

// NewPaymentRepo creates a new payment repository.
func NewPaymentRepo(txManager *postgres.TxManager) *PaymentRepo {
	return &PaymentRepo{
		BaseDocumentRepo: document_repo.NewBaseDocumentRepo(
			txManager,
			paymentsTable,
			postgres.ExtractDBColumns[accounts.Payment](),
			func() *accounts.Payment { return &accounts.Payment{} },
		),
		txManager: txManager,
	}
}

func (r *PaymentRepo) List(ctx context.Context, filter accounts.PaymentFilter) (domain.ListResult[*accounts.Payment], error) {
	result := domain.ListResult[*accounts.Payment]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.Builder().
		Select(postgres.ExtractDBColumns[accounts.Payment]()...).
		From(paymentsTable)

	if !filter.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}
	if filter.AccountID != nil {
		q = q.Where(squirrel.Eq{"account_id": *filter.AccountID})
	}
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}
	if filter.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"date": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		q = q.Where(squirrel.LtOrEq{"date": *filter.DateTo})
	}
	if filter.Search != "" {
		q = q.Where(squirrel.ILike{"number": "%" + filter.Search + "%"})
	}

	countQ := r.Builder().Select("COUNT(*)").FromSelect(q, "sub")
	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count: %w", err)
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
		return result, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list payments: %w", err)
	}

	return result, nil
}

var _ accounts.PaymentRepository = (*PaymentRepo)(nil)
