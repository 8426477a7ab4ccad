// Package account_repo provides PostgreSQL implementations for current
// account, transaction and payment repositories.
package account_repo

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"

	"mesa/internal/core/id"
	"mesa/internal/core/types"
	"mesa/internal/domain"
	"mesa/internal/domain/accounts"
	"mesa/internal/infrastructure/storage/postgres"
	"mesa/internal/infrastructure/storage/postgres/catalog_repo"
)

const accountsTable = "cat_current_accounts"

// AccountRepo implements accounts.AccountRepository.
type AccountRepo struct {
	*catalog_repo.BaseCatalogRepo[*accounts.CurrentAccount]
	txManager *postgres.TxManager
}

// NewAccountRepo creates a new current account repository.
func NewAccountRepo(txManager *postgres.TxManager) *AccountRepo {
	return &AccountRepo{
		BaseCatalogRepo: catalog_repo.NewBaseCatalogRepo(
			txManager,
			accountsTable,
			postgres.ExtractDBColumns[accounts.CurrentAccount](),
			func() *accounts.CurrentAccount { return &accounts.CurrentAccount{} },
		),
		txManager: txManager,
	}
}

// UpdateBalance writes only the cached balance. Callers hold the row lock
// from GetForUpdate.
func (r *AccountRepo) UpdateBalance(ctx context.Context, accountID id.ID, balance types.Money) error {
	sql := "UPDATE cat_current_accounts SET current_balance = $1, updated_at = NOW() WHERE id = $2"

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, balance, accountID)
	if err != nil {
		return fmt.Errorf("update balance: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("update balance: account %s not found", accountID)
	}

	return nil
}

// List retrieves accounts with account-specific filtering.
func (r *AccountRepo) List(ctx context.Context, filter accounts.AccountFilter) (domain.ListResult[*accounts.CurrentAccount], error) {
	inner := filter.ListFilter
	if filter.PartyType != nil || filter.PartyID != nil || filter.OnlyActive {
		return r.listFiltered(ctx, filter)
	}
	return r.BaseCatalogRepo.List(ctx, inner)
}

func (r *AccountRepo) listFiltered(ctx context.Context, filter accounts.AccountFilter) (domain.ListResult[*accounts.CurrentAccount], error) {
	result := domain.ListResult[*accounts.CurrentAccount]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.Builder().
		Select(postgres.ExtractDBColumns[accounts.CurrentAccount]()...).
		From(accountsTable)

	if !filter.IncludeDeleted {
		q = q.Where("deletion_mark = FALSE")
	}
	if filter.OnlyActive {
		q = q.Where("is_active = TRUE")
	}
	if filter.PartyType != nil {
		q = q.Where("party_type = ?", *filter.PartyType)
	}
	if filter.PartyID != nil {
		q = q.Where("party_id = ?", *filter.PartyID)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where("(name ILIKE ? OR code ILIKE ?)", pattern, pattern)
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

	q = q.OrderBy("name")
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
		return result, fmt.Errorf("list accounts: %w", err)
	}

	return result, nil
}

// ListIDs returns IDs of all accounts matching the filter.
func (r *AccountRepo) ListIDs(ctx context.Context, filter accounts.AccountFilter) ([]id.ID, error) {
	q := r.Builder().
		Select("id").
		From(accountsTable)

	if !filter.IncludeDeleted {
		q = q.Where("deletion_mark = FALSE")
	}
	if filter.OnlyActive {
		q = q.Where("is_active = TRUE")
	}
	if filter.PartyType != nil {
		q = q.Where("party_type = ?", *filter.PartyType)
	}
	if filter.PartyID != nil {
		q = q.Where("party_id = ?", *filter.PartyID)
	}

	q = q.OrderBy("id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var ids []id.ID
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &ids, sql, args...); err != nil {
		return nil, fmt.Errorf("list account ids: %w", err)
	}

	return ids, nil
}

var _ accounts.AccountRepository = (*AccountRepo)(nil)
