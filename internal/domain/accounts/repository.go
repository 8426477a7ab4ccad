package accounts

import (
	"context"
	"time"

	"mesa/internal/core/id"
	"mesa/internal/core/types"
	"mesa/internal/domain"
)

// AccountRepository defines storage operations for current accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *CurrentAccount) error
	GetByID(ctx context.Context, accountID id.ID) (*CurrentAccount, error)
	GetByCode(ctx context.Context, code string) (*CurrentAccount, error)

	// GetForUpdate returns the account with a row lock; balance writers
	// must lock first
	GetForUpdate(ctx context.Context, accountID id.ID) (*CurrentAccount, error)

	Update(ctx context.Context, account *CurrentAccount) error

	// UpdateBalance writes only the cached balance
	UpdateBalance(ctx context.Context, accountID id.ID, balance types.Money) error

	List(ctx context.Context, filter AccountFilter) (domain.ListResult[*CurrentAccount], error)

	// ListIDs returns IDs of all accounts matching the filter, for bulk
	// recalculation
	ListIDs(ctx context.Context, filter AccountFilter) ([]id.ID, error)
}

// TransactionRepository defines storage operations for account transactions.
type TransactionRepository interface {
	Create(ctx context.Context, tx *Transaction) error

	// GetByAccount returns all transactions for the account ordered by
	// (transaction_date, created_at, id). Replay depends on this order.
	GetByAccount(ctx context.Context, accountID id.ID) ([]Transaction, error)

	// UpdateSnapshots rewrites balance_before/balance_after for replayed rows
	UpdateSnapshots(ctx context.Context, transactions []Transaction) error

	GetStatement(ctx context.Context, accountID id.ID, filter StatementFilter) ([]Transaction, error)
}

// PaymentRepository defines storage operations for payments.
type PaymentRepository interface {
	Create(ctx context.Context, payment *Payment) error
	GetByID(ctx context.Context, paymentID id.ID) (*Payment, error)
	GetForUpdate(ctx context.Context, paymentID id.ID) (*Payment, error)
	Update(ctx context.Context, payment *Payment) error
	List(ctx context.Context, filter PaymentFilter) (domain.ListResult[*Payment], error)
}

// AccountFilter for filtering accounts.
type AccountFilter struct {
	domain.ListFilter

	PartyType  *PartyType
	PartyID    *id.ID
	OnlyActive bool
}

// StatementFilter for account statements.
type StatementFilter struct {
	FromDate *time.Time
	ToDate   *time.Time
	Types    []TransactionType
	Limit    int
	Offset   int
}

// PaymentFilter for filtering payments.
type PaymentFilter struct {
	domain.ListFilter

	AccountID *id.ID
	Status    *PaymentStatus
	DateFrom  *time.Time
	DateTo    *time.Time
}
