// Package accounts provides current accounts (cuentas corrientes): running
// balances per counterparty derived from an ordered transaction ledger.
package accounts

import (
	"context"
	"time"

	"mesa/internal/core/apperror"
	"mesa/internal/core/entity"
	"mesa/internal/core/id"
	"mesa/internal/core/types"
)

// PartyType identifies what kind of counterparty holds the account.
type PartyType string

const (
	PartyCustomer PartyType = "customer"
	PartySupplier PartyType = "supplier"
	PartyEmployee PartyType = "employee"
)

// CurrentAccount represents a counterparty's running balance.
//
// CurrentBalance is a cache. The authoritative value is always
// OpeningBalance plus the signed amounts of all transactions, and the replay
// service can rebuild it at any time.
type CurrentAccount struct {
	entity.Catalog

	PartyType PartyType `db:"party_type" json:"partyType"`

	// PartyID links to the counterparty catalog (supplier, customer)
	PartyID *id.ID `db:"party_id" json:"partyId,omitempty"`

	// OpeningBalance is the balance when the account was opened.
	// Positive means the counterparty owes us.
	OpeningBalance types.Money `db:"opening_balance" json:"openingBalance"`
	OpeningDate    time.Time   `db:"opening_date" json:"openingDate"`

	// CurrentBalance is the cached running total
	CurrentBalance types.Money `db:"current_balance" json:"currentBalance"`

	// CreditLimit caps how far the balance may grow; zero means unlimited
	CreditLimit types.Money `db:"credit_limit" json:"creditLimit"`

	IsActive bool `db:"is_active" json:"isActive"`
}

// NewCurrentAccount creates an account with its opening balance.
func NewCurrentAccount(code, name string, partyType PartyType, opening types.Money) *CurrentAccount {
	return &CurrentAccount{
		Catalog:        entity.NewCatalog(code, name),
		PartyType:      partyType,
		OpeningBalance: opening,
		OpeningDate:    time.Now().UTC(),
		CurrentBalance: opening,
		CreditLimit:    types.ZeroMoney(),
		IsActive:       true,
	}
}

// Validate implements entity.Validatable.
func (a *CurrentAccount) Validate(ctx context.Context) error {
	if err := a.Catalog.Validate(ctx); err != nil {
		return err
	}

	switch a.PartyType {
	case PartyCustomer, PartySupplier, PartyEmployee:
	default:
		return apperror.NewValidation("invalid party type").
			WithDetail("field", "partyType").
			WithDetail("value", string(a.PartyType))
	}

	if a.OpeningDate.IsZero() {
		return apperror.NewValidation("opening date is required").
			WithDetail("field", "openingDate")
	}

	return nil
}

// TransactionType classifies a current account transaction.
type TransactionType string

const (
	// TxOpening carries the opening balance into the ledger
	TxOpening TransactionType = "opening"

	// TxDebt records debt created by a purchase or sale on credit
	TxDebt TransactionType = "debt"

	// TxPayment is the mirror entry of a completed payment document.
	// Payments never touch the balance directly; only their mirror
	// transaction does.
	TxPayment TransactionType = "payment"

	// TxAdjustment is a manual correction
	TxAdjustment TransactionType = "adjustment"
)

// IsValid reports whether t is a known transaction type.
func (t TransactionType) IsValid() bool {
	switch t {
	case TxOpening, TxDebt, TxPayment, TxAdjustment:
		return true
	}
	return false
}

// Transaction is one signed entry in an account's ledger.
//
// TransactionDate is the effective business date; CreatedAt records when the
// row was written. Replay orders strictly by (TransactionDate, CreatedAt, ID)
// so backdated entries land in their business position and same-instant
// entries keep insertion order.
type Transaction struct {
	ID        id.ID `db:"id" json:"id"`
	AccountID id.ID `db:"account_id" json:"accountId"`

	Type TransactionType `db:"type" json:"type"`

	// Amount is signed: positive increases the balance, negative decreases
	Amount types.Money `db:"amount" json:"amount"`

	// Running-balance snapshots, rewritten on replay
	BalanceBefore types.Money `db:"balance_before" json:"balanceBefore"`
	BalanceAfter  types.Money `db:"balance_after" json:"balanceAfter"`

	TransactionDate time.Time `db:"transaction_date" json:"transactionDate"`

	Description string  `db:"description" json:"description,omitempty"`
	Reference   *string `db:"reference" json:"reference,omitempty"`

	CreatedBy string    `db:"created_by" json:"createdBy,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewTransaction creates a transaction with generated ID.
func NewTransaction(accountID id.ID, txType TransactionType, amount types.Money, date time.Time) Transaction {
	return Transaction{
		ID:              id.New(),
		AccountID:       accountID,
		Type:            txType,
		Amount:          amount,
		TransactionDate: date,
		CreatedAt:       time.Now().UTC(),
	}
}

// Validate checks transaction fields.
func (t *Transaction) Validate() error {
	if id.IsNil(t.AccountID) {
		return apperror.NewValidation("account_id is required")
	}
	if !t.Type.IsValid() {
		return apperror.NewValidation("invalid transaction type").
			WithDetail("value", string(t.Type))
	}
	if t.Amount.IsZero() {
		return apperror.NewValidation("transaction amount cannot be zero")
	}
	if t.TransactionDate.IsZero() {
		return apperror.NewValidation("transaction date is required")
	}
	return nil
}
