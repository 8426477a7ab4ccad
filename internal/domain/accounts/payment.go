package accounts

import (
	"context"
	"time"

	"mesa/internal/core/apperror"
	"mesa/internal/core/entity"
	"mesa/internal/core/id"
	"mesa/internal/core/types"
)

// PaymentMethod is how a payment was made.
type PaymentMethod string

const (
	MethodCash     PaymentMethod = "cash"
	MethodTransfer PaymentMethod = "transfer"
	MethodCard     PaymentMethod = "card"
	MethodCheck    PaymentMethod = "check"
)

// PaymentStatus is the payment document lifecycle.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentCancelled PaymentStatus = "cancelled"
)

// Payment represents a payment document against a current account.
//
// A payment affects the account balance only through the mirror transaction
// posted when it completes. Pending and cancelled payments leave the
// balance untouched.
type Payment struct {
	entity.Document

	AccountID id.ID `db:"account_id" json:"accountId"`

	// Amount is always positive; direction comes from the account side
	Amount types.Money `db:"amount" json:"amount"`

	Method PaymentMethod `db:"method" json:"method"`
	Status PaymentStatus `db:"status" json:"status"`

	PaidAt *time.Time `db:"paid_at" json:"paidAt,omitempty"`

	// TransactionID links to the mirror ledger entry once completed
	TransactionID *id.ID `db:"transaction_id" json:"transactionId,omitempty"`
}

// NewPayment creates a pending payment.
func NewPayment(accountID id.ID, amount types.Money, method PaymentMethod) *Payment {
	return &Payment{
		Document:  entity.NewDocument(),
		AccountID: accountID,
		Amount:    amount,
		Method:    method,
		Status:    PaymentPending,
	}
}

// Validate implements entity.Validatable.
func (p *Payment) Validate(ctx context.Context) error {
	if err := p.Document.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(p.AccountID) {
		return apperror.NewValidation("account is required").
			WithDetail("field", "accountId")
	}

	if !p.Amount.IsPositive() {
		return apperror.NewValidation("payment amount must be positive").
			WithDetail("field", "amount")
	}

	switch p.Method {
	case MethodCash, MethodTransfer, MethodCard, MethodCheck:
	default:
		return apperror.NewValidation("invalid payment method").
			WithDetail("field", "method").
			WithDetail("value", string(p.Method))
	}

	return nil
}

// Complete marks the payment as paid and links its mirror transaction.
func (p *Payment) Complete(transactionID id.ID) error {
	if p.Status != PaymentPending {
		return apperror.NewInvalidState("only pending payments can be completed").
			WithDetail("status", string(p.Status))
	}
	p.Status = PaymentCompleted
	now := time.Now().UTC()
	p.PaidAt = &now
	p.TransactionID = &transactionID
	return nil
}

// Cancel voids a pending payment.
func (p *Payment) Cancel() error {
	if p.Status != PaymentPending {
		return apperror.NewInvalidState("only pending payments can be cancelled").
			WithDetail("status", string(p.Status))
	}
	p.Status = PaymentCancelled
	return nil
}
