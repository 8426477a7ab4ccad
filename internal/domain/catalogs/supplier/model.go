// Package supplier provides the Supplier catalog: vendors that deliver
// materials and hold current accounts for debt tracking.
package supplier

import (
	"context"

	"mesa/internal/core/apperror"
	"mesa/internal/core/entity"
	"mesa/internal/core/types"
)

// PaymentTerms defines how the supplier expects to be paid.
type PaymentTerms string

const (
	TermsPrepaid    PaymentTerms = "prepaid"
	TermsOnDelivery PaymentTerms = "on_delivery"
	TermsCredit     PaymentTerms = "credit"
)

// Supplier represents a vendor of materials.
type Supplier struct {
	entity.Catalog

	// TaxID is the supplier's fiscal identifier (RUC, VAT number)
	TaxID *string `db:"tax_id" json:"taxId,omitempty"`

	ContactName *string `db:"contact_name" json:"contactName,omitempty"`
	Phone       *string `db:"phone" json:"phone,omitempty"`
	Email       *string `db:"email" json:"email,omitempty"`
	Address     *string `db:"address" json:"address,omitempty"`

	// PaymentTerms defaults to on_delivery for new suppliers
	PaymentTerms PaymentTerms `db:"payment_terms" json:"paymentTerms"`

	// CreditDays applies only when PaymentTerms is credit
	CreditDays int `db:"credit_days" json:"creditDays"`

	// CreditLimit is the maximum allowed open debt; zero means unlimited
	CreditLimit types.Money `db:"credit_limit" json:"creditLimit"`

	IsActive bool `db:"is_active" json:"isActive"`

	Comment *string `db:"comment" json:"comment,omitempty"`
}

// NewSupplier creates a new Supplier with required fields.
func NewSupplier(code, name string) *Supplier {
	return &Supplier{
		Catalog:      entity.NewCatalog(code, name),
		PaymentTerms: TermsOnDelivery,
		CreditLimit:  types.ZeroMoney(),
		IsActive:     true,
	}
}

// Validate implements entity.Validatable interface.
func (s *Supplier) Validate(ctx context.Context) error {
	if err := s.Catalog.Validate(ctx); err != nil {
		return err
	}

	switch s.PaymentTerms {
	case TermsPrepaid, TermsOnDelivery, TermsCredit:
	default:
		return apperror.NewValidation("invalid payment terms").
			WithDetail("field", "paymentTerms").
			WithDetail("value", string(s.PaymentTerms))
	}

	if s.PaymentTerms == TermsCredit && s.CreditDays <= 0 {
		return apperror.NewValidation("credit days must be positive for credit terms").
			WithDetail("field", "creditDays")
	}

	if s.CreditLimit.IsNegative() {
		return apperror.NewValidation("credit limit cannot be negative").
			WithDetail("field", "creditLimit")
	}

	return nil
}

// AllowsCredit reports whether purchases may post debt to the supplier account.
func (s *Supplier) AllowsCredit() bool {
	return s.PaymentTerms == TermsCredit
}
