package dto

import (
	"time"

	"mesa/internal/core/apperror"
	"mesa/internal/core/id"
	"mesa/internal/core/types"
	"mesa/internal/domain/accounts"
)

// --- Request DTOs ---

type CreateAccountRequest struct {
	Code           string  `json:"code" binding:"required"`
	Name           string  `json:"name" binding:"required"`
	PartyType      string  `json:"partyType" binding:"required"`
	PartyID        *string `json:"partyId,omitempty"`
	OpeningBalance float64 `json:"openingBalance"`
	CreditLimit    float64 `json:"creditLimit"`
}

func (r *CreateAccountRequest) ToEntity() (*accounts.CurrentAccount, error) {
	account := accounts.NewCurrentAccount(r.Code, r.Name,
		accounts.PartyType(r.PartyType), types.NewMoney(r.OpeningBalance))
	account.CreditLimit = types.NewMoney(r.CreditLimit)

	if r.PartyID != nil {
		partyID, err := id.Parse(*r.PartyID)
		if err != nil {
			return nil, apperror.NewValidation("invalid party id").
				WithDetail("field", "partyId")
		}
		account.PartyID = &partyID
	}

	return account, nil
}

type PostTransactionRequest struct {
	Type   string  `json:"type" binding:"required"`
	Amount float64 `json:"amount" binding:"required"`

	// TransactionDate defaults to now; backdating is allowed and the
	// snapshots are rebuilt by replay
	TransactionDate *time.Time `json:"transactionDate,omitempty"`

	Description string  `json:"description,omitempty"`
	Reference   *string `json:"reference,omitempty"`
}

func (r *PostTransactionRequest) ToTransaction(accountID id.ID, createdBy string) accounts.Transaction {
	date := time.Now().UTC()
	if r.TransactionDate != nil {
		date = *r.TransactionDate
	}

	t := accounts.NewTransaction(accountID, accounts.TransactionType(r.Type),
		types.NewMoney(r.Amount), date)
	t.Description = r.Description
	t.Reference = r.Reference
	t.CreatedBy = createdBy
	return t
}

type CreatePaymentRequest struct {
	AccountID   string     `json:"accountId" binding:"required"`
	Amount      float64    `json:"amount" binding:"required,gt=0"`
	Method      string     `json:"method" binding:"required"`
	Date        *time.Time `json:"date,omitempty"`
	Comment     string     `json:"comment,omitempty"`
}

func (r *CreatePaymentRequest) ToEntity() (*accounts.Payment, error) {
	accountID, err := id.Parse(r.AccountID)
	if err != nil {
		return nil, apperror.NewValidation("invalid account id").
			WithDetail("field", "accountId")
	}

	payment := accounts.NewPayment(accountID, types.NewMoney(r.Amount),
		accounts.PaymentMethod(r.Method))
	if r.Date != nil {
		payment.Date = *r.Date
	}
	payment.Comment = r.Comment

	return payment, nil
}

type ListAccountsRequest struct {
	ListQuery

	PartyType  string `form:"partyType"`
	PartyID    string `form:"partyId"`
	OnlyActive bool   `form:"onlyActive"`
}

func (r *ListAccountsRequest) ToFilter() (accounts.AccountFilter, error) {
	filter := accounts.AccountFilter{
		ListFilter: r.ListQuery.ToFilter(),
		OnlyActive: r.OnlyActive,
	}

	if r.PartyType != "" {
		partyType := accounts.PartyType(r.PartyType)
		filter.PartyType = &partyType
	}
	if r.PartyID != "" {
		partyID, err := id.Parse(r.PartyID)
		if err != nil {
			return filter, apperror.NewValidation("invalid party id").
				WithDetail("field", "partyId")
		}
		filter.PartyID = &partyID
	}

	return filter, nil
}

type StatementRequest struct {
	FromDate string   `form:"fromDate"`
	ToDate   string   `form:"toDate"`
	Types    []string `form:"types"`
	Limit    int      `form:"limit"`
	Offset   int      `form:"offset"`
}

func (r *StatementRequest) ToFilter() (accounts.StatementFilter, error) {
	filter := accounts.StatementFilter{
		Limit:  r.Limit,
		Offset: r.Offset,
	}

	var err error
	if filter.FromDate, err = parseDateParam(r.FromDate, "fromDate"); err != nil {
		return filter, err
	}
	if filter.ToDate, err = parseDateParam(r.ToDate, "toDate"); err != nil {
		return filter, err
	}

	for _, t := range r.Types {
		filter.Types = append(filter.Types, accounts.TransactionType(t))
	}

	return filter, nil
}

type ListPaymentsRequest struct {
	ListQuery

	AccountID string `form:"accountId"`
	Status    string `form:"status"`
	DateFrom  string `form:"dateFrom"`
	DateTo    string `form:"dateTo"`
}

func (r *ListPaymentsRequest) ToFilter() (accounts.PaymentFilter, error) {
	filter := accounts.PaymentFilter{ListFilter: r.ListQuery.ToFilter()}

	if r.AccountID != "" {
		accountID, err := id.Parse(r.AccountID)
		if err != nil {
			return filter, apperror.NewValidation("invalid account id").
				WithDetail("field", "accountId")
		}
		filter.AccountID = &accountID
	}
	if r.Status != "" {
		status := accounts.PaymentStatus(r.Status)
		filter.Status = &status
	}

	var err error
	if filter.DateFrom, err = parseDateParam(r.DateFrom, "dateFrom"); err != nil {
		return filter, err
	}
	if filter.DateTo, err = parseDateParam(r.DateTo, "dateTo"); err != nil {
		return filter, err
	}

	return filter, nil
}
