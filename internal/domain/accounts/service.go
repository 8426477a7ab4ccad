package accounts

import (
	"context"
	"fmt"
	"time"

	"mesa/internal/core/apperror"
	"mesa/internal/core/id"
	"mesa/internal/core/numerator"
	"mesa/internal/core/tx"
	"mesa/internal/core/types"
	"mesa/pkg/logger"
)

// Service provides business operations for current accounts.
type Service struct {
	accounts     AccountRepository
	transactions TransactionRepository
	payments     PaymentRepository
	numerator    numerator.Generator
	txManager    tx.Manager
}

// NewService creates a new accounts service.
func NewService(
	accounts AccountRepository,
	transactions TransactionRepository,
	payments PaymentRepository,
	numerator numerator.Generator,
	txManager tx.Manager,
) *Service {
	return &Service{
		accounts:     accounts,
		transactions: transactions,
		payments:     payments,
		numerator:    numerator,
		txManager:    txManager,
	}
}

// CreateAccount creates a current account.
func (s *Service) CreateAccount(ctx context.Context, account *CurrentAccount) error {
	if err := account.Validate(ctx); err != nil {
		return err
	}

	account.CurrentBalance = account.OpeningBalance

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.accounts.Create(ctx, account); err != nil {
			return fmt.Errorf("create account: %w", err)
		}
		return nil
	})
}

// GetAccount retrieves an account by ID.
func (s *Service) GetAccount(ctx context.Context, accountID id.ID) (*CurrentAccount, error) {
	return s.accounts.GetByID(ctx, accountID)
}

// ListAccounts retrieves accounts with filtering.
func (s *Service) ListAccounts(ctx context.Context, filter AccountFilter) ([]*CurrentAccount, int64, error) {
	result, err := s.accounts.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return result.Items, result.TotalCount, nil
}

// PostTransaction appends a signed entry to the account ledger and advances
// the cached balance incrementally. The account row is locked for the write
// so concurrent postings serialize.
func (s *Service) PostTransaction(ctx context.Context, t Transaction) (*Transaction, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		account, err := s.accounts.GetForUpdate(ctx, t.AccountID)
		if err != nil {
			return err
		}
		if !account.IsActive {
			return apperror.NewInvalidState("account is inactive").
				WithDetail("accountId", account.ID)
		}

		t.BalanceBefore = account.CurrentBalance
		t.BalanceAfter = account.CurrentBalance.Add(t.Amount)

		if account.CreditLimit.IsPositive() && t.BalanceAfter.GreaterThan(account.CreditLimit) {
			return apperror.NewBusinessRule(
				"CREDIT_LIMIT_EXCEEDED",
				"Transaction would exceed the account credit limit",
			).WithDetail("limit", account.CreditLimit).
				WithDetail("resulting_balance", t.BalanceAfter)
		}

		if err := s.transactions.Create(ctx, &t); err != nil {
			return fmt.Errorf("create transaction: %w", err)
		}
		if err := s.accounts.UpdateBalance(ctx, account.ID, t.BalanceAfter); err != nil {
			return fmt.Errorf("update balance: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "account transaction posted",
		"account_id", t.AccountID,
		"type", t.Type,
		"amount", t.Amount,
		"balance_after", t.BalanceAfter,
	)
	return &t, nil
}

// ReplayResult summarizes a balance replay for one account.
type ReplayResult struct {
	AccountID             id.ID       `json:"accountId"`
	TransactionsProcessed int         `json:"transactionsProcessed"`
	SnapshotsRewritten    int         `json:"snapshotsRewritten"`
	PreviousBalance       types.Money `json:"previousBalance"`
	RecalculatedBalance   types.Money `json:"recalculatedBalance"`
	Changed               bool        `json:"changed"`
}

// ReplayAccount rebuilds the account's running balance from scratch.
//
// The fold starts at the opening balance and walks every transaction in
// (transaction_date, created_at, id) order, rewriting each row's
// balance_before/balance_after snapshots along the way. The operation is
// idempotent: replaying an already consistent account rewrites nothing and
// reports no change. Runs in one transaction per account with the account
// row locked, so concurrent postings wait rather than interleave.
func (s *Service) ReplayAccount(ctx context.Context, accountID id.ID) (*ReplayResult, error) {
	var result *ReplayResult

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		account, err := s.accounts.GetForUpdate(ctx, accountID)
		if err != nil {
			return err
		}

		entries, err := s.transactions.GetByAccount(ctx, accountID)
		if err != nil {
			return fmt.Errorf("fetch transactions: %w", err)
		}

		running := account.OpeningBalance
		rewritten := make([]Transaction, 0)

		for i := range entries {
			before := running
			after := running.Add(entries[i].Amount)

			if !entries[i].BalanceBefore.Equal(before) || !entries[i].BalanceAfter.Equal(after) {
				entries[i].BalanceBefore = before
				entries[i].BalanceAfter = after
				rewritten = append(rewritten, entries[i])
			}

			running = after
		}

		if len(rewritten) > 0 {
			if err := s.transactions.UpdateSnapshots(ctx, rewritten); err != nil {
				return fmt.Errorf("rewrite snapshots: %w", err)
			}
		}

		changed := !account.CurrentBalance.Equal(running)
		if changed {
			if err := s.accounts.UpdateBalance(ctx, accountID, running); err != nil {
				return fmt.Errorf("update balance: %w", err)
			}
		}

		result = &ReplayResult{
			AccountID:             accountID,
			TransactionsProcessed: len(entries),
			SnapshotsRewritten:    len(rewritten),
			PreviousBalance:       account.CurrentBalance,
			RecalculatedBalance:   running,
			Changed:               changed || len(rewritten) > 0,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Changed {
		logger.Info(ctx, "account balance replayed",
			"account_id", accountID,
			"previous", result.PreviousBalance,
			"recalculated", result.RecalculatedBalance,
			"rewritten", result.SnapshotsRewritten,
		)
	}
	return result, nil
}

// RecalcSummary summarizes a bulk balance recalculation.
type RecalcSummary struct {
	AccountsProcessed          int     `json:"accountsProcessed"`
	UpdatedAccounts            int     `json:"updatedAccounts"`
	TotalTransactionsProcessed int     `json:"totalTransactionsProcessed"`
	FailedAccounts             []id.ID `json:"failedAccounts,omitempty"`
}

// RecalculateAllBalances replays every account matching the filter.
//
// Each account replays in its own transaction. Accounts are independent, so
// a failure on one rolls back only that account; the rest still commit, and
// the failed IDs come back in the summary.
func (s *Service) RecalculateAllBalances(ctx context.Context, filter AccountFilter) (*RecalcSummary, error) {
	accountIDs, err := s.accounts.ListIDs(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	summary := &RecalcSummary{}
	for _, accountID := range accountIDs {
		summary.AccountsProcessed++

		result, err := s.ReplayAccount(ctx, accountID)
		if err != nil {
			logger.Error(ctx, "account replay failed",
				"account_id", accountID,
				"error", err,
			)
			summary.FailedAccounts = append(summary.FailedAccounts, accountID)
			continue
		}

		summary.TotalTransactionsProcessed += result.TransactionsProcessed
		if result.Changed {
			summary.UpdatedAccounts++
		}
	}

	logger.Info(ctx, "bulk balance recalculation finished",
		"accounts", summary.AccountsProcessed,
		"updated", summary.UpdatedAccounts,
		"transactions", summary.TotalTransactionsProcessed,
		"failed", len(summary.FailedAccounts),
	)
	return summary, nil
}

// GetStatement returns the account's transaction history.
func (s *Service) GetStatement(ctx context.Context, accountID id.ID, filter StatementFilter) ([]Transaction, error) {
	if _, err := s.accounts.GetByID(ctx, accountID); err != nil {
		return nil, err
	}
	return s.transactions.GetStatement(ctx, accountID, filter)
}

// CreatePayment registers a pending payment against an account.
func (s *Service) CreatePayment(ctx context.Context, payment *Payment) error {
	if err := payment.Validate(ctx); err != nil {
		return err
	}

	if _, err := s.accounts.GetByID(ctx, payment.AccountID); err != nil {
		return err
	}

	if payment.Number == "" {
		number, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("PAY"),
			numerator.DefaultOptions(), time.Now())
		if err != nil {
			return fmt.Errorf("generate payment number: %w", err)
		}
		payment.Number = number
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.payments.Create(ctx, payment); err != nil {
			return fmt.Errorf("create payment: %w", err)
		}
		return nil
	})
}

// GetPayment retrieves a payment by ID.
func (s *Service) GetPayment(ctx context.Context, paymentID id.ID) (*Payment, error) {
	return s.payments.GetByID(ctx, paymentID)
}

// CompletePayment marks the payment paid and posts its mirror transaction.
//
// The mirror entry carries the negated amount: completing a payment reduces
// what the counterparty owes. Payment update and transaction posting commit
// together.
func (s *Service) CompletePayment(ctx context.Context, paymentID id.ID, completedBy string) (*Payment, error) {
	var payment *Payment

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		payment, err = s.payments.GetForUpdate(ctx, paymentID)
		if err != nil {
			return err
		}

		mirror := NewTransaction(payment.AccountID, TxPayment, payment.Amount.Neg(), time.Now().UTC())
		mirror.Description = fmt.Sprintf("payment %s", payment.Number)
		ref := payment.ID.String()
		mirror.Reference = &ref
		mirror.CreatedBy = completedBy

		posted, err := s.PostTransaction(ctx, mirror)
		if err != nil {
			return err
		}

		if err := payment.Complete(posted.ID); err != nil {
			return err
		}
		if err := s.payments.Update(ctx, payment); err != nil {
			return fmt.Errorf("update payment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "payment completed",
		"payment_id", payment.ID,
		"number", payment.Number,
		"amount", payment.Amount,
	)
	return payment, nil
}

// CancelPayment voids a pending payment without touching the balance.
func (s *Service) CancelPayment(ctx context.Context, paymentID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		payment, err := s.payments.GetForUpdate(ctx, paymentID)
		if err != nil {
			return err
		}
		if err := payment.Cancel(); err != nil {
			return err
		}
		return s.payments.Update(ctx, payment)
	})
}

// ListPayments retrieves payments with filtering.
func (s *Service) ListPayments(ctx context.Context, filter PaymentFilter) ([]*Payment, int64, error) {
	result, err := s.payments.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return result.Items, result.TotalCount, nil
}
