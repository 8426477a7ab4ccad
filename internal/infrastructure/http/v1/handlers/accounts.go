package handlers

import (
	"github.com/gin-gonic/gin"

	"mesa/internal/domain/accounts"
	"mesa/internal/infrastructure/http/v1/dto"
)

// AccountHandler serves current accounts, their transaction ledger, and
// payment documents.
type AccountHandler struct {
	*BaseHandler
	service *accounts.Service
}

// NewAccountHandler creates an account handler.
func NewAccountHandler(base *BaseHandler, service *accounts.Service) *AccountHandler {
	return &AccountHandler{BaseHandler: base, service: service}
}

// RegisterRoutes registers account and payment routes on the group.
func (h *AccountHandler) RegisterRoutes(rg *gin.RouterGroup) {
	accountsGroup := rg.Group("/accounts")
	{
		accountsGroup.GET("", h.List)
		accountsGroup.POST("", h.Create)
		accountsGroup.GET("/:id", h.Get)
		accountsGroup.POST("/:id/transactions", h.PostTransaction)
		accountsGroup.GET("/:id/statement", h.Statement)
		accountsGroup.POST("/:id/replay", h.Replay)
		accountsGroup.POST("/recalculate", h.RecalculateAll)
	}

	payments := rg.Group("/payments")
	{
		payments.GET("", h.ListPayments)
		payments.POST("", h.CreatePayment)
		payments.GET("/:id", h.GetPayment)
		payments.POST("/:id/complete", h.CompletePayment)
		payments.POST("/:id/cancel", h.CancelPayment)
	}
}

// List handles GET /accounts.
func (h *AccountHandler) List(c *gin.Context) {
	var req dto.ListAccountsRequest
	if !h.BindQuery(c, &req) {
		return
	}

	filter, err := req.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	items, total, err := h.service.ListAccounts(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse[*accounts.CurrentAccount]{
		Items:      items,
		TotalCount: total,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	})
}

// Create handles POST /accounts.
func (h *AccountHandler) Create(c *gin.Context) {
	var req dto.CreateAccountRequest
	if !h.BindJSON(c, &req) {
		return
	}

	account, err := req.ToEntity()
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.CreateAccount(c.Request.Context(), account); err != nil {
		h.Error(c, err)
		return
	}

	h.CreatedData(c, account)
}

// Get handles GET /accounts/:id.
func (h *AccountHandler) Get(c *gin.Context) {
	accountID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	account, err := h.service.GetAccount(c.Request.Context(), accountID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, account)
}

// PostTransaction handles POST /accounts/:id/transactions.
func (h *AccountHandler) PostTransaction(c *gin.Context) {
	accountID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.PostTransactionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	posted, err := h.service.PostTransaction(c.Request.Context(),
		req.ToTransaction(accountID, h.GetUserID(c)))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.CreatedData(c, posted)
}

// Statement handles GET /accounts/:id/statement.
func (h *AccountHandler) Statement(c *gin.Context) {
	accountID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.StatementRequest
	if !h.BindQuery(c, &req) {
		return
	}

	filter, err := req.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	statement, err := h.service.GetStatement(c.Request.Context(), accountID, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, statement)
}

// Replay handles POST /accounts/:id/replay.
//
// Rebuilds the cached balance and per-transaction snapshots from the
// ledger and reports what changed.
func (h *AccountHandler) Replay(c *gin.Context) {
	accountID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	result, err := h.service.ReplayAccount(c.Request.Context(), accountID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, result)
}

// RecalculateAll handles POST /accounts/recalculate.
func (h *AccountHandler) RecalculateAll(c *gin.Context) {
	var req dto.ListAccountsRequest
	if !h.BindQuery(c, &req) {
		return
	}

	filter, err := req.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	summary, err := h.service.RecalculateAllBalances(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, summary)
}

// ListPayments handles GET /payments.
func (h *AccountHandler) ListPayments(c *gin.Context) {
	var req dto.ListPaymentsRequest
	if !h.BindQuery(c, &req) {
		return
	}

	filter, err := req.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	items, total, err := h.service.ListPayments(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse[*accounts.Payment]{
		Items:      items,
		TotalCount: total,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	})
}

// CreatePayment handles POST /payments.
func (h *AccountHandler) CreatePayment(c *gin.Context) {
	var req dto.CreatePaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	payment, err := req.ToEntity()
	if err != nil {
		h.Error(c, err)
		return
	}
	payment.CreatedBy = h.GetUserID(c)

	if err := h.service.CreatePayment(c.Request.Context(), payment); err != nil {
		h.Error(c, err)
		return
	}

	h.CreatedData(c, payment)
}

// GetPayment handles GET /payments/:id.
func (h *AccountHandler) GetPayment(c *gin.Context) {
	paymentID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	payment, err := h.service.GetPayment(c.Request.Context(), paymentID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, payment)
}

// CompletePayment handles POST /payments/:id/complete.
func (h *AccountHandler) CompletePayment(c *gin.Context) {
	paymentID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	payment, err := h.service.CompletePayment(c.Request.Context(), paymentID, h.GetUserID(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, payment)
}

// CancelPayment handles POST /payments/:id/cancel.
func (h *AccountHandler) CancelPayment(c *gin.Context) {
	paymentID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.CancelPayment(c.Request.Context(), paymentID); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "payment cancelled")
}
