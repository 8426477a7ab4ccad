package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"mesa/internal/core/id"
	"mesa/internal/domain/documents/stockcount"
	"mesa/internal/infrastructure/http/v1/dto"
	"mesa/internal/infrastructure/storage/postgres"
)

// StockCountHandler serves the stock count document lifecycle.
type StockCountHandler struct {
	*BaseHandler
	service *stockcount.Service
	audit   *postgres.AuditService
}

// NewStockCountHandler creates a stock count handler.
func NewStockCountHandler(base *BaseHandler, service *stockcount.Service, audit *postgres.AuditService) *StockCountHandler {
	return &StockCountHandler{BaseHandler: base, service: service, audit: audit}
}

// RegisterRoutes registers stock count routes on the group. Approval
// changes stock, so it takes an extra guard middleware.
func (h *StockCountHandler) RegisterRoutes(rg *gin.RouterGroup, approveGuard gin.HandlerFunc) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/material-candidates", h.SearchMaterials)
	rg.GET("/:id", h.Get)
	rg.POST("/:id/items", h.AddMaterial)
	rg.PUT("/:id/items", h.RecordCount)
	rg.POST("/:id/start", h.Start)
	rg.POST("/:id/submit", h.Submit)
	rg.POST("/:id/approve", approveGuard, h.Approve)
	rg.POST("/:id/reject", h.Reject)
	rg.POST("/:id/cancel", h.Cancel)
	rg.GET("/:id/adjustments", h.GetAdjustments)

	if h.audit != nil {
		rg.GET("/:id/history", h.History)
	}
}

// List handles GET /stock-counts.
func (h *StockCountHandler) List(c *gin.Context) {
	var req dto.ListStockCountsRequest
	if !h.BindQuery(c, &req) {
		return
	}

	filter, err := req.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromListResult(result))
}

// Create handles POST /stock-counts.
//
// The response carries the seeded items so the client can render the count
// sheet without a second round trip.
func (h *StockCountHandler) Create(c *gin.Context) {
	var req dto.CreateStockCountRequest
	if !h.BindJSON(c, &req) {
		return
	}

	input, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}
	if input.CountedBy == "" {
		input.CountedBy = h.GetUserID(c)
	}

	doc, err := h.service.Create(c.Request.Context(), input)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.CreatedData(c, doc)
}

// Get handles GET /stock-counts/:id.
func (h *StockCountHandler) Get(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	doc, err := h.service.GetByID(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, doc)
}

// SearchMaterials handles GET /stock-counts/material-candidates. It backs
// the picker used when a counter finds something on the shelf that is not
// on the sheet yet.
func (h *StockCountHandler) SearchMaterials(c *gin.Context) {
	var req dto.SearchMaterialsRequest
	if !h.BindQuery(c, &req) {
		return
	}

	filter, err := req.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	candidates, err := h.service.SearchMaterials(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, candidates)
}

// AddMaterial handles POST /stock-counts/:id/items.
func (h *StockCountHandler) AddMaterial(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.AddMaterialRequest
	if !h.BindJSON(c, &req) {
		return
	}

	materialID, err := dto.ParseIDField(req.MaterialID, "materialId")
	if err != nil {
		h.Error(c, err)
		return
	}

	item, err := h.service.AddMaterial(c.Request.Context(), docID, materialID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.CreatedData(c, item)
}

// RecordCount handles PUT /stock-counts/:id/items.
func (h *StockCountHandler) RecordCount(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.RecordCountRequest
	if !h.BindJSON(c, &req) {
		return
	}

	materialID, err := dto.ParseIDField(req.MaterialID, "materialId")
	if err != nil {
		h.Error(c, err)
		return
	}

	err = h.service.RecordCount(c.Request.Context(), docID, materialID,
		req.Quantity(), h.GetUserID(c), req.Reason)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "count recorded")
}

// Start handles POST /stock-counts/:id/start.
func (h *StockCountHandler) Start(c *gin.Context) {
	h.transition(c, h.service.Start, "count started")
}

// Submit handles POST /stock-counts/:id/submit.
func (h *StockCountHandler) Submit(c *gin.Context) {
	h.transition(c, h.service.SubmitForApproval, "count submitted for approval")
}

// Reject handles POST /stock-counts/:id/reject.
func (h *StockCountHandler) Reject(c *gin.Context) {
	h.transition(c, h.service.Reject, "count returned for recounting")
}

// Cancel handles POST /stock-counts/:id/cancel.
func (h *StockCountHandler) Cancel(c *gin.Context) {
	h.transition(c, h.service.Cancel, "count cancelled")
}

// Approve handles POST /stock-counts/:id/approve.
func (h *StockCountHandler) Approve(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	result, err := h.service.Approve(c.Request.Context(), docID, h.GetUserID(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, result)
}

// GetAdjustments handles GET /stock-counts/:id/adjustments.
func (h *StockCountHandler) GetAdjustments(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	adjustments, err := h.service.GetAdjustments(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, adjustments)
}

// History handles GET /stock-counts/:id/history. The audit trail answers
// "who approved this count and what did the totals look like".
func (h *StockCountHandler) History(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	entries, err := h.audit.GetEntityHistory(c.Request.Context(), stockcount.EntityName, docID, 100)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, entries)
}

func (h *StockCountHandler) transition(c *gin.Context, fn func(ctx context.Context, docID id.ID) error, message string) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := fn(c.Request.Context(), docID); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, message)
}
