package handlers

import (
	"github.com/gin-gonic/gin"

	"mesa/internal/core/id"
	"mesa/internal/domain/ledger/stock"
	"mesa/internal/infrastructure/http/v1/dto"
)

// StockHandler serves stock balances, the movement ledger, and historical
// reconstruction queries.
type StockHandler struct {
	*BaseHandler
	service *stock.Service
}

// NewStockHandler creates a stock handler.
func NewStockHandler(base *BaseHandler, service *stock.Service) *StockHandler {
	return &StockHandler{BaseHandler: base, service: service}
}

// RegisterRoutes registers stock routes on the group.
func (h *StockHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/movements", h.RecordMovements)
	rg.GET("/warehouses/:id/balances", h.WarehouseBalances)
	rg.GET("/warehouses/:id/historical", h.HistoricalStock)
	rg.GET("/materials/:id/balance", h.MaterialBalance)
	rg.GET("/materials/:id/availability", h.MaterialAvailability)
	rg.GET("/materials/:id/movements", h.MovementHistory)
	rg.GET("/turnover", h.Turnover)
	rg.POST("/recalculate", h.Recalculate)
}

// RecordMovements handles POST /stock/movements.
func (h *StockHandler) RecordMovements(c *gin.Context) {
	var req dto.RecordMovementsRequest
	if !h.BindJSON(c, &req) {
		return
	}

	movements, err := req.ToMovements(h.GetUserID(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	recorded, err := h.service.RecordMovements(c.Request.Context(), movements,
		stock.RecordOptions{AllowNegative: req.AllowNegative})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.CreatedData(c, recorded)
}

// WarehouseBalances handles GET /stock/warehouses/:id/balances.
func (h *StockHandler) WarehouseBalances(c *gin.Context) {
	warehouseID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	balances, err := h.service.GetWarehouseStock(c.Request.Context(), warehouseID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, balances)
}

// HistoricalStock handles GET /stock/warehouses/:id/historical.
//
// Reconstructs stock at the given cutoff from the movement ledger. With a
// materialId parameter it returns the single-material result, otherwise the
// whole warehouse.
func (h *StockHandler) HistoricalStock(c *gin.Context) {
	warehouseID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.HistoricalStockRequest
	if !h.BindQuery(c, &req) {
		return
	}

	cutoff, err := req.CutoffTime()
	if err != nil {
		h.Error(c, err)
		return
	}

	if req.MaterialID != "" {
		materialID, err := dto.ParseIDField(req.MaterialID, "materialId")
		if err != nil {
			h.Error(c, err)
			return
		}

		result, err := h.service.CalculateMaterialStockAtTime(c.Request.Context(), materialID, warehouseID, cutoff)
		if err != nil {
			h.Error(c, err)
			return
		}
		h.OK(c, result)
		return
	}

	results, err := h.service.CalculateStockAtTime(c.Request.Context(), warehouseID, cutoff)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, results)
}

// MaterialBalance handles GET /stock/materials/:id/balance.
func (h *StockHandler) MaterialBalance(c *gin.Context) {
	materialID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	warehouseID, err := dto.ParseIDField(c.Query("warehouseId"), "warehouseId")
	if err != nil {
		h.Error(c, err)
		return
	}

	balance, err := h.service.GetBalance(c.Request.Context(), materialID, warehouseID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, balance)
}

// MaterialAvailability handles GET /stock/materials/:id/availability.
func (h *StockHandler) MaterialAvailability(c *gin.Context) {
	materialID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	available, err := h.service.GetMaterialAvailability(c.Request.Context(), materialID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"materialId": materialID, "available": available})
}

// MovementHistory handles GET /stock/materials/:id/movements.
func (h *StockHandler) MovementHistory(c *gin.Context) {
	materialID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.MovementHistoryRequest
	if !h.BindQuery(c, &req) {
		return
	}

	filter, err := req.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	movements, err := h.service.GetMovementHistory(c.Request.Context(), materialID, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, movements)
}

// Turnover handles GET /stock/turnover.
func (h *StockHandler) Turnover(c *gin.Context) {
	var req dto.TurnoverRequest
	if !h.BindQuery(c, &req) {
		return
	}

	filter, err := req.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	report, err := h.service.GetStockReport(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, report)
}

// Recalculate handles POST /stock/recalculate.
func (h *StockHandler) Recalculate(c *gin.Context) {
	var req dto.RecalculateBalancesRequest
	if !h.BindJSON(c, &req) {
		return
	}

	var warehouseID, materialID *id.ID
	if req.WarehouseID != nil {
		parsed, err := dto.ParseIDField(*req.WarehouseID, "warehouseId")
		if err != nil {
			h.Error(c, err)
			return
		}
		warehouseID = &parsed
	}
	if req.MaterialID != nil {
		parsed, err := dto.ParseIDField(*req.MaterialID, "materialId")
		if err != nil {
			h.Error(c, err)
			return
		}
		materialID = &parsed
	}

	if err := h.service.RecalculateBalances(c.Request.Context(), warehouseID, materialID); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "balances recalculated")
}
