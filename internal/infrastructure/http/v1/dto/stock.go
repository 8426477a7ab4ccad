package dto

import (
	"time"

	"mesa/internal/core/apperror"
	"mesa/internal/core/entity"
	"mesa/internal/core/types"
	"mesa/internal/domain/ledger/stock"
)

// --- Request DTOs ---

type MovementLineRequest struct {
	MaterialID string     `json:"materialId" binding:"required"`
	Type       string     `json:"type" binding:"required"`
	Quantity   float64    `json:"quantity" binding:"required,gt=0"`
	UnitCost   *float64   `json:"unitCost,omitempty"`
	Date       *time.Time `json:"date,omitempty"`
	Reason     string     `json:"reason,omitempty"`
}

type RecordMovementsRequest struct {
	WarehouseID   string                `json:"warehouseId" binding:"required"`
	AllowNegative bool                  `json:"allowNegative"`
	Movements     []MovementLineRequest `json:"movements" binding:"required,min=1,dive"`
}

func (r *RecordMovementsRequest) ToMovements(userID string) ([]entity.StockMovement, error) {
	warehouseID, err := ParseIDField(r.WarehouseID, "warehouseId")
	if err != nil {
		return nil, err
	}

	movements := make([]entity.StockMovement, 0, len(r.Movements))
	for _, line := range r.Movements {
		materialID, err := ParseIDField(line.MaterialID, "materialId")
		if err != nil {
			return nil, err
		}

		date := time.Now().UTC()
		if line.Date != nil {
			date = *line.Date
		}

		m := entity.NewStockMovement(materialID, warehouseID,
			entity.MovementType(line.Type), types.NewQuantityFromFloat64(line.Quantity), date)
		m.UserID = userID
		m.Reason = line.Reason
		if line.UnitCost != nil {
			m.UnitCost = types.NewMoney(*line.UnitCost)
		}

		movements = append(movements, m)
	}

	return movements, nil
}

type MovementHistoryRequest struct {
	WarehouseID string `form:"warehouseId"`
	Type        string `form:"type"`
	FromDate    string `form:"fromDate"`
	ToDate      string `form:"toDate"`
	Limit       int    `form:"limit"`
	Offset      int    `form:"offset"`
}

func (r *MovementHistoryRequest) ToFilter() (stock.MovementFilter, error) {
	filter := stock.MovementFilter{
		Limit:  r.Limit,
		Offset: r.Offset,
	}

	if r.WarehouseID != "" {
		warehouseID, err := ParseIDField(r.WarehouseID, "warehouseId")
		if err != nil {
			return filter, err
		}
		filter.WarehouseID = &warehouseID
	}
	if r.Type != "" {
		movementType := entity.MovementType(r.Type)
		filter.Type = &movementType
	}

	var err error
	if filter.FromDate, err = parseDateParam(r.FromDate, "fromDate"); err != nil {
		return filter, err
	}
	if filter.ToDate, err = parseDateParam(r.ToDate, "toDate"); err != nil {
		return filter, err
	}

	return filter, nil
}

type TurnoverRequest struct {
	WarehouseID string `form:"warehouseId"`
	MaterialID  string `form:"materialId"`
	FromDate    string `form:"fromDate" binding:"required"`
	ToDate      string `form:"toDate" binding:"required"`
}

func (r *TurnoverRequest) ToFilter() (stock.TurnoverFilter, error) {
	filter := stock.TurnoverFilter{}

	if r.WarehouseID != "" {
		warehouseID, err := ParseIDField(r.WarehouseID, "warehouseId")
		if err != nil {
			return filter, err
		}
		filter.WarehouseID = &warehouseID
	}
	if r.MaterialID != "" {
		materialID, err := ParseIDField(r.MaterialID, "materialId")
		if err != nil {
			return filter, err
		}
		filter.MaterialID = &materialID
	}

	from, err := parseDateParam(r.FromDate, "fromDate")
	if err != nil {
		return filter, err
	}
	to, err := parseDateParam(r.ToDate, "toDate")
	if err != nil {
		return filter, err
	}
	filter.FromDate = *from
	filter.ToDate = *to

	return filter, nil
}

type HistoricalStockRequest struct {
	MaterialID string `form:"materialId"`
	Cutoff     string `form:"cutoff" binding:"required"`
}

func (r *HistoricalStockRequest) CutoffTime() (time.Time, error) {
	cutoff, err := parseDateParam(r.Cutoff, "cutoff")
	if err != nil {
		return time.Time{}, err
	}
	if cutoff == nil {
		return time.Time{}, apperror.NewValidation("cutoff is required").
			WithDetail("field", "cutoff")
	}
	return *cutoff, nil
}

type RecalculateBalancesRequest struct {
	WarehouseID *string `json:"warehouseId,omitempty"`
	MaterialID  *string `json:"materialId,omitempty"`
}
