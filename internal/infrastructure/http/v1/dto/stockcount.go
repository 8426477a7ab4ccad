package dto

import (
	"time"

	"mesa/internal/core/apperror"
	"mesa/internal/core/id"
	"mesa/internal/core/types"
	"mesa/internal/domain/catalogs/material"
	"mesa/internal/domain/documents/stockcount"
)

// --- Request DTOs ---

type CreateStockCountRequest struct {
	WarehouseID string    `json:"warehouseId" binding:"required"`
	CountDate   time.Time `json:"countDate" binding:"required"`
	CountTime   string    `json:"countTime,omitempty"`
	CountedBy   string    `json:"countedBy,omitempty"`
	Notes       string    `json:"notes,omitempty"`
}

func (r *CreateStockCountRequest) ToInput() (stockcount.CreateInput, error) {
	warehouseID, err := id.Parse(r.WarehouseID)
	if err != nil {
		return stockcount.CreateInput{}, apperror.NewValidation("invalid warehouse id").
			WithDetail("field", "warehouseId")
	}

	return stockcount.CreateInput{
		WarehouseID: warehouseID,
		CountDate:   r.CountDate,
		CountTime:   r.CountTime,
		CountedBy:   r.CountedBy,
		Notes:       r.Notes,
	}, nil
}

type AddMaterialRequest struct {
	MaterialID string `json:"materialId" binding:"required"`
}

type RecordCountRequest struct {
	MaterialID   string  `json:"materialId" binding:"required"`
	CountedStock float64 `json:"countedStock" binding:"gte=0"`
	Reason       *string `json:"reason,omitempty"`
}

func (r *RecordCountRequest) Quantity() types.Quantity {
	return types.NewQuantityFromFloat64(r.CountedStock)
}

type SearchMaterialsRequest struct {
	WarehouseID    string   `form:"warehouseId" binding:"required"`
	Query          string   `form:"query"`
	CategoryIDs    []string `form:"categoryIds"`
	SubCategoryIDs []string `form:"subCategoryIds"`
	Limit          int      `form:"limit"`
}

func (r *SearchMaterialsRequest) ToFilter() (material.SearchFilter, error) {
	warehouseID, err := id.Parse(r.WarehouseID)
	if err != nil {
		return material.SearchFilter{}, apperror.NewValidation("invalid warehouse id").
			WithDetail("field", "warehouseId")
	}

	categoryIDs, err := parseIDList(r.CategoryIDs, "categoryIds")
	if err != nil {
		return material.SearchFilter{}, err
	}
	subCategoryIDs, err := parseIDList(r.SubCategoryIDs, "subCategoryIds")
	if err != nil {
		return material.SearchFilter{}, err
	}

	return material.SearchFilter{
		WarehouseID:    warehouseID,
		Query:          r.Query,
		CategoryIDs:    categoryIDs,
		SubCategoryIDs: subCategoryIDs,
		Limit:          r.Limit,
	}, nil
}

func parseIDList(values []string, field string) ([]id.ID, error) {
	if len(values) == 0 {
		return nil, nil
	}

	ids := make([]id.ID, 0, len(values))
	for _, v := range values {
		parsed, err := id.Parse(v)
		if err != nil {
			return nil, apperror.NewValidation("invalid id").
				WithDetail("field", field).
				WithDetail("value", v)
		}
		ids = append(ids, parsed)
	}
	return ids, nil
}

type ListStockCountsRequest struct {
	WarehouseID string `form:"warehouseId"`
	Status      string `form:"status"`
	DateFrom    string `form:"dateFrom"`
	DateTo      string `form:"dateTo"`
	Search      string `form:"search"`
	OrderBy     string `form:"orderBy"`
	Limit       int    `form:"limit"`
	Offset      int    `form:"offset"`
}

func (r *ListStockCountsRequest) ToFilter() (stockcount.ListFilter, error) {
	filter := stockcount.ListFilter{}
	filter.ListFilter = listFilterFrom(r.Search, r.OrderBy, r.Limit, r.Offset)

	if r.WarehouseID != "" {
		warehouseID, err := id.Parse(r.WarehouseID)
		if err != nil {
			return filter, apperror.NewValidation("invalid warehouse id").
				WithDetail("field", "warehouseId")
		}
		filter.WarehouseID = &warehouseID
	}
	if r.Status != "" {
		status := stockcount.Status(r.Status)
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

// parseDateParam accepts "2006-01-02" or RFC 3339.
func parseDateParam(value, field string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return &t, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	return nil, apperror.NewValidation("invalid date").
		WithDetail("field", field).
		WithDetail("value", value)
}
