// Package stockcount provides the StockCount document: a physical inventory
// count reconciled against historically reconstructed stock.
package stockcount

import (
	"context"
	"fmt"
	"time"

	"mesa/internal/core/apperror"
	"mesa/internal/core/entity"
	"mesa/internal/core/id"
	"mesa/internal/core/types"
)

// Status represents the lifecycle state of a stock count.
type Status string

const (
	StatusPlanning        Status = "planning"
	StatusInProgress      Status = "in_progress"
	StatusPendingApproval Status = "pending_approval"
	StatusCompleted       Status = "completed"
	StatusCancelled       Status = "cancelled"
)

// IsActive reports whether the count still blocks a new count on the
// same warehouse.
func (s Status) IsActive() bool {
	switch s {
	case StatusPlanning, StatusInProgress, StatusPendingApproval:
		return true
	}
	return false
}

// StockCount represents a stock count document.
//
// The document freezes a cutoff instant (count date + count time). System
// quantities on its items are reconstructed from the movement ledger as of
// that instant, never read from the live balance cache, so counts started
// in the evening for "stock as of 14:00" compare against 14:00 stock even
// while sales keep posting movements.
type StockCount struct {
	entity.Document

	WarehouseID id.ID  `db:"warehouse_id" json:"warehouseId"`
	Status      Status `db:"status" json:"status"`

	// CountDate is the business date being counted
	CountDate time.Time `db:"count_date" json:"countDate"`

	// CountTime is the cutoff time of day in "HH:MM" (warehouse local)
	CountTime string `db:"count_time" json:"countTime"`

	CountedBy  string     `db:"counted_by" json:"countedBy,omitempty"`
	ApprovedBy *string    `db:"approved_by" json:"approvedBy,omitempty"`
	ApprovedAt *time.Time `db:"approved_at" json:"approvedAt,omitempty"`

	Notes string `db:"notes" json:"notes,omitempty"`

	// Totals (calculated)
	TotalItems    int            `db:"total_items" json:"totalItems"`
	CountedItems  int            `db:"counted_items" json:"countedItems"`
	TotalSurplus  types.Quantity `db:"total_surplus" json:"totalSurplus"`
	TotalShortage types.Quantity `db:"total_shortage" json:"totalShortage"`

	Items []Item `db:"-" json:"items"`
}

// Item represents one material line in a stock count.
type Item struct {
	LineID     id.ID `db:"line_id" json:"lineId"`
	LineNo     int   `db:"line_no" json:"lineNo"`
	MaterialID id.ID `db:"material_id" json:"materialId"`

	// SystemStock is the reconstructed quantity at the document cutoff,
	// clamped to zero
	SystemStock types.Quantity `db:"system_stock" json:"systemStock"`

	// PreClampStock is the raw signed reconstruction result. Negative
	// values flag ledger anomalies to the person counting.
	PreClampStock types.Quantity `db:"pre_clamp_stock" json:"preClampStock"`

	CountedStock *types.Quantity `db:"counted_stock" json:"countedStock,omitempty"`

	// Difference = CountedStock - SystemStock, set when counted
	Difference types.Quantity `db:"difference" json:"difference"`

	// Reason explains the discrepancy (required for large differences)
	Reason *string `db:"reason" json:"reason,omitempty"`

	// IsManuallyAdded marks items added after the initial seeding
	IsManuallyAdded bool `db:"is_manually_added" json:"isManuallyAdded"`

	IsCounted bool       `db:"is_counted" json:"isCounted"`
	CountedAt *time.Time `db:"counted_at" json:"countedAt,omitempty"`
	CountedBy *string    `db:"counted_by" json:"countedBy,omitempty"`
}

// AdjustmentType classifies the direction of an approval adjustment.
type AdjustmentType string

const (
	AdjustmentIncrease AdjustmentType = "increase"
	AdjustmentDecrease AdjustmentType = "decrease"
)

// Adjustment is the audit record created per discrepancy during approval.
// One row per item whose counted quantity differed from the system quantity.
type Adjustment struct {
	ID           id.ID `db:"id" json:"id"`
	StockCountID id.ID `db:"stock_count_id" json:"stockCountId"`
	MaterialID   id.ID `db:"material_id" json:"materialId"`
	WarehouseID  id.ID `db:"warehouse_id" json:"warehouseId"`

	Type AdjustmentType `db:"type" json:"type"`

	// Quantity is the absolute size of the correction
	Quantity types.Quantity `db:"quantity" json:"quantity"`

	// PreviousStock is the live balance at approval time (not the
	// reconstructed system stock)
	PreviousStock types.Quantity `db:"previous_stock" json:"previousStock"`
	NewStock      types.Quantity `db:"new_stock" json:"newStock"`

	// MovementLineID links to the ledger entry this adjustment posted
	MovementLineID *id.ID `db:"movement_line_id" json:"movementLineId,omitempty"`

	CreatedBy string    `db:"created_by" json:"createdBy,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewStockCount creates a stock count in planning status.
func NewStockCount(warehouseID id.ID, countDate time.Time, countTime string) *StockCount {
	return &StockCount{
		Document:    entity.NewDocument(),
		WarehouseID: warehouseID,
		Status:      StatusPlanning,
		CountDate:   countDate,
		CountTime:   countTime,
		Items:       make([]Item, 0),
	}
}

// CutoffDateTime combines CountDate and CountTime into the cutoff instant.
func (sc *StockCount) CutoffDateTime() (time.Time, error) {
	t, err := time.Parse("15:04", sc.CountTime)
	if err != nil {
		return time.Time{}, apperror.NewValidation("count time must be in HH:MM format").
			WithDetail("field", "countTime").
			WithDetail("value", sc.CountTime)
	}

	d := sc.CountDate
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), 0, 0, d.Location()), nil
}

// Validate implements entity.Validatable.
func (sc *StockCount) Validate(ctx context.Context) error {
	if err := sc.Document.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(sc.WarehouseID) {
		return apperror.NewValidation("warehouse is required").
			WithDetail("field", "warehouseId")
	}

	if sc.CountDate.IsZero() {
		return apperror.NewValidation("count date is required").
			WithDetail("field", "countDate")
	}

	cutoff, err := sc.CutoffDateTime()
	if err != nil {
		return err
	}
	if cutoff.After(time.Now()) {
		return apperror.NewValidation("count cutoff cannot be in the future").
			WithDetail("cutoff", cutoff.Format(time.RFC3339))
	}

	return nil
}

// AddItem appends a material line. Duplicate materials are rejected.
func (sc *StockCount) AddItem(materialID id.ID, systemStock, preClamp types.Quantity, manual bool) (*Item, error) {
	for _, it := range sc.Items {
		if it.MaterialID == materialID {
			return nil, apperror.NewDuplicate("stock count item", "material", materialID.String())
		}
	}

	item := Item{
		LineID:          id.New(),
		LineNo:          len(sc.Items) + 1,
		MaterialID:      materialID,
		SystemStock:     systemStock,
		PreClampStock:   preClamp,
		IsManuallyAdded: manual,
	}
	sc.Items = append(sc.Items, item)
	sc.recalculateTotals()

	return &sc.Items[len(sc.Items)-1], nil
}

// SetCountedStock records the physical count for a line.
func (sc *StockCount) SetCountedStock(lineNo int, counted types.Quantity, countedBy string, reason *string) error {
	if lineNo < 1 || lineNo > len(sc.Items) {
		return apperror.NewValidation("invalid line number").
			WithDetail("lineNo", lineNo)
	}
	if counted.IsNegative() {
		return apperror.NewValidation("counted stock cannot be negative").
			WithDetail("lineNo", lineNo)
	}

	idx := lineNo - 1
	item := &sc.Items[idx]

	item.CountedStock = &counted
	item.Difference = counted - item.SystemStock
	item.Reason = reason
	item.IsCounted = true
	now := time.Now().UTC()
	item.CountedAt = &now
	item.CountedBy = &countedBy

	sc.recalculateTotals()
	return nil
}

// FindItemByMaterial returns the line for a material, or nil.
func (sc *StockCount) FindItemByMaterial(materialID id.ID) *Item {
	for i := range sc.Items {
		if sc.Items[i].MaterialID == materialID {
			return &sc.Items[i]
		}
	}
	return nil
}

func (sc *StockCount) recalculateTotals() {
	sc.TotalItems = len(sc.Items)
	sc.CountedItems = 0
	sc.TotalSurplus = 0
	sc.TotalShortage = 0

	for _, it := range sc.Items {
		if !it.IsCounted {
			continue
		}
		sc.CountedItems++
		if it.Difference.IsPositive() {
			sc.TotalSurplus += it.Difference
		} else if it.Difference.IsNegative() {
			sc.TotalShortage += it.Difference.Abs()
		}
	}
}

// --- Lifecycle transitions ---

// Start moves the count to in_progress.
func (sc *StockCount) Start() error {
	if sc.Status != StatusPlanning {
		return invalidTransition(sc.Status, StatusInProgress)
	}
	sc.Status = StatusInProgress
	return nil
}

// SubmitForApproval moves the count to pending_approval.
// Every item must be counted first.
func (sc *StockCount) SubmitForApproval() error {
	if sc.Status != StatusInProgress {
		return invalidTransition(sc.Status, StatusPendingApproval)
	}

	for _, it := range sc.Items {
		if !it.IsCounted {
			return apperror.NewInvalidState("all items must be counted before submitting").
				WithDetail("lineNo", it.LineNo).
				WithDetail("materialId", it.MaterialID)
		}
	}

	sc.Status = StatusPendingApproval
	return nil
}

// Reject returns a pending count to in_progress for recounting.
func (sc *StockCount) Reject() error {
	if sc.Status != StatusPendingApproval {
		return invalidTransition(sc.Status, StatusInProgress)
	}
	sc.Status = StatusInProgress
	return nil
}

// MarkCompleted finalizes an approved count. Callers must run the
// reconciliation first; this only flips state.
func (sc *StockCount) MarkCompleted(approvedBy string) error {
	if sc.Status != StatusPendingApproval {
		return invalidTransition(sc.Status, StatusCompleted)
	}
	sc.Status = StatusCompleted
	now := time.Now().UTC()
	sc.ApprovedAt = &now
	sc.ApprovedBy = &approvedBy
	return nil
}

// Cancel abandons the count. Completed counts cannot be cancelled.
func (sc *StockCount) Cancel() error {
	if sc.Status == StatusCompleted {
		return apperror.NewInvalidState("completed stock count cannot be cancelled")
	}
	if sc.Status == StatusCancelled {
		return nil
	}
	sc.Status = StatusCancelled
	return nil
}

// CanModifyItems reports whether item lines may still change.
func (sc *StockCount) CanModifyItems() error {
	switch sc.Status {
	case StatusPlanning, StatusInProgress:
		return nil
	}
	return apperror.NewInvalidState(
		fmt.Sprintf("stock count in %s status does not accept item changes", sc.Status),
	)
}

func invalidTransition(from, to Status) error {
	return apperror.NewInvalidState(
		fmt.Sprintf("cannot transition stock count from %s to %s", from, to),
	).WithDetail("from", string(from)).WithDetail("to", string(to))
}
