package stockcount

import (
	"context"
	"testing"
	"time"

	"mesa/internal/core/apperror"
	"mesa/internal/core/id"
	"mesa/internal/core/types"
)

func qty(v float64) types.Quantity {
	return types.NewQuantityFromFloat64(v)
}

func draftCount() *StockCount {
	return NewStockCount(id.New(), time.Now().AddDate(0, 0, -1), "18:00")
}

func TestCutoffDateTime(t *testing.T) {
	date := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	sc := NewStockCount(id.New(), date, "14:30")

	cutoff, err := sc.CutoffDateTime()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2024, 1, 10, 14, 30, 0, 0, time.UTC)
	if !cutoff.Equal(want) {
		t.Errorf("cutoff = %v, want %v", cutoff, want)
	}
}

func TestCutoffDateTime_BadFormat(t *testing.T) {
	for _, value := range []string{"", "25:00", "9am", "14-30"} {
		sc := NewStockCount(id.New(), time.Now(), value)
		if _, err := sc.CutoffDateTime(); !apperror.IsValidation(err) {
			t.Errorf("count time %q: expected validation error, got %v", value, err)
		}
	}
}

func TestValidate_RejectsFutureCutoff(t *testing.T) {
	sc := NewStockCount(id.New(), time.Now().AddDate(0, 0, 1), "12:00")
	sc.Date = sc.CountDate
	if err := sc.Validate(context.Background()); !apperror.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestAddItem(t *testing.T) {
	sc := draftCount()
	material := id.New()

	item, err := sc.AddItem(material, qty(10), qty(10), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.LineNo != 1 {
		t.Errorf("line no = %d, want 1", item.LineNo)
	}
	if item.SystemStock != qty(10) {
		t.Errorf("system stock = %v, want 10", item.SystemStock.Float64())
	}
	if sc.TotalItems != 1 || sc.CountedItems != 0 {
		t.Errorf("totals = %d/%d, want 1/0", sc.CountedItems, sc.TotalItems)
	}

	if _, err := sc.AddItem(material, qty(5), qty(5), true); !apperror.IsDuplicate(err) {
		t.Errorf("expected duplicate error, got %v", err)
	}
}

func TestSetCountedStock(t *testing.T) {
	sc := draftCount()
	surplus := id.New()
	shortage := id.New()

	sc.AddItem(surplus, qty(10), qty(10), false)
	sc.AddItem(shortage, qty(8), qty(8), false)

	if err := sc.SetCountedStock(1, qty(12), "anna", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	reason := "spillage"
	if err := sc.SetCountedStock(2, qty(5), "anna", &reason); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first := sc.Items[0]
	if first.Difference != qty(2) || !first.IsCounted {
		t.Errorf("surplus line difference = %v, counted = %v", first.Difference.Float64(), first.IsCounted)
	}
	second := sc.Items[1]
	if second.Difference != qty(-3) {
		t.Errorf("shortage line difference = %v, want -3", second.Difference.Float64())
	}
	if second.Reason == nil || *second.Reason != "spillage" {
		t.Error("reason not stored")
	}

	if sc.CountedItems != 2 {
		t.Errorf("counted items = %d, want 2", sc.CountedItems)
	}
	if sc.TotalSurplus != qty(2) {
		t.Errorf("total surplus = %v, want 2", sc.TotalSurplus.Float64())
	}
	if sc.TotalShortage != qty(3) {
		t.Errorf("total shortage = %v, want 3 (absolute)", sc.TotalShortage.Float64())
	}
}

func TestSetCountedStock_Invalid(t *testing.T) {
	sc := draftCount()
	sc.AddItem(id.New(), qty(10), qty(10), false)

	if err := sc.SetCountedStock(0, qty(1), "u", nil); !apperror.IsValidation(err) {
		t.Errorf("line 0: expected validation error, got %v", err)
	}
	if err := sc.SetCountedStock(2, qty(1), "u", nil); !apperror.IsValidation(err) {
		t.Errorf("line out of range: expected validation error, got %v", err)
	}
	if err := sc.SetCountedStock(1, qty(-1), "u", nil); !apperror.IsValidation(err) {
		t.Errorf("negative count: expected validation error, got %v", err)
	}
}

func TestLifecycleTransitions(t *testing.T) {
	sc := draftCount()
	sc.AddItem(id.New(), qty(5), qty(5), false)

	if err := sc.SubmitForApproval(); !apperror.IsInvalidState(err) {
		t.Errorf("submit from planning: expected invalid state, got %v", err)
	}
	if err := sc.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if sc.Status != StatusInProgress {
		t.Fatalf("status = %s, want in_progress", sc.Status)
	}
	if err := sc.Start(); !apperror.IsInvalidState(err) {
		t.Errorf("double start: expected invalid state, got %v", err)
	}

	// Uncounted lines block submission
	if err := sc.SubmitForApproval(); !apperror.IsInvalidState(err) {
		t.Errorf("submit with uncounted lines: expected invalid state, got %v", err)
	}

	sc.SetCountedStock(1, qty(5), "u", nil)
	if err := sc.SubmitForApproval(); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if sc.Status != StatusPendingApproval {
		t.Fatalf("status = %s, want pending_approval", sc.Status)
	}

	if err := sc.Reject(); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if sc.Status != StatusInProgress {
		t.Fatalf("status after reject = %s, want in_progress", sc.Status)
	}

	sc.SubmitForApproval()
	if err := sc.MarkCompleted("chief"); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if sc.Status != StatusCompleted {
		t.Fatalf("status = %s, want completed", sc.Status)
	}
	if sc.ApprovedBy == nil || *sc.ApprovedBy != "chief" || sc.ApprovedAt == nil {
		t.Error("approval stamp missing")
	}

	if err := sc.Cancel(); !apperror.IsInvalidState(err) {
		t.Errorf("cancel completed: expected invalid state, got %v", err)
	}
}

func TestCancel(t *testing.T) {
	sc := draftCount()
	if err := sc.Cancel(); err != nil {
		t.Fatalf("cancel from planning: %v", err)
	}
	if sc.Status != StatusCancelled {
		t.Fatalf("status = %s, want cancelled", sc.Status)
	}
	// Cancelling twice is a no-op
	if err := sc.Cancel(); err != nil {
		t.Errorf("repeated cancel: %v", err)
	}
}

func TestCanModifyItems(t *testing.T) {
	sc := draftCount()
	if err := sc.CanModifyItems(); err != nil {
		t.Errorf("planning: %v", err)
	}
	sc.Start()
	if err := sc.CanModifyItems(); err != nil {
		t.Errorf("in progress: %v", err)
	}
	sc.Status = StatusPendingApproval
	if err := sc.CanModifyItems(); !apperror.IsInvalidState(err) {
		t.Errorf("pending approval: expected invalid state, got %v", err)
	}
}

func TestStatusIsActive(t *testing.T) {
	active := []Status{StatusPlanning, StatusInProgress, StatusPendingApproval}
	for _, s := range active {
		if !s.IsActive() {
			t.Errorf("%s should be active", s)
		}
	}
	for _, s := range []Status{StatusCompleted, StatusCancelled} {
		if s.IsActive() {
			t.Errorf("%s should not be active", s)
		}
	}
}
