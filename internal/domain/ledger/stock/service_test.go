package stock

import (
	"context"
	"testing"
	"time"

	"mesa/internal/core/apperror"
	"mesa/internal/core/entity"
	"mesa/internal/core/id"
	"mesa/internal/core/types"
)

func TestRecordMovements_Validation(t *testing.T) {
	svc := NewService(newFakeRepo(), nil, fakeTxManager{})
	ctx := context.Background()
	now := time.Now().UTC()

	valid := entity.NewStockMovement(id.New(), id.New(), entity.MovementPurchase, qty(5), now)

	tests := []struct {
		name   string
		mutate func(m *entity.StockMovement)
	}{
		{"unknown type", func(m *entity.StockMovement) { m.Type = "teleport" }},
		{"zero quantity", func(m *entity.StockMovement) { m.Quantity = 0 }},
		{"negative quantity", func(m *entity.StockMovement) { m.Quantity = qty(-1) }},
		{"nil material", func(m *entity.StockMovement) { m.MaterialID = id.Nil() }},
		{"nil warehouse", func(m *entity.StockMovement) { m.WarehouseID = id.Nil() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := valid
			tt.mutate(&m)
			_, err := svc.RecordMovements(ctx, []entity.StockMovement{m}, RecordOptions{})
			if !apperror.IsValidation(err) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestRecordMovements_EmptyBatchIsNoop(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, fakeTxManager{})

	recorded, err := svc.RecordMovements(context.Background(), nil, RecordOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if recorded != nil || len(repo.created) != 0 {
		t.Error("empty batch must not touch storage")
	}
}

func TestRecordMovements_SnapshotsAndBalance(t *testing.T) {
	material := id.New()
	warehouse := id.New()

	repo := newFakeRepo()
	repo.setBalance(entity.MaterialStock{
		MaterialID:   material,
		WarehouseID:  warehouse,
		CurrentStock: qty(10),
		AverageCost:  types.NewMoney(2),
	})

	svc := NewService(repo, nil, fakeTxManager{})

	in := entity.NewStockMovement(material, warehouse, entity.MovementPurchase, qty(5), time.Now().UTC())
	in.UnitCost = types.NewMoney(2)

	recorded, err := svc.RecordMovements(context.Background(), []entity.StockMovement{in}, RecordOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recorded) != 1 {
		t.Fatalf("expected 1 recorded movement, got %d", len(recorded))
	}

	m := recorded[0]
	if m.StockBefore != qty(10) || m.StockAfter != qty(15) {
		t.Errorf("snapshots = %v -> %v, want 10 -> 15", m.StockBefore.Float64(), m.StockAfter.Float64())
	}
	if !m.TotalCost.Equal(types.NewMoney(10)) {
		t.Errorf("total cost = %v, want 10", m.TotalCost)
	}

	balance, err := repo.GetBalance(context.Background(), material, warehouse)
	if err != nil {
		t.Fatalf("balance read: %v", err)
	}
	if balance.CurrentStock != qty(15) {
		t.Errorf("cached balance = %v, want 15", balance.CurrentStock.Float64())
	}
	if len(repo.created) != 1 {
		t.Errorf("expected 1 ledger insert, got %d", len(repo.created))
	}
}

func TestRecordMovements_InsufficientStock(t *testing.T) {
	material := id.New()
	warehouse := id.New()

	repo := newFakeRepo()
	repo.setBalance(entity.MaterialStock{
		MaterialID:   material,
		WarehouseID:  warehouse,
		CurrentStock: qty(3),
		AverageCost:  types.NewMoney(1),
	})

	svc := NewService(repo, nil, fakeTxManager{})
	out := entity.NewStockMovement(material, warehouse, entity.MovementConsumption, qty(5), time.Now().UTC())

	_, err := svc.RecordMovements(context.Background(), []entity.StockMovement{out}, RecordOptions{})
	if err == nil {
		t.Fatal("expected insufficient stock error")
	}
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != apperror.CodeInsufficientStock {
		t.Errorf("unexpected error: %v", err)
	}
	if len(repo.created) != 0 {
		t.Error("failed batch must not write ledger entries")
	}
}

func TestRecordMovements_AllowNegativeSkipsCheck(t *testing.T) {
	material := id.New()
	warehouse := id.New()

	repo := newFakeRepo()
	repo.setBalance(entity.MaterialStock{
		MaterialID:   material,
		WarehouseID:  warehouse,
		CurrentStock: qty(3),
		AverageCost:  types.NewMoney(1),
	})

	svc := NewService(repo, nil, fakeTxManager{})
	out := entity.NewStockMovement(material, warehouse, entity.MovementConsumption, qty(5), time.Now().UTC())

	recorded, err := svc.RecordMovements(context.Background(), []entity.StockMovement{out}, RecordOptions{AllowNegative: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if recorded[0].StockAfter != qty(-2) {
		t.Errorf("stock after = %v, want -2", recorded[0].StockAfter.Float64())
	}
}

func TestRecordMovements_WeightedAverageCost(t *testing.T) {
	material := id.New()
	warehouse := id.New()

	// 10 units at 2.00 on hand, 10 more at 4.00 incoming: average moves to 3.00
	repo := newFakeRepo()
	repo.setBalance(entity.MaterialStock{
		MaterialID:   material,
		WarehouseID:  warehouse,
		CurrentStock: qty(10),
		AverageCost:  types.NewMoney(2),
	})

	svc := NewService(repo, nil, fakeTxManager{})

	in := entity.NewStockMovement(material, warehouse, entity.MovementPurchase, qty(10), time.Now().UTC())
	in.UnitCost = types.NewMoney(4)

	if _, err := svc.RecordMovements(context.Background(), []entity.StockMovement{in}, RecordOptions{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	balance, _ := repo.GetBalance(context.Background(), material, warehouse)
	if !balance.AverageCost.Equal(types.NewMoney(3)) {
		t.Errorf("average cost = %v, want 3", balance.AverageCost)
	}
}

func TestRecordMovements_OutboundValuedAtAverage(t *testing.T) {
	material := id.New()
	warehouse := id.New()

	repo := newFakeRepo()
	repo.setBalance(entity.MaterialStock{
		MaterialID:   material,
		WarehouseID:  warehouse,
		CurrentStock: qty(20),
		AverageCost:  types.NewMoney(2.5),
	})

	svc := NewService(repo, nil, fakeTxManager{})

	out := entity.NewStockMovement(material, warehouse, entity.MovementConsumption, qty(4), time.Now().UTC())
	// Caller-supplied cost on an outbound entry is ignored
	out.UnitCost = types.NewMoney(99)

	recorded, err := svc.RecordMovements(context.Background(), []entity.StockMovement{out}, RecordOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !recorded[0].UnitCost.Equal(types.NewMoney(2.5)) {
		t.Errorf("unit cost = %v, want 2.5", recorded[0].UnitCost)
	}
	if !recorded[0].TotalCost.Equal(types.NewMoney(10)) {
		t.Errorf("total cost = %v, want 10", recorded[0].TotalCost)
	}
}

func TestRecordMovements_InboundWithoutCostKeepsAverage(t *testing.T) {
	material := id.New()
	warehouse := id.New()

	repo := newFakeRepo()
	repo.setBalance(entity.MaterialStock{
		MaterialID:   material,
		WarehouseID:  warehouse,
		CurrentStock: qty(10),
		AverageCost:  types.NewMoney(7),
	})

	svc := NewService(repo, nil, fakeTxManager{})

	in := entity.NewStockMovement(material, warehouse, entity.MovementTransferIn, qty(5), time.Now().UTC())

	recorded, err := svc.RecordMovements(context.Background(), []entity.StockMovement{in}, RecordOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !recorded[0].UnitCost.Equal(types.NewMoney(7)) {
		t.Errorf("unit cost = %v, want running average 7", recorded[0].UnitCost)
	}

	balance, _ := repo.GetBalance(context.Background(), material, warehouse)
	if !balance.AverageCost.Equal(types.NewMoney(7)) {
		t.Errorf("average cost changed to %v", balance.AverageCost)
	}
}

func TestRecordMovements_FirstMovementInitializesBalance(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, fakeTxManager{})

	material := id.New()
	warehouse := id.New()
	in := entity.NewStockMovement(material, warehouse, entity.MovementPurchase, qty(12), time.Now().UTC())
	in.UnitCost = types.NewMoney(1.5)

	recorded, err := svc.RecordMovements(context.Background(), []entity.StockMovement{in}, RecordOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !recorded[0].StockBefore.IsZero() || recorded[0].StockAfter != qty(12) {
		t.Errorf("snapshots = %v -> %v, want 0 -> 12", recorded[0].StockBefore.Float64(), recorded[0].StockAfter.Float64())
	}

	balance, err := repo.GetBalance(context.Background(), material, warehouse)
	if err != nil {
		t.Fatalf("balance read: %v", err)
	}
	if !balance.AverageCost.Equal(types.NewMoney(1.5)) {
		t.Errorf("average cost = %v, want incoming cost 1.5", balance.AverageCost)
	}
}

func TestApplyCountAdjustment(t *testing.T) {
	material := id.New()
	warehouse := id.New()

	setup := func(current float64) (*fakeRepo, *Service) {
		repo := newFakeRepo()
		repo.setBalance(entity.MaterialStock{
			MaterialID:   material,
			WarehouseID:  warehouse,
			CurrentStock: qty(current),
			AverageCost:  types.NewMoney(2),
		})
		return repo, NewService(repo, nil, fakeTxManager{})
	}

	t.Run("matching count posts nothing", func(t *testing.T) {
		repo, svc := setup(10)
		m, err := svc.ApplyCountAdjustment(context.Background(), material, warehouse, qty(10), "u1", "count")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if m != nil {
			t.Error("expected nil movement for matching count")
		}
		if len(repo.created) != 0 {
			t.Error("no ledger writes expected")
		}
	})

	t.Run("shortage posts adjustment_out", func(t *testing.T) {
		repo, svc := setup(10)
		m, err := svc.ApplyCountAdjustment(context.Background(), material, warehouse, qty(7), "u1", "count")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if m.Type != entity.MovementAdjustmentOut {
			t.Errorf("type = %s, want adjustment_out", m.Type)
		}
		if m.Quantity != qty(3) {
			t.Errorf("quantity = %v, want 3", m.Quantity.Float64())
		}
		if m.StockBefore != qty(10) || m.StockAfter != qty(7) {
			t.Errorf("snapshots = %v -> %v, want 10 -> 7", m.StockBefore.Float64(), m.StockAfter.Float64())
		}

		balance, _ := repo.GetBalance(context.Background(), material, warehouse)
		if balance.CurrentStock != qty(7) {
			t.Errorf("balance = %v, want counted 7", balance.CurrentStock.Float64())
		}
	})

	t.Run("surplus posts adjustment_in", func(t *testing.T) {
		_, svc := setup(10)
		m, err := svc.ApplyCountAdjustment(context.Background(), material, warehouse, qty(14), "u1", "count")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if m.Type != entity.MovementAdjustmentIn {
			t.Errorf("type = %s, want adjustment_in", m.Type)
		}
		if m.Quantity != qty(4) {
			t.Errorf("quantity = %v, want 4", m.Quantity.Float64())
		}
	})

	t.Run("negative count rejected", func(t *testing.T) {
		_, svc := setup(10)
		_, err := svc.ApplyCountAdjustment(context.Background(), material, warehouse, qty(-1), "u1", "count")
		if !apperror.IsValidation(err) {
			t.Errorf("expected validation error, got %v", err)
		}
	})
}

func TestGetBalance_MissingRowReadsZero(t *testing.T) {
	svc := NewService(newFakeRepo(), nil, fakeTxManager{})

	material := id.New()
	warehouse := id.New()
	balance, err := svc.GetBalance(context.Background(), material, warehouse)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !balance.CurrentStock.IsZero() {
		t.Errorf("stock = %v, want 0", balance.CurrentStock.Float64())
	}
	if balance.MaterialID != material || balance.WarehouseID != warehouse {
		t.Error("zero balance must carry the requested dimensions")
	}
}

func TestGetMaterialAvailability_SumsWarehouses(t *testing.T) {
	material := id.New()

	repo := newFakeRepo()
	repo.setBalance(entity.MaterialStock{MaterialID: material, WarehouseID: id.New(), CurrentStock: qty(5), AvailableStock: qty(5)})
	repo.setBalance(entity.MaterialStock{MaterialID: material, WarehouseID: id.New(), CurrentStock: qty(3), AvailableStock: qty(2)})

	svc := NewService(repo, nil, fakeTxManager{})

	total, err := svc.GetMaterialAvailability(context.Background(), material)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != qty(7) {
		t.Errorf("availability = %v, want 7", total.Float64())
	}
}

func TestWeightedAverageCost(t *testing.T) {
	tests := []struct {
		name    string
		stock   types.Quantity
		avg     types.Money
		inQty   types.Quantity
		inCost  types.Money
		want    types.Money
	}{
		{"blend", qty(10), types.NewMoney(2), qty(10), types.NewMoney(4), types.NewMoney(3)},
		{"zero stock resets to incoming", qty(0), types.NewMoney(2), qty(5), types.NewMoney(9), types.NewMoney(9)},
		{"negative stock resets to incoming", qty(-5), types.NewMoney(2), qty(5), types.NewMoney(6), types.NewMoney(6)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := weightedAverageCost(tt.stock, tt.avg, tt.inQty, tt.inCost)
			if !got.Equal(tt.want) {
				t.Errorf("weightedAverageCost = %v, want %v", got, tt.want)
			}
		})
	}
}
