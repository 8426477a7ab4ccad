package stock

import (
	"context"
	"errors"
	"testing"
	"time"

	"mesa/internal/core/apperror"
	"mesa/internal/core/entity"
	"mesa/internal/core/id"
	"mesa/internal/core/types"
)

// fakeTxManager runs the callback directly, no transaction semantics.
type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// fakeRepo is an in-memory Repository for service tests.
type fakeRepo struct {
	movements []entity.StockMovement
	balances  map[[2]id.ID]entity.MaterialStock

	created   []entity.StockMovement
	upserted  []entity.MaterialStock
	fetchErr  error
	upsertErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{balances: make(map[[2]id.ID]entity.MaterialStock)}
}

func (r *fakeRepo) setBalance(b entity.MaterialStock) {
	r.balances[[2]id.ID{b.MaterialID, b.WarehouseID}] = b
}

func (r *fakeRepo) CreateMovements(ctx context.Context, movements []entity.StockMovement) error {
	r.created = append(r.created, movements...)
	return nil
}

func (r *fakeRepo) GetMovementsByWarehouseUntil(ctx context.Context, warehouseID id.ID, cutoff time.Time) ([]entity.StockMovement, error) {
	if r.fetchErr != nil {
		return nil, r.fetchErr
	}
	var out []entity.StockMovement
	for _, m := range r.movements {
		if m.WarehouseID == warehouseID && !m.Date.After(cutoff) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeRepo) GetMovementsUntil(ctx context.Context, materialID, warehouseID id.ID, cutoff time.Time) ([]entity.StockMovement, error) {
	if r.fetchErr != nil {
		return nil, r.fetchErr
	}
	var out []entity.StockMovement
	for _, m := range r.movements {
		if m.MaterialID == materialID && m.WarehouseID == warehouseID && !m.Date.After(cutoff) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeRepo) GetMovementHistory(ctx context.Context, materialID id.ID, filter MovementFilter) ([]entity.StockMovement, error) {
	var out []entity.StockMovement
	for _, m := range r.movements {
		if m.MaterialID == materialID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeRepo) GetBalance(ctx context.Context, materialID, warehouseID id.ID) (entity.MaterialStock, error) {
	b, ok := r.balances[[2]id.ID{materialID, warehouseID}]
	if !ok {
		return entity.MaterialStock{}, apperror.NewNotFound("balance", materialID)
	}
	return b, nil
}

func (r *fakeRepo) GetBalanceForUpdate(ctx context.Context, materialID, warehouseID id.ID) (entity.MaterialStock, error) {
	return r.GetBalance(ctx, materialID, warehouseID)
}

func (r *fakeRepo) GetBalancesByWarehouse(ctx context.Context, warehouseID id.ID, filter BalanceFilter) ([]entity.MaterialStock, error) {
	var out []entity.MaterialStock
	for _, b := range r.balances {
		if b.WarehouseID != warehouseID {
			continue
		}
		if filter.ExcludeZero && b.CurrentStock.IsZero() {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (r *fakeRepo) GetBalancesByMaterial(ctx context.Context, materialID id.ID) ([]entity.MaterialStock, error) {
	var out []entity.MaterialStock
	for _, b := range r.balances {
		if b.MaterialID == materialID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *fakeRepo) UpsertBalance(ctx context.Context, balance entity.MaterialStock) error {
	if r.upsertErr != nil {
		return r.upsertErr
	}
	r.upserted = append(r.upserted, balance)
	r.setBalance(balance)
	return nil
}

func (r *fakeRepo) GetTurnover(ctx context.Context, filter TurnoverFilter) (Turnover, error) {
	return Turnover{}, nil
}

func (r *fakeRepo) RecalculateBalances(ctx context.Context, warehouseID, materialID *id.ID) error {
	return nil
}

var _ Repository = (*fakeRepo)(nil)

func qty(v float64) types.Quantity {
	return types.NewQuantityFromFloat64(v)
}

func movementAt(materialID, warehouseID id.ID, mt entity.MovementType, quantity float64, date time.Time) entity.StockMovement {
	return entity.NewStockMovement(materialID, warehouseID, mt, qty(quantity), date)
}

func TestCalculateStockAtTime_FoldsSignedQuantities(t *testing.T) {
	warehouse := id.New()
	flour := id.New()
	oil := id.New()

	base := time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)
	cutoff := base.Add(6 * time.Hour)

	repo := newFakeRepo()
	repo.movements = []entity.StockMovement{
		movementAt(flour, warehouse, entity.MovementPurchase, 50, base),
		movementAt(flour, warehouse, entity.MovementConsumption, 12.5, base.Add(time.Hour)),
		movementAt(flour, warehouse, entity.MovementConsumption, 7.5, base.Add(2*time.Hour)),
		movementAt(oil, warehouse, entity.MovementPurchase, 10, base.Add(time.Hour)),
		// After the cutoff, must not contribute
		movementAt(flour, warehouse, entity.MovementPurchase, 100, cutoff.Add(time.Minute)),
	}

	svc := NewService(repo, nil, fakeTxManager{})

	result, err := svc.CalculateStockAtTime(context.Background(), warehouse, cutoff)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("expected 2 materials, got %d", len(result))
	}

	byMaterial := make(map[id.ID]HistoricalStock)
	for _, hs := range result {
		byMaterial[hs.MaterialID] = hs
	}

	flourStock := byMaterial[flour]
	if flourStock.Stock != qty(30) {
		t.Errorf("flour stock = %v, want 30", flourStock.Stock.Float64())
	}
	if flourStock.MovementCount != 3 {
		t.Errorf("flour movement count = %d, want 3", flourStock.MovementCount)
	}
	if flourStock.Clamped {
		t.Error("flour should not be clamped")
	}
	if flourStock.LastMovementAt == nil || !flourStock.LastMovementAt.Equal(base.Add(2*time.Hour)) {
		t.Errorf("flour last movement = %v, want %v", flourStock.LastMovementAt, base.Add(2*time.Hour))
	}

	oilStock := byMaterial[oil]
	if oilStock.Stock != qty(10) {
		t.Errorf("oil stock = %v, want 10", oilStock.Stock.Float64())
	}
}

func TestCalculateStockAtTime_ClampsNegativeFold(t *testing.T) {
	warehouse := id.New()
	material := id.New()
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	repo := newFakeRepo()
	repo.movements = []entity.StockMovement{
		movementAt(material, warehouse, entity.MovementPurchase, 5, base),
		movementAt(material, warehouse, entity.MovementConsumption, 8, base.Add(time.Hour)),
	}

	svc := NewService(repo, nil, fakeTxManager{})

	result, err := svc.CalculateStockAtTime(context.Background(), warehouse, base.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result) != 1 {
		t.Fatalf("expected 1 material, got %d", len(result))
	}

	hs := result[0]
	if !hs.Stock.IsZero() {
		t.Errorf("clamped stock = %v, want 0", hs.Stock.Float64())
	}
	if hs.PreClampStock != qty(-3) {
		t.Errorf("pre-clamp stock = %v, want -3", hs.PreClampStock.Float64())
	}
	if !hs.Clamped {
		t.Error("expected Clamped flag")
	}
}

func TestCalculateStockAtTime_DeterministicOrder(t *testing.T) {
	warehouse := id.New()
	base := time.Date(2024, 5, 2, 12, 0, 0, 0, time.UTC)

	repo := newFakeRepo()
	for i := 0; i < 10; i++ {
		repo.movements = append(repo.movements,
			movementAt(id.New(), warehouse, entity.MovementPurchase, 1, base))
	}

	svc := NewService(repo, nil, fakeTxManager{})

	result, err := svc.CalculateStockAtTime(context.Background(), warehouse, base.Add(time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 1; i < len(result); i++ {
		if result[i-1].MaterialID.String() >= result[i].MaterialID.String() {
			t.Fatalf("result not sorted at index %d", i)
		}
	}
}

func TestCalculateStockAtTime_InvalidInput(t *testing.T) {
	svc := NewService(newFakeRepo(), nil, fakeTxManager{})
	ctx := context.Background()
	past := time.Now().Add(-time.Hour)

	tests := []struct {
		name        string
		warehouseID id.ID
		cutoff      time.Time
	}{
		{"nil warehouse", id.Nil(), past},
		{"zero cutoff", id.New(), time.Time{}},
		{"future cutoff", id.New(), time.Now().Add(24 * time.Hour)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CalculateStockAtTime(ctx, tt.warehouseID, tt.cutoff)
			if !apperror.IsValidation(err) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestCalculateMaterialStockAtTime_NoMovementsReadsZero(t *testing.T) {
	svc := NewService(newFakeRepo(), nil, fakeTxManager{})

	material := id.New()
	warehouse := id.New()
	hs, err := svc.CalculateMaterialStockAtTime(context.Background(), material, warehouse, time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !hs.Stock.IsZero() || hs.MovementCount != 0 || hs.Clamped {
		t.Errorf("expected zero snapshot, got %+v", hs)
	}
	if hs.MaterialID != material || hs.WarehouseID != warehouse {
		t.Error("snapshot must carry the requested dimensions")
	}
}

func TestCalculateMaterialStockAtTime_RequiresMaterial(t *testing.T) {
	svc := NewService(newFakeRepo(), nil, fakeTxManager{})

	_, err := svc.CalculateMaterialStockAtTime(context.Background(), id.Nil(), id.New(), time.Now().Add(-time.Minute))
	if !apperror.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestCalculateStockAtTime_RepoErrorPropagates(t *testing.T) {
	repo := newFakeRepo()
	repo.fetchErr = errors.New("connection reset")
	svc := NewService(repo, nil, fakeTxManager{})

	_, err := svc.CalculateStockAtTime(context.Background(), id.New(), time.Now().Add(-time.Minute))
	if err == nil {
		t.Fatal("expected error")
	}
}

type fakeWarehouses struct {
	known map[id.ID]bool
}

func (w *fakeWarehouses) Exists(ctx context.Context, warehouseID id.ID) (bool, error) {
	return w.known[warehouseID], nil
}

func TestCalculateStockAtTime_UnknownWarehouse(t *testing.T) {
	warehouseID := id.New()
	svc := NewService(newFakeRepo(), &fakeWarehouses{known: map[id.ID]bool{}}, fakeTxManager{})

	_, err := svc.CalculateStockAtTime(context.Background(), warehouseID, time.Now().Add(-time.Hour))
	if !apperror.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}

	known := &fakeWarehouses{known: map[id.ID]bool{warehouseID: true}}
	svc = NewService(newFakeRepo(), known, fakeTxManager{})
	if _, err := svc.CalculateStockAtTime(context.Background(), warehouseID, time.Now().Add(-time.Hour)); err != nil {
		t.Errorf("unexpected error for known warehouse: %v", err)
	}
}
