package stockcount

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"mesa/internal/core/apperror"
	"mesa/internal/core/entity"
	"mesa/internal/core/id"
	"mesa/internal/core/numerator"
	"mesa/internal/domain"
	"mesa/internal/domain/catalogs/material"
	"mesa/internal/domain/ledger/stock"
)

type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// rollbackTxManager gives the in-memory fakes transactional semantics:
// writes staged inside a failed callback are discarded.
type rollbackTxManager struct {
	repo      *fakeCountRepo
	stockRepo *fakeStockRepo
}

func (m rollbackTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	docs := make(map[id.ID]*StockCount, len(m.repo.docs))
	for k, v := range m.repo.docs {
		docs[k] = v
	}
	items := make(map[id.ID][]Item, len(m.repo.items))
	for k, v := range m.repo.items {
		items[k] = v
	}
	adjustments := make(map[id.ID][]Adjustment, len(m.repo.adjustments))
	for k, v := range m.repo.adjustments {
		adjustments[k] = v
	}
	movements := m.stockRepo.movements
	balances := make(map[[2]id.ID]entity.MaterialStock, len(m.stockRepo.balances))
	for k, v := range m.stockRepo.balances {
		balances[k] = v
	}

	if err := fn(ctx); err != nil {
		m.repo.docs = docs
		m.repo.items = items
		m.repo.adjustments = adjustments
		m.stockRepo.movements = movements
		m.stockRepo.balances = balances
		return err
	}
	return nil
}

// fakeStockRepo backs a real stock.Service with in-memory data.
type fakeStockRepo struct {
	movements []entity.StockMovement
	balances  map[[2]id.ID]entity.MaterialStock
}

func newFakeStockRepo() *fakeStockRepo {
	return &fakeStockRepo{balances: make(map[[2]id.ID]entity.MaterialStock)}
}

func (r *fakeStockRepo) CreateMovements(ctx context.Context, movements []entity.StockMovement) error {
	r.movements = append(r.movements, movements...)
	return nil
}

func (r *fakeStockRepo) GetMovementsByWarehouseUntil(ctx context.Context, warehouseID id.ID, cutoff time.Time) ([]entity.StockMovement, error) {
	var out []entity.StockMovement
	for _, m := range r.movements {
		if m.WarehouseID == warehouseID && !m.Date.After(cutoff) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeStockRepo) GetMovementsUntil(ctx context.Context, materialID, warehouseID id.ID, cutoff time.Time) ([]entity.StockMovement, error) {
	var out []entity.StockMovement
	for _, m := range r.movements {
		if m.MaterialID == materialID && m.WarehouseID == warehouseID && !m.Date.After(cutoff) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeStockRepo) GetMovementHistory(ctx context.Context, materialID id.ID, filter stock.MovementFilter) ([]entity.StockMovement, error) {
	return nil, nil
}

func (r *fakeStockRepo) GetBalance(ctx context.Context, materialID, warehouseID id.ID) (entity.MaterialStock, error) {
	b, ok := r.balances[[2]id.ID{materialID, warehouseID}]
	if !ok {
		return entity.MaterialStock{}, apperror.NewNotFound("balance", materialID)
	}
	return b, nil
}

func (r *fakeStockRepo) GetBalanceForUpdate(ctx context.Context, materialID, warehouseID id.ID) (entity.MaterialStock, error) {
	return r.GetBalance(ctx, materialID, warehouseID)
}

func (r *fakeStockRepo) GetBalancesByWarehouse(ctx context.Context, warehouseID id.ID, filter stock.BalanceFilter) ([]entity.MaterialStock, error) {
	return nil, nil
}

func (r *fakeStockRepo) GetBalancesByMaterial(ctx context.Context, materialID id.ID) ([]entity.MaterialStock, error) {
	return nil, nil
}

func (r *fakeStockRepo) UpsertBalance(ctx context.Context, balance entity.MaterialStock) error {
	r.balances[[2]id.ID{balance.MaterialID, balance.WarehouseID}] = balance
	return nil
}

func (r *fakeStockRepo) GetTurnover(ctx context.Context, filter stock.TurnoverFilter) (stock.Turnover, error) {
	return stock.Turnover{}, nil
}

func (r *fakeStockRepo) RecalculateBalances(ctx context.Context, warehouseID, materialID *id.ID) error {
	return nil
}

var _ stock.Repository = (*fakeStockRepo)(nil)

// fakeCountRepo is an in-memory stock count Repository.
type fakeCountRepo struct {
	docs           map[id.ID]*StockCount
	items          map[id.ID][]Item
	adjustments    map[id.ID][]Adjustment
	hasActive      bool
	adjustmentsErr error
}

func newFakeCountRepo() *fakeCountRepo {
	return &fakeCountRepo{
		docs:        make(map[id.ID]*StockCount),
		items:       make(map[id.ID][]Item),
		adjustments: make(map[id.ID][]Adjustment),
	}
}

func (r *fakeCountRepo) Create(ctx context.Context, doc *StockCount) error {
	copied := *doc
	r.docs[doc.ID] = &copied
	return nil
}

func (r *fakeCountRepo) GetByID(ctx context.Context, docID id.ID) (*StockCount, error) {
	doc, ok := r.docs[docID]
	if !ok {
		return nil, apperror.NewNotFound("stock count", docID)
	}
	copied := *doc
	return &copied, nil
}

func (r *fakeCountRepo) GetForUpdate(ctx context.Context, docID id.ID) (*StockCount, error) {
	return r.GetByID(ctx, docID)
}

func (r *fakeCountRepo) Update(ctx context.Context, doc *StockCount) error {
	if _, ok := r.docs[doc.ID]; !ok {
		return apperror.NewNotFound("stock count", doc.ID)
	}
	copied := *doc
	r.docs[doc.ID] = &copied
	return nil
}

func (r *fakeCountRepo) Delete(ctx context.Context, docID id.ID) error {
	delete(r.docs, docID)
	return nil
}

func (r *fakeCountRepo) GetItems(ctx context.Context, docID id.ID) ([]Item, error) {
	return append([]Item(nil), r.items[docID]...), nil
}

func (r *fakeCountRepo) SaveItems(ctx context.Context, docID id.ID, items []Item) error {
	r.items[docID] = append([]Item(nil), items...)
	return nil
}

func (r *fakeCountRepo) ExistsActiveForWarehouse(ctx context.Context, warehouseID id.ID) (bool, error) {
	return r.hasActive, nil
}

func (r *fakeCountRepo) CreateAdjustments(ctx context.Context, adjustments []Adjustment) error {
	if r.adjustmentsErr != nil {
		return r.adjustmentsErr
	}
	for _, a := range adjustments {
		r.adjustments[a.StockCountID] = append(r.adjustments[a.StockCountID], a)
	}
	return nil
}

func (r *fakeCountRepo) GetAdjustments(ctx context.Context, docID id.ID) ([]Adjustment, error) {
	return r.adjustments[docID], nil
}

func (r *fakeCountRepo) List(ctx context.Context, filter ListFilter) (domain.ListResult[*StockCount], error) {
	return domain.ListResult[*StockCount]{}, nil
}

var _ Repository = (*fakeCountRepo)(nil)

// fakeSearcher returns canned candidates, tracks known materials, and
// records the filter it saw.
type fakeSearcher struct {
	results  []*material.Material
	known    map[id.ID]bool
	lastSeen material.SearchFilter
}

func newFakeSearcher() *fakeSearcher {
	return &fakeSearcher{known: make(map[id.ID]bool)}
}

func (s *fakeSearcher) SearchForCount(ctx context.Context, f material.SearchFilter) ([]*material.Material, error) {
	s.lastSeen = f
	return s.results, nil
}

func (s *fakeSearcher) Exists(ctx context.Context, materialID id.ID) (bool, error) {
	return s.known[materialID], nil
}

var _ MaterialCatalog = (*fakeSearcher)(nil)

type fixture struct {
	repo      *fakeCountRepo
	stockRepo *fakeStockRepo
	searcher  *fakeSearcher
	svc       *Service
}

func newFixture() *fixture {
	repo := newFakeCountRepo()
	stockRepo := newFakeStockRepo()
	searcher := newFakeSearcher()
	stockSvc := stock.NewService(stockRepo, nil, fakeTxManager{})
	svc := NewService(repo, stockSvc, searcher, &numerator.MockGenerator{}, fakeTxManager{})
	return &fixture{repo: repo, stockRepo: stockRepo, searcher: searcher, svc: svc}
}

func (f *fixture) seedLedger(materialID, warehouseID id.ID, mt entity.MovementType, quantity float64, date time.Time) {
	f.searcher.known[materialID] = true
	f.stockRepo.movements = append(f.stockRepo.movements,
		entity.NewStockMovement(materialID, warehouseID, mt, qty(quantity), date))
}

func validInput(warehouseID id.ID) CreateInput {
	yesterday := time.Now().AddDate(0, 0, -1)
	return CreateInput{
		WarehouseID: warehouseID,
		CountDate:   yesterday,
		CountTime:   "18:00",
		CountedBy:   "anna",
	}
}

func TestCreate_SeedsItemsFromLedger(t *testing.T) {
	f := newFixture()
	warehouse := id.New()
	flour := id.New()
	oil := id.New()

	earlier := time.Now().AddDate(0, 0, -2)
	f.seedLedger(flour, warehouse, entity.MovementPurchase, 40, earlier)
	f.seedLedger(flour, warehouse, entity.MovementConsumption, 15, earlier.Add(time.Hour))
	f.seedLedger(oil, warehouse, entity.MovementPurchase, 6, earlier)
	// Posted after the cutoff, must not seed an item
	f.seedLedger(id.New(), warehouse, entity.MovementPurchase, 99, time.Now())

	doc, err := f.svc.Create(context.Background(), validInput(warehouse))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if doc.Status != StatusPlanning {
		t.Errorf("status = %s, want planning", doc.Status)
	}
	if doc.Number == "" || !strings.Contains(doc.Number, "-") {
		t.Errorf("number not generated: %q", doc.Number)
	}
	if len(doc.Items) != 2 {
		t.Fatalf("expected 2 seeded items, got %d", len(doc.Items))
	}

	item := doc.FindItemByMaterial(flour)
	if item == nil {
		t.Fatal("flour item missing")
	}
	if item.SystemStock != qty(25) {
		t.Errorf("flour system stock = %v, want 25", item.SystemStock.Float64())
	}
	if item.IsManuallyAdded {
		t.Error("seeded item must not be flagged manual")
	}

	if len(f.repo.items[doc.ID]) != 2 {
		t.Error("items not persisted")
	}
}

func TestCreate_ConflictWhenWarehouseBusy(t *testing.T) {
	f := newFixture()
	f.repo.hasActive = true

	_, err := f.svc.Create(context.Background(), validInput(id.New()))
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != apperror.CodeConflict {
		t.Errorf("expected conflict, got %v", err)
	}
}

func TestCreate_RejectsFutureCutoff(t *testing.T) {
	f := newFixture()
	input := validInput(id.New())
	input.CountDate = time.Now().AddDate(0, 0, 1)

	_, err := f.svc.Create(context.Background(), input)
	if !apperror.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestAddMaterial_ReconstructsAtOriginalCutoff(t *testing.T) {
	f := newFixture()
	warehouse := id.New()

	doc, err := f.svc.Create(context.Background(), validInput(warehouse))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	found := id.New()
	cutoff, _ := doc.CutoffDateTime()
	f.seedLedger(found, warehouse, entity.MovementPurchase, 7, cutoff.Add(-time.Hour))
	// Ledger activity after the cutoff must not leak into the line
	f.seedLedger(found, warehouse, entity.MovementPurchase, 100, cutoff.Add(time.Hour))

	item, err := f.svc.AddMaterial(context.Background(), doc.ID, found)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.SystemStock != qty(7) {
		t.Errorf("system stock = %v, want 7 at original cutoff", item.SystemStock.Float64())
	}
	if !item.IsManuallyAdded {
		t.Error("late additions must be flagged manual")
	}

	if _, err := f.svc.AddMaterial(context.Background(), doc.ID, found); !apperror.IsDuplicate(err) {
		t.Errorf("expected duplicate, got %v", err)
	}
}

func TestAddMaterial_LockedAfterSubmission(t *testing.T) {
	f := newFixture()
	doc, err := f.svc.Create(context.Background(), validInput(id.New()))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	stored := f.repo.docs[doc.ID]
	stored.Status = StatusPendingApproval

	if _, err := f.svc.AddMaterial(context.Background(), doc.ID, id.New()); !apperror.IsInvalidState(err) {
		t.Errorf("expected invalid state, got %v", err)
	}
}

func TestAddMaterial_UnknownMaterial(t *testing.T) {
	f := newFixture()
	doc, err := f.svc.Create(context.Background(), validInput(id.New()))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = f.svc.AddMaterial(context.Background(), doc.ID, id.New())
	if !apperror.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}

	reloaded, _ := f.svc.GetByID(context.Background(), doc.ID)
	if len(reloaded.Items) != 0 {
		t.Errorf("no item must be added for an unknown material, got %d", len(reloaded.Items))
	}
}

func TestRecordCount_RequiresInProgress(t *testing.T) {
	f := newFixture()
	warehouse := id.New()
	material := id.New()
	f.seedLedger(material, warehouse, entity.MovementPurchase, 10, time.Now().AddDate(0, 0, -2))

	doc, err := f.svc.Create(context.Background(), validInput(warehouse))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	err = f.svc.RecordCount(context.Background(), doc.ID, material, qty(9), "anna", nil)
	if !apperror.IsInvalidState(err) {
		t.Errorf("planning: expected invalid state, got %v", err)
	}

	if err := f.svc.Start(context.Background(), doc.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := f.svc.RecordCount(context.Background(), doc.ID, material, qty(9), "anna", nil); err != nil {
		t.Fatalf("record: %v", err)
	}

	reloaded, _ := f.svc.GetByID(context.Background(), doc.ID)
	item := reloaded.FindItemByMaterial(material)
	if item == nil || !item.IsCounted {
		t.Fatal("count not persisted")
	}
	if item.Difference != qty(-1) {
		t.Errorf("difference = %v, want -1", item.Difference.Float64())
	}
}

func TestRecordCount_UnknownMaterial(t *testing.T) {
	f := newFixture()
	doc, err := f.svc.Create(context.Background(), validInput(id.New()))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	f.svc.Start(context.Background(), doc.ID)

	err = f.svc.RecordCount(context.Background(), doc.ID, id.New(), qty(1), "anna", nil)
	if !apperror.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestApprove(t *testing.T) {
	f := newFixture()
	warehouse := id.New()
	short := id.New() // counted below system stock
	exact := id.New() // counted matching live balance

	earlier := time.Now().AddDate(0, 0, -2)
	f.seedLedger(short, warehouse, entity.MovementPurchase, 20, earlier)
	f.seedLedger(exact, warehouse, entity.MovementPurchase, 5, earlier)

	// Live balances the adjustment will reconcile against
	f.stockRepo.balances[[2]id.ID{short, warehouse}] = entity.MaterialStock{
		MaterialID: short, WarehouseID: warehouse, CurrentStock: qty(20),
	}
	f.stockRepo.balances[[2]id.ID{exact, warehouse}] = entity.MaterialStock{
		MaterialID: exact, WarehouseID: warehouse, CurrentStock: qty(5),
	}

	ctx := context.Background()
	doc, err := f.svc.Create(ctx, validInput(warehouse))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := f.svc.Start(ctx, doc.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	reason := "broken bag"
	if err := f.svc.RecordCount(ctx, doc.ID, short, qty(17), "anna", &reason); err != nil {
		t.Fatalf("record short: %v", err)
	}
	if err := f.svc.RecordCount(ctx, doc.ID, exact, qty(5), "anna", nil); err != nil {
		t.Fatalf("record exact: %v", err)
	}
	if err := f.svc.SubmitForApproval(ctx, doc.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}

	result, err := f.svc.Approve(ctx, doc.ID, "chief")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}

	if result.AdjustmentsCount != 1 {
		t.Errorf("adjustments = %d, want 1 (zero-difference line skipped)", result.AdjustmentsCount)
	}
	if result.TotalShortage != qty(3) {
		t.Errorf("total shortage = %v, want 3", result.TotalShortage.Float64())
	}

	completed, _ := f.svc.GetByID(ctx, doc.ID)
	if completed.Status != StatusCompleted {
		t.Errorf("status = %s, want completed", completed.Status)
	}
	if completed.ApprovedBy == nil || *completed.ApprovedBy != "chief" {
		t.Error("approver not stamped")
	}

	// Live balance reconciled to the counted quantity
	balance := f.stockRepo.balances[[2]id.ID{short, warehouse}]
	if balance.CurrentStock != qty(17) {
		t.Errorf("reconciled balance = %v, want 17", balance.CurrentStock.Float64())
	}

	adjustments, _ := f.svc.GetAdjustments(ctx, doc.ID)
	if len(adjustments) != 1 {
		t.Fatalf("stored adjustments = %d, want 1", len(adjustments))
	}
	adj := adjustments[0]
	if adj.Type != AdjustmentDecrease {
		t.Errorf("adjustment type = %s, want decrease", adj.Type)
	}
	if adj.PreviousStock != qty(20) || adj.NewStock != qty(17) {
		t.Errorf("adjustment span = %v -> %v, want 20 -> 17", adj.PreviousStock.Float64(), adj.NewStock.Float64())
	}
	if adj.MovementLineID == nil {
		t.Error("adjustment must link its ledger entry")
	}

	// One adjustment movement in the ledger, nothing for the exact line
	var adjustmentMovements int
	for _, m := range f.stockRepo.movements {
		if m.Type == entity.MovementAdjustmentOut || m.Type == entity.MovementAdjustmentIn {
			adjustmentMovements++
		}
	}
	if adjustmentMovements != 1 {
		t.Errorf("adjustment movements = %d, want 1", adjustmentMovements)
	}
}

func TestApprove_LastCountWins(t *testing.T) {
	f := newFixture()
	warehouse := id.New()
	material := id.New()

	earlier := time.Now().AddDate(0, 0, -2)
	f.seedLedger(material, warehouse, entity.MovementPurchase, 10, earlier)

	ctx := context.Background()
	doc, err := f.svc.Create(ctx, validInput(warehouse))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	f.svc.Start(ctx, doc.ID)
	if err := f.svc.RecordCount(ctx, doc.ID, material, qty(8), "anna", nil); err != nil {
		t.Fatalf("record: %v", err)
	}
	f.svc.SubmitForApproval(ctx, doc.ID)

	// A receipt races in between counting and approval
	f.stockRepo.balances[[2]id.ID{material, warehouse}] = entity.MaterialStock{
		MaterialID: material, WarehouseID: warehouse, CurrentStock: qty(14),
	}

	if _, err := f.svc.Approve(ctx, doc.ID, "chief"); err != nil {
		t.Fatalf("approve: %v", err)
	}

	balance := f.stockRepo.balances[[2]id.ID{material, warehouse}]
	if balance.CurrentStock != qty(8) {
		t.Errorf("balance = %v, want counted 8 regardless of racing receipt", balance.CurrentStock.Float64())
	}
}

func TestApprove_RequiresPendingApproval(t *testing.T) {
	f := newFixture()
	doc, err := f.svc.Create(context.Background(), validInput(id.New()))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = f.svc.Approve(context.Background(), doc.ID, "chief")
	if !apperror.IsInvalidState(err) {
		t.Errorf("expected invalid state, got %v", err)
	}
}

func TestApprove_FailureLeavesNothingBehind(t *testing.T) {
	f := newFixture()
	f.svc.txManager = rollbackTxManager{repo: f.repo, stockRepo: f.stockRepo}

	warehouse := id.New()
	short := id.New()
	over := id.New()
	earlier := time.Now().AddDate(0, 0, -2)
	f.seedLedger(short, warehouse, entity.MovementPurchase, 20, earlier)
	f.seedLedger(over, warehouse, entity.MovementPurchase, 5, earlier)
	f.stockRepo.balances[[2]id.ID{short, warehouse}] = entity.MaterialStock{
		MaterialID: short, WarehouseID: warehouse, CurrentStock: qty(20),
	}
	f.stockRepo.balances[[2]id.ID{over, warehouse}] = entity.MaterialStock{
		MaterialID: over, WarehouseID: warehouse, CurrentStock: qty(5),
	}

	ctx := context.Background()
	doc, err := f.svc.Create(ctx, validInput(warehouse))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := f.svc.Start(ctx, doc.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := f.svc.RecordCount(ctx, doc.ID, short, qty(17), "anna", nil); err != nil {
		t.Fatalf("record short: %v", err)
	}
	if err := f.svc.RecordCount(ctx, doc.ID, over, qty(6), "anna", nil); err != nil {
		t.Fatalf("record over: %v", err)
	}
	if err := f.svc.SubmitForApproval(ctx, doc.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}

	movementsBefore := len(f.stockRepo.movements)
	f.repo.adjustmentsErr = errors.New("insert adjustments: connection reset")

	if _, err := f.svc.Approve(ctx, doc.ID, "chief"); err == nil {
		t.Fatal("expected approve to fail")
	}

	stored, _ := f.svc.GetByID(ctx, doc.ID)
	if stored.Status != StatusPendingApproval {
		t.Errorf("status = %s, want pending_approval after failed approval", stored.Status)
	}
	if stored.ApprovedBy != nil {
		t.Error("approver must not be stamped on a failed approval")
	}
	if got := len(f.repo.adjustments[doc.ID]); got != 0 {
		t.Errorf("persisted adjustments = %d, want 0", got)
	}
	if got := len(f.stockRepo.movements); got != movementsBefore {
		t.Errorf("ledger movements = %d, want %d", got, movementsBefore)
	}
	if b := f.stockRepo.balances[[2]id.ID{short, warehouse}]; b.CurrentStock != qty(20) {
		t.Errorf("balance = %v, want untouched 20", b.CurrentStock.Float64())
	}

	// The document is still approvable once the glitch clears
	f.repo.adjustmentsErr = nil
	result, err := f.svc.Approve(ctx, doc.ID, "chief")
	if err != nil {
		t.Fatalf("retry approve: %v", err)
	}
	if result.AdjustmentsCount != 2 {
		t.Errorf("adjustments = %d, want 2", result.AdjustmentsCount)
	}
}

func TestDailyNumberSequence(t *testing.T) {
	f := newFixture()

	ctx := context.Background()
	first, err := f.svc.Create(ctx, validInput(id.New()))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := f.svc.Create(ctx, validInput(id.New()))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	today := time.Now().Format("2006-01-02")
	if first.Number != today+"-001" {
		t.Errorf("first number = %q, want %s-001", first.Number, today)
	}
	if second.Number != today+"-002" {
		t.Errorf("second number = %q, want %s-002", second.Number, today)
	}
}

func TestSearchMaterials(t *testing.T) {
	f := newFixture()
	f.searcher.results = []*material.Material{
		material.NewMaterial("MAT-001", "Flour", id.New(), id.New()),
	}

	warehouseID := id.New()
	found, err := f.svc.SearchMaterials(context.Background(), material.SearchFilter{
		WarehouseID: warehouseID,
		Query:       "  flour  ",
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(found) != 1 || found[0].Code != "MAT-001" {
		t.Fatalf("unexpected candidates: %+v", found)
	}

	if f.searcher.lastSeen.Query != "flour" {
		t.Errorf("query not trimmed: %q", f.searcher.lastSeen.Query)
	}
	if f.searcher.lastSeen.Limit != material.DefaultSearchLimit {
		t.Errorf("limit = %d, want default %d", f.searcher.lastSeen.Limit, material.DefaultSearchLimit)
	}
}

func TestSearchMaterials_RequiresWarehouse(t *testing.T) {
	f := newFixture()

	_, err := f.svc.SearchMaterials(context.Background(), material.SearchFilter{Query: "flour"})
	if !apperror.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}
