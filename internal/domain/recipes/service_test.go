package recipes

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"mesa/internal/core/apperror"
	"mesa/internal/core/id"
	"mesa/internal/core/types"
	"mesa/internal/domain"
)

type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeRecipeRepo struct {
	recipes     map[id.ID]*Recipe
	ingredients map[id.ID][]Ingredient
}

func newFakeRecipeRepo() *fakeRecipeRepo {
	return &fakeRecipeRepo{
		recipes:     make(map[id.ID]*Recipe),
		ingredients: make(map[id.ID][]Ingredient),
	}
}

func (r *fakeRecipeRepo) Create(ctx context.Context, recipe *Recipe) error {
	copied := *recipe
	r.recipes[recipe.ID] = &copied
	return nil
}

func (r *fakeRecipeRepo) GetByID(ctx context.Context, recipeID id.ID) (*Recipe, error) {
	recipe, ok := r.recipes[recipeID]
	if !ok {
		return nil, apperror.NewNotFound("recipe", recipeID)
	}
	copied := *recipe
	return &copied, nil
}

func (r *fakeRecipeRepo) Update(ctx context.Context, recipe *Recipe) error {
	copied := *recipe
	r.recipes[recipe.ID] = &copied
	return nil
}

func (r *fakeRecipeRepo) Delete(ctx context.Context, recipeID id.ID) error {
	delete(r.recipes, recipeID)
	return nil
}

func (r *fakeRecipeRepo) GetIngredients(ctx context.Context, recipeID id.ID) ([]Ingredient, error) {
	return append([]Ingredient(nil), r.ingredients[recipeID]...), nil
}

func (r *fakeRecipeRepo) SaveIngredients(ctx context.Context, recipeID id.ID, ingredients []Ingredient) error {
	r.ingredients[recipeID] = append([]Ingredient(nil), ingredients...)
	return nil
}

func (r *fakeRecipeRepo) FindByIngredient(ctx context.Context, materialID id.ID) ([]*Recipe, error) {
	var out []*Recipe
	for recipeID, ings := range r.ingredients {
		for _, ing := range ings {
			if ing.MaterialID == materialID {
				copied := *r.recipes[recipeID]
				out = append(out, &copied)
				break
			}
		}
	}
	return out, nil
}

func (r *fakeRecipeRepo) UpdateCosts(ctx context.Context, recipeID id.ID, totalCost, costPerUnit types.Money) error {
	recipe, ok := r.recipes[recipeID]
	if !ok {
		return apperror.NewNotFound("recipe", recipeID)
	}
	recipe.TotalCost = totalCost
	recipe.CostPerUnit = costPerUnit
	return nil
}

func (r *fakeRecipeRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Recipe], error) {
	return domain.ListResult[*Recipe]{}, nil
}

var _ Repository = (*fakeRecipeRepo)(nil)

// fakeMaterialCosts serves average costs and consumption units from maps.
type fakeMaterialCosts struct {
	costs map[id.ID]types.Money
	units map[id.ID]id.ID
}

func newFakeMaterialCosts() *fakeMaterialCosts {
	return &fakeMaterialCosts{
		costs: make(map[id.ID]types.Money),
		units: make(map[id.ID]id.ID),
	}
}

func (m *fakeMaterialCosts) GetConsumptionUnit(ctx context.Context, materialID id.ID) (id.ID, error) {
	return m.units[materialID], nil
}

func (m *fakeMaterialCosts) GetAverageCost(ctx context.Context, materialID id.ID) (types.Money, error) {
	cost, ok := m.costs[materialID]
	if !ok {
		return types.ZeroMoney(), nil
	}
	return cost, nil
}

func (m *fakeMaterialCosts) UpdateAverageCost(ctx context.Context, materialID id.ID, cost types.Money) error {
	m.costs[materialID] = cost
	return nil
}

var _ MaterialCosts = (*fakeMaterialCosts)(nil)

// fakeConverter applies a fixed factor per (from, to) unit pair.
type fakeConverter struct {
	factors map[[2]id.ID]float64
}

func newFakeConverter() *fakeConverter {
	return &fakeConverter{factors: make(map[[2]id.ID]float64)}
}

func (c *fakeConverter) Convert(ctx context.Context, qty decimal.Decimal, fromUnitID, toUnitID id.ID) (decimal.Decimal, error) {
	factor, ok := c.factors[[2]id.ID{fromUnitID, toUnitID}]
	if !ok {
		return qty, nil
	}
	return qty.Mul(decimal.NewFromFloat(factor)).Round(4), nil
}

var _ UnitConverter = (*fakeConverter)(nil)

func qty(v float64) types.Quantity {
	return types.NewQuantityFromFloat64(v)
}

func ingredient(materialID id.ID, quantity, wastePercent float64) Ingredient {
	return Ingredient{
		LineID:       id.New(),
		MaterialID:   materialID,
		Quantity:     qty(quantity),
		Cost:         types.ZeroMoney(),
		WastePercent: types.NewMoney(wastePercent),
	}
}

func TestCreate_RollsUpCosts(t *testing.T) {
	repo := newFakeRecipeRepo()
	costs := newFakeMaterialCosts()
	svc := NewService(repo, costs, newFakeConverter(), fakeTxManager{})

	flour := id.New()
	oil := id.New()
	costs.costs[flour] = types.NewMoney(2)   // per kg
	costs.costs[oil] = types.NewMoney(10)

	recipe := NewRecipe("DOUGH", "Pizza Dough", qty(4))
	recipe.Ingredients = []Ingredient{
		ingredient(flour, 3, 0),    // 3 * 2.00 = 6.00
		ingredient(oil, 0.2, 10),   // 0.2 * 1.1 * 10.00 = 2.20
	}

	if err := svc.Create(context.Background(), recipe); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !recipe.TotalCost.Equal(types.NewMoney(8.2)) {
		t.Errorf("total cost = %v, want 8.20", recipe.TotalCost)
	}
	if !recipe.CostPerUnit.Equal(types.NewMoney(2.05)) {
		t.Errorf("cost per unit = %v, want 2.05", recipe.CostPerUnit)
	}
	if !recipe.Ingredients[0].Cost.Equal(types.NewMoney(6)) {
		t.Errorf("flour line cost = %v, want 6.00", recipe.Ingredients[0].Cost)
	}
	if !recipe.Ingredients[1].Cost.Equal(types.NewMoney(2.2)) {
		t.Errorf("oil line cost = %v, want 2.20", recipe.Ingredients[1].Cost)
	}
}

func TestCreate_RejectsSelfConsumption(t *testing.T) {
	svc := NewService(newFakeRecipeRepo(), newFakeMaterialCosts(), newFakeConverter(), fakeTxManager{})

	output := id.New()
	recipe := NewRecipe("SAUCE", "Base Sauce", qty(1))
	recipe.OutputMaterialID = &output
	recipe.Ingredients = []Ingredient{ingredient(output, 1, 0)}

	if err := svc.Create(context.Background(), recipe); !apperror.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestRecalculateCost_PicksUpNewMaterialCost(t *testing.T) {
	repo := newFakeRecipeRepo()
	costs := newFakeMaterialCosts()
	svc := NewService(repo, costs, newFakeConverter(), fakeTxManager{})

	flour := id.New()
	costs.costs[flour] = types.NewMoney(2)

	recipe := NewRecipe("DOUGH", "Pizza Dough", qty(2))
	recipe.Ingredients = []Ingredient{ingredient(flour, 4, 0)}
	if err := svc.Create(context.Background(), recipe); err != nil {
		t.Fatalf("create: %v", err)
	}

	costs.costs[flour] = types.NewMoney(3)

	updated, err := svc.RecalculateCost(context.Background(), recipe.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !updated.TotalCost.Equal(types.NewMoney(12)) {
		t.Errorf("total cost = %v, want 12", updated.TotalCost)
	}

	stored, _ := repo.GetByID(context.Background(), recipe.ID)
	if !stored.TotalCost.Equal(types.NewMoney(12)) {
		t.Errorf("persisted cost = %v, want 12", stored.TotalCost)
	}
}

func TestPropagateMaterialCost_CascadesThroughPreps(t *testing.T) {
	repo := newFakeRecipeRepo()
	costs := newFakeMaterialCosts()
	svc := NewService(repo, costs, newFakeConverter(), fakeTxManager{})

	tomato := id.New()
	sauceMaterial := id.New() // produced by the sauce prep, consumed by the pizza
	costs.costs[tomato] = types.NewMoney(1)
	costs.costs[sauceMaterial] = types.NewMoney(2)

	sauce := NewRecipe("SAUCE", "Tomato Sauce", qty(2))
	sauce.OutputMaterialID = &sauceMaterial
	sauce.Ingredients = []Ingredient{ingredient(tomato, 4, 0)}
	if err := svc.Create(context.Background(), sauce); err != nil {
		t.Fatalf("create sauce: %v", err)
	}

	pizza := NewRecipe("PIZZA", "Margherita", qty(1))
	pizza.Ingredients = []Ingredient{ingredient(sauceMaterial, 0.5, 0)}
	if err := svc.Create(context.Background(), pizza); err != nil {
		t.Fatalf("create pizza: %v", err)
	}

	// Tomato price doubles
	costs.costs[tomato] = types.NewMoney(2)
	if err := svc.PropagateMaterialCost(context.Background(), tomato); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Sauce: 4 * 2.00 = 8.00 total, 4.00 per unit of output
	storedSauce, _ := repo.GetByID(context.Background(), sauce.ID)
	if !storedSauce.TotalCost.Equal(types.NewMoney(8)) {
		t.Errorf("sauce total = %v, want 8", storedSauce.TotalCost)
	}
	if !costs.costs[sauceMaterial].Equal(types.NewMoney(4)) {
		t.Errorf("sauce material cost = %v, want 4", costs.costs[sauceMaterial])
	}

	// Pizza re-rolled at the new sauce cost: 0.5 * 4.00 = 2.00
	storedPizza, _ := repo.GetByID(context.Background(), pizza.ID)
	if !storedPizza.TotalCost.Equal(types.NewMoney(2)) {
		t.Errorf("pizza total = %v, want 2", storedPizza.TotalCost)
	}
}

func TestPropagateMaterialCost_CycleTerminates(t *testing.T) {
	repo := newFakeRecipeRepo()
	costs := newFakeMaterialCosts()
	svc := NewService(repo, costs, newFakeConverter(), fakeTxManager{})

	materialA := id.New()
	materialB := id.New()
	costs.costs[materialA] = types.NewMoney(1)
	costs.costs[materialB] = types.NewMoney(1)

	// Two preps feeding each other through their outputs. Invalid data,
	// but propagation must still terminate.
	prepA := NewRecipe("PREP-A", "Prep A", qty(1))
	prepA.OutputMaterialID = &materialB
	prepA.Ingredients = []Ingredient{ingredient(materialA, 1, 0)}
	if err := svc.Create(context.Background(), prepA); err != nil {
		t.Fatalf("create prep A: %v", err)
	}

	prepB := NewRecipe("PREP-B", "Prep B", qty(1))
	prepB.OutputMaterialID = &materialA
	prepB.Ingredients = []Ingredient{ingredient(materialB, 1, 0)}
	if err := svc.Create(context.Background(), prepB); err != nil {
		t.Fatalf("create prep B: %v", err)
	}

	if err := svc.PropagateMaterialCost(context.Background(), materialA); err != nil {
		t.Fatalf("cycle must terminate cleanly, got %v", err)
	}
}

func TestGetByID_LoadsIngredients(t *testing.T) {
	repo := newFakeRecipeRepo()
	costs := newFakeMaterialCosts()
	svc := NewService(repo, costs, newFakeConverter(), fakeTxManager{})

	recipe := NewRecipe("DOUGH", "Pizza Dough", qty(1))
	recipe.Ingredients = []Ingredient{ingredient(id.New(), 2, 0)}
	if err := svc.Create(context.Background(), recipe); err != nil {
		t.Fatalf("create: %v", err)
	}

	loaded, err := svc.GetByID(context.Background(), recipe.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(loaded.Ingredients) != 1 {
		t.Errorf("ingredients = %d, want 1", len(loaded.Ingredients))
	}
}

func TestCreate_ConvertsIngredientUnits(t *testing.T) {
	repo := newFakeRecipeRepo()
	costs := newFakeMaterialCosts()
	converter := newFakeConverter()
	svc := NewService(repo, costs, converter, fakeTxManager{})

	flour := id.New()
	gram := id.New()
	kilogram := id.New()
	costs.costs[flour] = types.NewMoney(2) // per kg
	costs.units[flour] = kilogram
	converter.factors[[2]id.ID{gram, kilogram}] = 0.001

	recipe := NewRecipe("DOUGH", "Pizza Dough", qty(1))
	recipe.Ingredients = []Ingredient{
		{
			LineID:       id.New(),
			MaterialID:   flour,
			Quantity:     qty(500), // grams
			UnitID:       &gram,
			Cost:         types.ZeroMoney(),
			WastePercent: types.ZeroMoney(),
		},
	}

	if err := svc.Create(context.Background(), recipe); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 500 g -> 0.5 kg at 2.00/kg
	if !recipe.Ingredients[0].Cost.Equal(types.NewMoney(1)) {
		t.Errorf("line cost = %v, want 1.00", recipe.Ingredients[0].Cost)
	}
}

func TestCreate_SkipsConversionForMatchingUnit(t *testing.T) {
	repo := newFakeRecipeRepo()
	costs := newFakeMaterialCosts()
	converter := newFakeConverter()
	svc := NewService(repo, costs, converter, fakeTxManager{})

	flour := id.New()
	kilogram := id.New()
	costs.costs[flour] = types.NewMoney(2)
	costs.units[flour] = kilogram

	recipe := NewRecipe("DOUGH", "Pizza Dough", qty(1))
	recipe.Ingredients = []Ingredient{
		{
			LineID:       id.New(),
			MaterialID:   flour,
			Quantity:     qty(3),
			UnitID:       &kilogram,
			Cost:         types.ZeroMoney(),
			WastePercent: types.ZeroMoney(),
		},
	}

	if err := svc.Create(context.Background(), recipe); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !recipe.Ingredients[0].Cost.Equal(types.NewMoney(6)) {
		t.Errorf("line cost = %v, want 6.00", recipe.Ingredients[0].Cost)
	}
}
