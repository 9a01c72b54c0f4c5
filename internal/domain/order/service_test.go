package order

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feastly/ordersvc/internal/domain/menu"
	"github.com/feastly/ordersvc/internal/domain/restaurant"
	"github.com/feastly/ordersvc/internal/domain/user"
)

// --- Mock implementations ---

// fakeEngine tracks per-restaurant capacity in memory, with the same
// full/partial/zero grant behavior as the real engine.
type fakeEngine struct {
	capacity   map[string]int
	reserveErr error
	releaseErr error
	released   map[string]int
}

func newFakeEngine(capacity map[string]int) *fakeEngine {
	return &fakeEngine{capacity: capacity, released: make(map[string]int)}
}

func (e *fakeEngine) Reserve(_ context.Context, restaurantID string, quantityNeeded int) (int, error) {
	if e.reserveErr != nil {
		return 0, e.reserveErr
	}
	available := e.capacity[restaurantID]
	granted := quantityNeeded
	if available < granted {
		granted = available
	}
	e.capacity[restaurantID] = available - granted
	return granted, nil
}

func (e *fakeEngine) Release(_ context.Context, restaurantID string, quantity int) error {
	if e.releaseErr != nil {
		return e.releaseErr
	}
	e.capacity[restaurantID] += quantity
	e.released[restaurantID] += quantity
	return nil
}

type mockOrderRepo struct {
	byID      map[string]*Order
	createErr error
}

func newMockOrderRepo(orders ...*Order) *mockOrderRepo {
	byID := make(map[string]*Order, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
	}
	return &mockOrderRepo{byID: byID}
}

func (m *mockOrderRepo) Create(_ context.Context, o *Order) error {
	if m.createErr != nil {
		return m.createErr
	}
	cp := *o
	m.byID[o.ID] = &cp
	return nil
}

func (m *mockOrderRepo) Get(_ context.Context, id string) (*Order, error) {
	o, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *mockOrderRepo) UpdateStatus(_ context.Context, id string, status Status) error {
	o, ok := m.byID[id]
	if !ok {
		return ErrNotFound
	}
	o.Status = status
	return nil
}

// fakeTx mimics transactional rollback: when fn fails, capacity and persisted
// orders are restored to their pre-transaction state.
type fakeTx struct {
	engine *fakeEngine
	orders *mockOrderRepo
}

func (t *fakeTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	capSnapshot := make(map[string]int, len(t.engine.capacity))
	for k, v := range t.engine.capacity {
		capSnapshot[k] = v
	}
	orderSnapshot := make(map[string]*Order, len(t.orders.byID))
	for k, v := range t.orders.byID {
		cp := *v
		orderSnapshot[k] = &cp
	}

	if err := fn(ctx); err != nil {
		t.engine.capacity = capSnapshot
		t.orders.byID = orderSnapshot
		return err
	}
	return nil
}

type mockUserRepo struct {
	byID map[string]*user.User
}

func (m *mockUserRepo) Get(_ context.Context, id string) (*user.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

func (m *mockUserRepo) Create(_ context.Context, _ *user.User) error { return nil }
func (m *mockUserRepo) Update(_ context.Context, _ *user.User) error { return nil }

// mockDirectory serves a fixed ranking per item name.
type mockDirectory struct {
	byItem map[string][]restaurant.Restaurant
}

func (m *mockDirectory) FindServing(_ context.Context, strategyName, itemName string, _ int) ([]restaurant.Restaurant, error) {
	if _, err := restaurant.ResolveStrategy(strategyName); err != nil {
		return nil, err
	}
	restaurants, ok := m.byItem[itemName]
	if !ok || len(restaurants) == 0 {
		return nil, &restaurant.NoRestaurantServesItemError{ItemName: itemName}
	}
	return restaurants, nil
}

type mockMenuRepo struct {
	items []menu.Item
}

func (m *mockMenuRepo) Get(_ context.Context, id string) (*menu.Item, error) {
	for i := range m.items {
		if m.items[i].ID == id {
			return &m.items[i], nil
		}
	}
	return nil, menu.ErrNotFound
}

func (m *mockMenuRepo) Create(_ context.Context, _ *menu.Item) error { return nil }
func (m *mockMenuRepo) Update(_ context.Context, _ *menu.Item) error { return nil }

func (m *mockMenuRepo) ExistsByNameAndRestaurant(_ context.Context, _, _ string) (bool, error) {
	return false, nil
}

func (m *mockMenuRepo) FindByNameAndRestaurant(_ context.Context, name, restaurantID string, status menu.Status) (*menu.Item, error) {
	for i := range m.items {
		item := &m.items[i]
		if item.Name == name && item.RestaurantID == restaurantID && item.Status == status {
			return item, nil
		}
	}
	return nil, menu.ErrNotFound
}

func (m *mockMenuRepo) ListByRestaurant(_ context.Context, _ string, _ menu.Status) ([]menu.Item, error) {
	return nil, nil
}

func (m *mockMenuRepo) DistinctActiveNames(_ context.Context) ([]string, error) {
	return nil, nil
}

// --- Helpers ---

// fixture wires a service around two restaurants serving Pizza: r1 is cheaper
// (10.00, capacity 8) and ranks first, r2 (12.00, capacity 5) second.
type fixture struct {
	svc    *Service
	engine *fakeEngine
	orders *mockOrderRepo
}

func newFixture() *fixture {
	engine := newFakeEngine(map[string]int{"r1": 8, "r2": 5})
	orders := newMockOrderRepo()
	tx := &fakeTx{engine: engine, orders: orders}

	users := &mockUserRepo{byID: map[string]*user.User{
		"u1": {ID: "u1", Name: "Ada"},
	}}
	directory := &mockDirectory{byItem: map[string][]restaurant.Restaurant{
		"Pizza": {
			{ID: "r1", Name: "Cheap Pizza Co", Capacity: 8},
			{ID: "r2", Name: "Fancy Pizza Co", Capacity: 5},
		},
	}}
	items := &mockMenuRepo{items: []menu.Item{
		{ID: "m1", RestaurantID: "r1", Name: "Pizza", Price: decimal.RequireFromString("10.00"), Status: menu.StatusActive},
		{ID: "m2", RestaurantID: "r2", Name: "Pizza", Price: decimal.RequireFromString("12.00"), Status: menu.StatusActive},
	}}

	return &fixture{
		svc:    NewService(tx, users, directory, items, orders, engine, nil),
		engine: engine,
		orders: orders,
	}
}

func placePizza(f *fixture, quantity int) (*Order, error) {
	return f.svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID:   "u1",
		Items:    []ItemRequest{{ItemName: "Pizza", Quantity: quantity}},
		Strategy: "price",
	})
}

// --- Tests ---

func TestPlaceOrder_EmptyItems(t *testing.T) {
	f := newFixture()

	_, err := f.svc.PlaceOrder(context.Background(), PlaceOrderRequest{UserID: "u1", Strategy: "price"})
	require.ErrorIs(t, err, ErrEmptyItems)
}

func TestPlaceOrder_InvalidQuantity(t *testing.T) {
	f := newFixture()

	_, err := f.svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID:   "u1",
		Items:    []ItemRequest{{ItemName: "Pizza", Quantity: 0}},
		Strategy: "price",
	})

	var iqErr *InvalidQuantityError
	require.ErrorAs(t, err, &iqErr)
	assert.Equal(t, "Pizza", iqErr.ItemName)
}

func TestPlaceOrder_UnknownStrategy(t *testing.T) {
	f := newFixture()

	_, err := f.svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID:   "u1",
		Items:    []ItemRequest{{ItemName: "Pizza", Quantity: 1}},
		Strategy: "popularity",
	})

	var snfErr *restaurant.StrategyNotFoundError
	require.ErrorAs(t, err, &snfErr)
	assert.Equal(t, 8, f.engine.capacity["r1"], "nothing may be reserved for an unknown strategy")
}

func TestPlaceOrder_UserNotFound(t *testing.T) {
	f := newFixture()

	_, err := f.svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID:   "ghost",
		Items:    []ItemRequest{{ItemName: "Pizza", Quantity: 1}},
		Strategy: "price",
	})
	require.ErrorIs(t, err, user.ErrNotFound)
}

func TestPlaceOrder_SingleRestaurant(t *testing.T) {
	f := newFixture()

	o, err := placePizza(f, 2)
	require.NoError(t, err)

	require.Len(t, o.Lines, 1)
	assert.Equal(t, "r1", o.Lines[0].RestaurantID)
	assert.Equal(t, 2, o.Lines[0].Quantity)
	assert.True(t, o.Amount.Equal(decimal.RequireFromString("20.00")), "amount was %s", o.Amount)
	assert.Equal(t, StatusPlaced, o.Status)
	assert.Equal(t, 6, f.engine.capacity["r1"])

	stored, err := f.orders.Get(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPlaced, stored.Status)
}

func TestPlaceOrder_SplitsAcrossRestaurants(t *testing.T) {
	f := newFixture()

	o, err := placePizza(f, 12)
	require.NoError(t, err)

	require.Len(t, o.Lines, 2)
	assert.Equal(t, "r1", o.Lines[0].RestaurantID)
	assert.Equal(t, 8, o.Lines[0].Quantity)
	assert.Equal(t, "r2", o.Lines[1].RestaurantID)
	assert.Equal(t, 4, o.Lines[1].Quantity)

	// 8 x 10.00 + 4 x 12.00
	assert.True(t, o.Amount.Equal(decimal.RequireFromString("128.00")), "amount was %s", o.Amount)
	assert.Equal(t, 0, f.engine.capacity["r1"])
	assert.Equal(t, 1, f.engine.capacity["r2"])
}

func TestPlaceOrder_InsufficientCapacityRollsBack(t *testing.T) {
	f := newFixture()

	_, err := placePizza(f, 14)

	var fErr *FulfillmentError
	require.ErrorAs(t, err, &fErr)
	assert.Equal(t, "Pizza", fErr.ItemName)
	assert.Equal(t, 14, fErr.Requested)
	assert.Equal(t, 13, fErr.Fulfilled)

	assert.Equal(t, 8, f.engine.capacity["r1"], "partial reservations must be rolled back")
	assert.Equal(t, 5, f.engine.capacity["r2"])
	assert.Empty(t, f.orders.byID, "no order may be persisted")
}

func TestPlaceOrder_NoRestaurantServes(t *testing.T) {
	f := newFixture()

	_, err := f.svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID:   "u1",
		Items:    []ItemRequest{{ItemName: "Sushi", Quantity: 1}},
		Strategy: "price",
	})

	var nsErr *restaurant.NoRestaurantServesItemError
	require.ErrorAs(t, err, &nsErr)
	assert.Equal(t, "Sushi", nsErr.ItemName)
}

func TestPlaceOrder_CreateFailureRollsBackReservations(t *testing.T) {
	f := newFixture()
	f.orders.createErr = errors.New("insert failed")

	_, err := placePizza(f, 2)
	require.Error(t, err)

	assert.Equal(t, 8, f.engine.capacity["r1"])
}

func TestCompleteOrder_ReleasesCapacity(t *testing.T) {
	f := newFixture()

	o, err := placePizza(f, 12)
	require.NoError(t, err)
	require.Equal(t, 0, f.engine.capacity["r1"])

	err = f.svc.CompleteOrder(context.Background(), o.ID)
	require.NoError(t, err)

	assert.Equal(t, 8, f.engine.capacity["r1"])
	assert.Equal(t, 5, f.engine.capacity["r2"])

	stored, err := f.orders.Get(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, stored.Status)
}

func TestCompleteOrder_Twice(t *testing.T) {
	f := newFixture()

	o, err := placePizza(f, 2)
	require.NoError(t, err)

	require.NoError(t, f.svc.CompleteOrder(context.Background(), o.ID))

	err = f.svc.CompleteOrder(context.Background(), o.ID)
	require.ErrorIs(t, err, ErrAlreadyCompleted)
	assert.Equal(t, 2, f.engine.released["r1"], "capacity must not be released twice")
}

func TestCompleteOrder_NotFound(t *testing.T) {
	f := newFixture()

	err := f.svc.CompleteOrder(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCompleteOrder_ReleaseFailureKeepsOrderPlaced(t *testing.T) {
	f := newFixture()

	o, err := placePizza(f, 2)
	require.NoError(t, err)

	releaseErr := errors.New("release exhausted")
	f.engine.releaseErr = releaseErr

	err = f.svc.CompleteOrder(context.Background(), o.ID)
	require.ErrorIs(t, err, releaseErr)

	stored, err := f.orders.Get(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPlaced, stored.Status, "a failed release must leave the order PLACED")
}
