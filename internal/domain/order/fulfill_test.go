package order

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feastly/ordersvc/internal/domain/menu"
	"github.com/feastly/ordersvc/internal/domain/restaurant"
)

func fulfillService(engine *fakeEngine, items *mockMenuRepo) *Service {
	return NewService(&fakeTx{engine: engine, orders: newMockOrderRepo()},
		&mockUserRepo{}, &mockDirectory{}, items, newMockOrderRepo(), engine, nil)
}

func TestFulfillItem_StopsOnceSatisfied(t *testing.T) {
	engine := newFakeEngine(map[string]int{"r1": 5, "r2": 5})
	items := &mockMenuRepo{items: []menu.Item{
		{ID: "m1", RestaurantID: "r1", Name: "Pizza", Price: decimal.RequireFromString("10.00"), Status: menu.StatusActive},
		{ID: "m2", RestaurantID: "r2", Name: "Pizza", Price: decimal.RequireFromString("12.00"), Status: menu.StatusActive},
	}}
	svc := fulfillService(engine, items)

	ranked := []restaurant.Restaurant{{ID: "r1"}, {ID: "r2"}}
	lines, fulfilled, err := svc.fulfillItem(context.Background(), "Pizza", 3, ranked)
	require.NoError(t, err)

	assert.Equal(t, 3, fulfilled)
	require.Len(t, lines, 1)
	assert.Equal(t, "r1", lines[0].RestaurantID)
	assert.Equal(t, 5, engine.capacity["r2"], "later restaurants must not be touched")
}

func TestFulfillItem_SkipsExhaustedRestaurant(t *testing.T) {
	engine := newFakeEngine(map[string]int{"r1": 0, "r2": 5})
	items := &mockMenuRepo{items: []menu.Item{
		// r1 intentionally has no menu row: a zero grant must skip the lookup.
		{ID: "m2", RestaurantID: "r2", Name: "Pizza", Price: decimal.RequireFromString("12.00"), Status: menu.StatusActive},
	}}
	svc := fulfillService(engine, items)

	ranked := []restaurant.Restaurant{{ID: "r1"}, {ID: "r2"}}
	lines, fulfilled, err := svc.fulfillItem(context.Background(), "Pizza", 3, ranked)
	require.NoError(t, err)

	assert.Equal(t, 3, fulfilled)
	require.Len(t, lines, 1)
	assert.Equal(t, "r2", lines[0].RestaurantID)
}

func TestFulfillItem_PartialAcrossAll(t *testing.T) {
	engine := newFakeEngine(map[string]int{"r1": 2, "r2": 3})
	items := &mockMenuRepo{items: []menu.Item{
		{ID: "m1", RestaurantID: "r1", Name: "Pizza", Price: decimal.RequireFromString("10.00"), Status: menu.StatusActive},
		{ID: "m2", RestaurantID: "r2", Name: "Pizza", Price: decimal.RequireFromString("12.00"), Status: menu.StatusActive},
	}}
	svc := fulfillService(engine, items)

	ranked := []restaurant.Restaurant{{ID: "r1"}, {ID: "r2"}}
	lines, fulfilled, err := svc.fulfillItem(context.Background(), "Pizza", 10, ranked)
	require.NoError(t, err, "a shortfall is reported through the fulfilled count, not an error")

	assert.Equal(t, 5, fulfilled)
	assert.Len(t, lines, 2)
}

func TestFulfillItem_MissingMenuItemIsInconsistency(t *testing.T) {
	engine := newFakeEngine(map[string]int{"r1": 5})
	svc := fulfillService(engine, &mockMenuRepo{})

	ranked := []restaurant.Restaurant{{ID: "r1"}}
	_, _, err := svc.fulfillItem(context.Background(), "Pizza", 2, ranked)

	var infErr *ItemNotFoundError
	require.ErrorAs(t, err, &infErr)
	assert.Equal(t, "Pizza", infErr.ItemName)
	assert.Equal(t, "r1", infErr.RestaurantID)
}

func TestFulfillItem_InactiveItemIsInconsistency(t *testing.T) {
	engine := newFakeEngine(map[string]int{"r1": 5})
	items := &mockMenuRepo{items: []menu.Item{
		{ID: "m1", RestaurantID: "r1", Name: "Pizza", Price: decimal.RequireFromString("10.00"), Status: menu.StatusInactive},
	}}
	svc := fulfillService(engine, items)

	ranked := []restaurant.Restaurant{{ID: "r1"}}
	_, _, err := svc.fulfillItem(context.Background(), "Pizza", 2, ranked)

	var infErr *ItemNotFoundError
	require.ErrorAs(t, err, &infErr)
}
