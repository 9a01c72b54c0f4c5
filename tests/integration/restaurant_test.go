//go:build integration

package integration

import (
	"fmt"
	"net/http"
	"sync"
	"testing"
)

func TestCreateRestaurant_DuplicateName(t *testing.T) {
	createRestaurant(t, "Duplicate Diner", 5, 4.0)

	resp := doPost(t, "/api/restaurants/", restaurantRequest{Name: "Duplicate Diner", Capacity: 5})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}

func TestCreateRestaurant_MissingName(t *testing.T) {
	resp := doPost(t, "/api/restaurants/", restaurantRequest{Capacity: 5})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestGetRestaurant_NotFound(t *testing.T) {
	resp := doGet(t, "/api/restaurants/00000000-0000-0000-0000-000000000000")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestUpdateRestaurant(t *testing.T) {
	r := createRestaurant(t, "Update Me", 5, 3.0)

	resp := doPut(t, "/api/restaurants/"+r.ID, restaurantRequest{Name: "Updated Diner", Capacity: 9, Rating: 4.4})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}

	got := getRestaurant(t, r.ID)
	if got.Name != "Updated Diner" || got.Capacity != 9 {
		t.Errorf("after update: got %+v", got)
	}
}

func TestCreateMenuItem_DuplicatePerRestaurant(t *testing.T) {
	r := createRestaurant(t, "Menu Dup Diner", 5, 4.0)
	createMenuItem(t, r.ID, "DupPie", 10.00)

	resp := doPost(t, "/api/menu/", menuItemRequest{RestaurantID: r.ID, Name: "DupPie", Price: 10.00})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}

func TestCreateMenuItem_UnknownRestaurant(t *testing.T) {
	resp := doPost(t, "/api/menu/", menuItemRequest{
		RestaurantID: "00000000-0000-0000-0000-000000000000",
		Name:         "OrphanPie",
		Price:        10.00,
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestListRestaurantsByItem(t *testing.T) {
	r := createRestaurant(t, "Filter Diner", 5, 4.0)
	createMenuItem(t, r.ID, "FilterPie", 10.00)

	resp := doGet(t, "/api/restaurants/?itemName=FilterPie")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	list := decodeJSON[[]restaurantResponse](t, resp)
	if len(list) != 1 || list[0].ID != r.ID {
		t.Fatalf("list: got %+v, want only the serving restaurant", list)
	}
}

// TestConcurrentOrders_NeverOversubscribe hammers one restaurant with
// parallel single-unit orders; accepted units can never exceed capacity and
// the remaining capacity must account for every accepted unit.
func TestConcurrentOrders_NeverOversubscribe(t *testing.T) {
	const (
		capacity = 10
		workers  = 25
	)
	r := createRestaurant(t, "Contention Diner", capacity, 4.0)
	createMenuItem(t, r.ID, "ContendedPie", 10.00)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			u := createUser(t, fmt.Sprintf("contender-%d", i))

			resp := doPost(t, "/api/orders/place", placeOrderRequest{
				UserID: u.ID,
				Items:  []orderItemRequest{{ItemName: "ContendedPie", Quantity: 1}},
			})
			defer resp.Body.Close()

			switch resp.StatusCode {
			case http.StatusCreated:
				mu.Lock()
				accepted++
				mu.Unlock()
			case http.StatusUnprocessableEntity:
				// Out of capacity or lost every retry; both are valid refusals.
			default:
				t.Errorf("unexpected status %d", resp.StatusCode)
			}
		}(i)
	}
	wg.Wait()

	if accepted > capacity {
		t.Fatalf("accepted %d orders with capacity %d", accepted, capacity)
	}

	if got := getRestaurant(t, r.ID).Capacity; got != capacity-accepted {
		t.Errorf("remaining capacity: got %d, want %d", got, capacity-accepted)
	}
}
