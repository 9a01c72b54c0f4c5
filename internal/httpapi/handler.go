// Package httpapi exposes the ordering system over HTTP with a chi router and
// JSON request/response bodies.
package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/feastly/ordersvc/internal/domain/menu"
	"github.com/feastly/ordersvc/internal/domain/order"
	"github.com/feastly/ordersvc/internal/domain/restaurant"
	"github.com/feastly/ordersvc/internal/domain/user"
)

// RestaurantService is the restaurant management surface the handler needs.
type RestaurantService interface {
	Add(ctx context.Context, req restaurant.CreateRequest) (*restaurant.Restaurant, error)
	Update(ctx context.Context, id string, req restaurant.CreateRequest) error
	Get(ctx context.Context, id string) (*restaurant.Restaurant, error)
	List(ctx context.Context, itemName string, page, size int) ([]restaurant.Restaurant, error)
}

// MenuService is the menu management surface the handler needs.
type MenuService interface {
	Add(ctx context.Context, req menu.ItemRequest) (*menu.Item, error)
	Update(ctx context.Context, id string, req menu.ItemRequest) error
	Get(ctx context.Context, id string) (*menu.Item, error)
	ListByRestaurant(ctx context.Context, restaurantID string, status menu.Status) ([]menu.Item, error)
	DistinctActiveNames(ctx context.Context) ([]string, error)
}

// UserService is the account surface the handler needs.
type UserService interface {
	Add(ctx context.Context, req user.Request) (*user.User, error)
	Update(ctx context.Context, id string, req user.Request) error
	Get(ctx context.Context, id string) (*user.User, error)
}

// OrderService is the order lifecycle surface the handler needs.
type OrderService interface {
	PlaceOrder(ctx context.Context, req order.PlaceOrderRequest) (*order.Order, error)
	CompleteOrder(ctx context.Context, orderID string) error
}

// OrderHistory serves read-only order lookups.
type OrderHistory interface {
	GetOrderDetails(ctx context.Context, orderID string) (*order.Details, error)
}

// Handler routes HTTP requests to the domain services.
type Handler struct {
	restaurants RestaurantService
	menus       MenuService
	users       UserService
	orders      OrderService
	history     OrderHistory
}

// NewHandler constructs a Handler with the required domain services.
func NewHandler(
	restaurants RestaurantService,
	menus MenuService,
	users UserService,
	orders OrderService,
	history OrderHistory,
) *Handler {
	return &Handler{
		restaurants: restaurants,
		menus:       menus,
		users:       users,
		orders:      orders,
		history:     history,
	}
}

// Routes mounts every API route on a fresh chi router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Route("/restaurants", func(r chi.Router) {
		r.Post("/", h.AddRestaurant)
		r.Get("/", h.ListRestaurants)
		r.Put("/{id}", h.UpdateRestaurant)
		r.Get("/{id}", h.GetRestaurant)
	})

	r.Route("/menu", func(r chi.Router) {
		r.Post("/", h.AddMenuItem)
		r.Get("/", h.ListMenuItems)
		r.Get("/names", h.ListActiveItemNames)
		r.Put("/{id}", h.UpdateMenuItem)
		r.Get("/{id}", h.GetMenuItem)
	})

	r.Route("/users", func(r chi.Router) {
		r.Post("/", h.AddUser)
		r.Put("/{id}", h.UpdateUser)
		r.Get("/{id}", h.GetUser)
	})

	r.Route("/orders", func(r chi.Router) {
		r.Post("/place", h.PlaceOrder)
		r.Put("/complete/{id}", h.CompleteOrder)
		r.Get("/{id}", h.GetOrderDetails)
	})

	return r
}
