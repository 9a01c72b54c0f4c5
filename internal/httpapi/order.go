package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/feastly/ordersvc/internal/domain/order"
)

// defaultStrategy ranks restaurants by item price when ?sortBy= is absent.
const defaultStrategy = "price"

type placeOrderRequest struct {
	UserID string             `json:"userId"`
	Items  []orderItemRequest `json:"items"`
}

type orderItemRequest struct {
	ItemName string `json:"itemName"`
	Quantity int    `json:"quantity"`
}

type orderResponse struct {
	ID        string              `json:"id"`
	UserID    string              `json:"userId"`
	Amount    decimal.Decimal     `json:"amount"`
	Status    string              `json:"status"`
	Lines     []orderLineResponse `json:"lines"`
	CreatedAt time.Time           `json:"createdAt"`
}

type orderLineResponse struct {
	MenuItemID   string          `json:"menuItemId"`
	RestaurantID string          `json:"restaurantId"`
	Quantity     int             `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
}

type orderDetailsResponse struct {
	OrderID   string                `json:"orderId"`
	UserID    string                `json:"userId"`
	Amount    decimal.Decimal       `json:"amount"`
	Status    string                `json:"status"`
	Lines     []orderDetailLineJSON `json:"orderItems"`
	CreatedAt time.Time             `json:"createdAt"`
	UpdatedAt time.Time             `json:"updatedAt"`
}

type orderDetailLineJSON struct {
	ItemName       string          `json:"itemName"`
	RestaurantName string          `json:"restaurantName"`
	Quantity       int             `json:"quantity"`
	Price          decimal.Decimal `json:"price"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// PlaceOrder fulfills an order request (?sortBy=price|rating) and returns the
// placed order.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	strategy := r.URL.Query().Get("sortBy")
	if strategy == "" {
		strategy = defaultStrategy
	}

	items := make([]order.ItemRequest, len(req.Items))
	for i, item := range req.Items {
		items[i] = order.ItemRequest{ItemName: item.ItemName, Quantity: item.Quantity}
	}

	o, err := h.orders.PlaceOrder(r.Context(), order.PlaceOrderRequest{
		UserID:   req.UserID,
		Items:    items,
		Strategy: strategy,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	lines := make([]orderLineResponse, len(o.Lines))
	for i, line := range o.Lines {
		lines[i] = orderLineResponse{
			MenuItemID:   line.MenuItemID,
			RestaurantID: line.RestaurantID,
			Quantity:     line.Quantity,
			Price:        line.Price,
		}
	}
	writeJSON(w, http.StatusCreated, orderResponse{
		ID:        o.ID,
		UserID:    o.UserID,
		Amount:    o.Amount,
		Status:    string(o.Status),
		Lines:     lines,
		CreatedAt: o.CreatedAt,
	})
}

// CompleteOrder transitions an order to COMPLETED, releasing its reserved
// capacity.
func (h *Handler) CompleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.orders.CompleteOrder(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetOrderDetails returns the order snapshot with line items.
func (h *Handler) GetOrderDetails(w http.ResponseWriter, r *http.Request) {
	d, err := h.history.GetOrderDetails(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	lines := make([]orderDetailLineJSON, len(d.Lines))
	for i, line := range d.Lines {
		lines[i] = orderDetailLineJSON{
			ItemName:       line.ItemName,
			RestaurantName: line.RestaurantName,
			Quantity:       line.Quantity,
			Price:          line.Price,
			CreatedAt:      line.CreatedAt,
			UpdatedAt:      line.UpdatedAt,
		}
	}
	writeJSON(w, http.StatusOK, orderDetailsResponse{
		OrderID:   d.OrderID,
		UserID:    d.UserID,
		Amount:    d.Amount,
		Status:    string(d.Status),
		Lines:     lines,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	})
}
