package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/feastly/ordersvc/internal/domain/menu"
)

type menuItemRequest struct {
	RestaurantID string          `json:"restaurantId"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	Status       string          `json:"status"`
}

type menuItemResponse struct {
	ID           string          `json:"id"`
	RestaurantID string          `json:"restaurantId"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	Status       string          `json:"status"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

func toMenuItemResponse(item *menu.Item) menuItemResponse {
	return menuItemResponse{
		ID:           item.ID,
		RestaurantID: item.RestaurantID,
		Name:         item.Name,
		Description:  item.Description,
		Price:        item.Price,
		Status:       string(item.Status),
		CreatedAt:    item.CreatedAt,
		UpdatedAt:    item.UpdatedAt,
	}
}

func (req *menuItemRequest) validate() (menu.ItemRequest, string) {
	if req.RestaurantID == "" || req.Name == "" {
		return menu.ItemRequest{}, "restaurantId and name are required"
	}
	if req.Price.IsNegative() {
		return menu.ItemRequest{}, "price must not be negative"
	}
	status := menu.Status(req.Status)
	if req.Status != "" && !status.Valid() {
		return menu.ItemRequest{}, "status must be ACTIVE or INACTIVE"
	}
	return menu.ItemRequest{
		RestaurantID: req.RestaurantID,
		Name:         req.Name,
		Description:  req.Description,
		Price:        req.Price,
		Status:       status,
	}, ""
}

// AddMenuItem creates a menu item for a restaurant.
func (h *Handler) AddMenuItem(w http.ResponseWriter, r *http.Request) {
	var req menuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	domainReq, msg := req.validate()
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	item, err := h.menus.Add(r.Context(), domainReq)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toMenuItemResponse(item))
}

// UpdateMenuItem overwrites an existing menu item.
func (h *Handler) UpdateMenuItem(w http.ResponseWriter, r *http.Request) {
	var req menuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	domainReq, msg := req.validate()
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	if err := h.menus.Update(r.Context(), chi.URLParam(r, "id"), domainReq); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetMenuItem returns one menu item by id.
func (h *Handler) GetMenuItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.menus.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMenuItemResponse(item))
}

// ListMenuItems returns a restaurant's items (?restaurantId=&status=),
// defaulting to ACTIVE items.
func (h *Handler) ListMenuItems(w http.ResponseWriter, r *http.Request) {
	restaurantID := r.URL.Query().Get("restaurantId")
	if restaurantID == "" {
		writeError(w, http.StatusBadRequest, "restaurantId is required")
		return
	}
	status := menu.Status(r.URL.Query().Get("status"))
	if status == "" {
		status = menu.StatusActive
	}
	if !status.Valid() {
		writeError(w, http.StatusBadRequest, "status must be ACTIVE or INACTIVE")
		return
	}

	items, err := h.menus.ListByRestaurant(r.Context(), restaurantID, status)
	if err != nil {
		respondError(w, r, err)
		return
	}

	resp := make([]menuItemResponse, len(items))
	for i := range items {
		resp[i] = toMenuItemResponse(&items[i])
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListActiveItemNames returns the distinct names of all active menu items.
func (h *Handler) ListActiveItemNames(w http.ResponseWriter, r *http.Request) {
	names, err := h.menus.DistinctActiveNames(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, names)
}
