package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/feastly/ordersvc/internal/domain/restaurant"
)

type restaurantRequest struct {
	Name     string  `json:"name"`
	Capacity int     `json:"capacity"`
	Rating   float64 `json:"rating"`
}

type restaurantResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Capacity  int       `json:"capacity"`
	Rating    float64   `json:"rating"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toRestaurantResponse(r *restaurant.Restaurant) restaurantResponse {
	return restaurantResponse{
		ID:        r.ID,
		Name:      r.Name,
		Capacity:  r.Capacity,
		Rating:    r.Rating,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// AddRestaurant registers a new restaurant.
func (h *Handler) AddRestaurant(w http.ResponseWriter, r *http.Request) {
	var req restaurantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || req.Capacity < 0 {
		writeError(w, http.StatusBadRequest, "name is required and capacity must not be negative")
		return
	}

	rec, err := h.restaurants.Add(r.Context(), restaurant.CreateRequest{
		Name:     req.Name,
		Capacity: req.Capacity,
		Rating:   req.Rating,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRestaurantResponse(rec))
}

// UpdateRestaurant overwrites an existing restaurant.
func (h *Handler) UpdateRestaurant(w http.ResponseWriter, r *http.Request) {
	var req restaurantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || req.Capacity < 0 {
		writeError(w, http.StatusBadRequest, "name is required and capacity must not be negative")
		return
	}

	err := h.restaurants.Update(r.Context(), chi.URLParam(r, "id"), restaurant.CreateRequest{
		Name:     req.Name,
		Capacity: req.Capacity,
		Rating:   req.Rating,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetRestaurant returns one restaurant by id.
func (h *Handler) GetRestaurant(w http.ResponseWriter, r *http.Request) {
	rec, err := h.restaurants.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRestaurantResponse(rec))
}

// ListRestaurants returns a page of restaurants, optionally filtered by a
// served item name (?itemName=).
func (h *Handler) ListRestaurants(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 0)
	size := queryInt(r, "size", 100)

	recs, err := h.restaurants.List(r.Context(), r.URL.Query().Get("itemName"), page, size)
	if err != nil {
		respondError(w, r, err)
		return
	}

	resp := make([]restaurantResponse, len(recs))
	for i := range recs {
		resp[i] = toRestaurantResponse(&recs[i])
	}
	writeJSON(w, http.StatusOK, resp)
}

// queryInt parses an integer query parameter, falling back to def on absence
// or garbage.
func queryInt(r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
