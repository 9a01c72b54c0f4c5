package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/feastly/ordersvc/internal/domain/capacity"
	"github.com/feastly/ordersvc/internal/domain/menu"
	"github.com/feastly/ordersvc/internal/domain/order"
	"github.com/feastly/ordersvc/internal/domain/restaurant"
	"github.com/feastly/ordersvc/internal/domain/user"
)

// errorResponse is the JSON body for every failed request.
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Code: status, Message: message})
}

// respondError maps a domain error to an HTTP status. Unexpected errors are
// logged and returned as an opaque 500.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch status := statusFor(err); status {
	case http.StatusInternalServerError:
		zctx.From(r.Context()).Error("request failed", zap.Error(err))
		writeError(w, status, "internal server error")
	default:
		writeError(w, status, err.Error())
	}
}

// statusFor is the single place where the domain error taxonomy turns into
// HTTP status codes.
func statusFor(err error) int {
	var (
		strategyErr  *restaurant.StrategyNotFoundError
		noServingErr *restaurant.NoRestaurantServesItemError
		quantityErr  *order.InvalidQuantityError
		fulfillErr   *order.FulfillmentError
		missingItem  *order.ItemNotFoundError
	)
	switch {
	case errors.Is(err, restaurant.ErrNotFound),
		errors.Is(err, menu.ErrNotFound),
		errors.Is(err, user.ErrNotFound),
		errors.Is(err, order.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, restaurant.ErrAlreadyExists),
		errors.Is(err, menu.ErrAlreadyExists),
		errors.Is(err, order.ErrAlreadyCompleted),
		errors.Is(err, restaurant.ErrUpdateFailed):
		return http.StatusConflict
	case errors.As(err, &strategyErr),
		errors.Is(err, order.ErrEmptyItems):
		return http.StatusBadRequest
	case errors.As(err, &noServingErr),
		errors.As(err, &quantityErr),
		errors.As(err, &fulfillErr),
		errors.As(err, &missingItem):
		return http.StatusUnprocessableEntity
	case errors.Is(err, capacity.ErrReleaseFailed):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
