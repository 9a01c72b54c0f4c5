package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Sentinel errors for the order lifecycle.
var (
	// ErrNotFound is returned when a requested order does not exist.
	ErrNotFound = errors.New("order not found")
	// ErrAlreadyCompleted is returned when completing an order twice.
	ErrAlreadyCompleted = errors.New("order is already completed")
	// ErrEmptyItems is returned when an order request carries no items.
	ErrEmptyItems = errors.New("order items required")
)

// Status is the order lifecycle state. Transitions only go forward:
// PLACED -> COMPLETED.
type Status string

const (
	StatusPlaced    Status = "PLACED"
	StatusCompleted Status = "COMPLETED"
)

// Order is a placed customer order. Amount always equals the sum of
// price x quantity over the lines at the moment it was computed.
type Order struct {
	ID        string
	UserID    string
	Amount    decimal.Decimal
	Status    Status
	Lines     []Line
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Line is a single fulfillment line: a quantity of one menu item reserved
// against its owning restaurant, with the price snapshotted at reservation
// time. Lines are immutable once the order is created.
type Line struct {
	ID           string
	MenuItemID   string
	RestaurantID string
	Quantity     int
	Price        decimal.Decimal
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Repository defines persistence operations for orders and their lines.
type Repository interface {
	// Create persists the order together with all of its lines.
	Create(ctx context.Context, o *Order) error
	// Get loads an order with its lines, or ErrNotFound.
	Get(ctx context.Context, id string) (*Order, error)
	// UpdateStatus persists a status transition.
	UpdateStatus(ctx context.Context, id string, status Status) error
}

// InvalidQuantityError indicates a requested line has a non-positive quantity.
type InvalidQuantityError struct {
	ItemName string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for item %s", e.ItemName)
}

// FulfillmentError indicates the ranked restaurants could not jointly cover
// the requested quantity of an item.
type FulfillmentError struct {
	ItemName  string
	Requested int
	Fulfilled int
}

func (e *FulfillmentError) Error() string {
	return fmt.Sprintf("unable to fully fulfill item %s: got %d of %d", e.ItemName, e.Fulfilled, e.Requested)
}
