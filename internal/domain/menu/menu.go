package menu

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Sentinel errors for menu persistence.
var (
	// ErrNotFound is returned when a requested menu item does not exist.
	ErrNotFound = errors.New("menu item not found")
	// ErrAlreadyExists is returned when a restaurant already offers an item
	// with the same name.
	ErrAlreadyExists = errors.New("menu item with this name already exists for the restaurant")
)

// Status marks whether an item is currently orderable. Only ACTIVE items are
// consulted during fulfillment.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
)

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// Item is a purchasable product offered by exactly one restaurant.
// (name, restaurant) pairs are unique.
type Item struct {
	ID           string
	RestaurantID string
	Name         string
	Description  string
	Price        decimal.Decimal
	Status       Status
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Repository defines persistence operations for menu items.
type Repository interface {
	Get(ctx context.Context, id string) (*Item, error)
	Create(ctx context.Context, item *Item) error
	Update(ctx context.Context, item *Item) error
	ExistsByNameAndRestaurant(ctx context.Context, name, restaurantID string) (bool, error)
	// FindByNameAndRestaurant returns the item a restaurant offers under the
	// given name and status, or ErrNotFound.
	FindByNameAndRestaurant(ctx context.Context, name, restaurantID string, status Status) (*Item, error)
	ListByRestaurant(ctx context.Context, restaurantID string, status Status) ([]Item, error)
	DistinctActiveNames(ctx context.Context) ([]string, error)
}
