package menu

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/feastly/ordersvc/internal/domain/restaurant"
)

// ItemRequest holds the input for creating or updating a menu item.
type ItemRequest struct {
	RestaurantID string
	Name         string
	Description  string
	Price        decimal.Decimal
	Status       Status
}

// Service provides administrative operations on restaurant menus.
type Service struct {
	items       Repository
	restaurants restaurant.Repository
}

// NewService creates a menu Service.
func NewService(items Repository, restaurants restaurant.Repository) *Service {
	return &Service{items: items, restaurants: restaurants}
}

// Add creates a menu item for an existing restaurant. A restaurant offers at
// most one item per name: duplicates fail with ErrAlreadyExists.
func (s *Service) Add(ctx context.Context, req ItemRequest) (*Item, error) {
	if _, err := s.restaurants.Get(ctx, req.RestaurantID); err != nil {
		return nil, err
	}

	exists, err := s.items.ExistsByNameAndRestaurant(ctx, req.Name, req.RestaurantID)
	if err != nil {
		return nil, errors.Wrap(err, "check menu item name")
	}
	if exists {
		return nil, ErrAlreadyExists
	}

	status := req.Status
	if status == "" {
		status = StatusActive
	}
	item := &Item{
		ID:           uuid.New().String(),
		RestaurantID: req.RestaurantID,
		Name:         req.Name,
		Description:  req.Description,
		Price:        req.Price,
		Status:       status,
	}
	if err := s.items.Create(ctx, item); err != nil {
		return nil, errors.Wrap(err, "create menu item")
	}
	return item, nil
}

// Update overwrites an existing menu item. Both the item and the target
// restaurant must exist.
func (s *Service) Update(ctx context.Context, id string, req ItemRequest) error {
	item, err := s.items.Get(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.restaurants.Get(ctx, req.RestaurantID); err != nil {
		return err
	}

	item.RestaurantID = req.RestaurantID
	item.Name = req.Name
	item.Description = req.Description
	item.Price = req.Price
	if req.Status != "" {
		item.Status = req.Status
	}
	if err := s.items.Update(ctx, item); err != nil {
		return errors.Wrap(err, "update menu item")
	}
	return nil
}

// Get returns a menu item by id.
func (s *Service) Get(ctx context.Context, id string) (*Item, error) {
	return s.items.Get(ctx, id)
}

// ListByRestaurant returns the items a restaurant offers under the given
// status. The restaurant must exist.
func (s *Service) ListByRestaurant(ctx context.Context, restaurantID string, status Status) ([]Item, error) {
	if _, err := s.restaurants.Get(ctx, restaurantID); err != nil {
		return nil, err
	}
	return s.items.ListByRestaurant(ctx, restaurantID, status)
}

// DistinctActiveNames returns the unique names of all active menu items.
func (s *Service) DistinctActiveNames(ctx context.Context) ([]string, error) {
	return s.items.DistinctActiveNames(ctx)
}
