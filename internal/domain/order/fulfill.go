package order

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/feastly/ordersvc/internal/domain/menu"
	"github.com/feastly/ordersvc/internal/domain/restaurant"
)

// CapacityEngine reserves and releases restaurant serving capacity. Reserve
// returns the quantity actually granted: the full request, a partial amount
// that exhausts the restaurant, or zero. Release returns
// capacity.ErrReleaseFailed when the units could not be returned.
type CapacityEngine interface {
	Reserve(ctx context.Context, restaurantID string, quantityNeeded int) (int, error)
	Release(ctx context.Context, restaurantID string, quantity int) error
}

// ItemNotFoundError indicates a restaurant granted a reservation but no
// matching active menu item exists, which is a data inconsistency between the
// directory index and the menu.
type ItemNotFoundError struct {
	ItemName     string
	RestaurantID string
}

func (e *ItemNotFoundError) Error() string {
	return fmt.Sprintf("no active menu item %q at restaurant %s", e.ItemName, e.RestaurantID)
}

// fulfillItem walks the ranked restaurants, reserving partial quantities of
// the named item until the request is satisfied or the list is exhausted. It
// returns the lines built from granted reservations and the total quantity
// fulfilled; deciding whether a shortfall is fatal is the caller's job.
//
// A restaurant contributing zero (out of capacity, or its reservation retries
// were exhausted) is skipped without a menu lookup. A positive grant with no
// matching active item fails with *ItemNotFoundError.
func (s *Service) fulfillItem(
	ctx context.Context,
	itemName string,
	quantityRequested int,
	restaurants []restaurant.Restaurant,
) ([]Line, int, error) {
	var (
		lines     []Line
		fulfilled int
	)
	remaining := quantityRequested

	for i := range restaurants {
		if remaining <= 0 {
			break
		}
		r := &restaurants[i]

		granted, err := s.engine.Reserve(ctx, r.ID, remaining)
		if err != nil {
			return nil, 0, err
		}
		if granted == 0 {
			continue
		}

		item, err := s.items.FindByNameAndRestaurant(ctx, itemName, r.ID, menu.StatusActive)
		if err != nil {
			if errors.Is(err, menu.ErrNotFound) {
				return nil, 0, &ItemNotFoundError{ItemName: itemName, RestaurantID: r.ID}
			}
			return nil, 0, err
		}

		lines = append(lines, Line{
			ID:           uuid.New().String(),
			MenuItemID:   item.ID,
			RestaurantID: r.ID,
			Quantity:     granted,
			Price:        item.Price,
		})
		remaining -= granted
		fulfilled += granted
	}

	return lines, fulfilled, nil
}
