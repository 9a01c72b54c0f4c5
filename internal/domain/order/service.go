package order

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/feastly/ordersvc/internal/domain/menu"
	"github.com/feastly/ordersvc/internal/domain/restaurant"
	"github.com/feastly/ordersvc/internal/domain/user"
)

// Transactor runs fn inside a single all-or-nothing transaction. Every
// repository call made with the context passed to fn joins that transaction;
// if fn returns an error the transaction is rolled back, undoing all
// reservations and writes made within it.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Directory ranks restaurants serving an item under a named strategy
// (restaurant.Service implements it).
type Directory interface {
	FindServing(ctx context.Context, strategyName, itemName string, minCapacity int) ([]restaurant.Restaurant, error)
}

// During fulfillment each item only needs one restaurant with at least one
// free unit; splitting covers the rest.
const fulfillMinCapacity = 1

// ItemRequest is one requested line of an order: an item name and the
// quantity wanted.
type ItemRequest struct {
	ItemName string
	Quantity int
}

// PlaceOrderRequest holds the input for placing an order.
type PlaceOrderRequest struct {
	UserID   string
	Items    []ItemRequest
	Strategy string
}

// Service drives the order lifecycle: placement (PLACED) and completion
// (COMPLETED), with capacity reserved on placement and released on
// completion.
type Service struct {
	tx        Transactor
	users     user.Repository
	directory Directory
	items     menu.Repository
	orders    Repository
	engine    CapacityEngine
	lg        *zap.Logger
}

// NewService creates an order Service with the required collaborators.
func NewService(
	tx Transactor,
	users user.Repository,
	directory Directory,
	items menu.Repository,
	orders Repository,
	engine CapacityEngine,
	lg *zap.Logger,
) *Service {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &Service{
		tx:        tx,
		users:     users,
		directory: directory,
		items:     items,
		orders:    orders,
		engine:    engine,
		lg:        lg,
	}
}

// PlaceOrder fulfills every requested item against the ranked restaurants and
// persists the order as PLACED. The whole operation runs in one transaction:
// any failure (unknown strategy, no serving restaurant, unsatisfiable
// quantity, data inconsistency, store error) rolls back all reservations and
// the order itself.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*Order, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, &InvalidQuantityError{ItemName: item.ItemName}
		}
	}

	// Resolve the strategy up front so an unknown name never reaches the
	// reservation path.
	if _, err := restaurant.ResolveStrategy(req.Strategy); err != nil {
		return nil, err
	}

	u, err := s.users.Get(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	o := &Order{
		ID:     uuid.New().String(),
		UserID: u.ID,
		Amount: decimal.Zero,
		Status: StatusPlaced,
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		for _, item := range req.Items {
			restaurants, err := s.directory.FindServing(ctx, req.Strategy, item.ItemName, fulfillMinCapacity)
			if err != nil {
				return err
			}

			lines, fulfilled, err := s.fulfillItem(ctx, item.ItemName, item.Quantity, restaurants)
			if err != nil {
				return err
			}
			if fulfilled < item.Quantity {
				return &FulfillmentError{
					ItemName:  item.ItemName,
					Requested: item.Quantity,
					Fulfilled: fulfilled,
				}
			}
			o.Lines = append(o.Lines, lines...)
		}

		o.Amount = totalAmount(o.Lines)
		if err := s.orders.Create(ctx, o); err != nil {
			return errors.Wrap(err, "create order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.lg.Info("order placed",
		zap.String("order_id", o.ID),
		zap.String("user_id", o.UserID),
		zap.Int("lines", len(o.Lines)),
		zap.String("amount", o.Amount.String()))
	return o, nil
}

// CompleteOrder transitions an order PLACED -> COMPLETED, releasing every
// line's reserved quantity back to its restaurant. A second completion fails
// with ErrAlreadyCompleted without touching capacity. A failed release aborts
// the whole transition: the transaction rolls back and no line is released.
func (s *Service) CompleteOrder(ctx context.Context, orderID string) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		o, err := s.orders.Get(ctx, orderID)
		if err != nil {
			return err
		}
		if o.Status == StatusCompleted {
			return errors.Wrapf(ErrAlreadyCompleted, "order %s", orderID)
		}

		for _, line := range o.Lines {
			if _, err := s.items.Get(ctx, line.MenuItemID); err != nil {
				return err
			}
			if err := s.engine.Release(ctx, line.RestaurantID, line.Quantity); err != nil {
				return err
			}
		}

		return s.orders.UpdateStatus(ctx, orderID, StatusCompleted)
	})
	if err != nil {
		return err
	}

	s.lg.Info("order completed", zap.String("order_id", orderID))
	return nil
}

// totalAmount sums price x quantity over the lines.
func totalAmount(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return total
}
