package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/feastly/ordersvc/internal/domain/order"
)

const (
	createOrderSQL = `INSERT INTO orders (id, user_id, amount, status)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`

	createOrderLineSQL = `INSERT INTO order_items (id, order_id, menu_item_id, restaurant_id, quantity, price)
		VALUES ($1, $2, $3, $4, $5, $6)`

	getOrderSQL = `SELECT id, user_id, amount, status, created_at, updated_at
		FROM orders WHERE id = $1`

	getOrderLinesSQL = `SELECT id, menu_item_id, restaurant_id, quantity, price, created_at, updated_at
		FROM order_items WHERE order_id = $1 ORDER BY created_at, id`

	updateOrderStatusSQL = `UPDATE orders SET status = $2, updated_at = now() WHERE id = $1`

	getOrderDetailsSQL = `SELECT m.name, r.name, oi.quantity, oi.price, oi.created_at, oi.updated_at
		FROM order_items oi
		JOIN menu_items m ON m.id = oi.menu_item_id
		JOIN restaurants r ON r.id = oi.restaurant_id
		WHERE oi.order_id = $1
		ORDER BY oi.created_at, oi.id`
)

var (
	_ order.Repository    = (*OrderRepository)(nil)
	_ order.DetailsReader = (*OrderRepository)(nil)
)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists the order and all of its lines. Callers are expected to run
// it inside a transaction so the order and lines land together.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	q := queryEngine(ctx, r.pool)

	err := q.QueryRow(ctx, createOrderSQL, o.ID, o.UserID, o.Amount, o.Status).
		Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}

	for i := range o.Lines {
		line := &o.Lines[i]
		_, err := q.Exec(ctx, createOrderLineSQL,
			line.ID, o.ID, line.MenuItemID, line.RestaurantID, line.Quantity, line.Price,
		)
		if err != nil {
			return fmt.Errorf("creating order line %q: %w", line.ID, err)
		}
	}
	return nil
}

// Get loads an order with its lines.
func (r *OrderRepository) Get(ctx context.Context, id string) (*order.Order, error) {
	q := queryEngine(ctx, r.pool)

	var o order.Order
	err := q.QueryRow(ctx, getOrderSQL, id).Scan(
		&o.ID, &o.UserID, &o.Amount, &o.Status, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	rows, err := q.Query(ctx, getOrderLinesSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order lines %q: %w", id, err)
	}
	o.Lines, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.Line, error) {
		var line order.Line
		err := row.Scan(
			&line.ID, &line.MenuItemID, &line.RestaurantID,
			&line.Quantity, &line.Price, &line.CreatedAt, &line.UpdatedAt,
		)
		return line, err
	})
	if err != nil {
		return nil, fmt.Errorf("getting order lines %q: %w", id, err)
	}
	return &o, nil
}

// UpdateStatus persists a status transition.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status order.Status) error {
	tag, err := queryEngine(ctx, r.pool).Exec(ctx, updateOrderStatusSQL, id, status)
	if err != nil {
		return fmt.Errorf("updating order %q status: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

// GetDetails loads an order snapshot with item and restaurant names resolved.
func (r *OrderRepository) GetDetails(ctx context.Context, id string) (*order.Details, error) {
	q := queryEngine(ctx, r.pool)

	var d order.Details
	err := q.QueryRow(ctx, getOrderSQL, id).Scan(
		&d.OrderID, &d.UserID, &d.Amount, &d.Status, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	rows, err := q.Query(ctx, getOrderDetailsSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order details %q: %w", id, err)
	}
	d.Lines, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.LineDetails, error) {
		var line order.LineDetails
		err := row.Scan(
			&line.ItemName, &line.RestaurantName, &line.Quantity,
			&line.Price, &line.CreatedAt, &line.UpdatedAt,
		)
		return line, err
	})
	if err != nil {
		return nil, fmt.Errorf("getting order details %q: %w", id, err)
	}
	return &d, nil
}
