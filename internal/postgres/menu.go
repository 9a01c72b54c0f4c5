package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/feastly/ordersvc/internal/domain/menu"
)

const (
	getMenuItemSQL = `SELECT id, restaurant_id, name, description, price, status, created_at, updated_at
		FROM menu_items WHERE id = $1`

	createMenuItemSQL = `INSERT INTO menu_items (id, restaurant_id, name, description, price, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`

	updateMenuItemSQL = `UPDATE menu_items
		SET restaurant_id = $2, name = $3, description = $4, price = $5, status = $6, updated_at = now()
		WHERE id = $1`

	menuItemExistsSQL = `SELECT EXISTS (
		SELECT 1 FROM menu_items WHERE name = $1 AND restaurant_id = $2)`

	findMenuItemByNameSQL = `SELECT id, restaurant_id, name, description, price, status, created_at, updated_at
		FROM menu_items WHERE name = $1 AND restaurant_id = $2 AND status = $3`

	listMenuItemsSQL = `SELECT id, restaurant_id, name, description, price, status, created_at, updated_at
		FROM menu_items WHERE restaurant_id = $1 AND status = $2 ORDER BY name`

	distinctActiveNamesSQL = `SELECT DISTINCT name FROM menu_items WHERE status = 'ACTIVE' ORDER BY name`
)

var _ menu.Repository = (*MenuRepository)(nil)

// MenuRepository implements menu.Repository backed by PostgreSQL.
type MenuRepository struct {
	pool *pgxpool.Pool
}

// NewMenuRepository returns a MenuRepository that uses the given pool.
func NewMenuRepository(pool *pgxpool.Pool) *MenuRepository {
	return &MenuRepository{pool: pool}
}

// Get returns a menu item by id.
func (r *MenuRepository) Get(ctx context.Context, id string) (*menu.Item, error) {
	rows, err := queryEngine(ctx, r.pool).Query(ctx, getMenuItemSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting menu item %q: %w", id, err)
	}

	item, err := pgx.CollectExactlyOneRow(rows, scanMenuItem)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, menu.ErrNotFound
		}
		return nil, fmt.Errorf("getting menu item %q: %w", id, err)
	}
	return &item, nil
}

// Create inserts a new menu item.
func (r *MenuRepository) Create(ctx context.Context, item *menu.Item) error {
	err := queryEngine(ctx, r.pool).QueryRow(ctx, createMenuItemSQL,
		item.ID, item.RestaurantID, item.Name, item.Description, item.Price, item.Status,
	).Scan(&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating menu item %q: %w", item.ID, err)
	}
	return nil
}

// Update overwrites an existing menu item.
func (r *MenuRepository) Update(ctx context.Context, item *menu.Item) error {
	tag, err := queryEngine(ctx, r.pool).Exec(ctx, updateMenuItemSQL,
		item.ID, item.RestaurantID, item.Name, item.Description, item.Price, item.Status,
	)
	if err != nil {
		return fmt.Errorf("updating menu item %q: %w", item.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return menu.ErrNotFound
	}
	return nil
}

// ExistsByNameAndRestaurant reports whether the restaurant already offers an
// item with the given name.
func (r *MenuRepository) ExistsByNameAndRestaurant(ctx context.Context, name, restaurantID string) (bool, error) {
	var exists bool
	err := queryEngine(ctx, r.pool).QueryRow(ctx, menuItemExistsSQL, name, restaurantID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking menu item %q: %w", name, err)
	}
	return exists, nil
}

// FindByNameAndRestaurant returns the restaurant's item with the given name
// and status, or menu.ErrNotFound.
func (r *MenuRepository) FindByNameAndRestaurant(ctx context.Context, name, restaurantID string, status menu.Status) (*menu.Item, error) {
	rows, err := queryEngine(ctx, r.pool).Query(ctx, findMenuItemByNameSQL, name, restaurantID, status)
	if err != nil {
		return nil, fmt.Errorf("finding menu item %q: %w", name, err)
	}

	item, err := pgx.CollectExactlyOneRow(rows, scanMenuItem)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, menu.ErrNotFound
		}
		return nil, fmt.Errorf("finding menu item %q: %w", name, err)
	}
	return &item, nil
}

// ListByRestaurant returns the restaurant's items with the given status.
func (r *MenuRepository) ListByRestaurant(ctx context.Context, restaurantID string, status menu.Status) ([]menu.Item, error) {
	rows, err := queryEngine(ctx, r.pool).Query(ctx, listMenuItemsSQL, restaurantID, status)
	if err != nil {
		return nil, fmt.Errorf("listing menu items: %w", err)
	}
	return pgx.CollectRows(rows, scanMenuItem)
}

// DistinctActiveNames returns the unique names of active items across all
// restaurants.
func (r *MenuRepository) DistinctActiveNames(ctx context.Context) ([]string, error) {
	rows, err := queryEngine(ctx, r.pool).Query(ctx, distinctActiveNamesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing active item names: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (string, error) {
		var name string
		err := row.Scan(&name)
		return name, err
	})
}

func scanMenuItem(row pgx.CollectableRow) (menu.Item, error) {
	var item menu.Item
	err := row.Scan(
		&item.ID, &item.RestaurantID, &item.Name, &item.Description,
		&item.Price, &item.Status, &item.CreatedAt, &item.UpdatedAt,
	)
	return item, err
}
