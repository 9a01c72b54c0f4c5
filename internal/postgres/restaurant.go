package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/feastly/ordersvc/internal/domain/restaurant"
)

const (
	getRestaurantSQL = `SELECT id, name, capacity, rating, version, created_at, updated_at
		FROM restaurants WHERE id = $1`

	// FOR SHARE serializes the read against concurrent writers of the same
	// row for the duration of the enclosing transaction.
	getRestaurantForShareSQL = getRestaurantSQL + ` FOR SHARE`

	createRestaurantSQL = `INSERT INTO restaurants (id, name, capacity, rating, version)
		VALUES ($1, $2, $3, $4, 1)
		RETURNING version, created_at, updated_at`

	// The version predicate is the optimistic check: zero rows means a
	// concurrent writer bumped the version since our read.
	saveRestaurantSQL = `UPDATE restaurants
		SET name = $2, capacity = $3, rating = $4, version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $5`

	restaurantExistsByNameSQL = `SELECT EXISTS (SELECT 1 FROM restaurants WHERE name = $1)`

	listRestaurantsSQL = `SELECT id, name, capacity, rating, version, created_at, updated_at
		FROM restaurants ORDER BY name LIMIT $1 OFFSET $2`

	listRestaurantsByItemSQL = `SELECT DISTINCT r.id, r.name, r.capacity, r.rating, r.version, r.created_at, r.updated_at
		FROM restaurants r
		JOIN menu_items m ON m.restaurant_id = r.id
		WHERE m.name = $1 AND m.status = 'ACTIVE'
		ORDER BY r.name LIMIT $2 OFFSET $3`

	findServingByPriceSQL = `SELECT r.id, r.name, r.capacity, r.rating, r.version, r.created_at, r.updated_at
		FROM restaurants r
		JOIN menu_items m ON m.restaurant_id = r.id
		WHERE m.name = $1 AND m.status = 'ACTIVE' AND r.capacity >= $2
		ORDER BY m.price ASC`

	findServingByRatingSQL = `SELECT r.id, r.name, r.capacity, r.rating, r.version, r.created_at, r.updated_at
		FROM restaurants r
		JOIN menu_items m ON m.restaurant_id = r.id
		WHERE m.name = $1 AND m.status = 'ACTIVE' AND r.capacity >= $2
		ORDER BY r.rating DESC`
)

var _ restaurant.Repository = (*RestaurantRepository)(nil)

// RestaurantRepository implements restaurant.Repository backed by PostgreSQL.
type RestaurantRepository struct {
	pool *pgxpool.Pool
}

// NewRestaurantRepository returns a RestaurantRepository that uses the given pool.
func NewRestaurantRepository(pool *pgxpool.Pool) *RestaurantRepository {
	return &RestaurantRepository{pool: pool}
}

// Get returns a restaurant by id.
func (r *RestaurantRepository) Get(ctx context.Context, id string) (*restaurant.Restaurant, error) {
	return r.get(ctx, getRestaurantSQL, id)
}

// GetForShare returns a restaurant by id, holding a row-level read lock until
// the enclosing transaction ends.
func (r *RestaurantRepository) GetForShare(ctx context.Context, id string) (*restaurant.Restaurant, error) {
	return r.get(ctx, getRestaurantForShareSQL, id)
}

func (r *RestaurantRepository) get(ctx context.Context, sql, id string) (*restaurant.Restaurant, error) {
	rows, err := queryEngine(ctx, r.pool).Query(ctx, sql, id)
	if err != nil {
		return nil, fmt.Errorf("getting restaurant %q: %w", id, err)
	}

	rec, err := pgx.CollectExactlyOneRow(rows, scanRestaurant)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, restaurant.ErrNotFound
		}
		return nil, fmt.Errorf("getting restaurant %q: %w", id, err)
	}
	return &rec, nil
}

// Create inserts a new restaurant at version 1.
func (r *RestaurantRepository) Create(ctx context.Context, rec *restaurant.Restaurant) error {
	err := queryEngine(ctx, r.pool).QueryRow(ctx, createRestaurantSQL,
		rec.ID, rec.Name, rec.Capacity, rec.Rating,
	).Scan(&rec.Version, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating restaurant %q: %w", rec.ID, err)
	}
	return nil
}

// Save writes the restaurant optimistically: the update only applies when the
// stored version still equals rec.Version. On success the version increment
// is reflected back into rec; a lost race returns
// restaurant.ErrVersionConflict.
func (r *RestaurantRepository) Save(ctx context.Context, rec *restaurant.Restaurant) error {
	tag, err := queryEngine(ctx, r.pool).Exec(ctx, saveRestaurantSQL,
		rec.ID, rec.Name, rec.Capacity, rec.Rating, rec.Version,
	)
	if err != nil {
		return fmt.Errorf("saving restaurant %q: %w", rec.ID, err)
	}
	if tag.RowsAffected() == 0 {
		// Distinguish a missing row from a version race.
		if _, err := r.Get(ctx, rec.ID); err != nil {
			return err
		}
		return restaurant.ErrVersionConflict
	}
	rec.Version++
	return nil
}

// ExistsByName reports whether a restaurant with the given name exists.
func (r *RestaurantRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := queryEngine(ctx, r.pool).QueryRow(ctx, restaurantExistsByNameSQL, name).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking restaurant name %q: %w", name, err)
	}
	return exists, nil
}

// List returns a page of restaurants, optionally only those serving an
// active item with the given name.
func (r *RestaurantRepository) List(ctx context.Context, itemName string, limit, offset int) ([]restaurant.Restaurant, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if itemName == "" {
		rows, err = queryEngine(ctx, r.pool).Query(ctx, listRestaurantsSQL, limit, offset)
	} else {
		rows, err = queryEngine(ctx, r.pool).Query(ctx, listRestaurantsByItemSQL, itemName, limit, offset)
	}
	if err != nil {
		return nil, fmt.Errorf("listing restaurants: %w", err)
	}
	return pgx.CollectRows(rows, scanRestaurant)
}

// FindServing returns the restaurants offering an active item with the given
// name and capacity >= minCapacity, ranked by the strategy. An empty result
// is not an error.
func (r *RestaurantRepository) FindServing(ctx context.Context, itemName string, minCapacity int, strategy restaurant.Strategy) ([]restaurant.Restaurant, error) {
	var sql string
	switch strategy {
	case restaurant.StrategyPriceAscending:
		sql = findServingByPriceSQL
	case restaurant.StrategyRatingDescending:
		sql = findServingByRatingSQL
	default:
		return nil, &restaurant.StrategyNotFoundError{Name: strategy.String()}
	}

	rows, err := queryEngine(ctx, r.pool).Query(ctx, sql, itemName, minCapacity)
	if err != nil {
		return nil, fmt.Errorf("finding restaurants serving %q: %w", itemName, err)
	}
	return pgx.CollectRows(rows, scanRestaurant)
}

func scanRestaurant(row pgx.CollectableRow) (restaurant.Restaurant, error) {
	var rec restaurant.Restaurant
	err := row.Scan(
		&rec.ID, &rec.Name, &rec.Capacity, &rec.Rating,
		&rec.Version, &rec.CreatedAt, &rec.UpdatedAt,
	)
	return rec, err
}
