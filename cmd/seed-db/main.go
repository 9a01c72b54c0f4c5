// Command seed-db loads a JSON fixture of restaurants, menu items, and users
// into the database. Rows are upserted, so reruns are safe.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/feastly/ordersvc/internal/postgres"
)

type restaurantJSON struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Capacity int     `json:"capacity"`
	Rating   float64 `json:"rating"`
	Menu     []struct {
		ID          string          `json:"id"`
		Name        string          `json:"name"`
		Description string          `json:"description"`
		Price       decimal.Decimal `json:"price"`
		Status      string          `json:"status"`
	} `json:"menu"`
}

type userJSON struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Age   int    `json:"age"`
}

type seedJSON struct {
	Restaurants []restaurantJSON `json:"restaurants"`
	Users       []userJSON       `json:"users"`
}

func main() {
	var (
		databaseURL string
		seedFile    string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&seedFile, "seed-file", "db/seed/fixtures.json", "path to seed JSON file")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, seedFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, seedFile string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	slog.Info("reading seed file", slog.String("path", seedFile))

	data, err := os.ReadFile(seedFile)
	if err != nil {
		return errors.Wrap(err, "read seed file")
	}

	var seed seedJSON
	if err := json.Unmarshal(data, &seed); err != nil {
		return errors.Wrap(err, "parse seed JSON")
	}

	if err := seedRestaurants(ctx, pool, seed.Restaurants); err != nil {
		return errors.Wrap(err, "seed restaurants")
	}

	if err := seedUsers(ctx, pool, seed.Users); err != nil {
		return errors.Wrap(err, "seed users")
	}

	return nil
}

const upsertRestaurantSQL = `INSERT INTO restaurants (id, name, capacity, rating)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE SET
    name = EXCLUDED.name, capacity = EXCLUDED.capacity,
    rating = EXCLUDED.rating, updated_at = now()`

const upsertMenuItemSQL = `INSERT INTO menu_items (id, restaurant_id, name, description, price, status)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO UPDATE SET
    name = EXCLUDED.name, description = EXCLUDED.description,
    price = EXCLUDED.price, status = EXCLUDED.status, updated_at = now()`

const upsertUserSQL = `INSERT INTO users (id, name, email, age)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE SET
    name = EXCLUDED.name, email = EXCLUDED.email,
    age = EXCLUDED.age, updated_at = now()`

func seedRestaurants(ctx context.Context, pool *pgxpool.Pool, restaurants []restaurantJSON) error {
	slog.Info("upserting restaurants", slog.Int("count", len(restaurants)))

	for _, r := range restaurants {
		if _, err := pool.Exec(ctx, upsertRestaurantSQL, r.ID, r.Name, r.Capacity, r.Rating); err != nil {
			return errors.Wrapf(err, "upsert restaurant %s", r.ID)
		}

		for _, m := range r.Menu {
			status := m.Status
			if status == "" {
				status = "ACTIVE"
			}
			if _, err := pool.Exec(ctx, upsertMenuItemSQL,
				m.ID, r.ID, m.Name, m.Description, m.Price, status,
			); err != nil {
				return errors.Wrapf(err, "upsert menu item %s", m.ID)
			}
		}

		slog.Info("upserted restaurant",
			slog.String("id", r.ID),
			slog.String("name", r.Name),
			slog.Int("menu_items", len(r.Menu)))
	}

	return nil
}

func seedUsers(ctx context.Context, pool *pgxpool.Pool, users []userJSON) error {
	slog.Info("upserting users", slog.Int("count", len(users)))

	for _, u := range users {
		if _, err := pool.Exec(ctx, upsertUserSQL, u.ID, u.Name, u.Email, u.Age); err != nil {
			return errors.Wrapf(err, "upsert user %s", u.ID)
		}

		slog.Info("upserted user", slog.String("id", u.ID), slog.String("name", u.Name))
	}

	return nil
}
