package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/feastly/ordersvc/internal/domain/user"
)

const (
	getUserSQL = `SELECT id, name, email, age, created_at, updated_at
		FROM users WHERE id = $1`

	createUserSQL = `INSERT INTO users (id, name, email, age)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`

	updateUserSQL = `UPDATE users SET name = $2, email = $3, age = $4, updated_at = now()
		WHERE id = $1`
)

var _ user.Repository = (*UserRepository)(nil)

// UserRepository implements user.Repository backed by PostgreSQL.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a UserRepository that uses the given pool.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Get returns a user by id.
func (r *UserRepository) Get(ctx context.Context, id string) (*user.User, error) {
	var u user.User
	err := queryEngine(ctx, r.pool).QueryRow(ctx, getUserSQL, id).Scan(
		&u.ID, &u.Name, &u.Email, &u.Age, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("getting user %q: %w", id, err)
	}
	return &u, nil
}

// Create inserts a new user.
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	err := queryEngine(ctx, r.pool).QueryRow(ctx, createUserSQL,
		u.ID, u.Name, u.Email, u.Age,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating user %q: %w", u.ID, err)
	}
	return nil
}

// Update overwrites an existing user.
func (r *UserRepository) Update(ctx context.Context, u *user.User) error {
	tag, err := queryEngine(ctx, r.pool).Exec(ctx, updateUserSQL, u.ID, u.Name, u.Email, u.Age)
	if err != nil {
		return fmt.Errorf("updating user %q: %w", u.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}
	return nil
}
