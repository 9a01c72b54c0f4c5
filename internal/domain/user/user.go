package user

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested user does not exist.
var ErrNotFound = errors.New("user not found")

// User is an account that places orders.
type User struct {
	ID        string
	Name      string
	Email     string
	Age       int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Repository defines persistence operations for users.
type Repository interface {
	Get(ctx context.Context, id string) (*User, error)
	Create(ctx context.Context, u *User) error
	Update(ctx context.Context, u *User) error
}

// Request holds the input for creating or updating a user.
type Request struct {
	Name  string
	Email string
	Age   int
}

// Service provides user account management.
type Service struct {
	repo Repository
}

// NewService creates a user Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Add registers a new user.
func (s *Service) Add(ctx context.Context, req Request) (*User, error) {
	u := &User{
		ID:    uuid.New().String(),
		Name:  req.Name,
		Email: req.Email,
		Age:   req.Age,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, errors.Wrap(err, "create user")
	}
	return u, nil
}

// Update overwrites an existing user's profile.
func (s *Service) Update(ctx context.Context, id string, req Request) error {
	u, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	u.Name = req.Name
	u.Email = req.Email
	u.Age = req.Age
	if err := s.repo.Update(ctx, u); err != nil {
		return errors.Wrap(err, "update user")
	}
	return nil
}

// Get returns a user by id.
func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	return s.repo.Get(ctx, id)
}
