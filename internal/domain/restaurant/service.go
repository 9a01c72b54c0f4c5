package restaurant

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

// UpdateConfig bounds the optimistic retry loop used by administrative
// updates. The zero value is replaced with the defaults below.
type UpdateConfig struct {
	MaxAttempts  int
	RetryBackoff time.Duration
}

func (c UpdateConfig) withDefaults() UpdateConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.RetryBackoff < 0 {
		c.RetryBackoff = 0
	}
	return c
}

// DefaultUpdateConfig mirrors the capacity engine's retry budget.
var DefaultUpdateConfig = UpdateConfig{MaxAttempts: 3, RetryBackoff: 5 * time.Millisecond}

// CreateRequest holds the input for registering a restaurant.
type CreateRequest struct {
	Name     string
	Capacity int
	Rating   float64
}

// Service provides administrative operations on the restaurant directory.
// Capacity is never mutated here beyond the administrative update; order-time
// capacity changes belong to the capacity engine.
type Service struct {
	repo Repository
	cfg  UpdateConfig
}

// NewService creates a restaurant Service.
func NewService(repo Repository, cfg UpdateConfig) *Service {
	return &Service{repo: repo, cfg: cfg.withDefaults()}
}

// Add registers a new restaurant. Names are unique: a duplicate fails with
// ErrAlreadyExists.
func (s *Service) Add(ctx context.Context, req CreateRequest) (*Restaurant, error) {
	exists, err := s.repo.ExistsByName(ctx, req.Name)
	if err != nil {
		return nil, errors.Wrap(err, "check restaurant name")
	}
	if exists {
		return nil, ErrAlreadyExists
	}

	r := &Restaurant{
		ID:       uuid.New().String(),
		Name:     req.Name,
		Capacity: req.Capacity,
		Rating:   req.Rating,
	}
	if err := s.repo.Create(ctx, r); err != nil {
		return nil, errors.Wrap(err, "create restaurant")
	}
	return r, nil
}

// Update overwrites name, capacity, and rating of an existing restaurant.
// Each attempt re-reads the row under a pessimistic read lock and saves
// optimistically; exhausting the retry budget fails with ErrUpdateFailed.
func (s *Service) Update(ctx context.Context, id string, req CreateRequest) error {
	for attempt := 0; attempt < s.cfg.MaxAttempts; attempt++ {
		r, err := s.repo.GetForShare(ctx, id)
		if err != nil {
			return err
		}
		r.Name = req.Name
		r.Capacity = req.Capacity
		r.Rating = req.Rating

		err = s.repo.Save(ctx, r)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrVersionConflict) {
			return errors.Wrap(err, "save restaurant")
		}
		time.Sleep(s.cfg.RetryBackoff)
	}
	return ErrUpdateFailed
}

// Get returns a restaurant by id.
func (s *Service) Get(ctx context.Context, id string) (*Restaurant, error) {
	return s.repo.Get(ctx, id)
}

// List returns restaurants page by page, optionally filtered by a served
// active item name.
func (s *Service) List(ctx context.Context, itemName string, page, size int) ([]Restaurant, error) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = 100
	}
	return s.repo.List(ctx, itemName, size, page*size)
}

// NoRestaurantServesItemError indicates no restaurant offers the requested
// active item with sufficient capacity.
type NoRestaurantServesItemError struct {
	ItemName string
}

func (e *NoRestaurantServesItemError) Error() string {
	return "no restaurant serves the item: " + e.ItemName
}

// FindServing resolves the named selection strategy and returns the ranked
// restaurants offering an active item with capacity at or above minCapacity.
// An unknown strategy fails with *StrategyNotFoundError before any directory
// access; an empty ranking fails with *NoRestaurantServesItemError.
func (s *Service) FindServing(ctx context.Context, strategyName, itemName string, minCapacity int) ([]Restaurant, error) {
	strategy, err := ResolveStrategy(strategyName)
	if err != nil {
		return nil, err
	}
	restaurants, err := s.repo.FindServing(ctx, itemName, minCapacity, strategy)
	if err != nil {
		return nil, errors.Wrap(err, "find serving restaurants")
	}
	if len(restaurants) == 0 {
		return nil, &NoRestaurantServesItemError{ItemName: itemName}
	}
	return restaurants, nil
}
