// Package capacity implements the reservation/release engine for restaurant
// serving capacity.
//
// Capacity is the only shared mutable resource in the system. The engine
// mutates it under optimistic concurrency: each write carries the version the
// caller read, and a concurrent writer winning the race surfaces as a version
// conflict. Conflicts are retried a bounded number of times with a short
// backoff; retries re-read the row under a pessimistic read lock so the
// engine stops losing races against the writer that beat it.
package capacity

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/feastly/ordersvc/internal/domain/restaurant"
)

// ErrReleaseFailed is returned when a capacity release exhausts its retry
// budget. Unlike reservation, release must not degrade silently: a unit that
// is never returned is a permanent capacity leak.
var ErrReleaseFailed = errors.New("failed to release capacity for restaurant after multiple attempts")

// Store is the subset of the restaurant repository the engine needs: a plain
// read, a pessimistically locked read, and an optimistic save that fails with
// restaurant.ErrVersionConflict when a concurrent writer won.
type Store interface {
	Get(ctx context.Context, id string) (*restaurant.Restaurant, error)
	GetForShare(ctx context.Context, id string) (*restaurant.Restaurant, error)
	Save(ctx context.Context, r *restaurant.Restaurant) error
}

// Config bounds the retry loop shared by Reserve and Release.
type Config struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	// RetryBackoff is slept between attempts to spread contending writers.
	RetryBackoff time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.RetryBackoff < 0 {
		c.RetryBackoff = 0
	}
	return c
}

// DefaultConfig is the production retry budget: 3 attempts, 5ms apart.
var DefaultConfig = Config{MaxAttempts: 3, RetryBackoff: 5 * time.Millisecond}

// Engine performs capacity reservations and releases against single
// restaurant rows. It holds no locks of its own; serialization is delegated
// entirely to the store's version check and row lock.
type Engine struct {
	store Store
	cfg   Config
	lg    *zap.Logger
}

// NewEngine creates an Engine. A nil logger is replaced with a no-op logger.
func NewEngine(store Store, cfg Config, lg *zap.Logger) *Engine {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &Engine{store: store, cfg: cfg.withDefaults(), lg: lg}
}

// Reserve takes up to quantityNeeded units of the restaurant's capacity and
// returns the quantity actually reserved:
//
//   - capacity >= quantityNeeded: reserves quantityNeeded (full reservation)
//   - 0 < capacity < quantityNeeded: reserves the remaining capacity,
//     leaving the restaurant exhausted (partial reservation)
//   - capacity == 0: reserves nothing, without writing
//
// Version conflicts are retried up to the configured attempts. Exhausting the
// budget is NOT an error: it yields 0 so the caller moves on to the
// next-ranked restaurant instead of aborting the whole fulfillment. Any other
// store failure is returned as an error.
func (e *Engine) Reserve(ctx context.Context, restaurantID string, quantityNeeded int) (int, error) {
	var reserved int
	err := e.mutate(ctx, restaurantID, func(r *restaurant.Restaurant) bool {
		switch {
		case r.Capacity >= quantityNeeded:
			r.Capacity -= quantityNeeded
			reserved = quantityNeeded
			return true
		case r.Capacity > 0:
			reserved = r.Capacity
			r.Capacity = 0
			return true
		default:
			reserved = 0
			return false
		}
	})
	if err != nil {
		if errors.Is(err, restaurant.ErrVersionConflict) {
			// Soft failure: the restaurant stays contended, treat it as
			// contributing zero this round.
			e.lg.Warn("capacity reservation exhausted retries",
				zap.String("restaurant_id", restaurantID),
				zap.Int("quantity_needed", quantityNeeded),
				zap.Int("attempts", e.cfg.MaxAttempts))
			return 0, nil
		}
		return 0, errors.Wrap(err, "reserve capacity")
	}
	return reserved, nil
}

// Release returns quantity units to the restaurant's capacity. Exhausting the
// retry budget fails with ErrReleaseFailed; the caller must abort (and roll
// back) the enclosing operation.
func (e *Engine) Release(ctx context.Context, restaurantID string, quantity int) error {
	err := e.mutate(ctx, restaurantID, func(r *restaurant.Restaurant) bool {
		r.Capacity += quantity
		return true
	})
	if err != nil {
		if errors.Is(err, restaurant.ErrVersionConflict) {
			e.lg.Error("capacity release exhausted retries",
				zap.String("restaurant_id", restaurantID),
				zap.Int("quantity", quantity),
				zap.Int("attempts", e.cfg.MaxAttempts))
			return ErrReleaseFailed
		}
		return errors.Wrap(err, "release capacity")
	}
	return nil
}

// mutate runs the optimistic read-apply-save loop shared by Reserve and
// Release. apply reports whether the row changed and must be saved. The first
// attempt reads without a lock; retries after a version conflict re-read
// under a pessimistic read lock. When every attempt conflicts, the last
// restaurant.ErrVersionConflict is returned for the caller to translate.
func (e *Engine) mutate(ctx context.Context, restaurantID string, apply func(*restaurant.Restaurant) bool) error {
	var lastErr error
	for attempt := 0; attempt < e.cfg.MaxAttempts; attempt++ {
		var (
			r   *restaurant.Restaurant
			err error
		)
		if attempt == 0 {
			r, err = e.store.Get(ctx, restaurantID)
		} else {
			r, err = e.store.GetForShare(ctx, restaurantID)
		}
		if err != nil {
			return err
		}

		if !apply(r) {
			return nil
		}

		err = e.store.Save(ctx, r)
		if err == nil {
			return nil
		}
		if !errors.Is(err, restaurant.ErrVersionConflict) {
			return err
		}
		lastErr = err
		time.Sleep(e.cfg.RetryBackoff)
	}
	return lastErr
}
