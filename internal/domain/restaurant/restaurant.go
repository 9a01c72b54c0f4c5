package restaurant

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// Sentinel errors for restaurant persistence and updates.
var (
	// ErrNotFound is returned when a requested restaurant does not exist.
	ErrNotFound = errors.New("restaurant not found")
	// ErrAlreadyExists is returned when creating a restaurant whose name is taken.
	ErrAlreadyExists = errors.New("restaurant with this name already exists")
	// ErrVersionConflict is returned by Save when the stored version differs
	// from the version the caller read, meaning a concurrent writer won.
	ErrVersionConflict = errors.New("restaurant version conflict")
	// ErrUpdateFailed is returned when an administrative update gives up after
	// exhausting its retry budget on version conflicts.
	ErrUpdateFailed = errors.New("failed to update restaurant after multiple attempts due to version conflict")
)

// Restaurant offers menu items with a finite serving capacity. Capacity is the
// contended shared resource: it is mutated only through the capacity engine,
// guarded by the version counter (incremented on every successful save).
type Restaurant struct {
	ID        string
	Name      string
	Capacity  int
	Rating    float64
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Repository defines persistence operations for restaurants.
//
// GetForShare reads the row under a pessimistic read lock (SELECT ... FOR
// SHARE) held for the duration of the enclosing transaction. Save performs an
// optimistic write: it fails with ErrVersionConflict unless the stored version
// equals r.Version, and increments the version on success (reflected back
// into r).
type Repository interface {
	Get(ctx context.Context, id string) (*Restaurant, error)
	GetForShare(ctx context.Context, id string) (*Restaurant, error)
	Create(ctx context.Context, r *Restaurant) error
	Save(ctx context.Context, r *Restaurant) error
	ExistsByName(ctx context.Context, name string) (bool, error)
	List(ctx context.Context, itemName string, limit, offset int) ([]Restaurant, error)
	FindServing(ctx context.Context, itemName string, minCapacity int, strategy Strategy) ([]Restaurant, error)
}
