package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Details is a read-only order snapshot with its lines resolved to item and
// restaurant names.
type Details struct {
	OrderID   string
	UserID    string
	Amount    decimal.Decimal
	Status    Status
	Lines     []LineDetails
	CreatedAt time.Time
	UpdatedAt time.Time
}

// LineDetails is one fulfilled line with display names resolved.
type LineDetails struct {
	ItemName       string
	RestaurantName string
	Quantity       int
	Price          decimal.Decimal
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// DetailsReader resolves a full order snapshot (order.Repository's postgres
// implementation provides it via a join).
type DetailsReader interface {
	GetDetails(ctx context.Context, orderID string) (*Details, error)
}

// History serves read-only order lookups.
type History struct {
	reader DetailsReader
}

// NewHistory creates a History service.
func NewHistory(reader DetailsReader) *History {
	return &History{reader: reader}
}

// GetOrderDetails returns the order snapshot with line items, or ErrNotFound.
func (h *History) GetOrderDetails(ctx context.Context, orderID string) (*Details, error) {
	return h.reader.GetDetails(ctx, orderID)
}
