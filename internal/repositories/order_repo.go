package repositories

import (
	"time"

	"comanda/internal/models"
)

// HistorySort selects the ordering of the kitchen history listing.
type HistorySort string

const (
	HistorySortRecency HistorySort = "recency" // updated_at descending
	HistorySortTable   HistorySort = "table"   // table_number ascending
)

// OrderRepository defines the interface for order data access.
//
// Update is a compare-and-swap: it writes the order only if the stored
// version still matches order.Version, bumps the version and returns
// models.ErrVersionConflict otherwise. This is what keeps two kitchen
// screens racing on the same item array from losing an update.
type OrderRepository interface {
	GetByID(id string) (*models.Order, error)
	Create(order *models.Order) error
	Update(order *models.Order) error
	Delete(id string) error

	// CountActive counts orders with status pending or cooking.
	CountActive() (int, error)
	// CountActiveBefore counts active orders created strictly before the
	// given instant; equal timestamps fall back to the insertion sequence.
	CountActiveBefore(createdAt time.Time, seq int64) (int, error)
	// FindActiveByTable returns the order currently occupying a table
	// (not yet served and paid), or models.ErrNotFound.
	FindActiveByTable(tableNumber int) (*models.Order, error)
	// ListActive returns all pending/cooking orders, oldest first.
	ListActive() ([]models.Order, error)
	// ListSince returns orders created on/after the boundary, bounded by
	// limit with an offset so the scan can be restarted.
	ListSince(since time.Time, sort HistorySort, limit, offset int) ([]models.Order, error)
}
