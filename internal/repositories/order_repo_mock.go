package repositories

import (
	"sort"
	"sync"
	"time"

	"comanda/internal/models"

	"github.com/google/uuid"
)

// MockOrderRepository is an in-memory implementation of OrderRepository.
// It mirrors the store semantics the GORM repository provides, including
// the version compare-and-swap, so services behave identically under test.
type MockOrderRepository struct {
	orders  map[string]models.Order
	nextSeq int64
	mu      sync.RWMutex
}

// NewMockOrderRepository creates a new instance of MockOrderRepository.
func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{
		orders: make(map[string]models.Order),
	}
}

// GetByID returns a copy of the order or models.ErrNotFound.
func (r *MockOrderRepository) GetByID(id string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return cloneOrder(order), nil
}

// Create adds a new order, assigning ID, sequence and timestamps.
func (r *MockOrderRepository) Create(order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	r.nextSeq++
	order.Seq = r.nextSeq
	order.Version = 1
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	order.UpdatedAt = order.CreatedAt
	r.orders[order.ID] = *cloneOrder(*order)
	return nil
}

// Update writes the order if the stored version still matches, then bumps
// the version. Lost races surface as models.ErrVersionConflict.
func (r *MockOrderRepository) Update(order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.orders[order.ID]
	if !ok {
		return models.ErrNotFound
	}
	if stored.Version != order.Version {
		return models.ErrVersionConflict
	}
	order.Version++
	order.UpdatedAt = time.Now()
	r.orders[order.ID] = *cloneOrder(*order)
	return nil
}

// Delete physically removes the order row.
func (r *MockOrderRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[id]; !ok {
		return models.ErrNotFound
	}
	delete(r.orders, id)
	return nil
}

// CountActive counts pending/cooking orders.
func (r *MockOrderRepository) CountActive() (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, o := range r.orders {
		if o.IsActive() {
			n++
		}
	}
	return n, nil
}

// CountActiveBefore counts active orders ahead of the given creation point.
func (r *MockOrderRepository) CountActiveBefore(createdAt time.Time, seq int64) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, o := range r.orders {
		if !o.IsActive() {
			continue
		}
		if o.CreatedAt.Before(createdAt) || (o.CreatedAt.Equal(createdAt) && o.Seq < seq) {
			n++
		}
	}
	return n, nil
}

// FindActiveByTable returns the order still occupying the table, if any.
func (r *MockOrderRepository) FindActiveByTable(tableNumber int) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, o := range r.orders {
		if o.TableNumber == tableNumber && !o.IsClosed() {
			return cloneOrder(o), nil
		}
	}
	return nil, models.ErrNotFound
}

// ListActive returns pending/cooking orders, oldest first.
func (r *MockOrderRepository) ListActive() ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Order, 0, len(r.orders))
	for _, o := range r.orders {
		if o.IsActive() {
			out = append(out, *cloneOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Seq < out[j].Seq
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// ListSince returns orders created on/after the boundary, sorted and paged.
func (r *MockOrderRepository) ListSince(since time.Time, sortBy HistorySort, limit, offset int) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Order, 0, len(r.orders))
	for _, o := range r.orders {
		if !o.CreatedAt.Before(since) {
			out = append(out, *cloneOrder(o))
		}
	}
	switch sortBy {
	case HistorySortTable:
		sort.Slice(out, func(i, j int) bool { return out[i].TableNumber < out[j].TableNumber })
	default:
		sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	}
	if offset >= len(out) {
		return []models.Order{}, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// cloneOrder copies the order including its item slice so callers cannot
// mutate the stored state behind the lock.
func cloneOrder(o models.Order) *models.Order {
	items := make([]models.OrderItem, len(o.Items))
	copy(items, o.Items)
	o.Items = items
	return &o
}
