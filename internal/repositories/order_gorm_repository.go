package repositories

import (
	"errors"
	"fmt"
	"time"

	"comanda/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{
		db: db,
	}
}

var activeStatuses = []models.OrderStatus{models.OrderStatusPending, models.OrderStatusCooking}

// GetByID retrieves a single order by its ID.
func (r *GORMOrderRepository) GetByID(id string) (*models.Order, error) {
	var order models.Order
	if err := r.db.First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("get order %s: %w: %v", id, models.ErrStoreUnavailable, err)
	}
	return &order, nil
}

// Create inserts a new order and assigns its insertion sequence. The unique
// index on seq catches the rare racing insert; one retry re-reads the max.
func (r *GORMOrderRepository) Create(order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	order.Version = 1

	var err error
	for attempt := 0; attempt < 2; attempt++ {
		err = r.db.Transaction(func(tx *gorm.DB) error {
			var maxSeq int64
			if err := tx.Model(&models.Order{}).Select("COALESCE(MAX(seq), 0)").Scan(&maxSeq).Error; err != nil {
				return err
			}
			order.Seq = maxSeq + 1
			return tx.Create(order).Error
		})
		if err == nil {
			return nil
		}
	}
	return fmt.Errorf("create order: %w: %v", models.ErrStoreUnavailable, err)
}

// Update performs a compare-and-swap on the version column. The row is only
// written when nobody else has touched it since the caller's read.
func (r *GORMOrderRepository) Update(order *models.Order) error {
	oldVersion := order.Version
	order.Version++
	order.UpdatedAt = time.Now()

	res := r.db.Model(&models.Order{}).
		Where("id = ? AND version = ?", order.ID, oldVersion).
		Select("Status", "IsPaid", "Items", "TotalAmount", "DrinksServed", "Version", "UpdatedAt").
		Updates(order)
	if res.Error != nil {
		order.Version = oldVersion
		return fmt.Errorf("update order %s: %w: %v", order.ID, models.ErrStoreUnavailable, res.Error)
	}
	if res.RowsAffected == 0 {
		order.Version = oldVersion
		var count int64
		if err := r.db.Model(&models.Order{}).Where("id = ?", order.ID).Count(&count).Error; err == nil && count == 0 {
			return fmt.Errorf("order %s: %w", order.ID, models.ErrNotFound)
		}
		return models.ErrVersionConflict
	}
	return nil
}

// Delete physically removes the order row.
func (r *GORMOrderRepository) Delete(id string) error {
	res := r.db.Delete(&models.Order{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("delete order %s: %w: %v", id, models.ErrStoreUnavailable, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("order %s: %w", id, models.ErrNotFound)
	}
	return nil
}

// CountActive counts orders with status pending or cooking.
func (r *GORMOrderRepository) CountActive() (int, error) {
	var count int64
	err := r.db.Model(&models.Order{}).
		Where("status IN ?", activeStatuses).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count active orders: %w: %v", models.ErrStoreUnavailable, err)
	}
	return int(count), nil
}

// CountActiveBefore counts active orders created strictly before the given
// instant, breaking created-at ties with the insertion sequence.
func (r *GORMOrderRepository) CountActiveBefore(createdAt time.Time, seq int64) (int, error) {
	var count int64
	err := r.db.Model(&models.Order{}).
		Where("status IN ?", activeStatuses).
		Where("created_at < ? OR (created_at = ? AND seq < ?)", createdAt, createdAt, seq).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count orders ahead: %w: %v", models.ErrStoreUnavailable, err)
	}
	return int(count), nil
}

// FindActiveByTable returns the order still occupying a table, oldest first
// if the store ever holds more than one.
func (r *GORMOrderRepository) FindActiveByTable(tableNumber int) (*models.Order, error) {
	var order models.Order
	err := r.db.
		Where("table_number = ?", tableNumber).
		Where("NOT (status = ? AND is_paid = ?)", models.OrderStatusServed, true).
		Order("created_at ASC").
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("table %d: %w", tableNumber, models.ErrNotFound)
		}
		return nil, fmt.Errorf("find order for table %d: %w: %v", tableNumber, models.ErrStoreUnavailable, err)
	}
	return &order, nil
}

// ListActive returns all pending/cooking orders, oldest first.
func (r *GORMOrderRepository) ListActive() ([]models.Order, error) {
	var orders []models.Order
	err := r.db.
		Where("status IN ?", activeStatuses).
		Order("created_at ASC, seq ASC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("list active orders: %w: %v", models.ErrStoreUnavailable, err)
	}
	return orders, nil
}

// ListSince returns orders created on/after the boundary, sorted and paged.
func (r *GORMOrderRepository) ListSince(since time.Time, sort HistorySort, limit, offset int) ([]models.Order, error) {
	orderBy := "updated_at DESC"
	if sort == HistorySortTable {
		orderBy = "table_number ASC"
	}

	var orders []models.Order
	err := r.db.
		Where("created_at >= ?", since).
		Order(orderBy).
		Limit(limit).
		Offset(offset).
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("list orders since %s: %w: %v", since.Format(time.RFC3339), models.ErrStoreUnavailable, err)
	}
	return orders, nil
}
