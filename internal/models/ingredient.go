package models

import "gorm.io/gorm"

// Ingredient tracks pantry stock. The engine only reads it to feed the
// low-stock alert list; stock arithmetic lives with the admin app.
type Ingredient struct {
	ID                string  `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name              string  `json:"name" gorm:"uniqueIndex;type:varchar(100)" validate:"required,min=2,max=100"`
	Unit              string  `json:"unit" validate:"required,max=20"`
	Stock             float64 `json:"stock" validate:"gte=0"`
	LowStockThreshold float64 `json:"low_stock_threshold" validate:"gte=0"`
	gorm.Model
}

// IsLow reports whether the ingredient should appear in the alert list.
func (i *Ingredient) IsLow() bool {
	return i.Stock <= i.LowStockThreshold
}
