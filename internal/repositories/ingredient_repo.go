package repositories

import (
	"comanda/internal/models"
)

// IngredientRepository defines the interface for pantry reads. The engine
// only lists stock for the low-stock alert view.
type IngredientRepository interface {
	GetAll() ([]models.Ingredient, error)
	ListLowStock() ([]models.Ingredient, error)
}
