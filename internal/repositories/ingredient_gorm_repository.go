package repositories

import (
	"fmt"

	"comanda/internal/models"

	"gorm.io/gorm"
)

// GORMIngredientRepository is a GORM implementation of IngredientRepository.
type GORMIngredientRepository struct {
	db *gorm.DB
}

// NewGORMIngredientRepository creates a new instance of GORMIngredientRepository.
func NewGORMIngredientRepository(db *gorm.DB) *GORMIngredientRepository {
	return &GORMIngredientRepository{
		db: db,
	}
}

// GetAll retrieves all ingredients.
func (r *GORMIngredientRepository) GetAll() ([]models.Ingredient, error) {
	var ingredients []models.Ingredient
	if err := r.db.Order("name").Find(&ingredients).Error; err != nil {
		return nil, fmt.Errorf("get all ingredients: %w: %v", models.ErrStoreUnavailable, err)
	}
	return ingredients, nil
}

// ListLowStock retrieves ingredients at or below their alert threshold.
func (r *GORMIngredientRepository) ListLowStock() ([]models.Ingredient, error) {
	var ingredients []models.Ingredient
	if err := r.db.Where("stock <= low_stock_threshold").Order("name").Find(&ingredients).Error; err != nil {
		return nil, fmt.Errorf("list low stock: %w: %v", models.ErrStoreUnavailable, err)
	}
	return ingredients, nil
}
