package repositories

import (
	"errors"
	"fmt"

	"comanda/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// GetAll retrieves all menu products from the database.
func (r *GORMProductRepository) GetAll() ([]models.Product, error) {
	var products []models.Product
	if err := r.db.Find(&products).Error; err != nil {
		return nil, fmt.Errorf("get all products: %w: %v", models.ErrStoreUnavailable, err)
	}
	return products, nil
}

// GetByID retrieves a single product by its ID from the database.
func (r *GORMProductRepository) GetByID(id string) (*models.Product, error) {
	var product models.Product
	if err := r.db.First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("get product %s: %w: %v", id, models.ErrStoreUnavailable, err)
	}
	return &product, nil
}

// ListAvailable retrieves only the products currently on the menu.
func (r *GORMProductRepository) ListAvailable() ([]models.Product, error) {
	var products []models.Product
	if err := r.db.Where("available = ?", true).Order("category, name").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("list available products: %w: %v", models.ErrStoreUnavailable, err)
	}
	return products, nil
}

// Create creates a new product in the database.
func (r *GORMProductRepository) Create(product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if err := r.db.Create(product).Error; err != nil {
		return fmt.Errorf("create product: %w: %v", models.ErrStoreUnavailable, err)
	}
	return nil
}

// Update updates an existing product in the database.
func (r *GORMProductRepository) Update(product *models.Product) error {
	res := r.db.Save(product) // Save will update all fields, including zero values
	if res.Error != nil {
		return fmt.Errorf("update product: %w: %v", models.ErrStoreUnavailable, res.Error)
	}
	if res.RowsAffected == 0 {
		// Save does not report ErrRecordNotFound for a missing row, so we
		// check RowsAffected ourselves.
		return fmt.Errorf("product %s: %w", product.ID, models.ErrNotFound)
	}
	return nil
}

// Delete deletes a product by its ID from the database.
func (r *GORMProductRepository) Delete(id string) error {
	res := r.db.Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("delete product: %w: %v", models.ErrStoreUnavailable, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product %s: %w", id, models.ErrNotFound)
	}
	return nil
}
