package repositories

import (
	"comanda/internal/models"
)

// ProductRepository defines the interface for menu data access.
type ProductRepository interface {
	GetAll() ([]models.Product, error)
	GetByID(id string) (*models.Product, error)
	ListAvailable() ([]models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	Delete(id string) error
}
