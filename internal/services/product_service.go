package services

import (
	"comanda/internal/models"
	"comanda/internal/repositories"
)

// ProductService handles business logic related to the menu.
type ProductService struct {
	repo repositories.ProductRepository
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository) *ProductService {
	return &ProductService{
		repo: repo,
	}
}

// GetAllProducts retrieves all products, including ones pulled off the menu.
func (s *ProductService) GetAllProducts() ([]models.Product, error) {
	return s.repo.GetAll()
}

// GetMenu retrieves the products customers can currently order.
func (s *ProductService) GetMenu() ([]models.Product, error) {
	return s.repo.ListAvailable()
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(id string) (*models.Product, error) {
	return s.repo.GetByID(id)
}

// CreateProduct creates a new product.
func (s *ProductService) CreateProduct(product *models.Product) error {
	return s.repo.Create(product)
}

// UpdateProduct updates an existing product.
func (s *ProductService) UpdateProduct(product *models.Product) error {
	return s.repo.Update(product)
}

// DeleteProduct deletes a product by its ID.
func (s *ProductService) DeleteProduct(id string) error {
	return s.repo.Delete(id)
}
