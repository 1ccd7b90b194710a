package services_test

import (
	"fmt"
	"testing"

	"comanda/internal/models"
	"comanda/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockProductRepository is a mock implementation of repositories.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) GetAll() ([]models.Product, error) {
	args := m.Called()
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *MockProductRepository) GetByID(id string) (*models.Product, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductRepository) ListAvailable() ([]models.Product, error) {
	args := m.Called()
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *MockProductRepository) Create(product *models.Product) error {
	args := m.Called(product)
	return args.Error(0)
}

func (m *MockProductRepository) Update(product *models.Product) error {
	args := m.Called(product)
	return args.Error(0)
}

func (m *MockProductRepository) Delete(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

func TestProductService_GetAllProducts(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo)

	expectedProducts := []models.Product{
		{ID: "1", Name: "Paella", Category: "segundo", Price: 14.50, Available: true},
		{ID: "2", Name: "Gazpacho", Category: "primero", Price: 6.00, Available: false},
	}

	mockRepo.On("GetAll").Return(expectedProducts, nil).Once()

	products, err := service.GetAllProducts()

	assert.NoError(t, err)
	assert.Len(t, products, 2)
	assert.Equal(t, expectedProducts, products)
	mockRepo.AssertExpectations(t)
}

func TestProductService_GetMenu(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo)

	available := []models.Product{
		{ID: "1", Name: "Paella", Category: "segundo", Price: 14.50, Available: true},
	}

	mockRepo.On("ListAvailable").Return(available, nil).Once()

	menu, err := service.GetMenu()

	assert.NoError(t, err)
	assert.Equal(t, available, menu)
	mockRepo.AssertExpectations(t)
}

func TestProductService_GetProductByID(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo)

	expectedProduct := &models.Product{ID: "1", Name: "Paella", Category: "segundo", Price: 14.50, Available: true}

	// Test successful retrieval
	mockRepo.On("GetByID", "1").Return(expectedProduct, nil).Once()
	product, err := service.GetProductByID("1")
	assert.NoError(t, err)
	assert.Equal(t, expectedProduct, product)
	mockRepo.AssertExpectations(t)

	// Test product not found
	mockRepo.On("GetByID", "99").Return(nil, fmt.Errorf("product 99: %w", models.ErrNotFound)).Once()
	product, err = service.GetProductByID("99")
	assert.Error(t, err)
	assert.Nil(t, product)
	assert.ErrorIs(t, err, models.ErrNotFound)
	mockRepo.AssertExpectations(t)
}

func TestProductService_CreateProduct(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo)

	newProduct := &models.Product{Name: "Tortilla", Category: "primero", Price: 7.50, Available: true}

	// Test successful creation
	mockRepo.On("Create", newProduct).Return(nil).Once()
	err := service.CreateProduct(newProduct)
	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)

	// Test creation failure (e.g., database error)
	mockRepo.On("Create", newProduct).Return(fmt.Errorf("database error")).Once()
	err = service.CreateProduct(newProduct)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "database error")
	mockRepo.AssertExpectations(t)
}

func TestProductService_UpdateProduct(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo)

	updatedProduct := &models.Product{ID: "1", Name: "Paella Mixta", Category: "segundo", Price: 15.50, Available: true}

	// Test successful update
	mockRepo.On("Update", updatedProduct).Return(nil).Once()
	err := service.UpdateProduct(updatedProduct)
	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)

	// Test update failure (e.g., product not found in repo)
	missing := &models.Product{ID: "99", Name: "NonExistent", Category: "postre", Price: 1.0}
	mockRepo.On("Update", missing).Return(fmt.Errorf("product 99: %w", models.ErrNotFound)).Once()
	err = service.UpdateProduct(missing)
	assert.ErrorIs(t, err, models.ErrNotFound)
	mockRepo.AssertExpectations(t)
}

func TestProductService_DeleteProduct(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo)

	// Test successful deletion
	mockRepo.On("Delete", "1").Return(nil).Once()
	err := service.DeleteProduct("1")
	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)

	// Test deletion failure (e.g., product not found)
	mockRepo.On("Delete", "99").Return(fmt.Errorf("product 99: %w", models.ErrNotFound)).Once()
	err = service.DeleteProduct("99")
	assert.ErrorIs(t, err, models.ErrNotFound)
	mockRepo.AssertExpectations(t)
}
