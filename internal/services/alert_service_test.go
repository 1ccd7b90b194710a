package services_test

import (
	"fmt"
	"testing"

	"comanda/internal/models"
	"comanda/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockIngredientRepository is a mock implementation of repositories.IngredientRepository
type MockIngredientRepository struct {
	mock.Mock
}

func (m *MockIngredientRepository) GetAll() ([]models.Ingredient, error) {
	args := m.Called()
	return args.Get(0).([]models.Ingredient), args.Error(1)
}

func (m *MockIngredientRepository) ListLowStock() ([]models.Ingredient, error) {
	args := m.Called()
	return args.Get(0).([]models.Ingredient), args.Error(1)
}

func TestAlertService_LowStock(t *testing.T) {
	mockRepo := new(MockIngredientRepository)
	service := services.NewAlertService(mockRepo)

	low := []models.Ingredient{
		{ID: "1", Name: "Azafran", Unit: "g", Stock: 5, LowStockThreshold: 10},
	}

	mockRepo.On("ListLowStock").Return(low, nil).Once()

	alerts, err := service.LowStock()
	assert.NoError(t, err)
	assert.Equal(t, low, alerts)
	assert.True(t, alerts[0].IsLow())
	mockRepo.AssertExpectations(t)

	mockRepo.On("ListLowStock").Return([]models.Ingredient(nil), fmt.Errorf("query failed: %w", models.ErrStoreUnavailable)).Once()
	_, err = service.LowStock()
	assert.ErrorIs(t, err, models.ErrStoreUnavailable)
	mockRepo.AssertExpectations(t)
}

func TestAlertService_AllIngredients(t *testing.T) {
	mockRepo := new(MockIngredientRepository)
	service := services.NewAlertService(mockRepo)

	pantry := []models.Ingredient{
		{ID: "1", Name: "Arroz", Unit: "kg", Stock: 40, LowStockThreshold: 5},
		{ID: "2", Name: "Azafran", Unit: "g", Stock: 5, LowStockThreshold: 10},
	}

	mockRepo.On("GetAll").Return(pantry, nil).Once()

	ingredients, err := service.AllIngredients()
	assert.NoError(t, err)
	assert.Len(t, ingredients, 2)
	assert.False(t, ingredients[0].IsLow())
	mockRepo.AssertExpectations(t)
}
