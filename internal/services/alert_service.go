package services

import (
	"comanda/internal/models"
	"comanda/internal/repositories"
)

// AlertService surfaces the pantry items that need restocking.
type AlertService struct {
	repo repositories.IngredientRepository
}

// NewAlertService creates a new AlertService.
func NewAlertService(repo repositories.IngredientRepository) *AlertService {
	return &AlertService{
		repo: repo,
	}
}

// LowStock lists the ingredients at or below their alert threshold.
func (s *AlertService) LowStock() ([]models.Ingredient, error) {
	return s.repo.ListLowStock()
}

// AllIngredients lists the full pantry for the admin dashboard.
func (s *AlertService) AllIngredients() ([]models.Ingredient, error) {
	return s.repo.GetAll()
}
