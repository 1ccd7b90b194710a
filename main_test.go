package main_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	mainapp "comanda"
	"comanda/internal/models"
	"comanda/internal/repositories"
	"comanda/internal/services"
)

// MockPublisher is a mock implementation of services.EventPublisher.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(exchange, routingKey string, body []byte) error {
	args := m.Called(exchange, routingKey, body)
	return args.Error(0)
}

func setupMainApp(t *testing.T) (*fiber.App, *MockPublisher) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(&models.Order{}, &models.Product{}, &models.Ingredient{}))

	productRepo := repositories.NewGORMProductRepository(db)
	paella := models.Product{ID: "prod-paella", Name: "Paella", Category: "segundo", Price: 14.50, Available: true}
	assert.NoError(t, productRepo.Create(&paella))

	publisher := new(MockPublisher)
	publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	cfg := services.OrderConfig{MaxActiveOrders: 10, SaturationWait: "25-30 min", HistoryPageSize: 50}
	return mainapp.NewApp(db, publisher, cfg), publisher
}

func TestHealthCheck(t *testing.T) {
	app, _ := setupMainApp(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	assert.NoError(t, err)
	assert.Contains(t, string(body), `"status":"healthy"`)
}

func TestSubmitOrderPublishesEvent(t *testing.T) {
	app, publisher := setupMainApp(t)

	payload, err := json.Marshal(map[string]interface{}{
		"table_number":   1,
		"payment_method": "cash",
		"items":          []map[string]interface{}{{"product_id": "prod-paella", "qty": 1}},
	})
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	publisher.AssertCalled(t, "Publish", "order", services.EventOrderCreated, mock.Anything)
}
