package handlers

import (
	"log"
	"time"

	"comanda/internal/repositories"
	"comanda/internal/services"

	"github.com/gofiber/fiber/v2"
)

// KitchenHandler serves the staff-facing views: the live order board, the
// completed-items history and the low-stock alerts.
type KitchenHandler struct {
	orders *services.OrderService
	alerts *services.AlertService
}

// NewKitchenHandler creates a new KitchenHandler.
func NewKitchenHandler(orders *services.OrderService, alerts *services.AlertService) *KitchenHandler {
	return &KitchenHandler{
		orders: orders,
		alerts: alerts,
	}
}

// RegisterRoutes registers the kitchen routes with the Fiber app.
func (h *KitchenHandler) RegisterRoutes(router fiber.Router) {
	kitchenRoutes := router.Group("/kitchen")
	kitchenRoutes.Get("/orders", h.HandleActiveOrders)
	kitchenRoutes.Get("/history", h.HandleHistory)
	kitchenRoutes.Get("/alerts", h.HandleLowStock)
	kitchenRoutes.Get("/pantry", h.HandlePantry)
}

// HandleActiveOrders feeds the kitchen display board, oldest order first.
func (h *KitchenHandler) HandleActiveOrders(c *fiber.Ctx) error {
	orders, err := h.orders.ListActiveOrders()
	if err != nil {
		log.Printf("Error listing active orders: %v", err)
		return orderErrorResponse(c, err, "Could not list active orders")
	}

	out := make([]orderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, toOrderResponse(&orders[i]))
	}
	return c.JSON(out)
}

// HandleHistory returns the completed-items view. Query parameters:
// since (RFC 3339, defaults to the start of today), sort (recency|table)
// and offset for restarting the scan.
func (h *KitchenHandler) HandleHistory(c *fiber.Ctx) error {
	since := startOfToday()
	if raw := c.Query("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Query parameter 'since' must be RFC 3339",
				"error":   err.Error(),
			})
		}
		since = parsed
	}

	sort := repositories.HistorySortRecency
	if c.Query("sort") == string(repositories.HistorySortTable) {
		sort = repositories.HistorySortTable
	}

	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	history, err := h.orders.ListKitchenHistory(since, sort, offset)
	if err != nil {
		log.Printf("Error listing kitchen history: %v", err)
		return orderErrorResponse(c, err, "Could not list kitchen history")
	}

	out := make([]orderResponse, 0, len(history))
	for i := range history {
		out = append(out, toOrderResponse(&history[i]))
	}
	return c.JSON(fiber.Map{
		"since":   since,
		"offset":  offset,
		"count":   len(out),
		"history": out,
	})
}

// HandleLowStock lists the ingredients that need restocking.
func (h *KitchenHandler) HandleLowStock(c *fiber.Ctx) error {
	ingredients, err := h.alerts.LowStock()
	if err != nil {
		log.Printf("Error listing low stock: %v", err)
		return orderErrorResponse(c, err, "Could not list low-stock ingredients")
	}
	return c.JSON(ingredients)
}

// HandlePantry lists the full ingredient inventory for the admin dashboard.
func (h *KitchenHandler) HandlePantry(c *fiber.Ctx) error {
	ingredients, err := h.alerts.AllIngredients()
	if err != nil {
		log.Printf("Error listing ingredients: %v", err)
		return orderErrorResponse(c, err, "Could not list ingredients")
	}
	return c.JSON(ingredients)
}

func startOfToday() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}
