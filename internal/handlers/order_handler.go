package handlers

import (
	"errors"
	"fmt"
	"log"

	"comanda/internal/models"
	"comanda/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service  *services.OrderService
	validate *validator.Validate
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the order routes with the Fiber app.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Post("/", h.HandleSubmitOrder)
	orderRoutes.Get("/:id", h.HandleGetOrder)
	orderRoutes.Get("/:id/queue", h.HandleQueuePosition)
	orderRoutes.Patch("/:id/items/:index/status", h.HandleTransitionItem)
	orderRoutes.Post("/:id/items/:index/recover", h.HandleRecoverItem)
	orderRoutes.Delete("/:id/items/:index", h.HandleCancelItem)
	orderRoutes.Post("/:id/paid", h.HandleMarkPaid)
	orderRoutes.Delete("/:id", h.HandleDeleteOrder)
}

// orderItemResponse exposes the legacy boolean views the clients still
// render. They are derived from the status here and nowhere else.
type orderItemResponse struct {
	models.OrderItem
	IsReady  bool `json:"is_ready"`
	IsServed bool `json:"is_served"`
}

type orderResponse struct {
	models.Order
	Items []orderItemResponse `json:"items"`
}

func toOrderResponse(order *models.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(order.Items))
	for _, it := range order.Items {
		items = append(items, orderItemResponse{
			OrderItem: it,
			IsReady:   it.Status == models.ItemStatusReady || it.Status == models.ItemStatusServed,
			IsServed:  it.Status == models.ItemStatusServed,
		})
	}
	return orderResponse{Order: *order, Items: items}
}

// HandleSubmitOrder accepts a finalized cart.
func (h *OrderHandler) HandleSubmitOrder(c *fiber.Ctx) error {
	var req services.SubmitOrderRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing submit order body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(req); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		errorMessages := make(map[string]string)
		for _, e := range validationErrors {
			errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  errorMessages,
		})
	}

	order, err := h.service.SubmitOrder(req)
	if err != nil {
		log.Printf("Error submitting order for table %d: %v", req.TableNumber, err)
		return orderErrorResponse(c, err, "Could not submit order")
	}

	return c.Status(fiber.StatusCreated).JSON(toOrderResponse(order))
}

// HandleGetOrder retrieves a single order by its ID.
func (h *OrderHandler) HandleGetOrder(c *fiber.Ctx) error {
	orderID := c.Params("id")
	order, err := h.service.GetOrder(orderID)
	if err != nil {
		log.Printf("Error getting order %s: %v", orderID, err)
		return orderErrorResponse(c, err, "Could not retrieve order")
	}
	return c.JSON(toOrderResponse(order))
}

// HandleQueuePosition returns the customer FIFO estimate for an order.
func (h *OrderHandler) HandleQueuePosition(c *fiber.Ctx) error {
	orderID := c.Params("id")
	qp, err := h.service.ComputeQueuePosition(orderID)
	if err != nil {
		log.Printf("Error computing queue position for order %s: %v", orderID, err)
		return orderErrorResponse(c, err, "Could not compute queue position")
	}
	return c.JSON(qp)
}

// HandleTransitionItem applies one item-status change.
func (h *OrderHandler) HandleTransitionItem(c *fiber.Ctx) error {
	orderID := c.Params("id")
	index, err := c.ParamsInt("index")
	if err != nil || index < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Item index must be a non-negative integer",
		})
	}

	var updateData struct {
		Status models.ItemStatus `json:"status" validate:"required,oneof=pending cooking ready served cancelled"`
	}
	if err := c.BodyParser(&updateData); err != nil {
		log.Printf("Error parsing item status body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body for item status update",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(updateData); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": fmt.Sprintf("Unknown item status: %s", updateData.Status),
		})
	}

	order, err := h.service.TransitionItem(orderID, index, updateData.Status)
	if err != nil {
		log.Printf("Error transitioning item %d of order %s to %s: %v", index, orderID, updateData.Status, err)
		return orderErrorResponse(c, err, "Could not update item status")
	}
	return c.JSON(toOrderResponse(order))
}

// HandleRecoverItem reverts a ready item back to cooking.
func (h *OrderHandler) HandleRecoverItem(c *fiber.Ctx) error {
	orderID := c.Params("id")
	index, err := c.ParamsInt("index")
	if err != nil || index < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Item index must be a non-negative integer",
		})
	}

	order, err := h.service.RecoverItem(orderID, index)
	if err != nil {
		log.Printf("Error recovering item %d of order %s: %v", index, orderID, err)
		return orderErrorResponse(c, err, "Could not recover item")
	}
	return c.JSON(toOrderResponse(order))
}

// HandleCancelItem soft-deletes a line item.
func (h *OrderHandler) HandleCancelItem(c *fiber.Ctx) error {
	orderID := c.Params("id")
	index, err := c.ParamsInt("index")
	if err != nil || index < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Item index must be a non-negative integer",
		})
	}

	order, err := h.service.CancelItem(orderID, index)
	if err != nil {
		log.Printf("Error cancelling item %d of order %s: %v", index, orderID, err)
		return orderErrorResponse(c, err, "Could not cancel item")
	}
	return c.JSON(toOrderResponse(order))
}

// HandleMarkPaid is the payment-provider webhook target.
func (h *OrderHandler) HandleMarkPaid(c *fiber.Ctx) error {
	orderID := c.Params("id")
	order, err := h.service.MarkPaid(orderID)
	if err != nil {
		log.Printf("Error marking order %s paid: %v", orderID, err)
		return orderErrorResponse(c, err, "Could not mark order paid")
	}
	return c.JSON(toOrderResponse(order))
}

// HandleDeleteOrder removes a served-and-paid order from history.
func (h *OrderHandler) HandleDeleteOrder(c *fiber.Ctx) error {
	orderID := c.Params("id")
	if err := h.service.DeleteOrder(orderID); err != nil {
		log.Printf("Error deleting order %s: %v", orderID, err)
		return orderErrorResponse(c, err, "Could not delete order")
	}
	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Order %s removed from history", orderID),
	})
}

// orderErrorResponse maps the engine's error taxonomy to HTTP statuses.
func orderErrorResponse(c *fiber.Ctx, err error, message string) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, models.ErrKitchenSaturated), errors.Is(err, models.ErrStoreUnavailable):
		status = fiber.StatusServiceUnavailable
	case errors.Is(err, models.ErrTableOccupied), errors.Is(err, models.ErrInvalidTransition),
		errors.Is(err, models.ErrOrderActive), errors.Is(err, models.ErrVersionConflict):
		status = fiber.StatusConflict
	}
	return c.Status(status).JSON(fiber.Map{
		"message": message,
		"error":   err.Error(),
	})
}
