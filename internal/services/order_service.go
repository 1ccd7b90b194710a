package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"comanda/internal/models"
	"comanda/internal/repositories"
)

// EventPublisher is the live-update channel consumed by the kitchen display
// and the customer queue page. Delivery is at-least-once and best-effort;
// consumers re-fetch authoritative state instead of trusting the payload.
type EventPublisher interface {
	Publish(exchange, routingKey string, body []byte) error
}

// Event routing keys published on the "order" exchange.
const (
	EventOrderCreated = "order.created"
	EventOrderUpdated = "order.updated"
	EventOrderPaid    = "order.paid"
)

// OrderConfig carries the operational constants of the engine. Values come
// from the environment; see main.go for the defaults.
type OrderConfig struct {
	// MaxActiveOrders is the admission-control threshold: once this many
	// orders are pending or cooking, new submissions are refused.
	MaxActiveOrders int
	// SaturationWait is the wait estimate shown to refused customers.
	SaturationWait string
	// HistoryPageSize bounds the kitchen history listing.
	HistoryPageSize int
}

// OrderItemRequest is one cart line in a submission.
type OrderItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Qty       int    `json:"qty" validate:"required,gt=0"`
}

// SubmitOrderRequest is a finalized cart.
type SubmitOrderRequest struct {
	TableNumber   int                `json:"table_number" validate:"required,gt=0"`
	PaymentMethod string             `json:"payment_method" validate:"required,oneof=cash credit card online"`
	Items         []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

// QueuePosition is the customer-facing FIFO estimate after checkout.
type QueuePosition struct {
	Position      int    `json:"position"`
	TotalActive   int    `json:"total_active"`
	Saturated     bool   `json:"saturated"`
	EstimatedWait string `json:"estimated_wait,omitempty"`
}

// casRetries bounds how often a transition re-fetches and re-applies after
// losing the version compare-and-swap to a concurrent writer.
const casRetries = 3

// readRetries bounds the extra attempts for idempotent reads when the store
// reports a transient failure.
const readRetries = 2

// OrderService owns the order lifecycle: item state machine, aggregate
// status, admission control and the queue-position query.
type OrderService struct {
	orderRepo   repositories.OrderRepository
	productRepo repositories.ProductRepository
	publisher   EventPublisher
	cfg         OrderConfig
}

// NewOrderService creates a new OrderService.
func NewOrderService(orderRepo repositories.OrderRepository, productRepo repositories.ProductRepository, publisher EventPublisher, cfg OrderConfig) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		publisher:   publisher,
		cfg:         cfg,
	}
}

// GetOrder retrieves a single order by its ID.
func (s *OrderService) GetOrder(id string) (*models.Order, error) {
	return s.orderRepo.GetByID(id)
}

// ListActiveOrders feeds the kitchen display: pending/cooking orders, oldest
// first.
func (s *OrderService) ListActiveOrders() ([]models.Order, error) {
	var orders []models.Order
	err := s.withReadRetry(func() error {
		var inner error
		orders, inner = s.orderRepo.ListActive()
		return inner
	})
	return orders, err
}

// SubmitOrder accepts a finalized cart. It refuses submissions while the
// kitchen is saturated or the table still has an order on the floor, prices
// the items from the current menu and persists the order as pending.
func (s *OrderService) SubmitOrder(req SubmitOrderRequest) (*models.Order, error) {
	if req.TableNumber <= 0 {
		return nil, fmt.Errorf("table number must be positive, got %d", req.TableNumber)
	}
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("order must contain at least one item")
	}

	// Admission control: shed load before the kitchen drowns. The count is
	// a snapshot, not a reservation; the threshold is a soft gate.
	active, err := s.orderRepo.CountActive()
	if err != nil {
		return nil, fmt.Errorf("check kitchen load: %w", err)
	}
	if active >= s.cfg.MaxActiveOrders {
		return nil, fmt.Errorf("%w: estimated wait %s", models.ErrKitchenSaturated, s.cfg.SaturationWait)
	}

	// A table is only free once its previous order is served and paid.
	if occupied, err := s.orderRepo.FindActiveByTable(req.TableNumber); err == nil && occupied != nil {
		return nil, fmt.Errorf("table %d held by order %s: %w", req.TableNumber, occupied.ID, models.ErrTableOccupied)
	} else if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("check table %d: %w", req.TableNumber, err)
	}

	// Snapshot menu prices at order time; the total is never recomputed.
	var totalAmount float64
	items := make([]models.OrderItem, 0, len(req.Items))
	for _, line := range req.Items {
		product, err := s.productRepo.GetByID(line.ProductID)
		if err != nil {
			return nil, fmt.Errorf("product %s: %w", line.ProductID, err)
		}
		if !product.Available {
			return nil, fmt.Errorf("product %s is off the menu: %w", product.Name, models.ErrNotFound)
		}
		items = append(items, models.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Price:     product.Price,
			Qty:       line.Qty,
			Category:  product.Category,
			Status:    models.ItemStatusPending,
		})
		totalAmount += product.Price * float64(line.Qty)
	}

	newOrder := &models.Order{
		TableNumber: req.TableNumber,
		Status:      models.OrderStatusPending,
		IsPaid:      models.PaidImmediately(req.PaymentMethod),
		Items:       items,
		TotalAmount: totalAmount,
	}

	if err := s.orderRepo.Create(newOrder); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.publish(EventOrderCreated, newOrder)
	return newOrder, nil
}

// TransitionItem applies one item-status change and recomputes the order
// aggregate. A transition to the status the item already holds is a no-op
// returning the unchanged order. The write is a compare-and-swap retried a
// bounded number of times, so two kitchen screens racing on the same order
// cannot lose each other's update.
func (s *OrderService) TransitionItem(orderID string, itemIndex int, newStatus models.ItemStatus) (*models.Order, error) {
	var lastErr error
	for attempt := 0; attempt <= casRetries; attempt++ {
		order, err := s.orderRepo.GetByID(orderID)
		if err != nil {
			return nil, err
		}
		if itemIndex < 0 || itemIndex >= len(order.Items) {
			return nil, fmt.Errorf("order %s has no item %d: %w", orderID, itemIndex, models.ErrNotFound)
		}

		current := order.Items[itemIndex].Status
		if current == newStatus {
			return order, nil
		}
		if !current.CanTransitionTo(newStatus) {
			return nil, fmt.Errorf("item %d: %s -> %s: %w", itemIndex, current, newStatus, models.ErrInvalidTransition)
		}

		order.Items[itemIndex].Status = newStatus
		order.Recompute()

		if err := s.orderRepo.Update(order); err != nil {
			if errors.Is(err, models.ErrVersionConflict) {
				lastErr = err
				continue
			}
			return nil, err
		}

		s.publish(EventOrderUpdated, order)
		return order, nil
	}
	return nil, fmt.Errorf("transition item %d of order %s: %w", itemIndex, orderID, lastErr)
}

// RecoverItem reverts a ready item back to cooking (the kitchen undo).
func (s *OrderService) RecoverItem(orderID string, itemIndex int) (*models.Order, error) {
	return s.TransitionItem(orderID, itemIndex, models.ItemStatusCooking)
}

// CancelItem soft-deletes a line item. The item stays in the order for
// audit but leaves every aggregate computation.
func (s *OrderService) CancelItem(orderID string, itemIndex int) (*models.Order, error) {
	return s.TransitionItem(orderID, itemIndex, models.ItemStatusCancelled)
}

// MarkPaid is the payment-webhook entry point: it settles the order and
// starts the kitchen on its pending items. Already-paid orders are a no-op.
func (s *OrderService) MarkPaid(orderID string) (*models.Order, error) {
	var lastErr error
	for attempt := 0; attempt <= casRetries; attempt++ {
		order, err := s.orderRepo.GetByID(orderID)
		if err != nil {
			return nil, err
		}
		if order.IsPaid {
			return order, nil
		}

		order.IsPaid = true
		for i := range order.Items {
			if order.Items[i].Status == models.ItemStatusPending {
				order.Items[i].Status = models.ItemStatusCooking
			}
		}
		order.Recompute()

		if err := s.orderRepo.Update(order); err != nil {
			if errors.Is(err, models.ErrVersionConflict) {
				lastErr = err
				continue
			}
			return nil, err
		}

		s.publish(EventOrderPaid, order)
		return order, nil
	}
	return nil, fmt.Errorf("mark order %s paid: %w", orderID, lastErr)
}

// ComputeQueuePosition returns the FIFO estimate for an order: how many
// active orders entered the kitchen before it, and how loaded the kitchen
// is overall. Idempotent; repeated calls without a mutation in between
// return the same numbers.
func (s *OrderService) ComputeQueuePosition(orderID string) (*QueuePosition, error) {
	var qp *QueuePosition
	err := s.withReadRetry(func() error {
		order, err := s.orderRepo.GetByID(orderID)
		if err != nil {
			return err
		}
		position, err := s.orderRepo.CountActiveBefore(order.CreatedAt, order.Seq)
		if err != nil {
			return err
		}
		total, err := s.orderRepo.CountActive()
		if err != nil {
			return err
		}
		qp = &QueuePosition{
			Position:    position,
			TotalActive: total,
		}
		if total > s.cfg.MaxActiveOrders {
			qp.Saturated = true
			qp.EstimatedWait = s.cfg.SaturationWait
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return qp, nil
}

// ListKitchenHistory returns the completed-items view: orders created on or
// after the boundary that have at least one ready or served food item.
// Items are narrowed to ready/served and drinks are always excluded. The
// page is bounded; pass the offset back in to restart the scan.
func (s *OrderService) ListKitchenHistory(since time.Time, sort repositories.HistorySort, offset int) ([]models.Order, error) {
	var page []models.Order
	err := s.withReadRetry(func() error {
		var inner error
		page, inner = s.orderRepo.ListSince(since, sort, s.cfg.HistoryPageSize, offset)
		return inner
	})
	if err != nil {
		return nil, err
	}

	history := make([]models.Order, 0, len(page))
	for _, order := range page {
		done := make([]models.OrderItem, 0, len(order.Items))
		for _, it := range order.Items {
			if it.IsDrink() {
				continue
			}
			if it.Status == models.ItemStatusReady || it.Status == models.ItemStatusServed {
				done = append(done, it)
			}
		}
		if len(done) == 0 {
			continue
		}
		order.Items = done
		history = append(history, order)
	}
	return history, nil
}

// DeleteOrder physically removes a closed order from the history view. It
// is the only physical deletion in the system and requires the order to be
// both served and paid.
func (s *OrderService) DeleteOrder(orderID string) error {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return err
	}
	if !order.IsClosed() {
		return fmt.Errorf("order %s (status=%s, paid=%t): %w", orderID, order.Status, order.IsPaid, models.ErrOrderActive)
	}
	return s.orderRepo.Delete(orderID)
}

// withReadRetry retries an idempotent read on transient store failures.
// Mutations never come through here.
func (s *OrderService) withReadRetry(fn func() error) error {
	var err error
	for attempt := 0; attempt <= readRetries; attempt++ {
		if err = fn(); err == nil || !errors.Is(err, models.ErrStoreUnavailable) {
			return err
		}
		time.Sleep(50 * time.Millisecond)
	}
	return err
}

// publish notifies live-update consumers. Failures are logged, never
// propagated: the store is the source of truth and consumers re-poll.
func (s *OrderService) publish(routingKey string, order *models.Order) {
	if s.publisher == nil {
		return
	}
	payload := map[string]interface{}{
		"order_id":     order.ID,
		"table_number": order.TableNumber,
		"status":       order.Status,
		"is_paid":      order.IsPaid,
		"total":        order.TotalAmount,
		"updated_at":   order.UpdatedAt,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Failed to marshal %s event for order %s: %v", routingKey, order.ID, err)
		return
	}
	if err := s.publisher.Publish("order", routingKey, body); err != nil {
		log.Printf("Warning: failed to publish %s event for order %s: %v", routingKey, order.ID, err)
	}
}
