package models

import "time"

// ItemStatus is the preparation status of a single line item.
type ItemStatus string

const (
	ItemStatusPending   ItemStatus = "pending"
	ItemStatusCooking   ItemStatus = "cooking"
	ItemStatusReady     ItemStatus = "ready"
	ItemStatusServed    ItemStatus = "served"
	ItemStatusCancelled ItemStatus = "cancelled" // soft delete; item stays in the order for audit
)

// OrderStatus is the order-level status, always derived from the items.
type OrderStatus string

const (
	OrderStatusPending OrderStatus = "pending"
	OrderStatusCooking OrderStatus = "cooking"
	OrderStatusReady   OrderStatus = "ready"
	OrderStatusServed  OrderStatus = "served"
)

// CategoryDrink marks drink items. Drinks are excluded from the food
// aggregate and from kitchen views; they are tracked via Order.DrinksServed.
const CategoryDrink = "bebida"

// Payment methods accepted at order submission.
const (
	PaymentCash   = "cash"
	PaymentCredit = "credit"
	PaymentCard   = "card"
	PaymentOnline = "online"
)

// OrderItem is a menu snapshot taken at order time, embedded in the order.
type OrderItem struct {
	ProductID string     `json:"product_id"`
	Name      string     `json:"name"`
	Price     float64    `json:"price"` // Price at the time of order
	Qty       int        `json:"qty"`
	Category  string     `json:"category"`
	Status    ItemStatus `json:"status"`
}

// IsDrink reports whether the item belongs to the drink sub-flow.
func (i OrderItem) IsDrink() bool {
	return i.Category == CategoryDrink
}

// Order represents one table visit. Items are persisted as a JSON column;
// Version backs the compare-and-swap update, Seq breaks created-at ties in
// the queue-position query.
type Order struct {
	ID           string      `json:"id" gorm:"primaryKey;type:varchar(36)"`
	TableNumber  int         `json:"table_number" gorm:"index"`
	Status       OrderStatus `json:"status" gorm:"type:varchar(20);index"`
	IsPaid       bool        `json:"is_paid"`
	Items        []OrderItem `json:"items" gorm:"serializer:json"`
	TotalAmount  float64     `json:"total_amount"`
	DrinksServed bool        `json:"drinks_served"`
	Seq          int64       `json:"seq" gorm:"uniqueIndex"`
	Version      int64       `json:"version"`
	CreatedAt    time.Time   `json:"created_at" gorm:"index"`
	UpdatedAt    time.Time   `json:"updated_at" gorm:"index"`
}

// CanTransitionTo reports whether an item may move from s to next.
// served and cancelled are terminal; ready may fall back to cooking (recover).
func (s ItemStatus) CanTransitionTo(next ItemStatus) bool {
	switch s {
	case ItemStatusPending:
		return next == ItemStatusCooking || next == ItemStatusReady || next == ItemStatusCancelled
	case ItemStatusCooking:
		return next == ItemStatusReady || next == ItemStatusCancelled
	case ItemStatusReady:
		return next == ItemStatusServed || next == ItemStatusCooking || next == ItemStatusCancelled
	default:
		return false
	}
}

// atLeastReady reports whether the item has reached the pass.
func atLeastReady(s ItemStatus) bool {
	return s == ItemStatusReady || s == ItemStatusServed
}

// AggregateStatus derives the order-level status from the items. It ranges
// over non-cancelled food items; when the order has no food the same ladder
// is applied to its drinks so a drinks-only order is not born served.
func AggregateStatus(items []OrderItem) OrderStatus {
	food := filterItems(items, false)
	if len(food) == 0 {
		food = filterItems(items, true)
	}
	if len(food) == 0 {
		return OrderStatusPending
	}

	allServed, allReady, anyCooking := true, true, false
	for _, it := range food {
		if it.Status != ItemStatusServed {
			allServed = false
		}
		if !atLeastReady(it.Status) {
			allReady = false
		}
		if it.Status == ItemStatusCooking {
			anyCooking = true
		}
	}
	switch {
	case allServed:
		return OrderStatusServed
	case allReady:
		return OrderStatusReady
	case anyCooking:
		return OrderStatusCooking
	default:
		return OrderStatusPending
	}
}

// DrinksServed reports whether every non-cancelled drink has been served.
// Orders without drinks report false; the flag is meaningless for them.
func DrinksServed(items []OrderItem) bool {
	drinks := filterItems(items, true)
	if len(drinks) == 0 {
		return false
	}
	for _, it := range drinks {
		if it.Status != ItemStatusServed {
			return false
		}
	}
	return true
}

// Recompute refreshes the derived fields after any item mutation.
func (o *Order) Recompute() {
	o.Status = AggregateStatus(o.Items)
	o.DrinksServed = DrinksServed(o.Items)
}

// IsActive reports whether the order still counts against kitchen capacity.
func (o *Order) IsActive() bool {
	return o.Status == OrderStatusPending || o.Status == OrderStatusCooking
}

// IsClosed reports whether the order has left the floor: served and paid.
// Only closed orders may be physically deleted from history.
func (o *Order) IsClosed() bool {
	return o.Status == OrderStatusServed && o.IsPaid
}

func filterItems(items []OrderItem, drinks bool) []OrderItem {
	out := make([]OrderItem, 0, len(items))
	for _, it := range items {
		if it.Status == ItemStatusCancelled {
			continue
		}
		if it.IsDrink() == drinks {
			out = append(out, it)
		}
	}
	return out
}

// PaidImmediately reports whether the payment method settles at the table.
// Card and online payments stay unpaid until the provider webhook confirms.
func PaidImmediately(method string) bool {
	return method == PaymentCash || method == PaymentCredit
}
